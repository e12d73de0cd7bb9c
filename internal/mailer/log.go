package mailer

import (
	"context"
	"database/sql"
	"fmt"

	"folio/internal/apperr"
	"folio/internal/database"
	"folio/internal/models"
)

const (
	kindTo  = "TO"
	kindCc  = "CC"
	kindBcc = "BCC"
)

func (s *Service) writeLog(ctx context.Context, e *models.EmailLog) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO email_log (id, document_id, user_id, subject, body, status, error_message, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.DocumentID, e.UserID, e.Subject, e.Body, string(e.Status), e.ErrorMessage, database.FormatTime(e.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert email log: %w", err)
		}
		for kind, addrs := range map[string][]string{kindTo: e.To, kindCc: e.Cc, kindBcc: e.Bcc} {
			for i, addr := range addrs {
				_, err := tx.ExecContext(ctx,
					"INSERT INTO email_log_recipients (email_log_id, kind, position, address) VALUES (?, ?, ?, ?)",
					e.ID, kind, i, addr)
				if err != nil {
					return fmt.Errorf("insert email recipient: %w", err)
				}
			}
		}
		return nil
	})
}

// Log returns a document's email attempts, newest first.
func (s *Service) Log(ctx context.Context, documentID string) ([]models.EmailLog, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE id = ?", documentID).Scan(&n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperr.NotFound("document", documentID)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, user_id, subject, body, status, error_message, created_at
		FROM email_log WHERE document_id = ? ORDER BY created_at DESC`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list email log: %w", err)
	}
	defer rows.Close()

	entries := []models.EmailLog{}
	index := map[string]int{}
	for rows.Next() {
		var e models.EmailLog
		var status, created string
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.UserID, &e.Subject, &e.Body, &status, &e.ErrorMessage, &created); err != nil {
			return nil, err
		}
		e.Status = models.EmailStatus(status)
		e.CreatedAt = database.MustParseTime(created)
		e.To = []string{}
		index[e.ID] = len(entries)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	recips, err := s.db.QueryContext(ctx,
		`SELECT r.email_log_id, r.kind, r.address FROM email_log_recipients r
		JOIN email_log l ON l.id = r.email_log_id
		WHERE l.document_id = ? ORDER BY r.email_log_id, r.kind, r.position`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list email recipients: %w", err)
	}
	defer recips.Close()
	for recips.Next() {
		var id, kind, addr string
		if err := recips.Scan(&id, &kind, &addr); err != nil {
			return nil, err
		}
		i, ok := index[id]
		if !ok {
			continue
		}
		switch kind {
		case kindTo:
			entries[i].To = append(entries[i].To, addr)
		case kindCc:
			entries[i].Cc = append(entries[i].Cc, addr)
		case kindBcc:
			entries[i].Bcc = append(entries[i].Bcc, addr)
		}
	}
	if err := recips.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
