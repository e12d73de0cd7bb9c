package audit

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"folio/internal/database"
	"folio/internal/logger"
	"folio/internal/models"
	"folio/internal/websocket"
)

// Action constants.
const (
	ActionCreate  = "CREATE"
	ActionUpdate  = "UPDATE"
	ActionDelete  = "DELETE"
	ActionConvert = "CONVERT"
	ActionEmail   = "EMAIL"
	ActionExport  = "EXPORT"
	ActionLogin   = "LOGIN"
	ActionLogout  = "LOGOUT"
)

// Module names used in audit rows and broadcast event types.
const (
	ModuleCustomers = "customers"
	ModuleDocuments = "documents"
	ModulePayments  = "payments"
	ModuleUsers     = "users"
	ModuleSettings  = "settings"
	ModuleReports   = "reports"
)

// Entry is one audited action.
type Entry struct {
	UserID   string
	Action   string
	Module   string
	RecordID string
	Summary  string
}

// Logger writes audit rows and mirrors them to live clients. A nil *Logger
// discards everything.
type Logger struct {
	db  *sql.DB
	hub *websocket.Hub
}

// New returns an audit Logger. hub may be nil.
func New(db *sql.DB, hub *websocket.Hub) *Logger {
	return &Logger{db: db, hub: hub}
}

// Record stores e and broadcasts it. Failures are logged, never returned: the
// audited change has already been committed.
func (l *Logger) Record(ctx context.Context, e Entry) {
	if l == nil {
		return
	}
	_, err := l.db.ExecContext(ctx,
		"INSERT INTO audit_log (user_id, action, module, record_id, summary, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		e.UserID, e.Action, e.Module, e.RecordID, e.Summary, database.FormatTime(time.Now()))
	if err != nil {
		log := logger.WithComponent("audit")
		log.Warn().Err(err).Str("module", e.Module).Str("record_id", e.RecordID).Msg("audit log write failed")
	}
	if l.hub != nil {
		l.hub.Broadcast(websocket.Event{
			Type:   e.Module + "_" + strings.ToLower(e.Action),
			ID:     e.RecordID,
			Action: e.Action,
		})
	}
}

// List returns audit rows for a module, newest first. recordID narrows to one
// record when non-empty.
func (l *Logger) List(ctx context.Context, module, recordID string, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	query := "SELECT id, user_id, action, module, record_id, summary, created_at FROM audit_log WHERE module = ?"
	args := []interface{}{module}
	if recordID != "" {
		query += " AND record_id = ?"
		args = append(args, recordID)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		var created string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Module, &e.RecordID, &e.Summary, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = database.MustParseTime(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
