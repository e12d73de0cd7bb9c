package customers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"folio/internal/database"
)

func replaceEmails(ctx context.Context, tx *sql.Tx, customerID string, emails []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM customer_emails WHERE customer_id = ?", customerID); err != nil {
		return fmt.Errorf("clear customer emails: %w", err)
	}
	for i, e := range emails {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO customer_emails (customer_id, position, email) VALUES (?, ?, ?)",
			customerID, i, strings.TrimSpace(e))
		if err != nil {
			return fmt.Errorf("insert customer email: %w", err)
		}
	}
	return nil
}

func loadEmails(ctx context.Context, q database.Querier, customerID string) ([]string, error) {
	m, err := loadEmailsFor(ctx, q, []string{customerID})
	if err != nil {
		return nil, err
	}
	if m[customerID] == nil {
		return []string{}, nil
	}
	return m[customerID], nil
}

func loadEmailsFor(ctx context.Context, q database.Querier, ids []string) (map[string][]string, error) {
	out := make(map[string][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := "SELECT customer_id, email FROM customer_emails WHERE customer_id IN (" +
		placeholders(len(ids)) + ") ORDER BY customer_id, position"
	rows, err := q.QueryContext(ctx, query, toArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("load customer emails: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, email string
		if err := rows.Scan(&id, &email); err != nil {
			return nil, err
		}
		out[id] = append(out[id], email)
	}
	return out, rows.Err()
}

// Emails returns a customer's addresses in order.
func Emails(ctx context.Context, q database.Querier, customerID string) ([]string, error) {
	return loadEmails(ctx, q, customerID)
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

func toArgs(ids []string) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
