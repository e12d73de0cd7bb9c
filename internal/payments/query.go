package payments

import (
	"context"
	"fmt"
	"strings"

	"folio/internal/database"
	"folio/internal/models"
)

// Filter narrows a payment listing.
type Filter struct {
	DocumentID string
	CustomerID string
	Limit      int
}

func (f Filter) where() (string, []interface{}) {
	var clauses []string
	var args []interface{}
	if f.DocumentID != "" {
		clauses = append(clauses, "p.document_id = ?")
		args = append(args, f.DocumentID)
	}
	if f.CustomerID != "" {
		clauses = append(clauses, "p.customer_id = ?")
		args = append(args, f.CustomerID)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

const selectPayment = `SELECT p.id, p.amount, p.method, p.date_received, p.document_id, COALESCE(d.number, ''),
	p.customer_id, COALESCE(c.name, ''), p.reference, p.notes, p.user_id, p.version, p.created_at, p.updated_at
	FROM payments p
	LEFT JOIN documents d ON d.id = p.document_id
	LEFT JOIN customers c ON c.id = p.customer_id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	var p models.Payment
	var method, received, created, updated string
	err := row.Scan(&p.ID, &p.Amount, &method, &received, &p.DocumentID, &p.DocumentNumber,
		&p.CustomerID, &p.CustomerName, &p.Reference, &p.Notes, &p.UserID, &p.Version, &created, &updated)
	if err != nil {
		return nil, err
	}
	p.Method = models.PaymentMethod(method)
	p.DateReceived = database.MustParseTime(received)
	p.CreatedAt = database.MustParseTime(created)
	p.UpdatedAt = database.MustParseTime(updated)
	return &p, nil
}

// Query lists payments matching f on q, most recently received first.
func Query(ctx context.Context, q database.Querier, f Filter) ([]models.Payment, error) {
	where, args := f.where()
	query := selectPayment + where + " ORDER BY p.date_received DESC, p.created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var list []models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}
