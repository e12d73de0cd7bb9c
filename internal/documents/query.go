package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"folio/internal/apperr"
	"folio/internal/database"
	"folio/internal/models"
	"folio/internal/payments"

	"github.com/shopspring/decimal"
)

const selectDocument = `SELECT d.id, d.number, d.type, d.customer_id, COALESCE(c.name, ''), d.user_id,
	d.subtotal, d.tax_amount, d.total_amount, d.terms, d.notes, d.status, d.issue_date,
	COALESCE(d.converted_from_id, ''), d.created_at, d.updated_at
	FROM documents d LEFT JOIN customers c ON c.id = d.customer_id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var d models.Document
	var typ, issue, created, updated string
	err := row.Scan(&d.ID, &d.Number, &typ, &d.CustomerID, &d.CustomerName, &d.UserID,
		&d.Subtotal, &d.TaxAmount, &d.TotalAmount, &d.Terms, &d.Notes, &d.Status, &issue,
		&d.ConvertedFromID, &created, &updated)
	if err != nil {
		return nil, err
	}
	d.Type = models.DocumentType(typ)
	d.IssueDate = database.MustParseTime(issue)
	d.CreatedAt = database.MustParseTime(created)
	d.UpdatedAt = database.MustParseTime(updated)
	return &d, nil
}

func getDocument(ctx context.Context, q database.Querier, id string) (*models.Document, error) {
	doc, err := scanDocument(q.QueryRowContext(ctx, selectDocument+" WHERE d.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("document", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

func loadPayments(ctx context.Context, q database.Querier, documentID string) ([]models.Payment, error) {
	list, err := payments.Query(ctx, q, payments.Filter{DocumentID: documentID})
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Payment{}
	}
	return list, nil
}

func loadConversions(ctx context.Context, q database.Querier, id string) ([]models.DocumentRef, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, number, type FROM documents WHERE converted_from_id = ? ORDER BY created_at, number", id)
	if err != nil {
		return nil, fmt.Errorf("load conversions: %w", err)
	}
	defer rows.Close()

	var refs []models.DocumentRef
	for rows.Next() {
		var r models.DocumentRef
		var typ string
		if err := rows.Scan(&r.ID, &r.Number, &typ); err != nil {
			return nil, err
		}
		r.Type = models.DocumentType(typ)
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// paidByDocument returns the payment amounts of every document matching f.
func paidByDocument(ctx context.Context, q database.Querier, f Filter) (map[string][]decimal.Decimal, error) {
	where, args := f.where()
	rows, err := q.QueryContext(ctx,
		"SELECT p.document_id, p.amount FROM payments p JOIN documents d ON d.id = p.document_id"+where, args...)
	if err != nil {
		return nil, fmt.Errorf("load payment amounts: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]decimal.Decimal)
	for rows.Next() {
		var id string
		var amount decimal.Decimal
		if err := rows.Scan(&id, &amount); err != nil {
			return nil, err
		}
		out[id] = append(out[id], amount)
	}
	return out, rows.Err()
}
