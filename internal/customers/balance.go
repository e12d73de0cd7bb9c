package customers

import (
	"context"
	"fmt"

	"folio/internal/database"
	"folio/internal/reconciliation"

	"github.com/shopspring/decimal"
)

// Balances computes the outstanding balance of each customer in ids. A nil
// ids computes it for every customer with at least one invoice. Customers
// without invoices map to zero when listed explicitly.
func Balances(ctx context.Context, q database.Querier, ids []string) (map[string]decimal.Decimal, error) {
	query := `SELECT d.customer_id, d.id, d.total_amount, p.amount
		FROM documents d
		LEFT JOIN payments p ON p.document_id = d.id
		WHERE d.type = 'INVOICE'`
	var args []interface{}
	if ids != nil {
		if len(ids) == 0 {
			return map[string]decimal.Decimal{}, nil
		}
		query += " AND d.customer_id IN (" + placeholders(len(ids)) + ")"
		args = toArgs(ids)
	}
	query += " ORDER BY d.customer_id, d.id"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load invoice balances: %w", err)
	}
	defer rows.Close()

	invoices := make(map[string]map[string]*reconciliation.Invoice)
	for rows.Next() {
		var customerID, docID string
		var total decimal.Decimal
		var amount decimal.NullDecimal
		if err := rows.Scan(&customerID, &docID, &total, &amount); err != nil {
			return nil, err
		}
		byDoc := invoices[customerID]
		if byDoc == nil {
			byDoc = make(map[string]*reconciliation.Invoice)
			invoices[customerID] = byDoc
		}
		inv := byDoc[docID]
		if inv == nil {
			inv = &reconciliation.Invoice{Total: total}
			byDoc[docID] = inv
		}
		if amount.Valid {
			inv.Payments = append(inv.Payments, amount.Decimal)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make(map[string]decimal.Decimal, len(ids))
	for _, id := range ids {
		out[id] = decimal.Zero
	}
	for customerID, byDoc := range invoices {
		list := make([]reconciliation.Invoice, 0, len(byDoc))
		for _, inv := range byDoc {
			list = append(list, *inv)
		}
		out[customerID] = reconciliation.OutstandingBalance(list)
	}
	return out, nil
}
