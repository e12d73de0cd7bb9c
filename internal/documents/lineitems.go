package documents

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"folio/internal/database"
	"folio/internal/models"
	"folio/internal/reconciliation"
	"folio/internal/validation"

	"github.com/shopspring/decimal"
)

// LineItemInput is one billed line. Amount is derived as quantity x days x
// unit price when omitted; Days defaults to 1.
type LineItemInput struct {
	Description string           `json:"description"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Days        decimal.Decimal  `json:"days"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	Amount      *decimal.Decimal `json:"amount"`
}

func buildLineItems(ve *validation.ValidationErrors, in []LineItemInput) []models.LineItem {
	items := make([]models.LineItem, 0, len(in))
	for i, li := range in {
		field := func(name string) string { return fmt.Sprintf("line_items[%d].%s", i, name) }

		desc := strings.TrimSpace(li.Description)
		validation.RequireField(ve, field("description"), desc)
		validation.ValidateMaxLength(ve, field("description"), desc, validation.MaxStringLength)

		days := li.Days
		if days.IsZero() {
			days = decimal.NewFromInt(1)
		}
		validation.ValidatePositive(ve, field("quantity"), li.Quantity)
		validation.ValidatePositive(ve, field("days"), days)
		validation.ValidateNonNegative(ve, field("unit_price"), li.UnitPrice)
		validation.ValidateMaxAmount(ve, field("unit_price"), li.UnitPrice)

		amount := li.Quantity.Mul(days).Mul(li.UnitPrice)
		if li.Amount != nil {
			amount = *li.Amount
			validation.ValidateNonNegative(ve, field("amount"), amount)
		}
		validation.ValidateMaxAmount(ve, field("amount"), amount)

		items = append(items, models.LineItem{
			Description: desc,
			Quantity:    li.Quantity,
			Days:        days,
			UnitPrice:   li.UnitPrice,
			Amount:      amount,
		})
	}
	return items
}

// lineTotal sums the line amounts.
func lineTotal(items []models.LineItem) decimal.Decimal {
	amounts := make([]decimal.Decimal, len(items))
	for i, li := range items {
		amounts[i] = li.Amount
	}
	return reconciliation.Sum(amounts)
}

func insertLineItems(ctx context.Context, tx *sql.Tx, documentID string, items []models.LineItem) error {
	for i, li := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO document_line_items (document_id, position, description, quantity, days, unit_price, amount)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			documentID, i, li.Description, li.Quantity, li.Days, li.UnitPrice, li.Amount)
		if err != nil {
			return fmt.Errorf("insert line item %d: %w", i, err)
		}
	}
	return nil
}

func replaceLineItems(ctx context.Context, tx *sql.Tx, documentID string, items []models.LineItem) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM document_line_items WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("clear line items: %w", err)
	}
	return insertLineItems(ctx, tx, documentID, items)
}

func loadLineItems(ctx context.Context, q database.Querier, documentID string) ([]models.LineItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT description, quantity, days, unit_price, amount FROM document_line_items
		WHERE document_id = ? ORDER BY position`, documentID)
	if err != nil {
		return nil, fmt.Errorf("load line items: %w", err)
	}
	defer rows.Close()

	items := []models.LineItem{}
	for rows.Next() {
		var li models.LineItem
		if err := rows.Scan(&li.Description, &li.Quantity, &li.Days, &li.UnitPrice, &li.Amount); err != nil {
			return nil, err
		}
		items = append(items, li)
	}
	return items, rows.Err()
}
