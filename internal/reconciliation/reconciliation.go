// Package reconciliation compares document totals with the payments received
// against them. Everything here is pure arithmetic on decimals.
package reconciliation

import (
	"folio/internal/models"

	"github.com/shopspring/decimal"
)

// Summarize reconciles a document total against its payment amounts.
//
// Variance is signed (paid minus total); outstanding is its magnitude, so an
// overpaid document reports the excess as outstanding with status EXCESS.
func Summarize(total decimal.Decimal, payments []decimal.Decimal) models.PaymentSummary {
	paid := Sum(payments)
	return models.PaymentSummary{
		TotalAmount: total,
		TotalPaid:   paid,
		Outstanding: total.Sub(paid).Abs(),
		Variance:    paid.Sub(total),
		Status:      Classify(total, paid),
	}
}

// Classify returns the payment status of a document with the given total and
// amount paid. Rules apply in order: EXCESS, PAID, PARTIAL, UNPAID.
func Classify(total, paid decimal.Decimal) models.PaymentStatus {
	switch {
	case paid.GreaterThan(total):
		return models.Excess
	case paid.Equal(total):
		return models.Paid
	case paid.IsPositive():
		return models.Partial
	default:
		return models.Unpaid
	}
}

// Sum adds amounts exactly.
func Sum(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Invoice is the minimum needed to compute an outstanding balance.
type Invoice struct {
	Total    decimal.Decimal
	Payments []decimal.Decimal
}

// Remaining is total minus payments, negative when overpaid.
func (i Invoice) Remaining() decimal.Decimal {
	return i.Total.Sub(Sum(i.Payments))
}

// OutstandingBalance sums what is still owed across invoices. Overpaid
// invoices contribute nothing; they never offset another invoice's shortfall.
func OutstandingBalance(invoices []Invoice) decimal.Decimal {
	balance := decimal.Zero
	for _, inv := range invoices {
		if r := inv.Remaining(); r.IsPositive() {
			balance = balance.Add(r)
		}
	}
	return balance
}
