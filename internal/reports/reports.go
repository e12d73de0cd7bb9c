// Package reports builds tabular reports, analytics series and dashboard
// totals from documents and payments.
package reports

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"folio/internal/apperr"
	"folio/internal/audit"
	"folio/internal/database"
	"folio/internal/models"
	"folio/internal/reconciliation"

	"github.com/shopspring/decimal"
)

// Type names a report.
type Type string

const (
	Monthly     Type = "monthly"
	Customer    Type = "customer"
	Outstanding Type = "outstanding"
)

// Report is a rendered table ready for export.
type Report struct {
	Type    Type       `json:"type"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Params selects a report. Month is YYYY-MM and only applies to Monthly;
// CustomerID is required for Customer.
type Params struct {
	Type       Type
	Month      string
	CustomerID string
}

// Service builds reports.
type Service struct {
	db    *sql.DB
	audit *audit.Logger
	now   func() time.Time
}

// NewService returns a report Service. auditLog may be nil.
func NewService(db *sql.DB, auditLog *audit.Logger) *Service {
	return &Service{db: db, audit: auditLog, now: time.Now}
}

// ParseMonth returns the [start, end) range of a YYYY-MM month in UTC.
func ParseMonth(month string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("invalid month",
			apperr.FieldError{Field: "month", Message: "must be YYYY-MM"})
	}
	return start, start.AddDate(0, 1, 0), nil
}

// Build dispatches on p.Type.
func (s *Service) Build(ctx context.Context, p Params) (*Report, error) {
	switch p.Type {
	case Monthly:
		return s.Monthly(ctx, p.Month)
	case Customer:
		if p.CustomerID == "" {
			return nil, apperr.Validation("customer report needs a customer",
				apperr.FieldError{Field: "customer_id", Message: "is required"})
		}
		return s.Customer(ctx, p.CustomerID)
	case Outstanding:
		return s.Outstanding(ctx)
	}
	return nil, apperr.Validation("unknown report type",
		apperr.FieldError{Field: "type", Message: "must be one of: monthly, customer, outstanding"})
}

// docRow is one document with what has been paid against it.
type docRow struct {
	ID       string
	Number   string
	Type     models.DocumentType
	Customer string
	Created  time.Time
	Total    decimal.Decimal
	Paid     decimal.Decimal
}

func (r docRow) balance() decimal.Decimal { return r.Total.Sub(r.Paid) }

type docFilter struct {
	Type       models.DocumentType
	CustomerID string
	From, To   time.Time
}

func (f docFilter) where() (string, []interface{}) {
	var clauses []string
	var args []interface{}
	if f.Type != "" {
		clauses = append(clauses, "d.type = ?")
		args = append(args, string(f.Type))
	}
	if f.CustomerID != "" {
		clauses = append(clauses, "d.customer_id = ?")
		args = append(args, f.CustomerID)
	}
	if !f.From.IsZero() {
		clauses = append(clauses, "d.created_at >= ?", "d.created_at < ?")
		args = append(args, database.FormatTime(f.From), database.FormatTime(f.To))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// loadDocs returns matching documents newest first with their paid totals.
func (s *Service) loadDocs(ctx context.Context, f docFilter) ([]docRow, error) {
	where, args := f.where()
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.id, d.number, d.type, COALESCE(c.name, ''), d.created_at, d.total_amount
		FROM documents d LEFT JOIN customers c ON c.id = d.customer_id`+where+
			" ORDER BY d.created_at DESC, d.number DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	defer rows.Close()

	var docs []docRow
	index := map[string]int{}
	for rows.Next() {
		var r docRow
		var typ, created string
		if err := rows.Scan(&r.ID, &r.Number, &typ, &r.Customer, &created, &r.Total); err != nil {
			return nil, err
		}
		r.Type = models.DocumentType(typ)
		r.Created = database.MustParseTime(created)
		index[r.ID] = len(docs)
		docs = append(docs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	payRows, err := s.db.QueryContext(ctx,
		"SELECT p.document_id, p.amount FROM payments p JOIN documents d ON d.id = p.document_id"+where, args...)
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}
	defer payRows.Close()
	for payRows.Next() {
		var id string
		var amount decimal.Decimal
		if err := payRows.Scan(&id, &amount); err != nil {
			return nil, err
		}
		if i, ok := index[id]; ok {
			docs[i].Paid = docs[i].Paid.Add(amount)
		}
	}
	return docs, payRows.Err()
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func date(t time.Time) string { return t.Format("2006-01-02") }

// Monthly lists every document, or those created in month when given.
func (s *Service) Monthly(ctx context.Context, month string) (*Report, error) {
	var f docFilter
	if month != "" {
		from, to, err := ParseMonth(month)
		if err != nil {
			return nil, err
		}
		f.From, f.To = from, to
	}
	docs, err := s.loadDocs(ctx, f)
	if err != nil {
		return nil, err
	}
	rep := &Report{
		Type:    Monthly,
		Headers: []string{"Document Number", "Type", "Customer", "Date", "Total Amount", "Amount Received", "Outstanding"},
		Rows:    [][]string{},
	}
	for _, d := range docs {
		rep.Rows = append(rep.Rows, []string{d.Number, string(d.Type), d.Customer, date(d.Created), money(d.Total), money(d.Paid), money(d.balance())})
	}
	return rep, nil
}

// Customer lists one customer's documents, newest first.
func (s *Service) Customer(ctx context.Context, customerID string) (*Report, error) {
	docs, err := s.loadDocs(ctx, docFilter{CustomerID: customerID})
	if err != nil {
		return nil, err
	}
	rep := &Report{
		Type:    Customer,
		Headers: []string{"Document Number", "Type", "Date", "Total Amount", "Amount Received", "Outstanding"},
		Rows:    [][]string{},
	}
	for _, d := range docs {
		rep.Rows = append(rep.Rows, []string{d.Number, string(d.Type), date(d.Created), money(d.Total), money(d.Paid), money(d.balance())})
	}
	return rep, nil
}

// Outstanding lists invoices that are not fully paid.
func (s *Service) Outstanding(ctx context.Context) (*Report, error) {
	docs, err := s.loadDocs(ctx, docFilter{Type: models.Invoice})
	if err != nil {
		return nil, err
	}
	rep := &Report{
		Type:    Outstanding,
		Headers: []string{"Invoice Number", "Customer", "Date", "Total Amount", "Amount Received", "Outstanding"},
		Rows:    [][]string{},
	}
	for _, d := range docs {
		if !d.balance().IsPositive() {
			continue
		}
		rep.Rows = append(rep.Rows, []string{d.Number, d.Customer, date(d.Created), money(d.Total), money(d.Paid), money(d.balance())})
	}
	return rep, nil
}

// AnalyticsFilter narrows MonthlyAnalytics. DocumentType "" or "ALL" means
// every type.
type AnalyticsFilter struct {
	CustomerID   string
	Month        string
	DocumentType string
}

// AnalyticsPoint is one bar of the invoiced-versus-received chart.
type AnalyticsPoint struct {
	Label    string          `json:"label"`
	Invoiced decimal.Decimal `json:"invoiced"`
	Received decimal.Decimal `json:"received"`
	Variance decimal.Decimal `json:"variance"`
}

// MonthlyAnalytics groups documents by customer and creation month, or by
// month alone when filtered to one customer.
func (s *Service) MonthlyAnalytics(ctx context.Context, af AnalyticsFilter) ([]AnalyticsPoint, error) {
	f := docFilter{CustomerID: af.CustomerID}
	if af.DocumentType != "" && af.DocumentType != "ALL" {
		t := models.DocumentType(af.DocumentType)
		if !t.Valid() {
			return nil, apperr.Validation("invalid document type",
				apperr.FieldError{Field: "document_type", Message: "must be ALL, QUOTATION, PROFORMA or INVOICE"})
		}
		f.Type = t
	}
	if af.Month != "" {
		from, to, err := ParseMonth(af.Month)
		if err != nil {
			return nil, err
		}
		f.From, f.To = from, to
	}
	docs, err := s.loadDocs(ctx, f)
	if err != nil {
		return nil, err
	}

	groups := map[string]*AnalyticsPoint{}
	var labels []string
	for _, d := range docs {
		label := d.Created.UTC().Format("2006-01")
		if af.CustomerID == "" {
			label = d.Customer + "-" + label
		}
		p, ok := groups[label]
		if !ok {
			p = &AnalyticsPoint{Label: label}
			groups[label] = p
			labels = append(labels, label)
		}
		p.Invoiced = p.Invoiced.Add(d.Total)
		p.Received = p.Received.Add(d.Paid)
	}
	sort.Strings(labels)

	out := make([]AnalyticsPoint, 0, len(labels))
	for _, l := range labels {
		p := groups[l]
		p.Variance = p.Received.Sub(p.Invoiced)
		out = append(out, *p)
	}
	return out, nil
}

// Dashboard is the headline figures on the home screen.
type Dashboard struct {
	Customers        int                         `json:"customers"`
	Documents        map[models.DocumentType]int `json:"documents"`
	TotalInvoiced    decimal.Decimal             `json:"total_invoiced"`
	TotalReceived    decimal.Decimal             `json:"total_received"`
	TotalOutstanding decimal.Decimal             `json:"total_outstanding"`
}

// Dashboard computes the headline figures. Outstanding only counts the unpaid
// remainder of each invoice; overpayments do not offset other debts.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{Documents: map[models.DocumentType]int{}}
	for _, t := range models.DocumentTypes {
		d.Documents[t] = 0
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers").Scan(&d.Customers); err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, "SELECT type, COUNT(*) FROM documents GROUP BY type")
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		d.Documents[models.DocumentType(typ)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	docs, err := s.loadDocs(ctx, docFilter{})
	if err != nil {
		return nil, err
	}
	var invoices []reconciliation.Invoice
	for _, doc := range docs {
		d.TotalReceived = d.TotalReceived.Add(doc.Paid)
		if doc.Type != models.Invoice {
			continue
		}
		d.TotalInvoiced = d.TotalInvoiced.Add(doc.Total)
		invoices = append(invoices, reconciliation.Invoice{Total: doc.Total, Payments: []decimal.Decimal{doc.Paid}})
	}
	d.TotalOutstanding = reconciliation.OutstandingBalance(invoices)
	return d, nil
}
