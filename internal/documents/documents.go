package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"folio/internal/apperr"
	"folio/internal/audit"
	"folio/internal/config"
	"folio/internal/customers"
	"folio/internal/database"
	"folio/internal/models"
	"folio/internal/numbering"
	"folio/internal/reconciliation"
	"folio/internal/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultLimit caps List when the filter does not.
const DefaultLimit = 100

// Service manages quotations, proformas and invoices.
//
// Concurrent Update calls on one document are last-writer-wins; only number
// allocation is serialized.
type Service struct {
	db       *sql.DB
	numbers  *numbering.Allocator
	defaults config.DefaultsConfig
	audit    *audit.Logger
	now      func() time.Time
}

// NewService returns a document Service. auditLog may be nil.
func NewService(db *sql.DB, numbers *numbering.Allocator, defaults config.DefaultsConfig, auditLog *audit.Logger) *Service {
	return &Service{db: db, numbers: numbers, defaults: defaults, audit: auditLog, now: time.Now}
}

// SetClock replaces the time source. Tests only.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// CreateInput is the payload for Create. Nil money fields are derived from
// the line items; nil Terms and Notes take the configured defaults.
type CreateInput struct {
	Type            models.DocumentType `json:"type"`
	CustomerID      string              `json:"customer_id"`
	LineItems       []LineItemInput     `json:"line_items"`
	Subtotal        *decimal.Decimal    `json:"subtotal"`
	TaxAmount       *decimal.Decimal    `json:"tax_amount"`
	TotalAmount     *decimal.Decimal    `json:"total_amount"`
	Terms           *string             `json:"terms"`
	Notes           *string             `json:"notes"`
	IssueDate       *time.Time          `json:"issue_date"`
	ConvertedFromID string              `json:"converted_from_id"`
}

// UpdateInput is the payload for Update. Nil fields are left unchanged.
// Replacing the line items without a subtotal recomputes the subtotal, and
// changing subtotal or tax without a total recomputes the total.
type UpdateInput struct {
	LineItems   *[]LineItemInput `json:"line_items"`
	Subtotal    *decimal.Decimal `json:"subtotal"`
	TaxAmount   *decimal.Decimal `json:"tax_amount"`
	TotalAmount *decimal.Decimal `json:"total_amount"`
	Terms       *string          `json:"terms"`
	Notes       *string          `json:"notes"`
	Status      *string          `json:"status"`
}

// Filter narrows List. CreatedFrom is inclusive, CreatedTo exclusive.
type Filter struct {
	Type        models.DocumentType
	CustomerID  string
	CreatedFrom time.Time
	CreatedTo   time.Time
	Limit       int
}

func (f Filter) where() (string, []interface{}) {
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
	if !f.CreatedFrom.IsZero() {
		clauses = append(clauses, "d.created_at >= ?")
		args = append(args, database.FormatTime(f.CreatedFrom))
	}
	if !f.CreatedTo.IsZero() {
		clauses = append(clauses, "d.created_at < ?")
		args = append(args, database.FormatTime(f.CreatedTo))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func validateMoney(ve *validation.ValidationErrors, subtotal, tax, total decimal.Decimal) {
	validation.ValidateNonNegative(ve, "subtotal", subtotal)
	validation.ValidateNonNegative(ve, "tax_amount", tax)
	validation.ValidateNonNegative(ve, "total_amount", total)
	validation.ValidateMaxAmount(ve, "total_amount", total)
}

// Create stores a new DRAFT document with a freshly allocated number.
func (s *Service) Create(ctx context.Context, actor string, in CreateInput) (*models.Document, error) {
	ve := &validation.ValidationErrors{}
	if !in.Type.Valid() {
		ve.Add("type", "must be one of: "+strings.Join(validation.ValidDocumentTypes, ", "))
	}
	validation.RequireField(ve, "customer_id", in.CustomerID)
	items := buildLineItems(ve, in.LineItems)

	subtotal := lineTotal(items)
	if in.Subtotal != nil {
		subtotal = *in.Subtotal
	}
	tax := decimal.Zero
	if in.TaxAmount != nil {
		tax = *in.TaxAmount
	}
	total := subtotal.Add(tax)
	if in.TotalAmount != nil {
		total = *in.TotalAmount
	}
	validateMoney(ve, subtotal, tax, total)
	if err := ve.Err(); err != nil {
		return nil, err
	}

	terms := s.defaults.Terms
	if in.Terms != nil {
		terms = *in.Terms
	}
	notes := s.defaults.Notes
	if in.Notes != nil {
		notes = *in.Notes
	}
	now := s.now()
	issue := now
	if in.IssueDate != nil && !in.IssueDate.IsZero() {
		issue = *in.IssueDate
	}

	doc := &models.Document{
		ID:              uuid.NewString(),
		Type:            in.Type,
		CustomerID:      in.CustomerID,
		UserID:          actor,
		LineItems:       items,
		Subtotal:        subtotal,
		TaxAmount:       tax,
		TotalAmount:     total,
		Terms:           terms,
		Notes:           notes,
		Status:          models.DocumentStatusDraft,
		IssueDate:       issue,
		ConvertedFromID: in.ConvertedFromID,
	}

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		ok, err := customers.Exists(ctx, tx, in.CustomerID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("customer", in.CustomerID)
		}
		if in.ConvertedFromID != "" {
			var n int
			if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE id = ?", in.ConvertedFromID).Scan(&n); err != nil {
				return err
			}
			if n == 0 {
				return apperr.NotFound("document", in.ConvertedFromID)
			}
		}
		return s.insert(ctx, tx, doc, now)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{UserID: actor, Action: audit.ActionCreate, Module: audit.ModuleDocuments, RecordID: doc.ID, Summary: "Created " + string(doc.Type) + " " + doc.Number})
	return s.Get(ctx, doc.ID)
}

// insert allocates doc.Number and writes doc with its line items inside tx.
func (s *Service) insert(ctx context.Context, tx *sql.Tx, doc *models.Document, now time.Time) error {
	number, err := s.numbers.Allocate(ctx, tx, doc.Type, now.Year())
	if err != nil {
		return err
	}
	doc.Number = number

	var convertedFrom interface{}
	if doc.ConvertedFromID != "" {
		convertedFrom = doc.ConvertedFromID
	}
	ts := database.FormatTime(now)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, number, type, customer_id, user_id, subtotal, tax_amount, total_amount,
			terms, notes, status, issue_date, converted_from_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Number, string(doc.Type), doc.CustomerID, doc.UserID, doc.Subtotal, doc.TaxAmount, doc.TotalAmount,
		doc.Terms, doc.Notes, doc.Status, database.FormatTime(doc.IssueDate), convertedFrom, ts, ts)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Concurrency("document number "+doc.Number+" already allocated", err)
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return insertLineItems(ctx, tx, doc.ID, doc.LineItems)
}

// Get returns a document with its line items, payments (newest first),
// payment summary, the documents converted from it and the types it may still
// be converted to.
func (s *Service) Get(ctx context.Context, id string) (*models.Document, error) {
	doc, err := getDocument(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if doc.LineItems, err = loadLineItems(ctx, s.db, id); err != nil {
		return nil, err
	}
	if doc.Payments, err = loadPayments(ctx, s.db, id); err != nil {
		return nil, err
	}
	amounts := make([]decimal.Decimal, len(doc.Payments))
	for i, p := range doc.Payments {
		amounts[i] = p.Amount
	}
	summary := reconciliation.Summarize(doc.TotalAmount, amounts)
	doc.PaymentSummary = &summary
	if doc.Conversions, err = loadConversions(ctx, s.db, id); err != nil {
		return nil, err
	}
	doc.AllowedConversions = AllowedTargets(doc.Type)
	return doc, nil
}

// Update applies the non-nil fields of in.
func (s *Service) Update(ctx context.Context, actor, id string, in UpdateInput) (*models.Document, error) {
	cur, err := getDocument(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	ve := &validation.ValidationErrors{}
	var items []models.LineItem
	if in.LineItems != nil {
		items = buildLineItems(ve, *in.LineItems)
		if in.Subtotal == nil {
			cur.Subtotal = lineTotal(items)
		}
	}
	if in.Subtotal != nil {
		cur.Subtotal = *in.Subtotal
	}
	if in.TaxAmount != nil {
		cur.TaxAmount = *in.TaxAmount
	}
	moneyChanged := in.LineItems != nil || in.Subtotal != nil || in.TaxAmount != nil
	if in.TotalAmount != nil {
		cur.TotalAmount = *in.TotalAmount
	} else if moneyChanged {
		cur.TotalAmount = cur.Subtotal.Add(cur.TaxAmount)
	}
	if in.Terms != nil {
		cur.Terms = *in.Terms
	}
	if in.Notes != nil {
		cur.Notes = *in.Notes
	}
	if in.Status != nil {
		cur.Status = strings.TrimSpace(*in.Status)
		validation.RequireField(ve, "status", cur.Status)
		validation.ValidateMaxLength(ve, "status", cur.Status, 50)
	}
	validateMoney(ve, cur.Subtotal, cur.TaxAmount, cur.TotalAmount)
	if err := ve.Err(); err != nil {
		return nil, err
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE documents SET subtotal = ?, tax_amount = ?, total_amount = ?, terms = ?, notes = ?, status = ?, updated_at = ?
			WHERE id = ?`,
			cur.Subtotal, cur.TaxAmount, cur.TotalAmount, cur.Terms, cur.Notes, cur.Status, database.FormatTime(s.now()), id)
		if err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.NotFound("document", id)
		}
		if in.LineItems != nil {
			return replaceLineItems(ctx, tx, id, items)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{UserID: actor, Action: audit.ActionUpdate, Module: audit.ModuleDocuments, RecordID: id, Summary: "Updated " + cur.Number})
	return s.Get(ctx, id)
}

// Delete removes a document together with its line items, payments and email
// log. Documents converted from it keep existing but lose the back-reference.
func (s *Service) Delete(ctx context.Context, actor, id string) error {
	var number string
	err := s.db.QueryRowContext(ctx, "SELECT number FROM documents WHERE id = ?", id).Scan(&number)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("document", id)
	}
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	s.audit.Record(ctx, audit.Entry{UserID: actor, Action: audit.ActionDelete, Module: audit.ModuleDocuments, RecordID: id, Summary: "Deleted " + number})
	return nil
}

// List returns documents newest first, each with its payment summary but
// without line items.
func (s *Service) List(ctx context.Context, f Filter) ([]models.Document, error) {
	limit := f.Limit
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}
	where, args := f.where()
	rows, err := s.db.QueryContext(ctx,
		selectDocument+where+" ORDER BY d.created_at DESC, d.number DESC LIMIT ?", append(args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	list := []models.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	paid, err := paidByDocument(ctx, s.db, f)
	if err != nil {
		return nil, err
	}
	for i := range list {
		summary := reconciliation.Summarize(list[i].TotalAmount, paid[list[i].ID])
		list[i].PaymentSummary = &summary
	}
	return list, nil
}
