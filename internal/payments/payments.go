package payments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"folio/internal/apperr"
	"folio/internal/audit"
	"folio/internal/database"
	"folio/internal/models"
	"folio/internal/reconciliation"
	"folio/internal/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service records and corrects payments against documents. Payments are
// never deleted on their own.
type Service struct {
	db    *sql.DB
	audit *audit.Logger
	now   func() time.Time
}

// NewService returns a payment Service. auditLog may be nil.
func NewService(db *sql.DB, auditLog *audit.Logger) *Service {
	return &Service{db: db, audit: auditLog, now: time.Now}
}

// RecordInput is the payload for Record. CustomerID is optional; when given
// it must match the document's customer.
type RecordInput struct {
	DocumentID   string               `json:"document_id"`
	CustomerID   string               `json:"customer_id"`
	Amount       decimal.Decimal      `json:"amount"`
	Method       models.PaymentMethod `json:"method"`
	DateReceived time.Time            `json:"date_received"`
	Reference    string               `json:"reference"`
	Notes        string               `json:"notes"`
}

// UpdateInput is the payload for Update. Nil fields are left unchanged. When
// ExpectedVersion is set the update fails with a concurrency error unless it
// matches the stored version.
type UpdateInput struct {
	Amount          *decimal.Decimal      `json:"amount"`
	Method          *models.PaymentMethod `json:"method"`
	DateReceived    *time.Time            `json:"date_received"`
	Reference       *string               `json:"reference"`
	Notes           *string               `json:"notes"`
	ExpectedVersion *int                  `json:"expected_version"`
}

func validate(ve *validation.ValidationErrors, amount decimal.Decimal, method models.PaymentMethod, received time.Time) {
	validation.ValidatePositive(ve, "amount", amount)
	validation.ValidateMaxAmount(ve, "amount", amount)
	validation.RequireField(ve, "method", string(method))
	validation.ValidateEnum(ve, "method", string(method), validation.ValidPaymentMethods)
	if received.IsZero() {
		ve.Add("date_received", "is required")
	}
}

// Record stores a payment against an existing document.
func (s *Service) Record(ctx context.Context, actor string, in RecordInput) (*models.Payment, error) {
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "document_id", in.DocumentID)
	validate(ve, in.Amount, in.Method, in.DateReceived)
	validation.ValidateMaxLength(ve, "reference", in.Reference, validation.MaxStringLength)
	if err := ve.Err(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	var number string
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var customerID string
		err := tx.QueryRowContext(ctx, "SELECT customer_id, number FROM documents WHERE id = ?", in.DocumentID).
			Scan(&customerID, &number)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("document", in.DocumentID)
		}
		if err != nil {
			return fmt.Errorf("get document: %w", err)
		}
		if in.CustomerID != "" && in.CustomerID != customerID {
			return apperr.Validation("customer does not match document",
				apperr.FieldError{Field: "customer_id", Message: "must match the document's customer"})
		}

		now := database.FormatTime(s.now())
		_, err = tx.ExecContext(ctx,
			`INSERT INTO payments (id, amount, method, date_received, document_id, customer_id, reference, notes, user_id, version, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
			id, in.Amount, string(in.Method), database.FormatTime(in.DateReceived), in.DocumentID, customerID,
			strings.TrimSpace(in.Reference), in.Notes, actor, now, now)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{UserID: actor, Action: audit.ActionCreate, Module: audit.ModulePayments, RecordID: id,
		Summary: "Recorded " + in.Amount.StringFixed(2) + " against " + number})
	return s.Get(ctx, id)
}

// Get returns one payment.
func (s *Service) Get(ctx context.Context, id string) (*models.Payment, error) {
	p, err := scanPayment(s.db.QueryRowContext(ctx, selectPayment+" WHERE p.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("payment", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

// Update corrects a payment. The prior values are kept as a revision and the
// version is incremented.
func (s *Service) Update(ctx context.Context, actor, id string, in UpdateInput) (*models.Payment, error) {
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		cur, err := scanPayment(tx.QueryRowContext(ctx, selectPayment+" WHERE p.id = ?", id))
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("payment", id)
		}
		if err != nil {
			return fmt.Errorf("get payment: %w", err)
		}
		if in.ExpectedVersion != nil && *in.ExpectedVersion != cur.Version {
			return apperr.Concurrency(fmt.Sprintf("payment %s was modified (version %d, expected %d)", id, cur.Version, *in.ExpectedVersion), nil)
		}

		next := *cur
		if in.Amount != nil {
			next.Amount = *in.Amount
		}
		if in.Method != nil {
			next.Method = *in.Method
		}
		if in.DateReceived != nil {
			next.DateReceived = *in.DateReceived
		}
		if in.Reference != nil {
			next.Reference = strings.TrimSpace(*in.Reference)
		}
		if in.Notes != nil {
			next.Notes = *in.Notes
		}
		ve := &validation.ValidationErrors{}
		validate(ve, next.Amount, next.Method, next.DateReceived)
		validation.ValidateMaxLength(ve, "reference", next.Reference, validation.MaxStringLength)
		if err := ve.Err(); err != nil {
			return err
		}

		now := database.FormatTime(s.now())
		_, err = tx.ExecContext(ctx,
			`INSERT INTO payment_revisions (payment_id, version, amount, method, date_received, reference, notes, edited_by, edited_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, cur.Version, cur.Amount, string(cur.Method), database.FormatTime(cur.DateReceived), cur.Reference, cur.Notes, actor, now)
		if err != nil {
			return fmt.Errorf("insert payment revision: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE payments SET amount = ?, method = ?, date_received = ?, reference = ?, notes = ?, version = version + 1, updated_at = ?
			WHERE id = ? AND version = ?`,
			next.Amount, string(next.Method), database.FormatTime(next.DateReceived), next.Reference, next.Notes, now, id, cur.Version)
		if err != nil {
			return fmt.Errorf("update payment: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.Concurrency("payment "+id+" was modified concurrently", nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{UserID: actor, Action: audit.ActionUpdate, Module: audit.ModulePayments, RecordID: id, Summary: "Corrected payment"})
	return s.Get(ctx, id)
}

// List returns payments matching f, most recently received first.
func (s *Service) List(ctx context.Context, f Filter) ([]models.Payment, error) {
	list, err := Query(ctx, s.db, f)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Payment{}
	}
	return list, nil
}

// Revisions returns a payment's prior versions, oldest first.
func (s *Service) Revisions(ctx context.Context, id string) ([]models.PaymentRevision, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, payment_id, version, amount, method, date_received, reference, notes, edited_by, edited_at
		FROM payment_revisions WHERE payment_id = ? ORDER BY version`, id)
	if err != nil {
		return nil, fmt.Errorf("list payment revisions: %w", err)
	}
	defer rows.Close()

	revs := []models.PaymentRevision{}
	for rows.Next() {
		var r models.PaymentRevision
		var method, received, edited string
		if err := rows.Scan(&r.ID, &r.PaymentID, &r.Version, &r.Amount, &method, &received, &r.Reference, &r.Notes, &r.EditedBy, &edited); err != nil {
			return nil, err
		}
		r.Method = models.PaymentMethod(method)
		r.DateReceived = database.MustParseTime(received)
		r.EditedAt = database.MustParseTime(edited)
		revs = append(revs, r)
	}
	return revs, rows.Err()
}

// Summary reconciles a document's total against its payments.
func (s *Service) Summary(ctx context.Context, documentID string) (*models.PaymentSummary, error) {
	var total decimal.Decimal
	err := s.db.QueryRowContext(ctx, "SELECT total_amount FROM documents WHERE id = ?", documentID).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("document", documentID)
	}
	if err != nil {
		return nil, fmt.Errorf("get document total: %w", err)
	}
	list, err := Query(ctx, s.db, Filter{DocumentID: documentID})
	if err != nil {
		return nil, err
	}
	amounts := make([]decimal.Decimal, len(list))
	for i, p := range list {
		amounts[i] = p.Amount
	}
	summary := reconciliation.Summarize(total, amounts)
	return &summary, nil
}
