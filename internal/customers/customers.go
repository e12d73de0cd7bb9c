package customers

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
	"folio/internal/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultLimit caps List when the filter does not.
const DefaultLimit = 100

// Service manages customer records.
type Service struct {
	db    *sql.DB
	audit *audit.Logger
	now   func() time.Time
}

// NewService returns a customer Service. auditLog may be nil.
func NewService(db *sql.DB, auditLog *audit.Logger) *Service {
	return &Service{db: db, audit: auditLog, now: time.Now}
}

// CreateInput is the payload for Create.
type CreateInput struct {
	Name      string              `json:"name"`
	Type      models.CustomerType `json:"type"`
	Address   string              `json:"address"`
	Emails    []string            `json:"emails"`
	Phone     string              `json:"phone"`
	TaxNumber string              `json:"tax_number"`
	Notes     string              `json:"notes"`
}

// UpdateInput is the payload for Update. Nil fields are left unchanged; a
// non-nil Emails replaces the whole list.
type UpdateInput struct {
	Name      *string              `json:"name"`
	Type      *models.CustomerType `json:"type"`
	Address   *string              `json:"address"`
	Emails    *[]string            `json:"emails"`
	Phone     *string              `json:"phone"`
	TaxNumber *string              `json:"tax_number"`
	Notes     *string              `json:"notes"`
}

// Filter narrows List.
type Filter struct {
	Search string
	Type   models.CustomerType
	Limit  int
}

func (f Filter) where() (string, []interface{}) {
	var clauses []string
	var args []interface{}
	if s := strings.TrimSpace(f.Search); s != "" {
		clauses = append(clauses, `name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+database.EscapeLike(s)+"%")
	}
	if f.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, string(f.Type))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func validateFields(ve *validation.ValidationErrors, name string, typ models.CustomerType, emails []string) {
	validation.RequireField(ve, "name", name)
	validation.ValidateMaxLength(ve, "name", name, validation.MaxStringLength)
	validation.ValidateEnum(ve, "type", string(typ), validation.ValidCustomerTypes)
	validation.ValidateEmails(ve, "emails", emails)
}

// Create stores a new customer. Type defaults to INDIVIDUAL.
func (s *Service) Create(ctx context.Context, actor string, in CreateInput) (*models.Customer, error) {
	if in.Type == "" {
		in.Type = models.Individual
	}
	in.Name = strings.TrimSpace(in.Name)
	ve := &validation.ValidationErrors{}
	validateFields(ve, in.Name, in.Type, in.Emails)
	if err := ve.Err(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	now := database.FormatTime(s.now())
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO customers (id, name, type, address, phone, tax_number, notes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, in.Name, string(in.Type), in.Address, in.Phone, in.TaxNumber, in.Notes, now, now)
		if err != nil {
			return fmt.Errorf("insert customer: %w", err)
		}
		return replaceEmails(ctx, tx, id, in.Emails)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{UserID: actor, Action: audit.ActionCreate, Module: audit.ModuleCustomers, RecordID: id, Summary: "Created customer " + in.Name})
	return s.Get(ctx, id)
}

// Get returns a customer with its outstanding balance.
func (s *Service) Get(ctx context.Context, id string) (*models.Customer, error) {
	c, err := scanCustomer(s.db.QueryRowContext(ctx, selectCustomer+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("customer", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if c.Emails, err = loadEmails(ctx, s.db, id); err != nil {
		return nil, err
	}
	balances, err := Balances(ctx, s.db, []string{id})
	if err != nil {
		return nil, err
	}
	bal := balances[id]
	c.OutstandingBalance = &bal
	return c, nil
}

// Update applies the non-nil fields of in.
func (s *Service) Update(ctx context.Context, actor, id string, in UpdateInput) (*models.Customer, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		cur.Name = strings.TrimSpace(*in.Name)
	}
	if in.Type != nil {
		cur.Type = *in.Type
	}
	if in.Address != nil {
		cur.Address = *in.Address
	}
	if in.Phone != nil {
		cur.Phone = *in.Phone
	}
	if in.TaxNumber != nil {
		cur.TaxNumber = *in.TaxNumber
	}
	if in.Notes != nil {
		cur.Notes = *in.Notes
	}
	if in.Emails != nil {
		cur.Emails = *in.Emails
	}

	ve := &validation.ValidationErrors{}
	validateFields(ve, cur.Name, cur.Type, cur.Emails)
	if cur.Type == "" {
		ve.Add("type", "is required")
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE customers SET name = ?, type = ?, address = ?, phone = ?, tax_number = ?, notes = ?, updated_at = ?
			WHERE id = ?`,
			cur.Name, string(cur.Type), cur.Address, cur.Phone, cur.TaxNumber, cur.Notes, database.FormatTime(s.now()), id)
		if err != nil {
			return fmt.Errorf("update customer: %w", err)
		}
		if in.Emails != nil {
			return replaceEmails(ctx, tx, id, cur.Emails)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{UserID: actor, Action: audit.ActionUpdate, Module: audit.ModuleCustomers, RecordID: id, Summary: "Updated customer " + cur.Name})
	return s.Get(ctx, id)
}

// List returns customers ordered by name, each with its outstanding balance.
func (s *Service) List(ctx context.Context, f Filter) ([]models.Customer, error) {
	limit := f.Limit
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}
	where, args := f.where()
	rows, err := s.db.QueryContext(ctx, selectCustomer+where+" ORDER BY name COLLATE NOCASE, id LIMIT ?", append(args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var list []models.Customer
	var ids []string
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if len(list) == 0 {
		return []models.Customer{}, nil
	}

	emails, err := loadEmailsFor(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	balances, err := Balances(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Emails = emails[list[i].ID]
		if list[i].Emails == nil {
			list[i].Emails = []string{}
		}
		bal := balances[list[i].ID]
		list[i].OutstandingBalance = &bal
	}
	return list, nil
}

// OutstandingBalance returns what a customer still owes across its invoices.
func (s *Service) OutstandingBalance(ctx context.Context, id string) (decimal.Decimal, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM customers WHERE id = ?", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, apperr.NotFound("customer", id)
	}
	if err != nil {
		return decimal.Zero, err
	}
	balances, err := Balances(ctx, s.db, []string{id})
	if err != nil {
		return decimal.Zero, err
	}
	return balances[id], nil
}

// Exists reports whether a customer with id exists.
func Exists(ctx context.Context, q database.Querier, id string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers WHERE id = ?", id).Scan(&n)
	return n > 0, err
}

const selectCustomer = `SELECT id, name, type, address, phone, tax_number, notes, created_at, updated_at FROM customers`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCustomer(row rowScanner) (*models.Customer, error) {
	var c models.Customer
	var typ, created, updated string
	if err := row.Scan(&c.ID, &c.Name, &typ, &c.Address, &c.Phone, &c.TaxNumber, &c.Notes, &created, &updated); err != nil {
		return nil, err
	}
	c.Type = models.CustomerType(typ)
	c.CreatedAt = database.MustParseTime(created)
	c.UpdatedAt = database.MustParseTime(updated)
	return &c, nil
}
