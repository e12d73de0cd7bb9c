package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// APIResponse is the standard JSON envelope for all API responses.
type APIResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

// Meta contains list metadata.
type Meta struct {
	Total int `json:"total,omitempty"`
	Limit int `json:"limit,omitempty"`
}

// DocumentType is the kind of commercial document.
type DocumentType string

const (
	Quotation DocumentType = "QUOTATION"
	Proforma  DocumentType = "PROFORMA"
	Invoice   DocumentType = "INVOICE"
)

// DocumentTypes lists every document type.
var DocumentTypes = []DocumentType{Quotation, Proforma, Invoice}

func (t DocumentType) Valid() bool {
	switch t {
	case Quotation, Proforma, Invoice:
		return true
	}
	return false
}

// Title is the heading printed on a rendered document.
func (t DocumentType) Title() string {
	if t == Proforma {
		return "PROFORMA INVOICE"
	}
	return string(t)
}

// CustomerType distinguishes private guests from corporate accounts.
type CustomerType string

const (
	Individual CustomerType = "INDIVIDUAL"
	Company    CustomerType = "COMPANY"
)

func (t CustomerType) Valid() bool {
	return t == Individual || t == Company
}

// PaymentMethod is how money was received.
type PaymentMethod string

const (
	Cash         PaymentMethod = "CASH"
	BankTransfer PaymentMethod = "BANK_TRANSFER"
	Cheque       PaymentMethod = "CHEQUE"
	CreditCard   PaymentMethod = "CREDIT_CARD"
	OtherMethod  PaymentMethod = "OTHER"
)

// PaymentMethods lists every payment method.
var PaymentMethods = []PaymentMethod{Cash, BankTransfer, Cheque, CreditCard, OtherMethod}

func (m PaymentMethod) Valid() bool {
	for _, v := range PaymentMethods {
		if m == v {
			return true
		}
	}
	return false
}

// PaymentStatus classifies a document's payment position.
type PaymentStatus string

const (
	Unpaid  PaymentStatus = "UNPAID"
	Partial PaymentStatus = "PARTIAL"
	Paid    PaymentStatus = "PAID"
	Excess  PaymentStatus = "EXCESS"
)

// Role is a user's authorization role.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleStaff  Role = "STAFF"
	RoleViewer Role = "VIEWER"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff || r == RoleViewer
}

// EmailStatus is the outcome of a delivery attempt.
type EmailStatus string

const (
	EmailSent   EmailStatus = "SENT"
	EmailFailed EmailStatus = "FAILED"
)

// DocumentStatusDraft is the status given to every new document.
const DocumentStatusDraft = "DRAFT"

type Customer struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	Type               CustomerType     `json:"type"`
	Address            string           `json:"address"`
	Emails             []string         `json:"emails"`
	Phone              string           `json:"phone"`
	TaxNumber          string           `json:"tax_number"`
	Notes              string           `json:"notes"`
	OutstandingBalance *decimal.Decimal `json:"outstanding_balance,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Days        decimal.Decimal `json:"days"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// DocumentRef is a short reference to another document.
type DocumentRef struct {
	ID     string       `json:"id"`
	Number string       `json:"number"`
	Type   DocumentType `json:"type"`
}

type Document struct {
	ID                 string          `json:"id"`
	Number             string          `json:"number"`
	Type               DocumentType    `json:"type"`
	CustomerID         string          `json:"customer_id"`
	CustomerName       string          `json:"customer_name,omitempty"`
	UserID             string          `json:"user_id"`
	LineItems          []LineItem      `json:"line_items"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	TaxAmount          decimal.Decimal `json:"tax_amount"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	Terms              string          `json:"terms"`
	Notes              string          `json:"notes"`
	Status             string          `json:"status"`
	IssueDate          time.Time       `json:"issue_date"`
	ConvertedFromID    string          `json:"converted_from_id,omitempty"`
	Conversions        []DocumentRef   `json:"conversions,omitempty"`
	AllowedConversions []DocumentType  `json:"allowed_conversions,omitempty"`
	Payments           []Payment       `json:"payments,omitempty"`
	PaymentSummary     *PaymentSummary `json:"payment_summary,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

type Payment struct {
	ID             string          `json:"id"`
	Amount         decimal.Decimal `json:"amount"`
	Method         PaymentMethod   `json:"method"`
	DateReceived   time.Time       `json:"date_received"`
	DocumentID     string          `json:"document_id"`
	DocumentNumber string          `json:"document_number,omitempty"`
	CustomerID     string          `json:"customer_id"`
	CustomerName   string          `json:"customer_name,omitempty"`
	Reference      string          `json:"reference"`
	Notes          string          `json:"notes"`
	UserID         string          `json:"user_id"`
	Version        int             `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// PaymentRevision holds the values a payment had before a correction.
type PaymentRevision struct {
	ID           int64           `json:"id"`
	PaymentID    string          `json:"payment_id"`
	Version      int             `json:"version"`
	Amount       decimal.Decimal `json:"amount"`
	Method       PaymentMethod   `json:"method"`
	DateReceived time.Time       `json:"date_received"`
	Reference    string          `json:"reference"`
	Notes        string          `json:"notes"`
	EditedBy     string          `json:"edited_by"`
	EditedAt     time.Time       `json:"edited_at"`
}

// PaymentSummary is a document's reconciliation against its payments.
type PaymentSummary struct {
	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Variance    decimal.Decimal `json:"variance"`
	Status      PaymentStatus   `json:"status"`
}

type EmailLog struct {
	ID           string      `json:"id"`
	DocumentID   string      `json:"document_id"`
	UserID       string      `json:"user_id"`
	To           []string    `json:"to"`
	Cc           []string    `json:"cc,omitempty"`
	Bcc          []string    `json:"bcc,omitempty"`
	Subject      string      `json:"subject"`
	Body         string      `json:"body"`
	Status       EmailStatus `json:"status"`
	ErrorMessage string      `json:"error_message,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuditEntry represents a single audit log record.
type AuditEntry struct {
	ID        int       `json:"id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Module    string    `json:"module"`
	RecordID  string    `json:"record_id"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}
