package mailer

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"folio/internal/apperr"
	"folio/internal/audit"
	"folio/internal/config"
	"folio/internal/logger"
	"folio/internal/models"
	"folio/internal/pdf"
	"folio/internal/validation"

	"github.com/google/uuid"
)

// Documents loads a document with its line items and payments.
type Documents interface {
	Get(ctx context.Context, id string) (*models.Document, error)
}

// Customers loads a customer.
type Customers interface {
	Get(ctx context.Context, id string) (*models.Customer, error)
}

// Options configures a Service.
type Options struct {
	Company   config.CompanyConfig
	AssetsDir string
	Audit     *audit.Logger
}

// Service emails rendered documents.
type Service struct {
	db        *sql.DB
	sender    Sender
	documents Documents
	customers Customers
	opts      Options
	now       func() time.Time
}

// NewService returns a mail Service.
func NewService(db *sql.DB, sender Sender, docs Documents, custs Customers, opts Options) *Service {
	return &Service{db: db, sender: sender, documents: docs, customers: custs, opts: opts, now: time.Now}
}

// Request is the payload for SendDocument. Subject and Body default to a
// line naming the document.
type Request struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Cc      []string `json:"cc"`
	Bcc     []string `json:"bcc"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

func (r Request) validate() error {
	ve := &validation.ValidationErrors{}
	if len(r.To) == 0 {
		ve.Add("to", "at least one recipient is required")
	}
	validation.ValidateEmails(ve, "to", r.To)
	validation.ValidateEmails(ve, "cc", r.Cc)
	validation.ValidateEmails(ve, "bcc", r.Bcc)
	if r.From != "" {
		validation.ValidateEmail(ve, "from", r.From)
	}
	validation.ValidateMaxLength(ve, "subject", r.Subject, validation.MaxStringLength)
	validation.ValidateMaxLength(ve, "body", r.Body, validation.MaxTextLength)
	return ve.Err()
}

// SendDocument renders a document to PDF and emails it. Every attempt that
// reaches the sender is written to the email log, whether it succeeds or not.
func (s *Service) SendDocument(ctx context.Context, actor, documentID string, req Request) (*models.EmailLog, error) {
	doc, err := s.documents.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	cust, err := s.customers.Get(ctx, doc.CustomerID)
	if err != nil {
		return nil, err
	}
	attachment, err := pdf.Render(pdf.Input{
		Document: doc,
		Customer: cust,
		Company:  s.opts.Company,
		Logo:     pdf.FindLogo(s.opts.AssetsDir),
	})
	if err != nil {
		return nil, err
	}

	label := string(doc.Type) + " " + doc.Number
	if strings.TrimSpace(req.Subject) == "" {
		req.Subject = label
	}
	if strings.TrimSpace(req.Body) == "" {
		req.Body = "Please find attached " + label + "."
	}

	sendErr := s.sender.Send(ctx, Message{
		From:    req.From,
		To:      req.To,
		Cc:      req.Cc,
		Bcc:     req.Bcc,
		Subject: req.Subject,
		Body:    req.Body,
		Attachments: []Attachment{{
			Filename:    pdf.Filename(doc),
			ContentType: "application/pdf",
			Data:        attachment,
		}},
	})

	entry := &models.EmailLog{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		UserID:     actor,
		To:         req.To,
		Cc:         req.Cc,
		Bcc:        req.Bcc,
		Subject:    req.Subject,
		Body:       req.Body,
		Status:     models.EmailSent,
		CreatedAt:  s.now().UTC(),
	}
	if sendErr != nil {
		entry.Status = models.EmailFailed
		entry.ErrorMessage = sendErr.Error()
	}
	if err := s.writeLog(ctx, entry); err != nil {
		log := logger.WithComponent("mailer")
		log.Error().Err(err).Str("document", doc.Number).Str("status", string(entry.Status)).Msg("failed to write email log")
	}

	if sendErr != nil {
		if apperr.Is(sendErr, apperr.KindConfiguration) {
			return nil, sendErr
		}
		return nil, fmt.Errorf("send %s: %w", label, sendErr)
	}
	s.opts.Audit.Record(ctx, audit.Entry{
		UserID:   actor,
		Action:   audit.ActionEmail,
		Module:   audit.ModuleDocuments,
		RecordID: doc.ID,
		Summary:  "Emailed " + doc.Number + " to " + strings.Join(req.To, ", "),
	})
	return entry, nil
}

// SendTest sends a short message to check the SMTP settings.
func (s *Service) SendTest(ctx context.Context, to string) error {
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "to", to)
	if to != "" {
		validation.ValidateEmail(ve, "to", to)
	}
	if err := ve.Err(); err != nil {
		return err
	}
	name := s.opts.Company.Name
	if name == "" {
		name = "Folio"
	}
	return s.sender.Send(ctx, Message{
		To:      []string{to},
		Subject: name + " test email",
		Body:    "<p>This is a test email from " + name + ". If you received this, email delivery is configured correctly.</p>",
	})
}
