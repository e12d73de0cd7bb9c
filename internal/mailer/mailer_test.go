package mailer

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"folio/internal/apperr"
	"folio/internal/config"
	"folio/internal/customers"
	"folio/internal/documents"
	"folio/internal/models"
	"folio/internal/numbering"
	"folio/internal/testutil"
)

type fakeSender struct {
	sent []Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func setup(t *testing.T, sender Sender) (*Service, string) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	cfg := config.Default()
	custs := customers.NewService(db, nil)
	docs := documents.NewService(db, numbering.New(cfg.Numbering), cfg.Defaults, nil)

	c, err := custs.Create(context.Background(), "u1", customers.CreateInput{Name: "Guest", Emails: []string{"guest@example.com"}})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	d, err := docs.Create(context.Background(), "u1", documents.CreateInput{Type: models.Proforma, CustomerID: c.ID})
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	svc := NewService(db, sender, docs, custs, Options{Company: cfg.Company, AssetsDir: t.TempDir()})
	svc.now = func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc, d.ID
}

func TestSendDocumentDefaultsAndLog(t *testing.T) {
	fake := &fakeSender{}
	svc, docID := setup(t, fake)
	ctx := context.Background()

	entry, err := svc.SendDocument(ctx, "u1", docID, Request{To: []string{"guest@example.com"}, Cc: []string{"desk@example.com"}})
	if err != nil {
		t.Fatalf("SendDocument: %v", err)
	}
	if entry.Status != models.EmailSent {
		t.Errorf("expected SENT, got %s", entry.Status)
	}
	if len(fake.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(fake.sent))
	}
	msg := fake.sent[0]
	year := time.Now().Year()
	wantLabel := "PROFORMA PI-" + strconv.Itoa(year) + "-001"
	if msg.Subject != wantLabel {
		t.Errorf("subject = %q, want %q", msg.Subject, wantLabel)
	}
	if msg.Body != "Please find attached "+wantLabel+"." {
		t.Errorf("body = %q", msg.Body)
	}
	if len(msg.Attachments) != 1 || msg.Attachments[0].Filename != "PI-"+strconv.Itoa(year)+"-001.pdf" || !bytes.HasPrefix(msg.Attachments[0].Data, []byte("%PDF-")) {
		t.Errorf("unexpected attachment %+v", msg.Attachments)
	}

	logs, err := svc.Log(ctx, docID)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(logs) != 1 || logs[0].Status != models.EmailSent {
		t.Fatalf("expected one SENT log entry, got %+v", logs)
	}
	if len(logs[0].To) != 1 || logs[0].To[0] != "guest@example.com" || len(logs[0].Cc) != 1 || logs[0].Cc[0] != "desk@example.com" {
		t.Errorf("recipients not round-tripped: %+v", logs[0])
	}
}

func TestSendDocumentFailureIsLogged(t *testing.T) {
	fake := &fakeSender{err: errors.New("connection refused")}
	svc, docID := setup(t, fake)
	ctx := context.Background()

	if _, err := svc.SendDocument(ctx, "u1", docID, Request{To: []string{"guest@example.com"}, Subject: "Your proforma"}); err == nil {
		t.Fatal("expected send error")
	}
	logs, err := svc.Log(ctx, docID)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(logs) != 1 || logs[0].Status != models.EmailFailed || !strings.Contains(logs[0].ErrorMessage, "connection refused") {
		t.Errorf("expected FAILED entry with error, got %+v", logs)
	}
	if logs[0].Subject != "Your proforma" {
		t.Errorf("custom subject not kept: %q", logs[0].Subject)
	}
}

func TestSendDocumentUnconfiguredSMTP(t *testing.T) {
	svc, docID := setup(t, NewSMTPSender(config.SMTPConfig{}, "hotel@example.com"))
	_, err := svc.SendDocument(context.Background(), "u1", docID, Request{To: []string{"guest@example.com"}})
	if !apperr.Is(err, apperr.KindConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
	if err := svc.SendTest(context.Background(), "ops@example.com"); !apperr.Is(err, apperr.KindConfiguration) {
		t.Errorf("expected configuration error from SendTest, got %v", err)
	}
}

func TestSendDocumentRejections(t *testing.T) {
	fake := &fakeSender{}
	svc, docID := setup(t, fake)
	ctx := context.Background()

	if _, err := svc.SendDocument(ctx, "u1", "missing", Request{To: []string{"a@example.com"}}); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := svc.SendDocument(ctx, "u1", docID, Request{}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error for no recipients, got %v", err)
	}
	if _, err := svc.SendDocument(ctx, "u1", docID, Request{To: []string{"not-an-address"}}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error for bad address, got %v", err)
	}
	if len(fake.sent) != 0 {
		t.Errorf("nothing should be sent, got %d", len(fake.sent))
	}
	logs, err := svc.Log(ctx, docID)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(logs) != 0 {
		t.Errorf("rejected requests should not be logged, got %d", len(logs))
	}
	if _, err := svc.Log(ctx, "missing"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestSendTest(t *testing.T) {
	fake := &fakeSender{}
	svc, _ := setup(t, fake)
	if err := svc.SendTest(context.Background(), ""); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if err := svc.SendTest(context.Background(), "ops@example.com"); err != nil {
		t.Fatalf("SendTest: %v", err)
	}
	if len(fake.sent) != 1 || fake.sent[0].To[0] != "ops@example.com" || !strings.Contains(fake.sent[0].Subject, "Heritage Park Hotel") {
		t.Errorf("unexpected test message %+v", fake.sent)
	}
}

func TestBuildMessageHeaders(t *testing.T) {
	m := buildMessage(Message{
		To:          []string{"a@example.com", "b@example.com"},
		Cc:          []string{"c@example.com"},
		Subject:     "Invoice",
		Body:        "<p>Hi</p>",
		Attachments: []Attachment{{Filename: "INV-2025-001.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.3")}},
	}, "hotel@example.com")

	if got := m.GetHeader("From"); len(got) != 1 || got[0] != "hotel@example.com" {
		t.Errorf("From = %v", got)
	}
	if got := m.GetHeader("To"); len(got) != 2 {
		t.Errorf("To = %v", got)
	}
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Subject: Invoice", "text/html", `filename="INV-2025-001.pdf"`, "application/pdf"} {
		if !strings.Contains(out, want) {
			t.Errorf("message missing %q", want)
		}
	}
}
