package routes_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"folio/internal/config"
	"folio/internal/logger"
	"folio/internal/mailer"
	"folio/internal/models"
	"folio/internal/routes"
	"folio/internal/server"
	"folio/internal/testutil"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (f *fakeSender) Send(ctx context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

type env struct {
	t      *testing.T
	h      http.Handler
	app    *server.App
	sender *fakeSender
	admin  string
	staff  string
	viewer string
}

func setup(t *testing.T) *env {
	t.Helper()
	logger.Disable()
	db := testutil.SetupTestDB(t)
	cfg := config.Default()
	cfg.AssetsDir = t.TempDir()
	sender := &fakeSender{}
	app := server.NewApp(cfg, db, sender)
	e := &env{t: t, h: routes.New(app, nil), app: app, sender: sender}
	_, e.admin = testutil.LoginAs(t, db, models.RoleAdmin)
	_, e.staff = testutil.LoginAs(t, db, models.RoleStaff)
	_, e.viewer = testutil.LoginAs(t, db, models.RoleViewer)
	return e
}

func (e *env) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	e.t.Helper()
	w := httptest.NewRecorder()
	e.h.ServeHTTP(w, testutil.AuthedJSONRequest(method, path, body, token))
	return w
}

func (e *env) customer(name string) string {
	e.t.Helper()
	w := e.do("POST", "/api/v1/customers", map[string]interface{}{"name": name, "emails": []string{"guest@example.com"}}, e.staff)
	testutil.AssertStatus(e.t, w, http.StatusCreated)
	var c models.Customer
	testutil.DecodeEnvelope(e.t, w, &c)
	return c.ID
}

func (e *env) document(docType models.DocumentType, customerID string) models.Document {
	e.t.Helper()
	w := e.do("POST", "/api/v1/documents", map[string]interface{}{
		"type":        docType,
		"customer_id": customerID,
		"line_items": []map[string]interface{}{
			{"description": "Deluxe room", "quantity": "2", "days": "3", "unit_price": "150"},
			{"description": "Airport transfer", "quantity": "1", "unit_price": "100"},
		},
	}, e.staff)
	testutil.AssertStatus(e.t, w, http.StatusCreated)
	var d models.Document
	testutil.DecodeEnvelope(e.t, w, &d)
	return d
}

func TestLoginSetsCookieAndMe(t *testing.T) {
	e := setup(t)
	testutil.CreateTestUser(t, e.app.DB, "frontdesk@example.com", "password123", models.RoleStaff, true)

	w := e.do("POST", "/auth/login", map[string]string{"email": "frontdesk@example.com", "password": "password123"}, "")
	testutil.AssertStatus(t, w, http.StatusOK)
	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == testutil.SessionCookie {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly {
		t.Fatalf("expected HttpOnly session cookie, got %v", w.Result().Cookies())
	}

	w = e.do("GET", "/auth/me", nil, cookie.Value)
	testutil.AssertStatus(t, w, http.StatusOK)
	var me struct {
		models.User
		Operations []string `json:"operations"`
	}
	testutil.DecodeEnvelope(t, w, &me)
	if me.Email != "frontdesk@example.com" || me.Role != models.RoleStaff {
		t.Errorf("unexpected user %+v", me.User)
	}
	ops := strings.Join(me.Operations, ",")
	if len(me.Operations) != 12 || !strings.Contains(ops, "documents.convert") || strings.Contains(ops, "documents.delete") {
		t.Errorf("unexpected staff operations %v", me.Operations)
	}

	w = e.do("POST", "/auth/logout", nil, cookie.Value)
	testutil.AssertStatus(t, w, http.StatusOK)
	w = e.do("GET", "/auth/me", nil, cookie.Value)
	testutil.AssertStatus(t, w, http.StatusUnauthorized)

	w = e.do("POST", "/auth/login", map[string]string{"email": "frontdesk@example.com", "password": "nope"}, "")
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
	w = e.do("GET", "/auth/login", nil, "")
	testutil.AssertStatus(t, w, http.StatusMethodNotAllowed)
}

func TestDocumentLifecycle(t *testing.T) {
	e := setup(t)
	year := time.Now().Year()
	cust := e.customer("Jane Guest")

	quote := e.document(models.Quotation, cust)
	if quote.Number != fmt.Sprintf("QUO-%d-001", year) {
		t.Errorf("unexpected number %s", quote.Number)
	}
	if quote.TotalAmount.String() != "1000" {
		t.Errorf("expected derived total 1000, got %s", quote.TotalAmount)
	}

	w := e.do("POST", "/api/v1/documents/"+quote.ID+"/convert", map[string]string{"target_type": "INVOICE"}, e.staff)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var inv models.Document
	testutil.DecodeEnvelope(t, w, &inv)
	if inv.Number != fmt.Sprintf("INV-%d-001", year) || inv.ConvertedFromID != quote.ID {
		t.Errorf("unexpected invoice %s from %s", inv.Number, inv.ConvertedFromID)
	}

	for _, target := range []string{"QUOTATION", "RECEIPT", ""} {
		w = e.do("POST", "/api/v1/documents/"+inv.ID+"/convert", map[string]string{"target_type": target}, e.staff)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
		if body := testutil.DecodeError(t, w); body["code"] != "INVALID_CONVERSION" {
			t.Errorf("target %q: unexpected error %v", target, body)
		}
	}

	w = e.do("GET", "/api/v1/documents/"+quote.ID, nil, e.viewer)
	testutil.AssertStatus(t, w, http.StatusOK)
	var got models.Document
	testutil.DecodeEnvelope(t, w, &got)
	if len(got.AllowedConversions) != 2 || got.AllowedConversions[0] != models.Proforma || got.AllowedConversions[1] != models.Invoice {
		t.Errorf("unexpected allowed conversions %v", got.AllowedConversions)
	}

	w = e.do("POST", "/api/v1/payments", map[string]interface{}{
		"document_id": inv.ID, "amount": "400", "method": "CASH", "date_received": "2025-03-01",
	}, e.staff)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var pay models.Payment
	testutil.DecodeEnvelope(t, w, &pay)
	if pay.CustomerID != cust || pay.Version != 1 {
		t.Errorf("unexpected payment %+v", pay)
	}

	w = e.do("GET", "/api/v1/documents/"+inv.ID+"/summary", nil, e.viewer)
	testutil.AssertStatus(t, w, http.StatusOK)
	var sum models.PaymentSummary
	testutil.DecodeEnvelope(t, w, &sum)
	if sum.Status != models.Partial || sum.Outstanding.String() != "600" {
		t.Errorf("unexpected summary %+v", sum)
	}

	w = e.do("GET", "/api/v1/customers/"+cust+"/balance", nil, e.viewer)
	testutil.AssertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), `"outstanding_balance":"600"`) {
		t.Errorf("unexpected balance body %s", w.Body.String())
	}

	w = e.do("PATCH", "/api/v1/payments/"+pay.ID, map[string]interface{}{"amount": "1000", "expected_version": 1}, e.staff)
	testutil.AssertStatus(t, w, http.StatusOK)
	w = e.do("PATCH", "/api/v1/payments/"+pay.ID, map[string]interface{}{"amount": "900", "expected_version": 1}, e.staff)
	testutil.AssertStatus(t, w, http.StatusConflict)

	w = e.do("GET", "/api/v1/payments/"+pay.ID+"/revisions", nil, e.viewer)
	testutil.AssertStatus(t, w, http.StatusOK)
	var revs []models.PaymentRevision
	testutil.DecodeEnvelope(t, w, &revs)
	if len(revs) != 1 || revs[0].Amount.String() != "400" {
		t.Errorf("unexpected revisions %+v", revs)
	}

	w = e.do("GET", "/api/v1/documents/"+quote.ID, nil, e.viewer)
	testutil.AssertStatus(t, w, http.StatusOK)
	var src models.Document
	testutil.DecodeEnvelope(t, w, &src)
	if len(src.Conversions) != 1 || src.Conversions[0].ID != inv.ID {
		t.Errorf("expected conversion back-link, got %+v", src.Conversions)
	}

	w = e.do("DELETE", "/api/v1/documents/"+quote.ID, nil, e.staff)
	testutil.AssertStatus(t, w, http.StatusForbidden)
	w = e.do("DELETE", "/api/v1/documents/"+quote.ID, nil, e.admin)
	testutil.AssertStatus(t, w, http.StatusOK)
	w = e.do("GET", "/api/v1/documents/"+quote.ID, nil, e.viewer)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestPDFAndEmail(t *testing.T) {
	e := setup(t)
	cust := e.customer("Acme Ltd")
	inv := e.document(models.Invoice, cust)

	w := e.do("GET", "/api/v1/documents/"+inv.ID+"/pdf", nil, e.viewer)
	testutil.AssertStatus(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("unexpected content type %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")) {
		t.Error("body is not a PDF")
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, inv.Number+".pdf") {
		t.Errorf("unexpected disposition %q", cd)
	}

	w = e.do("POST", "/api/v1/documents/"+inv.ID+"/email", map[string]interface{}{"to": []string{"accounts@acme.test"}}, e.viewer)
	testutil.AssertStatus(t, w, http.StatusForbidden)
	w = e.do("POST", "/api/v1/documents/"+inv.ID+"/email", map[string]interface{}{"to": []string{"accounts@acme.test"}}, e.staff)
	testutil.AssertStatus(t, w, http.StatusCreated)
	if len(e.sender.sent) != 1 || e.sender.sent[0].Attachments[0].Filename != inv.Number+".pdf" {
		t.Fatalf("unexpected sent messages %+v", e.sender.sent)
	}

	w = e.do("GET", "/api/v1/documents/"+inv.ID+"/email-log", nil, e.viewer)
	testutil.AssertStatus(t, w, http.StatusOK)
	var log []models.EmailLog
	testutil.DecodeEnvelope(t, w, &log)
	if len(log) != 1 || log[0].Status != models.EmailSent {
		t.Errorf("unexpected email log %+v", log)
	}
}

func TestReportsAndDashboard(t *testing.T) {
	e := setup(t)
	cust := e.customer("Jane Guest")
	e.document(models.Invoice, cust)

	w := e.do("GET", "/api/v1/reports/download?type=outstanding&format=csv", nil, e.viewer)
	testutil.AssertStatus(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("unexpected content type %q", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "Invoice Number,Customer,Date") {
		t.Errorf("unexpected csv %q", w.Body.String())
	}

	w = e.do("GET", "/api/v1/reports/download?type=outstanding&format=pdf", nil, e.viewer)
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	w = e.do("GET", "/api/v1/reports/download?type=customer&format=csv", nil, e.viewer)
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = e.do("GET", "/api/v1/dashboard", nil, e.viewer)
	testutil.AssertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), `"total_outstanding":"1000"`) {
		t.Errorf("unexpected dashboard %s", w.Body.String())
	}

	w = e.do("GET", "/api/v1/analytics/monthly?month=2025-13", nil, e.viewer)
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestErrorStatuses(t *testing.T) {
	e := setup(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		token  string
		want   int
		code   string
	}{
		{"no session", "GET", "/api/v1/documents", nil, "", 401, "UNAUTHORIZED"},
		{"unknown document", "GET", "/api/v1/documents/missing", nil, e.viewer, 404, "NOT_FOUND"},
		{"validation", "POST", "/api/v1/customers", map[string]string{"name": ""}, e.staff, 400, "VALIDATION_ERROR"},
		{"bad list type", "GET", "/api/v1/documents?type=RECEIPT", nil, e.viewer, 400, "VALIDATION_ERROR"},
		{"forbidden", "POST", "/api/v1/payments", map[string]string{}, e.viewer, 403, "FORBIDDEN"},
		{"users admin only", "GET", "/api/v1/users", nil, e.staff, 403, "FORBIDDEN"},
		{"unknown route", "GET", "/api/v1/nothing", nil, e.viewer, 404, "NOT_FOUND"},
		{"smtp test", "POST", "/api/v1/email/test", map[string]string{"to": "a@example.com"}, e.admin, 200, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(tt.method, tt.path, tt.body, tt.token)
			testutil.AssertStatus(t, w, tt.want)
			if tt.code != "" {
				if body := testutil.DecodeError(t, w); body["code"] != tt.code {
					t.Errorf("expected code %s, got %v", tt.code, body)
				}
			}
		})
	}
}

func TestValidationFields(t *testing.T) {
	e := setup(t)
	w := e.do("POST", "/api/v1/customers", map[string]interface{}{"name": "", "emails": []string{"bad"}}, e.staff)
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	body := testutil.DecodeError(t, w)
	fields, ok := body["fields"].([]interface{})
	if !ok || len(fields) < 2 {
		t.Errorf("expected field errors, got %v", body)
	}
}

func TestUserAdmin(t *testing.T) {
	e := setup(t)
	w := e.do("POST", "/api/v1/users", map[string]string{"email": "new@example.com", "name": "New", "role": "VIEWER", "password": "password123"}, e.admin)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var u models.User
	testutil.DecodeEnvelope(t, w, &u)

	w = e.do("PUT", "/api/v1/users/"+u.ID, map[string]interface{}{"active": false}, e.admin)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = e.do("POST", "/auth/login", map[string]string{"email": "new@example.com", "password": "password123"}, "")
	testutil.AssertStatus(t, w, http.StatusForbidden)

	w = e.do("GET", "/api/v1/users", nil, e.admin)
	testutil.AssertStatus(t, w, http.StatusOK)
	var users []models.User
	testutil.DecodeEnvelope(t, w, &users)
	if len(users) != 4 {
		t.Errorf("expected 4 users, got %d", len(users))
	}
}

func TestHealthz(t *testing.T) {
	e := setup(t)
	w := e.do("GET", "/healthz", nil, "")
	testutil.AssertStatus(t, w, http.StatusOK)
}
