package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"folio/internal/database"
	"folio/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SessionCookie is the name of the session cookie the server issues.
const SessionCookie = "folio_session"

// SetupTestDB opens a migrated SQLite database in a temp directory. A file is
// used rather than :memory: so every pooled connection sees the same data.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	testDB, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	t.Cleanup(func() { testDB.Close() })
	return testDB
}

// CreateTestUser inserts a user and returns its id.
func CreateTestUser(t *testing.T, db *sql.DB, email, password string, role models.Role, active bool) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	activeInt := 0
	if active {
		activeInt = 1
	}
	id := uuid.NewString()
	now := database.FormatTime(time.Now())
	_, err = db.Exec(
		`INSERT INTO users (id, email, name, role, password_hash, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, email, email+" Display", string(role), string(hash), activeInt, now, now,
	)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return id
}

// CreateTestSession creates a 24h session for userID and returns its token.
func CreateTestSession(t *testing.T, db *sql.DB, userID string) string {
	t.Helper()
	token := "test-session-" + uuid.NewString()
	now := time.Now()
	_, err := db.Exec(
		"INSERT INTO sessions (token, user_id, created_at, expires_at, last_activity) VALUES (?, ?, ?, ?, ?)",
		token, userID, database.FormatTime(now), database.FormatTime(now.Add(24*time.Hour)), database.FormatTime(now),
	)
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}
	return token
}

// LoginAs creates a user with the given role and returns its id and session token.
func LoginAs(t *testing.T, db *sql.DB, role models.Role) (string, string) {
	t.Helper()
	id := CreateTestUser(t, db, string(role)+"-"+uuid.NewString()[:8]+"@example.com", "password123", role, true)
	return id, CreateTestSession(t, db, id)
}

// SeedCustomer inserts a customer and returns its id.
func SeedCustomer(t *testing.T, db *sql.DB, name string) string {
	t.Helper()
	id := uuid.NewString()
	now := database.FormatTime(time.Now())
	_, err := db.Exec(
		"INSERT INTO customers (id, name, type, created_at, updated_at) VALUES (?, ?, 'INDIVIDUAL', ?, ?)",
		id, name, now, now,
	)
	if err != nil {
		t.Fatalf("Failed to seed customer: %v", err)
	}
	return id
}

// InsertDocument writes a bare document row, bypassing numbering. Used to set
// up legacy data and fixed totals.
func InsertDocument(t *testing.T, db *sql.DB, number string, docType models.DocumentType, customerID, total string, created time.Time) string {
	t.Helper()
	id := uuid.NewString()
	ts := database.FormatTime(created)
	_, err := db.Exec(
		`INSERT INTO documents (id, number, type, customer_id, subtotal, tax_amount, total_amount, issue_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, '0', ?, ?, ?, ?)`,
		id, number, string(docType), customerID, total, total, ts, ts, ts,
	)
	if err != nil {
		t.Fatalf("Failed to insert document %s: %v", number, err)
	}
	return id
}

// InsertPayment writes a payment row against documentID.
func InsertPayment(t *testing.T, db *sql.DB, documentID, customerID, amount string, received time.Time) string {
	t.Helper()
	id := uuid.NewString()
	now := database.FormatTime(time.Now())
	_, err := db.Exec(
		`INSERT INTO payments (id, amount, method, date_received, document_id, customer_id, created_at, updated_at)
		VALUES (?, ?, 'CASH', ?, ?, ?, ?, ?)`,
		id, amount, database.FormatTime(received), documentID, customerID, now, now,
	)
	if err != nil {
		t.Fatalf("Failed to insert payment: %v", err)
	}
	return id
}

// AuthedRequest creates an HTTP request carrying a session cookie.
func AuthedRequest(method, path string, body []byte, sessionToken string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if sessionToken != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sessionToken})
	}
	return req
}

// AuthedJSONRequest creates an authenticated request with a JSON body.
func AuthedJSONRequest(method, path string, body interface{}, sessionToken string) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := AuthedRequest(method, path, bodyBytes, sessionToken)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// AssertStatus checks that the HTTP status code matches expected.
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// DecodeEnvelope decodes an API response envelope into v.
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var resp models.APIResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode API envelope: %v", err)
	}
	dataBytes, _ := json.Marshal(resp.Data)
	if err := json.Unmarshal(dataBytes, v); err != nil {
		t.Fatalf("Failed to decode data from envelope: %v", err)
	}
}

// DecodeError decodes an error response body.
func DecodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode error body: %v", err)
	}
	return body
}
