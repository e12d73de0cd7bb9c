package database_test

import (
	"path/filepath"
	"testing"
	"time"

	"folio/internal/database"
)

func TestOpenMigratesAndIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	for _, table := range []string{"users", "customers", "documents", "document_sequences", "payments", "payment_revisions", "email_log"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil || fk != 1 {
		t.Errorf("foreign keys not enabled (fk=%d, err=%v)", fk, err)
	}
}

func TestUniqueViolationDetected(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	insert := "INSERT INTO document_sequences (prefix, year, last_value) VALUES ('INV', 2025, 1)"
	if _, err := db.Exec(insert); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err = db.Exec(insert)
	if err == nil {
		t.Fatal("expected duplicate key error")
	}
	if !database.IsUniqueViolation(err) {
		t.Errorf("expected unique violation, got %v", err)
	}
}

func TestTimeRoundTripKeepsOrder(t *testing.T) {
	a := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	b := a.Add(1500 * time.Microsecond)
	sa, sb := database.FormatTime(a), database.FormatTime(b)
	if !(sa < sb) {
		t.Errorf("expected %s < %s", sa, sb)
	}
	got, err := database.ParseTime(sb)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(b) {
		t.Errorf("round trip: got %v want %v", got, b)
	}
	if _, err := database.ParseTime("2025-03-01"); err != nil {
		t.Errorf("date-only should parse: %v", err)
	}
	if _, err := database.ParseTime("yesterday"); err == nil {
		t.Error("expected error for garbage timestamp")
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", "plain"},
		{"100%", `100\%`},
		{"a_b", `a\_b`},
		{`c:\x`, `c:\\x`},
	}
	for _, tt := range tests {
		if got := database.EscapeLike(tt.in); got != tt.want {
			t.Errorf("EscapeLike(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
