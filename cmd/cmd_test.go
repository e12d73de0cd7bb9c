package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"folio/internal/apperr"
	"folio/internal/auth"
	"folio/internal/database"
	"folio/internal/models"
	"folio/internal/reports"
	"folio/internal/testutil"
)

func init() {
	auth.BcryptCost = bcrypt.MinCost
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile, dbPath, logLevel = "", "", ""
	seedAdminPassword, reportMonth, reportCustomer, reportOut = "", "", "", ""
	reportType, reportFormat = string(reports.Monthly), string(reports.FormatXLSX)
	userRole = string(models.RoleStaff)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestMigrateSeedAndReportExport(t *testing.T) {
	dir := t.TempDir()
	dbFile := filepath.Join(dir, "folio.db")

	if _, err := execute(t, "migrate", "--db", dbFile, "--log-level", "error"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := os.Stat(dbFile); err != nil {
		t.Fatalf("database file not created: %v", err)
	}

	out, err := execute(t, "seed", "--db", dbFile, "--log-level", "error")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.Contains(out, "Admin password for admin@folio.local") {
		t.Errorf("expected generated admin password in output, got %q", out)
	}

	// A second seed leaves existing rows alone.
	out, err = execute(t, "seed", "--db", dbFile, "--log-level", "error")
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if strings.Contains(out, "Admin password") {
		t.Errorf("second seed should not create another admin, got %q", out)
	}

	db, err := database.Open(dbFile)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	var users, customers int
	db.QueryRow("SELECT COUNT(*) FROM users WHERE role = 'ADMIN'").Scan(&users)
	db.QueryRow("SELECT COUNT(*) FROM customers").Scan(&customers)
	if users != 1 || customers != 1 {
		t.Fatalf("expected 1 admin and 1 customer, got %d and %d", users, customers)
	}
	var custID string
	if err := db.QueryRow("SELECT id FROM customers").Scan(&custID); err != nil {
		t.Fatalf("customer id: %v", err)
	}
	testutil.InsertDocument(t, db, "INV-2026-001", models.Invoice, custID, "250", time.Now().UTC())
	db.Close()

	csvFile := filepath.Join(dir, "monthly.csv")
	out, err = execute(t, "report", "export", "--db", dbFile, "--log-level", "error",
		"--type", "monthly", "--format", "csv", "--out", csvFile)
	if err != nil {
		t.Fatalf("report export: %v", err)
	}
	if !strings.Contains(out, "Wrote 1 rows to "+csvFile) {
		t.Errorf("unexpected output %q", out)
	}
	data, err := os.ReadFile(csvFile)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", data)
	}
	if !strings.HasPrefix(lines[0], "Document Number,Type,Customer") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "INV-2026-001,INVOICE,Sample Travel Agency") || !strings.Contains(lines[1], "250.00") {
		t.Errorf("unexpected row %q", lines[1])
	}
}

func TestReportExportRejections(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "folio.db")
	out := filepath.Join(t.TempDir(), "r.csv")

	_, err := execute(t, "report", "export", "--db", dbFile, "--log-level", "error", "--type", "customer", "--out", out)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("customer report without --customer: expected validation error, got %v", err)
	}
	_, err = execute(t, "report", "export", "--db", dbFile, "--log-level", "error", "--format", "pdf", "--out", out)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("pdf format: expected validation error, got %v", err)
	}
	// Nothing to report on an empty database.
	_, err = execute(t, "report", "export", "--db", dbFile, "--log-level", "error", "--type", "monthly", "--format", "csv", "--out", out)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("empty csv export: expected not found, got %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("no file should be written when the export fails")
	}
}

func TestUserAdd(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "folio.db")

	out, err := execute(t, "user", "add", "--db", dbFile, "--log-level", "error",
		"--email", "desk@hotel.example", "--name", "Front Desk", "--role", "VIEWER", "--password", "welcome123")
	if err != nil {
		t.Fatalf("user add: %v", err)
	}
	if !strings.Contains(out, "Created desk@hotel.example (VIEWER)") {
		t.Errorf("unexpected output %q", out)
	}

	_, err = execute(t, "user", "add", "--db", dbFile, "--log-level", "error",
		"--email", "desk@hotel.example", "--name", "Again", "--password", "welcome123")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("duplicate email: expected validation error, got %v", err)
	}
	_, err = execute(t, "user", "add", "--db", dbFile, "--log-level", "error",
		"--email", "night@hotel.example", "--name", "Night Audit", "--password", "short")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("short password: expected validation error, got %v", err)
	}
}
