package database

import (
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE COLLATE NOCASE,
		name TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'STAFF' CHECK(role IN ('ADMIN','STAFF','VIEWER')),
		password_hash TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		failed_login_attempts INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		expires_at TEXT NOT NULL,
		last_activity TEXT NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'INDIVIDUAL' CHECK(type IN ('INDIVIDUAL','COMPANY')),
		address TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		tax_number TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS customer_emails (
		customer_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		email TEXT NOT NULL,
		PRIMARY KEY (customer_id, position),
		FOREIGN KEY (customer_id) REFERENCES customers(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL UNIQUE,
		type TEXT NOT NULL CHECK(type IN ('QUOTATION','PROFORMA','INVOICE')),
		customer_id TEXT NOT NULL,
		user_id TEXT NOT NULL DEFAULT '',
		subtotal TEXT NOT NULL DEFAULT '0',
		tax_amount TEXT NOT NULL DEFAULT '0',
		total_amount TEXT NOT NULL DEFAULT '0',
		terms TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'DRAFT',
		issue_date TEXT NOT NULL,
		converted_from_id TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		FOREIGN KEY (customer_id) REFERENCES customers(id),
		FOREIGN KEY (converted_from_id) REFERENCES documents(id) ON DELETE SET NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_customer ON documents(customer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_type_created ON documents(type, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_converted_from ON documents(converted_from_id)`,
	`CREATE TABLE IF NOT EXISTS document_line_items (
		document_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		description TEXT NOT NULL,
		quantity TEXT NOT NULL,
		days TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		amount TEXT NOT NULL,
		PRIMARY KEY (document_id, position),
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS document_sequences (
		prefix TEXT NOT NULL,
		year INTEGER NOT NULL,
		last_value INTEGER NOT NULL,
		PRIMARY KEY (prefix, year)
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		amount TEXT NOT NULL,
		method TEXT NOT NULL CHECK(method IN ('CASH','BANK_TRANSFER','CHEQUE','CREDIT_CARD','OTHER')),
		date_received TEXT NOT NULL,
		document_id TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		reference TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		user_id TEXT NOT NULL DEFAULT '',
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE,
		FOREIGN KEY (customer_id) REFERENCES customers(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_document ON payments(document_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_customer ON payments(customer_id)`,
	`CREATE TABLE IF NOT EXISTS payment_revisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		payment_id TEXT NOT NULL,
		version INTEGER NOT NULL,
		amount TEXT NOT NULL,
		method TEXT NOT NULL,
		date_received TEXT NOT NULL,
		reference TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		edited_by TEXT NOT NULL DEFAULT '',
		edited_at TEXT NOT NULL,
		FOREIGN KEY (payment_id) REFERENCES payments(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS email_log (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		user_id TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL,
		body TEXT NOT NULL,
		status TEXT NOT NULL CHECK(status IN ('SENT','FAILED')),
		error_message TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS email_log_recipients (
		email_log_id TEXT NOT NULL,
		kind TEXT NOT NULL CHECK(kind IN ('TO','CC','BCC')),
		position INTEGER NOT NULL,
		address TEXT NOT NULL,
		PRIMARY KEY (email_log_id, kind, position),
		FOREIGN KEY (email_log_id) REFERENCES email_log(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL DEFAULT '',
		action TEXT NOT NULL,
		module TEXT NOT NULL,
		record_id TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_module_record ON audit_log(module, record_id)`,
}

// Migrate creates any missing tables and indexes.
func Migrate(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w\nstatement: %s", err, stmt)
		}
	}
	return nil
}
