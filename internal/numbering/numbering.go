// Package numbering allocates human-readable document identifiers of the form
// PREFIX-YEAR-SEQ, one sequence per (prefix, year).
package numbering

import (
	"context"
	"fmt"

	"folio/internal/config"
	"folio/internal/database"
	"folio/internal/models"
)

// The first allocation for a (prefix, year) seeds the counter from the highest
// number already stored in documents, so rows written before the counter table
// existed are never reissued. Later allocations only bump last_value.
const allocateSQL = `
INSERT INTO document_sequences (prefix, year, last_value)
VALUES (?, ?, (
	SELECT COALESCE(MAX(CAST(substr(number, ?) AS INTEGER)), 0) + 1
	FROM documents WHERE number LIKE ? ESCAPE '\'
))
ON CONFLICT(prefix, year) DO UPDATE SET last_value = last_value + 1
RETURNING last_value`

// Allocator hands out document numbers.
type Allocator struct {
	prefixes map[models.DocumentType]string
}

// New returns an Allocator using the configured prefixes.
func New(cfg config.NumberingConfig) *Allocator {
	return &Allocator{prefixes: map[models.DocumentType]string{
		models.Quotation: cfg.QuotationPrefix,
		models.Proforma:  cfg.ProformaPrefix,
		models.Invoice:   cfg.InvoicePrefix,
	}}
}

// Prefix returns the prefix for docType.
func (a *Allocator) Prefix(docType models.DocumentType) (string, error) {
	p, ok := a.prefixes[docType]
	if !ok || p == "" {
		return "", fmt.Errorf("no number prefix for document type %q", docType)
	}
	return p, nil
}

// Allocate reserves the next number for docType in year. q should be the
// transaction that inserts the document; rolling it back leaves the counter
// unchanged.
func (a *Allocator) Allocate(ctx context.Context, q database.Querier, docType models.DocumentType, year int) (string, error) {
	prefix, err := a.Prefix(docType)
	if err != nil {
		return "", err
	}

	head := fmt.Sprintf("%s-%d-", prefix, year)
	pattern := database.EscapeLike(head) + "%"

	var seq int
	err = q.QueryRowContext(ctx, allocateSQL, prefix, year, len(head)+1, pattern).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("allocate %s number: %w", docType, err)
	}
	return Format(prefix, year, seq), nil
}

// Format renders a number. The sequence is zero-padded to three digits and
// grows wider once it passes 999.
func Format(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%d-%03d", prefix, year, seq)
}
