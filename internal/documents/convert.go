package documents

import (
	"context"
	"database/sql"

	"folio/internal/apperr"
	"folio/internal/audit"
	"folio/internal/database"
	"folio/internal/models"

	"github.com/google/uuid"
)

// conversions is the complete set of allowed (source, target) pairs.
var conversions = map[models.DocumentType][]models.DocumentType{
	models.Quotation: {models.Proforma, models.Invoice},
	models.Proforma:  {models.Invoice},
	models.Invoice:   {},
}

// CanConvert reports whether a document of type from may be converted to to.
func CanConvert(from, to models.DocumentType) bool {
	for _, t := range conversions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// AllowedTargets lists the types a document of type from converts to.
func AllowedTargets(from models.DocumentType) []models.DocumentType {
	out := make([]models.DocumentType, len(conversions[from]))
	copy(out, conversions[from])
	return out
}

// Convert creates a new DRAFT document of type target from the source
// document, copying customer, line items, amounts, terms and notes and linking
// back through ConvertedFromID. The source is not modified, and converting the
// same source twice produces two documents.
func (s *Service) Convert(ctx context.Context, actor, sourceID string, target models.DocumentType) (*models.Document, error) {
	var doc *models.Document
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		src, err := getDocument(ctx, tx, sourceID)
		if err != nil {
			return err
		}
		if !CanConvert(src.Type, target) {
			return apperr.InvalidConversion(string(src.Type), string(target))
		}
		items, err := loadLineItems(ctx, tx, sourceID)
		if err != nil {
			return err
		}

		now := s.now()
		doc = &models.Document{
			ID:              uuid.NewString(),
			Type:            target,
			CustomerID:      src.CustomerID,
			UserID:          actor,
			LineItems:       items,
			Subtotal:        src.Subtotal,
			TaxAmount:       src.TaxAmount,
			TotalAmount:     src.TotalAmount,
			Terms:           src.Terms,
			Notes:           src.Notes,
			Status:          models.DocumentStatusDraft,
			IssueDate:       now,
			ConvertedFromID: src.ID,
		}
		return s.insert(ctx, tx, doc, now)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:   actor,
		Action:   audit.ActionConvert,
		Module:   audit.ModuleDocuments,
		RecordID: doc.ID,
		Summary:  "Converted " + sourceID + " to " + string(target) + " " + doc.Number,
	})
	return s.Get(ctx, doc.ID)
}
