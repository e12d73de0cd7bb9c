package payments_test

import (
	"context"
	"testing"
	"time"

	"folio/internal/apperr"
	"folio/internal/models"
	"folio/internal/payments"
	"folio/internal/testutil"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRecordTakesCustomerFromDocument(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := payments.NewService(db, nil)
	cust := testutil.SeedCustomer(t, db, "Guest")
	doc := testutil.InsertDocument(t, db, "INV-2025-001", models.Invoice, cust, "1000", time.Now())

	p, err := svc.Record(context.Background(), "u1", payments.RecordInput{
		DocumentID:   doc,
		Amount:       dec("250.50"),
		Method:       models.BankTransfer,
		DateReceived: time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
		Reference:    " TRX-1 ",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if p.CustomerID != cust {
		t.Errorf("customer should come from document, got %q", p.CustomerID)
	}
	if p.DocumentNumber != "INV-2025-001" || p.CustomerName != "Guest" {
		t.Errorf("joined fields wrong: %q %q", p.DocumentNumber, p.CustomerName)
	}
	if !p.Amount.Equal(dec("250.50")) || p.Reference != "TRX-1" || p.Version != 1 {
		t.Errorf("unexpected payment %+v", p)
	}
}

func TestRecordRejections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := payments.NewService(db, nil)
	cust := testutil.SeedCustomer(t, db, "Guest")
	other := testutil.SeedCustomer(t, db, "Other")
	doc := testutil.InsertDocument(t, db, "INV-2025-001", models.Invoice, cust, "1000", time.Now())
	when := time.Now()

	tests := []struct {
		name string
		in   payments.RecordInput
		kind apperr.Kind
	}{
		{"zero amount", payments.RecordInput{DocumentID: doc, Amount: dec("0"), Method: models.Cash, DateReceived: when}, apperr.KindValidation},
		{"negative amount", payments.RecordInput{DocumentID: doc, Amount: dec("-5"), Method: models.Cash, DateReceived: when}, apperr.KindValidation},
		{"bad method", payments.RecordInput{DocumentID: doc, Amount: dec("5"), Method: "BARTER", DateReceived: when}, apperr.KindValidation},
		{"missing date", payments.RecordInput{DocumentID: doc, Amount: dec("5"), Method: models.Cash}, apperr.KindValidation},
		{"customer mismatch", payments.RecordInput{DocumentID: doc, CustomerID: other, Amount: dec("5"), Method: models.Cash, DateReceived: when}, apperr.KindValidation},
		{"unknown document", payments.RecordInput{DocumentID: "nope", Amount: dec("5"), Method: models.Cash, DateReceived: when}, apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Record(context.Background(), "u1", tt.in)
			if !apperr.Is(err, tt.kind) {
				t.Errorf("expected %s, got %v", tt.kind, err)
			}
		})
	}

	list, err := svc.List(context.Background(), payments.Filter{DocumentID: doc})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("rejected payments must not be stored, found %d", len(list))
	}
}

func TestUpdateKeepsRevisions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := payments.NewService(db, nil)
	ctx := context.Background()
	cust := testutil.SeedCustomer(t, db, "Guest")
	doc := testutil.InsertDocument(t, db, "INV-2025-001", models.Invoice, cust, "1000", time.Now())

	p, err := svc.Record(ctx, "u1", payments.RecordInput{DocumentID: doc, Amount: dec("100"), Method: models.Cash, DateReceived: time.Now()})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	amount := dec("120")
	v := 1
	updated, err := svc.Update(ctx, "u2", p.ID, payments.UpdateInput{Amount: &amount, ExpectedVersion: &v})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.Amount.Equal(amount) || updated.Version != 2 {
		t.Errorf("expected 120 at version 2, got %s at %d", updated.Amount, updated.Version)
	}

	// stale version
	if _, err := svc.Update(ctx, "u2", p.ID, payments.UpdateInput{Amount: &amount, ExpectedVersion: &v}); !apperr.Is(err, apperr.KindConcurrency) {
		t.Errorf("expected concurrency conflict, got %v", err)
	}

	revs, err := svc.Revisions(ctx, p.ID)
	if err != nil {
		t.Fatalf("Revisions: %v", err)
	}
	if len(revs) != 1 {
		t.Fatalf("expected 1 revision, got %d", len(revs))
	}
	if !revs[0].Amount.Equal(dec("100")) || revs[0].Version != 1 || revs[0].EditedBy != "u2" {
		t.Errorf("revision should hold prior values, got %+v", revs[0])
	}
}

func TestUpdateValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := payments.NewService(db, nil)
	ctx := context.Background()
	cust := testutil.SeedCustomer(t, db, "Guest")
	doc := testutil.InsertDocument(t, db, "INV-2025-001", models.Invoice, cust, "1000", time.Now())
	id := testutil.InsertPayment(t, db, doc, cust, "100", time.Now())

	zero := dec("0")
	if _, err := svc.Update(ctx, "u1", id, payments.UpdateInput{Amount: &zero}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := svc.Update(ctx, "u1", "missing", payments.UpdateInput{Amount: &zero}); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	revs, err := svc.Revisions(ctx, id)
	if err != nil {
		t.Fatalf("Revisions: %v", err)
	}
	if len(revs) != 0 {
		t.Errorf("failed update must not leave a revision, got %d", len(revs))
	}
}

func TestSummary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := payments.NewService(db, nil)
	ctx := context.Background()
	cust := testutil.SeedCustomer(t, db, "Guest")
	doc := testutil.InsertDocument(t, db, "INV-2025-001", models.Invoice, cust, "1000", time.Now())

	s, err := svc.Summary(ctx, doc)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if s.Status != models.Unpaid || !s.Outstanding.Equal(dec("1000")) {
		t.Errorf("expected UNPAID 1000, got %s %s", s.Status, s.Outstanding)
	}

	testutil.InsertPayment(t, db, doc, cust, "400", time.Now())
	testutil.InsertPayment(t, db, doc, cust, "700", time.Now())
	s, err = svc.Summary(ctx, doc)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if s.Status != models.Excess || !s.TotalPaid.Equal(dec("1100")) || !s.Variance.Equal(dec("100")) || !s.Outstanding.Equal(dec("100")) {
		t.Errorf("unexpected summary %+v", s)
	}

	if _, err := svc.Summary(ctx, "missing"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestListOrderAndFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := payments.NewService(db, nil)
	a := testutil.SeedCustomer(t, db, "A")
	b := testutil.SeedCustomer(t, db, "B")
	docA := testutil.InsertDocument(t, db, "INV-2025-001", models.Invoice, a, "1000", time.Now())
	docB := testutil.InsertDocument(t, db, "INV-2025-002", models.Invoice, b, "1000", time.Now())
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	first := testutil.InsertPayment(t, db, docA, a, "10", base)
	second := testutil.InsertPayment(t, db, docA, a, "20", base.AddDate(0, 0, 5))
	testutil.InsertPayment(t, db, docB, b, "30", base.AddDate(0, 0, 2))

	list, err := svc.List(context.Background(), payments.Filter{CustomerID: a})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != second || list[1].ID != first {
		t.Errorf("expected newest first for customer A, got %+v", list)
	}

	all, err := svc.List(context.Background(), payments.Filter{Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("limit not applied, got %d", len(all))
	}
}
