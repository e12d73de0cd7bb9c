package pdf

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"folio/internal/config"
	"folio/internal/models"

	"github.com/shopspring/decimal"
)

func sampleInput() Input {
	d := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }
	items := []models.LineItem{{
		Description: "Deluxe room with ocean view",
		Quantity:    d("1"),
		Days:        d("3"),
		UnitPrice:   d("150"),
		Amount:      d("450"),
	}}
	for i := 0; i < 60; i++ {
		items = append(items, models.LineItem{Description: "Breakfast", Quantity: d("2"), Days: d("1"), UnitPrice: d("25"), Amount: d("50")})
	}
	return Input{
		Document: &models.Document{
			Number:      "INV-2025-001",
			Type:        models.Invoice,
			LineItems:   items,
			Subtotal:    d("3450"),
			TaxAmount:   d("0"),
			TotalAmount: d("3450"),
			Terms:       "Payment due within 30 days.",
			IssueDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			PaymentSummary: &models.PaymentSummary{
				TotalAmount: d("3450"),
				TotalPaid:   d("1000"),
				Status:      models.Partial,
			},
		},
		Customer: &models.Customer{Name: "Ms Jane Guest", Address: "12 Coral Street\nHoniara", Emails: []string{"jane@example.com"}},
		Company:  config.Default().Company,
	}
}

func TestRenderProducesPDF(t *testing.T) {
	out, err := Render(sampleInput())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Errorf("output is not a PDF: %q", out[:min(len(out), 16)])
	}
	if !bytes.Contains(out, []byte("/Count 3")) && !bytes.Contains(out, []byte("/Count 2")) {
		t.Error("expected long line-item table to span more than one page")
	}
}

func TestRenderWithLogo(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 10, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	f, err := os.Create(filepath.Join(dir, "logo.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	logo := FindLogo(dir)
	if !strings.HasSuffix(logo, "logo.png") {
		t.Fatalf("FindLogo = %q", logo)
	}
	in := sampleInput()
	in.Logo = logo
	out, err := Render(in)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Contains(out, []byte("/Subtype /Image")) {
		t.Error("expected an embedded image")
	}
}

func TestRenderBadLogoFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logo.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	in := sampleInput()
	in.Logo = path
	if _, err := Render(in); err != nil {
		t.Fatalf("Render with unreadable logo should fall back, got %v", err)
	}
}

func TestFindLogoMissing(t *testing.T) {
	if got := FindLogo(t.TempDir()); got != "" {
		t.Errorf("expected no logo, got %q", got)
	}
}

func TestRenderRequiresDocument(t *testing.T) {
	if _, err := Render(Input{}); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestFilename(t *testing.T) {
	if got := Filename(&models.Document{Number: "PI-2025-004"}); got != "PI-2025-004.pdf" {
		t.Errorf("Filename = %q", got)
	}
}
