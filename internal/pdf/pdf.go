// Package pdf renders quotations, proformas and invoices as A4 PDFs.
package pdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"folio/internal/config"
	"folio/internal/models"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const (
	margin       = 20.0
	lineHeight   = 6.0
	pageBreakY   = 250.0
	logoWidth    = 50.0
	logoHeight   = 20.0
	totalsOffset = 60.0
)

// Column widths of the line-item table, left to right.
var columns = []struct {
	title string
	width float64
}{
	{"QTY", 20},
	{"DESCRIPTION", 80},
	{"DAY", 20},
	{"UNIT PRICE", 30},
	{"TOTAL", 30},
}

// LogoExtensions are tried in order by FindLogo.
var LogoExtensions = []string{"png", "jpg", "jpeg", "gif"}

// Input is everything printed on a document.
type Input struct {
	Document *models.Document
	Customer *models.Customer
	Company  config.CompanyConfig
	// Logo is the path of an image file; empty prints a placeholder.
	Logo string
}

// FindLogo returns the first logo.{ext} present in dir, or "".
func FindLogo(dir string) string {
	for _, ext := range LogoExtensions {
		p := filepath.Join(dir, "logo."+ext)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Filename is the attachment name used for a rendered document.
func Filename(doc *models.Document) string {
	return doc.Number + ".pdf"
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// Render produces the PDF bytes for in.
func Render(in Input) ([]byte, error) {
	if in.Document == nil || in.Customer == nil {
		return nil, fmt.Errorf("render pdf: document and customer are required")
	}
	doc := in.Document

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.SetTitle(doc.Type.Title()+" "+doc.Number, true)
	pdf.SetCreator(in.Company.Name, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageWidth, _ := pdf.GetPageSize()
	y := margin

	text := func(x float64, s string) { pdf.Text(x, y, tr(s)) }

	// Heading
	pdf.SetFont("Helvetica", "B", 18)
	text(margin, doc.Type.Title())
	y += 8
	pdf.SetFont("Helvetica", "", 11)
	issued := doc.IssueDate
	if issued.IsZero() {
		issued = time.Now()
	}
	text(margin, "Date: "+issued.Format("02 Jan 2006"))

	drawLogo(pdf, in.Logo, pageWidth-margin-logoWidth, margin)

	// From
	y = margin + 25
	pdf.SetFont("Helvetica", "B", 11)
	text(margin, "From:")
	y += 7
	pdf.SetFont("Helvetica", "", 11)
	text(margin, in.Company.Name+",")
	y += lineHeight
	for _, line := range in.Company.Address {
		text(margin, line)
		y += lineHeight
	}
	y += 2
	if in.Company.Phone != "" {
		text(margin, "Ph: "+in.Company.Phone)
		y += lineHeight
	}
	if in.Company.Email != "" {
		text(margin, "Email: "+in.Company.Email)
	}
	y += 15

	// To
	pdf.SetFont("Helvetica", "B", 11)
	text(margin, "To:")
	y += 7
	pdf.SetFont("Helvetica", "", 11)
	text(margin, in.Customer.Name)
	y += lineHeight
	if in.Customer.Address != "" {
		for _, line := range pdf.SplitText(tr(in.Customer.Address), pageWidth-2*margin-60) {
			pdf.Text(margin, y, line)
			y += lineHeight
		}
	} else {
		y += lineHeight
	}
	text(margin, strings.TrimSpace("Ph: "+in.Customer.Phone))
	y += lineHeight
	text(margin, strings.TrimSpace("Email: "+strings.Join(in.Customer.Emails, ", ")))
	y += 15

	// Line items
	pdf.SetFont("Helvetica", "B", 10)
	x := margin
	for _, c := range columns {
		pdf.Text(x, y, c.title)
		x += c.width
	}
	y += 3
	pdf.SetLineWidth(0.5)
	pdf.Line(margin, y, pageWidth-margin, y)
	y += 5

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range doc.LineItems {
		if y > pageBreakY {
			pdf.AddPage()
			y = margin + 10
		}
		desc := pdf.SplitText(tr(item.Description), columns[1].width-5)
		cells := []string{item.Quantity.String(), "", item.Days.String(), money(item.UnitPrice), money(item.Amount)}
		x = margin
		for i, c := range columns {
			if i == 1 {
				for j, line := range desc {
					pdf.Text(x, y+float64(j)*lineHeight, line)
				}
			} else {
				pdf.Text(x, y, cells[i])
			}
			x += c.width
		}
		if len(desc) > 1 {
			y += float64(len(desc)-1) * lineHeight
		}
		y += lineHeight
	}
	y += 10

	// Totals
	totalsX := pageWidth - margin - totalsOffset
	if y > pageBreakY {
		pdf.AddPage()
		y = margin + 10
	}
	pdf.SetFont("Helvetica", "", 11)
	pdf.Text(totalsX, y, "Subtotal: "+money(doc.Subtotal))
	y += 7
	if doc.TaxAmount.IsPositive() {
		pdf.Text(totalsX, y, "Tax: "+money(doc.TaxAmount))
		y += 7
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(totalsX, y, "Total: "+money(doc.TotalAmount))
	y += 15

	if doc.Type == models.Invoice && doc.PaymentSummary != nil {
		pdf.SetFont("Helvetica", "", 11)
		pdf.Text(totalsX, y, "Paid: "+money(doc.PaymentSummary.TotalPaid))
		y += 7
		if remaining := doc.TotalAmount.Sub(doc.PaymentSummary.TotalPaid); remaining.IsPositive() {
			pdf.Text(totalsX, y, "Outstanding: "+money(remaining))
		}
		y += 10
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, block := range []struct{ title, body string }{{"Terms & Conditions:", doc.Terms}, {"Notes:", doc.Notes}} {
		if block.body == "" {
			continue
		}
		text(margin, block.title)
		y += lineHeight
		for _, line := range pdf.SplitText(tr(block.body), pageWidth-2*margin) {
			if y > 280 {
				pdf.AddPage()
				y = margin + 10
			}
			pdf.Text(margin, y, line)
			y += lineHeight
		}
		y += 5
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// drawLogo places the image at path, or a grey placeholder when path is empty
// or unreadable.
func drawLogo(pdf *fpdf.Fpdf, path string, x, y float64) {
	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			imageType := strings.ToUpper(strings.TrimPrefix(filepath.Ext(path), "."))
			if imageType == "JPEG" {
				imageType = "JPG"
			}
			opts := fpdf.ImageOptions{ImageType: imageType}
			info := pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(data))
			if info != nil && pdf.Ok() {
				pdf.ImageOptions("logo", x, y, logoWidth, logoHeight, false, opts, 0, "")
				return
			}
			pdf.ClearError()
		}
	}
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(150, 150, 150)
	pdf.Text(x, y+10, "LOGO")
	pdf.SetTextColor(0, 0, 0)
}
