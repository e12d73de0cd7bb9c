package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"folio/internal/apperr"
	"folio/internal/audit"

	"github.com/xuri/excelize/v2"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts csv, xlsx or excel. Empty means xlsx.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "xlsx", "excel":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", apperr.Validation("unsupported format",
		apperr.FieldError{Field: "format", Message: "must be csv or xlsx"})
}

// ContentType is the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

const sheetName = "Report"

// Export is a rendered report file.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}

// Export builds the report p and renders it as f.
func (s *Service) Export(ctx context.Context, actor string, p Params, f Format) (*Export, error) {
	rep, err := s.Build(ctx, p)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	switch f {
	case FormatCSV:
		err = WriteCSV(&buf, rep)
	default:
		err = WriteXLSX(&buf, rep)
	}
	if err != nil {
		return nil, err
	}
	out := &Export{
		Filename:    fmt.Sprintf("report-%s-%d.%s", rep.Type, s.now().Unix(), f),
		ContentType: f.ContentType(),
		Data:        buf.Bytes(),
		Rows:        len(rep.Rows),
	}
	s.audit.Record(ctx, audit.Entry{
		UserID:  actor,
		Action:  audit.ActionExport,
		Module:  audit.ModuleReports,
		Summary: fmt.Sprintf("Exported %s report (%d rows, %s)", rep.Type, out.Rows, f),
	})
	return out, nil
}

// WriteCSV writes a header row and the data. An empty report is a not-found
// error and writes nothing.
func WriteCSV(w io.Writer, rep *Report) error {
	if len(rep.Rows) == 0 {
		return &apperr.Error{Kind: apperr.KindNotFound, Message: "no data"}
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(rep.Headers); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}
	if err := writer.WriteAll(rep.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// WriteXLSX writes a single-sheet workbook with a bold grey header row. An
// empty report produces one "No data available" cell.
func WriteXLSX(w io.Writer, rep *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	if len(rep.Rows) == 0 {
		if err := f.SetCellValue(sheetName, "A1", "No data available"); err != nil {
			return err
		}
		_, err := f.WriteTo(w)
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, header := range rep.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(rep.Headers), 1)
	if err := f.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
		return err
	}

	for rowIdx, row := range rep.Rows {
		for colIdx, value := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(rep.Headers))
	if err := f.SetColWidth(sheetName, "A", lastCol, 18); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}
