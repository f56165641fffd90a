package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	utf8Family     = "sheet"
	landscapeAfter = 8
)

// PDFExporter renders datasets into a tabular PDF. Core fonts only cover
// Latin-1, so a TrueType font path is needed for Chinese names and labels.
type PDFExporter struct {
	fontPath string
}

// NewPDFExporter constructs a PDF exporter. fontPath may be empty.
func NewPDFExporter(fontPath string) *PDFExporter {
	return &PDFExporter{fontPath: fontPath}
}

// Render creates a PDF document with the dataset title and a table body.
// Sheets with many columns are laid out in landscape.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate("pdf"); err != nil {
		return nil, err
	}

	orientation, width := "P", 190.0
	if len(data.Columns) > landscapeAfter {
		orientation, width = "L", 277.0
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)

	family := "Arial"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if e.fontPath != "" {
		pdf.AddUTF8Font(utf8Family, "", e.fontPath)
		pdf.AddUTF8Font(utf8Family, "B", e.fontPath)
		family = utf8Family
		tr = func(s string) string { return s }
	}
	pdf.AddPage()

	if data.Title != "" {
		pdf.SetFont(family, "B", 14)
		pdf.CellFormat(0, 10, tr(data.Title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	colWidth := width / float64(len(data.Columns))
	pdf.SetFont(family, "B", 9)
	for _, title := range data.titles() {
		pdf.CellFormat(colWidth, 8, tr(title), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(family, "", 8)
	for _, row := range data.Rows {
		for _, value := range data.record(row) {
			pdf.CellFormat(colWidth, 7, tr(value), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
