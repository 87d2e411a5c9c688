package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// CaseFile is the renderable view of an archived case: the report summary
// followed by the list of procedure documents attached to it.
type CaseFile struct {
	Title     string
	Fields    []Field
	Documents []DocumentRow
}

// Field is a labelled report attribute.
type Field struct {
	Label string
	Value string
}

// DocumentRow describes one attached procedure document.
type DocumentRow struct {
	Type       string
	UploadedBy string
	UploadedAt string
}

// PDFExporter renders a case file into a printable PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates the PDF document for a case file.
func (e *PDFExporter) Render(file CaseFile) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, strings.ToUpper(file.Title), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 10)
	for _, field := range file.Fields {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(50, 7, field.Label, "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(140, 7, field.Value, "", "", false)
	}

	if len(file.Documents) > 0 {
		pdf.Ln(5)
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 8, "Case documents", "", 1, "", false, 0, "")

		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(70, 8, "Type", "1", 0, "C", false, 0, "")
		pdf.CellFormat(70, 8, "Uploaded by", "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 8, "Uploaded at", "1", 1, "C", false, 0, "")

		pdf.SetFont("Arial", "", 9)
		for _, doc := range file.Documents {
			pdf.CellFormat(70, 7, doc.Type, "1", 0, "", false, 0, "")
			pdf.CellFormat(70, 7, doc.UploadedBy, "1", 0, "", false, 0, "")
			pdf.CellFormat(50, 7, doc.UploadedAt, "1", 1, "", false, 0, "")
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render case file pdf: %w", err)
	}
	return buf.Bytes(), nil
}
