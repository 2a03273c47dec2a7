package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	pdfFont       = "Helvetica"
	pdfRowHeight  = 7.0
	pdfNumberCol  = 12.0
	pdfTitleSize  = 14
	pdfBodySize   = 9
	pdfTitleSpace = 4.0
)

func renderPDF(t *table, now time.Time) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetCreationDate(now)
	pdf.SetTitle(t.Title, true)
	pdf.AddPage()

	pdf.SetFont(pdfFont, "B", pdfTitleSize)
	pdf.CellFormat(0, 10, t.Title, "", 1, "L", false, 0, "")
	pdf.Ln(pdfTitleSpace)

	widths := columnWidths(pdf, len(t.Headers))
	header := func() {
		pdf.SetFont(pdfFont, "B", pdfBodySize)
		pdf.SetFillColor(t.Header.R, t.Header.G, t.Header.B)
		pdf.SetTextColor(255, 255, 255)
		for i, h := range t.Headers {
			pdf.CellFormat(widths[i], pdfRowHeight, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont(pdfFont, "", pdfBodySize)
		pdf.SetTextColor(0, 0, 0)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for i, row := range t.Rows {
		if pdf.GetY()+pdfRowHeight > pageHeight-bottom {
			pdf.AddPage()
			header()
		}

		fill := i%2 == 1
		pdf.SetFillColor(stripe.R, stripe.G, stripe.B)
		for j, v := range row {
			pdf.CellFormat(widths[j], pdfRowHeight, fmt.Sprint(v), "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths gives the serial number column a fixed width and shares the
// rest of the printable width evenly.
func columnWidths(pdf *fpdf.Fpdf, n int) []float64 {
	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	usable := pageWidth - left - right

	widths := make([]float64, n)
	if n == 0 {
		return widths
	}
	widths[0] = pdfNumberCol
	rest := (usable - pdfNumberCol) / float64(max(n-1, 1))
	for i := 1; i < n; i++ {
		widths[i] = rest
	}
	return widths
}
