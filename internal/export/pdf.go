package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/jwulff/sadoo/internal/translit"
)

const (
	pdfMargin     = 20.0
	pdfHeaderH    = 35.0
	pdfLineH      = 6.0
	pdfFooterText = "© Sadoo - Audio/Video Transkripsiya Xizmati"
)

// core fonts are cp1252; these apostrophes have no slot there
var pdfApostrophes = strings.NewReplacer("ʻ", "'", "ʼ", "'")

// renderPDF lays out an A4 page with an indigo banner, the title and date,
// and the body text. The body is written in Latin script since the core
// fonts carry no Cyrillic glyphs.
func renderPDF(d Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin+10, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin+15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(pdfApostrophes.Replace(translit.ToLatin(s))) }

	pageW, pageH := pdf.GetPageSize()
	pdf.SetFooterFunc(func() {
		y := pageH - 12
		pdf.SetDrawColor(200, 200, 200)
		pdf.SetLineWidth(0.3)
		pdf.Line(pdfMargin, y-5, pageW-pdfMargin, y-5)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(150, 150, 150)
		pdf.SetXY(pdfMargin, y-3)
		pdf.CellFormat(pageW-2*pdfMargin, 4, tr(pdfFooterText), "", 0, "C", false, 0, "")
		pdf.SetXY(pdfMargin, y-3)
		pdf.CellFormat(pageW-2*pdfMargin, 4, fmt.Sprint(pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFillColor(79, 70, 229)
	pdf.Rect(0, 0, pageW, pdfHeaderH, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 24)
	pdf.Text(pdfMargin, 21, "Sadoo")
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(pdfMargin, 29, "Audio/Video Transkripsiya")

	y := 50.0
	pdf.SetTextColor(30, 30, 30)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(pdfMargin, y, text(d.Title))
	y += 10

	pdf.SetFont("Helvetica", "I", 10)
	pdf.SetTextColor(100, 100, 100)
	meta := "Yaratilgan: " + uzDate(d.Created)
	if d.Duration > 0 {
		meta += fmt.Sprintf("   Davomiyligi: %s", d.Duration.Truncate(time.Second))
	}
	pdf.Text(pdfMargin, y, meta)
	y += 8

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.5)
	pdf.Line(pdfMargin, y, pageW-pdfMargin, y)
	y += 6

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(30, 30, 30)
	pdf.SetY(y)
	for _, p := range paragraphs(d.Text) {
		pdf.MultiCell(0, pdfLineH, text(p), "", "L", false)
		pdf.Ln(2)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
