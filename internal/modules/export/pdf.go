package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/mx-space/scribe/internal/models"
)

const (
	pdfMargin     = 20.0
	pdfLineHeight = 6.0
	pdfFont       = "Helvetica"
)

// WritePDF lays the assignment out as flowing paragraphs on A4 pages. Text
// that does not fit a line wraps and pages break automatically.
func WritePDF(w io.Writer, a *models.Assignment) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle(a.Topic, true)
	pdf.SetAuthor(a.Author, true)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(pdfFont, "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})
	pdf.AddPage()

	pdf.SetFont(pdfFont, "B", 20)
	pdf.MultiCell(0, 10, tr(a.Topic), "", "C", false)
	pdf.Ln(2)

	pdf.SetFont(pdfFont, "I", 11)
	if a.Author != "" {
		pdf.MultiCell(0, pdfLineHeight, tr("Written by: "+a.Author), "", "C", false)
	}
	if a.Date != "" {
		pdf.MultiCell(0, pdfLineHeight, tr("Date: "+a.Date), "", "C", false)
	}
	pdf.Ln(8)

	heading := func(text string) {
		pdf.Ln(3)
		pdf.SetFont(pdfFont, "B", 14)
		pdf.MultiCell(0, 8, tr(text), "", "L", false)
		pdf.Ln(1)
	}
	bodyText := func(text string) {
		pdf.SetFont(pdfFont, "", 11)
		for _, para := range paragraphs(text) {
			pdf.MultiCell(0, pdfLineHeight, tr(para), "", "J", false)
			pdf.Ln(2)
		}
	}

	heading("Introduction")
	bodyText(a.Introduction)
	for i, section := range a.MainSections {
		heading(fmt.Sprintf("%d. %s", i+1, section.Title))
		bodyText(section.Content)
	}
	heading("Conclusion")
	bodyText(a.Conclusion)

	if len(a.Sources) > 0 {
		heading("Sources")
		pdf.SetFont(pdfFont, "", 10)
		for i, src := range a.Sources {
			pdf.MultiCell(0, 5, tr(fmt.Sprintf("%d. %s", i+1, src)), "", "L", false)
		}
	}
	if len(a.ToolsUsed) > 0 {
		heading("Tools Used")
		bodyText(strings.Join(a.ToolsUsed, ", "))
	}

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.Output(w)
}

// paragraphs splits text on blank lines, folding single newlines into spaces.
func paragraphs(text string) []string {
	text = strings.ReplaceAll(strings.TrimSpace(text), "\r\n", "\n")
	if text == "" {
		return nil
	}
	var out []string
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.Join(strings.Fields(block), " ")
		if block != "" {
			out = append(out, block)
		}
	}
	return out
}
