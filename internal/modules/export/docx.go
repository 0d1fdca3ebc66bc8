package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
	"github.com/gomutex/godocx/wml/stypes"
	"github.com/mx-space/scribe/internal/models"
)

// WriteDOCX writes the assignment as a Word document: a Title heading,
// centered byline, Heading1 parts and Heading2 numbered sections.
func WriteDOCX(w io.Writer, a *models.Assignment) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("docx template: %w", err)
	}

	if err := heading(doc, a.Topic, 0); err != nil {
		return err
	}
	if a.Author != "" {
		byline(doc, "Written by: "+a.Author)
	}
	if a.Date != "" {
		byline(doc, "Date: "+a.Date)
	}

	if err := heading(doc, "Introduction", 1); err != nil {
		return err
	}
	body(doc, a.Introduction)
	for i, section := range a.MainSections {
		if err := heading(doc, fmt.Sprintf("%d. %s", i+1, section.Title), 2); err != nil {
			return err
		}
		body(doc, section.Content)
	}
	if err := heading(doc, "Conclusion", 1); err != nil {
		return err
	}
	body(doc, a.Conclusion)

	if len(a.Sources) > 0 {
		if err := heading(doc, "Sources", 1); err != nil {
			return err
		}
		for i, src := range a.Sources {
			doc.AddParagraph(xmlSafe(fmt.Sprintf("%d. %s", i+1, src)))
		}
	}
	if len(a.ToolsUsed) > 0 {
		if err := heading(doc, "Tools Used", 1); err != nil {
			return err
		}
		doc.AddParagraph(xmlSafe(strings.Join(a.ToolsUsed, ", ")))
	}

	return save(doc, w)
}

func heading(doc *docx.RootDoc, text string, level uint) error {
	if _, err := doc.AddHeading(xmlSafe(text), level); err != nil {
		return fmt.Errorf("docx heading %q: %w", text, err)
	}
	return nil
}

func byline(doc *docx.RootDoc, text string) {
	p := doc.AddParagraph(xmlSafe(text))
	p.Style("Subtitle")
	p.Justification(stypes.JustificationCenter)
}

func body(doc *docx.RootDoc, text string) {
	for _, p := range paragraphs(text) {
		doc.AddParagraph(xmlSafe(p))
	}
}

// save goes through a scratch file since the package is assembled by SaveTo.
func save(doc *docx.RootDoc, w io.Writer) error {
	dir, err := os.MkdirTemp("", "scribe-docx-*")
	if err != nil {
		return fmt.Errorf("docx scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "assignment.docx")
	if err := doc.SaveTo(path); err != nil {
		return fmt.Errorf("docx save: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("docx reopen: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("docx copy: %w", err)
	}
	return nil
}

// xmlSafe drops runes XML 1.0 cannot carry.
func xmlSafe(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' || r >= 0x20 && r != 0xFFFE && r != 0xFFFF {
			return r
		}
		return -1
	}, text)
}
