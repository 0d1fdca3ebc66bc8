package export

import (
	"bytes"
	"html/template"
	"io"
	"strings"

	"github.com/mx-space/scribe/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

var markdownEngine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Linkify,
		extension.Typographer,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithXHTML(),
	),
)

const documentStyle = `body { max-width: 46rem; margin: 2rem auto; padding: 0 1rem; font-family: Georgia, "Times New Roman", serif; line-height: 1.6; color: #222; }
h1 { text-align: center; }
h1 + p, h1 + p + p { text-align: center; font-style: italic; opacity: 0.8; }
h2 { margin-top: 2rem; border-bottom: 1px solid #ddd; }`

// WriteHTML renders the text layout through goldmark into a standalone page.
func WriteHTML(w io.Writer, a *models.Assignment) error {
	var md bytes.Buffer
	if err := WriteText(&md, a); err != nil {
		return err
	}

	var body bytes.Buffer
	if err := markdownEngine.Convert(md.Bytes(), &body); err != nil {
		return err
	}

	title := template.HTMLEscapeString(strings.TrimSpace(a.Topic))
	if title == "" {
		title = "Assignment"
	}

	var b strings.Builder
	b.Grow(body.Len() + 1024)
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n")
	b.WriteString("  <head>\n")
	b.WriteString("    <meta charset=\"UTF-8\" />\n")
	b.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\" />\n")
	b.WriteString("    <title>")
	b.WriteString(title)
	b.WriteString("</title>\n")
	b.WriteString("    <style>\n")
	b.WriteString(documentStyle)
	b.WriteString("\n    </style>\n")
	b.WriteString("  </head>\n")
	b.WriteString("  <body>\n    <article>\n")
	b.Write(body.Bytes())
	b.WriteString("    </article>\n  </body>\n</html>\n")

	_, err := io.WriteString(w, b.String())
	return err
}
