package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mx-space/scribe/internal/models"
)

// WriteText renders the Markdown-style plain text layout.
func WriteText(w io.Writer, a *models.Assignment) error {
	bw := bufio.NewWriter(w)
	writeBody(bw, a)

	if len(a.Sources) > 0 {
		bw.WriteString("## Sources\n\n")
		writeNumbered(bw, a.Sources)
		bw.WriteString("\n")
	}
	if len(a.ToolsUsed) > 0 {
		bw.WriteString("## Tools Used\n\n")
		bw.WriteString(strings.Join(a.ToolsUsed, ", "))
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// writeBody writes everything from the title through the conclusion.
func writeBody(bw *bufio.Writer, a *models.Assignment) {
	fmt.Fprintf(bw, "# %s\n\n", a.Topic)
	fmt.Fprintf(bw, "Written by: %s\n\n", a.Author)
	fmt.Fprintf(bw, "Date: %s\n\n", a.Date)

	bw.WriteString("## Introduction\n\n")
	fmt.Fprintf(bw, "%s\n\n", strings.TrimSpace(a.Introduction))

	for i, section := range a.MainSections {
		fmt.Fprintf(bw, "## %d. %s\n\n", i+1, section.Title)
		fmt.Fprintf(bw, "%s\n\n", strings.TrimSpace(section.Content))
	}

	bw.WriteString("## Conclusion\n\n")
	fmt.Fprintf(bw, "%s\n\n", strings.TrimSpace(a.Conclusion))
}

func writeNumbered(bw *bufio.Writer, items []string) {
	for i, item := range items {
		fmt.Fprintf(bw, "%d. %s\n", i+1, item)
	}
}
