package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mx-space/scribe/internal/models"
	"github.com/mx-space/scribe/internal/modules/research"
)

// ReportFile is the canonical save target of every generation run.
const ReportFile = "assignment.txt"

const reportTimeLayout = "2006-01-02 15:04:05"

// Report is an assignment plus the research that backed it.
type Report struct {
	Assignment  *models.Assignment
	Facts       []research.Fact
	GeneratedAt time.Time
}

// WriteReport renders the text layout followed by the research methodology,
// per-query source detail and disclaimer appendix.
func WriteReport(w io.Writer, r Report) error {
	a := r.Assignment
	bw := bufio.NewWriter(w)
	writeBody(bw, a)

	bw.WriteString("## Sources\n\n")
	if len(a.Sources) > 0 {
		writeNumbered(bw, a.Sources)
		bw.WriteString("\n")
	} else {
		bw.WriteString("WARNING: No Wikipedia sources were successfully captured during research.\n")
		bw.WriteString("This indicates a problem with the research process.\n\n")
	}

	tools := a.ToolsUsed
	if len(tools) == 0 {
		tools = []string{"wikipedia"}
	}
	total := 0
	for _, f := range r.Facts {
		total += f.Length
	}
	generated := r.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	bw.WriteString("## Research Methodology\n\n")
	fmt.Fprintf(bw, "Tools Used: %s\n", strings.Join(tools, ", "))
	fmt.Fprintf(bw, "Wikipedia Articles Researched: %d\n", len(r.Facts))
	fmt.Fprintf(bw, "Total Research Content: %d characters\n", total)
	fmt.Fprintf(bw, "Generated: %s\n\n", generated.Format(reportTimeLayout))

	if len(r.Facts) > 0 {
		bw.WriteString("## Research Sources Detail\n\n")
		for _, f := range r.Facts {
			fmt.Fprintf(bw, "**%s**: %d characters from %s\n", f.Query, f.Length, f.URL)
		}
		bw.WriteString("\n")
	}

	bw.WriteString("## Disclaimer\n\n")
	bw.WriteString("This assignment was generated using AI tools with Wikipedia research. ")
	if len(a.Sources) > 0 {
		bw.WriteString("All facts should be verified against the listed Wikipedia sources. ")
	} else {
		bw.WriteString("NO WIKIPEDIA SOURCES WERE CAPTURED - facts may be unreliable. ")
	}
	bw.WriteString("Please verify all information and add additional academic sources before submission.\n")
	return bw.Flush()
}
