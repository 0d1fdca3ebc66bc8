package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mx-space/scribe/internal/app"
	"github.com/mx-space/scribe/internal/modules/assignment"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Research a topic and write assignment.txt",
	Long: `Generate runs the research and writing stages once for a topic, stores the
result in the configured repository and saves assignment.txt with the
research methodology appendix. Without --topic the topic is read from stdin.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("topic", "", "topic of the assignment")
	generateCmd.Flags().Bool("verbose", false, "also print logs to stdout")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	topic, _ := cmd.Flags().GetString("topic")
	if strings.TrimSpace(topic) == "" {
		topic, err = promptTopic(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := newLogger(cfg, !verbose)
	defer logger.Sync()

	application, err := app.New(logger, cfg)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Creating comprehensive assignment on: %s\n", topic)
	fmt.Fprintln(out, "This will involve thorough research and detailed writing...")

	res, err := application.Service().Generate(ctx, topic)
	if err != nil {
		return err
	}
	writeSummary(out, res)
	return nil
}

func promptTopic(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Enter the topic for the assignment: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	topic := strings.TrimSpace(line)
	if topic == "" {
		return "", assignment.ErrEmptyTopic
	}
	return topic, nil
}

// researchDepth grades an assignment by total word count.
func researchDepth(words int) string {
	switch {
	case words > 1500:
		return "High"
	case words > 1000:
		return "Medium"
	default:
		return "Low"
	}
}

func writeSummary(w io.Writer, res *assignment.Result) {
	a := res.Assignment
	words := a.WordCount()
	rule := strings.Repeat("=", 60)

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "ASSIGNMENT COMPLETED")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Topic: %s\n", a.Topic)
	fmt.Fprintf(w, "Total Word Count: ~%d words\n", words)
	fmt.Fprintf(w, "Sections: %d\n", len(a.MainSections))
	fmt.Fprintf(w, "Sources: %d\n", len(a.Sources))
	fmt.Fprintf(w, "Research Depth: %s\n", researchDepth(words))
	fmt.Fprintln(w, rule)
	if res.ReportPath != "" {
		fmt.Fprintf(w, "Saved to %s\n", res.ReportPath)
	} else {
		fmt.Fprintln(w, "assignment.txt could not be written, see the log for details")
	}
}
