package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mx-space/scribe/internal/modules/research"
	"github.com/spf13/cobra"
)

var researchCmd = &cobra.Command{
	Use:   "research [query]",
	Short: "Run a single Wikipedia lookup and print the result",
	Long: `Research performs the same lookup the research stage uses for one query and
prints the text handed to the writing stage, followed by the tracked source.
It is meant for checking connectivity and the quality of a research term.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().Int("max-chars", 0, "truncate the lookup text (default from config)")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if n, _ := cmd.Flags().GetInt("max-chars"); n > 0 {
		cfg.Research.MaxChars = n
	}

	logger := newLogger(cfg, true)
	defer logger.Sync()

	query := strings.TrimSpace(strings.Join(args, " "))
	stage := research.NewStage(research.NewWikipediaClient(cfg.Research), cfg.Research, logger)
	tracker := research.NewTracker()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Research.Timeout+5*time.Second)
	defer cancel()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, stage.Lookup(ctx, query, tracker))
	summary := tracker.Summary()
	fmt.Fprintf(out, "\nSources captured: %d (%d characters)\n", summary.SourcesCount, summary.TotalContentLength)
	for _, src := range summary.Sources {
		fmt.Fprintf(out, "  %s\n", src)
	}
	return nil
}
