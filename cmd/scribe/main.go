// Command scribe researches a topic and drafts an assignment from the command
// line, or runs the HTTP server.
package main

import (
	"os"

	"github.com/mx-space/scribe/internal/config"
	"github.com/mx-space/scribe/internal/pkg/nativelog"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Research a topic and draft a structured assignment",
	Long: `scribe looks a topic up on Wikipedia under several angles, hands the notes
to a language model and turns the reply into a structured assignment that
can be exported as text, PDF, DOCX or HTML.

Use "generate" for a one-shot run or "serve" for the HTTP interface.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", config.DefaultConfigPath, "path to YAML config file")
}

func loadConfig(cmd *cobra.Command) (*config.AppConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// newLogger logs to the daily file only when quiet, so CLI output stays clean.
func newLogger(cfg *config.AppConfig, quiet bool) *zap.Logger {
	if quiet {
		logger, err := nativelog.NewFileLogger(cfg.LogDir(), cfg.IsDev())
		if err != nil {
			return zap.NewNop()
		}
		return logger
	}
	logger, err := nativelog.NewZapLogger(cfg.LogDir(), cfg.IsDev())
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
