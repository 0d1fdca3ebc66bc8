package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mx-space/scribe/internal/app"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.Port = port
		}

		logger := newLogger(cfg, false)
		defer logger.Sync()

		application, err := app.New(logger, cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return application.ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default from config)")

	rootCmd.AddCommand(serveCmd)
}
