package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/mx-space/scribe/internal/app"
	"github.com/mx-space/scribe/internal/config"
	"github.com/mx-space/scribe/internal/pkg/nativelog"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "Path to YAML config file (built-in defaults when the default file is absent)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootstrap, _ := zap.NewProduction()
		bootstrap.Fatal("failed to load config", zap.String("path", *configPath), zap.Error(err))
	}

	logger, err := nativelog.NewZapLogger(cfg.LogDir(), cfg.IsDev())
	if err != nil {
		logger, _ = zap.NewProduction()
		logger.Warn("native log pipeline unavailable, fallback to zap production logger", zap.Error(err))
	}
	defer logger.Sync()

	application, err := app.New(logger, cfg)
	if err != nil {
		logger.Fatal("failed to initialize app", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := application.ListenAndServe(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
