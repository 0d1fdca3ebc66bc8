package app

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mx-space/scribe/internal/config"
	"github.com/mx-space/scribe/internal/database"
	"github.com/mx-space/scribe/internal/middleware"
	"github.com/mx-space/scribe/internal/modules/assignment"
	"github.com/mx-space/scribe/internal/modules/export"
	"github.com/mx-space/scribe/internal/modules/processing/ai"
	"github.com/mx-space/scribe/internal/modules/research"
	"github.com/mx-space/scribe/internal/modules/storage/objectstore"
	pkgredis "github.com/mx-space/scribe/internal/pkg/redis"
	"go.uber.org/zap"
)

// App holds all application dependencies.
type App struct {
	cfg     *config.AppConfig
	router  *gin.Engine
	service *assignment.Service
	redis   *pkgredis.Client
	logger  *zap.Logger
	closers []func() error
}

// Dependencies lets callers replace the external collaborators; zero fields
// are built from config.
type Dependencies struct {
	Fetcher    research.Fetcher
	Generator  ai.Generator
	Repository assignment.Repository
	Mirror     export.Mirror
}

// New initializes the application: config → stores → pipeline → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	return NewWithDependencies(logger, cfg, Dependencies{})
}

func NewWithDependencies(logger *zap.Logger, cfg *config.AppConfig, deps Dependencies) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := applyRuntimeSettings(cfg); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, logger: logger}
	svc, err := a.buildService(deps)
	if err != nil {
		a.Shutdown()
		return nil, err
	}
	a.service = svc

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-Idempotence", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		patterns := cfg.AllowedOrigins
		corsConfig.AllowOriginFunc = func(origin string) bool { return originAllowed(patterns, origin) }
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	router.Use(cors.New(corsConfig))

	a.router = router
	if err := a.registerRoutes(); err != nil {
		a.Shutdown()
		return nil, err
	}
	return a, nil
}

func (a *App) buildService(deps Dependencies) (*assignment.Service, error) {
	cfg := a.cfg

	if cfg.UsesRedis() {
		rc, err := pkgredis.Connect(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.redis = rc
		a.closers = append(a.closers, rc.Close)
	}

	repo := deps.Repository
	if repo == nil {
		switch cfg.Store.Driver {
		case config.StoreRedis:
			repo = assignment.NewRedisRepository(a.redis, cfg.Redis.Key)
		case config.StoreMySQL:
			db, err := database.Connect(cfg, true)
			if err != nil {
				return nil, fmt.Errorf("database: %w", err)
			}
			if sqlDB, err := db.DB(); err == nil {
				a.closers = append(a.closers, sqlDB.Close)
			}
			repo = assignment.NewGormRepository(db)
		default:
			repo = assignment.NewMemoryRepository()
		}
	}

	mirror := deps.Mirror
	if mirror == nil && cfg.S3.Enable {
		m, err := objectstore.NewS3Mirror(cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("s3: %w", err)
		}
		mirror = m
	}

	fetcher := deps.Fetcher
	if fetcher == nil {
		fetcher = research.NewWikipediaClient(cfg.Research)
	}
	generator := deps.Generator
	if generator == nil {
		client := ai.NewClient(cfg.AI)
		providerType, model := client.Provider()
		a.logger.Info("generation provider", zap.String("type", providerType), zap.String("model", model))
		generator = client
	}

	pipeline := assignment.NewPipeline(
		research.NewStage(fetcher, cfg.Research, a.logger),
		generator,
		assignment.PipelineOptions{
			Author:   cfg.Writing.Author,
			Sections: cfg.Writing.Sections,
			Logger:   a.logger,
		},
	)
	exports := export.NewService(cfg.OutputDir(), mirror, a.logger)
	a.logger.Info("assignment store",
		zap.String("driver", cfg.Store.Driver),
		zap.String("output", exports.Dir()),
		zap.Bool("s3_mirror", mirror != nil),
	)
	return assignment.NewService(pipeline, repo, exports, a.logger), nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return a.cfg.Addr() }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Service exposes the assignment service for non-HTTP callers.
func (a *App) Service() *assignment.Service { return a.service }

// Shutdown releases store connections.
func (a *App) Shutdown() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}
