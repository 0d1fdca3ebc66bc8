package app

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/scribe/internal/middleware"
	"github.com/mx-space/scribe/internal/modules/assignment"
	"github.com/mx-space/scribe/internal/pkg/response"
)

//go:embed static
var staticFiles embed.FS

var processStart = time.Now()

func (a *App) registerRoutes() error {
	r := a.router

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	index, err := fs.ReadFile(staticFiles, "static/index.html")
	if err != nil {
		return err
	}
	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", index)
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"uptime":   humanizeDuration(time.Since(processStart)),
			"store":    a.cfg.Store.Driver,
			"provider": a.cfg.AI.Type,
		})
	})

	var guards []gin.HandlerFunc
	if a.redis != nil {
		guards = append(guards,
			middleware.RateLimit(a.redis, int64(a.cfg.RateLimit.Max), a.cfg.RateLimit.Window, a.logger),
			middleware.Idempotence(a.redis, a.runBudget()),
		)
	}
	assignment.NewHandler(a.service, a.logger).RegisterRoutes(r, guards...)
	return nil
}

// runBudget bounds how long one generation can take end to end.
func (a *App) runBudget() time.Duration {
	r := a.cfg.Research
	return a.cfg.AI.Timeout + time.Duration(len(r.Terms))*(r.Timeout+r.Delay)
}
