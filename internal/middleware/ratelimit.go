package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/scribe/internal/pkg/response"
	"go.uber.org/zap"
)

const (
	generateLimitMax    = 10
	generateLimitWindow = time.Minute
)

// WindowCounter counts hits for a key within a fixed window.
type WindowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimit caps each client IP at max requests per window. Counter errors
// let the request through.
func RateLimit(counter WindowCounter, max int64, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if max <= 0 {
		max = generateLimitMax
	}
	if window < time.Second {
		window = generateLimitWindow
	}
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		bucket := time.Now().Unix() / int64(window/time.Second)
		key := fmt.Sprintf("scribe:rate_limit:%s:%s:%d", c.FullPath(), ip, bucket)

		count, err := counter.IncrWindow(c.Request.Context(), key, window+time.Second)
		if err != nil {
			if logger != nil {
				logger.Warn("rate limit counter unavailable", zap.Error(err))
			}
			c.Next()
			return
		}

		if count > max {
			c.Header("Retry-After", strconv.Itoa(int(window/time.Second)))
			response.TooManyRequests(c)
			return
		}

		c.Next()
	}
}
