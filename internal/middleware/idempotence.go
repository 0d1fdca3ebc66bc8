package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/scribe/internal/pkg/response"
)

const (
	idempotenceHeader  = "X-Idempotence"
	defaultInFlightTTL = 5 * time.Minute
)

// Locker claims and releases short-lived keys.
type Locker interface {
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

// Idempotence rejects a request with 409 while an identical one is still in
// flight. Identity is the X-Idempotence header, or else a hash of method, URL,
// body, user agent and client IP. ttl bounds how long a crashed request can
// hold its key.
func Idempotence(locker Locker, ttl time.Duration) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = defaultInFlightTTL
	}
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet {
			c.Next()
			return
		}

		key, err := resolveIdempotenceKey(c)
		if err != nil || key == "" {
			c.Next()
			return
		}

		lockKey := "scribe:inflight:" + key
		ok, err := locker.SetNX(c.Request.Context(), lockKey, "1", ttl)
		if err != nil {
			c.Next()
			return
		}
		if !ok {
			response.Conflict(c, "An identical request is already being processed")
			return
		}
		defer func() {
			// The request context may already be cancelled here.
			_ = locker.Del(context.Background(), lockKey)
		}()

		c.Next()
	}
}

// resolveIdempotenceKey returns the idempotence key for the current request.
func resolveIdempotenceKey(c *gin.Context) (string, error) {
	if hdr := c.GetHeader(idempotenceHeader); hdr != "" {
		return hdr, nil
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", err
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

	ua := c.Request.UserAgent()
	ip := c.ClientIP()
	if len(body) == 0 && ua == "" && ip == "" {
		return "", nil
	}

	raw := c.Request.Method + "|" + c.Request.URL.String() + "|" + string(body) + "|" + ua + "|" + ip
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:]), nil
}
