package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/scribe/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct{}

func (stubFetcher) Fetch(_ context.Context, query string) (string, string, error) {
	return "Page: " + query + "\nSummary: " + strings.Repeat("facts ", 40), "https://en.wikipedia.org/wiki/" + strings.ReplaceAll(query, " ", "_"), nil
}

type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, _, _ string) (string, error) {
	return `{"topic":"Go","introduction":"Intro.","main_sections":[{"title":"One","content":"Body."}],"conclusion":"End."}`, nil
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Env = "production"
	cfg.Paths.Output = t.TempDir()
	cfg.Research.Delay = 0
	cfg.Research.Terms = []string{"{topic}", "{topic} history"}

	a, err := NewWithDependencies(nil, cfg, Dependencies{Fetcher: stubFetcher{}, Generator: stubGenerator{}})
	require.NoError(t, err)
	t.Cleanup(a.Shutdown)
	return a
}

func serve(a *App, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, req)
	return w
}

func TestRoutes(t *testing.T) {
	a := newTestApp(t)

	w := serve(a, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Scribe</title>")

	w = serve(a, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = serve(a, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)

	w = serve(a, http.MethodDelete, "/generate", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestGenerateEndToEnd(t *testing.T) {
	a := newTestApp(t)

	w := serve(a, http.MethodPost, "/generate", `{"topic":"Go"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	assert.Contains(t, body, `"success":true`)
	assert.Contains(t, body, "Wikipedia: Go history - https://en.wikipedia.org/wiki/Go_history")
	assert.Contains(t, body, `"tools_used":["wikipedia"]`)

	w = serve(a, http.MethodGet, "/download/docx", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="assignment.docx"`, w.Header().Get("Content-Disposition"))
}

func TestCORS(t *testing.T) {
	cfg := config.Default()
	cfg.Env = "production"
	cfg.Paths.Output = t.TempDir()
	cfg.AllowedOrigins = []string{"*.example.com"}
	a, err := NewWithDependencies(nil, cfg, Dependencies{Fetcher: stubFetcher{}, Generator: stubGenerator{}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, req)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.test")
	w = httptest.NewRecorder()
	a.Router().ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMatchOriginPattern(t *testing.T) {
	assert.True(t, originAllowed([]string{"localhost:*"}, "http://localhost:5173"))
	assert.True(t, originAllowed([]string{"*"}, "https://anything.test"))
	assert.True(t, originAllowed([]string{"App.Example.com"}, "https://app.example.com"))
	assert.False(t, originAllowed([]string{"*.example.com"}, "https://example.org"))
}

func TestParseTimezoneLocation(t *testing.T) {
	loc, err := parseTimezoneLocation("+08:00")
	require.NoError(t, err)
	_, offset := time.Date(2025, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 8*3600, offset)

	_, err = parseTimezoneLocation("Mars/Olympus")
	assert.Error(t, err)
}

func init() {
	gin.SetMode(gin.TestMode)
}
