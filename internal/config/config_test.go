package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk-test")

	cfg := Default()
	assert.Equal(t, 5000, cfg.Port)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, ":5000", cfg.Addr())
	assert.Equal(t, ProviderOpenAICompatible, cfg.AI.Type)
	assert.Equal(t, "https://api.groq.com/openai", cfg.AI.Endpoint)
	assert.Equal(t, "llama3-8b-8192", cfg.AI.Model)
	assert.Equal(t, "gsk-test", cfg.AI.APIKey)
	assert.Equal(t, 3*time.Minute, cfg.AI.Timeout)
	assert.Equal(t, DefaultResearchTerms, cfg.Research.Terms)
	assert.Equal(t, 2, cfg.Research.TopK)
	assert.Equal(t, 4000, cfg.Research.MaxChars)
	assert.Equal(t, 500*time.Millisecond, cfg.Research.Delay)
	assert.Equal(t, "AI Research Assistant", cfg.Writing.Author)
	assert.Equal(t, 4, cfg.Writing.Sections)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
}

func TestParse_Overrides(t *testing.T) {
	content := []byte(`
port: 8080
env: Production
allowed_origins: [" https://a.example ", ""]
ai:
  type: anthropic
  api_key: sk-ant
  timeout: 90s
research:
  lang: DE
  terms: ["{topic}", "  ", "{topic} science"]
writing:
  sections: 6
store:
  driver: Redis
redis:
  url: cache:6380/2
  key: custom:key
database:
  host: db
  name: essays
  parse_time: false
`)
	cfg := defaultAppConfig()
	require.NoError(t, Parse(content, &cfg))

	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, []string{"https://a.example"}, cfg.AllowedOrigins)
	assert.Equal(t, ProviderAnthropic, cfg.AI.Type)
	assert.Empty(t, cfg.AI.Endpoint)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.AI.Model)
	assert.Equal(t, "sk-ant", cfg.AI.APIKey)
	assert.Equal(t, 90*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "de", cfg.Research.Language)
	assert.Equal(t, []string{"{topic}", "{topic} science"}, cfg.Research.Terms)
	assert.Equal(t, 6, cfg.Writing.Sections)
	assert.Equal(t, StoreRedis, cfg.Store.Driver)
	assert.Equal(t, "redis://cache:6380/2", cfg.Redis.URL)
	assert.Equal(t, "custom:key", cfg.Redis.Key)
	assert.Contains(t, cfg.DSN, "tcp(db:3306)/essays")
	assert.NotContains(t, cfg.DSN, "parseTime")
}

func TestParse_APIKeyFromNamedEnv(t *testing.T) {
	t.Setenv("MY_KEY", "from-env")

	cfg := defaultAppConfig()
	require.NoError(t, Parse([]byte("ai:\n  type: openai\n  api_key_env: MY_KEY\n"), &cfg))
	assert.Equal(t, ProviderOpenAI, cfg.AI.Type)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.Equal(t, "from-env", cfg.AI.APIKey)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", "nope: 1\n"},
		{"port out of range", "port: 70000\n"},
		{"unknown provider", "ai:\n  type: cohere\n"},
		{"unknown store", "store:\n  driver: sqlite\n"},
		{"negative sections", "writing:\n  sections: -1\n"},
		{"s3 without bucket", "s3:\n  enable: true\n  region: us-east-1\n"},
		{"rate limit window too short", "rate_limit:\n  window: 10ms\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultAppConfig()
			assert.Error(t, Parse([]byte(tt.content), &cfg))
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9000\npaths:\n  output: out\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, filepath.IsAbs(cfg.OutputDir()))
	assert.Equal(t, "out", filepath.Base(cfg.OutputDir()))

	_, err = Load(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)
}

func TestDSNValue(t *testing.T) {
	explicit := normalizeDatabaseConfig(DatabaseRuntimeConfig{DSN: " user:pw@tcp(h:1)/d "})
	assert.Equal(t, "user:pw@tcp(h:1)/d", explicit.DSNValue())

	cfg := normalizeDatabaseConfig(DatabaseRuntimeConfig{
		Host:      "db",
		Name:      "essays",
		Loc:       "UTC",
		ParseTime: true,
		Params:    map[string]string{"timeout": "5s", "": "dropped"},
	})
	dsn := cfg.DSNValue()
	assert.True(t, strings.HasPrefix(dsn, "root:password@tcp(db:3306)/essays?"), dsn)
	assert.Contains(t, dsn, "charset=utf8mb4")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "timeout=5s")
	assert.NotContains(t, dsn, "loc=")
	assert.NotContains(t, dsn, "dropped")
}

func TestLoad_DefaultPathMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GROQ_API_KEY", "")

	cfg, err := Load(DefaultConfigPath)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Port)
}

func TestResolveRuntimePath(t *testing.T) {
	assert.Equal(t, "/var/log/scribe", ResolveRuntimePath("/var/log/scribe/", "logs"))
	assert.Equal(t, filepath.Join(WorkingDir(), "logs"), ResolveRuntimePath("", "logs"))
	assert.Equal(t, WorkingDir(), ResolveRuntimePath("", ""))
}

func TestParse_RateLimit(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.UsesRedis())

	require.NoError(t, Parse([]byte("rate_limit:\n  enable: true\n  max: 3\n  window: 30s\n"), cfg))
	assert.True(t, cfg.RateLimit.Enable)
	assert.Equal(t, 3, cfg.RateLimit.Max)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.True(t, cfg.UsesRedis())

	cfg = Default()
	require.NoError(t, Parse([]byte("store:\n  driver: redis\n"), cfg))
	assert.True(t, cfg.UsesRedis())
	assert.Equal(t, 10, cfg.RateLimit.Max)
}

func TestParse_ExampleConfig(t *testing.T) {
	content, err := os.ReadFile(filepath.Join("..", "..", "config.example.yml"))
	require.NoError(t, err)

	cfg := Default()
	require.NoError(t, Parse(content, cfg))
	assert.Equal(t, ProviderOpenAICompatible, cfg.AI.Type)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, "scribe/exports", cfg.S3.Prefix)
	assert.Len(t, cfg.Research.Terms, 5)
}
