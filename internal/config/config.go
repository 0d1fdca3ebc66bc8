package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort     = 5000
	defaultEnv      = "development"
	defaultStore    = StoreMemory
	defaultRedisKey = "scribe:assignment:current"

	defaultAIType            = ProviderOpenAICompatible
	defaultAIEndpoint        = "https://api.groq.com/openai"
	defaultAIModel           = "llama3-8b-8192"
	defaultAIMaxOutputTokens = 4096
	defaultAITimeout         = 3 * time.Minute

	defaultResearchLanguage  = "en"
	defaultResearchTopK      = 2
	defaultResearchMaxChars  = 4000
	defaultResearchDelay     = 500 * time.Millisecond
	defaultResearchTimeout   = 15 * time.Second
	defaultResearchUserAgent = "scribe/1.0 (assignment research backend)"

	defaultRateLimitMax    = 10
	defaultRateLimitWindow = time.Minute

	defaultAuthor   = "AI Research Assistant"
	defaultSections = 4

	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "scribe"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultRedisHost  = "localhost"
	defaultRedisPort  = 6379
	defaultRedisDB    = 0
)

// Provider types accepted by ai.type.
const (
	ProviderOpenAI           = "openai"
	ProviderAnthropic        = "anthropic"
	ProviderOpenAICompatible = "openai-compatible"
)

// Store drivers accepted by store.driver.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreMySQL  = "mysql"
)

// DefaultResearchTerms mirrors the research strategy: definitions, history,
// applications, examples and recent developments of the topic.
var DefaultResearchTerms = []string{
	"{topic}",
	"{topic} history",
	"{topic} applications",
	"{topic} examples",
	"{topic} current trends",
}

// Load reads the YAML file at configPath. A missing file at the default path
// yields the built-in defaults so the server can start without any config.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	explicit := path != "" && path != DefaultConfigPath
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := defaultAppConfig()

	content, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			cfg.resolveSecrets()
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	if err := Parse(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}
	return &cfg, nil
}

// Parse decodes YAML content over cfg and validates the result.
func Parse(content []byte, cfg *AppConfig) error {
	raw := rawAppConfig{}
	if len(bytes.TrimSpace(content)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&raw); err != nil {
			return err
		}
	}

	applyRawAppConfig(cfg, raw)
	cfg.resolveSecrets()
	return cfg.validate()
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	cfg := defaultAppConfig()
	cfg.resolveSecrets()
	return &cfg
}

func (c *AppConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	switch c.AI.Type {
	case ProviderOpenAI, ProviderAnthropic, ProviderOpenAICompatible:
	default:
		return fmt.Errorf("invalid ai.type %q, expected openai, anthropic or openai-compatible", c.AI.Type)
	}
	switch c.Store.Driver {
	case StoreMemory, StoreRedis, StoreMySQL:
	default:
		return fmt.Errorf("invalid store.driver %q, expected memory, redis or mysql", c.Store.Driver)
	}
	if c.Writing.Sections < 1 {
		return fmt.Errorf("invalid writing.sections %d, expected >= 1", c.Writing.Sections)
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database.port %d, expected 1-65535", c.Database.Port)
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis.port %d, expected 1-65535", c.Redis.Port)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d, expected >= 0", c.Redis.DB)
	}
	if c.RateLimit.Max < 1 || c.RateLimit.Window < time.Second {
		return fmt.Errorf("invalid rate_limit, expected max >= 1 and window >= 1s")
	}
	if c.S3.Enable && (c.S3.Bucket == "" || c.S3.Region == "") {
		return errors.New("s3.enable requires s3.bucket and s3.region")
	}
	return nil
}

func defaultAppConfig() AppConfig {
	cfg := AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		AI: AIRuntimeConfig{
			Type:            defaultAIType,
			Endpoint:        defaultAIEndpoint,
			Model:           defaultAIModel,
			MaxOutputTokens: defaultAIMaxOutputTokens,
			Timeout:         defaultAITimeout,
		},
		Research: ResearchRuntimeConfig{
			Language:  defaultResearchLanguage,
			TopK:      defaultResearchTopK,
			MaxChars:  defaultResearchMaxChars,
			Delay:     defaultResearchDelay,
			Timeout:   defaultResearchTimeout,
			UserAgent: defaultResearchUserAgent,
			Terms:     append([]string(nil), DefaultResearchTerms...),
		},
		Writing: WritingRuntimeConfig{
			Author:   defaultAuthor,
			Sections: defaultSections,
		},
		Store: StoreRuntimeConfig{Driver: defaultStore},
		Database: DatabaseRuntimeConfig{
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
			Key:  defaultRedisKey,
		},
		RateLimit: RateLimitRuntimeConfig{
			Max:    defaultRateLimitMax,
			Window: defaultRateLimitWindow,
		},
	}
	cfg.Database = normalizeDatabaseConfig(cfg.Database)
	cfg.Redis = normalizeRedisConfig(cfg.Redis)
	cfg.DSN = cfg.Database.DSNValue()
	return cfg
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(raw.NodeEnv); v != "" {
		cfg.Env = v
	}
	switch {
	case raw.AllowedOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.AllowedOrigins)
	case raw.CORSAllowedOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.CORSAllowedOrigins)
	}
	if v := strings.TrimSpace(raw.Timezone); v != "" {
		cfg.Timezone = v
	}
	if v := strings.TrimSpace(raw.TZ); v != "" {
		cfg.Timezone = v
	}

	if v := strings.TrimSpace(raw.Paths.Logs); v != "" {
		cfg.Paths.Logs = v
	}
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.Paths.Logs = v
	}
	if v := strings.TrimSpace(raw.Paths.Output); v != "" {
		cfg.Paths.Output = v
	}
	if v := strings.TrimSpace(raw.OutputDir); v != "" {
		cfg.Paths.Output = v
	}

	cfg.AI = applyRawAIConfig(cfg.AI, raw.AI)
	cfg.Research = applyRawResearchConfig(cfg.Research, raw.Research)

	if v := strings.TrimSpace(raw.Writing.Author); v != "" {
		cfg.Writing.Author = v
	}
	if raw.Writing.Sections != 0 {
		cfg.Writing.Sections = raw.Writing.Sections
	}
	if v := strings.TrimSpace(raw.Store.Driver); v != "" {
		cfg.Store.Driver = v
	}

	cfg.Database = applyRawDatabaseConfig(cfg.Database, raw)
	cfg.Redis = applyRawRedisConfig(cfg.Redis, raw)
	cfg.S3 = normalizeS3Config(raw.S3)
	if raw.RateLimit.Enable != nil {
		cfg.RateLimit.Enable = *raw.RateLimit.Enable
	}
	if raw.RateLimit.Max != 0 {
		cfg.RateLimit.Max = raw.RateLimit.Max
	}
	if raw.RateLimit.Window != 0 {
		cfg.RateLimit.Window = raw.RateLimit.Window
	}

	cfg.Env = normalizeEnv(cfg.Env)
	cfg.Store.Driver = normalizeDriver(cfg.Store.Driver)
	cfg.Paths = normalizeRuntimePaths(cfg.Paths)
	cfg.DSN = cfg.Database.DSNValue()
}

func applyRawAIConfig(current AIRuntimeConfig, raw rawAIConfig) AIRuntimeConfig {
	cfg := current
	if v := strings.TrimSpace(raw.Type); v != "" {
		cfg.Type = v
	}
	if v := strings.TrimSpace(raw.Provider); v != "" {
		cfg.Type = v
	}
	typeChanged := normalizeProviderType(cfg.Type) != current.Type
	if typeChanged {
		// The Groq endpoint and model only make sense for the default provider.
		cfg.Endpoint = ""
		cfg.Model = ""
	}
	if v := strings.TrimSpace(raw.Endpoint); v != "" {
		cfg.Endpoint = v
	}
	if v := strings.TrimSpace(raw.BaseURL); v != "" {
		cfg.Endpoint = v
	}
	if v := strings.TrimSpace(raw.APIKey); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(raw.APIKeyEnv); v != "" {
		cfg.APIKeyEnv = v
	}
	if v := strings.TrimSpace(raw.Model); v != "" {
		cfg.Model = v
	}
	if raw.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = raw.MaxOutputTokens
	}
	if raw.Timeout > 0 {
		cfg.Timeout = raw.Timeout
	}
	return normalizeAIConfig(cfg)
}

func applyRawResearchConfig(current ResearchRuntimeConfig, raw rawResearchConfig) ResearchRuntimeConfig {
	cfg := current
	if v := strings.TrimSpace(raw.Language); v != "" {
		cfg.Language = v
	}
	if v := strings.TrimSpace(raw.Lang); v != "" {
		cfg.Language = v
	}
	if v := strings.TrimSpace(raw.Endpoint); v != "" {
		cfg.Endpoint = v
	}
	if raw.TopK > 0 {
		cfg.TopK = raw.TopK
	}
	if raw.MaxChars > 0 {
		cfg.MaxChars = raw.MaxChars
	}
	if raw.Delay > 0 {
		cfg.Delay = raw.Delay
	}
	if raw.Timeout > 0 {
		cfg.Timeout = raw.Timeout
	}
	if v := strings.TrimSpace(raw.UserAgent); v != "" {
		cfg.UserAgent = v
	}
	if raw.Terms != nil {
		cfg.Terms = raw.Terms
	}
	return normalizeResearchConfig(cfg)
}

func applyRawDatabaseConfig(current DatabaseRuntimeConfig, raw rawAppConfig) DatabaseRuntimeConfig {
	cfg := current
	db := raw.Database
	if v := strings.TrimSpace(raw.DSN); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(db.DSN); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(db.Host); v != "" {
		cfg.Host = v
	}
	if db.Port != 0 {
		cfg.Port = db.Port
	}
	if v := strings.TrimSpace(db.User); v != "" {
		cfg.User = v
	}
	if v := strings.TrimSpace(db.Username); v != "" {
		cfg.User = v
	}
	if db.Password != "" {
		cfg.Password = db.Password
	}
	if v := strings.TrimSpace(db.Name); v != "" {
		cfg.Name = v
	}
	if v := strings.TrimSpace(db.DBName); v != "" {
		cfg.Name = v
	}
	if v := strings.TrimSpace(db.Charset); v != "" {
		cfg.Charset = v
	}
	if db.ParseTime != nil {
		cfg.ParseTime = *db.ParseTime
	}
	if v := strings.TrimSpace(db.Loc); v != "" {
		cfg.Loc = v
	}
	if db.Params != nil {
		cfg.Params = db.Params
	}
	return normalizeDatabaseConfig(cfg)
}

func applyRawRedisConfig(current RedisRuntimeConfig, raw rawAppConfig) RedisRuntimeConfig {
	cfg := current
	rc := raw.Redis
	if v := strings.TrimSpace(raw.RedisURL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(rc.URL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(rc.Host); v != "" {
		cfg.Host = v
	}
	if rc.Port != 0 {
		cfg.Port = rc.Port
	}
	if v := strings.TrimSpace(rc.Username); v != "" {
		cfg.Username = v
	}
	if rc.Password != "" {
		cfg.Password = rc.Password
	}
	if rc.DB != nil {
		cfg.DB = *rc.DB
	}
	if rc.TLS != nil {
		cfg.TLS = *rc.TLS
	}
	if v := strings.TrimSpace(rc.Key); v != "" {
		cfg.Key = v
	}
	return normalizeRedisConfig(cfg)
}

// resolveSecrets fills the API key from the environment when the file omits it.
func (c *AppConfig) resolveSecrets() {
	if strings.TrimSpace(c.AI.APIKey) != "" {
		return
	}
	envName := strings.TrimSpace(c.AI.APIKeyEnv)
	if envName == "" {
		envName = defaultAPIKeyEnv(c.AI.Type)
	}
	c.AI.APIKey = strings.TrimSpace(os.Getenv(envName))
}

func defaultAPIKeyEnv(providerType string) string {
	switch providerType {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "GROQ_API_KEY"
	}
}

// UsesRedis reports whether any component needs a redis connection.
func (c *AppConfig) UsesRedis() bool {
	return c.Store.Driver == StoreRedis || c.RateLimit.Enable
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}

// Addr returns the HTTP listen address.
func (c *AppConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *AppConfig) LogDir() string {
	if c == nil {
		return ResolveRuntimePath("", "logs")
	}
	return ResolveRuntimePath(c.Paths.Logs, "logs")
}

// OutputDir is where assignment.txt and exported files are written.
func (c *AppConfig) OutputDir() string {
	if c == nil {
		return ResolveRuntimePath("", "")
	}
	return ResolveRuntimePath(c.Paths.Output, "")
}
