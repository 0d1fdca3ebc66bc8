package config

import "time"

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int                    `yaml:"port"`
	Env            string                 `yaml:"env"` // "development" | "production"
	AllowedOrigins []string               `yaml:"allowed_origins"`
	Timezone       string                 `yaml:"timezone"`
	Paths          RuntimePathsConfig     `yaml:"paths"`
	AI             AIRuntimeConfig        `yaml:"ai"`
	Research       ResearchRuntimeConfig  `yaml:"research"`
	Writing        WritingRuntimeConfig   `yaml:"writing"`
	Store          StoreRuntimeConfig     `yaml:"store"`
	Database       DatabaseRuntimeConfig  `yaml:"database"`
	Redis          RedisRuntimeConfig     `yaml:"redis"`
	S3             S3RuntimeConfig        `yaml:"s3"`
	RateLimit      RateLimitRuntimeConfig `yaml:"rate_limit"`

	DSN string `yaml:"-"`
}

type RuntimePathsConfig struct {
	Logs   string `yaml:"logs"`
	Output string `yaml:"output"`
}

// AIRuntimeConfig selects the generation provider used by the writing stage.
type AIRuntimeConfig struct {
	Type            string        `yaml:"type"` // openai | anthropic | openai-compatible
	Endpoint        string        `yaml:"endpoint"`
	APIKey          string        `yaml:"api_key"`
	APIKeyEnv       string        `yaml:"api_key_env"`
	Model           string        `yaml:"model"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	Timeout         time.Duration `yaml:"timeout"`
}

// ResearchRuntimeConfig controls the encyclopedia lookups of the research stage.
type ResearchRuntimeConfig struct {
	Language  string        `yaml:"language"`
	Endpoint  string        `yaml:"endpoint"`
	TopK      int           `yaml:"top_k"`
	MaxChars  int           `yaml:"max_chars"`
	Delay     time.Duration `yaml:"delay"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	// Terms are sub-topic templates; "{topic}" is replaced with the requested topic.
	Terms []string `yaml:"terms"`
}

type WritingRuntimeConfig struct {
	Author   string `yaml:"author"`
	Sections int    `yaml:"sections"`
}

// StoreRuntimeConfig selects the repository backing the current assignment.
type StoreRuntimeConfig struct {
	Driver string `yaml:"driver"` // memory | redis | mysql
}

type DatabaseRuntimeConfig struct {
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime bool              `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

// RedisRuntimeConfig locates the redis server. A url wins over the discrete
// fields.
type RedisRuntimeConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
	Key      string `yaml:"key"`
}

// RateLimitRuntimeConfig guards POST /generate. It needs redis and is active
// when enabled or when store.driver is redis.
type RateLimitRuntimeConfig struct {
	Enable bool          `yaml:"enable"`
	Max    int           `yaml:"max"`
	Window time.Duration `yaml:"window"`
}

// S3RuntimeConfig configures the optional object-storage mirror for exports.
type S3RuntimeConfig struct {
	Enable          bool   `yaml:"enable"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Prefix          string `yaml:"prefix"`
	PathStyleAccess bool   `yaml:"path_style_access"`
}

type rawAppConfig struct {
	Port               int                   `yaml:"port"`
	Env                string                `yaml:"env"`
	NodeEnv            string                `yaml:"node_env"`
	AllowedOrigins     []string              `yaml:"allowed_origins"`
	CORSAllowedOrigins []string              `yaml:"cors_allowed_origins"`
	Timezone           string                `yaml:"timezone"`
	TZ                 string                `yaml:"tz"`
	Paths              RuntimePathsConfig    `yaml:"paths"`
	LogDir             string                `yaml:"log_dir"`
	OutputDir          string                `yaml:"output_dir"`
	AI                 rawAIConfig           `yaml:"ai"`
	Research           rawResearchConfig     `yaml:"research"`
	Writing            WritingRuntimeConfig  `yaml:"writing"`
	Store              StoreRuntimeConfig    `yaml:"store"`
	Database           rawDatabaseConfig     `yaml:"database"`
	Redis              rawRedisConfig        `yaml:"redis"`
	RedisURL           string                `yaml:"redis_url"`
	DSN                string                `yaml:"dsn"`
	S3                 S3RuntimeConfig       `yaml:"s3"`
	RateLimit          rawRateLimitConfig    `yaml:"rate_limit"`
}

type rawRateLimitConfig struct {
	Enable *bool         `yaml:"enable"`
	Max    int           `yaml:"max"`
	Window time.Duration `yaml:"window"`
}

type rawAIConfig struct {
	Type            string        `yaml:"type"`
	Provider        string        `yaml:"provider"`
	Endpoint        string        `yaml:"endpoint"`
	BaseURL         string        `yaml:"base_url"`
	APIKey          string        `yaml:"api_key"`
	APIKeyEnv       string        `yaml:"api_key_env"`
	Model           string        `yaml:"model"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	Timeout         time.Duration `yaml:"timeout"`
}

type rawResearchConfig struct {
	Language  string        `yaml:"language"`
	Lang      string        `yaml:"lang"`
	Endpoint  string        `yaml:"endpoint"`
	TopK      int           `yaml:"top_k"`
	MaxChars  int           `yaml:"max_chars"`
	Delay     time.Duration `yaml:"delay"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	Terms     []string      `yaml:"terms"`
}

type rawDatabaseConfig struct {
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Username  string            `yaml:"username"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	DBName    string            `yaml:"db_name"`
	Charset   string            `yaml:"charset"`
	ParseTime *bool             `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type rawRedisConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       *int   `yaml:"db"`
	TLS      *bool  `yaml:"tls"`
	Key      string `yaml:"key"`
}
