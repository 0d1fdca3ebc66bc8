package config

import "strings"

func normalizeDatabaseConfig(cfg DatabaseRuntimeConfig) DatabaseRuntimeConfig {
	cfg.DSN = strings.TrimSpace(cfg.DSN)
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.User = strings.TrimSpace(cfg.User)
	cfg.Password = strings.TrimSpace(cfg.Password)
	cfg.Name = strings.TrimSpace(cfg.Name)
	cfg.Charset = strings.TrimSpace(cfg.Charset)
	cfg.Loc = strings.TrimSpace(cfg.Loc)

	if cfg.Host == "" {
		cfg.Host = defaultDBHost
	}
	if cfg.Port == 0 {
		cfg.Port = defaultDBPort
	}
	if cfg.User == "" {
		cfg.User = defaultDBUser
	}
	if cfg.Password == "" {
		cfg.Password = defaultDBPassword
	}
	if cfg.Name == "" {
		cfg.Name = defaultDBName
	}
	if cfg.Charset == "" {
		cfg.Charset = defaultDBCharset
	}
	if cfg.Loc == "" {
		cfg.Loc = defaultDBLoc
	}
	if cfg.Params != nil {
		cfg.Params = copyStringMap(cfg.Params)
	}
	return cfg
}

func normalizeRedisConfig(cfg RedisRuntimeConfig) RedisRuntimeConfig {
	cfg.URL = normalizeRedisRawURL(cfg.URL)
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.Username = strings.TrimSpace(cfg.Username)
	cfg.Password = strings.TrimSpace(cfg.Password)

	if cfg.Host == "" && cfg.URL == "" {
		cfg.Host = defaultRedisHost
	}
	if cfg.Port == 0 {
		cfg.Port = defaultRedisPort
	}
	if cfg.DB < 0 {
		cfg.DB = defaultRedisDB
	}
	cfg.Key = strings.TrimSpace(cfg.Key)
	if cfg.Key == "" {
		cfg.Key = defaultRedisKey
	}
	return cfg
}

func normalizeRedisRawURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "redis://") || strings.HasPrefix(trimmed, "rediss://") {
		return trimmed
	}
	return "redis://" + trimmed
}

func normalizeProviderType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "groq", "openai-compatible", "openai_compatible", "compatible":
		return ProviderOpenAICompatible
	case "openai":
		return ProviderOpenAI
	case "anthropic", "claude":
		return ProviderAnthropic
	default:
		return strings.ToLower(strings.TrimSpace(raw))
	}
}

func normalizeAIConfig(cfg AIRuntimeConfig) AIRuntimeConfig {
	cfg.Type = normalizeProviderType(cfg.Type)
	cfg.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.APIKeyEnv = strings.TrimSpace(cfg.APIKeyEnv)
	cfg.Model = strings.TrimSpace(cfg.Model)

	switch cfg.Type {
	case ProviderOpenAI:
		if cfg.Model == "" {
			cfg.Model = "gpt-4o-mini"
		}
	case ProviderAnthropic:
		if cfg.Model == "" {
			cfg.Model = "claude-3-5-haiku-latest"
		}
	case ProviderOpenAICompatible:
		if cfg.Endpoint == "" {
			cfg.Endpoint = defaultAIEndpoint
		}
		if cfg.Model == "" {
			cfg.Model = defaultAIModel
		}
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = defaultAIMaxOutputTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultAITimeout
	}
	return cfg
}

func normalizeResearchConfig(cfg ResearchRuntimeConfig) ResearchRuntimeConfig {
	cfg.Language = strings.ToLower(strings.TrimSpace(cfg.Language))
	if cfg.Language == "" {
		cfg.Language = defaultResearchLanguage
	}
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	cfg.UserAgent = strings.TrimSpace(cfg.UserAgent)
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultResearchUserAgent
	}
	if cfg.TopK <= 0 {
		cfg.TopK = defaultResearchTopK
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = defaultResearchMaxChars
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultResearchTimeout
	}

	terms := make([]string, 0, len(cfg.Terms))
	for _, term := range cfg.Terms {
		if trimmed := strings.TrimSpace(term); trimmed != "" {
			terms = append(terms, trimmed)
		}
	}
	if len(terms) == 0 {
		terms = append(terms, DefaultResearchTerms...)
	}
	cfg.Terms = terms
	return cfg
}

func normalizeS3Config(cfg S3RuntimeConfig) S3RuntimeConfig {
	cfg.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	cfg.Region = strings.TrimSpace(cfg.Region)
	cfg.Bucket = strings.TrimSpace(cfg.Bucket)
	cfg.AccessKeyID = strings.TrimSpace(cfg.AccessKeyID)
	cfg.SecretAccessKey = strings.TrimSpace(cfg.SecretAccessKey)
	cfg.Prefix = strings.Trim(strings.TrimSpace(cfg.Prefix), "/")
	return cfg
}

func normalizeDriver(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return defaultStore
	}
	return trimmed
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(env string) string {
	trimmed := strings.ToLower(strings.TrimSpace(env))
	if trimmed == "" {
		return defaultEnv
	}
	return trimmed
}

func normalizeRuntimePaths(paths RuntimePathsConfig) RuntimePathsConfig {
	paths.Logs = strings.TrimSpace(paths.Logs)
	paths.Output = strings.TrimSpace(paths.Output)
	return paths
}

func copyStringMap(input map[string]string) map[string]string {
	if input == nil {
		return nil
	}
	out := make(map[string]string, len(input))
	for key, value := range input {
		k := strings.TrimSpace(key)
		v := strings.TrimSpace(value)
		if k != "" && v != "" {
			out[k] = v
		}
	}
	return out
}
