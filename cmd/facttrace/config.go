// cmd/facttrace/config.go
package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config holds application configuration
type Config struct {
	Version  string `yaml:"version"`
	Port     int    `yaml:"port"`
	LogPath  string `yaml:"log_path"`
	LogLevel string `yaml:"log_level"`

	// Reliability dataset and thresholds
	DatasetPath             string  `yaml:"dataset_path"`
	MaxBiasThreshold        float64 `yaml:"max_bias_threshold"`
	MinReliabilityThreshold float64 `yaml:"min_reliability_threshold"`
	PreferredDomain         string  `yaml:"preferred_domain"`

	// Search collaborator
	SearchAPIKey     string `yaml:"-"`
	SearchURL        string `yaml:"search_url"`
	SearchNumResults int    `yaml:"search_num_results"`
	SearchType       string `yaml:"search_type"`

	// Language model collaborator
	OpenAIAPIKey      string  `yaml:"-"`
	OpenAIBaseURL     string  `yaml:"openai_base_url"`
	Model             string  `yaml:"model"`
	Temperature       float64 `yaml:"temperature"`
	MaxTokens         int     `yaml:"max_tokens"`
	ArticleCharBudget int     `yaml:"article_char_budget"`

	// Article fetching
	FetchTimeoutSeconds int    `yaml:"fetch_timeout_seconds"`
	UserAgentString     string `yaml:"user_agent"`
	MirrorBaseURL       string `yaml:"mirror_base_url"`
	AllowPrivateHosts   bool   `yaml:"allow_private_hosts"`

	// HTTP surface
	AllowedOrigins     []string `yaml:"allowed_origins"`
	StaticDir          string   `yaml:"static_dir"`
	RateLimitPerMinute int      `yaml:"rate_limit_per_minute"`
	MaxBodyBytes       int64    `yaml:"max_body_bytes"`
	HealthCronSchedule string   `yaml:"health_cron_schedule"`
}

// DefaultConfig returns the configuration used when no file or environment overrides exist
func DefaultConfig() *Config {
	return &Config{
		Version:                 AppVersion,
		Port:                    DefaultPort,
		LogLevel:                "info",
		DatasetPath:             DefaultDatasetPath,
		MaxBiasThreshold:        DefaultMaxBiasThreshold,
		MinReliabilityThreshold: DefaultMinReliabilityThreshold,
		PreferredDomain:         DefaultPreferredDomain,
		SearchURL:               DefaultSearchURL,
		SearchNumResults:        DefaultSearchNumResults,
		SearchType:              DefaultSearchType,
		Model:                   DefaultModel,
		Temperature:             DefaultTemperature,
		MaxTokens:               DefaultMaxTokens,
		ArticleCharBudget:       DefaultArticleBudget,
		FetchTimeoutSeconds:     int(DefaultFetchTimeout / time.Second),
		UserAgentString:         DefaultUserAgent,
		MirrorBaseURL:           DefaultMirrorBaseURL,
		AllowedOrigins:          []string{"*"},
		StaticDir:               DefaultStaticDir,
		RateLimitPerMinute:      DefaultRequestsPerMinute,
		MaxBodyBytes:            MaxPayloadSize,
		HealthCronSchedule:      DefaultHealthSchedule,
	}
}

// LoadConfig builds the configuration from defaults, the YAML file at path (if it exists)
// and finally environment variables.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, NewConfigError(ErrConfigInvalid, fmt.Sprintf("failed to parse %s", path), err)
			}
		case os.IsNotExist(err):
			// defaults and environment only
		default:
			return nil, NewConfigError(ErrConfigInvalid, fmt.Sprintf("failed to read %s", path), err)
		}
	}

	applyEnvOverrides(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides loads configuration from environment variables
func applyEnvOverrides(cfg *Config) {
	cfg.Version = GetEnvString("FACTTRACE_VERSION", cfg.Version)
	cfg.Port = GetEnvInt("PORT", cfg.Port)
	cfg.LogPath = GetEnvString("LOG_PATH", cfg.LogPath)
	cfg.LogLevel = GetEnvString("LOG_LEVEL", cfg.LogLevel)

	cfg.DatasetPath = GetEnvString("RELIABILITY_DATASET", cfg.DatasetPath)
	cfg.MaxBiasThreshold = GetEnvFloat("MAX_BIAS_THRESHOLD", cfg.MaxBiasThreshold)
	cfg.MinReliabilityThreshold = GetEnvFloat("MIN_RELIABILITY_THRESHOLD", cfg.MinReliabilityThreshold)
	cfg.PreferredDomain = GetEnvString("PREFERRED_DOMAIN", cfg.PreferredDomain)

	cfg.SearchAPIKey = GetEnvString("EXA_API_KEY", cfg.SearchAPIKey)
	cfg.SearchURL = GetEnvString("SEARCH_API_URL", cfg.SearchURL)
	cfg.SearchNumResults = GetEnvInt("SEARCH_NUM_RESULTS", cfg.SearchNumResults)
	cfg.SearchType = GetEnvString("SEARCH_TYPE", cfg.SearchType)

	cfg.OpenAIAPIKey = GetEnvString("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIBaseURL = GetEnvString("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.Model = GetEnvString("OPENAI_MODEL", cfg.Model)
	cfg.Temperature = GetEnvFloat("OPENAI_TEMPERATURE", cfg.Temperature)
	cfg.MaxTokens = GetEnvInt("OPENAI_MAX_TOKENS", cfg.MaxTokens)
	cfg.ArticleCharBudget = GetEnvInt("ARTICLE_CHAR_BUDGET", cfg.ArticleCharBudget)

	cfg.FetchTimeoutSeconds = GetEnvInt("FETCH_TIMEOUT_SECONDS", cfg.FetchTimeoutSeconds)
	cfg.UserAgentString = GetEnvString("USER_AGENT", cfg.UserAgentString)
	cfg.MirrorBaseURL = GetEnvString("MIRROR_BASE_URL", cfg.MirrorBaseURL)
	cfg.AllowPrivateHosts = GetEnvBool("ALLOW_PRIVATE_HOSTS", cfg.AllowPrivateHosts)

	cfg.AllowedOrigins = GetEnvStringSlice("ALLOWED_ORIGINS", cfg.AllowedOrigins)
	cfg.StaticDir = GetEnvString("STATIC_DIR", cfg.StaticDir)
	cfg.RateLimitPerMinute = GetEnvInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute)
	cfg.MaxBodyBytes = GetEnvInt64("MAX_BODY_BYTES", cfg.MaxBodyBytes)
	cfg.HealthCronSchedule = GetEnvString("HEALTH_CRON_SCHEDULE", cfg.HealthCronSchedule)
}

// ValidateConfig validates the configuration. Missing API keys are not an error here:
// they only disable the endpoints that need them.
func ValidateConfig(cfg *Config) error {
	invalid := func(msg string) error {
		return NewConfigError(ErrConfigInvalid, msg, nil)
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return invalid(fmt.Sprintf("port %d is out of range", cfg.Port))
	}
	if cfg.MaxBiasThreshold < 0 {
		return invalid("max_bias_threshold must not be negative")
	}
	if cfg.SearchNumResults <= 0 {
		return invalid("search_num_results must be positive")
	}
	if cfg.MaxTokens <= 0 {
		return invalid("max_tokens must be positive")
	}
	if cfg.ArticleCharBudget <= 0 {
		return invalid("article_char_budget must be positive")
	}
	if cfg.FetchTimeoutSeconds <= 0 {
		return invalid("fetch_timeout_seconds must be positive")
	}
	if cfg.MaxBodyBytes <= 0 {
		return invalid("max_body_bytes must be positive")
	}
	if cfg.RateLimitPerMinute < 0 {
		return invalid("rate_limit_per_minute must not be negative")
	}
	return nil
}

// FetchTimeout returns the per-attempt fetch timeout
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}
