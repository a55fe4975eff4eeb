// Package config loads pagetrans settings from YAML or TOML files and the
// environment, and builds the engine stack they describe.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cybersafe-india/pagetrans"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAuto   = "auto"
	ProviderAzure  = "azure"
	ProviderOpenAI = "openai"
	ProviderStatic = "static"
	ProviderNone   = "none"
)

// Cache backends accepted in CacheConfig.Backend.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Environment variables read by Load. They override file values.
const (
	EnvAzureKey      = "AZURE_TRANSLATOR_KEY"
	EnvAzureEndpoint = "AZURE_TRANSLATOR_ENDPOINT"
	EnvAzureRegion   = "AZURE_TRANSLATOR_REGION"
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvRedisURL      = "PAGETRANS_REDIS_URL"
	EnvAddr          = "PAGETRANS_ADDR"
	EnvLogLevel      = "PAGETRANS_LOG_LEVEL"
	EnvLogFormat     = "PAGETRANS_LOG_FORMAT"
)

// Config is the top-level pagetrans configuration.
type Config struct {
	Provider  string          `yaml:"provider" toml:"provider"`
	Azure     AzureConfig     `yaml:"azure" toml:"azure"`
	OpenAI    OpenAIConfig    `yaml:"openai" toml:"openai"`
	Static    StaticConfig    `yaml:"static" toml:"static"`
	Retry     RetryConfig     `yaml:"retry" toml:"retry"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
	Cache     CacheConfig     `yaml:"cache" toml:"cache"`
	Session   SessionConfig   `yaml:"session" toml:"session"`
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Log       LogConfig       `yaml:"log" toml:"log"`
}

// AzureConfig holds Azure Translator credentials and batching limits.
type AzureConfig struct {
	Key            string `yaml:"key" toml:"key"`
	Endpoint       string `yaml:"endpoint" toml:"endpoint"`
	Region         string `yaml:"region" toml:"region"`
	TimeoutSeconds int    `yaml:"timeout_seconds" toml:"timeout_seconds"`
	MaxBatchSize   int    `yaml:"max_batch_size" toml:"max_batch_size"`
	Concurrency    int    `yaml:"concurrency" toml:"concurrency"`
}

// OpenAIConfig holds chat-completion backend settings.
type OpenAIConfig struct {
	APIKey      string  `yaml:"api_key" toml:"api_key"`
	Model       string  `yaml:"model" toml:"model"`
	BaseURL     string  `yaml:"base_url" toml:"base_url"`
	Temperature float32 `yaml:"temperature" toml:"temperature"`
}

// StaticConfig points at a directory of <lang>.po catalogs.
type StaticConfig struct {
	CatalogDir string `yaml:"catalog_dir" toml:"catalog_dir"`
}

// RetryConfig controls retries of retryable provider failures.
type RetryConfig struct {
	MaxRetries  int `yaml:"max_retries" toml:"max_retries"`
	BaseDelayMS int `yaml:"base_delay_ms" toml:"base_delay_ms"`
	MaxDelayMS  int `yaml:"max_delay_ms" toml:"max_delay_ms"`
}

// RateLimitConfig throttles provider requests. Zero disables throttling.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" toml:"requests_per_minute"`
	Burst             int `yaml:"burst" toml:"burst"`
}

// CacheConfig selects the translation cache.
type CacheConfig struct {
	Backend    string `yaml:"backend" toml:"backend"`
	TTLSeconds int    `yaml:"ttl_seconds" toml:"ttl_seconds"`
	RedisURL   string `yaml:"redis_url" toml:"redis_url"`
	KeyPrefix  string `yaml:"key_prefix" toml:"key_prefix"`

	// Concurrent lookups per pass; defaults to 8 for Redis, 1 otherwise
	LookupConcurrency int `yaml:"lookup_concurrency" toml:"lookup_concurrency"`
}

// SessionConfig controls language preference persistence and settle delays.
type SessionConfig struct {
	StorePath         string `yaml:"store_path" toml:"store_path"` // empty keeps preferences in memory
	ChangeDelayMS     int    `yaml:"change_delay_ms" toml:"change_delay_ms"`
	NavigationDelayMS int    `yaml:"navigation_delay_ms" toml:"navigation_delay_ms"`
}

// ServerConfig controls the HTTP service.
type ServerConfig struct {
	Addr                string `yaml:"addr" toml:"addr"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds" toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds" toml:"write_timeout_seconds"`
	MaxBodyBytes        int64  `yaml:"max_body_bytes" toml:"max_body_bytes"`
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug | info | warn | error
	Format string `yaml:"format" toml:"format"` // console | json
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the file at path (YAML for .yaml/.yml, TOML for .toml), applies
// environment overrides and fills in defaults. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv(os.Getenv)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 - operator-supplied config path
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return &pagetrans.ConfigError{Field: path, Message: "invalid YAML: " + err.Error()}
		}
	case ".toml":
		if err := toml.Unmarshal(data, c); err != nil {
			return &pagetrans.ConfigError{Field: path, Message: "invalid TOML: " + err.Error()}
		}
	default:
		return &pagetrans.ConfigError{Field: path, Message: fmt.Sprintf("unsupported config format %q", ext)}
	}

	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	set(&c.Azure.Key, EnvAzureKey)
	set(&c.Azure.Endpoint, EnvAzureEndpoint)
	set(&c.Azure.Region, EnvAzureRegion)
	set(&c.OpenAI.APIKey, EnvOpenAIKey)
	set(&c.Cache.RedisURL, EnvRedisURL)
	set(&c.Server.Addr, EnvAddr)
	set(&c.Log.Level, EnvLogLevel)
	set(&c.Log.Format, EnvLogFormat)

	// A Redis URL in the environment selects Redis unless the file chose otherwise
	if getenv(EnvRedisURL) != "" && c.Cache.Backend == "" {
		c.Cache.Backend = CacheRedis
	}
}

func (c *Config) applyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderAuto
	}
	if c.Azure.Endpoint == "" {
		c.Azure.Endpoint = "https://api.cognitive.microsofttranslator.com"
	}
	if c.Azure.Region == "" {
		c.Azure.Region = "global"
	}
	if c.Azure.TimeoutSeconds == 0 {
		c.Azure.TimeoutSeconds = 30
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}

	if c.Retry.MaxRetries == 0 && c.Retry.BaseDelayMS == 0 && c.Retry.MaxDelayMS == 0 {
		def := pagetrans.DefaultRetryConfig()
		c.Retry.MaxRetries = def.MaxRetries
		c.Retry.BaseDelayMS = int(def.BaseDelay.Milliseconds())
		c.Retry.MaxDelayMS = int(def.MaxDelay.Milliseconds())
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheMemory
	}
	if c.Cache.LookupConcurrency == 0 {
		c.Cache.LookupConcurrency = 1
		if c.Cache.Backend == CacheRedis {
			c.Cache.LookupConcurrency = 8
		}
	}

	if c.Session.ChangeDelayMS == 0 {
		c.Session.ChangeDelayMS = 100
	}
	if c.Session.NavigationDelayMS == 0 {
		c.Session.NavigationDelayMS = 500
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 60
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 5 << 20
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate reports the first malformed value as a *pagetrans.ConfigError.
// Missing credentials are not an error: translation is simply disabled.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderAuto, ProviderAzure, ProviderOpenAI, ProviderStatic, ProviderNone:
	default:
		return &pagetrans.ConfigError{Field: "provider", Message: fmt.Sprintf("unknown provider %q", c.Provider)}
	}

	if c.Provider == ProviderStatic && c.Static.CatalogDir == "" {
		return &pagetrans.ConfigError{Field: "static.catalog_dir", Message: "required for the static provider"}
	}

	if c.Azure.TimeoutSeconds < 0 {
		return &pagetrans.ConfigError{Field: "azure.timeout_seconds", Message: "must not be negative"}
	}
	if c.Azure.MaxBatchSize < 0 || c.Azure.MaxBatchSize > 1000 {
		return &pagetrans.ConfigError{Field: "azure.max_batch_size", Message: "must be between 0 and 1000"}
	}
	if c.Azure.Concurrency < 0 {
		return &pagetrans.ConfigError{Field: "azure.concurrency", Message: "must not be negative"}
	}

	if c.Retry.MaxRetries < 0 {
		return &pagetrans.ConfigError{Field: "retry.max_retries", Message: "must not be negative"}
	}
	if c.RateLimit.RequestsPerMinute < 0 || c.RateLimit.Burst < 0 {
		return &pagetrans.ConfigError{Field: "rate_limit", Message: "must not be negative"}
	}

	switch c.Cache.Backend {
	case CacheMemory, CacheNone:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return &pagetrans.ConfigError{Field: "cache.redis_url", Message: "required for the redis backend"}
		}
	default:
		return &pagetrans.ConfigError{Field: "cache.backend", Message: fmt.Sprintf("unknown backend %q", c.Cache.Backend)}
	}
	if c.Cache.TTLSeconds < 0 {
		return &pagetrans.ConfigError{Field: "cache.ttl_seconds", Message: "must not be negative"}
	}
	if c.Cache.LookupConcurrency < 0 {
		return &pagetrans.ConfigError{Field: "cache.lookup_concurrency", Message: "must not be negative"}
	}

	if c.Session.ChangeDelayMS < 0 || c.Session.NavigationDelayMS < 0 {
		return &pagetrans.ConfigError{Field: "session", Message: "delays must not be negative"}
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return &pagetrans.ConfigError{Field: "log.level", Message: strconv.Quote(c.Log.Level) + " is not a log level"}
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return &pagetrans.ConfigError{Field: "log.format", Message: fmt.Sprintf("unknown format %q", c.Log.Format)}
	}

	return nil
}

// ActiveProvider resolves "auto" to the backend that will actually serve
// translations: Azure when it has a key, then OpenAI, then static catalogs.
// It returns ProviderNone when nothing is usable, in which case the site
// stays in English.
func (c *Config) ActiveProvider() string {
	switch c.Provider {
	case ProviderAzure:
		if c.Azure.Key != "" {
			return ProviderAzure
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey != "" {
			return ProviderOpenAI
		}
	case ProviderStatic:
		return ProviderStatic
	case ProviderAuto:
		switch {
		case c.Azure.Key != "":
			return ProviderAzure
		case c.OpenAI.APIKey != "":
			return ProviderOpenAI
		case c.Static.CatalogDir != "":
			return ProviderStatic
		}
	}
	return ProviderNone
}

// TranslationEnabled reports whether a provider can be built.
func (c *Config) TranslationEnabled() bool {
	return c.ActiveProvider() != ProviderNone
}
