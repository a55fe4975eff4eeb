package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cybersafe-india/pagetrans"
	"github.com/cybersafe-india/pagetrans/cache"
	"github.com/cybersafe-india/pagetrans/provider"
	"github.com/cybersafe-india/pagetrans/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvAzureKey, EnvAzureEndpoint, EnvAzureRegion, EnvOpenAIKey,
		EnvRedisURL, EnvAddr, EnvLogLevel, EnvLogFormat,
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ProviderAuto, cfg.Provider)
	assert.Equal(t, "https://api.cognitive.microsofttranslator.com", cfg.Azure.Endpoint)
	assert.Equal(t, "global", cfg.Azure.Region)
	assert.Equal(t, 30, cfg.Azure.TimeoutSeconds)
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, 1, cfg.Cache.LookupConcurrency)
	assert.Equal(t, 100, cfg.Session.ChangeDelayMS)
	assert.Equal(t, 500, cfg.Session.NavigationDelayMS)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 2, cfg.Retry.MaxRetries)

	// No key anywhere: translation is off, not an error
	assert.False(t, cfg.TranslationEnabled())
	assert.Equal(t, ProviderNone, cfg.ActiveProvider())
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)

	path := writeFile(t, "pagetrans.yaml", `
provider: azure
azure:
  key: file-key
  region: centralindia
  max_batch_size: 500
cache:
  backend: none
session:
  store_path: /tmp/prefs.db
  navigation_delay_ms: 800
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderAzure, cfg.ActiveProvider())
	assert.Equal(t, "file-key", cfg.Azure.Key)
	assert.Equal(t, "centralindia", cfg.Azure.Region)
	assert.Equal(t, 500, cfg.Azure.MaxBatchSize)
	assert.Equal(t, CacheNone, cfg.Cache.Backend)
	assert.Equal(t, "/tmp/prefs.db", cfg.Session.StorePath)
	assert.Equal(t, 800, cfg.Session.NavigationDelayMS)
	assert.Equal(t, 100, cfg.Session.ChangeDelayMS)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_TOML(t *testing.T) {
	clearEnv(t)

	path := writeFile(t, "pagetrans.toml", `
provider = "openai"

[openai]
api_key = "sk-test"
model = "gpt-4o"

[cache]
backend = "memory"
ttl_seconds = 3600

[rate_limit]
requests_per_minute = 120
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.ActiveProvider())
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, 3600, cfg.Cache.TTLSeconds)
	assert.Equal(t, 120, cfg.RateLimit.RequestsPerMinute)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAzureKey, "env-key")
	t.Setenv(EnvAzureEndpoint, "https://example.test")
	t.Setenv(EnvLogLevel, "warn")

	path := writeFile(t, "pagetrans.yml", `
azure:
  key: file-key
  endpoint: https://file.test
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Azure.Key)
	assert.Equal(t, "https://example.test", cfg.Azure.Endpoint)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, ProviderAzure, cfg.ActiveProvider())
}

func TestLoad_RedisFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
	assert.Equal(t, 8, cfg.Cache.LookupConcurrency)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	var cfgErr *pagetrans.ConfigError

	_, err = Load(writeFile(t, "pagetrans.json", `{}`))
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Message, "unsupported")

	_, err = Load(writeFile(t, "bad.yaml", "provider: [unclosed"))
	require.True(t, errors.As(err, &cfgErr))

	_, err = Load(writeFile(t, "bad.toml", "provider = "))
	require.True(t, errors.As(err, &cfgErr))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unknown provider", func(c *Config) { c.Provider = "deepl" }, "provider"},
		{"static without dir", func(c *Config) { c.Provider = ProviderStatic }, "static.catalog_dir"},
		{"batch too large", func(c *Config) { c.Azure.MaxBatchSize = 5000 }, "azure.max_batch_size"},
		{"negative retries", func(c *Config) { c.Retry.MaxRetries = -1 }, "retry.max_retries"},
		{"negative rate", func(c *Config) { c.RateLimit.RequestsPerMinute = -5 }, "rate_limit"},
		{"redis without url", func(c *Config) { c.Cache.Backend = CacheRedis }, "cache.redis_url"},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "memcached" }, "cache.backend"},
		{"negative ttl", func(c *Config) { c.Cache.TTLSeconds = -1 }, "cache.ttl_seconds"},
		{"negative lookups", func(c *Config) { c.Cache.LookupConcurrency = -2 }, "cache.lookup_concurrency"},
		{"negative delay", func(c *Config) { c.Session.ChangeDelayMS = -1 }, "session"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			var cfgErr *pagetrans.ConfigError
			require.True(t, errors.As(cfg.Validate(), &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestActiveProvider(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		expected string
	}{
		{"auto prefers azure", Config{Provider: ProviderAuto, Azure: AzureConfig{Key: "k"}, OpenAI: OpenAIConfig{APIKey: "o"}}, ProviderAzure},
		{"auto falls back to openai", Config{Provider: ProviderAuto, OpenAI: OpenAIConfig{APIKey: "o"}}, ProviderOpenAI},
		{"auto falls back to static", Config{Provider: ProviderAuto, Static: StaticConfig{CatalogDir: "po"}}, ProviderStatic},
		{"auto with nothing", Config{Provider: ProviderAuto}, ProviderNone},
		{"azure without key", Config{Provider: ProviderAzure, OpenAI: OpenAIConfig{APIKey: "o"}}, ProviderNone},
		{"explicit none", Config{Provider: ProviderNone, Azure: AzureConfig{Key: "k"}}, ProviderNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.cfg.ActiveProvider())
		})
	}
}

func TestBuildProvider(t *testing.T) {
	cfg := Default()
	p, err := cfg.BuildProvider()
	require.NoError(t, err)
	assert.Nil(t, p)

	cfg.Azure.Key = "key"
	p, err = cfg.BuildProvider()
	require.NoError(t, err)
	assert.IsType(t, &pagetrans.RetryableProvider{}, p)

	cfg.Retry.MaxRetries = 0
	cfg.RateLimit.RequestsPerMinute = 60
	p, err = cfg.BuildProvider()
	require.NoError(t, err)
	assert.IsType(t, &pagetrans.RateLimitedProvider{}, p)

	cfg.RateLimit.RequestsPerMinute = 0
	p, err = cfg.BuildProvider()
	require.NoError(t, err)
	assert.IsType(t, &provider.AzureProvider{}, p)
}

func TestBuildProvider_Static(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hi.po"), []byte(`
msgid ""
msgstr ""
"Content-Type: text/plain; charset=UTF-8\n"

msgid "Hello"
msgstr "नमस्ते"
`), 0o600))

	cfg := Default()
	cfg.Provider = ProviderStatic
	cfg.Static.CatalogDir = dir

	p, err := cfg.BuildProvider()
	require.NoError(t, err)
	require.IsType(t, &provider.StaticProvider{}, p)

	cfg.Static.CatalogDir = filepath.Join(dir, "missing")
	_, err = cfg.BuildProvider()
	var cfgErr *pagetrans.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestBuild(t *testing.T) {
	cfg := Default()
	cfg.Cache.TTLSeconds = 60

	stack, err := cfg.Build()
	require.NoError(t, err)
	defer stack.Close()

	assert.Nil(t, stack.Provider)
	assert.False(t, stack.Client.Enabled())
	assert.IsType(t, &cache.Memory{}, stack.Cache)
	require.NotNil(t, stack.Engine)

	cfg.Cache.Backend = CacheNone
	stack, err = cfg.Build()
	require.NoError(t, err)
	assert.Nil(t, stack.Cache)
	assert.NoError(t, stack.Close())
}

func TestBuild_RedisUnreachable(t *testing.T) {
	cfg := Default()
	cfg.Cache.Backend = CacheRedis
	cfg.Cache.RedisURL = "not a url"

	_, err := cfg.Build()
	var cacheErr *pagetrans.CacheError
	assert.True(t, errors.As(err, &cacheErr))
}

func TestOpenStore(t *testing.T) {
	cfg := Default()

	store, closeFn, err := cfg.OpenStore()
	require.NoError(t, err)
	assert.IsType(t, &session.MemoryStore{}, store)
	assert.NoError(t, closeFn())

	cfg.Session.StorePath = filepath.Join(t.TempDir(), "prefs.db")
	store, closeFn, err = cfg.OpenStore()
	require.NoError(t, err)
	assert.IsType(t, &session.SQLiteStore{}, store)
	assert.NoError(t, closeFn())

	assert.Len(t, cfg.SessionOptions(), 2)
}
