package config

import (
	"errors"
	"time"

	"github.com/cybersafe-india/pagetrans"
	"github.com/cybersafe-india/pagetrans/cache"
	"github.com/cybersafe-india/pagetrans/provider"
	"github.com/cybersafe-india/pagetrans/session"
	"github.com/rs/zerolog/log"
)

// Stack is the set of components a Config describes.
type Stack struct {
	Provider pagetrans.Provider // nil when translation is disabled
	Cache    cache.Exportable   // nil when caching is off
	Client   *pagetrans.Client
	Engine   *pagetrans.Engine

	closers []func() error
}

// Build wires provider, cache, client and engine. Extra engine options are
// applied after the cache options.
func (c *Config) Build(opts ...pagetrans.EngineOption) (*Stack, error) {
	p, err := c.BuildProvider()
	if err != nil {
		return nil, err
	}

	s := &Stack{Provider: p}

	store, closeCache, err := c.BuildCache()
	if err != nil {
		return nil, err
	}
	if closeCache != nil {
		s.closers = append(s.closers, closeCache)
	}

	s.Client = pagetrans.NewClient(p)

	engineOpts := make([]pagetrans.EngineOption, 0, len(opts)+2)
	if store != nil {
		s.Cache = store
		engineOpts = append(engineOpts,
			pagetrans.WithCache(store),
			pagetrans.WithLookupConcurrency(c.Cache.LookupConcurrency),
		)
	}
	engineOpts = append(engineOpts, opts...)
	s.Engine = pagetrans.NewEngine(s.Client, engineOpts...)

	log.Info().
		Str("provider", c.ActiveProvider()).
		Str("cache", c.Cache.Backend).
		Msg("Translation stack ready")

	return s, nil
}

// Close releases connections held by the stack.
func (s *Stack) Close() error {
	var errs []error
	for _, fn := range s.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BuildProvider returns the active provider wrapped with rate limiting and
// retries, or nil when no provider is usable.
func (c *Config) BuildProvider() (pagetrans.Provider, error) {
	var p pagetrans.Provider

	switch c.ActiveProvider() {
	case ProviderAzure:
		p = provider.NewAzureProvider(provider.AzureConfig{
			SubscriptionKey: c.Azure.Key,
			Endpoint:        c.Azure.Endpoint,
			Region:          c.Azure.Region,
			Timeout:         time.Duration(c.Azure.TimeoutSeconds) * time.Second,
			MaxBatchSize:    c.Azure.MaxBatchSize,
			Concurrency:     c.Azure.Concurrency,
		})
	case ProviderOpenAI:
		p = provider.NewOpenAIProvider(provider.OpenAIConfig{
			APIKey:      c.OpenAI.APIKey,
			Model:       c.OpenAI.Model,
			BaseURL:     c.OpenAI.BaseURL,
			Temperature: c.OpenAI.Temperature,
		})
	case ProviderStatic:
		static := provider.NewStaticProvider()
		if err := static.LoadDir(c.Static.CatalogDir); err != nil {
			return nil, &pagetrans.ConfigError{Field: "static.catalog_dir", Message: err.Error()}
		}
		// Catalog lookups are local; retries and throttling do not apply
		return static, nil
	default:
		log.Warn().Msg("No translation provider configured, pages stay in English")
		return nil, nil
	}

	if c.RateLimit.RequestsPerMinute > 0 {
		p = pagetrans.NewRateLimitedProvider(p, pagetrans.RateLimitConfig{
			RequestsPerMinute: c.RateLimit.RequestsPerMinute,
			BurstSize:         c.RateLimit.Burst,
		})
	}

	if c.Retry.MaxRetries > 0 {
		p = pagetrans.NewRetryableProvider(p, pagetrans.RetryConfig{
			MaxRetries: c.Retry.MaxRetries,
			BaseDelay:  time.Duration(c.Retry.BaseDelayMS) * time.Millisecond,
			MaxDelay:   time.Duration(c.Retry.MaxDelayMS) * time.Millisecond,
		})
	}

	return p, nil
}

// BuildCache returns the configured cache and, for Redis, a function closing
// its connection. Both are nil for the "none" backend.
func (c *Config) BuildCache() (cache.Exportable, func() error, error) {
	switch c.Cache.Backend {
	case CacheRedis:
		r, err := cache.NewRedis(cache.RedisConfig{
			URL:       c.Cache.RedisURL,
			TTL:       c.Cache.TTLSeconds,
			KeyPrefix: c.Cache.KeyPrefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	case CacheNone:
		return nil, nil, nil
	default:
		return cache.NewMemory(c.Cache.TTLSeconds), nil, nil
	}
}

// OpenStore returns the preference store: SQLite when a path is configured,
// memory otherwise. The returned function closes it.
func (c *Config) OpenStore() (session.Store, func() error, error) {
	if c.Session.StorePath == "" {
		return session.NewMemoryStore(), func() error { return nil }, nil
	}

	store, err := session.OpenSQLite(c.Session.StorePath)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

// SessionOptions returns the settle delays as session options.
func (c *Config) SessionOptions() []session.Option {
	return []session.Option{
		session.WithChangeDelay(time.Duration(c.Session.ChangeDelayMS) * time.Millisecond),
		session.WithNavigationDelay(time.Duration(c.Session.NavigationDelayMS) * time.Millisecond),
	}
}
