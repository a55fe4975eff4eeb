package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cybersafe-india/pagetrans"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultKeyPrefix namespaces every key the Redis cache writes.
const DefaultKeyPrefix = "pagetrans:"

// Redis is a Redis-backed translation cache.
//
// Each language is one hash at prefix+lang mapping source text to
// translation. The set at prefix+"langs" indexes the languages present.
type Redis struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
	timeout   time.Duration
	logger    zerolog.Logger
}

// RedisConfig holds configuration for the Redis cache.
type RedisConfig struct {
	URL       string // Redis connection URL (e.g., "redis://localhost:6379")
	TTL       int    // TTL in seconds applied per language hash (0 = no expiration)
	KeyPrefix string // Prefix for all keys (default: "pagetrans:")
}

// NewRedis creates a new Redis cache with the given configuration.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, &pagetrans.CacheError{Message: "invalid redis url", Cause: err}
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, &pagetrans.CacheError{Message: "redis unreachable", Cause: err}
	}

	return NewRedisFromClient(client, cfg.TTL, cfg.KeyPrefix), nil
}

// NewRedisFromClient creates a Redis cache from an existing client.
func NewRedisFromClient(client *redis.Client, ttlSeconds int, keyPrefix string) *Redis {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}

	ttl := time.Duration(ttlSeconds) * time.Second
	if ttlSeconds <= 0 {
		ttl = 0
	}

	return &Redis{
		client:    client,
		ttl:       ttl,
		keyPrefix: keyPrefix,
		timeout:   2 * time.Second,
		logger:    log.With().Str("sys", "cache").Str("backend", "redis").Logger(),
	}
}

func (c *Redis) langKey(lang string) string {
	return c.keyPrefix + lang
}

func (c *Redis) indexKey() string {
	return c.keyPrefix + "langs"
}

func (c *Redis) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

// Lookup returns the cached translation of text into lang. Redis errors are
// logged and reported as misses.
func (c *Redis) Lookup(text, lang string) (string, bool) {
	if passthrough(lang) {
		return text, true
	}

	ctx, cancel := c.ctx()
	defer cancel()

	val, err := c.client.HGet(ctx, c.langKey(lang), text).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("lang", lang).Msg("Redis lookup failed")
		return "", false
	}
	return val, true
}

// Store records a translation in the language hash and indexes the language.
func (c *Redis) Store(text, lang, translated string) error {
	if passthrough(lang) {
		return nil
	}

	ctx, cancel := c.ctx()
	defer cancel()

	key := c.langKey(lang)
	if err := c.client.HSet(ctx, key, text, translated).Err(); err != nil {
		return &pagetrans.CacheError{Message: "redis store failed", Cause: err}
	}
	if err := c.client.SAdd(ctx, c.indexKey(), lang).Err(); err != nil {
		return &pagetrans.CacheError{Message: "redis index failed", Cause: err}
	}
	if c.ttl > 0 {
		if err := c.client.Expire(ctx, key, c.ttl).Err(); err != nil {
			return &pagetrans.CacheError{Message: "redis expire failed", Cause: err}
		}
	}
	return nil
}

func (c *Redis) languages(ctx context.Context) ([]string, error) {
	langs, err := c.client.SMembers(ctx, c.indexKey()).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(langs)
	return langs, nil
}

// Clear deletes every language hash and the index.
func (c *Redis) Clear() error {
	ctx, cancel := c.ctx()
	defer cancel()

	langs, err := c.languages(ctx)
	if err != nil {
		return &pagetrans.CacheError{Message: "redis list languages failed", Cause: err}
	}

	keys := make([]string, 0, len(langs)+1)
	for _, lang := range langs {
		keys = append(keys, c.langKey(lang))
	}
	keys = append(keys, c.indexKey())

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return &pagetrans.CacheError{Message: "redis clear failed", Cause: err}
	}
	return nil
}

// Stats counts the indexed languages and their entries. Languages whose hash
// has expired are not counted.
func (c *Redis) Stats() (Stats, error) {
	ctx, cancel := c.ctx()
	defer cancel()

	langs, err := c.languages(ctx)
	if err != nil {
		return Stats{}, &pagetrans.CacheError{Message: "redis list languages failed", Cause: err}
	}

	stats := Stats{}
	for _, lang := range langs {
		n, err := c.client.HLen(ctx, c.langKey(lang)).Result()
		if err != nil {
			return Stats{}, &pagetrans.CacheError{Message: fmt.Sprintf("redis count %s failed", lang), Cause: err}
		}
		if n == 0 {
			continue
		}
		stats.Languages++
		stats.Entries += int(n)
	}
	return stats, nil
}

// Entries returns every cached translation, sorted by language then source.
func (c *Redis) Entries() ([]Entry, error) {
	ctx, cancel := c.ctx()
	defer cancel()

	langs, err := c.languages(ctx)
	if err != nil {
		return nil, &pagetrans.CacheError{Message: "redis list languages failed", Cause: err}
	}

	var out []Entry
	for _, lang := range langs {
		all, err := c.client.HGetAll(ctx, c.langKey(lang)).Result()
		if err != nil {
			return nil, &pagetrans.CacheError{Message: fmt.Sprintf("redis read %s failed", lang), Cause: err}
		}

		sources := make([]string, 0, len(all))
		for source := range all {
			sources = append(sources, source)
		}
		sort.Strings(sources)

		for _, source := range sources {
			out = append(out, Entry{Lang: lang, Source: source, Translated: all[source]})
		}
	}
	return out, nil
}

// Close closes the Redis connection.
func (c *Redis) Close() error {
	return c.client.Close()
}

// Ping tests the Redis connection.
func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

var (
	_ pagetrans.TranslationCache = (*Redis)(nil)
	_ Exportable                 = (*Redis)(nil)
)
