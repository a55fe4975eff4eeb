package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/cybersafe-india/pagetrans"
)

// cacheEntry holds a cached value with its timestamp.
type cacheEntry struct {
	value     string
	timestamp time.Time
}

// Memory is a thread-safe in-memory cache organised as
// language -> source text -> translation, with optional TTL.
type Memory struct {
	langs map[string]map[string]cacheEntry
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
}

// NewMemory creates a new in-memory cache with the specified TTL.
// If ttlSeconds is 0 or negative, entries never expire.
func NewMemory(ttlSeconds int) *Memory {
	ttl := time.Duration(ttlSeconds) * time.Second
	if ttlSeconds <= 0 {
		ttl = 0 // No expiration
	}
	return &Memory{
		langs: make(map[string]map[string]cacheEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Lookup returns the cached translation of text into lang.
func (c *Memory) Lookup(text, lang string) (string, bool) {
	if passthrough(lang) {
		return text, true
	}

	c.mu.RLock()
	entry, ok := c.langs[lang][text]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}

	if c.expired(entry) {
		c.mu.Lock()
		if cur, ok := c.langs[lang][text]; ok && c.expired(cur) {
			delete(c.langs[lang], text)
		}
		c.mu.Unlock()
		return "", false
	}

	return entry.value, true
}

// Store records a translation. Later stores for the same key win.
func (c *Memory) Store(text, lang, translated string) error {
	if passthrough(lang) {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	bucket, ok := c.langs[lang]
	if !ok {
		bucket = make(map[string]cacheEntry)
		c.langs[lang] = bucket
	}
	bucket[text] = cacheEntry{value: translated, timestamp: c.now()}
	return nil
}

func (c *Memory) expired(entry cacheEntry) bool {
	return c.ttl > 0 && c.now().Sub(entry.timestamp) > c.ttl
}

// Len returns the number of entries in the cache (including expired ones).
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, bucket := range c.langs {
		n += len(bucket)
	}
	return n
}

// Clear removes all entries from the cache.
func (c *Memory) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.langs = make(map[string]map[string]cacheEntry)
	return nil
}

// Stats counts the languages and entries currently cached.
func (c *Memory) Stats() (Stats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{}
	for _, bucket := range c.langs {
		if len(bucket) == 0 {
			continue
		}
		stats.Languages++
		stats.Entries += len(bucket)
	}
	return stats, nil
}

// Entries returns all non-expired entries, sorted by language then source.
func (c *Memory) Entries() ([]Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Entry
	for lang, bucket := range c.langs {
		for source, entry := range bucket {
			// Skip expired entries
			if c.expired(entry) {
				continue
			}
			out = append(out, Entry{Lang: lang, Source: source, Translated: entry.value})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Lang != out[j].Lang {
			return out[i].Lang < out[j].Lang
		}
		return out[i].Source < out[j].Source
	})

	return out, nil
}

var (
	_ pagetrans.TranslationCache = (*Memory)(nil)
	_ Exportable                 = (*Memory)(nil)
)
