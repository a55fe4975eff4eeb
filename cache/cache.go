// Package cache provides translation caching implementations.
//
// Entries are keyed by target language and source text. English is never
// stored: a lookup for it returns the source text unchanged.
package cache

import "github.com/cybersafe-india/pagetrans"

// Stats is the shape reported by every backend.
type Stats = pagetrans.CacheStats

// Entry is one cached translation.
type Entry struct {
	Lang       string `json:"lang"`
	Source     string `json:"source"`
	Translated string `json:"translated"`
}

// Exportable is a cache that can enumerate its contents.
type Exportable interface {
	pagetrans.TranslationCache
	Entries() ([]Entry, error)
}

// passthrough reports whether lang needs no storage at all.
func passthrough(lang string) bool {
	return lang == "" || pagetrans.IsDefaultLanguage(lang)
}
