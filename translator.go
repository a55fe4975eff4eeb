package pagetrans

import "context"

// Provider is the interface for remote translation backends.
// Implementations must return exactly one translation per input text, in input order.
type Provider interface {
	Translate(ctx context.Context, req TranslateRequest) ([]string, error)
}

// Detector is implemented by providers that can detect the language of a text.
type Detector interface {
	Detect(ctx context.Context, text string, traceID string) (Detection, error)
}

// LanguageLister is implemented by providers that publish their language catalog.
type LanguageLister interface {
	Languages(ctx context.Context) ([]string, error)
}

// TranslationCache is the interface for per-language translation caching.
type TranslationCache interface {
	// Lookup returns the cached translation of text in lang.
	// Lookups in the default language return text unchanged.
	Lookup(text, lang string) (string, bool)

	// Store records a translation; the last write for a key wins.
	Store(text, lang, translated string) error

	// Clear drops all entries for all languages.
	Clear() error

	// Stats reports the number of languages and entries held.
	Stats() (CacheStats, error)
}

// CacheStats holds cache sizes for observability.
type CacheStats struct {
	Languages int `json:"languages"`
	Entries   int `json:"entries"`
}

// Page is a live document whose text nodes can be extracted and rewritten.
type Page interface {
	// Extract returns the currently eligible text nodes in document order.
	// Nodes seen before keep the original text captured on first sight.
	Extract() []TextNode

	// Tracked returns every node ever captured, attached or not.
	Tracked() []TextNode

	// Attached reports whether the node is still part of the document.
	Attached(h NodeHandle) bool

	// SetText replaces the node's text, keeping its surrounding whitespace.
	SetText(h NodeHandle, text string) error
}

// LoadingIndicator is implemented by pages that can show a transient
// "translating" affordance while a pass runs.
type LoadingIndicator interface {
	ShowLoading()
	HideLoading()
}

// LanguageMarker is implemented by pages that can record their current
// language and text direction (the <html lang dir> attributes).
type LanguageMarker interface {
	SetLanguageAttrs(lang, dir string)
}
