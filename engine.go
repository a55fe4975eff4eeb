package pagetrans

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Engine translates pages in place and restores them.
//
// Passes on the same page are serialised with "latest request wins": starting
// a new TranslatePage or RestoreOriginalLanguage cancels the in-flight pass,
// which then writes nothing and reports StatusSuperseded. Pages are used as
// map keys, so implementations must be comparable (typically pointers).
type Engine struct {
	client        *Client
	cache         TranslationCache
	logger        zerolog.Logger
	lookupWorkers int

	mu       sync.Mutex
	pages    map[Page]*pageSlot
	subs     map[int]chan Event
	nextSub  int
	handlers []func(Event)
}

// pageSlot tracks the latest pass on one page.
type pageSlot struct {
	gen    uint64
	cancel context.CancelFunc
	state  PassState

	// applyMu serialises writes so an older pass can never land after a newer one.
	applyMu sync.Mutex
}

// EngineOption is a functional option for configuring the Engine.
type EngineOption func(*Engine)

// WithCache sets the translation cache. Without one every pass fetches all texts.
func WithCache(cache TranslationCache) EngineOption {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithLookupConcurrency lets up to n cache lookups run at once. Worth it for
// remote caches; the default of 1 looks texts up one after another.
func WithLookupConcurrency(n int) EngineOption {
	return func(e *Engine) {
		e.lookupWorkers = n
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithEventHandler registers a callback invoked synchronously once per pass.
func WithEventHandler(fn func(Event)) EngineOption {
	return func(e *Engine) {
		e.handlers = append(e.handlers, fn)
	}
}

// NewEngine creates an Engine that sends cache misses through client.
func NewEngine(client *Client, opts ...EngineOption) *Engine {
	if client == nil {
		client = NewClient(nil)
	}

	e := &Engine{
		client:        client,
		logger:        log.With().Str("sys", "engine").Logger(),
		lookupWorkers: 1,
		pages:         make(map[Page]*pageSlot),
		subs:          make(map[int]chan Event),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// TranslatePage translates every eligible text node of page into lang.
//
// Provider failures never surface as errors: affected texts keep their
// original value and the result reports StatusDegraded. An error is returned
// only for a nil page or when writing to the page fails for a reason other
// than the node having been detached.
func (e *Engine) TranslatePage(ctx context.Context, page Page, lang string) (*Result, error) {
	if page == nil {
		return nil, ErrNilPage
	}

	lang = NormalizeLanguage(lang)
	if IsDefaultLanguage(lang) {
		return e.RestoreOriginalLanguage(page)
	}

	ctx, slot, gen, release := e.begin(ctx, page)
	defer release()

	result := &Result{Language: lang, Status: StatusOK}
	defer func() { e.publish(result) }()

	if li, ok := page.(LoadingIndicator); ok {
		li.ShowLoading()
		defer li.HideLoading()
	}

	start := time.Now()

	e.setState(slot, gen, StateExtracting)
	nodes := page.Extract()
	result.Count = len(nodes)

	if len(nodes) == 0 {
		e.logger.Debug().Str("lang", lang).Msg("No text nodes to translate")
		return result, nil
	}

	e.setState(slot, gen, StateResolvingCache)
	translations, misses := e.resolveCached(nodes, lang)
	var fresh []string // misses the provider translated, cached once the pass is known current
	result.Cached = len(translations)

	if len(misses) > 0 {
		e.setState(slot, gen, StateAwaitingRemote)

		batch := e.client.TranslateBatch(ctx, misses, lang, DefaultLanguage)
		result.Fetched = len(misses)
		result.TraceID = batch.TraceID
		if batch.Status != StatusOK {
			result.Status = batch.Status
		}

		for i, text := range misses {
			translations[text] = batch.Texts[i]
		}

		// A fallback batch holds untranslated text and must not be cached
		if batch.Status == StatusOK {
			fresh = misses
		}
	}

	slot.applyMu.Lock()
	defer slot.applyMu.Unlock()

	if !e.isCurrent(page, gen) {
		result.Status = StatusSuperseded
		e.logger.Debug().Str("lang", lang).Msg("Pass superseded before apply")
		return result, nil
	}

	if e.cache != nil {
		for _, text := range fresh {
			if err := e.cache.Store(text, lang, translations[text]); err != nil {
				e.logger.Warn().Err(err).Str("lang", lang).Msg("Failed to cache translation")
			}
		}
	}

	e.setState(slot, gen, StateApplying)
	for _, node := range nodes {
		if !page.Attached(node.Handle) {
			result.Skipped++
			continue
		}

		err := page.SetText(node.Handle, translations[node.OriginalText])
		if errors.Is(err, ErrDetached) {
			result.Skipped++
			continue
		}
		if err != nil {
			return result, &DocumentError{Message: "failed to write translation", Handle: node.Handle, Cause: err}
		}
	}

	if lm, ok := page.(LanguageMarker); ok {
		lm.SetLanguageAttrs(lang, GetDirection(lang))
	}

	e.logger.Info().
		Str("lang", lang).
		Str("status", string(result.Status)).
		Int("nodes", result.Count).
		Int("cached", result.Cached).
		Int("fetched", result.Fetched).
		Int("skipped", result.Skipped).
		Dur("elapsed", time.Since(start)).
		Msg("Translated page")

	return result, nil
}

// RestoreOriginalLanguage writes the original text back into every node the
// page has ever tracked. It never calls the provider.
func (e *Engine) RestoreOriginalLanguage(page Page) (*Result, error) {
	if page == nil {
		return nil, ErrNilPage
	}

	_, slot, gen, release := e.begin(context.Background(), page)
	defer release()

	result := &Result{Language: DefaultLanguage, Status: StatusRestored}
	defer func() { e.publish(result) }()

	slot.applyMu.Lock()
	defer slot.applyMu.Unlock()

	e.setState(slot, gen, StateRestoring)
	tracked := page.Tracked()
	result.Count = len(tracked)

	for _, node := range tracked {
		if !page.Attached(node.Handle) {
			result.Skipped++
			continue
		}

		err := page.SetText(node.Handle, node.OriginalText)
		if errors.Is(err, ErrDetached) {
			result.Skipped++
			continue
		}
		if err != nil {
			return result, &DocumentError{Message: "failed to restore original text", Handle: node.Handle, Cause: err}
		}
	}

	if lm, ok := page.(LanguageMarker); ok {
		lm.SetLanguageAttrs(DefaultLanguage, GetDirection(DefaultLanguage))
	}

	e.logger.Info().Int("nodes", result.Count).Int("skipped", result.Skipped).Msg("Restored original language")

	return result, nil
}

// resolveCached splits the distinct original texts into cached translations
// and misses, keeping first-seen order for the misses.
func (e *Engine) resolveCached(nodes []TextNode, lang string) (map[string]string, []string) {
	return lookupAll(e.cache, distinctTexts(nodes), lang, e.lookupWorkers)
}

// begin registers a new pass on page, cancelling the previous one.
func (e *Engine) begin(ctx context.Context, page Page) (context.Context, *pageSlot, uint64, func()) {
	passCtx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	slot, ok := e.pages[page]
	if !ok {
		slot = &pageSlot{state: StateIdle}
		e.pages[page] = slot
	}
	if slot.cancel != nil {
		slot.cancel()
	}
	slot.gen++
	gen := slot.gen
	slot.cancel = cancel
	e.mu.Unlock()

	release := func() {
		cancel()
		e.mu.Lock()
		if slot.gen == gen {
			slot.cancel = nil
			slot.state = StateIdle
		}
		e.mu.Unlock()
	}

	return passCtx, slot, gen, release
}

func (e *Engine) isCurrent(page Page, gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	slot, ok := e.pages[page]
	return ok && slot.gen == gen
}

func (e *Engine) setState(slot *pageSlot, gen uint64, state PassState) {
	e.mu.Lock()
	if slot.gen == gen {
		slot.state = state
	}
	e.mu.Unlock()
}

// State returns the orchestrator state of page.
func (e *Engine) State(page Page) PassState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if slot, ok := e.pages[page]; ok {
		return slot.state
	}
	return StateIdle
}

// Forget drops the engine's bookkeeping for page, cancelling any pass in flight.
func (e *Engine) Forget(page Page) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if slot, ok := e.pages[page]; ok {
		if slot.cancel != nil {
			slot.cancel()
		}
		// Bump the generation so a pass still holding the slot sees itself as stale
		slot.gen++
		delete(e.pages, page)
	}
}

// Subscribe returns a stream of completion events and a function that ends
// the subscription. Events are dropped for a subscriber whose buffer is full.
func (e *Engine) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch
	e.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.subs, id)
			e.mu.Unlock()
			close(ch)
		})
	}
}

func (e *Engine) publish(result *Result) {
	evt := Event{
		Language:        result.Language,
		TranslatedCount: result.Count,
		Status:          result.Status,
	}

	for _, fn := range e.handlers {
		fn(evt)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for id, ch := range e.subs {
		select {
		case ch <- evt:
		default:
			e.logger.Warn().Int("subscriber", id).Msg("Event subscriber full, dropping event")
		}
	}
}

// ClearCache drops every cached translation.
func (e *Engine) ClearCache() error {
	if e.cache == nil {
		return nil
	}
	if err := e.cache.Clear(); err != nil {
		return &CacheError{Message: "failed to clear cache", Cause: err}
	}
	e.logger.Info().Msg("Translation cache cleared")
	return nil
}

// CacheStats reports how many languages and entries are cached.
func (e *Engine) CacheStats() (CacheStats, error) {
	if e.cache == nil {
		return CacheStats{}, nil
	}
	stats, err := e.cache.Stats()
	if err != nil {
		return CacheStats{}, &CacheError{Message: "failed to read cache stats", Cause: err}
	}
	return stats, nil
}

// Client returns the engine's remote translation client.
func (e *Engine) Client() *Client {
	return e.client
}
