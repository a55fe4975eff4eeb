// Package session tracks the visitor's chosen language for one page and
// keeps the page translated as the language changes and the route moves.
package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/cybersafe-india/pagetrans"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultChangeDelay is the settle time between a language change and its pass.
	DefaultChangeDelay = 100 * time.Millisecond
	// DefaultNavigationDelay lets new route content load before it is translated.
	DefaultNavigationDelay = 500 * time.Millisecond
)

// ErrClosed is returned by operations on a closed State.
var ErrClosed = errors.New("session: closed")

// Translator is the part of *pagetrans.Engine a State drives.
type Translator interface {
	TranslatePage(ctx context.Context, page pagetrans.Page, lang string) (*pagetrans.Result, error)
	RestoreOriginalLanguage(page pagetrans.Page) (*pagetrans.Result, error)
}

// Change is delivered to OnChange listeners after a language change has been applied.
type Change struct {
	Language string
	Previous string
}

// State is the current language of one page.
type State struct {
	engine Translator
	page   pagetrans.Page
	store  Store
	logger zerolog.Logger

	changeDelay time.Duration
	navDelay    time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	current   string
	path      string
	gen       uint64
	navTimer  *time.Timer
	listeners []func(Change)
	closed    bool
}

// Option configures a State.
type Option func(*State)

// WithStore sets where the language preference is persisted.
func WithStore(store Store) Option {
	return func(s *State) { s.store = store }
}

// WithChangeDelay overrides DefaultChangeDelay.
func WithChangeDelay(d time.Duration) Option {
	return func(s *State) { s.changeDelay = d }
}

// WithNavigationDelay overrides DefaultNavigationDelay.
func WithNavigationDelay(d time.Duration) Option {
	return func(s *State) { s.navDelay = d }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *State) { s.logger = logger }
}

// New creates a State for page, starting in English with an in-memory store.
func New(engine Translator, page pagetrans.Page, opts ...Option) *State {
	ctx, cancel := context.WithCancel(context.Background())

	s := &State{
		engine:      engine,
		page:        page,
		store:       NewMemoryStore(),
		logger:      log.With().Str("sys", "session").Logger(),
		changeDelay: DefaultChangeDelay,
		navDelay:    DefaultNavigationDelay,
		ctx:         ctx,
		cancel:      cancel,
		current:     pagetrans.DefaultLanguage,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Current returns the active language code.
func (s *State) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Path returns the last location passed to Navigate.
func (s *State) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// OnChange registers fn to run after every applied language change.
func (s *State) OnChange(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Load restores the persisted language without translating the page.
func (s *State) Load(ctx context.Context) (string, error) {
	saved, ok, err := s.store.Get(ctx, PreferenceKey)
	if err != nil {
		return s.Current(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ok && saved != "" {
		s.current = pagetrans.NormalizeLanguage(saved)
		s.logger.Debug().Str("lang", s.current).Msg("Restored saved language")
	}
	return s.current, nil
}

// SetLanguage switches the page to lang. Choosing the current language is a
// no-op and returns a nil result. Otherwise the choice is persisted, the
// change settle delay elapses, the page is translated (or restored for
// English) and listeners are notified. A newer SetLanguage arriving during
// the delay supersedes this one, which then returns StatusSuperseded without
// touching the page.
func (s *State) SetLanguage(ctx context.Context, lang string) (*pagetrans.Result, error) {
	lang = pagetrans.NormalizeLanguage(lang)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if lang == s.current {
		s.mu.Unlock()
		return nil, nil
	}
	previous := s.current
	s.current = lang
	s.gen++
	gen := s.gen
	s.stopNavLocked()
	s.mu.Unlock()

	if err := s.store.Set(ctx, PreferenceKey, lang); err != nil {
		s.logger.Warn().Err(err).Str("lang", lang).Msg("Failed to persist language")
	}

	if err := s.sleep(ctx, s.changeDelay); err != nil {
		return nil, err
	}

	s.mu.Lock()
	stale := gen != s.gen
	s.mu.Unlock()
	if stale {
		return &pagetrans.Result{Language: lang, Status: pagetrans.StatusSuperseded}, nil
	}

	var (
		result *pagetrans.Result
		err    error
	)
	if pagetrans.IsDefaultLanguage(lang) {
		result, err = s.engine.RestoreOriginalLanguage(s.page)
	} else {
		result, err = s.engine.TranslatePage(ctx, s.page, lang)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("lang", lang).Msg("Failed to change language")
		return result, err
	}

	s.notify(Change{Language: lang, Previous: previous})

	s.logger.Info().Str("lang", lang).Str("previous", previous).Msg("Language changed")

	return result, nil
}

// Navigate records a route change. Unless the page is in English, a
// re-translation is scheduled after the navigation delay so content that
// arrived with the new route is translated too. A later Navigate or
// SetLanguage cancels a pending one.
func (s *State) Navigate(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.path = path
	s.stopNavLocked()

	lang := s.current
	if pagetrans.IsDefaultLanguage(lang) {
		return
	}

	s.navTimer = time.AfterFunc(s.navDelay, func() {
		s.mu.Lock()
		if s.closed || s.current != lang {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		result, err := s.engine.TranslatePage(s.ctx, s.page, lang)
		if err != nil {
			s.logger.Error().Err(err).Str("path", path).Msg("Auto-translation after route change failed")
			return
		}
		s.logger.Debug().
			Str("path", path).
			Str("lang", lang).
			Int("nodes", result.Count).
			Msg("Translated new route content")
	})
}

// Close cancels any pending navigation pass. The State cannot be used afterwards.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.stopNavLocked()
	s.cancel()
	return nil
}

func (s *State) stopNavLocked() {
	if s.navTimer != nil {
		s.navTimer.Stop()
		s.navTimer = nil
	}
}

func (s *State) notify(c Change) {
	s.mu.Lock()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(c)
	}
}

func (s *State) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return ErrClosed
	}
}
