package pagetrans

import (
	"context"
	"errors"
	"html"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// BatchResult is the uniform outcome of one batch translation.
// Texts always has the same length and order as the input.
type BatchResult struct {
	Texts   []string
	Status  Status
	TraceID string
	Err     error // Provider failure behind a degraded status, for diagnostics
}

// Client sends batches to a Provider and turns every provider failure into a
// same-shape fallback of the original texts.
type Client struct {
	provider   Provider
	logger     zerolog.Logger
	policy     *bluemonday.Policy
	newTraceID func() string
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithClientLogger sets the logger used for provider failures.
func WithClientLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTraceIDFunc overrides how per-request correlation ids are generated.
func WithTraceIDFunc(fn func() string) ClientOption {
	return func(c *Client) {
		c.newTraceID = fn
	}
}

// NewClient creates a Client for provider. A nil provider yields a disabled
// client whose batches pass text through unchanged.
func NewClient(provider Provider, opts ...ClientOption) *Client {
	c := &Client{
		provider:   provider,
		logger:     log.With().Str("sys", "translator").Logger(),
		policy:     bluemonday.StrictPolicy(),
		newTraceID: func() string { return uuid.NewString() },
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Enabled reports whether the client has a provider to call.
func (c *Client) Enabled() bool {
	return c != nil && c.provider != nil
}

// TranslateBatch translates texts from sourceLang to targetLang in a single
// provider request. It never fails: on any provider error the input texts are
// returned with StatusDegraded.
func (c *Client) TranslateBatch(ctx context.Context, texts []string, targetLang, sourceLang string) BatchResult {
	if len(texts) == 0 {
		return BatchResult{Texts: []string{}, Status: StatusOK}
	}

	if sourceLang == "" {
		sourceLang = DefaultLanguage
	}

	if !c.Enabled() {
		return BatchResult{Texts: cloneTexts(texts), Status: StatusDisabled}
	}

	if BaseLanguage(targetLang) == BaseLanguage(sourceLang) {
		return BatchResult{Texts: cloneTexts(texts), Status: StatusOK}
	}

	traceID := c.newTraceID()
	start := time.Now()

	translated, err := c.provider.Translate(ctx, TranslateRequest{
		Texts:      texts,
		TargetLang: targetLang,
		SourceLang: sourceLang,
		TraceID:    traceID,
	})
	if err == nil && len(translated) != len(texts) {
		err = &CountMismatchError{Expected: len(texts), Got: len(translated)}
	}

	if err != nil {
		evt := c.logger.Error().
			Err(err).
			Str("trace_id", traceID).
			Str("target", targetLang).
			Int("texts", len(texts)).
			Dur("elapsed", time.Since(start))

		var providerErr *ProviderError
		if errors.As(err, &providerErr) && providerErr.StatusCode != 0 {
			evt = evt.Int("status_code", providerErr.StatusCode)
		}

		evt.Msg("Translation request failed, using original texts")

		return BatchResult{
			Texts:   cloneTexts(texts),
			Status:  StatusDegraded,
			TraceID: traceID,
			Err:     err,
		}
	}

	out := make([]string, len(translated))
	for i, s := range translated {
		out[i] = c.clean(s, texts[i])
	}

	c.logger.Debug().
		Str("trace_id", traceID).
		Str("target", targetLang).
		Int("texts", len(texts)).
		Dur("elapsed", time.Since(start)).
		Msg("Translated batch")

	return BatchResult{Texts: out, Status: StatusOK, TraceID: traceID}
}

// DetectLanguage asks the provider for the language of text.
// It returns false when detection is unavailable or fails.
func (c *Client) DetectLanguage(ctx context.Context, text string) (Detection, bool) {
	if !c.Enabled() {
		return Detection{}, false
	}

	d, ok := c.provider.(Detector)
	if !ok {
		return Detection{}, false
	}

	traceID := c.newTraceID()
	detection, err := d.Detect(ctx, text, traceID)
	if err != nil {
		c.logger.Warn().Err(err).Str("trace_id", traceID).Msg("Language detection failed")
		return Detection{}, false
	}

	return detection, detection.Language != ""
}

// SupportedLanguages returns the provider's language catalog.
// It returns false when the catalog is unavailable.
func (c *Client) SupportedLanguages(ctx context.Context) ([]string, bool) {
	if !c.Enabled() {
		return nil, false
	}

	l, ok := c.provider.(LanguageLister)
	if !ok {
		return nil, false
	}

	codes, err := l.Languages(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Fetching supported languages failed")
		return nil, false
	}

	return codes, true
}

// TestConnection translates a probe word to Hindi and reports whether the
// provider actually changed it.
func (c *Client) TestConnection(ctx context.Context) bool {
	if !c.Enabled() {
		c.logger.Warn().Msg("Connection test skipped: no provider configured")
		return false
	}

	res := c.TranslateBatch(ctx, []string{"Hello"}, "hi", DefaultLanguage)
	ok := res.Status == StatusOK && res.Texts[0] != "Hello"

	c.logger.Info().
		Bool("ok", ok).
		Str("trace_id", res.TraceID).
		Str("result", res.Texts[0]).
		Msg("Connection test finished")

	return ok
}

// clean strips any markup the provider put into a translation. An empty
// result for a non-empty source falls back to the source.
func (c *Client) clean(translated, source string) string {
	text := html.UnescapeString(c.policy.Sanitize(translated))
	if text == "" && source != "" {
		c.logger.Warn().Str("source", source).Msg("Provider returned empty translation, keeping source")
		return source
	}
	return text
}

func cloneTexts(texts []string) []string {
	out := make([]string, len(texts))
	copy(out, texts)
	return out
}
