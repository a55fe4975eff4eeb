package pagetrans

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter controls the rate of provider requests using a token bucket.
type RateLimiter struct {
	limiter *rate.Limiter
}

// RateLimitConfig configures the rate limiter.
type RateLimitConfig struct {
	RequestsPerMinute int // Maximum requests per minute
	BurstSize         int // Maximum burst size (default: same as RPM)
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60 // Default: 60 RPM
	}

	burst := cfg.BurstSize
	if burst <= 0 {
		burst = rpm
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst),
	}
}

// Wait blocks until a token is available or ctx is done.
// It fails immediately if ctx's deadline would expire before a token arrives.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// TryAcquire attempts to acquire a token without blocking.
func (r *RateLimiter) TryAcquire() bool {
	return r.limiter.Allow()
}

// Available returns the current number of available tokens.
func (r *RateLimiter) Available() float64 {
	return r.limiter.Tokens()
}

// RateLimitedProvider wraps a Provider with rate limiting.
type RateLimitedProvider struct {
	provider Provider
	limiter  *RateLimiter
}

// NewRateLimitedProvider creates a new rate-limited provider.
func NewRateLimitedProvider(provider Provider, cfg RateLimitConfig) *RateLimitedProvider {
	return &RateLimitedProvider{
		provider: provider,
		limiter:  NewRateLimiter(cfg),
	}
}

// Translate implements Provider with rate limiting.
func (p *RateLimitedProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, &ProviderError{
			Message:   "rate limit wait cancelled",
			Cause:     err,
			Retryable: false,
		}
	}

	return p.provider.Translate(ctx, req)
}

// Detect forwards to the wrapped provider under the same limit.
func (p *RateLimitedProvider) Detect(ctx context.Context, text, traceID string) (Detection, error) {
	d, ok := p.provider.(Detector)
	if !ok {
		return Detection{}, ErrDisabled
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return Detection{}, &ProviderError{Message: "rate limit wait cancelled", Cause: err}
	}
	return d.Detect(ctx, text, traceID)
}

// Languages forwards to the wrapped provider. Catalog requests are not limited.
func (p *RateLimitedProvider) Languages(ctx context.Context) ([]string, error) {
	l, ok := p.provider.(LanguageLister)
	if !ok {
		return nil, ErrDisabled
	}
	return l.Languages(ctx)
}

// Limiter returns the underlying rate limiter for inspection.
func (p *RateLimitedProvider) Limiter() *RateLimiter {
	return p.limiter
}

var (
	_ Provider       = (*RateLimitedProvider)(nil)
	_ Detector       = (*RateLimitedProvider)(nil)
	_ LanguageLister = (*RateLimitedProvider)(nil)
)
