package pagetrans

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	MaxRetries int           // Maximum number of retry attempts
	BaseDelay  time.Duration // Initial delay between retries
	MaxDelay   time.Duration // Maximum delay between retries
}

// DefaultRetryConfig returns sensible defaults for retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   5 * time.Second,
	}
}

// RetryFunc is a function that can be retried.
type RetryFunc[T any] func() (T, error)

// WithRetry executes a function with exponential backoff retry.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn RetryFunc[T]) (T, error) {
	var lastErr error
	var zero T

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !IsRetryable(err) {
			return zero, err
		}

		// Don't sleep after the last attempt
		if attempt < cfg.MaxRetries {
			delay := cfg.BaseDelay * time.Duration(1<<attempt)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}

			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return zero, lastErr
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are not retryable, even when wrapped in a ProviderError
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Retryable
	}

	return false
}

// RetryableProvider wraps a Provider with retry logic.
type RetryableProvider struct {
	provider Provider
	config   RetryConfig
}

// NewRetryableProvider creates a new provider with retry logic.
func NewRetryableProvider(provider Provider, cfg RetryConfig) *RetryableProvider {
	return &RetryableProvider{
		provider: provider,
		config:   cfg,
	}
}

// Translate implements Provider with retry logic. Every retry carries a
// fresh trace id so each outbound request stays distinguishable.
func (p *RetryableProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	attempt := 0
	return WithRetry(ctx, p.config, func() ([]string, error) {
		if attempt > 0 && req.TraceID != "" {
			req.TraceID = uuid.NewString()
		}
		attempt++
		return p.provider.Translate(ctx, req)
	})
}

// Detect forwards to the wrapped provider when it supports detection.
func (p *RetryableProvider) Detect(ctx context.Context, text, traceID string) (Detection, error) {
	d, ok := p.provider.(Detector)
	if !ok {
		return Detection{}, ErrDisabled
	}
	attempt := 0
	return WithRetry(ctx, p.config, func() (Detection, error) {
		if attempt > 0 && traceID != "" {
			traceID = uuid.NewString()
		}
		attempt++
		return d.Detect(ctx, text, traceID)
	})
}

// Languages forwards to the wrapped provider when it publishes a catalog.
func (p *RetryableProvider) Languages(ctx context.Context) ([]string, error) {
	l, ok := p.provider.(LanguageLister)
	if !ok {
		return nil, ErrDisabled
	}
	return WithRetry(ctx, p.config, func() ([]string, error) {
		return l.Languages(ctx)
	})
}

var (
	_ Provider       = (*RetryableProvider)(nil)
	_ Detector       = (*RetryableProvider)(nil)
	_ LanguageLister = (*RetryableProvider)(nil)
)
