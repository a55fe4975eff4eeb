package pagetrans

import (
	"errors"
	"fmt"
)

var (
	// ErrNilPage is returned when an operation is called without a page.
	ErrNilPage = errors.New("pagetrans: nil page")

	// ErrDisabled is returned by providers that were built without credentials.
	ErrDisabled = errors.New("pagetrans: translation disabled")

	// ErrDetached is returned when writing to a node that left its document.
	ErrDetached = errors.New("pagetrans: node detached")

	// ErrUnknownHandle is returned for handles a page never issued.
	ErrUnknownHandle = errors.New("pagetrans: unknown node handle")
)

// ProviderError indicates a translation provider failure (API error, network, quota).
type ProviderError struct {
	Message    string
	StatusCode int // HTTP status, 0 when the request never got a response
	Cause      error
	Retryable  bool // Whether the operation can be retried
}

func (e *ProviderError) Error() string {
	msg := "provider error: " + e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// CacheError indicates a cache operation failure.
type CacheError struct {
	Message string
	Cause   error
}

func (e *CacheError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cache error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("cache error: %s", e.Message)
}

func (e *CacheError) Unwrap() error {
	return e.Cause
}

// DocumentError indicates a failure while writing to a page.
type DocumentError struct {
	Message string
	Handle  NodeHandle
	Cause   error
}

func (e *DocumentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("document error (node %d): %s: %v", e.Handle, e.Message, e.Cause)
	}
	return fmt.Sprintf("document error (node %d): %s", e.Handle, e.Message)
}

func (e *DocumentError) Unwrap() error {
	return e.Cause
}

// ConfigError indicates missing or malformed configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Message)
}

// CountMismatchError indicates the provider returned a different number of translations than requested.
type CountMismatchError struct {
	Expected int
	Got      int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("translation count mismatch: expected %d, got %d", e.Expected, e.Got)
}
