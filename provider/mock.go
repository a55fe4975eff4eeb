package provider

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockProvider is a mock translation provider for testing.
type MockProvider struct {
	mu sync.Mutex

	Translations map[string]string // Map of source text to translation
	CallCount    int               // Number of times Translate was called
	LastRequest  *TranslateRequest // Last request received
	Err          error             // Returned instead of translations when set
	Delay        time.Duration     // Simulated latency; honours context cancellation
}

// NewMockProvider creates a new mock provider with default Hindi translations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Translations: map[string]string{
			"Hello":                "नमस्ते",
			"World":                "विश्व",
			"Hello World":          "नमस्ते विश्व",
			"Report cyber fraud":   "साइबर धोखाधड़ी की रिपोर्ट करें",
			"Welcome to our site.": "हमारी साइट पर आपका स्वागत है।",
		},
	}
}

// Translate returns mock translations.
func (m *MockProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	m.mu.Lock()
	m.CallCount++
	m.LastRequest = &req
	delay, failure := m.Delay, m.Err
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if failure != nil {
		return nil, failure
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]string, len(req.Texts))
	for i, text := range req.Texts {
		if translation, ok := m.Translations[text]; ok {
			results[i] = translation
		} else {
			// Return bracketed text for unknown translations
			results[i] = fmt.Sprintf("[%s:%s]", req.TargetLang, text)
		}
	}

	return results, nil
}

// Calls returns the number of Translate calls so far.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// Reset resets the call count and last request.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount = 0
	m.LastRequest = nil
}

// Verify MockProvider implements Provider
var _ Provider = (*MockProvider)(nil)
