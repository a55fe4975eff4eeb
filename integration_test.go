package pagetrans_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cybersafe-india/pagetrans"
	"github.com/cybersafe-india/pagetrans/cache"
	"github.com/cybersafe-india/pagetrans/dom"
	"github.com/cybersafe-india/pagetrans/provider"
)

// Integration tests using all real components

func body(t *testing.T, d *dom.Document) string {
	t.Helper()
	out, err := d.BodyHTML()
	if err != nil {
		t.Fatalf("BodyHTML failed: %v", err)
	}
	return out
}

func TestIntegration_HelloWorld(t *testing.T) {
	p := provider.NewMockProvider()
	engine := pagetrans.NewEngine(pagetrans.NewClient(p), pagetrans.WithCache(cache.NewMemory(0)))

	page, err := dom.ParseString(`<p>Hello</p><p>World</p>`)
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}

	result, err := engine.TranslatePage(context.Background(), page, "hi")
	if err != nil {
		t.Fatalf("TranslatePage failed: %v", err)
	}

	if got := body(t, page); got != `<p>नमस्ते</p><p>विश्व</p>` {
		t.Errorf("Unexpected translated body: %s", got)
	}

	if result.Count != 2 {
		t.Errorf("Expected Count 2, got %d", result.Count)
	}

	if _, err := engine.RestoreOriginalLanguage(page); err != nil {
		t.Fatalf("RestoreOriginalLanguage failed: %v", err)
	}

	if got := body(t, page); got != `<p>Hello</p><p>World</p>` {
		t.Errorf("Unexpected restored body: %s", got)
	}
}

func TestIntegration_CacheHit(t *testing.T) {
	p := provider.NewMockProvider()
	c := cache.NewMemory(3600)
	engine := pagetrans.NewEngine(pagetrans.NewClient(p), pagetrans.WithCache(c))

	first, _ := dom.ParseString(`<p>Hello</p>`)
	second, _ := dom.ParseString(`<div><span>Hello</span></div>`)

	if _, err := engine.TranslatePage(context.Background(), first, "hi"); err != nil {
		t.Fatalf("first pass failed: %v", err)
	}
	result, err := engine.TranslatePage(context.Background(), second, "hi")
	if err != nil {
		t.Fatalf("second pass failed: %v", err)
	}

	if p.Calls() != 1 {
		t.Errorf("Expected 1 provider call, got %d", p.Calls())
	}
	if result.Cached != 1 {
		t.Errorf("Expected 1 cached text, got %d", result.Cached)
	}
	if !strings.Contains(body(t, second), "नमस्ते") {
		t.Errorf("Expected cached translation in second page, got: %s", body(t, second))
	}
}

func TestIntegration_Eligibility(t *testing.T) {
	p := provider.NewMockProvider()
	engine := pagetrans.NewEngine(pagetrans.NewClient(p))

	page, _ := dom.ParseString(`<div>
		<p>Hello</p>
		<script>var greeting = "World";</script>
		<p>x</p>
		<div style="display:none"><p>World</p></div>
		<p data-no-translate>Hello World</p>
	</div>`)

	result, err := engine.TranslatePage(context.Background(), page, "hi")
	if err != nil {
		t.Fatalf("TranslatePage failed: %v", err)
	}

	if result.Count != 1 {
		t.Errorf("Expected 1 eligible node, got %d", result.Count)
	}

	out := body(t, page)
	for _, kept := range []string{`var greeting = "World";`, `<p>x</p>`, `<p>World</p>`, `>Hello World</p>`} {
		if !strings.Contains(out, kept) {
			t.Errorf("Expected %q to stay untouched, got: %s", kept, out)
		}
	}
	if !strings.Contains(out, "<p>नमस्ते</p>") {
		t.Errorf("Expected translated paragraph, got: %s", out)
	}
}

func TestIntegration_RTLLanguage(t *testing.T) {
	p := provider.NewMockProvider()
	engine := pagetrans.NewEngine(pagetrans.NewClient(p))

	page, _ := dom.ParseString(`<html><head></head><body><p>Hello</p></body></html>`)

	if _, err := engine.TranslatePage(context.Background(), page, "ur"); err != nil {
		t.Fatalf("TranslatePage failed: %v", err)
	}

	out, _ := page.HTML()
	if !strings.Contains(out, `dir="rtl"`) || !strings.Contains(out, `lang="ur"`) {
		t.Errorf("Expected rtl attributes, got: %s", out)
	}

	if _, err := engine.RestoreOriginalLanguage(page); err != nil {
		t.Fatalf("RestoreOriginalLanguage failed: %v", err)
	}
	out, _ = page.HTML()
	if !strings.Contains(out, `dir="ltr"`) || !strings.Contains(out, `lang="en"`) {
		t.Errorf("Expected ltr attributes after restore, got: %s", out)
	}
}

func TestIntegration_WhitespacePreserved(t *testing.T) {
	p := provider.NewMockProvider()
	engine := pagetrans.NewEngine(pagetrans.NewClient(p))

	page, _ := dom.ParseString("<p>\n  Hello\n</p>")

	if _, err := engine.TranslatePage(context.Background(), page, "hi"); err != nil {
		t.Fatalf("TranslatePage failed: %v", err)
	}

	if got := body(t, page); got != "<p>\n  नमस्ते\n</p>" {
		t.Errorf("Whitespace not preserved, got: %q", got)
	}
}

func TestIntegration_LoadingIndicatorRemoved(t *testing.T) {
	p := provider.NewMockProvider()
	engine := pagetrans.NewEngine(pagetrans.NewClient(p))

	page, _ := dom.ParseString(`<p>Hello</p>`)

	if _, err := engine.TranslatePage(context.Background(), page, "hi"); err != nil {
		t.Fatalf("TranslatePage failed: %v", err)
	}

	if strings.Contains(body(t, page), pagetrans.LoadingElementID) {
		t.Errorf("Loading indicator left behind: %s", body(t, page))
	}
	if page.Loading() {
		t.Error("Page should not report loading after the pass")
	}
}

func TestIntegration_AzureOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	azure := provider.NewAzureProvider(provider.AzureConfig{SubscriptionKey: "k", Endpoint: srv.URL})
	retrying := pagetrans.NewRetryableProvider(azure, pagetrans.RetryConfig{MaxRetries: 1, BaseDelay: 1, MaxDelay: 10})

	c := cache.NewMemory(0)
	engine := pagetrans.NewEngine(pagetrans.NewClient(retrying), pagetrans.WithCache(c))

	page, _ := dom.ParseString(`<p>Hello</p><p>World</p>`)
	result, err := engine.TranslatePage(context.Background(), page, "hi")
	if err != nil {
		t.Fatalf("TranslatePage should not fail on provider outage: %v", err)
	}

	if result.Status != pagetrans.StatusDegraded {
		t.Errorf("Expected degraded status, got %s", result.Status)
	}
	if got := body(t, page); got != `<p>Hello</p><p>World</p>` {
		t.Errorf("Page should keep original text, got: %s", got)
	}
	if stats, _ := c.Stats(); stats.Entries != 0 {
		t.Errorf("Degraded pass should not be cached, got %d entries", stats.Entries)
	}
}

func TestIntegration_StaticCatalog(t *testing.T) {
	static := provider.NewStaticProvider()
	static.AddCatalog("ta", []byte("msgid \"Hello\"\nmsgstr \"வணக்கம்\"\n"))

	engine := pagetrans.NewEngine(pagetrans.NewClient(static))

	page, _ := dom.ParseString(`<p>Hello</p><p>Unknown words</p>`)
	if _, err := engine.TranslatePage(context.Background(), page, "ta"); err != nil {
		t.Fatalf("TranslatePage failed: %v", err)
	}

	if got := body(t, page); got != `<p>வணக்கம்</p><p>Unknown words</p>` {
		t.Errorf("Unexpected body: %s", got)
	}
}

func TestIntegration_RetryableProvider(t *testing.T) {
	// Create a provider that fails twice then succeeds
	inner := &failingMockProvider{failCount: 2}
	retryable := pagetrans.NewRetryableProvider(inner, pagetrans.RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1, // 1 nanosecond for fast tests
		MaxDelay:   10,
	})

	engine := pagetrans.NewEngine(pagetrans.NewClient(retryable))

	page, _ := dom.ParseString(`<p>Hello</p>`)
	result, err := engine.TranslatePage(context.Background(), page, "hi")
	if err != nil {
		t.Fatalf("TranslatePage failed after retries: %v", err)
	}

	if !strings.Contains(body(t, page), "translated") {
		t.Errorf("Expected translated content, got: %s", body(t, page))
	}

	if result.Status != pagetrans.StatusOK {
		t.Errorf("Expected ok status, got %s", result.Status)
	}

	if inner.callCount != 3 {
		t.Errorf("Expected 3 calls (2 failures + 1 success), got %d", inner.callCount)
	}
}

// Helper: failing provider for retry tests
type failingMockProvider struct {
	failCount int
	callCount int
}

func (p *failingMockProvider) Translate(ctx context.Context, req pagetrans.TranslateRequest) ([]string, error) {
	p.callCount++
	if p.callCount <= p.failCount {
		return nil, &pagetrans.ProviderError{Message: "temporary failure", Retryable: true}
	}
	results := make([]string, len(req.Texts))
	for i := range req.Texts {
		results[i] = "translated"
	}
	return results, nil
}
