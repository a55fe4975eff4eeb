package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/cybersafe-india/pagetrans"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultAzureEndpoint is the global Translator v3 endpoint.
	DefaultAzureEndpoint = "https://api.cognitive.microsofttranslator.com"
	// DefaultAzureRegion is used when no region is configured.
	DefaultAzureRegion = "global"

	azureAPIVersion = "3.0"

	// Translator v3 request limits.
	azureMaxElements = 1000
	azureMaxChars    = 50000
)

// AzureConfig holds configuration for the Azure Translator provider.
type AzureConfig struct {
	SubscriptionKey string        // Ocp-Apim-Subscription-Key
	Endpoint        string        // default: DefaultAzureEndpoint
	Region          string        // Ocp-Apim-Subscription-Region (default: "global")
	HTTPClient      *http.Client  // optional; built from Timeout when nil
	Timeout         time.Duration // default: 30s
	MaxBatchSize    int           // elements per request (default and max: 1000)
	Concurrency     int           // parallel requests for oversized batches (default: 4)
}

// AzureProvider implements Provider, Detector and LanguageLister against
// the Azure Translator v3 REST API.
type AzureProvider struct {
	key         string
	endpoint    string
	region      string
	client      *http.Client
	maxBatch    int
	concurrency int
}

// NewAzureProvider creates a new Azure Translator provider.
func NewAzureProvider(cfg AzureConfig) *AzureProvider {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultAzureEndpoint
	}

	region := cfg.Region
	if region == "" {
		region = DefaultAzureRegion
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	maxBatch := cfg.MaxBatchSize
	if maxBatch <= 0 || maxBatch > azureMaxElements {
		maxBatch = azureMaxElements
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	return &AzureProvider{
		key:         cfg.SubscriptionKey,
		endpoint:    endpoint,
		region:      region,
		client:      client,
		maxBatch:    maxBatch,
		concurrency: concurrency,
	}
}

// azureText is one element of a translate or detect request body.
type azureText struct {
	Text string `json:"Text"`
}

type azureTranslateResponse []struct {
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

type azureDetectResponse []struct {
	Language string  `json:"language"`
	Score    float64 `json:"score"`
}

// Translate translates a batch of texts. Batches above the per-request
// limits are split, sent concurrently and reassembled in input order.
func (p *AzureProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if len(req.Texts) == 0 {
		return []string{}, nil
	}
	if p.key == "" {
		return nil, &pagetrans.ProviderError{Message: "missing subscription key", Cause: pagetrans.ErrDisabled}
	}

	from := req.SourceLang
	if from == "" {
		from = pagetrans.DefaultLanguage
	}

	result := make([]string, len(req.Texts))
	chunks := p.chunk(req.Texts)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, c := range chunks {
		// The first chunk keeps the batch's trace id; the rest get their own
		traceID := req.TraceID
		if i > 0 {
			traceID = uuid.NewString()
		}

		g.Go(func() error {
			out, err := p.translateChunk(gctx, req.Texts[c.start:c.end], from, req.TargetLang, traceID)
			if err != nil {
				return err
			}
			copy(result[c.start:c.end], out)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}

type span struct{ start, end int }

// chunk splits texts into spans that respect the element and character limits.
func (p *AzureProvider) chunk(texts []string) []span {
	var spans []span
	start, chars := 0, 0

	for i, text := range texts {
		n := len([]rune(text))
		if i > start && (i-start >= p.maxBatch || chars+n > azureMaxChars) {
			spans = append(spans, span{start, i})
			start, chars = i, 0
		}
		chars += n
	}
	spans = append(spans, span{start, len(texts)})

	return spans
}

func (p *AzureProvider) translateChunk(ctx context.Context, texts []string, from, to, traceID string) ([]string, error) {
	q := url.Values{}
	q.Set("api-version", azureAPIVersion)
	q.Set("from", from)
	q.Set("to", to)

	var resp azureTranslateResponse
	if err := p.post(ctx, "/translate", q, texts, traceID, &resp); err != nil {
		return nil, err
	}

	if len(resp) != len(texts) {
		return nil, &pagetrans.CountMismatchError{Expected: len(texts), Got: len(resp)}
	}

	out := make([]string, len(resp))
	for i, item := range resp {
		if len(item.Translations) == 0 {
			return nil, &pagetrans.ProviderError{Message: fmt.Sprintf("no translation for element %d", i)}
		}
		out[i] = item.Translations[0].Text
	}
	return out, nil
}

// Detect returns the most likely language of text.
func (p *AzureProvider) Detect(ctx context.Context, text string, traceID string) (pagetrans.Detection, error) {
	if p.key == "" {
		return pagetrans.Detection{}, &pagetrans.ProviderError{Message: "missing subscription key", Cause: pagetrans.ErrDisabled}
	}

	q := url.Values{}
	q.Set("api-version", azureAPIVersion)

	var resp azureDetectResponse
	if err := p.post(ctx, "/detect", q, []string{text}, traceID, &resp); err != nil {
		return pagetrans.Detection{}, err
	}
	if len(resp) == 0 {
		return pagetrans.Detection{}, &pagetrans.ProviderError{Message: "empty detection response"}
	}

	return pagetrans.Detection{Language: resp[0].Language, Score: resp[0].Score}, nil
}

// Languages returns the sorted codes Azure can translate into. The catalog
// endpoint needs no subscription key.
func (p *AzureProvider) Languages(ctx context.Context) ([]string, error) {
	u := p.endpoint + "/languages?api-version=" + azureAPIVersion + "&scope=translation"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &pagetrans.ProviderError{Message: "building request", Cause: err}
	}
	req.Header.Set("User-Agent", pagetrans.UserAgent())

	body, err := p.do(req)
	if err != nil {
		return nil, err
	}

	catalog := gjson.GetBytes(body, "translation")
	if !catalog.IsObject() {
		return nil, &pagetrans.ProviderError{Message: "invalid languages response"}
	}

	var codes []string
	catalog.ForEach(func(key, _ gjson.Result) bool {
		codes = append(codes, key.String())
		return true
	})
	sort.Strings(codes)

	return codes, nil
}

func (p *AzureProvider) post(ctx context.Context, path string, q url.Values, texts []string, traceID string, out any) error {
	items := make([]azureText, len(texts))
	for i, t := range texts {
		items[i] = azureText{Text: t}
	}

	body, err := json.Marshal(items)
	if err != nil {
		return &pagetrans.ProviderError{Message: "encoding request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+path+"?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return &pagetrans.ProviderError{Message: "building request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("Ocp-Apim-Subscription-Key", p.key)
	req.Header.Set("Ocp-Apim-Subscription-Region", p.region)
	req.Header.Set("User-Agent", pagetrans.UserAgent())
	if traceID != "" {
		req.Header.Set("X-ClientTraceId", traceID)
	}

	respBody, err := p.do(req)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &pagetrans.ProviderError{Message: "decoding response", Cause: err}
	}
	return nil
}

// do sends req and returns the body of a 200 response. Everything else is a
// ProviderError; transport failures, 429 and 5xx are retryable.
func (p *AzureProvider) do(req *http.Request) ([]byte, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &pagetrans.ProviderError{
			Message:   fmt.Sprintf("%s %s", req.Method, req.URL.Path),
			Cause:     err,
			Retryable: !errors.Is(err, context.Canceled),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, &pagetrans.ProviderError{Message: "reading response", Cause: err, Retryable: true}
	}

	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(body, "error.message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &pagetrans.ProviderError{
			Message:    msg,
			StatusCode: resp.StatusCode,
			Retryable:  resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
		}
	}

	return body, nil
}

var (
	_ pagetrans.Provider       = (*AzureProvider)(nil)
	_ pagetrans.Detector       = (*AzureProvider)(nil)
	_ pagetrans.LanguageLister = (*AzureProvider)(nil)
)
