package pagetrans

// NodeHandle is an opaque, stable identifier for a text node tracked by a page.
// Handles are only meaningful for the page that issued them.
type NodeHandle int

// TextNode pairs a tracked node with the text it held when first observed.
type TextNode struct {
	Handle       NodeHandle
	OriginalText string
}

// Status describes how a translation pass or batch resolved.
type Status string

const (
	// StatusOK means every text was resolved from the cache or the provider.
	StatusOK Status = "ok"
	// StatusDegraded means the provider failed and original texts were used instead.
	StatusDegraded Status = "degraded"
	// StatusDisabled means no provider is configured; texts pass through unchanged.
	StatusDisabled Status = "disabled"
	// StatusSuperseded means a newer pass on the same page replaced this one before it applied.
	StatusSuperseded Status = "superseded"
	// StatusRestored means the page was returned to its original text.
	StatusRestored Status = "restored"
)

// PassState is the orchestrator state of a page.
type PassState string

const (
	StateIdle           PassState = "idle"
	StateExtracting     PassState = "extracting"
	StateResolvingCache PassState = "resolving_cache"
	StateAwaitingRemote PassState = "awaiting_remote"
	StateApplying       PassState = "applying"
	StateRestoring      PassState = "restoring"
)

// Result is returned by every TranslatePage and RestoreOriginalLanguage call.
type Result struct {
	Language string // Language the page was asked to show
	Count    int    // Nodes processed (translated pass) or restored
	Cached   int    // Distinct texts resolved from the cache
	Fetched  int    // Distinct texts sent to the provider
	Skipped  int    // Nodes detached before they could be written
	Status   Status
	TraceID  string // Correlation id of the remote batch, if one was sent
}

// Event is published once per completed pass.
type Event struct {
	Language        string
	TranslatedCount int
	Status          Status
}

// Detection is the result of a language detection request.
type Detection struct {
	Language string
	Score    float64
}

// TranslateRequest contains the parameters for one provider batch.
type TranslateRequest struct {
	Texts      []string
	TargetLang string
	SourceLang string
	TraceID    string // Sent to the provider for correlation; no effect on output
}

// DefaultLanguage is the source language of every page and the "no translation" language.
const DefaultLanguage = "en"

// LoadingElementID is the id of the transient indicator shown while a pass runs.
// Text inside it is never extracted.
const LoadingElementID = "translation-loading"

// IgnoredTags contains HTML tags whose text is never translated.
var IgnoredTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"svg":      true,
	"code":     true,
}

// MinTextLength is the minimum trimmed length, in characters, of an eligible text node.
const MinTextLength = 2
