// Package dom holds live HTML documents whose text nodes can be extracted,
// rewritten in place and restored.
package dom

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/cybersafe-india/pagetrans"
	"golang.org/x/net/html"
)

// Re-exported so callers of this package need not import pagetrans for them.
var (
	ErrDetached      = pagetrans.ErrDetached
	ErrUnknownHandle = pagetrans.ErrUnknownHandle
)

// loadingMarkup is inserted at the end of <body> while a pass runs.
const loadingMarkup = `<div id="%s" role="status" aria-live="polite">Translating page...</div>`

// Document is a parsed HTML document plus an arena of the text nodes it has
// handed out. Handles index the arena and stay valid for the document's
// lifetime, whether or not their node is still attached.
//
// Document is safe for concurrent use.
type Document struct {
	mu   sync.Mutex
	doc  *goquery.Document
	root *html.Node

	// Arena: handle i owns nodes[i] and its first-seen text originals[i].
	nodes     []*html.Node
	originals []string
	index     map[*html.Node]pagetrans.NodeHandle

	ignoredTags map[string]bool
	minLength   int
	loadingID   string
	loadingRefs int
	scope       string
}

// Option is a functional option for configuring a Document.
type Option func(*Document)

// WithIgnoredTags replaces the set of tags whose text is never extracted.
func WithIgnoredTags(tags ...string) Option {
	return func(d *Document) {
		ignored := make(map[string]bool, len(tags))
		for _, tag := range tags {
			ignored[strings.ToLower(tag)] = true
		}
		d.ignoredTags = ignored
	}
}

// WithMinLength sets the minimum trimmed length, in characters, of an eligible node.
func WithMinLength(n int) Option {
	return func(d *Document) {
		d.minLength = n
	}
}

// WithScope limits Extract to text under the elements matched by selector.
func WithScope(selector string) Option {
	return func(d *Document) {
		d.scope = selector
	}
}

// WithLoadingID sets the id of the loading indicator element.
func WithLoadingID(id string) Option {
	return func(d *Document) {
		d.loadingID = id
	}
}

// Parse reads an HTML document or fragment.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	d := &Document{
		doc:         doc,
		root:        doc.Nodes[0],
		index:       make(map[*html.Node]pagetrans.NodeHandle),
		ignoredTags: pagetrans.IgnoredTags,
		minLength:   pagetrans.MinTextLength,
		loadingID:   pagetrans.LoadingElementID,
		scope:       "body",
	}

	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(content string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(content), opts...)
}

// Extract returns the eligible text nodes under <body> (or the WithScope
// selector) in document order.
func (d *Document) Extract() []pagetrans.TextNode {
	return d.ExtractFrom(d.scope)
}

// ExtractFrom returns the eligible text nodes under the elements matched by
// selector, in document order. Nodes matched more than once are returned once.
func (d *Document) ExtractFrom(selector string) []pagetrans.TextNode {
	d.mu.Lock()
	defer d.mu.Unlock()

	var roots []*html.Node
	if selector == "" {
		roots = d.doc.Nodes
	} else {
		roots = d.doc.Find(selector).Nodes
	}

	var out []pagetrans.TextNode
	emitted := make(map[pagetrans.NodeHandle]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && d.skipElement(n) {
			return
		}

		if n.Type == html.TextNode && n.Parent != nil && n.Parent.Type == html.ElementNode {
			trimmed := strings.TrimSpace(n.Data)
			if utf8.RuneCountInString(trimmed) >= d.minLength {
				h := d.track(n, trimmed)
				if !emitted[h] {
					emitted[h] = true
					out = append(out, pagetrans.TextNode{Handle: h, OriginalText: d.originals[h]})
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, root := range roots {
		if d.hiddenAncestor(root) {
			continue
		}
		walk(root)
	}

	return out
}

// track returns n's handle, capturing text as its original on first sight.
func (d *Document) track(n *html.Node, text string) pagetrans.NodeHandle {
	if h, ok := d.index[n]; ok {
		return h
	}
	h := pagetrans.NodeHandle(len(d.nodes))
	d.nodes = append(d.nodes, n)
	d.originals = append(d.originals, text)
	d.index[n] = h
	return h
}

// skipElement reports whether an element's whole subtree is ineligible.
func (d *Document) skipElement(n *html.Node) bool {
	if d.ignoredTags[strings.ToLower(n.Data)] {
		return true
	}

	for _, attr := range n.Attr {
		switch attr.Key {
		case "data-no-translate", "hidden":
			return true
		case "id":
			if d.loadingID != "" && attr.Val == d.loadingID {
				return true
			}
		case "style":
			if hiddenStyle(attr.Val) {
				return true
			}
		}
	}

	return false
}

// hiddenAncestor reports whether an element above n makes n ineligible.
func (d *Document) hiddenAncestor(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && d.skipElement(p) {
			return true
		}
	}
	return false
}

// hiddenStyle reports whether an inline style declares display:none or visibility:hidden.
func hiddenStyle(style string) bool {
	for _, decl := range strings.Split(style, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = strings.ToLower(strings.TrimSpace(val))
		val = strings.TrimSpace(strings.TrimSuffix(val, "!important"))

		if (prop == "display" && val == "none") || (prop == "visibility" && val == "hidden") {
			return true
		}
	}
	return false
}

// Tracked returns every node ever extracted, attached or not, in handle order.
func (d *Document) Tracked() []pagetrans.TextNode {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]pagetrans.TextNode, len(d.nodes))
	for i := range d.nodes {
		out[i] = pagetrans.TextNode{Handle: pagetrans.NodeHandle(i), OriginalText: d.originals[i]}
	}
	return out
}

// Len returns the number of tracked nodes.
func (d *Document) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.nodes)
}

// Original returns the text h held when first extracted.
func (d *Document) Original(h pagetrans.NodeHandle) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.valid(h) {
		return "", false
	}
	return d.originals[h], true
}

// Text returns the node's current trimmed text.
func (d *Document) Text(h pagetrans.NodeHandle) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.valid(h) {
		return "", false
	}
	return strings.TrimSpace(d.nodes[h].Data), true
}

// Attached reports whether the node is still reachable from the document root.
func (d *Document) Attached(h pagetrans.NodeHandle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.valid(h) && d.attached(d.nodes[h])
}

// SetText replaces the node's text, keeping its leading and trailing whitespace.
func (d *Document) SetText(h pagetrans.NodeHandle, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.valid(h) {
		return ErrUnknownHandle
	}
	n := d.nodes[h]
	if !d.attached(n) {
		return ErrDetached
	}

	n.Data = preserveWhitespace(n.Data, text)
	return nil
}

func (d *Document) valid(h pagetrans.NodeHandle) bool {
	return h >= 0 && int(h) < len(d.nodes)
}

func (d *Document) attached(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.root {
			return true
		}
	}
	return false
}

// Mutate runs fn with exclusive access to the underlying document, for
// changes made outside the engine (route changes, re-renders).
func (d *Document) Mutate(fn func(doc *goquery.Document)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.doc)
}

// ShowLoading inserts the loading indicator. Calls nest: the indicator stays
// until every ShowLoading has been matched by HideLoading.
func (d *Document) ShowLoading() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.loadingRefs++
	if d.loadingRefs > 1 || d.loadingID == "" {
		return
	}

	body := d.doc.Find("body")
	if body.Length() == 0 {
		return
	}
	body.AppendHtml(fmt.Sprintf(loadingMarkup, html.EscapeString(d.loadingID)))
}

// HideLoading removes the loading indicator once the last pass is done.
func (d *Document) HideLoading() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.loadingRefs == 0 {
		return
	}
	d.loadingRefs--
	if d.loadingRefs > 0 || d.loadingID == "" {
		return
	}

	d.doc.Find("#" + d.loadingID).Remove()
}

// Loading reports whether the loading indicator is currently shown.
func (d *Document) Loading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loadingRefs > 0
}

// SetLanguageAttrs sets the lang and dir attributes on the <html> element.
func (d *Document) SetLanguageAttrs(lang, dir string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	htmlTag := d.doc.Find("html")
	if htmlTag.Length() > 0 {
		htmlTag.SetAttr("lang", lang)
		htmlTag.SetAttr("dir", dir)
	}
}

// HTML serializes the whole document.
func (d *Document) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out, err := d.doc.Html()
	if err != nil {
		return "", fmt.Errorf("serializing HTML: %w", err)
	}
	return out, nil
}

// BodyHTML serializes the contents of <body>.
func (d *Document) BodyHTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out, err := d.doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("serializing body: %w", err)
	}
	return out, nil
}

// preserveWhitespace keeps the original leading/trailing whitespace around
// translated. Whitespace is anything strings.TrimSpace would strip, &nbsp; included.
func preserveWhitespace(original, translated string) string {
	core := strings.TrimLeftFunc(original, unicode.IsSpace)
	leading := original[:len(original)-len(core)]

	trailing := ""
	if core != "" {
		trimmed := strings.TrimRightFunc(core, unicode.IsSpace)
		trailing = core[len(trimmed):]
	}

	return leading + strings.TrimSpace(translated) + trailing
}

var (
	_ pagetrans.Page             = (*Document)(nil)
	_ pagetrans.LoadingIndicator = (*Document)(nil)
	_ pagetrans.LanguageMarker   = (*Document)(nil)
)
