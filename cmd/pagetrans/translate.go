package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cybersafe-india/pagetrans"
	"github.com/cybersafe-india/pagetrans/cache"
	"github.com/cybersafe-india/pagetrans/dom"
	"github.com/spf13/cobra"
)

type translateArgs struct {
	lang      string
	output    string
	jsonOut   bool
	quiet     bool
	fragment  bool
	dryRun    bool
	cacheFile string
	selector  string
}

func newTranslateCmd(a *app) *cobra.Command {
	var ta translateArgs

	cmd := &cobra.Command{
		Use:   "translate [file]",
		Short: "Translate an HTML file (or stdin) into a language",
		Example: `  pagetrans translate --lang hi index.html -o index.hi.html
  cat page.html | pagetrans translate -l ta --fragment
  pagetrans translate -l bn --cache-file cache.json page.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTranslate(commandContext(cmd), ta, args)
		},
	}

	cmd.Flags().StringVarP(&ta.lang, "lang", "l", "", "Target language code (e.g. hi, ta, ur)")
	cmd.Flags().StringVarP(&ta.output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&ta.jsonOut, "json", false, "Output result as JSON")
	cmd.Flags().BoolVarP(&ta.quiet, "quiet", "q", false, "Suppress progress output")
	cmd.Flags().BoolVar(&ta.fragment, "fragment", false, "Output only the contents of <body>")
	cmd.Flags().BoolVar(&ta.dryRun, "dry-run", false, "List the texts that would be translated without calling the provider")
	cmd.Flags().StringVar(&ta.cacheFile, "cache-file", "", "Cache export to load before and save after translating")
	cmd.Flags().StringVar(&ta.selector, "selector", "", "Only translate text under elements matching this CSS selector")
	_ = cmd.MarkFlagRequired("lang")

	return cmd
}

func (a *app) readInput(args []string) (string, io.Reader, func(), error) {
	if len(args) == 0 {
		return "stdin", a.stdin, func() {}, nil
	}

	f, err := os.Open(args[0]) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return "", nil, nil, fmt.Errorf("reading file: %w", err)
	}
	return filepath.Base(args[0]), f, func() { f.Close() }, nil
}

func (a *app) runTranslate(ctx context.Context, ta translateArgs, args []string) error {
	name, in, closeIn, err := a.readInput(args)
	if err != nil {
		return err
	}
	defer closeIn()

	var opts []dom.Option
	if ta.selector != "" {
		opts = append(opts, dom.WithScope(ta.selector))
	}

	doc, err := dom.Parse(in, opts...)
	if err != nil {
		return err
	}

	_, stack, err := a.buildStack()
	if err != nil {
		return err
	}
	defer stack.Close()

	if ta.cacheFile != "" && stack.Cache != nil {
		if err := loadCacheFile(stack.Cache, ta.cacheFile); err != nil {
			return err
		}
	}

	if ta.dryRun {
		return a.dryRun(doc, stack.Cache, name, ta)
	}

	if !ta.quiet {
		fmt.Fprintf(a.stderr, "Translating %s to %s...\n", name, ta.lang)
	}

	start := time.Now()
	result, err := stack.Engine.TranslatePage(ctx, doc, ta.lang)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}
	elapsed := time.Since(start)

	var content string
	if ta.fragment {
		content, err = doc.BodyHTML()
	} else {
		content, err = doc.HTML()
	}
	if err != nil {
		return err
	}

	if ta.cacheFile != "" && stack.Cache != nil {
		if err := cache.NewExporter(stack.Cache).ExportToFile(ta.cacheFile, map[string]string{"source": name}); err != nil {
			return fmt.Errorf("saving cache: %w", err)
		}
	}

	var out io.Writer = a.stdout
	if ta.output != "" {
		f, err := os.Create(ta.output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if ta.jsonOut {
		return outputJSON(out, content, result, elapsed)
	}

	fmt.Fprint(out, content)

	if !ta.quiet {
		fmt.Fprintf(a.stderr, "\nDone in %v (%s)\n", elapsed.Round(time.Millisecond), result.Status)
		fmt.Fprintf(a.stderr, "  Nodes found:  %d\n", result.Count)
		fmt.Fprintf(a.stderr, "  Translated:   %d\n", result.Fetched)
		fmt.Fprintf(a.stderr, "  From cache:   %d\n", result.Cached)
	}

	return nil
}

// loadCacheFile imports a cache export. A missing file is not an error: it
// is created after the first run.
func loadCacheFile(c pagetrans.TranslationCache, path string) error {
	res, err := cache.NewImporter(c).ImportFromFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading cache: %w", err)
	}
	if res.Failed > 0 {
		return fmt.Errorf("loading cache: %d invalid entries in %s", res.Failed, path)
	}
	return nil
}

// dryRun lists the texts a pass would handle and whether each is cached.
func (a *app) dryRun(doc *dom.Document, c pagetrans.TranslationCache, name string, ta translateArgs) error {
	lang := pagetrans.NormalizeLanguage(ta.lang)
	nodes := doc.Extract()

	type dryRunText struct {
		Text   string `json:"text"`
		Cached bool   `json:"cached"`
	}

	texts := make([]dryRunText, len(nodes))
	for i, n := range nodes {
		texts[i].Text = n.OriginalText
		if c != nil {
			_, texts[i].Cached = c.Lookup(n.OriginalText, lang)
		}
	}

	if ta.jsonOut {
		out := struct {
			InputFile  string       `json:"input_file"`
			TargetLang string       `json:"target_lang"`
			NodeCount  int          `json:"node_count"`
			Texts      []dryRunText `json:"texts"`
		}{name, lang, len(nodes), texts}

		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(a.stdout, "Dry run: %s -> %s\n", name, lang)
	fmt.Fprintf(a.stdout, "Found %d translatable text nodes:\n\n", len(nodes))

	for i, t := range texts {
		text := t.Text
		if len([]rune(text)) > 60 {
			text = string([]rune(text)[:57]) + "..."
		}
		marker := ""
		if t.Cached {
			marker = " (cached)"
		}
		fmt.Fprintf(a.stdout, "%3d. %q%s\n", i+1, text, marker)
	}

	return nil
}

// JSONOutput represents the JSON output format.
type JSONOutput struct {
	Content   string `json:"content"`
	Language  string `json:"language"`
	Status    string `json:"status"`
	Nodes     int    `json:"nodes"`
	Fetched   int    `json:"fetched"`
	Cached    int    `json:"cached"`
	Skipped   int    `json:"skipped"`
	TraceID   string `json:"trace_id,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

func outputJSON(w io.Writer, content string, result *pagetrans.Result, elapsed time.Duration) error {
	out := JSONOutput{
		Content:   content,
		Language:  result.Language,
		Status:    string(result.Status),
		Nodes:     result.Count,
		Fetched:   result.Fetched,
		Cached:    result.Cached,
		Skipped:   result.Skipped,
		TraceID:   result.TraceID,
		ElapsedMs: elapsed.Milliseconds(),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
