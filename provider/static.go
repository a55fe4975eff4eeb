package provider

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/cybersafe-india/pagetrans"
	"github.com/leonelquinteros/gotext"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StaticProvider translates from gettext PO catalogs, one per language.
// It works offline and needs no credentials. Msgids missing from a catalog
// come back unchanged.
type StaticProvider struct {
	mu       sync.RWMutex
	catalogs map[string]map[string]string // lang -> msgid -> msgstr
	logger   zerolog.Logger
}

// NewStaticProvider creates a provider with no catalogs.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		catalogs: make(map[string]map[string]string),
		logger:   log.With().Str("sys", "provider").Str("backend", "static").Logger(),
	}
}

// AddCatalog registers the PO source for lang, replacing any earlier one.
func (p *StaticProvider) AddCatalog(lang string, po []byte) {
	catalog := gotext.NewPo()
	catalog.Parse(po)
	p.add(lang, catalog)
}

func (p *StaticProvider) add(lang string, catalog *gotext.Po) {
	canonical := pagetrans.NormalizeLanguage(lang)

	// Only singular entries with a non-empty msgstr count as translated
	entries := make(map[string]string)
	for id, tr := range catalog.GetDomain().GetTranslations() {
		if id != "" && tr.IsTranslated() {
			entries[id] = tr.Get()
		}
	}

	p.mu.Lock()
	p.catalogs[canonical] = entries
	p.mu.Unlock()

	p.logger.Info().Str("locale", canonical).Int("entries", len(entries)).Msg("Loaded catalog")
}

// LoadDir loads every <lang>.po file in dir. The language part may use
// hyphens or underscores ("pt-BR.po", "pt_BR.po").
func (p *StaticProvider) LoadDir(dir string) error {
	return p.LoadFS(os.DirFS(dir), ".")
}

// LoadFS loads every <lang>.po file in dir within fsys.
func (p *StaticProvider) LoadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("failed to read catalog directory: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".po") {
			continue
		}

		lang := strings.TrimSuffix(entry.Name(), ".po")

		catalog := gotext.NewPoFS(fsys)
		catalog.ParseFile(path.Join(dir, entry.Name()))
		p.add(lang, catalog)
		loaded++
	}

	if loaded == 0 {
		return fmt.Errorf("no .po catalogs found in %s", dir)
	}
	return nil
}

// Translate looks every text up in the target language's catalog.
func (p *StaticProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, &pagetrans.ProviderError{Message: "static translation cancelled", Cause: err}
	}

	p.mu.RLock()
	entries, ok := p.catalogs[pagetrans.NormalizeLanguage(req.TargetLang)]
	if !ok {
		entries, ok = p.catalogs[pagetrans.BaseLanguage(req.TargetLang)]
	}
	p.mu.RUnlock()

	if !ok {
		return nil, &pagetrans.ProviderError{Message: fmt.Sprintf("no catalog for %q", req.TargetLang)}
	}

	out := make([]string, len(req.Texts))
	for i, text := range req.Texts {
		if translated, found := entries[text]; found {
			out[i] = translated
		} else {
			out[i] = text
		}
	}

	return out, nil
}

// Languages returns the sorted codes that have a catalog.
func (p *StaticProvider) Languages(ctx context.Context) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	codes := make([]string, 0, len(p.catalogs))
	for code := range p.catalogs {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}

var (
	_ pagetrans.Provider       = (*StaticProvider)(nil)
	_ pagetrans.LanguageLister = (*StaticProvider)(nil)
)
