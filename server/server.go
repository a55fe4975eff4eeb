// Package server exposes the translation engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/cybersafe-india/pagetrans"
	"github.com/cybersafe-india/pagetrans/dom"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Response headers set by POST /v1/translate.
const (
	HeaderCount   = "X-Translated-Count"
	HeaderStatus  = "X-Translation-Status"
	HeaderTraceID = "X-Trace-Id"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes = 5 << 20

// Server serves translation requests. Every request gets its own document,
// so concurrent requests never contend for a page.
type Server struct {
	engine  *pagetrans.Engine
	logger  zerolog.Logger
	maxBody int64
	domOpts []dom.Option
	router  chi.Router
}

// Option is a functional option for configuring the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMaxBodyBytes limits the size of request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithDocumentOptions sets the options used to parse submitted HTML.
func WithDocumentOptions(opts ...dom.Option) Option {
	return func(s *Server) {
		s.domOpts = opts
	}
}

// New creates a Server backed by engine.
func New(engine *pagetrans.Engine, opts ...Option) *Server {
	s := &Server{
		engine:  engine,
		logger:  log.With().Str("sys", "http").Logger(),
		maxBody: DefaultMaxBodyBytes,
	}

	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/translate", s.handleTranslate)
		r.Post("/detect", s.handleDetect)
		r.Get("/languages", s.handleLanguages)
		r.Get("/cache/stats", s.handleCacheStats)
		r.Delete("/cache", s.handleCacheClear)
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info().Msg("Shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Str("request_id", middleware.GetReqID(r.Context())).
			Dur("elapsed", time.Since(start)).
			Msg("Request")
	})
}

// handleTranslate translates the HTML body into ?lang= and returns it.
// POST /v1/translate?lang=hi[&fragment=true][&selector=main]
func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		writeError(w, http.StatusBadRequest, "lang query parameter required")
		return
	}

	opts := s.domOpts
	if selector := r.URL.Query().Get("selector"); selector != "" {
		opts = append(opts[:len(opts):len(opts)], dom.WithScope(selector))
	}

	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	doc, err := dom.Parse(body, opts...)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid HTML")
		return
	}
	defer s.engine.Forget(doc)

	result, err := s.engine.TranslatePage(r.Context(), doc, lang)
	if err != nil {
		s.logger.Error().Err(err).Str("lang", lang).Msg("Translation failed")
		writeError(w, http.StatusInternalServerError, "translation failed")
		return
	}

	var out string
	if r.URL.Query().Get("fragment") == "true" {
		out, err = doc.BodyHTML()
	} else {
		out, err = doc.HTML()
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to serialize document")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set(HeaderCount, strconv.Itoa(result.Count))
	w.Header().Set(HeaderStatus, string(result.Status))
	if result.TraceID != "" {
		w.Header().Set(HeaderTraceID, result.TraceID)
	}
	_, _ = w.Write([]byte(out))
}

type detectRequest struct {
	Text string `json:"text"`
}

type detectResponse struct {
	Language string  `json:"language"`
	Score    float64 `json:"score"`
}

// POST /v1/detect
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text required")
		return
	}

	detection, ok := s.engine.Client().DetectLanguage(r.Context(), req.Text)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "language detection unavailable")
		return
	}

	writeJSON(w, http.StatusOK, detectResponse{Language: detection.Language, Score: detection.Score})
}

type languagesResponse struct {
	Source    string   `json:"source"` // "provider" or "builtin"
	Languages []string `json:"languages"`
}

// handleLanguages lists the provider's catalog, falling back to the
// languages the site offers when the provider cannot say.
// GET /v1/languages
func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	if codes, ok := s.engine.Client().SupportedLanguages(r.Context()); ok {
		writeJSON(w, http.StatusOK, languagesResponse{Source: "provider", Languages: codes})
		return
	}

	codes := make([]string, len(pagetrans.SupportedLanguages))
	for i, l := range pagetrans.SupportedLanguages {
		codes[i] = l.Code
	}
	writeJSON(w, http.StatusOK, languagesResponse{Source: "builtin", Languages: codes})
}

// GET /v1/cache/stats
func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.CacheStats()
	if err != nil {
		s.logger.Error().Err(err).Msg("Cache stats failed")
		writeError(w, http.StatusInternalServerError, "cache unavailable")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// DELETE /v1/cache
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.ClearCache(); err != nil {
		s.logger.Error().Err(err).Msg("Cache clear failed")
		writeError(w, http.StatusInternalServerError, "cache unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type healthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Translation bool   `json:"translation"`
}

// GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Version:     pagetrans.FullVersion(),
		Translation: s.engine.Client().Enabled(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
