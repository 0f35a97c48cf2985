// Package server exposes the live report and its period bundles over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/j-veylop/blockrun-report/internal/logger"
	"github.com/j-veylop/blockrun-report/internal/services"
)

const (
	pageKey    = "page"
	periodsKey = "periods"
)

// Options configures a Server.
type Options struct {
	// CacheTTL bounds how long a generated report is served before the
	// logs are read again. Zero keeps it until Invalidate.
	CacheTTL time.Duration
	// CacheBytes caps the response cache. Zero uses a default.
	CacheBytes int64
}

// Server serves the report generated by a Manager.
type Server struct {
	manager  *services.Manager
	renderer services.Renderer
	cache    *pageCache
	ttl      time.Duration
	now      func() time.Time

	mu     sync.Mutex
	report *services.Report
	stale  bool
	// gen counts invalidations. Responses built from an older generation
	// are not cached.
	gen uint64
}

// New creates a server over m. Pages are rendered with r.
func New(m *services.Manager, r services.Renderer, opts Options) (*Server, error) {
	if r == nil {
		return nil, errors.New("no renderer configured")
	}
	cache, err := newPageCache(opts.CacheBytes, opts.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return &Server{
		manager:  m,
		renderer: r,
		cache:    cache,
		ttl:      opts.CacheTTL,
		now:      time.Now,
	}, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/", s.getPage)
	r.Get("/healthz", s.getHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/periods", s.listPeriods)
		r.Get("/periods/{id}", s.getPeriod)
	})
	return r
}

// Invalidate drops cached responses. The next request regenerates the
// report from the source.
func (s *Server) Invalidate() {
	s.mu.Lock()
	s.stale = true
	s.gen++
	s.cache.clear()
	s.mu.Unlock()
	logger.Debug("report cache invalidated")
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases the cache.
func (s *Server) Close() {
	s.cache.close()
}

// current returns the report to serve and the generation it belongs to,
// regenerating it when it was invalidated or has outlived the cache TTL.
func (s *Server) current() (*services.Report, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.report != nil && !s.stale {
		if s.ttl <= 0 || s.now().Sub(s.report.GeneratedAt) < s.ttl {
			return s.report, s.gen, nil
		}
	}

	rep, err := s.manager.Generate()
	if err != nil {
		return nil, 0, err
	}
	s.report = rep
	s.stale = false
	return rep, s.gen, nil
}

// store caches body unless the cache was invalidated after gen.
func (s *Server) store(gen uint64, key string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		logger.Debug("discarding response built before invalidation", "key", key)
		return
	}
	s.cache.set(key, body)
}

func (s *Server) getPage(w http.ResponseWriter, _ *http.Request) {
	body, ok := s.cache.get(pageKey)
	if !ok {
		rep, gen, err := s.current()
		if err != nil {
			writeInternalError(w, err)
			return
		}
		var buf bytes.Buffer
		if err := s.renderer.Render(&buf, rep); err != nil {
			writeInternalError(w, err)
			return
		}
		body = buf.Bytes()
		s.store(gen, pageKey, body)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		logger.Debug("failed to write page", "error", err)
	}
}

// periodSummary is one entry of the period list.
type periodSummary struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Global      bool    `json:"global"`
	Empty       bool    `json:"empty"`
	Requests    int     `json:"requests"`
	Cost        float64 `json:"cost"`
	SavingsRate float64 `json:"savingsRate"`
}

func summarize(sec services.Section) periodSummary {
	ps := periodSummary{
		ID:     sec.ID(),
		Label:  sec.Label(),
		Global: sec.Scope.Global,
		Empty:  sec.Empty || sec.Bundle == nil,
	}
	if !ps.Empty {
		ps.Requests = sec.Bundle.TotalRequests
		ps.Cost = sec.Bundle.TotalCost
		ps.SavingsRate = sec.Bundle.SavingsRate
	}
	return ps
}

func (s *Server) listPeriods(w http.ResponseWriter, _ *http.Request) {
	s.serveJSON(w, periodsKey, func(rep *services.Report) (any, bool) {
		out := make([]periodSummary, 0, len(rep.Days)+1)
		for _, sec := range rep.Sections() {
			out = append(out, summarize(sec))
		}
		return out, true
	})
}

func (s *Server) getPeriod(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	s.serveJSON(w, "period:"+id, func(rep *services.Report) (any, bool) {
		sec, ok := rep.Find(id)
		if !ok {
			return nil, false
		}
		if sec.Empty || sec.Bundle == nil {
			return summarize(sec), true
		}
		return sec.Bundle, true
	})
}

// serveJSON answers from the cache or builds the payload from the current
// report. build reports false when the resource does not exist.
func (s *Server) serveJSON(w http.ResponseWriter, key string, build func(*services.Report) (any, bool)) {
	if body, ok := s.cache.get(key); ok {
		writeRawJSON(w, http.StatusOK, body)
		return
	}

	rep, gen, err := s.current()
	if err != nil {
		writeInternalError(w, err)
		return
	}
	payload, ok := build(rep)
	if !ok {
		writeError(w, http.StatusNotFound, "period not found")
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	s.store(gen, key, body)
	writeRawJSON(w, http.StatusOK, body)
}

func (s *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	type healthStatus struct {
		Status      string `json:"status"`
		Source      string `json:"source"`
		RunID       string `json:"run"`
		GeneratedAt string `json:"generatedAt,omitempty"`
	}

	status := healthStatus{
		Status: "ok",
		Source: s.manager.Source().Describe(),
		RunID:  s.manager.RunID(),
	}
	if last := s.manager.Last(); last != nil {
		status.GeneratedAt = last.GeneratedAt.Format(time.RFC3339)
	}

	writeJSON(w, http.StatusOK, status)
}
