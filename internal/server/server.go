// Package server exposes a generated search index over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kamusis/docindex-cli/internal/concept"
	"github.com/kamusis/docindex-cli/internal/search"
	"github.com/kamusis/docindex-cli/internal/searchdata"
)

const (
	defaultLimit = 20
	maxLimit     = 200
)

// Option configures a Server.
type Option func(*Server)

// WithConcepts enables GET /concepts backed by e.
func WithConcepts(e *concept.Extractor) Option {
	return func(s *Server) { s.concepts = e }
}

// Server serves one index directory. The loaded index is immutable; Reload
// swaps it for a freshly loaded one.
type Server struct {
	dir      string
	concepts *concept.Extractor

	mu       sync.RWMutex
	idx      *searchdata.Index
	manifest *searchdata.Manifest
	loadedAt time.Time

	engine *gin.Engine
}

// New loads the index directory dir and builds the router.
func New(dir string, opts ...Option) (*Server, error) {
	s := &Server{dir: dir}
	for _, o := range opts {
		o(s)
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	s.engine = s.routes()
	return s, nil
}

// Reload re-reads the index directory. On failure the current index keeps
// being served.
func (s *Server) Reload() error {
	idx, m, err := searchdata.LoadDir(s.dir)
	if err != nil {
		indexReloads.WithLabelValues("error").Inc()
		return fmt.Errorf("cannot load index: %w", err)
	}
	s.mu.Lock()
	s.idx, s.manifest, s.loadedAt = idx, m, time.Now()
	s.mu.Unlock()

	indexReloads.WithLabelValues("ok").Inc()
	indexEntries.Set(float64(len(idx.Entries)))
	slog.Info("index loaded", "dir", s.dir, "entries", len(idx.Entries), "input_hash", m.InputHash)
	return nil
}

func (s *Server) snapshot() (*searchdata.Index, *searchdata.Manifest, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx, s.manifest, s.loadedAt
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		slog.Info("serving", "addr", addr, "dir", s.dir)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", s.handleHealth)
	r.GET("/search", s.handleSearch)
	r.GET("/search/:file", s.handleFile)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if s.concepts != nil {
		r.GET("/concepts", s.handleConcepts)
	}
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status    string    `json:"status"`
	Entries   int       `json:"entries"`
	InputHash string    `json:"input_hash"`
	LoadedAt  time.Time `json:"loaded_at"`
}

func (s *Server) handleHealth(c *gin.Context) {
	idx, m, at := s.snapshot()
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Entries:   len(idx.Entries),
		InputHash: m.InputHash,
		LoadedAt:  at,
	})
}

// SearchResponse is returned by GET /search.
type SearchResponse struct {
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
}

func (s *Server) handleSearch(c *gin.Context) {
	start := time.Now()
	defer func() { searchDuration.Observe(time.Since(start).Seconds()) }()

	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		searchRequests.WithLabelValues(outcomeBadRequest).Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}
	limit := defaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			searchRequests.WithLabelValues(outcomeBadRequest).Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxLimit)
	}

	idx, _, _ := s.snapshot()
	results := search.KeywordSearch(idx, q, limit)
	outcome := outcomeHit
	if len(results) == 0 {
		outcome = outcomeMiss
	}
	searchRequests.WithLabelValues(outcome).Inc()
	c.JSON(http.StatusOK, SearchResponse{Query: q, Results: results})
}

// handleFile serves one generated JS file. Only files listed in the
// manifest are reachable.
func (s *Server) handleFile(c *gin.Context) {
	name := c.Param("file")
	_, m, _ := s.snapshot()
	if _, ok := m.Files[name]; !ok || name != filepath.Base(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such index file"})
		return
	}
	c.Header("Content-Type", "application/javascript; charset=utf-8")
	c.File(filepath.Join(s.dir, name))
}

// ConceptsResponse is returned by GET /concepts.
type ConceptsResponse struct {
	Text     string   `json:"text"`
	Concepts []string `json:"concepts"`
}

func (s *Server) handleConcepts(c *gin.Context) {
	text := c.Query("text")
	if strings.TrimSpace(text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter text"})
		return
	}
	c.JSON(http.StatusOK, ConceptsResponse{Text: text, Concepts: s.concepts.Extract(text)})
}
