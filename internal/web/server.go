// Package web exposes the matching pipeline over HTTP for callers that embed
// the matcher as a service instead of shelling out to the CLI.
package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/vitrio/glasses-match/internal/config"
	"github.com/vitrio/glasses-match/internal/match"
)

// Server represents the web server.
type Server struct {
	config     *config.Config
	matcher    *match.Matcher
	router     *chi.Mux
	httpServer *http.Server
}

// NewServer creates a new web server around a matcher.
func NewServer(cfg *config.Config, matcher *match.Matcher) *Server {
	r := chi.NewRouter()

	s := &Server{
		config:  cfg,
		matcher: matcher,
		router:  r,
	}

	r.Use(chiMiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(crashRecoverer)
	r.Use(chiMiddleware.Timeout(2 * time.Minute))

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/match", s.handleMatch)
	r.Get("/api/catalog", s.handleCatalog)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // uploads plus a full pipeline run
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	fmt.Fprintf(os.Stderr, "starting web server on %s\n", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	fmt.Fprintln(os.Stderr, "shutting down web server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// requestLogger assigns a request ID and logs each request to stderr, keeping
// stdout free for result documents when the binary runs in CLI mode too.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		start := time.Now()
		next.ServeHTTP(w, r)
		fmt.Fprintf(os.Stderr, "[%s] %s %s (%s)\n", id, r.Method, r.URL.Path, time.Since(start))
	})
}

// crashRecoverer converts panics into the structured crash_handler document
// so the transport always yields a parseable response.
func crashRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				fmt.Fprintf(os.Stderr, "panic serving %s: %v\n", r.URL.Path, rec)
				respondJSON(w, http.StatusOK, match.CrashResult(fmt.Errorf("%v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
