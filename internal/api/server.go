// Package api exposes a composed log view over HTTP: windowed line
// queries, property snapshots and an SSE stream of modifications.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Host string
	Port int
}

// Server represents the HTTP API server
type Server struct {
	config     ServerConfig
	router     *chi.Mux
	httpServer *http.Server
	handlers   *Handlers
	mu         sync.Mutex
}

// NewServer creates a new API server
func NewServer(config ServerConfig, handlers *Handlers) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s := &Server{
		config:   config,
		router:   r,
		handlers: handlers,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", s.handlers.Health)
		r.Get("/properties", s.handlers.GetProperties)
		r.Get("/lines", s.handlers.GetLines)
		r.Get("/lines/stream", s.handlers.StreamLines)
	})
}

// Router returns the server's router, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Addr returns the address the server binds to
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Start begins serving; it blocks until the server stops
func (s *Server) Start() error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
