// Package web exposes the recognition service over HTTP: people
// management, one-shot identification, the event log and a live SSE
// stream.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pvolek/facegate/internal/gallery"
	"github.com/pvolek/facegate/internal/loader"
	"github.com/pvolek/facegate/internal/monitor"
	"github.com/pvolek/facegate/internal/recognizer"
	"github.com/pvolek/facegate/internal/web/middleware"
)

// Deps are the service objects the handlers work against. Monitor may be
// nil when the server runs without a camera; everything else is required.
type Deps struct {
	Store    *recognizer.Store
	Registry *gallery.Registry
	Suggest  *gallery.SuggestIndex
	Pipeline *monitor.Pipeline
	Loader   *loader.Loader
	Matcher  *recognizer.Matcher
	History  *recognizer.History
	Events   *monitor.Broadcaster
	Monitor  *monitor.Monitor
}

// Server wraps the chi router and the HTTP server around the handlers.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
}

func NewServer(port int, host string, deps Deps) *Server {
	r := chi.NewRouter()

	s := &Server{router: r}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(5 * time.Minute))
	r.Use(middleware.CORS())

	s.setupRoutes(deps)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // long timeout for the SSE stream and uploads
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start runs the HTTP server until Shutdown.
func (s *Server) Start() error {
	slog.Info("web: server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("web: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
