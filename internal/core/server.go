// Package core provides the API chassis for the carbonview service. It
// creates the chi router, enforces cross-cutting concerns -- panic recovery,
// request correlation, logging, CORS -- and owns the translation of
// application errors into the service's fixed HTTP error surface.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"carbonview/internal/config"
)

// Server encapsulates the router and the dependencies shared by all
// handlers, allowing for easy injection during testing and distinct
// configuration for different environments.
type Server struct {
	Config *config.Config
	Logger *slog.Logger

	// RouteRegistrars is populated by the application entry point with the
	// domain handlers' route registration functions. This indirection avoids
	// import cycles between core and handler packages.
	RouteRegistrars []func(chi.Router)

	router *chi.Mux
}

// NewServer initializes the server chassis. The caller is responsible for
// appending RouteRegistrars and calling MountRoutes afterwards; this
// separation allows tests to customize route registration.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config: cfg,
		Logger: logger,
		router: chi.NewRouter(),
	}, nil
}

// Handler returns the http.Handler interface for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration in tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown performs a graceful termination of server resources. The pgx
// pool is closed by the entry point that opened it.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown complete")
	return nil
}
