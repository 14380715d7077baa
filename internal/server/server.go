// Package server provides the HTTP transport for the metered gateway.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ance-ai/metered-gateway/internal/auth"
	"github.com/ance-ai/metered-gateway/internal/gateway"
	"github.com/ance-ai/metered-gateway/internal/ledger"
)

// Server is the HTTP front of the gateway.
type Server struct {
	Router *chi.Mux
	Port   int
	logger *slog.Logger
	http   *http.Server
}

// Deps bundles everything the route handlers need.
type Deps struct {
	Credentials *auth.Credentials
	Tokens      *auth.TokenService
	AdminKey    *auth.AdminKey
	Ledger      *ledger.Ledger
	Gateway     *gateway.Gateway
}

// New builds the router with the full middleware chain and all routes.
func New(port int, timeout time.Duration, logger *slog.Logger, deps Deps) *Server {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(TimeoutMiddleware(timeout))
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "metered-gateway")
	})

	h := &handlers{deps: deps, logger: logger}

	r.Get("/healthz", h.handleHealthz)
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(deps.Tokens))
		r.Post("/chat", h.handleChat)
		r.Get("/usage", h.handleUsage)
	})

	if deps.AdminKey != nil && deps.AdminKey.Enabled() {
		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminKeyMiddleware(deps.AdminKey))
			r.Get("/stats", h.handleAdminStats)
			r.Post("/accounts/{account_id}/cycle", h.handleAdminRenewCycle)
		})
	}

	return &Server{
		Router: r,
		Port:   port,
		logger: logger,
		http: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		},
	}
}

// Start blocks serving HTTP on the configured port. It returns nil after a
// graceful Shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting server", slog.Int("port", s.Port))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight requests
// to finish, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
