// Package gateway exposes the workflow engine over HTTP. Front ends (chat
// bridges, the CLI) speak this surface; the gateway translates transport
// concerns into engine calls and maps the engine's error taxonomy onto
// status codes.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"payflow/internal/dedup"
	"payflow/internal/logging"
	"payflow/internal/workflow"
)

// Server serves the HTTP API.
type Server struct {
	bind    string
	logger  *slog.Logger
	engine  *workflow.Engine
	dedup   *dedup.Store
	router  chi.Router
	started time.Time

	listener net.Listener
	server   *http.Server
}

// Options configures the server.
type Options struct {
	Bind  string
	Token string
}

// New builds the server and its routes. The dedup store is optional; without
// it replayed deliveries create duplicate requests.
func New(opts Options, engine *workflow.Engine, dedupStore *dedup.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	srv := &Server{
		bind:    strings.TrimSpace(opts.Bind),
		logger:  logger,
		engine:  engine,
		dedup:   dedupStore,
		started: time.Now(),
	}

	router := chi.NewRouter()
	router.Use(correlationMiddleware)
	router.Use(loggingMiddleware(logger))
	router.Use(metricsMiddleware)

	router.Get("/healthz", srv.handleHealth)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware(opts.Token))
		r.Post("/requests", srv.handleSubmit)
		r.Get("/requests", srv.handleList)
		r.Get("/requests/{code}", srv.handleGet)
		r.Post("/requests/{code}/decision", srv.handleDecision)
		r.Post("/requests/{code}/withdraw", srv.handleWithdraw)
	})
	srv.router = router

	srv.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving. The listener is bound synchronously so callers see
// bind failures immediately; serving continues until Stop or ctx cancel.
func (s *Server) Start(ctx context.Context) error {
	if s.bind == "" {
		return fmt.Errorf("gateway bind address is empty")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("gateway listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("gateway server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("gateway listening", slog.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address, or empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}
