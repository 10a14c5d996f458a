package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/yuzvak/salesboard-service/internal/application/ports"
	"github.com/yuzvak/salesboard-service/internal/config"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/auth"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/http/handlers"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/http/middleware"
	"github.com/yuzvak/salesboard-service/internal/pkg/generator"
	"github.com/yuzvak/salesboard-service/internal/pkg/logger"
)

// Dependencies are the handlers and request-scoped services the router wires up.
type Dependencies struct {
	Cart      *handlers.CartHandler
	Checkout  *handlers.CheckoutHandler
	Inventory *handlers.InventoryHandler
	Sales     *handlers.SalesHandler
	Health    *handlers.HealthHandler

	Sessions       ports.SessionStore
	SessionOptions middleware.SessionOptions
	IDs            generator.IDGenerator
	Tokens         *auth.Tokens
}

type Server struct {
	server         *http.Server
	deps           Dependencies
	logger         *logger.Logger
	requestTimeout time.Duration
}

func NewServer(cfg config.ServerConfig, deps Dependencies, log *logger.Logger) *Server {
	s := &Server{
		deps:           deps,
		logger:         log,
		requestTimeout: cfg.WriteTimeout.Duration,
	}

	s.server = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.setupRoutes(),
		ReadTimeout:  cfg.ReadTimeout.Duration,
		WriteTimeout: cfg.WriteTimeout.Duration + time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("Starting HTTP server", "address", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
