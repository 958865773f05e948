package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ignite/dispatch/internal/config"
	"github.com/ignite/dispatch/internal/pkg/logger"
)

// Server is the HTTP front door. It owns the listener lifecycle; routing
// lives in SetupRoutes.
type Server struct {
	cfg      config.ServerConfig
	handlers *Handlers
	server   *http.Server
}

// NewServer creates the API server around the given handlers.
func NewServer(cfg config.ServerConfig, handlers *Handlers) *Server {
	return &Server{
		cfg:      cfg,
		handlers: handlers,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      SetupRoutes(handlers),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start blocks serving HTTP until the listener closes.
func (s *Server) Start() error {
	logger.Info("API server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
