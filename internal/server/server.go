// Package server exposes type queries over HTTP as JSON.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/conduit-lang/typesystem/internal/logging"
)

// Server is the HTTP front end of the query API
type Server struct {
	httpServer *http.Server
	config     *Config
	listener   net.Listener
	logger     *zap.Logger
}

// Config holds server configuration
type Config struct {
	// Address is the listen address (e.g., "localhost:7070")
	Address string

	// Handler serves the requests, usually from NewHandler
	Handler http.Handler

	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ReadHeaderTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown in Run
	ShutdownTimeout time.Duration

	MaxHeaderBytes int
}

// DefaultConfig returns a server configuration with production timeouts
func DefaultConfig(address string, handler http.Handler) *Config {
	return &Config{
		Address:           address,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}
}

// New creates a server
func New(config *Config, logger *zap.Logger) (*Server, error) {
	if config == nil {
		return nil, fmt.Errorf("server config cannot be nil")
	}
	if config.Handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              config.Address,
			Handler:           config.Handler,
			ReadTimeout:       config.ReadTimeout,
			WriteTimeout:      config.WriteTimeout,
			IdleTimeout:       config.IdleTimeout,
			ReadHeaderTimeout: config.ReadHeaderTimeout,
			MaxHeaderBytes:    config.MaxHeaderBytes,
		},
		config: config,
		logger: logging.OrNop(logger),
	}, nil
}

// Listen binds the listen address. Addr reports the bound address afterwards.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener
	return nil
}

// Run serves until ctx is cancelled, then shuts down gracefully. It calls
// Listen when the server is not yet bound.
func (s *Server) Run(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", s.Addr()))
		if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server failed: %w", err)
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return <-errChan
}

// Close immediately closes the server
func (s *Server) Close() error {
	return s.httpServer.Close()
}

// Addr returns the server's network address
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Address
}
