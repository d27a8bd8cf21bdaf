// Package server exposes the MCP dispatcher and the container operations over HTTP.
package server

import (
	"context"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/mensylisir/dockmcp/pkg/common"
	"github.com/mensylisir/dockmcp/pkg/logger"
	"github.com/mensylisir/dockmcp/pkg/mcp"
	"github.com/mensylisir/dockmcp/rest/server/handler"
)

// APIServer represents the HTTP server.
type APIServer struct {
	log    *logger.Logger
	config *Config
	mcp    *mcp.Server
	app    *fiber.App

	// sessions opened over HTTP live until DELETE /mcp or shutdown
	base   context.Context
	cancel context.CancelFunc
}

// Config holds configuration for the APIServer.
type Config struct {
	ListenAddress   string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// NewDefaultConfig creates a default configuration for the server. The write timeout must
// cover the longest exec.
func NewDefaultConfig() *Config {
	return &Config{
		ListenAddress:   common.DefaultListenAddress,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    6 * time.Minute,
		ShutdownTimeout: 10 * time.Second,
	}
}

// NewAPIServer creates a new APIServer instance.
func NewAPIServer(cfg *Config, svc handler.Service, mcpServer *mcp.Server, log *logger.Logger) *APIServer {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if log == nil {
		log = logger.Get()
	}
	log = log.With("component", "api-server")
	base, cancel := context.WithCancel(context.Background())
	return &APIServer{
		log:    log,
		config: cfg,
		mcp:    mcpServer,
		app:    SetupRouter(base, cfg, svc, mcpServer, log),
		base:   base,
		cancel: cancel,
	}
}

// App returns the underlying fiber application, mainly for app.Test.
func (s *APIServer) App() *fiber.App {
	return s.app
}

// Run serves until ctx is done, then shuts down gracefully within the shutdown timeout.
func (s *APIServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.config.ListenAddress)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *APIServer) Serve(ctx context.Context, ln net.Listener) error {
	serveErr := make(chan error, 1)
	go func() {
		s.log.Infof("API server listening on %s", ln.Addr())
		serveErr <- s.app.Listener(ln)
	}()

	select {
	case err := <-serveErr:
		s.cancel()
		if err != nil {
			return errors.Wrap(err, "API server stopped")
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Infof("API server shutting down...")
	// in-flight operations are cancelled first so exec does not hold up the shutdown
	s.cancel()
	s.mcp.Sessions().CloseAll()
	if err := s.app.ShutdownWithTimeout(s.config.ShutdownTimeout); err != nil {
		s.log.Errorf("API server graceful shutdown failed: %v", err)
		return errors.Wrap(err, "API server shutdown failed")
	}
	s.log.Infof("API server shutdown complete.")
	return nil
}
