// Package api provides the HTTP REST API for Stencil.
//
// It exposes authentication, user and role administration, file upload,
// and reporting endpoints.
//
// The server follows the same lifecycle pattern as the infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danharte/stencil/internal/account"
	"github.com/danharte/stencil/internal/auth"
	"github.com/danharte/stencil/internal/file"
	"github.com/danharte/stencil/internal/infrastructure/config"
	"github.com/danharte/stencil/internal/infrastructure/database"
	"github.com/danharte/stencil/internal/infrastructure/logging"
	"github.com/danharte/stencil/internal/repository"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	DB       *database.DB
	Auth     *auth.Service
	Resolver *auth.Resolver
	Accounts *account.Service
	Files    *file.Service
	Reports  *repository.Executor
	Version  string
}

// Server is the HTTP API server for Stencil.
//
// It manages the HTTP listener, routes, and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg      config.APIConfig
	logger   *logging.Logger
	db       *database.DB
	auth     *auth.Service
	resolver *auth.Resolver
	accounts *account.Service
	files    *file.Service
	reports  *repository.Executor
	version  string
	server   *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	if deps.Auth == nil || deps.Resolver == nil {
		return nil, fmt.Errorf("auth service and resolver are required")
	}
	if deps.Accounts == nil {
		return nil, fmt.Errorf("account service is required")
	}
	if deps.Files == nil {
		return nil, fmt.Errorf("file service is required")
	}
	if deps.Reports == nil {
		return nil, fmt.Errorf("report executor is required")
	}

	return &Server{
		cfg:      deps.Config,
		logger:   deps.Logger,
		db:       deps.DB,
		auth:     deps.Auth,
		resolver: deps.Resolver,
		accounts: deps.Accounts,
		files:    deps.Files,
		reports:  deps.Reports,
		version:  deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// The listener runs in a background goroutine; stop it with Close().
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
