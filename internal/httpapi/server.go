// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SkillForge Contributors

package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/skillforge/skillforge/internal/auth"
	"github.com/skillforge/skillforge/internal/observability"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
)

// Server is the public HTTP front end. It owns the router, the
// middleware chain, and the listener lifecycle; all business logic
// lives in the auth service.
type Server struct {
	svc        *auth.Service
	users      auth.UserRepository
	tokens     *auth.TokenService
	metrics    *observability.Metrics
	logger     *slog.Logger
	production bool

	addr     string
	httpSrv  *http.Server
	listener net.Listener
	running  atomic.Bool
}

// Config carries the Server's dependencies. Metrics may be nil.
type Config struct {
	Addr       string
	Service    *auth.Service
	Users      auth.UserRepository
	Tokens     *auth.TokenService
	Metrics    *observability.Metrics
	Logger     *slog.Logger
	Production bool
}

// NewServer creates a Server. Service, Users, Tokens, and Logger are
// required.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Service == nil {
		return nil, errors.New("auth service is required")
	}
	if cfg.Users == nil {
		return nil, errors.New("user repository is required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("token service is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Server{
		svc:        cfg.Service,
		users:      cfg.Users,
		tokens:     cfg.Tokens,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		production: cfg.Production,
		addr:       cfg.Addr,
	}, nil
}

// Routes builds the router. Exposed separately so tests can drive the
// full middleware chain through httptest without a listener.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/forgot-password", s.handleForgotPassword)
		r.Post("/reset-password", s.handleResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(s.Authenticate)
			r.Post("/refresh", s.handleRefresh)
			r.Post("/logout", s.handleLogout)
			r.Get("/me", s.handleMe)
		})
	})

	return r
}

// Start binds the listener and serves in a background goroutine. The
// returned channel reports a serve failure and is closed on shutdown.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, errors.New("server already running")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	s.httpSrv = &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		s.logger.Info("http server listening", "addr", ln.Addr().String())
		if serveErr := s.httpSrv.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()
	return errCh, nil
}

// Addr returns the bound listen address, empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown drains in-flight requests until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	s.logger.Info("http server shutting down")
	return s.httpSrv.Shutdown(ctx)
}
