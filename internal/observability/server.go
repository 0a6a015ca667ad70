// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SkillForge Contributors

// Package observability provides HTTP endpoints for metrics and health
// probes, plus the Prometheus counters the auth handlers record into.
package observability

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
)

// ReadinessChecker returns whether the service is ready to accept connections.
type ReadinessChecker func() bool

// Metrics contains the custom Prometheus counters for the auth surface.
// A nil *Metrics is safe to record into; all methods no-op.
type Metrics struct {
	RegistrationsTotal prometheus.Counter
	LoginsTotal        *prometheus.CounterVec
	TokenRefreshes     prometheus.Counter
	PasswordResets     *prometheus.CounterVec
	RequestsTotal      *prometheus.CounterVec
}

// NewMetrics creates and registers the auth counters.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RegistrationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skillforge_registrations_total",
			Help: "Total number of successful account registrations",
		}),
		LoginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillforge_logins_total",
			Help: "Total number of login attempts by outcome",
		}, []string{"outcome"}),
		TokenRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skillforge_token_refreshes_total",
			Help: "Total number of session token refreshes",
		}),
		PasswordResets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillforge_password_resets_total",
			Help: "Total number of password reset operations by phase",
		}, []string{"phase"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillforge_http_requests_total",
			Help: "Total number of HTTP requests by path and status",
		}, []string{"path", "status"}),
	}

	reg.MustRegister(
		m.RegistrationsTotal,
		m.LoginsTotal,
		m.TokenRefreshes,
		m.PasswordResets,
		m.RequestsTotal,
	)
	return m
}

// RecordRegistration counts one successful registration.
func (m *Metrics) RecordRegistration() {
	if m == nil {
		return
	}
	m.RegistrationsTotal.Inc()
}

// RecordLogin counts one login attempt with outcome "success" or "failure".
func (m *Metrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(outcome).Inc()
}

// RecordTokenRefresh counts one session token refresh.
func (m *Metrics) RecordTokenRefresh() {
	if m == nil {
		return
	}
	m.TokenRefreshes.Inc()
}

// RecordPasswordReset counts one reset operation with phase "requested"
// or "completed".
func (m *Metrics) RecordPasswordReset(phase string) {
	if m == nil {
		return
	}
	m.PasswordResets.WithLabelValues(phase).Inc()
}

// RecordRequest counts one HTTP request.
func (m *Metrics) RecordRequest(path, status string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(path, status).Inc()
}

// Server provides HTTP endpoints for observability (metrics and health probes).
type Server struct {
	addr       string
	listener   net.Listener
	httpServer *http.Server
	registry   *prometheus.Registry
	metrics    *Metrics
	isReady    ReadinessChecker
	running    atomic.Bool
}

// NewServer creates a new observability server listening on addr.
func NewServer(addr string, readinessChecker ReadinessChecker) *Server {
	// Own registry to avoid polluting the global one.
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Server{
		addr:     addr,
		registry: registry,
		metrics:  NewMetrics(registry),
		isReady:  readinessChecker,
	}
}

// Metrics returns the custom metrics for recording application events.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Start begins serving observability endpoints. It returns an error
// channel that receives any error from the HTTP server after it starts;
// the channel is closed when the server stops gracefully.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("observability server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/healthz/liveness", s.handleLiveness)
	mux.HandleFunc("/healthz/readiness", s.handleReadiness)

	httpSrv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			slog.Error("observability server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	slog.Info("observability server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the observability server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown observability server").Wrap(err)
		}
	}

	slog.Info("observability server stopped")
	return nil
}

// Addr returns the address the server is listening on, or empty if not
// running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // health check write error is acceptable, client may disconnect
	w.Write([]byte("ok\n"))
}

func (s *Server) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.isReady != nil && !s.isReady() {
		w.WriteHeader(http.StatusServiceUnavailable)
		//nolint:errcheck // health check write error is acceptable
		w.Write([]byte("not ready\n"))
		return
	}
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // health check write error is acceptable
	w.Write([]byte("ok\n"))
}
