// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SkillForge Contributors

package main

import (
	"context"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/skillforge/skillforge/internal/auth"
	authpg "github.com/skillforge/skillforge/internal/auth/postgres"
	"github.com/skillforge/skillforge/internal/config"
	"github.com/skillforge/skillforge/internal/httpapi"
	"github.com/skillforge/skillforge/internal/logging"
	"github.com/skillforge/skillforge/internal/notify"
	"github.com/skillforge/skillforge/internal/observability"
	"github.com/skillforge/skillforge/internal/store"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the auth HTTP service",
		Long: `Start the HTTP service exposing the /api/auth endpoints, plus a
separate observability listener for Prometheus metrics and health
probes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, cmd.Flags())
			if err != nil {
				return err
			}
			autoMigrate, err := cmd.Flags().GetBool("auto-migrate")
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, autoMigrate)
		},
	}

	cmd.Flags().String("http.addr", "", "HTTP listen address")
	cmd.Flags().String("observability.addr", "", "metrics/health listen address (empty = config default)")
	cmd.Flags().Bool("auto-migrate", false, "apply pending schema migrations before serving")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, autoMigrate bool) error {
	if err := cfg.Validate(); err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	logger := logging.Setup("skillforge", version, cfg.Log.Format, logging.ParseLevel(cfg.Log.Level), nil)

	tokens := auth.NewTokenService(cfg.JWT.Secret)
	if tokens.InsecureSecret() {
		if cfg.IsProduction() {
			return oops.Code("CONFIG_INVALID").
				Errorf("refusing to start in production without a JWT secret")
		}
		logger.Warn("JWT_SECRET not set, using insecure development fallback; " +
			"anyone can mint valid tokens")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if autoMigrate {
		if err := applyMigrations(cfg.Database.URL, logger); err != nil {
			return err
		}
	}

	pool, err := store.Connect(ctx, cfg.Database.URL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	users := authpg.NewUserRepository(pool)
	hasher := auth.NewArgon2idHasher()
	notifier, err := notify.NewLogSender(logger)
	if err != nil {
		return oops.Code("WIRING_FAILED").Wrap(err)
	}

	svc, err := auth.NewService(users, hasher, tokens, notifier, logger, cfg.Reset.LinkBase)
	if err != nil {
		return oops.Code("WIRING_FAILED").Wrap(err)
	}

	var ready atomic.Bool
	var obs *observability.Server
	var obsErrCh <-chan error
	if cfg.Observability.Addr != "" {
		obs = observability.NewServer(cfg.Observability.Addr, ready.Load)
		obsErrCh, err = obs.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").Wrap(err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if stopErr := obs.Stop(shutdownCtx); stopErr != nil {
				logger.Error("observability shutdown failed", "error", stopErr)
			}
		}()
	}

	var metrics *observability.Metrics
	if obs != nil {
		metrics = obs.Metrics()
	}

	api, err := httpapi.NewServer(httpapi.Config{
		Addr:       cfg.HTTP.Addr,
		Service:    svc,
		Users:      users,
		Tokens:     tokens,
		Metrics:    metrics,
		Logger:     logger,
		Production: cfg.IsProduction(),
	})
	if err != nil {
		return oops.Code("WIRING_FAILED").Wrap(err)
	}

	apiErrCh, err := api.Start()
	if err != nil {
		return oops.Code("HTTP_START_FAILED").Wrap(err)
	}
	ready.Store(true)
	logger.Info("skillforge serving",
		"http_addr", api.Addr(),
		"environment", cfg.Environment,
	)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr := <-apiErrCh:
		if serveErr != nil {
			return oops.Code("HTTP_SERVE_FAILED").Wrap(serveErr)
		}
	case obsErr := <-obsErrCh:
		if obsErr != nil {
			return oops.Code("OBSERVABILITY_SERVE_FAILED").Wrap(obsErr)
		}
	}

	ready.Store(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := api.Shutdown(shutdownCtx); err != nil {
		return oops.Code("HTTP_SHUTDOWN_FAILED").Wrap(err)
	}
	logger.Info("skillforge stopped")
	return nil
}
