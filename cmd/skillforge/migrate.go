// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SkillForge Contributors

package main

import (
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/skillforge/skillforge/internal/store"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	var down bool
	var force int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database schema migrations",
		Long: `Apply pending schema migrations against the PostgreSQL database.
With --down, roll back all migrations (destroys all data). With
--force, set the schema version without running migrations; use only
to recover from a dirty state.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, nil)
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return oops.Code("CONFIG_INVALID").
					Errorf("database.url is required (set SKILLFORGE_DATABASE_URL)")
			}

			m, err := store.NewMigrator(cfg.Database.URL)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := m.Close(); closeErr != nil {
					slog.Error("migrator close failed", "error", closeErr)
				}
			}()

			switch {
			case cmd.Flags().Changed("force"):
				if err := m.Force(force); err != nil {
					return err
				}
				cmd.Printf("Schema version forced to %d\n", force)
			case down:
				if err := m.Down(); err != nil {
					return err
				}
				cmd.Println("All migrations rolled back")
			default:
				if err := m.Up(); err != nil {
					return err
				}
				cmd.Println("Migrations completed successfully")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "roll back all migrations (destructive)")
	cmd.Flags().IntVar(&force, "force", 0, "set schema version without running migrations")

	return cmd
}

// applyMigrations runs all pending migrations, used by serve --auto-migrate.
func applyMigrations(databaseURL string, logger *slog.Logger) error {
	m, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			logger.Error("migrator close failed", "error", closeErr)
		}
	}()

	pending, err := m.PendingMigrations()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		logger.Info("schema up to date")
		return nil
	}

	logger.Info("applying schema migrations", "pending", len(pending))
	return m.Up()
}
