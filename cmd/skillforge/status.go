// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SkillForge Contributors

package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/skillforge/skillforge/internal/store"
)

// SchemaStatus reports the migration state of the database.
type SchemaStatus struct {
	Version uint   `json:"version"`
	Name    string `json:"name,omitempty"`
	Dirty   bool   `json:"dirty"`
	Applied []uint `json:"applied"`
	Pending []uint `json:"pending"`
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show database schema status",
		Long:  `Show the current schema version and the applied and pending migrations.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, nil)
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return oops.Code("CONFIG_INVALID").
					Errorf("database.url is required (set SKILLFORGE_DATABASE_URL)")
			}
			return runStatus(cmd, cfg.Database.URL, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, databaseURL string, jsonOutput bool) error {
	m, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			slog.Error("migrator close failed", "error", closeErr)
		}
	}()

	status, err := collectSchemaStatus(m)
	if err != nil {
		return err
	}

	if jsonOutput {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return oops.With("operation", "marshal status").Wrap(err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Print(formatSchemaStatus(status))
	return nil
}

func collectSchemaStatus(m *store.Migrator) (*SchemaStatus, error) {
	version, dirty, err := m.Version()
	if err != nil {
		return nil, err
	}

	name := ""
	if version > 0 {
		if name, err = store.MigrationName(version); err != nil {
			return nil, err
		}
	}

	applied, err := m.AppliedMigrations()
	if err != nil {
		return nil, err
	}
	pending, err := m.PendingMigrations()
	if err != nil {
		return nil, err
	}

	return &SchemaStatus{
		Version: version,
		Name:    name,
		Dirty:   dirty,
		Applied: applied,
		Pending: pending,
	}, nil
}

func formatSchemaStatus(status *SchemaStatus) string {
	var buf []byte
	w := tabwriter.NewWriter((*byteWriter)(&buf), 0, 0, 2, ' ', 0)

	state := "clean"
	if status.Dirty {
		state = "DIRTY - manual repair required"
	}

	_, _ = fmt.Fprintf(w, "Version:\t%d\n", status.Version)
	if status.Name != "" {
		_, _ = fmt.Fprintf(w, "Migration:\t%s\n", status.Name)
	}
	_, _ = fmt.Fprintf(w, "State:\t%s\n", state)
	_, _ = fmt.Fprintf(w, "Applied:\t%d\n", len(status.Applied))
	_, _ = fmt.Fprintf(w, "Pending:\t%d\n", len(status.Pending))
	_ = w.Flush()
	return string(buf)
}

// byteWriter is a simple writer that appends to a byte slice.
type byteWriter []byte

func (w *byteWriter) Write(p []byte) (int, error) {
	*w = append(*w, p...)
	return len(p), nil
}
