// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SkillForge Contributors

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/skillforge/skillforge/internal/config"
)

// defaultConfigFile is probed when --config is not given; its absence
// is then not an error.
const defaultConfigFile = "skillforge.yaml"

// NewRootCmd creates the root command for the SkillForge CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skillforge",
		Short: "SkillForge - account and session service",
		Long: `SkillForge is the account service for the SkillForge learning
platform: registration, login, JWT session tokens, and the
password-reset flow, backed by PostgreSQL.`,
	}

	cmd.PersistentFlags().String("config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}

// resolveConfig loads the configuration for a subcommand, honoring the
// persistent --config flag. extraFlags may be nil; when given they take
// precedence over file and environment values.
func resolveConfig(cmd *cobra.Command, extraFlags *pflag.FlagSet) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}
	return config.Load(path, explicit, extraFlags)
}
