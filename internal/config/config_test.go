// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SkillForge Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillforge/skillforge/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("", false, nil)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, ":9090", cfg.Observability.Addr)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skillforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: production
http:
  addr: ":4000"
database:
  url: "postgres://app@db/skillforge"
jwt:
  secret: "file-secret"
log:
  format: text
  level: debug
`), 0o600))

	cfg, err := config.Load(path, true, nil)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, ":4000", cfg.HTTP.Addr)
	assert.Equal(t, "postgres://app@db/skillforge", cfg.Database.URL)
	assert.Equal(t, "file-secret", cfg.JWT.Secret)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), true, nil)
	require.Error(t, err)
}

func TestLoad_ImplicitMissingFileIgnored(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), false, nil)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skillforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jwt:\n  secret: file-secret\n"), 0o600))

	t.Setenv("SKILLFORGE_JWT_SECRET", "env-secret")
	t.Setenv("SKILLFORGE_DATABASE_URL", "postgres://env@db/skillforge")

	cfg, err := config.Load(path, true, nil)
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, "postgres://env@db/skillforge", cfg.Database.URL)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("SKILLFORGE_HTTP_ADDR", ":5000")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("http.addr", "", "")
	require.NoError(t, flags.Parse([]string{"--http.addr=:6000"}))

	cfg, err := config.Load("", false, flags)
	require.NoError(t, err)

	assert.Equal(t, ":6000", cfg.HTTP.Addr)
}

func TestValidate(t *testing.T) {
	t.Run("missing database url", func(t *testing.T) {
		cfg, err := config.Load("", false, nil)
		require.NoError(t, err)

		err = cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.url")
	})

	t.Run("production requires jwt secret", func(t *testing.T) {
		cfg, err := config.Load("", false, nil)
		require.NoError(t, err)
		cfg.Environment = "production"
		cfg.Database.URL = "postgres://app@db/skillforge"

		err = cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret")
	})

	t.Run("valid", func(t *testing.T) {
		cfg, err := config.Load("", false, nil)
		require.NoError(t, err)
		cfg.Database.URL = "postgres://app@db/skillforge"

		assert.NoError(t, cfg.Validate())
	})

	t.Run("bad log format", func(t *testing.T) {
		cfg, err := config.Load("", false, nil)
		require.NoError(t, err)
		cfg.Database.URL = "postgres://app@db/skillforge"
		cfg.Log.Format = "xml"

		require.Error(t, cfg.Validate())
	})
}
