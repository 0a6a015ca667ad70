// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SkillForge Contributors

// Package config loads the service configuration from defaults, an
// optional YAML file, environment variables, and command-line flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// envPrefix namespaces the environment variables this service reads,
// e.g. SKILLFORGE_JWT_SECRET maps to jwt.secret.
const envPrefix = "SKILLFORGE_"

// Config is the fully resolved service configuration.
type Config struct {
	Environment string `koanf:"environment"`

	HTTP struct {
		Addr string `koanf:"addr"`
	} `koanf:"http"`

	Observability struct {
		Addr string `koanf:"addr"`
	} `koanf:"observability"`

	Database struct {
		URL string `koanf:"url"`
	} `koanf:"database"`

	JWT struct {
		Secret string `koanf:"secret"`
	} `koanf:"jwt"`

	Reset struct {
		LinkBase string `koanf:"link_base"`
	} `koanf:"reset"`

	Log struct {
		Format string `koanf:"format"`
		Level  string `koanf:"level"`
	} `koanf:"log"`
}

func defaults() map[string]any {
	return map[string]any{
		"environment":        "development",
		"http.addr":          ":8080",
		"observability.addr": ":9090",
		"reset.link_base":    "http://localhost:3000/reset-password",
		"log.format":         "json",
		"log.level":          "info",
	}
}

// Load resolves the configuration. path points at an optional YAML
// file; a missing file is not an error unless the path was explicitly
// given. flags may be nil.
func Load(path string, explicitPath bool, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if explicitPath || !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	// SKILLFORGE_DATABASE_URL -> database.url, SKILLFORGE_JWT_SECRET -> jwt.secret
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// IsProduction reports whether the service runs in production mode.
// Production tightens behavior: reset tokens are never echoed in
// responses and the insecure JWT fallback refuses to start.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Validate checks invariants that would otherwise surface as runtime
// failures long after startup.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required (set SKILLFORGE_DATABASE_URL)"))
	}
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if c.IsProduction() && c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required in production (set SKILLFORGE_JWT_SECRET)"))
	}
	switch c.Log.Format {
	case "", "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or text, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
