// Package config loads layered configuration for the dashboard: struct
// defaults, then an optional YAML file, then environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment overrides. Nested keys use a
// double underscore: CYCLO_SERVER__ADDR maps to server.addr.
const EnvPrefix = "CYCLO_"

// Config is the full application configuration.
type Config struct {
	Server ServerConfig `koanf:"server"`
	Data   DataConfig   `koanf:"data"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Addr           string `koanf:"addr"`
	MaxUploadBytes int64  `koanf:"max_upload_bytes"`
}

// DataConfig configures the on-disk dataset the server preloads.
type DataConfig struct {
	// File is the ride file loaded at startup and on watch events.
	// Empty means start from the bundled sample dataset.
	File  string `koanf:"file"`
	Watch bool   `koanf:"watch"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":5000",
			MaxUploadBytes: 16 << 20, // matches the documented upload cap
		},
		Data: DataConfig{
			File:  "",
			Watch: false,
		},
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and environment variables apply; a named but missing file is an
// error, so typos do not silently fall back.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	if c.Data.Watch && c.Data.File == "" {
		return fmt.Errorf("data.watch requires data.file to be set")
	}
	return nil
}
