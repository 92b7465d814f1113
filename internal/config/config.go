// Package config loads stegoscan's configuration from (in increasing
// precedence) a YAML file, STEGO_-prefixed environment variables, and
// command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/spf13/pflag"
)

const envPrefix = "STEGO_"

// Config is the process-wide configuration for the stegoscan CLI and
// REST server.
type Config struct {
	ListenAddr      string `koanf:"listen_addr"`
	DatabasePath    string `koanf:"database_path"`
	LogLevel        string `koanf:"log_level"`
	MaxFileSizeMB   int    `koanf:"max_file_size_mb"`
	Concurrency     int    `koanf:"concurrency"`
	AdminPIN        string `koanf:"admin_pin"`
	SanitizedOutDir string `koanf:"sanitized_out_dir"`
}

// Default returns the configuration's zero-config defaults.
func Default() Config {
	return Config{
		ListenAddr:      ":9999",
		DatabasePath:    "stego.db",
		LogLevel:        "info",
		MaxFileSizeMB:   50,
		Concurrency:     4,
		AdminPIN:        "",
		SanitizedOutDir: "./sanitized",
	}
}

// Load merges defaults, an optional YAML file, STEGO_-prefixed
// environment variables, and CLI flags (highest precedence) into one
// Config.
func Load(configPath string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	defaults := Default()
	if err := k.Load(structProvider(defaults), nil); err != nil {
		return Config{}, fmt.Errorf("config: loading defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: loading %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("config: loading environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, fmt.Errorf("config: loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

// structProvider wraps a koanf.Provider around a map derived from a
// Config value, so the struct's zero-config defaults participate in the
// same merge order as the file/env/flag layers.
func structProvider(cfg Config) koanf.Provider {
	return confmapProvider{
		"listen_addr":       cfg.ListenAddr,
		"database_path":     cfg.DatabasePath,
		"log_level":         cfg.LogLevel,
		"max_file_size_mb":  cfg.MaxFileSizeMB,
		"concurrency":       cfg.Concurrency,
		"admin_pin":         cfg.AdminPIN,
		"sanitized_out_dir": cfg.SanitizedOutDir,
	}
}

// confmapProvider is a minimal koanf.Provider over a flat map, avoiding
// a dependency on koanf's separate confmap provider module.
type confmapProvider map[string]interface{}

func (c confmapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("config: confmapProvider does not support ReadBytes")
}

func (c confmapProvider) Read() (map[string]interface{}, error) {
	return c, nil
}
