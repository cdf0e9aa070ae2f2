// Package config loads cincan-registry settings from a YAML file, the
// environment and command-line overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/cincanproject/cincan-registry/internal/checker"
)

// EnvPrefix prefixes environment overrides, e.g. CINCAN_REGISTRY_DB.
const EnvPrefix = "CINCAN_REGISTRY"

// Config holds the resolved settings.
type Config struct {
	// DBPath is the SQLite cache file.
	DBPath string
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// ExtraCategories adds upstream checker categories to checker.Default.
	ExtraCategories []string
}

// Dir returns the cincan-registry config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/cincan-registry if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "cincan-registry"), nil
}

// DefaultDBPath returns ~/.cincan/registry/tooldb.sqlite.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".cincan", "registry", "tooldb.sqlite")
	}
	return filepath.Join(home, ".cincan", "registry", "tooldb.sqlite")
}

// Load reads the config file at path, or config.yaml from Dir when path is
// empty. A missing default file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("db", DefaultDBPath())
	v.SetDefault("log_level", "info")
	v.SetDefault("checker_categories", []string{})

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config directory: %w", err)
		}
		v.SetConfigName("config")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg := &Config{
		DBPath:          expandHome(v.GetString("db")),
		LogLevel:        strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
		ExtraCategories: v.GetStringSlice("checker_categories"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the resolved values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("invalid config: db path is empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid config: unknown log level %q", c.LogLevel)
	}
	return nil
}

// Categories returns the checker categories used for metadata linking.
func (c *Config) Categories() checker.Categories {
	return checker.NewCategories(append(checker.Default.Names(), c.ExtraCategories...)...)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
