// Package config loads arthouse's runtime settings and genesis files.
//
// Settings come from three layers, later layers winning: built-in
// defaults, an optional YAML file and ARTHOUSE_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Backend names.
const (
	BackendSQLite  = "sqlite"
	BackendLevelDB = "leveldb"
	BackendMemory  = "memory"
)

// Config holds runtime settings.
type Config struct {
	// Database is the SQLite file holding the journal and, for the sqlite
	// backend, contract state.
	Database string `yaml:"database" env:"ARTHOUSE_DB"`

	// Backend selects where contract state lives.
	Backend string `yaml:"backend" env:"ARTHOUSE_BACKEND"`

	// LevelDBPath is the state directory for the leveldb backend.
	LevelDBPath string `yaml:"leveldb_path" env:"ARTHOUSE_LEVELDB_PATH"`

	// ContractAddress is the account that holds deposited funds. It must
	// not change over the life of a journal.
	ContractAddress string `yaml:"contract_address" env:"ARTHOUSE_CONTRACT_ADDRESS"`

	LogLevel  string `yaml:"log_level" env:"ARTHOUSE_LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"ARTHOUSE_LOG_FORMAT"`

	// MetricsAddr enables the Prometheus endpoint of the run command.
	MetricsAddr string `yaml:"metrics_addr" env:"ARTHOUSE_METRICS_ADDR"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Database:        "arthouse.db",
		Backend:         BackendSQLite,
		ContractAddress: "arthouse",
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is non-empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := decodeYAML(f, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// decodeYAML rejects unknown keys. An empty file leaves cfg unchanged.
func decodeYAML(r io.Reader, cfg *Config) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendMemory:
	case BackendLevelDB:
		if c.LevelDBPath == "" {
			return fmt.Errorf("backend %q requires leveldb_path", c.Backend)
		}
	default:
		return fmt.Errorf("unknown backend %q (want %s, %s or %s)", c.Backend, BackendSQLite, BackendLevelDB, BackendMemory)
	}
	if c.Backend != BackendMemory && c.Database == "" {
		return fmt.Errorf("database is required for backend %q", c.Backend)
	}
	if c.ContractAddress == "" {
		return fmt.Errorf("contract_address is required")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q (want text or json)", c.LogFormat)
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// NewLogger returns a logger writing to w in the configured format.
// verbose forces debug level.
func (c Config) NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
