// Package config loads process configuration from an embedded YAML
// baseline, then lets environment variables override individual fields —
// the same embed-then-env layering the teacher uses for its pipeline
// specs, applied here to process-level settings instead of a pipeline
// stage graph.
package config

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rlemke/agentflow-sub002/internal/platform/envutil"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Worker holds settings for the execution poller pool (internal/engine).
type Worker struct {
	Concurrency         int `yaml:"concurrency"`
	ExecuteLeaseSeconds int `yaml:"execute_lease_seconds"`
}

// Postgres holds the POSTGRES_* connection settings. internal/store.Open
// does not take this struct; it reads the same variables itself.
type Postgres struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// Config is the complete process configuration for both cmd/afl-worker
// and cmd/afl-submit.
type Config struct {
	LogMode  string   `yaml:"log_mode"`
	Worker   Worker   `yaml:"worker"`
	Postgres Postgres `yaml:"postgres"`
}

// ExecuteLease returns the configured lease duration as a time.Duration.
// internal/engine does not read it: its claims use the engine's fixed
// two-minute lease.
func (c Config) ExecuteLease() time.Duration {
	return time.Duration(c.Worker.ExecuteLeaseSeconds) * time.Second
}

// Load parses the embedded defaults, then overrides individual fields
// from environment variables. An unset or empty env var leaves the
// YAML-supplied value in place.
func Load() (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse embedded config defaults: %w", err)
	}

	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)

	cfg.Worker.Concurrency = envutil.Int("AFL_WORKER_CONCURRENCY", cfg.Worker.Concurrency)
	cfg.Worker.ExecuteLeaseSeconds = envutil.Int("AFL_EXECUTE_LEASE_SECONDS", cfg.Worker.ExecuteLeaseSeconds)

	cfg.Postgres.Host = envutil.String("POSTGRES_HOST", cfg.Postgres.Host)
	cfg.Postgres.Port = envutil.String("POSTGRES_PORT", cfg.Postgres.Port)
	cfg.Postgres.User = envutil.String("POSTGRES_USER", cfg.Postgres.User)
	cfg.Postgres.Password = envutil.String("POSTGRES_PASSWORD", cfg.Postgres.Password)
	cfg.Postgres.Name = envutil.String("POSTGRES_NAME", cfg.Postgres.Name)

	return cfg, nil
}
