package config

import "testing"

func TestLoadAppliesEmbeddedDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Worker.Concurrency != 4 {
		t.Fatalf("expected default concurrency 4, got %d", cfg.Worker.Concurrency)
	}
	if cfg.Postgres.Name != "agentflow" {
		t.Fatalf("expected default postgres name agentflow, got %q", cfg.Postgres.Name)
	}
	if cfg.ExecuteLease().Seconds() != 120 {
		t.Fatalf("expected default lease 120s, got %v", cfg.ExecuteLease())
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("AFL_WORKER_CONCURRENCY", "9")
	t.Setenv("POSTGRES_NAME", "agentflow_test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Worker.Concurrency != 9 {
		t.Fatalf("expected overridden concurrency 9, got %d", cfg.Worker.Concurrency)
	}
	if cfg.Postgres.Name != "agentflow_test" {
		t.Fatalf("expected overridden postgres name, got %q", cfg.Postgres.Name)
	}
}
