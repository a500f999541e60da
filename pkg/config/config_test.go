package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestLoadDefaults verifies that an empty path yields the full default
// configuration.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Engine.ClusterThreshold != 0.3 {
		t.Errorf("cluster threshold = %v, want 0.3", cfg.Engine.ClusterThreshold)
	}
	if cfg.Kafka.Topics.ContentUpdated != "content.updated" {
		t.Errorf("content topic = %q", cfg.Kafka.Topics.ContentUpdated)
	}
	if cfg.Redis.CacheTTL != 5*time.Minute {
		t.Errorf("cache TTL = %v, want 5m", cfg.Redis.CacheTTL)
	}
}

// TestLoadFileOverridesDefaults verifies YAML values replace defaults while
// untouched fields keep them.
func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  port: 9999\nengine:\n  buildWorkers: 2\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("server port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Engine.BuildWorkers != 2 {
		t.Errorf("build workers = %d, want 2", cfg.Engine.BuildWorkers)
	}
	if cfg.Search.DefaultLimit != 10 {
		t.Errorf("default limit = %d, want default 10", cfg.Search.DefaultLimit)
	}
}

// TestEnvOverrides verifies DW_* environment variables beat file values.
func TestEnvOverrides(t *testing.T) {
	t.Setenv("DW_SERVER_PORT", "7070")
	t.Setenv("DW_POSTGRES_HOST", "db.internal")
	t.Setenv("DW_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("server port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Postgres.Host != "db.internal" {
		t.Errorf("postgres host = %q", cfg.Postgres.Host)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
}

// TestValidation verifies the rejection of configurations the engine cannot
// run with.
func TestValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Engine.BuildWorkers = 0 }},
		{"threshold too high", func(c *Config) { c.Engine.ClusterThreshold = 1.5 }},
		{"threshold zero", func(c *Config) { c.Engine.ClusterThreshold = 0 }},
		{"weights off", func(c *Config) { c.Engine.Recommendation.ClusterWeight = 0.9 }},
		{"max results out of range", func(c *Config) { c.Search.MaxResults = 100 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)
			if err := cfg.validate(); err == nil {
				t.Error("validate() accepted an invalid config")
			}
		})
	}
	if err := defaultConfig().validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

// TestPostgresDSN verifies the lib/pq DSN rendering.
func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{
		Host: "localhost", Port: 5432, User: "u", Password: "pw",
		Database: "fernweh", SSLMode: "disable",
	}
	want := "host=localhost port=5432 user=u password=pw dbname=fernweh sslmode=disable"
	if got := p.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
