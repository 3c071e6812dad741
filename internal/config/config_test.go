package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"data_dir": "/tmp/sophia-test",
		"gateways": {
			"http": {
				"enabled": true,
				"listen_addr": ":9090",
				"api_key_seeker_mapping": {"key-1": "seeker-1"}
			}
		}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gateways.HTTP == nil || !cfg.Gateways.HTTP.Enabled {
		t.Fatal("expected HTTP gateway enabled")
	}
	if got := cfg.Gateways.HTTP.Addr(); got != ":9090" {
		t.Errorf("Addr() = %q, want :9090", got)
	}
	if cfg.Gateways.HTTP.APIKeySeekerMapping["key-1"] != "seeker-1" {
		t.Error("api key mapping not loaded")
	}
	if got := cfg.StorageDriverName(); got != "sqlite" {
		t.Errorf("StorageDriverName() = %q, want sqlite (default)", got)
	}
	if got := cfg.DatabasePath(); got != filepath.Join("/tmp/sophia-test", "sophia.db") {
		t.Errorf("DatabasePath() = %q", got)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
data_dir: /tmp/sophia-yaml
engine:
  seed: 42
daily_digest:
  enabled: true
  seekers:
    - seeker-a
    - seeker-b
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.Seed != 42 {
		t.Errorf("Engine.Seed = %d, want 42", cfg.Engine.Seed)
	}
	if cfg.DailyDigest == nil || !cfg.DailyDigest.Enabled {
		t.Fatal("expected daily digest enabled")
	}
	if got := cfg.DailyDigest.CronSchedule(); got != "0 6 * * *" {
		t.Errorf("CronSchedule() default = %q", got)
	}
	if len(cfg.DailyDigest.Seekers) != 2 {
		t.Errorf("Seekers = %v, want 2 entries", cfg.DailyDigest.Seekers)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	path := writeConfig(t, "config.json", `{"storage": {"driver": "mysql"}}`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported storage driver")
	} else if !strings.Contains(err.Error(), "mysql") {
		t.Errorf("error should name the driver, got: %v", err)
	}
}

func TestLoadRequiresPostgresDSN(t *testing.T) {
	path := writeConfig(t, "config.json", `{"storage": {"driver": "postgres"}}`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing postgres DSN")
	}
}

func TestLoadRejectsDigestWithoutSeekers(t *testing.T) {
	path := writeConfig(t, "config.json", `{"daily_digest": {"enabled": true}}`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for digest without seekers")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SOPHIA_DATA_DIR", "/tmp/env-data")
	t.Setenv("SOPHIA_API_KEY", "env-key")

	path := writeConfig(t, "config.json", `{"data_dir": "/tmp/file-data"}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "/tmp/env-data" {
		t.Errorf("DataDir = %q, want env override", cfg.DataDir)
	}
	if cfg.Gateways.HTTP == nil || cfg.Gateways.HTTP.APIKeySeekerMapping["env-key"] != "default" {
		t.Error("SOPHIA_API_KEY should map to the default seeker")
	}
}

func TestPostgresDefaults(t *testing.T) {
	var p *PostgresStorageConfig
	if got := p.OpenConns(); got != 25 {
		t.Errorf("OpenConns() on nil = %d, want 25", got)
	}
	if got := p.IdleConns(); got != 5 {
		t.Errorf("IdleConns() on nil = %d, want 5", got)
	}
	p = &PostgresStorageConfig{MaxOpenConns: 10, ConnMaxLifetimeS: 60}
	if got := p.OpenConns(); got != 10 {
		t.Errorf("OpenConns() = %d, want 10", got)
	}
	if got := p.ConnMaxLifetime().Seconds(); got != 60 {
		t.Errorf("ConnMaxLifetime() = %v, want 60s", got)
	}
}
