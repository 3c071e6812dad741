// Package config handles loading and validating Sophia configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

func init() {
	// Load .env file if it exists
	_ = godotenv.Load()
}

// Config is the root configuration for Sophia.
type Config struct {
	DataDir       string               `json:"data_dir,omitempty" yaml:"data_dir,omitempty"` // Persistent data directory. Default: ~/.sophia/data. Override: SOPHIA_DATA_DIR env var.
	Storage       *StorageConfig       `json:"storage,omitempty" yaml:"storage,omitempty"`   // nil = SQLite default (derived from data dir)
	Engine        EngineConfig         `json:"engine" yaml:"engine"`
	Gateways      GatewaysConfig       `json:"gateways" yaml:"gateways"`
	DailyDigest   *DailyDigestConfig   `json:"daily_digest,omitempty" yaml:"daily_digest,omitempty"`     // nil = digest scheduler disabled
	Observability *ObservabilityConfig `json:"observability,omitempty" yaml:"observability,omitempty"`   // nil = observability disabled
}

// EngineConfig tunes the consciousness engine.
type EngineConfig struct {
	// Seed pins the randomness source for reproducible demo runs.
	// 0 (default) seeds from the clock.
	Seed int64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// StorageConfig configures the persistence backend.
// When nil, defaults to SQLite with the database path derived from the data dir.
type StorageConfig struct {
	Driver   string                 `json:"driver" yaml:"driver"`                         // "sqlite" (default) or "postgres".
	SQLite   *SQLiteStorageConfig   `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`     // SQLite-specific settings.
	Postgres *PostgresStorageConfig `json:"postgres,omitempty" yaml:"postgres,omitempty"` // PostgreSQL-specific settings.
}

// StorageDriver returns the configured driver, defaulting to "sqlite".
func (s *StorageConfig) StorageDriver() string {
	if s != nil && s.Driver != "" {
		return s.Driver
	}
	return "sqlite"
}

// SQLiteStorageConfig holds SQLite-specific settings.
type SQLiteStorageConfig struct {
	Path        string `json:"path,omitempty" yaml:"path,omitempty"` // Database file path. Default: derived from data dir.
	JournalMode string `json:"journal_mode" yaml:"journal_mode"`     // "wal" (default), "delete", "truncate", etc.
}

// PostgresStorageConfig holds PostgreSQL-specific settings.
type PostgresStorageConfig struct {
	DSN              string `json:"dsn" yaml:"dsn"` // Override: SOPHIA_DB_DSN env var.
	MaxOpenConns     int    `json:"max_open_conns" yaml:"max_open_conns"`           // Default: 25
	MaxIdleConns     int    `json:"max_idle_conns" yaml:"max_idle_conns"`           // Default: 5
	ConnMaxLifetimeS int    `json:"conn_max_lifetime_s" yaml:"conn_max_lifetime_s"` // Default: 1800 (30 min)
}

// GatewaysConfig defines which gateways are enabled and their settings.
// Nil pointers mean the gateway is not configured. If the entire section
// is absent, the HTTP gateway is enabled on the default address.
type GatewaysConfig struct {
	HTTP *HTTPGatewayConfig `json:"http,omitempty" yaml:"http,omitempty"`
	CLI  *CLIGatewayConfig  `json:"cli,omitempty" yaml:"cli,omitempty"`
}

// HTTPGatewayConfig configures the HTTP API gateway.
type HTTPGatewayConfig struct {
	Enabled             bool              `json:"enabled" yaml:"enabled"`
	EnableDocs          bool              `json:"enable_docs" yaml:"enable_docs"`
	ListenAddr          string            `json:"listen_addr" yaml:"listen_addr"` // Default: ":8080".
	MaxRequestSizeBytes int64             `json:"max_request_size_bytes" yaml:"max_request_size_bytes"`
	APIKeySeekerMapping map[string]string `json:"api_key_seeker_mapping" yaml:"api_key_seeker_mapping"` // API key → seeker ID.
	RateLimit           RateLimitConfig   `json:"rate_limit" yaml:"rate_limit"`
	Meditation          bool              `json:"meditation_stream" yaml:"meditation_stream"` // Enable the WebSocket meditation endpoint.
}

// Addr returns the listen address with a default of ":8080".
func (h *HTTPGatewayConfig) Addr() string {
	if h != nil && h.ListenAddr != "" {
		return h.ListenAddr
	}
	return ":8080"
}

// CLIGatewayConfig configures the interactive CLI gateway.
type CLIGatewayConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// RateLimitConfig configures per-seeker rate limiting for a gateway.
type RateLimitConfig struct {
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute"`
	BurstSize         int `json:"burst_size" yaml:"burst_size"`
}

// DailyDigestConfig configures the daily-guidance digest scheduler.
// When nil, no digests are generated.
type DailyDigestConfig struct {
	Enabled    bool     `json:"enabled" yaml:"enabled"`
	Schedule   string   `json:"schedule" yaml:"schedule"`       // Cron expression. Default: "0 6 * * *".
	Seekers    []string `json:"seekers" yaml:"seekers"`         // Seeker IDs receiving a digest.
	WebhookURL string   `json:"webhook_url" yaml:"webhook_url"` // Optional webhook receiving each digest.
}

// CronSchedule returns the cron expression with a default of 06:00 daily.
func (d *DailyDigestConfig) CronSchedule() string {
	if d != nil && d.Schedule != "" {
		return d.Schedule
	}
	return "0 6 * * *"
}

// ObservabilityConfig configures metrics, tracing, and health checks.
// When nil, all observability features are disabled with zero overhead.
type ObservabilityConfig struct {
	Metrics *MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Tracing *TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`
	Anomaly *AnomalyConfig `json:"anomaly,omitempty" yaml:"anomaly,omitempty"`
	Health  *HealthConfig  `json:"health,omitempty" yaml:"health,omitempty"`
}

// MetricsConfig configures Prometheus metrics exposition.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"` // Default: "/metrics"
}

// MetricsPath returns the exposition path with a default of "/metrics".
func (m *MetricsConfig) MetricsPath() string {
	if m != nil && m.Path != "" {
		return m.Path
	}
	return "/metrics"
}

// TracingConfig configures OpenTelemetry distributed tracing.
type TracingConfig struct {
	Enabled     bool    `json:"enabled" yaml:"enabled"`
	Endpoint    string  `json:"endpoint" yaml:"endpoint"`         // OTLP endpoint, e.g. "localhost:4317"
	Protocol    string  `json:"protocol" yaml:"protocol"`         // "grpc" or "http". Default: "grpc"
	ServiceName string  `json:"service_name" yaml:"service_name"` // Default: "sophia"
	SampleRate  float64 `json:"sample_rate" yaml:"sample_rate"`   // 0.0–1.0. Default: 1.0
	Insecure    bool    `json:"insecure" yaml:"insecure"`         // Skip TLS for dev
}

// AnomalyConfig configures sliding-window anomaly detection on engine
// operations and purity scans.
type AnomalyConfig struct {
	Enabled             bool    `json:"enabled" yaml:"enabled"`
	WindowSeconds       int     `json:"window_seconds" yaml:"window_seconds"`               // Default: 300
	ErrorRateThreshold  float64 `json:"error_rate_threshold" yaml:"error_rate_threshold"`   // 0 disables the error rate check
	ImpureRateThreshold float64 `json:"impure_rate_threshold" yaml:"impure_rate_threshold"` // 0 disables the impure scan check
}

// HealthConfig configures dependency health checks for readiness probes.
type HealthConfig struct {
	IncludeDB bool `json:"include_db" yaml:"include_db"`
}

// ConnMaxLifetime returns the connection lifetime with a default of 30m.
func (p *PostgresStorageConfig) ConnMaxLifetime() time.Duration {
	if p != nil && p.ConnMaxLifetimeS > 0 {
		return time.Duration(p.ConnMaxLifetimeS) * time.Second
	}
	return 30 * time.Minute
}

// OpenConns returns the max open connections with a default of 25.
func (p *PostgresStorageConfig) OpenConns() int {
	if p != nil && p.MaxOpenConns > 0 {
		return p.MaxOpenConns
	}
	return 25
}

// IdleConns returns the max idle connections with a default of 5.
func (p *PostgresStorageConfig) IdleConns() int {
	if p != nil && p.MaxIdleConns > 0 {
		return p.MaxIdleConns
	}
	return 5
}

// DefaultConfigPath returns the default config file path (~/.sophia/config.json).
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "configs/sophia.json" // fallback for environments without a home dir
	}
	return filepath.Join(home, ".sophia", "config.json")
}

// Load reads a JSON or YAML config file and returns a validated Config.
// The format is detected by file extension: .yml/.yaml for YAML, everything
// else for JSON. Secrets can be set in the config file or overridden by
// environment variables; environment variables take precedence.
func Load(path string) (*Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path %s: %w", path, err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", resolved, err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(resolved)); ext {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML config %s: %w", resolved, err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing JSON config %s: %w", resolved, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault behaves like Load but falls back to built-in defaults when
// no file exists at path. Environment variable overrides still apply, so a
// bare `sophia gateway` run works without any config file on disk.
func LoadOrDefault(path string) (*Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path %s: %w", path, err)
	}

	if _, statErr := os.Stat(resolved); errors.Is(statErr, fs.ErrNotExist) {
		cfg := &Config{}
		applyEnvOverrides(cfg)
		if err := cfg.validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return Load(path)
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if envDD := os.Getenv("SOPHIA_DATA_DIR"); envDD != "" {
		cfg.DataDir = envDD
	}
	if envDSN := os.Getenv("SOPHIA_DB_DSN"); envDSN != "" {
		if cfg.Storage == nil {
			cfg.Storage = &StorageConfig{Driver: "postgres"}
		}
		if cfg.Storage.Postgres == nil {
			cfg.Storage.Postgres = &PostgresStorageConfig{}
		}
		cfg.Storage.Postgres.DSN = envDSN
	}
	// SOPHIA_API_KEY maps a single key to the "default" seeker, handy for
	// single-user deployments without a mapping table in the config file.
	if envKey := os.Getenv("SOPHIA_API_KEY"); envKey != "" {
		if cfg.Gateways.HTTP == nil {
			cfg.Gateways.HTTP = &HTTPGatewayConfig{Enabled: true}
		}
		if cfg.Gateways.HTTP.APIKeySeekerMapping == nil {
			cfg.Gateways.HTTP.APIKeySeekerMapping = map[string]string{}
		}
		cfg.Gateways.HTTP.APIKeySeekerMapping[envKey] = "default"
	}
}

// resolvePath expands ~ to the user home directory and returns an absolute path.
func resolvePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return filepath.Abs(path)
}

// ResolvedDataDir returns the data directory, resolving ~ if needed.
func (c *Config) ResolvedDataDir() string {
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "data"
		}
		return filepath.Join(home, ".sophia", "data")
	}
	resolved, err := resolvePath(c.DataDir)
	if err != nil {
		return c.DataDir
	}
	return resolved
}

// DatabasePath returns the default SQLite database path under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.ResolvedDataDir(), "sophia.db")
}

// StorageDriverName returns the effective storage driver name.
func (c *Config) StorageDriverName() string {
	if c.Storage != nil {
		return c.Storage.StorageDriver()
	}
	return "sqlite"
}

func (c *Config) validate() error {
	if c.Storage != nil && c.Storage.Driver != "" {
		switch c.Storage.Driver {
		case "sqlite", "postgres":
			// valid
		default:
			return fmt.Errorf("storage.driver %q is not supported (use sqlite or postgres)", c.Storage.Driver)
		}
	}
	if c.StorageDriverName() == "postgres" {
		if c.Storage == nil || c.Storage.Postgres == nil || c.Storage.Postgres.DSN == "" {
			return fmt.Errorf("storage.postgres.dsn is required (set SOPHIA_DB_DSN env var)")
		}
	}
	if h := c.Gateways.HTTP; h != nil && h.Enabled {
		if h.RateLimit.RequestsPerMinute < 0 {
			return fmt.Errorf("gateways.http.rate_limit.requests_per_minute must not be negative")
		}
		if h.MaxRequestSizeBytes < 0 {
			return fmt.Errorf("gateways.http.max_request_size_bytes must not be negative")
		}
	}
	if d := c.DailyDigest; d != nil && d.Enabled {
		if len(d.Seekers) == 0 {
			return fmt.Errorf("daily_digest.seekers must contain at least one seeker ID when enabled")
		}
	}
	if c.Engine.Seed < 0 {
		return fmt.Errorf("engine.seed must not be negative")
	}
	return nil
}
