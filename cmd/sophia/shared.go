package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sophia-platform/sophia/internal/config"
	"github.com/sophia-platform/sophia/internal/consciousness"
	"github.com/sophia-platform/sophia/internal/engine"
	"github.com/sophia-platform/sophia/internal/firewall"
	"github.com/sophia-platform/sophia/internal/observability"
	"github.com/sophia-platform/sophia/internal/storage"
	pgstore "github.com/sophia-platform/sophia/internal/storage/postgres"
	sqlitestore "github.com/sophia-platform/sophia/internal/storage/sqlite"
)

// SharedComponents holds all initialized subsystems that gateway and MCP
// modes require. Built once by initShared, torn down by Cleanup.
type SharedComponents struct {
	Config *config.Config
	Logger *slog.Logger
	Store  storage.Store // Unified store (SQLite or PostgreSQL).

	Obs    *observability.Observability
	Engine engine.Engine // Instrumented when observability is enabled.

	cleanups []func()
}

// Cleanup runs all deferred cleanup functions in reverse order.
func (sc *SharedComponents) Cleanup() {
	for i := len(sc.cleanups) - 1; i >= 0; i-- {
		sc.cleanups[i]()
	}
}

func (sc *SharedComponents) addCleanup(fn func()) {
	sc.cleanups = append(sc.cleanups, fn)
}

// initShared performs all common initialization shared between gateway and
// MCP modes. Callers must call sc.Cleanup() when done.
func initShared(cfg *config.Config, logger *slog.Logger) (*SharedComponents, error) {
	sc := &SharedComponents{
		Config: cfg,
		Logger: logger,
	}

	// Ensure data directory exists.
	dataDir := cfg.ResolvedDataDir()
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("creating data directory %s: %w", dataDir, err)
	}
	logger.Debug("data directory initialized", slog.String("path", dataDir))

	// Observability.
	obs, err := observability.New(cfg.Observability, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing observability: %w", err)
	}
	sc.Obs = obs
	sc.addCleanup(func() {
		if obs != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			obs.Shutdown(shutdownCtx)
		}
	})
	if obs != nil {
		logger.Debug("observability initialized",
			slog.Bool("metrics", obs.Metrics != nil),
			slog.Bool("tracing", obs.Tracer != nil),
			slog.Bool("anomaly", obs.Anomaly != nil),
		)
	}

	// Storage (unified: SQLite default, PostgreSQL optional).
	store, err := initStore(cfg, logger)
	if err != nil {
		sc.Cleanup()
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	sc.Store = store
	sc.addCleanup(func() {
		if err := store.Close(); err != nil {
			logger.Error("closing store", slog.String("error", err.Error()))
		}
	})

	// Run migrations.
	if err := store.Migrate(context.Background()); err != nil {
		sc.Cleanup()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	logger.Debug("storage initialized", slog.String("driver", store.Driver()))

	// Health checks.
	if obs != nil && obs.Health != nil {
		includeDB := cfg.Observability == nil || cfg.Observability.Health == nil ||
			cfg.Observability.Health.IncludeDB
		if includeDB {
			obs.Health.AddCheck("database", store.Ping)
		}
	}

	// Engine. A fixed seed pins the randomness for reproducible demo runs.
	var rng consciousness.Rand
	if cfg.Engine.Seed != 0 {
		rng = consciousness.NewSeededRand(cfg.Engine.Seed)
		logger.Debug("engine randomness pinned", slog.Int64("seed", cfg.Engine.Seed))
	} else {
		rng = consciousness.NewRand()
	}

	fw := firewall.New(logger)
	core := engine.New(rng, store, fw, logger)

	sc.Engine = observability.WrapEngine(core, obs)

	return sc, nil
}

// initStore creates the appropriate storage backend from config.
func initStore(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	switch driver := cfg.StorageDriverName(); driver {
	case storage.DriverPostgres:
		return initPostgresStore(cfg, logger)
	case storage.DriverSQLite:
		return initSQLiteStore(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver: %q", driver)
	}
}

func initSQLiteStore(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	dbPath := cfg.DatabasePath()
	journalMode := "wal"

	if cfg.Storage != nil && cfg.Storage.SQLite != nil {
		if cfg.Storage.SQLite.Path != "" {
			dbPath = cfg.Storage.SQLite.Path
		}
		if cfg.Storage.SQLite.JournalMode != "" {
			journalMode = cfg.Storage.SQLite.JournalMode
		}
	}

	return sqlitestore.Open(sqlitestore.Config{
		Path:        dbPath,
		JournalMode: journalMode,
	}, logger)
}

func initPostgresStore(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	pg := cfg.Storage.Postgres

	return pgstore.NewStore(pgstore.Config{
		DSN:             pg.DSN,
		MaxOpenConns:    pg.OpenConns(),
		MaxIdleConns:    pg.IdleConns(),
		ConnMaxLifetime: pg.ConnMaxLifetime(),
	}, logger)
}
