package postgres

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sophia-platform/sophia/internal/consciousness"
	"github.com/sophia-platform/sophia/internal/firewall"
	"github.com/sophia-platform/sophia/internal/storage"
)

// Store implements storage.Store backed by PostgreSQL.
type Store struct {
	db     *DB
	logger *slog.Logger

	// Sub-store instances (created lazily on first access).
	mu       sync.Mutex
	states   consciousness.StateStore
	sessions consciousness.SessionStore
	insights consciousness.InsightStore
	scanLog  firewall.ScanLogStore
}

// NewStore creates a PostgreSQL-backed Store.
func NewStore(cfg Config, slogger *slog.Logger) (*Store, error) {
	db, err := Open(cfg, slogger)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, logger: slogger}, nil
}

// Migrate runs GORM AutoMigrate to create/update tables.
func (s *Store) Migrate(_ context.Context) error {
	return AutoMigrate(s.db.GormDB())
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns "postgres".
func (s *Store) Driver() string {
	return storage.DriverPostgres
}

func (s *Store) States() consciousness.StateStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.states == nil {
		s.states = NewStateRepository(s.db.GormDB())
	}
	return s.states
}

func (s *Store) Sessions() consciousness.SessionStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions == nil {
		s.sessions = NewSessionRepository(s.db.GormDB())
	}
	return s.sessions
}

func (s *Store) Insights() consciousness.InsightStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insights == nil {
		s.insights = NewInsightRepository(s.db.GormDB())
	}
	return s.insights
}

func (s *Store) ScanLog() firewall.ScanLogStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scanLog == nil {
		s.scanLog = NewScanLogRepository(s.db.GormDB())
	}
	return s.scanLog
}

// compile-time interface check
var _ storage.Store = (*Store)(nil)
