package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"econavix/internal/database"
	"econavix/internal/logging"

	_ "modernc.org/sqlite"
)

const (
	DefaultDBFileName = database.SQLiteDBFileName
	schemaVersion     = 1

	// DefaultGeocodeTTL is how long a cached geocoding answer stays fresh
	DefaultGeocodeTTL = 30 * 24 * time.Hour
)

// Option configures a Store
type Option func(*Store)

// WithLogger sets the store logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithGeocodeTTL sets the geocode cache freshness window; zero disables expiry
func WithGeocodeTTL(ttl time.Duration) Option {
	return func(s *Store) { s.geocodeTTL = ttl }
}

// Store is a SQLite-based data store implementing database.DataStore
type Store struct {
	db         *sql.DB
	dbPath     string
	mu         sync.RWMutex
	logger     *zap.Logger
	geocodeTTL time.Duration
	now        func() time.Time

	settingsRepo     database.SettingsRepository
	planRepo         database.PlanRepository
	geocodeCacheRepo database.GeocodeCacheRepository
}

// New creates a new SQLite store at the specified path
func New(dbPath string, opts ...Option) (*Store, error) {
	store := &Store{
		dbPath:     dbPath,
		geocodeTTL: DefaultGeocodeTTL,
		now:        time.Now,
	}
	for _, o := range opts {
		o(store)
	}
	store.logger = logging.OrNop(store.logger).Named("sqlite")

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store.logger.Info("opening database", zap.String("path", dbPath))

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	store.db = db

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	store.settingsRepo = &settingsRepository{store: store}
	store.planRepo = &planRepository{store: store}
	store.geocodeCacheRepo = &geocodeCacheRepository{store: store}

	return store, nil
}

// GetDBPath returns the current database file path
func (s *Store) GetDBPath() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return s.createSchema()
	}

	if version < schemaVersion {
		return s.runMigrations(version)
	}
	return nil
}

func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);
	INSERT INTO schema_version (version) VALUES (1);

	-- Settings (single row table)
	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		theme TEXT NOT NULL DEFAULT 'light',
		use_miles INTEGER NOT NULL DEFAULT 1
	);
	INSERT OR IGNORE INTO settings (id, theme, use_miles) VALUES (1, 'light', 1);

	-- Plan history
	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		generation INTEGER NOT NULL,
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		status TEXT NOT NULL,
		error_kind TEXT NOT NULL DEFAULT '',
		failure_reason TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		distance_km REAL NOT NULL DEFAULT 0,
		emissions_saved_kg REAL NOT NULL DEFAULT 0,
		route_points INTEGER NOT NULL DEFAULT 0,
		created_at_ms INTEGER NOT NULL
	);

	-- Geocoding answers keyed by normalized query
	CREATE TABLE IF NOT EXISTS geocode_cache (
		query_key TEXT PRIMARY KEY,
		lat REAL NOT NULL,
		lng REAL NOT NULL,
		formatted TEXT NOT NULL,
		created_at_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_plans_created ON plans(created_at_ms DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	s.logger.Info("schema initialized", zap.Int("version", schemaVersion))
	return nil
}

func (s *Store) runMigrations(fromVersion int) error {
	s.logger.Info("migrating schema", zap.Int("from", fromVersion), zap.Int("to", schemaVersion))
	_, err := s.db.Exec("UPDATE schema_version SET version = ?", schemaVersion)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		// Checkpoint WAL before closing
		s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		return s.db.Close()
	}
	return nil
}

// HealthCheck verifies the database connection
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Repository accessors
func (s *Store) Settings() database.SettingsRepository         { return s.settingsRepo }
func (s *Store) Plans() database.PlanRepository                { return s.planRepo }
func (s *Store) GeocodeCache() database.GeocodeCacheRepository { return s.geocodeCacheRepo }

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
