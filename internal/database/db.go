package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"prtg-extract/internal/metrics"
	"prtg-extract/internal/models"
)

var _ models.Store = (*DB)(nil)

// DB wraps sql.DB with the availability queries
type DB struct {
	*sql.DB
	dialect Dialect
	log     *zap.Logger
	metrics *metrics.Metrics
}

// Open connects to sqlite (source is a file path) or postgres (source is a DSN)
func Open(driver, source string, log *zap.Logger, m *metrics.Metrics) (*DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}

	var (
		db      *sql.DB
		dialect Dialect
		err     error
	)
	switch driver {
	case "sqlite":
		dialect = sqliteDialect{}
		db, err = sql.Open("sqlite", source)
		if err != nil {
			return nil, fmt.Errorf("database open failed: %w", err)
		}
		// one writer at a time keeps concurrent collectors off SQLITE_BUSY
		db.SetMaxOpenConns(1)
		db.Exec("PRAGMA journal_mode=WAL")
		db.Exec("PRAGMA synchronous=NORMAL")
	case "postgres":
		dialect = postgresDialect{}
		db, err = sql.Open("pgx", source)
		if err != nil {
			return nil, fmt.Errorf("database open failed: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	return &DB{DB: db, dialect: dialect, log: log.Named("database"), metrics: m}, nil
}

// Dialect returns the SQL dialect in use
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// InitSchema creates the availability table and its indexes
func (db *DB) InitSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS availability (
        id %s,
        run_id TEXT NOT NULL,
        group_name TEXT NOT NULL,
        device TEXT NOT NULL,
        sensor TEXT NOT NULL,
        sensor_id BIGINT NOT NULL,
        availability_percent %s,
        avg_latency_ms %s,
        up_samples INTEGER NOT NULL,
        down_samples INTEGER NOT NULL,
        omitted_samples INTEGER NOT NULL,
        total_samples INTEGER NOT NULL,
        interval_seconds INTEGER NOT NULL,
        window_start TEXT NOT NULL,
        window_end TEXT NOT NULL,
        created_at TEXT NOT NULL,
        UNIQUE (sensor_id, window_start, window_end)
    )`, db.dialect.AutoIncrement(), db.dialect.FloatType(), db.dialect.FloatType()),
		`CREATE INDEX IF NOT EXISTS idx_availability_group ON availability(group_name, window_start)`,
		`CREATE INDEX IF NOT EXISTS idx_availability_created ON availability(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema creation failed: %w", err)
		}
	}
	return nil
}
