package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// DB is an opened catalog database with its SQL dialect.
type DB struct {
	drv     *entsql.Driver
	pool    *pgxpool.Pool
	dialect string
}

// IsPostgresDSN reports whether dsn selects the pgx driver.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Open connects to Postgres (pgx pool wrapped as *sql.DB) for postgres://
// DSNs and to an embedded SQLite file otherwise.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*DB, error) {
	if IsPostgresDSN(cfg.DSN) {
		return openPostgres(ctx, cfg, logger)
	}
	return openSQLite(ctx, cfg, logger)
}

func openPostgres(ctx context.Context, cfg Config, logger *zap.Logger) (*DB, error) {
	logger.Info("db.open", zap.String("dialect", dialect.Postgres))
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("db.open.parse_failed", zap.Error(err))
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "offer-generator"

	dialCtx, cancel := withOptionalTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("db.open.connect_failed", zap.Error(err))
		return nil, err
	}

	db := stdlib.OpenDBFromPool(pool)
	logger.Info("db.open.ok", zap.String("dialect", dialect.Postgres))
	return &DB{drv: entsql.OpenDB(dialect.Postgres, db), pool: pool, dialect: dialect.Postgres}, nil
}

func openSQLite(ctx context.Context, cfg Config, logger *zap.Logger) (*DB, error) {
	dsn := cfg.DSN
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	logger.Info("db.open", zap.String("dialect", dialect.SQLite), zap.String("dsn", cfg.DSN))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("db.open.failed", zap.Error(err))
		return nil, err
	}
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(int(cfg.MaxConns))
	}
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	pingCtx, cancel := withOptionalTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		logger.Error("db.open.ping_failed", zap.Error(err))
		return nil, err
	}
	logger.Info("db.open.ok", zap.String("dialect", dialect.SQLite))
	return &DB{drv: entsql.OpenDB(dialect.SQLite, db), dialect: dialect.SQLite}, nil
}

// Dialect returns the ent dialect name.
func (db *DB) Dialect() string { return db.dialect }

// Driver exposes the ent SQL driver.
func (db *DB) Driver() *entsql.Driver { return db.drv }

func (db *DB) builder() *entsql.DialectBuilder {
	return entsql.Dialect(db.dialect)
}

// Close closes the database connections gracefully
func (db *DB) Close(logger *zap.Logger) {
	if db == nil {
		return
	}
	logger.Info("db.close")
	if db.drv != nil {
		if err := db.drv.Close(); err != nil {
			logger.Error("db.close.failed", zap.Error(err))
		}
	}
	if db.pool != nil {
		db.pool.Close()
	}
}

// HealthCheck pings the database to catch DSN issues early.
func (db *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := withOptionalTimeout(ctx, timeout)
	defer cancel()
	if db.pool != nil {
		return db.pool.Ping(ctx)
	}
	return db.drv.DB().PingContext(ctx)
}

// Migrate creates the catalog and history tables when missing.
func (db *DB) Migrate(ctx context.Context, logger *zap.Logger) error {
	for _, t := range allTables {
		q, args := t.createTable(db.dialect).Query()
		if err := db.drv.Exec(ctx, q, args, nil); err != nil {
			return fmt.Errorf("create table %s: %w", t.name, err)
		}
	}
	logger.Info("db.migrate.ok", zap.Int("tables", len(allTables)))
	return nil
}

// TableCounts returns the row count of every table.
func (db *DB) TableCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(allTables))
	for _, t := range allTables {
		q, args := db.builder().Select(entsql.Count("*")).From(entsql.Table(t.name)).Query()
		var rows entsql.Rows
		if err := db.drv.Query(ctx, q, args, &rows); err != nil {
			return nil, fmt.Errorf("count %s: %w", t.name, err)
		}
		var n int
		for rows.Next() {
			if err := rows.Scan(&n); err != nil {
				_ = rows.Close()
				return nil, err
			}
		}
		_ = rows.Close()
		counts[t.name] = n
	}
	return counts, nil
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}
