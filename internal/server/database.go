package server

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/joseph-ayodele/offer-generator/internal/common"
	repo "github.com/joseph-ayodele/offer-generator/internal/repository"
)

// ConnectDB opens the catalog database and makes sure every table exists.
func ConnectDB(ctx context.Context, cfg common.DatabaseConfig, logger *zap.Logger) (*repo.DB, error) {
	logger.Info("db.connect.start", zap.Bool("postgres", repo.IsPostgresDSN(cfg.DSN)))
	db, err := repo.Open(ctx, repo.Config{
		DSN:             cfg.DSN,
		MaxConns:        cfg.MaxConns,
		MinConns:        cfg.MinConns,
		MaxConnLifetime: cfg.MaxConnLifetime,
		MaxConnIdleTime: cfg.MaxConnIdleTime,
		DialTimeout:     cfg.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("db.connect.failed", zap.Error(err))
		return nil, common.NewAppError(common.CodeCatalog, "cannot open catalog database", err)
	}
	if err := db.Migrate(ctx, logger); err != nil {
		db.Close(logger)
		return nil, common.NewAppError(common.CodeCatalog, "catalog migration failed", err)
	}
	logger.Info("db.connect.ok", zap.String("dialect", db.Dialect()))
	return db, nil
}

// PingDB pings the database to ensure it's responsive
func PingDB(ctx context.Context, db *repo.DB, logger *zap.Logger, timeout time.Duration) error {
	if err := db.HealthCheck(ctx, timeout); err != nil {
		logger.Error("db.ping.failed", zap.Error(err))
		return err
	}
	logger.Debug("db.ping.ok")
	return nil
}
