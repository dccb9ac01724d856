package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bevscan/bevscan/internal/common"
)

// Open connects a pgx pool with the configured sizing and lifetime knobs and
// verifies the connection with a ping.
func Open(ctx context.Context, dbCfg common.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := poolConfig(dbCfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("db.connected",
		"host", cfg.ConnConfig.Host,
		"database", cfg.ConnConfig.Database,
		"max_conns", cfg.MaxConns,
	)
	return pool, nil
}

// poolConfig maps the application's database settings onto pgxpool's config.
// Zero values keep pgxpool defaults.
func poolConfig(dbCfg common.DatabaseConfig) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dbCfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if dbCfg.MaxConns > 0 {
		cfg.MaxConns = dbCfg.MaxConns
	}
	if dbCfg.MinConns > 0 {
		cfg.MinConns = dbCfg.MinConns
	}
	if dbCfg.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = dbCfg.MaxConnLifetime
	}
	if dbCfg.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = dbCfg.MaxConnIdleTime
	}
	if dbCfg.DialTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = dbCfg.DialTimeout
	}
	return cfg, nil
}

// HealthCheck pings the pool with a short deadline.
func HealthCheck(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return pool.Ping(ctx)
}

// mapNotFound translates pgx.ErrNoRows into the shared not-found sentinel so
// handlers can pick the status code without knowing about pgx.
func mapNotFound(err error, entity string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", entity, common.ErrNotFound)
	}
	return fmt.Errorf("get %s: %w", entity, err)
}
