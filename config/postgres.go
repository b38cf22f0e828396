package config

import (
	"context"
	"database/sql"
	"time"

	"github.com/cenkalti/backoff/v5"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

// NewPostgres opens the connection pool and waits until the database answers.
func NewPostgres(ctx context.Context, cfg Postgres) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	operation := func() (struct{}, error) {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to connect to Postgres. Retrying...")
			return struct{}{}, err
		}
		return struct{}{}, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = 10 * time.Second
	if _, err := backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(5)); err != nil {
		_ = db.Close()
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Msg("Successfully connected to Postgres")
	return db, nil
}
