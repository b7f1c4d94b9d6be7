package db

import (
	"context"
	"fmt"
	"time"

	"power_dialer_backend/platform/config"
	"power_dialer_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Retry runs fn up to attempts times with quadratic backoff (base, 4*base,
// 9*base, ...). Boot steps use it to ride out a database or redis that starts
// after the service.
func Retry(ctx context.Context, log *logger.Logger, name string, attempts int, base time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: attempts must be positive", name)
	}

	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == attempts {
			return fmt.Errorf("%s: giving up after %d attempts: %w", name, attempts, err)
		}
		log.Warn("boot step failed, retrying", "step", name, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt*attempt) * base):
		}
	}
}

// Connect opens the pool, retrying while the database comes up.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	err := Retry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	})
	return pool, err
}
