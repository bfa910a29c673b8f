package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/lib/pq"

	"github.com/unklstewy/skyscope/internal/logging"
	"github.com/unklstewy/skyscope/internal/retry"
	"github.com/unklstewy/skyscope/pkg/config"
)

// ReconnectWithRetry attempts to connect to the database with exponential backoff.
// This provides resilience against temporary database outages at startup.
//
// Parameters:
//   - cfg: Database configuration
//   - policy: Backoff settings; MaxRetries bounds the number of extra attempts
//   - logger: Receives one line per attempt
//
// Returns: Connected database or error if all retries exhausted
func ReconnectWithRetry(ctx context.Context, cfg config.DatabaseConfig, policy retry.Config, logger log.Logger) (*DB, error) {
	logger = logging.OrNop(logger)
	if policy.Logger == nil {
		policy.Logger = logger
	}
	attempt := 0
	db, err := retry.DoResult(ctx, policy, func(ctx context.Context) (*DB, error) {
		attempt++
		level.Debug(logger).Log("msg", "database connection attempt", "attempt", attempt, "host", cfg.Host)
		return Connect(ctx, cfg)
	})
	if err != nil {
		return nil, err
	}
	level.Info(logger).Log("msg", "database connected", "host", cfg.Host, "attempts", attempt)
	return db, nil
}

// EnsureConnection checks if the database connection is alive and reconnects if needed.
// This should be called periodically or before critical operations.
//
// Returns: Active database connection (either original or new) and error
func EnsureConnection(ctx context.Context, db *DB, cfg config.DatabaseConfig, logger log.Logger) (*DB, error) {
	logger = logging.OrNop(logger)
	if db == nil {
		level.Warn(logger).Log("msg", "database connection is nil, reconnecting")
		return ReconnectWithRetry(ctx, cfg, reconnectPolicy(), logger)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		level.Warn(logger).Log("msg", "database connection lost, reconnecting", "err", err)
		db.Close()
		return ReconnectWithRetry(ctx, cfg, reconnectPolicy(), logger)
	}

	return db, nil
}

// HealthCheck reports whether the database answers a trivial query.
func HealthCheck(ctx context.Context, db *DB) error {
	if db == nil {
		return errors.New("no database connection")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("unexpected result %d", result)
	}
	return nil
}

// WithRetry executes a database operation, retrying only when the failure
// looks like a lost connection. Any other error is returned at once.
func WithRetry(ctx context.Context, maxRetries int, logger log.Logger, operation func(ctx context.Context) error) error {
	policy := reconnectPolicy()
	policy.MaxRetries = maxRetries
	policy.Logger = logger
	return retry.Do(ctx, policy, func(ctx context.Context) error {
		err := operation(ctx)
		if err != nil && !IsConnectionError(err) {
			return retry.Permanent(err)
		}
		return err
	})
}

// connectionErrors are message fragments of transient network failures.
var connectionErrors = []string{
	"connection refused",
	"broken pipe",
	"no connection",
	"connection reset",
	"eof",
	"timeout",
	"bad connection",
}

// IsConnectionError reports whether err was caused by a lost or refused
// connection rather than by the query itself.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08: connection exception. Class 57P: operator intervention
		// (server shutting down).
		return pqErr.Code.Class() == "08" || strings.HasPrefix(string(pqErr.Code), "57P")
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range connectionErrors {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func reconnectPolicy() retry.Config {
	return retry.Config{
		MaxRetries:   3,
		InitialDelay: time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2,
	}
}
