// Package retry runs operations with exponential backoff. It is used for
// database reconnects and telescope mount requests.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// Config configures retry behavior with exponential backoff.
type Config struct {
	// MaxRetries is the maximum number of retry attempts (default: 3)
	MaxRetries int

	// InitialDelay is the initial backoff delay (default: 1 second)
	InitialDelay time.Duration

	// MaxDelay is the maximum backoff delay (default: 60 seconds)
	MaxDelay time.Duration

	// Multiplier is the backoff multiplier (default: 2.0 for exponential)
	Multiplier float64

	// RespectRetryAfter waits for the delay suggested by errors that
	// implement RetryAfter (default: true)
	RespectRetryAfter bool

	// Logger receives one line per failed attempt. Nil disables logging.
	Logger log.Logger
}

// DefaultConfig returns sensible defaults for retry behavior.
func DefaultConfig() Config {
	return Config{
		MaxRetries:        3,
		InitialDelay:      time.Second,
		MaxDelay:          60 * time.Second,
		Multiplier:        2.0,
		RespectRetryAfter: true,
	}
}

// Backoff returns the delay after the given failed attempt (0-based):
// min(InitialDelay * Multiplier^attempt, MaxDelay).
func (c Config) Backoff(attempt int) time.Duration {
	multiplier := c.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	next := float64(c.InitialDelay) * math.Pow(multiplier, float64(attempt))
	if c.MaxDelay > 0 && next > float64(c.MaxDelay) {
		return c.MaxDelay
	}
	return time.Duration(next)
}

// RetryAfterError is implemented by errors that know when the operation may
// be tried again, such as an HTTP 503 with a Retry-After header.
type RetryAfterError interface {
	error
	RetryAfter() time.Duration
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do returns it at once.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do executes fn with exponential backoff until it succeeds, returns a
// permanent error, runs out of retries or ctx is done.
//
// Example usage:
//
//	err := retry.Do(ctx, retry.DefaultConfig(), func(ctx context.Context) error {
//	    return mount.AbortSlew(ctx)
//	})
func Do(ctx context.Context, cfg Config, fn func(context.Context) error) error {
	_, err := DoResult(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoResult executes fn with exponential backoff and returns its result.
// On failure the zero value is returned together with the last error.
//
// Example usage:
//
//	pos, err := retry.DoResult(ctx, retry.DefaultConfig(), func(ctx context.Context) (Position, error) {
//	    return mount.Position(ctx)
//	})
func DoResult[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		// First attempt (no delay)
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-timer.C:
			}
		}

		res, err := fn(ctx)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if IsPermanent(err) {
			return zero, err
		}
		if ctx.Err() != nil {
			return zero, fmt.Errorf("retry cancelled: %w (last error: %v)", ctx.Err(), err)
		}

		// Last attempt - don't calculate next delay
		if attempt == cfg.MaxRetries {
			break
		}

		delay = cfg.Backoff(attempt)
		var ra RetryAfterError
		if cfg.RespectRetryAfter && errors.As(err, &ra) && ra.RetryAfter() > 0 {
			delay = ra.RetryAfter()
		}

		if cfg.Logger != nil {
			level.Warn(cfg.Logger).Log("msg", "attempt failed", "attempt", attempt+1, "retry_in", delay, "err", err)
		}
	}

	return zero, fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, lastErr)
}
