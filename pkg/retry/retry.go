package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Config contains backoff configuration
type Config struct {
	// MaxRetries is the number of retries after the initial attempt
	MaxRetries int
	// InitialInterval is the first backoff interval
	InitialInterval time.Duration
	// MaxInterval caps the backoff interval
	MaxInterval time.Duration
	// Multiplier grows the interval after each retry
	Multiplier float64
	// JitterFactor adds +/- jitter as a fraction of the interval (0-1)
	JitterFactor float64
}

// DefaultConfig returns 3 retries starting at 1s, doubling up to 10s
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:      3,
		InitialInterval: time.Second,
		MaxInterval:     10 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

// Operation is the function to be retried
type Operation func(ctx context.Context) error

// PermanentError stops retrying immediately
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks an error as not retryable
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Do runs op until it succeeds, returns a permanent error, exhausts its retries
// or ctx is done. onRetry, if set, is called before each wait.
func Do(ctx context.Context, cfg *Config, op Operation, onRetry func(attempt int, err error)) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return errors.Join(err, lastErr)
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		var perm *PermanentError
		if errors.As(lastErr, &perm) {
			return perm.Err
		}

		if attempt == cfg.MaxRetries {
			break
		}
		if onRetry != nil {
			onRetry(attempt+1, lastErr)
		}

		select {
		case <-ctx.Done():
			return errors.Join(ctx.Err(), lastErr)
		case <-time.After(Interval(cfg, attempt)):
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", cfg.MaxRetries+1, lastErr)
}

// Interval returns the backoff before retry number attempt+1
func Interval(cfg *Config, attempt int) time.Duration {
	multiplier := cfg.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}
	interval := float64(cfg.InitialInterval) * math.Pow(multiplier, float64(attempt))

	if cfg.JitterFactor > 0 {
		jitter := interval * math.Min(cfg.JitterFactor, 1)
		interval += (rand.Float64()*2 - 1) * jitter
	}

	if cfg.MaxInterval > 0 && interval > float64(cfg.MaxInterval) {
		interval = float64(cfg.MaxInterval)
	}
	if interval < 0 {
		interval = float64(cfg.InitialInterval)
	}

	return time.Duration(interval)
}
