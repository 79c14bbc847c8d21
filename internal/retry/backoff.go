package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config configures retry behavior with exponential backoff
type Config struct {
	MaxRetries int           `koanf:"max_retries"` // retries after the first attempt
	BaseDelay  time.Duration `koanf:"base_delay"`
	MaxDelay   time.Duration `koanf:"max_delay"`
	Multiplier float64       `koanf:"multiplier"`
	Jitter     bool          `koanf:"jitter"` // up to 10% either way
}

// Result describes how a retried operation went
type Result struct {
	Attempts      int
	TotalDuration time.Duration
	LastError     error
	Success       bool
	Reasons       []string
}

// DefaultConfig returns a retry configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
	}
}

// LLMConfig is tuned for slow model calls
func LLMConfig() Config {
	return Config{
		MaxRetries: 2,
		BaseDelay:  2 * time.Second,
		MaxDelay:   60 * time.Second,
		Multiplier: 2.5,
		Jitter:     true,
	}
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err so Do stops retrying and returns it immediately
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do runs operation until it succeeds, returns a permanent error, runs out of
// retries or ctx is done. The returned Result.LastError has any permanent
// marker removed.
func Do(ctx context.Context, config Config, logger zerolog.Logger, operation func(ctx context.Context) error) Result {
	start := time.Now()
	result := Result{}

	finish := func(err error) Result {
		var p *permanentError
		if errors.As(err, &p) {
			err = p.err
		}
		result.LastError = err
		result.Success = err == nil
		result.TotalDuration = time.Since(start)
		return result
	}

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result.Attempts = attempt + 1

		err := operation(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Info().
					Int("retries", attempt).
					Dur("duration", time.Since(start)).
					Msg("Operation succeeded after retry")
			}
			return finish(nil)
		}
		result.Reasons = append(result.Reasons, err.Error())

		if IsPermanent(err) {
			logger.Warn().Err(err).Int("attempt", attempt+1).Msg("Operation failed permanently")
			return finish(err)
		}
		if attempt >= config.MaxRetries {
			logger.Error().Err(err).Int("attempts", result.Attempts).Msg("Operation failed, retries exhausted")
			return finish(err)
		}
		if ctx.Err() != nil {
			return finish(ctx.Err())
		}

		delay := calculateDelay(config, attempt)
		logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_attempts", config.MaxRetries+1).
			Dur("backoff", delay).
			Msg("Operation failed, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return finish(ctx.Err())
		case <-timer.C:
		}
	}

	return finish(result.LastError)
}

// calculateDelay computes baseDelay * multiplier^attempt, capped at MaxDelay
func calculateDelay(config Config, attempt int) time.Duration {
	delay := float64(config.BaseDelay) * math.Pow(config.Multiplier, float64(attempt))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}

	if config.Jitter {
		jitterRange := delay * 0.1
		delay += (rand.Float64() - 0.5) * 2 * jitterRange
		if delay < 0 {
			delay = float64(config.BaseDelay)
		}
	}

	return time.Duration(delay)
}

var retryableMessages = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"temporary failure",
	"service unavailable",
	"too many requests",
	"rate limit",
	"resource exhausted",
	"overloaded",
	"429",
	"500",
	"502",
	"503",
	"504",
	"no such host",
	"network unreachable",
	"broken pipe",
	"unexpected eof",
}

// IsRetryableError reports whether err looks like a transient provider or
// network failure
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, m := range retryableMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
