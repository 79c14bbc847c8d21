package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/resumetailor/internal/retry"
)

// Generator produces a completion for a single prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Options tunes a ResilientClient
type Options struct {
	Retry retry.Config
	// RequestsPerMinute paces calls to the provider; zero disables pacing.
	RequestsPerMinute int
	// Timeout bounds each individual attempt; zero means no extra bound.
	Timeout time.Duration
	Logger  *zerolog.Logger
}

// ResilientClient wraps a Generator with pacing, per-attempt timeouts,
// retries and JSON repair.
type ResilientClient struct {
	gen     Generator
	retry   retry.Config
	limiter *rate.Limiter
	timeout time.Duration
	logger  zerolog.Logger
}

// Response carries the outcome of a structured call
type Response struct {
	Raw         string
	Attempts    int
	Duration    time.Duration
	RepairStats JSONRepairStats
}

// NewResilientClient creates a new resilient wrapper around gen
func NewResilientClient(gen Generator, opts Options) *ResilientClient {
	c := &ResilientClient{
		gen:     gen,
		retry:   opts.Retry,
		timeout: opts.Timeout,
		logger:  log.With().Str("component", "llm").Logger(),
	}
	if opts.Logger != nil {
		c.logger = *opts.Logger
	}
	if opts.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}
	return c
}

// GenerateJSON prompts the model and decodes its answer into target. Provider
// errors that look transient and responses that cannot be decoded are retried;
// anything else fails at once.
func (c *ResilientClient) GenerateJSON(ctx context.Context, prompt string, target interface{}) (*Response, error) {
	resp := &Response{}

	result := retry.Do(ctx, c.retry, c.logger, func(ctx context.Context) error {
		raw, err := c.call(ctx, prompt)
		if err != nil {
			if ctx.Err() != nil || !retry.IsRetryableError(err) {
				return retry.Permanent(err)
			}
			return err
		}
		resp.Raw = raw

		stats, err := DecodeResponse(raw, target, c.logger)
		resp.RepairStats = stats
		return err
	})

	resp.Attempts = result.Attempts
	resp.Duration = result.TotalDuration
	if !result.Success {
		return resp, fmt.Errorf("model call failed after %d attempt(s): %w", result.Attempts, result.LastError)
	}
	return resp, nil
}

func (c *ResilientClient) call(ctx context.Context, prompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", retry.Permanent(fmt.Errorf("rate limiter: %w", err))
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := c.gen.Generate(ctx, prompt)
	c.logger.Debug().
		Dur("duration", time.Since(start)).
		Int("prompt_bytes", len(prompt)).
		Int("response_bytes", len(raw)).
		Err(err).
		Msg("Model call finished")
	return raw, err
}
