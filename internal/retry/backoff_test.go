package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(retries int) Config {
	return Config{
		MaxRetries: retries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Multiplier: 2.0,
		Jitter:     false,
	}
}

func TestDefaultConfigs(t *testing.T) {
	def := DefaultConfig()
	assert.Equal(t, 3, def.MaxRetries)
	assert.Equal(t, time.Second, def.BaseDelay)
	assert.Equal(t, 30*time.Second, def.MaxDelay)
	assert.True(t, def.Jitter)

	llm := LLMConfig()
	assert.Equal(t, 2*time.Second, llm.BaseDelay)
	assert.Equal(t, 2.5, llm.Multiplier)
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	res := Do(context.Background(), fastConfig(2), zerolog.Nop(), func(context.Context) error {
		calls++
		return nil
	})

	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 1, calls)
	assert.NoError(t, res.LastError)
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	res := Do(context.Background(), fastConfig(3), zerolog.Nop(), func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("attempt %d: 503 service unavailable", calls)
		}
		return nil
	})

	assert.True(t, res.Success)
	assert.Equal(t, 3, res.Attempts)
	assert.Len(t, res.Reasons, 2)
}

func TestDo_ExhaustsRetries(t *testing.T) {
	boom := errors.New("boom")
	res := Do(context.Background(), fastConfig(2), zerolog.Nop(), func(context.Context) error {
		return boom
	})

	assert.False(t, res.Success)
	assert.Equal(t, 3, res.Attempts)
	assert.ErrorIs(t, res.LastError, boom)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	bad := errors.New("malformed response")
	calls := 0
	res := Do(context.Background(), fastConfig(5), zerolog.Nop(), func(context.Context) error {
		calls++
		return Permanent(bad)
	})

	assert.Equal(t, 1, calls)
	assert.False(t, res.Success)
	assert.Same(t, bad, res.LastError)
	assert.False(t, IsPermanent(res.LastError))
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(5)
	cfg.BaseDelay = time.Hour
	cfg.MaxDelay = time.Hour

	calls := 0
	res := Do(ctx, cfg, zerolog.Nop(), func(context.Context) error {
		calls++
		cancel()
		return errors.New("timeout")
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, res.LastError, context.Canceled)
}

func TestCalculateDelay(t *testing.T) {
	cfg := Config{BaseDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond, Multiplier: 2}

	assert.Equal(t, 10*time.Millisecond, calculateDelay(cfg, 0))
	assert.Equal(t, 20*time.Millisecond, calculateDelay(cfg, 1))
	assert.Equal(t, 40*time.Millisecond, calculateDelay(cfg, 2))
	assert.Equal(t, 50*time.Millisecond, calculateDelay(cfg, 3))

	cfg.Jitter = true
	for i := 0; i < 100; i++ {
		d := calculateDelay(cfg, 1)
		require.GreaterOrEqual(t, d, 18*time.Millisecond)
		require.LessOrEqual(t, d, 22*time.Millisecond)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("googleapi: Error 429: Resource has been exhausted"), true},
		{errors.New("dial tcp: connection refused"), true},
		{fmt.Errorf("call: %w", context.DeadlineExceeded), true},
		{context.Canceled, false},
		{errors.New("invalid api key"), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsRetryableError(tt.err), "%v", tt.err)
	}
}
