package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resumetailor/internal/retry"
)

type scriptedGenerator struct {
	responses []string
	errs      []error
	prompts   []string
}

func (s *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	i := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return `{}`, nil
}

func testOptions() Options {
	nop := zerolog.Nop()
	return Options{
		Retry:  retry.Config{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1},
		Logger: &nop,
	}
}

type scoreOnly struct {
	InitialScore int `json:"initial_score"`
}

func TestResilientClient_DecodesRepairedResponse(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"```json\n{\"initial_score\": 61,}\n```"}}
	client := NewResilientClient(gen, testOptions())

	var out scoreOnly
	resp, err := client.GenerateJSON(context.Background(), "prompt", &out)

	require.NoError(t, err)
	assert.Equal(t, 61, out.InitialScore)
	assert.Equal(t, 1, resp.Attempts)
	assert.True(t, resp.RepairStats.WasRepaired)
	assert.Equal(t, []string{"prompt"}, gen.prompts)
}

func TestResilientClient_RetriesTransientErrors(t *testing.T) {
	gen := &scriptedGenerator{
		errs:      []error{errors.New("429 too many requests")},
		responses: []string{"", `{"initial_score": 10}`},
	}
	client := NewResilientClient(gen, testOptions())

	var out scoreOnly
	resp, err := client.GenerateJSON(context.Background(), "p", &out)

	require.NoError(t, err)
	assert.Equal(t, 2, resp.Attempts)
	assert.Equal(t, 10, out.InitialScore)
}

func TestResilientClient_RetriesUndecodableResponses(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"I cannot help with that.", `{"initial_score": 5}`}}
	client := NewResilientClient(gen, testOptions())

	var out scoreOnly
	resp, err := client.GenerateJSON(context.Background(), "p", &out)

	require.NoError(t, err)
	assert.Equal(t, 2, resp.Attempts)
	assert.Equal(t, 5, out.InitialScore)
}

func TestResilientClient_FailsFastOnPermanentErrors(t *testing.T) {
	denied := errors.New("invalid api key")
	gen := &scriptedGenerator{errs: []error{denied}}
	client := NewResilientClient(gen, testOptions())

	var out scoreOnly
	resp, err := client.GenerateJSON(context.Background(), "p", &out)

	require.Error(t, err)
	assert.ErrorIs(t, err, denied)
	assert.Equal(t, 1, resp.Attempts)
	assert.Len(t, gen.prompts, 1)
}

func TestResilientClient_PerAttemptTimeout(t *testing.T) {
	calls := 0
	gen := GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		if calls == 1 {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return `{"initial_score": 1}`, nil
	})

	opts := testOptions()
	opts.Timeout = 20 * time.Millisecond
	client := NewResilientClient(gen, opts)

	var out scoreOnly
	_, err := client.GenerateJSON(context.Background(), "p", &out)

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestResilientClient_RateLimitHonoursContext(t *testing.T) {
	gen := &scriptedGenerator{}
	opts := testOptions()
	opts.RequestsPerMinute = 1
	client := NewResilientClient(gen, opts)

	var out scoreOnly
	_, err := client.GenerateJSON(context.Background(), "first", &out)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = client.GenerateJSON(ctx, "second", &out)

	require.Error(t, err)
	assert.Len(t, gen.prompts, 1, "second call must wait for the limiter, not hit the provider")
}
