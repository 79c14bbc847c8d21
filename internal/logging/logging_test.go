package logging

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))
}

func TestForSessionTagsLogger(t *testing.T) {
	var buf bytes.Buffer
	SetupWithWriter(Config{Level: "debug"}, &buf)
	defer SetupWithWriter(Config{Level: "info"}, os.Stderr)

	logger := ForSession("abc-123")
	logger.Info().Msg("hello")

	assert.Contains(t, buf.String(), `"session_id":"abc-123"`)
	assert.Contains(t, buf.String(), `"message":"hello"`)

	buf.Reset()
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	log.Info().Msg("suppressed")
	assert.Empty(t, buf.String())
}

func TestTranscript(t *testing.T) {
	dir := t.TempDir()

	tr, err := StartTranscript(dir, "run1")
	require.NoError(t, err)
	require.NotNil(t, tr)

	tr.LogRequest("gpt-4o", "PROMPT BODY")
	tr.LogResponse("RESPONSE BODY")
	tr.LogError("decode", errors.New("boom"))
	tr.Close()
	tr.Close()

	data, err := os.ReadFile(tr.Path())
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "LLM REQUEST (model gpt-4o, 11 chars)")
	assert.Contains(t, content, "PROMPT BODY")
	assert.Contains(t, content, "RESPONSE BODY")
	assert.Contains(t, content, "ERROR in decode: boom")
	assert.Contains(t, content, "Analysis run1 finished")
}

func TestTranscriptDisabled(t *testing.T) {
	tr, err := StartTranscript("", "x")
	require.NoError(t, err)
	assert.Nil(t, tr)

	// nil transcripts are no-ops
	tr.LogRequest("m", "p")
	tr.Close()
	assert.Equal(t, "", tr.Path())
}
