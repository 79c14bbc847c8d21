package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config controls global log output
type Config struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
	// TranscriptDir, when set, receives one file per analysis with the full
	// prompt and model response.
	TranscriptDir string `koanf:"transcript_dir"`
}

// Setup configures the global zerolog logger
func Setup(cfg Config) {
	SetupWithWriter(cfg, os.Stderr)
}

// SetupWithWriter is Setup with an explicit destination
func SetupWithWriter(cfg Config, w io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	out := w
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// ParseLevel maps a config string to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// CheckLevel reports an error for a non-empty level zerolog does not know
func CheckLevel(level string) error {
	if strings.TrimSpace(level) == "" {
		return nil
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return nil
}

// ForSession returns a child of the global logger tagged with a review session ID
func ForSession(sessionID string) zerolog.Logger {
	return log.With().Str("session_id", sessionID).Logger()
}
