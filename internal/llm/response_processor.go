package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

var (
	// ErrNoJSON means the model answered without any JSON object
	ErrNoJSON = errors.New("no JSON found in model response")
	// ErrUndecodable means the JSON could not be repaired or has the wrong shape
	ErrUndecodable = errors.New("model response could not be decoded")
)

// IsUndecodable reports whether err came from a response that was not usable JSON
func IsUndecodable(err error) bool {
	return errors.Is(err, ErrNoJSON) || errors.Is(err, ErrUndecodable)
}

// DecodeResponse extracts, repairs and unmarshals a model response into target
func DecodeResponse(raw string, target interface{}, logger zerolog.Logger) (JSONRepairStats, error) {
	if !strings.Contains(raw, "{") {
		logger.Warn().Str("response", truncateForLog(raw, 200)).Msg("No JSON in model response")
		return JSONRepairStats{}, ErrNoJSON
	}

	repaired, stats, err := RepairJSON(raw)
	if stats.WasRepaired {
		logger.Info().
			Strs("strategies", stats.RepairStrategies).
			Int("errors_fixed", stats.ErrorsFixed).
			Int("original_bytes", stats.OriginalBytes).
			Int("repaired_bytes", stats.RepairedBytes).
			Dur("repair_time", stats.RepairTime).
			Msg("Model JSON repaired")
	}
	if err != nil {
		logger.Error().
			Err(err).
			Str("original", truncateForLog(raw, 500)).
			Str("repaired", truncateForLog(repaired, 500)).
			Msg("Model JSON could not be repaired")
		return stats, fmt.Errorf("%w: %w", ErrUndecodable, err)
	}

	if err := json.Unmarshal([]byte(repaired), target); err != nil {
		logger.Error().Err(err).Str("json", truncateForLog(repaired, 500)).Msg("Model JSON has the wrong shape")
		return stats, fmt.Errorf("%w: %w", ErrUndecodable, err)
	}

	return stats, nil
}

func truncateForLog(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
