// Package secrets finds credentials in documents before they are sent to a
// third-party model.
package secrets

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/zricethezav/gitleaks/v8/detect"
)

// ErrSecretsFound is returned when a document carries something that looks
// like a credential
var ErrSecretsFound = errors.New("document appears to contain credentials")

// Finding is one detected credential. The secret itself is never kept.
type Finding struct {
	Rule        string `json:"rule"`
	Description string `json:"description"`
	Line        int    `json:"line"`
}

// Scanner wraps a gitleaks detector with the default rule set
type Scanner struct {
	mu       sync.Mutex
	detector *detect.Detector
}

// NewScanner loads the default gitleaks rules
func NewScanner() (*Scanner, error) {
	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load secret detection rules: %w", err)
	}
	return &Scanner{detector: detector}, nil
}

// Scan returns the credentials found in text, ordered by line
func (s *Scanner) Scan(text string) []Finding {
	s.mu.Lock()
	raw := s.detector.DetectString(text)
	s.mu.Unlock()

	findings := make([]Finding, 0, len(raw))
	for _, f := range raw {
		findings = append(findings, Finding{
			Rule:        f.RuleID,
			Description: f.Description,
			Line:        f.StartLine + 1,
		})
	}
	sort.SliceStable(findings, func(i, j int) bool { return findings[i].Line < findings[j].Line })

	if len(findings) > 0 {
		log.Warn().Int("findings", len(findings)).Str("first_rule", findings[0].Rule).Msg("Credentials detected in document")
	}
	return findings
}

// Check is Scan as an error
func (s *Scanner) Check(text string) error {
	findings := s.Scan(text)
	if len(findings) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s on line %d", ErrSecretsFound, findings[0].Rule, findings[0].Line)
}
