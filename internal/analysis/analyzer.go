// Package analysis asks a language model for section-by-section tailoring
// edits and turns its answer into a validated models.AnalysisResult.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/resumetailor/internal/llm"
	"github.com/resumetailor/internal/logging"
	"github.com/resumetailor/internal/overlay"
	"github.com/resumetailor/internal/prompts"
	"github.com/resumetailor/internal/retry"
	"github.com/resumetailor/pkg/models"
)

var (
	ErrEmptyResume         = errors.New("resume text is empty")
	ErrEmptyJobDescription = errors.New("job description is empty")
	ErrInvalidAnalysis     = errors.New("model returned an unusable analysis")
)

// Provider is anything that can analyse a resume against a job description
type Provider interface {
	Analyze(ctx context.Context, resumeText, jobDescription string) (*models.AnalysisResult, error)
}

// Options tunes an Analyzer
type Options struct {
	Model             string
	RequestsPerMinute int
	Timeout           time.Duration
	Retry             retry.Config
	// TranscriptDir receives one prompt/response transcript per analysis
	TranscriptDir string
}

// Analyzer is the LLM-backed Provider
type Analyzer struct {
	client        *llm.ResilientClient
	builder       *prompts.PromptBuilder
	model         string
	transcriptDir string
	logger        zerolog.Logger
}

// New creates an Analyzer on top of gen
func New(gen llm.Generator, opts Options) *Analyzer {
	logger := log.With().Str("component", "analysis").Logger()
	return &Analyzer{
		client: llm.NewResilientClient(gen, llm.Options{
			Retry:             opts.Retry,
			RequestsPerMinute: opts.RequestsPerMinute,
			Timeout:           opts.Timeout,
			Logger:            &logger,
		}),
		builder:       prompts.NewPromptBuilder(),
		model:         opts.Model,
		transcriptDir: opts.TranscriptDir,
		logger:        logger,
	}
}

// Analyze returns the proposed edits for every section of resumeText
func (a *Analyzer) Analyze(ctx context.Context, resumeText, jobDescription string) (*models.AnalysisResult, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, ErrEmptyResume
	}
	if strings.TrimSpace(jobDescription) == "" {
		return nil, ErrEmptyJobDescription
	}

	runID := uuid.NewString()
	logger := a.logger.With().Str("analysis_id", runID).Logger()

	transcript, err := logging.StartTranscript(a.transcriptDir, runID)
	if err != nil {
		logger.Warn().Err(err).Msg("Transcript disabled for this analysis")
	}
	defer transcript.Close()

	prompt := a.builder.BuildTailoringPrompt(resumeText, jobDescription)
	transcript.LogRequest(a.model, prompt)

	var result models.AnalysisResult
	resp, err := a.client.GenerateJSON(ctx, prompt, &result)
	if resp != nil && resp.Raw != "" {
		transcript.LogResponse(resp.Raw)
	}
	if err != nil {
		transcript.LogError("generate", err)
		if llm.IsUndecodable(err) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidAnalysis, err)
		}
		return nil, fmt.Errorf("failed to analyze resume: %w", err)
	}

	if err := normalize(&result, logger); err != nil {
		transcript.LogError("validate", err)
		return nil, err
	}

	logger.Info().
		Int("sections", len(result.Sections)).
		Int("initial_score", result.InitialScore).
		Int("projected_score", result.ProjectedScore).
		Int("attempts", resp.Attempts).
		Dur("duration", resp.Duration).
		Msg("Analysis complete")

	return &result, nil
}

// normalize clamps scores, validates section names and logs edits that will
// not apply. Edits that cannot be located are left for the reviewer to see.
func normalize(result *models.AnalysisResult, logger zerolog.Logger) error {
	if len(result.Sections) == 0 {
		return fmt.Errorf("%w: no sections", ErrInvalidAnalysis)
	}

	if err := overlay.ValidateScores(result.InitialScore, result.ProjectedScore); err != nil {
		logger.Warn().
			Int("initial_score", result.InitialScore).
			Int("projected_score", result.ProjectedScore).
			Msg("Clamping scores into range")
		result.InitialScore = clamp(result.InitialScore)
		result.ProjectedScore = clamp(result.ProjectedScore)
	}

	for i := range result.Sections {
		result.Sections[i].SectionName = strings.TrimSpace(result.Sections[i].SectionName)
	}
	if err := overlay.ValidateSections(result.Sections); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAnalysis, err)
	}

	for _, s := range result.Sections {
		issues := overlay.Lint(s)
		if len(issues) == 0 {
			continue
		}
		counts := make(map[overlay.IssueKind]int)
		for _, is := range issues {
			counts[is.Kind]++
		}
		logger.Warn().
			Str("section", s.SectionName).
			Int("edits", len(s.Edits)).
			Int("unmatched", counts[overlay.IssueUnmatched]).
			Int("empty_target", counts[overlay.IssueEmptyTarget]).
			Int("overlapping", counts[overlay.IssueOverlap]).
			Msg("Section has edits that will not apply")
	}
	return nil
}

func clamp(score int) int {
	return min(max(score, 0), 100)
}
