package overlay

import (
	"errors"
	"fmt"

	"github.com/resumetailor/pkg/models"
)

var (
	ErrEmptySectionName = errors.New("section name is empty")
	ErrDuplicateSection = errors.New("duplicate section name")
	ErrScoreRange       = errors.New("score out of range 0-100")
)

// IssueKind classifies a non-fatal problem with a section's edits
type IssueKind string

const (
	IssueUnmatched   IssueKind = "unmatched"    // target not found in the original text
	IssueEmptyTarget IssueKind = "empty_target" // anchored edit without a target
	IssueOverlap     IssueKind = "overlap"      // lost the overlap sweep to another edit
)

// Issue is a soft diagnostic. Issues never block rendering or merging.
type Issue struct {
	Kind      IssueKind `json:"kind"`
	EditIndex int       `json:"edit_index"`
	Message   string    `json:"message"`
}

// ValidateSections checks the invariants the engine relies on across an
// analysis result: every section has a name and names are unique.
func ValidateSections(sections []models.SectionAnalysis) error {
	var errs []error
	seen := make(map[string]int, len(sections))
	for i, s := range sections {
		if s.SectionName == "" {
			errs = append(errs, fmt.Errorf("section %d: %w", i, ErrEmptySectionName))
			continue
		}
		if prev, ok := seen[s.SectionName]; ok {
			errs = append(errs, fmt.Errorf("sections %d and %d named %q: %w", prev, i, s.SectionName, ErrDuplicateSection))
			continue
		}
		seen[s.SectionName] = i
	}
	return errors.Join(errs...)
}

// ValidateScores checks that both match scores are within 0-100
func ValidateScores(initial, projected int) error {
	var errs []error
	if initial < 0 || initial > 100 {
		errs = append(errs, fmt.Errorf("initial score %d: %w", initial, ErrScoreRange))
	}
	if projected < 0 || projected > 100 {
		errs = append(errs, fmt.Errorf("projected score %d: %w", projected, ErrScoreRange))
	}
	return errors.Join(errs...)
}

// Lint reports edits that will be silently skipped by Resolve.
func Lint(s models.SectionAnalysis) []Issue {
	anchored, ok := Classify(s).(AnchoredSection)
	if !ok {
		return nil
	}

	var issues []Issue
	res := ResolveDetailed(anchored.OriginalText, anchored.Edits)
	for _, idx := range res.Unmatched {
		if anchored.Edits[idx].TargetText == "" {
			issues = append(issues, Issue{
				Kind:      IssueEmptyTarget,
				EditIndex: idx,
				Message:   "edit has no target text in a section with original text",
			})
			continue
		}
		issues = append(issues, Issue{
			Kind:      IssueUnmatched,
			EditIndex: idx,
			Message:   fmt.Sprintf("target %q not found in original text", truncate(anchored.Edits[idx].TargetText, 40)),
		})
	}
	for _, c := range res.Conflicts {
		issues = append(issues, Issue{
			Kind:      IssueOverlap,
			EditIndex: c.Rejected.OriginalIndex,
			Message:   fmt.Sprintf("overlaps edit %d at offset %d", c.Accepted.OriginalIndex, c.Accepted.Position),
		})
	}
	return issues
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
