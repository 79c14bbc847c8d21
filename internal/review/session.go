// Package review holds the in-memory state of one tailoring review: the
// analysed sections, the reviewer's edits to them, and the decisions taken on
// overlapping edits.
package review

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/resumetailor/internal/logging"
	"github.com/resumetailor/internal/overlay"
	"github.com/resumetailor/pkg/models"
)

var (
	ErrSectionNotFound     = errors.New("section not found")
	ErrEditNotFound        = errors.New("edit not found")
	ErrConflictNotFound    = errors.New("edit is not in conflict")
	ErrUnresolvedConflicts = errors.New("unresolved overlapping edits")
)

// Choice is a reviewer decision on an overlapping pair of edits
type Choice string

const (
	KeepAccepted  Choice = "keep_accepted" // drop the rejected edit
	KeepRejected  Choice = "keep_rejected" // drop the accepted edit so the rejected one applies
	MergeManually Choice = "merge"         // replace both with one edit over their combined span
)

// Valid reports whether c is a known choice
func (c Choice) Valid() bool {
	switch c {
	case KeepAccepted, KeepRejected, MergeManually:
		return true
	}
	return false
}

// Session is the single owner of a review's sections. It is not safe for
// concurrent use; Registry serialises access to it.
type Session struct {
	ID             string
	DocumentHandle string
	Filename       string
	OriginalText   string
	InitialScore   int
	ProjectedScore int
	CreatedAt      time.Time

	sections  []models.SectionAnalysis
	dismissed map[string]map[int]bool
	logger    zerolog.Logger
}

// SectionView is everything a reviewer needs to display one section
type SectionView struct {
	Name        string             `json:"section_name"`
	Anchored    bool               `json:"anchored"`
	Gaps        []string           `json:"gaps"`
	Suggestions []string           `json:"suggestions,omitempty"`
	Segments    overlay.Segments   `json:"segments"`
	Conflicts   []overlay.Conflict `json:"conflicts,omitempty"`
	Issues      []overlay.Issue    `json:"issues,omitempty"`
	Dismissed   []int              `json:"dismissed,omitempty"`
}

// Outcome is the result of finalizing a session
type Outcome struct {
	Text     string                   `json:"tailored_text"`
	Sections []models.SectionAnalysis `json:"tailored_sections"`
	Dropped  []DroppedEdit            `json:"dropped_edits,omitempty"`
}

// DroppedEdit is an overlapping edit that was never decided on
type DroppedEdit struct {
	Section  string           `json:"section_name"`
	Conflict overlay.Conflict `json:"conflict"`
}

// NewSession takes ownership of a copy of the analysis result
func NewSession(result models.AnalysisResult) *Session {
	id := uuid.NewString()
	return &Session{
		ID:             id,
		DocumentHandle: result.DocumentHandle,
		InitialScore:   result.InitialScore,
		ProjectedScore: result.ProjectedScore,
		CreatedAt:      time.Now(),
		sections:       models.CloneSections(result.Sections),
		dismissed:      make(map[string]map[int]bool),
		logger:         logging.ForSession(id),
	}
}

// Sections returns a copy of the sections as currently edited, including
// dismissed edits.
func (s *Session) Sections() []models.SectionAnalysis {
	return models.CloneSections(s.sections)
}

// UpdateEdit replaces the new content of one edit. editID is the edit's index
// in the section's original edit list, as carried by every rendered segment.
func (s *Session) UpdateEdit(sectionID string, editID int, newContent string) error {
	section, err := s.section(sectionID)
	if err != nil {
		return err
	}
	if editID < 0 || editID >= len(section.Edits) {
		return fmt.Errorf("%w: %s/%d", ErrEditNotFound, sectionID, editID)
	}

	section.Edits[editID].NewContent = newContent
	s.logger.Debug().
		Str("section", sectionID).
		Int("edit", editID).
		Int("length", len(newContent)).
		Msg("Edit updated")
	return nil
}

// View recomputes the overlay for every section
func (s *Session) View() []SectionView {
	effective := s.effectiveSections()
	views := make([]SectionView, len(effective))

	for i, sec := range effective {
		variant := overlay.Classify(sec)
		res := overlay.ResolveSection(variant)

		view := SectionView{
			Name:        sec.SectionName,
			Gaps:        sec.Gaps,
			Suggestions: sec.Suggestions,
			Segments:    overlay.RenderSection(variant),
			Dismissed:   s.dismissedList(sec.SectionName),
		}
		if _, ok := variant.(overlay.AnchoredSection); ok {
			view.Anchored = true
			view.Conflicts = res.Conflicts
			view.Issues = s.filterIssues(sec.SectionName, overlay.Lint(sec))
		}
		views[i] = view
	}
	return views
}

// Conflicts lists every undecided overlapping edit across the session
func (s *Session) Conflicts() []DroppedEdit {
	var out []DroppedEdit
	for _, sec := range s.effectiveSections() {
		anchored, ok := overlay.Classify(sec).(overlay.AnchoredSection)
		if !ok {
			continue
		}
		for _, c := range overlay.ResolveDetailed(anchored.OriginalText, anchored.Edits).Conflicts {
			out = append(out, DroppedEdit{Section: sec.SectionName, Conflict: c})
		}
	}
	return out
}

// ResolveConflict applies a reviewer decision to the rejected edit editID.
// mergedContent is only used with MergeManually.
func (s *Session) ResolveConflict(sectionID string, editID int, choice Choice, mergedContent string) error {
	if !choice.Valid() {
		return fmt.Errorf("unknown choice %q", choice)
	}

	section, err := s.section(sectionID)
	if err != nil {
		return err
	}

	conflict, ok := s.findConflict(sectionID, editID)
	if !ok {
		return fmt.Errorf("%w: %s/%d", ErrConflictNotFound, sectionID, editID)
	}

	switch choice {
	case KeepAccepted:
		s.dismiss(sectionID, conflict.Rejected.OriginalIndex)
	case KeepRejected:
		s.dismiss(sectionID, conflict.Accepted.OriginalIndex)
	case MergeManually:
		text := section.Text()
		start := conflict.Accepted.Position
		end := max(conflict.Accepted.End(), conflict.Rejected.End())

		merged := &section.Edits[conflict.Accepted.OriginalIndex]
		merged.TargetText = text[start:end]
		merged.NewContent = mergedContent
		s.dismiss(sectionID, conflict.Rejected.OriginalIndex)
	}

	s.logger.Info().
		Str("section", sectionID).
		Int("accepted", conflict.Accepted.OriginalIndex).
		Int("rejected", conflict.Rejected.OriginalIndex).
		Str("choice", string(choice)).
		Msg("Conflict resolved")
	return nil
}

// Preview returns the merged document as it currently stands
func (s *Session) Preview() string {
	return overlay.MergeDocument(s.effectiveSections())
}

// Finalize produces the text to persist or export. In strict mode any
// undecided conflict is an error; otherwise undecided conflicts are listed
// in the outcome so the caller can surface them.
func (s *Session) Finalize(strict bool) (*Outcome, error) {
	final := s.finalSections()

	if err := overlay.CheckDocument(final); err != nil {
		return nil, fmt.Errorf("failed to verify merged document: %w", err)
	}

	dropped := s.Conflicts()
	if strict && len(dropped) > 0 {
		return nil, fmt.Errorf("%w: %d edit(s) need a decision", ErrUnresolvedConflicts, len(dropped))
	}

	if len(dropped) > 0 {
		s.logger.Warn().Int("dropped", len(dropped)).Msg("Finalizing with undecided overlapping edits")
	}

	return &Outcome{
		Text:     overlay.MergeDocument(final),
		Sections: final,
		Dropped:  dropped,
	}, nil
}

func (s *Session) section(sectionID string) (*models.SectionAnalysis, error) {
	for i := range s.sections {
		if s.sections[i].SectionName == sectionID {
			return &s.sections[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, sectionID)
}

func (s *Session) findConflict(sectionID string, editID int) (overlay.Conflict, bool) {
	for _, d := range s.Conflicts() {
		if d.Section == sectionID && d.Conflict.Rejected.OriginalIndex == editID {
			return d.Conflict, true
		}
	}
	return overlay.Conflict{}, false
}

func (s *Session) dismiss(sectionID string, editID int) {
	if s.dismissed[sectionID] == nil {
		s.dismissed[sectionID] = make(map[int]bool)
	}
	s.dismissed[sectionID][editID] = true
}

func (s *Session) dismissedList(sectionID string) []int {
	var out []int
	for i := range s.sectionEdits(sectionID) {
		if s.dismissed[sectionID][i] {
			out = append(out, i)
		}
	}
	return out
}

func (s *Session) sectionEdits(sectionID string) []models.EditRecord {
	sec, err := s.section(sectionID)
	if err != nil {
		return nil
	}
	return sec.Edits
}

// effectiveSections blanks the target of dismissed edits so resolution skips
// them while every other edit keeps its original index.
func (s *Session) effectiveSections() []models.SectionAnalysis {
	out := models.CloneSections(s.sections)
	for i := range out {
		for idx := range s.dismissed[out[i].SectionName] {
			out[i].Edits[idx].TargetText = ""
			out[i].Edits[idx].NewContent = ""
		}
	}
	return out
}

// finalSections drops dismissed edits entirely, which is what gets persisted.
func (s *Session) finalSections() []models.SectionAnalysis {
	out := models.CloneSections(s.sections)
	for i := range out {
		gone := s.dismissed[out[i].SectionName]
		if len(gone) == 0 {
			continue
		}
		kept := out[i].Edits[:0]
		for idx, e := range out[i].Edits {
			if !gone[idx] {
				kept = append(kept, e)
			}
		}
		out[i].Edits = kept
	}
	return out
}

func (s *Session) filterIssues(sectionID string, issues []overlay.Issue) []overlay.Issue {
	var out []overlay.Issue
	for _, is := range issues {
		if !s.dismissed[sectionID][is.EditIndex] {
			out = append(out, is)
		}
	}
	return out
}
