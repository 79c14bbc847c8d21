package models

import (
	"time"
)

// Tailoring analysis models

// EditAction tags the intent of an edit. The overlay engine carries it through unchanged.
type EditAction string

const (
	ActionRewrite EditAction = "rewrite"
	ActionAdd     EditAction = "add"
	ActionRemove  EditAction = "remove"
)

// EditRecord is a single proposed (target span -> replacement) edit
type EditRecord struct {
	TargetText string     `json:"target_text"`         // Verbatim substring of the section's original text
	NewContent string     `json:"new_content"`         // Replacement; empty means delete
	Action     EditAction `json:"action"`              // Semantic tag, display only
	Rationale  string     `json:"rationale,omitempty"` // Advisory, display only
}

// SectionAnalysis groups the edits proposed for one section of a document.
// OriginalText is nil (or empty) when the section has no anchored text; its edits
// are then a flat additive list.
type SectionAnalysis struct {
	SectionName  string       `json:"section_name"`
	OriginalText *string      `json:"original_text,omitempty"`
	Gaps         []string     `json:"gaps"`
	Suggestions  []string     `json:"suggestions,omitempty"`
	Edits        []EditRecord `json:"edits"`
}

// HasOriginalText reports whether edits in this section are anchored to text
func (s SectionAnalysis) HasOriginalText() bool {
	return s.OriginalText != nil && *s.OriginalText != ""
}

// Text returns the section's original text, or "" for freeform sections
func (s SectionAnalysis) Text() string {
	if s.OriginalText == nil {
		return ""
	}
	return *s.OriginalText
}

// AnalysisResult is what the analysis provider returns for one document
type AnalysisResult struct {
	Sections       []SectionAnalysis `json:"analysis"`
	InitialScore   int               `json:"initial_score"`   // 0-100 match before edits
	ProjectedScore int               `json:"projected_score"` // 0-100 match after edits
	DocumentHandle string            `json:"document_handle"`
}

// StringPtr returns a pointer to s. Handy for building sections in code.
func StringPtr(s string) *string {
	return &s
}

// CloneSections returns a deep copy of sections so callers can mutate edits freely
func CloneSections(sections []SectionAnalysis) []SectionAnalysis {
	if sections == nil {
		return nil
	}
	out := make([]SectionAnalysis, len(sections))
	for i, s := range sections {
		c := s
		if s.OriginalText != nil {
			c.OriginalText = StringPtr(*s.OriginalText)
		}
		c.Gaps = append([]string(nil), s.Gaps...)
		c.Suggestions = append([]string(nil), s.Suggestions...)
		c.Edits = append([]EditRecord(nil), s.Edits...)
		out[i] = c
	}
	return out
}

// Record store models

// ApplicationStatus is the tracking state of a job application
type ApplicationStatus string

const (
	StatusApplied   ApplicationStatus = "Applied"
	StatusInterview ApplicationStatus = "Interview"
	StatusOffered   ApplicationStatus = "Offered"
	StatusRejected  ApplicationStatus = "Rejected"
)

// Valid reports whether s is one of the known statuses
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusApplied, StatusInterview, StatusOffered, StatusRejected:
		return true
	}
	return false
}

// Application represents a tracked job application
type Application struct {
	ID             int64             `json:"id" db:"id"`
	CompanyName    string            `json:"company_name" db:"company_name"`
	JobRole        string            `json:"job_role" db:"job_role"`
	JobLink        *string           `json:"job_link,omitempty" db:"job_link"`
	DateApplied    time.Time         `json:"date_applied" db:"date_applied"`
	Status         ApplicationStatus `json:"status" db:"status"`
	JobDescription *string           `json:"job_description,omitempty" db:"job_description"`
	ResumePath     *string           `json:"resume_path,omitempty" db:"resume_path"`
}

// SavedResume is a persisted tailoring result. TailoredSections is stored as an opaque JSON blob.
type SavedResume struct {
	ID               int64             `json:"id" db:"id"`
	Filename         string            `json:"filename" db:"filename"`
	OriginalText     string            `json:"original_text" db:"original_text"`
	TailoredText     string            `json:"tailored_text" db:"tailored_text"`
	TailoredSections []SectionAnalysis `json:"tailored_sections" db:"tailored_sections"`
	InitialScore     int               `json:"initial_score" db:"initial_score"`
	ProjectedScore   int               `json:"projected_score" db:"projected_score"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" db:"updated_at"`
}
