// Package overlay locates proposed edits inside a section's original text,
// resolves overlapping edits, renders the text with edits interleaved for
// review, and merges accepted edits into the final text.
//
// Render and Merge share one resolution pass so what a reviewer sees is
// always what gets saved. All functions are pure and perform no I/O.
package overlay

import (
	"github.com/resumetailor/pkg/models"
)

// Section is either an AnchoredSection or a FreeformSection.
type Section interface {
	SectionName() string
	EditList() []models.EditRecord
	section()
}

// AnchoredSection has original text; its edits are positioned inside it.
type AnchoredSection struct {
	Name         string
	OriginalText string
	Edits        []models.EditRecord
}

// FreeformSection has no original text; its edits are standalone additions.
type FreeformSection struct {
	Name  string
	Edits []models.EditRecord
}

func (s AnchoredSection) SectionName() string { return s.Name }
func (s AnchoredSection) EditList() []models.EditRecord { return s.Edits }
func (AnchoredSection) section() {}

func (s FreeformSection) SectionName() string { return s.Name }
func (s FreeformSection) EditList() []models.EditRecord { return s.Edits }
func (FreeformSection) section() {}

// Classify picks the variant for a section. A missing or empty original text
// means the section is freeform.
func Classify(s models.SectionAnalysis) Section {
	if s.HasOriginalText() {
		return AnchoredSection{Name: s.SectionName, OriginalText: *s.OriginalText, Edits: s.Edits}
	}
	return FreeformSection{Name: s.SectionName, Edits: s.Edits}
}

// ResolveSection resolves an anchored section. Freeform sections have nothing
// to resolve; every edit is returned in input order with Position -1.
func ResolveSection(s Section) Resolution {
	switch v := s.(type) {
	case AnchoredSection:
		return ResolveDetailed(v.OriginalText, v.Edits)
	case FreeformSection:
		accepted := make([]ResolvedEdit, len(v.Edits))
		for i, e := range v.Edits {
			accepted[i] = ResolvedEdit{EditRecord: e, OriginalIndex: i, Position: -1}
		}
		return Resolution{Accepted: accepted}
	}
	return Resolution{}
}
