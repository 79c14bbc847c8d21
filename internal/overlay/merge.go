package overlay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/resumetailor/pkg/models"
)

// Separators used when reconstructing text from several pieces
const (
	FreeformSeparator = "\n"
	SectionSeparator  = "\n\n"
)

// ErrDivergence means the rendered overlay and the merged text disagree
var ErrDivergence = errors.New("rendered overlay and merged text diverge")

// Merge substitutes each resolved edit's new content into originalText.
// resolved must come from Resolve on the same originalText.
func Merge(originalText string, resolved []ResolvedEdit) string {
	var b strings.Builder
	b.Grow(len(originalText))

	cursor := 0
	for _, e := range resolved {
		b.WriteString(originalText[cursor:e.Position])
		b.WriteString(e.NewContent)
		cursor = e.End()
	}
	b.WriteString(originalText[cursor:])

	return b.String()
}

// MergeSequential applies the same edits by repeated first-occurrence
// replacement on the evolving text. Edits are applied in position order and
// each search starts after the previous replacement, so replaced content is
// never matched again. The result always equals Merge.
func MergeSequential(originalText string, resolved []ResolvedEdit) string {
	text := originalText
	from := 0
	for _, e := range resolved {
		idx := strings.Index(text[from:], e.TargetText)
		if idx == -1 {
			continue
		}
		start := from + idx
		text = text[:start] + e.NewContent + text[start+len(e.TargetText):]
		from = start + len(e.NewContent)
	}
	return text
}

// MergeSection merges either variant. Freeform sections join their edits'
// new content in input order.
func MergeSection(s Section) string {
	switch v := s.(type) {
	case AnchoredSection:
		return Merge(v.OriginalText, Resolve(v.OriginalText, v.Edits))
	case FreeformSection:
		parts := make([]string, len(v.Edits))
		for i, e := range v.Edits {
			parts[i] = e.NewContent
		}
		return strings.Join(parts, FreeformSeparator)
	}
	return ""
}

// MergeDocument merges every section and joins them into one text.
func MergeDocument(sections []models.SectionAnalysis) string {
	parts := make([]string, len(sections))
	for i, s := range sections {
		parts[i] = MergeSection(Classify(s))
	}
	return strings.Join(parts, SectionSeparator)
}

// CheckAgreement verifies that flattening the rendered overlay produces the
// same text as Merge, and that the struck-through view reproduces the original.
func CheckAgreement(originalText string, resolved []ResolvedEdit) error {
	segments := Render(originalText, resolved)
	if got := segments.Original(); got != originalText {
		return fmt.Errorf("%w: struck-through view does not reproduce original (%d vs %d bytes)",
			ErrDivergence, len(got), len(originalText))
	}
	if flat, merged := segments.Flatten(), Merge(originalText, resolved); flat != merged {
		return fmt.Errorf("%w: flattened overlay has %d bytes, merge has %d", ErrDivergence, len(flat), len(merged))
	}
	return nil
}

// CheckDocument runs CheckAgreement over every anchored section
func CheckDocument(sections []models.SectionAnalysis) error {
	for _, s := range sections {
		anchored, ok := Classify(s).(AnchoredSection)
		if !ok {
			continue
		}
		if err := CheckAgreement(anchored.OriginalText, Resolve(anchored.OriginalText, anchored.Edits)); err != nil {
			return fmt.Errorf("section %q: %w", s.SectionName, err)
		}
	}
	return nil
}
