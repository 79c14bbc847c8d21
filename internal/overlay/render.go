package overlay

import (
	"strings"

	"github.com/resumetailor/pkg/models"
)

// SegmentKind distinguishes untouched text from edit segments
type SegmentKind string

const (
	SegmentText SegmentKind = "text"
	SegmentEdit SegmentKind = "edit"
)

// Segment is one piece of the review overlay. For SegmentText, Text is
// untouched original text. For SegmentEdit, Text is the struck-through target
// and Replacement is the editable new content; mutations must be routed by
// OriginalIndex, never by the segment's place in the list.
type Segment struct {
	Kind          SegmentKind       `json:"kind"`
	Text          string            `json:"text"`
	Replacement   string            `json:"replacement,omitempty"`
	OriginalIndex int               `json:"original_index"`
	Action        models.EditAction `json:"action,omitempty"`
	Rationale     string            `json:"rationale,omitempty"`
}

// Segments is a rendered overlay in display order
type Segments []Segment

// Render interleaves untouched text with edit segments. resolved must come
// from Resolve on the same originalText.
func Render(originalText string, resolved []ResolvedEdit) Segments {
	segments := make(Segments, 0, 2*len(resolved)+1)
	cursor := 0

	for _, e := range resolved {
		if e.Position > cursor {
			segments = append(segments, textSegment(originalText[cursor:e.Position]))
		}
		segments = append(segments, editSegment(e))
		cursor = e.End()
	}

	if cursor < len(originalText) {
		segments = append(segments, textSegment(originalText[cursor:]))
	}

	return segments
}

// RenderSection renders either variant. A freeform section yields one edit
// segment per edit in input order.
func RenderSection(s Section) Segments {
	switch v := s.(type) {
	case AnchoredSection:
		return Render(v.OriginalText, Resolve(v.OriginalText, v.Edits))
	case FreeformSection:
		segments := make(Segments, 0, len(v.Edits))
		for i, e := range v.Edits {
			segments = append(segments, editSegment(ResolvedEdit{EditRecord: e, OriginalIndex: i, Position: -1}))
		}
		return segments
	}
	return nil
}

func textSegment(text string) Segment {
	return Segment{Kind: SegmentText, Text: text, OriginalIndex: -1}
}

func editSegment(e ResolvedEdit) Segment {
	return Segment{
		Kind:          SegmentEdit,
		Text:          e.TargetText,
		Replacement:   e.NewContent,
		OriginalIndex: e.OriginalIndex,
		Action:        e.Action,
		Rationale:     e.Rationale,
	}
}

// Original concatenates plain text and struck targets. For an anchored
// section this reproduces the original text exactly.
func (s Segments) Original() string {
	var b strings.Builder
	for _, seg := range s {
		b.WriteString(seg.Text)
	}
	return b.String()
}

// Flatten concatenates plain text and replacements, i.e. the merged text.
func (s Segments) Flatten() string {
	var b strings.Builder
	for _, seg := range s {
		if seg.Kind == SegmentEdit {
			b.WriteString(seg.Replacement)
			continue
		}
		b.WriteString(seg.Text)
	}
	return b.String()
}

// Edits returns only the edit segments
func (s Segments) Edits() Segments {
	var out Segments
	for _, seg := range s {
		if seg.Kind == SegmentEdit {
			out = append(out, seg)
		}
	}
	return out
}

// ANSI escape codes for terminal rendering
const (
	ansiStrike = "\033[9;31m"
	ansiGreen  = "\033[32m"
	ansiReset  = "\033[0m"
)

// ANSI draws the overlay for a terminal: struck red targets followed by the
// green replacement in brackets.
func (s Segments) ANSI() string {
	var b strings.Builder
	for _, seg := range s {
		if seg.Kind != SegmentEdit {
			b.WriteString(seg.Text)
			continue
		}
		if seg.Text != "" {
			b.WriteString(ansiStrike)
			b.WriteString(seg.Text)
			b.WriteString(ansiReset)
		}
		b.WriteString(ansiGreen)
		b.WriteString("[")
		b.WriteString(seg.Replacement)
		b.WriteString("]")
		b.WriteString(ansiReset)
	}
	return b.String()
}
