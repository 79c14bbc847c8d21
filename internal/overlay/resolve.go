package overlay

import (
	"sort"
	"strings"

	"github.com/resumetailor/pkg/models"
)

// ResolvedEdit is an edit that was found in the original text.
// Position is a byte offset of the first occurrence of TargetText.
type ResolvedEdit struct {
	models.EditRecord
	OriginalIndex int `json:"original_index"`
	Position      int `json:"position"`
}

// End returns the byte offset just past the edit's target span
func (e ResolvedEdit) End() int {
	return e.Position + len(e.TargetText)
}

// Overlaps reports whether the two target spans intersect
func (e ResolvedEdit) Overlaps(other ResolvedEdit) bool {
	return e.Position < other.End() && other.Position < e.End()
}

// Conflict is an edit that lost the overlap sweep, paired with the accepted
// edit whose span it overlapped.
type Conflict struct {
	Rejected ResolvedEdit `json:"rejected"`
	Accepted ResolvedEdit `json:"accepted"`
}

// Resolution is the full outcome of one resolution pass.
type Resolution struct {
	Accepted  []ResolvedEdit `json:"accepted"`
	Conflicts []Conflict     `json:"conflicts,omitempty"`
	Unmatched []int          `json:"unmatched,omitempty"` // original indices
}

// Resolve locates each edit's target in originalText and returns a maximal
// non-overlapping subset in ascending position order. Edits with an empty or
// missing target are skipped. Overlapping edits lose to the edit accepted
// before them.
func Resolve(originalText string, edits []models.EditRecord) []ResolvedEdit {
	return ResolveDetailed(originalText, edits).Accepted
}

// ResolveDetailed is Resolve plus the edits it dropped and why.
func ResolveDetailed(originalText string, edits []models.EditRecord) Resolution {
	var res Resolution

	located := make([]ResolvedEdit, 0, len(edits))
	for i, e := range edits {
		pos := -1
		if e.TargetText != "" {
			pos = strings.Index(originalText, e.TargetText)
		}
		if pos == -1 {
			res.Unmatched = append(res.Unmatched, i)
			continue
		}
		located = append(located, ResolvedEdit{EditRecord: e, OriginalIndex: i, Position: pos})
	}

	// Equal positions keep input order.
	sort.SliceStable(located, func(i, j int) bool {
		return located[i].Position < located[j].Position
	})

	res.Accepted = make([]ResolvedEdit, 0, len(located))
	// coverageLimit is the end of the last accepted span, so a rejected edit
	// always overlaps the last accepted one.
	coverageLimit := -1
	for _, e := range located {
		if e.Position >= coverageLimit {
			res.Accepted = append(res.Accepted, e)
			coverageLimit = e.End()
			continue
		}
		res.Conflicts = append(res.Conflicts, Conflict{
			Rejected: e,
			Accepted: res.Accepted[len(res.Accepted)-1],
		})
	}

	return res
}
