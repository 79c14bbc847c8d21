package overlay

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resumetailor/pkg/models"
)

func edit(target, newContent string) models.EditRecord {
	return models.EditRecord{TargetText: target, NewContent: newContent, Action: models.ActionRewrite}
}

func TestResolve_SingleEdit(t *testing.T) {
	original := "Managed a small team."
	edits := []models.EditRecord{edit("a small team", "a team of 12 engineers")}

	resolved := Resolve(original, edits)

	require.Len(t, resolved, 1)
	assert.Equal(t, 8, resolved[0].Position)
	assert.Equal(t, 0, resolved[0].OriginalIndex)
	assert.Equal(t, "Managed a team of 12 engineers.", Merge(original, resolved))
}

func TestResolve_OverlapKeepsEarlierPosition(t *testing.T) {
	original := "Managed a team of 5 people."
	edits := []models.EditRecord{
		edit("a team of 5", "a team of five"),
		edit("Managed a team", "Led a team"),
	}

	res := ResolveDetailed(original, edits)

	require.Len(t, res.Accepted, 1)
	assert.Equal(t, 1, res.Accepted[0].OriginalIndex)
	assert.Equal(t, 0, res.Accepted[0].Position)

	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, 0, res.Conflicts[0].Rejected.OriginalIndex)
	assert.Equal(t, strings.Index(original, "a team of 5"), res.Conflicts[0].Rejected.Position)
	assert.Equal(t, 1, res.Conflicts[0].Accepted.OriginalIndex)

	merged := Merge(original, res.Accepted)
	assert.Equal(t, "Led a team of 5 people.", merged)
	assert.NotContains(t, merged, "five")

	for _, seg := range Render(original, res.Accepted).Edits() {
		assert.NotEqual(t, 0, seg.OriginalIndex, "dropped edit must not render")
	}
}

func TestResolve_FirstOccurrence(t *testing.T) {
	original := "ab Go cd Go ef"
	resolved := Resolve(original, []models.EditRecord{edit("Go", "Rust")})

	require.Len(t, resolved, 1)
	assert.Equal(t, 3, resolved[0].Position)
	assert.Equal(t, "ab Rust cd Go ef", Merge(original, resolved))
}

func TestResolve_DropsUnmatchedAndEmpty(t *testing.T) {
	original := "abc"
	edits := []models.EditRecord{
		edit("xyz", "nope"),
		edit("", "also nope"),
		edit("b", "B"),
	}

	res := ResolveDetailed(original, edits)

	require.Len(t, res.Accepted, 1)
	assert.Equal(t, 2, res.Accepted[0].OriginalIndex)
	assert.Equal(t, []int{0, 1}, res.Unmatched)

	segments := Render(original, res.Accepted)
	for _, seg := range segments {
		assert.NotContains(t, seg.Replacement, "nope")
	}
	assert.Equal(t, "aBc", Merge(original, res.Accepted))
}

func TestResolve_SortsByPositionNotInputOrder(t *testing.T) {
	original := "one two three"
	edits := []models.EditRecord{
		edit("three", "3"),
		edit("one", "1"),
		edit("two", "2"),
	}

	resolved := Resolve(original, edits)

	var order []int
	for _, e := range resolved {
		order = append(order, e.OriginalIndex)
	}
	assert.Equal(t, []int{1, 2, 0}, order)
	assert.Equal(t, "1 2 3", Merge(original, resolved))
}

func TestResolve_TiesKeepInputOrder(t *testing.T) {
	original := "Go developer"
	edits := []models.EditRecord{
		edit("Go", "Golang"),
		edit("Go", "Go (1.22)"),
	}

	res := ResolveDetailed(original, edits)

	require.Len(t, res.Accepted, 1)
	assert.Equal(t, 0, res.Accepted[0].OriginalIndex)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, 1, res.Conflicts[0].Rejected.OriginalIndex)
}

func TestResolve_AdjacentSpansBothAccepted(t *testing.T) {
	original := "abcdef"
	resolved := Resolve(original, []models.EditRecord{edit("def", "DEF"), edit("abc", "ABC")})

	require.Len(t, resolved, 2)
	assert.Equal(t, "ABCDEF", Merge(original, resolved))
}

func TestResolve_NewContentDoesNotAffectResolution(t *testing.T) {
	original := "Built APIs in Python and Go."
	edits := []models.EditRecord{edit("Python", "Python 3"), edit("Go", "Go")}
	before := Resolve(original, edits)

	edits[0].NewContent = "Go and more Go"
	after := Resolve(original, edits)

	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].Position, after[i].Position)
		assert.Equal(t, before[i].OriginalIndex, after[i].OriginalIndex)
	}
}

func TestRender_Segments(t *testing.T) {
	original := "Managed a small team."
	resolved := Resolve(original, []models.EditRecord{edit("a small team", "a team of 12 engineers")})

	got := Render(original, resolved)

	want := Segments{
		{Kind: SegmentText, Text: "Managed ", OriginalIndex: -1},
		{Kind: SegmentEdit, Text: "a small team", Replacement: "a team of 12 engineers", OriginalIndex: 0, Action: models.ActionRewrite},
		{Kind: SegmentText, Text: ".", OriginalIndex: -1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Render mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_EditAtBoundaries(t *testing.T) {
	original := "start middle end"
	resolved := Resolve(original, []models.EditRecord{edit("start", "S"), edit("end", "E")})

	segments := Render(original, resolved)

	require.Len(t, segments, 3)
	assert.Equal(t, SegmentEdit, segments[0].Kind)
	assert.Equal(t, " middle ", segments[1].Text)
	assert.Equal(t, SegmentEdit, segments[2].Kind)
	assert.Equal(t, original, segments.Original())
	assert.Equal(t, "S middle E", segments.Flatten())
}

func TestRender_NoEdits(t *testing.T) {
	segments := Render("untouched", nil)
	require.Len(t, segments, 1)
	assert.Equal(t, "untouched", segments.Original())
	assert.Empty(t, Render("", nil))
}

func TestFreeformSection(t *testing.T) {
	section := models.SectionAnalysis{
		SectionName: "Skills",
		Edits: []models.EditRecord{
			{TargetText: "", NewContent: "Kubernetes", Action: models.ActionAdd},
			{TargetText: "", NewContent: "Terraform", Action: models.ActionAdd},
		},
	}

	s := Classify(section)
	_, ok := s.(FreeformSection)
	require.True(t, ok)

	segments := RenderSection(s)
	require.Len(t, segments, 2)
	assert.Equal(t, "Kubernetes", segments[0].Replacement)
	assert.Equal(t, 0, segments[0].OriginalIndex)
	assert.Equal(t, "Terraform", segments[1].Replacement)
	assert.Equal(t, 1, segments[1].OriginalIndex)

	assert.Equal(t, "Kubernetes\nTerraform", MergeSection(s))
}

func TestClassify_EmptyOriginalIsFreeform(t *testing.T) {
	s := Classify(models.SectionAnalysis{SectionName: "x", OriginalText: models.StringPtr("")})
	_, ok := s.(FreeformSection)
	assert.True(t, ok)
}

func TestMergeDocument(t *testing.T) {
	sections := []models.SectionAnalysis{
		{
			SectionName:  "Summary",
			OriginalText: models.StringPtr("Backend engineer."),
			Edits:        []models.EditRecord{edit("Backend", "Go backend")},
		},
		{
			SectionName: "Skills",
			Edits:       []models.EditRecord{{NewContent: "gRPC"}},
		},
	}

	assert.Equal(t, "Go backend engineer.\n\ngRPC", MergeDocument(sections))
	assert.NoError(t, CheckDocument(sections))
}

func TestMergeSequential_ReplacementContainsLaterTarget(t *testing.T) {
	original := "Used SQL. Wrote Go."
	edits := []models.EditRecord{
		edit("SQL", "SQL and Go"),
		edit("Go", "Golang"),
	}
	resolved := Resolve(original, edits)

	want := "Used SQL and Go. Wrote Golang."
	assert.Equal(t, want, Merge(original, resolved))
	assert.Equal(t, want, MergeSequential(original, resolved))
}

func TestCheckAgreement_DetectsForeignResolution(t *testing.T) {
	original := "abc"
	resolved := []ResolvedEdit{{EditRecord: edit("zz", "Q"), Position: 1}}

	err := CheckAgreement(original, resolved)
	assert.ErrorIs(t, err, ErrDivergence)
}

func TestANSI(t *testing.T) {
	original := "old text"
	segments := Render(original, Resolve(original, []models.EditRecord{edit("old", "new")}))

	out := segments.ANSI()
	assert.Contains(t, out, ansiStrike+"old"+ansiReset)
	assert.Contains(t, out, ansiGreen+"[new]"+ansiReset)
	assert.True(t, strings.HasSuffix(out, " text"))
}

// Randomised checks of the engine's invariants over small alphabets, where
// overlaps and repeated substrings are common.
func TestProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const alphabet = "ab c\né"

	randomString := func(n int) string {
		runes := []rune(alphabet)
		var b strings.Builder
		for i := 0; i < n; i++ {
			b.WriteRune(runes[rng.Intn(len(runes))])
		}
		return b.String()
	}

	for iter := 0; iter < 500; iter++ {
		original := randomString(rng.Intn(40))
		var edits []models.EditRecord
		for j := rng.Intn(8); j > 0; j-- {
			var target string
			if len(original) > 0 && rng.Intn(4) != 0 {
				start := rng.Intn(len(original))
				end := start + rng.Intn(len(original)-start) + 1
				target = original[start:end]
			} else {
				target = randomString(rng.Intn(4))
			}
			edits = append(edits, edit(target, randomString(rng.Intn(6))))
		}

		res := ResolveDetailed(original, edits)
		resolved := res.Accepted

		// Idempotent resolution.
		if diff := cmp.Diff(resolved, Resolve(original, edits)); diff != "" {
			t.Fatalf("resolve not idempotent for %q (-first +second):\n%s", original, diff)
		}

		for i, e := range resolved {
			// First occurrence.
			require.Equal(t, strings.Index(original, e.TargetText), e.Position)
			// Sorted and non-overlapping.
			if i > 0 {
				prev := resolved[i-1]
				require.GreaterOrEqual(t, e.Position, prev.End(), "overlap in %q", original)
				require.False(t, e.Overlaps(prev))
			}
		}

		// Every input edit is accounted for exactly once.
		require.Equal(t, len(edits), len(res.Accepted)+len(res.Conflicts)+len(res.Unmatched))
		for _, c := range res.Conflicts {
			require.True(t, c.Rejected.Overlaps(c.Accepted))
		}

		segments := Render(original, resolved)
		require.Equal(t, original, segments.Original(), "round trip")

		merged := Merge(original, resolved)
		require.Equal(t, merged, segments.Flatten(), "render and merge agree")
		require.Equal(t, merged, MergeSequential(original, resolved), "sequential agrees")
		require.NoError(t, CheckAgreement(original, resolved))
	}
}
