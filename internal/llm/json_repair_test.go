package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairJSON_ValidJSON(t *testing.T) {
	valid := `{"analysis": [{"section_name": "Skills", "edits": []}]}`

	repaired, stats, err := RepairJSON(valid)

	require.NoError(t, err)
	assert.False(t, stats.WasRepaired)
	assert.Equal(t, valid, repaired)
	assert.Equal(t, len(valid), stats.OriginalBytes)
	assert.Equal(t, len(valid), stats.RepairedBytes)
}

func TestRepairJSON_CodeFences(t *testing.T) {
	raw := "Here is the analysis:\n```json\n{\"initial_score\": 40}\n```\nGood luck!"

	repaired, stats, err := RepairJSON(raw)

	require.NoError(t, err)
	assert.Equal(t, `{"initial_score": 40}`, repaired)
	assert.Equal(t, []string{"code_fences"}, stats.RepairStrategies)
}

func TestRepairJSON_TrailingCommas(t *testing.T) {
	raw := `{"edits": [{"target_text": "a, b", "new_content": "c,}",},]}`
	expected := `{"edits": [{"target_text": "a, b", "new_content": "c,}"}]}`

	repaired, stats, err := RepairJSON(raw)

	require.NoError(t, err)
	assert.True(t, stats.WasRepaired)
	assert.Equal(t, expected, repaired)
	assert.Equal(t, 1, stats.ErrorsFixed)
	assert.Equal(t, []string{"trailing_commas"}, stats.RepairStrategies)
}

func TestRepairJSON_TruncatedResponse(t *testing.T) {
	raw := `{"analysis": [{"section_name": "Experience", "gaps": ["no metrics", "Kubern`

	repaired, stats, err := RepairJSON(raw)

	require.NoError(t, err)
	assert.Contains(t, stats.RepairStrategies, "completion")

	var out struct {
		Analysis []struct {
			SectionName string   `json:"section_name"`
			Gaps        []string `json:"gaps"`
		} `json:"analysis"`
	}
	require.NoError(t, json.Unmarshal([]byte(repaired), &out))
	require.Len(t, out.Analysis, 1)
	assert.Equal(t, []string{"no metrics", "Kubern"}, out.Analysis[0].Gaps)
}

func TestRepairJSON_KeepsStringContents(t *testing.T) {
	// Apostrophes, URLs and comment-like text inside values must survive.
	raw := `{"target_text": "Led the team's move to https://example.com // v2", "new_content": "x",}`

	repaired, _, err := RepairJSON(raw)
	require.NoError(t, err)

	var out map[string]string
	require.NoError(t, json.Unmarshal([]byte(repaired), &out))
	assert.Equal(t, "Led the team's move to https://example.com // v2", out["target_text"])
}

func TestRepairJSON_LibraryFallback(t *testing.T) {
	raw := `{section_name: 'Skills', "gaps": ["Go"]}`

	repaired, stats, err := RepairJSON(raw)

	require.NoError(t, err)
	assert.Contains(t, stats.RepairStrategies, "jsonrepair_library")

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(repaired), &out))
	assert.Equal(t, "Skills", out["section_name"])
}

func TestRepairJSON_LargeValidInputUntouched(t *testing.T) {
	var b strings.Builder
	b.WriteString(`{"edits": [`)
	for i := 0; i < 200; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"target_text": "line %d", "new_content": "row %d"}`, i, i)
	}
	b.WriteString(`]}`)

	repaired, stats, err := RepairJSON(b.String())

	require.NoError(t, err)
	assert.False(t, stats.WasRepaired)
	assert.Equal(t, b.String(), repaired)
}
