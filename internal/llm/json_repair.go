package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
)

// JSONRepairStats records what RepairJSON had to do to a model response
type JSONRepairStats struct {
	OriginalBytes    int           `json:"original_bytes"`
	RepairedBytes    int           `json:"repaired_bytes"`
	ErrorsFixed      int           `json:"errors_fixed"`
	RepairTime       time.Duration `json:"repair_time"`
	RepairStrategies []string      `json:"repair_strategies"`
	WasRepaired      bool          `json:"was_repaired"`
}

// RepairJSON turns a model response into valid JSON. Strategies run in order
// and stop as soon as the text parses:
//  1. strip markdown code fences and prose around the outermost object
//  2. drop trailing commas outside strings
//  3. close a truncated string and any open objects or arrays
//  4. hand the rest to jsonrepair
//
// Every strategy leaves the contents of well-formed strings untouched, which
// matters because target_text values must stay byte-identical to the resume.
func RepairJSON(raw string) (repaired string, stats JSONRepairStats, err error) {
	start := time.Now()
	stats.OriginalBytes = len(raw)

	done := func(s string, err error) (string, JSONRepairStats, error) {
		stats.RepairedBytes = len(s)
		stats.RepairTime = time.Since(start)
		return s, stats, err
	}

	if valid(raw) {
		return done(raw, nil)
	}
	stats.WasRepaired = true
	repaired = raw

	steps := []struct {
		name string
		fn   func(string) string
	}{
		{"code_fences", StripCodeFences},
		{"trailing_commas", removeTrailingCommas},
		{"completion", completeJSON},
	}
	for _, step := range steps {
		next := step.fn(repaired)
		if next == repaired {
			continue
		}
		repaired = next
		stats.RepairStrategies = append(stats.RepairStrategies, step.name)
		stats.ErrorsFixed++
		if valid(repaired) {
			return done(repaired, nil)
		}
	}

	fixed, libErr := jsonrepair.JSONRepair(repaired)
	if libErr == nil && valid(fixed) {
		stats.RepairStrategies = append(stats.RepairStrategies, "jsonrepair_library")
		stats.ErrorsFixed++
		return done(fixed, nil)
	}

	return done(repaired, fmt.Errorf("JSON repair failed after %d strategies", len(stats.RepairStrategies)))
}

func valid(s string) bool {
	var v interface{}
	return json.Unmarshal([]byte(s), &v) == nil
}

// StripCodeFences removes a ```json fence and anything outside the outermost
// JSON object.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl != -1 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		if end := strings.LastIndex(s, "```"); end != -1 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}

	first := strings.IndexByte(s, '{')
	if first == -1 {
		return s
	}
	if last := strings.LastIndexByte(s, '}'); last > first {
		return s[first : last+1]
	}
	return s[first:]
}

// removeTrailingCommas drops commas that directly precede } or ], ignoring
// anything inside strings.
func removeTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		if c == '"' {
			inString = true
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// completeJSON closes a dangling string and then every open object or array
// in last-opened-first-closed order.
func completeJSON(s string) string {
	s = strings.TrimRight(s, " \t\r\n")

	var stack []byte
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if !inString && len(stack) == 0 {
		return s
	}
	if escaped {
		s = s[:len(s)-1]
	}
	if inString {
		s += `"`
	}
	s = strings.TrimRight(s, " \t\r\n")
	s = strings.TrimSuffix(s, ",")
	for i := len(stack) - 1; i >= 0; i-- {
		s += string(stack[i])
	}
	return s
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
