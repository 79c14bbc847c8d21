package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Transcript records the prompt and response of one analysis run to a file
type Transcript struct {
	id        string
	path      string
	file      *os.File
	mutex     sync.Mutex
	startTime time.Time
}

// StartTranscript creates dir if needed and opens a new transcript file.
// A nil *Transcript is valid and discards everything.
func StartTranscript(dir, id string) (*Transcript, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create transcript directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("analysis_%s_%s.log", id, timestamp))

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript file: %w", err)
	}

	t := &Transcript{id: id, path: path, file: file, startTime: time.Now()}
	t.Log("Analysis %s started", id)
	return t, nil
}

// Path returns the transcript file location
func (t *Transcript) Path() string {
	if t == nil {
		return ""
	}
	return t.path
}

// Log writes a timestamped line
func (t *Transcript) Log(format string, args ...interface{}) {
	if t == nil {
		return
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.writeLine(fmt.Sprintf(format, args...))
}

func (t *Transcript) writeLine(msg string) {
	if t.file == nil {
		return
	}
	elapsed := time.Since(t.startTime).Round(time.Millisecond)
	fmt.Fprintf(t.file, "[%s] [+%v] %s\n", time.Now().Format("15:04:05.000"), elapsed, msg)
}

// LogRequest records an LLM prompt
func (t *Transcript) LogRequest(model, prompt string) {
	t.block(fmt.Sprintf("LLM REQUEST (model %s, %d chars)", model, len(prompt)), prompt)
}

// LogResponse records a raw LLM response
func (t *Transcript) LogResponse(response string) {
	t.block(fmt.Sprintf("LLM RESPONSE (%d chars)", len(response)), response)
}

// LogError records a failure with the step it happened in
func (t *Transcript) LogError(step string, err error) {
	t.Log("ERROR in %s: %v", step, err)
}

func (t *Transcript) block(title, body string) {
	if t == nil {
		return
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	separator := strings.Repeat("=", 80)
	t.writeLine(separator)
	t.writeLine(title)
	t.writeLine(separator)
	if t.file != nil {
		t.file.WriteString(body + "\n")
	}
}

// Close writes the footer and closes the file
func (t *Transcript) Close() {
	if t == nil {
		return
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.file == nil {
		return
	}
	t.writeLine(fmt.Sprintf("Analysis %s finished. Total duration: %v", t.id, time.Since(t.startTime).Round(time.Millisecond)))
	t.file.Sync()
	t.file.Close()
	t.file = nil
}
