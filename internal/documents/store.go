// Package documents keeps uploaded resume text on disk under opaque handles.
package documents

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrInvalidHandle = errors.New("invalid document handle")
	ErrEmpty         = errors.New("document is empty")
	ErrNotText       = errors.New("document is not valid UTF-8 text")
	ErrTooLarge      = errors.New("document is too large")
)

// MaxSize bounds a single uploaded document
const MaxSize = 2 << 20

var writeFile = os.WriteFile

// Store saves plain-text documents in a directory
type Store struct {
	dir string
}

// Document is a stored upload
type Document struct {
	Handle   string `json:"handle"`
	Filename string `json:"filename"`
	Text     string `json:"-"`
}

// NewStore creates dir if needed
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create documents directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save stores text and returns the new document's handle. Line endings are
// normalized to \n so offsets computed later are stable.
func (s *Store) Save(filename, text string) (string, error) {
	if len(text) > MaxSize {
		return "", fmt.Errorf("%w: %d bytes, limit is %d", ErrTooLarge, len(text), MaxSize)
	}
	if !utf8.ValidString(text) {
		return "", ErrNotText
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return "", ErrEmpty
	}

	handle := uuid.NewString()
	if err := writeFile(s.textPath(handle), []byte(text), 0644); err != nil {
		return "", fmt.Errorf("failed to save document: %w", err)
	}
	if err := writeFile(s.namePath(handle), []byte(filepath.Base(filename)), 0644); err != nil {
		if rerr := os.Remove(s.textPath(handle)); rerr != nil {
			log.Warn().Err(rerr).Str("handle", handle).Msg("Failed to remove partially saved document")
		}
		return "", fmt.Errorf("failed to save document name: %w", err)
	}

	log.Debug().Str("handle", handle).Str("filename", filename).Int("bytes", len(text)).Msg("Document saved")
	return handle, nil
}

// Load returns a stored document
func (s *Store) Load(handle string) (*Document, error) {
	if _, err := uuid.Parse(handle); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHandle, handle)
	}

	text, err := os.ReadFile(s.textPath(handle))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, handle)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	name, err := os.ReadFile(s.namePath(handle))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read document name: %w", err)
	}

	return &Document{Handle: handle, Filename: string(name), Text: string(text)}, nil
}

// Delete removes a stored document. Deleting a missing document is not an error.
func (s *Store) Delete(handle string) error {
	if _, err := uuid.Parse(handle); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidHandle, handle)
	}
	for _, p := range []string{s.textPath(handle), s.namePath(handle)} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete document: %w", err)
		}
	}
	return nil
}

func (s *Store) textPath(handle string) string {
	return filepath.Join(s.dir, handle+".txt")
}

func (s *Store) namePath(handle string) string {
	return filepath.Join(s.dir, handle+".name")
}
