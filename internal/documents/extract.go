package documents

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnreadable  = errors.New("document could not be read")
	ErrUnsupported = errors.New("unsupported document format")
)

// MaxUploadSize bounds a raw upload before text is extracted from it
const MaxUploadSize = 8 << 20

var pdfMagic = []byte("%PDF-")

var blankRuns = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)

// ExtractText turns an uploaded file into plain text. PDFs are read page by
// page, anything else must already be text.
func ExtractText(filename string, data []byte) (string, error) {
	if len(data) > MaxUploadSize {
		return "", fmt.Errorf("%w: %d bytes, limit is %d", ErrTooLarge, len(data), MaxUploadSize)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case bytes.HasPrefix(data, pdfMagic):
		return pdfText(data)
	case ext == ".pdf":
		return "", fmt.Errorf("%w: %s has no PDF header", ErrUnreadable, filepath.Base(filename))
	case ext == ".doc" || ext == ".docx":
		return "", fmt.Errorf("%w: %s (upload a PDF or plain text)", ErrUnsupported, ext)
	}
	return string(data), nil
}

func pdfText(data []byte) (text string, err error) {
	// The reader panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrUnreadable, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	text = strings.ReplaceAll(string(raw), "\r\n", "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: PDF has no text layer", ErrEmpty)
	}

	log.Debug().Int("pages", r.NumPage()).Int("bytes", len(text)).Msg("Extracted text from PDF")
	return text, nil
}
