// Package export writes finalized tailored documents and their change
// reports to disk and serves them back for download.
package export

import (
	"context"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog/log"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/resumetailor/internal/overlay"
	"github.com/resumetailor/pkg/models"
)

var (
	ErrInvalidName = errors.New("invalid artifact name")
	ErrNotFound    = errors.New("artifact not found")
)

var safeHandle = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// Artifact describes the files produced for one export
type Artifact struct {
	Name        string `json:"name"`
	DownloadURL string `json:"download_url"`
	PDFName     string `json:"pdf_name"`
	PDFURL      string `json:"pdf_url"`
	ReportName  string `json:"report_name"`
	ReportURL   string `json:"report_url"`
	Inserted    int    `json:"chars_inserted"`
	Deleted     int    `json:"chars_deleted"`
	Text        string `json:"-"`
}

// Exporter writes artifacts into a directory
type Exporter struct {
	dir     string
	baseURL string
}

// NewExporter creates dir if needed. baseURL prefixes download links.
func NewExporter(dir, baseURL string) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifacts directory: %w", err)
	}
	return &Exporter{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Export merges sections, verifies the merge agrees with the rendered overlay
// and writes <handle>_tailored.txt, a PDF of the same text and an HTML change
// report.
func (e *Exporter) Export(ctx context.Context, handle string, sections []models.SectionAnalysis) (*Artifact, error) {
	if !safeHandle.MatchString(handle) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, handle)
	}
	if err := overlay.CheckDocument(sections); err != nil {
		return nil, fmt.Errorf("failed to verify document: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	before := originalDocument(sections)
	after := overlay.MergeDocument(sections)

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(before, after, false))

	art := &Artifact{
		Name:       handle + "_tailored.txt",
		PDFName:    handle + "_tailored.pdf",
		ReportName: handle + "_changes.html",
		Text:       after,
	}
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			art.Inserted += len(d.Text)
		case diffmatchpatch.DiffDelete:
			art.Deleted += len(d.Text)
		}
	}
	art.DownloadURL = e.baseURL + "/download/" + art.Name
	art.PDFURL = e.baseURL + "/download/" + art.PDFName
	art.ReportURL = e.baseURL + "/download/" + art.ReportName

	if err := os.WriteFile(filepath.Join(e.dir, art.Name), []byte(after), 0644); err != nil {
		return nil, fmt.Errorf("failed to write tailored document: %w", err)
	}
	if err := writePDF(filepath.Join(e.dir, art.PDFName), handle, after); err != nil {
		return nil, err
	}
	report := renderReport(handle, dmp.DiffPrettyHtml(diffs))
	if err := os.WriteFile(filepath.Join(e.dir, art.ReportName), []byte(report), 0644); err != nil {
		return nil, fmt.Errorf("failed to write change report: %w", err)
	}

	log.Info().
		Str("handle", handle).
		Str("artifact", art.Name).
		Int("inserted", art.Inserted).
		Int("deleted", art.Deleted).
		Msg("Tailored document exported")

	return art, nil
}

// Open returns the path of an exported artifact. Names that are not plain
// file names inside the artifacts directory are rejected.
func (e *Exporter) Open(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	path := filepath.Join(e.dir, name)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat artifact: %w", err)
	}
	return path, nil
}

// originalDocument is the document before any edits: anchored sections keep
// their text and freeform sections have none yet.
func originalDocument(sections []models.SectionAnalysis) string {
	var parts []string
	for _, s := range sections {
		if s.HasOriginalText() {
			parts = append(parts, s.Text())
		}
	}
	return strings.Join(parts, overlay.SectionSeparator)
}

func renderReport(handle, body string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Changes for ")
	b.WriteString(html.EscapeString(handle))
	b.WriteString("</title></head>\n<body style=\"font-family: sans-serif; white-space: pre-wrap\">\n")
	b.WriteString(body)
	b.WriteString("\n</body></html>\n")
	return b.String()
}

// writePDF lays text out on A4 pages with a core font. Characters outside
// cp1252 cannot be drawn by the core fonts and come out as '?'.
func writePDF(path, title, text string) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle(title, true)
	doc.SetCreator("resumetailor", true)
	doc.SetMargins(20, 20, 20)
	doc.SetAutoPageBreak(true, 20)
	doc.AddPage()
	doc.SetFont("Helvetica", "", 11)

	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.MultiCell(0, 5.5, tr(text), "", "L", false)

	if err := doc.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("failed to write tailored PDF: %w", err)
	}
	return nil
}
