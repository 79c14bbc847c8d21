// Package scraper pulls the job description text out of a job posting page.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	ErrInvalidURL = errors.New("invalid job posting URL")
	ErrNoContent  = errors.New("no job description text found")
)

// DefaultUserAgent looks like a desktop browser; many job boards refuse
// obvious bots.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

const maxPageSize = 5 << 20

// descriptionClasses are class fragments of known job description containers,
// most specific first. A class attribute matches if any of its classes
// contains the fragment.
var descriptionClasses = []string{
	// LinkedIn
	"description__text",
	"core-section-container__content",
	"show-more-less-html__markup",
	// Indeed
	"jobsearch-JobComponent-description",
	"jobsearch-JobComponent",
	// Naukri
	"job-desc",
	"styles_job-desc-container__",
	// Generic
	"job-description",
	"description",
}

var blankLines = regexp.MustCompile(`\n\s*\n`)

// Fetcher downloads job postings
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher creates a Fetcher with the given per-request timeout
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: DefaultUserAgent,
	}
}

// Fetch returns the job description text found at rawURL
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch job posting: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("job posting returned status %d", resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", fmt.Errorf("failed to parse job posting: %w", err)
	}

	text, source := Extract(doc)
	if text == "" {
		return "", ErrNoContent
	}

	log.Debug().Str("url", u.String()).Str("source", source).Int("chars", len(text)).Msg("Job description fetched")
	return text, nil
}

// Extract returns the description text of a parsed page and which container
// it came from.
func Extract(doc *html.Node) (text, source string) {
	for _, fragment := range descriptionClasses {
		if n := findByClass(doc, fragment); n != nil {
			if t := textOf(n); t != "" {
				return t, "class:" + fragment
			}
		}
	}
	if body := findBody(doc); body != nil {
		return textOf(body), "body"
	}
	return textOf(doc), "document"
}

func skipped(n *html.Node) bool {
	return n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style || n.DataAtom == atom.Noscript)
}

func findByClass(n *html.Node, fragment string) *html.Node {
	if skipped(n) {
		return nil
	}
	if n.Type == html.ElementNode {
		for _, attr := range n.Attr {
			if attr.Key != "class" {
				continue
			}
			for _, class := range strings.Fields(attr.Val) {
				if strings.Contains(class, fragment) {
					return n
				}
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, fragment); found != nil {
			return found
		}
	}
	return nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findBody(c); found != nil {
			return found
		}
	}
	return nil
}

// textOf joins the node's text pieces with newlines and collapses runs of
// blank lines into one.
func textOf(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if skipped(n) {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		block := n.Type == html.ElementNode && isBlock(n.DataAtom)
		if block {
			parts = append(parts, "")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			parts = append(parts, "")
		}
	}
	walk(n)

	text := strings.TrimSpace(strings.Join(parts, "\n"))
	return blankLines.ReplaceAllString(text, "\n\n")
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Section, atom.Article, atom.Ul, atom.Ol,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Table, atom.Tr:
		return true
	}
	return false
}
