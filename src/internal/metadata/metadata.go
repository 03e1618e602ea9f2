// Package metadata turns a book page URL into a title, an author line and a
// cover image. Open Library URLs go straight to the JSON API; anything else is
// fetched through the URL guard and scraped with three strategies (OpenGraph,
// Schema.org JSON-LD, HTML selector rules) merged in that priority order.
package metadata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"bookshelf/src/internal/openlibrary"
	"bookshelf/src/internal/sanitize"
)

// Confidence is a coarse measure of how complete an extraction is.
type Confidence string

const (
	ConfidenceNone   Confidence = "none"
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// NeedsReview reports whether a human should check the result before saving.
func (c Confidence) NeedsReview() bool {
	return c == ConfidenceLow || c == ConfidenceNone
}

// SourceOpenLibrary is Result.Source for the Open Library fast path.
const SourceOpenLibrary = "Open Library API"

// Fields is what a single strategy found. Empty means not found.
type Fields struct {
	Title      string
	Authors    string
	CoverImage string
}

// Result is the merged, sanitized outcome of one extraction.
type Result struct {
	Title             string     `json:"title" yaml:"title"`
	Authors           string     `json:"authors" yaml:"authors"`
	CoverImage        string     `json:"coverImage" yaml:"coverImage"`
	Source            string     `json:"source" yaml:"source"`
	Confidence        Confidence `json:"confidence" yaml:"confidence"`
	NeedsManualReview bool       `json:"needsManualReview" yaml:"needsManualReview"`
	Error             string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// Fetcher is the part of urlguard.Guard the extractor needs.
type Fetcher interface {
	Fetch(ctx context.Context, raw string) (*http.Response, error)
	ReadBody(resp *http.Response) ([]byte, error)
}

// Extractor runs extractions. Library may be nil to disable the Open Library
// fast path. Rules defaults to DefaultRules.
type Extractor struct {
	Fetcher Fetcher
	Library *openlibrary.Client
	Rules   []Rule
	Log     *slog.Logger
}

// New wires an Extractor whose Open Library calls share the fetcher.
func New(f Fetcher, lib *openlibrary.Client, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{Fetcher: f, Library: lib, Rules: DefaultRules, Log: log.With("component", "metadata")}
}

// Extract never fails: problems are reported in Result.Error with
// confidence none.
func (e *Extractor) Extract(ctx context.Context, raw string) Result {
	if res, ok := e.fromOpenLibrary(ctx, raw); ok {
		return res
	}
	f, err := e.scrape(ctx, raw)
	if err != nil {
		e.logger().Info("extraction failed", "url", raw, "error", err)
		return Result{
			Source:            raw,
			Confidence:        ConfidenceNone,
			NeedsManualReview: true,
			Error:             err.Error(),
		}
	}
	conf := Score(f)
	return Result{
		Title:             sanitize.Text(f.Title),
		Authors:           sanitize.Text(f.Authors),
		CoverImage:        f.CoverImage,
		Source:            raw,
		Confidence:        conf,
		NeedsManualReview: conf.NeedsReview(),
	}
}

func (e *Extractor) fromOpenLibrary(ctx context.Context, raw string) (Result, bool) {
	if e.Library == nil {
		return Result{}, false
	}
	kind, id := openlibrary.EditionRef(raw)
	var (
		ed  openlibrary.Edition
		err error
	)
	switch kind {
	case "books":
		ed, err = e.Library.FetchEdition(ctx, id)
	case "isbn":
		ed, err = e.Library.FetchEditionByISBN(ctx, id)
	default:
		return Result{}, false
	}
	if err != nil || ed.Title == "" {
		e.logger().Debug("open library lookup missed, scraping page", "id", id, "error", err)
		return Result{}, false
	}
	return Result{
		Title:      sanitize.Text(ed.Title),
		Authors:    sanitize.Text(ed.AuthorsLine()),
		CoverImage: e.Library.CoverURL(ed.CoverID(), "L"),
		Source:     SourceOpenLibrary,
		Confidence: ConfidenceHigh,
	}, true
}

func (e *Extractor) scrape(ctx context.Context, raw string) (Fields, error) {
	if e.Fetcher == nil {
		return Fields{}, errors.New("metadata: no fetcher configured")
	}
	resp, err := e.Fetcher.Fetch(ctx, raw)
	if err != nil {
		return Fields{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Fields{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	body, err := e.Fetcher.ReadBody(resp)
	if err != nil {
		return Fields{}, err
	}
	doc, err := parseHTML(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return Fields{}, err
	}
	rules := e.Rules
	if rules == nil {
		rules = DefaultRules
	}
	og := OpenGraph(doc)
	ld := SchemaOrg(doc, e.logger())
	pat := ApplyRules(doc, rules)
	e.logger().Debug("strategies", "url", raw, "opengraph", og, "schemaorg", ld, "patterns", pat)
	return Merge(og, ld, pat), nil
}

// parseHTML decodes body to UTF-8 using the Content-Type charset or a
// <meta charset> sniff, then builds the document.
func parseHTML(body []byte, contentType string) (*goquery.Document, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		r = bytes.NewReader(body)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

func (e *Extractor) logger() *slog.Logger {
	if e.Log == nil {
		return slog.Default()
	}
	return e.Log
}

// Merge takes, per field, the first non-empty value in priority order.
func Merge(sources ...Fields) Fields {
	var out Fields
	for _, s := range sources {
		if out.Title == "" {
			out.Title = s.Title
		}
		if out.Authors == "" {
			out.Authors = s.Authors
		}
		if out.CoverImage == "" {
			out.CoverImage = s.CoverImage
		}
	}
	return out
}

// Score grades a merged record by which fields are present.
func Score(f Fields) Confidence {
	hasTitle, hasAuthors, hasCover := f.Title != "", f.Authors != "", f.CoverImage != ""
	switch {
	case hasTitle && hasAuthors && hasCover:
		return ConfidenceHigh
	case hasTitle && (hasAuthors || hasCover):
		return ConfidenceMedium
	case hasTitle:
		return ConfidenceLow
	}
	return ConfidenceNone
}
