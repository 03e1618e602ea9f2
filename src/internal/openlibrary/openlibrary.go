package openlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"bookshelf/src/internal/httpx"
	"bookshelf/src/internal/stringsx"
)

const (
	DefaultBaseURL   = "https://openlibrary.org"
	DefaultCoversURL = "https://covers.openlibrary.org"

	// SearchLimit is the page size of Search.
	SearchLimit = 10

	NoCoverImage = "https://openlibrary.org/images/icons/avatar_book-lg.png"
	NoCoverID    = "no-cover"

	// MaxResponseBytes caps edition and search bodies.
	MaxResponseBytes = 5 << 20
)

// ErrNotFound is returned for a 404 from the edition endpoints.
var ErrNotFound = errors.New("openlibrary: not found")

// Client talks to the Open Library JSON API through any httpx.Doer; the
// server hands it the URL guard so API calls get the same checks as scraping.
type Client struct {
	HTTP      httpx.Doer
	BaseURL   string
	CoversURL string
}

// New returns a Client using doer and the public endpoints.
func New(doer httpx.Doer) *Client {
	return &Client{HTTP: doer, BaseURL: DefaultBaseURL, CoversURL: DefaultCoversURL}
}

// Edition is the subset of /books/<id>.json the library uses.
type Edition struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	ByStatement string `json:"by_statement"`
	Authors     []struct {
		Key string `json:"key"`
	} `json:"authors"`
	Covers []int `json:"covers"`
}

// AuthorsLine is the edition's by-statement, but only when the record lists
// authors at all.
func (e Edition) AuthorsLine() string {
	if len(e.Authors) == 0 {
		return ""
	}
	return strings.TrimSpace(e.ByStatement)
}

// CoverID returns the first usable cover id (Open Library uses -1 as a gap).
func (e Edition) CoverID() int {
	for _, id := range e.Covers {
		if id > 0 {
			return id
		}
	}
	return 0
}

var (
	reEditionPath = regexp.MustCompile(`openlibrary\.org/books/([^/?#]+)`)
	reISBNPath    = regexp.MustCompile(`openlibrary\.org/isbn/([0-9Xx-]+)`)
)

// EditionRef pulls an edition id ("OL7353617M") or ISBN out of an Open
// Library page URL. kind is "books", "isbn" or "" when raw is neither.
func EditionRef(raw string) (kind, id string) {
	if m := reEditionPath.FindStringSubmatch(raw); m != nil {
		return "books", strings.TrimSuffix(m[1], ".json")
	}
	if m := reISBNPath.FindStringSubmatch(raw); m != nil {
		return "isbn", normalizeISBN(m[1])
	}
	return "", ""
}

// FetchEdition loads /books/<id>.json.
func (c *Client) FetchEdition(ctx context.Context, id string) (Edition, error) {
	return c.fetchEdition(ctx, "/books/"+url.PathEscape(id)+".json")
}

// FetchEditionByISBN loads /isbn/<isbn>.json, which redirects to the edition.
func (c *Client) FetchEditionByISBN(ctx context.Context, isbn string) (Edition, error) {
	norm := normalizeISBN(isbn)
	if norm == "" {
		return Edition{}, fmt.Errorf("openlibrary: invalid ISBN %q", isbn)
	}
	return c.fetchEdition(ctx, "/isbn/"+norm+".json")
}

func (c *Client) fetchEdition(ctx context.Context, path string) (Edition, error) {
	req, err := c.newJSONRequest(ctx, c.base()+path)
	if err != nil {
		return Edition{}, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Edition{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return Edition{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Edition{}, fmt.Errorf("openlibrary: http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	body, err := httpx.ReadLimited(resp.Body, MaxResponseBytes)
	if err != nil {
		return Edition{}, fmt.Errorf("openlibrary: read edition: %w", err)
	}
	var ed Edition
	if err := json.Unmarshal(body, &ed); err != nil {
		return Edition{}, fmt.Errorf("openlibrary: decode edition: %w", err)
	}
	return ed, nil
}

// CoverURL builds a covers.openlibrary.org image URL; size is S, M or L.
func (c *Client) CoverURL(id int, size string) string {
	if id <= 0 {
		return ""
	}
	covers := c.CoversURL
	if covers == "" {
		covers = DefaultCoversURL
	}
	return fmt.Sprintf("%s/b/id/%d-%s.jpg", strings.TrimRight(covers, "/"), id, size)
}

// SearchHit is one search result, shaped for the add-book page.
type SearchHit struct {
	CoverImage struct {
		Src     string `json:"src"`
		Alt     string `json:"alt"`
		CoverID string `json:"cover_i"`
	} `json:"coverImage"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Year   string `json:"year"`
}

// SearchPage is one page of Search results.
type SearchPage struct {
	Results  []SearchHit `json:"results"`
	NumFound int         `json:"numFound"`
}

type searchDoc struct {
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	CoverI           int      `json:"cover_i"`
}

// Search runs a full-text search and returns one page of SearchLimit hits
// starting at offset.
func (c *Client) Search(ctx context.Context, query string, offset int) (SearchPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchPage{}, errors.New("openlibrary: empty search query")
	}
	if offset < 0 {
		offset = 0
	}
	v := url.Values{}
	v.Set("q", query)
	v.Set("fields", "title,author_name,first_publish_year,cover_i")
	v.Set("limit", strconv.Itoa(SearchLimit))
	v.Set("offset", strconv.Itoa(offset))
	v.Set("mode", "everything")
	req, err := c.newJSONRequest(ctx, c.base()+"/search.json?"+v.Encode())
	if err != nil {
		return SearchPage{}, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return SearchPage{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return SearchPage{}, fmt.Errorf("openlibrary: search http %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	var r struct {
		NumFound int         `json:"numFound"`
		Docs     []searchDoc `json:"docs"`
	}
	body, err := httpx.ReadLimited(resp.Body, MaxResponseBytes)
	if err != nil {
		return SearchPage{}, fmt.Errorf("openlibrary: read search: %w", err)
	}
	if err := json.Unmarshal(body, &r); err != nil {
		return SearchPage{}, fmt.Errorf("openlibrary: decode search: %w", err)
	}
	if r.Docs == nil {
		return SearchPage{}, errors.New("openlibrary: no books found")
	}
	page := SearchPage{NumFound: r.NumFound, Results: make([]SearchHit, 0, len(r.Docs))}
	for _, d := range r.Docs {
		page.Results = append(page.Results, c.toHit(d))
	}
	return page, nil
}

func (c *Client) toHit(d searchDoc) SearchHit {
	var h SearchHit
	if d.CoverI > 0 {
		h.CoverImage.CoverID = strconv.Itoa(d.CoverI)
		h.CoverImage.Src = c.CoverURL(d.CoverI, "M")
		h.CoverImage.Alt = d.Title + " cover"
	} else {
		h.CoverImage.CoverID = NoCoverID
		h.CoverImage.Src = NoCoverImage
		h.CoverImage.Alt = "No book cover available"
	}
	h.Title = stringsx.FirstNonEmpty(d.Title, "No Title Available")
	h.Author = stringsx.FirstNonEmpty(stringsx.JoinNonEmpty(", ", d.AuthorName...), "Unknown Author")
	if d.FirstPublishYear > 0 {
		h.Year = strconv.Itoa(d.FirstPublishYear)
	} else {
		h.Year = "Year not available"
	}
	return h
}

func (c *Client) base() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(c.BaseURL, "/")
}

func (c *Client) newJSONRequest(ctx context.Context, endpoint string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", httpx.AcceptJSON)
	httpx.SetUA(req)
	return req, nil
}

// normalizeISBN cleans input and, if a 9-digit core is provided, computes the ISBN-10 check digit.
func normalizeISBN(isbn string) string {
	s := strings.ToUpper(strings.TrimSpace(isbn))
	core := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' || r == 'X' {
			core = append(core, r)
		}
	}
	digitsOnly := true
	for _, r := range core {
		if r < '0' || r > '9' {
			digitsOnly = false
			break
		}
	}
	if len(core) == 9 && digitsOnly {
		return string(core) + isbn10CheckDigit(string(core))
	}
	return string(core)
}

// isbn10CheckDigit computes the ISBN-10 check digit for a 9-digit string, returning "0"-"9" or "X".
func isbn10CheckDigit(s string) string {
	sum := 0
	for i, ch := range s {
		sum += (i + 1) * int(ch-'0')
	}
	cd := (11 - sum%11) % 11
	if cd == 10 {
		return "X"
	}
	return strconv.Itoa(cd)
}
