package collections

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"bookshelf/src/internal/cache"
	"bookshelf/src/internal/dates"
	"bookshelf/src/internal/httpx"
)

const blogPageSize = 100

// Post is a blog post from either the WordPress.com v1.1 API ("ID", "URL",
// plain title) or the wp/v2 API ("id", "link", {"rendered": ...} title).
type Post struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Date    string `json:"date"`
	Excerpt string `json:"excerpt,omitempty"`

	// DisplayDate is Date rendered for the archive page.
	DisplayDate string `json:"displayDate,omitempty"`
}

type rendered struct {
	Rendered string `json:"rendered"`
}

// textOrRendered accepts "text" or {"rendered": "text"}.
type textOrRendered string

func (t *textOrRendered) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = textOrRendered(s)
		return nil
	}
	var r rendered
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	*t = textOrRendered(r.Rendered)
	return nil
}

func (p *Post) UnmarshalJSON(b []byte) error {
	var raw struct {
		IDv1    int            `json:"ID"`
		IDv2    int            `json:"id"`
		Title   textOrRendered `json:"title"`
		URLv1   string         `json:"URL"`
		URLv2   string         `json:"link"`
		URL     string         `json:"url"`
		Date    string         `json:"date"`
		Excerpt textOrRendered `json:"excerpt"`

		DisplayDate string `json:"displayDate"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.ID = raw.IDv1
	if p.ID == 0 {
		p.ID = raw.IDv2
	}
	p.Title = string(raw.Title)
	p.URL = firstOf(raw.URL, raw.URLv1, raw.URLv2)
	p.Date = raw.Date
	p.Excerpt = string(raw.Excerpt)
	p.DisplayDate = raw.DisplayDate
	return nil
}

func firstOf(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

var titlePolicy = bluemonday.StrictPolicy()

// CleanTitle strips markup and decodes entities ("&#8217;" -> "’").
func CleanTitle(s string) string {
	return strings.TrimSpace(html.UnescapeString(titlePolicy.Sanitize(s)))
}

// Blog pages through the WordPress posts endpoint at rootURL using the
// X-WP-TotalPages header.
func Blog(ctx context.Context, c cache.Cache, doer httpx.Doer, rootURL string) ([]Post, error) {
	var posts []Post
	if cache.GetJSON(c, BlogKey, BlogTTL, &posts) {
		return posts, nil
	}
	if strings.TrimSpace(rootURL) == "" {
		return nil, fmt.Errorf("blog: WordPress root URL is not configured")
	}
	first, total, err := fetchPostsPage(ctx, doer, rootURL, 1)
	if err != nil {
		return nil, err
	}
	posts = first
	for page := 2; page <= total; page++ {
		more, _, err := fetchPostsPage(ctx, doer, rootURL, page)
		if err != nil {
			return nil, err
		}
		posts = append(posts, more...)
	}
	for i := range posts {
		posts[i].Title = CleanTitle(posts[i].Title)
		posts[i].DisplayDate = dates.Simple(posts[i].Date)
	}
	if err := cache.SetJSON(c, BlogKey, posts); err != nil {
		slog.WarnContext(ctx, "caching blog failed", "error", err)
	}
	return posts, nil
}

func fetchPostsPage(ctx context.Context, doer httpx.Doer, rootURL string, page int) ([]Post, int, error) {
	u, err := url.Parse(rootURL)
	if err != nil {
		return nil, 0, fmt.Errorf("blog: bad root url: %w", err)
	}
	q := u.Query()
	q.Set("per_page", strconv.Itoa(blogPageSize))
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", httpx.AcceptJSON)
	httpx.SetUA(req)
	resp, err := doer.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, 0, fmt.Errorf("blog: http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	body, err := httpx.ReadLimited(resp.Body, 20<<20)
	if err != nil {
		return nil, 0, err
	}
	posts, err := decodePosts(body)
	if err != nil {
		return nil, 0, fmt.Errorf("blog: decode page %d: %w", page, err)
	}
	total, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("X-WP-TotalPages")))
	if err != nil || total < 1 {
		total = 1
	}
	return posts, total, nil
}

// decodePosts accepts a bare array or an object with a "posts" array.
func decodePosts(body []byte) ([]Post, error) {
	var posts []Post
	if err := json.Unmarshal(body, &posts); err == nil {
		return posts, nil
	}
	var wrapped struct {
		Posts []Post `json:"posts"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Posts, nil
}
