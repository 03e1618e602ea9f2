package collections

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bookshelf/src/internal/cache"
	"bookshelf/src/internal/schema"
	"bookshelf/src/internal/store"
)

type fakeDoer struct {
	handle func(*http.Request) (*http.Response, error)
	calls  int
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.calls++
	return f.handle(req)
}

func jsonResp(code int, body string, hdr map[string]string) *http.Response {
	h := http.Header{"Content-Type": {"application/json"}}
	for k, v := range hdr {
		h.Set(k, v)
	}
	return &http.Response{StatusCode: code, Body: io.NopCloser(strings.NewReader(body)), Header: h}
}

func TestBooks_PublishableAndCached(t *testing.T) {
	st := store.New(t.TempDir())
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, b := range []schema.Book{
		{ID: "a", Title: "Old", Authors: "X", Publishable: true},
		{ID: "b", Title: "Hidden", Authors: "Y"},
		{ID: "c", Title: "New", Authors: "Frank Herbert", Publishable: true, Shelf: "Read"},
	} {
		b.AddedAt = base.Add(time.Duration(i) * time.Hour)
		if _, err := st.WriteBook(&b); err != nil {
			t.Fatal(err)
		}
	}
	c := cache.NewMemory()
	books, err := Books(context.Background(), c, st)
	if err != nil {
		t.Fatalf("Books: %v", err)
	}
	if len(books) != 2 || books[0].Title != "New" || books[1].Shelf != schema.DefaultShelf {
		t.Fatalf("books: %+v", books)
	}
	if books[0].AuthorSort != "herbert frank" {
		t.Fatalf("author sort: %q", books[0].AuthorSort)
	}

	// a fresh cache entry short-circuits the store
	if _, err := st.WriteBook(&schema.Book{ID: "d", Title: "Later", Authors: "W", Publishable: true}); err != nil {
		t.Fatal(err)
	}
	again, _ := Books(context.Background(), c, st)
	if len(again) != 2 {
		t.Fatalf("cache not used: %+v", again)
	}
	// RefreshBooks bypasses the fresh entry and rewrites it
	if _, err := RefreshBooks(context.Background(), c, st); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	again, _ = Books(context.Background(), c, st)
	if len(again) != 3 || again[0].Title != "Later" {
		t.Fatalf("refreshed list: %+v", again)
	}
}

func TestBooks_StaleFallback(t *testing.T) {
	dir := t.TempDir()
	st := store.New(dir)
	clk := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := cache.NewMemory()
	c.Now = func() time.Time { return clk }
	_ = cache.SetJSON(c, BooksKey, []Book{{Title: "Cached"}})
	clk = clk.Add(2 * BooksTTL)

	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("id: [oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	books, err := Books(context.Background(), c, st)
	if err != nil || len(books) != 1 || books[0].Title != "Cached" {
		t.Fatalf("want stale cache, got %+v %v", books, err)
	}
	if _, err := Books(context.Background(), cache.NewMemory(), st); err == nil {
		t.Fatalf("no cache and unreadable store should fail")
	}
}

func TestBlog_PaginatesAndCleansTitles(t *testing.T) {
	d := &fakeDoer{handle: func(r *http.Request) (*http.Response, error) {
		if r.URL.Query().Get("per_page") != "100" {
			t.Errorf("per_page missing: %s", r.URL)
		}
		switch r.URL.Query().Get("page") {
		case "":
			return jsonResp(200, `{"found":3,"posts":[{"ID":1,"title":"Don&#8217;t <em>panic</em>","URL":"https://blog.example.com/1","date":"2024-01-01"}]}`, map[string]string{"X-WP-TotalPages": "3"}), nil
		case "2":
			return jsonResp(200, `[{"id":2,"title":{"rendered":"Fish &amp; Chips"},"link":"https://blog.example.com/2"}]`, nil), nil
		case "3":
			return jsonResp(200, `[{"id":3,"title":"Plain"}]`, nil), nil
		}
		return jsonResp(404, "", nil), nil
	}}
	c := cache.NewMemory()
	posts, err := Blog(context.Background(), c, d, "https://public-api.example.com/rest/v1.1/sites/blog/posts/")
	if err != nil {
		t.Fatalf("Blog: %v", err)
	}
	if len(posts) != 3 || d.calls != 3 {
		t.Fatalf("posts=%d calls=%d", len(posts), d.calls)
	}
	if posts[0].Title != "Don’t panic" || posts[0].URL != "https://blog.example.com/1" || posts[0].ID != 1 || posts[0].DisplayDate != "January 1, 2024" {
		t.Fatalf("post 1: %+v", posts[0])
	}
	if posts[1].Title != "Fish & Chips" || posts[1].URL != "https://blog.example.com/2" {
		t.Fatalf("post 2: %+v", posts[1])
	}

	cached, err := Blog(context.Background(), c, d, "https://public-api.example.com/rest/v1.1/sites/blog/posts/")
	if err != nil || len(cached) != 3 || d.calls != 3 {
		t.Fatalf("second call should hit cache: calls=%d err=%v", d.calls, err)
	}
	if cached[1].Title != "Fish & Chips" || cached[0].DisplayDate != "January 1, 2024" {
		t.Fatalf("cached post: %+v", cached[1])
	}
}

func TestBlog_Errors(t *testing.T) {
	d := &fakeDoer{handle: func(r *http.Request) (*http.Response, error) {
		return jsonResp(500, "down", nil), nil
	}}
	if _, err := Blog(context.Background(), cache.NewMemory(), d, "https://blog.example.com/wp-json/wp/v2/posts"); err == nil {
		t.Fatalf("expected error on 500")
	}
	if _, err := Blog(context.Background(), cache.NewMemory(), d, ""); err == nil {
		t.Fatalf("expected error for missing root url")
	}
}

func TestBlogroll(t *testing.T) {
	d := &fakeDoer{handle: func(r *http.Request) (*http.Response, error) {
		u, p, ok := r.BasicAuth()
		if !ok || u != "me@example.com" || p != "secret" {
			return jsonResp(401, "", nil), nil
		}
		return jsonResp(200, `[{"id":1,"feed_id":42,"title":"Daring Fireball","feed_url":"https://df.example/feed","site_url":"https://df.example"}]`, nil), nil
	}}
	c := cache.NewMemory()
	subs, err := Blogroll(context.Background(), c, d, Credentials{Username: "me@example.com", Password: "secret"})
	if err != nil || len(subs) != 1 || subs[0].FeedID != 42 {
		t.Fatalf("subs=%+v err=%v", subs, err)
	}
	if _, err := Blogroll(context.Background(), c, d, Credentials{}); err != nil {
		t.Fatalf("cached blogroll should not need credentials: %v", err)
	}

	_, err = Blogroll(context.Background(), cache.NewMemory(), d, Credentials{Username: "me@example.com", Password: "wrong"})
	if !errors.Is(err, ErrBlogroll) || !strings.HasPrefix(err.Error(), "failed to fetch blogroll data") {
		t.Fatalf("want ErrBlogroll, got %v", err)
	}
}

func TestCleanTitle(t *testing.T) {
	if got := CleanTitle(" <b>Tom &amp; Jerry</b> &#8211; live "); got != "Tom & Jerry – live" {
		t.Fatalf("got %q", got)
	}
}
