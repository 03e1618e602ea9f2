package metadata

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"bookshelf/src/internal/openlibrary"
	"bookshelf/src/internal/urlguard"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func respond(req *http.Request, code int, contentType, body string) *http.Response {
	return &http.Response{
		StatusCode: code,
		Status:     http.StatusText(code),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": {contentType}},
		Request:    req,
	}
}

// pageExtractor serves html for every request.
func pageExtractor(html string) *Extractor {
	g := urlguard.New(urlguard.Config{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return respond(r, 200, "text/html; charset=utf-8", html), nil
	})})
	return New(g, openlibrary.New(g), nil)
}

func TestExtract_OpenGraphPlusSchemaIsHigh(t *testing.T) {
	html := `<html><head>
<meta property="og:title" content="Dune">
<meta property="og:image" content="http://x/cover.jpg">
<script type="application/ld+json">{"@type":"Book","author":{"name":"Frank Herbert"}}</script>
</head><body></body></html>`
	res := pageExtractor(html).Extract(context.Background(), "https://books.example.com/dune")
	if res.Title != "Dune" || res.Authors != "Frank Herbert" || res.CoverImage != "http://x/cover.jpg" {
		t.Fatalf("fields: %+v", res)
	}
	if res.Confidence != ConfidenceHigh || res.NeedsManualReview {
		t.Fatalf("confidence: %+v", res)
	}
	if res.Source != "https://books.example.com/dune" || res.Error != "" {
		t.Fatalf("source/error: %+v", res)
	}
}

func TestExtract_TitleTagOnlyIsLow(t *testing.T) {
	res := pageExtractor(`<html><head><title>Some Book - BigStore</title></head></html>`).
		Extract(context.Background(), "https://bigstore.example.com/p/1")
	if res.Title != "Some Book" || res.Authors != "" || res.CoverImage != "" {
		t.Fatalf("fields: %+v", res)
	}
	if res.Confidence != ConfidenceLow || !res.NeedsManualReview {
		t.Fatalf("confidence: %+v", res)
	}
}

func TestExtract_TimeoutDegrades(t *testing.T) {
	g := urlguard.New(urlguard.Config{
		Timeout: 50 * time.Millisecond,
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			<-r.Context().Done()
			return nil, r.Context().Err()
		}),
	})
	start := time.Now()
	res := New(g, nil, nil).Extract(context.Background(), "https://slow.example.com/book")
	if time.Since(start) > 2*time.Second {
		t.Fatalf("extraction did not respect timeout")
	}
	if res.Confidence != ConfidenceNone || !res.NeedsManualReview {
		t.Fatalf("confidence: %+v", res)
	}
	if !strings.Contains(res.Error, "timeout") {
		t.Fatalf("error should mention timeout: %q", res.Error)
	}
	if res.Title != "" || res.Authors != "" || res.CoverImage != "" {
		t.Fatalf("fields should be empty: %+v", res)
	}
}

func TestExtract_OpenGraphBeatsSchemaOrg(t *testing.T) {
	html := `<head>
<meta property="og:title" content="A">
<script type="application/ld+json">{"@type":"Book","name":"B","author":"Someone"}</script>
<title>C - Shop</title>
</head>`
	res := pageExtractor(html).Extract(context.Background(), "https://example.com/")
	if res.Title != "A" || res.Authors != "Someone" {
		t.Fatalf("merge: %+v", res)
	}
	if res.Confidence != ConfidenceMedium {
		t.Fatalf("confidence: %s", res.Confidence)
	}
}

func TestExtract_SanitizesText(t *testing.T) {
	long := strings.Repeat("é", 1500)
	html := `<head><meta property="og:title" content="` + long + `">` +
		`<meta property="og:description" content="A novel by &lt;script&gt;alert(1)&lt;/script&gt; Jones">` +
		`</head>`
	res := pageExtractor(html).Extract(context.Background(), "https://example.com/")
	if n := utf8.RuneCountInString(res.Title); n != 1000 {
		t.Fatalf("title should be truncated to 1000 runes, got %d", n)
	}
	if strings.ContainsAny(res.Authors, "<>") || !strings.Contains(res.Authors, "script") {
		t.Fatalf("angle brackets should be stripped: %q", res.Authors)
	}
}

func TestExtract_HTTPErrorStatus(t *testing.T) {
	g := urlguard.New(urlguard.Config{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return respond(r, 404, "text/html", "gone"), nil
	})})
	res := New(g, nil, nil).Extract(context.Background(), "https://example.com/missing")
	if res.Error != "HTTP 404: Not Found" || res.Confidence != ConfidenceNone {
		t.Fatalf("result: %+v", res)
	}
}

func TestExtract_InvalidURL(t *testing.T) {
	res := pageExtractor("").Extract(context.Background(), "ftp://example.com/book")
	if res.Error != urlguard.MsgScheme || res.Source != "ftp://example.com/book" || !res.NeedsManualReview {
		t.Fatalf("result: %+v", res)
	}
	res = pageExtractor("").Extract(context.Background(), "http://127.0.0.1/admin")
	if res.Error != urlguard.MsgLoopback {
		t.Fatalf("result: %+v", res)
	}
}

func TestExtract_OpenLibraryFastPath(t *testing.T) {
	var paths []string
	g := urlguard.New(urlguard.Config{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/books/OL7353617M.json" {
			return respond(r, 200, "application/json", `{"title":"Fantastic Mr. Fox","by_statement":"Roald Dahl","authors":[{"key":"/authors/OL34184A"}],"covers":[6498519]}`), nil
		}
		t.Errorf("unexpected request %s", r.URL)
		return respond(r, 500, "text/plain", ""), nil
	})})
	res := New(g, openlibrary.New(g), nil).Extract(context.Background(), "https://openlibrary.org/books/OL7353617M/Fantastic_Mr_Fox")
	if res.Title != "Fantastic Mr. Fox" || res.Authors != "Roald Dahl" {
		t.Fatalf("fields: %+v", res)
	}
	if res.CoverImage != "https://covers.openlibrary.org/b/id/6498519-L.jpg" {
		t.Fatalf("cover: %s", res.CoverImage)
	}
	if res.Source != SourceOpenLibrary || res.Confidence != ConfidenceHigh || res.NeedsManualReview {
		t.Fatalf("meta: %+v", res)
	}
	if len(paths) != 1 {
		t.Fatalf("page should not be scraped: %v", paths)
	}
}

func TestExtract_OpenLibraryMissFallsBackToPage(t *testing.T) {
	g := urlguard.New(urlguard.Config{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if strings.HasSuffix(r.URL.Path, ".json") {
			return respond(r, 404, "application/json", `{"error":"notfound"}`), nil
		}
		return respond(r, 200, "text/html", `<title>Scraped Title | Open Library</title>`), nil
	})})
	res := New(g, openlibrary.New(g), nil).Extract(context.Background(), "https://openlibrary.org/books/OL0M/x")
	if res.Title != "Scraped Title" || res.Source != "https://openlibrary.org/books/OL0M/x" {
		t.Fatalf("result: %+v", res)
	}
}

func TestExtract_DecodesDeclaredCharset(t *testing.T) {
	g := urlguard.New(urlguard.Config{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return respond(r, 200, "text/html; charset=iso-8859-1", "<title>Caf\xe9 Stories</title>"), nil
	})})
	res := New(g, nil, nil).Extract(context.Background(), "https://example.com/")
	if res.Title != "Café Stories" {
		t.Fatalf("title: %q", res.Title)
	}
}

func TestScore(t *testing.T) {
	cases := []struct {
		f    Fields
		want Confidence
	}{
		{Fields{"t", "a", "c"}, ConfidenceHigh},
		{Fields{"t", "a", ""}, ConfidenceMedium},
		{Fields{"t", "", "c"}, ConfidenceMedium},
		{Fields{"t", "", ""}, ConfidenceLow},
		{Fields{"", "a", "c"}, ConfidenceNone},
		{Fields{}, ConfidenceNone},
	}
	for _, c := range cases {
		if got := Score(c.f); got != c.want {
			t.Errorf("%+v: got %s want %s", c.f, got, c.want)
		}
	}
	if ConfidenceMedium.NeedsReview() || !ConfidenceLow.NeedsReview() || !ConfidenceNone.NeedsReview() {
		t.Fatalf("NeedsReview mapping wrong")
	}
}

func TestMerge_FirstNonEmptyWins(t *testing.T) {
	got := Merge(Fields{Title: "A"}, Fields{Title: "B", Authors: "X"}, Fields{Authors: "Y", CoverImage: "c"})
	if got != (Fields{Title: "A", Authors: "X", CoverImage: "c"}) {
		t.Fatalf("merge: %+v", got)
	}
}
