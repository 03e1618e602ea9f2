package sanitize

import (
	"net/url"
	"regexp"
	"strings"

	"bookshelf/src/internal/schema"
)

// MaxText is the cap applied to scraped and submitted text fields.
const MaxText = schema.MaxTextLen

// Text prepares a scraped field for display: trim, keep the first MaxText
// characters, then drop angle brackets.
func Text(s string) string {
	s = truncate(strings.TrimSpace(s), MaxText)
	return strings.NewReplacer("<", "", ">", "").Replace(s)
}

// CleanString trims and removes ASCII control characters except tab/newline/carriage
// return up to max runes (if max <= 0, no truncation).
func CleanString(s string, max int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	var b strings.Builder
	n := 0
	for _, r := range s {
		if r == '\n' || r == '\t' || r == '\r' || (r >= 0x20 && r != 0x7f) {
			b.WriteRune(r)
			n++
			if max > 0 && n >= max {
				break
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// CleanURL returns a validated http/https URL or empty string.
func CleanURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Path = strings.ReplaceAll(u.Path, " ", "%20")
	return u.String()
}

// CleanCover accepts an absolute http(s) URL or a site-relative path such as
// the placeholder image.
func CleanCover(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return CleanString(raw, MaxText)
	}
	return CleanURL(raw)
}

var (
	nonWord    = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// NormalizeTitle folds a title for duplicate matching: lowercase, no
// punctuation, single spaces.
func NormalizeTitle(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	t = nonWord.ReplaceAllString(t, "")
	return strings.TrimSpace(whitespace.ReplaceAllString(t, " "))
}

// CleanBook applies conservative sanitization to every field of b.
func CleanBook(b *schema.Book) {
	if b == nil {
		return
	}
	b.ID = CleanString(b.ID, 64)
	b.Title = CleanString(b.Title, schema.MaxTextLen)
	b.Authors = schema.Authors(CleanString(string(b.Authors), schema.MaxTextLen))
	b.CoverImage = CleanCover(b.CoverImage)
	b.Shelf = CleanString(b.Shelf, schema.MaxShelfLen)
	b.Source = CleanString(b.Source, 2048)
}

func truncate(s string, max int) string {
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
