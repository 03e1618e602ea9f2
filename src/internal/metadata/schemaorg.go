package metadata

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SchemaOrg reads every JSON-LD block and takes name, author and image from
// items typed Book. Malformed blocks are skipped. Within the strategy the
// first value found for a field is kept.
func SchemaOrg(doc *goquery.Document, log *slog.Logger) Fields {
	var f Fields
	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, s *goquery.Selection) {
		var data any
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &data); err != nil {
			if log != nil {
				log.Debug("skipping malformed json-ld", "block", i, "error", err)
			}
			return
		}
		for _, item := range ldItems(data) {
			if !isBook(item["@type"]) {
				continue
			}
			if f.Title == "" {
				f.Title, _ = item["name"].(string)
			}
			if f.Authors == "" {
				f.Authors = ldAuthors(item["author"])
			}
			if f.CoverImage == "" {
				f.CoverImage = ldImage(item["image"])
			}
		}
	})
	return f
}

// ldItems flattens a top-level object, array or @graph container into
// candidate items.
func ldItems(v any) []map[string]any {
	var out []map[string]any
	switch t := v.(type) {
	case []any:
		for _, it := range t {
			out = append(out, ldItems(it)...)
		}
	case map[string]any:
		out = append(out, t)
		if g, ok := t["@graph"].([]any); ok {
			for _, it := range g {
				if m, ok := it.(map[string]any); ok {
					out = append(out, m)
				}
			}
		}
	}
	return out
}

func isBook(v any) bool {
	switch t := v.(type) {
	case string:
		return t == "Book"
	case []any:
		for _, it := range t {
			if s, ok := it.(string); ok && s == "Book" {
				return true
			}
		}
	}
	return false
}

func ldName(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		n, _ := t["name"].(string)
		return n
	}
	return ""
}

// ldAuthors accepts "Name", {"name": ...} or an array of either, joined with
// ", ".
func ldAuthors(v any) string {
	arr, ok := v.([]any)
	if !ok {
		return ldName(v)
	}
	names := make([]string, 0, len(arr))
	for _, it := range arr {
		if n := ldName(it); n != "" {
			names = append(names, n)
		}
	}
	return strings.Join(names, ", ")
}

// ldImage accepts "url", {"url": ...} or an array whose first element is
// either.
func ldImage(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		u, _ := t["url"].(string)
		return u
	case []any:
		if len(t) == 0 {
			return ""
		}
		switch first := t[0].(type) {
		case string:
			return first
		case map[string]any:
			u, _ := first["url"].(string)
			return u
		}
	}
	return ""
}
