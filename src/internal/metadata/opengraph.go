package metadata

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var reByline = regexp.MustCompile(`(?i)by\s+([^,.]+)`)

// OpenGraph reads og:title, og:image and, failing a better source, an author
// from an og:description of the form "... by Name, ...". Later tags of the
// same property win.
func OpenGraph(doc *goquery.Document) Fields {
	var f Fields
	doc.Find(`meta[property^="og:"]`).Each(func(_ int, s *goquery.Selection) {
		content := s.AttrOr("content", "")
		if content == "" {
			return
		}
		switch s.AttrOr("property", "") {
		case "og:title":
			f.Title = content
		case "og:image":
			f.CoverImage = content
		case "og:description":
			if f.Authors != "" {
				return
			}
			if m := reByline.FindStringSubmatch(content); m != nil {
				f.Authors = strings.TrimSpace(m[1])
			}
		}
	})
	return f
}
