package metadata

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Field names a Fields member a Rule fills.
type Field int

const (
	FieldTitle Field = iota
	FieldAuthors
	FieldCover
)

// Rule is one entry of the HTML fallback table. The first element matching
// Selector (searched inside Within when set) supplies the field: the first
// non-empty attribute in Attrs, or its trimmed text when Attrs is empty.
// Strip, when set, is removed from the value.
type Rule struct {
	Field    Field
	Within   string
	Selector string
	Attrs    []string
	Strip    *regexp.Regexp
}

var reSiteSuffix = regexp.MustCompile(`\s*[-|:]\s*.+$`)

var imageAttrs = []string{"src", "data-src"}

// DefaultRules covers Amazon product pages, common bookstore markup and the
// generic <title>/meta author fallbacks. Order is priority.
var DefaultRules = []Rule{
	{Field: FieldTitle, Selector: "#productTitle"},
	{Field: FieldTitle, Selector: ".book-title"},
	{Field: FieldTitle, Selector: ".product-title"},
	{Field: FieldTitle, Selector: `h1[itemprop="name"]`},
	{Field: FieldTitle, Selector: "h1.title"},
	{Field: FieldTitle, Selector: `[data-testid="title"]`},
	{Field: FieldTitle, Selector: "title", Strip: reSiteSuffix},

	{Field: FieldAuthors, Within: "#bylineInfo", Selector: ".author a, .contributorNameID"},
	{Field: FieldAuthors, Selector: ".book-author"},
	{Field: FieldAuthors, Selector: ".author-name"},
	{Field: FieldAuthors, Selector: `[itemprop="author"]`},
	{Field: FieldAuthors, Selector: ".contributor"},
	{Field: FieldAuthors, Selector: `[data-testid="author"]`},
	{Field: FieldAuthors, Selector: `meta[name="author"]`, Attrs: []string{"content"}},

	{Field: FieldCover, Selector: "#imgBlkFront, #landingImage, #ebooksImgBlkFront", Attrs: imageAttrs},
	{Field: FieldCover, Selector: ".book-cover img", Attrs: imageAttrs},
	{Field: FieldCover, Selector: ".product-image img", Attrs: imageAttrs},
	{Field: FieldCover, Selector: `[itemprop="image"]`, Attrs: imageAttrs},
	{Field: FieldCover, Selector: ".cover-image", Attrs: imageAttrs},
	{Field: FieldCover, Selector: `[data-testid="cover-image"]`, Attrs: imageAttrs},
}

// ApplyRules runs the table against doc; the first rule yielding a non-empty
// value for a field wins.
func ApplyRules(doc *goquery.Document, rules []Rule) Fields {
	var f Fields
	for _, r := range rules {
		dst := r.Field.in(&f)
		if dst == nil || *dst != "" {
			continue
		}
		*dst = r.value(doc.Selection)
	}
	return f
}

func (fd Field) in(f *Fields) *string {
	switch fd {
	case FieldTitle:
		return &f.Title
	case FieldAuthors:
		return &f.Authors
	case FieldCover:
		return &f.CoverImage
	}
	return nil
}

func (r Rule) value(root *goquery.Selection) string {
	if r.Within != "" {
		root = root.Find(r.Within).First()
		if root.Length() == 0 {
			return ""
		}
	}
	el := root.Find(r.Selector).First()
	if el.Length() == 0 {
		return ""
	}
	var v string
	if len(r.Attrs) == 0 {
		v = strings.TrimSpace(el.Text())
	} else {
		for _, a := range r.Attrs {
			if v = el.AttrOr(a, ""); v != "" {
				break
			}
		}
	}
	if r.Strip != nil {
		v = strings.TrimSpace(r.Strip.ReplaceAllString(v, ""))
	}
	return v
}
