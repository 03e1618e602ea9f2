// Package dates formats the timestamps the blog API returns for display.
package dates

import (
	"strings"
	"time"
)

// layouts accepted by Parse, most specific first. WordPress sends local
// times without an offset.
var layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Parse reads a timestamp in any accepted layout.
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Simple renders s as "January 2, 2006". Unparseable input is returned
// trimmed.
func Simple(s string) string {
	t, ok := Parse(s)
	if !ok {
		return strings.TrimSpace(s)
	}
	return t.Format("January 2, 2006")
}
