// Package names handles author lines such as "Terry Pratchett and Neil
// Gaiman" or "Herbert, Frank".
package names

import (
	"strings"
)

var listSep = strings.NewReplacer(" and ", ",", " & ", ",", ";", ",")

// SplitList splits an author line on commas, semicolons, "&" and " and ".
// An inverted single name ("Herbert, Frank") is kept whole.
func SplitList(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if isInverted(line) {
		return []string{line}
	}
	parts := strings.Split(listSep.Replace(line), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// isInverted reports a lone "Family, Given" name: one comma, no other list
// separators, and a single-word family part.
func isInverted(line string) bool {
	if strings.Count(line, ",") != 1 || listSep.Replace(line) != line {
		return false
	}
	family, given, _ := strings.Cut(line, ",")
	return len(strings.Fields(family)) == 1 && len(strings.Fields(given)) >= 1 && len(strings.Fields(given)) <= 3
}

// Split splits a full name into (family, given). It accepts either
// "Family, Given Names" or "Given Names Family".
func Split(name string) (family, given string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}
	if i := strings.Index(name, ","); i >= 0 {
		return strings.TrimSpace(name[:i]), strings.TrimSpace(name[i+1:])
	}
	parts := strings.Fields(name)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[len(parts)-1], strings.Join(parts[:len(parts)-1], " ")
}

// Display turns "Herbert, Frank" into "Frank Herbert"; other names are
// returned trimmed.
func Display(name string) string {
	name = strings.TrimSpace(name)
	if !strings.Contains(name, ",") {
		return name
	}
	family, given := Split(name)
	return strings.TrimSpace(given + " " + family)
}

// SortKey orders books by the first author's family name, then given name.
func SortKey(line string) string {
	list := SplitList(line)
	if len(list) == 0 {
		return ""
	}
	family, given := Split(list[0])
	return strings.ToLower(strings.TrimSpace(family + " " + given))
}
