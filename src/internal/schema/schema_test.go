package schema

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestValidate(t *testing.T) {
	b := Book{ID: "id", Title: "Dune", Shelf: DefaultShelf}
	if err := b.Validate(); err == nil {
		t.Fatalf("expected error due to missing authors")
	}
	b.Authors = "Frank Herbert"
	if err := b.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b.Shelf = strings.Repeat("s", MaxShelfLen+1)
	if err := b.Validate(); err == nil {
		t.Fatalf("expected shelf length error")
	}
	b.Shelf = DefaultShelf
	b.Title = strings.Repeat("é", MaxTextLen)
	if err := b.Validate(); err != nil {
		t.Fatalf("1000 runes should be accepted: %v", err)
	}
	b.ID = " "
	if err := b.Validate(); err == nil {
		t.Fatalf("expected id error")
	}
}

func TestAuthors_UnmarshalYAMLShapes(t *testing.T) {
	cases := map[string]Authors{
		"authors: Frank Herbert\n":                  "Frank Herbert",
		"authors: [Neil Gaiman, Terry Pratchett]\n": "Neil Gaiman, Terry Pratchett",
		"authors: {name: Ursula K. Le Guin}\n":      "Ursula K. Le Guin",
		"authors: null\n":                           "",
		"authors:\n  - ' '\n  - Octavia Butler\n":   "Octavia Butler",
	}
	for in, want := range cases {
		var b Book
		if err := yaml.Unmarshal([]byte(in), &b); err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if b.Authors != want {
			t.Errorf("%q: want %q, got %q", in, want, b.Authors)
		}
	}
}

func TestNewID_Unique(t *testing.T) {
	a, b := NewID(), NewID()
	if a == "" || a == b {
		t.Fatalf("NewID not unique: %q %q", a, b)
	}
}
