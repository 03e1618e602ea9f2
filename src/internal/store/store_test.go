package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bookshelf/src/internal/schema"
)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestWriteReadAndIndex(t *testing.T) {
	s := New(t.TempDir())
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	s.Now = fixedClock(base)
	p1, err := s.WriteBook(&schema.Book{ID: "a", Title: "Dune", Authors: "Herbert, Frank", Publishable: true})
	if err != nil {
		t.Fatalf("write1: %v", err)
	}
	if _, err := os.Stat(p1); err != nil {
		t.Fatalf("stat1: %v", err)
	}
	s.Now = fixedClock(base.Add(time.Hour))
	if _, err := s.WriteBook(&schema.Book{ID: "b", Title: "Good Omens", Authors: "Terry Pratchett and Neil Gaiman", Shelf: "Read"}); err != nil {
		t.Fatalf("write2: %v", err)
	}

	list, err := s.ReadAll()
	if err != nil {
		t.Fatalf("readall: %v", err)
	}
	if len(list) != 2 || list[0].ID != "b" || list[1].ID != "a" {
		t.Fatalf("expected newest first, got %+v", list)
	}
	if list[1].Shelf != schema.DefaultShelf || !list[1].AddedAt.Equal(base) {
		t.Fatalf("defaults not applied: %+v", list[1])
	}

	if pub := Publishable(list); len(pub) != 1 || pub[0].ID != "a" {
		t.Fatalf("publishable: %+v", pub)
	}
	if read := FilterByShelf(list, "read"); len(read) != 1 || read[0].ID != "b" {
		t.Fatalf("shelf filter: %+v", read)
	}

	out, err := s.BuildAuthorIndex(list)
	if err != nil {
		t.Fatalf("author index: %v", err)
	}
	data, _ := os.ReadFile(out)
	var authors map[string][]string
	if err := json.Unmarshal(data, &authors); err != nil {
		t.Fatalf("decode index: %v", err)
	}
	if len(authors["Neil Gaiman"]) != 1 || authors["Frank Herbert"][0] != "a" {
		t.Fatalf("author index: %v", authors)
	}
	if out, err = s.BuildShelfIndex(list); err != nil || filepath.Base(out) != ShelvesJSON {
		t.Fatalf("shelf index: %s %v", out, err)
	}

	// index files must not be read back as books
	if again, err := s.ReadAll(); err != nil || len(again) != 2 {
		t.Fatalf("readall after index: %d %v", len(again), err)
	}
}

func TestWriteBook_GeneratesIDAndValidates(t *testing.T) {
	s := New(t.TempDir())
	s.Now = fixedClock(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	b := schema.Book{Title: "T", Authors: "A"}
	p, err := s.WriteBook(&b)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if b.ID == "" || b.Shelf != schema.DefaultShelf || !b.AddedAt.Equal(s.Now()) {
		t.Fatalf("defaults not reported back: %+v", b)
	}
	if filepath.Base(p) != b.ID+".yaml" {
		t.Fatalf("path %s does not match id %s", p, b.ID)
	}
	if filepath.Ext(p) != ".yaml" || len(filepath.Base(p)) < 10 {
		t.Fatalf("path: %s", p)
	}
	if _, err := s.WriteBook(&schema.Book{Title: "No author"}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestReadAll_AuthorsAsSequence(t *testing.T) {
	dir := t.TempDir()
	doc := "id: x\ntitle: Seq\nauthors:\n  - One\n  - Two\nshelf: Queued\n"
	if err := os.WriteFile(filepath.Join(dir, "x.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	books, err := New(dir).ReadAll()
	if err != nil || len(books) != 1 || books[0].Authors != "One, Two" {
		t.Fatalf("books=%+v err=%v", books, err)
	}
}

func TestReadAll_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("id: [unclosed"), 0o644)
	if _, err := New(dir).ReadAll(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestEmptyDir(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing"))
	books, err := s.ReadAll()
	if err != nil || len(books) != 0 {
		t.Fatalf("books=%v err=%v", books, err)
	}
}

func TestCheckDuplicate(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.WriteBook(&schema.Book{ID: "d", Title: "Dune: Messiah!", Authors: "Frank Herbert", Shelf: "Read"}); err != nil {
		t.Fatal(err)
	}
	res := s.CheckDuplicate("  dune   MESSIAH ")
	if !res.IsDuplicate || len(res.Matches) != 1 || res.Matches[0].Shelf != "Read" || res.Err != nil {
		t.Fatalf("expected a match: %+v", res)
	}
	if res := s.CheckDuplicate("Dune"); res.IsDuplicate {
		t.Fatalf("different title matched: %+v", res)
	}
	if res := s.CheckDuplicate(""); res.IsDuplicate || res.Matches == nil {
		t.Fatalf("empty title: %+v", res)
	}
}

func TestCheckDuplicate_ReadErrorIsReported(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("id: [unclosed"), 0o644)
	res := New(dir).CheckDuplicate("anything")
	if res.IsDuplicate || res.Err == nil {
		t.Fatalf("want error reported without duplicate: %+v", res)
	}
}

func TestCheckDuplicate_ScansNewestOnly(t *testing.T) {
	s := New(t.TempDir())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Now = fixedClock(base)
	if _, err := s.WriteBook(&schema.Book{ID: "old", Title: "Ancient", Authors: "A"}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < DuplicateScanLimit; i++ {
		s.Now = fixedClock(base.Add(time.Duration(i+1) * time.Minute))
		if _, err := s.WriteBook(&schema.Book{Title: "Filler", Authors: "B"}); err != nil {
			t.Fatal(err)
		}
	}
	if res := s.CheckDuplicate("Ancient"); res.IsDuplicate {
		t.Fatalf("record beyond scan limit should not match")
	}
	if res := s.CheckDuplicate("filler"); len(res.Matches) != DuplicateScanLimit {
		t.Fatalf("matches: %d", len(res.Matches))
	}
}
