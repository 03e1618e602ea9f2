package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"bookshelf/src/internal/names"
	"bookshelf/src/internal/sanitize"
	"bookshelf/src/internal/schema"
)

const (
	// IndexDir holds the derived JSON indexes, relative to the store root.
	IndexDir    = "index"
	AuthorsJSON = "authors.json"
	ShelvesJSON = "shelves.json"

	// DuplicateScanLimit caps how many records CheckDuplicate compares.
	DuplicateScanLimit = 100
)

// Store keeps one YAML file per book under Dir.
type Store struct {
	Dir string
	// Now is used for AddedAt; nil means time.Now.
	Now func() time.Time
}

// New returns a Store rooted at dir.
func New(dir string) *Store { return &Store{Dir: dir} }

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Store) bookPath(id string) string {
	return filepath.Join(s.Dir, id+".yaml")
}

// WriteBook fills in ID, shelf and AddedAt on b when missing, validates and
// writes <Dir>/<id>.yaml. It returns the written path.
func (s *Store) WriteBook(b *schema.Book) (string, error) {
	if strings.TrimSpace(b.ID) == "" {
		b.ID = schema.NewID()
	}
	if strings.TrimSpace(b.Shelf) == "" {
		b.Shelf = schema.DefaultShelf
	}
	if b.AddedAt.IsZero() {
		b.AddedAt = s.now().UTC()
	}
	if err := b.Validate(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	buf, err := yaml.Marshal(*b)
	if err != nil {
		return "", err
	}
	path := s.bookPath(b.ID)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// ReadAll loads and validates every book, newest first. A missing directory
// is an empty library.
func (s *Store) ReadAll() ([]schema.Book, error) {
	var books []schema.Book
	ents, err := os.ReadDir(s.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return books, nil
	}
	if err != nil {
		return nil, err
	}
	for _, d := range ents {
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(s.Dir, d.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var b schema.Book
		if err := yaml.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("invalid book in %s: %w", path, err)
		}
		books = append(books, b)
	}
	sort.SliceStable(books, func(i, j int) bool {
		if books[i].AddedAt.Equal(books[j].AddedAt) {
			return books[i].ID < books[j].ID
		}
		return books[i].AddedAt.After(books[j].AddedAt)
	})
	return books, nil
}

// Publishable filters books to those marked for the public shelf.
func Publishable(books []schema.Book) []schema.Book {
	out := make([]schema.Book, 0, len(books))
	for _, b := range books {
		if b.Publishable && strings.TrimSpace(b.Title) != "" {
			out = append(out, b)
		}
	}
	return out
}

// Match is a stored book whose title normalizes to the checked one.
type Match struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Authors string `json:"authors"`
	Shelf   string `json:"shelf,omitempty"`
}

// DuplicateResult reports title collisions. Err is set when the library could
// not be read; IsDuplicate is then false.
type DuplicateResult struct {
	IsDuplicate bool    `json:"isDuplicate"`
	Matches     []Match `json:"matchedRecords"`
	Err         error   `json:"-"`
}

// CheckDuplicate compares title against the newest DuplicateScanLimit books
// after normalizing both. It never returns an error of its own.
func (s *Store) CheckDuplicate(title string) DuplicateResult {
	res := DuplicateResult{Matches: []Match{}}
	want := sanitize.NormalizeTitle(title)
	if want == "" {
		return res
	}
	books, err := s.ReadAll()
	if err != nil {
		res.Err = err
		return res
	}
	if len(books) > DuplicateScanLimit {
		books = books[:DuplicateScanLimit]
	}
	for _, b := range books {
		if sanitize.NormalizeTitle(b.Title) != want {
			continue
		}
		res.Matches = append(res.Matches, Match{ID: b.ID, Title: b.Title, Authors: string(b.Authors), Shelf: b.Shelf})
	}
	res.IsDuplicate = len(res.Matches) > 0
	return res
}

// writeJSON writes the given value to the target JSON file with indentation.
func writeJSON(target string, v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(target, b, 0o644); err != nil {
		return "", err
	}
	return target, nil
}

func (s *Store) ensureIndexDir() (string, error) {
	dir := filepath.Join(s.Dir, IndexDir)
	return dir, os.MkdirAll(dir, 0o755)
}

// BuildAuthorIndex writes index/authors.json mapping each author name to the
// ids of their books.
func (s *Store) BuildAuthorIndex(books []schema.Book) (string, error) {
	dir, err := s.ensureIndexDir()
	if err != nil {
		return "", err
	}
	index := map[string][]string{}
	for _, b := range books {
		seen := map[string]bool{}
		for _, name := range names.SplitList(string(b.Authors)) {
			name = names.Display(name)
			if seen[name] {
				continue
			}
			seen[name] = true
			index[name] = append(index[name], b.ID)
		}
	}
	for k := range index {
		sort.Strings(index[k])
	}
	return writeJSON(filepath.Join(dir, AuthorsJSON), index)
}

// BuildShelfIndex writes index/shelves.json mapping shelf name to book ids.
func (s *Store) BuildShelfIndex(books []schema.Book) (string, error) {
	dir, err := s.ensureIndexDir()
	if err != nil {
		return "", err
	}
	index := map[string][]string{}
	for _, b := range books {
		shelf := strings.TrimSpace(b.Shelf)
		if shelf == "" {
			shelf = schema.DefaultShelf
		}
		index[shelf] = append(index[shelf], b.ID)
	}
	for k := range index {
		sort.Strings(index[k])
	}
	return writeJSON(filepath.Join(dir, ShelvesJSON), index)
}

// FilterByShelf returns books on shelf (case-insensitive).
func FilterByShelf(books []schema.Book, shelf string) []schema.Book {
	shelf = strings.ToLower(strings.TrimSpace(shelf))
	if shelf == "" {
		return books
	}
	var out []schema.Book
	for _, b := range books {
		if strings.ToLower(strings.TrimSpace(b.Shelf)) == shelf {
			out = append(out, b)
		}
	}
	return out
}
