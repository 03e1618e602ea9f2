// Package collections builds the data sets the public site renders: the
// publishable books, the blog archive and the blogroll. Every loader takes
// the cache it should use and returns cached data while it is fresh.
package collections

import (
	"context"
	"log/slog"
	"time"

	"bookshelf/src/internal/cache"
	"bookshelf/src/internal/names"
	"bookshelf/src/internal/schema"
	"bookshelf/src/internal/store"
)

const (
	BooksKey    = "books"
	BlogKey     = "blog"
	BlogrollKey = "blogroll"

	BooksTTL    = time.Hour
	BlogTTL     = 8 * time.Hour
	BlogrollTTL = 8 * time.Hour
)

// Book is the public view of a library record.
type Book struct {
	Title      string `json:"title"`
	Authors    string `json:"authors"`
	CoverImage string `json:"coverImage,omitempty"`
	Shelf      string `json:"shelf"`
	AuthorSort string `json:"authorSort"`
}

func bookView(b schema.Book) Book {
	return Book{
		Title:      b.Title,
		Authors:    string(b.Authors),
		CoverImage: b.CoverImage,
		Shelf:      b.Shelf,
		AuthorSort: names.SortKey(string(b.Authors)),
	}
}

// Books returns the publishable books, newest first. If the library cannot be
// read, a stale cached copy is returned when one exists.
func Books(ctx context.Context, c cache.Cache, st *store.Store) ([]Book, error) {
	var books []Book
	if cache.GetJSON(c, BooksKey, BooksTTL, &books) {
		return books, nil
	}
	books, err := RefreshBooks(ctx, c, st)
	if err != nil {
		var stale []Book
		if cache.GetJSON(c, BooksKey, 0, &stale) {
			slog.WarnContext(ctx, "library unreadable, serving stale books", "error", err)
			return stale, nil
		}
		return nil, err
	}
	return books, nil
}

// RefreshBooks reads the library and overwrites the cached books list,
// ignoring any fresh entry. A read failure leaves the cache untouched.
func RefreshBooks(ctx context.Context, c cache.Cache, st *store.Store) ([]Book, error) {
	all, err := st.ReadAll()
	if err != nil {
		return nil, err
	}
	books := make([]Book, 0, len(all))
	for _, b := range store.Publishable(all) {
		books = append(books, bookView(b))
	}
	if err := cache.SetJSON(c, BooksKey, books); err != nil {
		slog.WarnContext(ctx, "caching books failed", "error", err)
	}
	return books, nil
}
