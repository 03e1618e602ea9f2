package web

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"bookshelf/src/internal/auth"
	"bookshelf/src/internal/collections"
	"bookshelf/src/internal/openlibrary"
	"bookshelf/src/internal/sanitize"
	"bookshelf/src/internal/schema"
	"bookshelf/src/internal/urlguard"
)

var authNotices = map[string]notice{
	"success": {"success", "Signed in. You can add books now."},
	"missing": {"error", "Please enter the admin token."},
	"invalid": {"error", "That token is not valid."},
	"expired": {"warning", "Your session has expired. Please sign in again."},
	"server":  {"error", "Sign-in failed. Please try again."},
}

func (s *Server) handleAddBookPage(w http.ResponseWriter, r *http.Request) {
	v := addBookView{Title: "Add a Book", Authenticated: auth.IsAuthenticated(r, s.Token)}
	q := r.URL.Query()
	key := q.Get("auth")
	if key == "failed" {
		key = q.Get("error")
	}
	if n, ok := authNotices[key]; ok {
		v.Notice = &n
	}
	w.Header().Set("Cache-Control", "no-store")
	s.render(w, http.StatusOK, addBookPage, v)
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.Log.Warn("auth form", "error", err)
		http.Redirect(w, r, auth.LoginPage+"?auth=failed&error=server", http.StatusFound)
		return
	}
	token := r.PostFormValue("token")
	switch {
	case token == "":
		http.Redirect(w, r, auth.LoginPage+"?auth=failed&error=missing", http.StatusFound)
	case auth.ValidateToken(s.Token, token):
		http.SetCookie(w, auth.NewAuthCookie(token))
		http.Redirect(w, r, auth.LoginPage+"?auth=success", http.StatusFound)
	default:
		http.Redirect(w, r, auth.LoginPage+"?auth=failed&error=invalid", http.StatusFound)
	}
}

func (s *Server) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": auth.IsAuthenticated(r, s.Token)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ClearAuthCookie())
	http.Redirect(w, r, auth.LoginPage, http.StatusFound)
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, http.StatusBadRequest, "Invalid form data")
		return
	}
	raw := r.PostFormValue("url")
	if v := urlguard.Validate(raw); !v.Valid {
		s.renderError(w, http.StatusBadRequest, v.Err)
		return
	}
	meta := s.Extractor.Extract(r.Context(), strings.TrimSpace(raw))
	dup := s.Library.CheckDuplicate(meta.Title)
	if dup.Err != nil {
		s.Log.Warn("duplicate check failed", "error", dup.Err)
	}
	cover := meta.CoverImage
	if cover == "" {
		cover = schema.PlaceholderCover
	}
	s.render(w, http.StatusOK, reviewPage, reviewView{
		Title:      "Review Book - Add to Library",
		Meta:       meta,
		Duplicates: dup,
		Cover:      cover,
		Shelf:      schema.DefaultShelf,
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, http.StatusBadRequest, "Invalid form data")
		return
	}
	title := sanitize.CleanString(r.PostFormValue("title"), schema.MaxTextLen)
	if title == "" {
		s.renderError(w, http.StatusUnprocessableEntity, "Title is required")
		return
	}
	authors := sanitize.CleanString(r.PostFormValue("authors"), schema.MaxTextLen)
	if authors == "" {
		s.renderError(w, http.StatusUnprocessableEntity, "Author(s) is required")
		return
	}
	cover := sanitize.CleanCover(r.PostFormValue("coverImage"))
	if cover == "" {
		cover = schema.PlaceholderCover
	}
	book := schema.Book{
		ID:          schema.NewID(),
		Title:       title,
		Authors:     schema.Authors(authors),
		CoverImage:  cover,
		Shelf:       sanitize.CleanString(r.PostFormValue("shelf"), schema.MaxShelfLen),
		Publishable: true,
		Source:      sanitize.CleanURL(r.PostFormValue("source")),
	}
	if book.Shelf == "" {
		book.Shelf = schema.DefaultShelf
	}
	path, err := s.Library.WriteBook(&book)
	if err != nil {
		s.Log.Error("create book", "title", title, "error", err)
		s.renderError(w, http.StatusInternalServerError, "Failed to add book to library")
		return
	}
	s.publish(r, path, book.Title)
	s.refreshBooks(r)
	s.render(w, http.StatusOK, createdPage, createdView{
		Title:       "Book Added Successfully",
		Book:        book,
		Placeholder: schema.PlaceholderCover,
	})
}

// handleQuickAdd adds a search hit straight to the Queued shelf.
func (s *Server) handleQuickAdd(w http.ResponseWriter, r *http.Request) {
	title := sanitize.CleanString(pathParam(r, "title"), schema.MaxTextLen)
	author := sanitize.CleanString(pathParam(r, "author"), schema.MaxTextLen)
	if title == "" || author == "" {
		writeError(w, http.StatusUnprocessableEntity, "title and author are required")
		return
	}
	book := schema.Book{
		ID:      schema.NewID(),
		Title:   title,
		Authors: schema.Authors(author),
		Shelf:   schema.DefaultShelf,
	}
	if c := pathParam(r, "coverImage"); c != "" && c != openlibrary.NoCoverID {
		book.CoverImage = s.quickAddCover(c)
	}
	path, err := s.Library.WriteBook(&book)
	if err != nil {
		s.Log.Error("quick add", "title", title, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add book")
		return
	}
	s.publish(r, path, book.Title)
	s.refreshBooks(r)
	writeJSON(w, http.StatusOK, book)
}

// quickAddCover maps a search hit's cover segment to a stored URL. Search
// results carry a bare Open Library cover id; anything else must be a URL.
func (s *Server) quickAddCover(c string) string {
	if isDigits(c) {
		id, err := strconv.Atoi(c)
		if err != nil {
			return ""
		}
		return s.Search.CoverURL(id, "L")
	}
	return sanitize.CleanCover(c)
}

func isDigits(v string) bool {
	if v == "" {
		return false
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// handleSearch proxies Open Library search. Failures answer 204, which
// cannot carry a body, so the reason only goes to the log.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	offset, err := strconv.Atoi(chi.URLParam(r, "offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	res, err := s.Search.Search(r.Context(), pathParam(r, "query"), offset)
	if err != nil {
		s.Log.Info("search failed", "error", err)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if len(res.Results) == 0 {
		writeJSON(w, http.StatusOK, []openlibrary.SearchHit{})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	books, err := collections.Books(r.Context(), s.Cache, s.Library)
	if err != nil {
		s.Log.Error("load books", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load books")
		return
	}
	writeJSON(w, http.StatusOK, books)
}

// publish hands a new record to the Publisher. Failures are logged only;
// the record is already on disk.
func (s *Server) publish(r *http.Request, path, title string) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.Publish(r.Context(), []string{path}, "Add book: "+title); err != nil {
		s.Log.Error("publish book", "path", path, "error", err)
	}
}

// refreshBooks rebuilds the cached books list so /books.json shows a new
// record without waiting out the TTL.
func (s *Server) refreshBooks(r *http.Request) {
	if _, err := collections.RefreshBooks(r.Context(), s.Cache, s.Library); err != nil {
		s.Log.Warn("refresh books cache", "error", err)
	}
}

// pathParam returns a URL-decoded route parameter.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if dec, err := url.PathUnescape(v); err == nil {
		return dec
	}
	return v
}
