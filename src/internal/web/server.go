// Package web serves the admin add-book workflow: token login, URL
// extraction with a review form, record creation and Open Library search.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bookshelf/src/internal/auth"
	"bookshelf/src/internal/cache"
	"bookshelf/src/internal/metadata"
	"bookshelf/src/internal/openlibrary"
	"bookshelf/src/internal/store"
)

// MaxFormBytes caps form-encoded request bodies.
const MaxFormBytes = 64 << 10

// Extractor turns a book page URL into reviewable metadata.
type Extractor interface {
	Extract(ctx context.Context, raw string) metadata.Result
}

// Searcher pages through Open Library search results and builds cover URLs
// for the cover ids they carry.
type Searcher interface {
	Search(ctx context.Context, query string, offset int) (openlibrary.SearchPage, error)
	CoverURL(id int, size string) string
}

// Publisher commits newly written records; see gitutil.Publisher.
type Publisher interface {
	Publish(ctx context.Context, paths []string, message string) error
}

// Server holds the handler dependencies. Publisher and Cache are optional.
type Server struct {
	Token     string
	Extractor Extractor
	Search    Searcher
	Library   *store.Store
	Publisher Publisher
	Cache     cache.Cache
	Log       *slog.Logger
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	if s.Log == nil {
		s.Log = slog.Default()
	}
	if s.Cache == nil {
		s.Cache = cache.NewMemory()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.Log))
	r.Use(securityHeaders)
	r.Use(maxFormBody(MaxFormBytes))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/add-book/", s.handleAddBookPage)
	r.Post("/auth", s.handleAuth)
	r.Get("/check-auth", s.handleCheckAuth)
	r.Post("/logout", s.handleLogout)
	r.Get("/search-books/{query}/{offset}", s.handleSearch)
	r.Get("/books.json", s.handleBooks)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(s.Token))
		r.Post("/extract", s.handleExtract)
		r.Post("/create", s.handleCreate)
		r.Post("/add-book/{title}/{author}/{coverImage}", s.handleQuickAdd)
	})
	return r
}

// requestLogger logs one line per request once the handler returns.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.LogAttrs(r.Context(), slog.LevelInfo, "request",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// securityHeaders sets the page hardening headers on every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", "default-src 'self'; img-src 'self' https:; style-src 'self' 'unsafe-inline'")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// maxFormBody limits form-encoded bodies; other content types pass through.
func maxFormBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
