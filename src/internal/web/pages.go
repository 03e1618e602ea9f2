package web

import (
	"bytes"
	"html/template"
	"net/http"

	"bookshelf/src/internal/metadata"
	"bookshelf/src/internal/schema"
	"bookshelf/src/internal/store"
)

const layoutHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="/css/global.css">
  <style>
    .page-container { max-width: 50rem; margin-inline: auto; padding: 1rem; }
    .flow > * + * { margin-top: 1rem; }
    .alert { padding: 0.75rem; border-radius: 0.2rem; border: 1px solid; margin-block: 1rem; }
    .alert.success { border-color: #fccd26; }
    .alert.error { border-color: #e74c3c; color: #e74c3c; }
    .alert.warning { border-color: #f39c12; color: #f39c12; }
    .cluster { display: flex; flex-wrap: wrap; gap: 0.75rem; align-items: center; }
    .button { display: inline-block; padding: 0.5em 1em; font-weight: 600; }
    .preview-cover { max-width: 200px; height: auto; }
    label { display: block; font-weight: 600; margin-bottom: 0.25rem; }
    input[type="text"], input[type="url"], input[type="password"] { width: 100%; padding: 0.5em 0.8em; }
    input[readonly] { opacity: 0.7; cursor: not-allowed; }
  </style>
</head>
<body>
  <div class="page-container flow">
{{template "content" .}}
  </div>
</body>
</html>`

const errorHTML = `{{define "content"}}
    <a href="/add-book/">&larr; Back to Add Book</a>
    <h1>Error</h1>
    <div class="alert error" role="alert">{{.Message}}</div>
    <p>Please try again or contact support if the problem persists.</p>
{{end}}`

const addBookHTML = `{{define "content"}}
    <h1>Add a Book</h1>
    {{with .Notice}}<div class="alert {{.Kind}}" role="alert">{{.Text}}</div>{{end}}
    {{if .Authenticated}}
    <form action="/extract" method="POST" class="flow">
      <div>
        <label for="url">Book page URL *</label>
        <input type="url" id="url" name="url" required placeholder="https://openlibrary.org/books/...">
      </div>
      <div class="cluster">
        <button type="submit" class="button">Fetch Details</button>
      </div>
    </form>
    <form action="/logout" method="POST">
      <button type="submit" class="button secondary">Sign out</button>
    </form>
    {{else}}
    <form action="/auth" method="POST" class="flow">
      <div>
        <label for="token">Admin token *</label>
        <input type="password" id="token" name="token" required autocomplete="current-password">
      </div>
      <div class="cluster">
        <button type="submit" class="button">Sign in</button>
      </div>
    </form>
    {{end}}
{{end}}`

const reviewHTML = `{{define "content"}}
    <a href="/add-book/">&larr; Start Over</a>
    <h1>Review Book Information</h1>
    {{if .Meta.NeedsManualReview}}
    <div class="alert warning" role="alert">
      <strong>Note:</strong> Some information could not be automatically extracted.
      Please review and fill in the fields below manually.
    </div>
    {{end}}
    {{if .Duplicates.IsDuplicate}}
    <div class="alert warning" role="alert">
      <strong>Warning:</strong> This book may already be in your library:
      <ul>{{range .Duplicates.Matches}}<li>{{.Title}} by {{or .Authors "Unknown"}}</li>{{end}}</ul>
      You can still add it if this is a different edition or you want a duplicate.
    </div>
    {{end}}
    <form action="/create" method="POST" class="flow">
      <div>
        <label for="title">Title *</label>
        <input type="text" id="title" name="title" value="{{.Meta.Title}}" required placeholder="Enter book title">
      </div>
      <div>
        <label for="authors">Author(s) *</label>
        <input type="text" id="authors" name="authors" value="{{.Meta.Authors}}" required placeholder="Enter author name(s)">
      </div>
      <div>
        <label for="coverImage">Cover Image URL</label>
        <input type="url" id="coverImage" name="coverImage" value="{{.Cover}}" placeholder="https://example.com/cover.jpg">
        <small>Leave empty to use placeholder image</small>
      </div>
      <div>
        <label for="shelf">Shelf</label>
        <input type="text" id="shelf" name="shelf" value="{{.Shelf}}" readonly>
      </div>
      <input type="hidden" name="source" value="{{.Meta.Source}}">
      <div>
        <p><strong>Cover Preview:</strong></p>
        <img src="{{.Cover}}" alt="Book cover preview" class="preview-cover" loading="lazy">
      </div>
      <div class="cluster">
        <button type="submit" class="button">Add to Library</button>
        <a href="/add-book/" class="button secondary">Cancel</a>
      </div>
    </form>
    <details>
      <summary>Extraction details</summary>
      <ul>
        <li>Source: {{.Meta.Source}}</li>
        <li>Confidence: {{.Meta.Confidence}}</li>
        {{with .Meta.Error}}<li>Error: {{.}}</li>{{end}}
      </ul>
    </details>
{{end}}`

const createdHTML = `{{define "content"}}
    <h1>Book Added Successfully!</h1>
    <div class="alert success" role="alert">
      <strong>{{.Book.Title}}</strong> has been added to your library.
    </div>
    <div class="flow">
      <h2>Book Details</h2>
      <dl>
        <dt><strong>Title:</strong></dt>
        <dd>{{.Book.Title}}</dd>
        <dt><strong>Author(s):</strong></dt>
        <dd>{{.Book.Authors}}</dd>
        <dt><strong>Shelf:</strong></dt>
        <dd>{{.Book.Shelf}}</dd>
        {{if ne .Book.CoverImage .Placeholder}}
        <dt><strong>Cover:</strong></dt>
        <dd><img src="{{.Book.CoverImage}}" alt="Book cover" class="preview-cover" loading="lazy"></dd>
        {{end}}
      </dl>
      <div class="cluster">
        <a href="/add-book/" class="button">Add Another Book</a>
        <a href="/books/" class="button secondary">View Library</a>
      </div>
      <details>
        <summary>Technical details</summary>
        <p>Record ID: {{.Book.ID}}</p>
      </details>
    </div>
{{end}}`

var layout = template.Must(template.New("layout").Parse(layoutHTML))

func page(body string) *template.Template {
	return template.Must(template.Must(layout.Clone()).Parse(body))
}

var (
	errorPage   = page(errorHTML)
	addBookPage = page(addBookHTML)
	reviewPage  = page(reviewHTML)
	createdPage = page(createdHTML)
)

type errorView struct {
	Title   string
	Message string
}

type notice struct {
	Kind string
	Text string
}

type addBookView struct {
	Title         string
	Authenticated bool
	Notice        *notice
}

type reviewView struct {
	Title      string
	Meta       metadata.Result
	Duplicates store.DuplicateResult
	Cover      string
	Shelf      string
}

type createdView struct {
	Title       string
	Book        schema.Book
	Placeholder string
}

// render executes tmpl into a buffer first so a template failure still
// yields a clean 500.
func (s *Server) render(w http.ResponseWriter, code int, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.Log.Error("render page", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, code int, msg string) {
	s.render(w, code, errorPage, errorView{Title: "Error", Message: msg})
}
