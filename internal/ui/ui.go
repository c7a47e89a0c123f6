// Package ui renders the web front end. Templates and static assets are
// embedded so the binary is self-contained.
package ui

import (
	"embed"
	"html/template"
	"io"
	"net/http"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var indexTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// ExampleQueries are the canned questions offered under the ask form.
var ExampleQueries = []string{
	"What is artificial intelligence?",
	"Explain machine learning in simple terms",
	"What are the benefits of renewable energy?",
	"How does quantum computing work?",
	"What is the difference between Python and JavaScript?",
}

// Page carries everything the index template renders.
type Page struct {
	ServerURL string
	Online    bool
	Query     string
	Answer    string
	RawJSON   string
	Warning   string
	Error     string
	ErrorKind string
	Examples  []string
}

// Render writes the index page.
func Render(w io.Writer, p Page) error {
	return indexTmpl.ExecuteTemplate(w, "index.html", p)
}

// StaticHandler serves the embedded assets under /static/.
func StaticHandler() http.Handler {
	return http.FileServer(http.FS(staticFS))
}
