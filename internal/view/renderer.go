// Package view renders the site's HTML pages.  Templates are embedded in
// the binary and parsed once at startup; each page template is registered
// under a "resource/action" name and shares the partials defined in
// partials.html.
package view

import (
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html templates/movies/*.html templates/users/*.html
var files embed.FS

// Renderer implements echo.Renderer over the embedded template set.
type Renderer struct {
	templates *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	t, err := template.ParseFS(files,
		"templates/*.html",
		"templates/movies/*.html",
		"templates/users/*.html",
	)
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: t}, nil
}

// Render writes the named template with the given data.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}
