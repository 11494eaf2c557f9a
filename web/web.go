// Package web holds the embedded templates and static assets of the browser
// interface. Pages are shells; data is loaded from the REST API by app.js.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Pages lists every page template rendered on top of the base layout
var Pages = []string{"index", "login", "register", "tasks", "categories", "tags", "profile"}

// PageData is passed to every page template
type PageData struct {
	AppName string
	Version string
	Title   string
	Page    string
}

// Renderer implements echo.Renderer over the embedded templates
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses the base layout once per page
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(Pages))}
	for _, page := range Pages {
		t, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		r.templates[page] = t
	}
	return r, nil
}

// Render executes the named page inside the base layout
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "base", data)
}

// Static returns the static asset tree rooted at static/
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
