package dashboard

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer turns an AppView into the dashboard page.
type Renderer struct {
	tmpl    *template.Template
	refresh time.Duration
}

type page struct {
	View           AppView
	Busy           bool
	RefreshSeconds int
}

// NewRenderer parses the embedded templates. While anything is loading the
// page asks the browser to re-poll every refresh interval.
func NewRenderer(refresh time.Duration) (*Renderer, error) {
	tmpl, err := template.New("app").Funcs(template.FuncMap{
		"selectPath": SelectPath,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Renderer{tmpl: tmpl, refresh: refresh}, nil
}

func (r *Renderer) Render(w io.Writer, view AppView) error {
	secs := int(r.refresh / time.Second)
	if secs < 1 {
		secs = 1
	}

	return r.tmpl.ExecuteTemplate(w, "app", page{
		View:           view,
		Busy:           view.Busy(),
		RefreshSeconds: secs,
	})
}

// SelectPath is the row activation link for a device id.
func SelectPath(id string) string {
	return "/select/" + url.PathEscape(id)
}
