package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/stockgrid/stockgrid/internal/shared"
	"github.com/stockgrid/stockgrid/web"
)

// Engine renders HTML templates. Every page is parsed into its own set
// together with the layouts and partials, so pages can redefine blocks.
type Engine struct {
	pages map[string]*template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	UserID      string
	Data        any
}

var printer = message.NewPrinter(language.English)

func funcMap() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"formatQty": func(v int) string {
			return printer.Sprintf("%d", v)
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"hasPrefix": strings.HasPrefix,
		"add":       func(a, b int) int { return a + b },
		"query": func(values ...any) template.URL {
			q := url.Values{}
			for i := 0; i+1 < len(values); i += 2 {
				key := fmt.Sprint(values[i])
				val := fmt.Sprint(values[i+1])
				if val != "" && val != "0" {
					q.Set(key, val)
				}
			}
			return template.URL(q.Encode())
		},
	}
}

// NewEngine parses the embedded templates.
func NewEngine() (*Engine, error) {
	return newEngine(web.Templates)
}

func newEngine(fsys fs.FS) (*Engine, error) {
	base, err := template.New("root").Funcs(funcMap()).ParseFS(fsys, "templates/layouts/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template)
	err = fs.WalkDir(fsys, "templates/pages", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Ext(p) != ".html" {
			return err
		}
		set, err := base.Clone()
		if err != nil {
			return err
		}
		if _, err := set.ParseFS(fsys, p); err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		pages[strings.TrimPrefix(p, "templates/")] = set
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Engine{pages: pages}, nil
}

// Render executes the named page inside the base layout with status 200.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	return e.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus executes the named page inside the base layout. Output is
// buffered so a failing template never produces a half-written page.
func (e *Engine) RenderStatus(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	set, ok := e.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	var buf bytes.Buffer
	if err := set.ExecuteTemplate(&buf, "base", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Has reports whether a page template exists.
func (e *Engine) Has(name string) bool {
	_, ok := e.pages[name]
	return ok
}
