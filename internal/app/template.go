package app

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/gin-gonic/gin/render"
)

// TemplateRenderer renders page templates composed of a shared layout set
// (templates/layouts and templates/partials) and one page file each.
//
// In debug mode the templates are parsed again for every request so edits
// under web/ show up without a restart. In release mode they are parsed once.
type TemplateRenderer struct {
	templates map[string]*template.Template // page name -> template set, release mode only
	fs        fs.FS
	funcMap   template.FuncMap
	debug     bool
}

var _ render.HTMLRender = (*TemplateRenderer)(nil)

// NewTemplateRenderer creates a TemplateRenderer reading templates/ from fsys.
// Page templates invoke {{ template "base" . }} and override its blocks.
func NewTemplateRenderer(fsys fs.FS, debug bool) (*TemplateRenderer, error) {
	r := &TemplateRenderer{
		fs:      fsys,
		funcMap: templateFuncMap(),
		debug:   debug,
	}

	if !debug {
		templates, err := r.parseAllTemplates()
		if err != nil {
			return nil, fmt.Errorf("parse templates: %w", err)
		}
		r.templates = templates
	}

	return r, nil
}

// Instance returns the render for the page template name, a path relative
// to templates/ such as "table/list.html".
func (r *TemplateRenderer) Instance(name string, data any) render.Render {
	templates := r.templates
	if r.debug {
		var err error
		templates, err = r.parseAllTemplates()
		if err != nil {
			return &HTMLInstance{Name: name, err: err}
		}
	}

	return &HTMLInstance{
		Template: templates[name],
		Name:     name,
		Data:     data,
	}
}

// parseAllTemplates parses layouts and partials into a base set, then clones
// that set once per page template.
func (r *TemplateRenderer) parseAllTemplates() (map[string]*template.Template, error) {
	var baseFiles []string
	for _, pattern := range []string{"templates/layouts/*.html", "templates/partials/*.html"} {
		files, err := fs.Glob(r.fs, pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		baseFiles = append(baseFiles, files...)
	}

	base := template.New("").Funcs(r.funcMap)
	for _, f := range baseFiles {
		if err := r.parseInto(base, f, f); err != nil {
			return nil, err
		}
	}

	pageFiles, err := r.discoverPageTemplates()
	if err != nil {
		return nil, fmt.Errorf("discover pages: %w", err)
	}

	templates := make(map[string]*template.Template, len(pageFiles))
	for _, pf := range pageFiles {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone base for %s: %w", pf, err)
		}
		name := strings.TrimPrefix(pf, "templates/")
		if err := r.parseInto(clone, name, pf); err != nil {
			return nil, err
		}
		templates[name] = clone
	}

	return templates, nil
}

func (r *TemplateRenderer) parseInto(set *template.Template, name, path string) error {
	content, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if _, err := set.New(name).Parse(string(content)); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// discoverPageTemplates lists every .html file under templates/ outside
// layouts/ and partials/.
func (r *TemplateRenderer) discoverPageTemplates() ([]string, error) {
	var pages []string
	err := fs.WalkDir(r.fs, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}
		rel := strings.TrimPrefix(path, "templates/")
		if strings.HasPrefix(rel, "layouts/") || strings.HasPrefix(rel, "partials/") {
			return nil
		}
		pages = append(pages, path)
		return nil
	})
	return pages, err
}

func templateFuncMap() template.FuncMap {
	return template.FuncMap{
		// json embeds v in a script or attribute context without re-escaping.
		"json": func(v any) template.JS {
			b, err := json.Marshal(v)
			if err != nil {
				return template.JS("null")
			}
			return template.JS(b)
		},

		// comma groups digits: 12345 -> "12,345".
		"comma": func(n int) string {
			return humanize.Comma(int64(n))
		},

		// plural picks the word form for n: plural 1 "record" "" -> "record".
		"plural": func(n int, singular, plural string) string {
			return english.PluralWord(n, singular, plural)
		},

		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },

		// sortIcon maps a column's sort direction to an arrow.
		"sortIcon": func(dir string) string {
			switch dir {
			case "asc":
				return "▲"
			case "desc":
				return "▼"
			default:
				return "↕"
			}
		},
	}
}

// HTMLInstance executes one page template. It implements render.Render.
type HTMLInstance struct {
	Template *template.Template
	Name     string
	Data     any
	err      error // parse failure in debug mode
}

const htmlContentType = "text/html; charset=utf-8"

// Render writes the executed template to w.
func (h *HTMLInstance) Render(w http.ResponseWriter) error {
	h.WriteContentType(w)
	if h.err != nil {
		return h.err
	}
	if h.Template == nil {
		return fmt.Errorf("template %q not found", h.Name)
	}
	return h.Template.ExecuteTemplate(w, h.Name, h.Data)
}

// WriteContentType sets an HTML Content-Type unless one is already present.
func (h *HTMLInstance) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	if val := header["Content-Type"]; len(val) == 0 {
		header["Content-Type"] = []string{htmlContentType}
	}
}
