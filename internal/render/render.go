// Package render turns templates into HTML bytes.
//
// TEMPLATE COMPOSITION:
// Every page is parsed together with base.html and the partials/ directory:
//
//	base.html           {{define "base"}} ... {{template "content" .}} ... {{end}}
//	partials/*.html     {{define "feed"}}, {{define "post_card"}}, ...
//	index.html          {{define "content"}} ... {{end}}
//
// Pages are executed through "base". Partials can also be rendered on their
// own with Fragment; the global feed is rendered that way so its bytes can
// be cached independently of who is looking at the page.
//
// Rendering goes to a buffer first, so a template error never leaves a
// half-written response.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"time"
)

// Data is the context handed to a page template.
type Data map[string]any

// Renderer holds every parsed page. It is safe for concurrent use.
type Renderer struct {
	pages    map[string]*template.Template
	partials *template.Template
	now      func() time.Time
}

// New parses base.html, partials/*.html and every other *.html file at the
// root of fsys.
func New(fsys fs.FS) (*Renderer, error) {
	partialFiles, err := fs.Glob(fsys, "partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("render: listing partials: %w", err)
	}

	partials := template.New("partials").Funcs(funcs())
	if len(partialFiles) > 0 {
		if partials, err = partials.ParseFS(fsys, partialFiles...); err != nil {
			return nil, fmt.Errorf("render: parsing partials: %w", err)
		}
	}

	pageFiles, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return nil, fmt.Errorf("render: listing pages: %w", err)
	}

	r := &Renderer{
		pages:    make(map[string]*template.Template),
		partials: partials,
		now:      time.Now,
	}
	for _, file := range pageFiles {
		if file == "base.html" {
			continue
		}
		files := append([]string{"base.html"}, partialFiles...)
		files = append(files, file)

		t, err := template.New(file).Funcs(funcs()).ParseFS(fsys, files...)
		if err != nil {
			return nil, fmt.Errorf("render: parsing %s: %w", file, err)
		}
		r.pages[file] = t
	}

	return r, nil
}

// Render executes page name (e.g. "index.html") inside the base layout.
// "Year" is filled in when data does not carry it.
func (r *Renderer) Render(name string, data Data) ([]byte, error) {
	t, ok := r.pages[name]
	if !ok {
		return nil, fmt.Errorf("render: no page %q", name)
	}
	if data == nil {
		data = Data{}
	}
	if _, ok := data["Year"]; !ok {
		data["Year"] = r.now().Year()
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		return nil, fmt.Errorf("render: executing %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Fragment executes a single partial, e.g. Fragment("feed", page).
func (r *Renderer) Fragment(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.partials.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render: executing fragment %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Has reports whether page name exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"formatDate": formatDate,
		"linebreaks": linebreaks,
		"mediaURL":   mediaURL,
	}
}

func formatDate(t time.Time) string {
	return t.Format("2 January 2006")
}

// linebreaks escapes text and turns newlines into <br>.
func linebreaks(text string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(text, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

func mediaURL(name string) string {
	return path.Join("/media", name)
}
