package app

import (
	"fmt"
	"html/template"
	"io/fs"
	"maps"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/gin-gonic/gin/render"
)

const (
	templateRoot = "templates"
	layoutGlob   = "templates/layouts/*.html"
	partialGlob  = "templates/partials/*.html"
)

// pageRenderer renders the pages under templates/. Every page is parsed on
// top of its own clone of the layouts and partials, so pages may redefine
// the same blocks. Names are relative to templates/, e.g. "catalog/list.html".
//
// With reload set the tree is parsed again for each render so template edits
// show up without a restart.
type pageRenderer struct {
	fsys   fs.FS
	funcs  template.FuncMap
	reload bool
	pages  map[string]*template.Template
}

var _ render.HTMLRender = (*pageRenderer)(nil)

// newPageRenderer parses the tree up front unless reload is set. extra
// functions are added to the defaults and win on a name clash.
func newPageRenderer(fsys fs.FS, reload bool, extra template.FuncMap) (*pageRenderer, error) {
	funcs := template.FuncMap{
		"add":        func(a, b int) int { return a + b },
		"sub":        func(a, b int) int { return a - b },
		"pageWindow": pageWindow,
		"withQuery":  withQuery,
	}
	maps.Copy(funcs, extra)

	r := &pageRenderer{fsys: fsys, funcs: funcs, reload: reload}
	if !reload {
		pages, err := r.parse()
		if err != nil {
			return nil, fmt.Errorf("parse templates: %w", err)
		}
		r.pages = pages
	}
	return r, nil
}

func (r *pageRenderer) Instance(name string, data any) render.Render {
	pages := r.pages
	if r.reload {
		var err error
		if pages, err = r.parse(); err != nil {
			return failedRender{err}
		}
	}
	t, ok := pages[name]
	if !ok {
		return failedRender{fmt.Errorf("template %q not found", name)}
	}
	return render.HTML{Template: t, Name: name, Data: data}
}

func (r *pageRenderer) parse() (map[string]*template.Template, error) {
	shared, err := r.sharedFiles()
	if err != nil {
		return nil, err
	}
	base := template.New("").Funcs(r.funcs)
	for _, f := range shared {
		if err := parseFile(base, r.fsys, f, f); err != nil {
			return nil, err
		}
	}

	pages := make(map[string]*template.Template)
	err = fs.WalkDir(r.fsys, templateRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := strings.TrimPrefix(p, templateRoot+"/")
		if d.IsDir() || path.Ext(p) != ".html" || isShared(name) {
			return nil
		}
		t, err := base.Clone()
		if err != nil {
			return fmt.Errorf("clone base for %s: %w", p, err)
		}
		if err := parseFile(t, r.fsys, p, name); err != nil {
			return err
		}
		pages[name] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pages, nil
}

func (r *pageRenderer) sharedFiles() ([]string, error) {
	var files []string
	for _, pattern := range []string{layoutGlob, partialGlob} {
		matches, err := fs.Glob(r.fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		files = append(files, matches...)
	}
	return files, nil
}

func isShared(name string) bool {
	return strings.HasPrefix(name, "layouts/") || strings.HasPrefix(name, "partials/")
}

func parseFile(t *template.Template, fsys fs.FS, file, name string) error {
	content, err := fs.ReadFile(fsys, file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	if _, err := t.New(name).Parse(string(content)); err != nil {
		return fmt.Errorf("parse %s: %w", file, err)
	}
	return nil
}

// failedRender reports a template that could not be produced. gin turns the
// returned error into a panic, which Recovery answers.
type failedRender struct{ err error }

func (f failedRender) Render(w http.ResponseWriter) error {
	f.WriteContentType(w)
	return f.err
}

func (failedRender) WriteContentType(w http.ResponseWriter) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
}

// pageWindow returns at most span page numbers centered on current, clamped
// to 1..total.
func pageWindow(current, total, span int) []int {
	if total < 1 || span < 1 {
		return nil
	}
	current = min(max(current, 1), total)
	start := max(current-span/2, 1)
	end := min(start+span-1, total)
	start = max(end-span+1, 1)

	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}

// withQuery returns path with the encoded query, after setting each key/value
// pair in kv. An empty value removes the key.
func withQuery(path, query string, kv ...string) template.URL {
	values, err := url.ParseQuery(query)
	if err != nil {
		values = url.Values{}
	}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] == "" {
			values.Del(kv[i])
			continue
		}
		values.Set(kv[i], kv[i+1])
	}
	if enc := values.Encode(); enc != "" {
		return template.URL(path + "?" + enc)
	}
	return template.URL(path)
}
