package handlers

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"time"

	"econavix/internal/present"
)

// PageFiles are the templates rendered inside layout.html
var PageFiles = []string{"index.html", "history.html"}

// TemplateFuncs are available to every page and partial
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Local().Format("2006-01-02 15:04")
		},
		"add": func(a, b int) int {
			return a + b
		},
		"formatDistance": present.FormatDistance,
		"formatDuration": present.FormatDuration,
		"formatKg": func(kg float64) string {
			return fmt.Sprintf("%.2f kg", kg)
		},
		// json.Marshal escapes <, > and &, so the output is safe inside <script>
		"toJSON": func(v any) template.JS {
			b, err := json.Marshal(v)
			if err != nil {
				return "null"
			}
			return template.JS(b)
		},
	}
}

// LoadTemplates loads layout.html, the partials and the page sources from fsys
func LoadTemplates(fsys fs.FS) (*TemplateSet, error) {
	funcs := TemplateFuncs()
	base := template.New("").Funcs(funcs)

	layoutContent, err := fs.ReadFile(fsys, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to read layout: %w", err)
	}
	if _, err := base.New("layout.html").Parse(string(layoutContent)); err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	partialFiles, err := fs.Glob(fsys, "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to glob partials: %w", err)
	}
	for _, file := range partialFiles {
		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read partial %s: %w", file, err)
		}
		if _, err := base.New(path.Base(file)).Parse(string(content)); err != nil {
			return nil, fmt.Errorf("failed to parse partial %s: %w", file, err)
		}
	}

	// Pages are kept as source and parsed into a clone per request, since
	// each one defines its own "content" block.
	pages := make(map[string]string, len(PageFiles))
	for _, name := range PageFiles {
		content, err := fs.ReadFile(fsys, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %s: %w", name, err)
		}
		pages[name] = string(content)
	}

	return &TemplateSet{Base: base, Pages: pages, Funcs: funcs}, nil
}
