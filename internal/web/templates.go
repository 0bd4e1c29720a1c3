package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

type TemplateRegistry struct {
	cache map[string]*template.Template
}

func NewTemplateRegistry() (*TemplateRegistry, error) {
	funcMap := templateFuncMap()

	layout, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, err
	}

	tr := &TemplateRegistry{
		cache: make(map[string]*template.Template),
	}

	// Owner pages share the layout.
	for _, page := range []string{
		"templates/dashboard.html",
		"templates/signin.html",
	} {
		t, err := template.Must(layout.Clone()).ParseFS(templateFS, page)
		if err != nil {
			return nil, err
		}
		tr.cache[page] = t
	}

	// Visitor pages are standalone; they carry the profile's theme instead.
	for _, page := range []string{
		"templates/profile.html",
		"templates/notfound.html",
	} {
		t, err := template.New(page[len("templates/"):]).Funcs(funcMap).ParseFS(templateFS, page)
		if err != nil {
			return nil, err
		}
		tr.cache[page] = t
	}

	return tr, nil
}

// Render executes the named page into a buffer first, so a template error
// never leaves a half-written response behind.
func (tr *TemplateRegistry) Render(w http.ResponseWriter, status int, name string, data any) {
	t, ok := tr.cache[name]
	if !ok {
		http.Error(w, "template not found: "+name, http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
