package mailer

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"sync"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

type TemplateRender struct {
	fsys      fs.FS
	mu        sync.Mutex
	templates map[string]*template.Template
}

// NewTemplateRender renders from fsys, or from the embedded templates when fsys is nil.
func NewTemplateRender(fsys fs.FS) *TemplateRender {
	if fsys == nil {
		sub, _ := fs.Sub(embeddedTemplates, "templates")
		fsys = sub
	}
	return &TemplateRender{
		fsys:      fsys,
		templates: make(map[string]*template.Template),
	}
}

func (r *TemplateRender) LoadTemplate(name string) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tmpl, ok := r.templates[name]; ok {
		return tmpl, nil
	}

	tmpl, err := template.ParseFS(r.fsys, name+".html")
	if err != nil {
		return nil, err
	}

	r.templates[name] = tmpl
	return tmpl, nil
}

func (r *TemplateRender) Render(name string, data interface{}) (string, error) {
	tmpl, err := r.LoadTemplate(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
