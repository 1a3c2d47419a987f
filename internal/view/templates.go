// Package view renders the embedded HTML templates.
package view

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/odyssey-erp/sales-dashboard/internal/shared"
	"github.com/odyssey-erp/sales-dashboard/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	// RefreshSeconds asks the layout to reload the page; zero disables it.
	RefreshSeconds int
	Data           any
}

// NewEngine parses the embedded templates.
func NewEngine() (*Engine, error) {
	funcMap := template.FuncMap{
		"flashClass": func(kind string) string {
			if strings.EqualFold(kind, shared.FlashError) {
				return "flash flash-error"
			}
			return "flash flash-info"
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData. Output is buffered so a
// template failure never leaves a half-written page.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}
