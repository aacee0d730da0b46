package server

import (
	"html/template"
	"io"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/mahesh-hegde/visualize/app/config"
)

// TemplateRenderer executes layout.html with the page name and its data.
type TemplateRenderer struct {
	tmpl *template.Template
	conf *config.VisualizeConfig
}

func (t *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	wrappedData := map[string]any{
		"Page":     name,
		"Data":     data,
		"Instance": t.conf.InstanceName,
	}
	if err := t.tmpl.ExecuteTemplate(w, "layout.html", wrappedData); err != nil {
		slog.Error("error while rendering template", "page", name, "err", err)
		return err
	}
	return nil
}

func NewTemplateRenderer(conf *config.VisualizeConfig, assets *HashFS) *TemplateRenderer {
	tmpl, err := parseTemplates(template.FuncMap{
		"asset": func(path string) string {
			return "/static/" + assets.FormatWithHash(path)
		},
	})
	return &TemplateRenderer{tmpl: template.Must(tmpl, err), conf: conf}
}
