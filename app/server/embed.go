package server

import (
	"embed"
	"html/template"
	"strings"

	"github.com/mahesh-hegde/visualize/app/common"
)

//go:embed template/*.html
var templateFs embed.FS

//go:embed static
var staticFs embed.FS

func parseTemplates(funcs template.FuncMap) (*template.Template, error) {
	funcMap := template.FuncMap{
		"join":  strings.Join,
		"upper": strings.ToUpper,
		"localeName": func(l common.Locale) string {
			return strings.ToUpper(string(l))
		},
	}
	for k, v := range funcs {
		funcMap[k] = v
	}
	return template.New("").Funcs(funcMap).ParseFS(templateFs, "template/*.html")
}
