package web

import (
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var files embed.FS

var funcs = template.FuncMap{
	"km": func(v float64) string {
		return fmt.Sprintf("%.2f km", v)
	},
	// str dereferences optional text; nil renders as "".
	"str": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}

// Templates parses every page. Pages are looked up by file name.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(files, "templates/*.html")
}
