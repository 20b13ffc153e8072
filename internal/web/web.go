// Package web holds the server-rendered pages.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var files embed.FS

// IndexPage is the data rendered by index.html.
type IndexPage struct {
	Title string
}

// Templates parses every embedded template.
func Templates() *template.Template {
	return template.Must(template.ParseFS(files, "templates/*.html"))
}
