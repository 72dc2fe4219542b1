// Package web holds the embedded single-page harvester UI.
package web

import (
	"embed"
	"html/template"
)

// IndexTemplate is the template name of the harvester page
const IndexTemplate = "index.html"

//go:embed templates/*.html
var templates embed.FS

// Templates parses the embedded page templates
func Templates() (*template.Template, error) {
	return template.ParseFS(templates, "templates/*.html")
}
