package view

import (
	"embed"
	"html/template"
)

const IndexTemplate = "index.html"

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates. html/template escapes every
// value, so plan text and names are rendered as plain text.
func Templates() (*template.Template, error) {
	return template.New("").ParseFS(templateFS, "templates/*.html")
}

// IndexData is the data rendered into index.html.
type IndexData struct {
	Name        string
	WorkoutPlan string
	IsError     bool
}
