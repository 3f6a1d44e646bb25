// Package web holds the HTML templates served by the guestbook.
package web

import (
	"embed"
	"html/template"
	"os"
)

//go:embed templates/*.html
var files embed.FS

// Templates parses the page templates. An empty dir uses the copies built
// into the binary; otherwise templates are read from dir, which is handy
// when editing them.
func Templates(dir string) (*template.Template, error) {
	if dir == "" {
		return template.ParseFS(files, "templates/*.html")
	}
	return template.ParseFS(os.DirFS(dir), "*.html")
}
