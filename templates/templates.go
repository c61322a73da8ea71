// Package templates embeds the HTML views rendered by the form handlers.
package templates

import (
	"embed"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

//go:embed *.html layouts/*.html
var FS embed.FS

// NewEngine returns an html engine over the embedded views.
func NewEngine() *html.Engine {
	return html.NewFileSystem(http.FS(FS), ".html")
}
