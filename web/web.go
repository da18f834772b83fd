// Package web embeds the HTML templates and static assets served by bazaar.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	html "github.com/gofiber/template/html/v2"
	"github.com/shopspring/decimal"
)

//go:embed templates static
var files embed.FS

func sub(dir string) fs.FS {
	f, err := fs.Sub(files, dir)
	if err != nil {
		panic(fmt.Sprintf("web: %s not embedded: %v", dir, err))
	}
	return f
}

// StaticFS serves the files under static/.
func StaticFS() http.FileSystem { return http.FS(sub("static")) }

// NewEngine returns the template engine with the helpers templates rely on.
func NewEngine() *html.Engine {
	engine := html.NewFileSystem(http.FS(sub("templates")), ".html")
	engine.AddFunc("money", func(d decimal.Decimal) string { return d.StringFixed(2) })
	engine.AddFunc("stars", func(avg float64) string {
		n := min(max(int(avg+0.5), 0), 5)
		return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
	})
	engine.AddFunc("has", func(xs []string, x string) bool {
		for _, s := range xs {
			if s == x {
				return true
			}
		}
		return false
	})
	return engine
}
