// Package web serves the embedded landing, live display and dashboard views.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/streamhub/internal/logger"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

//go:embed all:static
var staticFS embed.FS

// Page names
const (
	PageLanding   = "landing"
	PageLive      = "live"
	PageDashboard = "dashboard"
)

// Views renders the embedded pages.
type Views struct {
	pages map[string]*template.Template
}

// NewViews parses every page against the shared base layout.
func NewViews() (*Views, error) {
	v := &Views{pages: make(map[string]*template.Template)}
	for _, name := range []string{PageLanding, PageLive, PageDashboard} {
		tpl, err := template.ParseFS(templateFS, "templates/base.gohtml", "templates/"+name+".gohtml")
		if err != nil {
			return nil, err
		}
		v.pages[name] = tpl
	}
	return v, nil
}

func (v *Views) page(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v.render(c, name)
	}
}

func (v *Views) render(c *gin.Context, name string) {
	var buf bytes.Buffer
	data := map[string]any{"Page": name, "Path": c.Request.URL.Path}
	if err := v.pages[name].ExecuteTemplate(&buf, "base", data); err != nil {
		logger.Log.Error().Err(err).Str("page", name).Msg("Failed to render page")
		c.String(http.StatusInternalServerError, "template error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// Register mounts the pages and static assets. Unknown non-API paths render
// the landing page; unknown API paths get a JSON 404.
func (v *Views) Register(r *gin.Engine) {
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	r.StaticFS("/static", http.FS(static))

	r.GET("/", v.page(PageLanding))
	r.GET("/live", v.page(PageLive))
	r.GET("/dashboard", v.page(PageDashboard))

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Unknown API route"})
			return
		}
		v.render(c, PageLanding)
	})
}
