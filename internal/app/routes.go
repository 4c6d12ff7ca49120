package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/simp-lee/catalogadmin/internal/middleware"
	"github.com/simp-lee/catalogadmin/internal/resource"
)

// Module registers one resource's JSON API and its list pages.
type Module interface {
	RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup)
}

// RouteDeps holds what RegisterRoutes wires together.
type RouteDeps struct {
	Modules []Module
	// Links are the list screens shown on the home page.
	Links []resource.Link
	DB    *gorm.DB
	// Web holds templates/ and static/.
	Web fs.FS
	// CacheStatic lets browsers cache static assets for a day.
	CacheStatic bool
	CSRFSecret  string
}

// RegisterRoutes mounts the health check, static assets, the home page and
// every module. API routes live under /api/v1 without CSRF; pages require it.
func RegisterRoutes(r *gin.Engine, deps *RouteDeps) error {
	switch {
	case r == nil:
		return errors.New("router is nil")
	case deps == nil:
		return errors.New("route dependencies are nil")
	case len(deps.Modules) == 0:
		return errors.New("at least one module is required")
	case strings.TrimSpace(deps.CSRFSecret) == "":
		return errors.New("csrf secret is required")
	case deps.Web == nil:
		return errors.New("web filesystem is required")
	}

	static, err := fs.Sub(deps.Web, "static")
	if err != nil {
		return fmt.Errorf("static assets: %w", err)
	}
	r.GET("/static/*filepath", staticHandler(static, deps.CacheStatic))
	r.GET("/health", healthHandler(deps.DB))

	csrf := middleware.CSRF(deps.CSRFSecret)
	r.GET("/", csrf, homeHandler(deps.Links))

	api := r.Group("/api/v1")
	pages := r.Group("/", csrf)
	for i, m := range deps.Modules {
		if m == nil {
			return fmt.Errorf("module at index %d is nil", i)
		}
		m.RegisterRoutes(api, pages)
	}

	r.NoRoute(func(c *gin.Context) {
		middleware.RespondError(c, http.StatusNotFound, "not found")
	})
	return nil
}

// homeHandler renders the dashboard index with one card per list screen.
func homeHandler(links []resource.Link) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "home/index.html", gin.H{
			"Title":     "Catalog",
			"Links":     links,
			"CSRFToken": middleware.CSRFTokenFrom(c),
		})
	}
}

// healthHandler reports 503 when the database does not answer a ping
// within a second.
func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, database, code := "ok", "ok", http.StatusOK
		if err := pingDB(c.Request.Context(), db); err != nil {
			status, database, code = "degraded", "error", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":     status,
			"components": gin.H{"database": database},
		})
	}
}

func pingDB(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("no database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func staticHandler(fsys fs.FS, cache bool) gin.HandlerFunc {
	files := http.StripPrefix("/static", http.FileServer(http.FS(fsys)))
	return func(c *gin.Context) {
		if cache {
			c.Header("Cache-Control", "public, max-age=86400")
		}
		files.ServeHTTP(c.Writer, c.Request)
	}
}
