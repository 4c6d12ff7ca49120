package middleware

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/ginx"

	"github.com/simp-lee/catalogadmin/internal/config"
)

// CORSOption adjusts a CORS policy.
type CORSOption func(*ginx.CORSConfig)

// listHeaders are the request headers the list pages and the JSON API send
// cross-origin: htmx's own headers plus CSRF and request id.
var listHeaders = []string{
	"Origin", "Content-Type", "Accept", "X-Requested-With",
	"X-CSRF-Token", "X-Request-ID", HXRequest, "HX-Current-URL", HXTarget, HXTrigger,
}

// DefaultCORS is the policy before any option applies: every origin, the
// methods the catalog routes use, and a one day preflight cache.
func DefaultCORS() ginx.CORSConfig {
	return ginx.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: slices.Clone(listHeaders),
		MaxAge:       24 * time.Hour,
	}
}

func WithOrigins(origins ...string) CORSOption {
	return func(c *ginx.CORSConfig) { c.AllowOrigins = origins }
}

func WithMethods(methods ...string) CORSOption {
	return func(c *ginx.CORSConfig) { c.AllowMethods = methods }
}

func WithHeaders(headers ...string) CORSOption {
	return func(c *ginx.CORSConfig) { c.AllowHeaders = headers }
}

func WithCredentials(allow bool) CORSOption {
	return func(c *ginx.CORSConfig) { c.AllowCredentials = allow }
}

func WithMaxAge(d time.Duration) CORSOption {
	return func(c *ginx.CORSConfig) { c.MaxAge = d }
}

// CORSOptions resolves the server's cors section. Empty method and header
// lists keep the defaults. With no origins configured, debug mode allows any
// origin and release mode none.
func CORSOptions(mode string, section config.CORSConfig) ([]CORSOption, error) {
	var opts []CORSOption
	switch {
	case len(section.AllowOrigins) > 0:
		opts = append(opts, WithOrigins(section.AllowOrigins...))
	case mode == gin.ReleaseMode:
		opts = append(opts, WithOrigins())
	}
	if len(section.AllowMethods) > 0 {
		opts = append(opts, WithMethods(section.AllowMethods...))
	}
	if len(section.AllowHeaders) > 0 {
		opts = append(opts, WithHeaders(section.AllowHeaders...))
	}
	if section.AllowCredentials {
		opts = append(opts, WithCredentials(true))
	}
	if ma := strings.TrimSpace(section.MaxAge); ma != "" {
		d, err := time.ParseDuration(ma)
		if err != nil {
			return nil, fmt.Errorf("parse cors max_age %q: %w", section.MaxAge, err)
		}
		opts = append(opts, WithMaxAge(d))
	}
	return opts, nil
}

// CORS answers cross-origin requests under DefaultCORS adjusted by opts.
// Requests from an origin outside the policy get no CORS headers, and
// preflights end with 204.
func CORS(opts ...CORSOption) gin.HandlerFunc {
	cfg := DefaultCORS()
	for _, opt := range opts {
		opt(&cfg)
	}

	anyOrigin := slices.Contains(cfg.AllowOrigins, "*")
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")
	maxAge := strconv.Itoa(int(cfg.MaxAge / time.Second))

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}
		c.Writer.Header().Add("Vary", "Origin")

		switch {
		case anyOrigin && !cfg.AllowCredentials:
			c.Header("Access-Control-Allow-Origin", "*")
		case anyOrigin || slices.Contains(cfg.AllowOrigins, origin):
			// A credentialed response must name the origin.
			c.Header("Access-Control-Allow-Origin", origin)
		default:
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Methods", methods)
		c.Header("Access-Control-Allow-Headers", headers)
		if cfg.MaxAge > 0 {
			c.Header("Access-Control-Max-Age", maxAge)
		}
		if cfg.AllowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
