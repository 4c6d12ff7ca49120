package middleware

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/catalogadmin/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// corsRequest sends method /brands with origin through CORS(opts...).
func corsRequest(method, origin string, opts ...CORSOption) *httptest.ResponseRecorder {
	r := gin.New()
	r.Use(CORS(opts...))
	r.GET("/brands", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.POST("/brands", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(method, "/brands", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		origin      string
		opts        []CORSOption
		wantCode    int
		wantOrigin  string
		wantMaxAge  string
		wantCreds   bool
		wantHeaders bool
	}{
		{
			name: "default allows any origin", method: http.MethodGet, origin: "http://admin.example",
			wantCode: http.StatusOK, wantOrigin: "*", wantMaxAge: "86400", wantHeaders: true,
		},
		{
			name: "preflight ends with 204", method: http.MethodOptions, origin: "http://admin.example",
			wantCode: http.StatusNoContent, wantOrigin: "*", wantMaxAge: "86400", wantHeaders: true,
		},
		{
			name: "same origin request untouched", method: http.MethodGet,
			wantCode: http.StatusOK,
		},
		{
			name: "listed origin echoed", method: http.MethodPost, origin: "https://admin.example",
			opts:     []CORSOption{WithOrigins("https://admin.example"), WithMaxAge(time.Hour)},
			wantCode: http.StatusOK, wantOrigin: "https://admin.example", wantMaxAge: "3600", wantHeaders: true,
		},
		{
			name: "unlisted origin gets no headers", method: http.MethodGet, origin: "https://evil.example",
			opts:     []CORSOption{WithOrigins("https://admin.example")},
			wantCode: http.StatusOK,
		},
		{
			name: "no origins denies all", method: http.MethodGet, origin: "https://admin.example",
			opts:     []CORSOption{WithOrigins()},
			wantCode: http.StatusOK,
		},
		{
			name: "credentials echo the origin", method: http.MethodGet, origin: "https://admin.example",
			opts:     []CORSOption{WithCredentials(true)},
			wantCode: http.StatusOK, wantOrigin: "https://admin.example", wantMaxAge: "86400", wantCreds: true, wantHeaders: true,
		},
		{
			name: "zero max age omitted", method: http.MethodGet, origin: "https://admin.example",
			opts:     []CORSOption{WithMaxAge(0)},
			wantCode: http.StatusOK, wantOrigin: "*", wantHeaders: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := corsRequest(tt.method, tt.origin, tt.opts...)

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := w.Header().Get("Access-Control-Max-Age"); got != tt.wantMaxAge {
				t.Errorf("Max-Age = %q, want %q", got, tt.wantMaxAge)
			}
			if got := w.Header().Get("Access-Control-Allow-Credentials") == "true"; got != tt.wantCreds {
				t.Errorf("Allow-Credentials = %v, want %v", got, tt.wantCreds)
			}
			if got := w.Header().Get("Access-Control-Allow-Headers") != ""; got != tt.wantHeaders {
				t.Errorf("Allow-Headers set = %v, want %v", got, tt.wantHeaders)
			}
			if tt.origin != "" && w.Header().Get("Vary") != "Origin" {
				t.Errorf("Vary = %q, want Origin", w.Header().Get("Vary"))
			}
		})
	}
}

func TestCORS_DefaultHeadersCoverHTMX(t *testing.T) {
	cfg := DefaultCORS()
	for _, h := range []string{HXRequest, HXTarget, HXTrigger, "X-CSRF-Token"} {
		if !slices.Contains(cfg.AllowHeaders, h) {
			t.Errorf("default AllowHeaders missing %s", h)
		}
	}
}

func TestCORSOptions(t *testing.T) {
	tests := []struct {
		name        string
		mode        string
		section     config.CORSConfig
		wantOrigins []string
		wantMethods []string
		wantCreds   bool
		wantMaxAge  time.Duration
		wantErr     bool
	}{
		{
			name:        "debug keeps wildcard",
			mode:        gin.DebugMode,
			wantOrigins: []string{"*"},
			wantMethods: DefaultCORS().AllowMethods,
			wantMaxAge:  24 * time.Hour,
		},
		{
			name:        "release denies without origins",
			mode:        gin.ReleaseMode,
			wantOrigins: []string{},
			wantMethods: DefaultCORS().AllowMethods,
			wantMaxAge:  24 * time.Hour,
		},
		{
			name: "configured section",
			mode: gin.ReleaseMode,
			section: config.CORSConfig{
				AllowOrigins:     []string{"https://admin.example"},
				AllowMethods:     []string{"GET", "POST"},
				AllowCredentials: true,
				MaxAge:           "12h",
			},
			wantOrigins: []string{"https://admin.example"},
			wantMethods: []string{"GET", "POST"},
			wantCreds:   true,
			wantMaxAge:  12 * time.Hour,
		},
		{
			name:    "bad max age",
			mode:    gin.DebugMode,
			section: config.CORSConfig{MaxAge: "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := CORSOptions(tt.mode, tt.section)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("CORSOptions: %v", err)
			}

			cfg := DefaultCORS()
			for _, opt := range opts {
				opt(&cfg)
			}
			if !slices.Equal(cfg.AllowOrigins, tt.wantOrigins) {
				t.Errorf("AllowOrigins = %v, want %v", cfg.AllowOrigins, tt.wantOrigins)
			}
			if !slices.Equal(cfg.AllowMethods, tt.wantMethods) {
				t.Errorf("AllowMethods = %v, want %v", cfg.AllowMethods, tt.wantMethods)
			}
			if cfg.AllowCredentials != tt.wantCreds {
				t.Errorf("AllowCredentials = %v, want %v", cfg.AllowCredentials, tt.wantCreds)
			}
			if cfg.MaxAge != tt.wantMaxAge {
				t.Errorf("MaxAge = %v, want %v", cfg.MaxAge, tt.wantMaxAge)
			}
		})
	}
}
