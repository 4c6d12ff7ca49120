package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"
	"gorm.io/gorm"

	"github.com/simp-lee/catalogadmin/internal/config"
	"github.com/simp-lee/catalogadmin/internal/domain"
	"github.com/simp-lee/catalogadmin/internal/middleware"
	"github.com/simp-lee/catalogadmin/internal/module/catalog"
	"github.com/simp-lee/catalogadmin/internal/pkg"
	"github.com/simp-lee/catalogadmin/internal/resource"
	"github.com/simp-lee/catalogadmin/web"
)

// App is the catalog admin server and the resources it owns.
type App struct {
	engine *gin.Engine
	db     *gorm.DB
	logger *logger.Logger
	cfg    *config.Config
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// newHTTPServer builds the server. A positive timeout replaces the default
// read and write timeouts.
var newHTTPServer = func(addr string, handler http.Handler, timeout time.Duration) httpServer {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if timeout > 0 {
		srv.ReadTimeout = timeout
		srv.WriteTimeout = timeout
	}
	return srv
}

var notifyContext = signal.NotifyContext

// placeholderSecrets are sample values from shipped configs.
var placeholderSecrets = []string{"change-me-to-a-random-secret", "change-me-in-env"}

// New opens the database, builds the catalog modules and wires them into a
// gin engine. The tables are migrated in debug mode only.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if !slices.Contains([]string{gin.DebugMode, gin.ReleaseMode, gin.TestMode}, cfg.Server.Mode) {
		return nil, fmt.Errorf("invalid server.mode %q", cfg.Server.Mode)
	}

	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}
	a := &App{logger: log, cfg: cfg}
	if err := a.init(); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *App) init() error {
	cfg, log := a.cfg, a.logger
	if cfg.Server.Mode == gin.DebugMode && cfg.Server.Host == "0.0.0.0" {
		log.Warn("insecure server config: debug mode on 0.0.0.0 may expose debug behavior and permissive CORS")
	}

	var err error
	if a.db, err = config.SetupDatabase(&cfg.Database, log.Logger); err != nil {
		return fmt.Errorf("setup database: %w", err)
	}
	if cfg.Server.Mode == gin.DebugMode {
		if err := Migrate(a.db); err != nil {
			return err
		}
		log.Info("auto migration completed")
	}

	secret, err := csrfSecret(cfg.Server, log.Logger)
	if err != nil {
		return err
	}
	webFS, err := webFiles(cfg.Server.Mode)
	if err != nil {
		return err
	}
	corsOpts, err := middleware.CORSOptions(cfg.Server.Mode, cfg.Server.CORS)
	if err != nil {
		return fmt.Errorf("setup cors: %w", err)
	}

	gin.SetMode(cfg.Server.Mode)
	a.engine = gin.New()
	a.engine.Use(
		middleware.Recovery(log.Logger),
		middleware.RequestID(false),
		middleware.Logger(log.Logger),
		middleware.CORS(corsOpts...),
	)

	links := resource.Links()
	renderer, err := newPageRenderer(webFS, cfg.Server.Mode == gin.DebugMode, template.FuncMap{
		"navLinks": func() []resource.Link { return links },
	})
	if err != nil {
		return fmt.Errorf("setup template renderer: %w", err)
	}
	a.engine.HTMLRender = renderer

	settings := catalog.Settings{
		Limits:        pkg.PageLimits{DefaultPageSize: cfg.List.DefaultPageSize, MaxPageSize: cfg.List.MaxPageSize},
		ExportMaxRows: cfg.List.ExportMaxRows,
	}
	var modules []Module
	for _, m := range catalog.Modules(a.db, settings) {
		modules = append(modules, m)
	}
	err = RegisterRoutes(a.engine, &RouteDeps{
		Modules:     modules,
		Links:       links,
		DB:          a.db,
		Web:         webFS,
		CacheStatic: cfg.Server.Mode != gin.DebugMode,
		CSRFSecret:  secret,
	})
	if err != nil {
		return fmt.Errorf("register routes: %w", err)
	}
	return nil
}

// Migrate creates or updates the catalog tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.Category{}, &domain.Brand{}, &domain.Product{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// csrfSecret returns the configured secret. Outside release mode a missing
// or sample secret is replaced by a random one that changes on restart.
func csrfSecret(server config.ServerConfig, log *slog.Logger) (string, error) {
	secret := strings.TrimSpace(server.CSRFSecret)
	placeholder := secret == "" || slices.Contains(placeholderSecrets, strings.ToLower(secret))

	if server.Mode != gin.ReleaseMode {
		if !placeholder {
			return secret, nil
		}
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return "", fmt.Errorf("generate csrf secret: %w", err)
		}
		log.Warn("no csrf_secret configured, using random secret in non-release mode (will change on restart)")
		return hex.EncodeToString(b), nil
	}

	switch {
	case placeholder:
		return "", errors.New("csrf_secret must be a non-placeholder value in release mode")
	case len(secret) < 32:
		return "", errors.New("csrf_secret must be at least 32 characters in release mode")
	case config.CountSecretClasses(secret) < 3:
		return "", errors.New("csrf_secret must include at least 3 character classes in release mode")
	}
	return secret, nil
}

// webFiles returns the templates and static assets. Debug mode reads them
// from the source tree so edits show without a rebuild.
func webFiles(mode string) (fs.FS, error) {
	if mode != gin.DebugMode {
		return web.EmbeddedFS, nil
	}
	var candidates []string
	if _, file, _, ok := runtime.Caller(0); ok {
		candidates = append(candidates, filepath.Join(filepath.Dir(file), "..", "..", "web"))
	}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "web"))
	}
	for _, dir := range candidates {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			return os.DirFS(filepath.Clean(dir)), nil
		}
	}
	return nil, errors.New("debug web directory not found")
}

// Run serves HTTP until SIGINT or SIGTERM, then shuts down within five
// seconds and releases the database and logger.
func (a *App) Run() error {
	if a == nil || a.engine == nil || a.cfg == nil {
		return errors.New("app is not initialized")
	}

	var timeout time.Duration
	if t := strings.TrimSpace(a.cfg.Server.Timeout); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil {
			return fmt.Errorf("invalid server.timeout %q: %w", a.cfg.Server.Timeout, err)
		}
		timeout = d
	}
	addr := net.JoinHostPort(a.cfg.Server.Host, strconv.Itoa(a.cfg.Server.Port))
	srv := newHTTPServer(addr, a.engine, timeout)

	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server started", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("server shutdown error", slog.Any("error", err))
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server error: %w", err)
		}
	}

	a.logger.Info("server stopped")
	a.close()
	return runErr
}

// close releases the database and then the logger.
func (a *App) close() {
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.logger.Error("database close error", slog.Any("error", err))
			} else {
				a.logger.Info("database connection closed")
			}
		}
	}
	if err := a.logger.Close(); err != nil {
		slog.Error("logger close error", slog.Any("error", err))
	}
}
