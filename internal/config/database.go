package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// sqlitePragmas are applied to every SQLite connection so that a bulk
// update holding the write lock makes readers wait instead of failing.
const sqlitePragmas = "_pragma=busy_timeout(5000)"

// Pool defaults for unset settings.
const (
	defaultMaxIdleConns    = 10
	defaultMaxOpenConns    = 100
	defaultConnMaxLifetime = time.Hour
)

// SetupDatabase opens the catalog database described by cfg and applies its
// pool settings. Statements are logged when logger has debug enabled.
func SetupDatabase(cfg *DatabaseConfig, logger *slog.Logger) (*gorm.DB, error) {
	if cfg == nil {
		return nil, errors.New("database config is nil")
	}
	if logger == nil {
		return nil, errors.New("logger is nil")
	}

	pool, err := resolvePool(cfg.Pool)
	if err != nil {
		return nil, err
	}
	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}

	mode := gormlogger.Warn
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		mode = gormlogger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(mode)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	pool.apply(sqlDB)

	attrs := []any{slog.String("driver", cfg.Driver), slog.Any("pool", pool)}
	if cfg.Driver == "sqlite" {
		attrs = append(attrs, slog.String("path", cfg.SQLite.Path))
	}
	logger.Info("database connected", attrs...)
	return db, nil
}

func openDialector(cfg *DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLite.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory %q: %w", dir, err)
			}
		}
		return sqlite.Open(sqliteDSN(cfg.SQLite.Path)), nil
	case "postgres":
		return postgres.Open(postgresDSN(&cfg.Postgres)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + sqlitePragmas
}

func postgresDSN(cfg *PostgresConfig) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   cfg.DBName,
	}
	if cfg.User != "" || cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	if cfg.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {cfg.SSLMode}}.Encode()
	}
	return u.String()
}

// poolSettings is a PoolConfig with defaults filled in.
type poolSettings struct {
	maxIdle  int
	maxOpen  int
	lifetime time.Duration
}

func resolvePool(p PoolConfig) (poolSettings, error) {
	s := poolSettings{maxIdle: p.MaxIdleConns, maxOpen: p.MaxOpenConns, lifetime: defaultConnMaxLifetime}
	if s.maxIdle <= 0 {
		s.maxIdle = defaultMaxIdleConns
	}
	if s.maxOpen <= 0 {
		s.maxOpen = defaultMaxOpenConns
	}
	v, err := optionalDuration("pool.conn_max_lifetime", p.ConnMaxLifetime)
	if err != nil {
		return poolSettings{}, err
	}
	if v != "" {
		s.lifetime, _ = time.ParseDuration(v)
	}
	return s, nil
}

func (s poolSettings) apply(db *sql.DB) {
	db.SetMaxIdleConns(s.maxIdle)
	db.SetMaxOpenConns(s.maxOpen)
	db.SetConnMaxLifetime(s.lifetime)
}

func (s poolSettings) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("max_idle_conns", s.maxIdle),
		slog.Int("max_open_conns", s.maxOpen),
		slog.Duration("conn_max_lifetime", s.lifetime),
	)
}
