package config

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	List     ListConfig     `koanf:"list"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host       string     `koanf:"host"`
	Port       int        `koanf:"port"`
	Mode       string     `koanf:"mode"`
	CSRFSecret string     `koanf:"csrf_secret"`
	Timeout    string     `koanf:"timeout"`
	CORS       CORSConfig `koanf:"cors"`
}

// CORSConfig holds CORS middleware settings.
type CORSConfig struct {
	AllowOrigins     []string `koanf:"allow_origins"`
	AllowMethods     []string `koanf:"allow_methods"`
	AllowHeaders     []string `koanf:"allow_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           string   `koanf:"max_age"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string         `koanf:"driver"`
	SQLite   SQLiteConfig   `koanf:"sqlite"`
	Postgres PostgresConfig `koanf:"postgres"`
	Pool     PoolConfig     `koanf:"pool"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"dbname"`
	SSLMode  string `koanf:"sslmode"`
}

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxIdleConns    int    `koanf:"max_idle_conns"`
	MaxOpenConns    int    `koanf:"max_open_conns"`
	ConnMaxLifetime string `koanf:"conn_max_lifetime"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level           string `koanf:"level"`
	Format          string `koanf:"format"`
	Color           *bool  `koanf:"color"`
	FilePath        string `koanf:"file_path"`
	MaxSizeMB       int    `koanf:"max_size_mb"`
	RetentionDays   int    `koanf:"retention_days"`
	MaxBackups      int    `koanf:"max_backups"`
	CompressRotated *bool  `koanf:"compress_rotated"`
}

// ListConfig bounds list pages and exports.
type ListConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
	ExportMaxRows   int `koanf:"export_max_rows"`
}

// Defaults applied to unset list settings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	ExportMaxRows   = 5000
)

// Load reads the server configuration from a YAML file and overlays
// environment variables prefixed with "APP__". A double underscore separates
// levels and a single one stays part of the key, so
// APP__LIST__EXPORT_MAX_ROWS=500 sets list.export_max_rows.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	if err := k.Load(env.Provider("APP__", ".", envKey("APP__")), nil); err != nil {
		return nil, fmt.Errorf("failed to load env variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps PREFIX_A__B_C to the koanf path a.b_c.
func envKey(prefix string) func(string) string {
	return func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, prefix)), "__", ".")
	}
}

// Validate normalizes the configuration in place and reports the first
// unsupported value.
func (c *Config) Validate() error {
	if err := c.Server.validate(); err != nil {
		return err
	}
	if err := c.Database.validate(c.Server.Mode); err != nil {
		return err
	}
	if err := c.List.validate(); err != nil {
		return err
	}
	return c.Log.validate()
}

func (s *ServerConfig) validate() error {
	var err error
	if s.Mode, err = oneOf("server.mode", s.Mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode); err != nil {
		return err
	}
	if err := checkPort("server.port", s.Port); err != nil {
		return err
	}
	if s.Host = strings.TrimSpace(s.Host); s.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if s.Timeout, err = optionalDuration("server.timeout", s.Timeout); err != nil {
		return err
	}
	if s.CORS.MaxAge, err = optionalDuration("server.cors.max_age", s.CORS.MaxAge); err != nil {
		return err
	}

	// Without a secret one is generated at startup.
	s.CSRFSecret = strings.TrimSpace(s.CSRFSecret)
	if s.CSRFSecret == "" || s.Mode != gin.ReleaseMode {
		return nil
	}
	if len(s.CSRFSecret) < 32 {
		return fmt.Errorf("invalid server.csrf_secret: must be at least 32 characters in release mode")
	}
	if CountSecretClasses(s.CSRFSecret) < 3 {
		return fmt.Errorf("server.csrf_secret must include at least 3 character classes (lowercase, uppercase, digit, symbol) in release mode")
	}
	return nil
}

var (
	sslModes       = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}
	releaseSSLMode = []string{"require", "verify-ca", "verify-full"}
)

func (d *DatabaseConfig) validate(mode string) error {
	var err error
	if _, err = oneOf("database.driver", d.Driver, "sqlite", "postgres"); err != nil {
		return err
	}
	if d.Pool.ConnMaxLifetime, err = optionalDuration("database.pool.conn_max_lifetime", d.Pool.ConnMaxLifetime); err != nil {
		return err
	}

	if d.Driver == "sqlite" {
		if d.SQLite.Path = strings.TrimSpace(d.SQLite.Path); d.SQLite.Path == "" {
			return fmt.Errorf("database.sqlite.path is required when driver is sqlite")
		}
		return nil
	}

	pg := &d.Postgres
	pg.Host = strings.TrimSpace(pg.Host)
	pg.User = strings.TrimSpace(pg.User)
	pg.DBName = strings.TrimSpace(pg.DBName)
	for _, f := range []struct{ key, v string }{{"host", pg.Host}, {"user", pg.User}, {"dbname", pg.DBName}} {
		if f.v == "" {
			return fmt.Errorf("database.postgres.%s is required when driver is postgres", f.key)
		}
	}
	if err := checkPort("database.postgres.port", pg.Port); err != nil {
		return err
	}
	if pg.SSLMode, err = oneOf("database.postgres.sslmode", pg.SSLMode, sslModes...); err != nil {
		return err
	}
	if mode == gin.ReleaseMode && !slices.Contains(releaseSSLMode, pg.SSLMode) {
		return fmt.Errorf("invalid database.postgres.sslmode %q for server.mode %q: must be one of %s",
			pg.SSLMode, gin.ReleaseMode, quoteAll(releaseSSLMode))
	}
	return nil
}

func (l *LogConfig) validate() error {
	var err error
	if l.Level, err = oneOf("log.level", strings.ToLower(l.Level), "debug", "info", "warn", "error"); err != nil {
		return err
	}
	l.Format, err = oneOf("log.format", strings.ToLower(l.Format), "text", "json")
	return err
}

// validate fills unset list settings with defaults and checks their bounds.
func (l *ListConfig) validate() error {
	if l.DefaultPageSize == 0 {
		l.DefaultPageSize = DefaultPageSize
	}
	if l.MaxPageSize == 0 {
		l.MaxPageSize = max(MaxPageSize, l.DefaultPageSize)
	}
	if l.ExportMaxRows == 0 {
		l.ExportMaxRows = ExportMaxRows
	}
	if l.DefaultPageSize < 1 {
		return fmt.Errorf("invalid list.default_page_size %d: must be positive", l.DefaultPageSize)
	}
	if l.MaxPageSize < l.DefaultPageSize {
		return fmt.Errorf("invalid list.max_page_size %d: must be at least list.default_page_size %d", l.MaxPageSize, l.DefaultPageSize)
	}
	if l.ExportMaxRows < 1 {
		return fmt.Errorf("invalid list.export_max_rows %d: must be positive", l.ExportMaxRows)
	}
	return nil
}

// oneOf trims v and checks it against allowed.
func oneOf(key, v string, allowed ...string) (string, error) {
	v = strings.TrimSpace(v)
	if !slices.Contains(allowed, v) {
		return "", fmt.Errorf("invalid %s %q: must be one of %s", key, v, quoteAll(allowed))
	}
	return v, nil
}

func quoteAll(vs []string) string {
	quoted := make([]string, len(vs))
	for i, v := range vs {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}

func checkPort(key string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid %s %d: must be between 1 and 65535", key, port)
	}
	return nil
}

// optionalDuration trims v; a blank value means unset, anything else must
// parse to a positive duration.
func optionalDuration(key, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return "", fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d <= 0 {
		return "", fmt.Errorf("invalid %s %q: must be greater than 0", key, v)
	}
	return v, nil
}

// CountSecretClasses reports how many of lowercase, uppercase, digit and
// symbol occur in secret. Anything not a letter or digit is a symbol.
func CountSecretClasses(secret string) int {
	var seen [4]bool
	for _, r := range secret {
		switch {
		case unicode.IsLower(r):
			seen[0] = true
		case unicode.IsUpper(r):
			seen[1] = true
		case unicode.IsDigit(r):
			seen[2] = true
		default:
			seen[3] = true
		}
	}
	n := 0
	for _, ok := range seen {
		if ok {
			n++
		}
	}
	return n
}
