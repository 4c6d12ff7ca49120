package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// catalogYAML is a complete sqlite setup without a list section.
const catalogYAML = `server:
  host: "127.0.0.1"
  port: 3000
  mode: "debug"
  timeout: "15s"
  cors:
    allow_origins: ["https://admin.example"]
    max_age: "1h"
database:
  driver: "sqlite"
  sqlite:
    path: "data/catalog.db"
  postgres:
    host: "db.example.com"
    port: 5433
    user: "catalog"
    password: "secret"
    dbname: "catalog"
    sslmode: "disable"
  pool:
    max_idle_conns: 5
    max_open_conns: 50
    conn_max_lifetime: "30m"
log:
  level: "info"
  format: "json"
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// setEnv applies APP__ overrides given as "server.port" style keys.
func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for key, v := range env {
		t.Setenv("APP__"+strings.ToUpper(strings.ReplaceAll(key, ".", "__")), v)
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeTestConfig(t, catalogYAML))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 3000 || cfg.Server.Mode != "debug" {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if got := cfg.Server.CORS.AllowOrigins; len(got) != 1 || got[0] != "https://admin.example" {
		t.Errorf("CORS.AllowOrigins = %v", got)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.SQLite.Path != "data/catalog.db" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Database.Postgres.Port != 5433 || cfg.Database.Pool.MaxOpenConns != 50 {
		t.Errorf("Postgres/Pool = %+v / %+v", cfg.Database.Postgres, cfg.Database.Pool)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	want := ListConfig{DefaultPageSize: DefaultPageSize, MaxPageSize: MaxPageSize, ExportMaxRows: ExportMaxRows}
	if cfg.List != want {
		t.Errorf("List = %+v, want defaults %+v", cfg.List, want)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	setEnv(t, map[string]string{
		"server.port":                     "9090",
		"log.level":                       "WARN",
		"database.pool.max_idle_conns":    "20",
		"database.pool.conn_max_lifetime": " 2h ",
		"list.default_page_size":          "150",
		"list.export_max_rows":            "42",
	})

	cfg, err := Load(writeTestConfig(t, catalogYAML))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want normalized %q", cfg.Log.Level, "warn")
	}
	if cfg.Database.Pool.MaxIdleConns != 20 || cfg.Database.Pool.ConnMaxLifetime != "2h" {
		t.Errorf("Pool = %+v, want 20 idle and trimmed 2h", cfg.Database.Pool)
	}
	// max_page_size grows to cover the configured default.
	want := ListConfig{DefaultPageSize: 150, MaxPageSize: 150, ExportMaxRows: 42}
	if cfg.List != want {
		t.Errorf("List = %+v, want %+v", cfg.List, want)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want YAML value", cfg.Server.Host)
	}
}

func TestLoad_Invalid(t *testing.T) {
	postgres := map[string]string{"database.driver": "postgres"}
	with := func(base map[string]string, key, v string) map[string]string {
		m := map[string]string{key: v}
		for k, bv := range base {
			m[k] = bv
		}
		return m
	}

	tests := []struct {
		name        string
		env         map[string]string
		wantContain string
	}{
		{"server mode", map[string]string{"server.mode": "staging"}, "server.mode"},
		{"port zero", map[string]string{"server.port": "0"}, "server.port"},
		{"port too large", map[string]string{"server.port": "70000"}, "server.port"},
		{"blank host", map[string]string{"server.host": "   "}, "server.host"},
		{"timeout syntax", map[string]string{"server.timeout": "soon"}, "server.timeout"},
		{"negative timeout", map[string]string{"server.timeout": "-1s"}, "server.timeout"},
		{"zero cors max age", map[string]string{"server.cors.max_age": "0s"}, "server.cors.max_age"},
		{"driver", map[string]string{"database.driver": "mysql"}, "database.driver"},
		{"sqlite path", map[string]string{"database.sqlite.path": " "}, "database.sqlite.path"},
		{"pool lifetime", map[string]string{"database.pool.conn_max_lifetime": "-5m"}, "database.pool.conn_max_lifetime"},
		{"postgres host", with(postgres, "database.postgres.host", " "), "database.postgres.host"},
		{"postgres dbname", with(postgres, "database.postgres.dbname", " "), "database.postgres.dbname"},
		{"postgres port", with(postgres, "database.postgres.port", "0"), "database.postgres.port"},
		{"postgres sslmode", with(postgres, "database.postgres.sslmode", "maybe"), "database.postgres.sslmode"},
		{"release needs tls", with(postgres, "server.mode", "release"), `for server.mode "release"`},
		{"log level", map[string]string{"log.level": "verbose"}, "log.level"},
		{"log format", map[string]string{"log.format": "xml"}, "log.format"},
		{"page size", map[string]string{"list.default_page_size": "-1"}, "list.default_page_size"},
		{"max below default", map[string]string{"list.default_page_size": "50", "list.max_page_size": "10"}, "list.max_page_size"},
		{"export rows", map[string]string{"list.export_max_rows": "-3"}, "list.export_max_rows"},
		{
			"short release secret",
			map[string]string{"server.mode": "release", "server.csrf_secret": "Short-1"},
			"at least 32 characters",
		},
		{
			"weak release secret",
			map[string]string{"server.mode": "release", "server.csrf_secret": strings.Repeat("a", 40)},
			"character classes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)
			_, err := Load(writeTestConfig(t, catalogYAML))
			if err == nil || !strings.Contains(err.Error(), tt.wantContain) {
				t.Fatalf("Load() error = %v, want contains %q", err, tt.wantContain)
			}
		})
	}
}

func TestLoad_CSRFSecret(t *testing.T) {
	t.Run("debug accepts any secret", func(t *testing.T) {
		setEnv(t, map[string]string{"server.csrf_secret": "  dev  "})
		cfg, err := Load(writeTestConfig(t, catalogYAML))
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if cfg.Server.CSRFSecret != "dev" {
			t.Errorf("CSRFSecret = %q, want trimmed", cfg.Server.CSRFSecret)
		}
	})

	t.Run("release accepts strong secret", func(t *testing.T) {
		setEnv(t, map[string]string{"server.mode": "release", "server.csrf_secret": "Catalog-admin-secret-0123456789ab"})
		if _, err := Load(writeTestConfig(t, catalogYAML)); err != nil {
			t.Fatalf("Load() error: %v", err)
		}
	})
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
}

func TestLoad_ProjectConfig(t *testing.T) {
	cfg, err := Load("../../configs/config.yaml")
	if err != nil {
		t.Fatalf("Load() error on project config: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Database.Driver != "sqlite" {
		t.Errorf("Server.Port = %d, Database.Driver = %q", cfg.Server.Port, cfg.Database.Driver)
	}
	if cfg.List.ExportMaxRows != 5000 {
		t.Errorf("List.ExportMaxRows = %d, want 5000", cfg.List.ExportMaxRows)
	}
}

func TestCountSecretClasses(t *testing.T) {
	tests := []struct {
		secret string
		want   int
	}{
		{"", 0},
		{"brands", 1},
		{"BRANDS", 1},
		{"2024", 1},
		{"!@#", 1},
		{"Brands", 2},
		{"Brands2024", 3},
		{"Brands-2024", 4},
		{"aA1 ", 4},
	}
	for _, tt := range tests {
		if got := CountSecretClasses(tt.secret); got != tt.want {
			t.Errorf("CountSecretClasses(%q) = %d, want %d", tt.secret, got, tt.want)
		}
	}
}
