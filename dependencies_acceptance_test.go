package catalogadmin_test

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestModuleDependencies_KoanfPresent(t *testing.T) {
	testModulePresence(t, "github.com/knadh/koanf/v2")
}

func TestModuleDependencies_CobraPresent(t *testing.T) {
	testModulePresence(t, "github.com/spf13/cobra")
}

func TestModuleDependencies_TablewriterPresent(t *testing.T) {
	testModulePresence(t, "github.com/olekukonko/tablewriter")
}

func TestModuleDependencies_GinxPresent(t *testing.T) {
	testModulePresence(t, "github.com/simp-lee/ginx")
}

// jwt and rbac arrive only through ginx's module graph; nothing here
// authenticates users.
func TestNoAuthImports(t *testing.T) {
	t.Run("happy_sources_skip_auth_packages", func(t *testing.T) {
		matches, err := findImports(".", authImport)
		if err != nil {
			t.Fatalf("scan repository: %v", err)
		}
		if len(matches) != 0 {
			t.Fatalf("expected no jwt or rbac imports, found in: %v", matches)
		}
	})

	t.Run("error_fixture_with_jwt_import_is_detected", func(t *testing.T) {
		fixture := `package auth
import "github.com/simp-lee/jwt"`
		if !authImport.MatchString(fixture) {
			t.Fatal("expected jwt import to be detected in fixture")
		}
	})
}

// The list engine is shared by the HTTP pages and adminctl, so it must not
// depend on either transport or on the database layer.
func TestListview_NoTransportImports(t *testing.T) {
	t.Run("happy_listview_is_transport_free", func(t *testing.T) {
		matches, err := findImports(filepath.Join("internal", "listview"), transportImport)
		if err != nil {
			t.Fatalf("scan listview: %v", err)
		}
		if len(matches) != 0 {
			t.Fatalf("expected no gin, gorm, or cobra imports, found in: %v", matches)
		}
	})

	t.Run("error_fixture_with_gin_import_is_detected", func(t *testing.T) {
		fixture := `package listview
import "github.com/gin-gonic/gin"`
		if !hasTransportImport(fixture) {
			t.Fatal("expected gin import to be detected in fixture")
		}
	})
}

func testModulePresence(t *testing.T, module string) {
	t.Helper()

	t.Run("happy_present_in_real_go_mod", func(t *testing.T) {
		goMod, err := os.ReadFile("go.mod")
		if err != nil {
			t.Fatalf("read go.mod: %v", err)
		}
		if !moduleRequired(string(goMod), module) {
			t.Fatalf("expected module %q to be present in go.mod", module)
		}
	})

	t.Run("error_missing_module_in_fixture", func(t *testing.T) {
		fixture := `module example.com/demo

go 1.25.0

require (
	github.com/gin-gonic/gin v1.11.0
)`
		if moduleRequired(fixture, module) {
			t.Fatalf("expected fixture to not contain module %q", module)
		}
	})
}

func moduleRequired(goModContent, module string) bool {
	re := regexp.MustCompile(`(?m)^\s*` + regexp.QuoteMeta(module) + `\s+v\S+`)
	return re.MatchString(goModContent)
}

// findImports lists the non-test Go files under root whose source matches re.
func findImports(root string, re *regexp.Regexp) ([]string, error) {
	matches := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); name == "_examples" || name == ".git" || name == "vendor" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		b, readErr := os.ReadFile(path)
		if readErr != nil {
			return readErr
		}
		if re.Match(b) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

var authImport = regexp.MustCompile(`"github\.com/simp-lee/(jwt|rbac)(/[^"]*)?"`)

var transportImport = regexp.MustCompile(`"(github\.com/gin-gonic/gin|gorm\.io/gorm|github\.com/spf13/cobra)(/[^"]*)?"`)

func hasTransportImport(content string) bool {
	return transportImport.MatchString(content)
}
