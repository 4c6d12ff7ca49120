package catalog

import (
	"context"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/catalogadmin/internal/domain"
	"github.com/simp-lee/catalogadmin/internal/pkg"
	"github.com/simp-lee/catalogadmin/internal/resource"
)

// setupPageRouter creates a gin engine with the brand and product page routes.
// Templates are stubs that print row ids, a "*" for selected rows, and "+" or
// "-" for the row status.
func setupPageRouter(t *testing.T) (*gin.Engine, Services) {
	t.Helper()
	svcs := NewServices(setupTestDB(t), 100)
	r := gin.New()

	rows := `{{range .Rows}}{{.ID}}{{if .Selected}}*{{end}}{{if .Status}}+{{else}}-{{end}},{{end}}`
	tmpl := template.Must(template.New("").Parse(
		`{{define "catalog/list.html"}}list:` + rows + `{{range .Categories}}[{{.}}]{{end}}{{end}}` +
			`{{define "catalog/table.html"}}table:` + rows + `{{end}}` +
			`{{define "errors/400.html"}}400{{end}}` +
			`{{define "errors/500.html"}}500{{end}}`,
	))
	r.SetHTMLTemplate(tmpl)

	brands := NewPageHandler(svcs.Brands, resource.Brands(), pkg.DefaultPageLimits)
	brands.now = func() time.Time { return time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC) }
	brands.Register(r.Group("/brands"))
	NewPageHandler(svcs.Products, resource.Products(), pkg.DefaultPageLimits).
		WithCategories(CategoryNames(svcs.Categories)).
		Register(r.Group("/products"))
	return r, svcs
}

func doForm(r *gin.Engine, method, target string, form url.Values, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListPage(t *testing.T) {
	r, svcs := setupPageRouter(t)
	seedBrands(t, svcs.Brands)

	tests := []struct {
		name   string
		target string
		header map[string]string
		want   string
	}{
		{name: "full page", target: "/brands", want: "list:3-,2-,1-,"},
		{name: "page size", target: "/brands?page_size=2&page=2", want: "list:1-,"},
		{name: "search", target: "/brands?search=BOL", want: "list:2-,"},
		{
			name:   "table only for htmx",
			target: "/brands?search=a",
			header: map[string]string{"HX-Request": "true", "HX-Target": tableTarget},
			want:   "table:1-,",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doForm(r, http.MethodGet, tt.target, nil, tt.header)
			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", w.Code)
			}
			if got := w.Body.String(); got != tt.want {
				t.Errorf("body = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListPage_InvalidFilter(t *testing.T) {
	r, _ := setupPageRouter(t)

	w := doForm(r, http.MethodGet, "/brands?status=maybe", nil, nil)
	if w.Code != http.StatusBadRequest || w.Body.String() != "400" {
		t.Errorf("got %d %q, want 400", w.Code, w.Body.String())
	}
}

func TestListPage_ProductCategories(t *testing.T) {
	r, svcs := setupPageRouter(t)
	seedCatalog(t, svcs)

	w := doForm(r, http.MethodGet, "/products?category=Shoes", nil, nil)
	if got := w.Body.String(); got != "list:2-,1+,[Bikes][Shoes]" {
		t.Errorf("body = %q", got)
	}
}

func TestBulkHTMX_Status(t *testing.T) {
	r, svcs := setupPageRouter(t)
	seedBrands(t, svcs.Brands)

	form := url.Values{"action": {"Status"}, "action_status": {"Active"}, "ids": {"1", "2"}}
	w := doForm(r, http.MethodPost, "/brands/bulk", form, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	toast := toastOf(t, w)
	if toast["type"] != "success" || toast["message"] != "Marked 2 brands as Active" {
		t.Errorf("toast = %v", toast)
	}
	if got := w.Body.String(); got != "table:3-,2+,1+," {
		t.Errorf("body = %q", got)
	}
}

func TestBulkHTMX_StatusRequiresTarget(t *testing.T) {
	r, svcs := setupPageRouter(t)
	seedBrands(t, svcs.Brands)

	form := url.Values{"action": {"Status"}, "action_status": {"All"}, "ids": {"1", "2"}}
	w := doForm(r, http.MethodPost, "/brands/bulk", form, nil)
	toast := toastOf(t, w)
	if toast["type"] != "warning" {
		t.Errorf("toast = %v, want warning", toast)
	}
	// Nothing changed and the selection is kept.
	if got := w.Body.String(); got != "table:3-,2*-,1*-," {
		t.Errorf("body = %q", got)
	}
}

func TestBulkHTMX_Delete(t *testing.T) {
	r, svcs := setupPageRouter(t)
	seedBrands(t, svcs.Brands)

	form := url.Values{"action": {"Delete"}, "ids": {"1"}}
	w := doForm(r, http.MethodPost, "/brands/bulk?search=", form, nil)
	if toast := toastOf(t, w); toast["message"] != "Deleted 1 brands" {
		t.Errorf("toast = %v", toast)
	}
	if got := w.Body.String(); got != "table:3-,2-," {
		t.Errorf("body = %q", got)
	}
	if _, err := svcs.Brands.Get(context.Background(), 1); !domain.IsNotFound(err) {
		t.Errorf("expected brand 1 to be deleted, got %v", err)
	}
}

func TestBulkHTMX_NoSelection(t *testing.T) {
	r, svcs := setupPageRouter(t)
	seedBrands(t, svcs.Brands)

	tests := []struct {
		name   string
		target string
		form   url.Values
	}{
		{name: "no ids", target: "/brands/bulk", form: url.Values{"action": {"Delete"}}},
		{name: "ids outside the page", target: "/brands/bulk?page_size=1", form: url.Values{"action": {"Delete"}, "ids": {"1"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doForm(r, http.MethodPost, tt.target, tt.form, nil)
			toast := toastOf(t, w)
			if toast["type"] != "warning" || toast["message"] != "Select at least one of the brands first" {
				t.Errorf("toast = %v", toast)
			}
		})
	}

	items, _ := svcs.Brands.GetMany(context.Background(), []uint{1, 2, 3})
	if len(items) != 3 {
		t.Errorf("expected nothing deleted, %d brands left", len(items))
	}
}

func TestBulkHTMX_InvalidAction(t *testing.T) {
	r, svcs := setupPageRouter(t)
	seedBrands(t, svcs.Brands)

	w := doForm(r, http.MethodPost, "/brands/bulk", url.Values{"action": {"Explode"}, "ids": {"1"}}, nil)
	if toast := toastOf(t, w); toast["type"] != "warning" {
		t.Errorf("toast = %v, want warning", toast)
	}
}

func TestToggleHTMX(t *testing.T) {
	r, svcs := setupPageRouter(t)
	seedBrands(t, svcs.Brands)

	w := doForm(r, http.MethodPost, "/brands/1/status", url.Values{"status": {"true"}}, nil)
	if toast := toastOf(t, w); toast["type"] != "success" || toast["message"] != "Status updated" {
		t.Errorf("toast = %v", toast)
	}
	if got := w.Body.String(); got != "table:3-,2-,1+," {
		t.Errorf("body = %q", got)
	}

	// Under an Inactive filter the toggled row leaves the table.
	w = doForm(r, http.MethodPost, "/brands/2/status?status=Inactive", url.Values{"status": {"true"}}, nil)
	if got := w.Body.String(); got != "table:3-," {
		t.Errorf("filtered body = %q", got)
	}

	got, err := svcs.Brands.Get(context.Background(), 2)
	if err != nil || !got.Status {
		t.Errorf("brand 2 = %+v, %v; want active", got, err)
	}
}

func TestToggleHTMX_Errors(t *testing.T) {
	r, _ := setupPageRouter(t)

	tests := []struct {
		name   string
		target string
		form   url.Values
	}{
		{name: "missing row", target: "/brands/9/status", form: url.Values{"status": {"true"}}},
		{name: "invalid id", target: "/brands/x/status", form: url.Values{"status": {"true"}}},
		{name: "missing status", target: "/brands/1/status", form: url.Values{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doForm(r, http.MethodPost, tt.target, tt.form, nil)
			if got := w.Header().Get("HX-Reswap"); got != "none" {
				t.Errorf("expected HX-Reswap 'none', got %q", got)
			}
			if toast := toastOf(t, w); toast["type"] != "error" {
				t.Errorf("toast = %v, want error", toast)
			}
		})
	}
}

func TestPaginationHTMX(t *testing.T) {
	r, svcs := setupPageRouter(t)
	seedBrands(t, svcs.Brands)

	w := doForm(r, http.MethodPost, "/brands/page-size?search=a&status=Inactive&page=3", url.Values{"page_size": {"50"}}, nil)
	if got, want := w.Header().Get("HX-Redirect"), "/brands?page=1&page_size=50&search=a&status=Inactive"; got != want {
		t.Errorf("HX-Redirect = %q, want %q", got, want)
	}

	w = doForm(r, http.MethodPost, "/brands/page?page_size=1", url.Values{"page": {"2"}}, nil)
	if got, want := w.Header().Get("HX-Redirect"), "/brands?page=2&page_size=1"; got != want {
		t.Errorf("HX-Redirect = %q, want %q", got, want)
	}

	w = doForm(r, http.MethodPost, "/brands/page?page_size=1&sort=name:asc", url.Values{"page": {"3"}}, nil)
	if got, want := w.Header().Get("HX-Redirect"), "/brands?page=3&page_size=1&sort=name%3Aasc"; got != want {
		t.Errorf("HX-Redirect = %q, want %q", got, want)
	}

	w = doForm(r, http.MethodPost, "/brands/page-size?sort=name:desc&page=2", url.Values{"page_size": {"20"}}, nil)
	if got, want := w.Header().Get("HX-Redirect"), "/brands?page=1&page_size=20&sort=name%3Adesc"; got != want {
		t.Errorf("HX-Redirect = %q, want %q", got, want)
	}

	w = doForm(r, http.MethodPost, "/brands/page", url.Values{"page": {"0"}}, nil)
	if w.Header().Get("HX-Redirect") != "" || w.Header().Get("HX-Reswap") != "none" {
		t.Errorf("invalid page should not navigate: headers %v", w.Header())
	}
}

func TestExport(t *testing.T) {
	r, svcs := setupPageRouter(t)
	seedBrands(t, svcs.Brands)

	w := doForm(r, http.MethodGet, "/brands/export.csv?scope=selected&ids=2", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Disposition"); !strings.Contains(got, "brands-20240102-150405.csv") {
		t.Errorf("Content-Disposition = %q", got)
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "2,Bolt,") {
		t.Errorf("csv = %q", w.Body.String())
	}

	w = doForm(r, http.MethodGet, "/brands/export.csv?scope=loaded&page_size=2", nil, nil)
	if n := len(strings.Split(strings.TrimSpace(w.Body.String()), "\n")); n != 3 {
		t.Errorf("loaded scope: got %d lines, want 3", n)
	}

	w = doForm(r, http.MethodGet, "/brands/export.csv?scope=all&page_size=1", nil, nil)
	if n := len(strings.Split(strings.TrimSpace(w.Body.String()), "\n")); n != 4 {
		t.Errorf("all scope: got %d lines, want 4", n)
	}

	w = doForm(r, http.MethodGet, "/brands/export.csv?scope=selected", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("selected without ids: expected 400, got %d", w.Code)
	}
}

func TestExport_Truncated(t *testing.T) {
	svcs := NewServices(setupTestDB(t), 2)
	seedBrands(t, svcs.Brands)
	r := gin.New()
	NewPageHandler(svcs.Brands, resource.Brands(), pkg.DefaultPageLimits).Register(r.Group("/brands"))

	w := doForm(r, http.MethodGet, "/brands/export.csv?scope=all", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if n := len(strings.Split(strings.TrimSpace(w.Body.String()), "\n")); n != 3 {
		t.Errorf("got %d lines, want header + 2 rows", n)
	}
	toast := toastOf(t, w)
	if toast["type"] != "warning" || toast["message"] != "Exported only 2 of 3 brands, the export limit was reached" {
		t.Errorf("toast = %+v", toast)
	}
}

func TestDeleteHTMX(t *testing.T) {
	r, svcs := setupPageRouter(t)
	seedBrands(t, svcs.Brands)

	w := doForm(r, http.MethodDelete, "/brands/1", nil, nil)
	if toast := toastOf(t, w); toast["type"] != "success" {
		t.Errorf("toast = %v", toast)
	}

	w = doForm(r, http.MethodDelete, "/brands/1", nil, nil)
	if got := w.Header().Get("HX-Reswap"); got != "none" {
		t.Errorf("expected HX-Reswap 'none', got %q", got)
	}
	if toast := toastOf(t, w); toast["type"] != "error" {
		t.Errorf("toast = %v", toast)
	}
}

func TestToastNotifier(t *testing.T) {
	n := &toastNotifier{}
	n.Notify("success", "Deleted 2 brands")
	n.Notify("warning", "Could not refresh brands")
	n.Notify("success", "ignored severity")

	if n.kind != "warning" {
		t.Errorf("kind = %q, want warning", n.kind)
	}
	if len(n.messages) != 3 {
		t.Errorf("messages = %v", n.messages)
	}
}

func Test_safePageErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "validation", err: domain.NewAppError(domain.CodeValidation, "name is required", nil), want: "name is required"},
		{name: "conflict", err: domain.NewAppError(domain.CodeConflict, "busy", nil), want: "busy"},
		{name: "internal", err: domain.NewAppError(domain.CodeInternal, "database error", nil), want: "fallback"},
		{name: "plain", err: context.DeadlineExceeded, want: "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := safePageErrorMessage(tt.err, "fallback"); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
