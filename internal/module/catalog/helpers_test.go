package catalog

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/simp-lee/catalogadmin/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestDB creates an in-memory SQLite database with the catalog tables.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&domain.Brand{}, &domain.Category{}, &domain.Product{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// seedBrands creates brands 1..3: Acme (inactive), Bolt (inactive), Crest (inactive).
func seedBrands(t *testing.T, svc *Service[domain.Brand]) {
	t.Helper()
	for _, name := range []string{"Acme", "Bolt", "Crest"} {
		if _, err := svc.Create(context.Background(), &domain.Brand{Name: name}); err != nil {
			t.Fatalf("seed brand %s: %v", name, err)
		}
	}
}

// seedCatalog creates two categories (Shoes=1, Bikes=2) and three products.
func seedCatalog(t *testing.T, svcs Services) {
	t.Helper()
	ctx := context.Background()
	for _, c := range []domain.Category{
		{Name: "Shoes", Code: "sh", Status: true},
		{Name: "Bikes", Code: "bk", Status: true},
	} {
		if _, err := svcs.Categories.Create(ctx, &c); err != nil {
			t.Fatalf("seed category %s: %v", c.Name, err)
		}
	}
	legacy := int64(4500)
	for _, p := range []domain.Product{
		{Name: "Trail Runner", SKU: "SH-001", CategoryID: 1, PriceMin: 5000, PriceMax: 7000, Status: true},
		{Name: "Road Runner", SKU: "SH-002", CategoryID: 1, Price: &legacy},
		{Name: "Gravel Bike", SKU: "BK-001", CategoryID: 2, PriceMin: 90000, PriceMax: 120000, Status: true},
	} {
		if _, err := svcs.Products.Create(ctx, &p); err != nil {
			t.Fatalf("seed product %s: %v", p.Name, err)
		}
	}
}

// toastOf decodes the showToast event of an htmx response.
func toastOf(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	trigger := w.Header().Get("HX-Trigger")
	if trigger == "" {
		t.Fatal("expected HX-Trigger header to be set")
	}
	var data map[string]map[string]string
	if err := json.Unmarshal([]byte(trigger), &data); err != nil {
		t.Fatalf("failed to parse HX-Trigger: %v", err)
	}
	toast, ok := data["showToast"]
	if !ok {
		t.Fatal("expected showToast in HX-Trigger")
	}
	return toast
}
