package catalog

import (
	"context"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/simp-lee/catalogadmin/internal/domain"
	"github.com/simp-lee/catalogadmin/internal/listview"
	"github.com/simp-lee/catalogadmin/internal/pkg"
	"github.com/simp-lee/catalogadmin/internal/resource"
)

// Module implements the app.Module interface for one catalog resource.
type Module[T resource.Entity, R Request[T]] struct {
	name        string
	handler     *Handler[T, R]
	pageHandler *PageHandler[T]
}

// NewModule creates a Module with the given handlers.
// Panics if h or ph is nil.
func NewModule[T resource.Entity, R Request[T]](name string, h *Handler[T, R], ph *PageHandler[T]) *Module[T, R] {
	if h == nil {
		panic("catalog.NewModule: handler must not be nil")
	}
	if ph == nil {
		panic("catalog.NewModule: pageHandler must not be nil")
	}
	return &Module[T, R]{name: name, handler: h, pageHandler: ph}
}

// RegisterRoutes registers the resource's API and page routes.
func (m *Module[T, R]) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	m.handler.Register(api.Group("/" + m.name))
	m.pageHandler.Register(pages.Group("/" + m.name))
}

// Registrar registers API and page routes.
type Registrar interface {
	RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup)
}

// Settings bound the list and export endpoints.
type Settings struct {
	Limits        pkg.PageLimits
	ExportMaxRows int
}

// Services are the catalog services sharing one database.
type Services struct {
	Brands     *Service[domain.Brand]
	Categories *Service[domain.Category]
	Products   *Service[domain.Product]
}

// NewServices builds the catalog repositories and services over db.
func NewServices(db *gorm.DB, exportMaxRows int) Services {
	brandRepo := pkg.NewRepository[domain.Brand](db, pkg.ListSpec{
		SortFields: []string{"id", "name", "status", "created_at", "updated_at"},
		Filter: pkg.FilterColumns{
			Search: []string{"name", "description"},
			Status: "status",
		},
	})
	categoryRepo := pkg.NewRepository[domain.Category](db, pkg.ListSpec{
		SortFields: []string{"id", "name", "code", "status", "created_at", "updated_at"},
		Filter: pkg.FilterColumns{
			Search: []string{"name", "code"},
			Status: "status",
		},
	})
	productRepo := pkg.NewRepository[domain.Product](db, pkg.ListSpec{
		SortFields: []string{"id", "name", "sku", "price_min", "status", "created_at", "updated_at"},
		Filter: pkg.FilterColumns{
			Search:      []string{"name", "sku"},
			SearchExprs: []string{"SELECT name FROM categories WHERE categories.id = products.category_id"},
			Status:      "status",
			Category:    "category_id IN (SELECT id FROM categories WHERE name = ?)",
		},
		Preload: []string{"Category"},
	})

	return Services{
		Brands:     NewService[domain.Brand]("brands", brandRepo, BrandRules(), exportMaxRows),
		Categories: NewService[domain.Category]("categories", categoryRepo, CategoryRules(), exportMaxRows),
		Products:   NewService[domain.Product]("products", productRepo, ProductRules(categoryRepo), exportMaxRows),
	}
}

// Modules builds the brands, categories, and products modules over db, in
// navigation order.
func Modules(db *gorm.DB, s Settings) []Registrar {
	svcs := NewServices(db, s.ExportMaxRows)
	brandDef, categoryDef, productDef := resource.Brands(), resource.Categories(), resource.Products()

	return []Registrar{
		NewModule(brandDef.Name,
			NewHandler[domain.Brand, BrandRequest](svcs.Brands, brandDef, s.Limits),
			NewPageHandler(svcs.Brands, brandDef, s.Limits)),
		NewModule(categoryDef.Name,
			NewHandler[domain.Category, CategoryRequest](svcs.Categories, categoryDef, s.Limits),
			NewPageHandler(svcs.Categories, categoryDef, s.Limits)),
		NewModule(productDef.Name,
			NewHandler[domain.Product, ProductRequest](svcs.Products, productDef, s.Limits),
			NewPageHandler(svcs.Products, productDef, s.Limits).WithCategories(CategoryNames(svcs.Categories))),
	}
}

// CategoryNames lists the names of every category, alphabetically, for the
// product category filter.
func CategoryNames(svc *Service[domain.Category]) func(ctx context.Context) ([]string, error) {
	return func(ctx context.Context) ([]string, error) {
		items, err := svc.ListAll(ctx, domain.ListQuery{Sort: "name:asc"})
		if _, truncated := listview.AsTruncated(err); err != nil && !truncated {
			return nil, err
		}
		names := make([]string, len(items))
		for i, c := range items {
			names[i] = c.Name
		}
		return names, nil
	}
}
