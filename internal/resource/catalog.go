package resource

import (
	"github.com/simp-lee/catalogadmin/internal/domain"
	"github.com/simp-lee/catalogadmin/internal/listview"
)

// Brands is the brands list screen.
func Brands() Definition[domain.Brand] {
	return Definition[domain.Brand]{
		Name:     "brands",
		Title:    "Brands",
		Singular: "brand",
		Columns: []listview.Column[domain.Brand]{
			{Key: "id", Label: "ID", Accessor: func(b domain.Brand) string { return idString(b.ID) }, PDFWidth: 15},
			{Key: "name", Label: "Name", Accessor: func(b domain.Brand) string { return Text(b.Name) }, PDFWidth: 45},
			{Key: "description", Label: "Description", Accessor: func(b domain.Brand) string { return Text(b.Description) }, PDFWidth: 70},
			{Key: "status", Label: "Status", Accessor: func(b domain.Brand) string { return StatusLabel(b.Status) }, PDFWidth: 20},
			{Key: "created_at", Label: "Created", Accessor: func(b domain.Brand) string { return Date(b.CreatedAt) }, PDFWidth: 35},
		},
		Selectors: listview.Selectors[domain.Brand]{
			Search: func(b domain.Brand) []string { return []string{b.Name, b.Description} },
			Status: func(b domain.Brand) bool { return b.Status },
		},
		Status: listview.StatusField[domain.Brand]{
			Get: func(b domain.Brand) bool { return b.Status },
			Set: func(b domain.Brand, s bool) domain.Brand { b.Status = s; return b },
		},
	}
}

// Categories is the categories list screen.
func Categories() Definition[domain.Category] {
	return Definition[domain.Category]{
		Name:     "categories",
		Title:    "Categories",
		Singular: "category",
		Columns: []listview.Column[domain.Category]{
			{Key: "id", Label: "ID", Accessor: func(c domain.Category) string { return idString(c.ID) }, PDFWidth: 15},
			{Key: "name", Label: "Name", Accessor: func(c domain.Category) string { return Text(c.Name) }, PDFWidth: 60},
			{Key: "code", Label: "Code", Accessor: func(c domain.Category) string { return Text(c.Code) }, PDFWidth: 30},
			{Key: "status", Label: "Status", Accessor: func(c domain.Category) string { return StatusLabel(c.Status) }, PDFWidth: 20},
			{Key: "created_at", Label: "Created", Accessor: func(c domain.Category) string { return Date(c.CreatedAt) }, PDFWidth: 35},
		},
		Selectors: listview.Selectors[domain.Category]{
			Search: func(c domain.Category) []string { return []string{c.Name, c.Code} },
			Status: func(c domain.Category) bool { return c.Status },
		},
		Status: listview.StatusField[domain.Category]{
			Get: func(c domain.Category) bool { return c.Status },
			Set: func(c domain.Category, s bool) domain.Category { c.Status = s; return c },
		},
	}
}

// Products is the products list screen. Rows written before price ranges
// existed carry only the legacy price; normalization folds it into the range.
func Products() Definition[domain.Product] {
	return Definition[domain.Product]{
		Name:     "products",
		Title:    "Products",
		Singular: "product",
		Columns: []listview.Column[domain.Product]{
			{Key: "id", Label: "ID", Accessor: func(p domain.Product) string { return idString(p.ID) }, PDFWidth: 15},
			{Key: "name", Label: "Name", Accessor: func(p domain.Product) string { return Text(p.Name) }, PDFWidth: 50},
			{Key: "sku", Label: "SKU", Accessor: func(p domain.Product) string { return Text(p.SKU) }, PDFWidth: 30},
			{Key: "category", Label: "Category", Accessor: func(p domain.Product) string { return Text(p.CategoryName()) }, PDFWidth: 35},
			{Key: "price", Label: "Price", Accessor: func(p domain.Product) string { return PriceRange(p.PriceMin, p.PriceMax) }, PDFWidth: 35},
			{Key: "status", Label: "Status", Accessor: func(p domain.Product) string { return StatusLabel(p.Status) }, PDFWidth: 20},
			{Key: "updated_at", Label: "Updated", Accessor: func(p domain.Product) string { return Date(p.UpdatedAt) }},
		},
		Selectors: listview.Selectors[domain.Product]{
			Search:   func(p domain.Product) []string { return []string{p.Name, p.SKU, p.CategoryName()} },
			Status:   func(p domain.Product) bool { return p.Status },
			Category: func(p domain.Product) string { return p.CategoryName() },
		},
		Status: listview.StatusField[domain.Product]{
			Get: func(p domain.Product) bool { return p.Status },
			Set: func(p domain.Product, s bool) domain.Product { p.Status = s; return p },
		},
		Normalize: NormalizeProduct,
	}
}

// NormalizeProduct fills PriceMin and PriceMax from the legacy Price when no
// range is set, widens a single bound to a range, and orders the bounds.
func NormalizeProduct(p domain.Product) domain.Product {
	if p.PriceMin == 0 && p.PriceMax == 0 && p.Price != nil {
		p.PriceMin, p.PriceMax = *p.Price, *p.Price
	}
	if p.PriceMax == 0 {
		p.PriceMax = p.PriceMin
	}
	if p.PriceMax < p.PriceMin {
		p.PriceMin, p.PriceMax = p.PriceMax, p.PriceMin
	}
	return p
}
