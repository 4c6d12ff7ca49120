package catalog

import "github.com/simp-lee/catalogadmin/internal/domain"

// Request is a create/update payload that can be copied onto an entity.
type Request[T any] interface {
	Apply(entity *T)
}

// BrandRequest is the input for creating or updating a brand.
type BrandRequest struct {
	Name        string `json:"name" form:"name" binding:"required,min=2,max=100"`
	Description string `json:"description" form:"description" binding:"max=500"`
	Status      bool   `json:"status" form:"status"`
}

// Apply copies the request onto b.
func (r BrandRequest) Apply(b *domain.Brand) {
	b.Name = r.Name
	b.Description = r.Description
	b.Status = r.Status
}

// CategoryRequest is the input for creating or updating a category.
type CategoryRequest struct {
	Name   string `json:"name" form:"name" binding:"required,min=2,max=100"`
	Code   string `json:"code" form:"code" binding:"required,max=32"`
	Status bool   `json:"status" form:"status"`
}

// Apply copies the request onto c.
func (r CategoryRequest) Apply(c *domain.Category) {
	c.Name = r.Name
	c.Code = r.Code
	c.Status = r.Status
}

// ProductRequest is the input for creating or updating a product. Prices are
// in minor units.
type ProductRequest struct {
	Name       string `json:"name" form:"name" binding:"required,min=2,max=200"`
	SKU        string `json:"sku" form:"sku" binding:"required,max=64"`
	CategoryID uint   `json:"category_id" form:"category_id" binding:"required"`
	PriceMin   int64  `json:"price_min" form:"price_min" binding:"gte=0"`
	PriceMax   int64  `json:"price_max" form:"price_max" binding:"gte=0"`
	Status     bool   `json:"status" form:"status"`
}

// Apply copies the request onto p.
func (r ProductRequest) Apply(p *domain.Product) {
	p.Name = r.Name
	p.SKU = r.SKU
	p.CategoryID = r.CategoryID
	p.PriceMin = r.PriceMin
	p.PriceMax = r.PriceMax
	p.Status = r.Status
}

// StatusRequest is the input for changing one row's status.
type StatusRequest struct {
	Status *bool `json:"status" form:"status" binding:"required"`
}

// BulkIDsRequest names the rows of a bulk delete or bulk fetch.
type BulkIDsRequest struct {
	IDs []uint `json:"ids" form:"ids" binding:"required,min=1,max=1000,dive,gt=0"`
}

// BulkStatusRequest names the rows and target status of a bulk status change.
type BulkStatusRequest struct {
	IDs    []uint `json:"ids" form:"ids" binding:"required,min=1,max=1000,dive,gt=0"`
	Status *bool  `json:"status" form:"status" binding:"required"`
}
