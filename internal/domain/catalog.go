package domain

// Brand is a product brand shown on the brands list screen.
type Brand struct {
	BaseModel
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"size:500" json:"description"`
	Status      bool   `gorm:"not null;index" json:"status"`
}

// Category groups products. Code is a short unique handle.
type Category struct {
	BaseModel
	Name   string `gorm:"size:100;not null" json:"name"`
	Code   string `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Status bool   `gorm:"not null;index" json:"status"`
}

// Product is a sellable item. Prices are stored in minor units.
//
// Price is the legacy single-price column kept for rows written before price
// ranges existed; readers should rely on PriceMin and PriceMax after
// normalization.
type Product struct {
	BaseModel
	Name       string    `gorm:"size:200;not null" json:"name"`
	SKU        string    `gorm:"size:64;uniqueIndex;not null" json:"sku"`
	CategoryID uint      `gorm:"index" json:"category_id"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	PriceMin   int64     `json:"price_min"`
	PriceMax   int64     `json:"price_max"`
	Price      *int64    `json:"price,omitempty"`
	Status     bool      `gorm:"not null;index" json:"status"`
}

// CategoryName returns the name of the preloaded category, or "" when it was
// not loaded.
func (p Product) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}
