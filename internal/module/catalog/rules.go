package catalog

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/simp-lee/catalogadmin/internal/domain"
	"github.com/simp-lee/catalogadmin/internal/resource"
)

var (
	codePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]*$`)
	skuPattern  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
)

func invalid(msg string) error {
	return domain.NewAppError(domain.CodeValidation, msg, nil)
}

// checkName enforces the rune-length bounds of a display name.
func checkName(name string, maxLen int) error {
	n := utf8.RuneCountInString(name)
	switch {
	case n == 0:
		return invalid("name is required")
	case n < 2:
		return invalid("name must be at least 2 characters")
	case n > maxLen:
		return invalid("name is too long")
	}
	return nil
}

// BrandRules returns the write rules of brands.
func BrandRules() Rules[domain.Brand] {
	return Rules[domain.Brand]{
		Clean: func(b *domain.Brand) {
			b.Name = strings.TrimSpace(b.Name)
			b.Description = strings.TrimSpace(b.Description)
		},
		Validate: func(_ context.Context, b *domain.Brand) error {
			if err := checkName(b.Name, 100); err != nil {
				return err
			}
			if utf8.RuneCountInString(b.Description) > 500 {
				return invalid("description must be at most 500 characters")
			}
			return nil
		},
	}
}

// CategoryRules returns the write rules of categories. Codes are stored
// upper-case.
func CategoryRules() Rules[domain.Category] {
	return Rules[domain.Category]{
		Clean: func(c *domain.Category) {
			c.Name = strings.TrimSpace(c.Name)
			c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
		},
		Validate: func(_ context.Context, c *domain.Category) error {
			if err := checkName(c.Name, 100); err != nil {
				return err
			}
			if c.Code == "" {
				return invalid("code is required")
			}
			if len(c.Code) > 32 || !codePattern.MatchString(c.Code) {
				return invalid("code must be up to 32 letters, digits, or dashes")
			}
			return nil
		},
	}
}

// ProductRules returns the write rules of products. The category must exist.
func ProductRules(categories Store[domain.Category]) Rules[domain.Product] {
	return Rules[domain.Product]{
		Clean: func(p *domain.Product) {
			p.Name = strings.TrimSpace(p.Name)
			p.SKU = strings.TrimSpace(p.SKU)
			*p = resource.NormalizeProduct(*p)
			p.Price = nil
			p.Category = nil
		},
		Validate: func(ctx context.Context, p *domain.Product) error {
			if err := checkName(p.Name, 200); err != nil {
				return err
			}
			if p.SKU == "" {
				return invalid("sku is required")
			}
			if len(p.SKU) > 64 || !skuPattern.MatchString(p.SKU) {
				return invalid("sku must be up to 64 letters, digits, dots, dashes, or underscores")
			}
			if p.PriceMin < 0 {
				return invalid("price must not be negative")
			}
			if p.CategoryID == 0 {
				return invalid("category is required")
			}
			if _, err := categories.GetByID(ctx, p.CategoryID); err != nil {
				if domain.IsNotFound(err) {
					return invalid("category does not exist")
				}
				return err
			}
			return nil
		},
	}
}
