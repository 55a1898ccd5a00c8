package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductStatus controls storefront visibility
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
	ProductStatusDraft    ProductStatus = "draft"
)

// Valid reports whether s is a known status
func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusActive, ProductStatusInactive, ProductStatusDraft:
		return true
	}
	return false
}

// Product represents a sellable catalog entry
type Product struct {
	ID                 string           `json:"id" db:"id"`
	Name               string           `json:"name" db:"name"`
	Brand              string           `json:"brand" db:"brand"`
	Category           string           `json:"category" db:"category"`
	Description        string           `json:"description" db:"description"`
	Tags               []string         `json:"tags" db:"tags"`
	Images             []string         `json:"images" db:"images"`
	Price              decimal.Decimal  `json:"price" db:"price"`
	OriginalPrice      *decimal.Decimal `json:"original_price,omitempty" db:"original_price"`
	DiscountPercentage int              `json:"discount_percentage" db:"discount_percentage"`
	IsOnSale           bool             `json:"is_on_sale" db:"is_on_sale"`
	IsNew              bool             `json:"is_new" db:"is_new"`
	InStock            bool             `json:"in_stock" db:"in_stock"`
	StockQuantity      int              `json:"stock_quantity" db:"stock_quantity"`
	Sizes              []string         `json:"sizes" db:"sizes"`
	Colors             []string         `json:"colors" db:"colors"`
	Rating             float64          `json:"rating" db:"rating"`
	ReviewCount        int              `json:"review_count" db:"review_count"`
	Status             ProductStatus    `json:"status" db:"status"`
	CreatedBy          string           `json:"created_by,omitempty" db:"created_by"`
	CreatedAt          time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at" db:"updated_at"`
}

// Visible reports whether shoppers may see the product
func (p *Product) Visible() bool {
	return p.Status == ProductStatusActive
}

// Image returns the first gallery image or an empty string
func (p *Product) Image() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Facets summarises the values a listing can be narrowed by
type Facets struct {
	Categories []string        `json:"categories"`
	Brands     []string        `json:"brands"`
	MinPrice   decimal.Decimal `json:"min_price"`
	MaxPrice   decimal.Decimal `json:"max_price"`
}
