package domain

import (
	"github.com/shopspring/decimal"
)

// LineKey identifies a cart line. Two lines with the same product but a
// different size or color are distinct.
type LineKey struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// String renders the key as a stable storage key
func (k LineKey) String() string {
	return k.ProductID + "|" + k.Size + "|" + k.Color
}

// CartItem is one (product, size, color) selection with a quantity.
// UnitPrice is captured when the item is added and is not refreshed
// from the catalog afterwards.
type CartItem struct {
	ProductID string          `json:"product_id" validate:"required"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Image     string          `json:"image"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Quantity  int             `json:"quantity"`
}

// Key returns the line identity of the item
func (i CartItem) Key() LineKey {
	return LineKey{ProductID: i.ProductID, Size: i.Size, Color: i.Color}
}

// Subtotal is UnitPrice * Quantity
func (i CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// FavoriteItem is a saved product, keyed by ProductID alone
type FavoriteItem struct {
	ProductID string          `json:"product_id" validate:"required"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Brand     string          `json:"brand"`
	Category  string          `json:"category"`
}

// Identity is the owner of a cart or favorites list. A zero UserID means
// an anonymous guest identified only by SessionID.
type Identity struct {
	UserID    string
	SessionID string
}

// Anonymous reports whether no user is signed in
func (id Identity) Anonymous() bool {
	return id.UserID == ""
}

// Owner returns the storage owner key for the identity
func (id Identity) Owner() string {
	if id.Anonymous() {
		return "guest:" + id.SessionID
	}
	return id.UserID
}
