// Package cart keeps a shopping cart consistent and writes every change
// through to its backing store.
package cart

import (
	"slices"

	"cleat-store/internal/domain"

	"github.com/shopspring/decimal"
)

// MaxLineQuantity caps the units held on a single cart line
const MaxLineQuantity = 99

// State is an immutable cart snapshot. Total is derived from Items on every
// transition and never carried over.
type State struct {
	Items []domain.CartItem `json:"items"`
	Total decimal.Decimal   `json:"total"`
}

// Action is a cart state transition
type Action interface {
	apply(items []domain.CartItem) []domain.CartItem
	name() string
}

// AddItem merges Item into the line with the same key, or appends a new
// line. Quantities below 1 count as 1 and merged lines stop at
// MaxLineQuantity.
type AddItem struct {
	Item domain.CartItem
}

// RemoveItem drops the single line identified by Key
type RemoveItem struct {
	Key domain.LineKey
}

// RemoveProduct drops every line of a product, whatever its size or color
type RemoveProduct struct {
	ProductID string
}

// UpdateQuantity sets the quantity of the line identified by Key. A
// quantity of zero or less drops the line; larger ones stop at
// MaxLineQuantity.
type UpdateQuantity struct {
	Key      domain.LineKey
	Quantity int
}

// Clear empties the cart
type Clear struct{}

// Load replaces the cart with Items as read from a store. Duplicate keys
// are merged and lines without a positive quantity are dropped.
type Load struct {
	Items []domain.CartItem
}

func (a AddItem) name() string        { return "add" }
func (a RemoveItem) name() string     { return "remove" }
func (a RemoveProduct) name() string  { return "remove_product" }
func (a UpdateQuantity) name() string { return "update_quantity" }
func (a Clear) name() string          { return "clear" }
func (a Load) name() string           { return "load" }

func (a AddItem) apply(items []domain.CartItem) []domain.CartItem {
	item := a.Item
	item.Quantity = max(item.Quantity, 1)
	item.Quantity = min(item.Quantity, MaxLineQuantity)
	key := item.Key()
	for i := range items {
		if items[i].Key() == key {
			items[i].Quantity = min(items[i].Quantity+item.Quantity, MaxLineQuantity)
			return items
		}
	}
	return append(items, item)
}

func (a RemoveItem) apply(items []domain.CartItem) []domain.CartItem {
	return slices.DeleteFunc(items, func(it domain.CartItem) bool {
		return it.Key() == a.Key
	})
}

func (a RemoveProduct) apply(items []domain.CartItem) []domain.CartItem {
	return slices.DeleteFunc(items, func(it domain.CartItem) bool {
		return it.ProductID == a.ProductID
	})
}

func (a UpdateQuantity) apply(items []domain.CartItem) []domain.CartItem {
	if a.Quantity <= 0 {
		return RemoveItem{Key: a.Key}.apply(items)
	}
	for i := range items {
		if items[i].Key() == a.Key {
			items[i].Quantity = min(a.Quantity, MaxLineQuantity)
			break
		}
	}
	return items
}

func (a Clear) apply(_ []domain.CartItem) []domain.CartItem {
	return nil
}

func (a Load) apply(_ []domain.CartItem) []domain.CartItem {
	var items []domain.CartItem
	for _, it := range a.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			continue
		}
		items = AddItem{Item: it}.apply(items)
	}
	return items
}

// Reduce returns the state that results from applying a to s. s is not
// modified.
func Reduce(s State, a Action) State {
	items := a.apply(slices.Clone(s.Items))
	return newState(items)
}

func newState(items []domain.CartItem) State {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return State{Items: items, Total: total}
}

// Count is the number of units across all lines
func (s State) Count() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}
