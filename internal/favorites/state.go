// Package favorites keeps a shopper's saved products, written through to a
// backing store the same way as the cart.
package favorites

import (
	"slices"

	"cleat-store/internal/domain"
)

// State is an immutable favorites snapshot, one entry per product
type State struct {
	Items []domain.FavoriteItem `json:"items"`
}

// Contains reports whether productID is saved
func (s State) Contains(productID string) bool {
	return slices.ContainsFunc(s.Items, func(it domain.FavoriteItem) bool {
		return it.ProductID == productID
	})
}

// Action is a favorites state transition
type Action interface {
	apply(s State) []domain.FavoriteItem
	name() string
}

// Add saves Item. Adding a product that is already saved changes nothing.
type Add struct {
	Item domain.FavoriteItem
}

// Remove drops ProductID
type Remove struct {
	ProductID string
}

// Toggle adds Item when it is absent and removes it when present
type Toggle struct {
	Item domain.FavoriteItem
}

// Clear drops every entry
type Clear struct{}

// Load replaces the list with Items, dropping duplicates and blank ids
type Load struct {
	Items []domain.FavoriteItem
}

func (a Add) name() string    { return "add" }
func (a Remove) name() string { return "remove" }
func (a Toggle) name() string { return "toggle" }
func (a Clear) name() string  { return "clear" }
func (a Load) name() string   { return "load" }

func (a Add) apply(s State) []domain.FavoriteItem {
	if s.Contains(a.Item.ProductID) {
		return s.Items
	}
	return append(s.Items, a.Item)
}

func (a Remove) apply(s State) []domain.FavoriteItem {
	return slices.DeleteFunc(s.Items, func(it domain.FavoriteItem) bool {
		return it.ProductID == a.ProductID
	})
}

func (a Toggle) apply(s State) []domain.FavoriteItem {
	if s.Contains(a.Item.ProductID) {
		return Remove{ProductID: a.Item.ProductID}.apply(s)
	}
	return Add{Item: a.Item}.apply(s)
}

func (a Clear) apply(_ State) []domain.FavoriteItem {
	return nil
}

func (a Load) apply(_ State) []domain.FavoriteItem {
	var s State
	for _, it := range a.Items {
		if it.ProductID == "" {
			continue
		}
		s.Items = Add{Item: it}.apply(s)
	}
	return s.Items
}

// Reduce returns the state that results from applying a to s
func Reduce(s State, a Action) State {
	return State{Items: a.apply(State{Items: slices.Clone(s.Items)})}
}
