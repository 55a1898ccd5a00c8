// Package catalog narrows, orders and pages product listings.
//
// Apply is the in-memory engine used on already-fetched products. FetchPage
// and Paginator drive incremental retrieval from a Source such as the
// Postgres product repository.
package catalog

import (
	"math"
	"slices"
	"strings"

	"cleat-store/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	// DefaultPriceMin and DefaultPriceMax bound the price range of an untouched listing
	DefaultPriceMin = 0
	DefaultPriceMax = 2000
)

// PriceRange is a closed interval [Min, Max]
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether price lies inside the closed interval
func (r PriceRange) Contains(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(decimal.NewFromFloat(r.Min)) &&
		price.LessThanOrEqual(decimal.NewFromFloat(r.Max))
}

// IsDefault reports whether the range is the untouched [0, 2000]
func (r PriceRange) IsDefault() bool {
	return r.Min <= DefaultPriceMin && r.Max >= DefaultPriceMax
}

// FilterState holds the narrowing and ordering criteria of one listing view
type FilterState struct {
	Categories []string   `json:"categories"`
	Brands     []string   `json:"brands"`
	Sizes      []string   `json:"sizes"`
	Colors     []string   `json:"colors"`
	PriceRange PriceRange `json:"price_range"`
	Search     string     `json:"search"`
	Sort       SortKey    `json:"sort"`
}

// DefaultFilters returns a FilterState with no active axes
func DefaultFilters() FilterState {
	return FilterState{
		PriceRange: PriceRange{Min: DefaultPriceMin, Max: DefaultPriceMax},
		Sort:       SortRelevance,
	}
}

// Normalize clamps the price range and tidies the set axes. Bad input is
// corrected, never rejected.
func (f FilterState) Normalize() FilterState {
	out := f
	out.Categories = normalizeSet(f.Categories)
	out.Brands = normalizeSet(f.Brands)
	out.Sizes = normalizeSet(f.Sizes)
	out.Colors = normalizeSet(f.Colors)
	out.Search = strings.TrimSpace(f.Search)
	out.Sort = ParseSortKey(string(f.Sort))

	lo, hi := f.PriceRange.Min, f.PriceRange.Max
	if math.IsNaN(lo) || lo < 0 {
		lo = DefaultPriceMin
	}
	if math.IsNaN(hi) || math.IsInf(hi, 0) {
		hi = DefaultPriceMax
	}
	if hi < 0 {
		hi = 0
	}
	if lo > hi {
		lo = hi
	}
	out.PriceRange = PriceRange{Min: lo, Max: hi}
	return out
}

// HasActiveFilters reports whether any narrowing axis other than search is set
func (f FilterState) HasActiveFilters() bool {
	return len(f.Categories) > 0 ||
		len(f.Brands) > 0 ||
		len(f.Sizes) > 0 ||
		len(f.Colors) > 0 ||
		f.PriceRange.Min > DefaultPriceMin ||
		f.PriceRange.Max < DefaultPriceMax
}

// Clear resets every axis but keeps the search text and sort order
func (f FilterState) Clear() FilterState {
	out := DefaultFilters()
	out.Search = f.Search
	out.Sort = f.Sort
	return out
}

// Apply returns the visible subset of products in display order. Inactive
// products are always dropped. The input slice is not modified.
func Apply(products []domain.Product, f FilterState) []domain.Product {
	f = f.Normalize()

	out := make([]domain.Product, 0, len(products))
	for i := range products {
		if Matches(&products[i], f) {
			out = append(out, products[i])
		}
	}

	sortProducts(out, f.Sort)
	return out
}

// Matches reports whether p satisfies every active axis of f
func Matches(p *domain.Product, f FilterState) bool {
	if !p.Visible() {
		return false
	}
	if f.Search != "" && !MatchesSearch(p, f.Search) {
		return false
	}
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, p.Category) {
		return false
	}
	if len(f.Brands) > 0 && !slices.Contains(f.Brands, p.Brand) {
		return false
	}
	if len(f.Sizes) > 0 && !intersects(p.Sizes, f.Sizes) {
		return false
	}
	if len(f.Colors) > 0 && !intersects(p.Colors, f.Colors) {
		return false
	}
	return f.PriceRange.Contains(p.Price)
}

// MatchesSearch is a case-insensitive substring test against the name,
// brand, category and tags of p
func MatchesSearch(p *domain.Product, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Brand), term) ||
		strings.Contains(strings.ToLower(p.Category), term) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

func intersects(have, want []string) bool {
	for _, v := range have {
		if slices.Contains(want, v) {
			return true
		}
	}
	return false
}

func normalizeSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
