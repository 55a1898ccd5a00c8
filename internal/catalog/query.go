package catalog

import (
	"net/url"
	"slices"
	"strconv"

	"cleat-store/internal/domain"

	"github.com/shopspring/decimal"
)

// URL parameter names of a listing
const (
	ParamCategory = "category"
	ParamBrand    = "brand"
	ParamSize     = "size"
	ParamColor    = "color"
	ParamPriceMin = "price_min"
	ParamPriceMax = "price_max"
	ParamSearch   = "q"
	ParamSort     = "sort"
)

// ParseQuery builds a normalized FilterState from URL values. Malformed
// numbers fall back to the default bounds.
func ParseQuery(v url.Values) FilterState {
	f := DefaultFilters()
	f.Categories = v[ParamCategory]
	f.Brands = v[ParamBrand]
	f.Sizes = v[ParamSize]
	f.Colors = v[ParamColor]
	f.Search = v.Get(ParamSearch)
	f.Sort = ParseSortKey(v.Get(ParamSort))

	if s := v.Get(ParamPriceMin); s != "" {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			f.PriceRange.Min = n
		}
	}
	if s := v.Get(ParamPriceMax); s != "" {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			f.PriceRange.Max = n
		}
	}
	return f.Normalize()
}

// Encode renders f as URL values, omitting anything left at its default
func (f FilterState) Encode() url.Values {
	v := url.Values{}
	if f.Search != "" {
		v.Set(ParamSearch, f.Search)
	}
	if f.Sort != "" && f.Sort != SortRelevance {
		v.Set(ParamSort, string(f.Sort))
	}
	for _, c := range f.Categories {
		v.Add(ParamCategory, c)
	}
	for _, b := range f.Brands {
		v.Add(ParamBrand, b)
	}
	for _, s := range f.Sizes {
		v.Add(ParamSize, s)
	}
	for _, c := range f.Colors {
		v.Add(ParamColor, c)
	}
	if f.PriceRange.Min > DefaultPriceMin {
		v.Set(ParamPriceMin, strconv.FormatFloat(f.PriceRange.Min, 'f', -1, 64))
	}
	if f.PriceRange.Max < DefaultPriceMax {
		v.Set(ParamPriceMax, strconv.FormatFloat(f.PriceRange.Max, 'f', -1, 64))
	}
	return v
}

// FacetsOf collects the distinct categories and brands of the visible
// products, sorted, together with their price bounds
func FacetsOf(products []domain.Product) domain.Facets {
	var facets domain.Facets
	first := true
	for i := range products {
		p := &products[i]
		if !p.Visible() {
			continue
		}
		if !slices.Contains(facets.Categories, p.Category) {
			facets.Categories = append(facets.Categories, p.Category)
		}
		if !slices.Contains(facets.Brands, p.Brand) {
			facets.Brands = append(facets.Brands, p.Brand)
		}
		if first {
			facets.MinPrice, facets.MaxPrice = p.Price, p.Price
			first = false
			continue
		}
		facets.MinPrice = decimal.Min(facets.MinPrice, p.Price)
		facets.MaxPrice = decimal.Max(facets.MaxPrice, p.Price)
	}
	slices.Sort(facets.Categories)
	slices.Sort(facets.Brands)
	return facets
}
