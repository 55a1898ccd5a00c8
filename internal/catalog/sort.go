package catalog

import (
	"cmp"
	"slices"

	"cleat-store/internal/domain"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey selects the display order of a listing
type SortKey string

const (
	SortRelevance SortKey = "relevance"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortNameAsc   SortKey = "name-asc"
	SortNameDesc  SortKey = "name-desc"
	SortRating    SortKey = "rating"
	SortNewest    SortKey = "newest"
)

// SortKeys lists every supported key
var SortKeys = []SortKey{
	SortRelevance, SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc, SortRating, SortNewest,
}

// ParseSortKey maps unknown or empty input to SortRelevance
func ParseSortKey(s string) SortKey {
	k := SortKey(s)
	if slices.Contains(SortKeys, k) {
		return k
	}
	return SortRelevance
}

// storeLocale drives name collation
var storeLocale = language.BrazilianPortuguese

// sortProducts orders products in place. The sort is stable so ties keep
// their input order, which also makes re-sorting a sorted list a no-op.
func sortProducts(products []domain.Product, key SortKey) {
	switch key {
	case SortPriceAsc:
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			return a.Price.Cmp(b.Price)
		})
	case SortPriceDesc:
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			return b.Price.Cmp(a.Price)
		})
	case SortNameAsc, SortNameDesc:
		// Collator keeps internal buffers and is not safe to share
		c := collate.New(storeLocale)
		desc := key == SortNameDesc
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			if desc {
				return c.CompareString(b.Name, a.Name)
			}
			return c.CompareString(a.Name, b.Name)
		})
	case SortRating:
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			return cmp.Compare(b.Rating, a.Rating)
		})
	case SortNewest:
		// No secondary key: products that are not flagged new keep arrival order
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			return boolRank(b.IsNew) - boolRank(a.IsNew)
		})
	default:
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			ad, bd := a.DiscountPercentage > 0, b.DiscountPercentage > 0
			if ad != bd {
				return boolRank(bd) - boolRank(ad)
			}
			return cmp.Compare(b.Rating, a.Rating)
		})
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
