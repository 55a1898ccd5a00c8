package catalog

import (
	"context"
	"fmt"
	"time"

	"cleat-store/internal/domain"
	"cleat-store/internal/metrics"
	"cleat-store/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
)

// DefaultPageSize is the number of products requested per page
const DefaultPageSize = 20

// OrderField is a sortable column of the product store
type OrderField string

const (
	OrderByCreatedAt OrderField = "created_at"
	OrderByPrice     OrderField = "price"
	OrderByName      OrderField = "name"
	OrderByRating    OrderField = "rating"
	OrderByDiscount  OrderField = "discount_percentage"
)

// Order is the store-side ordering of a query
type Order struct {
	Field OrderField
	Desc  bool
}

// Query is what the product store is asked for. Every query is implicitly
// scoped to active products.
type Query struct {
	Categories []string
	Brands     []string
	Sizes      []string
	Colors     []string
	PriceRange *PriceRange
	InStock    *bool
	IsNew      *bool
	IsOnSale   *bool
	MinRating  *float64
	Order      Order
}

// QueryFromFilters translates a listing's FilterState into a store Query.
// The price predicate is left out while the range is the default one.
// Search has no store-side counterpart and is applied by FetchPage.
func QueryFromFilters(f FilterState) Query {
	f = f.Normalize()
	q := Query{
		Categories: f.Categories,
		Brands:     f.Brands,
		Sizes:      f.Sizes,
		Colors:     f.Colors,
		Order:      OrderFor(f.Sort),
	}
	if !f.PriceRange.IsDefault() {
		r := f.PriceRange
		q.PriceRange = &r
	}
	return q
}

// OrderFor maps a display sort to the store ordering used to page through it
func OrderFor(key SortKey) Order {
	switch key {
	case SortPriceAsc:
		return Order{Field: OrderByPrice}
	case SortPriceDesc:
		return Order{Field: OrderByPrice, Desc: true}
	case SortNameAsc:
		return Order{Field: OrderByName}
	case SortNameDesc:
		return Order{Field: OrderByName, Desc: true}
	case SortRating:
		return Order{Field: OrderByRating, Desc: true}
	default:
		return Order{Field: OrderByCreatedAt, Desc: true}
	}
}

// RawPage is one page as returned by the store. Cursor is opaque and empty
// when the page was empty.
type RawPage struct {
	Products []domain.Product
	Cursor   string
}

// Source is a product store that can be paged through
type Source interface {
	QueryPage(ctx context.Context, q Query, cursor string, limit int) (RawPage, error)
}

// Page is one page of a listing after search has been applied
type Page struct {
	Products []domain.Product `json:"products"`
	Cursor   string           `json:"cursor,omitempty"`
	HasMore  bool             `json:"has_more"`
}

// FetchPage issues one page-sized query and applies the free-text search to
// the result. HasMore follows the short-page rule on the raw page: a page
// shorter than pageSize ends the listing. Because search runs after the
// fetch, a page may hold fewer products than pageSize while HasMore is true.
func FetchPage(ctx context.Context, src Source, q Query, search, cursor string, pageSize int) (Page, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	ctx, span := telemetry.StartSpan(ctx, "catalog.FetchPage")
	defer span.End()
	span.SetAttributes(
		attribute.Int("catalog.page_size", pageSize),
		attribute.Bool("catalog.continuation", cursor != ""),
	)

	start := time.Now()
	raw, err := src.QueryPage(ctx, q, cursor, pageSize)
	metrics.CatalogFetchLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CatalogFetchErrors.Inc()
		telemetry.RecordError(span, err)
		return Page{}, fmt.Errorf("failed to fetch product page: %w", err)
	}
	metrics.CatalogPagesFetched.Inc()

	products := make([]domain.Product, 0, len(raw.Products))
	for i := range raw.Products {
		p := &raw.Products[i]
		if !p.Visible() {
			continue
		}
		if search != "" && !MatchesSearch(p, search) {
			continue
		}
		products = append(products, *p)
	}

	span.SetAttributes(attribute.Int("catalog.returned", len(products)))
	return Page{
		Products: products,
		Cursor:   raw.Cursor,
		HasMore:  len(raw.Products) >= pageSize,
	}, nil
}
