package repository

import (
	"context"
	"database/sql"
	"fmt"

	"cleat-store/internal/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// FacetRepository reads the values a storefront listing can be narrowed by
type FacetRepository interface {
	Facets(ctx context.Context) (domain.Facets, error)
	Categories(ctx context.Context) ([]string, error)
	Brands(ctx context.Context) ([]string, error)
}

type facetRepository struct {
	db *sql.DB
}

// NewFacetRepository creates a new instance of FacetRepository
func NewFacetRepository(db *sql.DB) FacetRepository {
	return &facetRepository{db: db}
}

// Facets runs the category, brand and price range queries concurrently
func (r *facetRepository) Facets(ctx context.Context) (domain.Facets, error) {
	var facets domain.Facets
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		categories, err := r.Categories(ctx)
		facets.Categories = categories
		return err
	})
	g.Go(func() error {
		brands, err := r.Brands(ctx)
		facets.Brands = brands
		return err
	})
	g.Go(func() error {
		lo, hi, err := r.priceBounds(ctx)
		facets.MinPrice, facets.MaxPrice = lo, hi
		return err
	})

	if err := g.Wait(); err != nil {
		return domain.Facets{}, err
	}
	return facets, nil
}

// Categories lists the distinct categories of active products
func (r *facetRepository) Categories(ctx context.Context) ([]string, error) {
	values, err := r.distinct(ctx, "category")
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return values, nil
}

// Brands lists the distinct brands of active products
func (r *facetRepository) Brands(ctx context.Context) ([]string, error) {
	values, err := r.distinct(ctx, "brand")
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	return values, nil
}

// distinct is only called with fixed column names
func (r *facetRepository) distinct(ctx context.Context, column string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT %[1]s
		FROM products
		WHERE status = 'active' AND %[1]s <> ''
		ORDER BY %[1]s ASC
	`, column)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (r *facetRepository) priceBounds(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	query := `
		SELECT COALESCE(MIN(price), 0), COALESCE(MAX(price), 0)
		FROM products
		WHERE status = 'active'
	`

	var lo, hi decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query).Scan(&lo, &hi); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to read price bounds: %w", err)
	}
	return lo, hi, nil
}
