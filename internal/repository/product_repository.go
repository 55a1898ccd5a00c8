package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"cleat-store/internal/catalog"
	"cleat-store/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	SoftDelete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	QueryPage(ctx context.Context, q catalog.Query, cursor string, limit int) (catalog.RawPage, error)
}

const productColumns = `id, name, brand, category, description, tags, images, price, original_price,
		discount_percentage, is_on_sale, is_new, in_stock, stock_quantity, sizes, colors,
		rating, review_count, status, created_by, created_at, updated_at`

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create inserts a new product
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Brand,
		product.Category,
		product.Description,
		nonNil(product.Tags),
		nonNil(product.Images),
		product.Price,
		nullDecimal(product.OriginalPrice),
		product.DiscountPercentage,
		product.IsOnSale,
		product.IsNew,
		product.InStock,
		product.StockQuantity,
		nonNil(product.Sizes),
		nonNil(product.Colors),
		product.Rating,
		product.ReviewCount,
		product.Status,
		product.CreatedBy,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update overwrites the editable fields of a product. Rating, review count,
// creator and creation time are left alone.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	if _, err := uuid.Parse(product.ID); err != nil {
		return ErrProductNotFound
	}

	query := `
		UPDATE products
		SET name = $2, brand = $3, category = $4, description = $5, tags = $6, images = $7,
		    price = $8, original_price = $9, discount_percentage = $10, is_on_sale = $11,
		    is_new = $12, in_stock = $13, stock_quantity = $14, sizes = $15, colors = $16,
		    status = $17, updated_at = $18
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Brand,
		product.Category,
		product.Description,
		nonNil(product.Tags),
		nonNil(product.Images),
		product.Price,
		nullDecimal(product.OriginalPrice),
		product.DiscountPercentage,
		product.IsOnSale,
		product.IsNew,
		product.InStock,
		product.StockQuantity,
		nonNil(product.Sizes),
		nonNil(product.Colors),
		product.Status,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// SoftDelete hides a product from the storefront by marking it inactive
func (r *productRepository) SoftDelete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrProductNotFound
	}

	query := `UPDATE products SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, domain.ProductStatusInactive)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID whatever its status
func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrProductNotFound
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id), pgtype.NewMap())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// QueryPage returns up to limit active products matching q, resuming after
// cursor. Pages are keyed on (order column, id) so rows inserted between
// calls neither repeat nor shift the listing.
func (r *productRepository) QueryPage(ctx context.Context, q catalog.Query, cursor string, limit int) (catalog.RawPage, error) {
	if limit <= 0 {
		limit = catalog.DefaultPageSize
	}

	column, sqlType := orderColumn(q.Order.Field)
	dir, cmp := "ASC", ">"
	if q.Order.Desc {
		dir, cmp = "DESC", "<"
	}

	where := []string{"status = 'active'"}
	args := []any{}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	// A single value is an equality match, several are a set membership
	switch len(q.Categories) {
	case 0:
	case 1:
		add("category = $%d", q.Categories[0])
	default:
		add("category = ANY($%d)", q.Categories)
	}
	switch len(q.Brands) {
	case 0:
	case 1:
		add("brand = $%d", q.Brands[0])
	default:
		add("brand = ANY($%d)", q.Brands)
	}
	if len(q.Sizes) > 0 {
		add("sizes && $%d::text[]", q.Sizes)
	}
	if len(q.Colors) > 0 {
		add("colors && $%d::text[]", q.Colors)
	}
	if q.PriceRange != nil {
		add("price >= $%d", decimal.NewFromFloat(q.PriceRange.Min))
		add("price <= $%d", decimal.NewFromFloat(q.PriceRange.Max))
	}
	if q.InStock != nil {
		add("in_stock = $%d", *q.InStock)
	}
	if q.IsNew != nil {
		add("is_new = $%d", *q.IsNew)
	}
	if q.IsOnSale != nil {
		add("is_on_sale = $%d", *q.IsOnSale)
	}
	if q.MinRating != nil {
		add("rating >= $%d", *q.MinRating)
	}

	if cursor != "" {
		c, err := decodeCursor(cursor, q.Order)
		if err != nil {
			return catalog.RawPage{}, err
		}
		args = append(args, c.Value, c.ID)
		where = append(where, fmt.Sprintf("(%s, id) %s ($%d::%s, $%d::uuid)",
			column, cmp, len(args)-1, sqlType, len(args)))
	}

	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE %s
		ORDER BY %s %s, id %s
		LIMIT $%d
	`, productColumns, strings.Join(where, " AND "), column, dir, dir, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return catalog.RawPage{}, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	m := pgtype.NewMap()
	products := []domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows, m)
		if err != nil {
			return catalog.RawPage{}, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *product)
	}

	if err = rows.Err(); err != nil {
		return catalog.RawPage{}, fmt.Errorf("error iterating products: %w", err)
	}

	page := catalog.RawPage{Products: products}
	if n := len(products); n > 0 {
		page.Cursor = encodeCursor(q.Order, &products[n-1])
	}
	return page, nil
}

func scanProduct(row rowScanner, m *pgtype.Map) (*domain.Product, error) {
	product := &domain.Product{}
	var originalPrice decimal.NullDecimal
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Brand,
		&product.Category,
		&product.Description,
		m.SQLScanner(&product.Tags),
		m.SQLScanner(&product.Images),
		&product.Price,
		&originalPrice,
		&product.DiscountPercentage,
		&product.IsOnSale,
		&product.IsNew,
		&product.InStock,
		&product.StockQuantity,
		m.SQLScanner(&product.Sizes),
		m.SQLScanner(&product.Colors),
		&product.Rating,
		&product.ReviewCount,
		&product.Status,
		&product.CreatedBy,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if originalPrice.Valid {
		product.OriginalPrice = &originalPrice.Decimal
	}
	return product, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
