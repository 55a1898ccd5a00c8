package repository

import (
	"context"
	"database/sql"
	"fmt"

	"cleat-store/internal/domain"

	"github.com/google/uuid"
)

// CartRepository stores the cart lines of signed-in users, one row per
// (product, size, color). It satisfies cart.Store with the user id as owner.
type CartRepository interface {
	Load(ctx context.Context, owner string) ([]domain.CartItem, error)
	Save(ctx context.Context, owner string, items []domain.CartItem) error
	Delete(ctx context.Context, owner string) error
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

// Load returns the lines of owner in insertion order
func (r *cartRepository) Load(ctx context.Context, owner string) ([]domain.CartItem, error) {
	userID, err := uuid.Parse(owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: invalid owner %q", owner)
	}

	query := `
		SELECT product_id, name, unit_price, image, size, color, quantity
		FROM cart_items
		WHERE user_id = $1
		ORDER BY created_at ASC, product_id, size, color
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		err := rows.Scan(
			&item.ProductID,
			&item.Name,
			&item.UnitPrice,
			&item.Image,
			&item.Size,
			&item.Color,
			&item.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}

// Save makes the stored lines of owner equal to items in one transaction:
// every line is upserted and rows whose key is gone are deleted.
func (r *cartRepository) Save(ctx context.Context, owner string, items []domain.CartItem) error {
	userID, err := uuid.Parse(owner)
	if err != nil {
		return fmt.Errorf("failed to save cart: invalid owner %q", owner)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO cart_items (user_id, product_id, size, color, name, unit_price, image, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, clock_timestamp(), NOW())
		ON CONFLICT (user_id, product_id, size, color)
		DO UPDATE SET name = EXCLUDED.name, unit_price = EXCLUDED.unit_price, image = EXCLUDED.image,
		              quantity = EXCLUDED.quantity, updated_at = NOW()
	`

	keys := make([]string, 0, len(items))
	for _, item := range items {
		_, err := tx.ExecContext(
			ctx,
			upsert,
			userID,
			item.ProductID,
			item.Size,
			item.Color,
			item.Name,
			item.UnitPrice,
			item.Image,
			item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert cart item: %w", err)
		}
		keys = append(keys, item.Key().String())
	}

	prune := `
		DELETE FROM cart_items
		WHERE user_id = $1
		  AND (product_id::text || '|' || size || '|' || color) <> ALL($2::text[])
	`
	if _, err := tx.ExecContext(ctx, prune, userID, keys); err != nil {
		return fmt.Errorf("failed to prune cart items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cart: %w", err)
	}
	return nil
}

// Delete removes every line of owner
func (r *cartRepository) Delete(ctx context.Context, owner string) error {
	userID, err := uuid.Parse(owner)
	if err != nil {
		return fmt.Errorf("failed to delete cart: invalid owner %q", owner)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}
