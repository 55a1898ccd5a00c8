package repository

import (
	"context"
	"database/sql"
	"fmt"

	"cleat-store/internal/domain"

	"github.com/google/uuid"
)

// FavoritesRepository stores the saved products of signed-in users
type FavoritesRepository interface {
	Load(ctx context.Context, owner string) ([]domain.FavoriteItem, error)
	Save(ctx context.Context, owner string, items []domain.FavoriteItem) error
	Delete(ctx context.Context, owner string) error
}

type favoritesRepository struct {
	db *sql.DB
}

// NewFavoritesRepository creates a new instance of FavoritesRepository
func NewFavoritesRepository(db *sql.DB) FavoritesRepository {
	return &favoritesRepository{db: db}
}

func (r *favoritesRepository) Load(ctx context.Context, owner string) ([]domain.FavoriteItem, error) {
	userID, err := uuid.Parse(owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load favorites: invalid owner %q", owner)
	}

	query := `
		SELECT product_id, name, price, image, brand, category
		FROM favorites
		WHERE user_id = $1
		ORDER BY created_at ASC, product_id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}
	defer rows.Close()

	items := []domain.FavoriteItem{}
	for rows.Next() {
		var item domain.FavoriteItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Price, &item.Image, &item.Brand, &item.Category); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating favorites: %w", err)
	}

	return items, nil
}

// Save replaces the stored favorites of owner with items in one transaction
func (r *favoritesRepository) Save(ctx context.Context, owner string, items []domain.FavoriteItem) error {
	userID, err := uuid.Parse(owner)
	if err != nil {
		return fmt.Errorf("failed to save favorites: invalid owner %q", owner)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO favorites (user_id, product_id, name, price, image, brand, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, clock_timestamp())
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price, image = EXCLUDED.image,
		              brand = EXCLUDED.brand, category = EXCLUDED.category
	`

	ids := make([]string, 0, len(items))
	for _, item := range items {
		_, err := tx.ExecContext(ctx, upsert,
			userID, item.ProductID, item.Name, item.Price, item.Image, item.Brand, item.Category)
		if err != nil {
			return fmt.Errorf("failed to upsert favorite: %w", err)
		}
		ids = append(ids, item.ProductID)
	}

	prune := `DELETE FROM favorites WHERE user_id = $1 AND product_id::text <> ALL($2::text[])`
	if _, err := tx.ExecContext(ctx, prune, userID, ids); err != nil {
		return fmt.Errorf("failed to prune favorites: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit favorites: %w", err)
	}
	return nil
}

func (r *favoritesRepository) Delete(ctx context.Context, owner string) error {
	userID, err := uuid.Parse(owner)
	if err != nil {
		return fmt.Errorf("failed to delete favorites: invalid owner %q", owner)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete favorites: %w", err)
	}
	return nil
}
