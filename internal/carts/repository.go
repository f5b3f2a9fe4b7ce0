package carts

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists carts in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListByUser returns the user's cart rows oldest first.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Cart, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, product_id, quantity, created_at, updated_at
		FROM carts WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Cart
	for rows.Next() {
		var c Cart
		if err := rows.Scan(&c.ID, &c.UserID, &c.ProductID, &c.Quantity, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// Upsert adds quantity to an existing cart line or creates one.
func (r *Repository) Upsert(ctx context.Context, userID, productID int64, quantity float64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO carts (user_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = carts.quantity + EXCLUDED.quantity, updated_at = NOW()`,
		userID, productID, quantity)
	return err
}

// Remove drops one cart line.
func (r *Repository) Remove(ctx context.Context, userID, productID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE user_id = $1 AND product_id = $2`, userID, productID)
	return err
}

// Clear drops every cart line for the user.
func (r *Repository) Clear(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	return err
}
