package salespoints

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists sales points in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts one accrual. The (sales_id, order_id) unique constraint
// makes accrual idempotent per order.
func (r *Repository) Create(ctx context.Context, sp SalesPoint) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO sales_points (sales_id, order_id, print_count, points, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id`,
		sp.SalesID, sp.OrderID, sp.PrintCount, sp.Points,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: order %d", ErrAlreadyAccrued, sp.OrderID)
		}
		return 0, err
	}
	return id, nil
}

// GetBySales returns all accruals for one sales person, newest first.
func (r *Repository) GetBySales(ctx context.Context, salesID int64) ([]SalesPoint, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, sales_id, order_id, print_count, points
		FROM sales_points
		WHERE sales_id = $1
		ORDER BY id DESC`, salesID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SalesPoint
	for rows.Next() {
		var sp SalesPoint
		if err := rows.Scan(&sp.ID, &sp.SalesID, &sp.OrderID, &sp.PrintCount, &sp.Points); err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// Recap aggregates accruals per sales person.
func (r *Repository) Recap(ctx context.Context) ([]Recap, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT sales_id, COUNT(*), COALESCE(SUM(points), 0)
		FROM sales_points
		GROUP BY sales_id
		ORDER BY SUM(points) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Recap
	for rows.Next() {
		var rc Recap
		if err := rows.Scan(&rc.SalesID, &rc.OrderCount, &rc.TotalPoints); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}
