package customers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists customers in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const customerColumns = `id, sales_id, name, phone, address, status, standard_commission, extra_commission, repeat_order_count, join_date, created_at, updated_at`

// Get fetches one customer by id.
func (r *Repository) Get(ctx context.Context, id int64) (Customer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	var c Customer
	err := row.Scan(&c.ID, &c.SalesID, &c.Name, &c.Phone, &c.Address, &c.Status, &c.StandardCommission, &c.ExtraCommission, &c.RepeatOrderCount, &c.JoinDate, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrCustomerNotFound
		}
		return Customer{}, err
	}
	return c, nil
}

// CountOrders returns the number of orders placed by the customer,
// excluding the given order id.
func (r *Repository) CountOrders(ctx context.Context, customerID, excludeOrderID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE customer_id = $1 AND id <> $2`, customerID, excludeOrderID).Scan(&count)
	return count, err
}

// MarkRepeat bumps the repeat order counter and flips status forward.
// The status guard is in SQL so concurrent order creations cannot revert
// a repeat customer.
func (r *Repository) MarkRepeat(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE customers
		SET repeat_order_count = repeat_order_count + 1,
		    status = 'repeat',
		    updated_at = NOW()
		WHERE id = $1`, id)
	return err
}
