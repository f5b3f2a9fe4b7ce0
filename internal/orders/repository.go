package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mitracetak/mitra-erp/internal/carts"
	"github.com/mitracetak/mitra-erp/internal/catalog"
	"github.com/mitracetak/mitra-erp/internal/ledger"
	"github.com/mitracetak/mitra-erp/internal/platform/db"
	"github.com/mitracetak/mitra-erp/internal/shared"
)

// TxRepository bundles every table an order transaction touches: product
// row locks, the order and its items, stock movements, payments, and the
// cart rows a checkout consumes. One interface per transaction keeps the
// whole flow atomic behind a single commit.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, productID int64) (catalog.Product, error)
	DecrementProductStock(ctx context.Context, productID int64, qty float64) (float64, error)
	IncrementProductStock(ctx context.Context, productID int64, qty float64) (float64, error)

	GetOrderForUpdate(ctx context.Context, id int64) (Order, error)
	InsertOrder(ctx context.Context, o Order) (int64, error)
	UpdateOrder(ctx context.Context, o Order) error
	DeleteOrder(ctx context.Context, id int64) error
	InsertItems(ctx context.Context, orderID int64, items []OrderItem) error
	DeleteItems(ctx context.Context, orderID int64) error

	InsertMovement(ctx context.Context, m ledger.StockMovement) (int64, error)

	GetPaymentForOrder(ctx context.Context, orderID int64) (*PaymentTransaction, error)
	InsertPayment(ctx context.Context, p PaymentTransaction) (int64, error)
	UpdatePayment(ctx context.Context, id int64, amount float64, paidThrough PaidThrough) error
	DeletePayment(ctx context.Context, id int64) error

	ListCartsByUser(ctx context.Context, userID int64) ([]carts.Cart, error)
	ClearCartsByUser(ctx context.Context, userID int64) error
}

// Repository persists orders in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

const orderColumns = `id, customer_id, sales_id, order_number, sub_total, tax_total, discount_total, total, paid, due, status, po_date, delivery_date, notes, created_by, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.SalesID, &o.OrderNumber, &o.SubTotal, &o.TaxTotal,
		&o.DiscountTotal, &o.Total, &o.Paid, &o.Due, &o.Status, &o.PODate, &o.DeliveryDate,
		&o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, err
	}
	return o, nil
}

func queryItems(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, orderID int64) ([]OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, subtotal
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Get returns an order with its items.
func (r *Repository) Get(ctx context.Context, id int64) (Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return Order{}, err
	}
	o.Items, err = queryItems(ctx, r.pool, id)
	return o, err
}

// List returns orders matching the filter, newest first, plus the total count.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]Order, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if f.CustomerID != nil {
		args = append(args, *f.CustomerID)
		where += fmt.Sprintf(` AND customer_id = $%d`, len(args))
	}
	if f.DateFrom != nil {
		args = append(args, *f.DateFrom)
		where += fmt.Sprintf(` AND created_at >= $%d`, len(args))
	}
	if f.DateTo != nil {
		args = append(args, *f.DateTo)
		where += fmt.Sprintf(` AND created_at < $%d`, len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders`+where+
		fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

// GetPayments returns all payment transactions for an order, oldest first.
func (r *Repository) GetPayments(ctx context.Context, orderID int64) ([]PaymentTransaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, amount, paid_through, created_at
		FROM transactions
		WHERE order_id = $1
		ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PaymentTransaction
	for rows.Next() {
		var p PaymentTransaction
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Amount, &p.PaidThrough, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type txRepo struct {
	tx pgx.Tx
}

func (r *txRepo) GetProductForUpdate(ctx context.Context, productID int64) (catalog.Product, error) {
	row := r.tx.QueryRow(ctx, `
		SELECT id, name, selling_price, quantity, status
		FROM products
		WHERE id = $1
		FOR UPDATE`, productID)
	var p catalog.Product
	if err := row.Scan(&p.ID, &p.Name, &p.SellingPrice, &p.Quantity, &p.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Product{}, catalog.ErrProductNotFound
		}
		return catalog.Product{}, err
	}
	return p, nil
}

// DecrementProductStock subtracts qty and returns the new balance. The
// guard in the WHERE clause is the last line of defence against a
// concurrent writer; callers are expected to have locked the row first.
func (r *txRepo) DecrementProductStock(ctx context.Context, productID int64, qty float64) (float64, error) {
	var balance float64
	err := r.tx.QueryRow(ctx, `
		UPDATE products SET quantity = quantity - $1, updated_at = NOW()
		WHERE id = $2 AND quantity >= $1
		RETURNING quantity`, qty, productID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrInsufficientStock
	}
	return balance, err
}

func (r *txRepo) IncrementProductStock(ctx context.Context, productID int64, qty float64) (float64, error) {
	var balance float64
	err := r.tx.QueryRow(ctx, `
		UPDATE products SET quantity = quantity + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING quantity`, qty, productID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, catalog.ErrProductNotFound
	}
	return balance, err
}

func (r *txRepo) GetOrderForUpdate(ctx context.Context, id int64) (Order, error) {
	o, err := scanOrder(r.tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return Order{}, err
	}
	o.Items, err = queryItems(ctx, r.tx, id)
	return o, err
}

func (r *txRepo) InsertOrder(ctx context.Context, o Order) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO orders (customer_id, sales_id, order_number, sub_total, tax_total, discount_total, total, paid, due, status, po_date, delivery_date, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		RETURNING id`,
		o.CustomerID, o.SalesID, o.OrderNumber, o.SubTotal, o.TaxTotal, o.DiscountTotal,
		o.Total, o.Paid, o.Due, o.Status, o.PODate, o.DeliveryDate, o.Notes, o.CreatedBy,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: orders: order number %s", shared.ErrDuplicate, o.OrderNumber)
		}
		return 0, err
	}
	return id, nil
}

func (r *txRepo) UpdateOrder(ctx context.Context, o Order) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE orders SET customer_id = $1, sales_id = $2, sub_total = $3, tax_total = $4,
			discount_total = $5, total = $6, paid = $7, due = $8, status = $9,
			po_date = $10, delivery_date = $11, notes = $12, updated_at = NOW()
		WHERE id = $13`,
		o.CustomerID, o.SalesID, o.SubTotal, o.TaxTotal, o.DiscountTotal, o.Total,
		o.Paid, o.Due, o.Status, o.PODate, o.DeliveryDate, o.Notes, o.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *txRepo) DeleteOrder(ctx context.Context, id int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *txRepo) InsertItems(ctx context.Context, orderID int64, items []OrderItem) error {
	for _, it := range items {
		_, err := r.tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5)`,
			orderID, it.ProductID, it.Quantity, it.UnitPrice, it.Subtotal)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepo) DeleteItems(ctx context.Context, orderID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID)
	return err
}

func (r *txRepo) InsertMovement(ctx context.Context, m ledger.StockMovement) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO stock_movement (product_id, movement_type, quantity, balance_after, reference_type, reference_id, created_by, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id`,
		m.ProductID, m.MovementType, m.Quantity, m.BalanceAfter, m.ReferenceType, m.ReferenceID, m.CreatedBy, m.Notes,
	).Scan(&id)
	return id, err
}

func (r *txRepo) GetPaymentForOrder(ctx context.Context, orderID int64) (*PaymentTransaction, error) {
	row := r.tx.QueryRow(ctx, `
		SELECT id, order_id, amount, paid_through, created_at
		FROM transactions
		WHERE order_id = $1
		ORDER BY id
		LIMIT 1`, orderID)
	var p PaymentTransaction
	if err := row.Scan(&p.ID, &p.OrderID, &p.Amount, &p.PaidThrough, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *txRepo) InsertPayment(ctx context.Context, p PaymentTransaction) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO transactions (order_id, amount, paid_through, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id`,
		p.OrderID, p.Amount, p.PaidThrough,
	).Scan(&id)
	return id, err
}

func (r *txRepo) UpdatePayment(ctx context.Context, id int64, amount float64, paidThrough PaidThrough) error {
	_, err := r.tx.Exec(ctx, `UPDATE transactions SET amount = $1, paid_through = $2 WHERE id = $3`, amount, paidThrough, id)
	return err
}

func (r *txRepo) DeletePayment(ctx context.Context, id int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	return err
}

func (r *txRepo) ListCartsByUser(ctx context.Context, userID int64) ([]carts.Cart, error) {
	rows, err := r.tx.Query(ctx, `
		SELECT id, user_id, product_id, quantity, created_at, updated_at
		FROM carts
		WHERE user_id = $1
		ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []carts.Cart
	for rows.Next() {
		var c carts.Cart
		if err := rows.Scan(&c.ID, &c.UserID, &c.ProductID, &c.Quantity, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *txRepo) ClearCartsByUser(ctx context.Context, userID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	return err
}
