package purchasing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mitracetak/mitra-erp/internal/catalog"
	"github.com/mitracetak/mitra-erp/internal/ledger"
	"github.com/mitracetak/mitra-erp/internal/platform/db"
	"github.com/mitracetak/mitra-erp/internal/shared"
)

// TxRepository bundles the tables a purchasing transaction touches.
type TxRepository interface {
	NextSequence(ctx context.Context) (int64, error)
	InsertPurchaseOrder(ctx context.Context, po PurchaseOrder) (int64, error)
	InsertItems(ctx context.Context, orderID int64, items []PurchaseItem) error
	GetForUpdate(ctx context.Context, id int64) (PurchaseOrder, error)
	SetStatus(ctx context.Context, id int64, status PurchaseStatus, stampReceived bool) error

	GetProductForUpdate(ctx context.Context, productID int64) (catalog.Product, error)
	IncrementProductStock(ctx context.Context, productID int64, qty float64) (float64, error)
	InsertMovement(ctx context.Context, m ledger.StockMovement) (int64, error)
}

// Repository persists purchase orders in PostgreSQL.
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

const poColumns = `id, supplier_id, order_number, status, total, notes, created_by, received_at, created_at, updated_at`

func scanPO(row pgx.Row) (PurchaseOrder, error) {
	var po PurchaseOrder
	err := row.Scan(&po.ID, &po.SupplierID, &po.OrderNumber, &po.Status, &po.Total,
		&po.Notes, &po.CreatedBy, &po.ReceivedAt, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, ErrPurchaseNotFound
		}
		return PurchaseOrder{}, err
	}
	return po, nil
}

func queryPOItems(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, orderID int64) ([]PurchaseItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, quantity, unit_cost, subtotal
		FROM purchase_order_items
		WHERE order_id = $1
		ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PurchaseItem
	for rows.Next() {
		var it PurchaseItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitCost, &it.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Get returns a purchase order with its items.
func (r *Repository) Get(ctx context.Context, id int64) (PurchaseOrder, error) {
	po, err := scanPO(r.pool.QueryRow(ctx, `SELECT `+poColumns+` FROM purchase_orders WHERE id = $1`, id))
	if err != nil {
		return PurchaseOrder{}, err
	}
	po.Items, err = queryPOItems(ctx, r.pool, id)
	return po, err
}

// List returns purchase orders, newest first.
func (r *Repository) List(ctx context.Context, status PurchaseStatus, p shared.Pagination) ([]PurchaseOrder, error) {
	query := `SELECT ` + poColumns + ` FROM purchase_orders`
	args := []any{}
	if status != "" {
		args = append(args, status)
		query += ` WHERE status = $1`
	}
	args = append(args, p.PerPage, p.Offset())
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PurchaseOrder
	for rows.Next() {
		po, err := scanPO(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, po)
	}
	return out, rows.Err()
}

type txRepo struct {
	tx pgx.Tx
}

func (r *txRepo) NextSequence(ctx context.Context) (int64, error) {
	var seq int64
	err := r.tx.QueryRow(ctx, `SELECT nextval('purchase_order_seq')`).Scan(&seq)
	return seq, err
}

func (r *txRepo) InsertPurchaseOrder(ctx context.Context, po PurchaseOrder) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO purchase_orders (supplier_id, order_number, status, total, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id`,
		po.SupplierID, po.OrderNumber, po.Status, po.Total, po.Notes, po.CreatedBy,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: purchasing: order number %s", shared.ErrDuplicate, po.OrderNumber)
		}
		return 0, err
	}
	return id, nil
}

func (r *txRepo) InsertItems(ctx context.Context, orderID int64, items []PurchaseItem) error {
	for _, it := range items {
		_, err := r.tx.Exec(ctx, `
			INSERT INTO purchase_order_items (order_id, product_id, quantity, unit_cost, subtotal)
			VALUES ($1, $2, $3, $4, $5)`,
			orderID, it.ProductID, it.Quantity, it.UnitCost, it.Subtotal)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepo) GetForUpdate(ctx context.Context, id int64) (PurchaseOrder, error) {
	po, err := scanPO(r.tx.QueryRow(ctx, `SELECT `+poColumns+` FROM purchase_orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return PurchaseOrder{}, err
	}
	po.Items, err = queryPOItems(ctx, r.tx, id)
	return po, err
}

func (r *txRepo) SetStatus(ctx context.Context, id int64, status PurchaseStatus, stampReceived bool) error {
	var err error
	if stampReceived {
		_, err = r.tx.Exec(ctx, `UPDATE purchase_orders SET status = $1, received_at = NOW(), updated_at = NOW() WHERE id = $2`, status, id)
	} else {
		_, err = r.tx.Exec(ctx, `UPDATE purchase_orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	}
	return err
}

func (r *txRepo) GetProductForUpdate(ctx context.Context, productID int64) (catalog.Product, error) {
	row := r.tx.QueryRow(ctx, `
		SELECT id, name, buying_price, quantity, status
		FROM products
		WHERE id = $1
		FOR UPDATE`, productID)
	var p catalog.Product
	if err := row.Scan(&p.ID, &p.Name, &p.BuyingPrice, &p.Quantity, &p.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Product{}, catalog.ErrProductNotFound
		}
		return catalog.Product{}, err
	}
	return p, nil
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
