package ledger

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mitracetak/mitra-erp/internal/catalog"
	"github.com/mitracetak/mitra-erp/internal/platform/db"
)

// TxRepository exposes the transactional operations the service needs for
// manual adjustments: a locked read of the product row, the quantity write,
// and the movement append.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, productID int64) (catalog.Product, error)
	SetProductQuantity(ctx context.Context, productID int64, quantity float64) error
	InsertMovement(ctx context.Context, m StockMovement) (int64, error)
}

// Repository persists stock movements in PostgreSQL.
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

// GetByProduct returns all movements for a product, newest first.
func (r *Repository) GetByProduct(ctx context.Context, productID int64) ([]StockMovement, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, movement_type, quantity, balance_after, reference_type, reference_id, created_by, notes, created_at
		FROM stock_movement
		WHERE product_id = $1
		ORDER BY created_at DESC, id DESC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var movements []StockMovement
	for rows.Next() {
		var m StockMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.MovementType, &m.Quantity, &m.BalanceAfter, &m.ReferenceType, &m.ReferenceID, &m.CreatedBy, &m.Notes, &m.CreatedAt); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

type txRepo struct {
	tx pgx.Tx
}

func (r *txRepo) GetProductForUpdate(ctx context.Context, productID int64) (catalog.Product, error) {
	row := r.tx.QueryRow(ctx, `
		SELECT id, name, quantity, status
		FROM products
		WHERE id = $1
		FOR UPDATE`, productID)
	var p catalog.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Quantity, &p.Status); err != nil {
		if err == pgx.ErrNoRows {
			return catalog.Product{}, catalog.ErrProductNotFound
		}
		return catalog.Product{}, err
	}
	return p, nil
}

func (r *txRepo) SetProductQuantity(ctx context.Context, productID int64, quantity float64) error {
	_, err := r.tx.Exec(ctx, `UPDATE products SET quantity = $1, updated_at = NOW() WHERE id = $2`, quantity, productID)
	return err
}

func (r *txRepo) InsertMovement(ctx context.Context, m StockMovement) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO stock_movement (product_id, movement_type, quantity, balance_after, reference_type, reference_id, created_by, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id`,
		m.ProductID, m.MovementType, m.Quantity, m.BalanceAfter, m.ReferenceType, m.ReferenceID, m.CreatedBy, m.Notes,
	).Scan(&id)
	return id, err
}
