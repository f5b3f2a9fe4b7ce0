package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists products in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const productColumns = `id, category_id, supplier_id, unit_id, name, buying_price, selling_price, quantity, reorder_level, status, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.CategoryID, &p.SupplierID, &p.UnitID, &p.Name, &p.BuyingPrice, &p.SellingPrice, &p.Quantity, &p.ReorderLevel, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, err
	}
	return p, nil
}

// Get fetches one product by id.
func (r *Repository) Get(ctx context.Context, id int64) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		return Product{}, err
	}
	sizes, err := r.sizes(ctx, id)
	if err != nil {
		return Product{}, err
	}
	p.Sizes = sizes
	return p, nil
}

func (r *Repository) sizes(ctx context.Context, productID int64) ([]ProductSize, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, product_id, label, cut_width, cut_length, plano_width, plano_length FROM product_sizes WHERE product_id = $1 ORDER BY id`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sizes []ProductSize
	for rows.Next() {
		var s ProductSize
		if err := rows.Scan(&s.ID, &s.ProductID, &s.Label, &s.CutWidth, &s.CutLength, &s.PlanoWidth, &s.PlanoLength); err != nil {
			return nil, err
		}
		sizes = append(sizes, s)
	}
	return sizes, rows.Err()
}

// List returns products, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status *ProductStatus, limit, offset int) ([]Product, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + productColumns + ` FROM products`
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY name`
	args = append(args, limit, offset)
	if status != nil {
		query += ` LIMIT $2 OFFSET $3`
	} else {
		query += ` LIMIT $1 OFFSET $2`
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ListBelowReorderLevel returns active products whose quantity has fallen
// to or under their reorder level, used by the replenishment scan.
func (r *Repository) ListBelowReorderLevel(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE status = 'active' AND quantity <= reorder_level ORDER BY quantity`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Create inserts a product and returns its id.
func (r *Repository) Create(ctx context.Context, p Product) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO products (category_id, supplier_id, unit_id, name, buying_price, selling_price, quantity, reorder_level, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING id`,
		p.CategoryID, p.SupplierID, p.UnitID, p.Name, p.BuyingPrice, p.SellingPrice, p.Quantity, p.ReorderLevel, p.Status,
	).Scan(&id)
	return id, err
}

// UpdateStatus flips the availability flag. Products referenced by order
// history are deactivated instead of deleted.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status ProductStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}
