package catalog

import (
	"fmt"
	"time"

	"github.com/mitracetak/mitra-erp/internal/shared"
)

// ProductStatus enumerates catalog availability.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product is a catalog item. Quantity is only ever mutated through the
// stock ledger pathways (orders, purchasing, ledger adjustments); nothing
// writes it directly.
type Product struct {
	ID           int64         `json:"id"`
	CategoryID   *int64        `json:"category_id,omitempty"`
	SupplierID   *int64        `json:"supplier_id,omitempty"`
	UnitID       *int64        `json:"unit_id,omitempty"`
	Name         string        `json:"name"`
	BuyingPrice  float64       `json:"buying_price"`
	SellingPrice float64       `json:"selling_price"`
	Quantity     float64       `json:"quantity"`
	ReorderLevel float64       `json:"reorder_level"`
	Status       ProductStatus `json:"status"`
	Sizes        []ProductSize `json:"sizes,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// ProductSize holds one cut/plano dimension pair in millimetres.
type ProductSize struct {
	ID          int64   `json:"id"`
	ProductID   int64   `json:"product_id"`
	Label       string  `json:"label"`
	CutWidth    float64 `json:"cut_width"`
	CutLength   float64 `json:"cut_length"`
	PlanoWidth  float64 `json:"plano_width"`
	PlanoLength float64 `json:"plano_length"`
}

// Active reports whether the product can be sold.
func (p Product) Active() bool {
	return p.Status == ProductStatusActive
}

// ErrProductNotFound indicates a missing product id.
var ErrProductNotFound = fmt.Errorf("catalog: product %w", shared.ErrNotFound)
