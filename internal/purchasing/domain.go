package purchasing

import (
	"fmt"
	"time"

	"github.com/mitracetak/mitra-erp/internal/shared"
)

// PurchaseStatus enumerates the purchase order lifecycle.
type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusReceived  PurchaseStatus = "received"
	PurchaseStatusCancelled PurchaseStatus = "cancelled"
)

// PurchaseOrder is an inbound supplier order. Receiving it transfers the
// item quantities into product stock and stamps ReceivedAt.
type PurchaseOrder struct {
	ID          int64          `json:"id"`
	SupplierID  int64          `json:"supplier_id"`
	OrderNumber string         `json:"order_number"`
	Status      PurchaseStatus `json:"status"`
	Total       float64        `json:"total"`
	Notes       string         `json:"notes,omitempty"`
	CreatedBy   int64          `json:"created_by"`
	ReceivedAt  *time.Time     `json:"received_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Items       []PurchaseItem `json:"items,omitempty"`
}

// PurchaseItem is one ordered product line at its buying price.
type PurchaseItem struct {
	ID        int64   `json:"id"`
	OrderID   int64   `json:"order_id"`
	ProductID int64   `json:"product_id"`
	Quantity  float64 `json:"quantity"`
	UnitCost  float64 `json:"unit_cost"`
	Subtotal  float64 `json:"subtotal"`
}

var (
	// ErrPurchaseNotFound indicates a missing purchase order id.
	ErrPurchaseNotFound = fmt.Errorf("purchasing: purchase order %w", shared.ErrNotFound)
	// ErrEmptyItems indicates a purchase order without lines.
	ErrEmptyItems = fmt.Errorf("%w: purchasing: items cannot be empty", shared.ErrBusinessRule)
	// ErrInvalidState indicates a receive or cancel against a non-pending order.
	ErrInvalidState = fmt.Errorf("%w: purchasing: only pending orders can transition", shared.ErrBusinessRule)
)
