package ledger

import (
	"fmt"
	"time"

	"github.com/mitracetak/mitra-erp/internal/shared"
)

// MovementType enumerates stock movement directions.
type MovementType string

const (
	// MovementTypeIn represents stock entering the warehouse.
	MovementTypeIn MovementType = "in"
	// MovementTypeOut represents stock leaving the warehouse.
	MovementTypeOut MovementType = "out"
)

// ReferenceType names the document that caused a movement.
type ReferenceType string

const (
	ReferencePurchaseOrder ReferenceType = "purchase_order"
	ReferenceSalesOrder    ReferenceType = "sales_order"
	ReferenceAdjustment    ReferenceType = "adjustment"
)

// StockMovement is one append-only ledger row. BalanceAfter is the product
// quantity snapshot supplied by the caller at write time, never recomputed.
// Movements are never updated or deleted; corrections are compensating
// movements.
type StockMovement struct {
	ID            int64         `json:"id"`
	ProductID     int64         `json:"product_id"`
	MovementType  MovementType  `json:"movement_type"`
	Quantity      float64       `json:"quantity"`
	BalanceAfter  float64       `json:"balance_after"`
	ReferenceType ReferenceType `json:"reference_type"`
	ReferenceID   *int64        `json:"reference_id,omitempty"`
	CreatedBy     *int64        `json:"created_by,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

var (
	// ErrInvalidQuantity indicates a movement magnitude that is not positive.
	ErrInvalidQuantity = fmt.Errorf("%w: ledger: quantity must be positive", shared.ErrBusinessRule)
	// ErrInsufficientStock triggered when an adjustment would drive stock negative.
	ErrInsufficientStock = fmt.Errorf("%w: ledger: insufficient stock", shared.ErrBusinessRule)
)
