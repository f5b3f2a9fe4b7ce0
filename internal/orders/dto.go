package orders

import "time"

// OrderItemRequest is one requested line. Price, when set, overrides the
// product's selling price for this order only.
type OrderItemRequest struct {
	ProductID int64    `json:"product_id" validate:"required,gt=0"`
	Quantity  float64  `json:"quantity" validate:"required,gt=0"`
	Price     *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
}

// CustomDiscountRequest stacks a per-order discount on top of the
// configured default discount.
type CustomDiscountRequest struct {
	Amount float64 `json:"amount" validate:"gte=0"`
	Type   string  `json:"type" validate:"required,oneof=fixed percentage"`
}

// CreateOrderRequest is the payload for a direct (back-office) order.
type CreateOrderRequest struct {
	CustomerID     *int64                 `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	SalesID        *int64                 `json:"sales_id,omitempty" validate:"omitempty,gt=0"`
	Items          []OrderItemRequest     `json:"order_items" validate:"required,min=1,dive"`
	Paid           float64                `json:"paid" validate:"gte=0"`
	PaidThrough    PaidThrough            `json:"paid_through,omitempty"`
	CustomDiscount *CustomDiscountRequest `json:"custom_discount,omitempty"`
	PODate         *time.Time             `json:"po_date,omitempty"`
	DeliveryDate   *time.Time             `json:"delivery_date,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
}

// CheckoutRequest converts a user's cart into an order. Lines come from
// the cart, so only payment and metadata travel in the payload.
type CheckoutRequest struct {
	CustomerID     *int64                 `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	SalesID        *int64                 `json:"sales_id,omitempty" validate:"omitempty,gt=0"`
	Paid           float64                `json:"paid" validate:"gte=0"`
	PaidThrough    PaidThrough            `json:"paid_through,omitempty"`
	CustomDiscount *CustomDiscountRequest `json:"custom_discount,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
}

// PayRequest records an incremental payment against an existing order.
type PayRequest struct {
	Amount      float64     `json:"amount" validate:"required,gt=0"`
	PaidThrough PaidThrough `json:"paid_through" validate:"required"`
}

// ListFilter narrows and pages the order list.
type ListFilter struct {
	Status     OrderStatus
	CustomerID *int64
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}
