package orders

import (
	"fmt"
	"time"

	"github.com/mitracetak/mitra-erp/internal/shared"
)

// OrderStatus enumerates the order lifecycle.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// DecideStatus is the single status-decision rule shared by every flow
// that touches paid/total. Keeping it in one place guarantees creation,
// edit, and payment cannot drift apart.
func DecideStatus(paid, total float64) OrderStatus {
	if paid >= total {
		return OrderStatusCompleted
	}
	return OrderStatusPending
}

// Order is a customer sales transaction with its priced line items.
// Money fields satisfy total = sub_total - discount_total + tax_total and
// due = max(total - paid, 0).
type Order struct {
	ID            int64       `json:"id"`
	CustomerID    *int64      `json:"customer_id,omitempty"`
	SalesID       *int64      `json:"sales_id,omitempty"`
	OrderNumber   string      `json:"order_number"`
	SubTotal      float64     `json:"sub_total"`
	TaxTotal      float64     `json:"tax_total"`
	DiscountTotal float64     `json:"discount_total"`
	Total         float64     `json:"total"`
	Paid          float64     `json:"paid"`
	Due           float64     `json:"due"`
	Status        OrderStatus `json:"status"`
	PODate        *time.Time  `json:"po_date,omitempty"`
	DeliveryDate  *time.Time  `json:"delivery_date,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	CreatedBy     int64       `json:"created_by"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	Items         []OrderItem `json:"items,omitempty"`
}

// OrderItem is one product-quantity-price tuple. UnitPrice is a snapshot
// taken at order time; later product price changes never touch it.
type OrderItem struct {
	ID        int64   `json:"id"`
	OrderID   int64   `json:"order_id"`
	ProductID int64   `json:"product_id"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
}

// PaidThrough enumerates payment channels.
type PaidThrough string

const (
	PaidThroughCash         PaidThrough = "cash"
	PaidThroughBankTransfer PaidThrough = "bank_transfer"
	PaidThroughCreditCard   PaidThrough = "credit_card"
	PaidThroughDebitCard    PaidThrough = "debit_card"
	PaidThroughEWallet      PaidThrough = "e_wallet"
	PaidThroughQRIS         PaidThrough = "qris"
	PaidThroughGiftCard     PaidThrough = "gift_card"
)

// Valid reports whether the channel is known.
func (p PaidThrough) Valid() bool {
	switch p {
	case PaidThroughCash, PaidThroughBankTransfer, PaidThroughCreditCard,
		PaidThroughDebitCard, PaidThroughEWallet, PaidThroughQRIS, PaidThroughGiftCard:
		return true
	}
	return false
}

// PaymentTransaction is one payment against an order. Multiple rows per
// order accumulate incremental payments.
type PaymentTransaction struct {
	ID          int64       `json:"id"`
	OrderID     int64       `json:"order_id"`
	Amount      float64     `json:"amount"`
	PaidThrough PaidThrough `json:"paid_through"`
	CreatedAt   time.Time   `json:"created_at"`
}

var (
	// ErrOrderNotFound indicates a missing order id.
	ErrOrderNotFound = fmt.Errorf("orders: order %w", shared.ErrNotFound)
	// ErrEmptyItems indicates an order without line items.
	ErrEmptyItems = fmt.Errorf("%w: orders: order items cannot be empty", shared.ErrBusinessRule)
	// ErrProductInactive indicates an attempt to sell a deactivated product.
	ErrProductInactive = fmt.Errorf("%w: orders: product is not active", shared.ErrBusinessRule)
	// ErrInsufficientStock indicates the requested quantity exceeds on-hand stock.
	ErrInsufficientStock = fmt.Errorf("%w: orders: product quantity not available", shared.ErrBusinessRule)
	// ErrNoDueAmount indicates settle/pay against an order with nothing outstanding.
	ErrNoDueAmount = fmt.Errorf("%w: orders: no due amount left", shared.ErrBusinessRule)
	// ErrOrderCancelled indicates a mutation against a cancelled order.
	ErrOrderCancelled = fmt.Errorf("%w: orders: order is cancelled", shared.ErrBusinessRule)
	// ErrOrderCompleted indicates a cancel against a completed order.
	ErrOrderCompleted = fmt.Errorf("%w: orders: order is already completed", shared.ErrBusinessRule)
	// ErrNegativeTotal indicates an over-discount that would price the order below zero.
	ErrNegativeTotal = fmt.Errorf("%w: orders: total cannot be negative", shared.ErrValidation)
	// ErrInvalidAmount indicates a non-positive payment amount.
	ErrInvalidAmount = fmt.Errorf("%w: orders: amount must be positive", shared.ErrValidation)
	// ErrInvalidPaidThrough indicates an unknown payment channel.
	ErrInvalidPaidThrough = fmt.Errorf("%w: orders: unknown payment channel", shared.ErrValidation)
)
