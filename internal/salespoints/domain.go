package salespoints

import (
	"fmt"

	"github.com/mitracetak/mitra-erp/internal/shared"
)

// SalesPoint is one commission accrual for a sales person, granted when
// an order they brought in completes.
type SalesPoint struct {
	ID         int64   `json:"id"`
	SalesID    int64   `json:"sales_id"`
	OrderID    int64   `json:"order_id"`
	PrintCount float64 `json:"print_count"`
	Points     float64 `json:"points"`
}

// Recap is the aggregated standing of one sales person.
type Recap struct {
	SalesID     int64   `json:"sales_id"`
	OrderCount  int     `json:"order_count"`
	TotalPoints float64 `json:"total_points"`
}

// ErrAlreadyAccrued indicates a duplicate accrual for the same order.
var ErrAlreadyAccrued = fmt.Errorf("%w: salespoints: order already accrued", shared.ErrDuplicate)
