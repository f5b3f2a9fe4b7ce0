package customers

import (
	"fmt"
	"time"

	"github.com/mitracetak/mitra-erp/internal/shared"
)

// Status marks customer acquisition state. The transition is monotonic:
// new -> repeat once a second order is observed, never back.
type Status string

const (
	StatusNew    Status = "new"
	StatusRepeat Status = "repeat"
)

// Customer is a buyer, optionally linked to a sales representative who
// earns commission on the customer's completed orders.
type Customer struct {
	ID                 int64      `json:"id"`
	SalesID            *int64     `json:"sales_id,omitempty"`
	Name               string     `json:"name"`
	Phone              string     `json:"phone,omitempty"`
	Address            string     `json:"address,omitempty"`
	Status             Status     `json:"status"`
	StandardCommission float64    `json:"standard_commission"`
	ExtraCommission    float64    `json:"extra_commission"`
	RepeatOrderCount   int        `json:"repeat_order_count"`
	JoinDate           *time.Time `json:"join_date,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// CommissionPercent returns the rate applied to this customer's completed
// orders: repeat customers earn the sales rep the extra rate when set.
func (c Customer) CommissionPercent() float64 {
	if c.Status == StatusRepeat && c.ExtraCommission > 0 {
		return c.ExtraCommission
	}
	return c.StandardCommission
}

// ErrCustomerNotFound indicates a missing customer id.
var ErrCustomerNotFound = fmt.Errorf("customers: customer %w", shared.ErrNotFound)
