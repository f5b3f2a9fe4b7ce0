package shared

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const orderNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// OrderNumber returns a short human-readable order number, e.g. O-k3Fa9.
// The five-character suffix spans the full base-62 alphabet (62^5 candidates).
// Uniqueness is ultimately guaranteed by the orders.order_number unique
// constraint; a collision surfaces as ErrDuplicate and the caller retries.
func OrderNumber() string {
	id := uuid.New()
	n := binary.BigEndian.Uint64(id[:8])
	var suffix [5]byte
	for i := range suffix {
		suffix[i] = orderNumberAlphabet[n%62]
		n /= 62
	}
	return "O-" + string(suffix[:])
}

// PurchaseOrderNumber builds PO-YYYYMMDD-SEQ style numbers.
func PurchaseOrderNumber(date time.Time, seq int64) string {
	return fmt.Sprintf("PO-%s-%04d", date.Format("20060102"), seq)
}
