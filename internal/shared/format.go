package shared

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var idPrinter = message.NewPrinter(language.Indonesian)

// FormatIDR renders an amount as grouped rupiah text for notes and alerts,
// e.g. "Rp 1.250.000".
func FormatIDR(amount float64) string {
	return idPrinter.Sprintf("Rp %.0f", amount)
}

// FormatQty renders a quantity with thousand separators.
func FormatQty(qty float64) string {
	return idPrinter.Sprintf("%.2f", qty)
}
