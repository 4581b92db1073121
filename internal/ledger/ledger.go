package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the canteen GST rate applied to every order unless the
// caller overrides it (some flows run tax-free with a zero rate).
const DefaultTaxRate = 0.05

type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// ComputeTotals turns a raw item-price sum into clean currency amounts.
// The raw subtotal may carry float noise from price*qty summation, so every
// stage is rounded to 2 places, half away from zero: subtotal first, then
// tax = round(subtotal * rate), then total = round(subtotal + tax).
func ComputeTotals(rawSubtotal, taxRate float64) Totals {
	subtotal := decimal.NewFromFloat(rawSubtotal).Round(2)
	tax := subtotal.Mul(decimal.NewFromFloat(taxRate)).Round(2)
	total := subtotal.Add(tax).Round(2)

	s, _ := subtotal.Float64()
	t, _ := tax.Float64()
	tt, _ := total.Float64()
	return Totals{Subtotal: s, Tax: t, Total: tt}
}

// IsParticipant reports whether candidate is already in a shared cart's
// participant list. Empty lists and blank ids are never participants.
func IsParticipant(participants []string, candidate string) bool {
	if len(participants) == 0 || strings.TrimSpace(candidate) == "" {
		return false
	}
	for _, p := range participants {
		if p != "" && p == candidate {
			return true
		}
	}
	return false
}
