package pricing

import (
	"strings"

	"gridflow/internal/grid"
	"gridflow/internal/schema"

	"github.com/shopspring/decimal"
)

// FixedVATPercent applies to document types without a per-document rate.
const FixedVATPercent = 10

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	VAT      decimal.Decimal `json:"vat"`
	Total    decimal.Decimal `json:"total"`
}

// Parse reads a numeric cell, tolerating thousands separators and spaces.
func Parse(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// IsFreeTextAmount reports whether the amount cell is an override because the
// unit price is explicitly zero.
func IsFreeTextAmount(r grid.Row) bool {
	p, ok := Parse(r.Get(schema.FieldUnitPrice))
	return ok && p.IsZero()
}

// DeriveAmount recomputes amount = qty × unitPrice on r. When the unit price
// is explicitly zero the amount is left as whatever text the user typed.
// Returns whether the row changed.
func DeriveAmount(r *grid.Row) bool {
	if IsFreeTextAmount(*r) {
		return false
	}
	next := ""
	qty, okQ := Parse(r.Get(schema.FieldQty))
	price, okP := Parse(r.Get(schema.FieldUnitPrice))
	if okQ && okP {
		next = qty.Mul(price).String()
	}
	if r.Get(schema.FieldAmount) == next {
		return false
	}
	r.Set(schema.FieldAmount, next)
	return true
}

// Compute sums the amount column of live rows. Free-text amounts are skipped.
// VAT is floored to a whole unit.
func Compute(rows []grid.Row, ratePercent int) Totals {
	subtotal := decimal.Zero
	for _, r := range rows {
		if r.Deleted {
			continue
		}
		if amt, ok := Parse(r.Get(schema.FieldAmount)); ok {
			subtotal = subtotal.Add(amt)
		}
	}
	vat := subtotal.Mul(decimal.NewFromInt(int64(ratePercent))).Div(decimal.NewFromInt(100)).Floor()
	return Totals{Subtotal: subtotal, VAT: vat, Total: subtotal.Add(vat)}
}

// RatePercent resolves the VAT rate of a document. perDocument is consulted
// only for types with a configurable rate; fixed is the configured default.
func RatePercent(s schema.Schema, perDocument *int, fixed int) int {
	if s.VAT == schema.VATPerDocument && perDocument != nil {
		return *perDocument
	}
	return fixed
}
