package models

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Timbre is the fixed fiscal stamp duty charged once per invoice.
var Timbre = decimal.RequireFromString("1.000")

// AmountPlaces is the number of decimals amounts are printed with (millimes).
const AmountPlaces = 3

// Totals holds the derived monetary fields of an invoice.
type Totals struct {
	TotalHT  decimal.Decimal `json:"totalHT"`
	TotalTVA decimal.Decimal `json:"totalTVA"`
	Timbre   decimal.Decimal `json:"timbre"`
	TotalTTC decimal.Decimal `json:"totalTTC"`
}

// ComputeTotals derives HT, TVA, stamp duty and TTC for the given lines.
// Values keep full precision; round only when formatting.
func ComputeTotals(items []LineItem, tvaRate decimal.Decimal) Totals {
	ht := decimal.Zero
	for _, item := range items {
		ht = ht.Add(item.TotalHT())
	}
	tva := ht.Mul(tvaRate).Div(hundred)
	return Totals{
		TotalHT:  ht,
		TotalTVA: tva,
		Timbre:   Timbre,
		TotalTTC: ht.Add(tva).Add(Timbre),
	}
}

// Equal reports whether both totals hold the same amounts.
func (t Totals) Equal(o Totals) bool {
	return t.TotalHT.Equal(o.TotalHT) &&
		t.TotalTVA.Equal(o.TotalTVA) &&
		t.Timbre.Equal(o.Timbre) &&
		t.TotalTTC.Equal(o.TotalTTC)
}

// FormatAmount renders an amount with three decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(AmountPlaces)
}
