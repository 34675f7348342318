// Package amountwords spells amounts in French for the "arretee la presente
// facture" line printed under the invoice totals.
package amountwords

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	units = [...]string{"", "un", "deux", "trois", "quatre", "cinq", "six", "sept", "huit", "neuf"}
	teens = [...]string{"dix", "onze", "douze", "treize", "quatorze", "quinze", "seize", "dix-sept", "dix-huit", "dix-neuf"}
	tens  = [...]string{"", "dix", "vingt", "trente", "quarante", "cinquante", "soixante", "soixante-dix", "quatre-vingt", "quatre-vingt-dix"}
)

const (
	thousand = 1000
	million  = 1000 * thousand
)

var millimesPerDinar = decimal.NewFromInt(thousand)

func under100(n int64) string {
	if n < 10 {
		return units[n]
	}
	if n < 20 {
		return teens[n-10]
	}
	ten, unit := n/10, n%10
	switch {
	case unit == 0:
		return tens[ten]
	case unit == 1 && ten == 8:
		return "quatre-vingt-un"
	case unit == 1 && ten != 7 && ten != 9:
		return tens[ten] + " et un"
	case ten == 7:
		return "soixante-" + teens[unit]
	case ten == 9:
		return "quatre-vingt-" + teens[unit]
	}
	return tens[ten] + "-" + units[unit]
}

func under1000(n int64) string {
	if n < 100 {
		return under100(n)
	}
	hundreds, rest := n/100, n%100
	word := "cent"
	if hundreds > 1 {
		word = units[hundreds] + " cent"
		if rest == 0 {
			word += "s"
		}
	}
	if rest > 0 {
		word += " " + under100(rest)
	}
	return word
}

// NumberToWords spells a non-negative integer in lowercase French.
// Zero is "zero"; negative values are prefixed with "moins".
func NumberToWords(n int64) string {
	if n == 0 {
		return "zero"
	}
	if n < 0 {
		// -n overflows for MinInt64; spell it through uint64.
		return "moins " + spell(uint64(-(n+1))+1)
	}
	return spell(uint64(n))
}

func spell(n uint64) string {
	var parts []string
	if n >= million {
		m := n / million
		switch {
		case m == 1:
			parts = append(parts, "un million")
		case m < thousand:
			parts = append(parts, under1000(int64(m))+" millions")
		default:
			parts = append(parts, spell(m)+" millions")
		}
		n %= million
	}
	if n >= thousand {
		k := n / thousand
		if k == 1 {
			parts = append(parts, "mille")
		} else {
			parts = append(parts, under1000(int64(k))+" mille")
		}
		n %= thousand
	}
	if n > 0 {
		parts = append(parts, under1000(int64(n)))
	}
	return strings.Join(parts, " ")
}

// AmountToWords spells a dinar amount: "<words> dinars" or
// "<words> dinars et <N> millimes", with N the fractional part rounded to
// the nearest millime.
func AmountToWords(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "moins " + AmountToWords(amount.Neg())
	}
	whole := amount.Floor()
	millimes := amount.Sub(whole).Mul(millimesPerDinar).Round(0).IntPart()
	dinars := whole.IntPart()
	if millimes == thousand {
		dinars++
		millimes = 0
	}
	words := NumberToWords(dinars) + " dinars"
	if millimes > 0 {
		words += " et " + strconv.FormatInt(millimes, 10) + " millimes"
	}
	return words
}
