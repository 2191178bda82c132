// Package money holds currency precision and rounding helpers.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// defaultPrecision applies to currencies not listed in precisions
const defaultPrecision int32 = 2

// UnitPrecision is the scale stored for unit prices and per-unit costs
const UnitPrecision int32 = 4

// ISO 4217 minor units for currencies that differ from two decimals
var precisions = map[string]int32{
	"JPY": 0,
	"KRW": 0,
	"VND": 0,
	"CLP": 0,
	"ISK": 0,
	"BHD": 3,
	"KWD": 3,
	"OMR": 3,
	"JOD": 3,
	"TND": 3,
}

var hundred = decimal.NewFromInt(100)

// Precision returns the number of minor unit digits for currency
func Precision(currency string) int32 {
	if p, ok := precisions[strings.ToUpper(currency)]; ok {
		return p
	}
	return defaultPrecision
}

// Round rounds amount to the currency precision, half away from zero
func Round(amount decimal.Decimal, currency string) decimal.Decimal {
	return amount.Round(Precision(currency))
}

// RoundUnit rounds a per-unit amount to the stored unit scale
func RoundUnit(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(UnitPrecision)
}

// LineTotal is the rounded total of quantity units at unitPrice
func LineTotal(unitPrice, quantity decimal.Decimal, currency string) decimal.Decimal {
	return Round(unitPrice.Mul(quantity), currency)
}

// Sum adds amounts without intermediate rounding
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// PercentPoints converts percentage points (15 means 15 %) to a fraction
func PercentPoints(points decimal.Decimal) decimal.Decimal {
	return points.Div(hundred)
}
