// Package format renders dashboard figures for display.
package format

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"sales-dashboard/internal/models"
)

// Undefined is shown in place of a ratio that has no value.
const Undefined = "—"

var (
	clpPrinter = message.NewPrinter(language.MustParse("es-CL"))
	usdPrinter = message.NewPrinter(language.AmericanEnglish)
)

// CLP formats pesos with no decimals and Chilean grouping, e.g. "$ 1.234.567".
func CLP(v float64) string {
	return money(clpPrinter, "$ ", v, 0)
}

// USD formats dollars with no decimals, e.g. "US$ 1,235".
func USD(v float64) string {
	return money(usdPrinter, "US$ ", v, 0)
}

// Quantity formats a unit count with up to two decimals.
func Quantity(v float64) string {
	return clpPrinter.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

// Count formats an integer count.
func Count(n int) string {
	return clpPrinter.Sprint(number.Decimal(n))
}

// ToUSD converts pesos at rate pesos per dollar. It reports false for a
// non-positive rate.
func ToUSD(clp, rate float64) (float64, bool) {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, false
	}
	return clp / rate, true
}

// Money formats v in pesos, or in dollars when showUSD is set and rate is usable.
func Money(v, rate float64, showUSD bool) string {
	if showUSD {
		if usd, ok := ToUSD(v, rate); ok {
			return USD(usd)
		}
	}
	return CLP(v)
}

// Ratio formats an average in pesos, or Undefined.
func Ratio(r models.Ratio, rate float64, showUSD bool) string {
	if !r.Valid {
		return Undefined
	}
	return Money(r.Value, rate, showUSD)
}

func money(p *message.Printer, symbol string, v float64, decimals int) string {
	sign := ""
	v = math.Round(v*math.Pow10(decimals)) / math.Pow10(decimals)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + symbol + p.Sprint(number.Decimal(v, number.MaxFractionDigits(decimals)))
}

// Currency carries the display currency choice of one render.
type Currency struct {
	USDRate float64
	ShowUSD bool
}

// Code returns the ISO code of the displayed currency.
func (c Currency) Code() string {
	if c.ShowUSD && c.USDRate > 0 {
		return "USD"
	}
	return "CLP"
}

func (c Currency) Money(v float64) string {
	return Money(v, c.USDRate, c.ShowUSD)
}

func (c Currency) Ratio(r models.Ratio) string {
	return Ratio(r, c.USDRate, c.ShowUSD)
}
