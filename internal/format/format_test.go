package format

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"

	"sales-dashboard/internal/models"
)

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

func TestCLP(t *testing.T) {
	got := CLP(1234567.4)
	assert.True(t, strings.HasPrefix(got, "$ "), got)
	assert.Equal(t, "1234567", digits(got))
	assert.NotContains(t, got, ",")

	neg := CLP(-1500)
	assert.True(t, strings.HasPrefix(neg, "-$ "), neg)
	assert.Equal(t, "1500", digits(neg))
}

func TestUSD(t *testing.T) {
	assert.Equal(t, "US$ 1,235", USD(1234.6))
	assert.Equal(t, "US$ 0", USD(0.2))
	assert.Equal(t, "-US$ 12", USD(-12))
}

func TestToUSD(t *testing.T) {
	v, ok := ToUSD(95000, 950)
	assert.True(t, ok)
	assert.InDelta(t, 100.0, v, 1e-9)

	_, ok = ToUSD(95000, 0)
	assert.False(t, ok)
	_, ok = ToUSD(95000, -1)
	assert.False(t, ok)
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "US$ 100", Money(95000, 950, true))
	assert.Equal(t, CLP(95000), Money(95000, 950, false))
	assert.Equal(t, CLP(95000), Money(95000, 0, true))
}

func TestRatio(t *testing.T) {
	assert.Equal(t, Undefined, Ratio(models.Ratio{}, 950, false))
	assert.Equal(t, "US$ 2", Ratio(models.NewRatio(1900, 1), 950, true))
}

func TestQuantityAndCount(t *testing.T) {
	assert.Equal(t, "12", digits(Count(12)))
	assert.Equal(t, "1500", digits(Count(1500)))
	assert.Equal(t, "25", digits(Quantity(2.5)))
}

func TestCurrency(t *testing.T) {
	usd := Currency{USDRate: 950, ShowUSD: true}
	assert.Equal(t, "USD", usd.Code())
	assert.Equal(t, "US$ 100", usd.Money(95000))
	assert.Equal(t, Undefined, usd.Ratio(models.Ratio{}))

	clp := Currency{USDRate: 950}
	assert.Equal(t, "CLP", clp.Code())
	assert.Equal(t, CLP(95000), clp.Money(95000))
}
