package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	layouts := DefaultProfile().DateLayouts
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2025-01-05", day(2025, time.January, 5), true},
		{" 2025-01-05 13:45:00 ", day(2025, time.January, 5), true},
		{"2025-01-05T23:59:59-03:00", day(2025, time.January, 5), true},
		{"05/01/2025", day(2025, time.January, 5), true},
		{"5/1/2025", day(2025, time.January, 5), true},
		{"05-01-2025", day(2025, time.January, 5), true},
		{"45662", time.Time{}, false},
		{"2025", time.Time{}, false},
		{"7", time.Time{}, false},
		{"", time.Time{}, false},
		{"soon", time.Time{}, false},
		{"0", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in, layouts)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12", 12, true},
		{" -3.5 ", -3.5, true},
		{"1.234", 1.234, true},
		{"1.234.567", 1234567, true},
		{"1.234,5", 1234.5, true},
		{"1,234,567.25", 1234567.25, true},
		{"2,5", 2.5, true},
		{"$ 1.500.000", 1500000, true},
		{"US$ 12.5", 12.5, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFoldName(t *testing.T) {
	assert.Equal(t, "fecha de contabilizacion", foldName("  Fecha de  Contabilización "))
	assert.Equal(t, "numero interno", foldName("NÚMERO INTERNO"))
	assert.Equal(t, "codigo de cliente/proveedor", foldName("Código de cliente/proveedor"))
}
