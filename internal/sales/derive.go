// Package sales derives calendar and ratio fields for normalized sales lines,
// filters them into views and aggregates views into groups.
//
// Every function here treats its input as read-only and returns new slices.
package sales

import (
	"fmt"
	"time"

	"sales-dashboard/internal/models"
)

// MonthBucket returns "YYYY-MM" for t.
func MonthBucket(t time.Time) string {
	return t.Format("2006-01")
}

// QuarterBucket returns "YYYYQn" for t.
func QuarterBucket(t time.Time) string {
	return fmt.Sprintf("%04dQ%d", t.Year(), (int(t.Month())-1)/3+1)
}

// DeriveLine returns l with year, month and quarter buckets and the average
// unit value filled in.
func DeriveLine(l models.SaleLine) models.SaleLine {
	l.Year = l.Date.Year()
	l.MonthBucket = MonthBucket(l.Date)
	l.QuarterBucket = QuarterBucket(l.Date)
	l.AvgUnitValue = models.NewRatio(l.LineTotal, l.Quantity)
	return l
}

// Derive applies DeriveLine to every line.
func Derive(lines []models.SaleLine) []models.SaleLine {
	out := make([]models.SaleLine, len(lines))
	for i, l := range lines {
		out[i] = DeriveLine(l)
	}
	return out
}
