package sales

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"sales-dashboard/internal/models"
)

// ErrUnknownGroupKey is returned for a grouping key outside models.GroupKeys.
var ErrUnknownGroupKey = errors.New("unknown group key")

type accumulator struct {
	key       string
	lineTotal float64
	quantity  float64
	records   int
	documents map[string]struct{}
	customers map[string]struct{}
}

func newAccumulator(key string) *accumulator {
	return &accumulator{
		key:       key,
		documents: make(map[string]struct{}),
		customers: make(map[string]struct{}),
	}
}

func (a *accumulator) add(l models.SaleLine) {
	a.lineTotal += l.LineTotal
	a.quantity += l.Quantity
	a.records++
	a.documents[l.DocumentID] = struct{}{}
	a.customers[l.CustomerName] = struct{}{}
}

// KeyFunc returns the function extracting the group key of a line.
func KeyFunc(key models.GroupKey) (func(models.SaleLine) string, error) {
	switch key {
	case models.GroupByMonth:
		return func(l models.SaleLine) string {
			if l.MonthBucket != "" {
				return l.MonthBucket
			}
			return MonthBucket(l.Date)
		}, nil
	case models.GroupByQuarter:
		return func(l models.SaleLine) string {
			if l.QuarterBucket != "" {
				return l.QuarterBucket
			}
			return QuarterBucket(l.Date)
		}, nil
	case models.GroupByCustomer:
		return func(l models.SaleLine) string { return l.CustomerName }, nil
	case models.GroupBySalesperson:
		return func(l models.SaleLine) string { return l.Salesperson }, nil
	case models.GroupByProduct:
		return func(l models.SaleLine) string { return l.ProductDescription }, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownGroupKey, key)
	}
}

// GroupBy aggregates lines per key. Month and quarter groups come back in
// chronological order; the others by descending line total, ties broken by
// key. A positive limit keeps only the first limit groups.
//
// The average unit value of a group is its summed line total over its summed
// quantity, undefined when that quantity is not positive. Distinct customers
// are not counted when grouping by customer.
func GroupBy(lines []models.SaleLine, key models.GroupKey, limit int) ([]models.GroupAggregate, error) {
	keyOf, err := KeyFunc(key)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*accumulator)
	for _, l := range lines {
		k := keyOf(l)
		acc, ok := groups[k]
		if !ok {
			acc = newAccumulator(k)
			groups[k] = acc
		}
		acc.add(l)
	}

	out := make([]models.GroupAggregate, 0, len(groups))
	for _, acc := range groups {
		g := models.GroupAggregate{
			Key:          acc.key,
			LineTotal:    acc.lineTotal,
			Quantity:     acc.quantity,
			Documents:    len(acc.documents),
			Records:      acc.records,
			AvgUnitValue: models.NewRatio(acc.lineTotal, acc.quantity),
		}
		if key != models.GroupByCustomer {
			g.Customers = len(acc.customers)
		}
		out = append(out, g)
	}

	if key.Chronological() {
		slices.SortFunc(out, func(a, b models.GroupAggregate) int {
			return cmp.Compare(a.Key, b.Key)
		})
	} else {
		slices.SortFunc(out, func(a, b models.GroupAggregate) int {
			if c := cmp.Compare(b.LineTotal, a.LineTotal); c != 0 {
				return c
			}
			return cmp.Compare(a.Key, b.Key)
		})
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Summarize computes the headline figures of a view. An empty view yields
// zero sums and an undefined average.
func Summarize(lines []models.SaleLine) models.Summary {
	acc := newAccumulator("")
	for _, l := range lines {
		acc.add(l)
	}
	return models.Summary{
		LineTotal:    acc.lineTotal,
		Quantity:     acc.quantity,
		AvgUnitValue: models.NewRatio(acc.lineTotal, acc.quantity),
		Documents:    len(acc.documents),
		Customers:    len(acc.customers),
		Records:      acc.records,
	}
}

// Histogram counts unit prices in bins of equal width between the minimum
// and maximum price. A view with a single distinct price yields one bin.
func Histogram(lines []models.SaleLine, bins int) []models.HistogramBin {
	if len(lines) == 0 || bins <= 0 {
		return nil
	}

	lo, hi := lines[0].UnitPrice, lines[0].UnitPrice
	for _, l := range lines[1:] {
		lo = min(lo, l.UnitPrice)
		hi = max(hi, l.UnitPrice)
	}
	if lo == hi {
		return []models.HistogramBin{{Lower: lo, Upper: hi, Count: len(lines)}}
	}

	width := (hi - lo) / float64(bins)
	out := make([]models.HistogramBin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	out[bins-1].Upper = hi

	for _, l := range lines {
		i := int((l.UnitPrice - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out
}

// Options lists the distinct customers and salespeople of lines, sorted, and
// the date span they cover.
func Options(lines []models.SaleLine) models.FilterOptions {
	opts := models.FilterOptions{
		Customers:   []string{},
		Salespeople: []string{},
	}
	if len(lines) == 0 {
		return opts
	}

	customers := make(map[string]struct{})
	salespeople := make(map[string]struct{})
	opts.MinDate, opts.MaxDate = lines[0].Date, lines[0].Date
	for _, l := range lines {
		if l.Date.Before(opts.MinDate) {
			opts.MinDate = l.Date
		}
		if l.Date.After(opts.MaxDate) {
			opts.MaxDate = l.Date
		}
		if l.CustomerName != "" {
			customers[l.CustomerName] = struct{}{}
		}
		if l.Salesperson != "" {
			salespeople[l.Salesperson] = struct{}{}
		}
	}

	for c := range customers {
		opts.Customers = append(opts.Customers, c)
	}
	for s := range salespeople {
		opts.Salespeople = append(opts.Salespeople, s)
	}
	slices.Sort(opts.Customers)
	slices.Sort(opts.Salespeople)
	return opts
}
