package sales

import (
	"errors"
	"strings"
	"time"

	"sales-dashboard/internal/models"
)

var (
	ErrIncompleteDateRange = errors.New("date range needs both a start and an end")
	ErrInvertedDateRange   = errors.New("date range start is after its end")
)

// FilterSpec is the set of criteria a view must satisfy. Zero-valued criteria
// impose no constraint; the rest are AND-combined.
type FilterSpec struct {
	// From and To bound the line date inclusively. Both or neither.
	From time.Time
	To   time.Time
	// Customers and Salespeople restrict to exact member names when non-empty.
	Customers   []string
	Salespeople []string
	// ProductQuery matches product descriptions case-insensitively.
	ProductQuery string
}

// HasDateRange reports whether both bounds are set.
func (s FilterSpec) HasDateRange() bool {
	return !s.From.IsZero() && !s.To.IsZero()
}

// Validate checks the date range.
func (s FilterSpec) Validate() error {
	if s.From.IsZero() != s.To.IsZero() {
		return ErrIncompleteDateRange
	}
	if s.HasDateRange() && dayOf(s.From).After(dayOf(s.To)) {
		return ErrInvertedDateRange
	}
	return nil
}

// IsZero reports whether s imposes no constraint.
func (s FilterSpec) IsZero() bool {
	return !s.HasDateRange() && len(s.Customers) == 0 && len(s.Salespeople) == 0 &&
		strings.TrimSpace(s.ProductQuery) == ""
}

type predicate struct {
	from, to    time.Time
	ranged      bool
	customers   map[string]struct{}
	salespeople map[string]struct{}
	query       string
}

func (s FilterSpec) compile() predicate {
	p := predicate{
		customers:   toSet(s.Customers),
		salespeople: toSet(s.Salespeople),
		query:       strings.ToLower(strings.TrimSpace(s.ProductQuery)),
	}
	if s.HasDateRange() {
		p.ranged = true
		p.from, p.to = dayOf(s.From), dayOf(s.To)
	}
	return p
}

func (p predicate) match(l models.SaleLine) bool {
	if p.ranged {
		d := dayOf(l.Date)
		if d.Before(p.from) || d.After(p.to) {
			return false
		}
	}
	if p.customers != nil {
		if _, ok := p.customers[l.CustomerName]; !ok {
			return false
		}
	}
	if p.salespeople != nil {
		if _, ok := p.salespeople[l.Salesperson]; !ok {
			return false
		}
	}
	if p.query != "" {
		if l.ProductDescription == "" || !strings.Contains(strings.ToLower(l.ProductDescription), p.query) {
			return false
		}
	}
	return true
}

// Filter returns the lines satisfying spec, in their original order. The
// input slice is never modified; the result never aliases it.
func Filter(lines []models.SaleLine, spec FilterSpec) ([]models.SaleLine, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	if spec.IsZero() {
		out := make([]models.SaleLine, len(lines))
		copy(out, lines)
		return out, nil
	}

	p := spec.compile()
	out := make([]models.SaleLine, 0, len(lines))
	for _, l := range lines {
		if p.match(l) {
			out = append(out, l)
		}
	}
	return out, nil
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
