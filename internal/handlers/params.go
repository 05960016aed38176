package handlers

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/sales"
)

const dateLayout = "2006-01-02"

// filterFromQuery reads from, to, repeated customer and salesperson, and q.
func filterFromQuery(q url.Values) (sales.FilterSpec, error) {
	return buildFilter(q.Get("from"), q.Get("to"), q["customer"], q["salesperson"], q.Get("q"))
}

func buildFilter(from, to string, customers, salespeople []string, product string) (sales.FilterSpec, error) {
	var spec sales.FilterSpec
	var err error

	if spec.From, err = parseDate("from", from); err != nil {
		return sales.FilterSpec{}, err
	}
	if spec.To, err = parseDate("to", to); err != nil {
		return sales.FilterSpec{}, err
	}
	spec.Customers = nonEmpty(customers)
	spec.Salespeople = nonEmpty(salespeople)
	spec.ProductQuery = strings.TrimSpace(product)

	if err := spec.Validate(); err != nil {
		return sales.FilterSpec{}, errors.ValidationWrap(err, err.Error())
	}
	return spec, nil
}

func parseDate(name, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, errors.BadRequestWrap(err, "invalid "+name+" date, expected YYYY-MM-DD")
	}
	return t, nil
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// intParam parses an optional non-negative integer query parameter.
func intParam(q url.Values, name string, def, maxValue int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.BadRequest("invalid " + name + ", expected a non-negative integer")
	}
	return min(n, maxValue), nil
}
