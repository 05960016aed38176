package schema

import (
	"fmt"
	"strconv"

	"sales-dashboard/internal/models"
)

// Options tune Normalize.
type Options struct {
	// Source names the sheet or file in error messages.
	Source string
	// StrictNumbers turns an unparseable numeric cell into a *CoercionError
	// instead of the default 0. Empty cells are 0 in both modes.
	StrictNumbers bool
}

// CoercionError reports a numeric cell rejected in strict mode. Row is the
// 1-based data row, not counting the header.
type CoercionError struct {
	Row    int
	Field  string
	Header string
	Value  string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("schema: row %d: column %q (%s): %q is not a number", e.Row, e.Header, e.Field, e.Value)
}

// Result is a normalized table. Lines carry canonical fields only; derived
// fields are filled by the sales package.
type Result struct {
	Lines   []models.SaleLine
	Mapping Mapping
	// Dropped counts rows whose date did not parse.
	Dropped int
}

// Normalize resolves the columns of t against p and converts every row with
// a parseable date into a SaleLine. Rows without one are dropped. Numeric
// cells that do not parse become 0 unless opts.StrictNumbers is set.
func Normalize(t Table, p Profile, opts Options) (*Result, error) {
	mapping, err := Resolve(t, p)
	if err != nil {
		if rerr, ok := err.(*ResolutionError); ok {
			rerr.Source = opts.Source
		}
		return nil, err
	}

	cols := make(map[string]int, len(mapping.Matches))
	for _, m := range mapping.Matches {
		cols[m.Field] = m.Column
	}
	text := func(row int, field string) string {
		col, ok := cols[field]
		if !ok {
			return ""
		}
		return t.Cell(row, col)
	}

	numeric, err := numericFields(p)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Lines:   make([]models.SaleLine, 0, len(t.Rows)),
		Mapping: mapping,
	}

	for row := range t.Rows {
		date, ok := ParseDate(text(row, models.FieldDate), p.DateLayouts)
		if !ok {
			res.Dropped++
			continue
		}

		line := models.SaleLine{
			Date:               date,
			DocumentID:         text(row, models.FieldDocumentID),
			CustomerCode:       text(row, models.FieldCustomerCode),
			CustomerName:       text(row, models.FieldCustomerName),
			Salesperson:        text(row, models.FieldSalesperson),
			ItemCode:           text(row, models.FieldItemCode),
			ProductDescription: text(row, models.FieldProductDescription),
		}

		for _, field := range numeric {
			raw := text(row, field)
			v, ok := ParseNumber(raw)
			if !ok && raw != "" && opts.StrictNumbers {
				return nil, &CoercionError{
					Row:    row + 1,
					Field:  field,
					Header: t.Headers[cols[field]],
					Value:  raw,
				}
			}
			*numberField(&line, field) = v
		}

		res.Lines = append(res.Lines, line)
	}

	return res, nil
}

// numericFields lists the fields of p coerced to numbers. Fields without the
// Numeric flag keep their zero value.
func numericFields(p Profile) ([]string, error) {
	var out []string
	for _, f := range p.Fields {
		if !f.Numeric {
			continue
		}
		if numberField(&models.SaleLine{}, f.Name) == nil {
			return nil, fmt.Errorf("schema: field %q cannot hold a number", f.Name)
		}
		out = append(out, f.Name)
	}
	return out, nil
}

func numberField(l *models.SaleLine, field string) *float64 {
	switch field {
	case models.FieldQuantity:
		return &l.Quantity
	case models.FieldUnitPrice:
		return &l.UnitPrice
	case models.FieldLineTotal:
		return &l.LineTotal
	}
	return nil
}

// CanonicalHeaders is the column order of a canonical table.
var CanonicalHeaders = []string{
	models.FieldDate,
	models.FieldDocumentID,
	models.FieldCustomerCode,
	models.FieldCustomerName,
	models.FieldSalesperson,
	models.FieldItemCode,
	models.FieldProductDescription,
	models.FieldQuantity,
	models.FieldUnitPrice,
	models.FieldLineTotal,
}

// CanonicalTable renders lines back into a table with canonical headers.
// Normalizing the result yields the same lines.
func CanonicalTable(lines []models.SaleLine) Table {
	t := Table{
		Headers: append([]string(nil), CanonicalHeaders...),
		Rows:    make([][]string, len(lines)),
	}
	for i, l := range lines {
		t.Rows[i] = CanonicalRow(l)
	}
	return t
}

// CanonicalRow renders the canonical fields of l in CanonicalHeaders order.
func CanonicalRow(l models.SaleLine) []string {
	return []string{
		l.Date.Format("2006-01-02"),
		l.DocumentID,
		l.CustomerCode,
		l.CustomerName,
		l.Salesperson,
		l.ItemCode,
		l.ProductDescription,
		FormatNumber(l.Quantity),
		FormatNumber(l.UnitPrice),
		FormatNumber(l.LineTotal),
	}
}

// FormatNumber writes v in the shortest form ParseNumber reads back exactly.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
