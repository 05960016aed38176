// Package ingest reads sales exports (workbooks and delimited text) into raw
// tables and turns them into derived datasets.
package ingest

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"sales-dashboard/internal/schema"
)

// ReadWorkbook parses an .xlsx workbook held in data and returns the named
// sheet as a table. An empty sheet name selects the first sheet. Cells with a
// date number format are written as ISO dates.
func ReadWorkbook(data []byte, sheetName string) (schema.Table, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return schema.Table{}, eris.Wrap(err, "ingest: open workbook")
	}

	sheet, err := pickSheet(f, sheetName)
	if err != nil {
		return schema.Table{}, err
	}

	var t schema.Table
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		cells := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = cellText(cell, f.Date1904)
		}
		if blank(cells) {
			continue
		}
		if t.Headers == nil {
			t.Headers = trimAll(cells)
			continue
		}
		t.Rows = append(t.Rows, cells)
	}

	if t.Headers == nil {
		return schema.Table{}, eris.Errorf("ingest: sheet %q has no header row", sheet.Name)
	}
	return t, nil
}

func pickSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		if sheet, ok := f.Sheet[name]; ok {
			return sheet, nil
		}
		return nil, eris.Errorf("ingest: sheet %q not found", name)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("ingest: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func cellText(cell *xlsx.Cell, date1904 bool) string {
	if cell == nil {
		return ""
	}
	if cell.Type() == xlsx.CellTypeNumeric && isDateFormat(cell.GetNumberFormat()) {
		if v, err := cell.Float(); err == nil {
			return xlsx.TimeFromExcelTime(v, date1904).Format("2006-01-02")
		}
	}
	return cell.String()
}

// isDateFormat reports whether an Excel number format renders a date. Quoted
// literals and bracketed sections such as colors or locales are ignored.
func isDateFormat(format string) bool {
	var b strings.Builder
	quoted, bracket := false, false
	for _, r := range strings.ToLower(format) {
		switch {
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '[':
			bracket = true
		case r == ']':
			bracket = false
		case bracket:
		default:
			b.WriteRune(r)
		}
	}
	f := b.String()
	if f == "" || f == "general" {
		return false
	}
	return strings.ContainsAny(f, "yd")
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
