// Package export writes filtered sales views as CSV.
package export

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/schema"
)

// Columns is the fixed column order of an export.
var Columns = append(append([]string(nil), schema.CanonicalHeaders...),
	models.FieldMonthBucket,
	models.FieldQuarterBucket,
	models.FieldAvgUnitValue,
)

// WriteCSV writes a header row followed by one row per line.
func WriteCSV(w io.Writer, lines []models.SaleLine) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return eris.Wrap(err, "export: write header")
	}

	for _, l := range lines {
		if err := cw.Write(Row(l)); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "export: flush")
	}
	return nil
}

// WriteFile exports lines to path, replacing any existing file.
func WriteFile(path string, lines []models.SaleLine) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	if err := WriteCSV(f, lines); err != nil {
		f.Close()
		return err
	}
	return eris.Wrap(f.Close(), "export: close file")
}

// Row renders l in Columns order. An undefined average is an empty cell.
func Row(l models.SaleLine) []string {
	avg := ""
	if l.AvgUnitValue.Valid {
		avg = schema.FormatNumber(l.AvgUnitValue.Value)
	}
	return append(schema.CanonicalRow(l),
		l.MonthBucket,
		l.QuarterBucket,
		avg,
	)
}
