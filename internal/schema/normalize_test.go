package schema

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-dashboard/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func scenarioTable() Table {
	return Table{
		Headers: []string{"Fecha", "DocNum", "CardName", "SlpName", "Dscription", "Quantity", "Price", "Venta"},
		Rows: [][]string{
			{"2025-01-05", "D1", "Acme", "Ana", "Tire A", "2", "100", "200"},
			{"2025-02-10", "D2", "Acme", "Ana", "Tire B", "0", "50", "0"},
		},
	}
}

func TestNormalize_Scenario(t *testing.T) {
	res, err := Normalize(scenarioTable(), DefaultProfile(), Options{})
	require.NoError(t, err)
	require.Len(t, res.Lines, 2)
	assert.Zero(t, res.Dropped)

	first := res.Lines[0]
	assert.Equal(t, day(2025, time.January, 5), first.Date)
	assert.Equal(t, "D1", first.DocumentID)
	assert.Equal(t, "Acme", first.CustomerName)
	assert.Equal(t, "Ana", first.Salesperson)
	assert.Equal(t, "Tire A", first.ProductDescription)
	assert.Equal(t, 2.0, first.Quantity)
	assert.Equal(t, 100.0, first.UnitPrice)
	assert.Equal(t, 200.0, first.LineTotal)
	assert.Empty(t, first.CustomerCode)
	assert.Empty(t, first.MonthBucket, "derivation is not part of normalization")
}

func TestNormalize_DropsUnparseableDates(t *testing.T) {
	tbl := scenarioTable()
	tbl.Rows = append(tbl.Rows,
		[]string{"not a date", "D3", "Beta", "Luis", "Tube", "1", "10", "10"},
		[]string{"", "D4", "Beta", "Luis", "Tube", "1", "10", "10"},
	)

	res, err := Normalize(tbl, DefaultProfile(), Options{})
	require.NoError(t, err)
	assert.Len(t, res.Lines, 2)
	assert.Equal(t, 2, res.Dropped)
	for _, l := range res.Lines {
		assert.False(t, l.Date.IsZero())
	}
}

func TestNormalize_BareNumbersAreNotDates(t *testing.T) {
	tbl := scenarioTable()
	tbl.Rows = append(tbl.Rows,
		[]string{"7", "D3", "Beta", "Luis", "Tube", "1", "10", "10"},
		[]string{"2025", "D4", "Beta", "Luis", "Tube", "1", "10", "10"},
		[]string{"45662", "D5", "Beta", "Luis", "Tube", "1", "10", "10"},
	)

	res, err := Normalize(tbl, DefaultProfile(), Options{})
	require.NoError(t, err)
	assert.Len(t, res.Lines, 2)
	assert.Equal(t, 3, res.Dropped)
	for _, l := range res.Lines {
		assert.NotEqual(t, "Beta", l.CustomerName)
	}
}

func TestNormalize_PermissiveNumbers(t *testing.T) {
	tbl := Table{
		Headers: []string{"Fecha", "DocNum", "CardName", "SlpName", "Dscription", "Quantity", "Price", "Venta"},
		Rows: [][]string{
			{"2025-03-01", "D1", "Acme", "Ana", "Tire", "abc", "", "NaN"},
			{"2025-03-02", "D2", "Acme", "Ana", "Tire"},
			{"2025-03-03", "D3", "Acme", "Ana", "Tire", "3", "$1.250.000", "3.750.000,5"},
		},
	}

	res, err := Normalize(tbl, DefaultProfile(), Options{})
	require.NoError(t, err)
	require.Len(t, res.Lines, 3)

	assert.Equal(t, 0.0, res.Lines[0].Quantity)
	assert.Equal(t, 0.0, res.Lines[0].UnitPrice)
	assert.Equal(t, 0.0, res.Lines[0].LineTotal)

	assert.Equal(t, 0.0, res.Lines[1].Quantity, "short rows read as empty cells")

	assert.Equal(t, 3.0, res.Lines[2].Quantity)
	assert.Equal(t, 1250000.0, res.Lines[2].UnitPrice)
	assert.Equal(t, 3750000.5, res.Lines[2].LineTotal)
}

func TestNormalize_StrictNumbers(t *testing.T) {
	tbl := scenarioTable()
	tbl.Rows[1][6] = "fifty"

	_, err := Normalize(tbl, DefaultProfile(), Options{StrictNumbers: true})
	var cerr *CoercionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 2, cerr.Row)
	assert.Equal(t, models.FieldUnitPrice, cerr.Field)
	assert.Equal(t, "Price", cerr.Header)
	assert.Equal(t, "fifty", cerr.Value)

	tbl.Rows[1][6] = ""
	_, err = Normalize(tbl, DefaultProfile(), Options{StrictNumbers: true})
	assert.NoError(t, err, "empty cells are 0 even in strict mode")
}

func TestNormalize_NumericFlagDrivesCoercion(t *testing.T) {
	p := DefaultProfile()
	for i := range p.Fields {
		if p.Fields[i].Name == models.FieldUnitPrice {
			p.Fields[i].Numeric = false
		}
	}
	tbl := scenarioTable()
	tbl.Rows[1][6] = "fifty"

	res, err := Normalize(tbl, p, Options{StrictNumbers: true})
	require.NoError(t, err)
	for _, l := range res.Lines {
		assert.Equal(t, 0.0, l.UnitPrice)
	}
	assert.NotZero(t, res.Lines[0].LineTotal)
}

func TestNormalize_NumericFlagOnTextField(t *testing.T) {
	p := DefaultProfile()
	for i := range p.Fields {
		if p.Fields[i].Name == models.FieldCustomerName {
			p.Fields[i].Numeric = true
		}
	}

	_, err := Normalize(scenarioTable(), p, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), models.FieldCustomerName)
}

func TestNormalize_ResolutionErrorNamesSource(t *testing.T) {
	tbl := Table{Headers: []string{"Fecha", "DocNum"}}
	_, err := Normalize(tbl, DefaultProfile(), Options{Source: "Data venta"})

	var rerr *ResolutionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "Data venta", rerr.Source)
	assert.True(t, strings.HasSuffix(err.Error(), `check the source sheet "Data venta"`))
}

func TestNormalize_Idempotent(t *testing.T) {
	tbl := Table{
		Headers: []string{"Fecha de contabilización", "Número interno", "Código de cliente/proveedor",
			"Nombre de cliente/proveedor", "SlpName", "ItemCode", "Dscription", "Quantity", "Price", "Venta"},
		Rows: [][]string{
			{"05/01/2025", "101", "C-1", "Acme", "Ana", "I-1", "Tire A", "2", "100.5", "201"},
			{"2025-02-10", "102", "C-2", "Beta", "Luis", "I-2", "Tire B", "1.234", "50", "61.7"},
		},
	}

	first, err := Normalize(tbl, DefaultProfile(), Options{})
	require.NoError(t, err)

	canonical := CanonicalTable(first.Lines)
	second, err := Normalize(canonical, DefaultProfile(), Options{})
	require.NoError(t, err)

	assert.Equal(t, first.Lines, second.Lines)
	assert.Equal(t, canonical, CanonicalTable(second.Lines))
	for _, m := range second.Mapping.Matches {
		assert.Equal(t, StrategyExact, m.Strategy)
		assert.Equal(t, m.Field, m.Header)
	}
}

func TestParseProfile_OverridesCandidates(t *testing.T) {
	yml := `
fields:
  customer_name: ["Razón social"]
date_tokens: [posting]
`
	p, err := ParseProfile(strings.NewReader(yml))
	require.NoError(t, err)

	var f FieldSpec
	for _, spec := range p.Fields {
		if spec.Name == models.FieldCustomerName {
			f = spec
		}
	}
	assert.Equal(t, []string{"Razón social"}, f.Candidates)
	assert.True(t, f.Required)
	assert.Equal(t, []string{"posting"}, p.DateTokens)
	assert.NotEmpty(t, p.DateLayouts)

	tbl := Table{
		Headers: []string{"Fecha", "DocNum", "Razon Social", "SlpName", "Dscription", "Quantity", "Price", "Venta"},
		Rows:    [][]string{{"2025-01-05", "D1", "Acme", "Ana", "Tire", "1", "1", "1"}},
	}
	res, err := Normalize(tbl, p, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Acme", res.Lines[0].CustomerName)
}

func TestParseProfile_MonthFirst(t *testing.T) {
	tbl := scenarioTable()
	tbl.Rows[0][0] = "03/05/2024"

	res, err := Normalize(tbl, DefaultProfile(), Options{})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.May, 3, 0, 0, 0, 0, time.UTC), res.Lines[0].Date)

	p, err := ParseProfile(strings.NewReader("month_first: true\n"))
	require.NoError(t, err)
	res, err = Normalize(tbl, p, Options{})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), res.Lines[0].Date)

	p, err = ParseProfile(strings.NewReader("month_first: true\ndate_layouts: [\"02/01/2006\"]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"02/01/2006"}, p.DateLayouts)
}

func TestParseProfile_UnknownField(t *testing.T) {
	_, err := ParseProfile(strings.NewReader("fields:\n  discount: [Descuento]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discount")
}

func TestParseProfile_Empty(t *testing.T) {
	p, err := ParseProfile(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile(), p)
}
