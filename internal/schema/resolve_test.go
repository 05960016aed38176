package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-dashboard/internal/models"
)

func sapHeaders() []string {
	return []string{
		"Fecha de contabilización", "Número interno", "Código de cliente/proveedor",
		"Nombre de cliente/proveedor", "SlpName", "ItemCode", "Dscription",
		"Quantity", "Price", "Venta",
	}
}

func TestResolve_SAPExport(t *testing.T) {
	m, err := Resolve(Table{Headers: sapHeaders()}, DefaultProfile())
	require.NoError(t, err)

	got := m.Headers()
	assert.Equal(t, "Fecha de contabilización", got[models.FieldDate])
	assert.Equal(t, "Número interno", got[models.FieldDocumentID])
	assert.Equal(t, "Código de cliente/proveedor", got[models.FieldCustomerCode])
	assert.Equal(t, "Nombre de cliente/proveedor", got[models.FieldCustomerName])
	assert.Equal(t, "SlpName", got[models.FieldSalesperson])
	assert.Equal(t, "ItemCode", got[models.FieldItemCode])
	assert.Equal(t, "Dscription", got[models.FieldProductDescription])
	assert.Equal(t, "Quantity", got[models.FieldQuantity])
	assert.Equal(t, "Price", got[models.FieldUnitPrice])
	assert.Equal(t, "Venta", got[models.FieldLineTotal])

	for _, match := range m.Matches {
		assert.Equal(t, StrategyExact, match.Strategy, match.Field)
	}
}

func TestResolve_ExactSynonym(t *testing.T) {
	headers := []string{"Fecha", "DocNum", "CardName", "Vendedor", "Descripcion", "Cantidad", "Precio", "Total"}
	m, err := Resolve(Table{Headers: headers}, DefaultProfile())
	require.NoError(t, err)

	col, ok := m.Column(models.FieldCustomerName)
	require.True(t, ok)
	assert.Equal(t, 2, col)
	assert.Equal(t, StrategyExact, m.Matches[m.index[models.FieldCustomerName]].Strategy)
}

func TestResolve_SubstringFallback(t *testing.T) {
	headers := []string{"Fecha", "Documento", "Cliente Principal", "Vendedor", "Producto", "Cantidad", "Precio", "Total"}
	m, err := Resolve(Table{Headers: headers}, DefaultProfile())
	require.NoError(t, err)

	match := m.Matches[m.index[models.FieldCustomerName]]
	assert.Equal(t, "Cliente Principal", match.Header)
	assert.Equal(t, StrategySubstring, match.Strategy)

	_, ok := m.Column(models.FieldCustomerCode)
	assert.False(t, ok, "optional customer_code should stay unresolved")
}

func TestResolve_CaseAndAccentInsensitive(t *testing.T) {
	headers := []string{"FECHA", "numero INTERNO", "cardname", "slpname", "DSCRIPTION", "quantity", "PRICE", "venta"}
	m, err := Resolve(Table{Headers: headers}, DefaultProfile())
	require.NoError(t, err)
	assert.Equal(t, "numero INTERNO", m.Headers()[models.FieldDocumentID])
	for _, match := range m.Matches {
		assert.Equal(t, StrategyExact, match.Strategy, match.Field)
	}
}

func TestResolve_ExactBeatsEarlierSubstring(t *testing.T) {
	// "Cliente" is a substring of the customer code header, but the code
	// column is claimed by its exact match first.
	headers := []string{"Fecha", "Documento", "Código de cliente/proveedor", "Cliente", "Vendedor", "Producto", "Cantidad", "Precio", "Total"}
	m, err := Resolve(Table{Headers: headers}, DefaultProfile())
	require.NoError(t, err)
	assert.Equal(t, "Código de cliente/proveedor", m.Headers()[models.FieldCustomerCode])
	assert.Equal(t, "Cliente", m.Headers()[models.FieldCustomerName])
}

func TestResolve_ColumnClaimedOnce(t *testing.T) {
	headers := []string{"Fecha", "Documento", "Cliente", "Vendedor", "Producto", "Cantidad", "Precio Total"}
	_, err := Resolve(Table{Headers: headers}, DefaultProfile())

	var rerr *ResolutionError
	require.ErrorAs(t, err, &rerr)
	// "Precio Total" goes to unit_price by substring; line_total has nothing left.
	assert.Equal(t, []string{models.FieldLineTotal}, rerr.Missing)
}

func TestResolve_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		missing []string
	}{
		{
			name:    "no salesperson",
			headers: []string{"Fecha", "DocNum", "CardName", "Dscription", "Quantity", "Price", "Venta"},
			missing: []string{models.FieldSalesperson},
		},
		{
			name:    "numbers missing",
			headers: []string{"Fecha", "DocNum", "CardName", "SlpName", "Dscription"},
			missing: []string{models.FieldQuantity, models.FieldUnitPrice, models.FieldLineTotal},
		},
		{
			name:    "empty header",
			headers: nil,
			missing: []string{
				models.FieldDate, models.FieldDocumentID, models.FieldCustomerName, models.FieldSalesperson,
				models.FieldProductDescription, models.FieldQuantity, models.FieldUnitPrice, models.FieldLineTotal,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(Table{Headers: tt.headers}, DefaultProfile())
			var rerr *ResolutionError
			require.True(t, errors.As(err, &rerr))
			assert.Equal(t, tt.missing, rerr.Missing)
			for _, field := range tt.missing {
				assert.Contains(t, err.Error(), field)
			}
			assert.True(t, strings.Contains(err.Error(), "check the source sheet"))
		})
	}
}

func TestResolve_DateFallbackScan(t *testing.T) {
	p := DefaultProfile()
	for i := range p.Fields {
		if p.Fields[i].Name == models.FieldDate {
			p.Fields[i].Candidates = []string{"Posting"}
		}
	}
	p.DateTokens = []string{"fecha"}

	tbl := Table{
		Headers: []string{"Fecha alta", "Fecha doc", "DocNum", "CardName", "SlpName", "Dscription", "Quantity", "Price", "Venta"},
		Rows: [][]string{
			{"n/a", "2025-01-05", "D1", "Acme", "Ana", "Tire", "1", "1", "1"},
			{"", "2025-01-06", "D2", "Acme", "Ana", "Tire", "1", "1", "1"},
		},
	}

	m, err := Resolve(tbl, p)
	require.NoError(t, err)
	match := m.Matches[m.index[models.FieldDate]]
	assert.Equal(t, "Fecha doc", match.Header)
	assert.Equal(t, StrategyDateScan, match.Strategy)
}

func TestResolve_DateFallbackSkipsNumericColumns(t *testing.T) {
	p := DefaultProfile()
	for i := range p.Fields {
		if p.Fields[i].Name == models.FieldDate {
			p.Fields[i].Candidates = []string{"Posting"}
		}
	}
	p.DateTokens = []string{"fecha"}

	tbl := Table{
		Headers: []string{"Días desde fecha", "Fecha doc", "DocNum", "CardName", "SlpName", "Dscription", "Quantity", "Price", "Venta"},
		Rows: [][]string{
			{"12", "2025-01-05", "D1", "Acme", "Ana", "Tire", "1", "1", "1"},
			{"40", "2025-01-06", "D2", "Acme", "Ana", "Tire", "1", "1", "1"},
		},
	}

	m, err := Resolve(tbl, p)
	require.NoError(t, err)
	match := m.Matches[m.index[models.FieldDate]]
	assert.Equal(t, "Fecha doc", match.Header)
}

func TestResolutionError_Message(t *testing.T) {
	err := &ResolutionError{Missing: []string{"salesperson", "line_total"}, Source: "Data venta"}
	assert.Equal(t, `schema: missing required columns [salesperson, line_total]; check the source sheet "Data venta"`, err.Error())
}
