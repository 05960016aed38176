// Package schema maps loosely named spreadsheet columns onto the canonical
// sales line fields and coerces their values.
package schema

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"sales-dashboard/internal/models"
)

// FieldSpec declares one canonical field and the header synonyms accepted for it,
// in priority order. The canonical name itself is always tried first.
type FieldSpec struct {
	Name       string
	Candidates []string
	Required   bool
	Numeric    bool
}

// Profile is the full set of candidate lists for one export format or locale.
type Profile struct {
	Fields []FieldSpec
	// DateTokens select the columns examined by the date fallback scan.
	DateTokens []string
	// DateLayouts are tried in order when parsing date cells.
	DateLayouts []string
}

var defaultDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"2/1/2006",
	"2006/01/02",
	"02/01/2006 15:04:05",
	"02-01-2006 15:04:05",
}

var monthFirstDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"01/02/2006",
	"01-02-2006",
	"01.02.2006",
	"1/2/2006",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01-02-2006 15:04:05",
}

// DefaultProfile returns the candidate lists for SAP Business One style exports
// with Spanish or English headers.
func DefaultProfile() Profile {
	return Profile{
		Fields: []FieldSpec{
			{Name: models.FieldDate, Required: true, Candidates: []string{"Fecha de contabilización", "Fecha"}},
			{Name: models.FieldDocumentID, Required: true, Candidates: []string{"Número interno", "Numero interno", "DocNum", "Documento"}},
			{Name: models.FieldCustomerCode, Candidates: []string{"Código de cliente/proveedor", "Codigo de cliente", "CardCode", "CodCliente"}},
			{Name: models.FieldCustomerName, Required: true, Candidates: []string{"Nombre de cliente/proveedor", "Nombre de cliente", "CardName", "Cliente"}},
			{Name: models.FieldSalesperson, Required: true, Candidates: []string{"SlpName", "Vendedor", "Ejecutivo"}},
			{Name: models.FieldItemCode, Candidates: []string{"ItemCode", "Codigo item", "Item"}},
			{Name: models.FieldProductDescription, Required: true, Candidates: []string{"Dscription", "Descripcion", "Description", "Producto"}},
			{Name: models.FieldQuantity, Required: true, Numeric: true, Candidates: []string{"Quantity", "Cantidad"}},
			{Name: models.FieldUnitPrice, Required: true, Numeric: true, Candidates: []string{"Price", "Precio", "PrecioUnit"}},
			{Name: models.FieldLineTotal, Required: true, Numeric: true, Candidates: []string{"Venta", "Total", "Monto", "VentaCLP"}},
		},
		DateTokens:  []string{"fecha", "date"},
		DateLayouts: append([]string(nil), defaultDateLayouts...),
	}
}

// profileFile is the YAML shape of a deployment profile. Only the lists that
// are present replace the defaults; required and numeric flags are fixed.
type profileFile struct {
	Fields      map[string][]string `yaml:"fields"`
	DateTokens  []string            `yaml:"date_tokens"`
	DateLayouts []string            `yaml:"date_layouts"`
	// MonthFirst reads ambiguous dates such as 03/05/2024 as March 5.
	// Explicit date_layouts take precedence.
	MonthFirst bool `yaml:"month_first"`
}

// LoadProfile reads a YAML profile and merges it over DefaultProfile.
func LoadProfile(path string) (Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return Profile{}, fmt.Errorf("open profile: %w", err)
	}
	defer f.Close()
	return ParseProfile(f)
}

// ParseProfile decodes a YAML profile from r and merges it over DefaultProfile.
//
//	fields:
//	  customer_name: ["Razón social", "Cliente"]
//	date_tokens: [fecha, date]
//	month_first: true
func ParseProfile(r io.Reader) (Profile, error) {
	var pf profileFile
	if err := yaml.NewDecoder(r).Decode(&pf); err != nil && err != io.EOF {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}

	p := DefaultProfile()
	for name, candidates := range pf.Fields {
		idx := -1
		for i := range p.Fields {
			if p.Fields[i].Name == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return Profile{}, fmt.Errorf("profile: unknown canonical field %q", name)
		}
		p.Fields[idx].Candidates = candidates
	}
	if len(pf.DateTokens) > 0 {
		p.DateTokens = pf.DateTokens
	}
	switch {
	case len(pf.DateLayouts) > 0:
		p.DateLayouts = pf.DateLayouts
	case pf.MonthFirst:
		p.DateLayouts = append([]string(nil), monthFirstDateLayouts...)
	}
	return p, nil
}
