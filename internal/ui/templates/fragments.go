package templates

import (
	"fmt"
	"math"
	"strconv"

	"github.com/a-h/templ"

	"sales-dashboard/internal/format"
	"sales-dashboard/internal/models"
)

// Element ids patched by the refresh stream.
const (
	KPIsID         = "kpis"
	GroupsID       = "groups"
	TrendID        = "trend"
	TopProductsID  = "top-products"
	TopCustomersID = "top-customers"
	HistogramID    = "histogram"
	DetailID       = "detail"
	StatusID       = "status"
)

var groupHeaders = map[models.GroupKey]string{
	models.GroupByMonth:       "Mes",
	models.GroupByQuarter:     "Trimestre",
	models.GroupByCustomer:    "Cliente",
	models.GroupBySalesperson: "Vendedor",
	models.GroupByProduct:     "Producto",
}

// GroupLabel returns the display name of a grouping key.
func GroupLabel(key models.GroupKey) string {
	if label, ok := groupHeaders[key]; ok {
		return label
	}
	return string(key)
}

// KPICards renders the headline figures of a view.
func KPICards(s models.Summary, cur format.Currency) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div id="` + KPIsID + `" class="kpi-grid">`)
		card := func(label, value string) {
			h.raw(`<div class="kpi">`)
			h.el("span", "kpi-label", label)
			h.el("span", "kpi-value", value)
			h.raw(`</div>`)
		}
		card("Venta total ("+cur.Code()+")", cur.Money(s.LineTotal))
		card("Unidades", format.Quantity(s.Quantity))
		card("Precio promedio", cur.Ratio(s.AvgUnitValue))
		card("Documentos", format.Count(s.Documents))
		card("Clientes", format.Count(s.Customers))
		card("Líneas", format.Count(s.Records))
		h.raw(`</div>`)
	})
}

// GroupTable renders aggregates of one grouping key.
func GroupTable(groups []models.GroupAggregate, key models.GroupKey, cur format.Currency) templ.Component {
	showCustomers := key != models.GroupByCustomer
	return component(func(h *htmlWriter) {
		h.raw(`<div id="` + GroupsID + `">`)
		if len(groups) == 0 {
			h.el("p", "empty", "Sin datos para los filtros seleccionados.")
			h.raw(`</div>`)
			return
		}

		h.raw(`<table class="data-table"><thead><tr>`)
		h.el("th", "", GroupLabel(key))
		h.el("th", "num", "Venta ("+cur.Code()+")")
		h.el("th", "num", "Unidades")
		h.el("th", "num", "Precio prom.")
		h.el("th", "num", "Documentos")
		if showCustomers {
			h.el("th", "num", "Clientes")
		}
		h.el("th", "num", "Líneas")
		h.raw(`</tr></thead><tbody>`)

		for _, g := range groups {
			h.raw(`<tr>`)
			h.el("td", "", g.Key)
			h.el("td", "num", cur.Money(g.LineTotal))
			h.el("td", "num", format.Quantity(g.Quantity))
			h.el("td", "num", cur.Ratio(g.AvgUnitValue))
			h.el("td", "num", format.Count(g.Documents))
			if showCustomers {
				h.el("td", "num", format.Count(g.Customers))
			}
			h.el("td", "num", format.Count(g.Records))
			h.raw(`</tr>`)
		}
		h.raw(`</tbody></table></div>`)
	})
}

// BarChart renders groups as horizontal bars scaled to the largest absolute
// line total.
func BarChart(id, title string, groups []models.GroupAggregate, cur format.Currency) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div id="` + templ.EscapeString(id) + `" class="chart">`)
		h.el("h3", "", title)

		peak := 0.0
		for _, g := range groups {
			peak = max(peak, math.Abs(g.LineTotal))
		}
		for _, g := range groups {
			bar(h, g.Key, cur.Money(g.LineTotal), share(math.Abs(g.LineTotal), peak), g.LineTotal < 0)
		}
		h.raw(`</div>`)
	})
}

// HistogramChart renders unit price bins as bars scaled to the fullest bin.
func HistogramChart(bins []models.HistogramBin, cur format.Currency) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div id="` + HistogramID + `" class="chart">`)
		h.el("h3", "", "Distribución de precio unitario")

		peak := 0
		for _, b := range bins {
			peak = max(peak, b.Count)
		}
		for _, b := range bins {
			label := cur.Money(b.Lower) + " – " + cur.Money(b.Upper)
			bar(h, label, format.Count(b.Count), share(float64(b.Count), float64(peak)), false)
		}
		h.raw(`</div>`)
	})
}

func share(v, peak float64) float64 {
	if peak <= 0 {
		return 0
	}
	return v / peak * 100
}

func bar(h *htmlWriter, label, value string, pct float64, negative bool) {
	class := "bar"
	if negative {
		class += " negative"
	}
	h.raw(`<div class="bar-row">`)
	h.el("span", "bar-label", label)
	h.raw(`<span class="bar-track"><span class="` + class + `" style="width:` +
		strconv.FormatFloat(pct, 'f', 1, 64) + `%"></span></span>`)
	h.el("span", "bar-value", value)
	h.raw(`</div>`)
}

// DetailTable renders the first lines of a view; total is the view size.
func DetailTable(lines []models.SaleLine, total int, cur format.Currency) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div id="` + DetailID + `">`)
		h.el("p", "caption", fmt.Sprintf("Mostrando %s de %s líneas", format.Count(len(lines)), format.Count(total)))

		h.raw(`<table class="data-table"><thead><tr>`)
		for _, col := range []string{"Fecha", "Documento", "Cliente", "Vendedor", "Producto"} {
			h.el("th", "", col)
		}
		for _, col := range []string{"Cantidad", "Precio", "Total"} {
			h.el("th", "num", col)
		}
		h.raw(`</tr></thead><tbody>`)

		for _, l := range lines {
			h.raw(`<tr>`)
			h.el("td", "", l.Date.Format("02-01-2006"))
			h.el("td", "", l.DocumentID)
			h.el("td", "", l.CustomerName)
			h.el("td", "", l.Salesperson)
			h.el("td", "", l.ProductDescription)
			h.el("td", "num", format.Quantity(l.Quantity))
			h.el("td", "num", cur.Money(l.UnitPrice))
			h.el("td", "num", cur.Money(l.LineTotal))
			h.raw(`</tr>`)
		}
		h.raw(`</tbody></table></div>`)
	})
}

// StatusBanner renders a status line; errors are styled as alerts.
func StatusBanner(message string, isError bool) templ.Component {
	return component(func(h *htmlWriter) {
		status(h, message, isError)
	})
}

func status(h *htmlWriter, message string, isError bool) {
	class, role := "status", "status"
	if isError {
		class, role = "status error", "alert"
	}
	h.raw(`<div id="` + StatusID + `" class="` + class + `" role="` + role + `">`)
	h.text(message)
	h.raw(`</div>`)
}
