package templates

import (
	"encoding/json"
	"time"

	"github.com/a-h/templ"

	"sales-dashboard/internal/models"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

// Signals is the client state the dashboard sends with every refresh.
type Signals struct {
	From        string   `json:"from"`
	To          string   `json:"to"`
	Customers   []string `json:"customers"`
	Salespeople []string `json:"salespeople"`
	Product     string   `json:"product"`
	GroupBy     string   `json:"groupBy"`
	TopN        int      `json:"topN"`
	USDRate     float64  `json:"usdRate"`
	ShowUSD     bool     `json:"showUsd"`
}

// Page is what the dashboard shell needs before any data is streamed.
type Page struct {
	Title   string
	Source  string
	Options models.FilterOptions
	Initial Signals
}

// NewPage builds the shell for a dataset, defaulting the date range to the
// span of the data.
func NewPage(source string, opts models.FilterOptions, groupBy models.GroupKey, topN int, usdRate float64, showUSD bool) Page {
	return Page{
		Title:   "Dashboard de ventas",
		Source:  source,
		Options: opts,
		Initial: Signals{
			From:        isoDate(opts.MinDate),
			To:          isoDate(opts.MaxDate),
			Customers:   []string{},
			Salespeople: []string{},
			GroupBy:     string(groupBy),
			TopN:        topN,
			USDRate:     usdRate,
			ShowUSD:     showUSD,
		},
	}
}

func isoDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

const refreshAction = "@get('/sse/refresh')"

const exportAction = "window.location = '/api/export.csv?' + new URLSearchParams(" +
	"[['from', $from], ['to', $to], ['q', $product]]" +
	".concat($customers.map(c => ['customer', c]), $salespeople.map(s => ['salesperson', s])))"

// Dashboard renders the page shell. Panels are filled by the refresh stream
// started on load.
func Dashboard(p Page) templ.Component {
	return component(func(h *htmlWriter) {
		signals, err := json.Marshal(p.Initial)
		if err != nil {
			h.err = err
			return
		}

		h.raw(`<!DOCTYPE html><html lang="es"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.el("title", "", p.Title)
		h.raw(`<script type="module" src="` + datastarScript + `"></script>`)
		h.raw(`<style>` + styles + `</style></head>`)

		h.raw(`<body data-signals="` + templ.EscapeString(string(signals)) + `" data-init="` + refreshAction + `">`)
		h.raw(`<header>`)
		h.el("h1", "", p.Title)
		if p.Source != "" {
			h.el("p", "source", "Fuente: "+p.Source)
		}
		h.raw(`</header>`)

		filters(h, p)

		h.raw(`<main>`)
		status(h, "Cargando…", false)
		h.raw(`<section>`)
		placeholder(h, KPIsID)
		h.raw(`</section><section class="panels">`)
		placeholder(h, TrendID)
		placeholder(h, HistogramID)
		placeholder(h, TopProductsID)
		placeholder(h, TopCustomersID)
		h.raw(`</section><section>`)
		h.el("h2", "", "Agrupación")
		placeholder(h, GroupsID)
		h.raw(`</section><section>`)
		h.el("h2", "", "Detalle")
		placeholder(h, DetailID)
		h.raw(`</section></main></body></html>`)
	})
}

func placeholder(h *htmlWriter, id string) {
	h.raw(`<div id="` + id + `"></div>`)
}

func filters(h *htmlWriter, p Page) {
	h.raw(`<form class="filters" data-on:submit__prevent="` + refreshAction + `">`)

	h.raw(`<label>Desde <input type="date" data-bind:from`)
	dateBounds(h, p.Options)
	h.raw(`></label>`)
	h.raw(`<label>Hasta <input type="date" data-bind:to`)
	dateBounds(h, p.Options)
	h.raw(`></label>`)

	multiSelect(h, "Clientes", "customers", p.Options.Customers)
	multiSelect(h, "Vendedores", "salespeople", p.Options.Salespeople)

	h.raw(`<label>Producto <input type="search" placeholder="contiene…" data-bind:product></label>`)

	h.raw(`<label>Agrupar por <select data-bind:group-by>`)
	for _, key := range models.GroupKeys {
		h.raw(`<option value="` + string(key) + `">`)
		h.text(GroupLabel(key))
		h.raw(`</option>`)
	}
	h.raw(`</select></label>`)

	h.raw(`<label>Top N <input type="number" min="5" max="30" data-bind:top-n></label>`)
	h.raw(`<label>CLP por USD <input type="number" min="100" max="2000" step="1" data-bind:usd-rate></label>`)
	h.raw(`<label><input type="checkbox" data-bind:show-usd> Ver en USD</label>`)

	h.raw(`<button type="submit">Aplicar</button>`)
	h.raw(`<button type="button" data-on:click="` + templ.EscapeString(exportAction) + `">Exportar CSV</button>`)
	h.raw(`</form>`)
}

func dateBounds(h *htmlWriter, opts models.FilterOptions) {
	if d := isoDate(opts.MinDate); d != "" {
		h.raw(` min="` + d + `"`)
	}
	if d := isoDate(opts.MaxDate); d != "" {
		h.raw(` max="` + d + `"`)
	}
}

func multiSelect(h *htmlWriter, label, signal string, values []string) {
	h.raw(`<label>`)
	h.text(label)
	h.raw(` <select multiple size="6" data-bind:` + signal + `>`)
	for _, v := range values {
		h.raw(`<option value="` + templ.EscapeString(v) + `">`)
		h.text(v)
		h.raw(`</option>`)
	}
	h.raw(`</select></label>`)
}

const styles = `
body{font-family:system-ui,sans-serif;margin:0;background:#f5f6f8;color:#1f2933}
header{padding:1rem 2rem;background:#1f3a5f;color:#fff}
header .source{margin:0;opacity:.8}
main{padding:1rem 2rem}
.filters{display:flex;flex-wrap:wrap;gap:1rem;align-items:flex-end;padding:1rem 2rem;background:#fff;border-bottom:1px solid #d9dee4}
.filters label{display:flex;flex-direction:column;font-size:.85rem;gap:.25rem}
.kpi-grid{display:grid;grid-template-columns:repeat(auto-fit,minmax(160px,1fr));gap:1rem}
.kpi{background:#fff;border-radius:8px;padding:1rem;box-shadow:0 1px 2px rgba(0,0,0,.08)}
.kpi-label{display:block;font-size:.8rem;color:#52606d}
.kpi-value{display:block;font-size:1.4rem;font-weight:600}
.panels{display:grid;grid-template-columns:repeat(auto-fit,minmax(380px,1fr));gap:1rem;margin-top:1rem}
.chart{background:#fff;border-radius:8px;padding:1rem}
.bar-row{display:grid;grid-template-columns:10rem 1fr 8rem;gap:.5rem;align-items:center;font-size:.8rem}
.bar-label{overflow:hidden;text-overflow:ellipsis;white-space:nowrap}
.bar-track{background:#e4e7eb;border-radius:3px;height:.7rem}
.bar{display:block;height:100%;background:#2f80ed;border-radius:3px}
.bar.negative{background:#d64545}
.bar-value,.num{text-align:right}
.data-table{width:100%;border-collapse:collapse;background:#fff;font-size:.85rem}
.data-table th,.data-table td{padding:.4rem .6rem;border-bottom:1px solid #e4e7eb}
.status{padding:.5rem 0;color:#52606d}
.status.error{color:#d64545;font-weight:600}
`
