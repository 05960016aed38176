package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/format"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/sales"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

const (
	maxDetailRows = 200
	histogramBins = 20
)

type SSEHandlers struct {
	analytics *services.Analytics
	display   config.DisplayConfig
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, display config.DisplayConfig, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		display:   display,
		logger:    logger,
	}
}

// refreshRequest is a validated set of dashboard signals.
type refreshRequest struct {
	spec     sales.FilterSpec
	groupBy  models.GroupKey
	topN     int
	currency format.Currency
}

func (h *SSEHandlers) parseSignals(sig templates.Signals) (refreshRequest, error) {
	spec, err := buildFilter(sig.From, sig.To, sig.Customers, sig.Salespeople, sig.Product)
	if err != nil {
		return refreshRequest{}, err
	}

	groupBy := models.GroupKey(sig.GroupBy)
	if groupBy == "" {
		groupBy = models.GroupByMonth
	}
	if !groupBy.Valid() {
		return refreshRequest{}, errors.BadRequest(fmt.Sprintf("unknown grouping %q", sig.GroupBy))
	}

	return refreshRequest{
		spec:    spec,
		groupBy: groupBy,
		topN:    config.ClampTopN(sig.TopN, h.display.TopN),
		currency: format.Currency{
			USDRate: config.ClampUSDRate(sig.USDRate, h.display.USDRate),
			ShowUSD: sig.ShowUSD,
		},
	}, nil
}

// HandleRefresh reads the dashboard signals, computes a snapshot of the
// filtered view and patches every panel.
func (h *SSEHandlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	log := observability.LoggerFrom(r.Context(), h.logger)

	var sig templates.Signals
	readErr := datastar.ReadSignals(r, &sig)

	sse := datastar.NewSSE(w, r)

	if readErr != nil {
		h.patchStatus(r.Context(), sse, log, "No se pudieron leer los filtros.", true)
		log.Warn("read signals", "error", readErr)
		return
	}

	req, err := h.parseSignals(sig)
	if err != nil {
		h.patchStatus(r.Context(), sse, log, errors.FromError(err).Message, true)
		return
	}

	snap, err := h.analytics.Snapshot(r.Context(), req.spec, services.SnapshotOptions{
		GroupBy:       req.groupBy,
		TopN:          req.topN,
		HistogramBins: histogramBins,
		DetailLimit:   maxDetailRows,
	})
	if err != nil {
		h.patchStatus(r.Context(), sse, log, errors.FromError(err).Message, true)
		log.Error("snapshot failed", "error", err)
		return
	}

	cur := req.currency
	fragments := []templ.Component{
		templates.KPICards(snap.Summary, cur),
		templates.BarChart(templates.TrendID, "Tendencia mensual", snap.Trend, cur),
		templates.HistogramChart(snap.Histogram, cur),
		templates.BarChart(templates.TopProductsID, fmt.Sprintf("Top %d productos", req.topN), snap.TopProducts, cur),
		templates.BarChart(templates.TopCustomersID, fmt.Sprintf("Top %d clientes", req.topN), snap.TopCustomers, cur),
		templates.GroupTable(snap.Groups, snap.GroupBy, cur),
		templates.DetailTable(snap.Records, snap.TotalRecords, cur),
	}
	for _, c := range fragments {
		html, err := templates.Render(r.Context(), c)
		if err != nil {
			log.Error("render fragment", "error", err)
			h.patchStatus(r.Context(), sse, log, "Error al generar el dashboard.", true)
			return
		}
		if err := sse.PatchElements(html); err != nil {
			log.Debug("client went away", "error", err)
			return
		}
	}

	signals, err := json.Marshal(map[string]any{
		"topN":    req.topN,
		"usdRate": cur.USDRate,
		"records": snap.TotalRecords,
	})
	if err != nil {
		log.Error("marshal signals", "error", err)
		return
	}
	if err := sse.PatchSignals(signals); err != nil {
		log.Debug("client went away", "error", err)
		return
	}

	h.patchStatus(r.Context(), sse, log, fmt.Sprintf("%s líneas · %s", format.Count(snap.TotalRecords), snap.GeneratedAt.Format("15:04:05")), false)
}

func (h *SSEHandlers) patchStatus(ctx context.Context, sse *datastar.ServerSentEventGenerator, log *slog.Logger, message string, isError bool) {
	html, err := templates.Render(ctx, templates.StatusBanner(message, isError))
	if err != nil {
		log.Error("render status", "error", err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		log.Debug("client went away", "error", err)
	}
}
