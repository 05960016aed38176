package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/export"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
)

const (
	defaultRecordsLimit = 200
	maxRecordsLimit     = 10000
	maxGroupsLimit      = 1000
	exportFilename      = "ventas_filtradas.csv"
)

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	errors.WriteSuccess(w, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"records":   h.analytics.Dataset().Len(),
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}

// HandleReload re-reads the source file and swaps in the new dataset.
func (h *APIHandlers) HandleReload(w http.ResponseWriter, r *http.Request) {
	if err := h.analytics.Reload(r.Context()); err != nil {
		if stderrors.Is(err, services.ErrNoSource) {
			err = errors.ServiceUnavailable(err.Error())
		}
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccess(w, h.analytics.Stats())
}

func (h *APIHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Options())
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	spec, err := filterFromQuery(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	summary, err := h.analytics.Summary(spec)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccess(w, summary)
}

type groupsResponse struct {
	By     models.GroupKey         `json:"by"`
	Groups []models.GroupAggregate `json:"groups"`
}

func (h *APIHandlers) HandleGroups(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	spec, err := filterFromQuery(q)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	key := models.GroupKey(q.Get("by"))
	if key == "" {
		key = models.GroupByMonth
	}
	if !key.Valid() {
		h.fail(w, r, errors.BadRequest("invalid by, expected one of month, quarter, customer, salesperson, product"))
		return
	}

	limit, err := intParam(q, "limit", 0, maxGroupsLimit)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	groups, err := h.analytics.Groups(spec, key, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccess(w, groupsResponse{By: key, Groups: groups})
}

type recordsResponse struct {
	Total   int               `json:"total"`
	Records []models.SaleLine `json:"records"`
}

func (h *APIHandlers) HandleRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	spec, err := filterFromQuery(q)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	limit, err := intParam(q, "limit", defaultRecordsLimit, maxRecordsLimit)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	view, err := h.analytics.View(spec)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccess(w, recordsResponse{
		Total:   len(view),
		Records: view[:min(len(view), limit)],
	})
}

// HandleExport streams the filtered view as CSV.
func (h *APIHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	spec, err := filterFromQuery(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	view, err := h.analytics.View(spec)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	if err := export.WriteCSV(w, view); err != nil {
		h.logger.Error("export failed",
			"error", err,
			"request_id", observability.GetRequestID(r.Context()),
		)
	}
}
