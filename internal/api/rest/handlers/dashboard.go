package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/CameronXie/order-desk/internal/api/rest/response"
	"github.com/CameronXie/order-desk/internal/dashboard"
)

// Snapshotter aggregates the dashboard.
type Snapshotter interface {
	Snapshot(ctx context.Context, f *dashboard.Filter) (*dashboard.Snapshot, error)
}

// DashboardHandler serves the dashboard counts, chart and order list.
type DashboardHandler struct {
	dashboard Snapshotter
	logger    *slog.Logger
}

// ServeHTTP handles GET /api/v1/dashboard.
func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, err := parseDate(q.Get("from"), "from")
	if err != nil {
		response.JSONErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseDate(q.Get("to"), "to")
	if err != nil {
		response.JSONErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	snapshot, err := h.dashboard.Snapshot(r.Context(), &dashboard.Filter{
		Search: q.Get("search"),
		From:   from,
		To:     to,
		Tab:    dashboard.ParseTab(q.Get("tab")),
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to build dashboard", "error", err)
		response.JSONErrorResponse(w, http.StatusBadGateway, upstreamErrorMessage)
		return
	}

	response.JSONResponse(w, http.StatusOK, snapshot)
}

// NewDashboardHandler creates the dashboard handler.
func NewDashboardHandler(d Snapshotter, logger *slog.Logger) http.Handler {
	return &DashboardHandler{dashboard: d, logger: logger}
}
