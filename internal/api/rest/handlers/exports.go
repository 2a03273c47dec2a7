package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/CameronXie/order-desk/internal/api/rest/response"
	"github.com/CameronXie/order-desk/internal/export"
	"github.com/CameronXie/order-desk/internal/orderview"
)

// Exporter renders order exports.
type Exporter interface {
	Export(ctx context.Context, req *export.Request) (*export.File, error)
}

// ExportHandler streams an export of a view as a file download.
type ExportHandler struct {
	client   OrderLister
	exporter Exporter
	logger   *slog.Logger
}

// ServeHTTP handles GET /api/v1/exports/{view}. The list is filtered by the
// same search, from, to and sort parameters as the view it is exported from.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	view, err := orderview.ParseView(r.PathValue("view"))
	if err != nil {
		response.JSONErrorResponse(w, http.StatusNotFound, err.Error())
		return
	}

	query, _, _, err := parseListQuery(r, view)
	if err != nil {
		response.JSONErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	q := r.URL.Query()
	format := export.Format(strings.ToLower(q.Get("format")))
	if format == "" {
		format = export.FormatXLSX
	}

	orders, err := h.client.List(r.Context(), view.ListKind())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to fetch orders", "view", view, "error", err)
		response.JSONErrorResponse(w, http.StatusBadGateway, upstreamErrorMessage)
		return
	}

	file, err := h.exporter.Export(r.Context(), &export.Request{
		View:     view,
		Format:   format,
		Orders:   orderview.Apply(orders, query),
		Selected: splitIDs(q.Get("ids")),
	})
	if err != nil {
		var unsupported *export.UnsupportedFormatError
		switch {
		case errors.As(err, &unsupported):
			response.JSONErrorResponse(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, export.ErrNothingToExport):
			response.JSONErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.logger.ErrorContext(r.Context(), "failed to export orders", "view", view, "format", format, "error", err)
			response.JSONErrorResponse(w, http.StatusInternalServerError, internalServerErrorMessage)
		}
		return
	}

	response.FileResponse(w, file.Name, file.ContentType, file.Data)
}

// NewExportHandler creates the export handler.
func NewExportHandler(client OrderLister, exporter Exporter, logger *slog.Logger) http.Handler {
	return &ExportHandler{client: client, exporter: exporter, logger: logger}
}

func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
