package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/CameronXie/order-desk/internal/api/rest/response"
	"github.com/CameronXie/order-desk/internal/batch"
	"github.com/CameronXie/order-desk/internal/notify"
	"github.com/CameronXie/order-desk/internal/orderview"
	"github.com/CameronXie/order-desk/internal/shopify"
)

const backlogMessage = "First mark shipped orders from confirm orders"

// Dispatcher runs batch actions.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *batch.Request) (*batch.Result, error)
}

// ActionRequest is the body of an action request.
type ActionRequest struct {
	OrderIDs []string `json:"order_ids" validate:"required,min=1,dive,required"`
	// Force confirms even when confirmed orders are still waiting to ship.
	Force bool `json:"force"`
}

// ActionHandler runs a batch action over orders selected in a view.
type ActionHandler struct {
	client     OrderLister
	dispatcher Dispatcher
	views      *Views
	logger     *slog.Logger
}

// ServeHTTP handles POST /api/v1/orders/{view}/actions/{action}.
func (h *ActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	view, err := orderview.ParseView(r.PathValue("view"))
	if err != nil {
		response.JSONErrorResponse(w, http.StatusNotFound, err.Error())
		return
	}

	action, err := batch.ParseAction(r.PathValue("action"))
	if err != nil {
		response.JSONErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	req := new(ActionRequest)
	if err := decodeJSON(w, r, req); err != nil {
		response.JSONErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if action == batch.ActionConfirm && !req.Force {
		backlog, err := h.client.List(r.Context(), shopify.ListConfirmed)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "failed to fetch confirmed orders", "error", err)
			response.JSONErrorResponse(w, http.StatusBadGateway, upstreamErrorMessage)
			return
		}
		if len(backlog) > 0 {
			response.JSONErrorResponse(w, http.StatusConflict, backlogMessage)
			return
		}
	}

	records, err := h.client.List(r.Context(), view.ListKind())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to fetch orders", "view", view, "error", err)
		response.JSONErrorResponse(w, http.StatusBadGateway, upstreamErrorMessage)
		return
	}

	result, err := h.dispatcher.Dispatch(r.Context(), &batch.Request{
		Action:   action,
		View:     view.String(),
		Selected: req.OrderIDs,
		Records:  records,
		States:   h.views.States(view),
	})
	if err != nil {
		if errors.Is(err, batch.ErrEmptySelection) {
			response.JSONErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to dispatch action", "action", action, "error", err)
		response.JSONErrorResponse(w, http.StatusInternalServerError, internalServerErrorMessage)
		return
	}

	response.JSONResponse(w, http.StatusOK, result)
}

// NewActionHandler creates the batch action handler.
func NewActionHandler(client OrderLister, dispatcher Dispatcher, views *Views, logger *slog.Logger) http.Handler {
	return &ActionHandler{
		client:     client,
		dispatcher: dispatcher,
		views:      views,
		logger:     logger,
	}
}

// SizeEditor corrects the size of a stored order.
type SizeEditor interface {
	EditSize(ctx context.Context, id, size string) error
}

// EditSizeRequest is the body of a size correction.
type EditSizeRequest struct {
	Size string `json:"size" validate:"required"`
}

// EditSizeHandler corrects the size of a pending order.
type EditSizeHandler struct {
	editor   SizeEditor
	notifier notify.Notifier
	logger   *slog.Logger
}

// ServeHTTP handles POST /api/v1/orders/{id}/size.
func (h *EditSizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	req := new(EditSizeRequest)
	if err := decodeJSON(w, r, req); err != nil {
		response.JSONErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	view := orderview.ViewPending.String()
	if err := h.editor.EditSize(r.Context(), id, req.Size); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to edit size", "id", id, "error", err)
		h.send(r.Context(), notify.Toast(notify.LevelError, view, "Failed to update size"))
		response.JSONErrorResponse(w, errorStatus(err), err.Error())
		return
	}

	h.send(r.Context(), notify.Toast(notify.LevelSuccess, view, "Size updated to %s", req.Size))
	h.send(r.Context(), notify.Refresh(view))
	response.JSONResponse(w, http.StatusOK, map[string]string{"id": id, "size": req.Size})
}

func (h *EditSizeHandler) send(ctx context.Context, n notify.Notification) {
	if err := h.notifier.Send(ctx, n); err != nil {
		h.logger.WarnContext(ctx, "failed to send notification", "error", err)
	}
}

// NewEditSizeHandler creates the size correction handler.
func NewEditSizeHandler(editor SizeEditor, notifier notify.Notifier, logger *slog.Logger) http.Handler {
	return &EditSizeHandler{
		editor:   editor,
		notifier: notifier,
		logger:   logger,
	}
}
