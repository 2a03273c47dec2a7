package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/CameronXie/order-desk/internal/api/rest/response"
	"github.com/CameronXie/order-desk/internal/shopify"
)

// Registry manages the cancelled-order registry.
type Registry interface {
	Add(ctx context.Context, employeeID int, orderID string) error
	Find(ctx context.Context, orderID string) (*shopify.RegistryEntry, error)
	Update(ctx context.Context, entry *shopify.RegistryEntry) error
}

// AddRegistryRequest is the body of a registry addition.
type AddRegistryRequest struct {
	EmployeeID int    `json:"employee_id" validate:"required,gt=0"`
	OrderID    string `json:"order_id" validate:"required"`
}

// UpdateRegistryRequest is the body of a registry update.
type UpdateRegistryRequest struct {
	EmployeeID int    `json:"employee_id" validate:"omitempty,gt=0"`
	Status     string `json:"status"`
	Channel    string `json:"channel"`
}

// RegistryHandler serves the cancelled-order registry.
type RegistryHandler struct {
	registry Registry
	logger   *slog.Logger
}

// NewRegistryHandler creates the registry handler.
func NewRegistryHandler(registry Registry, logger *slog.Logger) *RegistryHandler {
	return &RegistryHandler{registry: registry, logger: logger}
}

// Add handles POST /api/v1/registry.
func (h *RegistryHandler) Add(w http.ResponseWriter, r *http.Request) {
	req := new(AddRegistryRequest)
	if err := decodeJSON(w, r, req); err != nil {
		response.JSONErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.registry.Add(r.Context(), req.EmployeeID, req.OrderID); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to add registry entry", "order_id", req.OrderID, "error", err)
		response.JSONErrorResponse(w, errorStatus(err), err.Error())
		return
	}

	response.JSONResponse(w, http.StatusCreated, req)
}

// Get handles GET /api/v1/registry/{order_id}.
func (h *RegistryHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.find(r.Context(), r.PathValue("order_id"))
	if err != nil {
		h.writeFindError(w, r, err)
		return
	}

	response.JSONResponse(w, http.StatusOK, entry)
}

// Update handles PUT /api/v1/registry/{order_id}. Blank fields keep their
// recorded value.
func (h *RegistryHandler) Update(w http.ResponseWriter, r *http.Request) {
	req := new(UpdateRegistryRequest)
	if err := decodeJSON(w, r, req); err != nil {
		response.JSONErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.find(r.Context(), r.PathValue("order_id"))
	if err != nil {
		h.writeFindError(w, r, err)
		return
	}

	if req.EmployeeID != 0 {
		entry.EmployeeID = req.EmployeeID
	}
	if req.Status != "" {
		entry.Status = req.Status
	}
	if req.Channel != "" {
		entry.Channel = req.Channel
	}

	if err := h.registry.Update(r.Context(), entry); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to update registry entry", "order_id", entry.OrderID, "error", err)
		response.JSONErrorResponse(w, errorStatus(err), err.Error())
		return
	}

	response.JSONResponse(w, http.StatusOK, entry)
}

func (h *RegistryHandler) find(ctx context.Context, orderID string) (*shopify.RegistryEntry, error) {
	if orderID == "" {
		return nil, errors.New("order id is required")
	}
	return h.registry.Find(ctx, orderID)
}

func (h *RegistryHandler) writeFindError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, shopify.ErrRegistryEntryNotFound) {
		response.JSONErrorResponse(w, http.StatusNotFound, err.Error())
		return
	}
	h.logger.ErrorContext(r.Context(), "failed to find registry entry", "error", err)
	response.JSONErrorResponse(w, errorStatus(err), err.Error())
}
