package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/CameronXie/order-desk/internal/api/rest/response"
	"github.com/CameronXie/order-desk/internal/batch"
	"github.com/CameronXie/order-desk/internal/clock"
	"github.com/CameronXie/order-desk/internal/domain"
	"github.com/CameronXie/order-desk/internal/orderview"
	"github.com/CameronXie/order-desk/internal/shopify"
)

const (
	internalServerErrorMessage = "internal server error"
	invalidRequestBodyMessage  = "invalid request body"
	upstreamErrorMessage       = "failed to fetch orders"
)

// OrderLister fetches a remote order list.
type OrderLister interface {
	List(ctx context.Context, kind shopify.ListKind) ([]domain.Order, error)
}

// OrderRow is an order with the view state shown next to it.
type OrderRow struct {
	domain.Order
	State batch.RowState `json:"state"`
	Stale bool           `json:"stale"`
	Age   *int           `json:"age_days,omitempty"`
}

// OrderPage is the body of a list response.
type OrderPage struct {
	View       orderview.View `json:"view"`
	Orders     []OrderRow     `json:"orders"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	Total      int            `json:"total"`
	StaleCount int            `json:"stale_count"`
	// PageKey is sent back as page_key so a changed filter or list restarts at page 1.
	PageKey string `json:"page_key"`
}

// ListOrdersHandler serves a filtered, sorted and paginated order view.
type ListOrdersHandler struct {
	client         OrderLister
	views          *Views
	clock          clock.Clock
	pageSize       int
	staleAfterDays int
	logger         *slog.Logger
}

// ServeHTTP handles GET /api/v1/orders/{view}.
func (h *ListOrdersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	view, err := orderview.ParseView(r.PathValue("view"))
	if err != nil {
		response.JSONErrorResponse(w, http.StatusNotFound, err.Error())
		return
	}

	query, requested, previous, err := parseListQuery(r, view)
	if err != nil {
		response.JSONErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	orders, err := h.client.List(r.Context(), view.ListKind())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to fetch orders", "view", view, "error", err)
		response.JSONErrorResponse(w, http.StatusBadGateway, upstreamErrorMessage)
		return
	}

	filtered := orderview.Apply(orders, query)
	key := orderview.PageKey(query.Fingerprint(), len(orders))
	page := orderview.ResolvePage(previous, key, requested)
	p := orderview.Paginate(filtered, page, h.pageSize)

	now := h.clock.Now()
	states := h.views.States(view)
	rows := make([]OrderRow, 0, len(p.Items))
	for i := range p.Items {
		o := &p.Items[i]
		row := OrderRow{Order: *o, State: states.Get(o.OrderID)}
		if view == orderview.ViewPending {
			row.Stale = orderview.Stale(o, now, h.staleAfterDays)
			if age, ok := orderview.AgeInDays(o, now); ok {
				row.Age = &age
			}
		}
		rows = append(rows, row)
	}

	body := OrderPage{
		View:       view,
		Orders:     rows,
		Page:       p.Page,
		TotalPages: p.TotalPages,
		Total:      p.Total,
		PageKey:    key,
	}
	if view == orderview.ViewPending {
		body.StaleCount = orderview.StaleCount(filtered, now, h.staleAfterDays)
	}

	response.JSONResponse(w, http.StatusOK, body)
}

// NewListOrdersHandler creates the order list handler.
func NewListOrdersHandler(
	client OrderLister,
	views *Views,
	c clock.Clock,
	pageSize, staleAfterDays int,
	logger *slog.Logger,
) http.Handler {
	return &ListOrdersHandler{
		client:         client,
		views:          views,
		clock:          c,
		pageSize:       pageSize,
		staleAfterDays: staleAfterDays,
		logger:         logger,
	}
}

// parseListQuery reads the filters, the requested page and the page key of
// the previous response.
func parseListQuery(r *http.Request, view orderview.View) (*orderview.Query, int, string, error) {
	q := r.URL.Query()

	from, err := parseDate(q.Get("from"), "from")
	if err != nil {
		return nil, 0, "", err
	}
	to, err := parseDate(q.Get("to"), "to")
	if err != nil {
		return nil, 0, "", err
	}

	page := 0
	if raw := q.Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil {
			return nil, 0, "", fmt.Errorf("invalid page %q", raw)
		}
	}

	return &orderview.Query{
		Search:            q.Get("search"),
		Fields:            view.SearchFields(),
		From:              from,
		To:                to,
		Sort:              orderview.ParseSort(q.Get("sort")),
		CreatedAtFallback: view.CreatedAtFallback(),
	}, page, q.Get("page_key"), nil
}

// parseDate reads an optional DD-MM-YYYY bound.
func parseDate(raw, name string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}

	t, ok := domain.ParseOrderDate(raw)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid %s date %q, expected DD-MM-YYYY", name, raw)
	}
	return t, nil
}

// errorStatus maps upstream failures to a response status.
func errorStatus(err error) int {
	var apiErr *shopify.APIError
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
