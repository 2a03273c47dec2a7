package shopify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/CameronXie/order-desk/internal/domain"
)

// ListKind names a list endpoint of the remote API.
type ListKind string

const (
	ListPending   ListKind = "/pending-orders"
	ListConfirmed ListKind = "/confirm-orders"
	ListCancelled ListKind = "/cancel-orders"
	ListAll       ListKind = "/all-orders"
)

// Endpoint names a single-order submission endpoint.
type Endpoint string

const (
	EndpointConfirm Endpoint = "/add-to-confirm"
	EndpointCancel  Endpoint = "/add-to-cancel"
	EndpointShip    Endpoint = "/add-to-ship"
)

const (
	pathAddToPending = "/add-to-pending"
	pathAllOrders    = "/add/all-orders"
	pathEdit         = "/edit"
)

// OrderPayload is the flat order body accepted by the submission endpoints.
type OrderPayload struct {
	OrderID        string `json:"order_id" validate:"required"`
	StyleNumber    int    `json:"styleNumber" validate:"required"`
	Size           string `json:"size" validate:"required"`
	Quantity       int    `json:"quantity" validate:"required"`
	OrderDate      string `json:"order_date" validate:"required"`
	ShippingMethod string `json:"shipping_method"`
	OrderStatus    string `json:"order_status"`
	ContactNumber  string `json:"contact_number"`
	PaymentStatus  string `json:"payment_status"`
}

// PayloadFromOrder builds a submission body from an in-memory order with an
// explicit status override.
func PayloadFromOrder(o *domain.Order, status string) OrderPayload {
	return OrderPayload{
		OrderID:        o.OrderID,
		StyleNumber:    o.StyleNumber,
		Size:           o.Size,
		Quantity:       o.Quantity,
		OrderDate:      o.OrderDate,
		ShippingMethod: o.ShippingMethod,
		OrderStatus:    status,
		ContactNumber:  o.ContactNumber,
		PaymentStatus:  o.PaymentStatus,
	}
}

type listResponse struct {
	Data []domain.Order `json:"data"`
}

// List fetches every order of the given list.
func (c *Client) List(ctx context.Context, kind ListKind) ([]domain.Order, error) {
	var resp listResponse
	if err := c.do(ctx, http.MethodGet, string(kind), nil, &resp); err != nil {
		return nil, err
	}

	if resp.Data == nil {
		return []domain.Order{}, nil
	}
	return resp.Data, nil
}

// AddToPending submits many orders to the pending list in one request.
func (c *Client) AddToPending(ctx context.Context, orders []OrderPayload) error {
	body := struct {
		Orders []OrderPayload `json:"orders"`
	}{Orders: orders}

	return c.do(ctx, http.MethodPost, pathAddToPending, body, nil)
}

// Submit posts a single order to a confirm, cancel or ship endpoint.
func (c *Client) Submit(ctx context.Context, endpoint Endpoint, payload OrderPayload) error {
	switch endpoint {
	case EndpointConfirm, EndpointCancel, EndpointShip:
	default:
		return fmt.Errorf("unknown submission endpoint %q", endpoint)
	}

	return c.do(ctx, http.MethodPost, string(endpoint), payload, nil)
}

// MoveToAllOrders moves a single order into the all-orders list.
func (c *Client) MoveToAllOrders(ctx context.Context, orderID string) error {
	body := struct {
		OrderID string `json:"order_id"`
	}{OrderID: orderID}

	return c.do(ctx, http.MethodPost, pathAllOrders, body, nil)
}

// EditSize corrects the size of the order stored under the remote record id.
func (c *Client) EditSize(ctx context.Context, id, size string) error {
	body := struct {
		ID   string `json:"id"`
		Size string `json:"size"`
	}{ID: id, Size: size}

	return c.do(ctx, http.MethodPost, pathEdit, body, nil)
}
