package shopify

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

const registryPrefix = "/api/v1/shopify"

// ErrRegistryEntryNotFound is returned when no registry entry matches an order id.
var ErrRegistryEntryNotFound = errors.New("cancelled order not found in registry")

// RegistryEntry is a manually recorded cancellation, attributed to an employee.
type RegistryEntry struct {
	ID         string `json:"_id,omitempty"`
	EmployeeID int    `json:"employee_id"`
	OrderID    string `json:"order_id"`
	Status     string `json:"status,omitempty"`
	Channel    string `json:"channel,omitempty"`
}

// RegistryClient manages the cancelled-order registry kept by the picklist backend.
type RegistryClient struct {
	client *Client
}

// NewRegistryClient creates a RegistryClient for the picklist backend at baseURL.
func NewRegistryClient(baseURL string, opts ...Option) *RegistryClient {
	return &RegistryClient{client: NewClient(strings.TrimRight(baseURL, "/")+registryPrefix, opts...)}
}

// Add records a cancelled order.
func (r *RegistryClient) Add(ctx context.Context, employeeID int, orderID string) error {
	return r.client.do(ctx, http.MethodPost, "/add", RegistryEntry{EmployeeID: employeeID, OrderID: orderID}, nil)
}

// Find returns the first registry entry recorded for orderID.
func (r *RegistryClient) Find(ctx context.Context, orderID string) (*RegistryEntry, error) {
	var resp struct {
		Data struct {
			Data []RegistryEntry `json:"data"`
		} `json:"data"`
	}

	path := "/list?order_id=" + url.QueryEscape(orderID)
	if err := r.client.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	if len(resp.Data.Data) == 0 {
		return nil, ErrRegistryEntryNotFound
	}
	return &resp.Data.Data[0], nil
}

// Update replaces the registry entry identified by entry.ID.
func (r *RegistryClient) Update(ctx context.Context, entry *RegistryEntry) error {
	if entry.ID == "" {
		return errors.New("registry entry id is required")
	}
	return r.client.do(ctx, http.MethodPut, "/update/"+url.PathEscape(entry.ID), entry, nil)
}
