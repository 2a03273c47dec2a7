package shopify

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/CameronXie/order-desk/internal/metrics"
)

const (
	pathColors   = "/api/v1/colors/get-colors"
	pathProducts = "/api/product"
)

// StyleCode is a style number that the catalog encodes either as a number or a string.
type StyleCode int

// UnmarshalJSON accepts both 123 and "123".
func (s *StyleCode) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		// Non-numeric codes never match an order's style number.
		*s = 0
		return nil
	}
	*s = StyleCode(n)
	return nil
}

// MarshalJSON encodes the code as a JSON number.
func (s StyleCode) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(s))
}

// Color maps a style to its color name.
type Color struct {
	StyleCode StyleCode `json:"style_code"`
	Color     string    `json:"color"`
}

// Product maps a style to its warehouse rack.
type Product struct {
	StyleCode StyleCode `json:"style_code"`
	RackSpace string    `json:"rack_space"`
}

// CatalogClient reads the color lookup and the product catalog used by the picklist export.
type CatalogClient struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Collectors
}

// NewCatalogClient creates a CatalogClient rooted at baseURL.
func NewCatalogClient(baseURL string, opts ...Option) *CatalogClient {
	// reuse Client options so both collaborators are configured the same way
	c := NewClient(baseURL, opts...)
	return &CatalogClient{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		metrics:    c.metrics,
	}
}

// Colors fetches the style to color lookup.
func (c *CatalogClient) Colors(ctx context.Context) ([]Color, error) {
	var resp struct {
		Data []Color `json:"data"`
	}
	if err := c.get(ctx, pathColors, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Products fetches the product catalog.
func (c *CatalogClient) Products(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.get(ctx, pathProducts, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *CatalogClient) get(ctx context.Context, path string, out any) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveUpstream(path, time.Since(start), err)
	}()

	return doJSON(ctx, c.httpClient, http.MethodGet, c.baseURL+path, path, nil, out)
}
