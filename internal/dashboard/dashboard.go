// Package dashboard aggregates the all-orders and pending lists into counts,
// chart series and tabbed order lists.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/CameronXie/order-desk/internal/domain"
	"github.com/CameronXie/order-desk/internal/orderview"
	"github.com/CameronXie/order-desk/internal/shopify"
)

// Tab selects the orders listed under the counts.
type Tab string

const (
	TabAll     Tab = "all"
	TabShipped Tab = "shipped"
	TabCancel  Tab = "cancel"
	TabPending Tab = "pending"
)

const (
	statusShipped = "shipped"
	statusCancel  = "cancel"
)

// ParseTab resolves a tab name, defaulting to TabAll.
func ParseTab(s string) Tab {
	switch t := Tab(strings.ToLower(strings.TrimSpace(s))); t {
	case TabShipped, TabCancel, TabPending:
		return t
	default:
		return TabAll
	}
}

// Lister fetches a remote order list.
type Lister interface {
	List(ctx context.Context, kind shopify.ListKind) ([]domain.Order, error)
}

// Filter narrows the all-orders list before counting.
type Filter struct {
	Search string
	From   time.Time
	To     time.Time
	Tab    Tab
}

// Data is the raw input of the dashboard.
type Data struct {
	All     []domain.Order
	Pending []domain.Order
}

// Counts are the dashboard totals. Pending is the size of the whole pending list.
type Counts struct {
	Total     int `json:"total"`
	Shipped   int `json:"shipped"`
	Cancelled int `json:"cancelled"`
	Pending   int `json:"pending"`
}

// Slice is one labelled count with its share as a whole percentage.
type Slice struct {
	Label   string `json:"label"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// Snapshot is what the dashboard shows for one filter.
type Snapshot struct {
	Counts Counts         `json:"counts"`
	Cards  []Slice        `json:"cards"`
	Chart  []Slice        `json:"chart"`
	Tab    Tab            `json:"tab"`
	Orders []domain.Order `json:"orders"`
}

// Aggregate computes the snapshot of data under f.
func Aggregate(data *Data, f *Filter) *Snapshot {
	filtered := orderview.Apply(data.All, &orderview.Query{
		Search: f.Search,
		Fields: []orderview.Field{
			orderview.FieldStyleNumber,
			orderview.FieldSize,
			orderview.FieldQuantity,
		},
		From:              f.From,
		To:                f.To,
		CreatedAtFallback: true,
	})

	pendingIDs := make(map[string]struct{}, len(data.Pending))
	for i := range data.Pending {
		pendingIDs[data.Pending[i].OrderID] = struct{}{}
	}

	var shipped, cancelled, inPending []domain.Order
	for i := range filtered {
		o := &filtered[i]
		switch {
		case o.HasStatus(statusShipped):
			shipped = append(shipped, *o)
		case o.HasStatus(statusCancel):
			cancelled = append(cancelled, *o)
		}
		if _, ok := pendingIDs[o.OrderID]; ok {
			inPending = append(inPending, *o)
		}
	}

	counts := Counts{
		Total:     len(filtered),
		Shipped:   len(shipped),
		Cancelled: len(cancelled),
		Pending:   len(data.Pending),
	}

	tab := f.Tab
	if tab == "" {
		tab = TabAll
	}
	orders := filtered
	switch tab {
	case TabShipped:
		orders = shipped
	case TabCancel:
		orders = cancelled
	case TabPending:
		orders = inPending
	}
	if orders == nil {
		orders = []domain.Order{}
	}

	return &Snapshot{
		Counts: counts,
		Cards:  slices(counts, counts.Total),
		Chart:  slices(counts, counts.Shipped+counts.Cancelled+counts.Pending),
		Tab:    tab,
		Orders: orders,
	}
}

func slices(c Counts, whole int) []Slice {
	return []Slice{
		{Label: "Shipped", Count: c.Shipped, Percent: percent(c.Shipped, whole)},
		{Label: "Cancelled", Count: c.Cancelled, Percent: percent(c.Cancelled, whole)},
		{Label: "Pending", Count: c.Pending, Percent: percent(c.Pending, whole)},
	}
}

func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

// Service loads dashboard data from the remote API.
type Service struct {
	client Lister
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates a dashboard Service.
func NewService(client Lister, opts ...Option) *Service {
	s := &Service{client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the all-orders and pending lists concurrently. Either failure
// fails the load.
func (s *Service) Load(ctx context.Context) (*Data, error) {
	var (
		mu   sync.Mutex
		data Data
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		orders, err := s.client.List(gctx, shopify.ListAll)
		if err != nil {
			return fmt.Errorf("failed to load all orders: %w", err)
		}
		mu.Lock()
		data.All = orders
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		orders, err := s.client.List(gctx, shopify.ListPending)
		if err != nil {
			return fmt.Errorf("failed to load pending orders: %w", err)
		}
		mu.Lock()
		data.Pending = orders
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "failed to load dashboard", "error", err)
		return nil, err
	}
	return &data, nil
}

// Snapshot loads the data and aggregates it under f.
func (s *Service) Snapshot(ctx context.Context, f *Filter) (*Snapshot, error) {
	data, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Aggregate(data, f), nil
}
