// Package catalog resolves the color and rack space of a style for picklists.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/CameronXie/order-desk/internal/shopify"
)

const (
	cacheKey   = "orderdesk:catalog:index"
	defaultTTL = 10 * time.Minute
)

// Source fetches the raw catalog.
type Source interface {
	Colors(ctx context.Context) ([]shopify.Color, error)
	Products(ctx context.Context) ([]shopify.Product, error)
}

// Index maps style numbers to their first listed color and rack space.
type Index struct {
	Colors map[int]string `json:"colors"`
	Racks  map[int]string `json:"racks"`
}

// NewIndex builds an Index. The first entry of a style wins.
func NewIndex(colors []shopify.Color, products []shopify.Product) *Index {
	idx := &Index{
		Colors: make(map[int]string, len(colors)),
		Racks:  make(map[int]string, len(products)),
	}
	for _, c := range colors {
		if _, ok := idx.Colors[int(c.StyleCode)]; !ok {
			idx.Colors[int(c.StyleCode)] = c.Color
		}
	}
	for _, p := range products {
		if _, ok := idx.Racks[int(p.StyleCode)]; !ok {
			idx.Racks[int(p.StyleCode)] = p.RackSpace
		}
	}
	return idx
}

// Color returns the color of style.
func (i *Index) Color(style int) (string, bool) {
	c, ok := i.Colors[style]
	return c, ok && c != ""
}

// Rack returns the rack space of style.
func (i *Index) Rack(style int) (string, bool) {
	r, ok := i.Racks[style]
	return r, ok && r != ""
}

// Service serves the catalog index from a cache, fetching it on a miss.
type Service struct {
	source Source
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache stores the index in c for ttl.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates a Service. Without WithCache every call hits the source.
func NewService(source Source, opts ...Option) *Service {
	s := &Service{
		source: source,
		ttl:    defaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Index returns the catalog index. Cache errors are logged and bypassed.
func (s *Service) Index(ctx context.Context) (*Index, error) {
	if idx := s.cached(ctx); idx != nil {
		return idx, nil
	}

	var (
		mu       sync.Mutex
		colors   []shopify.Color
		products []shopify.Product
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := s.source.Colors(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch colors: %w", err)
		}
		mu.Lock()
		colors = resp
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		resp, err := s.source.Products(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch products: %w", err)
		}
		mu.Lock()
		products = resp
		mu.Unlock()
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	idx := NewIndex(colors, products)
	s.store(ctx, idx)
	return idx, nil
}

func (s *Service) cached(ctx context.Context) *Index {
	if s.cache == nil {
		return nil
	}

	data, ok, err := s.cache.Get(ctx, cacheKey)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read catalog cache", "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		s.logger.WarnContext(ctx, "failed to decode catalog cache", "error", err)
		return nil
	}
	return &idx
}

func (s *Service) store(ctx context.Context, idx *Index) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(idx)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to encode catalog index", "error", err)
		return
	}
	if err := s.cache.Set(ctx, cacheKey, data, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "failed to write catalog cache", "error", err)
	}
}
