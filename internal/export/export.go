// Package export renders order lists as spreadsheets, PDF reports and picklists.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/CameronXie/order-desk/internal/catalog"
	"github.com/CameronXie/order-desk/internal/clock"
	"github.com/CameronXie/order-desk/internal/domain"
	"github.com/CameronXie/order-desk/internal/notify"
	"github.com/CameronXie/order-desk/internal/orderview"
)

// Format is an export format.
type Format string

const (
	FormatXLSX     Format = "xlsx"
	FormatPDF      Format = "pdf"
	FormatPicklist Format = "picklist"
	FormatExpress  Format = "express"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
	contentTypeCSV  = "text/csv"

	fileDateLayout = "2006-01-02"
	expressMarker  = "express shipping"
)

// ErrNothingToExport is returned when the export source is empty.
var ErrNothingToExport = errors.New("no orders to export")

// UnsupportedFormatError is returned when a view cannot be exported in a format.
type UnsupportedFormatError struct {
	View   orderview.View
	Format Format
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("view %s does not support %s export", e.View, e.Format)
}

// Formats lists the formats each view supports.
var Formats = map[orderview.View][]Format{
	orderview.ViewPending:   {FormatXLSX, FormatPDF},
	orderview.ViewConfirmed: {FormatPDF, FormatPicklist, FormatExpress},
	orderview.ViewCancelled: {FormatXLSX, FormatPDF},
	orderview.ViewAll:       {FormatXLSX},
}

// Indexer provides the catalog used by picklists.
type Indexer interface {
	Index(ctx context.Context) (*catalog.Index, error)
}

// File is a rendered export.
type File struct {
	Name        string
	ContentType string
	Data        []byte
	Orders      int
}

// Request describes one export.
type Request struct {
	View     orderview.View
	Format   Format
	Orders   []domain.Order
	Selected []string
}

// Service renders exports and reports them to the operator.
type Service struct {
	catalog  Indexer
	notifier notify.Notifier
	clock    clock.Clock
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCatalog enables picklist exports.
func WithCatalog(c Indexer) Option {
	return func(s *Service) {
		s.catalog = c
	}
}

// WithNotifier sends export toasts to n.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithClock replaces the system clock.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates an export Service.
func NewService(opts ...Option) *Service {
	s := &Service{
		notifier: notify.Multi{},
		clock:    clock.NewSystem(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Export renders req. The source is the selected orders of the list, or the
// whole list when nothing is selected. Express reports always read the whole list.
func (s *Service) Export(ctx context.Context, req *Request) (*File, error) {
	if !supports(req.View, req.Format) {
		return nil, &UnsupportedFormatError{View: req.View, Format: req.Format}
	}

	source := orderview.NewSelection(req.Selected...).Filter(req.Orders)
	if req.Format == FormatExpress {
		source = ExpressOrders(req.Orders)
	}

	view := req.View.String()
	if len(source) == 0 {
		s.notify(ctx, notify.Toast(notify.LevelWarning, view, "No orders to export"))
		return nil, ErrNothingToExport
	}

	now := s.clock.Now()
	file, err := s.render(ctx, req, source, now)
	if err != nil {
		s.notify(ctx, notify.Toast(notify.LevelError, view, "Failed to export orders"))
		return nil, err
	}

	file.Orders = len(source)
	s.logger.InfoContext(ctx, "orders exported",
		"view", view,
		"format", req.Format,
		"file", file.Name,
		"orders", file.Orders,
	)
	s.notify(ctx, notify.Toast(notify.LevelSuccess, view, "Exported %d orders to %s", file.Orders, file.Name))
	return file, nil
}

func (s *Service) render(ctx context.Context, req *Request, source []domain.Order, now time.Time) (*File, error) {
	date := now.Format(fileDateLayout)

	switch req.Format {
	case FormatXLSX:
		t := tableFor(req.View, source, now)
		data, err := renderXLSX(t)
		if err != nil {
			return nil, err
		}
		return &File{
			Name:        fmt.Sprintf("%s_orders_%s.xlsx", req.View, date),
			ContentType: contentTypeXLSX,
			Data:        data,
		}, nil

	case FormatPDF, FormatExpress:
		t := reportFor(req.View, req.Format, source, now)
		data, err := renderPDF(t, now)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("%s_orders_%s.pdf", req.View, date)
		if req.Format == FormatExpress {
			name = fmt.Sprintf("expressOrders_%s.pdf", date)
		}
		return &File{Name: name, ContentType: contentTypePDF, Data: data}, nil

	case FormatPicklist:
		var buf bytes.Buffer
		if err := WritePicklist(&buf, source, s.index(ctx)); err != nil {
			return nil, err
		}
		return &File{
			Name:        fmt.Sprintf("ShopifyPicklist_%s.csv", date),
			ContentType: contentTypeCSV,
			Data:        buf.Bytes(),
		}, nil
	}

	return nil, &UnsupportedFormatError{View: req.View, Format: req.Format}
}

// index returns the catalog index, or an empty one when the catalog is
// unavailable so the picklist falls back to placeholders.
func (s *Service) index(ctx context.Context) *catalog.Index {
	if s.catalog == nil {
		return catalog.NewIndex(nil, nil)
	}

	idx, err := s.catalog.Index(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load catalog for picklist", "error", err)
		return catalog.NewIndex(nil, nil)
	}
	return idx
}

func (s *Service) notify(ctx context.Context, n notify.Notification) {
	if err := s.notifier.Send(ctx, n); err != nil {
		s.logger.WarnContext(ctx, "failed to send notification", "error", err)
	}
}

// ExpressOrders returns the orders shipped by express, matching the shipping
// method case-insensitively.
func ExpressOrders(orders []domain.Order) []domain.Order {
	out := make([]domain.Order, 0)
	for i := range orders {
		if strings.Contains(strings.ToLower(orders[i].ShippingMethod), expressMarker) {
			out = append(out, orders[i])
		}
	}
	return out
}

func supports(v orderview.View, f Format) bool {
	for _, known := range Formats[v] {
		if known == f {
			return true
		}
	}
	return false
}
