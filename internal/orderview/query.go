// Package orderview derives what a list view shows: search, date range, sort,
// stale flags, pagination and selection.
package orderview

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/CameronXie/order-desk/internal/domain"
)

// Sort orders by parsed order date.
type Sort string

const (
	SortNone   Sort = ""
	SortOldest Sort = "oldest"
	SortNewest Sort = "newest"
)

// ParseSort resolves a sort name; unknown names leave the source order.
func ParseSort(s string) Sort {
	switch Sort(strings.ToLower(strings.TrimSpace(s))) {
	case SortOldest:
		return SortOldest
	case SortNewest:
		return SortNewest
	default:
		return SortNone
	}
}

// Field is a searchable order attribute.
type Field string

const (
	FieldOrderID     Field = "order_id"
	FieldStyleNumber Field = "style_number"
	FieldContact     Field = "contact_number"
	FieldSize        Field = "size"
	FieldQuantity    Field = "quantity"
)

// Query describes the filters of a view. Zero From or To leaves that side open.
type Query struct {
	Search string
	// Fields searched besides the order id.
	Fields []Field
	From   time.Time
	To     time.Time
	Sort   Sort
	// CreatedAtFallback dates orders by createdAt when order_date does not parse.
	CreatedAtFallback bool
}

// Fingerprint identifies the filter composition, for pagination resets.
func (q *Query) Fingerprint() string {
	return fmt.Sprintf("%s|%s|%s|%s",
		strings.ToLower(strings.TrimSpace(q.Search)),
		dateKey(q.From),
		dateKey(q.To),
		q.Sort,
	)
}

func dateKey(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return domain.FormatOrderDate(t)
}

// Apply returns the orders matching q in q's sort order. orders is not modified.
func Apply(orders []domain.Order, q *Query) []domain.Order {
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	from := dayStart(q.From)
	to := dayStart(q.To)

	out := make([]domain.Order, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		if needle != "" && !matches(o, needle, q.Fields) {
			continue
		}
		if !from.IsZero() || !to.IsZero() {
			date, ok := q.dateOf(o)
			if !ok {
				continue
			}
			if !from.IsZero() && date.Before(from) {
				continue
			}
			if !to.IsZero() && date.After(to) {
				continue
			}
		}
		out = append(out, *o)
	}

	if q.Sort != SortNone {
		sort.SliceStable(out, func(i, j int) bool {
			a, _ := q.dateOf(&out[i])
			b, _ := q.dateOf(&out[j])
			if q.Sort == SortOldest {
				return a.Before(b)
			}
			return a.After(b)
		})
	}

	return out
}

// dateOf returns the calendar day of o, zero when it cannot be read.
func (q *Query) dateOf(o *domain.Order) (time.Time, bool) {
	if t, ok := domain.ParseOrderDate(o.OrderDate); ok {
		return t, true
	}
	if q.CreatedAtFallback {
		if t, err := time.Parse(time.RFC3339, o.CreatedAt); err == nil {
			return domain.DateOnly(t.Local()), true
		}
	}
	return time.Time{}, false
}

func matches(o *domain.Order, needle string, fields []Field) bool {
	if strings.Contains(strings.ToLower(o.OrderID), needle) {
		return true
	}

	for _, f := range fields {
		var value string
		switch f {
		case FieldStyleNumber:
			value = strconv.Itoa(o.StyleNumber)
		case FieldContact:
			value = o.ContactNumber
		case FieldSize:
			value = o.Size
		case FieldQuantity:
			value = strconv.Itoa(o.Quantity)
		default:
			continue
		}
		if strings.Contains(strings.ToLower(value), needle) {
			return true
		}
	}

	return false
}

func dayStart(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return domain.DateOnly(t)
}
