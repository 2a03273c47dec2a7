package orderview

import (
	"fmt"
	"strings"

	"github.com/CameronXie/order-desk/internal/shopify"
)

// View is one of the console's order lists.
type View string

const (
	ViewPending   View = "pending"
	ViewConfirmed View = "confirmed"
	ViewCancelled View = "cancelled"
	ViewAll       View = "all"
)

// Views lists every view in sidebar order.
var Views = []View{ViewPending, ViewConfirmed, ViewCancelled, ViewAll}

// UnknownViewError is returned when a view name is not recognised.
type UnknownViewError struct {
	Name string
}

func (e *UnknownViewError) Error() string {
	return fmt.Sprintf("unknown view %q", e.Name)
}

// ParseView parses a view name, ignoring case.
func ParseView(s string) (View, error) {
	v := View(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Views {
		if v == known {
			return v, nil
		}
	}
	return "", &UnknownViewError{Name: s}
}

// ListKind returns the remote list backing v.
func (v View) ListKind() shopify.ListKind {
	switch v {
	case ViewPending:
		return shopify.ListPending
	case ViewConfirmed:
		return shopify.ListConfirmed
	case ViewCancelled:
		return shopify.ListCancelled
	default:
		return shopify.ListAll
	}
}

// CreatedAtFallback reports whether date filters on v fall back to createdAt
// when an order date cannot be read.
func (v View) CreatedAtFallback() bool {
	return v == ViewAll
}

// SearchFields lists what the search box of v matches besides the order id.
func (v View) SearchFields() []Field {
	if v == ViewConfirmed {
		return []Field{FieldStyleNumber, FieldContact}
	}
	return nil
}

func (v View) String() string {
	return string(v)
}
