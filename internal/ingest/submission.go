package ingest

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/CameronXie/order-desk/internal/domain"
	"github.com/CameronXie/order-desk/internal/shopify"
)

// Verdict is the local validation result of a row.
type Verdict string

const (
	Accepted Verdict = "accepted"
	Rejected Verdict = "rejected"
)

// RowResult is the validation result of one normalised row.
type RowResult struct {
	Row            int                  `json:"row"`
	OrderID        string               `json:"order_id"`
	Classification Classification       `json:"classification"`
	Verdict        Verdict              `json:"verdict"`
	Reason         string               `json:"reason,omitempty"`
	Payload        shopify.OrderPayload `json:"payload"`
}

// Submission holds what will be sent for an upload, in row order.
type Submission struct {
	Rows []RowResult
}

// Confirmed returns the indexes into Rows of accepted confirmed rows.
func (s *Submission) Confirmed() []int {
	return s.indexes(Confirmed)
}

// Pending returns the indexes into Rows of accepted pending rows.
func (s *Submission) Pending() []int {
	return s.indexes(Pending)
}

// RejectedCount returns the number of rejected rows.
func (s *Submission) RejectedCount() int {
	n := 0
	for i := range s.Rows {
		if s.Rows[i].Verdict == Rejected {
			n++
		}
	}
	return n
}

func (s *Submission) indexes(c Classification) []int {
	var out []int
	for i := range s.Rows {
		if s.Rows[i].Verdict == Accepted && s.Rows[i].Classification == c {
			out = append(out, i)
		}
	}
	return out
}

// Builder validates rows into a Submission.
type Builder struct {
	validate *validator.Validate
}

// NewBuilder creates a Builder reporting fields by their wire names.
func NewBuilder() *Builder {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Builder{validate: v}
}

// Build converts normalised rows into payloads. Rows whose quantity is not a
// whole number are rejected. Confirmed rows lacking an order id, style number,
// size, quantity or date are rejected with the missing fields; other pending
// rows are carried as they are.
func (b *Builder) Build(rows []Row, now time.Time) (*Submission, error) {
	sub := &Submission{Rows: make([]RowResult, 0, len(rows))}

	for i := range rows {
		row := &rows[i]
		result := RowResult{
			Row:            i + 1,
			OrderID:        row.Name,
			Classification: Classify(row),
			Verdict:        Accepted,
			Payload:        toPayload(row, now),
		}

		if _, ok := parseQuantity(row.Quantity); !ok {
			result.Verdict = Rejected
			result.Reason = fmt.Sprintf("invalid quantity %q", strings.TrimSpace(row.Quantity))
		} else if result.Classification == Confirmed {
			missing, err := b.missingFields(&result.Payload)
			if err != nil {
				return nil, err
			}
			if len(missing) > 0 {
				result.Verdict = Rejected
				result.Reason = "missing " + strings.Join(missing, ", ")
			}
		}

		sub.Rows = append(sub.Rows, result)
	}

	return sub, nil
}

func (b *Builder) missingFields(p *shopify.OrderPayload) ([]string, error) {
	err := b.validate.Struct(p)
	if err == nil {
		return nil, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, fmt.Errorf("failed to validate payload: %w", err)
	}

	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return missing, nil
}

func toPayload(row *Row, now time.Time) shopify.OrderPayload {
	return shopify.OrderPayload{
		OrderID:        row.Name,
		StyleNumber:    domain.StyleNumberFromSKU(row.SKU),
		Size:           domain.SizeFromSKU(row.SKU),
		Quantity:       quantity(row.Quantity),
		OrderDate:      FormatCreatedAt(row.CreatedAt, now),
		ShippingMethod: orNA(row.ShippingMethod),
		OrderStatus:    orNA(row.Tags),
		ContactNumber:  orNA(row.BillingPhone),
		PaymentStatus:  orNA(row.FinancialStatus),
	}
}

func quantity(s string) int {
	n, _ := parseQuantity(s)
	return n
}
