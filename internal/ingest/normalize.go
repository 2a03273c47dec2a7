package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/CameronXie/order-desk/internal/domain"
)

// Classification decides which remote list a row is submitted to.
type Classification string

const (
	Confirmed Classification = "confirmed"
	Pending   Classification = "pending"
)

const confirmedTag = "COD Confirmed"

// Normalize back-fills the order-level fields shared by the line items of one
// order. Rows are grouped by Name; groups keep first-seen order and rows keep
// their order inside a group. The input is not modified.
func Normalize(rows []Row) []Row {
	var order []string
	groups := make(map[string][]Row)
	for _, row := range rows {
		if _, ok := groups[row.Name]; !ok {
			order = append(order, row.Name)
		}
		groups[row.Name] = append(groups[row.Name], row)
	}

	out := make([]Row, 0, len(rows))
	for _, name := range order {
		group := groups[name]
		shared := sharedFields(group)

		for _, row := range group {
			row.FinancialStatus = shared.FinancialStatus
			row.BillingPhone = shared.BillingPhone
			row.Tags = shared.Tags
			row.ShippingMethod = shared.ShippingMethod
			out = append(out, row)
		}
	}

	return out
}

// sharedFields picks the first row carrying any order-level field and defaults
// each empty field to NA.
func sharedFields(group []Row) Row {
	var base Row
	for _, row := range group {
		if row.FinancialStatus != "" || row.BillingPhone != "" || row.Tags != "" || row.ShippingMethod != "" {
			base = row
			break
		}
	}

	return Row{
		FinancialStatus: orNA(base.FinancialStatus),
		BillingPhone:    orNA(base.BillingPhone),
		Tags:            orNA(base.Tags),
		ShippingMethod:  orNA(base.ShippingMethod),
	}
}

// Classify returns Confirmed when the tags mark a confirmed cash-on-delivery
// order or the order is paid.
func Classify(row *Row) Classification {
	if strings.Contains(row.Tags, confirmedTag) || strings.EqualFold(row.FinancialStatus, "paid") {
		return Confirmed
	}
	return Pending
}

var createdAtLayouts = []string{
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 Z0700",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006 15:04",
	"01/02/2006",
	time.RFC1123Z,
	time.RFC1123,
}

// FormatCreatedAt reformats a Created at timestamp as an order date in now's
// location. Empty or unparseable values fall back to now.
func FormatCreatedAt(s string, now time.Time) string {
	s = strings.TrimSpace(s)
	for _, layout := range createdAtLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return domain.FormatOrderDate(t.In(now.Location()))
		}
	}
	return domain.FormatOrderDate(now)
}

// parseQuantity reads a quantity such as "2" or "2.0". A blank value reads as
// zero; fractions, negatives and non-numbers are not quantities.
func parseQuantity(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func orNA(s string) string {
	if s == "" {
		return domain.NotAvailable
	}
	return s
}
