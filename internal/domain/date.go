package domain

import (
	"strconv"
	"strings"
	"time"
)

// OrderDateLayout is the DD-MM-YYYY layout used for order_date.
const OrderDateLayout = "02-01-2006"

// ParseOrderDate parses a DD-MM-YYYY order date into local midnight.
// Day and month may be given without zero padding.
func ParseOrderDate(s string) (time.Time, bool) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return time.Time{}, false
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, false
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
	// reject overflowed dates such as 31-02-2024
	if t.Day() != day {
		return time.Time{}, false
	}

	return t, true
}

// FormatOrderDate formats t as DD-MM-YYYY in t's location.
func FormatOrderDate(t time.Time) string {
	return t.Format(OrderDateLayout)
}

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
