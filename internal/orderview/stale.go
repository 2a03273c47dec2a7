package orderview

import (
	"math"
	"time"

	"github.com/CameronXie/order-desk/internal/domain"
)

// DefaultStaleAfterDays is the age in whole days after which a pending order is overdue.
const DefaultStaleAfterDays = 4

// AgeInDays returns the whole days elapsed since o's order date.
func AgeInDays(o *domain.Order, now time.Time) (int, bool) {
	date, ok := domain.ParseOrderDate(o.OrderDate)
	if !ok {
		return 0, false
	}
	return int(math.Floor(now.Sub(date).Hours() / 24)), true
}

// Stale reports whether o is older than afterDays whole days.
// Orders without a readable date are never stale.
func Stale(o *domain.Order, now time.Time, afterDays int) bool {
	age, ok := AgeInDays(o, now)
	return ok && age > afterDays
}

// StaleCount counts the stale orders.
func StaleCount(orders []domain.Order, now time.Time, afterDays int) int {
	n := 0
	for i := range orders {
		if Stale(&orders[i], now, afterDays) {
			n++
		}
	}
	return n
}
