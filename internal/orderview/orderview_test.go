package orderview

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CameronXie/order-desk/internal/domain"
	"github.com/CameronXie/order-desk/internal/shopify"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, ok := domain.ParseOrderDate(s)
	require.True(t, ok, s)
	return d
}

func ids(orders []domain.Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.OrderID)
	}
	return out
}

func TestApply(t *testing.T) {
	orders := []domain.Order{
		{OrderID: "#A1", StyleNumber: 1042, Size: "M", Quantity: 2, ContactNumber: "98765", OrderDate: "10-01-2024"},
		{OrderID: "#B2", StyleNumber: 77, Size: "XL", Quantity: 1, ContactNumber: "12345", OrderDate: "01-01-2024"},
		{OrderID: "#C3", StyleNumber: 5, Size: "2XL", Quantity: 10, ContactNumber: "55555", OrderDate: "05-01-2024"},
		{OrderID: "#D4", StyleNumber: 6, Size: "S", Quantity: 3, OrderDate: "not a date", CreatedAt: "2024-01-04T08:00:00Z"},
	}

	testCases := map[string]struct {
		query    Query
		expected []string
	}{
		"should return everything without filters": {
			query:    Query{},
			expected: []string{"#A1", "#B2", "#C3", "#D4"},
		},
		"should search order id ignoring case": {
			query:    Query{Search: "b2"},
			expected: []string{"#B2"},
		},
		"should not search other fields unless asked": {
			query:    Query{Search: "1042"},
			expected: []string{},
		},
		"should search style and contact when asked": {
			query:    Query{Search: "555", Fields: []Field{FieldStyleNumber, FieldContact}},
			expected: []string{"#C3"},
		},
		"should search size and quantity when asked": {
			query:    Query{Search: "xl", Fields: []Field{FieldSize, FieldQuantity}},
			expected: []string{"#B2", "#C3"},
		},
		"should keep only orders inside an inclusive range": {
			query:    Query{From: mustDate(t, "03-01-2024"), To: mustDate(t, "07-01-2024")},
			expected: []string{"#C3"},
		},
		"should include both bounds": {
			query:    Query{From: mustDate(t, "01-01-2024"), To: mustDate(t, "05-01-2024")},
			expected: []string{"#B2", "#C3"},
		},
		"should apply a one-sided range": {
			query:    Query{From: mustDate(t, "05-01-2024")},
			expected: []string{"#A1", "#C3"},
		},
		"should fall back to created at when asked": {
			query:    Query{From: mustDate(t, "03-01-2024"), To: mustDate(t, "07-01-2024"), CreatedAtFallback: true},
			expected: []string{"#C3", "#D4"},
		},
		"should sort newest first": {
			query:    Query{Sort: SortNewest},
			expected: []string{"#A1", "#C3", "#B2", "#D4"},
		},
		"should sort oldest first with undated orders first": {
			query:    Query{Sort: SortOldest},
			expected: []string{"#D4", "#B2", "#C3", "#A1"},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ids(Apply(orders, &tc.query)))
		})
	}
}

func TestApply_DoesNotModifySource(t *testing.T) {
	orders := []domain.Order{
		{OrderID: "#1", OrderDate: "10-01-2024"},
		{OrderID: "#2", OrderDate: "01-01-2024"},
	}

	_ = Apply(orders, &Query{Sort: SortOldest})

	assert.Equal(t, []string{"#1", "#2"}, ids(orders))
}

func TestApply_StableForEqualDates(t *testing.T) {
	orders := []domain.Order{
		{OrderID: "#1", OrderDate: "02-01-2024"},
		{OrderID: "#2", OrderDate: "01-01-2024"},
		{OrderID: "#3", OrderDate: "02-01-2024"},
	}

	assert.Equal(t, []string{"#1", "#3", "#2"}, ids(Apply(orders, &Query{Sort: SortNewest})))
}

func TestQuery_Fingerprint(t *testing.T) {
	a := Query{Search: " Abc ", From: mustDate(t, "01-01-2024"), Sort: SortNewest}
	b := Query{Search: "abc", From: mustDate(t, "01-01-2024"), Sort: SortNewest}
	c := Query{Search: "abc", Sort: SortNewest}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestParseSort(t *testing.T) {
	assert.Equal(t, SortOldest, ParseSort("Oldest"))
	assert.Equal(t, SortNewest, ParseSort("newest"))
	assert.Equal(t, SortNone, ParseSort("random"))
}

func TestStale(t *testing.T) {
	now := time.Date(2024, 1, 10, 15, 30, 0, 0, time.Local)

	testCases := map[string]struct {
		orderDate string
		expected  bool
	}{
		"should flag five days old":         {orderDate: "05-01-2024", expected: true},
		"should not flag four days old":     {orderDate: "06-01-2024", expected: false},
		"should not flag today":             {orderDate: "10-01-2024", expected: false},
		"should not flag future dates":      {orderDate: "20-01-2024", expected: false},
		"should not flag unreadable dates":  {orderDate: "2024-01-01", expected: false},
		"should flag much older orders too": {orderDate: "01-12-2023", expected: true},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			o := domain.Order{OrderDate: tc.orderDate}
			assert.Equal(t, tc.expected, Stale(&o, now, DefaultStaleAfterDays))
		})
	}
}

func TestStaleCount(t *testing.T) {
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.Local)
	orders := []domain.Order{
		{OrderDate: "01-01-2024"},
		{OrderDate: "05-01-2024"},
		{OrderDate: "09-01-2024"},
		{OrderDate: ""},
	}

	assert.Equal(t, 2, StaleCount(orders, now, DefaultStaleAfterDays))
}

func TestPaginate(t *testing.T) {
	items := make([]int, 120)
	for i := range items {
		items[i] = i + 1
	}

	testCases := map[string]struct {
		items         []int
		page          int
		expectedFirst int
		expectedLast  int
		expectedLen   int
		expectedPage  int
		expectedPages int
	}{
		"should show the first fifty on page one": {
			items: items, page: 1,
			expectedFirst: 1, expectedLast: 50, expectedLen: 50, expectedPage: 1, expectedPages: 3,
		},
		"should show the remainder on the last page": {
			items: items, page: 3,
			expectedFirst: 101, expectedLast: 120, expectedLen: 20, expectedPage: 3, expectedPages: 3,
		},
		"should clamp pages past the end": {
			items: items, page: 9,
			expectedFirst: 101, expectedLast: 120, expectedLen: 20, expectedPage: 3, expectedPages: 3,
		},
		"should clamp pages below one": {
			items: items, page: 0,
			expectedFirst: 1, expectedLast: 50, expectedLen: 50, expectedPage: 1, expectedPages: 3,
		},
		"should return page one of nothing": {
			items: nil, page: 2,
			expectedLen: 0, expectedPage: 1, expectedPages: 0,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			page := Paginate(tc.items, tc.page, DefaultPageSize)

			assert.Len(t, page.Items, tc.expectedLen)
			assert.Equal(t, tc.expectedPage, page.Page)
			assert.Equal(t, tc.expectedPages, page.TotalPages)
			assert.Equal(t, len(tc.items), page.Total)
			if tc.expectedLen > 0 {
				assert.Equal(t, tc.expectedFirst, page.Items[0])
				assert.Equal(t, tc.expectedLast, page.Items[len(page.Items)-1])
			}
		})
	}
}

func TestResolvePage(t *testing.T) {
	key := PageKey("q1", 120)

	testCases := map[string]struct {
		previous string
		current  string
		page     int
		expected int
	}{
		"should serve the requested page on a first request": {
			current:  key,
			page:     3,
			expected: 3,
		},
		"should keep the requested page while the set is unchanged": {
			previous: key,
			current:  key,
			page:     2,
			expected: 2,
		},
		"should reset when the search changes": {
			previous: key,
			current:  PageKey("q2", 120),
			page:     2,
			expected: 1,
		},
		"should reset when the source size changes": {
			previous: key,
			current:  PageKey("q1", 119),
			page:     2,
			expected: 1,
		},
		"should default to the first page": {
			current:  key,
			expected: 1,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ResolvePage(tc.previous, tc.current, tc.page))
		})
	}
}

func TestSelection(t *testing.T) {
	orders := []domain.Order{{OrderID: "#1"}, {OrderID: "#2"}, {OrderID: "#3"}}

	s := NewSelection("#2", "#2", "", "#1")
	assert.Equal(t, []string{"#2", "#1"}, s.IDs())

	s.Toggle("#2")
	assert.False(t, s.Contains("#2"))
	s.Toggle("#3")
	assert.Equal(t, []string{"#1", "#3"}, s.IDs())

	assert.Equal(t, []string{"#1", "#3"}, ids(s.Filter(orders)))

	s.SelectAll(orders)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"#1", "#3", "#2"}, s.IDs())

	s.SelectAll(orders)
	assert.Zero(t, s.Len(), "select all toggles off when everything is selected")

	assert.Equal(t, orders, s.Filter(orders), "empty selection exports the full list")

	s.Toggle("#9")
	s.Clear()
	assert.Empty(t, s.IDs())
}

func TestSelection_DuplicatesAreOneEntry(t *testing.T) {
	s := NewSelection()
	for i := 0; i < 3; i++ {
		s.Toggle(fmt.Sprintf("#%d", i))
	}
	s.SelectAll([]domain.Order{{OrderID: "#0"}, {OrderID: "#0"}, {OrderID: "#5"}})

	assert.Equal(t, []string{"#0", "#1", "#2", "#5"}, s.IDs())
}

func TestParseView(t *testing.T) {
	testCases := map[string]struct {
		input         string
		expected      View
		expectedError string
	}{
		"should parse pending":           {input: "pending", expected: ViewPending},
		"should ignore case and padding": {input: " Confirmed ", expected: ViewConfirmed},
		"should reject unknown views":    {input: "shipped", expectedError: `unknown view "shipped"`},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			v, err := ParseView(tc.input)
			if tc.expectedError != "" {
				require.Error(t, err)
				assert.Equal(t, tc.expectedError, err.Error())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, v)
		})
	}
}

func TestView_ListKind(t *testing.T) {
	assert.Equal(t, shopify.ListPending, ViewPending.ListKind())
	assert.Equal(t, shopify.ListConfirmed, ViewConfirmed.ListKind())
	assert.Equal(t, shopify.ListCancelled, ViewCancelled.ListKind())
	assert.Equal(t, shopify.ListAll, ViewAll.ListKind())
	assert.True(t, ViewAll.CreatedAtFallback())
	assert.False(t, ViewPending.CreatedAtFallback())
	assert.Equal(t, []Field{FieldStyleNumber, FieldContact}, ViewConfirmed.SearchFields())
	assert.Empty(t, ViewPending.SearchFields())
}
