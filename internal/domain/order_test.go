package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrder_UnmarshalJSON(t *testing.T) {
	cases := map[string]struct {
		input    string
		expected Order
		wantErr  bool
	}{
		"numeric fields as numbers": {
			input: `{"_id":"abc","order_id":"#1001","styleNumber":123,"size":"M","quantity":2,` +
				`"contact_number":9876543210,"order_date":"05-01-2024"}`,
			expected: Order{
				ID:            "abc",
				OrderID:       "#1001",
				StyleNumber:   123,
				Size:          "M",
				Quantity:      2,
				ContactNumber: "9876543210",
				OrderDate:     "05-01-2024",
			},
		},
		"numeric fields as strings": {
			input: `{"order_id":"#1002","styleNumber":"77","quantity":"3","contact_number":"+91 555"}`,
			expected: Order{
				OrderID:       "#1002",
				StyleNumber:   77,
				Quantity:      3,
				ContactNumber: "+91 555",
			},
		},
		"missing and null fields": {
			input:    `{"order_id":"#1003","styleNumber":null}`,
			expected: Order{OrderID: "#1003"},
		},
		"non numeric style string decodes to zero": {
			input:    `{"order_id":"#1004","styleNumber":"abc"}`,
			expected: Order{OrderID: "#1004"},
		},
		"invalid json": {
			input:   `{"order_id":`,
			wantErr: true,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var o Order
			err := json.Unmarshal([]byte(tc.input), &o)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, o)
		})
	}
}

func TestOrder_HasStatus(t *testing.T) {
	o := Order{OrderStatus: "SHIPPED"}
	assert.True(t, o.HasStatus("shipped"))
	assert.False(t, o.HasStatus("cancel"))
}

func TestParseOrderDate(t *testing.T) {
	cases := map[string]struct {
		input    string
		expected time.Time
		ok       bool
	}{
		"valid":          {"05-01-2024", time.Date(2024, time.January, 5, 0, 0, 0, 0, time.Local), true},
		"unpadded":       {"5-1-2024", time.Date(2024, time.January, 5, 0, 0, 0, 0, time.Local), true},
		"overflowed day": {"31-02-2024", time.Time{}, false},
		"wrong order":    {"2024-01-05", time.Time{}, false},
		"empty":          {"", time.Time{}, false},
		"garbage":        {"aa-bb-cccc", time.Time{}, false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := ParseOrderDate(tc.input)
			assert.Equal(t, tc.ok, ok)
			assert.True(t, tc.expected.Equal(got), "expected %v, got %v", tc.expected, got)
		})
	}
}

func TestFormatOrderDate(t *testing.T) {
	assert.Equal(t, "09-03-2025", FormatOrderDate(time.Date(2025, time.March, 9, 15, 4, 0, 0, time.UTC)))
}

func TestSizeFromSKU(t *testing.T) {
	cases := map[string]string{
		"ABC-123-XXL":  "2XL",
		"ABC-123-2XL":  "2XL",
		"ABC-123-3XL":  "3XL",
		"ABC-123-xxxl": "3XL",
		"ABC-123-M":    "M",
		"ABC-123-s":    "S",
		"":             "",
	}

	for sku, expected := range cases {
		t.Run(sku, func(t *testing.T) {
			assert.Equal(t, expected, SizeFromSKU(sku))
		})
	}
}

func TestStyleNumberFromSKU(t *testing.T) {
	cases := map[string]int{
		"1042-BLK-M": 1042,
		"77":         77,
		"ABC-123-M":  0,
		"":           0,
	}

	for sku, expected := range cases {
		t.Run(sku, func(t *testing.T) {
			assert.Equal(t, expected, StyleNumberFromSKU(sku))
		})
	}
}
