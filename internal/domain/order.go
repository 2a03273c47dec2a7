package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Status overrides sent to the remote API when an order changes list.
const (
	StatusConfirm = "Confirm"
	StatusCancel  = "Cancel"
	StatusShipped = "Shipped"
)

// NotAvailable is the placeholder the remote API stores for missing shared fields.
const NotAvailable = "NA"

// Order represents a fulfilment order as returned by the remote API.
// Field names follow the remote wire format.
type Order struct {
	ID             string `json:"_id,omitempty"`
	OrderID        string `json:"order_id"`
	StyleNumber    int    `json:"styleNumber"`
	Size           string `json:"size"`
	Quantity       int    `json:"quantity"`
	OrderStatus    string `json:"order_status,omitempty"`
	ShippingMethod string `json:"shipping_method"`
	ContactNumber  string `json:"contact_number"`
	PaymentStatus  string `json:"payment_status"`
	OrderDate      string `json:"order_date"`
	CreatedAt      string `json:"createdAt,omitempty"`
}

// HasStatus reports whether the order's status equals s, ignoring case.
func (o *Order) HasStatus(s string) bool {
	return strings.EqualFold(o.OrderStatus, s)
}

// UnmarshalJSON accepts numeric fields encoded either as JSON numbers or strings,
// since the remote API is not consistent about them.
func (o *Order) UnmarshalJSON(data []byte) error {
	type alias Order
	aux := struct {
		*alias
		StyleNumber   json.RawMessage `json:"styleNumber"`
		Quantity      json.RawMessage `json:"quantity"`
		ContactNumber json.RawMessage `json:"contact_number"`
	}{alias: (*alias)(o)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if o.StyleNumber, err = flexInt(aux.StyleNumber); err != nil {
		return fmt.Errorf("invalid styleNumber: %w", err)
	}
	if o.Quantity, err = flexInt(aux.Quantity); err != nil {
		return fmt.Errorf("invalid quantity: %w", err)
	}
	if o.ContactNumber, err = flexString(aux.ContactNumber); err != nil {
		return fmt.Errorf("invalid contact_number: %w", err)
	}

	return nil
}

// flexInt decodes a JSON number or numeric string. Empty, null and
// non-numeric strings decode to zero.
func flexInt(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, nil
		}
		return n, nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return int(f), nil
}

// flexString decodes a JSON string or number into its string form.
func flexString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}
