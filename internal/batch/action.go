package batch

import (
	"fmt"
	"strings"

	"github.com/CameronXie/order-desk/internal/domain"
	"github.com/CameronXie/order-desk/internal/shopify"
)

// Action is a batch operation on selected orders.
type Action string

const (
	ActionConfirm Action = "confirm"
	ActionCancel  Action = "cancel"
	ActionShip    Action = "ship"
	ActionArchive Action = "archive"
)

// UnsupportedActionError is returned for an unknown action name.
type UnsupportedActionError struct {
	Action string
}

func (e *UnsupportedActionError) Error() string {
	return fmt.Sprintf("unsupported action %q", e.Action)
}

// ParseAction resolves an action name, ignoring case.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionConfirm, ActionCancel, ActionShip, ActionArchive:
		return a, nil
	default:
		return "", &UnsupportedActionError{Action: s}
	}
}

// endpoint returns the submission endpoint and status override of a.
// Archive uses a dedicated call and has neither.
func (a Action) endpoint() (shopify.Endpoint, string) {
	switch a {
	case ActionConfirm:
		return shopify.EndpointConfirm, domain.StatusConfirm
	case ActionCancel:
		return shopify.EndpointCancel, domain.StatusCancel
	case ActionShip:
		return shopify.EndpointShip, domain.StatusShipped
	default:
		return "", ""
	}
}

// missingShipData lists the fields a ship request cannot go without.
func missingShipData(o *domain.Order) []string {
	var missing []string
	if o.StyleNumber == 0 {
		missing = append(missing, "styleNumber")
	}
	if o.Size == "" {
		missing = append(missing, "size")
	}
	if o.Quantity == 0 {
		missing = append(missing, "quantity")
	}
	if o.OrderDate == "" {
		missing = append(missing, "order_date")
	}
	if o.ContactNumber == "" {
		missing = append(missing, "contact_number")
	}
	return missing
}
