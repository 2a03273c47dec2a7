package export

import (
	"fmt"
	"time"

	"github.com/CameronXie/order-desk/internal/domain"
	"github.com/CameronXie/order-desk/internal/orderview"
)

const (
	titleDateLayout = "02/01/2006"
	createdAtLayout = "02/01/2006 15:04:05"
)

type rgb struct {
	R, G, B int
}

var (
	reportBlue = rgb{41, 128, 185}
	reportRed  = rgb{231, 76, 60}
	stripe     = rgb{245, 245, 245}
)

// table is a rendered projection of orders.
type table struct {
	Title   string
	Sheet   string
	Headers []string
	Rows    [][]any
	Header  rgb
}

type column struct {
	header string
	value  func(o *domain.Order, now time.Time) any
}

var (
	colOrderID     = column{"Order ID", func(o *domain.Order, _ time.Time) any { return o.OrderID }}
	colStyleNumber = column{"Style Number", func(o *domain.Order, _ time.Time) any { return o.StyleNumber }}
	colSize        = column{"Size", func(o *domain.Order, _ time.Time) any { return o.Size }}
	colQuantity    = column{"Quantity", func(o *domain.Order, _ time.Time) any { return o.Quantity }}
	colOrderStatus = column{"Order Status", func(o *domain.Order, _ time.Time) any { return o.OrderStatus }}
	colStatus      = column{"Status", func(o *domain.Order, _ time.Time) any { return o.PaymentStatus }}
	colPayment     = column{"Payment Status", func(o *domain.Order, _ time.Time) any { return o.PaymentStatus }}
	colShipping    = column{"Shipping Method", func(o *domain.Order, _ time.Time) any { return o.ShippingMethod }}
	colOrderDate   = column{"Order Date", func(o *domain.Order, _ time.Time) any { return o.OrderDate }}
	colCreatedAt   = column{"Created At", func(o *domain.Order, now time.Time) any { return localTime(o.CreatedAt, now) }}
	colCancelDate  = column{"Cancel Date", func(o *domain.Order, now time.Time) any { return localTime(o.CreatedAt, now) }}
)

var (
	spreadsheetColumns = map[orderview.View][]column{
		orderview.ViewPending: {
			colOrderID, colStyleNumber, colSize, colQuantity, colStatus,
			colShipping, colOrderDate, colCreatedAt, colPayment,
		},
		orderview.ViewCancelled: {
			colOrderID, colStyleNumber, colSize, colQuantity, colOrderDate, colCancelDate,
		},
		orderview.ViewAll: {
			colOrderID, colStyleNumber, colSize, colQuantity, colOrderStatus, colOrderDate,
		},
	}

	reportColumns = []column{
		colOrderID, colStyleNumber, colSize, colQuantity, colPayment, colShipping, colOrderDate,
	}
	cancelledReportColumns = []column{
		colOrderID, colStyleNumber, colSize, colQuantity, colOrderDate, colCancelDate,
	}
)

func project(cols []column, orders []domain.Order, now time.Time, numbered bool) ([]string, [][]any) {
	headers := make([]string, 0, len(cols)+1)
	if numbered {
		headers = append(headers, "Sr.No")
	}
	for _, c := range cols {
		headers = append(headers, c.header)
	}

	rows := make([][]any, 0, len(orders))
	for i := range orders {
		row := make([]any, 0, len(headers))
		if numbered {
			row = append(row, i+1)
		}
		for _, c := range cols {
			row = append(row, c.value(&orders[i], now))
		}
		rows = append(rows, row)
	}
	return headers, rows
}

// tableFor projects orders into the spreadsheet layout of view.
func tableFor(view orderview.View, orders []domain.Order, now time.Time) *table {
	headers, rows := project(spreadsheetColumns[view], orders, now, false)
	return &table{
		Sheet:   sheetName(view),
		Headers: headers,
		Rows:    rows,
	}
}

// reportFor projects orders into the PDF report layout of view.
func reportFor(view orderview.View, format Format, orders []domain.Order, now time.Time) *table {
	date := now.Format(titleDateLayout)

	if view == orderview.ViewCancelled {
		headers, rows := project(cancelledReportColumns, orders, now, true)
		return &table{
			Title:   fmt.Sprintf("Cancelled Orders Report - %s Total orders : %d", date, len(orders)),
			Headers: headers,
			Rows:    rows,
			Header:  reportRed,
		}
	}

	label := "Pending"
	switch {
	case format == FormatExpress:
		label = "Express"
	case view == orderview.ViewConfirmed:
		label = "Confirmed"
	}

	headers, rows := project(reportColumns, orders, now, true)
	return &table{
		Title:   fmt.Sprintf("%s Orders Report - %s Total orders : %d", label, date, len(orders)),
		Headers: headers,
		Rows:    rows,
		Header:  reportBlue,
	}
}

func sheetName(view orderview.View) string {
	switch view {
	case orderview.ViewPending:
		return "Pending Orders"
	case orderview.ViewCancelled:
		return "Cancelled Orders"
	default:
		return "All Orders"
	}
}

// localTime renders an RFC 3339 timestamp in now's location. Other values are
// returned unchanged.
func localTime(s string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.In(now.Location()).Format(createdAtLayout)
}
