package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/CameronXie/order-desk/internal/catalog"
	"github.com/CameronXie/order-desk/internal/domain"
)

const (
	picklistMissing     = "N/A"
	picklistDefaultRack = "Default"
)

var picklistHeader = []string{"Sku Id", "Rack Space", "Good"}

// PicklistRow is one line of a warehouse picklist.
type PicklistRow struct {
	SKU       string
	RackSpace string
	Good      int
}

// Picklist joins orders with the catalog by style number.
func Picklist(orders []domain.Order, idx *catalog.Index) []PicklistRow {
	rows := make([]PicklistRow, 0, len(orders))
	for i := range orders {
		o := &orders[i]

		color, ok := idx.Color(o.StyleNumber)
		if !ok {
			color = picklistMissing
		}
		size := o.Size
		if size == "" {
			size = picklistMissing
		}
		rack, ok := idx.Rack(o.StyleNumber)
		if !ok {
			rack = picklistDefaultRack
		}
		good := o.Quantity
		if good == 0 {
			good = 1
		}

		rows = append(rows, PicklistRow{
			SKU:       fmt.Sprintf("%d-%s-%s", o.StyleNumber, color, size),
			RackSpace: rack,
			Good:      good,
		})
	}
	return rows
}

// WritePicklist writes the picklist of orders as CSV.
func WritePicklist(w io.Writer, orders []domain.Order, idx *catalog.Index) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(picklistHeader); err != nil {
		return fmt.Errorf("failed to write picklist header: %w", err)
	}

	for _, r := range Picklist(orders, idx) {
		if err := cw.Write([]string{r.SKU, r.RackSpace, strconv.Itoa(r.Good)}); err != nil {
			return fmt.Errorf("failed to write picklist row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush picklist: %w", err)
	}
	return nil
}
