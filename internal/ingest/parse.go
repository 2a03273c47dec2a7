// Package ingest turns a Shopify order export into submissions for the remote API.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Column names of the Shopify order export that are read.
const (
	ColName            = "Name"
	ColSKU             = "Lineitem sku"
	ColQuantity        = "Lineitem quantity"
	ColFinancialStatus = "Financial Status"
	ColPaymentMethod   = "Payment Method"
	ColTags            = "Tags"
	ColCreatedAt       = "Created at"
	ColBillingPhone    = "Billing Phone"
	ColShippingMethod  = "Shipping Method"
)

// RequiredColumns lists the projected columns, in output order.
var RequiredColumns = []string{
	ColName,
	ColSKU,
	ColQuantity,
	ColFinancialStatus,
	ColPaymentMethod,
	ColTags,
	ColCreatedAt,
	ColBillingPhone,
	ColShippingMethod,
}

// ErrNotCSV is returned for uploads whose file name does not end in .csv.
var ErrNotCSV = errors.New("please upload a valid CSV file")

// ParseError is a structural CSV error. No rows are returned with it.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("error parsing CSV file at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("error parsing CSV file: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Row is one line item of the export, projected to RequiredColumns.
type Row struct {
	Name            string `json:"Name"`
	SKU             string `json:"Lineitem sku"`
	Quantity        string `json:"Lineitem quantity"`
	FinancialStatus string `json:"Financial Status"`
	PaymentMethod   string `json:"Payment Method"`
	Tags            string `json:"Tags"`
	CreatedAt       string `json:"Created at"`
	BillingPhone    string `json:"Billing Phone"`
	ShippingMethod  string `json:"Shipping Method"`
}

// CheckFileName rejects file names without a .csv extension.
func CheckFileName(name string) error {
	if !strings.HasSuffix(strings.ToLower(name), ".csv") {
		return ErrNotCSV
	}
	return nil
}

// Parse reads a header row followed by data rows. Blank lines are skipped and
// columns outside RequiredColumns are dropped; absent columns read as "".
func Parse(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Err: errors.New("missing header row")}
		}
		return nil, toParseError(err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff")
		}
		col = strings.TrimSpace(col)
		if _, ok := index[col]; !ok {
			index[col] = i
		}
	}

	if _, ok := index[ColName]; !ok {
		return nil, &ParseError{Line: 1, Err: fmt.Errorf("missing %q column", ColName)}
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, toParseError(err)
		}
		if blank(record) {
			continue
		}

		get := func(col string) string {
			if i, ok := index[col]; ok && i < len(record) {
				return record[i]
			}
			return ""
		}

		rows = append(rows, Row{
			Name:            get(ColName),
			SKU:             get(ColSKU),
			Quantity:        get(ColQuantity),
			FinancialStatus: get(ColFinancialStatus),
			PaymentMethod:   get(ColPaymentMethod),
			Tags:            get(ColTags),
			CreatedAt:       get(ColCreatedAt),
			BillingPhone:    get(ColBillingPhone),
			ShippingMethod:  get(ColShippingMethod),
		})
	}

	return rows, nil
}

func toParseError(err error) *ParseError {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &ParseError{Line: csvErr.Line, Err: csvErr.Err}
	}
	return &ParseError{Err: err}
}

// blank reports whether every field of record is empty, as for ",,,".
func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
