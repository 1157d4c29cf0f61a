package dataset

import (
	"strconv"
	"strings"
	"time"
)

// CancellationPrefix marks cancelled invoices in the invoice identifier.
const CancellationPrefix = "C"

// Transaction represents one invoice line of the raw transaction file.
// CustomerID and Description are nullable in the source data; the empty
// string marks a missing value.
type Transaction struct {
	InvoiceID   string    `json:"invoice_id"`
	StockCode   string    `json:"stock_code"`
	Description string    `json:"description"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	InvoiceDate time.Time `json:"invoice_date"`
	CustomerID  string    `json:"customer_id"`
	Country     string    `json:"country"`
}

// IsCancelled reports whether the invoice identifier carries the
// cancellation prefix.
func (t Transaction) IsCancelled() bool {
	return strings.HasPrefix(t.InvoiceID, CancellationPrefix)
}

// HasCustomer reports whether the row carries a customer identifier.
func (t Transaction) HasCustomer() bool {
	return t.CustomerID != ""
}

// Key returns a string identity covering every attribute of the row.
// Two rows with equal keys are exact duplicates.
func (t Transaction) Key() string {
	var b strings.Builder
	b.WriteString(t.InvoiceID)
	b.WriteByte('|')
	b.WriteString(t.StockCode)
	b.WriteByte('|')
	b.WriteString(t.Description)
	b.WriteByte('|')
	b.WriteString(t.InvoiceDate.Format(time.RFC3339))
	b.WriteByte('|')
	b.WriteString(t.CustomerID)
	b.WriteByte('|')
	b.WriteString(t.Country)
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(t.Quantity))
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(t.UnitPrice, 'g', -1, 64))
	return b.String()
}

// LoadReport summarizes the shape and missing-value presence of a loaded
// transaction table.
type LoadReport struct {
	Rows               int    `json:"rows"`
	Columns            int    `json:"columns"`
	MissingCustomerID  int    `json:"missing_customer_id"`
	MissingDescription int    `json:"missing_description"`
	Source             string `json:"source"`
}

// HasMissing reports whether any nullable column had missing values.
func (r LoadReport) HasMissing() bool {
	return r.MissingCustomerID > 0 || r.MissingDescription > 0
}
