package enrichment

import (
	"retailcli/internal/dataset"
)

// Enriched extends a transaction with derived features. All fields are pure
// functions of the merged transaction set and are recomputed each run.
type Enriched struct {
	dataset.Transaction

	TotalPrice  float64 `json:"total_price"`
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	Day         int     `json:"day"`
	Weekday     string  `json:"weekday"`
	Hour        int     `json:"hour"`
	IsWeekend   bool    `json:"is_weekend"`
	IsCancelled bool    `json:"is_cancelled"`

	DistinctProductsPerInvoice int     `json:"distinct_products_per_invoice"`
	AvgProductPrice            float64 `json:"avg_product_price"`
	ProductReturnRate          float64 `json:"product_return_rate"`
}

// CustomerAggregate holds one row per customer, derived once per enrichment
// run from the full merged transaction set.
type CustomerAggregate struct {
	CustomerID         string  `json:"customer_id"`
	NumInvoices        int     `json:"num_invoices"`
	TotalQuantity      int     `json:"total_quantity"`
	Revenue            float64 `json:"revenue"`
	Country            string  `json:"country"`
	AverageBasketValue float64 `json:"average_basket_value"`
	ReturnRate         float64 `json:"return_rate"`
	RecencyDays        int     `json:"recency_days"`
}

// Result is the outcome of the enrichment stage. Enrichment degrades
// gracefully: a failed derivation produces a Result with Err set and empty
// tables instead of a propagated error, and callers must branch on Failed
// before consuming the tables.
type Result struct {
	Transactions []Enriched
	Customers    []CustomerAggregate
	Err          error
}

// Failed reports whether enrichment produced usable tables
func (r Result) Failed() bool {
	return r.Err != nil
}
