// Package enrichment implements the feature engineering stage. It re-merges
// the clean and returns tables so that returns participate in recency and
// return-rate math, then derives transaction-grain and customer-grain
// features in a single deterministic pass.
package enrichment

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"retailcli/internal/dataset"
	ierrors "retailcli/internal/errors"
)

// Enricher derives transaction and customer features
type Enricher struct {
	logger *slog.Logger
}

// NewEnricher creates a new feature enricher
func NewEnricher(logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{logger: logger}
}

// Enrich computes the enriched transaction table and the customer aggregate
// table from the clean and returns partitions. It never propagates an
// error: any failed derivation is logged and converted into a Result
// sentinel with Err set and empty tables.
func (e *Enricher) Enrich(ctx context.Context, clean, returns []dataset.Transaction) Result {
	e.logger.InfoContext(ctx, "enriching transaction data",
		"clean_rows", len(clean),
		"return_rows", len(returns))

	transactions, customers, err := e.derive(ctx, clean, returns)
	if err != nil {
		wrapped := ierrors.NewEnrich("feature derivation failed", err)
		e.logger.ErrorContext(ctx, "enrichment failed", "error", wrapped)
		return Result{Err: wrapped}
	}

	e.logger.InfoContext(ctx, "enrichment complete",
		"enriched_rows", len(transactions),
		"customers", len(customers))

	return Result{Transactions: transactions, Customers: customers}
}

func (e *Enricher) derive(ctx context.Context, clean, returns []dataset.Transaction) ([]Enriched, []CustomerAggregate, error) {
	// Restore the full filtered population. The order clean-then-returns is
	// kept for first-seen semantics but no derived value depends on it
	// beyond the first observed country per customer.
	merged := make([]dataset.Transaction, 0, len(clean)+len(returns))
	merged = append(merged, clean...)
	merged = append(merged, returns...)

	if len(merged) == 0 {
		return nil, nil, fmt.Errorf("no transactions to enrich")
	}

	transactions := make([]Enriched, 0, len(merged))
	var maxDate time.Time

	for i, tx := range merged {
		if tx.InvoiceDate.IsZero() {
			return nil, nil, fmt.Errorf("row %d has no invoice date", i)
		}
		weekday := tx.InvoiceDate.Weekday()
		en := Enriched{
			Transaction: tx,
			TotalPrice:  float64(tx.Quantity) * tx.UnitPrice,
			Year:        tx.InvoiceDate.Year(),
			Month:       int(tx.InvoiceDate.Month()),
			Day:         tx.InvoiceDate.Day(),
			Weekday:     weekday.String(),
			Hour:        tx.InvoiceDate.Hour(),
			IsWeekend:   weekday == time.Saturday || weekday == time.Sunday,
			IsCancelled: tx.IsCancelled(),
		}
		transactions = append(transactions, en)
		if tx.InvoiceDate.After(maxDate) {
			maxDate = tx.InvoiceDate
		}
	}

	e.deriveInvoiceDiversity(transactions)
	e.deriveProductFeatures(transactions)

	customers := e.deriveCustomers(ctx, transactions, maxDate)

	return transactions, customers, nil
}

// deriveInvoiceDiversity computes the distinct product count per invoice
// and broadcasts it onto every row of that invoice.
func (e *Enricher) deriveInvoiceDiversity(transactions []Enriched) {
	products := make(map[string]map[string]bool)
	for _, tx := range transactions {
		set, ok := products[tx.InvoiceID]
		if !ok {
			set = make(map[string]bool)
			products[tx.InvoiceID] = set
		}
		set[tx.StockCode] = true
	}
	for i := range transactions {
		transactions[i].DistinctProductsPerInvoice = len(products[transactions[i].InvoiceID])
	}
}

// deriveProductFeatures computes the average historical unit price and the
// historical return rate per product and broadcasts both onto every row of
// that product. Ratios with a zero or undefined denominator resolve to 0,
// never to NaN or Inf.
func (e *Enricher) deriveProductFeatures(transactions []Enriched) {
	type productStats struct {
		priceSum    float64
		rows        int
		soldQty     int
		returnedQty int
	}

	stats := make(map[string]*productStats)
	for _, tx := range transactions {
		st, ok := stats[tx.StockCode]
		if !ok {
			st = &productStats{}
			stats[tx.StockCode] = st
		}
		st.priceSum += tx.UnitPrice
		st.rows++
		st.soldQty += tx.Quantity
		if tx.IsCancelled {
			st.returnedQty += tx.Quantity
		}
	}

	for i := range transactions {
		st := stats[transactions[i].StockCode]
		if st.rows > 0 {
			transactions[i].AvgProductPrice = st.priceSum / float64(st.rows)
		}
		transactions[i].ProductReturnRate = safeRate(math.Abs(float64(st.returnedQty)), float64(st.soldQty))
	}
}

// deriveCustomers aggregates the enriched rows per customer. Rows without a
// customer identifier are excluded from the customer grain; they should not
// occur after cleaning but the enricher accepts arbitrary tables.
func (e *Enricher) deriveCustomers(ctx context.Context, transactions []Enriched, maxDate time.Time) []CustomerAggregate {
	type customerStats struct {
		invoices    map[string]bool
		quantity    int
		revenue     float64
		country     string
		returnedQty int
		lastInvoice time.Time
	}

	stats := make(map[string]*customerStats)
	order := make([]string, 0)

	skipped := 0
	for _, tx := range transactions {
		if !tx.HasCustomer() {
			skipped++
			continue
		}
		st, ok := stats[tx.CustomerID]
		if !ok {
			st = &customerStats{invoices: make(map[string]bool), country: tx.Country}
			stats[tx.CustomerID] = st
			order = append(order, tx.CustomerID)
		}
		st.invoices[tx.InvoiceID] = true
		st.quantity += tx.Quantity
		st.revenue += tx.TotalPrice
		if tx.IsCancelled {
			st.returnedQty += tx.Quantity
		}
		if tx.InvoiceDate.After(st.lastInvoice) {
			st.lastInvoice = tx.InvoiceDate
		}
	}
	if skipped > 0 {
		e.logger.WarnContext(ctx, "rows without customer identifier excluded from customer grain", "rows", skipped)
	}

	sort.Strings(order)

	customers := make([]CustomerAggregate, 0, len(stats))
	for _, id := range order {
		st := stats[id]
		agg := CustomerAggregate{
			CustomerID:    id,
			NumInvoices:   len(st.invoices),
			TotalQuantity: st.quantity,
			Revenue:       st.revenue,
			Country:       st.country,
			ReturnRate:    safeRate(math.Abs(float64(st.returnedQty)), float64(st.quantity)),
			RecencyDays:   recencyDays(maxDate, st.lastInvoice),
		}
		agg.AverageBasketValue = safeRate(st.revenue, float64(agg.NumInvoices))
		customers = append(customers, agg)
	}

	return customers
}

// recencyDays returns whole days between the dataset's global maximum
// invoice date and the customer's last invoice. The global maximum, not
// wall-clock time, is the recency reference so results are reproducible.
func recencyDays(maxDate, lastInvoice time.Time) int {
	if lastInvoice.After(maxDate) {
		return 0
	}
	return int(maxDate.Sub(lastInvoice).Hours() / 24)
}

// safeRate divides numerator by denominator, resolving zero or undefined
// denominators to 0. Derived ratios are terminal business metrics consumed
// by percentile logic that cannot tolerate non-finite values.
func safeRate(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	rate := numerator / denominator
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0
	}
	return rate
}
