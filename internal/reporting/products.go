// Package reporting renders descriptive sales visualizations and top-N
// product tables from the enriched transaction table. Chart rendering is
// fault-isolated: one failed chart never prevents the others from being
// attempted.
package reporting

import (
	"sort"

	"retailcli/internal/enrichment"
)

// ProductSales aggregates quantity and revenue per product description
type ProductSales struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Revenue     float64 `json:"revenue"`
}

// ProductQuality flags a product whose historical return rate exceeds a
// threshold
type ProductQuality struct {
	StockCode   string  `json:"stock_code"`
	Description string  `json:"description"`
	ReturnRate  float64 `json:"return_rate"`
}

// ProductReturns summarizes returned quantity per product
type ProductReturns struct {
	StockCode        string  `json:"stock_code"`
	Description      string  `json:"description"`
	QuantityReturned int     `json:"quantity_returned"`
	ReturnRate       float64 `json:"return_rate"`
}

// TopProductsByQuantity returns the topN products by total quantity sold,
// descending
func TopProductsByQuantity(transactions []enrichment.Enriched, topN int) []ProductSales {
	return topProducts(transactions, topN, func(a, b ProductSales) bool {
		return a.Quantity > b.Quantity
	})
}

// TopProductsByRevenue returns the topN products by total revenue,
// descending
func TopProductsByRevenue(transactions []enrichment.Enriched, topN int) []ProductSales {
	return topProducts(transactions, topN, func(a, b ProductSales) bool {
		return a.Revenue > b.Revenue
	})
}

func topProducts(transactions []enrichment.Enriched, topN int, less func(a, b ProductSales) bool) []ProductSales {
	byDescription := make(map[string]*ProductSales)
	for _, tx := range transactions {
		p, ok := byDescription[tx.Description]
		if !ok {
			p = &ProductSales{Description: tx.Description}
			byDescription[tx.Description] = p
		}
		p.Quantity += tx.Quantity
		p.Revenue += tx.TotalPrice
	}

	products := make([]ProductSales, 0, len(byDescription))
	for _, p := range byDescription {
		products = append(products, *p)
	}
	sort.Slice(products, func(i, j int) bool {
		if less(products[i], products[j]) != less(products[j], products[i]) {
			return less(products[i], products[j])
		}
		return products[i].Description < products[j].Description
	})

	if topN > 0 && len(products) > topN {
		products = products[:topN]
	}
	return products
}

// QualityProblemProducts returns products whose return rate exceeds the
// threshold, sorted by return rate descending, capped at topN.
func QualityProblemProducts(transactions []enrichment.Enriched, threshold float64, topN int) []ProductQuality {
	type key struct{ code, description string }
	seen := make(map[key]bool)

	var products []ProductQuality
	for _, tx := range transactions {
		if tx.ProductReturnRate <= threshold {
			continue
		}
		k := key{tx.StockCode, tx.Description}
		if seen[k] {
			continue
		}
		seen[k] = true
		products = append(products, ProductQuality{
			StockCode:   tx.StockCode,
			Description: tx.Description,
			ReturnRate:  tx.ProductReturnRate,
		})
	}

	sort.Slice(products, func(i, j int) bool {
		if products[i].ReturnRate != products[j].ReturnRate {
			return products[i].ReturnRate > products[j].ReturnRate
		}
		return products[i].StockCode < products[j].StockCode
	})

	if topN > 0 && len(products) > topN {
		products = products[:topN]
	}
	return products
}

// MostReturnedProducts summarizes cancelled rows per product, sorted by
// summed quantity ascending (the most negative, i.e. most returned,
// first), capped at topN.
func MostReturnedProducts(transactions []enrichment.Enriched, topN int) []ProductReturns {
	type key struct{ code, description string }
	totals := make(map[key]*ProductReturns)

	var order []key
	for _, tx := range transactions {
		if !tx.IsCancelled {
			continue
		}
		k := key{tx.StockCode, tx.Description}
		p, ok := totals[k]
		if !ok {
			p = &ProductReturns{StockCode: tx.StockCode, Description: tx.Description, ReturnRate: tx.ProductReturnRate}
			totals[k] = p
			order = append(order, k)
		}
		p.QuantityReturned += tx.Quantity
	}

	products := make([]ProductReturns, 0, len(order))
	for _, k := range order {
		products = append(products, *totals[k])
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].QuantityReturned != products[j].QuantityReturned {
			return products[i].QuantityReturned < products[j].QuantityReturned
		}
		return products[i].StockCode < products[j].StockCode
	})

	if topN > 0 && len(products) > topN {
		products = products[:topN]
	}
	return products
}
