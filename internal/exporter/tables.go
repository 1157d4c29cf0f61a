package exporter

import (
	"fmt"
	"strconv"
	"time"

	"retailcli/internal/cleaning"
	"retailcli/internal/enrichment"
	ierrors "retailcli/internal/errors"
	"retailcli/internal/reporting"
	"retailcli/internal/segmentation"
)

// timestampLayout is used for invoice timestamps in exported CSVs
const timestampLayout = "2006-01-02 15:04:05"

// WriteEnrichedTransactions writes the enriched transaction table
func (w *CSVWriter) WriteEnrichedTransactions(transactions []enrichment.Enriched) error {
	headers := []string{
		"InvoiceID", "StockCode", "Description", "Quantity", "UnitPrice",
		"InvoiceDate", "CustomerID", "Country", "TotalPrice", "Year", "Month",
		"Day", "Weekday", "Hour", "IsWeekend", "IsCancelled",
		"DistinctProductsPerInvoice", "AvgProductPrice", "ProductReturnRate",
	}

	records := make([][]string, 0, len(transactions))
	for _, tx := range transactions {
		records = append(records, []string{
			tx.InvoiceID,
			tx.StockCode,
			tx.Description,
			strconv.Itoa(tx.Quantity),
			formatFloat(tx.UnitPrice),
			tx.InvoiceDate.Format(timestampLayout),
			tx.CustomerID,
			tx.Country,
			formatFloat(tx.TotalPrice),
			strconv.Itoa(tx.Year),
			strconv.Itoa(tx.Month),
			strconv.Itoa(tx.Day),
			tx.Weekday,
			strconv.Itoa(tx.Hour),
			strconv.FormatBool(tx.IsWeekend),
			strconv.FormatBool(tx.IsCancelled),
			strconv.Itoa(tx.DistinctProductsPerInvoice),
			formatFloat(tx.AvgProductPrice),
			formatFloat(tx.ProductReturnRate),
		})
	}

	if err := w.WriteSimpleCSV(w.paths.EnrichedCSV, headers, records); err != nil {
		return ierrors.NewExport("write enriched transactions", err)
	}
	return nil
}

// WriteCustomerAggregates writes the customer aggregate table
func (w *CSVWriter) WriteCustomerAggregates(customers []enrichment.CustomerAggregate) error {
	headers := []string{
		"CustomerID", "NumInvoices", "TotalQuantity", "Revenue", "Country",
		"AverageBasketValue", "ReturnRate", "RecencyDays",
	}

	records := make([][]string, 0, len(customers))
	for _, c := range customers {
		records = append(records, []string{
			c.CustomerID,
			strconv.Itoa(c.NumInvoices),
			strconv.Itoa(c.TotalQuantity),
			formatFloat(c.Revenue),
			c.Country,
			formatFloat(c.AverageBasketValue),
			formatFloat(c.ReturnRate),
			strconv.Itoa(c.RecencyDays),
		})
	}

	if err := w.WriteSimpleCSV(w.paths.CustomersCSV, headers, records); err != nil {
		return ierrors.NewExport("write customer aggregates", err)
	}
	return nil
}

// WriteRFMTable writes the scored customer table with segment and cluster
// labels
func (w *CSVWriter) WriteRFMTable(scored []segmentation.ScoredCustomer) error {
	headers := []string{
		"CustomerID", "Recency", "Frequency", "Monetary",
		"RScore", "FScore", "MScore", "RFMCode", "Segment", "Cluster",
	}

	records := make([][]string, 0, len(scored))
	for _, s := range scored {
		records = append(records, []string{
			s.CustomerID,
			formatFloat(s.Recency),
			formatFloat(s.Frequency),
			formatFloat(s.Monetary),
			strconv.Itoa(s.RScore),
			strconv.Itoa(s.FScore),
			strconv.Itoa(s.MScore),
			s.RFMCode,
			s.Segment,
			strconv.Itoa(s.Cluster),
		})
	}

	if err := w.WriteSimpleCSV(w.paths.RFMCSV, headers, records); err != nil {
		return ierrors.NewExport("write RFM table", err)
	}
	return nil
}

// WriteClusterProfiles writes the per-cluster summary table
func (w *CSVWriter) WriteClusterProfiles(profiles []segmentation.ClusterProfile) error {
	headers := []string{"Cluster", "MeanRecency", "MeanFrequency", "MeanMonetary", "Customers"}

	records := make([][]string, 0, len(profiles))
	for _, p := range profiles {
		records = append(records, []string{
			strconv.Itoa(p.Cluster),
			formatFloat(p.MeanRecency),
			formatFloat(p.MeanFrequency),
			formatFloat(p.MeanMonetary),
			strconv.Itoa(p.Customers),
		})
	}

	if err := w.WriteSimpleCSV(w.paths.ClusterProfilesCSV, headers, records); err != nil {
		return ierrors.NewExport("write cluster profiles", err)
	}
	return nil
}

// WriteCleaningReport writes the audit counts of the cleaning stage,
// stamped with the run time.
func (w *CSVWriter) WriteCleaningReport(report cleaning.Report, runTime time.Time) error {
	headers := []string{"Metric", "Count"}
	records := [][]string{
		{"run_time", runTime.Format(timestampLayout)},
		{"input_rows", strconv.Itoa(report.InputRows)},
		{"duplicates_removed", strconv.Itoa(report.DuplicatesRemoved)},
		{"missing_customer_id_removed", strconv.Itoa(report.MissingCustomerID)},
		{"missing_description_removed", strconv.Itoa(report.MissingDescription)},
		{"excluded_codes_removed", strconv.Itoa(report.ExcludedCodesRemoved)},
		{"non_standard_codes_removed", strconv.Itoa(report.NonStandardCodes)},
		{"abnormal_code_lengths_observed", strconv.Itoa(report.AbnormalCodeLengths)},
		{"excluded_descriptions_removed", strconv.Itoa(report.ExcludedDescriptions)},
		{"return_rows", strconv.Itoa(report.ReturnRows)},
		{"clean_rows", strconv.Itoa(report.CleanRows)},
	}

	if err := w.WriteSimpleCSV(w.paths.CleanReportCSV, headers, records); err != nil {
		return ierrors.NewExport("write cleaning report", err)
	}
	return nil
}

// formatFloat renders a float with full precision and no exponent noise
// for typical business values
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteElbowCurve writes the advisory inertia sweep
func (w *CSVWriter) WriteElbowCurve(sweep []segmentation.ElbowPoint) error {
	headers := []string{"K", "Inertia"}
	records := make([][]string, 0, len(sweep))
	for _, p := range sweep {
		records = append(records, []string{
			strconv.Itoa(p.K),
			fmt.Sprintf("%.6f", p.Inertia),
		})
	}

	if err := w.WriteSimpleCSV(w.paths.ElbowCSV, headers, records); err != nil {
		return ierrors.NewExport("write elbow curve", err)
	}
	return nil
}

// WriteQualityProducts writes products whose return rate crossed the
// configured threshold
func (w *CSVWriter) WriteQualityProducts(products []reporting.ProductQuality) error {
	headers := []string{"StockCode", "Description", "ReturnRate"}
	records := make([][]string, 0, len(products))
	for _, p := range products {
		records = append(records, []string{
			p.StockCode,
			p.Description,
			formatFloat(p.ReturnRate),
		})
	}

	if err := w.WriteSimpleCSV(w.paths.QualityProductsCSV, headers, records); err != nil {
		return ierrors.NewExport("write quality problem products", err)
	}
	return nil
}

// WriteMostReturned writes the most-returned products table
func (w *CSVWriter) WriteMostReturned(products []reporting.ProductReturns) error {
	headers := []string{"StockCode", "Description", "QuantityReturned", "ReturnRate"}
	records := make([][]string, 0, len(products))
	for _, p := range products {
		records = append(records, []string{
			p.StockCode,
			p.Description,
			strconv.Itoa(p.QuantityReturned),
			formatFloat(p.ReturnRate),
		})
	}

	if err := w.WriteSimpleCSV(w.paths.ReturnedProductsCSV, headers, records); err != nil {
		return ierrors.NewExport("write most returned products", err)
	}
	return nil
}
