// Package cleaning implements the data cleaning stage of the analytics
// pipeline. It removes structurally unusable rows (duplicates, missing
// identifiers, non-product stock codes, placeholder descriptions) and then
// partitions what remains by quantity/price sign into a clean table and a
// returns table.
package cleaning

import (
	"context"
	"log/slog"
	"regexp"

	"retailcli/internal/dataset"
	ierrors "retailcli/internal/errors"
)

// stockCodePattern matches standard product codes: one or more uppercase
// letters or digits.
var stockCodePattern = regexp.MustCompile(`^[A-Z0-9]+$`)

// Default content filters for the online retail dataset. Both lists can be
// overridden through Options.
var (
	// DefaultExcludedStockCodes are known non-product codes (postage, bank
	// charges, manual adjustments, samples, discounts) removed regardless of
	// pattern match.
	DefaultExcludedStockCodes = []string{"POST", "BANK CHARGES", "C2", "DOT", "M", "AMAZONFEE", "PADS", "S", "D"}

	// DefaultExcludedDescriptions are carriage and image-only placeholder
	// descriptions that carry no product information.
	DefaultExcludedDescriptions = []string{"Next Day Carriage", "High Resolution Image"}
)

// Stock code lengths outside this range are counted as suspicious for the
// audit report. They are observed, not removed.
const (
	minTypicalCodeLength = 4
	maxTypicalCodeLength = 10
)

// Options configures the content filters of the cleaner
type Options struct {
	ExcludedStockCodes   []string
	ExcludedDescriptions []string
}

// Report holds per-step audit counts emitted by the cleaning stage
type Report struct {
	InputRows            int `json:"input_rows"`
	DuplicatesRemoved    int `json:"duplicates_removed"`
	MissingCustomerID    int `json:"missing_customer_id_removed"`
	MissingDescription   int `json:"missing_description_removed"`
	ExcludedCodesRemoved int `json:"excluded_codes_removed"`
	NonStandardCodes     int `json:"non_standard_codes_removed"`
	AbnormalCodeLengths  int `json:"abnormal_code_lengths_observed"`
	ExcludedDescriptions int `json:"excluded_descriptions_removed"`
	ReturnRows           int `json:"return_rows"`
	CleanRows            int `json:"clean_rows"`
}

// Cleaner removes unusable rows and partitions transactions into clean and
// returns tables
type Cleaner struct {
	excludedCodes        map[string]bool
	excludedDescriptions map[string]bool
	logger               *slog.Logger
}

// NewCleaner creates a cleaner with the given options. Zero-valued option
// slices fall back to the dataset defaults.
func NewCleaner(opts Options, logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	codes := opts.ExcludedStockCodes
	if codes == nil {
		codes = DefaultExcludedStockCodes
	}
	descriptions := opts.ExcludedDescriptions
	if descriptions == nil {
		descriptions = DefaultExcludedDescriptions
	}

	codeSet := make(map[string]bool, len(codes))
	for _, c := range codes {
		codeSet[c] = true
	}
	descSet := make(map[string]bool, len(descriptions))
	for _, d := range descriptions {
		descSet[d] = true
	}

	return &Cleaner{
		excludedCodes:        codeSet,
		excludedDescriptions: descSet,
		logger:               logger,
	}
}

// Clean applies the structural and content filters and partitions the
// result by quantity/price sign. The returned clean and returns slices are
// a strict partition of the rows surviving the structural filters: rows
// with quantity <= 0 or unit price <= 0 land in returns, everything else in
// clean. Inputs are never mutated.
func (c *Cleaner) Clean(ctx context.Context, transactions []dataset.Transaction) (clean, returns []dataset.Transaction, report Report, err error) {
	if len(transactions) == 0 {
		return nil, nil, Report{}, ierrors.NewClean("no transactions to clean", nil)
	}

	report.InputRows = len(transactions)
	c.logger.InfoContext(ctx, "cleaning transaction data", "input_rows", report.InputRows)

	rows := c.dropDuplicates(transactions, &report)
	rows = c.dropMissingCritical(rows, &report)
	rows = c.dropStockCodeAnomalies(rows, &report)
	rows = c.dropExcludedDescriptions(rows, &report)

	clean = make([]dataset.Transaction, 0, len(rows))
	for _, tx := range rows {
		if tx.Quantity <= 0 || tx.UnitPrice <= 0 {
			returns = append(returns, tx)
		} else {
			clean = append(clean, tx)
		}
	}
	report.ReturnRows = len(returns)
	report.CleanRows = len(clean)

	c.logger.InfoContext(ctx, "cleaning complete",
		"duplicates_removed", report.DuplicatesRemoved,
		"missing_customer_id", report.MissingCustomerID,
		"missing_description", report.MissingDescription,
		"excluded_codes", report.ExcludedCodesRemoved,
		"non_standard_codes", report.NonStandardCodes,
		"abnormal_code_lengths", report.AbnormalCodeLengths,
		"excluded_descriptions", report.ExcludedDescriptions,
		"return_rows", report.ReturnRows,
		"clean_rows", report.CleanRows)

	return clean, returns, report, nil
}

// dropDuplicates removes exact duplicate rows, keeping the first occurrence
func (c *Cleaner) dropDuplicates(rows []dataset.Transaction, report *Report) []dataset.Transaction {
	seen := make(map[string]bool, len(rows))
	out := make([]dataset.Transaction, 0, len(rows))
	for _, tx := range rows {
		key := tx.Key()
		if seen[key] {
			report.DuplicatesRemoved++
			continue
		}
		seen[key] = true
		out = append(out, tx)
	}
	return out
}

// dropMissingCritical removes rows without a customer ID or description
func (c *Cleaner) dropMissingCritical(rows []dataset.Transaction, report *Report) []dataset.Transaction {
	out := rows[:0:0]
	for _, tx := range rows {
		if tx.CustomerID == "" {
			report.MissingCustomerID++
			continue
		}
		if tx.Description == "" {
			report.MissingDescription++
			continue
		}
		out = append(out, tx)
	}
	return out
}

// dropStockCodeAnomalies removes rows on the non-product allow-list and
// rows whose code does not match the standard pattern. Codes with atypical
// lengths are only counted for the audit report.
func (c *Cleaner) dropStockCodeAnomalies(rows []dataset.Transaction, report *Report) []dataset.Transaction {
	out := rows[:0:0]
	for _, tx := range rows {
		length := len(tx.StockCode)
		if length < minTypicalCodeLength || length > maxTypicalCodeLength {
			report.AbnormalCodeLengths++
		}
		if c.excludedCodes[tx.StockCode] {
			report.ExcludedCodesRemoved++
			continue
		}
		if !stockCodePattern.MatchString(tx.StockCode) {
			report.NonStandardCodes++
			continue
		}
		out = append(out, tx)
	}
	return out
}

// dropExcludedDescriptions removes rows whose description is on the
// exclusion list
func (c *Cleaner) dropExcludedDescriptions(rows []dataset.Transaction, report *Report) []dataset.Transaction {
	out := rows[:0:0]
	for _, tx := range rows {
		if c.excludedDescriptions[tx.Description] {
			report.ExcludedDescriptions++
			continue
		}
		out = append(out, tx)
	}
	return out
}
