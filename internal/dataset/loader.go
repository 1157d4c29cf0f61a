package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	ierrors "retailcli/internal/errors"
)

// invoiceDateLayouts are tried in order when parsing invoice timestamps.
// The online retail export uses M/D/YYYY H:MM without zero padding.
var invoiceDateLayouts = []string{
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05Z07:00",
}

// Loader reads raw transaction files into memory
type Loader struct {
	logger *slog.Logger
	comma  rune
}

// Option adjusts loader construction
type Option func(*Loader)

// WithDelimiter sets the field delimiter for delimited flat files
func WithDelimiter(comma rune) Option {
	return func(l *Loader) {
		if comma != 0 {
			l.comma = comma
		}
	}
}

// NewLoader creates a new transaction file loader
func NewLoader(logger *slog.Logger, opts ...Option) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{logger: logger, comma: ','}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the transaction file at path into a transaction table.
// CSV files may use Latin-1 class encodings; Excel workbooks (.xlsx) are
// supported as an alternative input format. Load fails immediately on an
// unreadable or malformed file, there is no retry.
func (l *Loader) Load(ctx context.Context, path string) ([]Transaction, LoadReport, error) {
	l.logger.InfoContext(ctx, "loading transaction data", "path", path)

	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = l.readExcel(path)
	default:
		rows, err = l.readCSV(path)
	}
	if err != nil {
		return nil, LoadReport{}, err
	}

	if len(rows) < 2 {
		return nil, LoadReport{}, ierrors.NewLoad(ierrors.CodeLoadEmpty,
			fmt.Sprintf("transaction file has no data rows: %s", path), nil)
	}

	cols, err := mapColumns(rows[0])
	if err != nil {
		return nil, LoadReport{}, err
	}

	transactions := make([]Transaction, 0, len(rows)-1)
	report := LoadReport{Columns: len(rows[0]), Source: path}

	for i, row := range rows[1:] {
		tx, err := parseRow(row, cols)
		if err != nil {
			return nil, LoadReport{}, ierrors.NewLoad(ierrors.CodeLoadFailed,
				fmt.Sprintf("malformed row %d", i+2), err)
		}
		if tx.CustomerID == "" {
			report.MissingCustomerID++
		}
		if tx.Description == "" {
			report.MissingDescription++
		}
		transactions = append(transactions, tx)
	}
	report.Rows = len(transactions)

	l.logger.InfoContext(ctx, "transaction data loaded",
		"rows", report.Rows,
		"columns", report.Columns)
	if report.HasMissing() {
		l.logger.WarnContext(ctx, "missing values detected",
			"missing_customer_id", report.MissingCustomerID,
			"missing_description", report.MissingDescription)
	}

	return transactions, report, nil
}

// readCSV reads a delimited flat file into raw string rows. Content that is
// not valid UTF-8 is decoded as Latin-1 (ISO 8859-1), matching the encoding
// of the online retail export. A UTF-8 BOM is stripped when present.
func (l *Loader) readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, ierrors.NewLoad(ierrors.CodeLoadFailed,
			fmt.Sprintf("cannot open transaction file: %s", path), err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, ierrors.NewLoad(ierrors.CodeLoadFailed, "cannot read transaction file", err)
	}

	content = bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF})

	if !utf8.Valid(content) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(content)
		if err != nil {
			return nil, ierrors.NewLoad(ierrors.CodeLoadFailed, "cannot decode Latin-1 content", err)
		}
		content = decoded
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = l.comma
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, ierrors.NewLoad(ierrors.CodeLoadFailed, "cannot parse CSV content", err)
	}
	return rows, nil
}

// readExcel reads the first sheet of an Excel workbook into raw rows
func (l *Loader) readExcel(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, ierrors.NewLoad(ierrors.CodeLoadFailed,
			fmt.Sprintf("cannot open Excel file: %s", path), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ierrors.NewLoad(ierrors.CodeLoadEmpty, "Excel workbook has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, ierrors.NewLoad(ierrors.CodeLoadFailed,
			fmt.Sprintf("cannot read sheet %s", sheets[0]), err)
	}

	l.logger.Debug("read Excel sheet", "sheet", sheets[0], "rows", len(rows))
	return rows, nil
}

// columnIndices maps logical columns to their positions in the header row
type columnIndices struct {
	invoice     int
	stockCode   int
	description int
	quantity    int
	unitPrice   int
	invoiceDate int
	customerID  int
	country     int
}

// mapColumns locates the expected columns by header name. Both the 2009
// ("InvoiceNo", "UnitPrice", "CustomerID") and 2011 ("Invoice", "Price",
// "Customer ID") header variants of the dataset are accepted.
func mapColumns(header []string) (columnIndices, error) {
	cols := columnIndices{invoice: -1, stockCode: -1, description: -1, quantity: -1,
		unitPrice: -1, invoiceDate: -1, customerID: -1, country: -1}

	for i, name := range header {
		switch normalizeHeader(name) {
		case "invoiceno", "invoice", "invoiceid":
			cols.invoice = i
		case "stockcode":
			cols.stockCode = i
		case "description":
			cols.description = i
		case "quantity":
			cols.quantity = i
		case "unitprice", "price":
			cols.unitPrice = i
		case "invoicedate":
			cols.invoiceDate = i
		case "customerid":
			cols.customerID = i
		case "country":
			cols.country = i
		}
	}

	missing := cols.missingNames()
	if len(missing) > 0 {
		return cols, ierrors.NewLoad(ierrors.CodeSchemaMismatch,
			fmt.Sprintf("transaction file is missing expected columns: %s", strings.Join(missing, ", ")), nil)
	}
	return cols, nil
}

func (c columnIndices) missingNames() []string {
	var missing []string
	for _, col := range []struct {
		name  string
		index int
	}{
		{"InvoiceNo", c.invoice},
		{"StockCode", c.stockCode},
		{"Description", c.description},
		{"Quantity", c.quantity},
		{"UnitPrice", c.unitPrice},
		{"InvoiceDate", c.invoiceDate},
		{"CustomerID", c.customerID},
		{"Country", c.country},
	} {
		if col.index < 0 {
			missing = append(missing, col.name)
		}
	}
	return missing
}

// normalizeHeader lowercases a header cell and strips spaces and underscores
func normalizeHeader(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "")
	return strings.ReplaceAll(name, "_", "")
}

// parseRow converts a raw string row into a Transaction
func parseRow(row []string, cols columnIndices) (Transaction, error) {
	tx := Transaction{
		InvoiceID:   cell(row, cols.invoice),
		StockCode:   cell(row, cols.stockCode),
		Description: cell(row, cols.description),
		CustomerID:  normalizeCustomerID(cell(row, cols.customerID)),
		Country:     cell(row, cols.country),
	}

	qty := cell(row, cols.quantity)
	if qty == "" {
		return tx, fmt.Errorf("empty quantity")
	}
	q, err := strconv.Atoi(qty)
	if err != nil {
		return tx, fmt.Errorf("parse quantity %q: %w", qty, err)
	}
	tx.Quantity = q

	price := cell(row, cols.unitPrice)
	if price == "" {
		return tx, fmt.Errorf("empty unit price")
	}
	p, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return tx, fmt.Errorf("parse unit price %q: %w", price, err)
	}
	tx.UnitPrice = p

	date := cell(row, cols.invoiceDate)
	ts, err := parseInvoiceDate(date)
	if err != nil {
		return tx, err
	}
	tx.InvoiceDate = ts

	return tx, nil
}

// parseInvoiceDate tries the known invoice timestamp layouts in order
func parseInvoiceDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty invoice date")
	}
	for _, layout := range invoiceDateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized invoice date %q", value)
}

// normalizeCustomerID strips the float artifact some exports carry on the
// customer column ("17850.0" for customer 17850).
func normalizeCustomerID(id string) string {
	id = strings.TrimSpace(id)
	return strings.TrimSuffix(id, ".0")
}

func cell(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}
