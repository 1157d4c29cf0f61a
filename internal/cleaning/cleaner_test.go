package cleaning

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcli/internal/dataset"
	ierrors "retailcli/internal/errors"
)

func tx(invoice, code, desc string, qty int, price float64, customer string) dataset.Transaction {
	return dataset.Transaction{
		InvoiceID:   invoice,
		StockCode:   code,
		Description: desc,
		Quantity:    qty,
		UnitPrice:   price,
		InvoiceDate: time.Date(2011, 3, 14, 10, 30, 0, 0, time.UTC),
		CustomerID:  customer,
		Country:     "United Kingdom",
	}
}

func TestCleaner_Clean(t *testing.T) {
	cleaner := NewCleaner(Options{}, nil)
	ctx := context.Background()

	t.Run("removes exact duplicates", func(t *testing.T) {
		row := tx("536365", "85123A", "HOLDER", 6, 2.55, "17850")
		clean, returns, report, err := cleaner.Clean(ctx, []dataset.Transaction{row, row, row})
		require.NoError(t, err)

		assert.Len(t, clean, 1)
		assert.Empty(t, returns)
		assert.Equal(t, 2, report.DuplicatesRemoved)
	})

	t.Run("removes missing critical values", func(t *testing.T) {
		input := []dataset.Transaction{
			tx("536365", "85123A", "HOLDER", 6, 2.55, "17850"),
			tx("536366", "85123A", "HOLDER", 6, 2.55, ""),
			tx("536367", "85123A", "", 6, 2.55, "17850"),
		}
		clean, _, report, err := cleaner.Clean(ctx, input)
		require.NoError(t, err)

		assert.Len(t, clean, 1)
		assert.Equal(t, 1, report.MissingCustomerID)
		assert.Equal(t, 1, report.MissingDescription)
	})

	t.Run("removes excluded and non-standard stock codes", func(t *testing.T) {
		input := []dataset.Transaction{
			tx("536365", "85123A", "HOLDER", 6, 2.55, "17850"),
			tx("536366", "POST", "POSTAGE", 1, 18.00, "17850"),
			tx("536367", "BANK CHARGES", "Bank Charges", 1, 15.00, "17850"),
			tx("536368", "gift_01", "GIFT VOUCHER", 1, 10.00, "17850"),
		}
		clean, _, report, err := cleaner.Clean(ctx, input)
		require.NoError(t, err)

		require.Len(t, clean, 1)
		assert.Equal(t, "85123A", clean[0].StockCode)
		assert.Equal(t, 2, report.ExcludedCodesRemoved)
		assert.Equal(t, 1, report.NonStandardCodes)
	})

	t.Run("counts abnormal code lengths without removing", func(t *testing.T) {
		input := []dataset.Transaction{
			tx("536365", "85123A", "HOLDER", 6, 2.55, "17850"),
			tx("536366", "851", "SHORT CODE ITEM", 2, 1.25, "17850"),
			tx("536367", "851236789012", "LONG CODE ITEM", 2, 1.25, "17850"),
		}
		clean, _, report, err := cleaner.Clean(ctx, input)
		require.NoError(t, err)

		assert.Len(t, clean, 3)
		assert.Equal(t, 2, report.AbnormalCodeLengths)
	})

	t.Run("removes excluded descriptions", func(t *testing.T) {
		input := []dataset.Transaction{
			tx("536365", "85123A", "HOLDER", 6, 2.55, "17850"),
			tx("536366", "85124B", "Next Day Carriage", 1, 4.00, "17850"),
			tx("536367", "85125C", "High Resolution Image", 1, 4.00, "17850"),
		}
		clean, _, report, err := cleaner.Clean(ctx, input)
		require.NoError(t, err)

		assert.Len(t, clean, 1)
		assert.Equal(t, 2, report.ExcludedDescriptions)
	})

	t.Run("partitions by quantity and price sign", func(t *testing.T) {
		input := []dataset.Transaction{
			tx("536365", "85123A", "HOLDER", 6, 2.55, "17850"),
			tx("C536379", "85123A", "HOLDER", -6, 2.55, "17850"),
			tx("536380", "85124B", "FREEBIE", 3, 0.0, "17850"),
		}
		clean, returns, report, err := cleaner.Clean(ctx, input)
		require.NoError(t, err)

		assert.Len(t, clean, 1)
		assert.Len(t, returns, 2)
		assert.Equal(t, 1, report.CleanRows)
		assert.Equal(t, 2, report.ReturnRows)
	})

	t.Run("empty input fails loudly", func(t *testing.T) {
		_, _, _, err := cleaner.Clean(ctx, nil)
		require.Error(t, err)
		assert.True(t, ierrors.IsStage(err, ierrors.StageClean))
	})
}

// The union of the clean and returns partitions must equal the set of rows
// surviving the structural filters, with no row lost or duplicated.
func TestCleaner_PartitionExactness(t *testing.T) {
	input := []dataset.Transaction{
		tx("536365", "85123A", "HOLDER", 6, 2.55, "17850"),
		tx("536365", "85123A", "HOLDER", 6, 2.55, "17850"), // duplicate
		tx("536366", "71053", "WHITE METAL LANTERN", 8, 3.39, "17850"),
		tx("536367", "84406B", "NO CUSTOMER", 8, 2.75, ""),
		tx("C536379", "85123A", "HOLDER", -6, 2.55, "17850"),
		tx("536380", "22728", "ALARM CLOCK", 4, 3.75, "12583"),
	}

	cleaner := NewCleaner(Options{}, nil)
	clean, returns, report, err := cleaner.Clean(context.Background(), input)
	require.NoError(t, err)

	// Structural filters drop 1 duplicate and 1 missing customer.
	survivors := len(input) - report.DuplicatesRemoved - report.MissingCustomerID
	assert.Equal(t, survivors, len(clean)+len(returns))

	union := make(map[string]int)
	for _, tx := range clean {
		assert.Greater(t, tx.Quantity, 0)
		assert.Greater(t, tx.UnitPrice, 0.0)
		union[tx.Key()]++
	}
	for _, tx := range returns {
		assert.True(t, tx.Quantity <= 0 || tx.UnitPrice <= 0)
		union[tx.Key()]++
	}
	for key, count := range union {
		assert.Equal(t, 1, count, "row %s appears in both partitions", key)
	}
}

// Cleaning already-clean input must remove nothing.
func TestCleaner_Idempotence(t *testing.T) {
	input := []dataset.Transaction{
		tx("536365", "85123A", "HOLDER", 6, 2.55, "17850"),
		tx("536366", "71053", "WHITE METAL LANTERN", 8, 3.39, "17850"),
		tx("536380", "22728", "ALARM CLOCK", 4, 3.75, "12583"),
	}

	cleaner := NewCleaner(Options{}, nil)
	ctx := context.Background()

	firstClean, _, _, err := cleaner.Clean(ctx, input)
	require.NoError(t, err)

	secondClean, secondReturns, report, err := cleaner.Clean(ctx, firstClean)
	require.NoError(t, err)

	assert.Equal(t, firstClean, secondClean)
	assert.Empty(t, secondReturns)
	assert.Zero(t, report.DuplicatesRemoved)
	assert.Zero(t, report.MissingCustomerID)
	assert.Zero(t, report.MissingDescription)
	assert.Zero(t, report.ExcludedCodesRemoved)
	assert.Zero(t, report.NonStandardCodes)
	assert.Zero(t, report.ExcludedDescriptions)
}

func TestCleaner_DoesNotMutateInput(t *testing.T) {
	input := []dataset.Transaction{
		tx("536365", "85123A", "HOLDER", 6, 2.55, "17850"),
		tx("536366", "POST", "POSTAGE", 1, 18.00, "17850"),
	}
	snapshot := make([]dataset.Transaction, len(input))
	copy(snapshot, input)

	cleaner := NewCleaner(Options{}, nil)
	_, _, _, err := cleaner.Clean(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, snapshot, input)
}
