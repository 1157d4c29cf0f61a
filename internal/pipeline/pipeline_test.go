package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcli/internal/config"
	ierrors "retailcli/internal/errors"
	"retailcli/internal/reporting"
)

// fixtureCSV carries one duplicate row, one row without a customer, one
// cancelled negative-quantity row, and six customers with distinct
// recency, frequency and revenue values so quintile binning succeeds.
const fixtureCSV = `InvoiceNo,StockCode,Description,Quantity,UnitPrice,InvoiceDate,CustomerID,Country
536365,85123A,WHITE HANGING HEART,6,2.55,12/1/2010 8:26,17850,United Kingdom
536365,85123A,WHITE HANGING HEART,6,2.55,12/1/2010 8:26,17850,United Kingdom
536366,71053,WHITE METAL LANTERN,4,3.39,12/1/2010 9:00,,United Kingdom
536367,84406B,CREAM CUPID HEARTS,8,2.75,12/5/2010 10:00,13047,United Kingdom
C536368,84406B,CREAM CUPID HEARTS,-3,2.75,12/6/2010 11:00,13047,United Kingdom
536369,22752,SET 7 BABUSHKA NESTING BOXES,2,7.65,12/8/2010 12:00,13047,United Kingdom
536369,21730,GLASS STAR FROSTED T-LIGHT,2,4.25,12/8/2010 12:00,13047,United Kingdom
536370,22633,HAND WARMER UNION JACK,12,1.85,12/2/2010 9:30,12583,France
536371,21071,VINTAGE BILLBOARD MUG,3,1.06,12/3/2010 9:00,13748,United Kingdom
536372,84879,ASSORTED COLOUR BIRD ORNAMENT,16,1.69,12/4/2010 11:20,14688,United Kingdom
536373,22960,JAM MAKING SET,5,4.25,12/6/2010 16:45,15100,United Kingdom
`

// smallFixtureCSV has only two customers, too few for quintile binning
const smallFixtureCSV = `InvoiceNo,StockCode,Description,Quantity,UnitPrice,InvoiceDate,CustomerID,Country
536365,85123A,WHITE HANGING HEART,6,2.55,12/1/2010 8:26,17850,United Kingdom
536367,84406B,CREAM CUPID HEARTS,8,2.75,12/5/2010 10:00,13047,United Kingdom
`

func testConfig() *config.Config {
	return &config.Config{
		Segmentation: config.SegmentationConfig{
			Clusters:      2,
			Seed:          42,
			ElbowMaxK:     10,
			MaxIterations: 300,
		},
		Reporting: config.ReportingConfig{
			Enabled: true,
			TopN:    10,
		},
	}
}

func testPipelineWithInput(t *testing.T, cfg *config.Config, input string, opts ...Option) (*Pipeline, *config.Paths, string) {
	t.Helper()
	baseDir := t.TempDir()
	paths := config.NewPaths(baseDir, config.PathsConfig{})
	require.NoError(t, paths.EnsureDirectories())

	inputFile := filepath.Join(paths.DataDir, "transactions.csv")
	require.NoError(t, os.WriteFile(inputFile, []byte(input), 0644))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, paths, logger, opts...), paths, inputFile
}

func testPipeline(t *testing.T, cfg *config.Config, opts ...Option) (*Pipeline, *config.Paths, string) {
	t.Helper()
	return testPipelineWithInput(t, cfg, fixtureCSV, opts...)
}

func TestPipelineEndToEnd(t *testing.T) {
	p, paths, inputFile := testPipeline(t, testConfig())

	summary, err := p.Run(context.Background(), inputFile)
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.NotEmpty(t, summary.RunID)
	for _, id := range []string{StageIDLoad, StageIDClean, StageIDEnrich, StageIDSegment, StageIDExport, StageIDReport} {
		assert.Equal(t, StatusCompleted, summary.StageStatus(id), "stage %s", id)
	}

	assert.Equal(t, 11, summary.LoadReport.Rows)
	assert.Equal(t, 1, summary.LoadReport.MissingCustomerID)
	assert.Equal(t, 1, summary.CleanReport.DuplicatesRemoved)
	assert.Equal(t, 1, summary.CleanReport.MissingCustomerID)
	assert.Equal(t, 1, summary.CleanReport.ReturnRows)
	assert.Equal(t, 8, summary.CleanReport.CleanRows)
	assert.Equal(t, 6, summary.Customers)

	for _, file := range []string{
		paths.EnrichedCSV,
		paths.CustomersCSV,
		paths.RFMCSV,
		paths.ClusterProfilesCSV,
		paths.CleanReportCSV,
		paths.ElbowCSV,
		paths.QualityProductsCSV,
		paths.ReturnedProductsCSV,
	} {
		_, statErr := os.Stat(file)
		assert.NoError(t, statErr, "expected report artifact %s", file)
	}

	for _, chart := range []string{
		reporting.ChartTopProductsSold,
		reporting.ChartTopProductsRevenue,
		reporting.ChartSalesByWeekday,
		reporting.ChartSalesByHour,
		reporting.ChartSalesHeatmap,
		reporting.ChartProductDiversity,
		reporting.ChartElbow,
	} {
		_, statErr := os.Stat(paths.GetChartPath(chart))
		assert.NoError(t, statErr, "expected chart %s", chart)
	}
}

func TestPipelineRunsAreReproducible(t *testing.T) {
	p1, paths1, input1 := testPipeline(t, testConfig(), WithSkipCharts(true))
	p2, paths2, input2 := testPipeline(t, testConfig(), WithSkipCharts(true))

	_, err := p1.Run(context.Background(), input1)
	require.NoError(t, err)
	_, err = p2.Run(context.Background(), input2)
	require.NoError(t, err)

	rfm1, err := os.ReadFile(paths1.RFMCSV)
	require.NoError(t, err)
	rfm2, err := os.ReadFile(paths2.RFMCSV)
	require.NoError(t, err)
	assert.Equal(t, rfm1, rfm2)
}

func TestPipelineSkipCharts(t *testing.T) {
	p, paths, inputFile := testPipeline(t, testConfig(), WithSkipCharts(true))

	summary, err := p.Run(context.Background(), inputFile)
	require.NoError(t, err)

	assert.Equal(t, StatusSkipped, summary.StageStatus(StageIDReport))
	entries, err := os.ReadDir(paths.ChartsDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPipelineLoadFailure(t *testing.T) {
	p, _, _ := testPipeline(t, testConfig())

	summary, err := p.Run(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Equal(t, ierrors.StageLoad, ierrors.StageOf(err))
	assert.Equal(t, StatusFailed, summary.StageStatus(StageIDLoad))
	assert.Empty(t, summary.StageStatus(StageIDClean))
}

func TestPipelineDegenerateBinningAborts(t *testing.T) {
	p, paths, inputFile := testPipelineWithInput(t, testConfig(), smallFixtureCSV)

	summary, err := p.Run(context.Background(), inputFile)
	require.Error(t, err)
	assert.True(t, ierrors.IsDegenerate(err))
	assert.Equal(t, ierrors.StageSegment, ierrors.StageOf(err))
	assert.Equal(t, StatusFailed, summary.StageStatus(StageIDSegment))

	_, statErr := os.Stat(paths.RFMCSV)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPipelineTooManyClustersAborts(t *testing.T) {
	cfg := testConfig()
	cfg.Segmentation.Clusters = 20 // more clusters than customers
	p, paths, inputFile := testPipeline(t, cfg)

	summary, err := p.Run(context.Background(), inputFile)
	require.Error(t, err)
	assert.Equal(t, ierrors.StageSegment, ierrors.StageOf(err))
	assert.False(t, ierrors.IsDegenerate(err))
	assert.Equal(t, StatusFailed, summary.StageStatus(StageIDSegment))

	_, statErr := os.Stat(paths.RFMCSV)
	assert.True(t, os.IsNotExist(statErr))
}
