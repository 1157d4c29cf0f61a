package reporting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"retailcli/internal/config"
	"retailcli/internal/enrichment"
	ierrors "retailcli/internal/errors"
	"retailcli/internal/segmentation"
)

// Chart file names written under the charts directory.
const (
	ChartTopProductsSold    = "top_10_products_sold.png"
	ChartTopProductsRevenue = "top_10_products_revenue.png"
	ChartSalesByWeekday     = "sales_by_weekday.png"
	ChartSalesByHour        = "sales_by_hour.png"
	ChartSalesHeatmap       = "sales_heatmap_day_hour.png"
	ChartProductDiversity   = "product_diversity_distribution.png"
	ChartElbow              = "kmeans_elbow.png"
)

// weekdayOrder fixes the row order of weekday aggregations
var weekdayOrder = []string{
	time.Monday.String(),
	time.Tuesday.String(),
	time.Wednesday.String(),
	time.Thursday.String(),
	time.Friday.String(),
	time.Saturday.String(),
	time.Sunday.String(),
}

// Renderer draws the descriptive charts for an analysis run
type Renderer struct {
	paths  *config.Paths
	topN   int
	logger *slog.Logger
}

// NewRenderer creates a chart renderer writing into the configured charts
// directory
func NewRenderer(paths *config.Paths, cfg config.ReportingConfig, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	topN := cfg.TopN
	if topN <= 0 {
		topN = 10
	}
	return &Renderer{
		paths:  paths,
		topN:   topN,
		logger: logger,
	}
}

// RenderAll attempts every chart and never stops at the first failure. The
// returned error joins the individual chart failures and is nil only when
// every chart rendered.
func (r *Renderer) RenderAll(ctx context.Context, transactions []enrichment.Enriched, sweep []segmentation.ElbowPoint) error {
	charts := []struct {
		name   string
		render func() error
	}{
		{ChartTopProductsSold, func() error { return r.renderTopSold(transactions) }},
		{ChartTopProductsRevenue, func() error { return r.renderTopRevenue(transactions) }},
		{ChartSalesByWeekday, func() error { return r.renderSalesByWeekday(transactions) }},
		{ChartSalesByHour, func() error { return r.renderSalesByHour(transactions) }},
		{ChartSalesHeatmap, func() error { return r.renderHeatmap(transactions) }},
		{ChartProductDiversity, func() error { return r.renderDiversity(transactions) }},
		{ChartElbow, func() error { return r.renderElbow(sweep) }},
	}

	var failures []error
	for _, c := range charts {
		if err := ctx.Err(); err != nil {
			return ierrors.NewReport(fmt.Sprintf("chart rendering interrupted: %v", err), err)
		}
		start := time.Now()
		if err := c.render(); err != nil {
			r.logger.WarnContext(ctx, "chart rendering failed",
				slog.String("chart", c.name),
				slog.String("error", err.Error()))
			failures = append(failures, fmt.Errorf("%s: %w", c.name, err))
			continue
		}
		r.logger.InfoContext(ctx, "chart rendered",
			slog.String("chart", c.name),
			slog.Duration("duration", time.Since(start)))
	}

	if len(failures) > 0 {
		return ierrors.NewReport(
			fmt.Sprintf("%d of %d charts failed to render", len(failures), len(charts)),
			errors.Join(failures...))
	}
	return nil
}

func (r *Renderer) renderTopSold(transactions []enrichment.Enriched) error {
	products := TopProductsByQuantity(transactions, r.topN)
	names := make([]string, len(products))
	values := make(plotter.Values, len(products))
	// reversed so the best seller ends up on top of the horizontal chart
	for i, p := range products {
		j := len(products) - 1 - i
		names[j] = p.Description
		values[j] = float64(p.Quantity)
	}
	return r.horizontalBars(ChartTopProductsSold, "Top Products by Quantity Sold", "Quantity", names, values)
}

func (r *Renderer) renderTopRevenue(transactions []enrichment.Enriched) error {
	products := TopProductsByRevenue(transactions, r.topN)
	names := make([]string, len(products))
	values := make(plotter.Values, len(products))
	for i, p := range products {
		j := len(products) - 1 - i
		names[j] = p.Description
		values[j] = p.Revenue
	}
	return r.horizontalBars(ChartTopProductsRevenue, "Top Products by Revenue", "Revenue", names, values)
}

func (r *Renderer) horizontalBars(file, title, xLabel string, names []string, values plotter.Values) error {
	if len(values) == 0 {
		return fmt.Errorf("no data to plot")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel

	bars, err := plotter.NewBarChart(values, vg.Points(14))
	if err != nil {
		return fmt.Errorf("bar chart: %w", err)
	}
	bars.Horizontal = true
	p.Add(bars)
	p.NominalY(names...)

	return p.Save(9*vg.Inch, 5*vg.Inch, r.paths.GetChartPath(file))
}

func (r *Renderer) renderSalesByWeekday(transactions []enrichment.Enriched) error {
	if len(transactions) == 0 {
		return fmt.Errorf("no data to plot")
	}
	revenue := make(map[string]float64, len(weekdayOrder))
	for _, tx := range transactions {
		revenue[tx.Weekday] += tx.TotalPrice
	}
	values := make(plotter.Values, len(weekdayOrder))
	for i, day := range weekdayOrder {
		values[i] = revenue[day]
	}

	p := plot.New()
	p.Title.Text = "Revenue by Weekday"
	p.Y.Label.Text = "Revenue"

	bars, err := plotter.NewBarChart(values, vg.Points(28))
	if err != nil {
		return fmt.Errorf("bar chart: %w", err)
	}
	p.Add(bars)
	p.NominalX(weekdayOrder...)

	return p.Save(8*vg.Inch, 5*vg.Inch, r.paths.GetChartPath(ChartSalesByWeekday))
}

func (r *Renderer) renderSalesByHour(transactions []enrichment.Enriched) error {
	if len(transactions) == 0 {
		return fmt.Errorf("no data to plot")
	}
	var revenue [24]float64
	for _, tx := range transactions {
		revenue[tx.Hour] += tx.TotalPrice
	}
	points := make(plotter.XYs, 24)
	for h := 0; h < 24; h++ {
		points[h].X = float64(h)
		points[h].Y = revenue[h]
	}

	p := plot.New()
	p.Title.Text = "Revenue by Hour of Day"
	p.X.Label.Text = "Hour"
	p.Y.Label.Text = "Revenue"

	line, scatter, err := plotter.NewLinePoints(points)
	if err != nil {
		return fmt.Errorf("line chart: %w", err)
	}
	p.Add(line, scatter)

	return p.Save(8*vg.Inch, 5*vg.Inch, r.paths.GetChartPath(ChartSalesByHour))
}

func (r *Renderer) renderHeatmap(transactions []enrichment.Enriched) error {
	if len(transactions) == 0 {
		return fmt.Errorf("no data to plot")
	}
	grid := newSalesGrid(transactions)

	p := plot.New()
	p.Title.Text = "Revenue by Weekday and Hour"
	p.X.Label.Text = "Hour"
	p.Y.Label.Text = "Weekday"

	heatmap := plotter.NewHeatMap(grid, palette.Heat(16, 1))
	p.Add(heatmap)
	p.NominalY(weekdayOrder...)

	return p.Save(10*vg.Inch, 5*vg.Inch, r.paths.GetChartPath(ChartSalesHeatmap))
}

func (r *Renderer) renderDiversity(transactions []enrichment.Enriched) error {
	// one observation per invoice, not per row
	byInvoice := make(map[string]int)
	for _, tx := range transactions {
		byInvoice[tx.InvoiceID] = tx.DistinctProductsPerInvoice
	}
	if len(byInvoice) == 0 {
		return fmt.Errorf("no data to plot")
	}
	values := make(plotter.Values, 0, len(byInvoice))
	for _, n := range byInvoice {
		values = append(values, float64(n))
	}

	p := plot.New()
	p.Title.Text = "Distinct Products per Invoice"
	p.X.Label.Text = "Distinct products"
	p.Y.Label.Text = "Invoices"

	hist, err := plotter.NewHist(values, 20)
	if err != nil {
		return fmt.Errorf("histogram: %w", err)
	}
	p.Add(hist)

	return p.Save(8*vg.Inch, 5*vg.Inch, r.paths.GetChartPath(ChartProductDiversity))
}

func (r *Renderer) renderElbow(sweep []segmentation.ElbowPoint) error {
	if len(sweep) == 0 {
		return fmt.Errorf("no data to plot")
	}
	points := make(plotter.XYs, len(sweep))
	for i, e := range sweep {
		points[i].X = float64(e.K)
		points[i].Y = e.Inertia
	}

	p := plot.New()
	p.Title.Text = "K-Means Elbow Curve"
	p.X.Label.Text = "Clusters (k)"
	p.Y.Label.Text = "Inertia"

	line, scatter, err := plotter.NewLinePoints(points)
	if err != nil {
		return fmt.Errorf("line chart: %w", err)
	}
	p.Add(line, scatter)

	return p.Save(8*vg.Inch, 5*vg.Inch, r.paths.GetChartPath(ChartElbow))
}

// salesGrid implements plotter.GridXYZ over a 7x24 weekday/hour revenue
// pivot. Missing combinations read as zero.
type salesGrid struct {
	revenue [7][24]float64
}

func newSalesGrid(transactions []enrichment.Enriched) *salesGrid {
	rowByDay := make(map[string]int, len(weekdayOrder))
	for i, day := range weekdayOrder {
		rowByDay[day] = i
	}
	g := &salesGrid{}
	for _, tx := range transactions {
		row, ok := rowByDay[tx.Weekday]
		if !ok || tx.Hour < 0 || tx.Hour > 23 {
			continue
		}
		g.revenue[row][tx.Hour] += tx.TotalPrice
	}
	return g
}

func (g *salesGrid) Dims() (c, r int)   { return 24, 7 }
func (g *salesGrid) Z(c, r int) float64 { return g.revenue[r][c] }
func (g *salesGrid) X(c int) float64    { return float64(c) }
func (g *salesGrid) Y(r int) float64    { return float64(r) }
