// Package pipeline sequences the analysis stages: load, clean, enrich,
// segment, export, report. Stages run in order; load, clean, segment and
// export failures abort the run, enrichment failures stop the dependent
// stages, and chart failures only degrade the run.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"retailcli/internal/cleaning"
	"retailcli/internal/config"
	"retailcli/internal/dataset"
	"retailcli/internal/enrichment"
	"retailcli/internal/exporter"
	"retailcli/internal/reporting"
	"retailcli/internal/segmentation"
)

// Pipeline wires the stage implementations together for one input file
type Pipeline struct {
	cfg    *config.Config
	paths  *config.Paths
	logger *slog.Logger

	loader   *dataset.Loader
	cleaner  *cleaning.Cleaner
	enricher *enrichment.Enricher
	engine   *segmentation.Engine
	writer   *exporter.CSVWriter
	renderer *reporting.Renderer

	skipCharts bool
}

// Option adjusts pipeline construction
type Option func(*Pipeline)

// WithSkipCharts disables chart rendering for the run
func WithSkipCharts(skip bool) Option {
	return func(p *Pipeline) {
		p.skipCharts = skip
	}
}

// New builds a pipeline from the resolved configuration and paths
func New(cfg *config.Config, paths *config.Paths, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	var loaderOpts []dataset.Option
	if cfg.Input.Delimiter != "" {
		loaderOpts = append(loaderOpts, dataset.WithDelimiter([]rune(cfg.Input.Delimiter)[0]))
	}

	p := &Pipeline{
		cfg:    cfg,
		paths:  paths,
		logger: logger,
		loader: dataset.NewLoader(logger, loaderOpts...),
		cleaner: cleaning.NewCleaner(cleaning.Options{
			ExcludedStockCodes:   cfg.Cleaning.ExcludedStockCodes,
			ExcludedDescriptions: cfg.Cleaning.ExcludedDescriptions,
		}, logger),
		enricher: enrichment.NewEnricher(logger),
		engine: segmentation.NewEngine(logger,
			segmentation.WithClusters(cfg.Segmentation.Clusters),
			segmentation.WithSeed(cfg.Segmentation.Seed),
			segmentation.WithElbowMaxK(cfg.Segmentation.ElbowMaxK),
			segmentation.WithMaxIterations(cfg.Segmentation.MaxIterations)),
		writer:   exporter.NewCSVWriter(paths, logger),
		renderer: reporting.NewRenderer(paths, cfg.Reporting, logger),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the full analysis for the input file. The returned Summary is
// always populated for the stages that ran, including on failure.
func (p *Pipeline) Run(ctx context.Context, inputFile string) (*Summary, error) {
	summary := &Summary{
		RunID:     uuid.NewString(),
		Input:     inputFile,
		StartTime: time.Now(),
		Clusters:  p.cfg.Segmentation.Clusters,
	}
	defer func() {
		summary.Duration = time.Since(summary.StartTime)
	}()

	p.logger.InfoContext(ctx, "run_start",
		slog.String("run_id", summary.RunID),
		slog.String("input", inputFile),
		slog.Int("clusters", p.cfg.Segmentation.Clusters),
		slog.Int64("seed", p.cfg.Segmentation.Seed))

	// load
	start := time.Now()
	rows, loadReport, err := p.loader.Load(ctx, inputFile)
	summary.LoadReport = loadReport
	if p.finishStage(ctx, summary, StageIDLoad, start, err) {
		return summary, err
	}
	if loadReport.HasMissing() {
		p.logger.WarnContext(ctx, "missing_values_detected",
			slog.String("run_id", summary.RunID),
			slog.Int("missing_customer_id", loadReport.MissingCustomerID),
			slog.Int("missing_description", loadReport.MissingDescription))
	}

	// clean
	start = time.Now()
	clean, returns, cleanReport, err := p.cleaner.Clean(ctx, rows)
	summary.CleanReport = cleanReport
	if p.finishStage(ctx, summary, StageIDClean, start, err) {
		return summary, err
	}

	// enrich
	start = time.Now()
	result := p.enricher.Enrich(ctx, clean, returns)
	if p.finishStage(ctx, summary, StageIDEnrich, start, result.Err) {
		p.skipRemaining(ctx, summary, StageIDSegment, StageIDExport, StageIDReport)
		return summary, result.Err
	}
	summary.Customers = len(result.Customers)

	// segment
	start = time.Now()
	scored, sweep, profiles, err := p.engine.Segment(ctx, result.Customers)
	if p.finishStage(ctx, summary, StageIDSegment, start, err) {
		return summary, err
	}

	// export
	start = time.Now()
	err = p.export(result, scored, profiles, sweep, cleanReport)
	if p.finishStage(ctx, summary, StageIDExport, start, err) {
		return summary, err
	}

	// report
	p.report(ctx, summary, result.Transactions, sweep)

	p.logger.InfoContext(ctx, "run_complete",
		slog.String("run_id", summary.RunID),
		slog.Int("clean_rows", cleanReport.CleanRows),
		slog.Int("return_rows", cleanReport.ReturnRows),
		slog.Int("customers", summary.Customers),
		slog.Duration("duration", time.Since(summary.StartTime)))
	return summary, nil
}

// finishStage records a stage outcome and reports whether the run must stop
func (p *Pipeline) finishStage(ctx context.Context, summary *Summary, id string, start time.Time, err error) bool {
	duration := time.Since(start)
	if err != nil {
		summary.addStage(id, StatusFailed, duration, err)
		p.logger.ErrorContext(ctx, "stage_failed",
			slog.String("run_id", summary.RunID),
			slog.String("stage", id),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return true
	}
	summary.addStage(id, StatusCompleted, duration, nil)
	p.logger.InfoContext(ctx, "stage_completed",
		slog.String("run_id", summary.RunID),
		slog.String("stage", id),
		slog.Duration("duration", duration))
	return false
}

func (p *Pipeline) skipRemaining(ctx context.Context, summary *Summary, ids ...string) {
	for _, id := range ids {
		summary.addStage(id, StatusSkipped, 0, nil)
		p.logger.InfoContext(ctx, "stage_skipped",
			slog.String("run_id", summary.RunID),
			slog.String("stage", id))
	}
}

func (p *Pipeline) export(result enrichment.Result, scored []segmentation.ScoredCustomer,
	profiles []segmentation.ClusterProfile, sweep []segmentation.ElbowPoint, cleanReport cleaning.Report) error {

	if err := p.writer.WriteEnrichedTransactions(result.Transactions); err != nil {
		return err
	}
	if err := p.writer.WriteCustomerAggregates(result.Customers); err != nil {
		return err
	}
	if err := p.writer.WriteRFMTable(scored); err != nil {
		return err
	}
	if err := p.writer.WriteClusterProfiles(profiles); err != nil {
		return err
	}
	if err := p.writer.WriteCleaningReport(cleanReport, time.Now()); err != nil {
		return err
	}
	if err := p.writer.WriteElbowCurve(sweep); err != nil {
		return err
	}

	quality := reporting.QualityProblemProducts(result.Transactions,
		p.cfg.Reporting.ReturnRateThreshold, p.cfg.Reporting.TopN)
	if err := p.writer.WriteQualityProducts(quality); err != nil {
		return err
	}
	returned := reporting.MostReturnedProducts(result.Transactions, p.cfg.Reporting.TopN)
	return p.writer.WriteMostReturned(returned)
}

// report renders the chart set. Failures degrade the run instead of
// failing it.
func (p *Pipeline) report(ctx context.Context, summary *Summary, transactions []enrichment.Enriched, sweep []segmentation.ElbowPoint) {
	if p.skipCharts || !p.cfg.Reporting.Enabled {
		p.skipRemaining(ctx, summary, StageIDReport)
		return
	}

	start := time.Now()
	if err := p.renderer.RenderAll(ctx, transactions, sweep); err != nil {
		summary.addStage(StageIDReport, StatusDegraded, time.Since(start), err)
		p.logger.WarnContext(ctx, "stage_degraded",
			slog.String("run_id", summary.RunID),
			slog.String("stage", StageIDReport),
			slog.String("error", err.Error()))
		return
	}
	summary.addStage(StageIDReport, StatusCompleted, time.Since(start), nil)
	p.logger.InfoContext(ctx, "stage_completed",
		slog.String("run_id", summary.RunID),
		slog.String("stage", StageIDReport),
		slog.Duration("duration", time.Since(start)))
}
