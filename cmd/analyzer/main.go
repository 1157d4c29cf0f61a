package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"retailcli/internal/config"
	ierrors "retailcli/internal/errors"
	"retailcli/internal/infrastructure"
	"retailcli/internal/pipeline"
)

func main() {
	inFile := flag.String("in", "", "input transactions file, .csv or .xlsx (defaults to data/transactions.csv relative to executable)")
	outDir := flag.String("out", "", "base output directory (defaults to the executable directory)")
	chartsDir := flag.String("charts", "", "chart output directory (defaults to img under the base directory)")
	clusters := flag.Int("clusters", 0, "number of k-means clusters (default 4)")
	seed := flag.Int64("seed", -1, "k-means random seed (default 42)")
	configFile := flag.String("config", "", "optional YAML configuration file")
	skipCharts := flag.Bool("skip-charts", false, "skip chart rendering")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// flags win over file and environment
	if *outDir != "" {
		cfg.Paths.BaseDir = *outDir
	}
	if *chartsDir != "" {
		cfg.Paths.ChartsDir = *chartsDir
	}
	if *clusters > 0 {
		cfg.Segmentation.Clusters = *clusters
	}
	if *seed >= 0 {
		cfg.Segmentation.Seed = *seed
	}
	if *inFile != "" {
		cfg.Input.File = *inFile
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	paths, err := cfg.ResolvePaths()
	if err != nil {
		slog.Error("Failed to resolve paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging, cfg.GetLogPath(paths))
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()
	slog.SetDefault(logger)
	paths.LogPathResolution()

	inputFile := cfg.Input.File
	if inputFile == "" {
		inputFile = paths.GetDataPath("transactions.csv")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(cfg, paths, logger, pipeline.WithSkipCharts(*skipCharts))
	summary, err := p.Run(ctx, inputFile)
	printSummary(summary)
	if err != nil {
		logger.Error("Analysis failed",
			slog.String("stage", string(ierrors.StageOf(err))),
			slog.String("code", ierrors.CodeOf(err)),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Analysis complete",
		slog.String("reports_dir", paths.ReportsDir),
		slog.String("charts_dir", paths.ChartsDir))
}

// printSummary writes the per-stage outcome table to stdout
func printSummary(summary *pipeline.Summary) {
	if summary == nil {
		return
	}
	fmt.Printf("\nRun %s (%s)\n", summary.RunID, summary.Input)
	for _, stage := range summary.Stages {
		line := fmt.Sprintf("  %-8s %-10s %s", stage.ID, stage.Status, stage.Duration.Round(time.Millisecond))
		if stage.Err != nil {
			line += fmt.Sprintf("  (%v)", stage.Err)
		}
		fmt.Println(line)
	}
	fmt.Printf("Rows loaded: %d, clean: %d, returns: %d, customers: %d\n",
		summary.LoadReport.Rows, summary.CleanReport.CleanRows,
		summary.CleanReport.ReturnRows, summary.Customers)
}
