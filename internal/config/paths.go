package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths.
// This is the single source of truth for file locations: raw input data,
// generated report CSVs, chart images, and logs.
type Paths struct {
	BaseDir    string
	DataDir    string
	ReportsDir string
	ChartsDir  string
	LogsDir    string

	// Well-known report files written by the pipeline
	EnrichedCSV         string
	CustomersCSV        string
	RFMCSV              string
	ClusterProfilesCSV  string
	CleanReportCSV      string
	QualityProductsCSV  string
	ReturnedProductsCSV string
	ElbowCSV            string
}

// GetPaths returns the application paths relative to the executable location.
// Paths are relative to the executable directory, never the current working
// directory, so the binary behaves the same wherever it is launched from.
func GetPaths(cfg PathsConfig) (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	return NewPaths(filepath.Dir(exe), cfg), nil
}

// NewPaths builds a Paths rooted at the given base directory.
//
// Directory structure:
//
//	base/
//	  ├── data/          (input transaction files)
//	  │   └── reports/   (generated CSV artifacts)
//	  ├── img/           (chart PNGs)
//	  └── logs/          (application logs)
func NewPaths(baseDir string, cfg PathsConfig) *Paths {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	chartsDir := cfg.ChartsDir
	if chartsDir == "" {
		chartsDir = "img"
	}
	logsDir := cfg.LogsDir
	if logsDir == "" {
		logsDir = "logs"
	}

	dataPath := filepath.Join(baseDir, dataDir)
	reportsPath := filepath.Join(dataPath, "reports")

	return &Paths{
		BaseDir:    baseDir,
		DataDir:    dataPath,
		ReportsDir: reportsPath,
		ChartsDir:  filepath.Join(baseDir, chartsDir),
		LogsDir:    filepath.Join(baseDir, logsDir),

		EnrichedCSV:         filepath.Join(reportsPath, "enriched_transactions.csv"),
		CustomersCSV:        filepath.Join(reportsPath, "customer_aggregates.csv"),
		RFMCSV:              filepath.Join(reportsPath, "rfm_segments.csv"),
		ClusterProfilesCSV:  filepath.Join(reportsPath, "cluster_profiles.csv"),
		CleanReportCSV:      filepath.Join(reportsPath, "cleaning_report.csv"),
		QualityProductsCSV:  filepath.Join(reportsPath, "quality_problem_products.csv"),
		ReturnedProductsCSV: filepath.Join(reportsPath, "most_returned_products.csv"),
		ElbowCSV:            filepath.Join(reportsPath, "kmeans_elbow.csv"),
	}
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.ReportsDir,
		p.ChartsDir,
		p.LogsDir,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
	}

	return nil
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution() {
	slog.Default().Debug("resolved application paths",
		slog.String("base_dir", p.BaseDir),
		slog.String("data_dir", p.DataDir),
		slog.String("reports_dir", p.ReportsDir),
		slog.String("charts_dir", p.ChartsDir),
		slog.String("logs_dir", p.LogsDir))
}

// GetLogPath returns the path for a log file with the given name
func (p *Paths) GetLogPath(name string) string {
	return filepath.Join(p.LogsDir, name)
}

// GetChartPath returns the path for a chart image with the given file name
func (p *Paths) GetChartPath(name string) string {
	return filepath.Join(p.ChartsDir, name)
}

// GetDataPath returns the path for an input file with the given name
func (p *Paths) GetDataPath(name string) string {
	return filepath.Join(p.DataDir, name)
}
