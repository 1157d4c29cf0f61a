package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Segmentation.Clusters)
	assert.Equal(t, int64(42), cfg.Segmentation.Seed)
	assert.Equal(t, 10, cfg.Segmentation.ElbowMaxK)
	assert.Equal(t, 10, cfg.Reporting.TopN)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Output)
	assert.Contains(t, cfg.Cleaning.ExcludedStockCodes, "POST")
	assert.Contains(t, cfg.Cleaning.ExcludedStockCodes, "BANK CHARGES")
	assert.Contains(t, cfg.Cleaning.ExcludedDescriptions, "Next Day Carriage")
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	content := `
input:
  file: data/online_retail.csv
segmentation:
  clusters: 6
  seed: 7
paths:
  base_dir: /tmp/retail
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, "data/online_retail.csv", cfg.Input.File)
	assert.Equal(t, 6, cfg.Segmentation.Clusters)
	assert.Equal(t, int64(7), cfg.Segmentation.Seed)
	assert.Equal(t, "/tmp/retail", cfg.Paths.BaseDir)
}

func TestLoad_FileCoversEveryGroup(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	content := `
logging:
  level: debug
  output: both
segmentation:
  elbow_max_k: 8
  max_iterations: 150
reporting:
  enabled: false
  return_rate_threshold: 0.25
paths:
  data_dir: input
  charts_dir: charts
  logs_dir: run-logs
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "both", cfg.Logging.Output)
	assert.Equal(t, 8, cfg.Segmentation.ElbowMaxK)
	assert.Equal(t, 150, cfg.Segmentation.MaxIterations)
	assert.False(t, cfg.Reporting.Enabled)
	assert.InDelta(t, 0.25, cfg.Reporting.ReturnRateThreshold, 1e-9)
	assert.Equal(t, "input", cfg.Paths.DataDir)
	assert.Equal(t, "charts", cfg.Paths.ChartsDir)
	assert.Equal(t, "run-logs", cfg.Paths.LogsDir)

	// keys absent from the file keep their defaults
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 4, cfg.Segmentation.Clusters)
	assert.Equal(t, 10, cfg.Reporting.TopN)
}

func TestLoad_EnvOverridesFileLoggingLevel(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("logging:\n  level: debug\n"), 0644))

	t.Setenv("RETAIL_LOGGING_LEVEL", "warn")

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("segmentation:\n  clusters: 6\n"), 0644))

	t.Setenv("RETAIL_SEGMENTATION_CLUSTERS", "8")

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Segmentation.Clusters)
}

func TestLoad_InvalidLevel(t *testing.T) {
	t.Setenv("RETAIL_LOGGING_LEVEL", "loud")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestNewPaths(t *testing.T) {
	paths := NewPaths("/srv/retail", PathsConfig{})

	assert.Equal(t, "/srv/retail", paths.BaseDir)
	assert.Equal(t, filepath.Join("/srv/retail", "data"), paths.DataDir)
	assert.Equal(t, filepath.Join("/srv/retail", "data", "reports"), paths.ReportsDir)
	assert.Equal(t, filepath.Join("/srv/retail", "img"), paths.ChartsDir)
	assert.Equal(t, filepath.Join("/srv/retail", "img", "sales_by_hour.png"), paths.GetChartPath("sales_by_hour.png"))
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	paths := NewPaths(base, PathsConfig{})

	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.DataDir, paths.ReportsDir, paths.ChartsDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
