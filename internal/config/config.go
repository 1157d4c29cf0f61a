package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Input        InputConfig        `yaml:"input" envconfig:"INPUT"`
	Cleaning     CleaningConfig     `yaml:"cleaning" envconfig:"CLEANING"`
	Segmentation SegmentationConfig `yaml:"segmentation" envconfig:"SEGMENTATION"`
	Reporting    ReportingConfig    `yaml:"reporting" envconfig:"REPORTING"`
	Logging      LoggingConfig      `yaml:"logging" envconfig:"LOGGING"`
	Paths        PathsConfig        `yaml:"paths" envconfig:"PATHS"`
}

// InputConfig describes the transaction file to analyze
type InputConfig struct {
	File      string `yaml:"file" envconfig:"FILE"`
	Delimiter string `yaml:"delimiter" envconfig:"DELIMITER" default:","`
}

// CleaningConfig contains the content filters applied by the cleaning stage.
// Defaults match the known non-product codes and placeholder descriptions of
// the online retail dataset.
type CleaningConfig struct {
	ExcludedStockCodes   []string `yaml:"excluded_stock_codes" envconfig:"EXCLUDED_STOCK_CODES" default:"POST,BANK CHARGES,C2,DOT,M,AMAZONFEE,PADS,S,D"`
	ExcludedDescriptions []string `yaml:"excluded_descriptions" envconfig:"EXCLUDED_DESCRIPTIONS" default:"Next Day Carriage,High Resolution Image"`
}

// SegmentationConfig contains RFM and clustering configuration
type SegmentationConfig struct {
	Clusters      int   `yaml:"clusters" envconfig:"CLUSTERS" default:"4" validate:"min=1,max=20"`
	Seed          int64 `yaml:"seed" envconfig:"SEED" default:"42"`
	ElbowMaxK     int   `yaml:"elbow_max_k" envconfig:"ELBOW_MAX_K" default:"10" validate:"min=1"`
	MaxIterations int   `yaml:"max_iterations" envconfig:"MAX_ITERATIONS" default:"300" validate:"min=1"`
}

// ReportingConfig contains chart rendering configuration
type ReportingConfig struct {
	Enabled             bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	TopN                int     `yaml:"top_n" envconfig:"TOP_N" default:"10" validate:"min=1"`
	ReturnRateThreshold float64 `yaml:"return_rate_threshold" envconfig:"RETURN_RATE_THRESHOLD" default:"0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"text" validate:"oneof=text json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/analyzer.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	BaseDir   string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	ChartsDir string `yaml:"charts_dir" envconfig:"CHARTS_DIR" default:"img"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// Load loads configuration from environment variables and an optional YAML
// file. The layering is defaults < file < environment: the file only
// touches keys it names, and an explicitly set RETAIL_* variable always
// wins over the file.
func Load(configFile string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process("RETAIL", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			if err := loadFromFile(configFile, &cfg); err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
			applyEnvOverrides(&cfg)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile overlays a YAML file onto cfg. Keys absent from the file
// leave the existing values untouched.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides restores the values of explicitly set RETAIL_*
// variables after the file overlay, so the environment keeps precedence
// over the file for every field.
func applyEnvOverrides(cfg *Config) {
	var envCfg Config
	if err := envconfig.Process("RETAIL", &envCfg); err != nil {
		return
	}
	isSet := func(name string) bool {
		_, ok := os.LookupEnv(name)
		return ok
	}

	if isSet("RETAIL_INPUT_FILE") {
		cfg.Input.File = envCfg.Input.File
	}
	if isSet("RETAIL_INPUT_DELIMITER") {
		cfg.Input.Delimiter = envCfg.Input.Delimiter
	}
	if isSet("RETAIL_CLEANING_EXCLUDED_STOCK_CODES") {
		cfg.Cleaning.ExcludedStockCodes = envCfg.Cleaning.ExcludedStockCodes
	}
	if isSet("RETAIL_CLEANING_EXCLUDED_DESCRIPTIONS") {
		cfg.Cleaning.ExcludedDescriptions = envCfg.Cleaning.ExcludedDescriptions
	}
	if isSet("RETAIL_SEGMENTATION_CLUSTERS") {
		cfg.Segmentation.Clusters = envCfg.Segmentation.Clusters
	}
	if isSet("RETAIL_SEGMENTATION_SEED") {
		cfg.Segmentation.Seed = envCfg.Segmentation.Seed
	}
	if isSet("RETAIL_SEGMENTATION_ELBOW_MAX_K") {
		cfg.Segmentation.ElbowMaxK = envCfg.Segmentation.ElbowMaxK
	}
	if isSet("RETAIL_SEGMENTATION_MAX_ITERATIONS") {
		cfg.Segmentation.MaxIterations = envCfg.Segmentation.MaxIterations
	}
	if isSet("RETAIL_REPORTING_ENABLED") {
		cfg.Reporting.Enabled = envCfg.Reporting.Enabled
	}
	if isSet("RETAIL_REPORTING_TOP_N") {
		cfg.Reporting.TopN = envCfg.Reporting.TopN
	}
	if isSet("RETAIL_REPORTING_RETURN_RATE_THRESHOLD") {
		cfg.Reporting.ReturnRateThreshold = envCfg.Reporting.ReturnRateThreshold
	}
	if isSet("RETAIL_LOGGING_LEVEL") {
		cfg.Logging.Level = envCfg.Logging.Level
	}
	if isSet("RETAIL_LOGGING_FORMAT") {
		cfg.Logging.Format = envCfg.Logging.Format
	}
	if isSet("RETAIL_LOGGING_OUTPUT") {
		cfg.Logging.Output = envCfg.Logging.Output
	}
	if isSet("RETAIL_LOGGING_FILE_PATH") {
		cfg.Logging.FilePath = envCfg.Logging.FilePath
	}
	if isSet("RETAIL_PATHS_BASE_DIR") {
		cfg.Paths.BaseDir = envCfg.Paths.BaseDir
	}
	if isSet("RETAIL_PATHS_DATA_DIR") {
		cfg.Paths.DataDir = envCfg.Paths.DataDir
	}
	if isSet("RETAIL_PATHS_CHARTS_DIR") {
		cfg.Paths.ChartsDir = envCfg.Paths.ChartsDir
	}
	if isSet("RETAIL_PATHS_LOGS_DIR") {
		cfg.Paths.LogsDir = envCfg.Paths.LogsDir
	}
}

// Validate checks the configuration against the struct-level constraints
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ResolvePaths builds the Paths value for this configuration. An explicit
// base directory wins over the executable-relative default.
func (c *Config) ResolvePaths() (*Paths, error) {
	if c.Paths.BaseDir != "" {
		return NewPaths(c.Paths.BaseDir, c.Paths), nil
	}
	return GetPaths(c.Paths)
}

// GetLogPath returns the resolved log file path for the configured output
func (c *Config) GetLogPath(paths *Paths) string {
	if filepath.IsAbs(c.Logging.FilePath) {
		return c.Logging.FilePath
	}
	return filepath.Join(paths.BaseDir, c.Logging.FilePath)
}
