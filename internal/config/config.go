package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Metrics  MetricsConfig  `yaml:"metrics" envconfig:"METRICS"`
}

// AnalysisConfig contains the correlation analysis policy
type AnalysisConfig struct {
	MinOverlap     int           `yaml:"min_overlap" envconfig:"MIN_OVERLAP"`
	TopK           int           `yaml:"top_k" envconfig:"TOP_K"`
	MaxConcurrency int           `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY"`
	FetchRateLimit float64       `yaml:"fetch_rate_limit" envconfig:"FETCH_RATE_LIMIT"`
	FetchBurst     int           `yaml:"fetch_burst" envconfig:"FETCH_BURST"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT"`
	PairDateFrom   string        `yaml:"pair_date_from" envconfig:"PAIR_DATE_FROM"`
	PairDateTo     string        `yaml:"pair_date_to" envconfig:"PAIR_DATE_TO"`
	MatrixDateFrom string        `yaml:"matrix_date_from" envconfig:"MATRIX_DATE_FROM"`
	MatrixDateTo   string        `yaml:"matrix_date_to" envconfig:"MATRIX_DATE_TO"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// MetricsConfig contains observability configuration
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled" envconfig:"ENABLED"`
	ListenAddr    string `yaml:"listen_addr" envconfig:"LISTEN_ADDR"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
}

// Load loads configuration in increasing precedence: built-in defaults, then
// an optional YAML file from a well known location, then CORRLENS_*
// environment variables.
func Load() (*Config, error) {
	return load(findConfigFile())
}

// LoadFromFile is Load with an explicit YAML file path
func LoadFromFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return load(path)
}

func load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configFile, err)
		}
	}

	if err := envconfig.Process("CORRLENS", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg; keys absent from the file
// leave the existing values untouched
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// findConfigFile returns the first config file found in the well known
// locations, or empty when none exists
func findConfigFile() string {
	locations := []string{
		"corrlens.yaml",
		"configs/corrlens.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// validate checks analysis policy bounds and normalizes the logging and
// paths sections
func (c *Config) validate() error {
	if c.Analysis.MinOverlap < 2 {
		return fmt.Errorf("analysis min_overlap must be at least 2, got %d", c.Analysis.MinOverlap)
	}
	if c.Analysis.TopK < MinTopK || c.Analysis.TopK > MaxTopK {
		return fmt.Errorf("analysis top_k must be between %d and %d, got %d", MinTopK, MaxTopK, c.Analysis.TopK)
	}
	if c.Analysis.MaxConcurrency < 1 {
		return fmt.Errorf("analysis max_concurrency must be positive, got %d", c.Analysis.MaxConcurrency)
	}
	if c.Analysis.FetchRateLimit < 0 {
		return fmt.Errorf("analysis fetch_rate_limit must not be negative, got %g", c.Analysis.FetchRateLimit)
	}
	if c.Analysis.FetchBurst < 1 {
		return fmt.Errorf("analysis fetch_burst must be positive, got %d", c.Analysis.FetchBurst)
	}
	if c.Analysis.FetchTimeout <= 0 {
		return fmt.Errorf("analysis fetch_timeout must be positive, got %s", c.Analysis.FetchTimeout)
	}

	if _, _, err := c.Analysis.PairWindow(); err != nil {
		return fmt.Errorf("invalid pair date window: %w", err)
	}
	if _, _, err := c.Analysis.MatrixWindow(); err != nil {
		return fmt.Errorf("invalid matrix date window: %w", err)
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = DefaultLogFormat
	}
	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "file"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = filepath.Join(DefaultLogsDir, "corrlens.log")
	}

	if c.Paths.DataDir == "" {
		c.Paths.DataDir = DefaultDataDir
	}
	if c.Paths.ReportsDir == "" {
		c.Paths.ReportsDir = DefaultReportsDir
	}
	if c.Paths.LogsDir == "" {
		c.Paths.LogsDir = DefaultLogsDir
	}

	return nil
}

// PairWindow returns the default trade date range for two-ticker analyses
func (c AnalysisConfig) PairWindow() (time.Time, time.Time, error) {
	return parseWindow(c.PairDateFrom, c.PairDateTo)
}

// MatrixWindow returns the default trade date range for matrix analyses
func (c AnalysisConfig) MatrixWindow() (time.Time, time.Time, error) {
	return parseWindow(c.MatrixDateFrom, c.MatrixDateTo)
}

func parseWindow(from, to string) (time.Time, time.Time, error) {
	f, err := time.Parse("2006-01-02", from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid from date %q: %w", from, err)
	}
	t, err := time.Parse("2006-01-02", to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid to date %q: %w", to, err)
	}
	if f.After(t) {
		return time.Time{}, time.Time{}, fmt.Errorf("from date %s is after to date %s", from, to)
	}
	return f, t, nil
}

// GetDataDir returns the resolved data directory path
func (c *Config) GetDataDir() string {
	return resolveDir(c.Paths.DataDir)
}

// GetReportsDir returns the resolved reports directory path
func (c *Config) GetReportsDir() string {
	return resolveDir(c.Paths.ReportsDir)
}

// GetLogsDir returns the resolved logs directory path
func (c *Config) GetLogsDir() string {
	return resolveDir(c.Paths.LogsDir)
}

// EnsureDirectories creates the writable directories if they do not exist
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.GetReportsDir(), c.GetLogsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func resolveDir(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			MinOverlap:     2,
			TopK:           5,
			MaxConcurrency: 4,
			FetchRateLimit: DefaultFetchRateRPS,
			FetchBurst:     DefaultFetchBurst,
			FetchTimeout:   DefaultFetchTimeout,
			PairDateFrom:   "2021-01-01",
			PairDateTo:     "2025-12-31",
			MatrixDateFrom: "2025-01-01",
			MatrixDateTo:   "2025-12-31",
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "file",
			FilePath: filepath.Join(DefaultLogsDir, "corrlens.log"),
		},
		Paths: PathsConfig{
			DataDir:    DefaultDataDir,
			ReportsDir: DefaultReportsDir,
			LogsDir:    DefaultLogsDir,
		},
		Metrics: MetricsConfig{
			Enabled:       false,
			ListenAddr:    ":9090",
			TraceExporter: "none",
		},
	}
}
