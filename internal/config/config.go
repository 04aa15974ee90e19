package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Security   SecurityConfig   `yaml:"security" envconfig:"SECURITY"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Upload     UploadConfig     `yaml:"upload" envconfig:"UPLOAD"`
	Export     ExportConfig     `yaml:"export" envconfig:"EXPORT"`
	Storage    StorageConfig    `yaml:"storage" envconfig:"STORAGE"`
	Processing ProcessingConfig `yaml:"processing" envconfig:"PROCESSING"`
	Vocabulary VocabularyConfig `yaml:"vocabulary" envconfig:"VOCABULARY"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// Address returns the listen address.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// UploadConfig limits what the transform endpoint accepts.
type UploadConfig struct {
	MaxBytes   int64    `yaml:"max_bytes" envconfig:"MAX_BYTES"`
	Extensions []string `yaml:"extensions" envconfig:"EXTENSIONS"`
	SheetName  string   `yaml:"sheet_name" envconfig:"SHEET_NAME"`
}

// ExportConfig controls the generated outputs.
type ExportConfig struct {
	CSVBOM      bool   `yaml:"csv_bom" envconfig:"CSV_BOM"`
	SheetName   string `yaml:"sheet_name" envconfig:"SHEET_NAME"`
	PreviewRows int    `yaml:"preview_rows" envconfig:"PREVIEW_ROWS"`
	StatColumns int    `yaml:"stat_columns" envconfig:"STAT_COLUMNS"`
}

// StorageConfig contains the download store settings.
type StorageConfig struct {
	DownloadsDir    string        `yaml:"downloads_dir" envconfig:"DOWNLOADS_DIR"`
	TTL             time.Duration `yaml:"ttl" envconfig:"TTL"`
	JanitorInterval time.Duration `yaml:"janitor_interval" envconfig:"JANITOR_INTERVAL"`
}

// ProcessingConfig bounds transform concurrency.
type ProcessingConfig struct {
	MaxConcurrent int64         `yaml:"max_concurrent" envconfig:"MAX_CONCURRENT"`
	Timeout       time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// VocabularyConfig overrides the ordered labels of each key level. Empty
// lists keep the built-in order.
type VocabularyConfig struct {
	Timepoints []string `yaml:"timepoints" envconfig:"TIMEPOINTS"`
	Objects    []string `yaml:"objects" envconfig:"OBJECTS"`
	Series     []string `yaml:"series" envconfig:"SERIES"`
}

// TelemetryConfig contains OpenTelemetry settings.
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	EnableTracing  bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	EnableMetrics  bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// Load builds the configuration from defaults, then the YAML file (if one is
// found), then RADIOMICS_* environment variables, each overriding the last.
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load with an explicit config file path. An empty path skips the
// file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg. Keys missing from the file keep
// their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload max bytes must be positive")
	}

	if len(c.Upload.Extensions) == 0 {
		return fmt.Errorf("at least one upload extension must be allowed")
	}
	for i, ext := range c.Upload.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Upload.Extensions[i] = ext
	}

	if c.Storage.DownloadsDir == "" {
		return fmt.Errorf("downloads directory is required")
	}

	if c.Processing.MaxConcurrent <= 0 {
		return fmt.Errorf("processing max concurrent must be positive")
	}

	if c.Export.PreviewRows < 0 {
		return fmt.Errorf("preview rows must not be negative")
	}

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}

	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    3 * time.Minute,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  DefaultRequestTimeout,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Upload: UploadConfig{
			MaxBytes:   DefaultMaxUploadBytes,
			Extensions: []string{".xlsx", ".xls"},
			SheetName:  DefaultInputSheet,
		},
		Export: ExportConfig{
			CSVBOM:      false,
			SheetName:   DefaultOutputSheet,
			PreviewRows: DefaultPreviewRows,
			StatColumns: DefaultStatColumns,
		},
		Storage: StorageConfig{
			DownloadsDir:    DefaultDownloadsDir,
			TTL:             DefaultDownloadTTL,
			JanitorInterval: DefaultJanitorInterval,
		},
		Processing: ProcessingConfig{
			MaxConcurrent: DefaultMaxConcurrent,
			Timeout:       DefaultProcessingTimeout,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			Environment:    "development",
			EnableTracing:  false,
			EnableMetrics:  true,
			TraceExporter:  "stdout",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
