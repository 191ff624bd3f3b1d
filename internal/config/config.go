package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "FEATURES"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" envconfig:"MAX_BODY_BYTES" default:"33554432"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"20"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"10"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/features.log"`
}

// TelemetryConfig selects the OpenTelemetry exporters
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME" default:"feature-pipeline"`
	Environment    string `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
	TraceExporter  string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none"`
	MetricExporter string `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" default:"prometheus"`
}

// PathsConfig contains file system paths configuration. Relative paths are
// resolved against BaseDir, which defaults to the executable directory.
type PathsConfig struct {
	BaseDir   string `yaml:"base_dir" envconfig:"BASE_DIR"`
	ConfigDir string `yaml:"config_dir" envconfig:"CONFIG_DIR" default:"configs/organizations"`
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"data/features"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// PipelineConfig bounds a single feature engineering run
type PipelineConfig struct {
	Timeout  time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"5m"`
	MaxRows  int           `yaml:"max_rows" envconfig:"MAX_ROWS" default:"100000"`
	Parallel int           `yaml:"parallel" envconfig:"PARALLEL" default:"4"`
}

// Load reads configuration from FEATURES_* environment variables and an
// optional YAML file. Explicitly set environment variables win over the file,
// and the file wins over defaults.
func Load(configFile string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envSet reports whether FEATURES_<key> is present in the environment.
func envSet(key string) bool {
	_, ok := os.LookupEnv(EnvPrefix + "_" + key)
	return ok
}

func mergeString(dst *string, file, key string) {
	if file != "" && !envSet(key) {
		*dst = file
	}
}

func mergeInt(dst *int, file int, key string) {
	if file != 0 && !envSet(key) {
		*dst = file
	}
}

func mergeDuration(dst *time.Duration, file time.Duration, key string) {
	if file != 0 && !envSet(key) {
		*dst = file
	}
}

// mergeConfigs overlays non-zero file values onto envConfig unless the
// corresponding variable was set explicitly.
func mergeConfigs(fileConfig, envConfig Config) Config {
	s, fs := &envConfig.Server, fileConfig.Server
	mergeInt(&s.Port, fs.Port, "SERVER_PORT")
	mergeDuration(&s.ReadTimeout, fs.ReadTimeout, "SERVER_READ_TIMEOUT")
	mergeDuration(&s.WriteTimeout, fs.WriteTimeout, "SERVER_WRITE_TIMEOUT")
	mergeDuration(&s.IdleTimeout, fs.IdleTimeout, "SERVER_IDLE_TIMEOUT")
	mergeInt(&s.MaxHeaderBytes, fs.MaxHeaderBytes, "SERVER_MAX_HEADER_BYTES")
	if fs.MaxBodyBytes != 0 && !envSet("SERVER_MAX_BODY_BYTES") {
		s.MaxBodyBytes = fs.MaxBodyBytes
	}
	mergeDuration(&s.ShutdownTimeout, fs.ShutdownTimeout, "SERVER_SHUTDOWN_TIMEOUT")

	sec, fsec := &envConfig.Security, fileConfig.Security
	if len(fsec.AllowedOrigins) > 0 && !envSet("SECURITY_ALLOWED_ORIGINS") {
		sec.AllowedOrigins = fsec.AllowedOrigins
	}
	if fsec.RateLimit.RPS != 0 && !envSet("SECURITY_RATE_LIMIT_RPS") {
		sec.RateLimit.RPS = fsec.RateLimit.RPS
	}
	mergeInt(&sec.RateLimit.Burst, fsec.RateLimit.Burst, "SECURITY_RATE_LIMIT_BURST")

	l, fl := &envConfig.Logging, fileConfig.Logging
	mergeString(&l.Level, fl.Level, "LOGGING_LEVEL")
	mergeString(&l.Format, fl.Format, "LOGGING_FORMAT")
	mergeString(&l.Output, fl.Output, "LOGGING_OUTPUT")
	mergeString(&l.FilePath, fl.FilePath, "LOGGING_FILE_PATH")

	tel, ftel := &envConfig.Telemetry, fileConfig.Telemetry
	mergeString(&tel.ServiceName, ftel.ServiceName, "TELEMETRY_SERVICE_NAME")
	mergeString(&tel.Environment, ftel.Environment, "TELEMETRY_ENVIRONMENT")
	mergeString(&tel.TraceExporter, ftel.TraceExporter, "TELEMETRY_TRACE_EXPORTER")
	mergeString(&tel.MetricExporter, ftel.MetricExporter, "TELEMETRY_METRIC_EXPORTER")

	p, fp := &envConfig.Paths, fileConfig.Paths
	mergeString(&p.BaseDir, fp.BaseDir, "PATHS_BASE_DIR")
	mergeString(&p.ConfigDir, fp.ConfigDir, "PATHS_CONFIG_DIR")
	mergeString(&p.DataDir, fp.DataDir, "PATHS_DATA_DIR")
	mergeString(&p.OutputDir, fp.OutputDir, "PATHS_OUTPUT_DIR")
	mergeString(&p.LogsDir, fp.LogsDir, "PATHS_LOGS_DIR")

	pl, fpl := &envConfig.Pipeline, fileConfig.Pipeline
	mergeDuration(&pl.Timeout, fpl.Timeout, "PIPELINE_TIMEOUT")
	mergeInt(&pl.MaxRows, fpl.MaxRows, "PIPELINE_MAX_ROWS")
	mergeInt(&pl.Parallel, fpl.Parallel, "PIPELINE_PARALLEL")

	return envConfig
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
	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified when CORS is enabled")
	}
	if c.Pipeline.MaxRows <= 0 {
		return fmt.Errorf("pipeline max rows must be positive")
	}
	if c.Pipeline.Parallel <= 0 {
		c.Pipeline.Parallel = 1
	}

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output %q", c.Logging.Output)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		c.Logging.Format = "json"
	}

	switch c.Telemetry.TraceExporter {
	case "stdout", "none", "":
	default:
		return fmt.Errorf("unsupported trace exporter %q", c.Telemetry.TraceExporter)
	}
	switch c.Telemetry.MetricExporter {
	case "prometheus", "none", "":
	default:
		return fmt.Errorf("unsupported metric exporter %q", c.Telemetry.MetricExporter)
	}

	return nil
}

// findConfigFile returns the first config file found in the usual locations
func findConfigFile() string {
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

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			MaxBodyBytes:    32 << 20,
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   10,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/features.log",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "feature-pipeline",
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
		},
		Paths: PathsConfig{
			ConfigDir: "configs/organizations",
			DataDir:   "data",
			OutputDir: "data/features",
			LogsDir:   "logs",
		},
		Pipeline: PipelineConfig{
			Timeout:  5 * time.Minute,
			MaxRows:  100000,
			Parallel: 4,
		},
	}
}
