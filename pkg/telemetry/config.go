package telemetry

import (
	"fmt"
	"time"
)

// Config contains the telemetry configuration for the alignment engine.
type Config struct {
	// ServiceName is the name of the service for telemetry identification.
	ServiceName string

	// ServiceVersion is the version of the service.
	ServiceVersion string

	// Environment specifies the deployment environment (dev, staging, prod).
	Environment string

	// Logging contains logging configuration.
	Logging LoggingConfig

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig

	// Events contains event delivery configuration.
	Events EventsConfig
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level sets the minimum log level (trace, debug, info, warn, error, fatal).
	Level string

	// Format specifies the log format (console, json).
	Format string

	// Output specifies where logs are written (stdout, stderr, file path).
	Output string

	// EnableCaller adds file:line caller information to logs.
	EnableCaller bool

	// TimeFormat specifies the timestamp format (unix, rfc3339).
	TimeFormat string
}

// TracingConfig configures distributed tracing.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	Enabled bool

	// Exporter specifies the trace exporter (otlp, stdout, none).
	Exporter string

	// Endpoint is the OTLP collector endpoint.
	Endpoint string

	// SamplingRate is the trace sampling rate (0.0 to 1.0).
	SamplingRate float64

	// MaxExportBatchSize is the maximum batch size for export.
	MaxExportBatchSize int

	// ExportTimeout is the timeout for trace export.
	ExportTimeout time.Duration

	// Headers are additional headers for the OTLP exporter.
	Headers map[string]string

	// Insecure disables TLS for the exporter connection.
	Insecure bool
}

// MetricsConfig configures metrics collection.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool

	// ListenAddress is the address for the metrics HTTP endpoint.
	ListenAddress string

	// Path is the HTTP path for metrics (default: /metrics).
	Path string

	// Namespace is the metrics namespace prefix.
	Namespace string

	// AngleErrorBuckets are the histogram buckets for angular error, in radians.
	AngleErrorBuckets []float64

	// DurationBuckets are the histogram buckets for durations, in seconds.
	DurationBuckets []float64
}

// EventsConfig configures the solver event bus.
type EventsConfig struct {
	// Enabled controls whether event delivery is active.
	Enabled bool

	// BufferSize is the size of the asynchronous event buffer.
	BufferSize int

	// EnableAsync delivers events on a background goroutine instead of
	// inline on the solver loop.
	EnableAsync bool
}

// DefaultConfig returns a default telemetry configuration.
func DefaultConfig() *Config {
	return &Config{
		ServiceName:    "openalign",
		ServiceVersion: "dev",
		Environment:    "development",
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			Output:       "stderr",
			EnableCaller: false,
			TimeFormat:   "rfc3339",
		},
		Tracing: TracingConfig{
			Enabled:            false,
			Exporter:           "stdout",
			SamplingRate:       1.0,
			MaxExportBatchSize: 512,
			ExportTimeout:      30 * time.Second,
			Headers:            make(map[string]string),
			Insecure:           true,
		},
		Metrics: MetricsConfig{
			Enabled:       false,
			ListenAddress: ":9090",
			Path:          "/metrics",
			Namespace:     "openalign",
			AngleErrorBuckets: []float64{
				1e-5, 1e-4, 1e-3, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 3.2,
			},
			DurationBuckets: []float64{
				0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0,
			},
		},
		Events: EventsConfig{
			Enabled:     true,
			BufferSize:  1024,
			EnableAsync: false,
		},
	}
}

// ProductionConfig returns a production-optimized telemetry configuration.
func ProductionConfig() *Config {
	cfg := DefaultConfig()
	cfg.Environment = "production"
	cfg.Logging.Format = "json"
	cfg.Logging.TimeFormat = "unix"
	cfg.Tracing.Enabled = true
	cfg.Tracing.Exporter = "otlp"
	cfg.Tracing.SamplingRate = 0.1
	cfg.Tracing.Insecure = false
	cfg.Metrics.Enabled = true
	cfg.Events.EnableAsync = true
	return cfg
}

// DevelopmentConfig returns a development-optimized telemetry configuration.
func DevelopmentConfig() *Config {
	cfg := DefaultConfig()
	cfg.Logging.Level = "debug"
	cfg.Logging.EnableCaller = true
	cfg.Tracing.Enabled = true
	cfg.Tracing.Exporter = "stdout"
	return cfg
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}
	if c.ServiceVersion == "" {
		return fmt.Errorf("service version is required")
	}

	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'console' or 'json')", c.Logging.Format)
	}

	validExporters := map[string]bool{"otlp": true, "stdout": true, "none": true}
	if c.Tracing.Enabled && !validExporters[c.Tracing.Exporter] {
		return fmt.Errorf("invalid trace exporter: %s", c.Tracing.Exporter)
	}
	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0 and 1, got: %f", c.Tracing.SamplingRate)
	}
	if c.Tracing.Enabled && c.Tracing.Exporter == "otlp" && c.Tracing.Endpoint == "" {
		return fmt.Errorf("otlp exporter requires an endpoint")
	}

	if c.Metrics.Enabled && c.Metrics.ListenAddress == "" {
		return fmt.Errorf("metrics listen address is required when metrics are enabled")
	}

	if c.Events.Enabled && c.Events.EnableAsync && c.Events.BufferSize <= 0 {
		return fmt.Errorf("event buffer size must be positive, got: %d", c.Events.BufferSize)
	}

	return nil
}
