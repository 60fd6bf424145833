package instrumentation

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Exporter names accepted by Config.
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// Outcome label values shared by the metric recorders.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusUnknown = "unknown"
)

// Session lifecycle result values. "expired" marks a refresh the backend
// rejected, which also purges the persisted session record.
const (
	SessionResultSuccess = "success"
	SessionResultFailure = "failure"
	SessionResultExpired = "expired"
)

// DefaultMetricInterval is the push interval for periodic metric readers.
const DefaultMetricInterval = 10 * time.Second

// Config controls the gateway's OpenTelemetry setup. Every field has an
// environment-variable counterpart read by DefaultConfig, so deployments can
// tune telemetry without flags.
type Config struct {
	// ServiceName identifies the gateway in telemetry backends
	// (default: trestle-mcp, env OTEL_SERVICE_NAME).
	ServiceName string

	// ServiceVersion is stamped onto every metric and span.
	ServiceVersion string

	// ServiceInstanceID distinguishes replicas; defaults to the hostname,
	// which under Kubernetes is the pod name.
	ServiceInstanceID string

	// K8sNamespace and K8sPodName are attached as resource attributes when
	// the deployment environment provides them.
	K8sNamespace string
	K8sPodName   string

	// Enabled turns all metrics and tracing on or off
	// (default: true, env INSTRUMENTATION_ENABLED).
	Enabled bool

	// MetricsExporter selects prometheus, otlp, or stdout
	// (default: prometheus).
	MetricsExporter string

	// TracingExporter selects otlp, stdout, or none (default: none).
	TracingExporter string

	// OTLPEndpoint is the collector host:port, without a scheme. Required
	// whenever either exporter is set to otlp.
	OTLPEndpoint string

	// OTLPInsecure exports over plaintext HTTP. Local collectors only:
	// spans carry backend paths and anonymized identities.
	OTLPInsecure bool

	// TraceSamplingRate is the head sampling ratio, 0.0 to 1.0
	// (default: 0.1, env OTEL_TRACES_SAMPLER_ARG).
	TraceSamplingRate float64

	// PrometheusEndpoint is the scrape path on the metrics server
	// (default: /metrics).
	PrometheusEndpoint string

	// DetailedLabels adds high-cardinality labels such as per-user
	// identifiers. Keep off in production; the cardinality caps in
	// cardinality.go bound the damage when it is on.
	DetailedLabels bool

	// AuditLogging configures the authentication/tool audit trail.
	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig controls the audit trail emitted for tool invocations
// and session lifecycle events.
type AuditLoggingConfig struct {
	// Enabled turns audit records on (default: true).
	Enabled bool

	// IncludePII logs full login emails instead of anonymized hashes.
	// Off by default; enable only when the log destination is access
	// controlled and compliance requires real identities.
	IncludePII bool

	// LogLevel is the slog level audit records are emitted at
	// (default: info).
	LogLevel string
}

// DefaultConfig builds a Config from environment variables, falling back to
// production-safe defaults: prometheus metrics, no tracing, no PII.
func DefaultConfig() Config {
	return Config{
		ServiceName:        getEnvOrDefault("OTEL_SERVICE_NAME", "trestle-mcp"),
		ServiceVersion:     "unknown",
		ServiceInstanceID:  getEnvOrDefault("OTEL_SERVICE_INSTANCE_ID", ""),
		K8sNamespace:       getEnvOrDefault("K8S_NAMESPACE", getEnvOrDefault("POD_NAMESPACE", "")),
		K8sPodName:         getEnvOrDefault("K8S_POD_NAME", getEnvOrDefault("HOSTNAME", "")),
		Enabled:            getEnvBoolOrDefault("INSTRUMENTATION_ENABLED", true),
		MetricsExporter:    getEnvOrDefault("METRICS_EXPORTER", ExporterPrometheus),
		TracingExporter:    getEnvOrDefault("TRACING_EXPORTER", ExporterNone),
		OTLPEndpoint:       getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:       getEnvBoolOrDefault("OTEL_EXPORTER_OTLP_INSECURE", false),
		TraceSamplingRate:  getEnvFloatOrDefault("OTEL_TRACES_SAMPLER_ARG", 0.1),
		PrometheusEndpoint: getEnvOrDefault("PROMETHEUS_ENDPOINT", "/metrics"),
		DetailedLabels:     getEnvBoolOrDefault("METRICS_DETAILED_LABELS", false),
		AuditLogging: AuditLoggingConfig{
			Enabled:    getEnvBoolOrDefault("AUDIT_LOGGING_ENABLED", true),
			IncludePII: getEnvBoolOrDefault("AUDIT_LOGGING_INCLUDE_PII", false),
			LogLevel:   getEnvOrDefault("AUDIT_LOGGING_LEVEL", "info"),
		},
	}
}

// Validate reports configuration combinations NewProvider would reject.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}

	switch c.MetricsExporter {
	case "", ExporterPrometheus, ExporterOTLP, ExporterStdout:
	default:
		return fmt.Errorf("invalid metrics exporter %q, must be one of: %s, %s, %s",
			c.MetricsExporter, ExporterPrometheus, ExporterOTLP, ExporterStdout)
	}

	switch c.TracingExporter {
	case "", ExporterOTLP, ExporterStdout, ExporterNone:
	default:
		return fmt.Errorf("invalid tracing exporter %q, must be one of: %s, %s, %s",
			c.TracingExporter, ExporterOTLP, ExporterStdout, ExporterNone)
	}

	if c.OTLPEndpoint == "" {
		if c.TracingExporter == ExporterOTLP {
			return fmt.Errorf("OTLP endpoint is required when using OTLP tracing exporter")
		}
		if c.MetricsExporter == ExporterOTLP {
			return fmt.Errorf("OTLP endpoint is required when using OTLP metrics exporter")
		}
	}

	return nil
}

// Empty environment values read as unset for all three helpers.

func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBoolOrDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloatOrDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
