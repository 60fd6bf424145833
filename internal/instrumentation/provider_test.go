package instrumentation

import (
	"context"
	"testing"
	"time"
)

func testProviderConfig(metricsExporter, tracingExporter string) Config {
	return Config{
		ServiceName:     "trestle-mcp-test",
		ServiceVersion:  "0.0.0",
		Enabled:         true,
		MetricsExporter: metricsExporter,
		TracingExporter: tracingExporter,
	}
}

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		ServiceName: "trestle-mcp-test",
		Enabled:     false,
	})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	if provider.Enabled() {
		t.Error("disabled config produced an enabled provider")
	}
	if provider.Metrics() == nil {
		t.Error("disabled provider must still hand out a no-op metrics recorder")
	}
	if provider.Tracer("session") == nil {
		t.Error("disabled provider must still hand out a no-op tracer")
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown of a disabled provider: %v", err)
	}
}

func TestNewProvider_Prometheus(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, testProviderConfig(ExporterPrometheus, ExporterNone))
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	if !provider.Enabled() {
		t.Error("provider not enabled")
	}
	if provider.Metrics() == nil {
		t.Error("metrics recorder is nil")
	}
	if provider.PrometheusHandler() == nil {
		t.Error("prometheus exporter selected but PrometheusHandler is nil")
	}
	if provider.Tracer("backend") == nil {
		t.Error("tracer is nil")
	}
}

func TestNewProvider_StdoutHasNoPrometheusHandler(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, testProviderConfig(ExporterStdout, ExporterStdout))
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	if provider.PrometheusHandler() != nil {
		t.Error("PrometheusHandler must be nil when the stdout exporter is selected")
	}
}

func TestNewProvider_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{
			name:   "unknown metrics exporter",
			config: testProviderConfig("graphite", ExporterNone),
		},
		{
			name:   "unknown tracing exporter",
			config: testProviderConfig(ExporterPrometheus, "jaeger"),
		},
		{
			name:   "otlp tracing without endpoint",
			config: testProviderConfig(ExporterPrometheus, ExporterOTLP),
		},
		{
			name:   "otlp metrics without endpoint",
			config: testProviderConfig(ExporterOTLP, ExporterNone),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if _, err := NewProvider(ctx, tt.config); err == nil {
				t.Error("expected NewProvider to fail")
			}
		})
	}
}

func TestProvider_Shutdown(t *testing.T) {
	ctx := context.Background()
	provider, err := NewProvider(ctx, testProviderConfig(ExporterPrometheus, ExporterNone))
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	if err := provider.Shutdown(ctx); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}
