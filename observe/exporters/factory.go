// Package exporters constructs OpenTelemetry span exporters and metric
// readers from exporter names. Endpoint discovery follows the standard
// OTEL_EXPORTER_* environment variables.
package exporters

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// otlpEndpoint resolves the collector endpoint for a signal, preferring the
// shared OTEL_EXPORTER_OTLP_ENDPOINT and falling back to the signal-specific
// variable (e.g. OTEL_EXPORTER_OTLP_TRACES_ENDPOINT).
func otlpEndpoint(signal string) (string, error) {
	specific := "OTEL_EXPORTER_OTLP_" + signal + "_ENDPOINT"
	if ep := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); ep != "" {
		return ep, nil
	}
	if ep := os.Getenv(specific); ep != "" {
		return ep, nil
	}
	return "", fmt.Errorf("OTLP endpoint not configured: set OTEL_EXPORTER_OTLP_ENDPOINT or %s", specific)
}

// NewTracingExporter creates a span exporter for the named backend.
// Supported names: otlp, stdout, none (and "" as an alias for none).
func NewTracingExporter(ctx context.Context, name string) (sdktrace.SpanExporter, error) {
	switch name {
	case "otlp":
		if _, err := otlpEndpoint("TRACES"); err != nil {
			return nil, err
		}
		return otlptracegrpc.New(ctx)

	case "stdout":
		return stdouttrace.New(stdouttrace.WithWriter(os.Stdout))

	case "none", "":
		// A discard-writer exporter keeps the SDK pipeline wiring uniform.
		return stdouttrace.New(stdouttrace.WithWriter(io.Discard))

	default:
		return nil, fmt.Errorf("unknown tracing exporter: %q", name)
	}
}

// NewMetricsReader creates a metric reader for the named backend.
// Supported names: otlp, prometheus, stdout, none (and "" as an alias
// for none). Push-based exporters are wrapped in a periodic reader;
// prometheus is pull-based and returned as-is.
func NewMetricsReader(ctx context.Context, name string) (sdkmetric.Reader, error) {
	switch name {
	case "otlp":
		if _, err := otlpEndpoint("METRICS"); err != nil {
			return nil, err
		}
		exp, err := otlpmetricgrpc.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil

	case "prometheus":
		return prometheus.New()

	case "stdout":
		return periodicStdoutReader(os.Stdout)

	case "none", "":
		return periodicStdoutReader(io.Discard)

	default:
		return nil, fmt.Errorf("unknown metrics exporter: %q", name)
	}
}

func periodicStdoutReader(w io.Writer) (sdkmetric.Reader, error) {
	exp, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout metrics exporter: %w", err)
	}
	return sdkmetric.NewPeriodicReader(exp), nil
}
