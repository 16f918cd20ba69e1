// Package observability wires OpenTelemetry trace export into Genkit's
// tracer provider. Every model invocation Genkit runs produces spans; this
// package ships them to an OTLP HTTP collector.
//
// Tracing is opt-in. Without a collector endpoint the setup is a no-op, the
// application never requires a tracing backend to function.
package observability

import (
	"context"
	"os"

	"github.com/firebase/genkit/go/core/tracing"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/happytree/happytree/internal/log"
)

// Config for trace export.
type Config struct {
	// Endpoint is the OTLP HTTP collector address as host:port.
	// Empty disables tracing.
	Endpoint string

	// Environment is the deployment environment tag (dev, staging, prod).
	Environment string

	// ServiceName is the service name shown in the tracing backend.
	ServiceName string

	Logger log.Logger
}

// Setup registers an OTLP exporter with Genkit's TracerProvider.
//
// Returns a shutdown function that flushes pending spans. Export problems
// degrade gracefully: a collector that cannot be reached never takes the
// application down.
func Setup(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	if cfg.Endpoint == "" {
		logger.Debug("tracing disabled, no collector endpoint configured")
		return noop, nil
	}

	// Genkit's TracerProvider reads these when building its resource, so
	// they must be set before spans are created.
	if cfg.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName)
	}
	if cfg.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+cfg.Environment)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(), // local collectors speak plain HTTP
	)
	if err != nil {
		logger.Warn("creating trace exporter failed, tracing disabled", "error", err)
		return noop, nil
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	logger.Debug("tracing enabled",
		"endpoint", cfg.Endpoint,
		"service", cfg.ServiceName,
		"environment", cfg.Environment,
	)

	return tracing.TracerProvider().Shutdown, nil
}
