package cmd

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/letsencrypt/certval/core"
	blog "github.com/letsencrypt/certval/log"
)

// OpenTelemetryConfig configures tracing.
type OpenTelemetryConfig struct {
	// Endpoint is the host:port of an OTLP collector reached over gRPC. When
	// empty, traces are sampled but never exported.
	Endpoint string `yaml:"endpoint" validate:"omitempty,hostname_port"`
	// SampleRatio is the ratio of new traces to head sample. Traces whose
	// parent was sampled are always sampled.
	SampleRatio float64 `yaml:"sampleRatio" validate:"min=0,max=1"`
}

// NewOpenTelemetry installs a global tracer provider and propagator for conf
// and returns a function that flushes and shuts the provider down.
func NewOpenTelemetry(conf OpenTelemetryConfig, logger blog.Logger) func(ctx context.Context) {
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) { logger.Errf("OpenTelemetry error: %v", err) }))

	resources := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(core.Command()),
		semconv.ProcessPID(os.Getpid()),
	)

	opts := []trace.TracerProviderOption{
		trace.WithResource(resources),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(conf.SampleRatio))),
	}
	if conf.Endpoint != "" {
		exporter, err := otlptracegrpc.New(
			context.Background(),
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithEndpoint(conf.Endpoint))
		FailOnError(err, "Could not create OpenTelemetry OTLP exporter")
		opts = append(opts, trace.WithBatcher(exporter))
	}

	tracerProvider := trace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		err := tracerProvider.Shutdown(ctx)
		if err != nil {
			logger.Errf("Error while shutting down OpenTelemetry: %v", err)
		}
	}
}
