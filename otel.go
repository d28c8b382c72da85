package nutriroutine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/joeshaw/envdecode"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	TracerNameChat    = "nutriroutine-chat"
	TracerNameEngine  = "nutriroutine-engine"
	TracerNameBedrock = "bedrock-generator"
	TracerNameOllama  = "ollama-generator"
	MeterNameChat     = "nutriroutine-chat"
)

// OtelConfig describes the service to the collector. The exporters read the
// OTEL_EXPORTER_OTLP_* variables themselves.
type OtelConfig struct {
	ServiceVersion string        `env:"OTEL_SERVICE_VERSION,default=0.1.0"`
	ServiceName    string        `env:"OTEL_SERVICE_NAME,default=nutribot"`
	DeployEnv      string        `env:"OTEL_DEPLOY_ENV,default=development"`
	MetricInterval time.Duration `env:"OTEL_METRIC_EXPORT_INTERVAL_DURATION,default=30s"`
}

// Resource returns the attributes that identify this process in every span and metric.
func (c OtelConfig) Resource() *resource.Resource {
	return resource.NewSchemaless(
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.ServiceVersion),
		attribute.String("deployment.environment", c.DeployEnv),
	)
}

type otelShutdown func(ctx context.Context) error

// InitOtel wires OTLP gRPC exporters into global tracer and meter providers.
// Callers must invoke the returned shutdown func to flush pending telemetry.
func InitOtel(ctx context.Context) (*sdktrace.TracerProvider, *metric.MeterProvider, otelShutdown, error) {
	var cfg OtelConfig
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, nil, nil, err
	}

	res, err := resource.Merge(resource.Default(), cfg.Resource())
	if err != nil {
		return nil, nil, nil, err
	}

	traceExporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient())
	if err != nil {
		return nil, nil, nil, err
	}

	metricExporter, err := otlpmetricgrpc.New(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	meterProvider := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(metricExporter, metric.WithInterval(cfg.MetricInterval))),
		metric.WithResource(res),
	)

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)

	// W3C trace context and baggage so spans stitch across the Lambda boundary.
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	var once sync.Once
	shutdown := func(ctx context.Context) error {
		var err error
		once.Do(func() {
			err = errors.Join(
				tracerProvider.Shutdown(ctx),
				meterProvider.Shutdown(ctx),
			)
		})
		if err != nil && strings.Contains(err.Error(), "exporter is shutdown") {
			return nil
		}
		return err
	}

	return tracerProvider, meterProvider, shutdown, nil
}
