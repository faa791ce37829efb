package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Config configures the OpenTelemetry providers.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string        // gRPC collector, e.g. "localhost:4317"
	SampleRate     float64       // 0.0 to 1.0
	BatchTimeout   time.Duration // span batch flush interval
	MetricInterval time.Duration // metric export interval
	Enabled        bool
	Insecure       bool // plaintext gRPC, dev only
	// SnapshotBackend is recorded as a resource attribute.
	SnapshotBackend string
}

// DefaultConfig returns local defaults. Export is off until OTEL_ENABLED is set.
func DefaultConfig() *Config {
	return &Config{
		ServiceName:    "apex-coach",
		ServiceVersion: "1.0.0",
		Environment:    "development",
		OTLPEndpoint:   "localhost:4317",
		SampleRate:     1.0,
		BatchTimeout:   5 * time.Second,
		MetricInterval: 15 * time.Second,
		Enabled:        false,
		Insecure:       true,
	}
}

// Provider owns the tracer and meter used by the coaching engine. A
// Provider built with Enabled=false records nothing.
type Provider struct {
	config         *Config
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	tracer         trace.Tracer
	meter          metric.Meter
	logger         *slog.Logger

	operations   metric.Int64Counter
	failures     metric.Int64Counter
	latency      metric.Float64Histogram
	inFlight     metric.Int64UpDownCounter
	decisions    metric.Int64Counter
	cacheLookups metric.Int64Counter
	auditPending metric.Int64Counter
}

// New creates a provider exporting over OTLP gRPC when config.Enabled.
func New(ctx context.Context, config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig()
	}
	logger := slog.Default().With("component", "observability")

	if !config.Enabled {
		logger.InfoContext(ctx, "observability disabled")
		return &Provider{config: config, logger: logger}, nil
	}

	res, err := newResource(config)
	if err != nil {
		return nil, err
	}

	spanExporter, err := otlptracegrpc.New(ctx, traceExporterOptions(config)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	metricExporter, err := otlpmetricgrpc.New(ctx, metricExporterOptions(config)...)
	if err != nil {
		_ = spanExporter.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	interval := config.MetricInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(spanExporter, sdktrace.WithBatchTimeout(config.BatchTimeout)),
		sdktrace.WithSampler(samplerFor(config.SampleRate)),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(interval))),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	p, err := newWithProviders(config, tp, mp)
	if err != nil {
		return nil, err
	}
	p.logger.InfoContext(ctx, "observability initialized",
		"service", config.ServiceName,
		"environment", config.Environment,
		"endpoint", config.OTLPEndpoint,
		"sample_rate", config.SampleRate,
		"insecure", config.Insecure,
	)
	return p, nil
}

// newWithProviders builds an enabled provider over existing SDK providers.
// Tests use it with in-memory readers.
func newWithProviders(config *Config, tp *sdktrace.TracerProvider, mp *sdkmetric.MeterProvider) (*Provider, error) {
	p := &Provider{
		config:         config,
		tracerProvider: tp,
		meterProvider:  mp,
		tracer:         tp.Tracer(instrumentationName, trace.WithInstrumentationVersion(config.ServiceVersion)),
		meter:          mp.Meter(instrumentationName, metric.WithInstrumentationVersion(config.ServiceVersion)),
		logger:         slog.Default().With("component", "observability"),
	}
	if err := p.registerInstruments(); err != nil {
		return nil, fmt.Errorf("failed to register instruments: %w", err)
	}
	return p, nil
}

func newResource(config *Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(config.ServiceName),
		semconv.ServiceVersion(config.ServiceVersion),
		semconv.DeploymentEnvironment(config.Environment),
		attribute.String("apex.component", "coach"),
	}
	if config.SnapshotBackend != "" {
		attrs = append(attrs, attribute.String(AttrSnapshotKind, config.SnapshotBackend))
	}
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(semconv.SchemaURL, attrs...))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

func traceExporterOptions(config *Config) []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(config.OTLPEndpoint)}
	if config.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	return opts
}

func metricExporterOptions(config *Config) []otlpmetricgrpc.Option {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(config.OTLPEndpoint)}
	if config.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	return opts
}

func samplerFor(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

func (p *Provider) registerInstruments() error {
	counters := []struct {
		dst              *metric.Int64Counter
		name, desc, unit string
	}{
		{&p.operations, "apex.operations.total", "Tracked operations started", "{operation}"},
		{&p.failures, "apex.errors.total", "Tracked operations that returned an error", "{error}"},
		{&p.decisions, "apex.decisions.total", "Daily decisions produced, by status and action", "{decision}"},
		{&p.cacheLookups, "apex.snapshot.cache", "Snapshot cache lookups, by result", "{lookup}"},
		{&p.auditPending, "apex.audit.pending.total", "Evaluations blocked by the audit gate", "{evaluation}"},
	}
	var errs []error
	for _, c := range counters {
		ctr, err := p.meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
			continue
		}
		*c.dst = ctr
	}

	var err error
	p.latency, err = p.meter.Float64Histogram("apex.operation.duration",
		metric.WithDescription("Tracked operation latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1),
	)
	if err != nil {
		errs = append(errs, fmt.Errorf("apex.operation.duration: %w", err))
	}
	p.inFlight, err = p.meter.Int64UpDownCounter("apex.operations.active",
		metric.WithDescription("Tracked operations in flight"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		errs = append(errs, fmt.Errorf("apex.operations.active: %w", err))
	}
	return errors.Join(errs...)
}

// Shutdown flushes and stops the providers. Errors are logged, not returned.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			p.logger.ErrorContext(ctx, "trace provider shutdown failed", "error", err)
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			p.logger.ErrorContext(ctx, "meter provider shutdown failed", "error", err)
		}
	}
	return nil
}

// Tracer returns the provider's tracer, or the global one when disabled.
func (p *Provider) Tracer() trace.Tracer {
	if p.tracer == nil {
		return otel.Tracer(instrumentationName)
	}
	return p.tracer
}

// Meter returns the provider's meter, or the global one when disabled.
func (p *Provider) Meter() metric.Meter {
	if p.meter == nil {
		return otel.Meter(instrumentationName)
	}
	return p.meter
}

// TrackOperation opens a span and counts the operation. Call the returned
// function exactly once with the operation's error.
func (p *Provider) TrackOperation(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := p.Tracer().Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	opAttrs := append([]attribute.KeyValue{attribute.String("operation", name)}, attrs...)
	set := metric.WithAttributes(opAttrs...)
	p.add(ctx, p.operations, set)
	if p.inFlight != nil {
		p.inFlight.Add(ctx, 1, set)
	}

	return ctx, func(err error) {
		if p.inFlight != nil {
			p.inFlight.Add(ctx, -1, set)
		}
		if p.latency != nil {
			p.latency.Record(ctx, time.Since(start).Seconds(), set)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			p.add(ctx, p.failures, metric.WithAttributes(
				attribute.String("operation", name),
				attribute.String("error.type", fmt.Sprintf("%T", err)),
			))
		}
		span.End()
	}
}

// RecordDecision counts one produced decision.
func (p *Provider) RecordDecision(ctx context.Context, status, action string) {
	p.add(ctx, p.decisions, metric.WithAttributes(DecisionOutcome(status, action)...))
}

// RecordCache counts one snapshot cache lookup.
func (p *Provider) RecordCache(ctx context.Context, result string) {
	p.add(ctx, p.cacheLookups, metric.WithAttributes(attribute.String(AttrCacheResult, result)))
}

// RecordAuditPending counts one evaluation blocked on missing inputs.
func (p *Provider) RecordAuditPending(ctx context.Context, auditType string) {
	p.add(ctx, p.auditPending, metric.WithAttributes(attribute.String(AttrAuditType, auditType)))
}

func (p *Provider) add(ctx context.Context, c metric.Int64Counter, opts ...metric.AddOption) {
	if c != nil {
		c.Add(ctx, 1, opts...)
	}
}
