// Package observability wires slog and OpenTelemetry for the coaching
// service.
//
// Tracing and metrics are exported over OTLP gRPC when enabled:
//
//	p, err := observability.New(ctx, &observability.Config{
//		ServiceName:  "apex-coach",
//		OTLPEndpoint: "otel-collector:4317",
//		SampleRate:   0.1,
//		Enabled:      true,
//	})
//	defer p.Shutdown(ctx)
//
// A disabled provider is safe to use everywhere; spans go to the global
// no-op tracer and counters are skipped.
//
// Track a unit of work:
//
//	ctx, finish := p.TrackOperation(ctx, "coach.decide", observability.DecisionRequest(user, date, phase)...)
//	defer func() { finish(err) }()
//
// Record coaching outcomes:
//
//	p.RecordDecision(ctx, "ADAPTED", "MODIFIED")
//	p.RecordCache(ctx, "hit")
//	p.RecordAuditPending(ctx, "NIGGLE")
package observability
