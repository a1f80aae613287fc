// Package telemetry provides OpenTelemetry instrumentation for qualitygate.
//
// Telemetry is off by default. When enabled, spans, metrics and log
// entries for each gate run are exported over OTLP (gRPC or HTTP) and
// flushed before the process exits. LoggerProvider feeds the zap bridge in
// internal/logging.
//
//	cfg := telemetry.NewDefaultConfig()
//	tel, err := telemetry.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(ctx)
//
//	ctx, span := tel.Tracer("qualitygate").Start(ctx, "gate.run")
//	defer span.End()
//
// Telemetry failures never change the gate decision. If a provider cannot
// be built the instance degrades to no-op providers.
//
// Use TestTelemetry in tests:
//
//	tt := telemetry.NewTestTelemetry()
//	_, span := tt.Tracer("test").Start(ctx, "gate.activate")
//	span.End()
//	tt.AssertSpanExists(t, "gate.activate")
package telemetry
