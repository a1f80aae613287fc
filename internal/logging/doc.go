// Package logging provides structured logging for the gate.
//
// # Overview
//
// Logging package wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Stderr output, optionally teed into OpenTelemetry
//   - Automatic context field injection (trace_id, run.id, gate.phase)
//
// Gate logs go to stderr. The checker's own diagnostics keep stdout and
// stderr to themselves; the gate never re-emits them.
//
// # Usage
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg, nil)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithRunID(ctx, runID)
//	logger.Info(ctx, "checker finished", zap.Int("exit_status", 1))
//
// # Configuration Precedence
//
//  1. Defaults (NewDefaultConfig)
//  2. Embedded defaults.yaml (logging section)
//  3. Environment variables (QUALITYGATE_LOGGING_*)
//
// # Testing
//
// Use TestLogger for test assertions:
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "test message", zap.String("key", "value"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "test message")
//	tl.AssertField(t, "test message", "key", "value")
package logging
