// internal/logging/otel.go
package logging

import (
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap/zapcore"
)

// newDualCore creates core with stderr and/or OTEL outputs.
func newDualCore(cfg *Config, otelProvider log.LoggerProvider) (zapcore.Core, error) {
	level, err := LevelFromString(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse level: %w", err)
	}

	cores := make([]zapcore.Core, 0, 2)

	if cfg.Output.Stderr {
		var out io.Writer = os.Stderr
		if cfg.Output.Writer != nil {
			out = cfg.Output.Writer
		}
		cores = append(cores, zapcore.NewCore(newEncoder(cfg.Format), zapcore.Lock(zapcore.AddSync(out)), level))
	}

	if cfg.Output.OTEL && otelProvider != nil {
		// The bridge core has no level of its own; filter it like stderr.
		otelCore, err := zapcore.NewIncreaseLevelCore(
			otelzap.NewCore("qualitygate", otelzap.WithLoggerProvider(otelProvider)),
			level,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to filter otel core: %w", err)
		}
		cores = append(cores, otelCore)
	}

	if len(cores) == 0 {
		return nil, fmt.Errorf("at least one output must be enabled and available")
	}
	if len(cores) == 1 {
		return cores[0], nil
	}
	return zapcore.NewTee(cores...), nil
}
