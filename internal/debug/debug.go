// Package debug builds the process logger and keeps the small debug helpers
// used throughout the pipeline.
package debug

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a production JSON logger, or a colored development logger when
// enabled is true.
func New(enabled bool) (*zap.Logger, error) {
	if enabled {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// DebugHeader logs a header line if debugging is enabled
func DebugHeader(l *zap.Logger, enabled bool) {
	if enabled {
		OrNop(l).Debug("=== DEBUG START ===")
	}
}

// DebugFooter logs a footer line if debugging is enabled
func DebugFooter(l *zap.Logger, enabled bool) {
	if enabled {
		OrNop(l).Debug("=== DEBUG END ===")
	}
}

// DebugOutput logs a formatted message if debugging is enabled
func DebugOutput(l *zap.Logger, enabled bool, format string, args ...interface{}) {
	if enabled {
		OrNop(l).Debug(fmt.Sprintf(format, args...))
	}
}

// DebugTiming measures and logs execution time if debugging is enabled
func DebugTiming(l *zap.Logger, enabled bool, operation string) func() {
	if !enabled {
		return func() {}
	}

	start := time.Now()
	OrNop(l).Debug("starting", zap.String("operation", operation))

	return func() {
		OrNop(l).Debug("completed", zap.String("operation", operation), zap.Duration("took", time.Since(start)))
	}
}
