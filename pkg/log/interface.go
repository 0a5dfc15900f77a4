// Package log provides the structured logging interface used by the EM
// drivers and the mixture coordinator.
//
// The interface is slog-compatible so the backend can be swapped. Two
// backends ship with the package: a zerolog logger (the default) and a
// log/slog logger installed by SetupLogger.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("rem").With(
//	    log.ModelNameKey, "Driver",
//	    log.ModeKey, "reversible",
//	)
//	logger.Info("EM run started",
//	    log.OperationKey, log.OperationLearn,
//	    log.SamplesKey, 1000,
//	    log.FeaturesKey, 5,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with log/slog.
// Fields are alternating key/value pairs.
type Logger interface {
	// Debug logs per-iteration diagnostics.
	Debug(msg string, fields ...any)

	// Info logs lifecycle events such as the start and end of a fit.
	Info(msg string, fields ...any)

	// Warn logs recoverable conditions, for example a row whose
	// responsibilities fell back to uniform.
	Warn(msg string, fields ...any)

	// Error logs a failed fit. If the first field is an error it is
	// attached under ErrAttrKey.
	Error(msg string, fields ...any)

	// With returns a Logger that adds fields to every record.
	With(fields ...any) Logger

	// Enabled reports whether records at level would be emitted.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates loggers. Swapping the provider changes the backend
// for every component that asks for a logger afterwards.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
	SetLevel(level Level)
}
