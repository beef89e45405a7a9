// Package logger provides a lightweight, centralized logging facility
// with configurable verbosity levels.
//
// Design goals:
//   - Simple API (Errorf, Infof, Debugf, Tracef)
//   - Centralized verbosity control
//   - Zero formatting logic at call sites
//   - Structured output via zap
//
// Verbosity levels (in increasing order):
//
//	Error < Info < Debug < Trace
//
// Example usage:
//
//	logger.SetVerbosity(2) // Debug
//	logger.Infof("starting engine")
//	logger.With("backtestId", id).Debugf("spot=%f vol=%f", spot, vol)
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents a logging verbosity level.
// Higher values mean more verbose logging.
type Level int

const (
	Error Level = iota // Error logs only critical failures.
	Info               // Info logs high-level application progress.
	Debug              // Debug logs detailed diagnostic information.
	Trace              // Trace logs very fine-grained execution details.
)

// current holds the active verbosity level.
// Only messages with level <= current are logged.
var current Level = Info

// atomicLevel lets SetVerbosity repoint zap's own filtering without
// rebuilding the logger.
var atomicLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

var base = newBase()

func newBase() *zap.SugaredLogger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	encoder := zapcore.NewJSONEncoder(cfg)
	if os.Getenv("BACKTEST_LOG_CONSOLE") != "" {
		encoder = zapcore.NewConsoleEncoder(cfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), atomicLevel)
	return zap.New(core, zap.AddCallerSkip(1)).Sugar()
}

// SetVerbosity sets the global logging verbosity.
// Typically called once during application startup
// (e.g. after parsing CLI flags).
func SetVerbosity(v int) {
	current = Level(v)
	switch {
	case v <= int(Error):
		atomicLevel.SetLevel(zapcore.ErrorLevel)
	case v == int(Info):
		atomicLevel.SetLevel(zapcore.InfoLevel)
	default: // Debug, Trace
		atomicLevel.SetLevel(zapcore.DebugLevel)
	}
}

// Logger wraps a zap.SugaredLogger with fixed fields, returned by With for
// structured per-backtest-id logging.
type Logger struct {
	s *zap.SugaredLogger
}

// With returns a Logger that attaches fields to every subsequent call,
// e.g. logger.With("backtestId", id).Infof("entered cycle").
func With(fields ...any) *Logger {
	return &Logger{s: base.With(fields...)}
}

func (l *Logger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.s.Infof(format, args...) }

func (l *Logger) Debugf(format string, args ...any) {
	if current >= Debug {
		l.s.Debugf(format, args...)
	}
}

func (l *Logger) Tracef(format string, args ...any) {
	if current >= Trace {
		l.s.Debugf(format, args...)
	}
}

// Errorf logs an error-level message.
// Use this for failures that require attention.
func Errorf(format string, args ...any) {
	base.Errorf(format, args...)
}

// Infof logs an informational message.
// Use this for major lifecycle events.
func Infof(format string, args ...any) {
	base.Infof(format, args...)
}

// Debugf logs debugging information.
// Use this for diagnostic output useful during development.
func Debugf(format string, args ...any) {
	if current >= Debug {
		base.Debugf(format, args...)
	}
}

// Tracef logs very detailed execution traces.
// Use this sparingly due to high volume.
func Tracef(format string, args ...any) {
	if current >= Trace {
		base.Debugf(format, args...)
	}
}
