package logging

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
)

// Logger defines a minimal, printf-style logging contract.
//
// Packages accept this interface so tests can pass Nop and production code
// can hand in a component logger bound to the process-wide slog handler.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// IsNil reports whether logger is nil or wraps a nil pointer receiver.
func IsNil(logger Logger) bool {
	if logger == nil {
		return true
	}
	val := reflect.ValueOf(logger)
	switch val.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
		return val.IsNil()
	default:
		return false
	}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if IsNil(logger) {
		return Nop()
	}
	return logger
}

type componentLogger struct {
	component string
	handler   func() *slog.Logger
}

// NewComponentLogger returns a logger that tags every line with component and
// writes through slog.Default at call time, so a handler installed later by
// observability.Logger.Install is picked up.
func NewComponentLogger(component string) Logger {
	return &componentLogger{component: component, handler: slog.Default}
}

// NewSlogLogger binds a component logger to a specific slog logger.
func NewSlogLogger(component string, logger *slog.Logger) Logger {
	if logger == nil {
		return NewComponentLogger(component)
	}
	return &componentLogger{component: component, handler: func() *slog.Logger { return logger }}
}

func (l *componentLogger) log(level slog.Level, format string, args ...any) {
	logger := l.handler()
	ctx := context.Background()
	if !logger.Enabled(ctx, level) {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	logger.Log(ctx, level, msg, "component", l.component)
}

func (l *componentLogger) Debug(format string, args ...any) { l.log(slog.LevelDebug, format, args...) }
func (l *componentLogger) Info(format string, args ...any)  { l.log(slog.LevelInfo, format, args...) }
func (l *componentLogger) Warn(format string, args ...any)  { l.log(slog.LevelWarn, format, args...) }
func (l *componentLogger) Error(format string, args ...any) { l.log(slog.LevelError, format, args...) }
