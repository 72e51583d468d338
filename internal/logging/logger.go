// Package logging provides the leveled, structured Logger every package
// in this module threads through its request/dispatch/client paths
// (server.RequestContext, client.Client, internal/fsm), plus the
// JSON-over-slog implementation cmd/jrpcd installs from config.LogConfig
// at startup.
// file: internal/logging/logger.go
package logging

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Logger defines the interface for logging within the library. This
// abstraction allows for different logger implementations while
// maintaining consistent logging conventions throughout the codebase.
type Logger interface {
	// Debug logs a debug-level message.
	Debug(msg string, args ...any)

	// Info logs an info-level message.
	Info(msg string, args ...any)

	// Warn logs a warning-level message.
	Warn(msg string, args ...any)

	// Error logs an error-level message.
	Error(msg string, args ...any)

	// WithContext returns a logger with context values.
	WithContext(ctx context.Context) Logger

	// WithField returns a logger with an additional field.
	WithField(key string, value any) Logger
}

// NoopLogger implements Logger but does nothing. Used as a fallback when
// no logger is provided.
type NoopLogger struct{}

func (l *NoopLogger) Debug(_ string, _ ...any) {}
func (l *NoopLogger) Info(_ string, _ ...any)  {}
func (l *NoopLogger) Warn(_ string, _ ...any)  {}
func (l *NoopLogger) Error(_ string, _ ...any) {}

func (l *NoopLogger) WithContext(_ context.Context) Logger { return l }
func (l *NoopLogger) WithField(_ string, _ any) Logger     { return l }

var noop = &NoopLogger{}

// GetNoopLogger returns the no-op logger instance.
func GetNoopLogger() Logger {
	return noop
}

// Level selects the minimum severity a Logger installed via InitLogging
// emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var currentLevel atomic.Int32 // holds a Level; LevelInfo until InitLogging/SetLevel runs

func init() {
	currentLevel.Store(int32(LevelInfo))
}

// slogLogger adapts *slog.Logger to Logger. It gates on currentLevel
// itself rather than relying solely on the handler's own level, since
// GetLogger may have handed a caller a Logger built before SetLevel
// changed the threshold.
type slogLogger struct {
	l *slog.Logger
}

// InitLogging installs the package default logger as a JSON structured
// logger writing to w, gated at level — the way cmd/jrpcd wires
// config.LogConfig.Level at startup.
func InitLogging(level Level, w io.Writer) {
	currentLevel.Store(int32(level))
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	setDefaultLogger(&slogLogger{l: slog.New(handler)})
}

// SetLevel adjusts the minimum severity emitted by the installed default
// logger without rebuilding it.
func SetLevel(level Level) {
	currentLevel.Store(int32(level))
}

// IsDebugEnabled reports whether Debug-level messages are currently
// emitted, letting a caller skip assembling an expensive debug payload
// (the teacher's own `logging.IsDebugEnabled()` gate, e.g. before
// enabling stdio transport tracing).
func IsDebugEnabled() bool {
	return Level(currentLevel.Load()) <= LevelDebug
}

func (s *slogLogger) Debug(msg string, args ...any) {
	if Level(currentLevel.Load()) > LevelDebug {
		return
	}
	s.l.Debug(msg, args...)
}

func (s *slogLogger) Info(msg string, args ...any) {
	if Level(currentLevel.Load()) > LevelInfo {
		return
	}
	s.l.Info(msg, args...)
}

func (s *slogLogger) Warn(msg string, args ...any) {
	if Level(currentLevel.Load()) > LevelWarn {
		return
	}
	s.l.Warn(msg, args...)
}

func (s *slogLogger) Error(msg string, args ...any) {
	s.l.Error(msg, args...)
}

func (s *slogLogger) WithContext(_ context.Context) Logger { return s }

func (s *slogLogger) WithField(key string, value any) Logger {
	return &slogLogger{l: s.l.With(key, value)}
}

var (
	mu            sync.RWMutex
	defaultLogger Logger = GetNoopLogger()
)

func setDefaultLogger(l Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = l
}

// SetDefaultLogger sets the package default logger directly, for a
// caller that already has a Logger (e.g. one built outside InitLogging's
// JSON-to-an-io.Writer shape).
func SetDefaultLogger(logger Logger) {
	if logger == nil {
		return
	}
	setDefaultLogger(logger)
}

// GetLogger returns the default logger scoped with a "component" field,
// used by packages (internal/fsm, server, client) to get their own named
// logger.
func GetLogger(name string) Logger {
	mu.RLock()
	d := defaultLogger
	mu.RUnlock()
	return d.WithField("component", name)
}
