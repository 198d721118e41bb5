package types

import "time"

// Clock provides the current time. Core components never call time.Now
// directly; injecting a Clock lets tests supply fixed instants for DTSTAMP
// generation, send-timestamp recording, and retention pruning.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time (always UTC).
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time { return time.Now().UTC() }

// Logger defines the structured logging interface used throughout the
// notifier. The cmd layer adapts *slog.Logger to this interface.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// NopLogger discards all log output. Useful as a test default.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}
func (n NopLogger) With(...any) Logger { return n }
