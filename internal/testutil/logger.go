// Package testutil provides test helpers for structured logging.
package testutil

import (
	"bytes"
	"log/slog"
	"testing"
)

// NewTestLogger returns a debug-level logger routed to tb.Log, so import
// pipeline diagnostics show up interleaved with test output on failure
// or under -v.
func NewTestLogger(tb testing.TB) *slog.Logger {
	tb.Helper()
	return NewTestLoggerAt(tb, slog.LevelDebug)
}

// NewTestLoggerAt is NewTestLogger with an explicit minimum level, for
// tests that only care about warnings and errors.
func NewTestLoggerAt(tb testing.TB, level slog.Level) *slog.Logger {
	tb.Helper()
	return slog.New(slog.NewTextHandler(&tbWriter{tb: tb}, &slog.HandlerOptions{
		Level: level,
	}))
}

// tbWriter adapts testing.TB to io.Writer. The handler terminates every
// record with a newline and tb.Log adds its own, so the trailing one is
// stripped to avoid blank lines in test output.
type tbWriter struct {
	tb testing.TB
}

func (w *tbWriter) Write(p []byte) (int, error) {
	w.tb.Helper()
	w.tb.Log(string(bytes.TrimRight(p, "\n")))
	return len(p), nil
}
