// Package log provides structured logging for fluxion built on [log/slog].
//
// The package adds a Trace level below Debug for fine-grained interpreter
// tracing, text and JSON output formats with an optional colorized text
// handler, and a functional-option configuration surface.
//
// A zero-value [Logger] is a no-op, so the interpreter core can carry a
// Logger unconditionally and embedders only pay for logging they configure.
package log
