package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestMakeDefaults(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf)

	if l.Level() != DefaultLevel {
		t.Errorf("expected level %v, got %v", DefaultLevel, l.Level())
	}

	if l.Format() != DefaultFormat {
		t.Errorf("expected format %v, got %v", DefaultFormat, l.Format())
	}
}

func TestZeroLoggerIsNoop(t *testing.T) {
	var l Logger

	// Must not panic.
	l.Info("ignored", slog.String("key", "value"))
	l.Trace("ignored")
	l.Error("ignored")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithLevel(LevelWarn), WithPretty(false), WithTimeLayout(""))

	l.Info("should not appear")
	l.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("info message was not filtered: %q", out)
	}

	if !strings.Contains(out, "should appear") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestTraceLevelLabel(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf,
		WithLevel(LevelTrace),
		WithFormat(FormatJSON),
		WithTimeLayout(""),
	)

	l.Trace("tracing")

	if !strings.Contains(buf.String(), `"TRACE"`) {
		t.Errorf("expected TRACE label in output: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", DefaultLevel},
		{"", DefaultLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"json", FormatJSON},
		{"text", FormatText},
		{" JSON ", FormatJSON},
		{"bogus", DefaultFormat},
	}

	for _, tt := range tests {
		if got := ParseFormat(tt.in); got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWrapOverrides(t *testing.T) {
	var buf bytes.Buffer

	base := Make(&buf)
	wrapped := base.Wrap(WithLevel(LevelError), WithFormat(FormatJSON))

	if wrapped.Level() != LevelError {
		t.Errorf("expected wrapped level error, got %v", wrapped.Level())
	}

	if base.Level() != DefaultLevel {
		t.Errorf("base logger level mutated: %v", base.Level())
	}
}
