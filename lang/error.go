package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
)

// Predefined errors (sentinel values).
var (
	ErrReadInput      = NewError("failed to read input")
	ErrTypeMismatch   = NewError("operand type mismatch")
	ErrDivisionByZero = NewError("division by zero")
	ErrHostFault      = NewError("host operation fault")
	ErrInternal       = NewError("internal evaluator error")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "<msg>: <err>" // base and wrapped error both set
	//   2. "<msg>"        // wrapped error is nil
	//   3. "<err>"        // base error message is empty
	//   4. ""             // no fields are set
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is matches errors sharing the same base message, so sentinel checks
// still hold after With or Wrap derive a new instance.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.msg != "" && t.msg == e.msg
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// ParseError reports a syntax error with its position in the desugared
// source, which shares line numbering with the author's original text.
type ParseError struct {
	Line    int
	Column  int
	Message string
	Source  string // The desugared source input
}

// NewParseError extracts position information from a parser error.
func NewParseError(err error, source string) *ParseError {
	pe := &ParseError{Message: err.Error(), Source: source}

	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		pe.Line = pos.Line
		pe.Column = pos.Column
		pe.Message = perr.Message()
	}

	return pe
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line == 0 {
		return "parse error: " + e.Message
	}

	var buf strings.Builder

	buf.WriteString("parse error at line ")
	buf.WriteString(strconv.Itoa(e.Line))
	buf.WriteString(", column ")
	buf.WriteString(strconv.Itoa(e.Column))
	buf.WriteString(": ")
	buf.WriteString(e.Message)

	if snippet := e.snippet(); snippet != "" {
		buf.WriteRune('\n')
		buf.WriteString(snippet)
	}

	return buf.String()
}

// snippet renders the offending line with a column marker.
func (e *ParseError) snippet() string {
	lines := strings.Split(e.Source, "\n")
	if e.Line < 1 || e.Line > len(lines) {
		return ""
	}

	line := lines[e.Line-1]

	var src strings.Builder

	src.WriteString("  ")
	src.WriteString(strconv.Itoa(e.Line))
	src.WriteString(" | ")
	src.WriteString(line)
	src.WriteRune('\n')

	// 2 leading spaces + line number + " | "
	padding := len(strconv.Itoa(e.Line)) + 5
	if e.Column > 0 {
		padding += e.Column - 1
	}

	src.WriteString(strings.Repeat(" ", padding) + "^")

	return src.String()
}
