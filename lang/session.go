package lang

import (
	"context"
	"slices"
)

// Session is an interactive execution context: variable bindings and
// function definitions persist across Eval calls, so each input line
// builds on the last. A Session is not safe for concurrent use.
type Session struct {
	cfg config
	sc  *scope
	e   *evaluator
}

// NewSession returns an empty session configured with opts.
func NewSession(opts ...Option) *Session {
	cfg := config{}.apply(opts...)

	return &Session{
		cfg: cfg,
		sc:  newScope(),
		e:   &evaluator{reg: cfg.reg, log: cfg.log},
	}
}

// Eval compiles and runs source against the session's live context. The
// result carries the value of an explicit return or, failing that, of
// the last expression statement. A compile or evaluation error leaves
// prior bindings intact, though bindings made by earlier statements of
// a failing source are kept.
func (s *Session) Eval(ctx context.Context, source string) (*Result, error) {
	script, err := Compile(source,
		WithFilename(s.cfg.filename),
		WithRegistry(s.cfg.reg),
		WithLogger(s.cfg.log),
	)
	if err != nil {
		return nil, err
	}

	// Unlike Script.Run, a session surfaces the value of a trailing
	// expression even without an explicit return.
	_, value, err := s.e.execBlock(ctx, script.prog, s.sc)
	if err != nil {
		return nil, err
	}

	return &Result{Return: value, Vars: s.sc.vars}, nil
}

// Vars returns the session's live variable bindings.
func (s *Session) Vars() map[string]any { return s.sc.vars }

// Names returns every bound variable and defined function name, sorted.
func (s *Session) Names() []string {
	names := make([]string, 0, len(s.sc.vars)+len(s.sc.funcs))
	for name := range s.sc.vars {
		names = append(names, name)
	}
	for name := range s.sc.funcs {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}

	slices.Sort(names)

	return names
}

// Reset discards all bindings and definitions.
func (s *Session) Reset() {
	s.sc = newScope()
}
