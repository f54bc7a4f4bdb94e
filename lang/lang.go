// Package lang implements a small embeddable scripting language for
// sequencing named operations.
//
// Source text flows through four stages: a line-preserving desugarer
// rewrites author shorthand into canonical syntax, a grammar parser
// produces a concrete tree, a normalizer lowers it into one tagged AST,
// and a tree-walking evaluator runs it against an execution context and
// an optional host registry of named operations.
//
// The language is deliberately fail-silent at its seams: unbound
// variables and unresolved calls evaluate to null so that best-effort,
// multi-step scripts keep running. Syntax errors and host faults remain
// fatal to the run.
package lang

import (
	"context"
	"log/slog"
	"os"

	"github.com/fluxion-lang/fluxion/log"
)

// Result is the outcome of one script run: the value of the last explicit
// return statement (null when none fired) and every top-level variable
// binding.
type Result struct {
	Return any
	Vars   map[string]any
}

type config struct {
	filename string
	reg      Registry
	log      log.Logger
}

// Option configures compilation and evaluation.
type Option func(config) config

func (c config) apply(opts ...Option) config {
	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

// WithRegistry installs the host registry consulted for call and command
// names missing from the script's own function table.
func WithRegistry(reg Registry) Option {
	return func(c config) config {
		c.reg = reg
		return c
	}
}

// WithLogger installs a logger for interpreter tracing. Without it, the
// interpreter stays silent.
func WithLogger(logger log.Logger) Option {
	return func(c config) config {
		c.log = logger
		return c
	}
}

// WithFilename sets the name reported in parse error positions.
func WithFilename(name string) Option {
	return func(c config) config {
		c.filename = name
		return c
	}
}

// Script is a compiled program. The underlying tree is immutable, so one
// Script may be run concurrently as long as the host registry tolerates
// concurrent calls.
type Script struct {
	prog *Node
	cfg  config
}

// Compile desugars, parses, and normalizes source into a runnable Script.
// A syntax error is returned as a *ParseError carrying line and column in
// the author's original text.
func Compile(source string, opts ...Option) (*Script, error) {
	cfg := config{}.apply(opts...)

	desugared := Desugar(source)

	cfg.log.Trace("compile",
		slog.String("filename", cfg.filename),
		slog.Int("bytes", len(source)),
	)

	prog, err := parseSource(cfg.filename, desugared)
	if err != nil {
		return nil, err
	}

	return &Script{prog: normalize(prog), cfg: cfg}, nil
}

// Program returns the root of the normalized tree.
func (s *Script) Program() *Node { return s.prog }

// Run evaluates the script with the given initial variable bindings. Each
// call constructs an independent execution context.
func (s *Script) Run(ctx context.Context, vars map[string]any) (*Result, error) {
	sc := newScope()
	for name, value := range vars {
		sc.vars[name] = value
	}

	e := &evaluator{reg: s.cfg.reg, log: s.cfg.log}

	returned, value, err := e.execBlock(ctx, s.prog, sc)
	if err != nil {
		return nil, err
	}

	if !returned {
		value = nil
	}

	return &Result{Return: value, Vars: sc.vars}, nil
}

// Run compiles and evaluates source in one step.
func Run(ctx context.Context, source string, vars map[string]any, opts ...Option) (*Result, error) {
	script, err := Compile(source, opts...)
	if err != nil {
		return nil, err
	}

	return script.Run(ctx, vars)
}

// RunFile reads source from path and delegates to Run, reporting parse
// error positions against the file name.
func RunFile(ctx context.Context, path string, vars map[string]any, opts ...Option) (*Result, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrReadInput.Wrap(err)
	}

	return Run(ctx, string(source), vars, append(opts, WithFilename(path))...)
}
