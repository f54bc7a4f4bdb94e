// Package host provides the standard registry of named operations exposed
// to scripts: output and formatting helpers, a calculator, and network
// probes.
//
// The registry is the boundary between the interpreter and host code. A
// panic inside an operation is recovered here and converted to a fatal
// evaluation error; expected operation failures (an unreachable URL, a
// malformed expression) are returned as result records so scripts can
// branch on them as data.
package host

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/fluxion-lang/fluxion/lang"
	"github.com/fluxion-lang/fluxion/log"
)

// ErrPanic reports a recovered panic from a host operation.
var ErrPanic = lang.NewError("host operation panicked")

// Command records one dispatched host invocation.
type Command struct {
	Name  string
	Args  *lang.Map
	Count int
}

// Registry implements lang.Registry. The zero value is unusable; construct
// with New.
type Registry struct {
	logger log.Logger

	mu    sync.RWMutex
	funcs map[string]lang.Callable
	last  *Command
	count int
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger installs a logger for operation dispatch tracing.
func WithLogger(logger log.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New returns a registry preloaded with the standard operations.
func New(opts ...Option) *Registry {
	r := &Registry{funcs: make(map[string]lang.Callable)}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	r.Register("echo", echo)
	r.Register("jsonify", jsonify)
	r.Register("join", join)
	r.Register("len", length)
	r.Register("calc", calc)
	r.Register("http_head", r.httpHead)
	r.Register("http_get", r.httpGet)
	r.Register("oast_beacon", r.beacon)

	return r
}

// Register binds name to fn, replacing any previous binding.
func (r *Registry) Register(name string, fn lang.Callable) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.funcs[name] = fn
}

// Lookup implements lang.Registry. The returned callable records the
// invocation and converts panics into errors before they cross back into
// the evaluator.
func (r *Registry) Lookup(name string) (lang.Callable, bool) {
	r.mu.RLock()
	fn, ok := r.funcs[name]
	r.mu.RUnlock()

	if !ok {
		return nil, false
	}

	wrapped := func(ctx context.Context, inv lang.Invocation) (value any, err error) {
		defer func() {
			if p := recover(); p != nil {
				err = ErrPanic.With(
					slog.String("name", name),
					slog.String("panic", fmt.Sprint(p)),
				)
			}
		}()

		r.record(name, inv)
		r.logger.TraceContext(ctx, "dispatch", slog.String("name", name))

		return fn(ctx, inv)
	}

	return wrapped, true
}

// Names returns every registered operation name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.funcs))
}

// LastCommand returns the most recently dispatched invocation, or nil
// when nothing has run.
func (r *Registry) LastCommand() *Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.last
}

func (r *Registry) record(name string, inv lang.Invocation) {
	args := inv.Named
	if args == nil {
		args = lang.NewMap()
		for i, v := range inv.Args {
			args.Set(fmt.Sprintf("%d", i), v)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.count++
	r.last = &Command{Name: name, Args: args, Count: r.count}
}
