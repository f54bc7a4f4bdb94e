package lang

import "context"

// Invocation carries the arguments of a single host call. Parenthesized
// calls populate Args; bare commands populate Named.
type Invocation struct {
	Args  []any
	Named *Map
}

// Arg returns the positional argument at index i, or null when absent.
func (inv Invocation) Arg(i int) any {
	if i < 0 || i >= len(inv.Args) {
		return nil
	}
	return inv.Args[i]
}

// Get returns the named argument bound to key, or null when absent.
func (inv Invocation) Get(key string) any {
	if inv.Named == nil {
		return nil
	}
	v, _ := inv.Named.Get(key)
	return v
}

// Callable is a host operation exposed to scripts. Implementations must
// confine failures to the returned error; a non-nil error aborts the run.
type Callable func(ctx context.Context, inv Invocation) (any, error)

// Registry resolves host operation names. Scripts consult the registry
// only after the user-defined function table misses; an unresolved name
// evaluates to null rather than failing the run.
type Registry interface {
	Lookup(name string) (Callable, bool)
}

// RegistryMap is a Registry backed by a plain map, convenient for
// embedders with a fixed operation set.
type RegistryMap map[string]Callable

// Lookup implements Registry.
func (m RegistryMap) Lookup(name string) (Callable, bool) {
	c, ok := m[name]
	return c, ok
}
