// Package profile provides optional runtime profiling for the fluxion CLI.
//
// Profiling is compiled in only when built with the pprof build tag.
// Without the tag, every operation is a safe no-op so callers never need
// build-tag awareness of their own.
package profile

// Tag is the build tag (and default output subdirectory) gating profiler
// support.
const Tag = "pprof"

// Config functions return all supported profiler configuration parameters.
type Config func() (mode, path string, quiet bool)

// Start initializes the profiler and returns an interface for stopping it.
//
// Mode selects the profiler to run, and path the output directory for
// profiling data. If the pprof build tag or mode are unset, Start returns a
// no-op implementation. Both Start and Stop are always safely callable.
func (c Config) Start() interface{ Stop() } {
	mode, path, quiet := c()

	if mode == "" {
		return ignore{}
	}

	return start(mode, path, quiet)
}

// WithMode returns a functional option for setting a profiler's mode.
func WithMode(mode string) func(Config) Config {
	return func(c Config) Config {
		_, path, quiet := c()

		return func() (string, string, bool) {
			return mode, path, quiet
		}
	}
}

// WithPath returns a functional option for setting a profiler's output path.
func WithPath(path string) func(Config) Config {
	return func(c Config) Config {
		mode, _, quiet := c()

		return func() (string, string, bool) {
			return mode, path, quiet
		}
	}
}

// WithQuiet returns a functional option for suppressing profiler logging.
func WithQuiet(quiet bool) func(Config) Config {
	return func(c Config) Config {
		mode, path, _ := c()

		return func() (string, string, bool) {
			return mode, path, quiet
		}
	}
}

// ignore is the no-op profiler used when profiling is unavailable.
type ignore struct{}

// Stop implements the profiler control interface as a no-op.
func (ignore) Stop() {}
