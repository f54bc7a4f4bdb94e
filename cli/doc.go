// Package cli implements the fluxion command-line interface.
//
// The CLI exposes two commands: run, which executes a script file (or
// stdin, or inline source) against the standard host registry, and repl,
// which starts an interactive session. Logging and optional profiling
// flags are shared across commands.
package cli
