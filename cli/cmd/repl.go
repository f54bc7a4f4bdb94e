package cmd

import (
	"context"

	"github.com/fluxion-lang/fluxion/cli/cmd/repl"
	"github.com/fluxion-lang/fluxion/host"
	"github.com/fluxion-lang/fluxion/lang"
	"github.com/fluxion-lang/fluxion/log"
)

// Repl starts an interactive session.
type Repl struct {
	Script string `arg:"" help:"Script file to preload into the session" optional:"" type:"existingfile"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	logger := log.Default()
	reg := host.New(host.WithLogger(logger))

	session := lang.NewSession(
		lang.WithRegistry(reg),
		lang.WithLogger(logger),
	)

	if r.Script != "" {
		if err := repl.Preload(ctx, session, r.Script); err != nil {
			return err
		}
	}

	return repl.Run(ctx, session, reg.Names(), cacheDirFrom(ctx), logger)
}
