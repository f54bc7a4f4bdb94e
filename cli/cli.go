package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/fluxion-lang/fluxion/cli/cmd"
	"github.com/fluxion-lang/fluxion/pkg"
)

// CLI is the top-level command-line interface for fluxion.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Run  cmd.Run  `cmd:"" default:"withargs" help:"Run a script"`
	Repl cmd.Repl `cmd:"" help:"Start an interactive session"`
}

// Run executes the fluxion CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon
// completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	if err := mkdirAllRequired(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags to ensure early configuration regardless
	// of flag position. TextUnmarshaler on logFormat/logLevel handles
	// those flags during normal parsing, but this early scan also catches
	// boolean flags like --log-pretty.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		cli.Pprof.vars().CloneWith(kong.Vars{
			"cacheDir": cacheDir(),
		}),
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithCacheDir(ctx, cacheDir())

	// Finalize logger configuration with all parsed values including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	cli.Log.start(ctx)

	// No-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}
