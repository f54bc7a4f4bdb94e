package cli

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/fluxion-lang/fluxion/log"
)

// logFormat is a custom type that configures the logger format as a side
// effect of parsing via encoding.TextUnmarshaler.
type logFormat string

// UnmarshalText implements encoding.TextUnmarshaler.
// As Kong parses the --log-format flag, this method is called, allowing
// the logger to be configured early enough to affect error messages
// emitted during parsing.
func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(*f))))

	return nil
}

// logLevel is a custom type that configures the logger level as a side
// effect of parsing via encoding.TextUnmarshaler.
type logLevel string

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(*l))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"info" enum:"trace,debug,info,warn,error" help:"Set log level."`
	Format     logFormat `default:"text" enum:"json,text"                   help:"Set log format."`
	TimeLayout string    `default:"RFC3339"                                 help:"Set timestamp format."`
	Caller     bool      `default:"false"                                   help:"Include caller information."       negatable:""`
	Pretty     bool      `default:"true"                                    help:"Enable colorized pretty printing." negatable:""`
}

func (*logConfig) group() kong.Group {
	return kong.Group{
		Key:   "log",
		Title: "Logging options",
	}
}

func (f *logConfig) start(ctx context.Context) {
	log.Config(
		log.WithLevel(log.ParseLevel(string(f.Level))),
		log.WithFormat(log.ParseFormat(string(f.Format))),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	)

	log.DebugContext(ctx, "logger initialized",
		slog.String("level", string(f.Level)),
		slog.String("format", string(f.Format)),
		slog.String("time", f.TimeLayout),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty),
	)
}

// scan performs an early pass over command-line arguments to apply logger
// configuration before Kong begins parsing. Boolean flags like
// --log-pretty bypass TextUnmarshaler, so they are handled here.
func (f *logConfig) scan(args []string) {
	for i := 0; i < len(args); i++ {
		name, value, assigned := strings.Cut(args[i], "=")

		// Non-boolean flags may carry their value in the next argument.
		next := func() string {
			if assigned {
				return value
			}
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
				return args[i]
			}
			return ""
		}

		boolValue := func(fallback bool) bool {
			if !assigned {
				return fallback
			}
			v, err := strconv.ParseBool(value)
			if err != nil {
				return fallback
			}
			return v
		}

		switch name {
		case "--log-level":
			_ = f.Level.UnmarshalText([]byte(next()))
		case "--log-format":
			_ = f.Format.UnmarshalText([]byte(next()))
		case "--log-pretty":
			f.Pretty = boolValue(true)
			log.Config(log.WithPretty(f.Pretty))
		case "--no-log-pretty":
			f.Pretty = !boolValue(true)
			log.Config(log.WithPretty(f.Pretty))
		case "--log-caller":
			f.Caller = boolValue(true)
			log.Config(log.WithCaller(f.Caller))
		case "--no-log-caller":
			f.Caller = !boolValue(true)
			log.Config(log.WithCaller(f.Caller))
		}
	}
}
