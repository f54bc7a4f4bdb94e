package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/fluxion-lang/fluxion/host"
	"github.com/fluxion-lang/fluxion/lang"
	"github.com/fluxion-lang/fluxion/log"
)

// Run executes a script against the standard host registry.
type Run struct {
	Script string `arg:"" help:"Script file, or '-' for stdin" optional:"" name:"script"`

	Eval string   `help:"Evaluate inline source instead of a file"  short:"e"`
	Var  []string `help:"Bind an initial variable as name=value"    short:"V" name:"var"`
	Vars string   `help:"YAML file of initial variable bindings"    type:"existingfile"`
	JSON bool     `help:"Emit the full result record as JSON"       name:"json"`
}

// Run executes the run command.
func (r *Run) Run(ctx context.Context) error {
	source, filename, err := r.source()
	if err != nil {
		return err
	}

	vars, err := r.bindings()
	if err != nil {
		return err
	}

	logger := log.Default()
	reg := host.New(host.WithLogger(logger))

	res, err := lang.Run(ctx, source, vars,
		lang.WithRegistry(reg),
		lang.WithLogger(logger),
		lang.WithFilename(filename),
	)
	if err != nil {
		return lang.WrapError(err).With(slog.String("command", "run"))
	}

	return r.emit(res)
}

// source resolves the script text from the inline flag, a file argument,
// or stdin.
func (r *Run) source() (source, filename string, err error) {
	if r.Eval != "" {
		return r.Eval, "", nil
	}

	if r.Script == "" || r.Script == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", lang.ErrReadInput.Wrap(err)
		}
		return string(b), "", nil
	}

	b, err := os.ReadFile(r.Script)
	if err != nil {
		return "", "", lang.ErrReadInput.Wrap(err)
	}

	return string(b), r.Script, nil
}

// bindings merges the --vars file with --var overrides, later wins.
func (r *Run) bindings() (map[string]any, error) {
	vars := make(map[string]any)

	if r.Vars != "" {
		b, err := os.ReadFile(r.Vars)
		if err != nil {
			return nil, lang.ErrReadInput.Wrap(err)
		}

		loaded := make(map[string]any)
		if err := yaml.Unmarshal(b, &loaded); err != nil {
			return nil, lang.ErrReadInput.Wrap(err).
				With(slog.String("file", r.Vars))
		}

		for name, value := range loaded {
			vars[name] = normalizeYAML(value)
		}
	}

	for _, pair := range r.Var {
		name, value, found := strings.Cut(pair, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("invalid variable binding %q, want name=value", pair)
		}

		vars[name] = parseScalar(value)
	}

	return vars, nil
}

func (r *Run) emit(res *lang.Result) error {
	if r.JSON {
		out, err := json.Marshal(struct {
			Return any            `json:"return"`
			Vars   map[string]any `json:"vars"`
		}{Return: res.Return, Vars: res.Vars})
		if err != nil {
			return err
		}

		fmt.Println(string(out))

		return nil
	}

	if res.Return != nil {
		fmt.Println(lang.Format(res.Return))
	}

	return nil
}

// parseScalar interprets a command-line value with the same literal rules
// as the language: booleans, null, numbers, else a plain string.
func parseScalar(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	case "null", "nil":
		return nil
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}

	return s
}

// normalizeYAML maps decoded YAML values onto the language value domain.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case uint64:
		return int64(t)
	case float32:
		return float64(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for key, value := range t {
			out[key] = normalizeYAML(value)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, value := range t {
			out[i] = normalizeYAML(value)
		}
		return out
	default:
		return v
	}
}
