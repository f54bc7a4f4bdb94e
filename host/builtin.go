package host

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/fluxion-lang/fluxion/lang"
)

// echo is a sink: its arguments are recorded by the registry and the
// interpolated values are otherwise discarded.
func echo(context.Context, lang.Invocation) (any, error) {
	return nil, nil
}

// jsonify encodes its payload as JSON text. Named arguments form the
// payload object; otherwise the first list or map positional argument is
// used, falling back to the first argument of any type.
func jsonify(_ context.Context, inv lang.Invocation) (any, error) {
	var payload any

	switch {
	case inv.Named != nil && inv.Named.Len() > 0:
		payload = inv.Named
	default:
		for _, a := range inv.Args {
			switch a.(type) {
			case *lang.Map, []any, map[string]any:
				payload = a
			}
			if payload != nil {
				break
			}
		}
		if payload == nil && len(inv.Args) > 0 {
			payload = inv.Args[0]
		}
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return errRecord(err), nil
	}

	return string(b), nil
}

// join concatenates the display form of every positional argument.
func join(_ context.Context, inv lang.Invocation) (any, error) {
	var buf strings.Builder
	for _, a := range inv.Args {
		buf.WriteString(lang.Format(a))
	}

	return buf.String(), nil
}

// length returns the element count of a string, list, or map, and zero
// for anything else.
func length(_ context.Context, inv lang.Invocation) (any, error) {
	switch v := inv.Arg(0).(type) {
	case string:
		return int64(len(v)), nil
	case []any:
		return int64(len(v)), nil
	case *lang.Map:
		return int64(v.Len()), nil
	case map[string]any:
		return int64(len(v)), nil
	default:
		return int64(0), nil
	}
}

// calc evaluates an expression with the expr engine against the named
// arguments as its environment. The expression itself comes from the
// first positional argument or the named argument "expr". Failures are
// returned as data so scripts can branch on them.
func calc(_ context.Context, inv lang.Invocation) (any, error) {
	source, _ := inv.Arg(0).(string)
	if source == "" {
		source, _ = inv.Get("expr").(string)
	}

	if source == "" {
		return errRecordMsg("missing expression"), nil
	}

	// The environment comes from the named arguments, or from a map
	// passed as the second positional argument in call form.
	env := map[string]any{}
	if m, ok := inv.Arg(1).(*lang.Map); ok {
		for _, key := range m.Keys() {
			v, _ := m.Get(key)
			env[key] = v
		}
	}
	if inv.Named != nil {
		for _, key := range inv.Named.Keys() {
			if key == "expr" {
				continue
			}
			v, _ := inv.Named.Get(key)
			env[key] = v
		}
	}

	program, err := expr.Compile(source, expr.Env(env), expr.AllowUndefinedVariables())
	if err != nil {
		return errRecord(err), nil
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return errRecord(err), nil
	}

	record := lang.NewMap()
	record.Set("ok", true)
	record.Set("value", normalizeValue(out))

	return record, nil
}

// normalizeValue maps host-native results onto the language value domain.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}

func errRecord(err error) *lang.Map {
	return errRecordMsg(err.Error())
}

func errRecordMsg(msg string) *lang.Map {
	record := lang.NewMap()
	record.Set("ok", false)
	record.Set("error", msg)

	return record
}
