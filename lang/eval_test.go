package lang

import (
	"context"
	"errors"
	"testing"
)

func run(t *testing.T, src string, vars map[string]any, opts ...Option) *Result {
	t.Helper()

	res, err := Run(t.Context(), src, vars, opts...)
	if err != nil {
		t.Fatalf("Run(%q) failed: %v", src, err)
	}

	return res
}

func returns(t *testing.T, src string) any {
	t.Helper()

	return run(t, src, nil).Return
}

func TestLetReturnRoundtrip(t *testing.T) {
	tests := []struct {
		expr string
		want any
	}{
		{"42", int64(42)},
		{"1.5", 1.5},
		{`"hello"`, "hello"},
		{"true", true},
		{"false", false},
		{"null", nil},
		{"1 + 2", int64(3)},
		{"2 * 3 + 4", int64(10)},
		{"2 + 3 * 4", int64(14)},
		{"(2 + 3) * 4", int64(20)},
		{"10 - 2 - 3", int64(5)},
		{"7 / 2", 3.5},
		{"7 % 3", int64(1)},
		{"7.5 % 2", 1.5},
		{"-5", int64(-5)},
		{"-2.5", -2.5},
		{"!0", true},
		{`"a" + "b"`, "ab"},
		{"[1, 2, 3]", []any{int64(1), int64(2), int64(3)}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			res := run(t, "let x = "+tt.expr+"\nreturn x", nil)

			if !valueEqual(res.Return, tt.want) {
				t.Errorf("got %#v, want %#v", res.Return, tt.want)
			}

			if !valueEqual(res.Vars["x"], tt.want) {
				t.Errorf("vars[x] = %#v, want %#v", res.Vars["x"], tt.want)
			}
		})
	}
}

func TestChainedComparison(t *testing.T) {
	tests := []struct {
		expr string
		want any
	}{
		{"1 < 2 < 3", true},
		{"3 < 2 < 5", false},
		{"1 <= 1 <= 2", true},
		{"5 > 4 > 3 > 2", true},
		{"5 > 4 > 4", false},
		{"1 == 1 == 1", true},
		{"1 == 1 != 2", true},
		{`"a" < "b"`, true},
		{"1 < 2.5", true},
		{"2 == 2.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			if got := returns(t, "return "+tt.expr); got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestChainedComparisonShortCircuits(t *testing.T) {
	// The failing first pair must prevent evaluation of the host call in
	// the second pair.
	called := false
	reg := RegistryMap{
		"probe": func(context.Context, Invocation) (any, error) {
			called = true
			return int64(9), nil
		},
	}

	res := run(t, "return 3 < 2 < probe()", nil, WithRegistry(reg))

	if res.Return != false {
		t.Errorf("got %#v, want false", res.Return)
	}

	if called {
		t.Error("short-circuited operand was evaluated")
	}
}

func TestLogicalOperatorsReturnOperands(t *testing.T) {
	tests := []struct {
		expr string
		want any
	}{
		{`0 || "fallback"`, "fallback"},
		{`"first" || "second"`, "first"},
		{`1 && "second"`, "second"},
		{`0 && "second"`, int64(0)},
		{`"" || null`, nil},
		{`null ?? 0 ?? 1`, int64(0)},
		{`null ?? null`, nil},
		{`false ?? 1`, false},
		{`1 ? "yes" : "no"`, "yes"},
		{`0 ? "yes" : "no"`, "no"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got := returns(t, "return "+tt.expr)
			if !valueEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestTruthiness(t *testing.T) {
	tests := []struct {
		value any
		want  bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{int64(0), false},
		{int64(1), true},
		{0.0, false},
		{"", false},
		{"x", true},
		{[]any{}, false},
		{[]any{int64(1)}, true},
		{NewMap(), false},
	}

	for _, tt := range tests {
		if got := Truthy(tt.value); got != tt.want {
			t.Errorf("Truthy(%#v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestFunctionRedefinitionLastWins(t *testing.T) {
	src := `func f() { return 1 }
func f() { return 2 }
return f()`

	if got := returns(t, src); got != int64(2) {
		t.Errorf("got %#v, want 2", got)
	}
}

func TestUnknownCallIsNull(t *testing.T) {
	res := run(t, "return missing_fn(1, 2)", nil)

	if res.Return != nil {
		t.Errorf("got %#v, want nil", res.Return)
	}
}

func TestUnboundVariableIsNull(t *testing.T) {
	res := run(t, "return nothing_here", nil)

	if res.Return != nil {
		t.Errorf("got %#v, want nil", res.Return)
	}
}

func TestForOverNullYieldsZeroIterations(t *testing.T) {
	src := `let n = 0
for item in ghost {
	n = n + 1
}
return n`

	if got := returns(t, src); got != int64(0) {
		t.Errorf("got %#v, want 0", got)
	}
}

func TestForIteration(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want any
	}{
		{
			name: "list elements",
			src:  "let n = 0\nfor x in [1, 2, 3] {\n\tn = n + x\n}\nreturn n",
			want: int64(6),
		},
		{
			name: "string characters",
			src:  "let s = \"\"\nfor c in \"abc\" {\n\ts = s + c\n}\nreturn s",
			want: "abc",
		},
		{
			name: "map keys in insertion order",
			src:  "let s = \"\"\nfor k in {b: 1, a: 2} {\n\ts = s + k\n}\nreturn s",
			want: "ba",
		},
		{
			name: "loop variable persists",
			src:  "for x in [1, 2] {\n}\nreturn x",
			want: int64(2),
		},
		{
			name: "return unwinds through loop",
			src:  "for x in [1, 2, 3] {\n\tif x == 2 {\n\t\treturn x\n\t}\n}\nreturn 99",
			want: int64(2),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := returns(t, tt.src); !valueEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestDuplicateMapKeysLastWins(t *testing.T) {
	res := run(t, "let m = {a: 1, b: 2, a: 3}\nreturn m", nil)

	m, ok := res.Return.(*Map)
	if !ok {
		t.Fatalf("got %#v, want *Map", res.Return)
	}

	if m.Len() != 2 {
		t.Errorf("len = %d, want 2", m.Len())
	}

	if v, _ := m.Get("a"); v != int64(3) {
		t.Errorf("m[a] = %#v, want 3", v)
	}

	keys := m.Keys()
	if keys[0] != "a" || keys[1] != "b" {
		t.Errorf("keys = %v, want [a b]", keys)
	}
}

func TestEndToEnd(t *testing.T) {
	src := "fn inc(a) { return a + 1 }\nlet x = 3\nlet y = inc(x)\nreturn y"

	res := run(t, src, nil)

	if res.Return != int64(4) {
		t.Errorf("return = %#v, want 4", res.Return)
	}

	if res.Vars["x"] != int64(3) || res.Vars["y"] != int64(4) {
		t.Errorf("vars = %#v, want x:3 y:4", res.Vars)
	}
}

func TestFunctionScopeIsolation(t *testing.T) {
	// The body must not see caller locals, and missing parameters bind
	// to null.
	src := `let secret = 42
func peek(a, b) { return [a, b, secret] }
return peek(1)`

	got := returns(t, src)

	want := []any{int64(1), nil, nil}
	if !valueEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestCommandDispatchesToUserFunction(t *testing.T) {
	// A bare command resolves against the function table first, binding
	// named arguments to parameters by name.
	src := `func greet(name) { out = "hi " + name }
greet name="go"
return out`

	// out is assigned in the child frame, invisible here.
	if got := returns(t, src); got != nil {
		t.Errorf("got %#v, want nil", got)
	}

	src = `let hits = 0
func bump(by) { return by }
let r = bump(5)
return r`

	if got := returns(t, src); got != int64(5) {
		t.Errorf("got %#v, want 5", got)
	}
}

func TestCommandDispatchesToHost(t *testing.T) {
	var seen Invocation

	reg := RegistryMap{
		"echo": func(_ context.Context, inv Invocation) (any, error) {
			seen = inv
			return nil, nil
		},
	}

	run(t, `echo value="X={{1}}", count=2`, nil, WithRegistry(reg))

	if got := seen.Get("value"); got != "X=1" {
		t.Errorf("value = %#v, want %q", got, "X=1")
	}

	if got := seen.Get("count"); got != int64(2) {
		t.Errorf("count = %#v, want 2", got)
	}
}

func TestFunctionTableShadowsHost(t *testing.T) {
	reg := RegistryMap{
		"f": func(context.Context, Invocation) (any, error) {
			return "host", nil
		},
	}

	src := "func f() { return \"user\" }\nreturn f()"

	if got := run(t, src, nil, WithRegistry(reg)).Return; got != "user" {
		t.Errorf("got %#v, want user", got)
	}
}

func TestInterpolation(t *testing.T) {
	tests := []struct {
		name string
		src  string
		vars map[string]any
		want any
	}{
		{
			name: "numeric literal",
			src:  `return "X={{1}}"`,
			want: "X=1",
		},
		{
			name: "bound variable",
			src:  `return "v={{x}}"`,
			vars: map[string]any{"x": int64(7)},
			want: "v=7",
		},
		{
			name: "unresolved renders empty",
			src:  `return "v={{ghost}}"`,
			want: "v=",
		},
		{
			name: "null renders empty",
			src:  `return "v={{null}}"`,
			want: "v=",
		},
		{
			name: "boolean keyword",
			src:  `return "v={{true}}"`,
			want: "v=true",
		},
		{
			name: "float literal",
			src:  `return "v={{1.5}}"`,
			want: "v=1.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(t, tt.src, tt.vars).Return; got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestInterpolationRescansEachIteration(t *testing.T) {
	src := `let out = []
let acc = ""
for i in [1, 2, 3] {
	acc = acc + "{{i}}"
}
return acc`

	if got := returns(t, src); got != "123" {
		t.Errorf("got %#v, want %q", got, "123")
	}
}

func TestGetAccess(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want any
	}{
		{"map entry", "let m = {a: 1}\nreturn m.a", int64(1)},
		{"missing entry", "let m = {a: 1}\nreturn m.b", nil},
		{"null base", "return ghost.field", nil},
		{"list index", "let l = [10, 20]\nreturn l.1", int64(20)},
		{"list index out of range", "let l = [10, 20]\nreturn l.5", nil},
		{"nested", "let m = {a: {b: 2}}\nreturn m.a.b", int64(2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := returns(t, tt.src); !valueEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestIfElse(t *testing.T) {
	src := `let r = ""
if 1 < 2 {
	r = "then"
} else {
	r = "else"
}
return r`

	if got := returns(t, src); got != "then" {
		t.Errorf("got %#v, want then", got)
	}

	src = `let r = ""
if "" {
	r = "then"
} else {
	r = "else"
}
return r`

	if got := returns(t, src); got != "else" {
		t.Errorf("got %#v, want else", got)
	}
}

func TestReturnWithoutExpression(t *testing.T) {
	if got := returns(t, "return"); got != nil {
		t.Errorf("got %#v, want nil", got)
	}
}

func TestNoReturnYieldsNull(t *testing.T) {
	res := run(t, "let x = 1", nil)

	if res.Return != nil {
		t.Errorf("got %#v, want nil", res.Return)
	}
}

func TestTypeMismatchIsFatal(t *testing.T) {
	_, err := Run(t.Context(), `return 1 + "x"`, nil)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("got %v, want ErrTypeMismatch", err)
	}

	_, err = Run(t.Context(), `return 1 < "x"`, nil)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("got %v, want ErrTypeMismatch", err)
	}
}

func TestDivisionByZeroIsFatal(t *testing.T) {
	_, err := Run(t.Context(), "return 1 / 0", nil)
	if !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("got %v, want ErrDivisionByZero", err)
	}

	_, err = Run(t.Context(), "return 1 % 0", nil)
	if !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("got %v, want ErrDivisionByZero", err)
	}
}

func TestHostFaultIsFatal(t *testing.T) {
	reg := RegistryMap{
		"boom": func(context.Context, Invocation) (any, error) {
			return nil, errors.New("wires crossed")
		},
	}

	_, err := Run(t.Context(), "return boom()", nil, WithRegistry(reg))
	if !errors.Is(err, ErrHostFault) {
		t.Errorf("got %v, want ErrHostFault", err)
	}
}

func TestInitialVariables(t *testing.T) {
	res := run(t, "return seed * 2", map[string]any{"seed": int64(21)})

	if res.Return != int64(42) {
		t.Errorf("got %#v, want 42", res.Return)
	}
}

func TestCompileOnceRunMany(t *testing.T) {
	script, err := Compile("return seed + 1")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	for i := int64(0); i < 3; i++ {
		res, err := script.Run(t.Context(), map[string]any{"seed": i})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if res.Return != i+1 {
			t.Errorf("run %d: got %#v, want %d", i, res.Return, i+1)
		}
	}
}

func TestParseErrorCarriesPosition(t *testing.T) {
	_, err := Compile("let x = 1\nlet y = ]\n")
	if err == nil {
		t.Fatal("expected parse error")
	}

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("got %T, want *ParseError", err)
	}

	if pe.Line != 2 {
		t.Errorf("line = %d, want 2", pe.Line)
	}
}

func TestCommentsIgnored(t *testing.T) {
	src := `# a setup comment
let x = 1 # trailing
# another
return x`

	if got := returns(t, src); got != int64(1) {
		t.Errorf("got %#v, want 1", got)
	}
}

func TestResultVarsExcludeInternals(t *testing.T) {
	src := "func f() { return 1 }\nlet x = f()\nreturn x"

	res := run(t, src, nil)

	if len(res.Vars) != 1 {
		t.Errorf("vars = %#v, want only x", res.Vars)
	}
}
