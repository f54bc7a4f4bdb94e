package lang

import "testing"

func parseOne(t *testing.T, src string) *Node {
	t.Helper()

	script, err := Compile(src)
	if err != nil {
		t.Fatalf("Compile(%q) failed: %v", src, err)
	}

	prog := script.Program()
	if len(prog.Items) != 1 {
		t.Fatalf("got %d statements, want 1", len(prog.Items))
	}

	return prog.Items[0]
}

func TestNormalizeChainFlattening(t *testing.T) {
	n := parseOne(t, "1 + 2 - 3 + 4")

	if n.Kind != KindChain {
		t.Fatalf("kind = %v, want chain", n.Kind)
	}

	if len(n.Items) != 4 || len(n.Ops) != 3 {
		t.Fatalf("items/ops = %d/%d, want 4/3", len(n.Items), len(n.Ops))
	}

	for i, want := range []string{"+", "-", "+"} {
		if n.Ops[i] != want {
			t.Errorf("ops[%d] = %q, want %q", i, n.Ops[i], want)
		}
	}
}

func TestNormalizeNoChainForSingleOperand(t *testing.T) {
	n := parseOne(t, "let x = 42")

	if n.Kind != KindAssign {
		t.Fatalf("kind = %v, want assign", n.Kind)
	}

	if n.X.Kind != KindNumber {
		t.Errorf("expr kind = %v, want bare number", n.X.Kind)
	}
}

func TestNormalizeCommandUnification(t *testing.T) {
	// Desugared and canonical command forms produce identical nodes.
	sugar := parseOne(t, `probe url="http://x", timeout=5`)
	plain := parseOne(t, `probe { url: "http://x", timeout: 5 }`)

	for _, n := range []*Node{sugar, plain} {
		if n.Kind != KindCommand || n.Name != "probe" {
			t.Fatalf("got %v %q, want command probe", n.Kind, n.Name)
		}
		if len(n.Keys) != 2 || n.Keys[0] != "url" || n.Keys[1] != "timeout" {
			t.Errorf("keys = %v, want [url timeout]", n.Keys)
		}
	}
}

func TestNormalizeBareNameIsCommand(t *testing.T) {
	n := parseOne(t, "cleanup")

	if n.Kind != KindCommand || n.Name != "cleanup" {
		t.Errorf("got %v %q, want command cleanup", n.Kind, n.Name)
	}

	if len(n.Keys) != 0 {
		t.Errorf("keys = %v, want none", n.Keys)
	}
}

func TestNormalizeCallWithSingleMapIsCommand(t *testing.T) {
	n := parseOne(t, `probe({url: "http://x"})`)

	if n.Kind != KindCommand || n.Name != "probe" {
		t.Fatalf("got %v %q, want command probe", n.Kind, n.Name)
	}

	if len(n.Keys) != 1 || n.Keys[0] != "url" {
		t.Errorf("keys = %v, want [url]", n.Keys)
	}
}

func TestNormalizeGetChainFoldsLeft(t *testing.T) {
	n := parseOne(t, "a.b.c")

	// Statement-position expression stays an expression when not a lone
	// name.
	if n.Kind != KindGet || n.Name != "c" {
		t.Fatalf("got %v %q, want get c", n.Kind, n.Name)
	}

	if n.X.Kind != KindGet || n.X.Name != "b" {
		t.Fatalf("inner = %v %q, want get b", n.X.Kind, n.X.Name)
	}

	if n.X.X.Kind != KindVar || n.X.X.Name != "a" {
		t.Errorf("base = %v %q, want var a", n.X.X.Kind, n.X.X.Name)
	}
}

func TestNormalizeCallArguments(t *testing.T) {
	n := parseOne(t, "f(1, x, \"s\")")

	if n.Kind != KindCall || n.Name != "f" {
		t.Fatalf("got %v %q, want call f", n.Kind, n.Name)
	}

	if len(n.Items) != 3 {
		t.Fatalf("args = %d, want 3", len(n.Items))
	}

	wantKinds := []Kind{KindNumber, KindVar, KindString}
	for i, want := range wantKinds {
		if n.Items[i].Kind != want {
			t.Errorf("arg %d kind = %v, want %v", i, n.Items[i].Kind, want)
		}
	}
}

func TestNormalizeStringEscapes(t *testing.T) {
	n := parseOne(t, `let s = "a\nb\t\"c\""`)

	if got, want := n.X.Text, "a\nb\t\"c\""; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeNumbers(t *testing.T) {
	tests := []struct {
		src  string
		want any
	}{
		{"let n = 42", int64(42)},
		{"let n = 1.5", 1.5},
		{"let n = 1e3", 1000.0},
		{"let n = 2.5e-1", 0.25},
	}

	for _, tt := range tests {
		n := parseOne(t, tt.src)
		if n.X.Number != tt.want {
			t.Errorf("%s: got %#v, want %#v", tt.src, n.X.Number, tt.want)
		}
	}
}

func TestNormalizeTernaryAndUnary(t *testing.T) {
	n := parseOne(t, "let v = !x ? 1 : 2")

	if n.X.Kind != KindUnary || n.X.Name != "!" {
		t.Fatalf("got %v %q, want unary !", n.X.Kind, n.X.Name)
	}

	if n.X.X.Kind != KindTernary {
		t.Errorf("operand = %v, want ternary", n.X.X.Kind)
	}
}
