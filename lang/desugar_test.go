package lang

import (
	"strings"
	"testing"
)

func TestDesugarLine(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "fn keyword",
			in:   "fn inc(a) { return a + 1 }",
			want: "func inc(a) { return a + 1 }",
		},
		{
			name: "fn keyword indented",
			in:   "  fn inc(a) { return a + 1 }",
			want: "  func inc(a) { return a + 1 }",
		},
		{
			name: "fnord is not the keyword",
			in:   "fnord()",
			want: "fnord()",
		},
		{
			name: "single named arg",
			in:   `echo value="hi"`,
			want: `echo { value: "hi" }`,
		},
		{
			name: "multiple named args",
			in:   `probe url="http://x", timeout=5`,
			want: `probe { url: "http://x", timeout: 5 }`,
		},
		{
			name: "comma inside quotes not split",
			in:   `echo value="a,b", tag=1`,
			want: `echo { value: "a,b", tag: 1 }`,
		},
		{
			name: "comma inside brackets not split",
			in:   `emit items=[1, 2], count=2`,
			want: `emit { items: [1, 2], count: 2 }`,
		},
		{
			name: "comma inside nested map not split",
			in:   `send q={t: 1, u: 2}, path="/x"`,
			want: `send { q: {t: 1, u: 2}, path: "/x" }`,
		},
		{
			name: "reassignment untouched",
			in:   "x = 5",
			want: "x = 5",
		},
		{
			name: "let untouched",
			in:   "let x = 3",
			want: "let x = 3",
		},
		{
			name: "return untouched",
			in:   "return x + 1",
			want: "return x + 1",
		},
		{
			name: "already canonical map untouched",
			in:   `echo { value: "hi" }`,
			want: `echo { value: "hi" }`,
		},
		{
			name: "call untouched",
			in:   "inc(3)",
			want: "inc(3)",
		},
		{
			name: "comparison untouched",
			in:   "x == 5",
			want: "x == 5",
		},
		{
			name: "mixed pair shapes untouched",
			in:   `probe url="http://x", 5`,
			want: `probe url="http://x", 5`,
		},
		{
			name: "blank line",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := desugarLine(tt.in); got != tt.want {
				t.Errorf("desugarLine(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDesugarPreservesLineCount(t *testing.T) {
	src := "fn inc(a) { return a + 1 }\n\nlet x = 3\necho value=\"X={{x}}\"\nreturn inc(x)\n"

	out := Desugar(src)

	if got, want := strings.Count(out, "\n"), strings.Count(src, "\n"); got != want {
		t.Errorf("line count changed: got %d newlines, want %d", got, want)
	}
}

func TestDesugarIdempotent(t *testing.T) {
	sources := []string{
		`echo value="hi", count=3`,
		"fn inc(a) { return a + 1 }",
		"let x = 3\nprobe url=\"http://x\", timeout=5\nreturn x",
	}

	for _, src := range sources {
		once := Desugar(src)
		if twice := Desugar(once); twice != once {
			t.Errorf("not a fixed point:\nonce:  %q\ntwice: %q", once, twice)
		}
	}
}

func TestSplitBalanced(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{`a=1, b=2`, []string{"a=1", "b=2"}},
		{`a="x,y", b=2`, []string{`a="x,y"`, "b=2"}},
		{`a=[1,2], b=(f(1,2)), c={k: 1, j: 2}`, []string{"a=[1,2]", "b=(f(1,2))", "c={k: 1, j: 2}"}},
		{`a='x, y', b=2`, []string{`a='x, y'`, "b=2"}},
		{`a="\"x\", y"`, []string{`a="\"x\", y"`}},
	}

	for _, tt := range tests {
		got := splitBalanced(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("splitBalanced(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitBalanced(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}
