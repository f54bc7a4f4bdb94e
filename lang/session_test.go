package lang

import "testing"

func TestSessionStatePersistsAcrossEvals(t *testing.T) {
	s := NewSession()

	if _, err := s.Eval(t.Context(), "let x = 3"); err != nil {
		t.Fatalf("Eval failed: %v", err)
	}

	if _, err := s.Eval(t.Context(), "fn inc(a) { return a + 1 }"); err != nil {
		t.Fatalf("Eval failed: %v", err)
	}

	res, err := s.Eval(t.Context(), "return inc(x)")
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}

	if res.Return != int64(4) {
		t.Errorf("got %#v, want 4", res.Return)
	}
}

func TestSessionTrailingExpressionValue(t *testing.T) {
	s := NewSession()

	if _, err := s.Eval(t.Context(), "let x = 20"); err != nil {
		t.Fatalf("Eval failed: %v", err)
	}

	res, err := s.Eval(t.Context(), "x * 2 + 2")
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}

	if res.Return != int64(42) {
		t.Errorf("got %#v, want 42", res.Return)
	}

	res, err = s.Eval(t.Context(), "let y = 1")
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}

	if res.Return != nil {
		t.Errorf("assignment yielded %#v, want nil", res.Return)
	}
}

func TestSessionNames(t *testing.T) {
	s := NewSession()

	if _, err := s.Eval(t.Context(), "let beta = 1\nfunc alpha() { return 1 }"); err != nil {
		t.Fatalf("Eval failed: %v", err)
	}

	names := s.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("names = %v, want [alpha beta]", names)
	}
}

func TestSessionReset(t *testing.T) {
	s := NewSession()

	if _, err := s.Eval(t.Context(), "let x = 1"); err != nil {
		t.Fatalf("Eval failed: %v", err)
	}

	s.Reset()

	res, err := s.Eval(t.Context(), "return x")
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}

	if res.Return != nil {
		t.Errorf("got %#v, want nil after reset", res.Return)
	}
}

func TestSessionCompileErrorKeepsState(t *testing.T) {
	s := NewSession()

	if _, err := s.Eval(t.Context(), "let x = 7"); err != nil {
		t.Fatalf("Eval failed: %v", err)
	}

	if _, err := s.Eval(t.Context(), "let y = ]"); err == nil {
		t.Fatal("expected parse error")
	}

	res, err := s.Eval(t.Context(), "return x")
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}

	if res.Return != int64(7) {
		t.Errorf("got %#v, want 7", res.Return)
	}
}
