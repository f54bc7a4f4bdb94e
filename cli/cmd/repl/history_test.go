package repl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHistoryAppendGet(t *testing.T) {
	t.Parallel()

	h := newHistory(filepath.Join(t.TempDir(), "history"))

	for i, line := range []string{"let x = 1", "echo msg={{x}}", "x + 1"} {
		idx, err := h.Append(line)
		if err != nil {
			t.Fatalf("Append(%q): %v", line, err)
		}
		if idx != i {
			t.Errorf("Append(%q) index = %d, want %d", line, idx, i)
		}
	}

	if h.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", h.Len())
	}

	line, err := h.Get(1)
	if err != nil {
		t.Fatalf("Get(1): %v", err)
	}
	if line != "echo msg={{x}}" {
		t.Errorf("Get(1) = %q", line)
	}

	if _, err := h.Get(3); err == nil {
		t.Error("Get(3) should fail")
	}
}

func TestHistoryDedupesConsecutive(t *testing.T) {
	t.Parallel()

	h := newHistory(filepath.Join(t.TempDir(), "history"))

	if _, err := h.Append("echo"); err != nil {
		t.Fatal(err)
	}

	idx, err := h.Append("echo")
	if err != nil {
		t.Fatal(err)
	}

	if idx != 0 || h.Len() != 1 {
		t.Errorf("duplicate entry recorded: idx=%d len=%d", idx, h.Len())
	}

	if _, err := h.Append("other"); err != nil {
		t.Fatal(err)
	}

	if _, err := h.Append("echo"); err != nil {
		t.Fatal(err)
	}

	if h.Len() != 3 {
		t.Errorf("non-consecutive duplicate should be recorded, Len() = %d", h.Len())
	}
}

func TestHistoryRejectsEmpty(t *testing.T) {
	t.Parallel()

	h := newHistory(filepath.Join(t.TempDir(), "history"))

	if _, err := h.Append("   "); err == nil {
		t.Error("blank entry should be rejected")
	}
}

func TestHistoryPersistsAcrossLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "history")

	h := newHistory(path)
	if _, err := h.Append("let a = 1"); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Append("a * 2"); err != nil {
		t.Fatal(err)
	}

	reloaded := newHistory(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load(): %v", err)
	}

	if reloaded.Len() != 2 {
		t.Fatalf("reloaded Len() = %d, want 2", reloaded.Len())
	}

	line, err := reloaded.Get(0)
	if err != nil || line != "let a = 1" {
		t.Errorf("Get(0) = %q, %v", line, err)
	}
}

func TestHistoryLoadMissingFile(t *testing.T) {
	t.Parallel()

	h := newHistory(filepath.Join(t.TempDir(), "absent"))
	if err := h.Load(); err != nil {
		t.Errorf("missing file should not error: %v", err)
	}
}

func TestHistoryLoadSkipsBlankLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history")
	content := "one\n\n\ntwo\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	h := newHistory(path)
	if err := h.Load(); err != nil {
		t.Fatal(err)
	}

	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}

	var got []string
	for i := range h.Len() {
		line, _ := h.Get(i)
		got = append(got, line)
	}

	if strings.Join(got, ",") != "one,two" {
		t.Errorf("entries = %v", got)
	}
}
