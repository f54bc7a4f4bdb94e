package repl

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	baseHistory = "history"
	maxHistory  = 1000

	historyFileMode = 0o600
	historyDirMode  = 0o700
)

// history is a file-backed line history. Entries persist across
// sessions; a line equal to the previous entry is not recorded twice.
type history struct {
	mu    sync.RWMutex
	path  string
	lines []string
}

func newHistory(path string) *history {
	return &history{path: path}
}

// Load reads persisted entries from the backing file. A missing file is
// not an error.
func (h *history) Load() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.Open(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return err
	}
	defer f.Close()

	h.lines = h.lines[:0]

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}

		h.lines = append(h.lines, line)
	}

	if len(h.lines) > maxHistory {
		h.lines = h.lines[len(h.lines)-maxHistory:]
	}

	return scanner.Err()
}

// Append records a line and flushes it to the backing file. It returns
// the index of the entry, which is unchanged when the line duplicates
// the previous one.
func (h *history) Append(line string) (int, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return -1, fmt.Errorf("empty history entry")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if n := len(h.lines); n > 0 && h.lines[n-1] == line {
		return n - 1, nil
	}

	h.lines = append(h.lines, line)
	if len(h.lines) > maxHistory {
		h.lines = h.lines[len(h.lines)-maxHistory:]
	}

	return len(h.lines) - 1, h.flush()
}

// Get returns the entry at index idx, oldest first.
func (h *history) Get(idx int) (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if idx < 0 || idx >= len(h.lines) {
		return "", fmt.Errorf("history index %d out of range [0,%d)", idx, len(h.lines))
	}

	return h.lines[idx], nil
}

// Len returns the number of recorded entries.
func (h *history) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.lines)
}

func (h *history) flush() error {
	if h.path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(h.path), historyDirMode); err != nil {
		return err
	}

	return os.WriteFile(
		h.path,
		[]byte(strings.Join(h.lines, "\n")+"\n"),
		historyFileMode,
	)
}
