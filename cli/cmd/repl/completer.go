package repl

import (
	"strings"

	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"
)

// Language keywords offered alongside session and host names.
var keywords = []string{
	"let", "return", "if", "else", "for", "in", "func",
	"true", "false", "null", "and", "or",
}

const maxCandidates = 8

// isWordBoundary reports whether b ends an identifier.
func isWordBoundary(b byte) bool {
	return !(b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9'))
}

// wordBounds finds the identifier surrounding byte offset pos in line.
func wordBounds(line string, pos int) (start, end int) {
	if pos > len(line) {
		pos = len(line)
	}

	start = pos
	for start > 0 && !isWordBoundary(line[start-1]) {
		start--
	}

	end = pos
	for end < len(line) && !isWordBoundary(line[end]) {
		end++
	}

	return start, end
}

// candidates returns the completion corpus: session names, host
// operation names, then keywords, deduplicated in that priority order.
func (m *model) candidates() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(m.hostNames)+len(keywords))

	add := func(names []string) {
		for _, name := range names {
			if _, ok := seen[name]; ok {
				continue
			}

			seen[name] = struct{}{}
			out = append(out, name)
		}
	}

	add(m.session.Names())
	add(m.hostNames)
	add(keywords)

	return out
}

// refreshMatches recomputes fuzzy matches for the word under the cursor.
func (m *model) refreshMatches() {
	line := m.input.Value()

	start, end := wordBounds(line, m.input.Position())

	m.wordStart, m.wordEnd = start, end
	m.suggIdx = 0

	word := line[start:end]
	if word == "" {
		m.matches = nil

		return
	}

	m.matches = fuzzy.Find(word, m.candidates())
	if len(m.matches) > maxCandidates {
		m.matches = m.matches[:maxCandidates]
	}
}

// cycleCandidate replaces the current word with the next or previous
// fuzzy candidate.
func (m model) cycleCandidate(delta int) (model, tea.Cmd) {
	if len(m.matches) == 0 {
		return m, nil
	}

	if !m.tabActive {
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.suggIdx = 0
	} else {
		m.suggIdx = (m.suggIdx + delta + len(m.matches)) % len(m.matches)
	}

	// wordStart and wordEnd were computed against preTabText by the
	// last refreshMatches, before tab-cycling began mutating the input.
	line := m.preTabText
	start, end := m.wordStart, m.wordEnd
	chosen := m.matches[m.suggIdx].Str

	m.input.SetValue(line[:start] + chosen + line[end:])
	m.input.SetCursor(start + len(chosen))

	return m, nil
}

// renderCandidateBar renders the horizontal completion bar shown under
// the input line.
func renderCandidateBar(matches fuzzy.Matches, selected int, active bool, width int) string {
	var b strings.Builder

	for i, match := range matches {
		if b.Len() > 0 {
			b.WriteString("  ")
		}

		if b.Len()+len(match.Str) > width {
			break
		}

		if active && i == selected {
			b.WriteString(selectedStyle.Render(match.Str))
		} else {
			b.WriteString(suggestionStyle.Render(match.Str))
		}
	}

	return b.String()
}
