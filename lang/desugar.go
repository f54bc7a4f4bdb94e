package lang

import (
	"regexp"
	"strings"
)

// The desugarer rewrites two author-facing shorthands into canonical
// grammar before parsing:
//
//	fn name(...) { ... }     ->  func name(...) { ... }
//	cmd k1=e1, k2=e2         ->  cmd { k1: e1, k2: e2 }
//
// It operates line by line and never adds or removes lines, so parse
// error positions always refer to the author's original text. Applying it
// to already-canonical text is a no-op.

var (
	nameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	leadRE = regexp.MustCompile(`^(\s*)([A-Za-z_][A-Za-z0-9_]*)\b(.*)$`)
	fnRE   = regexp.MustCompile(`^(\s*)fn\b`)
)

// reserved holds statement keywords that can never head a command.
var reserved = map[string]bool{
	"let":    true,
	"return": true,
	"if":     true,
	"else":   true,
	"for":    true,
	"func":   true,
}

// Desugar rewrites shorthand syntax in text, preserving line count.
func Desugar(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = desugarLine(line)
	}

	return strings.Join(lines, "\n")
}

func desugarLine(line string) string {
	if loc := fnRE.FindStringSubmatchIndex(line); loc != nil {
		// loc[3] ends the indent capture, loc[1] ends the "fn" keyword.
		return line[:loc[3]] + "func" + line[loc[1]:]
	}

	m := leadRE.FindStringSubmatch(line)
	if m == nil {
		return line
	}

	indent, head, rest := m[1], m[2], m[3]

	if reserved[head] {
		return line
	}

	trimmed := strings.TrimSpace(rest)
	if trimmed == "" || strings.HasPrefix(trimmed, "{") {
		return line
	}

	parts, ok := namedArgParts(trimmed)
	if !ok {
		return line
	}

	pairs := make([]string, len(parts))
	for i, p := range parts {
		k, v, _ := strings.Cut(p, "=")
		pairs[i] = strings.TrimSpace(k) + ": " + strings.TrimSpace(v)
	}

	return indent + head + " { " + strings.Join(pairs, ", ") + " }"
}

// namedArgParts splits s on top-level commas and reports whether every
// part has the shape "name = expr". A single failing part disqualifies
// the whole line, leaving it for the parser untouched.
func namedArgParts(s string) ([]string, bool) {
	parts := splitBalanced(s)
	if len(parts) == 0 {
		return nil, false
	}

	for _, p := range parts {
		k, v, found := strings.Cut(p, "=")
		if !found {
			return nil, false
		}

		if !nameRE.MatchString(strings.TrimSpace(k)) {
			return nil, false
		}

		if strings.TrimSpace(v) == "" {
			return nil, false
		}
	}

	return parts, true
}

// splitBalanced splits s on commas that sit outside quotes and outside
// any (), [], {} nesting. Backslash escapes the next character inside and
// outside quotes alike.
func splitBalanced(s string) []string {
	var (
		out        []string
		buf        strings.Builder
		paren      int
		brack      int
		brace      int
		inSQ, inDQ bool
		esc        bool
	)

	for _, ch := range s {
		switch {
		case esc:
			buf.WriteRune(ch)
			esc = false
			continue
		case ch == '\\':
			buf.WriteRune(ch)
			esc = true
			continue
		case inSQ:
			buf.WriteRune(ch)
			if ch == '\'' {
				inSQ = false
			}
			continue
		case inDQ:
			buf.WriteRune(ch)
			if ch == '"' {
				inDQ = false
			}
			continue
		case ch == '\'':
			inSQ = true
			buf.WriteRune(ch)
			continue
		case ch == '"':
			inDQ = true
			buf.WriteRune(ch)
			continue
		}

		switch ch {
		case '(':
			paren++
		case ')':
			paren--
		case '[':
			brack++
		case ']':
			brack--
		case '{':
			brace++
		case '}':
			brace--
		}

		if ch == ',' && paren == 0 && brack == 0 && brace == 0 {
			out = append(out, strings.TrimSpace(buf.String()))
			buf.Reset()
			continue
		}

		buf.WriteRune(ch)
	}

	if buf.Len() > 0 {
		out = append(out, strings.TrimSpace(buf.String()))
	}

	return out
}
