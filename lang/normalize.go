package lang

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// normalize lowers the concrete syntax tree into the canonical Node form.
// All structural punctuation and keywords are already consumed by the
// grammar; what remains here is flattening operator chains, collapsing
// literal repetitions, folding attribute trailers, and unifying the
// surface invocation forms into Call and Command.
func normalize(prog *programNode) *Node {
	return &Node{
		Kind:  KindBlock,
		Items: normalizeStatements(prog.Statements),
	}
}

func normalizeStatements(stmts []*statementNode) []*Node {
	out := make([]*Node, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, normalizeStatement(s))
	}

	return out
}

func normalizeStatement(s *statementNode) *Node {
	switch {
	case s.Let != nil:
		return &Node{
			Kind: KindAssign,
			Pos:  s.Pos,
			Name: s.Let.Name,
			X:    normalizeExpr(s.Let.Expr),
		}
	case s.Return != nil:
		n := &Node{Kind: KindReturn, Pos: s.Pos}
		if s.Return.Expr != nil {
			n.X = normalizeExpr(s.Return.Expr)
		}
		return n
	case s.If != nil:
		n := &Node{
			Kind: KindIf,
			Pos:  s.Pos,
			X:    normalizeExpr(s.If.Cond),
			Y:    normalizeBlock(s.If.Then),
		}
		if s.If.Else != nil {
			n.Z = normalizeBlock(s.If.Else)
		}
		return n
	case s.For != nil:
		return &Node{
			Kind: KindFor,
			Pos:  s.Pos,
			Name: s.For.Name,
			X:    normalizeExpr(s.For.Iterable),
			Y:    normalizeBlock(s.For.Body),
		}
	case s.Func != nil:
		return &Node{
			Kind: KindFunc,
			Pos:  s.Pos,
			Name: s.Func.Name,
			Keys: s.Func.Params,
			Y:    normalizeBlock(s.Func.Body),
		}
	case s.Command != nil:
		keys, items := normalizePairs(s.Command.Args.Pairs)
		return &Node{
			Kind:  KindCommand,
			Pos:   s.Pos,
			Name:  s.Command.Name,
			Keys:  keys,
			Items: items,
		}
	case s.Assign != nil:
		return &Node{
			Kind: KindAssign,
			Pos:  s.Pos,
			Name: s.Assign.Name,
			X:    normalizeExpr(s.Assign.Expr),
		}
	default:
		expr := normalizeExpr(s.Expr)

		// A lone name in statement position is a bare invocation with
		// no arguments.
		if expr.Kind == KindVar {
			return &Node{Kind: KindCommand, Pos: expr.Pos, Name: expr.Name}
		}

		return expr
	}
}

func normalizeBlock(b *blockNode) *Node {
	return &Node{
		Kind:  KindBlock,
		Items: normalizeStatements(b.Statements),
	}
}

// normalizePairs collapses a pair list into parallel key/value sequences.
// A duplicate key overwrites the earlier value in place, keeping the
// key's original position.
func normalizePairs(pairs []*pairNode) (keys []string, items []*Node) {
	index := make(map[string]int, len(pairs))

	for _, p := range pairs {
		key := p.Key
		if strings.HasPrefix(key, `"`) || strings.HasPrefix(key, `'`) {
			key = unquote(key)
		}

		value := normalizeExpr(p.Value)

		if at, ok := index[key]; ok {
			items[at] = value
			continue
		}

		index[key] = len(keys)
		keys = append(keys, key)
		items = append(items, value)
	}

	return keys, items
}

// Operator chains collapse to a single node when no operator follows the
// first operand, so simple expressions carry no chain wrappers.

func normalizeExpr(e *exprNode) *Node {
	return normalizeCoalesce(e.Coalesce, e.Pos)
}

func normalizeCoalesce(c *coalesceNode, pos lexer.Position) *Node {
	first := normalizeOr(c.First, pos)
	if len(c.Rest) == 0 {
		return first
	}

	n := &Node{Kind: KindChain, Pos: pos, Items: []*Node{first}}
	for _, term := range c.Rest {
		n.Ops = append(n.Ops, "??")
		n.Items = append(n.Items, normalizeOr(term, pos))
	}

	return n
}

func normalizeOr(o *orNode, pos lexer.Position) *Node {
	first := normalizeAnd(o.First, pos)
	if len(o.Rest) == 0 {
		return first
	}

	n := &Node{Kind: KindChain, Pos: pos, Items: []*Node{first}}
	for _, term := range o.Rest {
		n.Ops = append(n.Ops, "||")
		n.Items = append(n.Items, normalizeAnd(term, pos))
	}

	return n
}

func normalizeAnd(a *andNode, pos lexer.Position) *Node {
	first := normalizeEquality(a.First, pos)
	if len(a.Rest) == 0 {
		return first
	}

	n := &Node{Kind: KindChain, Pos: pos, Items: []*Node{first}}
	for _, term := range a.Rest {
		n.Ops = append(n.Ops, "&&")
		n.Items = append(n.Items, normalizeEquality(term, pos))
	}

	return n
}

func normalizeEquality(e *equalityNode, pos lexer.Position) *Node {
	first := normalizeRelational(e.First, pos)
	if len(e.Rest) == 0 {
		return first
	}

	n := &Node{Kind: KindChain, Pos: pos, Items: []*Node{first}}
	for _, rhs := range e.Rest {
		n.Ops = append(n.Ops, rhs.Op)
		n.Items = append(n.Items, normalizeRelational(rhs.Term, pos))
	}

	return n
}

func normalizeRelational(r *relationalNode, pos lexer.Position) *Node {
	first := normalizeAdditive(r.First, pos)
	if len(r.Rest) == 0 {
		return first
	}

	n := &Node{Kind: KindChain, Pos: pos, Items: []*Node{first}}
	for _, rhs := range r.Rest {
		n.Ops = append(n.Ops, rhs.Op)
		n.Items = append(n.Items, normalizeAdditive(rhs.Term, pos))
	}

	return n
}

func normalizeAdditive(a *additiveNode, pos lexer.Position) *Node {
	first := normalizeMultiplicative(a.First, pos)
	if len(a.Rest) == 0 {
		return first
	}

	n := &Node{Kind: KindChain, Pos: pos, Items: []*Node{first}}
	for _, rhs := range a.Rest {
		n.Ops = append(n.Ops, rhs.Op)
		n.Items = append(n.Items, normalizeMultiplicative(rhs.Term, pos))
	}

	return n
}

func normalizeMultiplicative(m *multiplicativeNode, pos lexer.Position) *Node {
	first := normalizeUnary(m.First, pos)
	if len(m.Rest) == 0 {
		return first
	}

	n := &Node{Kind: KindChain, Pos: pos, Items: []*Node{first}}
	for _, rhs := range m.Rest {
		n.Ops = append(n.Ops, rhs.Op)
		n.Items = append(n.Items, normalizeUnary(rhs.Term, pos))
	}

	return n
}

func normalizeUnary(u *unaryNode, pos lexer.Position) *Node {
	if u.Op != "" {
		return &Node{
			Kind: KindUnary,
			Pos:  pos,
			Name: u.Op,
			X:    normalizeUnary(u.Next, pos),
		}
	}

	return normalizeTernary(u.Term, pos)
}

func normalizeTernary(t *ternaryNode, pos lexer.Position) *Node {
	cond := normalizePostfix(t.Cond)
	if t.Then == nil {
		return cond
	}

	return &Node{
		Kind: KindTernary,
		Pos:  pos,
		X:    cond,
		Y:    normalizeExpr(t.Then),
		Z:    normalizeExpr(t.Else),
	}
}

// normalizePostfix folds trailing member names into left-associative
// access nodes.
func normalizePostfix(p *postfixNode) *Node {
	base := normalizeAtom(p.Atom)
	for _, t := range p.Trail {
		base = &Node{Kind: KindGet, Pos: p.Atom.Pos, Name: t.Name, X: base}
	}

	return base
}

func normalizeAtom(a *atomNode) *Node {
	switch {
	case a.Number != nil:
		return &Node{Kind: KindNumber, Pos: a.Pos, Number: parseNumber(*a.Number)}
	case a.Str != nil:
		return &Node{Kind: KindString, Pos: a.Pos, Text: unquote(*a.Str)}
	case a.List != nil:
		items := make([]*Node, len(a.List.Items))
		for i, e := range a.List.Items {
			items[i] = normalizeExpr(e)
		}
		return &Node{Kind: KindList, Pos: a.Pos, Items: items}
	case a.Map != nil:
		keys, items := normalizePairs(a.Map.Pairs)
		return &Node{Kind: KindMap, Pos: a.Pos, Keys: keys, Items: items}
	case a.Call != nil:
		args := make([]*Node, len(a.Call.Args))
		for i, e := range a.Call.Args {
			args[i] = normalizeExpr(e)
		}

		// A call whose sole argument is a map literal is the third
		// surface form of a named invocation; unify it with commands.
		if len(args) == 1 && args[0].Kind == KindMap {
			return &Node{
				Kind:  KindCommand,
				Pos:   a.Pos,
				Name:  a.Call.Name,
				Keys:  args[0].Keys,
				Items: args[0].Items,
			}
		}

		return &Node{Kind: KindCall, Pos: a.Pos, Name: a.Call.Name, Items: args}
	case a.Ident != nil:
		return &Node{Kind: KindVar, Pos: a.Pos, Name: *a.Ident}
	default:
		return normalizeExpr(a.Sub)
	}
}

// parseNumber keeps integers integral; only a decimal point or exponent
// produces a float.
func parseNumber(s string) any {
	if strings.ContainsAny(s, ".eE") {
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}

	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}

	return i
}

// unquote strips the surrounding quotes from a string token and resolves
// backslash escapes. Unknown escapes keep the escaped character.
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}

	body := s[1 : len(s)-1]

	if !strings.ContainsRune(body, '\\') {
		return body
	}

	var buf strings.Builder
	buf.Grow(len(body))

	esc := false
	for _, ch := range body {
		if !esc {
			if ch == '\\' {
				esc = true
				continue
			}
			buf.WriteRune(ch)
			continue
		}

		esc = false
		switch ch {
		case 'n':
			buf.WriteRune('\n')
		case 't':
			buf.WriteRune('\t')
		case 'r':
			buf.WriteRune('\r')
		default:
			buf.WriteRune(ch)
		}
	}

	return buf.String()
}
