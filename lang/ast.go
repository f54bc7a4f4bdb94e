package lang

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Kind discriminates the variants of Node.
type Kind int

const (
	KindBlock   Kind = iota // statement sequence
	KindNumber              // int64 or float64 literal
	KindString              // string literal, interpolation intact
	KindVar                 // variable reference
	KindList                // list literal
	KindMap                 // map literal
	KindGet                 // member access base.name
	KindCall                // parenthesized call name(args...)
	KindCommand             // bare command name { key: value, ... }
	KindAssign              // let binding or reassignment
	KindReturn              // return statement
	KindIf                  // conditional with optional else
	KindFor                 // for name in iterable
	KindFunc                // function definition
	KindChain               // operand/operator chain at one precedence level
	KindTernary             // cond ? then : else
	KindUnary               // prefix operator
)

var kindName = [...]string{
	KindBlock:   "block",
	KindNumber:  "number",
	KindString:  "string",
	KindVar:     "var",
	KindList:    "list",
	KindMap:     "map",
	KindGet:     "get",
	KindCall:    "call",
	KindCommand: "command",
	KindAssign:  "assign",
	KindReturn:  "return",
	KindIf:      "if",
	KindFor:     "for",
	KindFunc:    "func",
	KindChain:   "chain",
	KindTernary: "ternary",
	KindUnary:   "unary",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if int(k) < len(kindName) {
		return kindName[k]
	}
	return "unknown"
}

// Node is the single tagged variant of the evaluated tree. Which fields
// are meaningful depends on Kind:
//
//	Block:   Items statements
//	Number:  Number (int64 or float64)
//	String:  Text
//	Var:     Name
//	List:    Items elements
//	Map:     Keys and Items in parallel, insertion order
//	Get:     X base, Name member
//	Call:    Name, Items positional arguments
//	Command: Name, Keys and Items named arguments
//	Assign:  Name, X expression
//	Return:  X expression (nil for bare return)
//	If:      X condition, Y then block, Z else block (nil when absent)
//	For:     Name loop variable, X iterable, Y body block
//	Func:    Name, Keys parameters, Y body block
//	Chain:   Items operands, Ops operators (len(Ops) == len(Items)-1)
//	Ternary: X condition, Y then, Z else
//	Unary:   Name operator, X operand
//
// Nodes are built once by the normalizer and never mutated, so a compiled
// script is safe for concurrent runs.
type Node struct {
	Kind Kind
	Pos  lexer.Position

	Number any
	Text   string
	Name   string
	Keys   []string
	Items  []*Node
	Ops    []string
	X      *Node
	Y      *Node
	Z      *Node
}

// String renders a compact s-expression form of the node, used by trace
// logging and tests.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}

	var buf strings.Builder

	n.write(&buf)

	return buf.String()
}

func (n *Node) write(buf *strings.Builder) {
	switch n.Kind {
	case KindNumber:
		buf.WriteString(Format(n.Number))
	case KindString:
		buf.WriteString(`"` + n.Text + `"`)
	case KindVar:
		buf.WriteString(n.Name)
	default:
		buf.WriteByte('(')
		buf.WriteString(n.Kind.String())

		if n.Name != "" {
			buf.WriteByte(' ')
			buf.WriteString(n.Name)
		}

		for i, item := range n.Items {
			buf.WriteByte(' ')
			if i < len(n.Keys) {
				buf.WriteString(n.Keys[i] + ":")
			}
			if i > 0 && i-1 < len(n.Ops) {
				buf.WriteString(n.Ops[i-1] + " ")
			}
			item.write(buf)
		}

		for _, sub := range []*Node{n.X, n.Y, n.Z} {
			if sub != nil {
				buf.WriteByte(' ')
				sub.write(buf)
			}
		}

		buf.WriteByte(')')
	}
}
