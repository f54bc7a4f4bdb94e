package lang

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// The grammar is line-oriented: statements are separated by newlines, and
// blocks use braces. The lexer folds consecutive newlines into a single
// EOL token and elides horizontal whitespace and comments.
var scriptLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "String", Pattern: `"(\\.|[^"\\])*"|'(\\.|[^'\\])*'`},
	{Name: "Number", Pattern: `[0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "EOL", Pattern: `(\r?\n)+`},
	{Name: "Op", Pattern: `\?\?|\|\||&&|==|!=|<=|>=`},
	{Name: "Punct", Pattern: `[-+*/%<>!?=:,.(){}\[\]]`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

// scriptParser is built once at package load. Statement alternatives are
// ordered so keyword-led forms match first, then commands (Ident followed
// by a map literal), then assignments (Ident "="), with expressions as
// the catch-all. The generous lookahead lets the parser back out of a
// partially matched alternative, which is what disambiguates a bare
// command from an expression statement beginning with the same name.
var scriptParser = participle.MustBuild[programNode](
	participle.Lexer(scriptLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(1024),
)

// parseSource parses desugared source text into the concrete syntax tree.
func parseSource(filename, source string) (*programNode, error) {
	prog, err := scriptParser.ParseString(filename, source)
	if err != nil {
		return nil, NewParseError(err, source)
	}

	return prog, nil
}

// Concrete syntax tree. These types mirror the grammar exactly and are
// discarded after normalization into Node.

type programNode struct {
	Statements []*statementNode `parser:"EOL* ( @@ ( EOL+ @@ )* EOL* )?"`
}

type statementNode struct {
	Pos lexer.Position

	Let     *letNode     `parser:"  @@"`
	Return  *returnNode  `parser:"| @@"`
	If      *ifNode      `parser:"| @@"`
	For     *forNode     `parser:"| @@"`
	Func    *funcNode    `parser:"| @@"`
	Command *commandNode `parser:"| @@"`
	Assign  *assignNode  `parser:"| @@"`
	Expr    *exprNode    `parser:"| @@"`
}

type letNode struct {
	Name string    `parser:"'let' @Ident"`
	Expr *exprNode `parser:"'=' @@"`
}

type assignNode struct {
	Name string    `parser:"@Ident"`
	Expr *exprNode `parser:"'=' @@"`
}

type returnNode struct {
	Pos  lexer.Position
	Expr *exprNode `parser:"'return' @@?"`
}

type ifNode struct {
	Cond *exprNode  `parser:"'if' @@"`
	Then *blockNode `parser:"@@"`
	Else *blockNode `parser:"( 'else' @@ )?"`
}

type forNode struct {
	Name     string     `parser:"'for' @Ident"`
	Iterable *exprNode  `parser:"'in' @@"`
	Body     *blockNode `parser:"@@"`
}

type funcNode struct {
	Name   string     `parser:"'func' @Ident"`
	Params []string   `parser:"'(' ( @Ident ( ',' @Ident )* )? ')'"`
	Body   *blockNode `parser:"@@"`
}

type blockNode struct {
	Statements []*statementNode `parser:"'{' EOL* ( @@ ( EOL+ @@ )* EOL* )? '}'"`
}

type commandNode struct {
	Name string      `parser:"@Ident"`
	Args *mapLitNode `parser:"@@"`
}

// Expression productions, lowest to highest precedence.

type exprNode struct {
	Pos      lexer.Position
	Coalesce *coalesceNode `parser:"@@"`
}

type coalesceNode struct {
	First *orNode   `parser:"@@"`
	Rest  []*orNode `parser:"( '??' @@ )*"`
}

type orNode struct {
	First *andNode   `parser:"@@"`
	Rest  []*andNode `parser:"( ( '||' | 'or' ) @@ )*"`
}

type andNode struct {
	First *equalityNode   `parser:"@@"`
	Rest  []*equalityNode `parser:"( ( '&&' | 'and' ) @@ )*"`
}

type equalityNode struct {
	First *relationalNode `parser:"@@"`
	Rest  []*equalityRHS  `parser:"@@*"`
}

type equalityRHS struct {
	Op   string          `parser:"@( '==' | '!=' )"`
	Term *relationalNode `parser:"@@"`
}

type relationalNode struct {
	First *additiveNode    `parser:"@@"`
	Rest  []*relationalRHS `parser:"@@*"`
}

type relationalRHS struct {
	Op   string        `parser:"@( '<=' | '>=' | '<' | '>' )"`
	Term *additiveNode `parser:"@@"`
}

type additiveNode struct {
	First *multiplicativeNode `parser:"@@"`
	Rest  []*additiveRHS      `parser:"@@*"`
}

type additiveRHS struct {
	Op   string              `parser:"@( '+' | '-' )"`
	Term *multiplicativeNode `parser:"@@"`
}

type multiplicativeNode struct {
	First *unaryNode           `parser:"@@"`
	Rest  []*multiplicativeRHS `parser:"@@*"`
}

type multiplicativeRHS struct {
	Op   string     `parser:"@( '*' | '/' | '%' )"`
	Term *unaryNode `parser:"@@"`
}

type unaryNode struct {
	Op   string       `parser:"( @( '!' | '-' | '+' )"`
	Next *unaryNode   `parser:"  @@ )"`
	Term *ternaryNode `parser:"| @@"`
}

type ternaryNode struct {
	Cond *postfixNode `parser:"@@"`
	Then *exprNode    `parser:"( '?' @@"`
	Else *exprNode    `parser:"  ':' @@ )?"`
}

type postfixNode struct {
	Atom  *atomNode      `parser:"@@"`
	Trail []*trailerNode `parser:"@@*"`
}

type trailerNode struct {
	Name string `parser:"'.' @( Ident | Number )"`
}

type atomNode struct {
	Pos lexer.Position

	Number *string     `parser:"  @Number"`
	Str    *string     `parser:"| @String"`
	List   *listNode   `parser:"| @@"`
	Map    *mapLitNode `parser:"| @@"`
	Call   *callNode   `parser:"| @@"`
	Ident  *string     `parser:"| @Ident"`
	Sub    *exprNode   `parser:"| '(' @@ ')'"`
}

type listNode struct {
	Items []*exprNode `parser:"'[' EOL* ( @@ ( ',' EOL* @@ )* )? EOL* ']'"`
}

type mapLitNode struct {
	Pairs []*pairNode `parser:"'{' EOL* ( @@ ( ',' EOL* @@ )* )? EOL* '}'"`
}

type pairNode struct {
	Key   string    `parser:"@( Ident | String )"`
	Value *exprNode `parser:"':' @@"`
}

type callNode struct {
	Name string      `parser:"@Ident"`
	Args []*exprNode `parser:"'(' ( @@ ( ',' @@ )* )? ')'"`
}
