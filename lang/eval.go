package lang

import (
	"context"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/fluxion-lang/fluxion/log"
)

// scope is the execution context of one call frame: variable bindings
// plus the function table. The table is shared by reference across all
// frames of a run, so a later redefinition is visible to every call site.
type scope struct {
	vars  map[string]any
	funcs map[string]*Node
}

func newScope() *scope {
	return &scope{
		vars:  make(map[string]any),
		funcs: make(map[string]*Node),
	}
}

// child returns a fresh frame for a function call. It shares the function
// table but none of the caller's variable bindings.
func (s *scope) child() *scope {
	return &scope{
		vars:  make(map[string]any),
		funcs: s.funcs,
	}
}

// evaluator walks the normalized tree. It is single-threaded, eager, and
// recursive; host registry calls are the only blocking operations and
// receive the run's context.
type evaluator struct {
	reg Registry
	log log.Logger
}

// execBlock runs statements in order. The returned flag reports that a
// return statement fired, which unwinds through enclosing loops and
// blocks up to the nearest call or program boundary. When no return
// fires, value holds the last statement's value; script and function
// results ignore it, but interactive sessions surface it.
func (e *evaluator) execBlock(ctx context.Context, block *Node, sc *scope) (returned bool, value any, err error) {
	for _, stmt := range block.Items {
		returned, value, err = e.execStmt(ctx, stmt, sc)
		if returned || err != nil {
			return returned, value, err
		}
	}

	return false, value, nil
}

func (e *evaluator) execStmt(ctx context.Context, stmt *Node, sc *scope) (returned bool, value any, err error) {
	switch stmt.Kind {
	case KindAssign:
		v, err := e.eval(ctx, stmt.X, sc)
		if err != nil {
			return false, nil, err
		}
		sc.vars[stmt.Name] = v
		return false, nil, nil

	case KindReturn:
		var v any
		if stmt.X != nil {
			if v, err = e.eval(ctx, stmt.X, sc); err != nil {
				return false, nil, err
			}
		}
		return true, v, nil

	case KindIf:
		cond, err := e.eval(ctx, stmt.X, sc)
		if err != nil {
			return false, nil, err
		}
		if Truthy(cond) {
			return e.execBlock(ctx, stmt.Y, sc)
		}
		if stmt.Z != nil {
			return e.execBlock(ctx, stmt.Z, sc)
		}
		return false, nil, nil

	case KindFor:
		iterable, err := e.eval(ctx, stmt.X, sc)
		if err != nil {
			return false, nil, err
		}
		// The loop variable binds in the current frame and persists
		// after the loop.
		for _, elem := range iterate(iterable) {
			sc.vars[stmt.Name] = elem

			returned, value, err = e.execBlock(ctx, stmt.Y, sc)
			if returned || err != nil {
				return returned, value, err
			}
		}
		return false, nil, nil

	case KindFunc:
		sc.funcs[stmt.Name] = stmt
		return false, nil, nil

	case KindCommand:
		v, err := e.dispatchCommand(ctx, stmt, sc)
		return false, v, err

	default:
		v, err := e.eval(ctx, stmt, sc)
		return false, v, err
	}
}

func (e *evaluator) eval(ctx context.Context, n *Node, sc *scope) (any, error) {
	switch n.Kind {
	case KindNumber:
		return n.Number, nil

	case KindString:
		return e.interpolate(n.Text, sc), nil

	case KindVar:
		switch n.Name {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null", "nil":
			return nil, nil
		}
		// An unbound name is null, never an error.
		return sc.vars[n.Name], nil

	case KindList:
		items := make([]any, len(n.Items))
		for i, item := range n.Items {
			v, err := e.eval(ctx, item, sc)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return items, nil

	case KindMap:
		m := NewMap()
		for i, key := range n.Keys {
			v, err := e.eval(ctx, n.Items[i], sc)
			if err != nil {
				return nil, err
			}
			m.Set(key, v)
		}
		return m, nil

	case KindGet:
		base, err := e.eval(ctx, n.X, sc)
		if err != nil {
			return nil, err
		}
		return attr(base, n.Name), nil

	case KindCall:
		return e.dispatchCall(ctx, n, sc)

	case KindCommand:
		return e.dispatchCommand(ctx, n, sc)

	case KindChain:
		return e.evalChain(ctx, n, sc)

	case KindTernary:
		cond, err := e.eval(ctx, n.X, sc)
		if err != nil {
			return nil, err
		}
		if Truthy(cond) {
			return e.eval(ctx, n.Y, sc)
		}
		return e.eval(ctx, n.Z, sc)

	case KindUnary:
		return e.evalUnary(ctx, n, sc)

	default:
		return nil, ErrInternal.With(
			slog.String("kind", n.Kind.String()),
			slog.Any("pos", n.Pos),
		)
	}
}

// evalChain reduces an operand/operator chain left-to-right. Every
// operator in one chain node belongs to the same precedence level, so the
// first operator selects the reduction strategy for the whole chain.
func (e *evaluator) evalChain(ctx context.Context, n *Node, sc *scope) (any, error) {
	switch n.Ops[0] {
	case "??":
		value, err := e.eval(ctx, n.Items[0], sc)
		if err != nil {
			return nil, err
		}
		for _, item := range n.Items[1:] {
			if value != nil {
				return value, nil
			}
			if value, err = e.eval(ctx, item, sc); err != nil {
				return nil, err
			}
		}
		return value, nil

	case "||":
		value, err := e.eval(ctx, n.Items[0], sc)
		if err != nil {
			return nil, err
		}
		for _, item := range n.Items[1:] {
			if Truthy(value) {
				return value, nil
			}
			if value, err = e.eval(ctx, item, sc); err != nil {
				return nil, err
			}
		}
		return value, nil

	case "&&":
		value, err := e.eval(ctx, n.Items[0], sc)
		if err != nil {
			return nil, err
		}
		for _, item := range n.Items[1:] {
			if !Truthy(value) {
				return value, nil
			}
			if value, err = e.eval(ctx, item, sc); err != nil {
				return nil, err
			}
		}
		return value, nil

	case "==", "!=", "<", "<=", ">", ">=":
		// Pairwise chain: a<b<c holds only if every adjacent pair holds,
		// short-circuiting at the first failing pair.
		left, err := e.eval(ctx, n.Items[0], sc)
		if err != nil {
			return nil, err
		}
		for i, op := range n.Ops {
			right, err := e.eval(ctx, n.Items[i+1], sc)
			if err != nil {
				return nil, err
			}

			ok, err := compare(op, left, right)
			if err != nil {
				return nil, err
			}
			if !ok {
				return false, nil
			}

			left = right
		}
		return true, nil

	case "+", "-", "*", "/", "%":
		value, err := e.eval(ctx, n.Items[0], sc)
		if err != nil {
			return nil, err
		}
		for i, op := range n.Ops {
			rhs, err := e.eval(ctx, n.Items[i+1], sc)
			if err != nil {
				return nil, err
			}
			if value, err = arith(op, value, rhs); err != nil {
				return nil, err
			}
		}
		return value, nil

	default:
		return nil, ErrInternal.With(
			slog.String("op", n.Ops[0]),
			slog.Any("pos", n.Pos),
		)
	}
}

func (e *evaluator) evalUnary(ctx context.Context, n *Node, sc *scope) (any, error) {
	value, err := e.eval(ctx, n.X, sc)
	if err != nil {
		return nil, err
	}

	switch n.Name {
	case "!":
		return !Truthy(value), nil
	case "-":
		switch v := value.(type) {
		case int64:
			return -v, nil
		case float64:
			return -v, nil
		}
		return nil, ErrTypeMismatch.With(
			slog.String("op", "-"),
			slog.Any("operand", value),
		)
	case "+":
		switch value.(type) {
		case int64, float64:
			return value, nil
		}
		return nil, ErrTypeMismatch.With(
			slog.String("op", "+"),
			slog.Any("operand", value),
		)
	default:
		return nil, ErrInternal.With(slog.String("op", n.Name))
	}
}

// dispatchCall resolves a parenthesized call: the function table first,
// then the host registry, else null.
func (e *evaluator) dispatchCall(ctx context.Context, n *Node, sc *scope) (any, error) {
	args := make([]any, len(n.Items))
	for i, item := range n.Items {
		v, err := e.eval(ctx, item, sc)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	if fn, ok := sc.funcs[n.Name]; ok {
		return e.callFunction(ctx, fn, args, sc)
	}

	if e.reg != nil {
		if callable, ok := e.reg.Lookup(n.Name); ok {
			return e.hostCall(ctx, n.Name, callable, Invocation{Args: args})
		}
	}

	e.log.TraceContext(ctx, "unresolved call", slog.String("name", n.Name))

	return nil, nil
}

// dispatchCommand resolves a bare command. A user-defined function
// receives the named arguments bound to its parameters by name.
func (e *evaluator) dispatchCommand(ctx context.Context, n *Node, sc *scope) (any, error) {
	named := NewMap()
	for i, key := range n.Keys {
		v, err := e.eval(ctx, n.Items[i], sc)
		if err != nil {
			return nil, err
		}
		named.Set(key, v)
	}

	if fn, ok := sc.funcs[n.Name]; ok {
		args := make([]any, len(fn.Keys))
		for i, param := range fn.Keys {
			args[i], _ = named.Get(param)
		}
		return e.callFunction(ctx, fn, args, sc)
	}

	if e.reg != nil {
		if callable, ok := e.reg.Lookup(n.Name); ok {
			return e.hostCall(ctx, n.Name, callable, Invocation{Named: named})
		}
	}

	e.log.TraceContext(ctx, "unresolved command", slog.String("name", n.Name))

	return nil, nil
}

// callFunction runs a user-defined function body in a fresh child frame.
// Parameters bind positionally; missing arguments are null, extras are
// ignored. The body never sees the caller's locals.
func (e *evaluator) callFunction(ctx context.Context, fn *Node, args []any, sc *scope) (any, error) {
	frame := sc.child()
	for i, param := range fn.Keys {
		if i < len(args) {
			frame.vars[param] = args[i]
		} else {
			frame.vars[param] = nil
		}
	}

	returned, value, err := e.execBlock(ctx, fn.Y, frame)
	if err != nil {
		return nil, err
	}

	if !returned {
		return nil, nil
	}

	return value, nil
}

func (e *evaluator) hostCall(ctx context.Context, name string, callable Callable, inv Invocation) (any, error) {
	e.log.TraceContext(ctx, "host call", slog.String("name", name))

	value, err := callable(ctx, inv)
	if err != nil {
		return nil, ErrHostFault.Wrap(err).With(slog.String("name", name))
	}

	return value, nil
}

var interpRE = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// interpolate rescans a string literal for {{expr}} placeholders on each
// evaluation, so a literal inside a loop re-reads current bindings every
// iteration. A placeholder may hold a boolean/null keyword, a bound
// variable name, or a numeric literal; anything unresolved renders empty.
func (e *evaluator) interpolate(raw string, sc *scope) string {
	if !strings.Contains(raw, "{{") {
		return raw
	}

	return interpRE.ReplaceAllStringFunc(raw, func(m string) string {
		expr := strings.TrimSpace(m[2 : len(m)-2])

		switch expr {
		case "true":
			return "true"
		case "false":
			return "false"
		case "null", "nil":
			return ""
		}

		if v, ok := sc.vars[expr]; ok {
			return Format(v)
		}

		if i, err := strconv.ParseInt(expr, 10, 64); err == nil {
			return strconv.FormatInt(i, 10)
		}

		if f, err := strconv.ParseFloat(expr, 64); err == nil {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}

		return ""
	})
}

// compare implements one step of an equality/relational chain. Numbers
// compare across int and float; ordering is defined for numbers and for
// strings only.
func compare(op string, left, right any) (bool, error) {
	switch op {
	case "==":
		return valueEqual(left, right), nil
	case "!=":
		return !valueEqual(left, right), nil
	}

	if lf, _, ok := asFloat(left); ok {
		rf, _, rok := asFloat(right)
		if !rok {
			return false, ErrTypeMismatch.With(
				slog.String("op", op),
				slog.Any("left", left),
				slog.Any("right", right),
			)
		}
		return ordered(op, lf, rf), nil
	}

	if ls, ok := left.(string); ok {
		if rs, rok := right.(string); rok {
			return ordered(op, ls, rs), nil
		}
	}

	return false, ErrTypeMismatch.With(
		slog.String("op", op),
		slog.Any("left", left),
		slog.Any("right", right),
	)
}

func ordered[T int64 | float64 | string](op string, a, b T) bool {
	switch op {
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	default:
		return a >= b
	}
}

// arith applies one additive or multiplicative step. Integer operands
// stay integral except under division, which always yields a float.
// String + string concatenates; any other type mixture is a fault.
func arith(op string, left, right any) (any, error) {
	if op == "+" {
		if ls, ok := left.(string); ok {
			if rs, rok := right.(string); rok {
				return ls + rs, nil
			}
		}
	}

	lf, lFloat, lok := asFloat(left)
	rf, rFloat, rok := asFloat(right)

	if !lok || !rok {
		return nil, ErrTypeMismatch.With(
			slog.String("op", op),
			slog.Any("left", left),
			slog.Any("right", right),
		)
	}

	isFloat := lFloat || rFloat

	switch op {
	case "+":
		if isFloat {
			return lf + rf, nil
		}
		return left.(int64) + right.(int64), nil
	case "-":
		if isFloat {
			return lf - rf, nil
		}
		return left.(int64) - right.(int64), nil
	case "*":
		if isFloat {
			return lf * rf, nil
		}
		return left.(int64) * right.(int64), nil
	case "/":
		if rf == 0 {
			return nil, ErrDivisionByZero.With(slog.Any("left", left))
		}
		return lf / rf, nil
	case "%":
		if isFloat {
			if rf == 0 {
				return nil, ErrDivisionByZero.With(slog.Any("left", left))
			}
			return math.Mod(lf, rf), nil
		}
		ri := right.(int64)
		if ri == 0 {
			return nil, ErrDivisionByZero.With(slog.Any("left", left))
		}
		return left.(int64) % ri, nil
	default:
		return nil, ErrInternal.With(slog.String("op", op))
	}
}
