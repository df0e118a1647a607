// Package expr implements the boolean/comparison predicate grammar accepted
// by #if and #elif: integer literals, identifiers (evaluated against a macro
// table), defined(X), !, &&, ||, and the six comparison operators. This is a
// conforming extension of the minimal literal/identifier grammar — plain
// macro truthiness still works exactly as before, richer predicates just
// also parse.
package expr

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-tcpp/tcpp/internal/cc/lexer"
	"github.com/go-tcpp/tcpp/internal/cc/macro"
)

// Expr is one node of a parsed #if/#elif predicate.
type Expr interface {
	fmt.Stringer
	Eval(macros *macro.Table) (int, error)
}

type (
	// Defined is the defined(X) / defined X operator.
	Defined struct{ Name string }
	// Not is logical negation: !X.
	Not struct{ X Expr }
	// And is logical conjunction: X && Y, short-circuiting.
	And struct{ L, R Expr }
	// Or is logical disjunction: X || Y, short-circuiting.
	Or struct{ L, R Expr }
	// Compare is a binary comparison: X <op> Y.
	Compare struct {
		Left  Expr
		Op    string
		Right Expr
	}
	// Ident is a bare macro identifier used as a value.
	Ident string
	// ConstantInt is an integer literal.
	ConstantInt int
)

func (e Defined) String() string     { return fmt.Sprintf("defined(%s)", e.Name) }
func (e Not) String() string         { return "!(" + e.X.String() + ")" }
func (e And) String() string         { return e.L.String() + " && " + e.R.String() }
func (e Or) String() string          { return e.L.String() + " || " + e.R.String() }
func (e Compare) String() string     { return fmt.Sprintf("%s %s %s", e.Left, e.Op, e.Right) }
func (e Ident) String() string       { return string(e) }
func (e ConstantInt) String() string { return strconv.Itoa(int(e)) }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Eval implementations.

func (e Defined) Eval(macros *macro.Table) (int, error) {
	return boolToInt(macros.Defined(e.Name)), nil
}

func (e Not) Eval(macros *macro.Table) (int, error) {
	v, err := e.X.Eval(macros)
	if err != nil {
		return 0, err
	}
	return boolToInt(v == 0), nil
}

func (e And) Eval(macros *macro.Table) (int, error) {
	lv, err := e.L.Eval(macros)
	if err != nil || lv == 0 {
		return 0, err
	}
	rv, err := e.R.Eval(macros)
	if err != nil {
		return 0, err
	}
	return boolToInt(rv != 0), nil
}

func (e Or) Eval(macros *macro.Table) (int, error) {
	lv, err := e.L.Eval(macros)
	if err != nil {
		return 0, err
	}
	if lv != 0 {
		return 1, nil
	}
	rv, err := e.R.Eval(macros)
	if err != nil {
		return 0, err
	}
	return boolToInt(rv != 0), nil
}

func (e Compare) Eval(macros *macro.Table) (int, error) {
	lv, err := e.Left.Eval(macros)
	if err != nil {
		return 0, err
	}
	rv, err := e.Right.Eval(macros)
	if err != nil {
		return 0, err
	}
	switch e.Op {
	case "==":
		return boolToInt(lv == rv), nil
	case "!=":
		return boolToInt(lv != rv), nil
	case "<":
		return boolToInt(lv < rv), nil
	case "<=":
		return boolToInt(lv <= rv), nil
	case ">":
		return boolToInt(lv > rv), nil
	case ">=":
		return boolToInt(lv >= rv), nil
	default:
		return 0, fmt.Errorf("expr: unknown comparison operator %q", e.Op)
	}
}

func (e Ident) Eval(macros *macro.Table) (int, error) {
	if v, ok := macros.IntValue(string(e)); ok {
		return v, nil
	}
	return 0, nil
}

func (e ConstantInt) Eval(*macro.Table) (int, error) { return int(e), nil }

// Evaluate parses and evaluates a full predicate token list, returning
// whether it is truthy.
func Evaluate(tokens []lexer.Token, macros *macro.Table) (bool, error) {
	ast, err := Parse(tokens)
	if err != nil {
		return false, err
	}
	// A predicate that is a single identifier is true iff it is defined,
	// whatever its replacement's value.
	if id, ok := ast.(Ident); ok {
		return macros.Defined(string(id)), nil
	}
	v, err := ast.Eval(macros)
	if err != nil {
		return false, fmt.Errorf("expr: failed to evaluate %s: %w", ast, err)
	}
	return v != 0, nil
}

// ErrUnexpectedToken is returned when the parser encounters a token it
// cannot place in the grammar.
var ErrUnexpectedToken = errors.New("expr: unexpected token")

// ErrUnexpectedEOF is returned when the predicate ends mid-expression.
var ErrUnexpectedEOF = errors.New("expr: unexpected end of expression")
