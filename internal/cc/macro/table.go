// Package macro holds the macro definition table: the set of object-like and
// function-like macros currently in scope, and the command-line ("-D style")
// definition syntax used to seed it before preprocessing begins.
package macro

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-tcpp/tcpp/internal/cc/lexer"
)

// Definition is one macro's identity and replacement list. Params is nil for
// an object-like macro; for a function-like macro (even one declared with an
// empty parameter list, e.g. "FOO()") it is non-nil.
type Definition struct {
	Name     string
	Params   []string
	Variadic bool
	Body     []lexer.Token
}

// IsFunctionLike reports whether the macro was declared with a parameter
// list, as opposed to a plain object-like substitution.
func (d Definition) IsFunctionLike() bool { return d.Params != nil }

// Table is the set of macros currently defined, keyed by name.
type Table struct {
	defs map[string]Definition
}

// NewTable returns an empty macro table.
func NewTable() *Table {
	return &Table{defs: make(map[string]Definition)}
}

// Define installs or replaces a macro definition.
func (t *Table) Define(d Definition) {
	t.defs[d.Name] = d
}

// Undef removes a macro definition. Undefining a name that is not currently
// defined is a no-op, matching standard #undef semantics.
func (t *Table) Undef(name string) {
	delete(t.defs, name)
}

// Lookup returns the definition for name and whether it is defined.
func (t *Table) Lookup(name string) (Definition, bool) {
	d, ok := t.defs[name]
	return d, ok
}

// Defined reports whether name currently has a definition, for use by
// "defined(X)" predicates.
func (t *Table) Defined(name string) bool {
	_, ok := t.defs[name]
	return ok
}

// IntValue derives a best-effort numeric value for a macro used inside a
// comparison expression: a replacement that is exactly one Number token
// evaluates to that token's value; any other defined macro evaluates to 1.
func (t *Table) IntValue(name string) (int, bool) {
	d, ok := t.defs[name]
	if !ok {
		return 0, false
	}
	if len(d.Body) == 1 && d.Body[0].Kind == lexer.Number {
		if v, err := parseIntLiteral(d.Body[0].Lexeme); err == nil {
			return v, true
		}
	}
	return 1, true
}

// ErrInvalidMacroName is returned by ParseCommandLineMacro when the name
// portion of a "-D" definition is not a valid identifier.
var ErrInvalidMacroName = errors.New("macro: invalid macro name")

// ErrUnparsableValue is returned by ParseCommandLineMacro when the value
// portion of a "-D NAME=VALUE" definition is not an integer literal.
var ErrUnparsableValue = errors.New("macro: value is not an integer literal")

var (
	identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	integerRegex    = regexp.MustCompile(`^(?:0[xX][0-9a-fA-F]+|0[0-7]*|[1-9][0-9]*)(?:[uU](?:ll?|LL?)?|ll?[uU]?|LL?[uU]?)?$`)
)

// ParseCommandLineMacro parses a single "-D" style definition such as
// "FOO", "FOO=1", or "-DBAR=0x2A" into a Definition with an object-like,
// single-Number-token body.
func ParseCommandLineMacro(definition string) (Definition, error) {
	definition = strings.TrimPrefix(definition, "-D")
	name, value := definition, ""
	if eq := strings.Index(definition, "="); eq >= 0 {
		name, value = definition[:eq], definition[eq+1:]
	}

	if !identifierRegex.MatchString(name) {
		return Definition{}, fmt.Errorf("%w: %q", ErrInvalidMacroName, name)
	}

	if value == "" {
		value = "1"
	} else if !integerRegex.MatchString(value) {
		return Definition{}, fmt.Errorf("%w: %s=%s", ErrUnparsableValue, name, value)
	}

	return Definition{Name: name, Body: []lexer.Token{{Kind: lexer.Number, Lexeme: value, Line: 0}}}, nil
}

// ParseCommandLineMacros parses a batch of "-D" style definitions, seeding t
// with every one that parses successfully and joining every failure into a
// single returned error.
func ParseCommandLineMacros(t *Table, definitions []string) error {
	var errs []error
	for _, d := range definitions {
		def, err := ParseCommandLineMacro(d)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to parse %q: %w", d, err))
			continue
		}
		t.Define(def)
	}
	return errors.Join(errs...)
}

func parseIntLiteral(tok string) (int, error) {
	tok = strings.TrimRightFunc(tok, func(r rune) bool {
		return r == 'u' || r == 'U' || r == 'l' || r == 'L'
	})
	v, err := strconv.ParseInt(tok, 0, 64)
	return int(v), err
}
