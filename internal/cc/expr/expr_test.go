package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-tcpp/tcpp/internal/cc/lexer"
	"github.com/go-tcpp/tcpp/internal/cc/macro"
)

func tokenize(t *testing.T, src string) []lexer.Token {
	t.Helper()
	lx := lexer.NewLexerFromString(src)
	toks, err := lx.Tokenize()
	assert.NoError(t, err)
	// drop the trailing EOF marker; predicate parsing never expects one
	if len(toks) > 0 && toks[len(toks)-1].Kind == lexer.EOF {
		toks = toks[:len(toks)-1]
	}
	return toks
}

func TestEvaluateLiteralsAndIdentifiers(t *testing.T) {
	macros := macro.NewTable()
	macros.Define(macro.Definition{Name: "FOO", Body: []lexer.Token{{Kind: lexer.Number, Lexeme: "2"}}})

	testCases := []struct {
		name     string
		expr     string
		expected bool
	}{
		{"nonzero constant", "1", true},
		{"zero constant", "0", false},
		{"defined macro is truthy", "FOO", true},
		{"undefined macro is falsy", "BAR", false},
		{"defined() of defined macro", "defined(FOO)", true},
		{"defined() of undefined macro", "defined(BAR)", false},
		{"defined without parens", "defined FOO", true},
		{"negation", "!BAR", true},
		{"and short circuits false", "BAR && FOO", false},
		{"or finds true branch", "BAR || FOO", true},
		{"equality against derived value", "FOO == 2", true},
		{"inequality", "FOO != 2", false},
		{"comparison", "FOO > 1", true},
		{"parenthesized grouping", "!(BAR || 0)", true},
		{"precedence: && binds tighter than ||", "0 || FOO && 1", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Evaluate(tokenize(t, tc.expr), macros)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestParseRejectsTrailingGarbage(t *testing.T) {
	_, err := Parse(tokenize(t, "1 1"))
	assert.ErrorIs(t, err, ErrUnexpectedToken)
}

func TestParseRejectsUnterminatedExpression(t *testing.T) {
	_, err := Parse(tokenize(t, "1 &&"))
	assert.ErrorIs(t, err, ErrUnexpectedEOF)
}

func TestParseRejectsUnmatchedParen(t *testing.T) {
	_, err := Parse(tokenize(t, "(1"))
	assert.ErrorIs(t, err, ErrUnexpectedToken)
}

func TestStringRoundTrip(t *testing.T) {
	ast, err := Parse(tokenize(t, "defined(FOO) && !BAR"))
	assert.NoError(t, err)
	assert.Equal(t, "defined(FOO) && !(BAR)", ast.String())
}
