package macro

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-tcpp/tcpp/internal/cc/lexer"
)

func TestParseCommandLineMacro(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expected    Definition
		expectedErr error
	}{
		{name: "bare macro", input: "FOO", expected: Definition{Name: "FOO", Body: numTok("1")}},
		{name: "decimal value", input: "DEC=123", expected: Definition{Name: "DEC", Body: numTok("123")}},
		{name: "hex value", input: "HEX=0x2A", expected: Definition{Name: "HEX", Body: numTok("0x2A")}},
		{name: "octal value", input: "OCT=0755", expected: Definition{Name: "OCT", Body: numTok("0755")}},
		{name: "leading -D is tolerated", input: "-DBAR=7", expected: Definition{Name: "BAR", Body: numTok("7")}},
		{name: "leading underscore identifier", input: "__ANDROID__", expected: Definition{Name: "__ANDROID__", Body: numTok("1")}},
		{name: "invalid identifier", input: "1FOO=2", expectedErr: ErrInvalidMacroName},
		{name: "float value rejected", input: "FOO=1.5", expectedErr: ErrUnparsableValue},
		{name: "string value rejected", input: `FOO="bar"`, expectedErr: ErrUnparsableValue},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseCommandLineMacro(tc.input)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestParseCommandLineMacrosJoinsErrors(t *testing.T) {
	table := NewTable()
	err := ParseCommandLineMacros(table, []string{"FOO=1", "1BAD", "BAR=2"})
	assert.Error(t, err)

	_, ok := table.Lookup("FOO")
	assert.True(t, ok)
	_, ok = table.Lookup("BAR")
	assert.True(t, ok)
	_, ok = table.Lookup("1BAD")
	assert.False(t, ok)
}

func TestTableDefineUndefLookup(t *testing.T) {
	table := NewTable()
	assert.False(t, table.Defined("FOO"))

	table.Define(Definition{Name: "FOO", Body: numTok("42")})
	assert.True(t, table.Defined("FOO"))

	v, ok := table.IntValue("FOO")
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	table.Undef("FOO")
	assert.False(t, table.Defined("FOO"))
	_, ok = table.IntValue("FOO")
	assert.False(t, ok)
}

func TestIntValueForNonNumericBodyDefaultsToOne(t *testing.T) {
	table := NewTable()
	table.Define(Definition{Name: "GREETING", Body: []lexer.Token{{Kind: lexer.String, Lexeme: `"hi"`}}})

	v, ok := table.IntValue("GREETING")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestFunctionLikeDefinition(t *testing.T) {
	d := Definition{Name: "SQUARE", Params: []string{"x"}, Body: []lexer.Token{
		{Kind: lexer.Identifier, Lexeme: "x"},
	}}
	assert.True(t, d.IsFunctionLike())

	obj := Definition{Name: "PI", Body: numTok("3")}
	assert.False(t, obj.IsFunctionLike())
}

func numTok(v string) []lexer.Token {
	return []lexer.Token{{Kind: lexer.Number, Lexeme: v}}
}
