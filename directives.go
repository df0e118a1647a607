package tcpp

import (
	"strings"

	"github.com/go-tcpp/tcpp/internal/cc/lexer"
	"github.com/go-tcpp/tcpp/internal/cc/macro"
)

// trimWhitespace drops leading and trailing Whitespace/Newline tokens.
func trimWhitespace(tokens []lexer.Token) []lexer.Token {
	start := 0
	for start < len(tokens) && isSpaceTok(tokens[start]) {
		start++
	}
	end := len(tokens)
	for end > start && isSpaceTok(tokens[end-1]) {
		end--
	}
	return tokens[start:end]
}

func isSpaceTok(t lexer.Token) bool {
	return t.Kind == lexer.Whitespace || t.Kind == lexer.Newline
}

// firstIdentifier returns the Lexeme of the first Identifier/Keyword token
// in tokens, skipping leading whitespace.
func firstIdentifier(tokens []lexer.Token) (string, bool) {
	for _, t := range tokens {
		if isSpaceTok(t) {
			continue
		}
		if t.Kind == lexer.Identifier || t.Kind == lexer.Keyword {
			return t.Lexeme, true
		}
		return "", false
	}
	return "", false
}

// parseDefine parses the token list following a "#define" keyword into a
// macro.Definition. rest excludes the "define" keyword token itself.
func parseDefine(rest []lexer.Token) (macro.Definition, error) {
	rest = dropLeadingSpace(rest)
	if len(rest) == 0 || (rest[0].Kind != lexer.Identifier && rest[0].Kind != lexer.Keyword) {
		return macro.Definition{}, ErrMalformedDefine
	}
	name := rest[0].Lexeme
	rest = rest[1:]

	// A "(" immediately following the name (no intervening whitespace)
	// marks a function-like macro; anything else, including whitespace,
	// means object-like.
	if len(rest) > 0 && rest[0].Kind == lexer.Punctuator && rest[0].Lexeme == "(" {
		params, variadic, remainder, err := parseParams(rest[1:])
		if err != nil {
			return macro.Definition{}, err
		}
		if params == nil {
			params = []string{}
		}
		body := trimWhitespace(remainder)
		return macro.Definition{Name: name, Params: params, Variadic: variadic, Body: body}, nil
	}

	body := trimWhitespace(dropLeadingSpace(rest))
	return macro.Definition{Name: name, Body: body}, nil
}

func dropLeadingSpace(tokens []lexer.Token) []lexer.Token {
	i := 0
	for i < len(tokens) && isSpaceTok(tokens[i]) {
		i++
	}
	return tokens[i:]
}

// parseParams parses a function-like macro's parameter list, tokens
// starting right after the opening "(". It returns the parsed parameter
// names, whether the list ends in a "..." variadic marker, and the tokens
// remaining after the closing ")".
func parseParams(tokens []lexer.Token) (params []string, variadic bool, remainder []lexer.Token, err error) {
	for {
		tokens = dropLeadingSpace(tokens)
		if len(tokens) == 0 {
			return nil, false, nil, ErrMalformedDefine
		}
		if tokens[0].Kind == lexer.Punctuator && tokens[0].Lexeme == ")" {
			return params, variadic, tokens[1:], nil
		}
		if isDotDotDot(tokens) {
			variadic = true
			tokens = dropLeadingSpace(tokens[3:])
			if len(tokens) == 0 || tokens[0].Kind != lexer.Punctuator || tokens[0].Lexeme != ")" {
				return nil, false, nil, ErrMalformedDefine
			}
			return params, variadic, tokens[1:], nil
		}
		if tokens[0].Kind != lexer.Identifier {
			return nil, false, nil, ErrMalformedDefine
		}
		params = append(params, tokens[0].Lexeme)
		tokens = dropLeadingSpace(tokens[1:])
		if len(tokens) == 0 {
			return nil, false, nil, ErrMalformedDefine
		}
		switch {
		case tokens[0].Kind == lexer.Punctuator && tokens[0].Lexeme == ",":
			tokens = tokens[1:]
		case tokens[0].Kind == lexer.Punctuator && tokens[0].Lexeme == ")":
			// loop will consume it on next iteration
		default:
			return nil, false, nil, ErrMalformedDefine
		}
	}
}

func isDotDotDot(tokens []lexer.Token) bool {
	if len(tokens) < 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if tokens[i].Kind != lexer.Punctuator || tokens[i].Lexeme != "." {
			return false
		}
	}
	return true
}

// parseInclude extracts the target path and whether it is an angle-bracket
// ("system") include from the tokens following "#include".
func parseInclude(rest []lexer.Token) (path string, isSystem bool, err error) {
	rest = dropLeadingSpace(rest)
	if len(rest) == 0 {
		return "", false, ErrMalformedInclude
	}
	if rest[0].Kind == lexer.String {
		return strings.Trim(rest[0].Lexeme, `"`), false, nil
	}
	if rest[0].Kind == lexer.Punctuator && rest[0].Lexeme == "<" {
		var b strings.Builder
		for _, t := range rest[1:] {
			if t.Kind == lexer.Punctuator && t.Lexeme == ">" {
				return b.String(), true, nil
			}
			b.WriteString(t.Lexeme)
		}
		return "", false, ErrMalformedInclude
	}
	return "", false, ErrMalformedInclude
}
