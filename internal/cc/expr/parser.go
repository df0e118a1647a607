package expr

import (
	"fmt"
	"strconv"

	"github.com/go-tcpp/tcpp/internal/cc/lexer"
)

// precedence levels for the Pratt parser, lowest to highest binding power.
type precedence int

const (
	precedenceLowest precedence = iota
	precedenceOr                // ||
	precedenceAnd               // &&
	precedenceCompare           // ==, !=, <, <=, >, >=
	precedenceBang              // ! (prefix)
	precedenceParens            // (
)

var comparePrecedence = map[string]precedence{
	"==": precedenceCompare, "!=": precedenceCompare,
	"<": precedenceCompare, "<=": precedenceCompare,
	">": precedenceCompare, ">=": precedenceCompare,
}

// fuseOperators merges adjacent single-character punctuators emitted by the
// core lexer (which only ever produces single-char punctuators, per its
// data model) into the two-character operators this grammar needs: ==, !=,
// <=, >=, &&, ||. Whitespace and newline tokens are dropped entirely since
// they carry no meaning inside a predicate.
func fuseOperators(tokens []lexer.Token) []lexer.Token {
	var out []lexer.Token
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.Kind == lexer.Whitespace || tok.Kind == lexer.Newline {
			continue
		}
		if tok.Kind == lexer.Punctuator && i+1 < len(tokens) && tokens[i+1].Kind == lexer.Punctuator {
			pair := tok.Lexeme + tokens[i+1].Lexeme
			switch pair {
			case "==", "!=", "<=", ">=", "&&", "||":
				out = append(out, lexer.Token{Kind: lexer.Punctuator, Lexeme: pair, Line: tok.Line})
				i++
				continue
			}
		}
		out = append(out, tok)
	}
	return out
}

// tokenStream is a one-token-lookahead cursor over a fused token slice.
type tokenStream struct {
	tokens []lexer.Token
	pos    int
}

func (s *tokenStream) peek() (lexer.Token, bool) {
	if s.pos >= len(s.tokens) {
		return lexer.Token{}, false
	}
	return s.tokens[s.pos], true
}

func (s *tokenStream) next() (lexer.Token, bool) {
	tok, ok := s.peek()
	if ok {
		s.pos++
	}
	return tok, ok
}

// Parse parses a full #if/#elif predicate token list (raw, unfused, possibly
// including whitespace) into an Expr tree.
func Parse(tokens []lexer.Token) (Expr, error) {
	s := &tokenStream{tokens: fuseOperators(tokens)}
	e, err := parsePrecedence(s, precedenceLowest)
	if err != nil {
		return nil, err
	}
	if tok, ok := s.peek(); ok {
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedToken, tok.Lexeme)
	}
	return e, nil
}

func parsePrecedence(s *tokenStream, min precedence) (Expr, error) {
	left, err := parsePrefix(s)
	if err != nil {
		return nil, err
	}

	for {
		tok, ok := s.peek()
		if !ok {
			break
		}
		if tok.Kind != lexer.Punctuator {
			break
		}
		switch tok.Lexeme {
		case "||":
			if precedenceOr < min {
				return left, nil
			}
			s.next()
			right, err := parsePrecedence(s, precedenceOr+1)
			if err != nil {
				return nil, err
			}
			left = Or{L: left, R: right}
		case "&&":
			if precedenceAnd < min {
				return left, nil
			}
			s.next()
			right, err := parsePrecedence(s, precedenceAnd+1)
			if err != nil {
				return nil, err
			}
			left = And{L: left, R: right}
		case "==", "!=", "<", "<=", ">", ">=":
			if comparePrecedence[tok.Lexeme] < min {
				return left, nil
			}
			s.next()
			right, err := parsePrecedence(s, precedenceCompare+1)
			if err != nil {
				return nil, err
			}
			left = Compare{Left: left, Op: tok.Lexeme, Right: right}
		default:
			return left, nil
		}
	}
	return left, nil
}

func parsePrefix(s *tokenStream) (Expr, error) {
	tok, ok := s.next()
	if !ok {
		return nil, ErrUnexpectedEOF
	}

	switch {
	case tok.Kind == lexer.Punctuator && tok.Lexeme == "!":
		inner, err := parsePrecedence(s, precedenceBang+1)
		if err != nil {
			return nil, err
		}
		return Not{X: inner}, nil

	case tok.Kind == lexer.Punctuator && tok.Lexeme == "(":
		inner, err := parsePrecedence(s, precedenceLowest+1)
		if err != nil {
			return nil, err
		}
		if close, ok := s.next(); !ok || close.Kind != lexer.Punctuator || close.Lexeme != ")" {
			return nil, fmt.Errorf("%w: expected ')'", ErrUnexpectedToken)
		}
		return inner, nil

	case tok.Kind == lexer.Keyword && tok.Lexeme == "defined", tok.Kind == lexer.Identifier && tok.Lexeme == "defined":
		return parseDefined(s)

	case tok.Kind == lexer.Identifier || tok.Kind == lexer.Keyword:
		return Ident(tok.Lexeme), nil

	case tok.Kind == lexer.Number:
		v, err := strconv.ParseInt(tok.Lexeme, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid integer literal %q", ErrUnexpectedToken, tok.Lexeme)
		}
		return ConstantInt(v), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedToken, tok.Lexeme)
	}
}

// parseDefined parses both defined(X) and defined X forms, the token
// "defined" itself already consumed.
func parseDefined(s *tokenStream) (Expr, error) {
	hasParen := false
	if tok, ok := s.peek(); ok && tok.Kind == lexer.Punctuator && tok.Lexeme == "(" {
		hasParen = true
		s.next()
	}
	name, ok := s.next()
	if !ok || (name.Kind != lexer.Identifier && name.Kind != lexer.Keyword) {
		return nil, fmt.Errorf("%w: expected identifier after 'defined'", ErrUnexpectedToken)
	}
	if hasParen {
		if close, ok := s.next(); !ok || close.Kind != lexer.Punctuator || close.Lexeme != ")" {
			return nil, fmt.Errorf("%w: expected ')' after defined(%s", ErrUnexpectedToken, name.Lexeme)
		}
	}
	return Defined{Name: name.Lexeme}, nil
}
