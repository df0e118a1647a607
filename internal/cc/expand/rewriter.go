// Package expand implements the macro-expansion rewriter: given a stream of
// raw tokens and a macro table, it produces the stream with every macro
// invocation replaced by its expansion, recursively, without aliasing the
// macro table's stored replacement tokens and without a real call stack.
package expand

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-tcpp/tcpp/internal/cc/lexer"
	"github.com/go-tcpp/tcpp/internal/cc/macro"
)

var (
	// ErrMacroArity is returned when a function-like macro invocation
	// supplies the wrong number of arguments, or never finds its closing
	// parenthesis.
	ErrMacroArity = errors.New("expand: macro argument mismatch")
	// ErrExpansionOverflow is returned when a single pull produces more
	// macro expansions than the configured safety limit, guarding against
	// pathological (though not self-recursive, since the active-name guard
	// already rules that out) expansion chains.
	ErrExpansionOverflow = errors.New("expand: macro expansion limit exceeded")
)

// maxExpansionsPerToken bounds the number of macro expansions performed
// while producing a single output token, as a backstop against runaway
// mutual-expansion chains that are not caught by the recursion guard (which
// only prevents a macro from expanding inside its own replacement).
const maxExpansionsPerToken = 100000

// TokenSource supplies the raw tokens the Rewriter expands. It returns
// false once no more tokens are available.
type TokenSource func() (lexer.Token, bool)

type queueItem struct {
	tok     lexer.Token
	isPop   bool
	popName string
}

// Rewriter pulls raw tokens from a TokenSource and yields the
// macro-expanded stream via Next.
type Rewriter struct {
	macros *macro.Table
	source TokenSource
	queue  []queueItem
	active map[string]bool
}

// NewRewriter returns a Rewriter expanding against macros, pulling raw
// tokens from source.
func NewRewriter(macros *macro.Table, source TokenSource) *Rewriter {
	return &Rewriter{macros: macros, source: source, active: make(map[string]bool)}
}

func (r *Rewriter) pullRaw() (queueItem, bool) {
	if len(r.queue) > 0 {
		item := r.queue[0]
		r.queue = r.queue[1:]
		return item, true
	}
	tok, ok := r.source()
	if !ok {
		return queueItem{}, false
	}
	return queueItem{tok: tok}, true
}

func (r *Rewriter) pushFront(items ...queueItem) {
	r.queue = append(items, r.queue...)
}

// Next returns the next expanded token, or false when the underlying
// source is exhausted.
func (r *Rewriter) Next() (lexer.Token, bool, error) {
	expansions := 0
	for {
		item, ok := r.pullRaw()
		if !ok {
			return lexer.Token{}, false, nil
		}
		if item.isPop {
			delete(r.active, item.popName)
			continue
		}
		tok := item.tok

		if isIdentLike(tok) && tok.Lexeme == "__LINE__" {
			return lexer.Token{Kind: lexer.Number, Lexeme: strconv.Itoa(tok.Line), Line: tok.Line}, true, nil
		}

		if !isIdentLike(tok) {
			return tok, true, nil
		}

		def, isMacro := r.macros.Lookup(tok.Lexeme)
		if !isMacro || r.active[tok.Lexeme] {
			return tok, true, nil
		}

		expansions++
		if expansions > maxExpansionsPerToken {
			return lexer.Token{}, false, ErrExpansionOverflow
		}

		var replacement []lexer.Token
		if def.IsFunctionLike() {
			args, matched, err := r.captureArgs(def)
			if err != nil {
				return lexer.Token{}, false, err
			}
			if !matched {
				return tok, true, nil
			}
			replacement = substitute(def, args)
		} else {
			replacement = def.Body
		}

		r.active[tok.Lexeme] = true
		items := make([]queueItem, 0, len(replacement)+1)
		for _, t := range replacement {
			items = append(items, queueItem{tok: t})
		}
		items = append(items, queueItem{isPop: true, popName: tok.Lexeme})
		r.pushFront(items...)
	}
}

func isIdentLike(tok lexer.Token) bool {
	return tok.Kind == lexer.Identifier || tok.Kind == lexer.Keyword
}

// captureArgs looks for a "(" immediately following a function-like macro
// name (horizontal/vertical whitespace is tolerated and swallowed, matching
// standard macro-call syntax) and, if found, captures its balanced argument
// list. If no "(" is found, the lookahead tokens are pushed back unchanged
// and matched is false: the macro name is then emitted as a plain token.
func (r *Rewriter) captureArgs(def macro.Definition) (args [][]lexer.Token, matched bool, err error) {
	var skipped []queueItem
	for {
		item, ok := r.pullRaw()
		if !ok {
			r.pushFront(skipped...)
			return nil, false, nil
		}
		if item.isPop {
			delete(r.active, item.popName)
			continue
		}
		if item.tok.Kind == lexer.Whitespace || item.tok.Kind == lexer.Newline {
			skipped = append(skipped, item)
			continue
		}
		if item.tok.Kind == lexer.Punctuator && item.tok.Lexeme == "(" {
			break
		}
		r.pushFront(append(skipped, item)...)
		return nil, false, nil
	}

	var cur []lexer.Token
	depth := 1
	for {
		item, ok := r.pullRaw()
		if !ok {
			return nil, false, fmt.Errorf("%w: unterminated call to %s", ErrMacroArity, def.Name)
		}
		if item.isPop {
			delete(r.active, item.popName)
			continue
		}
		tok := item.tok
		switch {
		case tok.Kind == lexer.Punctuator && tok.Lexeme == "(":
			depth++
			cur = append(cur, tok)
		case tok.Kind == lexer.Punctuator && tok.Lexeme == ")":
			depth--
			if depth == 0 {
				args = append(args, cur)
				goto captured
			}
			cur = append(cur, tok)
		case depth == 1 && tok.Kind == lexer.Punctuator && tok.Lexeme == ",":
			args = append(args, cur)
			cur = nil
		default:
			cur = append(cur, tok)
		}
	}

captured:
	// FOO() with zero declared parameters: a lone empty argument means no
	// arguments were actually supplied, not one empty one.
	if len(def.Params) == 0 && len(args) == 1 && allWhitespace(args[0]) {
		args = nil
	}

	if len(args) < len(def.Params) || (!def.Variadic && len(args) > len(def.Params)) {
		return nil, false, fmt.Errorf("%w: %s expects %d argument(s), got %d", ErrMacroArity, def.Name, len(def.Params), len(args))
	}
	return args, true, nil
}

func allWhitespace(tokens []lexer.Token) bool {
	for _, t := range tokens {
		if t.Kind != lexer.Whitespace && t.Kind != lexer.Newline {
			return false
		}
	}
	return true
}

// substitute builds a macro body's replacement token list, substituting
// each parameter reference with its captured argument and applying the
// stringize ("#param") operator where the body calls for it.
func substitute(def macro.Definition, args [][]lexer.Token) []lexer.Token {
	paramIndex := make(map[string]int, len(def.Params))
	for i, p := range def.Params {
		paramIndex[p] = i
	}

	var out []lexer.Token
	body := def.Body
	for i := 0; i < len(body); i++ {
		tok := body[i]

		if tok.Lexeme == "#" {
			j := i + 1
			for j < len(body) && body[j].Kind == lexer.Whitespace {
				j++
			}
			if j < len(body) && isIdentLike(body[j]) {
				if idx, isParam := paramIndex[body[j].Lexeme]; isParam {
					out = append(out, stringize(args[idx], tok.Line))
					i = j
					continue
				}
			}
			out = append(out, tok)
			continue
		}

		if isIdentLike(tok) {
			if idx, isParam := paramIndex[tok.Lexeme]; isParam {
				out = append(out, args[idx]...)
				continue
			}
		}

		out = append(out, tok)
	}
	return out
}

// stringize joins an argument's non-whitespace tokens with single spaces,
// producing raw text rather than a C-style quoted literal.
func stringize(argTokens []lexer.Token, line int) lexer.Token {
	var parts []string
	for _, t := range argTokens {
		if t.Kind == lexer.Whitespace || t.Kind == lexer.Newline {
			continue
		}
		parts = append(parts, t.Lexeme)
	}
	return lexer.Token{Kind: lexer.String, Lexeme: strings.Join(parts, " "), Line: line}
}
