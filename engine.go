// Package tcpp implements a C-style source preprocessing engine: object-like
// and function-like macro expansion, nested conditional compilation, and
// #include dispatch, driven entirely through pluggable InputStream and
// IncludeResolver collaborators so it never assumes a real filesystem.
package tcpp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-tcpp/tcpp/internal/cc/cond"
	"github.com/go-tcpp/tcpp/internal/cc/expand"
	"github.com/go-tcpp/tcpp/internal/cc/expr"
	"github.com/go-tcpp/tcpp/internal/cc/lexer"
	"github.com/go-tcpp/tcpp/internal/cc/macro"
)

// IncludeResolver resolves a #include target to an InputStream. isSystem is
// true for an angle-bracket include ("<path>"), false for a quoted one
// ("\"path\""). A false second return means the include could not be found.
type IncludeResolver func(path string, isSystem bool) (InputStream, bool)

// maxIncludeDepth guards against an include cycle turning into unbounded
// recursion.
const maxIncludeDepth = 200

// Preprocessor runs the full engine over a single root source, dispatching
// directives, tracking conditional-compilation state, and expanding macros
// as it assembles output text.
type Preprocessor struct {
	macros  *macro.Table
	cond    cond.Stack
	onError ErrorFunc
	resolve IncludeResolver

	lexers []*lexer.Lexer // include stack; last element is the active file
}

// NewPreprocessor returns a Preprocessor reading from lx as its root
// source. onError may be nil. resolve may be nil, in which case any
// #include is reported as ErrKindIncludeUnresolved.
func NewPreprocessor(lx *lexer.Lexer, onError ErrorFunc, resolve IncludeResolver) *Preprocessor {
	return &Preprocessor{
		macros:  macro.NewTable(),
		onError: onError,
		resolve: resolve,
		lexers:  []*lexer.Lexer{lx},
	}
}

// Macros returns the engine's live macro table, letting a caller seed
// command-line-style definitions before calling Process.
func (p *Preprocessor) Macros() *macro.Table { return p.macros }

// Process runs the engine to completion and returns the fully expanded,
// directive-free output text.
func (p *Preprocessor) Process() string {
	rw := expand.NewRewriter(p.macros, p.rawNext)

	var out strings.Builder
	for {
		tok, ok, err := rw.Next()
		if err != nil {
			p.reportExpandError(err)
			continue
		}
		if !ok {
			break
		}
		out.WriteString(tok.Lexeme)
	}

	if err := p.cond.Finish(); err != nil {
		p.report(ErrKindConditionalImbalance, err)
	}
	return out.String()
}

func (p *Preprocessor) report(kind ErrorKind, err error) {
	if p.onError != nil {
		p.onError(kind, err)
	}
}

func (p *Preprocessor) reportExpandError(err error) {
	switch {
	case errors.Is(err, expand.ErrExpansionOverflow):
		p.report(ErrKindExpansionOverflow, err)
	default:
		p.report(ErrKindMacroArity, err)
	}
}

// rawNext is the expand.TokenSource driving macro expansion: it pulls raw
// tokens from whichever file is active, transparently dispatching any
// directive line it encounters and discarding content tokens from inactive
// conditional regions, so the Rewriter only ever sees live content tokens.
func (p *Preprocessor) rawNext() (lexer.Token, bool) {
	for {
		if len(p.lexers) == 0 {
			return lexer.Token{}, false
		}
		top := p.lexers[len(p.lexers)-1]

		tok, err := top.NextToken()
		if err != nil {
			p.report(ErrKindLex, err)
			continue
		}

		if tok.Kind == lexer.EOF {
			p.popInclude()
			continue
		}

		if tok.Kind == lexer.DirectiveStart {
			p.handleDirective(top)
			continue
		}

		if !p.cond.Emitting() {
			continue
		}

		return tok, true
	}
}

func (p *Preprocessor) popInclude() {
	p.lexers = p.lexers[:len(p.lexers)-1]
}

// collectDirectiveLine reads every token up to (but not including) the
// terminating Newline or EOF, discarding the terminator itself. It is only
// ever used for directives that carry a payload worth parsing up to end of
// line; "else" and "endif" have no payload and must not consume their own
// terminating newline this way (see handleDirective).
func (p *Preprocessor) collectDirectiveLine(lx *lexer.Lexer) []lexer.Token {
	var tokens []lexer.Token
	for {
		tok, err := lx.NextToken()
		if err != nil {
			p.report(ErrKindLex, err)
			return tokens
		}
		if tok.Kind == lexer.Newline || tok.Kind == lexer.EOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

// readDirectiveName skips leading whitespace and returns the directive's
// name token's lexeme. A bare "#" line with nothing recognizable after it
// is the null directive: its line is discarded and ok is false.
func (p *Preprocessor) readDirectiveName(lx *lexer.Lexer) (name string, ok bool) {
	for {
		tok, err := lx.NextToken()
		if err != nil {
			p.report(ErrKindLex, err)
			return "", false
		}
		switch {
		case tok.Kind == lexer.Whitespace:
			continue
		case tok.Kind == lexer.Identifier || tok.Kind == lexer.Keyword:
			return tok.Lexeme, true
		case tok.Kind == lexer.Newline || tok.Kind == lexer.EOF:
			return "", false
		default:
			p.collectDirectiveLine(lx)
			return "", false
		}
	}
}

// conditionalDirectives is always dispatched regardless of the current
// conditional-compilation state, since the engine must track nesting even
// inside dead code.
var conditionalDirectives = map[string]bool{
	"if": true, "ifdef": true, "ifndef": true,
	"elif": true, "elifdef": true, "elifndef": true,
	"else": true, "endif": true,
}

func (p *Preprocessor) handleDirective(lx *lexer.Lexer) {
	name, ok := p.readDirectiveName(lx)
	if !ok {
		return // a bare "#" with nothing after it: the null directive
	}

	// "else" and "endif" carry no payload: there is nothing to parse up to
	// end of line, and unlike every other directive their terminating
	// newline is ordinary content belonging to whatever branch the
	// mutation below just made active, so it is left on the stream for
	// rawNext to gate normally rather than swallowed here.
	switch name {
	case "else":
		if err := p.cond.Else(); err != nil {
			p.report(ErrKindConditionalImbalance, err)
		}
		return
	case "endif":
		if err := p.cond.Endif(); err != nil {
			p.report(ErrKindConditionalImbalance, err)
		}
		return
	}

	rest := p.collectDirectiveLine(lx)

	if !conditionalDirectives[name] && !p.cond.Emitting() {
		return
	}

	switch name {
	case "if":
		p.doIf(rest)
	case "ifdef":
		target, _ := firstIdentifier(rest)
		p.cond.PushIf(p.macros.Defined(target))
	case "ifndef":
		target, _ := firstIdentifier(rest)
		p.cond.PushIf(!p.macros.Defined(target))
	case "elif":
		p.doElif(rest)
	case "elifdef":
		target, _ := firstIdentifier(rest)
		if err := p.cond.Elif(p.macros.Defined(target)); err != nil {
			p.report(ErrKindConditionalImbalance, err)
		}
	case "elifndef":
		target, _ := firstIdentifier(rest)
		if err := p.cond.Elif(!p.macros.Defined(target)); err != nil {
			p.report(ErrKindConditionalImbalance, err)
		}

	case "define":
		def, err := parseDefine(rest)
		if err != nil {
			p.report(ErrKindDirectiveSyntax, err)
			return
		}
		p.macros.Define(def)
	case "undef":
		if target, ok := firstIdentifier(rest); ok {
			p.macros.Undef(target)
		}
	case "include":
		p.doInclude(rest)
	case "error":
		p.report(ErrKindUserError, directiveText(rest))
	case "line", "pragma":
		// accepted and otherwise ignored
	default:
		p.report(ErrKindDirectiveSyntax, ErrUnknownDirective)
	}
}

func (p *Preprocessor) doIf(rest []lexer.Token) {
	var result bool
	if p.cond.Emitting() {
		v, err := expr.Evaluate(trimWhitespace(rest), p.macros)
		if err != nil {
			p.report(ErrKindDirectiveSyntax, err)
		} else {
			result = v
		}
	}
	p.cond.PushIf(result)
}

func (p *Preprocessor) doElif(rest []lexer.Token) {
	var result bool
	if p.cond.NeedsPredicate() {
		v, err := expr.Evaluate(trimWhitespace(rest), p.macros)
		if err != nil {
			p.report(ErrKindDirectiveSyntax, err)
		} else {
			result = v
		}
	}
	if err := p.cond.Elif(result); err != nil {
		p.report(ErrKindConditionalImbalance, err)
	}
}

func (p *Preprocessor) doInclude(rest []lexer.Token) {
	path, isSystem, err := parseInclude(rest)
	if err != nil {
		p.report(ErrKindDirectiveSyntax, err)
		return
	}
	if p.resolve == nil {
		p.report(ErrKindIncludeUnresolved, errIncludeText(path))
		return
	}
	if len(p.lexers) >= maxIncludeDepth {
		p.report(ErrKindIncludeUnresolved, errIncludeText(path))
		return
	}
	in, found := p.resolve(path, isSystem)
	if !found {
		p.report(ErrKindIncludeUnresolved, errIncludeText(path))
		return
	}
	p.lexers = append(p.lexers, lexer.NewLexer(in))
}

func directiveText(rest []lexer.Token) error {
	var b strings.Builder
	for _, t := range trimWhitespace(rest) {
		b.WriteString(t.Lexeme)
	}
	return fmt.Errorf("%s", b.String())
}

func errIncludeText(path string) error {
	return fmt.Errorf("could not resolve #include %q", path)
}
