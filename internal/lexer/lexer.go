// Package lexer implements a single-pass,
// total tokenizer. No input produces a fatal error — malformed constructs
// yield an Unknown token carrying a diagnostic string, and lexing always
// terminates with a single EOF token.
package lexer

import (
	"bufio"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/zenlang/zenc/internal/token"
)

// suffixes is the closed set of numeric type suffixes a literal may carry.
// It is a set, not an ordered list; matchSuffix looks up three-character
// candidates before two-character ones.
var suffixes = map[string]bool{
	"i8": true, "i16": true, "i32": true, "i64": true,
	"u8": true, "u16": true, "u32": true, "u64": true,
	"f32": true, "f64": true,
}

// twoCharOps lists operators recognized ahead of their single-character
// prefixes.
var twoCharOps = map[string]token.Kind{
	"==": token.EqualEqual,
	"!=": token.NotEqual,
	"<=": token.LessEqual,
	">=": token.GreaterEqual,
	"&&": token.AndAnd,
	"||": token.OrOr,
	"->": token.Arrow,
	"<-": token.LeftArrow,
	"=>": token.FatArrow,
	"::": token.ColonColon,
	"..": token.DotDot,
}

var oneCharOps = map[rune]token.Kind{
	'+': token.Plus,
	'-': token.Minus,
	'*': token.Star,
	'/': token.Slash,
	'%': token.Percent,
	'<': token.Less,
	'>': token.Greater,
	'=': token.Equal,
	'!': token.Bang,
	'&': token.Amp,
	'.': token.Dot,
	':': token.Colon,
	';': token.Semicolon,
	',': token.Comma,
	'(': token.LeftParen,
	')': token.RightParen,
	'{': token.LeftBrace,
	'}': token.RightBrace,
	'[': token.LeftBracket,
	']': token.RightBracket,
}

// state is a lexer state: given the lexer it may emit a token and returns
// the next state to run. A nil state ends lexing.
type state func(l *Lexer) state

// Lexer tokenizes a UTF-8 source string. A Lexer is single-use and is not
// safe for concurrent use by multiple goroutines, though it drives itself
// from one (see Do).
type Lexer struct {
	reader *bufio.Reader
	output chan token.Token

	line int
	col  int

	startLine int
	startCol  int
}

// New creates a Lexer over source.
func New(source string) *Lexer {
	return &Lexer{
		reader: bufio.NewReader(strings.NewReader(source)),
		output: make(chan token.Token, 2),
		line:   1,
		col:    1,
	}
}

// Chan returns the lexer's result channel.
func (l *Lexer) Chan() chan token.Token {
	return l.output
}

// Get fetches the next available token, blocking until one is ready.
func (l *Lexer) Get() token.Token {
	return <-l.output
}

// Do drives the state machine to completion, sending each token to the
// result channel as it's produced, and closes the channel once EOF has
// been emitted. Intended to run on its own goroutine.
func (l *Lexer) Do() {
	for s := startState; s != nil; {
		s = s(l)
	}
	close(l.output)
}

// Tokenize runs the lexer to completion synchronously and returns the full
// token list, EOF included. This is the entry point the rest of the
// pipeline uses; Do/Get exist for callers that want to stream tokens.
func Tokenize(source string) []token.Token {
	l := New(source)
	go l.Do()

	var toks []token.Token
	for {
		t := l.Get()
		toks = append(toks, t)
		if t.Kind == token.EOF {
			return toks
		}
	}
}

func startState(l *Lexer) state {
	for {
		switch r := l.peek(); {
		case r == 0:
			return endState
		case r == ' ' || r == '\t' || r == '\r':
			l.next()
			continue
		case r == '\n':
			l.next()
			continue
		case r == '/' && l.peekAt(1) == '/':
			return lineCommentState
		case r == '/' && l.peekAt(1) == '*':
			return blockCommentState
		case unicode.IsDigit(r):
			l.markStart()
			return numberState
		case r == '"':
			l.markStart()
			return stringState
		case r == '\'':
			l.markStart()
			return charState
		case unicode.IsLetter(r) || r == '_':
			l.markStart()
			return identifierState
		default:
			l.markStart()
			return operatorState
		}
	}
}

// markStart records the position of the first character of the token
// about to be scanned.
func (l *Lexer) markStart() {
	l.startLine, l.startCol = l.line, l.col
}

func lineCommentState(l *Lexer) state {
	l.next() // first /
	l.next() // second /
	for r := l.peek(); r != '\n' && r != 0; r = l.peek() {
		l.next()
	}
	return startState
}

func blockCommentState(l *Lexer) state {
	l.markStart()
	l.next() // /
	l.next() // *
	for {
		r := l.next()
		if r == 0 {
			return l.emitUnknown("unterminated block comment")
		}
		if r == '*' && l.peek() == '/' {
			l.next()
			return startState
		}
	}
}

func numberState(l *Lexer) state {
	var lex strings.Builder
	isFloat := false

	digits := func() {
		for r := l.peek(); unicode.IsDigit(r) || r == '_'; r = l.peek() {
			lex.WriteRune(l.next())
		}
	}

	digits()
	if l.peek() == '.' && unicode.IsDigit(l.peekAt(1)) {
		isFloat = true
		lex.WriteRune(l.next()) // '.'
		digits()
	}

	if suf := l.matchSuffix(); suf != "" {
		lex.WriteString(suf)
	}

	kind := token.Integer
	if isFloat {
		kind = token.Float
	}
	return l.emit(kind, lex.String())
}

// matchSuffix greedily looks ahead (without disturbing position tracking
// for runes it doesn't consume) for one of the closed-set numeric suffixes
// and, if found, consumes and returns it.
func (l *Lexer) matchSuffix() string {
	peeked, _ := l.reader.Peek(3)
	for n := len(peeked); n >= 2; n-- {
		cand := string(peeked[:n])
		if suffixes[cand] {
			for i := 0; i < n; i++ {
				l.next()
			}
			return cand
		}
	}
	return ""
}

func stringState(l *Lexer) state {
	var lex strings.Builder
	l.next() // opening quote

	for {
		r := l.next()
		switch r {
		case 0:
			return l.emitUnknown(fmt.Sprintf("unterminated string: %q", lex.String()))
		case '"':
			return l.emit(token.String, lex.String())
		case '\\':
			lex.WriteRune(r)
			esc := l.next()
			if esc == 0 {
				return l.emitUnknown(fmt.Sprintf("unterminated string: %q", lex.String()))
			}
			lex.WriteRune(esc)
		default:
			lex.WriteRune(r)
		}
	}
}

func charState(l *Lexer) state {
	var lex strings.Builder
	l.next() // opening quote

	r := l.next()
	if r == 0 {
		return l.emitUnknown("unterminated char literal")
	}
	lex.WriteRune(r)

	if r == '\\' {
		esc := l.next()
		if esc == 0 {
			return l.emitUnknown("unterminated char literal")
		}
		lex.WriteRune(esc)
	}

	if closer := l.next(); closer != '\'' {
		return l.emitUnknown(fmt.Sprintf("invalid char literal: %q", lex.String()))
	}

	return l.emit(token.Char, lex.String())
}

func identifierState(l *Lexer) state {
	var lex strings.Builder
	for r := l.peek(); unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'; r = l.peek() {
		lex.WriteRune(l.next())
	}

	if kind, ok := token.Lookup(lex.String()); ok {
		return l.emit(kind, lex.String())
	}
	return l.emit(token.Identifier, lex.String())
}

func operatorState(l *Lexer) state {
	first := l.next()

	two := string(first) + string(l.peek())
	if kind, ok := twoCharOps[two]; ok {
		l.next()
		return l.emit(kind, two)
	}

	if kind, ok := oneCharOps[first]; ok {
		return l.emit(kind, string(first))
	}

	return l.emitUnknown(fmt.Sprintf("stray character '%c'", first))
}

func endState(l *Lexer) state {
	l.output <- token.Token{Kind: token.EOF, Pos: token.Position{Line: l.line, Column: l.col}}
	return nil
}

// emit sends a finished token built from the position markStart recorded,
// and returns the default state.
func (l *Lexer) emit(kind token.Kind, lexeme string) state {
	l.output <- token.Token{
		Kind:   kind,
		Lexeme: lexeme,
		Pos:    token.Position{Line: l.startLine, Column: l.startCol},
	}
	return startState
}

// emitUnknown sends an Unknown token whose lexeme carries a diagnostic
// string and returns to startState, so lexing continues with the next
// character (lexing is total: a malformed construct never aborts
// tokenization).
func (l *Lexer) emitUnknown(message string) state {
	l.output <- token.Token{
		Kind:   token.Unknown,
		Lexeme: message,
		Pos:    token.Position{Line: l.startLine, Column: l.startCol},
	}
	return startState
}

// next consumes and returns the next rune, advancing line/column, or 0 at
// end of stream.
func (l *Lexer) next() rune {
	r, _, err := l.reader.ReadRune()
	if err != nil {
		return 0
	}
	if r == utf8.RuneError {
		return 0
	}

	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}

	return r
}

// peek returns the next rune without consuming it.
func (l *Lexer) peek() rune {
	r, _, err := l.reader.ReadRune()
	if err != nil {
		return 0
	}
	_ = l.reader.UnreadRune()
	return r
}

// peekAt returns the rune n positions ahead (0 == peek()) without
// consuming anything, using the reader's byte-oriented lookahead. Only
// used for ASCII lookahead (comment markers, float dots), so byte and rune
// offsets coincide.
func (l *Lexer) peekAt(n int) rune {
	b, err := l.reader.Peek(n + 1)
	if err != nil || len(b) <= n {
		return 0
	}
	return rune(b[n])
}
