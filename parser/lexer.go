package parser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Token types
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNewline
	TokenIndent
	TokenDedent
	TokenNumber
	TokenString
	TokenIdentifier

	TokenPlus
	TokenMinus
	TokenMul
	TokenDiv
	TokenFloorDiv
	TokenMod
	TokenPow
	TokenAmp
	TokenPipe
	TokenCaret
	TokenTilde
	TokenShl
	TokenShr
	TokenLT
	TokenGT
	TokenLE
	TokenGE
	TokenEQ
	TokenNE
	TokenAssign
	TokenPlusAssign
	TokenMinusAssign
	TokenMulAssign
	TokenDivAssign
	TokenModAssign
	TokenLParen
	TokenRParen
	TokenLBracket
	TokenRBracket
	TokenComma
	TokenColon
	TokenDot
	TokenArrow
	TokenEllipsis

	TokenDef
	TokenReturn
	TokenIf
	TokenElif
	TokenElse
	TokenWhile
	TokenPass
	TokenGlobal
	TokenTrue
	TokenFalse
	TokenNone
	TokenAnd
	TokenOr
	TokenNot
	TokenLambda
)

var tokenNames = map[TokenType]string{
	TokenEOF: "EOF", TokenNewline: "NEWLINE", TokenIndent: "INDENT", TokenDedent: "DEDENT",
	TokenNumber: "number", TokenString: "string", TokenIdentifier: "identifier",
	TokenPlus: "+", TokenMinus: "-", TokenMul: "*", TokenDiv: "/", TokenFloorDiv: "//",
	TokenMod: "%", TokenPow: "**", TokenAmp: "&", TokenPipe: "|", TokenCaret: "^",
	TokenTilde: "~", TokenShl: "<<", TokenShr: ">>", TokenLT: "<", TokenGT: ">",
	TokenLE: "<=", TokenGE: ">=", TokenEQ: "==", TokenNE: "!=", TokenAssign: "=",
	TokenPlusAssign: "+=", TokenMinusAssign: "-=", TokenMulAssign: "*=", TokenDivAssign: "/=",
	TokenModAssign: "%=", TokenLParen: "(", TokenRParen: ")", TokenLBracket: "[",
	TokenRBracket: "]", TokenComma: ",", TokenColon: ":", TokenDot: ".", TokenArrow: "->",
	TokenEllipsis: "...", TokenDef: "def", TokenReturn: "return", TokenIf: "if",
	TokenElif: "elif", TokenElse: "else", TokenWhile: "while", TokenPass: "pass",
	TokenGlobal: "global", TokenTrue: "True", TokenFalse: "False", TokenNone: "None",
	TokenAnd: "and", TokenOr: "or", TokenNot: "not", TokenLambda: "lambda",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(t))
}

var keywords = map[string]TokenType{
	"def": TokenDef, "return": TokenReturn, "if": TokenIf, "elif": TokenElif,
	"else": TokenElse, "while": TokenWhile, "pass": TokenPass, "global": TokenGlobal,
	"True": TokenTrue, "False": TokenFalse, "None": TokenNone, "and": TokenAnd,
	"or": TokenOr, "not": TokenNot, "lambda": TokenLambda,
}

// operators sorted longest first so the lexer always takes the longest match.
var operators = []struct {
	text string
	typ  TokenType
}{
	{"...", TokenEllipsis},
	{"**", TokenPow}, {"//", TokenFloorDiv}, {"<<", TokenShl}, {">>", TokenShr},
	{"<=", TokenLE}, {">=", TokenGE}, {"==", TokenEQ}, {"!=", TokenNE}, {"->", TokenArrow},
	{"+=", TokenPlusAssign}, {"-=", TokenMinusAssign}, {"*=", TokenMulAssign},
	{"/=", TokenDivAssign}, {"%=", TokenModAssign},
	{"+", TokenPlus}, {"-", TokenMinus}, {"*", TokenMul}, {"/", TokenDiv}, {"%", TokenMod},
	{"&", TokenAmp}, {"|", TokenPipe}, {"^", TokenCaret}, {"~", TokenTilde},
	{"<", TokenLT}, {">", TokenGT}, {"=", TokenAssign}, {"(", TokenLParen},
	{")", TokenRParen}, {"[", TokenLBracket}, {"]", TokenRBracket}, {",", TokenComma},
	{":", TokenColon}, {".", TokenDot},
}

// Token struct
type Token struct {
	Type  TokenType
	Value string
	Pos   Pos
}

// SyntaxError is returned by the lexer and the parser.
type SyntaxError struct {
	Pos Pos
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: syntax error: %s", e.Pos, e.Msg)
}

// Lexer turns source text into tokens, synthesizing NEWLINE, INDENT and
// DEDENT the way Python does. Newlines inside brackets are ignored.
type Lexer struct {
	input   string
	pos     int
	line    int
	col     int
	depth   int
	indents []int
	tokens  []Token
}

func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1, col: 1, indents: []int{0}}
}

func (l *Lexer) Lex() ([]Token, error) {
	l.tokens = []Token{}
	atLineStart := true
	for l.pos < len(l.input) {
		if atLineStart && l.depth == 0 {
			blank, err := l.lexIndent()
			if err != nil {
				return nil, err
			}
			atLineStart = blank
			if blank {
				continue
			}
		}
		ch := l.input[l.pos]
		switch {
		case ch == '\n':
			if l.depth == 0 && l.lastType() != TokenNewline && len(l.tokens) > 0 {
				l.emit(TokenNewline, "")
			}
			l.advance(1)
			l.line++
			l.col = 1
			atLineStart = true
		case ch == ' ' || ch == '\t' || ch == '\r':
			l.advance(1)
		case ch == '\\' && l.peekChar() == '\n':
			l.advance(2)
			l.line++
			l.col = 1
		case ch == '#':
			l.lexComment()
		case isDigit(ch) || (ch == '.' && isDigit(l.peekChar())):
			if err := l.lexNumber(); err != nil {
				return nil, err
			}
		case ch == '_' || startsWithLetter(l.input[l.pos:]):
			l.lexIdentifier()
		case ch == '"' || ch == '\'':
			if err := l.lexString(ch); err != nil {
				return nil, err
			}
		default:
			if !l.lexOperator() {
				r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
				return nil, l.errorf("unexpected character %q", r)
			}
		}
	}
	if len(l.tokens) > 0 && l.lastType() != TokenNewline {
		l.emit(TokenNewline, "")
	}
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.emit(TokenDedent, "")
	}
	l.emit(TokenEOF, "")
	return l.tokens, nil
}

// lexIndent measures leading whitespace and emits INDENT/DEDENT tokens.
// It reports blank (whitespace or comment only) lines so they are skipped.
func (l *Lexer) lexIndent() (bool, error) {
	width := 0
measure:
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ':
			width++
		case '\t':
			width += 8 - width%8
		case '\r', '\f':
		default:
			break measure
		}
		l.advance(1)
	}
	if l.pos >= len(l.input) || l.input[l.pos] == '\n' || l.input[l.pos] == '#' {
		if l.pos < len(l.input) && l.input[l.pos] == '#' {
			l.lexComment()
		}
		if l.pos < len(l.input) {
			l.advance(1)
			l.line++
			l.col = 1
		}
		return true, nil
	}
	top := l.indents[len(l.indents)-1]
	switch {
	case width > top:
		l.indents = append(l.indents, width)
		l.emit(TokenIndent, "")
	case width < top:
		for width < l.indents[len(l.indents)-1] {
			l.indents = l.indents[:len(l.indents)-1]
			l.emit(TokenDedent, "")
		}
		if width != l.indents[len(l.indents)-1] {
			return false, l.errorf("unindent does not match any outer indentation level")
		}
	}
	return false, nil
}

func (l *Lexer) lexComment() {
	for l.pos < len(l.input) && l.input[l.pos] != '\n' {
		l.advance(1)
	}
}

func (l *Lexer) lexNumber() error {
	start := l.pos
	at := l.here()
	s := l.input
	if s[l.pos] == '0' && l.pos+1 < len(s) && strings.ContainsRune("xXoObB", rune(s[l.pos+1])) {
		l.advance(2)
		for l.pos < len(s) && (isHexDigit(s[l.pos]) || s[l.pos] == '_') {
			l.advance(1)
		}
	} else {
		l.digits()
		if l.pos < len(s) && s[l.pos] == '.' {
			l.advance(1)
			l.digits()
		}
		if l.pos < len(s) && (s[l.pos] == 'e' || s[l.pos] == 'E') {
			l.advance(1)
			if l.pos < len(s) && (s[l.pos] == '+' || s[l.pos] == '-') {
				l.advance(1)
			}
			if l.pos >= len(s) || !isDigit(s[l.pos]) {
				return &SyntaxError{Pos: at, Msg: "invalid float literal"}
			}
			l.digits()
		}
		if l.pos < len(s) && (s[l.pos] == 'j' || s[l.pos] == 'J') {
			l.advance(1)
		}
	}
	if l.pos < len(s) && (s[l.pos] == '_' || startsWithLetter(s[l.pos:])) {
		return &SyntaxError{Pos: at, Msg: fmt.Sprintf("invalid number literal %q", s[start:l.pos+1])}
	}
	l.tokens = append(l.tokens, Token{Type: TokenNumber, Value: s[start:l.pos], Pos: at})
	return nil
}

func (l *Lexer) digits() {
	for l.pos < len(l.input) && (isDigit(l.input[l.pos]) || l.input[l.pos] == '_') {
		l.advance(1)
	}
}

func (l *Lexer) lexIdentifier() {
	start := l.pos
	at := l.here()
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		// Columns count characters, not bytes.
		l.pos += size
		l.col++
	}
	id := l.input[start:l.pos]
	tt := TokenIdentifier
	if kw, ok := keywords[id]; ok {
		tt = kw
	}
	l.tokens = append(l.tokens, Token{Type: tt, Value: id, Pos: at})
}

func (l *Lexer) lexString(quote byte) error {
	at := l.here()
	l.advance(1) // skip opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.input) || l.input[l.pos] == '\n' {
			return &SyntaxError{Pos: at, Msg: "unterminated string literal"}
		}
		ch := l.input[l.pos]
		if ch == quote {
			l.advance(1)
			break
		}
		if ch != '\\' {
			sb.WriteByte(ch)
			l.advance(1)
			continue
		}
		if l.pos+1 >= len(l.input) {
			return &SyntaxError{Pos: at, Msg: "unterminated string literal"}
		}
		esc := l.input[l.pos+1]
		l.advance(2)
		switch esc {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '0':
			sb.WriteByte(0)
		case '\\', '\'', '"':
			sb.WriteByte(esc)
		case '\n':
			l.line++
			l.col = 1
		case 'x':
			if l.pos+2 > len(l.input) || !isHexDigit(l.input[l.pos]) || !isHexDigit(l.input[l.pos+1]) {
				return &SyntaxError{Pos: at, Msg: "truncated \\xXX escape"}
			}
			sb.WriteByte(hexVal(l.input[l.pos])<<4 | hexVal(l.input[l.pos+1]))
			l.advance(2)
		default:
			sb.WriteByte('\\')
			sb.WriteByte(esc)
		}
	}
	l.tokens = append(l.tokens, Token{Type: TokenString, Value: sb.String(), Pos: at})
	return nil
}

func (l *Lexer) lexOperator() bool {
	for _, op := range operators {
		if strings.HasPrefix(l.input[l.pos:], op.text) {
			switch op.typ {
			case TokenLParen, TokenLBracket:
				l.depth++
			case TokenRParen, TokenRBracket:
				if l.depth > 0 {
					l.depth--
				}
			}
			l.emit(op.typ, op.text)
			return true
		}
	}
	return false
}

func (l *Lexer) emit(tt TokenType, val string) {
	l.tokens = append(l.tokens, Token{Type: tt, Value: val, Pos: l.here()})
	l.advance(len(val))
}

// startsWithLetter reports whether s begins with a UTF-8 encoded letter.
func startsWithLetter(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r != utf8.RuneError && unicode.IsLetter(r)
}

func (l *Lexer) advance(n int) {
	l.pos += n
	l.col += n
}

func (l *Lexer) here() Pos {
	return Pos{Line: l.line, Col: l.col}
}

func (l *Lexer) lastType() TokenType {
	if len(l.tokens) == 0 {
		return TokenEOF
	}
	return l.tokens[len(l.tokens)-1].Type
}

func (l *Lexer) peekChar() byte {
	if l.pos+1 < len(l.input) {
		return l.input[l.pos+1]
	}
	return 0
}

func (l *Lexer) errorf(format string, args ...any) error {
	return &SyntaxError{Pos: l.here(), Msg: fmt.Sprintf(format, args...)}
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func hexVal(ch byte) byte {
	switch {
	case isDigit(ch):
		return ch - '0'
	case ch >= 'a' && ch <= 'f':
		return ch - 'a' + 10
	default:
		return ch - 'A' + 10
	}
}
