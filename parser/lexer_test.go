package parser

import (
	"errors"
	"testing"

	"github.com/nalgeon/be"
)

func tokenTypes(t *testing.T, src string) []TokenType {
	t.Helper()
	tokens, err := NewLexer(src).Lex()
	be.Err(t, err, nil)
	var types []TokenType
	for _, tok := range tokens {
		types = append(types, tok.Type)
	}
	return types
}

func TestLexIndentation(t *testing.T) {
	src := "def f():\n    x = 1\n\n    # comment\n    if x:\n        pass\ny = 2\n"
	got := tokenTypes(t, src)
	want := []TokenType{
		TokenDef, TokenIdentifier, TokenLParen, TokenRParen, TokenColon, TokenNewline,
		TokenIndent, TokenIdentifier, TokenAssign, TokenNumber, TokenNewline,
		TokenIf, TokenIdentifier, TokenColon, TokenNewline,
		TokenIndent, TokenPass, TokenNewline,
		TokenDedent, TokenDedent, TokenIdentifier, TokenAssign, TokenNumber, TokenNewline,
		TokenEOF,
	}
	be.Equal(t, got, want)
}

func TestLexClosesOpenBlocksAtEOF(t *testing.T) {
	got := tokenTypes(t, "while x:\n    pass")
	be.Equal(t, got[len(got)-3:], []TokenType{TokenNewline, TokenDedent, TokenEOF})
}

func TestLexBracketsJoinLines(t *testing.T) {
	got := tokenTypes(t, "f(1,\n  2)\n")
	want := []TokenType{
		TokenIdentifier, TokenLParen, TokenNumber, TokenComma, TokenNumber, TokenRParen,
		TokenNewline, TokenEOF,
	}
	be.Equal(t, got, want)
}

func TestLexOperatorsLongestMatch(t *testing.T) {
	got := tokenTypes(t, "a ** b // c << d -> e += ... != <=")
	want := []TokenType{
		TokenIdentifier, TokenPow, TokenIdentifier, TokenFloorDiv, TokenIdentifier,
		TokenShl, TokenIdentifier, TokenArrow, TokenIdentifier, TokenPlusAssign,
		TokenEllipsis, TokenNE, TokenLE, TokenNewline, TokenEOF,
	}
	be.Equal(t, got, want)
}

func TestLexNumbers(t *testing.T) {
	for _, src := range []string{"0", "42", "1_000", "0xFF", "0o17", "0b1010", "3.14", ".5", "1e3", "2.5E-3", "1j", "1.5j"} {
		tokens, err := NewLexer(src).Lex()
		be.Err(t, err, nil)
		be.Equal(t, tokens[0].Type, TokenNumber)
		be.Equal(t, tokens[0].Value, src)
	}
}

func TestLexStrings(t *testing.T) {
	tokens, err := NewLexer(`"a\tb\n" 'it\'s' "\x41"`).Lex()
	be.Err(t, err, nil)
	be.Equal(t, tokens[0].Value, "a\tb\n")
	be.Equal(t, tokens[1].Value, "it's")
	be.Equal(t, tokens[2].Value, "A")
}

func TestLexPositions(t *testing.T) {
	tokens, err := NewLexer("x = 1\n  \ny = foo\n").Lex()
	be.Err(t, err, nil)
	var foo Token
	for _, tok := range tokens {
		if tok.Value == "foo" {
			foo = tok
		}
	}
	be.Equal(t, foo.Pos, Pos{Line: 3, Col: 5})
	be.Equal(t, foo.Pos.String(), "3:5")
}

func TestLexUnicodeIdentifiers(t *testing.T) {
	tokens, err := NewLexer("café = 1\nπ2 = café").Lex()
	be.Err(t, err, nil)
	be.Equal(t, tokens[0].Type, TokenIdentifier)
	be.Equal(t, tokens[0].Value, "café")
	be.Equal(t, tokens[1].Pos, Pos{Line: 1, Col: 6})
	be.Equal(t, tokens[4].Value, "π2")
	be.Equal(t, tokens[6].Value, "café")
	be.Equal(t, tokens[6].Pos, Pos{Line: 2, Col: 6})
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`"open`, "unterminated string literal"},
		{"x = $", "unexpected character"},
		{"x = 1 → 2", `unexpected character '→'`},
		{"12abc", "invalid number literal"},
		{"3é", "invalid number literal"},
		{"1e", "invalid float literal"},
		{"if x:\n        a\n    b\n", "unindent does not match"},
	}
	for _, tt := range tests {
		_, err := NewLexer(tt.src).Lex()
		be.Err(t, err, tt.want)
		var se *SyntaxError
		be.True(t, errors.As(err, &se))
	}
}
