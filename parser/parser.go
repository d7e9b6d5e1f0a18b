package parser

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// bailout carries a syntax error out of the recursive descent.
type bailout struct {
	err *SyntaxError
}

// Parser
type Parser struct {
	tokens []Token
	pos    int
}

func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens, pos: 0}
}

// ParseFile lexes and parses a whole module.
func ParseFile(source string) ([]Stmt, error) {
	tokens, err := NewLexer(source).Lex()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).Parse()
}

// ParseExpr parses a single expression.
func ParseExpr(source string) (expr Expr, err error) {
	tokens, err := NewLexer(source).Lex()
	if err != nil {
		return nil, err
	}
	p := NewParser(tokens)
	defer p.recover(&err)
	expr = p.parseExpr()
	if p.current().Type == TokenNewline {
		p.pos++
	}
	p.consume(TokenEOF)
	return expr, nil
}

func (p *Parser) Parse() (stmts []Stmt, err error) {
	defer p.recover(&err)
	for p.current().Type != TokenEOF {
		stmts = append(stmts, p.parseStmt())
	}
	return stmts, nil
}

func (p *Parser) recover(err *error) {
	if r := recover(); r != nil {
		b, ok := r.(bailout)
		if !ok {
			panic(r)
		}
		*err = b.err
	}
}

func (p *Parser) parseStmt() Stmt {
	tok := p.current()
	switch tok.Type {
	case TokenDef:
		return p.parseFunction()
	case TokenIf:
		return p.parseIf()
	case TokenWhile:
		return p.parseWhile()
	}
	stmt := p.parseSimple()
	p.consume(TokenNewline)
	return stmt
}

func (p *Parser) parseSimple() Stmt {
	tok := p.current()
	switch tok.Type {
	case TokenPass:
		p.pos++
		return &PassStmt{At: tok.Pos}
	case TokenReturn:
		return p.parseReturn()
	case TokenGlobal:
		p.pos++
		names := []string{p.consume(TokenIdentifier).Value}
		for p.current().Type == TokenComma {
			p.pos++
			names = append(names, p.consume(TokenIdentifier).Value)
		}
		return &GlobalStmt{At: tok.Pos, Names: names}
	case TokenIdentifier:
		switch p.peek().Type {
		case TokenAssign, TokenColon:
			return p.parseAssign()
		case TokenPlusAssign, TokenMinusAssign, TokenMulAssign, TokenDivAssign, TokenModAssign:
			return p.parseAugAssign()
		}
	}
	return &ExprStmt{At: tok.Pos, Expr: p.parseExpr()}
}

func (p *Parser) parseAssign() *AssignStmt {
	tok := p.consume(TokenIdentifier)
	stmt := &AssignStmt{At: tok.Pos, Var: tok.Value}
	if p.current().Type == TokenColon {
		p.pos++
		stmt.Annotation = p.parseAnnotation()
	}
	p.consume(TokenAssign)
	stmt.Expr = p.parseExpr()
	return stmt
}

var augOps = map[TokenType]TokenType{
	TokenPlusAssign:  TokenPlus,
	TokenMinusAssign: TokenMinus,
	TokenMulAssign:   TokenMul,
	TokenDivAssign:   TokenDiv,
	TokenModAssign:   TokenMod,
}

func (p *Parser) parseAugAssign() *AugAssignStmt {
	tok := p.consume(TokenIdentifier)
	op := p.current()
	p.pos++
	return &AugAssignStmt{At: tok.Pos, Var: tok.Value, Op: augOps[op.Type], Expr: p.parseExpr()}
}

// parseAnnotation accepts a plain type name or None.
func (p *Parser) parseAnnotation() string {
	tok := p.current()
	switch tok.Type {
	case TokenIdentifier, TokenNone:
		p.pos++
		return tok.Value
	}
	p.fail(tok.Pos, "expected type annotation, got %s", tok.Type)
	return ""
}

func (p *Parser) parseFunction() *FunctionStmt {
	at := p.consume(TokenDef).Pos
	name := p.consume(TokenIdentifier).Value
	p.consume(TokenLParen)
	var params []Param
	for p.current().Type != TokenRParen {
		tok := p.consume(TokenIdentifier)
		param := Param{At: tok.Pos, Name: tok.Value}
		if p.current().Type == TokenColon {
			p.pos++
			param.Annotation = p.parseAnnotation()
		}
		params = append(params, param)
		if p.current().Type != TokenComma {
			break
		}
		p.pos++
	}
	p.consume(TokenRParen)
	fn := &FunctionStmt{At: at, Name: name, Params: params}
	if p.current().Type == TokenArrow {
		p.pos++
		fn.Returns = p.parseAnnotation()
	}
	fn.Body = p.parseBlock()
	return fn
}

// parseBlock parses `: NEWLINE INDENT stmt+ DEDENT` or a one-line suite.
func (p *Parser) parseBlock() []Stmt {
	p.consume(TokenColon)
	if p.current().Type != TokenNewline {
		stmt := p.parseSimple()
		p.consume(TokenNewline)
		return []Stmt{stmt}
	}
	p.consume(TokenNewline)
	p.consume(TokenIndent)
	var body []Stmt
	for p.current().Type != TokenDedent && p.current().Type != TokenEOF {
		body = append(body, p.parseStmt())
	}
	p.consume(TokenDedent)
	return body
}

func (p *Parser) parseIf() *IfStmt {
	at := p.current().Pos
	p.pos++ // if / elif
	cond := p.parseExpr()
	stmt := &IfStmt{At: at, Cond: cond, Then: p.parseBlock()}
	switch p.current().Type {
	case TokenElif:
		stmt.Else = []Stmt{p.parseIf()}
	case TokenElse:
		p.pos++
		stmt.Else = p.parseBlock()
	}
	return stmt
}

func (p *Parser) parseWhile() *WhileStmt {
	at := p.consume(TokenWhile).Pos
	cond := p.parseExpr()
	return &WhileStmt{At: at, Cond: cond, Body: p.parseBlock()}
}

func (p *Parser) parseReturn() *ReturnStmt {
	at := p.consume(TokenReturn).Pos
	if p.current().Type == TokenNewline {
		return &ReturnStmt{At: at}
	}
	return &ReturnStmt{At: at, Expr: p.parseExpr()}
}

func (p *Parser) parseExpr() Expr {
	if p.current().Type == TokenLambda {
		return p.parseLambda()
	}
	return p.parseOr()
}

func (p *Parser) parseLambda() Expr {
	at := p.consume(TokenLambda).Pos
	var params []string
	for p.current().Type == TokenIdentifier {
		params = append(params, p.consume(TokenIdentifier).Value)
		if p.current().Type != TokenComma {
			break
		}
		p.pos++
	}
	p.consume(TokenColon)
	return &LambdaExpr{At: at, Params: params, Body: p.parseExpr()}
}

func (p *Parser) parseOr() Expr {
	expr := p.parseAnd()
	for p.current().Type == TokenOr {
		tok := p.current()
		p.pos++
		expr = &BoolOpExpr{At: tok.Pos, Op: TokenOr, Left: expr, Right: p.parseAnd()}
	}
	return expr
}

func (p *Parser) parseAnd() Expr {
	expr := p.parseNot()
	for p.current().Type == TokenAnd {
		tok := p.current()
		p.pos++
		expr = &BoolOpExpr{At: tok.Pos, Op: TokenAnd, Left: expr, Right: p.parseNot()}
	}
	return expr
}

func (p *Parser) parseNot() Expr {
	if tok := p.current(); tok.Type == TokenNot {
		p.pos++
		return &UnaryExpr{At: tok.Pos, Op: TokenNot, Expr: p.parseNot()}
	}
	return p.parseComparison()
}

func isCompareOp(tt TokenType) bool {
	switch tt {
	case TokenLT, TokenGT, TokenLE, TokenGE, TokenEQ, TokenNE:
		return true
	}
	return false
}

func (p *Parser) parseComparison() Expr {
	first := p.parseBinary(0)
	if !isCompareOp(p.current().Type) {
		return first
	}
	cmp := &CompareExpr{At: first.Position(), Operands: []Expr{first}}
	for isCompareOp(p.current().Type) {
		cmp.Ops = append(cmp.Ops, p.current().Type)
		p.pos++
		cmp.Operands = append(cmp.Operands, p.parseBinary(0))
	}
	return cmp
}

// binaryLevels lists binary operators from loosest to tightest binding.
var binaryLevels = [][]TokenType{
	{TokenPipe},
	{TokenCaret},
	{TokenAmp},
	{TokenShl, TokenShr},
	{TokenPlus, TokenMinus},
	{TokenMul, TokenDiv, TokenFloorDiv, TokenMod},
}

func (p *Parser) parseBinary(level int) Expr {
	if level == len(binaryLevels) {
		return p.parseUnary()
	}
	expr := p.parseBinary(level + 1)
	for {
		tok := p.current()
		if !containsType(binaryLevels[level], tok.Type) {
			return expr
		}
		p.pos++
		right := p.parseBinary(level + 1)
		expr = &BinaryExpr{At: tok.Pos, Op: tok.Type, Left: expr, Right: right}
	}
}

func containsType(set []TokenType, tt TokenType) bool {
	for _, t := range set {
		if t == tt {
			return true
		}
	}
	return false
}

func (p *Parser) parseUnary() Expr {
	switch tok := p.current(); tok.Type {
	case TokenMinus, TokenPlus, TokenTilde:
		p.pos++
		return &UnaryExpr{At: tok.Pos, Op: tok.Type, Expr: p.parseUnary()}
	}
	return p.parsePower()
}

func (p *Parser) parsePower() Expr {
	expr := p.parsePostfix()
	if tok := p.current(); tok.Type == TokenPow {
		p.pos++
		return &BinaryExpr{At: tok.Pos, Op: TokenPow, Left: expr, Right: p.parseUnary()}
	}
	return expr
}

func (p *Parser) parsePostfix() Expr {
	expr := p.parsePrimary()
	for {
		tok := p.current()
		switch tok.Type {
		case TokenLParen:
			p.pos++
			var args []Expr
			for p.current().Type != TokenRParen {
				args = append(args, p.parseExpr())
				if p.current().Type != TokenComma {
					break
				}
				p.pos++
			}
			p.consume(TokenRParen)
			expr = &CallExpr{At: expr.Position(), Callee: expr, Args: args}
		case TokenDot:
			p.pos++
			attr := p.consume(TokenIdentifier).Value
			expr = &AttributeExpr{At: tok.Pos, Value: expr, Attr: attr}
		case TokenLBracket:
			p.fail(tok.Pos, "subscripts are not supported")
		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimary() Expr {
	tok := p.current()
	switch tok.Type {
	case TokenNumber:
		p.pos++
		return p.parseNumber(tok)
	case TokenString:
		p.pos++
		value := tok.Value
		for p.current().Type == TokenString {
			value += p.current().Value
			p.pos++
		}
		return &StringExpr{At: tok.Pos, Value: value}
	case TokenTrue, TokenFalse:
		p.pos++
		return &BoolExpr{At: tok.Pos, Value: tok.Type == TokenTrue}
	case TokenNone:
		p.pos++
		return &NoneExpr{At: tok.Pos}
	case TokenEllipsis:
		p.pos++
		return &EllipsisExpr{At: tok.Pos}
	case TokenIdentifier:
		p.pos++
		return &VarExpr{At: tok.Pos, Name: tok.Value}
	case TokenLParen:
		p.pos++
		expr := p.parseExpr()
		p.consume(TokenRParen)
		return expr
	case TokenLBracket:
		p.pos++
		var elements []Expr
		for p.current().Type != TokenRBracket {
			elements = append(elements, p.parseExpr())
			if p.current().Type != TokenComma {
				break
			}
			p.pos++
		}
		p.consume(TokenRBracket)
		return &ListExpr{At: tok.Pos, Elements: elements}
	}
	p.fail(tok.Pos, "unexpected %s", tok.Type)
	return nil
}

func (p *Parser) parseNumber(tok Token) *NumberExpr {
	raw := tok.Value
	clean := strings.ReplaceAll(raw, "_", "")
	lower := strings.ToLower(clean)
	num := &NumberExpr{At: tok.Pos, Raw: raw}
	isPrefixed := len(lower) > 1 && lower[0] == '0' && strings.ContainsRune("xob", rune(lower[1]))
	switch {
	case !isPrefixed && strings.HasSuffix(lower, "j"):
		num.Kind = NumberComplex
		num.Float = p.parseFloat(tok, clean[:len(clean)-1])
	case !isPrefixed && strings.ContainsAny(lower, ".e"):
		num.Kind = NumberFloat
		num.Float = p.parseFloat(tok, clean)
	default:
		num.Kind = NumberInt
		base, digits := 10, clean
		if isPrefixed {
			base, digits = 0, raw
		}
		x, ok := new(big.Int).SetString(digits, base)
		if !ok {
			p.fail(tok.Pos, "invalid integer literal %q", raw)
		}
		num.Int = x
	}
	return num
}

func (p *Parser) parseFloat(tok Token, s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		p.fail(tok.Pos, "invalid float literal %q", tok.Value)
	}
	return f
}

func (p *Parser) current() Token {
	return p.tokens[p.pos]
}

func (p *Parser) peek() Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return Token{Type: TokenEOF}
}

func (p *Parser) consume(tt TokenType) Token {
	tok := p.current()
	if tok.Type != tt {
		p.fail(tok.Pos, "expected %s, got %s", tt, describe(tok))
	}
	p.pos++
	return tok
}

func (p *Parser) fail(at Pos, format string, args ...any) {
	panic(bailout{err: &SyntaxError{Pos: at, Msg: fmt.Sprintf(format, args...)}})
}

func describe(tok Token) string {
	if tok.Value != "" {
		return fmt.Sprintf("%s %q", tok.Type, tok.Value)
	}
	return tok.Type.String()
}
