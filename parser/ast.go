package parser

import (
	"fmt"
	"math/big"
)

// Pos is a source location, 1-based.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// AST nodes
type Node interface {
	Position() Pos
}

type Expr interface {
	Node
	exprNode()
}

type Stmt interface {
	Node
	stmtNode()
}

type NumberKind int

const (
	NumberInt NumberKind = iota
	NumberFloat
	NumberComplex
)

// NumberExpr holds an integer, float or imaginary literal. Integers keep
// their full precision; narrowing is the code generator's business.
type NumberExpr struct {
	At    Pos
	Kind  NumberKind
	Int   *big.Int
	Float float64
	Raw   string
}

type StringExpr struct {
	At    Pos
	Value string
}

type VarExpr struct {
	At   Pos
	Name string
}

type BoolExpr struct {
	At    Pos
	Value bool
}

type NoneExpr struct {
	At Pos
}

type EllipsisExpr struct {
	At Pos
}

type BinaryExpr struct {
	At    Pos
	Op    TokenType
	Left  Expr
	Right Expr
}

type UnaryExpr struct {
	At   Pos
	Op   TokenType
	Expr Expr
}

// CompareExpr is a comparison chain: Operands[0] Ops[0] Operands[1] Ops[1] ...
type CompareExpr struct {
	At       Pos
	Operands []Expr
	Ops      []TokenType
}

// BoolOpExpr is `and`/`or`.
type BoolOpExpr struct {
	At    Pos
	Op    TokenType
	Left  Expr
	Right Expr
}

type CallExpr struct {
	At     Pos
	Callee Expr
	Args   []Expr
}

type AttributeExpr struct {
	At    Pos
	Value Expr
	Attr  string
}

type ListExpr struct {
	At       Pos
	Elements []Expr
}

type LambdaExpr struct {
	At     Pos
	Params []string
	Body   Expr
}

func (e *NumberExpr) Position() Pos    { return e.At }
func (e *StringExpr) Position() Pos    { return e.At }
func (e *VarExpr) Position() Pos       { return e.At }
func (e *BoolExpr) Position() Pos      { return e.At }
func (e *NoneExpr) Position() Pos      { return e.At }
func (e *EllipsisExpr) Position() Pos  { return e.At }
func (e *BinaryExpr) Position() Pos    { return e.At }
func (e *UnaryExpr) Position() Pos     { return e.At }
func (e *CompareExpr) Position() Pos   { return e.At }
func (e *BoolOpExpr) Position() Pos    { return e.At }
func (e *CallExpr) Position() Pos      { return e.At }
func (e *AttributeExpr) Position() Pos { return e.At }
func (e *ListExpr) Position() Pos      { return e.At }
func (e *LambdaExpr) Position() Pos    { return e.At }

func (*NumberExpr) exprNode()    {}
func (*StringExpr) exprNode()    {}
func (*VarExpr) exprNode()       {}
func (*BoolExpr) exprNode()      {}
func (*NoneExpr) exprNode()      {}
func (*EllipsisExpr) exprNode()  {}
func (*BinaryExpr) exprNode()    {}
func (*UnaryExpr) exprNode()     {}
func (*CompareExpr) exprNode()   {}
func (*BoolOpExpr) exprNode()    {}
func (*CallExpr) exprNode()      {}
func (*AttributeExpr) exprNode() {}
func (*ListExpr) exprNode()      {}
func (*LambdaExpr) exprNode()    {}

// Param is a function parameter with an optional annotation.
type Param struct {
	At         Pos
	Name       string
	Annotation string
}

type FunctionStmt struct {
	At      Pos
	Name    string
	Params  []Param
	Returns string
	Body    []Stmt
}

// AssignStmt covers `x = e` and `x: T = e`.
type AssignStmt struct {
	At         Pos
	Var        string
	Annotation string
	Expr       Expr
}

// AugAssignStmt is `x op= e`; Op is the binary operator.
type AugAssignStmt struct {
	At   Pos
	Var  string
	Op   TokenType
	Expr Expr
}

type ReturnStmt struct {
	At   Pos
	Expr Expr // nil for a bare return
}

type IfStmt struct {
	At   Pos
	Cond Expr
	Then []Stmt
	Else []Stmt
}

type WhileStmt struct {
	At   Pos
	Cond Expr
	Body []Stmt
}

type ExprStmt struct {
	At   Pos
	Expr Expr
}

type PassStmt struct {
	At Pos
}

type GlobalStmt struct {
	At    Pos
	Names []string
}

func (s *FunctionStmt) Position() Pos  { return s.At }
func (s *AssignStmt) Position() Pos    { return s.At }
func (s *AugAssignStmt) Position() Pos { return s.At }
func (s *ReturnStmt) Position() Pos    { return s.At }
func (s *IfStmt) Position() Pos        { return s.At }
func (s *WhileStmt) Position() Pos     { return s.At }
func (s *ExprStmt) Position() Pos      { return s.At }
func (s *PassStmt) Position() Pos      { return s.At }
func (s *GlobalStmt) Position() Pos    { return s.At }

func (*FunctionStmt) stmtNode()  {}
func (*AssignStmt) stmtNode()    {}
func (*AugAssignStmt) stmtNode() {}
func (*ReturnStmt) stmtNode()    {}
func (*IfStmt) stmtNode()        {}
func (*WhileStmt) stmtNode()     {}
func (*ExprStmt) stmtNode()      {}
func (*PassStmt) stmtNode()      {}
func (*GlobalStmt) stmtNode()    {}
