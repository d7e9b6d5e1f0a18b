package codegen

import (
	"fmt"
	"math/big"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"

	"github.com/rheehot/dsp/parser"
)

var mask16 = big.NewInt(0xFFFF)

// truncateI16 keeps the low 16 bits of x as a signed value.
func truncateI16(x *big.Int) int64 {
	v := new(big.Int).And(x, mask16).Int64()
	if v >= 0x8000 {
		v -= 0x10000
	}
	return v
}

func (cg *CodeGen) lowerLiteral(f *Frame, expr parser.Expr) (Value, error) {
	switch e := expr.(type) {
	case *parser.NumberExpr:
		return lowerNumber(e, false)
	case *parser.StringExpr:
		return cg.lowerString(f, e)
	case *parser.BoolExpr:
		return Bool{V: constant.NewBool(e.Value)}, nil
	case *parser.NoneExpr:
		return Void{}, nil
	case *parser.EllipsisExpr:
		return nil, newError(e.At, ErrUnsupportedLiteral, "constant value Ellipsis is not supported")
	case *parser.UnaryExpr:
		return lowerNegation(e)
	}
	return nil, newError(expr.Position(), ErrUnsupportedExpression, "%s is not a literal", describeExpr(expr))
}

// lowerNumber folds an optional negation into the literal. Integers are
// always I16 regardless of magnitude.
func lowerNumber(e *parser.NumberExpr, negate bool) (Value, error) {
	switch e.Kind {
	case parser.NumberInt:
		x := e.Int
		if negate {
			x = new(big.Int).Neg(x)
		}
		return I16{V: constant.NewInt(types.I16, truncateI16(x))}, nil
	case parser.NumberFloat:
		v := e.Float
		if negate {
			v = -v
		}
		return F32{V: constant.NewFloat(types.Float, float64(float32(v)))}, nil
	}
	return nil, newError(e.At, ErrUnsupportedLiteral, "imaginary number %s is not supported", e.Raw)
}

// lowerNegation only accepts `-` applied directly to a numeric literal.
func lowerNegation(e *parser.UnaryExpr) (Value, error) {
	num, ok := e.Expr.(*parser.NumberExpr)
	if e.Op != parser.TokenMinus || !ok {
		return nil, newError(e.At, ErrUnsupportedUnaryOperand,
			"unary '%s' is only supported as negation of a numeric literal, not on %s", e.Op, describeExpr(e.Expr))
	}
	return lowerNumber(num, true)
}

func (cg *CodeGen) lowerString(f *Frame, e *parser.StringExpr) (Value, error) {
	if !f.inFunction() {
		return nil, newError(e.At, ErrUnsupportedContext, "string literals are only supported inside a function body")
	}
	cg.stringCounter++
	g := cg.module.NewGlobalDef(fmt.Sprintf(".str.%d", cg.stringCounter), constant.NewCharArrayFromString(e.Value+"\x00"))
	g.Immutable = true
	g.Linkage = enum.LinkagePrivate
	g.UnnamedAddr = enum.UnnamedAddrUnnamedAddr
	zero := constant.NewInt(types.I16, 0)
	ptr := f.block.NewGetElementPtr(g.ContentType, g, zero, zero)
	ptr.InBounds = true
	return Str{V: ptr}, nil
}
