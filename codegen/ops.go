package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/rheehot/dsp/parser"
)

// OperatorLowerer emits the IR for operators on already-lowered operands.
// Operands arrive in source order.
type OperatorLowerer interface {
	BinaryOp(b *ir.Block, op parser.TokenType, lhs, rhs Value) (Value, error)
	// Compare lowers a chain a op0 b op1 c ...; len(operands) == len(ops)+1.
	Compare(b *ir.Block, ops []parser.TokenType, operands []Value) (Value, error)
}

func (cg *CodeGen) lowerBinop(f *Frame, e *parser.BinaryExpr) (Value, error) {
	lhs, err := cg.genExpr(f, e.Left)
	if err != nil {
		return nil, err
	}
	rhs, err := cg.genExpr(f, e.Right)
	if err != nil {
		return nil, err
	}
	v, err := cg.ops.BinaryOp(f.block, e.Op, lhs, rhs)
	if err != nil {
		return nil, at(e.At, err)
	}
	return v, nil
}

func (cg *CodeGen) lowerCompare(f *Frame, e *parser.CompareExpr) (Value, error) {
	operands := make([]Value, 0, len(e.Operands))
	for _, operand := range e.Operands {
		v, err := cg.genExpr(f, operand)
		if err != nil {
			return nil, err
		}
		operands = append(operands, v)
	}
	v, err := cg.ops.Compare(f.block, e.Ops, operands)
	if err != nil {
		return nil, at(e.At, err)
	}
	return v, nil
}

// NumericOps is the AVR operator lowering. Mixed integer widths widen to
// the wider one with sign extension; an integer meeting a float is
// converted to float. Division is C-like: it truncates toward zero.
type NumericOps struct{}

func (NumericOps) BinaryOp(b *ir.Block, op parser.TokenType, lhs, rhs Value) (Value, error) {
	t, x, y, err := promote(b, lhs, rhs)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s' between %s and %s", ErrUnsupportedOperator, op, lhs.Type(), rhs.Type())
	}
	var inst value.Value
	if t == TypeF32 {
		switch op {
		case parser.TokenPlus:
			inst = b.NewFAdd(x, y)
		case parser.TokenMinus:
			inst = b.NewFSub(x, y)
		case parser.TokenMul:
			inst = b.NewFMul(x, y)
		case parser.TokenDiv:
			inst = b.NewFDiv(x, y)
		case parser.TokenMod:
			inst = b.NewFRem(x, y)
		}
	} else {
		switch op {
		case parser.TokenPlus:
			inst = b.NewAdd(x, y)
		case parser.TokenMinus:
			inst = b.NewSub(x, y)
		case parser.TokenMul:
			inst = b.NewMul(x, y)
		case parser.TokenDiv, parser.TokenFloorDiv:
			inst = b.NewSDiv(x, y)
		case parser.TokenMod:
			inst = b.NewSRem(x, y)
		case parser.TokenAmp:
			inst = b.NewAnd(x, y)
		case parser.TokenPipe:
			inst = b.NewOr(x, y)
		case parser.TokenCaret:
			inst = b.NewXor(x, y)
		case parser.TokenShl:
			inst = b.NewShl(x, y)
		case parser.TokenShr:
			inst = b.NewAShr(x, y)
		}
	}
	if inst == nil {
		return nil, fmt.Errorf("%w: '%s' on %s operands", ErrUnsupportedOperator, op, t)
	}
	return mustValue(t, inst), nil
}

func (NumericOps) Compare(b *ir.Block, ops []parser.TokenType, operands []Value) (Value, error) {
	if len(ops) == 0 || len(operands) != len(ops)+1 {
		return nil, fmt.Errorf("%w: %d operands for %d comparisons", ErrUnsupportedOperator, len(operands), len(ops))
	}
	var result value.Value
	for i, op := range ops {
		c, err := compare(b, op, operands[i], operands[i+1])
		if err != nil {
			return nil, err
		}
		if result == nil {
			result = c
		} else {
			result = b.NewAnd(result, c)
		}
	}
	return Bool{V: result}, nil
}

var intPreds = map[parser.TokenType]enum.IPred{
	parser.TokenEQ: enum.IPredEQ,
	parser.TokenNE: enum.IPredNE,
	parser.TokenLT: enum.IPredSLT,
	parser.TokenLE: enum.IPredSLE,
	parser.TokenGT: enum.IPredSGT,
	parser.TokenGE: enum.IPredSGE,
}

var floatPreds = map[parser.TokenType]enum.FPred{
	parser.TokenEQ: enum.FPredOEQ,
	parser.TokenNE: enum.FPredONE,
	parser.TokenLT: enum.FPredOLT,
	parser.TokenLE: enum.FPredOLE,
	parser.TokenGT: enum.FPredOGT,
	parser.TokenGE: enum.FPredOGE,
}

func compare(b *ir.Block, op parser.TokenType, lhs, rhs Value) (value.Value, error) {
	if lhs.Type() == TypeBool && rhs.Type() == TypeBool && (op == parser.TokenEQ || op == parser.TokenNE) {
		return b.NewICmp(intPreds[op], lhs.IR(), rhs.IR()), nil
	}
	t, x, y, err := promote(b, lhs, rhs)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s' between %s and %s", ErrUnsupportedOperator, op, lhs.Type(), rhs.Type())
	}
	if t == TypeF32 {
		pred, ok := floatPreds[op]
		if !ok {
			return nil, fmt.Errorf("%w: comparison '%s'", ErrUnsupportedOperator, op)
		}
		return b.NewFCmp(pred, x, y), nil
	}
	pred, ok := intPreds[op]
	if !ok {
		return nil, fmt.Errorf("%w: comparison '%s'", ErrUnsupportedOperator, op)
	}
	return b.NewICmp(pred, x, y), nil
}

// promote brings two numeric operands to a common type.
func promote(b *ir.Block, lhs, rhs Value) (ValueType, value.Value, value.Value, error) {
	lt, rt := lhs.Type(), rhs.Type()
	switch {
	case lt == rt && (lt.IsInt() || lt == TypeF32):
		return lt, lhs.IR(), rhs.IR(), nil
	case lt.IsInt() && rt.IsInt():
		return TypeI16, widen(b, lhs), widen(b, rhs), nil
	case lt.IsInt() && rt == TypeF32:
		return TypeF32, b.NewSIToFP(lhs.IR(), types.Float), rhs.IR(), nil
	case lt == TypeF32 && rt.IsInt():
		return TypeF32, lhs.IR(), b.NewSIToFP(rhs.IR(), types.Float), nil
	}
	return TypeVoid, nil, nil, fmt.Errorf("no common numeric type for %s and %s", lt, rt)
}

func widen(b *ir.Block, v Value) value.Value {
	if v.Type() == TypeI8 {
		return b.NewSExt(v.IR(), types.I16)
	}
	return v.IR()
}
