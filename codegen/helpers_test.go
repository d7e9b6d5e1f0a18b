package codegen

import (
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/nalgeon/be"

	"github.com/rheehot/dsp/parser"
)

// declare registers a function with the given signature, bypassing the
// statement compiler.
func declare(t *testing.T, cg *CodeGen, name string, ret ValueType, params ...ValueType) *Signature {
	t.Helper()
	var irParams []*ir.Param
	for _, p := range params {
		irParams = append(irParams, ir.NewParam("", p.IRType()))
	}
	sig := &Signature{Name: name, Params: params, Ret: ret, Func: cg.module.NewFunc(name, ret.IRType(), irParams...)}
	be.True(t, cg.functions.Declare(name, sig))
	return sig
}

// body opens a function frame to lower expressions in.
func body(t *testing.T, cg *CodeGen) *Frame {
	t.Helper()
	return cg.NewFrame(declare(t, cg, "test_body", TypeVoid))
}

func lower(t *testing.T, cg *CodeGen, f *Frame, src string) (Value, error) {
	t.Helper()
	expr, err := parser.ParseExpr(src)
	be.Err(t, err, nil)
	return cg.LowerExpr(f, expr)
}

func mustLower(t *testing.T, cg *CodeGen, f *Frame, src string) Value {
	t.Helper()
	v, err := lower(t, cg, f, src)
	be.Err(t, err, nil)
	return v
}

func intConst(t *testing.T, v Value) int64 {
	t.Helper()
	c, ok := v.IR().(*constant.Int)
	be.True(t, ok)
	return c.X.Int64()
}

// lastCall returns the most recent call instruction in the frame's block.
func lastCall(t *testing.T, f *Frame) *ir.InstCall {
	t.Helper()
	insts := f.Block().Insts
	for i := len(insts) - 1; i >= 0; i-- {
		if call, ok := insts[i].(*ir.InstCall); ok {
			return call
		}
	}
	t.Fatal("no call instruction in block")
	return nil
}
