package codegen

import (
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/nalgeon/be"
)

func TestMangle(t *testing.T) {
	be.Equal(t, Mangle("print", TypeI16), "print__i16")
	be.Equal(t, Mangle("print", TypeStr), "print__str")
	be.Equal(t, Mangle("show", TypeF32), "show__f32")
}

func TestCallResolvesOverloadByFirstArgument(t *testing.T) {
	cg := NewCodeGen()
	f := body(t, cg)
	ints := declare(t, cg, "show__i16", TypeVoid, TypeI16)
	floats := declare(t, cg, "show__f32", TypeVoid, TypeF32)

	v := mustLower(t, cg, f, "show(5)")
	be.Equal(t, v.Type(), TypeVoid)
	be.True(t, lastCall(t, f).Callee == ints.Func)

	mustLower(t, cg, f, "show(2.5)")
	be.True(t, lastCall(t, f).Callee == floats.Func)

	_, err := lower(t, cg, f, `show("text")`)
	be.Err(t, err, ErrUndefinedFunction)
}

func TestPlainNameWinsOverMangled(t *testing.T) {
	cg := NewCodeGen()
	f := body(t, cg)
	plain := declare(t, cg, "show", TypeVoid, TypeI16)
	declare(t, cg, "show__i16", TypeVoid, TypeI16)

	mustLower(t, cg, f, "show(1)")
	be.True(t, lastCall(t, f).Callee == plain.Func)
}

func TestBuiltinPrintOverloads(t *testing.T) {
	cg := NewCodeGen()
	f := body(t, cg)
	mustLower(t, cg, f, `print("hi")`)
	be.Equal(t, lastCall(t, f).Callee.Ident(), "@dsp_print_str")
	mustLower(t, cg, f, "print(1.5)")
	be.Equal(t, lastCall(t, f).Callee.Ident(), "@dsp_print_f32")
	mustLower(t, cg, f, "print(7)")
	be.Equal(t, lastCall(t, f).Callee.Ident(), "@dsp_print_i16")
}

func TestZeroArgumentCallSkipsMangling(t *testing.T) {
	cg := NewCodeGen()
	f := body(t, cg)
	declare(t, cg, "tick__i16", TypeVoid, TypeI16)

	_, err := lower(t, cg, f, "tick()")
	be.Err(t, err, ErrUndefinedFunction)
	_, err = lower(t, cg, f, "nothing(1)")
	be.Err(t, err, ErrUndefinedFunction)
}

func TestFirstArgumentLoweredBeforeResolution(t *testing.T) {
	cg := NewCodeGen()
	f := body(t, cg)
	// The argument fails first even though the callee is unknown too.
	_, err := lower(t, cg, f, "nothing(missing)")
	be.Err(t, err, ErrName)
}

func TestUnsupportedCallee(t *testing.T) {
	cg := NewCodeGen()
	f := body(t, cg)
	for _, src := range []string{"board.led(1)", "nothing(1)(2)", "(lambda: 1)()"} {
		_, err := lower(t, cg, f, src)
		be.Err(t, err, ErrUnsupportedCallee)
	}
	// No argument or callee was lowered.
	be.Equal(t, len(f.Block().Insts), 0)
}

func TestI16ArgumentTruncatedToI8(t *testing.T) {
	cg := NewCodeGen()
	f := body(t, cg)
	declare(t, cg, "set", TypeVoid, TypeI8)

	mustLower(t, cg, f, "set(300)")
	call := lastCall(t, f)
	be.Equal(t, len(call.Args), 1)
	trunc, ok := call.Args[0].(*ir.InstTrunc)
	be.True(t, ok)
	be.True(t, trunc.To.Equal(types.I8))
	be.Equal(t, trunc.From.(*constant.Int).X.Int64(), int64(300))
}

func TestI8ArgumentSignExtended(t *testing.T) {
	cg := NewCodeGen()
	f := body(t, cg)
	declare(t, cg, "get", TypeI8)
	declare(t, cg, "take", TypeVoid, TypeI16)
	declare(t, cg, "take8", TypeVoid, TypeI8)

	mustLower(t, cg, f, "take(get())")
	sext, ok := lastCall(t, f).Args[0].(*ir.InstSExt)
	be.True(t, ok)
	be.True(t, sext.To.Equal(types.I16))

	// Same width passes the handle through.
	mustLower(t, cg, f, "take8(get())")
	_, isCall := lastCall(t, f).Args[0].(*ir.InstCall)
	be.True(t, isCall)
}

func TestI16ArgumentIsNeverWidened(t *testing.T) {
	cg := NewCodeGen()
	f := body(t, cg)
	sig := &Signature{Name: "wide", Params: []ValueType{TypeI16}, Ret: TypeVoid,
		Func: cg.module.NewFunc("wide", types.Void, ir.NewParam("", types.I32))}
	cg.functions.Declare("wide", sig)

	_, err := lower(t, cg, f, "wide(1)")
	be.Err(t, err, ErrUnsupportedArgumentType)
}

func TestPassThroughArguments(t *testing.T) {
	cg := NewCodeGen()
	f := body(t, cg)
	declare(t, cg, "scale", TypeVoid, TypeF32)
	declare(t, cg, "say", TypeVoid, TypeStr)
	declare(t, cg, "count", TypeVoid, TypeI16)

	mustLower(t, cg, f, "scale(0.5)")
	_, ok := lastCall(t, f).Args[0].(*constant.Float)
	be.True(t, ok)

	mustLower(t, cg, f, `say("x")`)
	_, ok = lastCall(t, f).Args[0].(*ir.InstGetElementPtr)
	be.True(t, ok)

	mustLower(t, cg, f, "count(9)")
	be.Equal(t, lastCall(t, f).Args[0].(*constant.Int).X.Int64(), int64(9))
}

func TestRejectedArgumentTypes(t *testing.T) {
	cg := NewCodeGen()
	f := body(t, cg)
	declare(t, cg, "take", TypeVoid, TypeI16)
	declare(t, cg, "nop", TypeVoid)
	declare(t, cg, "scale", TypeVoid, TypeF32)
	declare(t, cg, "say", TypeVoid, TypeStr)
	for _, src := range []string{
		"take(True)", "take(1 < 2)", "take(None)", "take(nop())", "scale(1)",
		"take(2.5)", `take("s")`, `scale("s")`, "say(1.5)", "say(1)",
	} {
		_, err := lower(t, cg, f, src)
		be.Err(t, err, ErrUnsupportedArgumentType)
	}
}

func TestSurplusArgumentsAreLoweredButDropped(t *testing.T) {
	cg := NewCodeGen()
	f := body(t, cg)
	one := declare(t, cg, "one", TypeVoid, TypeI16)
	side := declare(t, cg, "side", TypeI16)

	mustLower(t, cg, f, "one(1, side(), 3)")
	insts := f.Block().Insts
	be.Equal(t, len(insts), 2)
	be.True(t, insts[0].(*ir.InstCall).Callee == side.Func)
	call := insts[1].(*ir.InstCall)
	be.True(t, call.Callee == one.Func)
	be.Equal(t, len(call.Args), 1)

	// A failing surplus argument still fails the call.
	_, err := lower(t, cg, f, "one(1, missing)")
	be.Err(t, err, ErrName)
}

func TestMissingArgumentsAreNotSupplied(t *testing.T) {
	cg := NewCodeGen()
	f := body(t, cg)
	declare(t, cg, "two", TypeVoid, TypeI16, TypeI16)

	mustLower(t, cg, f, "two(1)")
	be.Equal(t, len(lastCall(t, f).Args), 1)
}

func TestStrictArity(t *testing.T) {
	cg := NewCodeGen(WithStrictArity())
	f := body(t, cg)
	declare(t, cg, "two", TypeVoid, TypeI16, TypeI16)

	_, err := lower(t, cg, f, "two(1)")
	be.Err(t, err, ErrArityMismatch)
	_, err = lower(t, cg, f, "two(1, 2, 3)")
	be.Err(t, err, ErrArityMismatch)
	mustLower(t, cg, f, "two(1, 2)")
}

func TestCallResultType(t *testing.T) {
	cg := NewCodeGen()
	f := body(t, cg)
	declare(t, cg, "r8", TypeI8)
	declare(t, cg, "r16", TypeI16)
	declare(t, cg, "rf", TypeF32)
	declare(t, cg, "rv", TypeVoid)

	for src, want := range map[string]ValueType{
		"r8()":  TypeI8,
		"r16()": TypeI16,
		"rf()":  TypeF32,
		"rv()":  TypeVoid,
	} {
		v := mustLower(t, cg, f, src)
		be.Equal(t, v.Type(), want)
	}
}

func TestUnsupportedCallResult(t *testing.T) {
	cg := NewCodeGen()
	f := body(t, cg)
	for name, ret := range map[string]types.Type{
		"rptr":  types.I8Ptr,
		"rwide": types.I32,
		"rbool": types.I1,
		"rdbl":  types.Double,
	} {
		cg.functions.Declare(name, &Signature{Name: name, Func: cg.module.NewFunc(name, ret)})
		_, err := lower(t, cg, f, name+"()")
		be.Err(t, err, ErrUnsupportedReturn)
	}
}

func TestCallsCarryTailHint(t *testing.T) {
	cg := NewCodeGen()
	f := body(t, cg)
	mustLower(t, cg, f, "delay(100)")
	call := lastCall(t, f)
	be.Equal(t, call.Tail, enum.TailTail)
	be.Equal(t, call.Callee.Ident(), "@dsp_delay")
}
