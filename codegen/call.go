package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/rheehot/dsp/parser"
)

// lowerCall lowers a call to a named function.
//
// The first argument is lowered before the callee is resolved because its
// type selects among mangled overloads. Arguments and parameters are
// paired positionally up to the shorter list: surplus arguments are still
// lowered, in order, but not passed, and missing ones are not supplied.
// WithStrictArity turns both cases into ErrArityMismatch.
func (cg *CodeGen) lowerCall(f *Frame, e *parser.CallExpr) (Value, error) {
	callee, ok := e.Callee.(*parser.VarExpr)
	if !ok {
		return nil, newError(e.At, ErrUnsupportedCallee,
			"cannot call %s, only plain function names are callable", describeExpr(e.Callee))
	}

	var first Value
	if len(e.Args) > 0 {
		v, err := cg.genExpr(f, e.Args[0])
		if err != nil {
			return nil, err
		}
		first = v
	}

	sig, err := cg.resolveFunction(callee, first)
	if err != nil {
		return nil, err
	}
	params := sig.Func.Params
	if len(e.Args) != len(params) {
		if cg.strictArity {
			return nil, newError(e.At, ErrArityMismatch,
				"%s() takes %d argument(s) but %d were given", callee.Name, len(params), len(e.Args))
		}
		cg.diags.Warningf(e.At.Line, e.At.Col,
			"%s() takes %d argument(s) but %d were given", callee.Name, len(params), len(e.Args))
	}

	n := min(len(e.Args), len(params))
	args := make([]value.Value, 0, n)
	for i, argExpr := range e.Args {
		arg := first
		if i > 0 {
			if arg, err = cg.genExpr(f, argExpr); err != nil {
				return nil, err
			}
		}
		if i >= n {
			continue
		}
		cast, err := castArgument(f.block, arg, params[i].Type())
		if err != nil {
			return nil, newError(argExpr.Position(), ErrUnsupportedArgumentType,
				"argument %d of %s(): %v", i+1, callee.Name, err)
		}
		args = append(args, cast)
	}

	call := f.block.NewCall(sig.Func, args...)
	call.Tail = enum.TailTail
	return callResult(call, e.At)
}

// resolveFunction tries the plain name, then the overload selected by the
// type of the first argument.
func (cg *CodeGen) resolveFunction(callee *parser.VarExpr, first Value) (*Signature, error) {
	if sig, ok := cg.functions.Lookup(callee.Name); ok {
		return sig, nil
	}
	if first == nil {
		return nil, newError(callee.At, ErrUndefinedFunction, "function '%s' is not defined", callee.Name)
	}
	if sig, ok := cg.functions.Lookup(Mangle(callee.Name, first.Type())); ok {
		return sig, nil
	}
	return nil, newError(callee.At, ErrUndefinedFunction,
		"function '%s' is not defined for a %s argument", callee.Name, first.Type())
}

type castError struct {
	arg   ValueType
	param types.Type
}

func (e castError) Error() string {
	return "cannot pass " + e.arg.String() + " value as " + e.param.String()
}

// castArgument converts arg to the parameter representation. I16 values
// are only ever truncated, never widened.
func castArgument(b *ir.Block, arg Value, param types.Type) (value.Value, error) {
	switch v := arg.(type) {
	case I8:
		it, ok := param.(*types.IntType)
		if !ok {
			return nil, castError{arg: TypeI8, param: param}
		}
		return intCast(b, v.V, 8, it), nil
	case I16:
		it, ok := param.(*types.IntType)
		if !ok || it.BitSize > 16 {
			return nil, castError{arg: TypeI16, param: param}
		}
		if it.BitSize == 16 {
			return v.V, nil
		}
		return b.NewTrunc(v.V, it), nil
	case F32:
		if ft, ok := param.(*types.FloatType); !ok || ft.Kind != types.FloatKindFloat {
			return nil, castError{arg: TypeF32, param: param}
		}
		return v.V, nil
	case Str:
		if !param.Equal(types.I8Ptr) {
			return nil, castError{arg: TypeStr, param: param}
		}
		return v.V, nil
	case Bool:
		return nil, castError{arg: TypeBool, param: param}
	case Void:
		return nil, castError{arg: TypeVoid, param: param}
	}
	return nil, castError{arg: arg.Type(), param: param}
}

// intCast is a sign-respecting integer resize; equal widths are a no-op.
func intCast(b *ir.Block, v value.Value, from uint64, to *types.IntType) value.Value {
	switch {
	case to.BitSize == from:
		return v
	case to.BitSize < from:
		return b.NewTrunc(v, to)
	default:
		return b.NewSExt(v, to)
	}
}

// callResult tags a call by the backend's return representation.
func callResult(call *ir.InstCall, pos parser.Pos) (Value, error) {
	switch t := call.Type().(type) {
	case *types.VoidType:
		return Void{}, nil
	case *types.IntType:
		switch t.BitSize {
		case 8:
			return I8{V: call}, nil
		case 16:
			return I16{V: call}, nil
		}
		return nil, newError(pos, ErrUnsupportedReturn, "calls returning %d-bit integers are not supported", t.BitSize)
	case *types.FloatType:
		if t.Kind == types.FloatKindFloat {
			return F32{V: call}, nil
		}
	}
	return nil, newError(pos, ErrUnsupportedReturn, "calls returning %s are not supported", call.Type())
}
