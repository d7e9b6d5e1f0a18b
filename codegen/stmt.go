package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/rheehot/dsp/parser"
)

// declareFunction registers the signature of a top-level def so calls can
// resolve it before its body is lowered. Unannotated parameters are int;
// a missing return annotation means None.
func (cg *CodeGen) declareFunction(s *parser.FunctionStmt) error {
	if _, exists := cg.functions.Lookup(s.Name); exists {
		return newError(s.At, ErrRedeclared, "function '%s' is already defined", s.Name)
	}
	if s.Name == initFuncName {
		return newError(s.At, ErrRedeclared, "'%s' is reserved", s.Name)
	}
	sig := &Signature{Name: s.Name, Ret: TypeVoid}
	if s.Returns != "" {
		t, ok := ParseAnnotation(s.Returns)
		if !ok {
			return newError(s.At, ErrTypeMismatch, "unknown return type '%s'", s.Returns)
		}
		sig.Ret = t
	}
	var params []*ir.Param
	seen := make(map[string]bool)
	for _, p := range s.Params {
		if seen[p.Name] {
			return newError(p.At, ErrRedeclared, "duplicate parameter '%s' in %s()", p.Name, s.Name)
		}
		seen[p.Name] = true
		t := TypeI16
		if p.Annotation != "" {
			var ok bool
			if t, ok = ParseAnnotation(p.Annotation); !ok || t == TypeVoid {
				return newError(p.At, ErrTypeMismatch, "unsupported parameter type '%s'", p.Annotation)
			}
		}
		sig.Params = append(sig.Params, t)
		params = append(params, ir.NewParam(p.Name, t.IRType()))
	}
	sig.Func = cg.module.NewFunc(s.Name, sig.Ret.IRType(), params...)
	cg.functions.Declare(s.Name, sig)
	cg.defs[s] = sig
	return nil
}

func (cg *CodeGen) genFunction(s *parser.FunctionStmt) {
	sig, ok := cg.defs[s]
	if !ok {
		return // declaration already reported
	}
	f := cg.NewFrame(sig)
	if s.Name == "setup" {
		f.block.NewCall(cg.init)
	}
	for i, param := range sig.Func.Params {
		alloc := f.entry.NewAlloca(param.Type())
		f.block.NewStore(param, alloc)
		f.locals.Declare(Symbol{Name: s.Params[i].Name, Type: sig.Params[i], Loc: alloc})
	}

	cg.genStmts(f, s.Body)

	if f.block.Term == nil {
		if sig.Ret == TypeVoid {
			f.block.NewRet(nil)
		} else {
			f.block.NewRet(zeroValue(sig.Ret))
		}
	}
}

// genStmts lowers each statement, reporting failures and carrying on.
func (cg *CodeGen) genStmts(f *Frame, stmts []parser.Stmt) {
	for _, stmt := range stmts {
		if err := cg.genStmt(f, stmt); err != nil {
			cg.report(err)
		}
	}
}

func (cg *CodeGen) genStmt(f *Frame, stmt parser.Stmt) error {
	switch s := stmt.(type) {
	case *parser.ExprStmt:
		_, err := cg.genExpr(f, s.Expr)
		return err
	case *parser.PassStmt:
		return nil
	case *parser.GlobalStmt:
		if f.inFunction() {
			for _, name := range s.Names {
				if _, local := f.locals.Lookup(name); local {
					return newError(s.At, ErrRedeclared, "name '%s' is assigned to before global declaration", name)
				}
				f.globalNames[name] = true
			}
		}
		return nil
	case *parser.AssignStmt:
		return cg.genAssign(f, s)
	case *parser.AugAssignStmt:
		sym, ok := cg.storageFor(f, s.Var)
		if !ok {
			return newError(s.At, ErrName, "name '%s' is not defined", s.Var)
		}
		bin := &parser.BinaryExpr{At: s.At, Op: s.Op, Left: &parser.VarExpr{At: s.At, Name: s.Var}, Right: s.Expr}
		val, err := cg.genExpr(f, bin)
		if err != nil {
			return err
		}
		return cg.store(f, sym, val, s.At)
	case *parser.ReturnStmt:
		return cg.genReturn(f, s)
	case *parser.IfStmt:
		cg.ifCounter++
		id := cg.ifCounter
		cond, err := cg.genCondition(f, s.Cond)
		if err != nil {
			return err
		}
		thenBB := f.fn.NewBlock(fmt.Sprintf("if_then_%d", id))
		elseBB := f.fn.NewBlock(fmt.Sprintf("if_else_%d", id))
		mergeBB := f.fn.NewBlock(fmt.Sprintf("if_merge_%d", id))
		f.block.NewCondBr(cond, thenBB, elseBB)

		f.block = thenBB
		cg.genStmts(f, s.Then)
		if f.block.Term == nil {
			f.block.NewBr(mergeBB)
		}
		f.block = elseBB
		cg.genStmts(f, s.Else)
		if f.block.Term == nil {
			f.block.NewBr(mergeBB)
		}
		f.block = mergeBB
		return nil
	case *parser.WhileStmt:
		cg.whileCounter++
		id := cg.whileCounter
		condBB := f.fn.NewBlock(fmt.Sprintf("while_cond_%d", id))
		bodyBB := f.fn.NewBlock(fmt.Sprintf("while_body_%d", id))
		exitBB := f.fn.NewBlock(fmt.Sprintf("while_exit_%d", id))
		f.block.NewBr(condBB)

		f.block = condBB
		cond, err := cg.genCondition(f, s.Cond)
		if err != nil {
			return err
		}
		f.block.NewCondBr(cond, bodyBB, exitBB)

		f.block = bodyBB
		cg.genStmts(f, s.Body)
		if f.block.Term == nil {
			f.block.NewBr(condBB)
		}
		f.block = exitBB
		return nil
	case *parser.FunctionStmt:
		return newError(s.At, ErrUnsupportedStatement, "nested function '%s' is not supported", s.Name)
	}
	return newError(stmt.Position(), ErrUnsupportedStatement, "unsupported statement %T", stmt)
}

// storageFor finds the slot an assignment to name writes to. Inside a
// function that is the local scope unless name was declared global.
func (cg *CodeGen) storageFor(f *Frame, name string) (Symbol, bool) {
	if f.inFunction() && !f.globalNames[name] {
		return f.locals.Lookup(name)
	}
	return cg.globals.Lookup(name)
}

func (cg *CodeGen) genAssign(f *Frame, s *parser.AssignStmt) error {
	val, err := cg.genExpr(f, s.Expr)
	if err != nil {
		return err
	}
	typ := val.Type()
	if s.Annotation != "" {
		t, ok := ParseAnnotation(s.Annotation)
		if !ok {
			return newError(s.At, ErrTypeMismatch, "unknown type annotation '%s'", s.Annotation)
		}
		typ = t
	}
	if typ == TypeVoid {
		return newError(s.At, ErrTypeMismatch, "cannot assign a None value to '%s'", s.Var)
	}

	sym, ok := cg.storageFor(f, s.Var)
	if ok {
		if s.Annotation != "" && typ != sym.Type {
			return newError(s.At, ErrRedeclared, "'%s' is already declared as %s", s.Var, sym.Type)
		}
		return cg.store(f, sym, val, s.At)
	}

	if f.inFunction() && !f.globalNames[s.Var] {
		sym = Symbol{Name: s.Var, Type: typ, Loc: f.entry.NewAlloca(typ.IRType())}
		f.locals.Declare(sym)
		return cg.store(f, sym, val, s.At)
	}

	if _, clash := cg.functions.Lookup(s.Var); clash {
		return newError(s.At, ErrRedeclared, "'%s' is already defined as a function", s.Var)
	}
	// At top level a constant of the declared type becomes the initializer.
	if c, isConst := val.IR().(constant.Constant); isConst && val.Type() == typ && !f.inFunction() {
		g := cg.module.NewGlobalDef(s.Var, c)
		cg.globals.Declare(Symbol{Name: s.Var, Type: typ, Loc: g})
		return nil
	}
	sym = Symbol{Name: s.Var, Type: typ, Loc: cg.module.NewGlobalDef(s.Var, zeroValue(typ))}
	cg.globals.Declare(sym)
	return cg.store(f, sym, val, s.At)
}

func (cg *CodeGen) store(f *Frame, sym Symbol, val Value, pos parser.Pos) error {
	if g, ok := sym.Loc.(*ir.Global); ok && g.Immutable {
		return newError(pos, ErrTypeMismatch, "cannot assign to constant '%s'", sym.Name)
	}
	v, err := coerce(f.block, val, sym.Type)
	if err != nil {
		return newError(pos, ErrTypeMismatch, "assignment to '%s': %v", sym.Name, err)
	}
	f.block.NewStore(v, sym.Loc)
	return nil
}

func (cg *CodeGen) genReturn(f *Frame, s *parser.ReturnStmt) error {
	if !f.inFunction() {
		return newError(s.At, ErrUnsupportedStatement, "'return' outside function")
	}
	var val Value = Void{}
	if s.Expr != nil {
		v, err := cg.genExpr(f, s.Expr)
		if err != nil {
			return err
		}
		val = v
	}
	switch {
	case f.sig.Ret == TypeVoid && val.Type() == TypeVoid:
		f.block.NewRet(nil)
	case f.sig.Ret == TypeVoid || val.Type() == TypeVoid:
		return newError(s.At, ErrTypeMismatch, "%s() returns %s, got %s", f.sig.Name, f.sig.Ret, val.Type())
	default:
		v, err := coerce(f.block, val, f.sig.Ret)
		if err != nil {
			return newError(s.At, ErrTypeMismatch, "return from %s(): %v", f.sig.Name, err)
		}
		f.block.NewRet(v)
	}
	// Statements after a return land in a block nothing branches to.
	cg.returnCounter++
	f.block = f.fn.NewBlock(fmt.Sprintf("after_return_%d", cg.returnCounter))
	return nil
}

// genCondition turns a value into an i1: bools as they are, numbers
// compared against zero.
func (cg *CodeGen) genCondition(f *Frame, expr parser.Expr) (value.Value, error) {
	v, err := cg.genExpr(f, expr)
	if err != nil {
		return nil, err
	}
	switch c := v.(type) {
	case Bool:
		return c.V, nil
	case I8:
		return f.block.NewICmp(enum.IPredNE, c.V, constant.NewInt(types.I8, 0)), nil
	case I16:
		return f.block.NewICmp(enum.IPredNE, c.V, constant.NewInt(types.I16, 0)), nil
	case F32:
		return f.block.NewFCmp(enum.FPredONE, c.V, constant.NewFloat(types.Float, 0)), nil
	}
	return nil, newError(expr.Position(), ErrTypeMismatch, "%s value cannot be used as a condition", v.Type())
}

// coerce converts v for storage as type to: equal types pass through and
// integers are resized with sign extension or truncation.
func coerce(b *ir.Block, v Value, to ValueType) (value.Value, error) {
	from := v.Type()
	switch {
	case from == to:
		return v.IR(), nil
	case from.IsInt() && to.IsInt():
		bits := uint64(8)
		if from == TypeI16 {
			bits = 16
		}
		return intCast(b, v.IR(), bits, to.IRType().(*types.IntType)), nil
	}
	return nil, fmt.Errorf("cannot use %s value as %s", from, to)
}

// zeroValue is the default for fresh globals and for a function that
// falls off its end.
func zeroValue(t ValueType) constant.Constant {
	switch t {
	case TypeI8:
		return constant.NewInt(types.I8, 0)
	case TypeI16:
		return constant.NewInt(types.I16, 0)
	case TypeF32:
		return constant.NewFloat(types.Float, 0)
	case TypeStr:
		return constant.NewNull(types.I8Ptr)
	case TypeBool:
		return constant.NewBool(false)
	}
	return nil
}
