package codegen

import (
	"errors"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/nalgeon/be"
)

func TestResolveFallsBackToGlobal(t *testing.T) {
	global := NewScope()
	local := NewScope()
	g := ir.NewGlobalDef("count", constant.NewInt(types.I16, 0))
	be.True(t, global.Declare(Symbol{Name: "count", Type: TypeI16, Loc: g}))

	sym, ok := Resolve("count", local, global)
	be.True(t, ok)
	be.Equal(t, sym.Type, TypeI16)

	sym, ok = Resolve("count", nil, global)
	be.True(t, ok)
	be.Equal(t, sym.Name, "count")

	_, ok = Resolve("missing", local, global)
	be.True(t, !ok)
}

func TestScopeDeclareOnce(t *testing.T) {
	s := NewScope()
	be.True(t, s.Declare(Symbol{Name: "x", Type: TypeI16}))
	be.True(t, !s.Declare(Symbol{Name: "x", Type: TypeF32}))
	sym, _ := s.Lookup("x")
	be.Equal(t, sym.Type, TypeI16)
	be.Equal(t, s.Len(), 1)
}

func TestGlobalReadInsideFunction(t *testing.T) {
	cg := NewCodeGen()
	g := cg.module.NewGlobalDef("speed", constant.NewInt(types.I16, 5))
	cg.globals.Declare(Symbol{Name: "speed", Type: TypeI16, Loc: g})

	f := body(t, cg)
	v := mustLower(t, cg, f, "speed")
	be.Equal(t, v.Type(), TypeI16)
	load, ok := v.IR().(*ir.InstLoad)
	be.True(t, ok)
	be.True(t, load.Src == g)
}

func TestLocalShadowsGlobal(t *testing.T) {
	cg := NewCodeGen()
	g := cg.module.NewGlobalDef("x", constant.NewInt(types.I16, 1))
	cg.globals.Declare(Symbol{Name: "x", Type: TypeI16, Loc: g})

	f := body(t, cg)
	slot := f.entry.NewAlloca(types.Float)
	f.Locals().Declare(Symbol{Name: "x", Type: TypeF32, Loc: slot})

	v := mustLower(t, cg, f, "x")
	be.Equal(t, v.Type(), TypeF32)
	load := v.IR().(*ir.InstLoad)
	be.True(t, load.Src == slot)

	// The top frame has no local scope and sees the global.
	v = mustLower(t, cg, cg.TopFrame(), "x")
	be.Equal(t, v.Type(), TypeI16)
}

func TestGlobalDeclarationBypassesLocals(t *testing.T) {
	cg := NewCodeGen()
	g := cg.module.NewGlobalDef("x", constant.NewInt(types.I16, 1))
	cg.globals.Declare(Symbol{Name: "x", Type: TypeI16, Loc: g})

	f := body(t, cg)
	f.Locals().Declare(Symbol{Name: "x", Type: TypeF32, Loc: f.entry.NewAlloca(types.Float)})
	f.globalNames["x"] = true

	v := mustLower(t, cg, f, "x")
	be.Equal(t, v.Type(), TypeI16)
	be.True(t, v.IR().(*ir.InstLoad).Src == g)
}

func TestUndefinedName(t *testing.T) {
	cg := NewCodeGen()
	f := body(t, cg)
	_, err := lower(t, cg, f, "nowhere")
	be.Err(t, err, ErrName)
	be.Err(t, err, "name 'nowhere' is not defined")

	var e *Error
	be.True(t, errors.As(err, &e))
	be.Equal(t, e.Pos.Line, 1)
	be.Equal(t, e.Pos.Col, 1)
}

func TestBoardConstants(t *testing.T) {
	cg := NewCodeGen()
	v := mustLower(t, cg, cg.TopFrame(), "LED_BUILTIN")
	be.Equal(t, v.Type(), TypeI16)
	g := v.IR().(*ir.InstLoad).Src.(*ir.Global)
	be.True(t, g.Immutable)
	be.Equal(t, g.Init.(*constant.Int).X.Int64(), int64(13))
}
