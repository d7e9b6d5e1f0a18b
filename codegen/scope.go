package codegen

import (
	"github.com/llir/llvm/ir/value"

	"github.com/rheehot/dsp/parser"
)

// Symbol binds a name to a typed storage slot. Loc is an alloca for
// locals and a global for module variables; the backend owns it.
type Symbol struct {
	Name string
	Type ValueType
	Loc  value.Value
}

// Scope maps names to symbols. A compilation unit has one global scope
// and one local scope per function being compiled.
type Scope struct {
	symbols map[string]Symbol
}

func NewScope() *Scope {
	return &Scope{symbols: make(map[string]Symbol)}
}

// Declare adds sym; a name can be declared once per scope.
func (s *Scope) Declare(sym Symbol) bool {
	if _, exists := s.symbols[sym.Name]; exists {
		return false
	}
	s.symbols[sym.Name] = sym
	return true
}

func (s *Scope) Lookup(name string) (Symbol, bool) {
	sym, ok := s.symbols[name]
	return sym, ok
}

func (s *Scope) Len() int {
	return len(s.symbols)
}

// Resolve looks name up in local first and then in global. local is nil
// outside a function body.
func Resolve(name string, local, global *Scope) (Symbol, bool) {
	if local != nil {
		if sym, ok := local.Lookup(name); ok {
			return sym, true
		}
	}
	return global.Lookup(name)
}

// resolve applies the function's `global` declarations before Resolve.
func (cg *CodeGen) resolve(f *Frame, name string, pos parser.Pos) (Symbol, error) {
	local := f.locals
	if f.globalNames[name] {
		local = nil
	}
	sym, ok := Resolve(name, local, cg.globals)
	if !ok {
		return Symbol{}, newError(pos, ErrName, "name '%s' is not defined", name)
	}
	return sym, nil
}

// genVar loads the storage behind an identifier.
func (cg *CodeGen) genVar(f *Frame, e *parser.VarExpr) (Value, error) {
	sym, err := cg.resolve(f, e.Name, e.At)
	if err != nil {
		return nil, err
	}
	if sym.Type == TypeVoid {
		return Void{}, nil
	}
	load := f.block.NewLoad(sym.Type.IRType(), sym.Loc)
	return mustValue(sym.Type, load), nil
}
