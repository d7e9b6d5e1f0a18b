package codegen

import (
	"sort"

	"github.com/llir/llvm/ir"
)

// Signature describes a callable known to the unit. Func is the backend
// function the call is emitted against.
type Signature struct {
	Name   string
	Params []ValueType
	Ret    ValueType
	Func   *ir.Func
}

// FuncTable is keyed by the lookup name: either a plain function name or
// a mangled overload name produced by Mangle.
type FuncTable struct {
	funcs map[string]*Signature
}

func NewFuncTable() *FuncTable {
	return &FuncTable{funcs: make(map[string]*Signature)}
}

func (t *FuncTable) Declare(key string, sig *Signature) bool {
	if _, exists := t.funcs[key]; exists {
		return false
	}
	t.funcs[key] = sig
	return true
}

func (t *FuncTable) Lookup(key string) (*Signature, bool) {
	sig, ok := t.funcs[key]
	return sig, ok
}

// Keys returns the declared lookup names in sorted order.
func (t *FuncTable) Keys() []string {
	keys := make([]string, 0, len(t.funcs))
	for k := range t.funcs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Mangle derives the overload key for name selected by the type of the
// first argument. Only the first argument takes part in selection.
func Mangle(name string, first ValueType) string {
	return name + "__" + first.String()
}
