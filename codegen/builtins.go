package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
)

type builtin struct {
	key    string
	symbol string
	params []ValueType
	ret    ValueType
}

// Arduino core entry points plus the runtime shims linked by the board
// builder. print is only reachable through its mangled overloads.
var arduinoBuiltins = []builtin{
	{key: "pinMode", symbol: "pinMode", params: []ValueType{TypeI8, TypeI8}, ret: TypeVoid},
	{key: "digitalWrite", symbol: "digitalWrite", params: []ValueType{TypeI8, TypeI8}, ret: TypeVoid},
	{key: "digitalRead", symbol: "digitalRead", params: []ValueType{TypeI8}, ret: TypeI16},
	{key: "analogRead", symbol: "analogRead", params: []ValueType{TypeI8}, ret: TypeI16},
	{key: "analogWrite", symbol: "analogWrite", params: []ValueType{TypeI8, TypeI16}, ret: TypeVoid},
	{key: "delay", symbol: "dsp_delay", params: []ValueType{TypeI16}, ret: TypeVoid},
	{key: Mangle("print", TypeI8), symbol: "dsp_print_i8", params: []ValueType{TypeI8}, ret: TypeVoid},
	{key: Mangle("print", TypeI16), symbol: "dsp_print_i16", params: []ValueType{TypeI16}, ret: TypeVoid},
	{key: Mangle("print", TypeF32), symbol: "dsp_print_f32", params: []ValueType{TypeF32}, ret: TypeVoid},
	{key: Mangle("print", TypeStr), symbol: "dsp_print_str", params: []ValueType{TypeStr}, ret: TypeVoid},
}

var arduinoConstants = []struct {
	name  string
	value int64
}{
	{"LOW", 0},
	{"HIGH", 1},
	{"INPUT", 0},
	{"OUTPUT", 1},
	{"INPUT_PULLUP", 2},
	{"LED_BUILTIN", 13},
}

func (cg *CodeGen) declareBuiltins() {
	for _, b := range arduinoBuiltins {
		var params []*ir.Param
		for _, p := range b.params {
			params = append(params, ir.NewParam("", p.IRType()))
		}
		f := cg.module.NewFunc(b.symbol, b.ret.IRType(), params...)
		cg.functions.Declare(b.key, &Signature{Name: b.key, Params: b.params, Ret: b.ret, Func: f})
	}
	for _, c := range arduinoConstants {
		g := cg.module.NewGlobalDef(c.name, constant.NewInt(types.I16, c.value))
		g.Immutable = true
		g.Linkage = enum.LinkagePrivate
		cg.globals.Declare(Symbol{Name: c.name, Type: TypeI16, Loc: g})
	}
}
