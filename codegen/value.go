package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// ValueType is the semantic type tag carried by every lowered value.
type ValueType int

const (
	TypeVoid ValueType = iota
	TypeI8
	TypeI16
	TypeF32
	TypeStr
	TypeBool
)

func (t ValueType) String() string {
	switch t {
	case TypeI8:
		return "i8"
	case TypeI16:
		return "i16"
	case TypeF32:
		return "f32"
	case TypeStr:
		return "str"
	case TypeBool:
		return "bool"
	case TypeVoid:
		return "void"
	default:
		return fmt.Sprintf("ValueType(%d)", int(t))
	}
}

// IRType returns the AVR representation of t.
func (t ValueType) IRType() types.Type {
	switch t {
	case TypeI8:
		return types.I8
	case TypeI16:
		return types.I16
	case TypeF32:
		return types.Float
	case TypeStr:
		return types.I8Ptr
	case TypeBool:
		return types.I1
	default:
		return types.Void
	}
}

// IsInt reports whether t is one of the fixed-width integer tags.
func (t ValueType) IsInt() bool {
	return t == TypeI8 || t == TypeI16
}

// ParseAnnotation maps a source type annotation to a value type.
func ParseAnnotation(name string) (ValueType, bool) {
	switch name {
	case "int", "i16":
		return TypeI16, true
	case "i8":
		return TypeI8, true
	case "float", "f32":
		return TypeF32, true
	case "str":
		return TypeStr, true
	case "bool":
		return TypeBool, true
	case "None":
		return TypeVoid, true
	}
	return TypeVoid, false
}

// Value is a backend value paired with its semantic type. The set of
// implementations is closed: I8, I16, F32, Str, Bool and Void.
type Value interface {
	Type() ValueType
	// IR returns the backend handle; nil for Void.
	IR() value.Value
	sealed()
}

type I8 struct{ V value.Value }
type I16 struct{ V value.Value }
type F32 struct{ V value.Value }
type Str struct{ V value.Value }
type Bool struct{ V value.Value }
type Void struct{}

func (I8) Type() ValueType   { return TypeI8 }
func (I16) Type() ValueType  { return TypeI16 }
func (F32) Type() ValueType  { return TypeF32 }
func (Str) Type() ValueType  { return TypeStr }
func (Bool) Type() ValueType { return TypeBool }
func (Void) Type() ValueType { return TypeVoid }

func (v I8) IR() value.Value   { return v.V }
func (v I16) IR() value.Value  { return v.V }
func (v F32) IR() value.Value  { return v.V }
func (v Str) IR() value.Value  { return v.V }
func (v Bool) IR() value.Value { return v.V }
func (Void) IR() value.Value   { return nil }

func (I8) sealed()   {}
func (I16) sealed()  {}
func (F32) sealed()  {}
func (Str) sealed()  {}
func (Bool) sealed() {}
func (Void) sealed() {}

// NewValue wraps v with tag t. It fails when the IR type of v does not
// agree with t, so consumers matching on the tag can trust the handle.
func NewValue(t ValueType, v value.Value) (Value, error) {
	if t == TypeVoid {
		if v != nil && !types.IsVoid(v.Type()) {
			return nil, fmt.Errorf("void value with %s handle", v.Type())
		}
		return Void{}, nil
	}
	if v == nil {
		return nil, fmt.Errorf("missing handle for %s value", t)
	}
	if !v.Type().Equal(t.IRType()) {
		return nil, fmt.Errorf("%s value with %s handle", t, v.Type())
	}
	switch t {
	case TypeI8:
		return I8{V: v}, nil
	case TypeI16:
		return I16{V: v}, nil
	case TypeF32:
		return F32{V: v}, nil
	case TypeStr:
		return Str{V: v}, nil
	case TypeBool:
		return Bool{V: v}, nil
	}
	return nil, fmt.Errorf("unknown value type %s", t)
}

// mustValue is NewValue for handles built from t.IRType() by this package.
func mustValue(t ValueType, v value.Value) Value {
	val, err := NewValue(t, v)
	if err != nil {
		panic(err)
	}
	return val
}
