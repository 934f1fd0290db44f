package golox

import (
	"fmt"
	"strconv"
)

// ValueKind tags which variant a Value currently holds; Value.Truthy,
// Value.Equal and Value.String switch on it.
type ValueKind int

const (
	ValueNil ValueKind = iota
	ValueBool
	ValueNumber
	ValueObject
)

func (k ValueKind) String() string {
	switch k {
	case ValueNil:
		return "nil"
	case ValueBool:
		return "bool"
	case ValueNumber:
		return "number"
	case ValueObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a dynamic value: nil, a boolean, a 64-bit float, or a
// managed pointer into the GC heap. It is a small, comparable-by-field
// struct rather than an interface, so pushing and popping it on the VM
// stack never allocates.
type Value struct {
	kind    ValueKind
	number  float64
	boolean bool
	obj     Obj
}

// Nil is the singleton nil value.
var Nil = Value{kind: ValueNil}

// Bool wraps a boolean into a Value.
func Bool(b bool) Value { return Value{kind: ValueBool, boolean: b} }

// Number wraps a float64 into a Value.
func Number(n float64) Value { return Value{kind: ValueNumber, number: n} }

// Object wraps a heap handle into a Value.
func Object(o Obj) Value { return Value{kind: ValueObject, obj: o} }

// ObjectOf lifts a typed heap handle into a Value without the caller
// having to call .Obj() at every construction site.
func ObjectOf[T traceable](p GCPtr[T]) Value { return Object(p.Obj()) }

func (v Value) Kind() ValueKind   { return v.kind }
func (v Value) IsNil() bool       { return v.kind == ValueNil }
func (v Value) IsBool() bool      { return v.kind == ValueBool }
func (v Value) IsNumber() bool    { return v.kind == ValueNumber }
func (v Value) IsObject() bool    { return v.kind == ValueObject }
func (v Value) AsBool() bool      { return v.boolean }
func (v Value) AsNumber() float64 { return v.number }
func (v Value) AsObject() Obj     { return v.obj }

// Truthy implements the language's truthiness rule: only false and nil are
// falsey, everything else (including 0 and "") is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case ValueNil:
		return false
	case ValueBool:
		return v.boolean
	default:
		return true
	}
}

// Equal implements the language's equality rule: same variant AND (primitive
// equality | pointer identity). Strings compare equal through pointer
// identity by virtue of interning, which falls out of comparing the
// object handles directly.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case ValueNil:
		return true
	case ValueBool:
		return v.boolean == other.boolean
	case ValueNumber:
		return v.number == other.number
	case ValueObject:
		return Equal(v.obj, other.obj)
	default:
		return false
	}
}

// AsString narrows an object Value to a *String handle, if that's what
// it holds.
func (v Value) AsString() (GCPtr[*String], bool) {
	if v.kind != ValueObject {
		return GCPtr[*String]{}, false
	}
	return As[*String](v.obj)
}

// String renders a value the way `print` and the REPL do.
func (v Value) String() string {
	switch v.kind {
	case ValueNil:
		return "nil"
	case ValueBool:
		if v.boolean {
			return "true"
		}
		return "false"
	case ValueNumber:
		return formatNumber(v.number)
	case ValueObject:
		return objectString(v.obj)
	default:
		return "<invalid value>"
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'g', -1, 64)
}

func objectString(o Obj) string {
	if o.block == nil {
		return "nil"
	}
	switch obj := o.block.obj.(type) {
	case *String:
		return obj.chars
	case *Function:
		return functionString(obj)
	case *Closure:
		return functionString(obj.Function.Get())
	case *Upvalue:
		return "upvalue"
	case *Class:
		return obj.Name.Get().chars
	case *Instance:
		return fmt.Sprintf("%s instance", obj.Class.Get().Name.Get().chars)
	case *BoundMethod:
		return functionString(obj.Method.Get().Function.Get())
	case *Native:
		return "<native fn>"
	default:
		return "<object>"
	}
}

func functionString(f *Function) string {
	if !f.Name.Valid() {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Get().chars)
}
