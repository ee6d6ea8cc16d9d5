package ffiruntime

import (
	"fmt"
	"math"
	"strconv"
	"unsafe"

	"github.com/wippyai/ffi-runtime/errors"
)

// Module is an object that hands out functions by name. The calling
// convention treats it as opaque reference data: values of this kind are
// copied and compared as references, never inspected.
type Module interface {
	// TypeKey identifies the module implementation ("wasm", "rpc", ...).
	TypeKey() string

	// GetFunction returns the named function, or nil when the module
	// does not export it.
	GetFunction(name string) Func
}

// Node is a reference-counted extension object. Owning slots retain a
// node when they store it and release it exactly once when cleared;
// borrowed views never touch the count.
type Node interface {
	// TypeKey identifies the payload type for diagnostics.
	TypeKey() string

	// Retain adds one reference.
	Retain()

	// Release drops one reference, destroying the payload when the
	// count reaches zero.
	Release()
}

// Array is an opaque tensor descriptor. Values of KindArray carry the
// pointer through unchanged; the dispatch layer never reads the fields,
// producers and consumers agree on them out of band.
type Array struct {
	Data  unsafe.Pointer
	Shape []int64
	DType DType
}

// Value is one argument or result in its wire form: a discriminant plus
// the payload arm it selects. Numbers live inline in num, descriptors in
// dt, and everything reference-shaped in obj. The zero Value is Null.
//
// A Value by itself expresses no ownership. Argument lists borrow the
// caller's payloads for the duration of a call; RetValue layers owning
// semantics on top.
type Value struct {
	obj  any
	num  uint64
	dt   DType
	kind Kind
}

// NullValue returns the empty value. Equivalent to Value{}.
func NullValue() Value {
	return Value{}
}

// IntValue carries a signed integer inline.
func IntValue(v int64) Value {
	return Value{kind: KindInt, num: uint64(v)}
}

// UintValue carries an unsigned integer on the signed inline arm. Values
// above MaxInt64 cannot be represented and fail fatally at packing time.
func UintValue(v uint64) Value {
	if v > math.MaxInt64 {
		errors.Throw(errors.OutOfRange("UintValue", strconv.FormatUint(v, 10), "int64"))
	}
	return Value{kind: KindInt, num: v}
}

// FloatValue carries a 64-bit float inline.
func FloatValue(v float64) Value {
	return Value{kind: KindFloat, num: math.Float64bits(v)}
}

// BoolValue carries a bool as integer 0 or 1.
func BoolValue(v bool) Value {
	var n uint64
	if v {
		n = 1
	}
	return Value{kind: KindInt, num: n}
}

// HandleValue carries an opaque unmanaged pointer.
func HandleValue(p unsafe.Pointer) Value {
	return Value{kind: KindHandle, obj: p}
}

// ArrayValue carries a tensor descriptor by pointer.
func ArrayValue(a *Array) Value {
	return Value{kind: KindArray, obj: a}
}

// DTypeValue carries an element-type descriptor by value.
func DTypeValue(dt DType) Value {
	return Value{kind: KindDType, dt: dt}
}

// StrValue carries a string. Strings are immutable, so the value may be
// passed along borrowed and owning paths alike without copying.
func StrValue(s string) Value {
	return Value{kind: KindStr, obj: s}
}

// BytesValue carries a borrowed byte buffer. The buffer must stay alive
// and unmodified for as long as the value is in flight; owning slots
// convert it to a string copy instead of holding it.
func BytesValue(b []byte) Value {
	return Value{kind: KindBytes, obj: b}
}

// FuncValue carries a callable.
func FuncValue(f Func) Value {
	return Value{kind: KindFunc, obj: f}
}

// ModuleValue carries a module reference.
func ModuleValue(m Module) Value {
	return Value{kind: KindModule, obj: m}
}

// NodeValue carries a node reference without retaining it. The caller
// keeps its reference; owning slots retain on store.
func NodeValue(n Node) Value {
	return Value{kind: KindNode, obj: n}
}

// Kind returns the live discriminant.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is empty.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// The Try accessors peek at exactly one arm: they report false instead
// of converting across tags, allocate nothing, and never fail. The As
// conversions on ArgValue and RetValue carry the cross-tag rules.

// TryInt64 returns the integer payload when the value is an Int.
func (v Value) TryInt64() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return int64(v.num), true
}

// TryUint64 returns the integer payload when it is a non-negative Int.
func (v Value) TryUint64() (uint64, bool) {
	if v.kind != KindInt || int64(v.num) < 0 {
		return 0, false
	}
	return v.num, true
}

// TryFloat64 returns the float payload when the value is a Float.
func (v Value) TryFloat64() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return math.Float64frombits(v.num), true
}

// TryBool returns the truth of an Int payload.
func (v Value) TryBool() (bool, bool) {
	if v.kind != KindInt {
		return false, false
	}
	return v.num != 0, true
}

// TryHandle returns the pointer payload when the value is a Handle.
func (v Value) TryHandle() (unsafe.Pointer, bool) {
	if v.kind != KindHandle {
		return nil, false
	}
	return v.obj.(unsafe.Pointer), true
}

// TryArray returns the descriptor payload when the value is an Array.
func (v Value) TryArray() (*Array, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.obj.(*Array), true
}

// TryDType returns the descriptor payload when the value is a DType.
func (v Value) TryDType() (DType, bool) {
	if v.kind != KindDType {
		return DType{}, false
	}
	return v.dt, true
}

// TryStr returns the string payload when the value is a Str.
func (v Value) TryStr() (string, bool) {
	if v.kind != KindStr {
		return "", false
	}
	return v.obj.(string), true
}

// TryBytes returns the borrowed buffer when the value is a Bytes.
func (v Value) TryBytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	return v.obj.([]byte), true
}

// TryFunc returns the callable when the value is a Func.
func (v Value) TryFunc() (Func, bool) {
	if v.kind != KindFunc {
		return nil, false
	}
	return v.obj.(Func), true
}

// TryModule returns the module reference when the value is a Module.
func (v Value) TryModule() (Module, bool) {
	if v.kind != KindModule {
		return nil, false
	}
	return v.obj.(Module), true
}

// TryNode returns the node reference when the value is a Node.
func (v Value) TryNode() (Node, bool) {
	if v.kind != KindNode {
		return nil, false
	}
	return v.obj.(Node), true
}

// String renders the value for diagnostics and trace output.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindInt:
		return strconv.FormatInt(int64(v.num), 10)
	case KindFloat:
		return strconv.FormatFloat(math.Float64frombits(v.num), 'g', -1, 64)
	case KindHandle:
		return fmt.Sprintf("handle(%p)", v.obj.(unsafe.Pointer))
	case KindArray:
		return fmt.Sprintf("array(%p)", v.obj.(*Array))
	case KindDType:
		return v.dt.String()
	case KindStr:
		return strconv.Quote(v.obj.(string))
	case KindBytes:
		return fmt.Sprintf("bytes[%d]", len(v.obj.([]byte)))
	case KindFunc:
		return "func"
	case KindModule:
		return fmt.Sprintf("module(%s)", v.obj.(Module).TypeKey())
	case KindNode:
		return fmt.Sprintf("node(%s)", v.obj.(Node).TypeKey())
	default:
		return v.kind.String()
	}
}
