package ffiruntime

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"unsafe"

	"github.com/wippyai/ffi-runtime/errors"
)

// Args is a bounds-checked, read-only view over the values passed to one
// call. It borrows the caller's payloads: nothing is copied or retained,
// and the view must not outlive the call it was built for.
type Args struct {
	values []Value
}

// NewArgs wraps an already-packed value list. Call sites normally go
// through Func.Call instead; this entry point exists for transports that
// receive packed values from elsewhere.
func NewArgs(values []Value) Args {
	return Args{values: values}
}

// Len returns the number of arguments passed.
func (a Args) Len() int {
	return len(a.values)
}

// Get returns the i-th argument. Reading a position that was never
// passed is a fatal error reporting both the requested index and the
// actual count.
func (a Args) Get(i int) ArgValue {
	if i < 0 || i >= len(a.values) {
		errors.Throw(errors.OutOfBounds("Get", i, len(a.values)))
	}
	return ArgValue{v: a.values[i], idx: i}
}

// ArgValue is one borrowed argument. Its As conversions check the
// discriminant and fail fatally on a mismatch; the error carries the
// argument position. Soft inspection goes through Value and the Try
// accessors on it.
type ArgValue struct {
	v   Value
	idx int
}

// Kind returns the live discriminant.
func (a ArgValue) Kind() Kind {
	return a.v.kind
}

// Value returns the raw tagged value, still borrowed.
func (a ArgValue) Value() Value {
	return a.v
}

func (a ArgValue) mismatch(op, want string) *errors.Error {
	e := errors.TagMismatch(op, want, a.v.kind.String())
	e.Detail = fmt.Sprintf("argument %d", a.idx)
	return e
}

// AsInt64 reads an integer argument.
func (a ArgValue) AsInt64() int64 {
	if a.v.kind != KindInt {
		errors.Throw(a.mismatch("AsInt64", "int"))
	}
	return int64(a.v.num)
}

// AsUint64 reads a non-negative integer argument. Negative payloads do
// not reinterpret; they fail the range check.
func (a ArgValue) AsUint64() uint64 {
	if a.v.kind != KindInt {
		errors.Throw(a.mismatch("AsUint64", "int"))
	}
	n := int64(a.v.num)
	if n < 0 {
		errors.Throw(errors.OutOfRange("AsUint64", n, "uint64"))
	}
	return a.v.num
}

// AsInt reads an integer argument, range-checked for the platform int.
func (a ArgValue) AsInt() int {
	return IntAs[int](a)
}

// AsBool reads an integer argument as its truth value.
func (a ArgValue) AsBool() bool {
	if a.v.kind != KindInt {
		errors.Throw(a.mismatch("AsBool", "int"))
	}
	return a.v.num != 0
}

// AsFloat64 reads a float argument.
func (a ArgValue) AsFloat64() float64 {
	if a.v.kind != KindFloat {
		errors.Throw(a.mismatch("AsFloat64", "float"))
	}
	return math.Float64frombits(a.v.num)
}

// AsHandle reads an opaque pointer argument. Null converts to nil and an
// Array passes through as its descriptor pointer.
func (a ArgValue) AsHandle() unsafe.Pointer {
	switch a.v.kind {
	case KindNull:
		return nil
	case KindHandle:
		return a.v.obj.(unsafe.Pointer)
	case KindArray:
		return unsafe.Pointer(a.v.obj.(*Array))
	default:
		errors.Throw(a.mismatch("AsHandle", "handle"))
		return nil
	}
}

// AsArray reads a tensor-descriptor argument. Null converts to nil.
func (a ArgValue) AsArray() *Array {
	switch a.v.kind {
	case KindNull:
		return nil
	case KindArray:
		return a.v.obj.(*Array)
	default:
		errors.Throw(a.mismatch("AsArray", "array"))
		return nil
	}
}

// AsStr reads a string argument. A DType formats to its text form and a
// Bytes buffer is copied; the copy is the reader's to keep.
func (a ArgValue) AsStr() string {
	switch a.v.kind {
	case KindDType:
		return a.v.dt.String()
	case KindBytes:
		return string(a.v.obj.([]byte))
	case KindStr:
		return a.v.obj.(string)
	default:
		errors.Throw(a.mismatch("AsStr", "str"))
		return ""
	}
}

// AsDType reads a type-descriptor argument. A Str parses as descriptor
// text; malformed text is fatal here, unlike the soft ParseDType.
func (a ArgValue) AsDType() DType {
	switch a.v.kind {
	case KindStr:
		dt, err := ParseDType(a.v.obj.(string))
		if err != nil {
			errors.Throw(err.(*errors.Error))
		}
		return dt
	case KindDType:
		return a.v.dt
	default:
		errors.Throw(a.mismatch("AsDType", "dtype"))
		return DType{}
	}
}

// AsFunc reads a callable argument and copies the reference out, so it
// stays valid after the borrowed view is gone.
func (a ArgValue) AsFunc() Func {
	if a.v.kind != KindFunc {
		errors.Throw(a.mismatch("AsFunc", "func"))
	}
	return a.v.obj.(Func)
}

// AsModule reads a module argument and copies the reference out.
func (a ArgValue) AsModule() Module {
	if a.v.kind != KindModule {
		errors.Throw(a.mismatch("AsModule", "module"))
	}
	return a.v.obj.(Module)
}

// AsNode reads a node argument. The reference is borrowed; readers that
// keep it past the call retain it themselves.
func (a ArgValue) AsNode() Node {
	if a.v.kind != KindNode {
		errors.Throw(a.mismatch("AsNode", "node"))
	}
	return a.v.obj.(Node)
}

// integer constrains IntAs to the Go integer widths.
type integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// IntAs reads an integer argument narrowed to T. The payload must fit
// the full range of T: narrowing never truncates and negative values
// never reinterpret into unsigned targets.
func IntAs[T integer](a ArgValue) T {
	v := a.AsInt64()
	t := T(v)
	var zero T
	if int64(t) != v || (v < 0 && zero-1 > zero) {
		errors.Throw(errors.OutOfRange("IntAs", v, fmt.Sprintf("%T", zero)))
	}
	return t
}

// NodeAs reads a node argument and unwraps it to the concrete type T,
// fatally reporting the Go types when the payload is something else.
func NodeAs[T Node](a ArgValue) T {
	n := a.AsNode()
	t, ok := n.(T)
	if !ok {
		errors.Throw(errors.New(errors.KindTagMismatch).
			Op("NodeAs").
			Want(reflect.TypeFor[T]().String()).
			Got(fmt.Sprintf("%T", n)).
			Detail("argument %d", a.idx).
			Build())
	}
	return t
}

// String renders the argument with its position for diagnostics.
func (a ArgValue) String() string {
	return "arg[" + strconv.Itoa(a.idx) + "]=" + a.v.String()
}
