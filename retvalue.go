package ffiruntime

import (
	"math"
	"unsafe"

	"github.com/wippyai/ffi-runtime/errors"
)

// RetValue is the owning return slot. At most one payload is live at a
// time: every setter clears whatever the slot held before storing, and
// Clear releases the live payload exactly once. The zero RetValue is
// empty and ready to use.
//
// Ownership is by convention, not by finalizer: a slot holding a Node
// keeps one reference until it is cleared, overwritten, moved from or
// transferred. Slots are not safe for concurrent use.
type RetValue struct {
	v Value
}

// Kind returns the live discriminant.
func (r *RetValue) Kind() Kind {
	return r.v.kind
}

// IsNull reports whether the slot is empty.
func (r *RetValue) IsNull() bool {
	return r.v.kind == KindNull
}

// Value returns the raw tagged value, borrowed from the slot, when the
// payload is plain data. Complex payloads must go through their typed
// accessors or Transfer; peeking at them here is a fatal tag error.
func (r *RetValue) Value() Value {
	switch r.v.kind {
	case KindStr, KindFunc, KindModule, KindNode:
		errors.Throw(errors.TagMismatch("Value", "pod", r.v.kind.String()))
	}
	return r.v
}

// SetNull empties the slot.
func (r *RetValue) SetNull() {
	r.Clear()
}

// SetInt64 stores an integer.
func (r *RetValue) SetInt64(v int64) {
	r.Clear()
	r.v = IntValue(v)
}

// SetUint64 stores an unsigned integer on the signed arm. Values above
// MaxInt64 fail fatally, same as packing them.
func (r *RetValue) SetUint64(v uint64) {
	nv := UintValue(v)
	r.Clear()
	r.v = nv
}

// SetFloat64 stores a float.
func (r *RetValue) SetFloat64(v float64) {
	r.Clear()
	r.v = FloatValue(v)
}

// SetBool stores a bool as integer 0 or 1.
func (r *RetValue) SetBool(v bool) {
	r.Clear()
	r.v = BoolValue(v)
}

// SetHandle stores an opaque pointer. The slot does not manage it.
func (r *RetValue) SetHandle(p unsafe.Pointer) {
	r.Clear()
	r.v = HandleValue(p)
}

// SetArray stores a tensor-descriptor pointer. The slot does not manage it.
func (r *RetValue) SetArray(a *Array) {
	r.Clear()
	r.v = ArrayValue(a)
}

// SetDType stores an element-type descriptor.
func (r *RetValue) SetDType(dt DType) {
	r.Clear()
	r.v = DTypeValue(dt)
}

// SetStr stores an owned string.
func (r *RetValue) SetStr(s string) {
	r.Clear()
	r.v = StrValue(s)
}

// SetBytes copies the buffer into an owned string stored under Str. An
// owning slot never holds a borrowed buffer.
func (r *RetValue) SetBytes(b []byte) {
	r.Clear()
	r.v = StrValue(string(b))
}

// SetFunc stores a callable reference.
func (r *RetValue) SetFunc(f Func) {
	r.Clear()
	r.v = FuncValue(f)
}

// SetModule stores a module reference.
func (r *RetValue) SetModule(m Module) {
	r.Clear()
	r.v = ModuleValue(m)
}

// SetNode stores a node reference and retains it. The caller keeps its
// own reference.
func (r *RetValue) SetNode(n Node) {
	n.Retain()
	r.Clear()
	r.v = NodeValue(n)
}

// Set stores an arbitrary Go value using the packing rules of Func.Call,
// then takes ownership: borrowed buffers are copied and node references
// retained. Unsupported types fail fatally.
func (r *RetValue) Set(x any) {
	r.Assign(Pack(x))
}

// Assign copies a tagged value into the slot with owning semantics:
// strings are taken as-is (they are immutable), byte buffers are copied
// to an owned string under Str, node references are retained, and
// everything else copies as plain data.
func (r *RetValue) Assign(v Value) {
	switch v.kind {
	case KindBytes:
		b := v.obj.([]byte)
		r.Clear()
		r.v = StrValue(string(b))
	case KindNode:
		n := v.obj.(Node)
		n.Retain()
		r.Clear()
		r.v = v
	default:
		r.Clear()
		r.v = v
	}
}

// MoveFrom takes src's payload, ownership included, and leaves src
// empty. Reference counts do not change. Clearing or destroying the
// moved-from slot afterwards releases nothing.
func (r *RetValue) MoveFrom(src *RetValue) {
	if src == r {
		return
	}
	r.Clear()
	r.v = src.v
	src.v = Value{}
}

// Transfer hands the payload to the caller and leaves the slot empty
// without releasing anything; the returned value now owns whatever the
// slot owned. A Str payload cannot transfer: its box has no meaning
// outside the slot, so handing it out raw is a fatal error.
func (r *RetValue) Transfer() Value {
	if r.v.kind == KindStr {
		errors.Throw(errors.BadTransfer("Transfer", "str"))
	}
	out := r.v
	r.v = Value{}
	return out
}

// Clear releases the live payload exactly once and empties the slot.
// Only Node payloads have an observable release; the garbage collector
// reclaims the rest. Clearing an empty slot is a no-op. A discriminant
// outside the known set means the slot memory was corrupted and is
// fatal.
func (r *RetValue) Clear() {
	switch r.v.kind {
	case KindNull:
		return
	case KindNode:
		r.v.obj.(Node).Release()
	case KindInt, KindUint, KindFloat, KindHandle, KindArray, KindDType,
		KindFunc, KindModule, KindStr, KindBytes:
		// plain data or references the collector owns
	default:
		errors.Throw(errors.Corrupt("Clear", uint8(r.v.kind)))
	}
	r.v = Value{}
}

// The readers below mirror the ArgValue conversions but operate on the
// owned payload. They borrow: the slot keeps ownership.

func (r *RetValue) mismatch(op, want string) *errors.Error {
	return errors.TagMismatch(op, want, r.v.kind.String())
}

// AsInt64 reads an integer result.
func (r *RetValue) AsInt64() int64 {
	if r.v.kind != KindInt {
		errors.Throw(r.mismatch("AsInt64", "int"))
	}
	return int64(r.v.num)
}

// AsUint64 reads a non-negative integer result.
func (r *RetValue) AsUint64() uint64 {
	if r.v.kind != KindInt {
		errors.Throw(r.mismatch("AsUint64", "int"))
	}
	n := int64(r.v.num)
	if n < 0 {
		errors.Throw(errors.OutOfRange("AsUint64", n, "uint64"))
	}
	return r.v.num
}

// AsBool reads an integer result as its truth value.
func (r *RetValue) AsBool() bool {
	if r.v.kind != KindInt {
		errors.Throw(r.mismatch("AsBool", "int"))
	}
	return r.v.num != 0
}

// AsFloat64 reads a float result.
func (r *RetValue) AsFloat64() float64 {
	if r.v.kind != KindFloat {
		errors.Throw(r.mismatch("AsFloat64", "float"))
	}
	return math.Float64frombits(r.v.num)
}

// AsHandle reads an opaque pointer result. Null converts to nil and an
// Array passes through as its descriptor pointer.
func (r *RetValue) AsHandle() unsafe.Pointer {
	switch r.v.kind {
	case KindNull:
		return nil
	case KindHandle:
		return r.v.obj.(unsafe.Pointer)
	case KindArray:
		return unsafe.Pointer(r.v.obj.(*Array))
	default:
		errors.Throw(r.mismatch("AsHandle", "handle"))
		return nil
	}
}

// AsArray reads a tensor-descriptor result. Null converts to nil.
func (r *RetValue) AsArray() *Array {
	switch r.v.kind {
	case KindNull:
		return nil
	case KindArray:
		return r.v.obj.(*Array)
	default:
		errors.Throw(r.mismatch("AsArray", "array"))
		return nil
	}
}

// AsStr reads a string result. A DType formats to its text form. The
// string is shared with the slot, which is safe: strings are immutable.
func (r *RetValue) AsStr() string {
	switch r.v.kind {
	case KindDType:
		return r.v.dt.String()
	case KindStr:
		return r.v.obj.(string)
	default:
		errors.Throw(r.mismatch("AsStr", "str"))
		return ""
	}
}

// AsDType reads a type-descriptor result, parsing descriptor text.
func (r *RetValue) AsDType() DType {
	switch r.v.kind {
	case KindStr:
		dt, err := ParseDType(r.v.obj.(string))
		if err != nil {
			errors.Throw(err.(*errors.Error))
		}
		return dt
	case KindDType:
		return r.v.dt
	default:
		errors.Throw(r.mismatch("AsDType", "dtype"))
		return DType{}
	}
}

// AsFunc reads a callable result, copying the reference out.
func (r *RetValue) AsFunc() Func {
	if r.v.kind != KindFunc {
		errors.Throw(r.mismatch("AsFunc", "func"))
	}
	return r.v.obj.(Func)
}

// AsModule reads a module result, copying the reference out.
func (r *RetValue) AsModule() Module {
	if r.v.kind != KindModule {
		errors.Throw(r.mismatch("AsModule", "module"))
	}
	return r.v.obj.(Module)
}

// AsNode reads a node result. The reference stays owned by the slot;
// callers that keep it past the slot's lifetime retain it themselves.
func (r *RetValue) AsNode() Node {
	if r.v.kind != KindNode {
		errors.Throw(r.mismatch("AsNode", "node"))
	}
	return r.v.obj.(Node)
}

// String renders the slot's payload for diagnostics and trace output.
func (r *RetValue) String() string {
	return r.v.String()
}
