package ffiruntime

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"unsafe"

	"github.com/wippyai/ffi-runtime/errors"
)

// Func is the type-erased callable at the center of the calling
// convention. The body may read any subset of args and writes at most
// one result into ret; anything look-up-able by name anywhere in the
// runtime is a Func. A nil Func is "no function".
//
// Bodies report failure through the fatal primitive: they throw with
// errors.Throw and boundaries that need a soft error wrap the call in
// errors.Catch.
type Func func(ctx context.Context, args Args, ret *RetValue)

// Call packs the Go arguments left to right and invokes f. Packing is a
// per-argument constant-time conversion; payloads are borrowed, not
// copied, so every argument must stay alive and unmodified until Call
// returns. The result slot is returned by value and the caller owns it.
func (f Func) Call(ctx context.Context, args ...any) RetValue {
	values := make([]Value, len(args))
	for i, a := range args {
		values[i] = Pack(a)
	}
	var ret RetValue
	f(ctx, Args{values: values}, &ret)
	return ret
}

// Pack converts one Go value to its tagged form:
//
//	nil                 -> Null
//	bool, signed ints   -> Int
//	unsigned ints       -> Int (fatal above MaxInt64)
//	float32, float64    -> Float
//	string              -> Str (shared, strings are immutable)
//	[]byte              -> Bytes (borrowed)
//	DType               -> DType
//	unsafe.Pointer      -> Handle
//	*Array              -> Array
//	Func, Module, Node  -> their tags, by reference
//	Value, ArgValue     -> passed through unchanged
//	*RetValue           -> its payload, borrowed from the slot
//
// Any other type is fatal unless a packer was registered for it with
// RegisterPacker.
func Pack(x any) Value {
	switch v := x.(type) {
	case nil:
		return NullValue()
	case bool:
		return BoolValue(v)
	case int:
		return IntValue(int64(v))
	case int8:
		return IntValue(int64(v))
	case int16:
		return IntValue(int64(v))
	case int32:
		return IntValue(int64(v))
	case int64:
		return IntValue(v)
	case uint:
		return UintValue(uint64(v))
	case uint8:
		return IntValue(int64(v))
	case uint16:
		return IntValue(int64(v))
	case uint32:
		return IntValue(int64(v))
	case uint64:
		return UintValue(v)
	case uintptr:
		return UintValue(uint64(v))
	case float32:
		return FloatValue(float64(v))
	case float64:
		return FloatValue(v)
	case string:
		return StrValue(v)
	case []byte:
		return BytesValue(v)
	case DType:
		return DTypeValue(v)
	case unsafe.Pointer:
		return HandleValue(v)
	case *Array:
		return ArrayValue(v)
	case Value:
		return v
	case ArgValue:
		return v.v
	case *RetValue:
		// The slot keeps ownership; a Str payload travels as its boxed
		// string without a byte copy.
		return v.v
	case Func:
		return FuncValue(v)
	case Module:
		return ModuleValue(v)
	case Node:
		return NodeValue(v)
	default:
		if pv, ok := packExtension(x); ok {
			return pv
		}
		errors.Throw(errors.Unsupported("Pack", fmt.Sprintf("%T", x)))
		return Value{}
	}
}

// Extension packers let embedders pack their own concrete types without
// widening the built-in rule set. Lookup is by exact dynamic type.
var (
	packersMu sync.RWMutex
	packers   map[reflect.Type]func(any) Value
)

// RegisterPacker installs a packing rule for the concrete type t. The
// rule runs only after every built-in rule has failed to match. A nil
// type or rule, or a second rule for the same type, returns a
// registration error.
func RegisterPacker(t reflect.Type, fn func(any) Value) error {
	if t == nil || fn == nil {
		return errors.Registration("packer", fmt.Errorf("nil type or rule"))
	}
	packersMu.Lock()
	defer packersMu.Unlock()
	if _, dup := packers[t]; dup {
		return errors.Registration(t.String(), fmt.Errorf("packer already registered"))
	}
	if packers == nil {
		packers = make(map[reflect.Type]func(any) Value)
	}
	packers[t] = fn
	return nil
}

func packExtension(x any) (Value, bool) {
	packersMu.RLock()
	fn, ok := packers[reflect.TypeOf(x)]
	packersMu.RUnlock()
	if !ok {
		return Value{}, false
	}
	return fn(x), true
}
