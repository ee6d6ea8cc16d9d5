package registry

import (
	"context"
	"fmt"
	"reflect"
	"unsafe"

	ffiruntime "github.com/wippyai/ffi-runtime"
	"github.com/wippyai/ffi-runtime/errors"
)

var (
	ctxType    = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType    = reflect.TypeOf((*error)(nil)).Elem()
	nodeType   = reflect.TypeOf((*ffiruntime.Node)(nil)).Elem()
	moduleType = reflect.TypeOf((*ffiruntime.Module)(nil)).Elem()
	valueType  = reflect.TypeOf(ffiruntime.Value{})
	dtypeType  = reflect.TypeOf(ffiruntime.DType{})
	funcType   = reflect.TypeOf(ffiruntime.Func(nil))
	arrayType  = reflect.TypeOf((*ffiruntime.Array)(nil))
	bytesType  = reflect.TypeOf([]byte(nil))
	ptrType    = reflect.TypeOf(unsafe.Pointer(nil))
)

// TypedFunc adapts an ordinary Go function to the packed calling
// convention. The function may optionally take a context.Context first;
// the remaining parameters map to packed arguments positionally. It may
// return nothing, one value, an error, or a value and an error.
//
// The signature is validated here so that misuse fails at wiring time,
// not on the first call: an unsupported parameter or result type is
// fatal. At call time, argument conversions fail the way all reads do,
// and a non-nil returned error is rethrown as a call failure.
func TypedFunc(fn any) ffiruntime.Func {
	rv := reflect.ValueOf(fn)
	if !rv.IsValid() || rv.Kind() != reflect.Func {
		errors.Throw(errors.Unsupported("TypedFunc", fmt.Sprintf("%T", fn)))
	}
	rt := rv.Type()
	if rt.IsVariadic() {
		errors.Throw(errors.New(errors.KindUnsupported).
			Op("TypedFunc").
			Got(rt.String()).
			Detail("variadic functions cannot be adapted").
			Build())
	}

	wantsCtx := rt.NumIn() > 0 && rt.In(0) == ctxType
	first := 0
	if wantsCtx {
		first = 1
	}

	for i := first; i < rt.NumIn(); i++ {
		if !convertible(rt.In(i)) {
			errors.Throw(errors.New(errors.KindUnsupported).
				Op("TypedFunc").
				Got(rt.In(i).String()).
				Detail("parameter %d has no argument conversion", i).
				Build())
		}
	}

	switch rt.NumOut() {
	case 0:
	case 1:
		if rt.Out(0) != errType && !convertible(rt.Out(0)) {
			errors.Throw(errors.New(errors.KindUnsupported).
				Op("TypedFunc").
				Got(rt.Out(0).String()).
				Detail("result has no packing rule").
				Build())
		}
	case 2:
		if !convertible(rt.Out(0)) || rt.Out(1) != errType {
			errors.Throw(errors.New(errors.KindUnsupported).
				Op("TypedFunc").
				Got(rt.String()).
				Detail("two results must be (value, error)").
				Build())
		}
	default:
		errors.Throw(errors.New(errors.KindUnsupported).
			Op("TypedFunc").
			Got(rt.String()).
			Detail("too many results").
			Build())
	}

	return func(ctx context.Context, args ffiruntime.Args, ret *ffiruntime.RetValue) {
		in := make([]reflect.Value, 0, rt.NumIn())
		if wantsCtx {
			in = append(in, reflect.ValueOf(ctx))
		}
		for i := first; i < rt.NumIn(); i++ {
			in = append(in, lower(args.Get(i-first), rt.In(i)))
		}

		out := rv.Call(in)

		if n := len(out); n > 0 && rt.Out(n-1) == errType {
			if !out[n-1].IsNil() {
				errors.Throw(errors.CallFailed("TypedFunc", out[n-1].Interface().(error)))
			}
			out = out[:n-1]
		}
		if len(out) == 1 {
			ret.Set(out[0].Interface())
		}
	}
}

// convertible reports whether values of type t can cross the boundary
// in either direction.
func convertible(t reflect.Type) bool {
	switch t {
	case valueType, dtypeType, funcType, arrayType, bytesType, ptrType, moduleType, nodeType:
		return true
	}
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	}
	return t.Implements(nodeType)
}

// lower converts one packed argument to the parameter type t. The
// conversion rules are the view's rules; the only addition is the
// reflect-level range check for narrow integer parameters.
func lower(a ffiruntime.ArgValue, t reflect.Type) reflect.Value {
	switch t {
	case valueType:
		return reflect.ValueOf(a.Value())
	case dtypeType:
		return reflect.ValueOf(a.AsDType())
	case funcType:
		return reflect.ValueOf(a.AsFunc())
	case arrayType:
		return reflect.ValueOf(a.AsArray())
	case bytesType:
		return reflect.ValueOf([]byte(a.AsStr()))
	case ptrType:
		return reflect.ValueOf(a.AsHandle())
	case moduleType:
		out := reflect.New(t).Elem()
		if m := a.AsModule(); m != nil {
			out.Set(reflect.ValueOf(m))
		}
		return out
	}

	switch t.Kind() {
	case reflect.Bool:
		return reflect.ValueOf(a.AsBool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v := a.AsInt64()
		out := reflect.New(t).Elem()
		if out.OverflowInt(v) {
			errors.Throw(errors.OutOfRange("TypedFunc", v, t.String()))
		}
		out.SetInt(v)
		return out
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := a.AsUint64()
		out := reflect.New(t).Elem()
		if out.OverflowUint(u) {
			errors.Throw(errors.OutOfRange("TypedFunc", u, t.String()))
		}
		out.SetUint(u)
		return out
	case reflect.Float32, reflect.Float64:
		out := reflect.New(t).Elem()
		out.SetFloat(a.AsFloat64())
		return out
	case reflect.String:
		return reflect.ValueOf(a.AsStr())
	}

	if t.Implements(nodeType) {
		n := a.AsNode()
		nv := reflect.ValueOf(n)
		if !nv.Type().AssignableTo(t) {
			errors.Throw(errors.New(errors.KindTagMismatch).
				Op("TypedFunc").
				Want(t.String()).
				Got(fmt.Sprintf("%T", n)).
				Build())
		}
		out := reflect.New(t).Elem()
		out.Set(nv)
		return out
	}

	// unreachable: construction validated every parameter type
	errors.Throw(errors.Unsupported("TypedFunc", t.String()))
	return reflect.Value{}
}
