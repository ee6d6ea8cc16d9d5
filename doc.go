// Package ffiruntime provides a type-erased calling convention for Go.
//
// The library lets callers invoke functions they know nothing about at
// compile time: every function takes the same shape of tagged arguments
// and fills the same shape of return slot, so functions can be looked up
// by name, handed across module and process boundaries, and composed
// without generated bindings.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	ffiruntime/          Root package with tagged values, views, slots and Func
//	├── registry/        Named function registry and reflect-based adapters
//	├── wasmmodule/      WebAssembly modules exposed as packed functions
//	├── rpc/             gRPC boundary for calling registries remotely
//	├── object/          Reference-counted payloads for the Node kind
//	├── trace/           SQLite-backed call recorder
//	├── errors/          Structured error types and the fatal-check primitive
//	└── cmd/ffi-run/     CLI for loading modules and dispatching calls
//
// # Quick Start
//
// Wrap any Go function and call it through the erased form:
//
//	add := registry.TypedFunc(func(a, b int64) int64 { return a + b })
//
//	ret := add.Call(ctx, int64(2), int64(3))
//	fmt.Println(ret.AsInt64()) // 5
//
// Or write the packed form directly when the argument shapes are dynamic:
//
//	concat := ffiruntime.Func(func(ctx context.Context, args ffiruntime.Args, ret *ffiruntime.RetValue) {
//	    var b strings.Builder
//	    for i := 0; i < args.Len(); i++ {
//	        b.WriteString(args.Get(i).AsStr())
//	    }
//	    ret.SetStr(b.String())
//	})
//
// # Value Model
//
// A Value is a discriminant plus one payload arm. Plain-data kinds
// (Null, Int, Float, Handle, Array, DType) carry their payload inline
// and own nothing. Reference kinds (Str, Bytes, Func, Module, Node)
// carry a pointer-shaped payload whose ownership depends on position:
//
//   - Argument lists borrow. Packing copies no bytes; the caller's
//     payloads must outlive the call.
//   - Return slots own. A RetValue releases its payload exactly once,
//     retains Node references it stores, and converts borrowed byte
//     buffers to owned strings.
//
// # Error Model
//
// Conversion and bounds checks do not return errors: a violated check
// throws a structured *errors.Error up the stack. Boundaries that need
// an ordinary error (servers, CLIs) wrap dispatch in errors.Catch.
//
// # Thread Safety
//
// Values and argument views are immutable and freely shareable. RetValue
// is NOT thread-safe and belongs to a single goroutine. Registries are
// safe for concurrent use.
package ffiruntime
