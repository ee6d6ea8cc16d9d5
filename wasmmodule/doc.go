// Package wasmmodule loads WebAssembly modules and exposes their exports
// through the type-erased calling convention.
//
// This package wraps wazero to turn compiled WASM exports into ordinary
// type-erased functions: arguments lower to the export's core value types,
// results lift back into the return slot, and signature violations surface
// as the same fatal errors every other callable raises.
//
// # Architecture
//
// The package provides two types:
//
//	Runtime - Creates and owns a wazero runtime; loads module binaries
//	Module  - An instantiated module whose exports are callable functions
//
// # Loading Flow
//
//  1. NewRuntime creates the shared wazero runtime
//  2. Runtime.Load compiles and instantiates one binary
//  3. Module.GetFunction wraps an export on first use and caches it
//  4. The wrapped function is called like any other type-erased callable
//
// # Type Lowering
//
// Exports declare core WASM value types; the wrapper maps them to the
// tagged-value kinds:
//
//	Core Type    Argument Read            Result Write
//	────────────────────────────────────────────────────
//	i32          integer, range-checked   integer
//	i64          integer                  integer
//	f32          float, narrowed          float
//	f64          float                    float
//
// Reference types and multi-value results are not supported; calls that
// touch them fail fatally with an unsupported-type error.
//
// A Module satisfies the runtime's Module interface, so modules travel
// through calls as first-class values and callers pull functions out of
// them by name.
//
// # Thread Safety
//
// Runtime and Module are safe for concurrent use. Wrapped functions may
// be called from multiple goroutines; each call binds its own function
// handle and stack, since wazero handles are single-caller.
package wasmmodule
