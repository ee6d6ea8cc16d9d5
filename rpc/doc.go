// Package rpc carries type-erased calls between processes over gRPC.
//
// A Server exposes one registry: each request names a registered
// function, the arguments travel as tagged wire values, and the result
// comes back the same way. A Client turns remote functions back into
// ordinary callables, so code that holds a Func does not know or care
// which process the body runs in.
//
// # Wire Schema
//
// The proto schema is embedded as source and parsed at startup with
// protoparse; messages are built dynamically. There is no generated
// code to keep in sync.
//
// Only self-contained payloads cross the boundary:
//
//	Kind      Wire Field
//	─────────────────────
//	Null      (none)
//	Int       num
//	Float     real
//	Str       str
//	Bytes     raw
//	DType     dtype
//
// Handles, arrays, functions, modules and nodes are process-local;
// sending one fails with a bad-transfer error before anything is
// written to the wire.
//
// # Failure Mapping
//
// Fatal errors raised during dispatch map onto gRPC status codes:
// conversion and range failures become InvalidArgument, bounds and
// transfer failures become FailedPrecondition, unknown names become
// NotFound, and everything else is Internal. On the client side every
// transport or status failure surfaces as a call-failed fatal error
// with the gRPC error as its cause.
//
// # Usage
//
//	reg := registry.New()
//	reg.MustRegister("calc.add", addFn)
//
//	srv := rpc.NewServer(reg)
//	go srv.ListenAndServe("127.0.0.1:7777")
//
//	client, err := rpc.Dial("127.0.0.1:7777")
//	ret, err := client.Call(ctx, "calc.add", int64(2), int64(40))
package rpc
