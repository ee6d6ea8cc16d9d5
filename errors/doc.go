// Package errors provides structured error types for the ffi-runtime library.
//
// Errors are categorized by Kind (what check failed) and carry the Op that
// failed plus the expected/actual tag names and a detail message.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.KindTagMismatch).
//		Op("AsInt64").
//		Want("int").
//		Got("str").
//		Detail("argument %d", 2).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TagMismatch("AsInt64", "int", "str")
//	err := errors.OutOfBounds("Get", 3, 2)
//
// The value-passing core treats violated checks as fatal: Throw unwinds
// the stack with a *Error, and Catch converts the unwind back into an
// ordinary error at boundaries that need one:
//
//	err := errors.Catch(func() {
//		ret = f.Call(ctx, args...)
//	})
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
