// Package trace records type-erased calls to a SQLite database.
//
// A Recorder wraps individual functions: the wrapped function behaves
// identically to the original, and every invocation leaves a row with
// the rendered arguments, the rendered result or failure, and elapsed
// time. Records are bookkeeping: a failed insert is logged and the
// call proceeds as if nothing happened.
//
// Each Recorder writes under a fresh session id, so runs are separable
// even when they share a database file.
//
//	rec, err := trace.Open("calls.db")
//	defer rec.Close()
//
//	reg.MustRegister("calc.add", rec.Wrap("calc.add", addFn))
//
//	calls, err := rec.Calls(ctx) // this session, in call order
package trace
