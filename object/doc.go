// Package object provides reference-counted payloads for the runtime's
// Node kind.
//
// The calling convention treats extension objects as opaque references
// with Retain/Release lifetime. Ref supplies that lifetime for any Go
// payload: creators start with one reference, owning return slots retain
// while they hold, and the finalizer runs exactly once when the count
// reaches zero. Counting mistakes (retain or release after death) fail
// fatally instead of corrupting.
//
// Table layers accounting on top for embedders that want leak detection:
// every object created through a table is tracked until its last release,
// and Stats exposes created/freed/live counts.
//
//	tbl := object.NewTable()
//	ref := tbl.NewWithFinalizer("dataset", ds, func(p any) {
//	    p.(*Dataset).Close()
//	})
//	defer ref.Release()
//
//	ret.SetNode(ref) // the slot retains while it holds
package object
