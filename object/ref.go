package object

import (
	"reflect"
	"sync/atomic"

	ffiruntime "github.com/wippyai/ffi-runtime"
	"github.com/wippyai/ffi-runtime/errors"
)

// Ref is a reference-counted payload satisfying the runtime's Node
// contract. A new Ref starts with one reference owned by its creator;
// owning return slots retain it while they hold it and release it when
// cleared. When the count reaches zero the finalizer runs exactly once
// and the payload is gone for good.
//
// Counting bugs do not corrupt silently: retaining or releasing a dead
// Ref is fatal.
type Ref struct {
	payload   any
	finalizer func(any)
	typeKey   string
	count     atomic.Int64
}

var _ ffiruntime.Node = (*Ref)(nil)

// New creates a payload with a reference count of one.
func New(typeKey string, payload any) *Ref {
	return NewWithFinalizer(typeKey, payload, nil)
}

// NewWithFinalizer creates a payload whose finalizer runs when the last
// reference is released. The finalizer receives the payload.
func NewWithFinalizer(typeKey string, payload any, finalizer func(any)) *Ref {
	r := &Ref{
		payload:   payload,
		finalizer: finalizer,
		typeKey:   typeKey,
	}
	r.count.Store(1)
	return r
}

// TypeKey identifies the payload type for diagnostics and unwrapping.
func (r *Ref) TypeKey() string {
	return r.typeKey
}

// Payload returns the wrapped value. Reading a dead Ref is fatal.
func (r *Ref) Payload() any {
	if r.count.Load() <= 0 {
		errors.Throw(errors.New(errors.KindCorrupt).
			Op("Payload").
			Detail("use of released %s object", r.typeKey).
			Build())
	}
	return r.payload
}

// Count returns the current reference count. Diagnostic only; the value
// may be stale by the time the caller looks at it.
func (r *Ref) Count() int64 {
	return r.count.Load()
}

// Retain adds one reference.
func (r *Ref) Retain() {
	if r.count.Add(1) <= 1 {
		errors.Throw(errors.New(errors.KindCorrupt).
			Op("Retain").
			Detail("retain after release of %s object", r.typeKey).
			Build())
	}
}

// Release drops one reference. The finalizer runs on the release that
// takes the count to zero, and only that one.
func (r *Ref) Release() {
	n := r.count.Add(-1)
	if n < 0 {
		errors.Throw(errors.New(errors.KindCorrupt).
			Op("Release").
			Detail("release after release of %s object", r.typeKey).
			Build())
	}
	if n == 0 {
		if r.finalizer != nil {
			r.finalizer(r.payload)
		}
		r.payload = nil
	}
}

// PayloadAs unwraps the payload to a concrete type, fatally reporting a
// mismatch the same way the runtime's tag checks do.
func PayloadAs[T any](r *Ref) T {
	p, ok := r.Payload().(T)
	if !ok {
		errors.Throw(errors.New(errors.KindTagMismatch).
			Op("PayloadAs").
			Want(reflect.TypeFor[T]().String()).
			Got(r.typeKey).
			Build())
	}
	return p
}
