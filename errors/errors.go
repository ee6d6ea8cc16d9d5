package errors

import (
	"fmt"
	"strings"
)

// Kind categorizes the error
type Kind string

const (
	KindTagMismatch  Kind = "tag_mismatch"  // conversion against the wrong discriminant
	KindOutOfRange   Kind = "out_of_range"  // value does not fit the target width
	KindOutOfBounds  Kind = "out_of_bounds" // argument index past the count
	KindParse        Kind = "parse"         // malformed type descriptor text
	KindBadTransfer  Kind = "bad_transfer"  // payload may not cross the raw boundary
	KindUnsupported  Kind = "unsupported"   // no packing rule for the supplied type
	KindCorrupt      Kind = "corrupt"       // unrecognized internal discriminant
	KindCallFailed   Kind = "call_failed"   // function body or backend failure
	KindNotFound     Kind = "not_found"     // unknown function name
	KindRegistration Kind = "registration"  // registry insert conflict
)

// Error is the structured error type used throughout the runtime
type Error struct {
	Value  any
	Cause  error
	Op     string
	Kind   Kind
	Want   string
	Got    string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(e.Op)
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Want != "" || e.Got != "" {
		b.WriteString(": ")
		if e.Want != "" && e.Got != "" {
			b.WriteString("want ")
			b.WriteString(e.Want)
			b.WriteString(", got ")
			b.WriteString(e.Got)
		} else if e.Want != "" {
			b.WriteString("want ")
			b.WriteString(e.Want)
		} else {
			b.WriteString("got ")
			b.WriteString(e.Got)
		}
	}

	if e.Detail != "" {
		if e.Want != "" || e.Got != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind && (t.Op == "" || e.Op == t.Op)
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(kind Kind) *Builder {
	return &Builder{
		err: Error{
			Kind: kind,
		},
	}
}

// Op sets the operation that failed
func (b *Builder) Op(op string) *Builder {
	b.err.Op = op
	return b
}

// Want sets the expected tag or type name
func (b *Builder) Want(name string) *Builder {
	b.err.Want = name
	return b
}

// Got sets the actual tag or type name
func (b *Builder) Got(name string) *Builder {
	b.err.Got = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// TagMismatch creates a tag mismatch error
func TagMismatch(op, want, got string) *Error {
	return &Error{
		Op:   op,
		Kind: KindTagMismatch,
		Want: want,
		Got:  got,
	}
}

// OutOfRange creates a range error for a narrowing conversion
func OutOfRange(op string, value any, target string) *Error {
	return &Error{
		Op:     op,
		Kind:   KindOutOfRange,
		Want:   target,
		Detail: fmt.Sprintf("value %v does not fit %s", value, target),
		Value:  value,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(op string, index, length int) *Error {
	return &Error{
		Op:     op,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("index %d out of bounds (%d passed)", index, length),
		Value:  index,
	}
}

// ParseFailed creates a parsing error
func ParseFailed(text, detail string) *Error {
	return &Error{
		Op:     "ParseDType",
		Kind:   KindParse,
		Detail: fmt.Sprintf("parse %q: %s", text, detail),
		Value:  text,
	}
}

// BadTransfer creates an invalid transfer error
func BadTransfer(op, got string) *Error {
	return &Error{
		Op:     op,
		Kind:   KindBadTransfer,
		Got:    got,
		Detail: "payload cannot cross the raw boundary",
	}
}

// Unsupported creates an unsupported type error
func Unsupported(op, goType string) *Error {
	return &Error{
		Op:     op,
		Kind:   KindUnsupported,
		Got:    goType,
		Detail: "no packing rule for this type",
	}
}

// Corrupt creates an unreachable-state error for an unrecognized discriminant
func Corrupt(op string, disc uint8) *Error {
	return &Error{
		Op:     op,
		Kind:   KindCorrupt,
		Detail: fmt.Sprintf("unrecognized discriminant %d", disc),
		Value:  disc,
	}
}

// CallFailed creates a call failure error
func CallFailed(op string, cause error) *Error {
	return &Error{
		Op:    op,
		Kind:  KindCallFailed,
		Cause: cause,
	}
}

// NotFound creates a not-found error
func NotFound(what, name string) *Error {
	return &Error{
		Op:     "lookup",
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Registration creates a registration error
func Registration(name string, cause error) *Error {
	return &Error{
		Op:     "Register",
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %q", name),
		Cause:  cause,
	}
}

// Throw aborts the current operation with err. Every fatal check in the
// value-passing core funnels through here; callers that need a soft error
// instead of a crash wrap the call in Catch.
func Throw(err *Error) {
	panic(err)
}

// Catch runs fn and converts a thrown *Error into an ordinary return.
// Panics that are not *Error values propagate unchanged.
func Catch(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(*Error)
			if !ok {
				panic(r)
			}
			err = e
		}
	}()
	fn()
	return nil
}
