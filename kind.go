package ffiruntime

import "strconv"

// Kind is the discriminant selecting which arm of a Value is live. The
// discriminant alone determines how the payload is stored and whether an
// owning slot has anything to release.
type Kind uint8

const (
	KindNull   Kind = iota // no payload; the zero Value
	KindInt                // signed 64-bit integer, stored inline
	KindUint               // descriptor code only; runtime values store unsigned under KindInt
	KindFloat              // 64-bit float, stored inline
	KindHandle             // opaque pointer, unmanaged
	KindArray              // tensor descriptor pointer, unmanaged
	KindDType              // element-type descriptor, by value
	KindFunc               // callable
	KindModule             // module object
	KindNode               // reference-counted extension object
	KindStr                // byte string
	KindBytes              // read-only byte buffer, borrowed positions only
)

var kindNames = [...]string{
	KindNull:   "null",
	KindInt:    "int",
	KindUint:   "uint",
	KindFloat:  "float",
	KindHandle: "handle",
	KindArray:  "array",
	KindDType:  "dtype",
	KindFunc:   "func",
	KindModule: "module",
	KindNode:   "node",
	KindStr:    "str",
	KindBytes:  "bytes",
}

// String returns the tag name. Out-of-range discriminants render as
// kind(N); the release and dispatch switches treat them as fatal
// corruption, the Stringer stays printable for error text.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// IsPOD reports whether the tag's payload is plain data with no
// ownership: inline numbers, unmanaged pointers, and descriptors.
// Bytes is not POD (it references a caller-owned buffer) and is never
// held by an owning slot.
func (k Kind) IsPOD() bool {
	return k <= KindDType
}
