package ffiruntime

import (
	"strconv"
	"strings"

	"github.com/wippyai/ffi-runtime/errors"
)

// DType describes the element type of data crossing the boundary: a
// base-kind code, a bit width, and a SIMD lane count. It is plain data
// and travels by value under KindDType.
type DType struct {
	Code  Kind
	Bits  uint8
	Lanes uint16
}

// Common descriptors.
var (
	Int32   = DType{Code: KindInt, Bits: 32, Lanes: 1}
	Int64   = DType{Code: KindInt, Bits: 64, Lanes: 1}
	Uint32  = DType{Code: KindUint, Bits: 32, Lanes: 1}
	Float32 = DType{Code: KindFloat, Bits: 32, Lanes: 1}
	Float64 = DType{Code: KindFloat, Bits: 64, Lanes: 1}
	Handle  = DType{Code: KindHandle, Bits: 64, Lanes: 1}
)

// ParseDType reads a descriptor of the form <name>[bits][x<lanes>].
// Recognized names are int, uint, float and handle; bits defaults to 32
// (64 for handle, which carries no meaningful width) and lanes to 1.
// Trailing text after the suffix is an error rather than being ignored.
func ParseDType(s string) (DType, error) {
	dt := DType{Bits: 32, Lanes: 1}
	var rest string
	switch {
	case strings.HasPrefix(s, "int"):
		dt.Code, rest = KindInt, s[len("int"):]
	case strings.HasPrefix(s, "uint"):
		dt.Code, rest = KindUint, s[len("uint"):]
	case strings.HasPrefix(s, "float"):
		dt.Code, rest = KindFloat, s[len("float"):]
	case strings.HasPrefix(s, "handle"):
		dt.Code, dt.Bits, rest = KindHandle, 64, s[len("handle"):]
	default:
		return DType{}, errors.ParseFailed(s, "unknown type name")
	}
	if rest == "" {
		return dt, nil
	}

	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	if digits > 0 {
		bits, err := strconv.ParseUint(rest[:digits], 10, 8)
		if err != nil {
			return DType{}, errors.ParseFailed(s, "bit width out of range")
		}
		dt.Bits = uint8(bits)
	}
	if dt.Code == KindHandle {
		// a width suffix on handle carries no information; pointers
		// are 64-bit regardless of what the text says
		dt.Bits = 64
	}
	rest = rest[digits:]
	if rest == "" {
		return dt, nil
	}
	if rest[0] != 'x' {
		return DType{}, errors.ParseFailed(s, "malformed width suffix")
	}
	lanes, err := strconv.ParseUint(rest[1:], 10, 16)
	if err != nil {
		return DType{}, errors.ParseFailed(s, "malformed lane count")
	}
	dt.Lanes = uint16(lanes)
	return dt, nil
}

// MustParseDType is ParseDType for descriptors known at compile time.
func MustParseDType(s string) DType {
	dt, err := ParseDType(s)
	if err != nil {
		panic(err)
	}
	return dt
}

// String formats the descriptor so that ParseDType(dt.String()) == dt
// for every representable value. Handle omits the bit width (it is
// always 64) but keeps the lane suffix; a lane count of 1 is implied.
func (t DType) String() string {
	var b strings.Builder
	b.WriteString(t.Code.String())
	if t.Code != KindHandle {
		b.WriteString(strconv.FormatUint(uint64(t.Bits), 10))
	}
	if t.Lanes != 1 {
		b.WriteByte('x')
		b.WriteString(strconv.FormatUint(uint64(t.Lanes), 10))
	}
	return b.String()
}
