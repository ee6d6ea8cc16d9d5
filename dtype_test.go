package ffiruntime

import (
	"testing"

	"github.com/wippyai/ffi-runtime/errors"
)

func TestParseDType(t *testing.T) {
	tests := []struct {
		text string
		want DType
	}{
		{"int", DType{Code: KindInt, Bits: 32, Lanes: 1}},
		{"int8", DType{Code: KindInt, Bits: 8, Lanes: 1}},
		{"int32", DType{Code: KindInt, Bits: 32, Lanes: 1}},
		{"int64", DType{Code: KindInt, Bits: 64, Lanes: 1}},
		{"uint", DType{Code: KindUint, Bits: 32, Lanes: 1}},
		{"uint1", DType{Code: KindUint, Bits: 1, Lanes: 1}},
		{"uint64", DType{Code: KindUint, Bits: 64, Lanes: 1}},
		{"float", DType{Code: KindFloat, Bits: 32, Lanes: 1}},
		{"float32", DType{Code: KindFloat, Bits: 32, Lanes: 1}},
		{"float64", DType{Code: KindFloat, Bits: 64, Lanes: 1}},
		{"float32x4", DType{Code: KindFloat, Bits: 32, Lanes: 4}},
		{"int16x8", DType{Code: KindInt, Bits: 16, Lanes: 8}},
		{"uint8x16", DType{Code: KindUint, Bits: 8, Lanes: 16}},
		{"handle", DType{Code: KindHandle, Bits: 64, Lanes: 1}},
		{"handlex4", DType{Code: KindHandle, Bits: 64, Lanes: 4}},
		// a width on handle is accepted but pinned to pointer size
		{"handle32", DType{Code: KindHandle, Bits: 64, Lanes: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseDType(tt.text)
			if err != nil {
				t.Fatalf("ParseDType(%q) failed: %v", tt.text, err)
			}
			if got != tt.want {
				t.Errorf("ParseDType(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseDType_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"unknown_name", "complex64"},
		{"case_sensitive", "Int32"},
		{"leading_junk", "xint32"},
		{"bad_separator", "int32y4"},
		{"empty_lanes", "int32x"},
		{"double_lanes", "int32x4x2"},
		{"bits_overflow", "int999"},
		{"lanes_not_numeric", "float32xbig"},
		{"trailing_junk", "int32 "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDType(tt.text)
			if err == nil {
				t.Fatalf("ParseDType(%q) should fail", tt.text)
			}
			fe, ok := err.(*errors.Error)
			if !ok {
				t.Fatalf("Expected *errors.Error, got %T", err)
			}
			if fe.Kind != errors.KindParse {
				t.Errorf("Expected parse kind, got %s", fe.Kind)
			}
		})
	}
}

func TestDType_String(t *testing.T) {
	tests := []struct {
		dt   DType
		want string
	}{
		{DType{Code: KindInt, Bits: 32, Lanes: 1}, "int32"},
		{DType{Code: KindUint, Bits: 8, Lanes: 1}, "uint8"},
		{DType{Code: KindFloat, Bits: 64, Lanes: 1}, "float64"},
		{DType{Code: KindFloat, Bits: 32, Lanes: 4}, "float32x4"},
		{DType{Code: KindHandle, Bits: 64, Lanes: 1}, "handle"},
		{DType{Code: KindHandle, Bits: 64, Lanes: 8}, "handlex8"},
	}
	for _, tt := range tests {
		if got := tt.dt.String(); got != tt.want {
			t.Errorf("%+v.String() = %q, want %q", tt.dt, got, tt.want)
		}
	}
}

// Every representable descriptor must survive format-then-parse intact.
func TestDType_RoundTrip(t *testing.T) {
	codes := []Kind{KindInt, KindUint, KindFloat, KindHandle}
	bits := []uint8{1, 8, 16, 32, 64}
	lanes := []uint16{1, 4, 8}
	for _, code := range codes {
		for _, b := range bits {
			if code == KindHandle && b != 64 {
				continue
			}
			for _, l := range lanes {
				dt := DType{Code: code, Bits: b, Lanes: l}
				text := dt.String()
				got, err := ParseDType(text)
				if err != nil {
					t.Fatalf("ParseDType(%q) failed: %v", text, err)
				}
				if got != dt {
					t.Errorf("round trip via %q: got %+v, want %+v", text, got, dt)
				}
			}
		}
	}
}

// One side formats a descriptor, the other reconstructs it from text
// alone. This is the exchange the text grammar exists for.
func TestDType_TextExchange(t *testing.T) {
	dt := DType{Code: KindFloat, Bits: 32, Lanes: 4}
	text := dt.String()
	if text != "float32x4" {
		t.Fatalf("Expected \"float32x4\", got %q", text)
	}

	back, err := ParseDType(text)
	if err != nil {
		t.Fatalf("ParseDType failed: %v", err)
	}
	if back != dt {
		t.Fatalf("Reconstructed %+v, want %+v", back, dt)
	}

	if got := Handle.String(); got != "handle" {
		t.Errorf("Handle must format without a bit width, got %q", got)
	}
}

func TestMustParseDType(t *testing.T) {
	if dt := MustParseDType("int64"); dt != Int64 {
		t.Errorf("MustParseDType(\"int64\") = %+v", dt)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("MustParseDType should panic on bad text")
		}
	}()
	MustParseDType("badtype")
}

func FuzzParseDType(f *testing.F) {
	seeds := []string{
		"int32", "uint8", "float32x4", "handle", "handlex8",
		"int", "float64", "uint1x16", "int32x", "bogus", "int999",
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, s string) {
		dt, err := ParseDType(s)
		if err != nil {
			return
		}
		// anything that parses must round-trip through its text form
		text := dt.String()
		back, err := ParseDType(text)
		if err != nil {
			t.Fatalf("reparse %q (from %q) failed: %v", text, s, err)
		}
		if back != dt {
			t.Errorf("round trip %q -> %+v -> %q -> %+v", s, dt, text, back)
		}
	})
}
