package ffiruntime

import (
	"math"
	"testing"
	"unsafe"

	"github.com/wippyai/ffi-runtime/errors"
)

// countingNode tracks reference traffic so ownership tests can prove
// payloads are released exactly once.
type countingNode struct {
	refs     int
	releases int
}

func newCountingNode() *countingNode {
	return &countingNode{refs: 1}
}

func (n *countingNode) TypeKey() string { return "counting" }
func (n *countingNode) Retain()         { n.refs++ }
func (n *countingNode) Release() {
	n.refs--
	n.releases++
}

// mustThrow runs fn and returns the structured error it threw.
func mustThrow(t *testing.T, fn func()) *errors.Error {
	t.Helper()
	err := errors.Catch(fn)
	if err == nil {
		t.Fatal("Expected a thrown error")
	}
	fe, ok := err.(*errors.Error)
	if !ok {
		t.Fatalf("Expected *errors.Error, got %T", err)
	}
	return fe
}

func TestValue_ZeroIsNull(t *testing.T) {
	var v Value
	if v.Kind() != KindNull {
		t.Fatalf("Zero Value has kind %s, want null", v.Kind())
	}
	if !v.IsNull() {
		t.Fatal("Zero Value must report IsNull")
	}
}

func TestValue_Constructors(t *testing.T) {
	if got, ok := IntValue(-42).TryInt64(); !ok || got != -42 {
		t.Errorf("IntValue round trip: got %d, %v", got, ok)
	}
	if got, ok := UintValue(42).TryUint64(); !ok || got != 42 {
		t.Errorf("UintValue round trip: got %d, %v", got, ok)
	}
	if got, ok := FloatValue(2.5).TryFloat64(); !ok || got != 2.5 {
		t.Errorf("FloatValue round trip: got %g, %v", got, ok)
	}
	if got, ok := BoolValue(true).TryBool(); !ok || !got {
		t.Errorf("BoolValue round trip: got %v, %v", got, ok)
	}
	if got, ok := BoolValue(false).TryInt64(); !ok || got != 0 {
		t.Errorf("BoolValue(false) must store integer 0, got %d", got)
	}
	if got, ok := StrValue("hi").TryStr(); !ok || got != "hi" {
		t.Errorf("StrValue round trip: got %q, %v", got, ok)
	}
	buf := []byte{1, 2, 3}
	if got, ok := BytesValue(buf).TryBytes(); !ok || len(got) != 3 {
		t.Errorf("BytesValue round trip: got %v, %v", got, ok)
	}
	if got, ok := DTypeValue(Float32).TryDType(); !ok || got != Float32 {
		t.Errorf("DTypeValue round trip: got %+v, %v", got, ok)
	}
	arr := &Array{DType: Float32}
	if got, ok := ArrayValue(arr).TryArray(); !ok || got != arr {
		t.Errorf("ArrayValue round trip: got %p, %v", got, ok)
	}
	p := unsafe.Pointer(arr)
	if got, ok := HandleValue(p).TryHandle(); !ok || got != p {
		t.Errorf("HandleValue round trip: got %p, %v", got, ok)
	}
	n := newCountingNode()
	if got, ok := NodeValue(n).TryNode(); !ok || got != Node(n) {
		t.Errorf("NodeValue round trip: got %v, %v", got, ok)
	}
	if n.refs != 1 {
		t.Errorf("NodeValue must not retain, refs = %d", n.refs)
	}
}

func TestValue_TryIsStrict(t *testing.T) {
	// Try accessors peek at one arm only; they never convert
	v := StrValue("int32")
	if _, ok := v.TryDType(); ok {
		t.Error("TryDType must not parse descriptor text")
	}
	if _, ok := IntValue(1).TryFloat64(); ok {
		t.Error("TryFloat64 must not accept an Int")
	}
	if _, ok := FloatValue(1).TryInt64(); ok {
		t.Error("TryInt64 must not accept a Float")
	}
	if _, ok := BytesValue([]byte("x")).TryStr(); ok {
		t.Error("TryStr must not copy a Bytes buffer")
	}
	if _, ok := IntValue(-1).TryUint64(); ok {
		t.Error("TryUint64 must reject a negative payload")
	}
}

func TestUintValue_Overflow(t *testing.T) {
	fe := mustThrow(t, func() {
		UintValue(math.MaxInt64 + 1)
	})
	if fe.Kind != errors.KindOutOfRange {
		t.Errorf("Expected out_of_range, got %s", fe.Kind)
	}

	// the boundary itself is representable
	v := UintValue(math.MaxInt64)
	if got, _ := v.TryUint64(); got != math.MaxInt64 {
		t.Errorf("UintValue(MaxInt64) = %d", got)
	}
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", NullValue(), "null"},
		{"int", IntValue(-7), "-7"},
		{"float", FloatValue(1.5), "1.5"},
		{"str", StrValue("x"), `"x"`},
		{"bytes", BytesValue([]byte{1, 2}), "bytes[2]"},
		{"dtype", DTypeValue(Float32), "float32"},
		{"func", FuncValue(nil), "func"},
		{"node", NodeValue(newCountingNode()), "node(counting)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	if KindStr.String() != "str" || KindNull.String() != "null" {
		t.Fatal("Known kinds must render their names")
	}
	if got := Kind(200).String(); got != "kind(200)" {
		t.Errorf("Out-of-range kind renders %q, want kind(200)", got)
	}
}

func TestKind_IsPOD(t *testing.T) {
	pod := []Kind{KindNull, KindInt, KindUint, KindFloat, KindHandle, KindArray, KindDType}
	for _, k := range pod {
		if !k.IsPOD() {
			t.Errorf("%s must be POD", k)
		}
	}
	complexKinds := []Kind{KindFunc, KindModule, KindNode, KindStr, KindBytes}
	for _, k := range complexKinds {
		if k.IsPOD() {
			t.Errorf("%s must not be POD", k)
		}
	}
}
