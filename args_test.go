package ffiruntime

import (
	"context"
	"strings"
	"testing"
	"unsafe"

	"github.com/wippyai/ffi-runtime/errors"
)

func TestArgs_Bounds(t *testing.T) {
	args := NewArgs([]Value{IntValue(1), IntValue(2)})

	if args.Len() != 2 {
		t.Fatalf("Len = %d, want 2", args.Len())
	}
	if got := args.Get(1).AsInt64(); got != 2 {
		t.Fatalf("args.Get(1) = %d, want 2", got)
	}

	// reading one past the end names both the index and the count
	fe := mustThrow(t, func() { args.Get(2) })
	if fe.Kind != errors.KindOutOfBounds {
		t.Fatalf("Expected out_of_bounds, got %s", fe.Kind)
	}
	if !strings.Contains(fe.Error(), "index 2") || !strings.Contains(fe.Error(), "2 passed") {
		t.Errorf("Bounds error must carry index and count: %s", fe.Error())
	}

	fe = mustThrow(t, func() { args.Get(-1) })
	if fe.Kind != errors.KindOutOfBounds {
		t.Fatalf("Expected out_of_bounds for negative index, got %s", fe.Kind)
	}
}

func TestArgs_EmptyList(t *testing.T) {
	var args Args
	if args.Len() != 0 {
		t.Fatalf("Zero Args has Len %d", args.Len())
	}
	fe := mustThrow(t, func() { args.Get(0) })
	if fe.Kind != errors.KindOutOfBounds {
		t.Fatalf("Expected out_of_bounds, got %s", fe.Kind)
	}
}

func TestArgValue_IntReads(t *testing.T) {
	args := NewArgs([]Value{IntValue(42), IntValue(-1), IntValue(0)})

	if got := args.Get(0).AsInt64(); got != 42 {
		t.Errorf("AsInt64 = %d", got)
	}
	if got := args.Get(0).AsUint64(); got != 42 {
		t.Errorf("AsUint64 = %d", got)
	}
	if got := args.Get(0).AsInt(); got != 42 {
		t.Errorf("AsInt = %d", got)
	}
	if !args.Get(0).AsBool() {
		t.Error("AsBool(42) = false")
	}
	if args.Get(2).AsBool() {
		t.Error("AsBool(0) = true")
	}

	// negative payloads never reinterpret as unsigned
	fe := mustThrow(t, func() { args.Get(1).AsUint64() })
	if fe.Kind != errors.KindOutOfRange {
		t.Errorf("Expected out_of_range, got %s", fe.Kind)
	}

	// floats do not quietly convert to integers
	fargs := NewArgs([]Value{FloatValue(1.0)})
	fe = mustThrow(t, func() { fargs.Get(0).AsInt64() })
	if fe.Kind != errors.KindTagMismatch {
		t.Errorf("Expected tag_mismatch, got %s", fe.Kind)
	}
	if !strings.Contains(fe.Error(), "argument 0") {
		t.Errorf("Conversion error must carry the position: %s", fe.Error())
	}
}

func TestIntAs_Narrowing(t *testing.T) {
	args := NewArgs([]Value{IntValue(300), IntValue(-5), IntValue(70000)})

	// in range
	if got := IntAs[int32](args.Get(0)); got != 300 {
		t.Errorf("IntAs[int32] = %d", got)
	}
	if got := IntAs[uint16](args.Get(0)); got != 300 {
		t.Errorf("IntAs[uint16] = %d", got)
	}
	if got := IntAs[int8](args.Get(1)); got != -5 {
		t.Errorf("IntAs[int8] = %d", got)
	}

	// narrowing never truncates
	fe := mustThrow(t, func() { IntAs[int8](args.Get(0)) })
	if fe.Kind != errors.KindOutOfRange {
		t.Errorf("300 into int8: expected out_of_range, got %s", fe.Kind)
	}
	fe = mustThrow(t, func() { IntAs[uint8](args.Get(0)) })
	if fe.Kind != errors.KindOutOfRange {
		t.Errorf("300 into uint8: expected out_of_range, got %s", fe.Kind)
	}
	fe = mustThrow(t, func() { IntAs[int16](args.Get(2)) })
	if fe.Kind != errors.KindOutOfRange {
		t.Errorf("70000 into int16: expected out_of_range, got %s", fe.Kind)
	}

	// negative values never reinterpret into unsigned targets
	fe = mustThrow(t, func() { IntAs[uint64](args.Get(1)) })
	if fe.Kind != errors.KindOutOfRange {
		t.Errorf("-5 into uint64: expected out_of_range, got %s", fe.Kind)
	}
	fe = mustThrow(t, func() { IntAs[uint32](args.Get(1)) })
	if fe.Kind != errors.KindOutOfRange {
		t.Errorf("-5 into uint32: expected out_of_range, got %s", fe.Kind)
	}
}

func TestArgValue_FloatRead(t *testing.T) {
	args := NewArgs([]Value{FloatValue(2.75), IntValue(3)})

	if got := args.Get(0).AsFloat64(); got != 2.75 {
		t.Errorf("AsFloat64 = %g", got)
	}

	// integers do not quietly widen to float
	fe := mustThrow(t, func() { args.Get(1).AsFloat64() })
	if fe.Kind != errors.KindTagMismatch {
		t.Errorf("Expected tag_mismatch, got %s", fe.Kind)
	}
}

func TestArgValue_StrRead(t *testing.T) {
	args := NewArgs([]Value{
		StrValue("plain"),
		BytesValue([]byte("buffer")),
		DTypeValue(DType{Code: KindFloat, Bits: 32, Lanes: 4}),
		IntValue(1),
	})

	if got := args.Get(0).AsStr(); got != "plain" {
		t.Errorf("AsStr(str) = %q", got)
	}
	if got := args.Get(1).AsStr(); got != "buffer" {
		t.Errorf("AsStr(bytes) = %q", got)
	}
	if got := args.Get(2).AsStr(); got != "float32x4" {
		t.Errorf("AsStr(dtype) = %q", got)
	}
	fe := mustThrow(t, func() { args.Get(3).AsStr() })
	if fe.Kind != errors.KindTagMismatch {
		t.Errorf("Expected tag_mismatch, got %s", fe.Kind)
	}
}

func TestArgValue_StrReadCopiesBytes(t *testing.T) {
	buf := []byte("abc")
	args := NewArgs([]Value{BytesValue(buf)})
	s := args.Get(0).AsStr()
	buf[0] = 'z'
	if s != "abc" {
		t.Fatalf("AsStr must copy the borrowed buffer, got %q", s)
	}
}

func TestArgValue_DTypeRead(t *testing.T) {
	args := NewArgs([]Value{
		DTypeValue(Int64),
		StrValue("float32x4"),
		StrValue("not a dtype"),
		FloatValue(1),
	})

	if got := args.Get(0).AsDType(); got != Int64 {
		t.Errorf("AsDType(dtype) = %+v", got)
	}
	want := DType{Code: KindFloat, Bits: 32, Lanes: 4}
	if got := args.Get(1).AsDType(); got != want {
		t.Errorf("AsDType(str) = %+v, want %+v", got, want)
	}

	// descriptor text that fails to parse is fatal on this path
	fe := mustThrow(t, func() { args.Get(2).AsDType() })
	if fe.Kind != errors.KindParse {
		t.Errorf("Expected parse kind, got %s", fe.Kind)
	}
	fe = mustThrow(t, func() { args.Get(3).AsDType() })
	if fe.Kind != errors.KindTagMismatch {
		t.Errorf("Expected tag_mismatch, got %s", fe.Kind)
	}
}

func TestArgValue_HandleRead(t *testing.T) {
	arr := &Array{DType: Float32}
	p := unsafe.Pointer(arr)
	args := NewArgs([]Value{NullValue(), HandleValue(p), ArrayValue(arr), IntValue(0)})

	if got := args.Get(0).AsHandle(); got != nil {
		t.Errorf("AsHandle(null) = %p, want nil", got)
	}
	if got := args.Get(1).AsHandle(); got != p {
		t.Errorf("AsHandle(handle) = %p, want %p", got, p)
	}
	if got := args.Get(2).AsHandle(); got != p {
		t.Errorf("AsHandle(array) = %p, want %p", got, p)
	}
	fe := mustThrow(t, func() { args.Get(3).AsHandle() })
	if fe.Kind != errors.KindTagMismatch {
		t.Errorf("Expected tag_mismatch, got %s", fe.Kind)
	}

	if got := args.Get(0).AsArray(); got != nil {
		t.Errorf("AsArray(null) = %p, want nil", got)
	}
	if got := args.Get(2).AsArray(); got != arr {
		t.Errorf("AsArray(array) = %p, want %p", got, arr)
	}
	// a raw handle does not reinterpret as a descriptor
	fe = mustThrow(t, func() { args.Get(1).AsArray() })
	if fe.Kind != errors.KindTagMismatch {
		t.Errorf("Expected tag_mismatch, got %s", fe.Kind)
	}
}

func TestArgValue_ObjectReads(t *testing.T) {
	var called bool
	f := Func(func(ctx context.Context, args Args, ret *RetValue) { called = true })
	n := newCountingNode()
	args := NewArgs([]Value{FuncValue(f), NodeValue(n), IntValue(1)})

	got := args.Get(0).AsFunc()
	var ret RetValue
	got(context.Background(), Args{}, &ret)
	if !called {
		t.Error("AsFunc must hand back the same callable")
	}

	if args.Get(1).AsNode() != Node(n) {
		t.Error("AsNode must hand back the same reference")
	}
	if n.refs != 1 {
		t.Errorf("Borrowed reads must not retain, refs = %d", n.refs)
	}

	fe := mustThrow(t, func() { args.Get(2).AsFunc() })
	if fe.Kind != errors.KindTagMismatch {
		t.Errorf("Expected tag_mismatch, got %s", fe.Kind)
	}
	fe = mustThrow(t, func() { args.Get(2).AsModule() })
	if fe.Kind != errors.KindTagMismatch {
		t.Errorf("Expected tag_mismatch, got %s", fe.Kind)
	}
}

func TestNodeAs(t *testing.T) {
	n := newCountingNode()
	args := NewArgs([]Value{NodeValue(n)})

	if got := NodeAs[*countingNode](args.Get(0)); got != n {
		t.Fatalf("NodeAs = %v, want %v", got, n)
	}

	fe := mustThrow(t, func() { NodeAs[*otherNode](args.Get(0)) })
	if fe.Kind != errors.KindTagMismatch {
		t.Errorf("Expected tag_mismatch, got %s", fe.Kind)
	}
	if !strings.Contains(fe.Error(), "countingNode") {
		t.Errorf("Unwrap error must name the concrete type: %s", fe.Error())
	}
}

// otherNode exists so NodeAs has a wrong type to fail against.
type otherNode struct{}

func (*otherNode) TypeKey() string { return "other" }
func (*otherNode) Retain()         {}
func (*otherNode) Release()        {}
