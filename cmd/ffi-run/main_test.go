package main

import (
	"reflect"
	"testing"

	ffiruntime "github.com/wippyai/ffi-runtime"
)

func TestParseArg(t *testing.T) {
	tests := []struct {
		text string
		want any
	}{
		{"null", nil},
		{"true", true},
		{"false", false},
		{"42", int64(42)},
		{"-7", int64(-7)},
		{"2.5", float64(2.5)},
		{"1e3", float64(1000)},
		{`"quoted text"`, "quoted text"},
		{`"esc\n"`, "esc\n"},
		{"bare", "bare"},
		{"dtype:float32x4", ffiruntime.DType{Code: ffiruntime.KindFloat, Bits: 32, Lanes: 4}},
		{"dtype:int64", ffiruntime.DType{Code: ffiruntime.KindInt, Bits: 64, Lanes: 1}},
	}
	for _, tt := range tests {
		got, err := parseArg(tt.text)
		if err != nil {
			t.Errorf("parseArg(%q): unexpected error: %v", tt.text, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseArg(%q) = %#v, want %#v", tt.text, got, tt.want)
		}
	}
}

func TestParseArg_Errors(t *testing.T) {
	if _, err := parseArg("dtype:complex128"); err == nil {
		t.Error("expected error for unknown dtype name")
	}
	if _, err := parseArg(`"bad \q escape"`); err == nil {
		t.Error("expected error for invalid escape in string literal")
	}
}

func TestParseArgs(t *testing.T) {
	args, err := parseArgs(`1, 2.5, "three", null`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []any{int64(1), float64(2.5), "three", nil}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args = %#v, want %#v", args, want)
	}
}

func TestParseArgs_Empty(t *testing.T) {
	args, err := parseArgs("   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if args != nil {
		t.Errorf("expected nil args, got %#v", args)
	}
}

func TestParseArgs_PropagatesError(t *testing.T) {
	if _, err := parseArgs(`1, dtype:bogus`); err == nil {
		t.Fatal("expected error for bad dtype literal")
	}
}
