package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseManifest_ValidMinimal(t *testing.T) {
	yaml := `
modules:
  - path: calc.wasm
`
	m, err := ParseManifest([]byte(yaml), "testdata/ffi-run.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Modules) != 1 {
		t.Fatalf("expected 1 module, got %d", len(m.Modules))
	}
	mod := m.Modules[0]
	if mod.Name != "calc" {
		t.Errorf("name = %q, want calc", mod.Name)
	}
	if want := filepath.Join("testdata", "calc.wasm"); mod.Path != want {
		t.Errorf("path = %q, want %q", mod.Path, want)
	}
}

func TestParseManifest_ExplicitName(t *testing.T) {
	yaml := `
modules:
  - name: math
    path: mods/calc.wasm
`
	m, err := ParseManifest([]byte(yaml), "conf/ffi-run.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mod := m.Modules[0]
	if mod.Name != "math" {
		t.Errorf("name = %q, want math", mod.Name)
	}
	if want := filepath.Join("conf", "mods", "calc.wasm"); mod.Path != want {
		t.Errorf("path = %q, want %q", mod.Path, want)
	}
}

func TestParseManifest_AbsolutePathKept(t *testing.T) {
	yaml := `
modules:
  - path: /opt/mods/calc.wasm
`
	m, err := ParseManifest([]byte(yaml), "conf/ffi-run.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Modules[0].Path != "/opt/mods/calc.wasm" {
		t.Errorf("path = %q, want /opt/mods/calc.wasm", m.Modules[0].Path)
	}
}

func TestParseManifest_ServeAndTrace(t *testing.T) {
	yaml := `
modules:
  - path: calc.wasm
serve: 127.0.0.1:7777
trace: calls.db
`
	m, err := ParseManifest([]byte(yaml), "ffi-run.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Serve != "127.0.0.1:7777" {
		t.Errorf("serve = %q, want 127.0.0.1:7777", m.Serve)
	}
	if m.Trace != "calls.db" {
		t.Errorf("trace = %q, want calls.db", m.Trace)
	}
}

func TestParseManifest_ErrorNoModules(t *testing.T) {
	yaml := `
modules: []
`
	_, err := ParseManifest([]byte(yaml), "ffi-run.yaml")
	if err == nil {
		t.Fatal("expected error for empty modules")
	}
}

func TestParseManifest_ErrorMissingPath(t *testing.T) {
	yaml := `
modules:
  - name: calc
`
	_, err := ParseManifest([]byte(yaml), "ffi-run.yaml")
	if err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestParseManifest_ErrorDuplicateName(t *testing.T) {
	// The second entry's derived name collides with the explicit one.
	yaml := `
modules:
  - name: calc
    path: a.wasm
  - path: calc.wasm
`
	_, err := ParseManifest([]byte(yaml), "ffi-run.yaml")
	if err == nil {
		t.Fatal("expected error for duplicate name")
	}
}

func TestParseManifest_ErrorBadYAML(t *testing.T) {
	_, err := ParseManifest([]byte("modules: ["), "ffi-run.yaml")
	if err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestLoadManifest(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "ffi-run.yaml")
	content := `
modules:
  - path: calc.wasm
serve: 127.0.0.1:0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(tmpDir, "calc.wasm"); m.Modules[0].Path != want {
		t.Errorf("path = %q, want %q", m.Modules[0].Path, want)
	}
	if m.Serve != "127.0.0.1:0" {
		t.Errorf("serve = %q, want 127.0.0.1:0", m.Serve)
	}

	if _, err := LoadManifest(filepath.Join(tmpDir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestModuleNameFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"calc.wasm", "calc"},
		{"mods/math.wasm", "math"},
		{"/opt/mods/geo.wasm", "geo"},
		{"noext", "noext"},
	}
	for _, tt := range tests {
		if got := moduleNameFromPath(tt.path); got != tt.want {
			t.Errorf("moduleNameFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
