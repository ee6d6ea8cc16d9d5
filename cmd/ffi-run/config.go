package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest is the top-level ffi-run.yaml configuration.
type Manifest struct {
	// Modules lists the WASM modules to load at startup.
	Modules []ModuleEntry `yaml:"modules"`

	// Serve is the listen address for the gRPC server
	// ("127.0.0.1:7777"). Empty means do not serve.
	Serve string `yaml:"serve,omitempty"`

	// Trace is the path of the SQLite call-trace database.
	// Empty disables tracing.
	Trace string `yaml:"trace,omitempty"`
}

// ModuleEntry is one module to load. Its exports register under
// "<name>.<export>".
type ModuleEntry struct {
	// Name is the registry prefix for the module's exports. Defaults
	// to the file name without extension.
	Name string `yaml:"name,omitempty"`

	// Path is the wasm binary location, relative to the manifest.
	Path string `yaml:"path"`
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	return ParseManifest(data, path)
}

// ParseManifest parses manifest content from bytes. The path argument
// is used for error messages and for resolving relative module paths.
func ParseManifest(data []byte, path string) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := m.validate(path); err != nil {
		return nil, err
	}
	m.setDefaults(filepath.Dir(path))
	return &m, nil
}

// validate checks the manifest for semantic errors.
func (m *Manifest) validate(path string) error {
	if len(m.Modules) == 0 {
		return fmt.Errorf("%s: no modules defined", path)
	}

	seen := make(map[string]int)
	for i, mod := range m.Modules {
		if mod.Path == "" {
			return fmt.Errorf("%s: modules[%d]: path is required", path, i)
		}
		name := mod.Name
		if name == "" {
			name = moduleNameFromPath(mod.Path)
		}
		if name == "" {
			return fmt.Errorf("%s: modules[%d]: cannot derive a name from %q", path, i, mod.Path)
		}
		if prev, dup := seen[name]; dup {
			return fmt.Errorf("%s: modules[%d]: name %q already used by modules[%d]", path, i, name, prev)
		}
		seen[name] = i
	}
	return nil
}

func (m *Manifest) setDefaults(dir string) {
	for i := range m.Modules {
		if m.Modules[i].Name == "" {
			m.Modules[i].Name = moduleNameFromPath(m.Modules[i].Path)
		}
		if !filepath.IsAbs(m.Modules[i].Path) {
			m.Modules[i].Path = filepath.Join(dir, m.Modules[i].Path)
		}
	}
}

// moduleNameFromPath derives a registry prefix from a wasm file path.
func moduleNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
