package registry

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"unicode"

	"go.uber.org/zap"

	ffiruntime "github.com/wippyai/ffi-runtime"
	"github.com/wippyai/ffi-runtime/errors"
)

// Registry maps names to functions. Names are dotted paths by
// convention ("image.resize", "mod.main") but the registry itself treats
// them as opaque strings. Safe for concurrent use.
type Registry struct {
	funcs map[string]ffiruntime.Func
	mu    sync.RWMutex
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		funcs: make(map[string]ffiruntime.Func),
	}
}

var defaultRegistry = New()

// Default returns the process-wide registry. Packages that expose
// functions at init time register here.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a function under name. Empty names, nil functions and
// duplicate registrations are errors.
func (r *Registry) Register(name string, f ffiruntime.Func) error {
	if name == "" {
		return errors.Registration(name, fmt.Errorf("name cannot be empty"))
	}
	if f == nil {
		return errors.Registration(name, fmt.Errorf("function cannot be nil"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.funcs[name]; dup {
		return errors.Registration(name, fmt.Errorf("already registered"))
	}
	r.funcs[name] = f

	Logger().Debug("function registered", zap.String("name", name))
	return nil
}

// MustRegister is Register for init-time wiring; it panics on error.
func (r *Registry) MustRegister(name string, f ffiruntime.Func) {
	if err := r.Register(name, f); err != nil {
		panic(err)
	}
}

// Get returns the function registered under name.
func (r *Registry) Get(name string) (ffiruntime.Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.funcs[name]
	return f, ok
}

// Remove drops a registration. Removing an unknown name is a no-op.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.funcs, name)
}

// Names returns every registered name in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Host is the interface for struct-based function providers. All
// exported methods except Namespace are adapted with TypedFunc and
// registered under "<namespace>.<snake_case_method>".
type Host interface {
	// Namespace returns the name prefix for this provider ("image", "math").
	Namespace() string
}

// RegisterHost registers every exported method of h.
func (r *Registry) RegisterHost(h Host) error {
	ns := h.Namespace()
	if ns == "" {
		return errors.Registration("host", fmt.Errorf("namespace cannot be empty"))
	}

	rv := reflect.ValueOf(h)
	rt := rv.Type()

	for i := 0; i < rt.NumMethod(); i++ {
		method := rt.Method(i)
		if !method.IsExported() || method.Name == "Namespace" {
			continue
		}

		name := ns + "." + toSnakeCase(method.Name)

		var f ffiruntime.Func
		if err := errors.Catch(func() {
			f = TypedFunc(rv.Method(i).Interface())
		}); err != nil {
			return errors.Registration(name, err)
		}
		if err := r.Register(name, f); err != nil {
			return err
		}
	}
	return nil
}

// toSnakeCase converts PascalCase to snake_case.
// Handles acronyms: ParseHTTPHeader -> parse_http_header
func toSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if !unicode.IsUpper(r) {
			b.WriteRune(r)
			continue
		}

		// an uppercase run is one word, except that its last letter
		// starts the next word when lowercase follows
		end := i + 1
		for end < len(runes) && unicode.IsUpper(runes[end]) {
			end++
		}
		if end > i+1 && end < len(runes) && unicode.IsLower(runes[end]) {
			end--
		}

		if i > 0 {
			b.WriteByte('_')
		}
		for j := i; j < end; j++ {
			b.WriteRune(unicode.ToLower(runes[j]))
		}
		i = end - 1
	}
	return b.String()
}
