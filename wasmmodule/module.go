package wasmmodule

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	ffiruntime "github.com/wippyai/ffi-runtime"
	"github.com/wippyai/ffi-runtime/errors"
)

// Runtime owns a wazero runtime and loads WASM modules into it. Modules
// loaded from the same Runtime share compiled-code caches; closing the
// Runtime invalidates every module loaded through it.
type Runtime struct {
	runtime wazero.Runtime
}

// Config holds configuration for runtime creation.
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	MemoryLimitPages uint32
}

// NewRuntime creates a wazero-backed runtime with default configuration.
func NewRuntime(ctx context.Context) *Runtime {
	return NewRuntimeWithConfig(ctx, nil)
}

// NewRuntimeWithConfig creates a runtime with custom configuration.
func NewRuntimeWithConfig(ctx context.Context, cfg *Config) *Runtime {
	runtimeCfg := wazero.NewRuntimeConfig()

	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}

	return &Runtime{runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg)}
}

// Load compiles and instantiates a WASM binary. The returned module's
// exports are exposed as type-erased functions; name is a label for
// logging and the module's type key, not a wazero module name.
func (r *Runtime) Load(ctx context.Context, name string, wasmBytes []byte) (*Module, error) {
	compiled, err := r.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("compile failed: %w", err)
	}

	modConfig := wazero.NewModuleConfig().WithName("") // anonymous for parallel instantiation

	instance, err := r.runtime.InstantiateModule(ctx, compiled, modConfig)
	if err != nil {
		return nil, fmt.Errorf("instantiate failed: %w", err)
	}

	Logger().Debug("module loaded",
		zap.String("name", name),
		zap.Int("exports", len(instance.ExportedFunctionDefinitions())))

	return &Module{
		name:     name,
		instance: instance,
		wrapped:  make(map[string]ffiruntime.Func),
	}, nil
}

// Close releases the runtime and all modules loaded through it.
func (r *Runtime) Close(ctx context.Context) error {
	return r.runtime.Close(ctx)
}

// Module is an instantiated WASM module whose exported functions are
// callable through the type-erased convention. It satisfies the runtime
// Module interface, so a loaded module can itself travel as a value.
type Module struct {
	name     string
	instance api.Module
	wrapped  map[string]ffiruntime.Func
	mu       sync.RWMutex
}

var _ ffiruntime.Module = (*Module)(nil)

// Name returns the label the module was loaded under.
func (m *Module) Name() string {
	return m.name
}

// TypeKey identifies the module flavor for diagnostics.
func (m *Module) TypeKey() string {
	return "wasm." + m.name
}

// Functions returns the names of all exported functions, sorted.
func (m *Module) Functions() []string {
	defs := m.instance.ExportedFunctionDefinitions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetFunction returns the export wrapped as a type-erased function, or
// nil when the module exports nothing under that name. Wrappers are
// cached, so repeated lookups return the same function.
func (m *Module) GetFunction(name string) ffiruntime.Func {
	m.mu.RLock()
	fn, ok := m.wrapped[name]
	m.mu.RUnlock()
	if ok {
		return fn
	}

	def, ok := m.instance.ExportedFunctionDefinitions()[name]
	if !ok {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if fn, ok := m.wrapped[name]; ok {
		return fn
	}
	fn = m.wrap(name, def)
	m.wrapped[name] = fn
	return fn
}

// Close releases this module's instance. Other modules in the same
// Runtime stay usable.
func (m *Module) Close(ctx context.Context) error {
	return m.instance.Close(ctx)
}

// wrap adapts one WASM export to the type-erased convention. Arguments
// lower by the export's declared parameter types; the wrapper reads
// exactly as many arguments as the signature needs, so a short call
// fails the bounds check and extra arguments are ignored. Results lift
// into the return slot; multi-value results are not expressible as a
// single slot and fail fatally.
//
// wazero function handles are not goroutine-safe, so every call binds a
// fresh one from the instance's export table.
func (m *Module) wrap(name string, def api.FunctionDefinition) ffiruntime.Func {
	params := def.ParamTypes()
	results := def.ResultTypes()

	return func(ctx context.Context, args ffiruntime.Args, ret *ffiruntime.RetValue) {
		stack := make([]uint64, max(len(params), len(results)))

		for i, pt := range params {
			a := args.Get(i)
			switch pt {
			case api.ValueTypeI32:
				stack[i] = api.EncodeI32(ffiruntime.IntAs[int32](a))
			case api.ValueTypeI64:
				stack[i] = api.EncodeI64(a.AsInt64())
			case api.ValueTypeF32:
				stack[i] = api.EncodeF32(float32(a.AsFloat64()))
			case api.ValueTypeF64:
				stack[i] = api.EncodeF64(a.AsFloat64())
			default:
				errors.Throw(errors.Unsupported("wasm.lower", api.ValueTypeName(pt)))
			}
		}

		fn := m.instance.ExportedFunction(name)
		if fn == nil {
			errors.Throw(errors.NotFound("export", name))
		}
		if err := fn.CallWithStack(ctx, stack); err != nil {
			errors.Throw(errors.CallFailed("wasm.call", err))
		}

		switch len(results) {
		case 0:
			ret.SetNull()
		case 1:
			switch results[0] {
			case api.ValueTypeI32:
				ret.SetInt64(int64(api.DecodeI32(stack[0])))
			case api.ValueTypeI64:
				ret.SetInt64(int64(stack[0]))
			case api.ValueTypeF32:
				ret.SetFloat64(float64(api.DecodeF32(stack[0])))
			case api.ValueTypeF64:
				ret.SetFloat64(api.DecodeF64(stack[0]))
			default:
				errors.Throw(errors.Unsupported("wasm.lift", api.ValueTypeName(results[0])))
			}
		default:
			errors.Throw(errors.Unsupported("wasm.lift", fmt.Sprintf("%d results", len(results))))
		}
	}
}
