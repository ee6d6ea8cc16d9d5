package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"golang.org/x/term"

	ffiruntime "github.com/wippyai/ffi-runtime"
	"github.com/wippyai/ffi-runtime/errors"
	"github.com/wippyai/ffi-runtime/registry"
	"github.com/wippyai/ffi-runtime/rpc"
	"github.com/wippyai/ffi-runtime/trace"
	"github.com/wippyai/ffi-runtime/wasmmodule"
)

type options struct {
	manifest    string
	wasm        string
	call        string
	args        string
	list        bool
	serve       string
	connect     string
	trace       string
	interactive bool
}

func main() {
	var opts options
	var verbose bool

	flag.StringVar(&opts.manifest, "manifest", "", "Path to manifest yaml")
	flag.StringVar(&opts.wasm, "wasm", "", "Path to a single wasm module")
	flag.StringVar(&opts.call, "call", "", "Function to call (module.export)")
	flag.StringVar(&opts.args, "args", "", "Call arguments (comma-separated literals)")
	flag.BoolVar(&opts.list, "list", false, "List registered functions and exit")
	flag.StringVar(&opts.serve, "serve", "", "Serve the registry over gRPC on this address")
	flag.StringVar(&opts.connect, "connect", "", "Call a remote registry instead of loading modules")
	flag.StringVar(&opts.trace, "trace", "", "Record calls to this SQLite database")
	flag.BoolVar(&opts.interactive, "i", false, "Interactive mode with TUI")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging")
	flag.Parse()

	if opts.manifest == "" && opts.wasm == "" && opts.connect == "" {
		fmt.Fprintln(os.Stderr, "Usage: ffi-run -wasm <file.wasm> [-call name -args a,b] [-list] [-i]")
		fmt.Fprintln(os.Stderr, "       ffi-run -manifest <ffi-run.yaml> [-serve addr]")
		fmt.Fprintln(os.Stderr, "       ffi-run -connect <addr> -call name [-args a,b]")
		os.Exit(1)
	}

	if verbose {
		if log, err := zap.NewDevelopment(); err == nil {
			registry.SetLogger(log.Named("registry"))
			wasmmodule.SetLogger(log.Named("wasm"))
			rpc.SetLogger(log.Named("rpc"))
			trace.SetLogger(log.Named("trace"))
		}
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	ctx := context.Background()

	if opts.connect != "" {
		return runRemote(ctx, opts)
	}

	var entries []ModuleEntry
	if opts.manifest != "" {
		m, err := LoadManifest(opts.manifest)
		if err != nil {
			return err
		}
		entries = m.Modules
		if opts.serve == "" {
			opts.serve = m.Serve
		}
		if opts.trace == "" {
			opts.trace = m.Trace
		}
	}
	if opts.wasm != "" {
		entries = append(entries, ModuleEntry{
			Name: moduleNameFromPath(opts.wasm),
			Path: opts.wasm,
		})
	}

	var rec *trace.Recorder
	if opts.trace != "" {
		var err error
		rec, err = trace.Open(opts.trace)
		if err != nil {
			return fmt.Errorf("open trace: %w", err)
		}
		defer rec.Close()
	}

	rt := wasmmodule.NewRuntime(ctx)
	defer rt.Close(ctx)

	reg := registry.New()
	for _, entry := range entries {
		if err := loadModule(ctx, rt, reg, rec, entry); err != nil {
			return err
		}
	}

	if opts.list {
		printFunctions(reg)
		return nil
	}

	if opts.interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("interactive mode requires a terminal")
		}
		return runInteractive(reg)
	}

	if opts.serve != "" {
		srv := rpc.NewServer(reg)
		fmt.Printf("Serving %d functions on %s\n", len(reg.Names()), opts.serve)
		return srv.ListenAndServe(opts.serve)
	}

	if opts.call == "" {
		fmt.Println("Nothing to do: use -call, -list, -serve or -i.")
		return nil
	}

	fn, ok := reg.Get(opts.call)
	if !ok {
		return fmt.Errorf("function %q not registered", opts.call)
	}
	return invoke(ctx, fn, opts.call, opts.args)
}

// runRemote drives a registry served by another process.
func runRemote(ctx context.Context, opts options) error {
	client, err := rpc.Dial(opts.connect)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer client.Close()

	if opts.call == "" {
		return fmt.Errorf("-connect requires -call")
	}
	return invoke(ctx, client.Func(opts.call), opts.call, opts.args)
}

// loadModule reads one wasm binary and registers every export under
// "<name>.<export>", wrapped for tracing when a recorder is open.
func loadModule(ctx context.Context, rt *wasmmodule.Runtime, reg *registry.Registry, rec *trace.Recorder, entry ModuleEntry) error {
	data, err := os.ReadFile(entry.Path)
	if err != nil {
		return fmt.Errorf("read module: %w", err)
	}

	mod, err := rt.Load(ctx, entry.Name, data)
	if err != nil {
		return fmt.Errorf("load %s: %w", entry.Path, err)
	}

	for _, export := range mod.Functions() {
		name := entry.Name + "." + export
		fn := mod.GetFunction(export)
		if rec != nil {
			fn = rec.Wrap(name, fn)
		}
		if err := reg.Register(name, fn); err != nil {
			return err
		}
	}
	return nil
}

func invoke(ctx context.Context, fn ffiruntime.Func, name, rawArgs string) error {
	args, err := parseArgs(rawArgs)
	if err != nil {
		return err
	}

	fmt.Printf("Calling %s(%s)...\n", name, rawArgs)
	var ret ffiruntime.RetValue
	callErr := errors.Catch(func() {
		ret = fn.Call(ctx, args...)
	})
	if callErr != nil {
		return fmt.Errorf("call %s: %w", name, callErr)
	}

	fmt.Printf("Result: %s\n", ret.String())
	ret.Clear()
	return nil
}

func printFunctions(reg *registry.Registry) {
	styled := colorEnabled()
	for _, name := range reg.Names() {
		if styled {
			fmt.Println(funcStyle.Render(name))
		} else {
			fmt.Println(name)
		}
	}
}

// colorEnabled reports whether styled output should be used, honoring
// the NO_COLOR convention and skipping pipes and dumb terminals.
func colorEnabled() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// parseArgs converts comma-separated literals into call arguments.
func parseArgs(raw string) ([]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	args := make([]any, 0, len(parts))
	for _, part := range parts {
		a, err := parseArg(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	return args, nil
}

// parseArg reads one literal: null and booleans by keyword, dtype:...
// as a type descriptor, quoted text as a string, then integer, float,
// and finally a bare string.
func parseArg(text string) (any, error) {
	switch {
	case text == "null":
		return nil, nil
	case text == "true":
		return true, nil
	case text == "false":
		return false, nil
	case strings.HasPrefix(text, "dtype:"):
		dt, err := ffiruntime.ParseDType(strings.TrimPrefix(text, "dtype:"))
		if err != nil {
			return nil, err
		}
		return dt, nil
	case len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"':
		unq, err := strconv.Unquote(text)
		if err != nil {
			return nil, fmt.Errorf("bad string literal %s: %w", text, err)
		}
		return unq, nil
	}

	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f, nil
	}
	return text, nil
}
