// Package registry maps names to packed functions.
//
// A Registry is the lookup half of the calling convention: modules,
// hosts and transports publish functions under dotted names and callers
// dispatch by name alone. The process-wide Default registry serves
// init-time wiring; isolated registries serve tests and embedders that
// want scoping.
//
// Ordinary Go functions enter the packed world through TypedFunc, which
// builds the argument reads and result store from the function's
// signature once, at wiring time:
//
//	reg := registry.New()
//	reg.MustRegister("math.add", registry.TypedFunc(
//	    func(a, b int64) int64 { return a + b },
//	))
//
// Struct-based providers register every exported method at once:
//
//	type ImageHost struct{ ... }
//	func (h *ImageHost) Namespace() string { return "image" }
//	func (h *ImageHost) Resize(data []byte, w, h int32) ([]byte, error) { ... }
//
//	reg.RegisterHost(&ImageHost{}) // registers image.resize
package registry
