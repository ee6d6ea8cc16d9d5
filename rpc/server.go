package rpc

import (
	"context"
	"net"

	"github.com/jhump/protoreflect/dynamic"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	ffiruntime "github.com/wippyai/ffi-runtime"
	"github.com/wippyai/ffi-runtime/errors"
	"github.com/wippyai/ffi-runtime/registry"
)

// Server exposes a registry's functions over gRPC. Each Call request
// names one registered function; arguments and the result travel as
// wire values.
type Server struct {
	registry *registry.Registry
	grpc     *grpc.Server
}

// NewServer creates a server backed by reg.
func NewServer(reg *registry.Registry) *Server {
	s := &Server{
		registry: reg,
		grpc:     grpc.NewServer(),
	}
	s.grpc.RegisterService(serviceDesc(), s)
	return s
}

// serviceDesc builds the gRPC service descriptor by hand; the schema
// lives in the embedded proto source, not in generated code.
func serviceDesc() *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "Call",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					return srv.(*Server).handleCall(ctx, dec)
				},
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "ffirpc.proto",
	}
}

func (s *Server) handleCall(ctx context.Context, dec func(any) error) (any, error) {
	req := dynamic.NewMessage(callRequestDesc)
	if err := dec(req); err != nil {
		return nil, err
	}

	name := req.GetField(nameField).(string)

	rawArgs, _ := req.GetField(argsField).([]any)
	values := make([]ffiruntime.Value, len(rawArgs))
	for i, ra := range rawArgs {
		v, err := decodeValue(ra.(*dynamic.Message))
		if err != nil {
			return nil, statusFromError(err)
		}
		values[i] = v
	}

	fn, ok := s.registry.Get(name)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "function %q not registered", name)
	}

	Logger().Debug("dispatching call",
		zap.String("name", name),
		zap.Int("args", len(values)))

	var ret ffiruntime.RetValue
	if err := errors.Catch(func() {
		fn(ctx, ffiruntime.NewArgs(values), &ret)
	}); err != nil {
		return nil, statusFromError(err.(*errors.Error))
	}

	result, err := encodeResult(&ret)
	ret.Clear()
	if err != nil {
		return nil, statusFromError(err)
	}

	reply := dynamic.NewMessage(callReplyDesc)
	reply.SetField(resultField, result)
	return reply, nil
}

// statusFromError maps a fatal error to the gRPC status space. Caller
// mistakes surface as InvalidArgument or FailedPrecondition; everything
// the callee broke is Internal.
func statusFromError(e *errors.Error) error {
	var code codes.Code
	switch e.Kind {
	case errors.KindTagMismatch, errors.KindOutOfRange, errors.KindParse, errors.KindUnsupported:
		code = codes.InvalidArgument
	case errors.KindOutOfBounds, errors.KindBadTransfer:
		code = codes.FailedPrecondition
	case errors.KindNotFound:
		code = codes.NotFound
	default:
		code = codes.Internal
	}
	return status.Error(code, e.Error())
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	Logger().Info("serving", zap.String("addr", lis.Addr().String()))
	return s.grpc.Serve(lis)
}

// ListenAndServe listens on addr and serves.
func (s *Server) ListenAndServe(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}

// Stop drains in-flight calls and shuts the server down.
func (s *Server) Stop() {
	s.grpc.GracefulStop()
}
