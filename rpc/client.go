package rpc

import (
	"context"

	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	ffiruntime "github.com/wippyai/ffi-runtime"
	"github.com/wippyai/ffi-runtime/errors"
)

// Client calls functions on a remote registry. A remote function
// behaves like a local one: Func returns a callable that packs, sends,
// and fails fatally, while Call wraps the same path in a soft error.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to a server. The connection is plaintext; the call
// boundary carries no credentials of its own.
func Dial(target string) (*Client, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Close tears down the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Func returns a stub for the named remote function. The stub is a
// plain callable: transport and dispatch failures throw, so callers
// that want a soft error wrap it in errors.Catch or use Client.Call.
func (c *Client) Func(name string) ffiruntime.Func {
	return func(ctx context.Context, args ffiruntime.Args, ret *ffiruntime.RetValue) {
		req := dynamic.NewMessage(callRequestDesc)
		req.SetField(nameField, name)

		wire := make([]any, args.Len())
		for i := 0; i < args.Len(); i++ {
			m, err := encodeValue(args.Get(i).Value())
			if err != nil {
				errors.Throw(err)
			}
			wire[i] = m
		}
		req.SetField(argsField, wire)

		reply := dynamic.NewMessage(callReplyDesc)
		if err := c.conn.Invoke(ctx, callMethod, req, reply); err != nil {
			errors.Throw(errors.CallFailed("rpc.call", err))
		}

		msg, ok := reply.GetField(resultField).(*dynamic.Message)
		if !ok || msg == nil {
			ret.SetNull()
			return
		}
		v, err := decodeValue(msg)
		if err != nil {
			errors.Throw(err)
		}
		ret.Assign(v)
	}
}

// Call packs args, invokes the named remote function and returns the
// result slot, converting any failure into a soft error.
func (c *Client) Call(ctx context.Context, name string, args ...any) (ffiruntime.RetValue, error) {
	var ret ffiruntime.RetValue
	err := errors.Catch(func() {
		ret = c.Func(name).Call(ctx, args...)
	})
	if err != nil {
		return ffiruntime.RetValue{}, err
	}
	return ret, nil
}
