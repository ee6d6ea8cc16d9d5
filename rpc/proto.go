package rpc

import (
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
)

// Wire schema for the call boundary. The schema is embedded and parsed
// at startup so client, server and codec always agree without a code
// generation step.
const protoSource = `syntax = "proto3";

package ffirpc;

// WireValue is one tagged value crossing the process boundary. Only
// self-contained payloads travel; handles, functions, modules and
// nodes are process-local and never serialize.
message WireValue {
  uint32 kind = 1;
  sint64 num = 2;
  double real = 3;
  string str = 4;
  bytes raw = 5;
  string dtype = 6;
}

message CallRequest {
  string name = 1;
  repeated WireValue args = 2;
}

message CallReply {
  WireValue result = 1;
}

service Registry {
  rpc Call(CallRequest) returns (CallReply);
}
`

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "ffirpc.Registry"

const callMethod = "/ffirpc.Registry/Call"

var (
	protoFile *desc.FileDescriptor

	wireValueDesc   *desc.MessageDescriptor
	callRequestDesc *desc.MessageDescriptor
	callReplyDesc   *desc.MessageDescriptor

	kindField  *desc.FieldDescriptor
	numField   *desc.FieldDescriptor
	realField  *desc.FieldDescriptor
	strField   *desc.FieldDescriptor
	rawField   *desc.FieldDescriptor
	dtypeField *desc.FieldDescriptor

	nameField   *desc.FieldDescriptor
	argsField   *desc.FieldDescriptor
	resultField *desc.FieldDescriptor
)

func init() {
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{
			"ffirpc.proto": protoSource,
		}),
	}
	fds, err := parser.ParseFiles("ffirpc.proto")
	if err != nil {
		panic(fmt.Sprintf("rpc: embedded proto does not parse: %v", err))
	}
	protoFile = fds[0]

	wireValueDesc = protoFile.FindMessage("ffirpc.WireValue")
	callRequestDesc = protoFile.FindMessage("ffirpc.CallRequest")
	callReplyDesc = protoFile.FindMessage("ffirpc.CallReply")

	kindField = wireValueDesc.FindFieldByName("kind")
	numField = wireValueDesc.FindFieldByName("num")
	realField = wireValueDesc.FindFieldByName("real")
	strField = wireValueDesc.FindFieldByName("str")
	rawField = wireValueDesc.FindFieldByName("raw")
	dtypeField = wireValueDesc.FindFieldByName("dtype")

	nameField = callRequestDesc.FindFieldByName("name")
	argsField = callRequestDesc.FindFieldByName("args")
	resultField = callReplyDesc.FindFieldByName("result")
}
