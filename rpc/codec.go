package rpc

import (
	"github.com/jhump/protoreflect/dynamic"

	ffiruntime "github.com/wippyai/ffi-runtime"
	"github.com/wippyai/ffi-runtime/errors"
)

// encodeValue lowers one tagged value onto the wire. Process-local
// payloads (handles, arrays, functions, modules, nodes) refuse to
// serialize with a bad-transfer error.
func encodeValue(v ffiruntime.Value) (*dynamic.Message, *errors.Error) {
	msg := dynamic.NewMessage(wireValueDesc)
	msg.SetField(kindField, uint32(v.Kind()))

	switch v.Kind() {
	case ffiruntime.KindNull:
	case ffiruntime.KindInt:
		n, _ := v.TryInt64()
		msg.SetField(numField, n)
	case ffiruntime.KindFloat:
		f, _ := v.TryFloat64()
		msg.SetField(realField, f)
	case ffiruntime.KindStr:
		s, _ := v.TryStr()
		msg.SetField(strField, s)
	case ffiruntime.KindBytes:
		b, _ := v.TryBytes()
		msg.SetField(rawField, b)
	case ffiruntime.KindDType:
		dt, _ := v.TryDType()
		msg.SetField(dtypeField, dt.String())
	default:
		return nil, errors.BadTransfer("rpc.encode", v.Kind().String())
	}
	return msg, nil
}

// encodeResult lowers the owned result slot. A Str payload reads
// through AsStr since peeking the raw value would give up ownership.
func encodeResult(ret *ffiruntime.RetValue) (*dynamic.Message, *errors.Error) {
	switch ret.Kind() {
	case ffiruntime.KindStr:
		msg := dynamic.NewMessage(wireValueDesc)
		msg.SetField(kindField, uint32(ffiruntime.KindStr))
		msg.SetField(strField, ret.AsStr())
		return msg, nil
	case ffiruntime.KindFunc, ffiruntime.KindModule, ffiruntime.KindNode:
		return nil, errors.BadTransfer("rpc.encode", ret.Kind().String())
	default:
		return encodeValue(ret.Value())
	}
}

// decodeValue lifts one wire message back into a tagged value. Bytes
// and strings are owned by the decoded message, which the caller keeps
// alive for the duration of the call.
func decodeValue(msg *dynamic.Message) (ffiruntime.Value, *errors.Error) {
	raw := msg.GetField(kindField).(uint32)
	kind := ffiruntime.Kind(raw)
	if uint32(kind) != raw {
		return ffiruntime.Value{}, errors.Corrupt("rpc.decode", uint8(raw))
	}

	switch kind {
	case ffiruntime.KindNull:
		return ffiruntime.NullValue(), nil
	case ffiruntime.KindInt:
		return ffiruntime.IntValue(msg.GetField(numField).(int64)), nil
	case ffiruntime.KindFloat:
		return ffiruntime.FloatValue(msg.GetField(realField).(float64)), nil
	case ffiruntime.KindStr:
		return ffiruntime.StrValue(msg.GetField(strField).(string)), nil
	case ffiruntime.KindBytes:
		return ffiruntime.BytesValue(msg.GetField(rawField).([]byte)), nil
	case ffiruntime.KindDType:
		dt, err := ffiruntime.ParseDType(msg.GetField(dtypeField).(string))
		if err != nil {
			return ffiruntime.Value{}, err.(*errors.Error)
		}
		return ffiruntime.DTypeValue(dt), nil
	default:
		return ffiruntime.Value{}, errors.Corrupt("rpc.decode", uint8(kind))
	}
}
