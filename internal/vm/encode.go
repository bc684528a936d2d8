// Copyright 2025 The pbcore Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vm

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/pbcore/pbcore/internal/arena"
	"github.com/pbcore/pbcore/internal/diag"
	"github.com/pbcore/pbcore/internal/tdp"
	"github.com/pbcore/pbcore/internal/wire"
)

// sinkPool recycles [ByteSink] buffers across one-shot encodes (the
// [AcquireByteSink] / Marshal path), so repeatedly encoding into a fresh
// in-memory buffer doesn't repeatedly pay for a new backing array.
var sinkPool = diag.Pool[ByteSink]{
	Reset: func(s *ByteSink) { s.Buf = s.Buf[:0] },
}

// AcquireByteSink returns a [ByteSink] drawn from a shared pool, and a
// function that returns it once the caller is done draining its Buf. The
// returned sink's Buf must not be retained past calling drop.
func AcquireByteSink() (sink *ByteSink, drop func()) {
	return sinkPool.Get()
}

// Sink is the push-based output target an [Encoder] drains into (spec
// §4.4). Write offers p and reports how many leading bytes were accepted;
// if fewer than len(p) were taken, needMore is a hint (0 if unknown) for
// how much additional capacity the caller should free up before retrying.
type Sink interface {
	Write(p []byte) (n int, needMore int)
}

// ByteSink is a [Sink] that always accepts everything, appending to a
// growable buffer. It is the common case: encoding to an in-memory byte
// slice rather than a capacity-limited transport.
type ByteSink struct {
	Buf []byte
}

// Write implements [Sink].
func (s *ByteSink) Write(p []byte) (int, int) {
	s.Buf = append(s.Buf, p...)
	return len(p), 0
}

// Encoder renders a [Message] tree to wire bytes and drains them into a
// [Sink], resuming across backpressure (spec §4.4). It pre-renders the
// whole message into an internal buffer up front -- the "two-pass
// strategy" spec §4.4 explicitly allows as an alternative to measuring and
// writing packed fields in a single interleaved pass -- and then the only
// state that must survive a suspended [Encoder.Flush] is how far into
// that buffer the sink has already consumed.
type Encoder struct {
	buf []byte
	off int
}

// NewEncoder renders msg and returns an Encoder ready to drain it.
func NewEncoder(msg *Message) (*Encoder, error) {
	buf, err := renderMessage(nil, msg)
	if err != nil {
		return nil, err
	}
	diag.Log(nil, "NewEncoder", "rendered %s into %d bytes", msg.Desc.Name, len(buf))
	return &Encoder{buf: buf}, nil
}

// Flush pushes as much of the rendered message as sink will accept. It
// returns done=true once every byte has been accepted; otherwise the
// caller should free up sink capacity and call Flush again.
func (e *Encoder) Flush(sink Sink) (done bool, err error) {
	for e.off < len(e.buf) {
		n, _ := sink.Write(e.buf[e.off:])
		e.off += n
		if n == 0 {
			return false, nil
		}
	}
	return true, nil
}

func renderMessage(buf []byte, msg *Message) ([]byte, error) {
	for i := range msg.Desc.Fields {
		f := &msg.Desc.Fields[i]
		var err error
		buf, err = renderField(buf, msg, f)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func renderField(buf []byte, msg *Message, f *tdp.FieldDescriptor) ([]byte, error) {
	switch {
	case f.Card == tdp.CardinalityOneofMember:
		if msg.OneofDiscriminant(mustOneofIndex(f)) != uint32(f.Number) {
			return buf, nil
		}
		return renderSingular(buf, msg, f)

	case f.Card.IsRepeated():
		return renderRepeated(buf, msg, f)

	default: // Singular or Optional
		if !msg.HasBit(mustHasBitIndex(f)) {
			return buf, nil
		}
		return renderSingular(buf, msg, f)
	}
}

func mustHasBitIndex(f *tdp.FieldDescriptor) uint8 {
	idx, _ := f.HasBitIndex()
	return idx
}

func mustOneofIndex(f *tdp.FieldDescriptor) uint8 {
	idx, _ := f.OneofIndex()
	return idx
}

func renderSingular(buf []byte, msg *Message, f *tdp.FieldDescriptor) ([]byte, error) {
	switch f.Kind {
	case tdp.KindMessage:
		child, _ := msg.Ref(f.Offset).(*Message)
		buf = wire.AppendVarint(buf, wire.MakeTag(f.Number, protowire.BytesType))
		inner, err := renderMessage(nil, child)
		if err != nil {
			return nil, err
		}
		buf = wire.AppendVarint(buf, uint64(len(inner)))
		return append(buf, inner...), nil

	case tdp.KindGroup:
		child, _ := msg.Ref(f.Offset).(*Message)
		buf = wire.AppendVarint(buf, wire.MakeTag(f.Number, protowire.StartGroupType))
		var err error
		buf, err = renderMessage(buf, child)
		if err != nil {
			return nil, err
		}
		buf = wire.AppendVarint(buf, wire.MakeTag(f.Number, protowire.EndGroupType))
		return buf, nil

	case tdp.KindString:
		s, _ := msg.Ref(f.Offset).(string)
		buf = wire.AppendVarint(buf, wire.MakeTag(f.Number, protowire.BytesType))
		buf = wire.AppendVarint(buf, uint64(len(s)))
		return append(buf, s...), nil

	case tdp.KindBytes:
		b, _ := msg.Ref(f.Offset).([]byte)
		buf = wire.AppendVarint(buf, wire.MakeTag(f.Number, protowire.BytesType))
		buf = wire.AppendVarint(buf, uint64(len(b)))
		return append(buf, b...), nil

	default:
		return renderScalar(buf, f.Number, f.Kind, loadScalarBits(msg, f))
	}
}

func renderScalar(buf []byte, num protowire.Number, kind tdp.Kind, raw uint64) ([]byte, error) {
	wt := kind.WireType()
	buf = wire.AppendVarint(buf, wire.MakeTag(num, wt))
	switch wt {
	case protowire.Fixed32Type:
		return wire.AppendFixed32(buf, uint32(raw)), nil
	case protowire.Fixed64Type:
		return wire.AppendFixed64(buf, raw), nil
	default:
		return wire.AppendVarint(buf, raw), nil
	}
}

func renderRepeated(buf []byte, msg *Message, f *tdp.FieldDescriptor) ([]byte, error) {
	switch f.Kind {
	case tdp.KindMessage, tdp.KindGroup:
		children, _ := msg.Ref(f.Offset).([]*Message)
		for _, child := range children {
			var err error
			if f.Kind == tdp.KindGroup {
				buf = wire.AppendVarint(buf, wire.MakeTag(f.Number, protowire.StartGroupType))
				buf, err = renderMessage(buf, child)
				if err != nil {
					return nil, err
				}
				buf = wire.AppendVarint(buf, wire.MakeTag(f.Number, protowire.EndGroupType))
				continue
			}
			buf = wire.AppendVarint(buf, wire.MakeTag(f.Number, protowire.BytesType))
			var inner []byte
			inner, err = renderMessage(nil, child)
			if err != nil {
				return nil, err
			}
			buf = wire.AppendVarint(buf, uint64(len(inner)))
			buf = append(buf, inner...)
		}
		return buf, nil

	case tdp.KindString:
		list, _ := msg.Ref(f.Offset).([]string)
		for _, s := range list {
			buf = wire.AppendVarint(buf, wire.MakeTag(f.Number, protowire.BytesType))
			buf = wire.AppendVarint(buf, uint64(len(s)))
			buf = append(buf, s...)
		}
		return buf, nil

	case tdp.KindBytes:
		list, _ := msg.Ref(f.Offset).([][]byte)
		for _, b := range list {
			buf = wire.AppendVarint(buf, wire.MakeTag(f.Number, protowire.BytesType))
			buf = wire.AppendVarint(buf, uint64(len(b)))
			buf = append(buf, b...)
		}
		return buf, nil

	default:
		return renderPackedOrUnpackedScalar(buf, msg, f)
	}
}

func renderPackedOrUnpackedScalar(buf []byte, msg *Message, f *tdp.FieldDescriptor) ([]byte, error) {
	bits := repeatedScalarBits(msg, f)
	if len(bits) == 0 {
		return buf, nil
	}

	if f.Card != tdp.CardinalityRepeatedPacked {
		for _, raw := range bits {
			var err error
			buf, err = renderScalar(buf, f.Number, f.Kind, raw)
			if err != nil {
				return nil, err
			}
		}
		return buf, nil
	}

	wt := f.Kind.WireType()
	var body []byte
	for _, raw := range bits {
		switch wt {
		case protowire.Fixed32Type:
			body = wire.AppendFixed32(body, uint32(raw))
		case protowire.Fixed64Type:
			body = wire.AppendFixed64(body, raw)
		default:
			body = wire.AppendVarint(body, raw)
		}
	}
	buf = wire.AppendVarint(buf, wire.MakeTag(f.Number, protowire.BytesType))
	buf = wire.AppendVarint(buf, uint64(len(body)))
	return append(buf, body...), nil
}

// repeatedScalarBits reads a repeated scalar field's elements back out as
// raw wire bits, symmetric with [appendScalarBits].
func repeatedScalarBits(msg *Message, f *tdp.FieldDescriptor) []uint64 {
	switch f.Kind {
	case tdp.KindBool:
		return mapSlice[bool](msg, f.Offset, func(v bool) uint64 {
			if v {
				return 1
			}
			return 0
		})
	case tdp.KindInt32, tdp.KindEnum:
		return mapSlice[int32](msg, f.Offset, func(v int32) uint64 { return uint64(uint32(v)) })
	case tdp.KindSint32:
		return mapSlice[int32](msg, f.Offset, func(v int32) uint64 { return wire.ZigZagEncode(int64(v)) })
	case tdp.KindUint32, tdp.KindFixed32:
		return mapSlice[uint32](msg, f.Offset, func(v uint32) uint64 { return uint64(v) })
	case tdp.KindSfixed32:
		return mapSlice[int32](msg, f.Offset, func(v int32) uint64 { return uint64(uint32(v)) })
	case tdp.KindFloat:
		return mapSlice[float32](msg, f.Offset, func(v float32) uint64 { return uint64(math.Float32bits(v)) })
	case tdp.KindInt64:
		return mapSlice[int64](msg, f.Offset, func(v int64) uint64 { return uint64(v) })
	case tdp.KindSint64:
		return mapSlice[int64](msg, f.Offset, func(v int64) uint64 { return wire.ZigZagEncode(v) })
	case tdp.KindUint64, tdp.KindFixed64:
		return mapSlice[uint64](msg, f.Offset, func(v uint64) uint64 { return v })
	case tdp.KindSfixed64:
		return mapSlice[int64](msg, f.Offset, func(v int64) uint64 { return uint64(v) })
	case tdp.KindDouble:
		return mapSlice[float64](msg, f.Offset, func(v float64) uint64 { return math.Float64bits(v) })
	default:
		return nil
	}
}

func mapSlice[T any](msg *Message, idx uint32, to func(T) uint64) []uint64 {
	s, _ := msg.Ref(idx).(arena.Slice[T])
	raw := s.Raw()
	out := make([]uint64, len(raw))
	for i, v := range raw {
		out[i] = to(v)
	}
	return out
}

// loadScalarBits reads a singular/oneof scalar field's stored value back
// out as raw wire bits, symmetric with [storeScalarBits].
func loadScalarBits(msg *Message, f *tdp.FieldDescriptor) uint64 {
	switch f.Kind {
	case tdp.KindBool:
		if msg.LoadBool(f.Offset) {
			return 1
		}
		return 0
	case tdp.KindSint32:
		return wire.ZigZagEncode(int64(int32(msg.LoadU32(f.Offset))))
	case tdp.KindSint64:
		return wire.ZigZagEncode(int64(msg.LoadU64(f.Offset)))
	case tdp.KindInt64, tdp.KindUint64, tdp.KindFixed64, tdp.KindSfixed64, tdp.KindDouble:
		return msg.LoadU64(f.Offset)
	default:
		return uint64(msg.LoadU32(f.Offset))
	}
}
