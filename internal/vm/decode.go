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
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/pbcore/pbcore/internal/arena"
	"github.com/pbcore/pbcore/internal/diag"
	"github.com/pbcore/pbcore/internal/tdp"
	"github.com/pbcore/pbcore/internal/wire"
)

// dstate is the decoder's parse sub-state (spec §4.3's {ReadingTag,
// ReadingLen, ReadingPayload, SkippingUnknown}, split further so each
// variant only needs to remember what it is doing, not why).
type dstate uint8

const (
	stTag dstate = iota
	stValue
	stLen
	stPayloadCopy
	stSkipValue
	stSkipLen
	stSkipPayload
)

// Decoder is a resumable, push-driven protobuf decoder (spec §4.3). Bytes
// are fed via repeated calls to [Decoder.Push]; the decoder never retains
// a reference to the slice passed in after Push returns.
type Decoder struct {
	arena *arena.Arena
	opts  Options

	stack []frame
	state dstate

	// offset is the cumulative number of input bytes consumed so far,
	// used both for frame byte-budget accounting and error reporting.
	offset int64

	// scratch buffers a partial tag/varint/fixed value across Push calls.
	scratch []byte
	// lastVarint holds the most recently decoded varint (tag or length),
	// valid for the duration of the call that produced it.
	lastVarint uint64

	// Pending field/tag info between reading a tag and acting on it.
	pendingNum   protowire.Number
	pendingWire  protowire.Type
	pendingField *tdp.FieldDescriptor

	// copyBuf/copyWant/copyHave drive a cross-chunk byte copy for a
	// string/bytes payload (copyBuf non-nil) or an unknown-field skip
	// (copyBuf nil, bytes discarded).
	copyBuf  []byte
	copyWant int64
	copyHave int64
}

// NewDecoder creates a Decoder that fills root, allocating from a.
func NewDecoder(root *Message, a *arena.Arena, opts Options) *Decoder {
	return &Decoder{
		arena:   a,
		opts:    opts.resolved(),
		stack:   []frame{{kind: frameMessage, desc: root.Desc, msg: root, hardEnd: unboundedEnd}},
		scratch: make([]byte, 0, wire.MaxVarintLen),
	}
}

func (d *Decoder) top() *frame { return &d.stack[len(d.stack)-1] }

func (d *Decoder) fail(code errCode) error {
	return parseErr(code, d.offset)
}

// popFinishedMessages pops any length-delimited message frames (not groups,
// which close on their own end tag) whose declared length has been fully
// consumed, cascading for back-to-back closes at the same offset. Must be
// called both before inspecting the top frame and immediately before any
// return to the caller, since a message can end exactly at a chunk or
// value boundary with no further tag byte available to trigger the next
// loop iteration.
func (d *Decoder) popFinishedMessages() error {
	for len(d.stack) > 1 && d.top().kind == frameMessage && d.offset >= d.top().hardEnd {
		if d.offset > d.top().hardEnd {
			return d.fail(errCodeLengthOverflow)
		}
		d.stack = d.stack[:len(d.stack)-1]
	}
	return nil
}

// Push feeds the next chunk of input to the decoder. It returns the number
// of bytes consumed (always len(chunk) on success, since everything not
// immediately actionable is buffered in scratch/copyBuf) and an error, if
// parsing failed. A nil error does not mean decoding is complete -- call
// [Decoder.Finish] once the caller has no more bytes to provide.
func (d *Decoder) Push(chunk []byte) (int, error) {
	diag.Log(nil, "Push", "entering with %d bytes, offset=%d, depth=%d", len(chunk), d.offset, len(d.stack))
	pos := 0

	for {
		if err := d.popFinishedMessages(); err != nil {
			return pos, err
		}

		top := d.top()

		if d.state == stTag && (top.kind == frameGroup || top.kind == frameSkipGroup) && d.offset >= top.hardEnd {
			return pos, d.fail(errCodeTruncated)
		}

		if top.kind == framePacked {
			// Drain every element the current chunk has completely in
			// hand before yielding back to the caller, not just one: a
			// single Push may carry an entire packed run.
			for {
				if pos >= len(chunk) && d.offset < top.hardEnd {
					return pos, nil
				}
				consumed, done, err := d.stepPacked(chunk[pos:])
				pos += consumed
				if err != nil {
					return pos, err
				}
				if done {
					break
				}
				if consumed == 0 {
					return pos, nil
				}
			}
			continue
		}

		switch d.state {
		case stTag:
			if len(d.stack) == 1 && d.offset >= top.hardEnd {
				// Root frame is unbounded; this never actually fires,
				// but guards against a corrupt hardEnd.
				return pos, nil
			}
			consumed, ok, err := d.readVarintValue(chunk[pos:])
			pos += consumed
			if err != nil {
				return pos, err
			}
			if !ok {
				return pos, nil
			}
			if err := d.dispatchTag(top); err != nil {
				return pos, err
			}

		case stValue:
			consumed, raw, ok, err := d.readScalarBits(chunk[pos:], d.pendingWire)
			pos += consumed
			if err != nil {
				return pos, err
			}
			if !ok {
				return pos, nil
			}
			if err := d.storeScalar(top.msg, d.pendingField, raw); err != nil {
				return pos, err
			}
			d.state = stTag

		case stLen:
			consumed, ok, err := d.readVarintValue(chunk[pos:])
			pos += consumed
			if err != nil {
				return pos, err
			}
			if !ok {
				return pos, nil
			}
			l := int64(d.lastVarint)
			if l < 0 || d.offset+l > top.hardEnd {
				return pos, d.fail(errCodeLengthOverflow)
			}
			if err := d.beginPayload(top, l); err != nil {
				return pos, err
			}

		case stPayloadCopy:
			consumed, done := d.stepCopy(chunk[pos:])
			pos += consumed
			if !done {
				return pos, nil
			}
			if err := d.finishPayload(top); err != nil {
				return pos, err
			}

		case stSkipValue:
			consumed, _, ok, err := d.readScalarBits(chunk[pos:], d.pendingWire)
			pos += consumed
			if err != nil {
				return pos, err
			}
			if !ok {
				return pos, nil
			}
			d.state = stTag

		case stSkipLen:
			consumed, ok, err := d.readVarintValue(chunk[pos:])
			pos += consumed
			if err != nil {
				return pos, err
			}
			if !ok {
				return pos, nil
			}
			l := int64(d.lastVarint)
			if l < 0 || d.offset+l > top.hardEnd {
				return pos, d.fail(errCodeLengthOverflow)
			}
			d.copyBuf = nil
			d.copyWant, d.copyHave = l, 0
			d.state = stSkipPayload

		case stSkipPayload:
			consumed, done := d.stepCopy(chunk[pos:])
			pos += consumed
			if !done {
				return pos, nil
			}
			d.state = stTag
		}

		if pos >= len(chunk) {
			if err := d.popFinishedMessages(); err != nil {
				return pos, err
			}
			return pos, nil
		}
	}
}

// Finish signals that no further input is coming. It succeeds only if the
// top-level message boundary was reached cleanly: the frame stack is back
// to just the root frame and the decoder is between fields, not mid-value.
func (d *Decoder) Finish() error {
	if len(d.stack) != 1 || d.state != stTag || len(d.scratch) != 0 {
		return d.fail(errCodeTruncated)
	}
	return nil
}

// readVarintValue accumulates bytes into d.scratch until a full varint is
// available, then decodes it into d.lastVarint.
func (d *Decoder) readVarintValue(chunk []byte) (consumed int, ready bool, err error) {
	start := 0
	for start < len(chunk) {
		b := chunk[start]
		d.scratch = append(d.scratch, b)
		start++
		d.offset++
		if b < 0x80 || len(d.scratch) >= wire.MaxVarintLen {
			v, _, err := wire.ReadVarint(d.scratch)
			d.scratch = d.scratch[:0]
			if err != nil {
				return start, false, d.fail(errCodeMalformedVarint)
			}
			d.lastVarint = v
			return start, true, nil
		}
	}
	return start, false, nil
}

// readScalarBits reads a varint, fixed32, or fixed64 value (per wt) across
// chunk boundaries, returning the bits in a uint64 (fixed32 zero-extended).
func (d *Decoder) readScalarBits(chunk []byte, wt protowire.Type) (consumed int, raw uint64, ready bool, err error) {
	switch wt {
	case protowire.VarintType:
		n, ok, err := d.readVarintValue(chunk)
		return n, d.lastVarint, ok, err
	case protowire.Fixed32Type:
		return d.readFixed(chunk, 4)
	case protowire.Fixed64Type:
		return d.readFixed(chunk, 8)
	default:
		return 0, 0, false, d.fail(errCodeWireTypeMismatch)
	}
}

func (d *Decoder) readFixed(chunk []byte, need int) (consumed int, raw uint64, ready bool, err error) {
	start := 0
	for len(d.scratch) < need && start < len(chunk) {
		d.scratch = append(d.scratch, chunk[start])
		start++
		d.offset++
	}
	if len(d.scratch) < need {
		return start, 0, false, nil
	}
	if need == 4 {
		raw = uint64(uint32(d.scratch[0]) | uint32(d.scratch[1])<<8 | uint32(d.scratch[2])<<16 | uint32(d.scratch[3])<<24)
	} else {
		raw = uint64(d.scratch[0]) | uint64(d.scratch[1])<<8 | uint64(d.scratch[2])<<16 | uint64(d.scratch[3])<<24 |
			uint64(d.scratch[4])<<32 | uint64(d.scratch[5])<<40 | uint64(d.scratch[6])<<48 | uint64(d.scratch[7])<<56
	}
	d.scratch = d.scratch[:0]
	return start, raw, true, nil
}

// dispatchTag interprets a freshly read tag against the top frame.
func (d *Decoder) dispatchTag(top *frame) error {
	num, wt, err := wire.SplitTag(d.lastVarint)
	if err != nil {
		return d.fail(errCodeFieldNumberRange)
	}
	d.pendingNum, d.pendingWire = num, wt

	if wt == protowire.EndGroupType {
		return d.closeGroup(top, num)
	}

	if wt == protowire.StartGroupType && (top.kind == frameSkipGroup) {
		return d.pushSkipGroup(top, num)
	}

	if top.kind == frameSkipGroup {
		return d.beginSkip(top, wt)
	}

	f, found := top.desc.FieldByNumber(num)
	if !found || !wireTypeAccepted(f, wt) {
		if wt == protowire.StartGroupType {
			return d.pushSkipGroup(top, num)
		}
		return d.beginSkip(top, wt)
	}

	d.pendingField = f
	switch {
	case f.Kind == tdp.KindGroup:
		return d.enterGroup(top, f)
	case f.Kind == tdp.KindMessage || f.Kind == tdp.KindString || f.Kind == tdp.KindBytes || wt == protowire.BytesType:
		d.state = stLen
		return nil
	default:
		d.state = stValue
		return nil
	}
}

// wireTypeAccepted implements spec §4.3 step 2's merge-compatibility rule.
func wireTypeAccepted(f *tdp.FieldDescriptor, wt protowire.Type) bool {
	switch {
	case f.Card.IsRepeated() && f.Kind.packable():
		return wt == f.Kind.WireType() || wt == protowire.BytesType
	case f.Kind == tdp.KindGroup:
		return wt == protowire.StartGroupType
	default:
		return wt == f.Kind.WireType()
	}
}

func (d *Decoder) pushDepthCheck() error {
	diag.Assert(d.opts.MaxDepth > 0, "MaxDepth must have been resolved to a positive value by Options.resolved")
	if len(d.stack) >= d.opts.MaxDepth {
		return d.fail(errCodeDepthExceeded)
	}
	return nil
}

func (d *Decoder) pushSkipGroup(top *frame, num protowire.Number) error {
	if err := d.pushDepthCheck(); err != nil {
		return err
	}
	d.stack = append(d.stack, frame{kind: frameSkipGroup, groupNum: num, hardEnd: top.hardEnd})
	d.state = stTag
	return nil
}

func (d *Decoder) closeGroup(top *frame, num protowire.Number) error {
	if top.kind != frameGroup && top.kind != frameSkipGroup {
		return d.fail(errCodeGroupEndMismatch)
	}
	if top.groupNum != num {
		return d.fail(errCodeGroupEndMismatch)
	}
	d.stack = d.stack[:len(d.stack)-1]
	d.state = stTag
	return nil
}

func (d *Decoder) enterGroup(top *frame, f *tdp.FieldDescriptor) error {
	if err := d.pushDepthCheck(); err != nil {
		return err
	}
	child, err := d.childMessage(top, f, false)
	if err != nil {
		return err
	}
	d.stack = append(d.stack, frame{kind: frameGroup, desc: f.Elem, msg: child, groupNum: f.Number, hardEnd: top.hardEnd})
	d.state = stTag
	return nil
}

func (d *Decoder) beginSkip(top *frame, wt protowire.Type) error {
	switch wt {
	case protowire.VarintType, protowire.Fixed32Type, protowire.Fixed64Type:
		d.pendingWire = wt
		d.state = stSkipValue
	case protowire.BytesType:
		d.state = stSkipLen
	default:
		return d.fail(errCodeWireTypeMismatch)
	}
	return nil
}

// beginPayload is reached after a length header was read for a known
// string/bytes/message/packed field.
func (d *Decoder) beginPayload(top *frame, length int64) error {
	f := d.pendingField
	switch {
	case f.Kind == tdp.KindMessage:
		if err := d.pushDepthCheck(); err != nil {
			return err
		}
		child, err := d.childMessage(top, f, true)
		if err != nil {
			return err
		}
		d.stack = append(d.stack, frame{kind: frameMessage, desc: f.Elem, msg: child, hardEnd: d.offset + length})
		d.state = stTag
		return nil
	case f.Card.IsRepeated() && f.Kind.packable() && d.pendingWire == protowire.BytesType:
		if err := d.pushDepthCheck(); err != nil {
			return err
		}
		d.stack = append(d.stack, frame{kind: framePacked, packedField: f, hardEnd: d.offset + length})
		d.state = stTag
		return nil
	default: // string or bytes
		buf, err := d.arena.Alloc(int(length), 1)
		if err != nil {
			return parseErr(errCodeOutOfMemory, d.offset)
		}
		d.copyBuf = buf
		d.copyWant, d.copyHave = length, 0
		d.state = stPayloadCopy
		return nil
	}
}

func (d *Decoder) stepCopy(chunk []byte) (consumed int, done bool) {
	remaining := d.copyWant - d.copyHave
	n := int64(len(chunk))
	if n > remaining {
		n = remaining
	}
	if d.copyBuf != nil {
		copy(d.copyBuf[d.copyHave:d.copyHave+n], chunk[:n])
	}
	d.copyHave += n
	d.offset += n
	return int(n), d.copyHave >= d.copyWant
}

func (d *Decoder) finishPayload(top *frame) error {
	f := d.pendingField
	buf := d.copyBuf
	d.copyBuf = nil

	if f.Kind == tdp.KindString {
		if !utf8.Valid(buf) {
			return parseErr(errCodeInvalidUTF8, d.offset)
		}
	}

	msg := top.msg
	if f.Card.IsRepeated() {
		appendRepeatedBytes(msg, f, buf)
	} else {
		setSingularBytes(msg, f, buf)
		markPresent(msg, f)
	}
	d.state = stTag
	return nil
}

// childMessage resolves the *Message a singular/oneof message or group
// field should be decoded into: a fresh instance, or -- per the merge
// semantics of spec §4.3 ("the decoder merges the second occurrence into
// the existing sub-message") -- the already-present one, for repeated
// fields a new element is always appended instead.
func (d *Decoder) childMessage(top *frame, f *tdp.FieldDescriptor, lengthDelimited bool) (*Message, error) {
	msg := top.msg
	if f.Card.IsRepeated() {
		child, err := New(f.Elem, d.arena)
		if err != nil {
			return nil, parseErr(errCodeOutOfMemory, d.offset)
		}
		list, _ := msg.Ref(f.Offset).([]*Message)
		msg.SetRef(f.Offset, append(list, child))
		return child, nil
	}

	if existing, ok := msg.Ref(f.Offset).(*Message); ok && fieldPresent(msg, f) {
		return existing, nil
	}
	child, err := New(f.Elem, d.arena)
	if err != nil {
		return nil, parseErr(errCodeOutOfMemory, d.offset)
	}
	msg.SetRef(f.Offset, child)
	markPresent(msg, f)
	return child, nil
}

func fieldPresent(msg *Message, f *tdp.FieldDescriptor) bool {
	if idx, ok := f.HasBitIndex(); ok {
		return msg.HasBit(idx)
	}
	if idx, ok := f.OneofIndex(); ok {
		return msg.OneofDiscriminant(idx) == uint32(f.Number)
	}
	return true
}

func markPresent(msg *Message, f *tdp.FieldDescriptor) {
	if idx, ok := f.HasBitIndex(); ok {
		msg.SetHasBit(idx)
		return
	}
	if idx, ok := f.OneofIndex(); ok {
		msg.SetOneofDiscriminant(idx, uint32(f.Number))
	}
}

func setSingularBytes(msg *Message, f *tdp.FieldDescriptor, buf []byte) {
	if f.Kind == tdp.KindString {
		msg.SetRef(f.Offset, unsafeString(buf))
	} else {
		msg.SetRef(f.Offset, buf)
	}
}

func appendRepeatedBytes(msg *Message, f *tdp.FieldDescriptor, buf []byte) {
	if f.Kind == tdp.KindString {
		list, _ := msg.Ref(f.Offset).([]string)
		msg.SetRef(f.Offset, append(list, unsafeString(buf)))
		return
	}
	list, _ := msg.Ref(f.Offset).([][]byte)
	msg.SetRef(f.Offset, append(list, buf))
}

// storeScalar decodes raw wire bits into their logical representation and
// writes them into storage, toggling the has-bit/discriminant or appending
// to a repeated slice as appropriate.
func (d *Decoder) storeScalar(msg *Message, f *tdp.FieldDescriptor, raw uint64) error {
	if f.Card.IsRepeated() {
		if err := appendScalarBits(msg, f, raw); err != nil {
			return parseErr(errCodeOutOfMemory, d.offset)
		}
		return nil
	}
	storeScalarBits(msg, f, raw)
	markPresent(msg, f)
	return nil
}

// stepPacked consumes one element from a framePacked region per call.
func (d *Decoder) stepPacked(chunk []byte) (consumed int, done bool, err error) {
	top := d.top()
	f := top.packedField
	if d.offset >= top.hardEnd {
		d.stack = d.stack[:len(d.stack)-1]
		d.state = stTag
		return 0, true, nil
	}
	n, raw, ok, rerr := d.readScalarBits(chunk, f.Kind.WireType())
	if rerr != nil {
		return n, false, rerr
	}
	if !ok {
		return n, false, nil
	}
	if d.offset > top.hardEnd {
		return n, false, d.fail(errCodeLengthOverflow)
	}
	if err := appendScalarBits(top.msg, f, raw); err != nil {
		return n, false, parseErr(errCodeOutOfMemory, d.offset)
	}
	return n, false, nil
}

func storeScalarBits(msg *Message, f *tdp.FieldDescriptor, raw uint64) {
	switch f.Kind {
	case tdp.KindBool:
		msg.StoreBool(f.Offset, raw != 0)
	case tdp.KindSint32:
		msg.StoreU32(f.Offset, uint32(wire.ZigZagDecode(raw)))
	case tdp.KindSint64:
		msg.StoreU64(f.Offset, uint64(wire.ZigZagDecode(raw)))
	case tdp.KindInt64, tdp.KindUint64, tdp.KindFixed64, tdp.KindSfixed64, tdp.KindDouble:
		msg.StoreU64(f.Offset, raw)
	default:
		// int32, uint32, fixed32, sfixed32, float, enum: low 32 bits.
		msg.StoreU32(f.Offset, uint32(raw))
	}
}

func appendScalarBits(msg *Message, f *tdp.FieldDescriptor, raw uint64) error {
	switch f.Kind {
	case tdp.KindBool:
		return appendSlice(msg, f.Offset, raw != 0)
	case tdp.KindInt32, tdp.KindEnum:
		return appendSlice(msg, f.Offset, int32(raw))
	case tdp.KindSint32:
		return appendSlice(msg, f.Offset, int32(wire.ZigZagDecode(raw)))
	case tdp.KindUint32, tdp.KindFixed32:
		return appendSlice(msg, f.Offset, uint32(raw))
	case tdp.KindSfixed32:
		return appendSlice(msg, f.Offset, int32(raw))
	case tdp.KindFloat:
		return appendSlice(msg, f.Offset, math.Float32frombits(uint32(raw)))
	case tdp.KindInt64:
		return appendSlice(msg, f.Offset, int64(raw))
	case tdp.KindSint64:
		return appendSlice(msg, f.Offset, wire.ZigZagDecode(raw))
	case tdp.KindUint64, tdp.KindFixed64:
		return appendSlice(msg, f.Offset, raw)
	case tdp.KindSfixed64:
		return appendSlice(msg, f.Offset, int64(raw))
	case tdp.KindDouble:
		return appendSlice(msg, f.Offset, math.Float64frombits(raw))
	default:
		return nil
	}
}

func appendSlice[T any](msg *Message, idx uint32, v T) error {
	cur, _ := msg.Ref(idx).(arena.Slice[T])
	grown, err := cur.Append(msg.Arena, v)
	if err != nil {
		return err
	}
	msg.SetRef(idx, grown)
	return nil
}
