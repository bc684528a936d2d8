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

// Package vm implements the resumable push codec (spec §4.3, §4.4): a
// single, non-generic interpreter driven by a [tdp.MessageDescriptor] that
// decodes and encodes protobuf wire bytes in arbitrarily sized chunks.
package vm

import (
	"encoding/binary"

	"github.com/pbcore/pbcore/internal/arena"
	"github.com/pbcore/pbcore/internal/tdp"
)

// Message is the runtime record the interpreter reads and writes (spec
// §4.6 "message surface"). Its layout splits in two, departing from the
// single contiguous repr(C) record the spec describes as the reference
// shape:
//
//   - Data holds every pointer-free scalar field inline, bump-allocated
//     from the owning Arena exactly as §3 describes.
//   - Refs holds everything that carries a Go pointer -- strings, bytes,
//     submessages, and repeated fields of any kind, since even a repeated
//     scalar's backing [arena.Slice] is a slice header and therefore a
//     pointer. These live in an ordinary garbage-collected slice instead
//     of inline arena bytes.
//
// This follows the "(block_index, offset) pairs" alternative spec §9
// allows in place of raw pointers: Refs is addressed by a small dense
// index instead of a pointer, and the GC is left to trace it the ordinary
// way rather than through a fragile reflect-based aliasing trick. See
// DESIGN.md for the full rationale.
type Message struct {
	Desc  *tdp.MessageDescriptor
	Arena *arena.Arena
	Meta  []uint32
	Data  []byte
	Refs  []any
}

// New allocates a zeroed Message for desc on a. The scalar region comes
// from the arena; Meta and Refs are ordinary Go allocations (see [Message]
// for why).
func New(desc *tdp.MessageDescriptor, a *arena.Arena) (*Message, error) {
	data, err := a.Alloc(int(desc.ScalarSize), arena.Align)
	if err != nil {
		return nil, err
	}
	clear(data)
	return &Message{
		Desc:  desc,
		Arena: a,
		Meta:  make([]uint32, desc.MetaWords()),
		Data:  data,
		Refs:  make([]any, desc.RefCount),
	}, nil
}

// HasBit reports whether the has-bit at idx is set.
func (m *Message) HasBit(idx uint8) bool {
	return m.Meta[idx/32]&(1<<(idx%32)) != 0
}

// SetHasBit sets the has-bit at idx.
func (m *Message) SetHasBit(idx uint8) {
	m.Meta[idx/32] |= 1 << (idx % 32)
}

// ClearHasBit clears the has-bit at idx.
func (m *Message) ClearHasBit(idx uint8) {
	m.Meta[idx/32] &^= 1 << (idx % 32)
}

// OneofDiscriminant returns the field number of the active member of the
// oneof whose discriminant word index is wordIdx, or 0 if none is active.
func (m *Message) OneofDiscriminant(wordIdx uint8) uint32 {
	return m.Meta[int(m.Desc.HasBitWords)+int(wordIdx)]
}

// SetOneofDiscriminant marks fieldNum as the active member of the oneof
// whose discriminant word index is wordIdx.
func (m *Message) SetOneofDiscriminant(wordIdx uint8, fieldNum uint32) {
	m.Meta[int(m.Desc.HasBitWords)+int(wordIdx)] = fieldNum
}

// ClearOneofDiscriminant clears the oneof at wordIdx back to "none active".
func (m *Message) ClearOneofDiscriminant(wordIdx uint8) {
	m.Meta[int(m.Desc.HasBitWords)+int(wordIdx)] = 0
}

// Ref returns the reference-table entry at idx.
func (m *Message) Ref(idx uint32) any { return m.Refs[idx] }

// SetRef overwrites the reference-table entry at idx.
func (m *Message) SetRef(idx uint32, v any) { m.Refs[idx] = v }

// Scalar inline-storage accessors. All widths are written little-endian
// via encoding/binary rather than an unsafe pointer cast, so a field's
// inline offset need not satisfy the host architecture's strict-alignment
// rules -- only the byte width matters.

func (m *Message) LoadBool(off uint32) bool   { return m.Data[off] != 0 }
func (m *Message) StoreBool(off uint32, v bool) {
	if v {
		m.Data[off] = 1
	} else {
		m.Data[off] = 0
	}
}

func (m *Message) LoadU32(off uint32) uint32 {
	return binary.LittleEndian.Uint32(m.Data[off : off+4])
}
func (m *Message) StoreU32(off uint32, v uint32) {
	binary.LittleEndian.PutUint32(m.Data[off:off+4], v)
}

func (m *Message) LoadU64(off uint32) uint64 {
	return binary.LittleEndian.Uint64(m.Data[off : off+8])
}
func (m *Message) StoreU64(off uint32, v uint64) {
	binary.LittleEndian.PutUint64(m.Data[off:off+8], v)
}
