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

package tdp

import "google.golang.org/protobuf/encoding/protowire"

// StorageKind distinguishes the two regions a field's value can live in, as
// described by spec §9's "(block_index, offset) pairs" alternative: a
// message's scalar, pointer-free fields live inline in a flat byte region
// the garbage collector never has to scan, while anything that carries a
// Go pointer (strings, byte slices, submessages, and repeated fields of any
// kind, since a Go slice header is itself a pointer) lives in an ordinary
// GC-visible slice of interface values alongside it.
type StorageKind uint8

const (
	// StorageInline stores the value as raw bytes at FieldDescriptor.Offset
	// within the message's scalar region.
	StorageInline StorageKind = iota
	// StorageRef stores the value as entry FieldDescriptor.Offset within
	// the message's reference table.
	StorageRef
)

// metaOneofBit marks MetaIndex as a oneof discriminant slot rather than a
// has-bit index.
const metaOneofBit = 0x80

// FieldDescriptor is one compiled field entry (spec §3, §4.7). It is
// immutable after [Compile] returns and is shared by every message instance
// of its type.
type FieldDescriptor struct {
	Number   protowire.Number
	WireType protowire.Type
	Kind     Kind
	Card     Cardinality

	// MetaIndex packs either a has-bit index (bit7 clear, bits 0-6) or a
	// oneof discriminant word index (bit7 set, bits 0-6). Fields with
	// Card.IsRepeated() don't consult it: presence is "reference table
	// slot is non-nil and non-empty".
	MetaIndex uint8

	// Storage says which region Offset indexes into.
	Storage StorageKind
	// Offset is either a byte offset into the scalar region (StorageInline)
	// or an index into the reference table (StorageRef).
	Offset uint32

	// Elem describes a child message/group descriptor. Non-nil iff
	// Kind is KindMessage or KindGroup.
	Elem *MessageDescriptor

	// Default holds the little-endian encoded zero-extended default for
	// scalar kinds, or the raw bytes for string/bytes kinds. Nil means the
	// language zero value (0, "", false, empty).
	Default []byte
}

// HasBitIndex returns the has-bit index for fields that track presence via
// a has-bit (singular and optional, non-oneof fields), and false otherwise.
func (f *FieldDescriptor) HasBitIndex() (uint8, bool) {
	if f.Card == CardinalitySingular || f.Card == CardinalityOptional {
		return f.MetaIndex &^ metaOneofBit, true
	}
	return 0, false
}

// OneofIndex returns the oneof discriminant word index for oneof member
// fields, and false otherwise.
func (f *FieldDescriptor) OneofIndex() (uint8, bool) {
	if f.Card == CardinalityOneofMember {
		return f.MetaIndex &^ metaOneofBit, true
	}
	return 0, false
}

// IsPacked reports whether this repeated field is encoded as a single
// length-delimited run.
func (f *FieldDescriptor) IsPacked() bool {
	return f.Card == CardinalityRepeatedPacked
}

// packable reports whether a repeated field of this kind is eligible to be
// packed at all (length-delimited kinds — string, bytes, message, group —
// are never packed; merge semantics for them are "append").
func (k Kind) packable() bool {
	switch k {
	case KindString, KindBytes, KindMessage, KindGroup:
		return false
	default:
		return true
	}
}
