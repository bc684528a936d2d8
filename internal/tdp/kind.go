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

// Package tdp ("table-driven parser") defines the static descriptor tables
// that drive the codec's single, non-generic interpreter (spec §3, §4.7,
// §9): [MessageDescriptor] and [FieldDescriptor], plus the [Compile] entry
// point a .proto-driven generator (out of scope per spec §1, but the one
// collaborator whose contract is worth making concrete) would call to
// produce them.
package tdp

import "google.golang.org/protobuf/encoding/protowire"

// Kind is a field's logical protobuf type, as distinct from its wire type:
// e.g. int32 and sint32 share [protowire.VarintType] but decode differently
// (sint32 is zigzag-coded).
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt32
	KindInt64
	KindUint32
	KindUint64
	KindSint32
	KindSint64
	KindFixed32
	KindFixed64
	KindSfixed32
	KindSfixed64
	KindFloat
	KindDouble
	KindBool
	KindEnum
	KindString
	KindBytes
	KindMessage
	KindGroup
)

// String implements [fmt.Stringer].
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

var kindNames = [...]string{
	KindInvalid:  "invalid",
	KindInt32:    "int32",
	KindInt64:    "int64",
	KindUint32:   "uint32",
	KindUint64:   "uint64",
	KindSint32:   "sint32",
	KindSint64:   "sint64",
	KindFixed32:  "fixed32",
	KindFixed64:  "fixed64",
	KindSfixed32: "sfixed32",
	KindSfixed64: "sfixed64",
	KindFloat:    "float",
	KindDouble:   "double",
	KindBool:     "bool",
	KindEnum:     "enum",
	KindString:   "string",
	KindBytes:    "bytes",
	KindMessage:  "message",
	KindGroup:    "group",
}

// WireType returns the wire type a singular, non-packed field of this kind
// is encoded with.
func (k Kind) WireType() protowire.Type {
	switch k {
	case KindFixed64, KindSfixed64, KindDouble:
		return protowire.Fixed64Type
	case KindFixed32, KindSfixed32, KindFloat:
		return protowire.Fixed32Type
	case KindString, KindBytes, KindMessage:
		return protowire.BytesType
	case KindGroup:
		return protowire.StartGroupType
	default:
		// Int32/Int64/Uint32/Uint64/Sint32/Sint64/Bool/Enum all share the
		// varint wire type.
		return protowire.VarintType
	}
}

// IsScalar returns whether values of this kind are fixed-size and
// pointer-free, i.e. can live inline in a message's scalar storage region
// rather than in its reference table. See [FieldDescriptor.Storage].
func (k Kind) IsScalar() bool {
	switch k {
	case KindString, KindBytes, KindMessage, KindGroup, KindInvalid:
		return false
	default:
		return true
	}
}

// ScalarSize returns the inline storage size and alignment, in bytes, for a
// singular value of this scalar kind. Panics if !k.IsScalar().
func (k Kind) ScalarSize() (size, align int) {
	switch k {
	case KindBool:
		return 1, 1
	case KindInt32, KindUint32, KindSint32, KindFixed32, KindSfixed32, KindFloat, KindEnum:
		return 4, 4
	case KindInt64, KindUint64, KindSint64, KindFixed64, KindSfixed64, KindDouble:
		return 8, 8
	default:
		panic("tdp: ScalarSize called on a non-scalar kind: " + k.String())
	}
}

// IsZigZag returns whether this kind's varint encoding is zigzag-coded.
func (k Kind) IsZigZag() bool {
	return k == KindSint32 || k == KindSint64
}

// Cardinality describes how many times a field may occur and how it relates
// to the metadata array (spec §3).
type Cardinality uint8

const (
	// CardinalitySingular fields are plain non-repeated fields; [Compile]
	// assigns them a has-bit, so they track presence like optional ones.
	CardinalitySingular Cardinality = iota
	// CardinalityOptional fields track presence via a has-bit.
	CardinalityOptional
	// CardinalityRepeatedUnpacked fields are encoded one tag+value per
	// element.
	CardinalityRepeatedUnpacked
	// CardinalityRepeatedPacked fields are encoded as a single
	// length-delimited run of back-to-back values.
	CardinalityRepeatedPacked
	// CardinalityOneofMember fields share a discriminant word with their
	// sibling members; at most one is ever set.
	CardinalityOneofMember
)

// IsRepeated reports whether c is one of the two repeated cardinalities.
func (c Cardinality) IsRepeated() bool {
	return c == CardinalityRepeatedUnpacked || c == CardinalityRepeatedPacked
}
