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

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/google/uuid"
)

// numberIndexEmpty marks an unused slot in MessageDescriptor.NumberIndex.
const numberIndexEmpty = 0xFFFF

// MessageDescriptor is the compiled, immutable shape of one message type
// (spec §3): its scalar storage size, how many has-bit and oneof-discriminant
// words its metadata array needs, its field table, and a dense field-number
// to field-index lookup array (spec §4.7 — deliberately a flat array, not a
// hash map, since field numbers are bounded and usually dense).
type MessageDescriptor struct {
	Name string

	// ScalarSize is the length, in bytes, of the inline scalar storage
	// region every instance of this message allocates.
	ScalarSize uint32
	// RefCount is the length of the reference table every instance
	// allocates.
	RefCount uint32

	HasBitWords uint16
	OneofWords  uint16

	Fields []FieldDescriptor

	// NumberIndex maps a field number to an index into Fields in O(1).
	// Length is (max declared field number)+1; holes are numberIndexEmpty.
	NumberIndex []uint16

	// BuildID distinguishes descriptor tables compiled from distinct Compile
	// calls, even when they describe structurally identical messages; it has
	// no effect on wire compatibility and exists purely as a debugging and
	// cache-invalidation aid.
	BuildID uuid.UUID
}

// FieldByNumber looks up a field by its wire field number in O(1).
func (m *MessageDescriptor) FieldByNumber(num protowire.Number) (*FieldDescriptor, bool) {
	if num < 0 || int(num) >= len(m.NumberIndex) {
		return nil, false
	}
	idx := m.NumberIndex[num]
	if idx == numberIndexEmpty {
		return nil, false
	}
	return &m.Fields[idx], true
}

// MetaWords returns the total uint32 word count of the metadata array
// (has-bits followed by oneof discriminants) an instance must allocate.
func (m *MessageDescriptor) MetaWords() int {
	return int(m.HasBitWords) + int(m.OneofWords)
}
