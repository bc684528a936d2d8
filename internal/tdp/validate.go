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

import "fmt"

// Validate re-checks the structural invariants of a compiled descriptor.
// [Compile] always calls this itself; Validate is exported separately so a
// descriptor built or patched by other means (e.g. deserialized from a
// cache) can be checked before use.
func Validate(m *MessageDescriptor) error {
	if m == nil {
		return fmt.Errorf("tdp: nil message descriptor")
	}

	hasBitSeen := make(map[uint8]bool)
	oneofSeen := make(map[uint8]bool)
	refSeen := make(map[uint32]bool)
	var maxScalarEnd uint32

	for i := range m.Fields {
		f := &m.Fields[i]

		if int(f.Number) >= len(m.NumberIndex) || m.NumberIndex[f.Number] != uint16(i) {
			return fmt.Errorf("tdp: %s: field %d not reachable via NumberIndex", m.Name, f.Number)
		}

		if (f.Kind == KindMessage || f.Kind == KindGroup) && f.Elem == nil {
			return fmt.Errorf("tdp: %s: field %d is %s with no Elem", m.Name, f.Number, f.Kind)
		}

		switch f.Storage {
		case StorageInline:
			if !f.Kind.IsScalar() || f.Card.IsRepeated() {
				return fmt.Errorf("tdp: %s: field %d stored inline but is %s/%v", m.Name, f.Number, f.Kind, f.Card)
			}
			size, align := f.Kind.ScalarSize()
			if f.Offset%uint32(align) != 0 {
				return fmt.Errorf("tdp: %s: field %d offset %d misaligned for %s", m.Name, f.Number, f.Offset, f.Kind)
			}
			if end := f.Offset + uint32(size); end > maxScalarEnd {
				maxScalarEnd = end
			}
		case StorageRef:
			if refSeen[f.Offset] {
				return fmt.Errorf("tdp: %s: field %d reuses ref slot %d", m.Name, f.Number, f.Offset)
			}
			refSeen[f.Offset] = true
			if f.Offset >= m.RefCount {
				return fmt.Errorf("tdp: %s: field %d ref slot %d out of range [0, %d)", m.Name, f.Number, f.Offset, m.RefCount)
			}
		default:
			return fmt.Errorf("tdp: %s: field %d has unknown storage kind %d", m.Name, f.Number, f.Storage)
		}

		switch f.Card {
		case CardinalitySingular, CardinalityOptional:
			idx, _ := f.HasBitIndex()
			if hasBitSeen[idx] {
				return fmt.Errorf("tdp: %s: field %d reuses has-bit %d", m.Name, f.Number, idx)
			}
			hasBitSeen[idx] = true
			if int(idx) >= int(m.HasBitWords)*32 {
				return fmt.Errorf("tdp: %s: field %d has-bit %d exceeds HasBitWords capacity", m.Name, f.Number, idx)
			}
		case CardinalityOneofMember:
			idx, _ := f.OneofIndex()
			oneofSeen[idx] = true
			if int(idx) >= int(m.OneofWords) {
				return fmt.Errorf("tdp: %s: field %d oneof word %d exceeds OneofWords capacity", m.Name, f.Number, idx)
			}
		case CardinalityRepeatedPacked, CardinalityRepeatedUnpacked:
			// No has-bit/oneof slot to check.
		default:
			return fmt.Errorf("tdp: %s: field %d has unknown cardinality %d", m.Name, f.Number, f.Card)
		}
	}

	if maxScalarEnd > m.ScalarSize {
		return fmt.Errorf("tdp: %s: scalar region size %d too small, needs %d", m.Name, m.ScalarSize, maxScalarEnd)
	}
	if uint32(len(refSeen)) > m.RefCount {
		return fmt.Errorf("tdp: %s: ref table size %d too small, needs %d", m.Name, m.RefCount, len(refSeen))
	}

	return nil
}
