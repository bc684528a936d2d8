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

package wire

import "google.golang.org/protobuf/encoding/protowire"

// We reuse protowire's Number/Type vocabulary so that a descriptor table
// built for this codec speaks the same field-number and wire-type types as
// the rest of the Go protobuf ecosystem (useful to a future .proto-driven
// generator); this package still implements its own varint/tag codec rather
// than calling into protowire's, since that codec *is* the component spec.md
// asks the core to provide.

// MaxFieldNumber is the largest field number this codec accepts (spec §3,
// §6): 1..2047.
const MaxFieldNumber = 2047

// MakeTag packs a field number and wire type into the tag value that
// precedes every field on the wire.
func MakeTag(num protowire.Number, wt protowire.Type) uint64 {
	return uint64(num)<<3 | uint64(wt&0x7)
}

// SplitTag unpacks a decoded tag varint into its field number and wire type,
// validating both against the protocol's constraints.
func SplitTag(tag uint64) (num protowire.Number, wt protowire.Type, err error) {
	wt = protowire.Type(tag & 0x7)
	num = protowire.Number(tag >> 3)

	if wt == 6 || wt == 7 {
		return 0, 0, ErrReservedWireType
	}
	if num < 1 || num > MaxFieldNumber {
		return 0, 0, ErrFieldNumberRange
	}
	return num, wt, nil
}

// SizeTag returns the number of bytes AppendVarint(nil, MakeTag(num, wt))
// would occupy: 1 byte for field numbers 1..15, 2 bytes for 16..2047 (the
// tag boundary named in spec §4.2 and §8).
func SizeTag(num protowire.Number) int {
	return SizeVarint(uint64(num) << 3)
}
