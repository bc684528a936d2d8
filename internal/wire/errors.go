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

// Package wire implements the pure byte-level primitives of the protobuf
// wire format: varints, zigzag, fixed-width integers, and tags. Every
// routine here operates on a plain (possibly incomplete) []byte and returns
// either a decoded value plus the number of bytes it consumed, or one of
// the sentinel errors below -- nothing here allocates, blocks, or knows
// about chunk boundaries; that is the push codec's job (see
// internal/vm), which re-feeds these functions a growing scratch buffer
// until they stop reporting [ErrNeedMore].
package wire

import "errors"

var (
	// ErrNeedMore means buf was a valid prefix of a longer encoding, but
	// did not contain enough bytes to finish decoding. It is not a real
	// failure: the caller should supply more bytes (appended to buf) and
	// retry.
	ErrNeedMore = errors.New("wire: need more bytes")

	// ErrMalformedVarint means the 10th byte of a varint still had its
	// continuation bit set, or set bits beyond the 64th.
	ErrMalformedVarint = errors.New("wire: malformed varint (11th continuation byte)")

	// ErrFieldNumberRange means a tag decoded to a field number outside
	// 1..2047.
	ErrFieldNumberRange = errors.New("wire: field number out of range")

	// ErrReservedWireType means a tag's wire type was 6 or 7, which
	// protobuf reserves and never assigns a meaning to.
	ErrReservedWireType = errors.New("wire: reserved wire type")
)
