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

import "encoding/binary"

// ReadFixed32 reads a little-endian 32-bit word from the prefix of buf.
// Returns [ErrNeedMore] if fewer than 4 bytes are available.
func ReadFixed32(buf []byte) (value uint32, err error) {
	if len(buf) < 4 {
		return 0, ErrNeedMore
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// ReadFixed64 reads a little-endian 64-bit word from the prefix of buf.
// Returns [ErrNeedMore] if fewer than 8 bytes are available.
func ReadFixed64(buf []byte) (value uint64, err error) {
	if len(buf) < 8 {
		return 0, ErrNeedMore
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// AppendFixed32 appends the little-endian encoding of v to buf.
func AppendFixed32(buf []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(buf, v)
}

// AppendFixed64 appends the little-endian encoding of v to buf.
func AppendFixed64(buf []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(buf, v)
}
