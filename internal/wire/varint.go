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

// MaxVarintLen is the widest a canonical protobuf varint is ever allowed to
// be: 10 bytes encode a full 64-bit value, with the final byte contributing
// only a single extra bit.
const MaxVarintLen = 10

// ReadVarint decodes a base-128 varint from the prefix of buf.
//
// On success it returns the decoded value and the number of bytes consumed.
// If buf is a valid prefix of a longer varint (every byte seen so far has
// its continuation bit set, and fewer than [MaxVarintLen] bytes have been
// seen), it returns [ErrNeedMore]; the caller should retry with more bytes
// appended. If the 10th byte is anything but 0 or 1 (a continuation bit,
// or bits past the 64th), it returns [ErrMalformedVarint].
func ReadVarint(buf []byte) (value uint64, n int, err error) {
	for n = 0; n < len(buf) && n < MaxVarintLen; n++ {
		b := buf[n]
		if n == MaxVarintLen-1 && b > 1 {
			// The 10th byte of a 64-bit varint may only contribute its
			// lowest bit; anything else is an overflow.
			return 0, 0, ErrMalformedVarint
		}
		value |= uint64(b&0x7f) << (7 * n)
		if b < 0x80 {
			return value, n + 1, nil
		}
	}
	if len(buf) >= MaxVarintLen {
		return 0, 0, ErrMalformedVarint
	}
	return 0, 0, ErrNeedMore
}

// SizeVarint returns the number of bytes AppendVarint would emit for v.
func SizeVarint(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// AppendVarint appends the canonical (no trailing zero bytes) base-128
// varint encoding of v to buf and returns the extended slice.
func AppendVarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}
