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

// ZigZagEncode maps a signed integer to an unsigned one so that numbers
// with a small absolute value (either sign) have a small varint encoding.
// Used for sint32/sint64.
func ZigZagEncode(n int64) uint64 {
	return uint64(n<<1) ^ uint64(n>>63)
}

// ZigZagDecode is the inverse of [ZigZagEncode].
func ZigZagDecode(n uint64) int64 {
	return int64(n>>1) ^ -int64(n&1)
}
