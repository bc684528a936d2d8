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

package vm

import "unsafe"

// unsafeString views buf as a string without copying. buf must not be
// mutated afterwards -- safe here because buf is a payload region freshly
// copied out of the arena for exactly this field and never written to
// again. This departs from the teacher's zc type, which views slices of
// the original wire buffer directly: this decoder copies payload bytes
// into arena-owned storage as they arrive (spec §4.3 forbids retaining a
// pointer into the caller's chunk across a Push call), so the zero-copy
// step here is arena-bytes-to-string, not source-bytes-to-string.
func unsafeString(buf []byte) string {
	if len(buf) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(buf), len(buf))
}
