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

package arena

import "errors"

// ErrOutOfMemory is returned by [Arena.Alloc] and friends when the backing
// [Allocator] refuses a block request. It is never panicked; see spec §4.1
// and §7.
var ErrOutOfMemory = errors.New("arena: out of memory")
