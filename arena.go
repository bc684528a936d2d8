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

package pbcore

import "github.com/pbcore/pbcore/internal/arena"

// Arena is a bump allocator that owns every [Message] a decode produces.
// All allocations it hands out stay valid until the Arena is reset or
// discarded; there is no per-message free. An Arena is single-threaded:
// concurrent Push calls against Decoders sharing one Arena are not safe,
// though concurrent reads of an already-decoded message tree are fine.
type Arena = arena.Arena

// Allocator is the capability an [Arena] requests its backing blocks from.
// Implement it to put a decode's memory under an external budget or to
// source it from something other than the Go heap.
type Allocator = arena.Allocator

// HeapAllocator is the default [Allocator]: it requests blocks from the Go
// heap and lets the garbage collector reclaim them once an [Arena] is
// reset or dropped.
type HeapAllocator = arena.HeapAllocator

// Budgeted wraps another [Allocator] and refuses any block request that
// would push its running total past Limit bytes, giving an [Arena] a hard,
// fallible memory ceiling.
type Budgeted = arena.Budgeted

// NewArena returns an empty Arena that allocates from the Go heap with no
// budget. Equivalent to new(Arena); it exists so callers need not import
// the internal arena package to spell out the zero value.
func NewArena() *Arena {
	return &Arena{}
}

// NewBudgetedArena returns an empty Arena whose block allocations are
// capped at limit bytes total rather than growing without bound. Once the
// budget is exhausted, direct allocations such as [NewMessage] fail with
// [ErrOutOfArenaMemory], and decodes fail with a [ParseError] matching
// [ErrOutOfMemory].
func NewBudgetedArena(limit int) *Arena {
	return arena.NewWithAllocator(&Budgeted{Limit: limit})
}
