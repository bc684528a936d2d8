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

// HeapAllocator is the default [Allocator]: it requests blocks directly
// from the Go heap and lets the garbage collector reclaim them once
// [Arena.Reset] drops the last reference. It never refuses a request: the Go
// runtime's own allocator aborts the process on true exhaustion rather than
// returning failure, so there is nothing for HeapAllocator to report short
// of that. Wrap it in [Budgeted] to get a hard, fallible ceiling.
type HeapAllocator struct{}

// AllocBlock implements [Allocator].
func (HeapAllocator) AllocBlock(size, _ int) ([]byte, error) {
	return make([]byte, size), nil
}

// FreeBlock implements [Allocator]. There is nothing to do: the block
// becomes garbage as soon as nothing references it anymore.
func (HeapAllocator) FreeBlock([]byte) {}

// Budgeted wraps another [Allocator] and refuses any block allocation that
// would push the running total it has granted past Limit bytes. This is the
// mechanism user-controlled memory budgets (spec §4.1) are built on: wrap
// [HeapAllocator] (or any other Allocator) in a Budgeted and pass the result
// to [NewWithAllocator].
type Budgeted struct {
	Inner Allocator
	Limit int

	granted int
}

// AllocBlock implements [Allocator].
func (b *Budgeted) AllocBlock(size, align int) ([]byte, error) {
	if b.granted+size > b.Limit {
		return nil, ErrOutOfMemory
	}
	buf, err := b.inner().AllocBlock(size, align)
	if err != nil {
		return nil, err
	}
	b.granted += size
	return buf, nil
}

// FreeBlock implements [Allocator].
func (b *Budgeted) FreeBlock(block []byte) {
	b.granted -= len(block)
	b.inner().FreeBlock(block)
}

func (b *Budgeted) inner() Allocator {
	if b.Inner == nil {
		return HeapAllocator{}
	}
	return b.Inner
}
