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

import "unsafe"

// Slice is a growable, arena-backed array of pointer-free scalar values
// (the storage repeated scalar fields use; see spec §4.6). Unlike a []T
// grown by Go's own append, growth here always allocates from the owning
// Arena and deliberately strands the previous backing region rather than
// returning it anywhere -- the arena reclaims it wholesale on
// [Arena.Reset], never per allocation.
//
// T must be a fixed-size, pointer-free type (the scalar protobuf kinds:
// integers, floats, bool, byte). Instantiating Slice with a pointer-
// containing type would let a pointer hide inside arena memory the garbage
// collector does not scan; nothing in the type system enforces this; it is
// the caller's responsibility, exactly as for the teacher's
// arena.Slice[T].
type Slice[T any] struct {
	raw []T
}

// SliceOf allocates a new Slice on a and copies values into it.
func SliceOf[T any](a *Arena, values ...T) (Slice[T], error) {
	s, err := NewSlice[T](a, len(values))
	if err != nil {
		return Slice[T]{}, err
	}
	copy(s.raw, values)
	return s, nil
}

// NewSlice allocates a Slice of length n (and the same capacity) on a.
func NewSlice[T any](a *Arena, n int) (Slice[T], error) {
	raw, err := allocTypedArray[T](a, n)
	if err != nil {
		return Slice[T]{}, err
	}
	return Slice[T]{raw: raw[:n]}, nil
}

// Len returns the number of elements currently in the slice.
func (s Slice[T]) Len() int { return len(s.raw) }

// Cap returns the number of elements the slice can hold before its next
// Append reallocates.
func (s Slice[T]) Cap() int { return cap(s.raw) }

// Raw exposes the underlying slice. The result must not be retained past
// the owning Arena's next Reset.
func (s Slice[T]) Raw() []T { return s.raw }

// Load returns the value at index n.
func (s Slice[T]) Load(n int) T { return s.raw[n] }

// Store sets the value at index n.
func (s Slice[T]) Store(n int, v T) { s.raw[n] = v }

// Append appends elems to the slice, reallocating on a (doubling capacity,
// per spec §4.6: "allocate a new region of size max(4, 2×capacity), copy,
// leave the old region stranded") if there isn't enough spare capacity.
func (s Slice[T]) Append(a *Arena, elems ...T) (Slice[T], error) {
	if cap(s.raw)-len(s.raw) < len(elems) {
		grown, err := s.grow(a, len(elems))
		if err != nil {
			return s, err
		}
		s = grown
	}
	s.raw = append(s.raw, elems...)
	return s, nil
}

func (s Slice[T]) grow(a *Arena, n int) (Slice[T], error) {
	newCap := max(4, cap(s.raw)*2, cap(s.raw)+n)
	raw, err := allocTypedArray[T](a, newCap)
	if err != nil {
		return s, err
	}
	copy(raw, s.raw)
	return Slice[T]{raw: raw[:len(s.raw)]}, nil
}

func allocTypedArray[T any](a *Arena, n int) ([]T, error) {
	var zero T
	size, align := int(unsafe.Sizeof(zero)), int(unsafe.Alignof(zero))
	if align > Align {
		panic("arena: over-aligned element type")
	}
	if n == 0 {
		return []T{}, nil
	}

	buf, err := a.AllocUninitializedArray(size, align, n)
	if err != nil {
		return nil, err
	}
	ptr := (*T)(unsafe.Pointer(unsafe.SliceData(buf)))
	raw := unsafe.Slice(ptr, n)
	clear(raw)
	return raw, nil
}
