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

package arena_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbcore/pbcore/internal/arena"
)

func TestAllocAligns(t *testing.T) {
	t.Parallel()

	var a arena.Arena
	_, err := a.Alloc(1, 1)
	require.NoError(t, err)

	p, err := a.Alloc(8, 8)
	require.NoError(t, err)
	assert.Len(t, p, 8)
}

func TestAllocGrowsAcrossBlocks(t *testing.T) {
	t.Parallel()

	var a arena.Arena
	const chunk = 4096
	var total int
	for i := 0; i < 1000; i++ {
		buf, err := a.Alloc(chunk, 16)
		require.NoError(t, err)
		require.Len(t, buf, chunk)
		total += chunk
	}

	numBlocks, used := a.Stats()
	assert.GreaterOrEqual(t, numBlocks, 1)
	assert.Equal(t, total, used)
}

func TestOversizedAllocation(t *testing.T) {
	t.Parallel()

	var a arena.Arena
	big, err := a.Alloc(4<<20, 16)
	require.NoError(t, err)
	assert.Len(t, big, 4<<20)

	// A normal small allocation afterwards should still work, and should
	// not be forced into the oversized block.
	small, err := a.Alloc(16, 16)
	require.NoError(t, err)
	assert.Len(t, small, 16)
}

func TestBudgetedAllocatorRefuses(t *testing.T) {
	t.Parallel()

	budget := &arena.Budgeted{Limit: 8 << 10}
	a := arena.NewWithAllocator(budget)

	_, err := a.Alloc(4<<10, 16)
	require.NoError(t, err)

	_, err = a.Alloc(1<<20, 16)
	assert.ErrorIs(t, err, arena.ErrOutOfMemory)
}

func TestResetAllowsReuse(t *testing.T) {
	t.Parallel()

	var a arena.Arena
	_, err := a.Alloc(64, 16)
	require.NoError(t, err)

	a.Reset()

	buf, err := a.Alloc(64, 16)
	require.NoError(t, err)
	assert.Len(t, buf, 64)
}

func TestSliceAppendGrowsAndStrandsOldRegion(t *testing.T) {
	t.Parallel()

	var a arena.Arena
	s, err := arena.NewSlice[int32](&a, 0)
	require.NoError(t, err)

	for i := int32(0); i < 100; i++ {
		s, err = s.Append(&a, i)
		require.NoError(t, err)
	}

	require.Equal(t, 100, s.Len())
	for i := 0; i < 100; i++ {
		assert.Equal(t, int32(i), s.Load(i))
	}
}

func TestSliceOf(t *testing.T) {
	t.Parallel()

	var a arena.Arena
	s, err := arena.SliceOf(&a, uint64(1), uint64(2), uint64(3))
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, s.Raw())
}
