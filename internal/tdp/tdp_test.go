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

package tdp_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/pbcore/pbcore/internal/tdp"
)

func TestCompileSimpleMessage(t *testing.T) {
	t.Parallel()

	desc, err := tdp.Compile(tdp.MessageSpec{
		Name: "Seed1",
		Fields: []tdp.FieldSpec{
			{Number: 1, Kind: tdp.KindInt32},
		},
	})
	require.NoError(t, err)

	f, ok := desc.FieldByNumber(1)
	require.True(t, ok)
	assert.Equal(t, tdp.CardinalitySingular, f.Card)
	assert.Equal(t, tdp.StorageInline, f.Storage)
	assert.Equal(t, protowire.VarintType, f.WireType)

	_, ok = desc.FieldByNumber(2)
	assert.False(t, ok)
}

func TestCompileAssignsHasBitsAndRefs(t *testing.T) {
	t.Parallel()

	desc, err := tdp.Compile(tdp.MessageSpec{
		Name: "HasBitsAndRefs",
		Fields: []tdp.FieldSpec{
			{Number: 1, Kind: tdp.KindInt32, Optional: true},
			{Number: 2, Kind: tdp.KindString},
			{Number: 3, Kind: tdp.KindInt64, Repeated: true, Packed: true},
			{Number: 4, Kind: tdp.KindString, Repeated: true},
		},
	})
	require.NoError(t, err)
	require.NoError(t, tdp.Validate(desc))

	f1, _ := desc.FieldByNumber(1)
	idx, ok := f1.HasBitIndex()
	assert.True(t, ok)
	assert.EqualValues(t, 0, idx)
	assert.Equal(t, tdp.StorageInline, f1.Storage)

	f2, _ := desc.FieldByNumber(2)
	assert.Equal(t, tdp.StorageRef, f2.Storage)
	assert.Equal(t, tdp.CardinalitySingular, f2.Card)

	f3, _ := desc.FieldByNumber(3)
	assert.True(t, f3.IsPacked())
	assert.Equal(t, protowire.BytesType, f3.WireType)
	assert.Equal(t, tdp.StorageRef, f3.Storage)

	f4, _ := desc.FieldByNumber(4)
	assert.Equal(t, tdp.CardinalityRepeatedUnpacked, f4.Card)

	assert.EqualValues(t, 1, desc.HasBitWords)
	assert.EqualValues(t, 3, desc.RefCount)
}

func TestCompileOneof(t *testing.T) {
	t.Parallel()

	desc, err := tdp.Compile(tdp.MessageSpec{
		Name: "OneofMsg",
		Fields: []tdp.FieldSpec{
			{Number: 1, Kind: tdp.KindInt32, OneofGroup: "which"},
			{Number: 2, Kind: tdp.KindString, OneofGroup: "which"},
		},
	})
	require.NoError(t, err)

	f1, _ := desc.FieldByNumber(1)
	f2, _ := desc.FieldByNumber(2)
	idx1, ok1 := f1.OneofIndex()
	idx2, ok2 := f2.OneofIndex()
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, idx1, idx2)
	assert.EqualValues(t, 1, desc.OneofWords)
}

func TestCompileRejectsDuplicateFieldNumber(t *testing.T) {
	t.Parallel()

	_, err := tdp.Compile(tdp.MessageSpec{
		Name: "Dup",
		Fields: []tdp.FieldSpec{
			{Number: 1, Kind: tdp.KindInt32},
			{Number: 1, Kind: tdp.KindString},
		},
	})
	assert.Error(t, err)
}

func TestCompileRejectsMessageFieldWithoutElem(t *testing.T) {
	t.Parallel()

	_, err := tdp.Compile(tdp.MessageSpec{
		Name: "Bad",
		Fields: []tdp.FieldSpec{
			{Number: 1, Kind: tdp.KindMessage},
		},
	})
	assert.Error(t, err)
}

func TestCompileNestedMessage(t *testing.T) {
	t.Parallel()

	inner, err := tdp.Compile(tdp.MessageSpec{
		Name: "Inner",
		Fields: []tdp.FieldSpec{
			{Number: 1, Kind: tdp.KindInt32},
		},
	})
	require.NoError(t, err)

	outer, err := tdp.Compile(tdp.MessageSpec{
		Name: "Outer",
		Fields: []tdp.FieldSpec{
			{Number: 1, Kind: tdp.KindMessage, Elem: inner},
		},
	})
	require.NoError(t, err)

	f, ok := outer.FieldByNumber(1)
	require.True(t, ok)
	assert.Same(t, inner, f.Elem)
}

func TestCompileDeduplicatesConcurrentCompiles(t *testing.T) {
	t.Parallel()

	spec := tdp.MessageSpec{
		Name: "Concurrent",
		Fields: []tdp.FieldSpec{
			{Number: 1, Kind: tdp.KindBool},
		},
	}

	const n = 16
	results := make([]*tdp.MessageDescriptor, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			d, err := tdp.Compile(spec)
			require.NoError(t, err)
			results[i] = d
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestValidateCatchesCorruptDescriptor(t *testing.T) {
	t.Parallel()

	desc, err := tdp.Compile(tdp.MessageSpec{
		Name:   "Corrupt",
		Fields: []tdp.FieldSpec{{Number: 1, Kind: tdp.KindInt32}},
	})
	require.NoError(t, err)

	desc.ScalarSize = 0
	assert.Error(t, tdp.Validate(desc))
}
