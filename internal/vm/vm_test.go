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

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/pbcore/pbcore/internal/arena"
	"github.com/pbcore/pbcore/internal/tdp"
)

func mustCompile(t *testing.T, spec tdp.MessageSpec) *tdp.MessageDescriptor {
	t.Helper()
	desc, err := tdp.Compile(spec)
	require.NoError(t, err)
	return desc
}

// decodeChunks feeds data to a fresh Decoder over root, split at the given
// offsets (which must be in [0, len(data)] and ascending), then Finishes.
func decodeChunks(t *testing.T, desc *tdp.MessageDescriptor, data []byte, splits ...int) (*Message, *arena.Arena, error) {
	t.Helper()
	a := &arena.Arena{}
	root, err := New(desc, a)
	require.NoError(t, err)

	dec := NewDecoder(root, a, Options{})
	bounds := append(append([]int{}, splits...), len(data))
	start := 0
	for _, end := range bounds {
		n, err := dec.Push(data[start:end])
		if err != nil {
			return root, a, err
		}
		require.Equal(t, end-start, n, "Push should consume the whole chunk on success")
		start = end
	}
	if err := dec.Finish(); err != nil {
		return root, a, err
	}
	return root, a, nil
}

func decodeWhole(t *testing.T, desc *tdp.MessageDescriptor, data []byte) (*Message, *arena.Arena, error) {
	return decodeChunks(t, desc, data)
}

// --- descriptor fixtures, named uniquely per test to avoid colliding in
// tdp's process-lifetime Compile cache. ---

func scalarInt32Desc(t *testing.T, name string) *tdp.MessageDescriptor {
	return mustCompile(t, tdp.MessageSpec{
		Name: name,
		Fields: []tdp.FieldSpec{
			{Number: 1, Kind: tdp.KindInt32},
		},
	})
}

func scalarStringDesc(t *testing.T, name string) *tdp.MessageDescriptor {
	return mustCompile(t, tdp.MessageSpec{
		Name: name,
		Fields: []tdp.FieldSpec{
			{Number: 1, Kind: tdp.KindString},
		},
	})
}

func nestedDesc(t *testing.T, name string) *tdp.MessageDescriptor {
	inner := scalarInt32Desc(t, name+".Inner")
	return mustCompile(t, tdp.MessageSpec{
		Name: name,
		Fields: []tdp.FieldSpec{
			{Number: 2, Kind: tdp.KindMessage, Elem: inner},
		},
	})
}

func packedRepeatedInt32Desc(t *testing.T, name string) *tdp.MessageDescriptor {
	return mustCompile(t, tdp.MessageSpec{
		Name: name,
		Fields: []tdp.FieldSpec{
			{Number: 4, Kind: tdp.KindInt32, Repeated: true, Packed: true},
		},
	})
}

func uint64Desc(t *testing.T, name string) *tdp.MessageDescriptor {
	return mustCompile(t, tdp.MessageSpec{
		Name: name,
		Fields: []tdp.FieldSpec{
			{Number: 1, Kind: tdp.KindUint64},
		},
	})
}

func tagBoundaryDesc(t *testing.T, name string) *tdp.MessageDescriptor {
	return mustCompile(t, tdp.MessageSpec{
		Name: name,
		Fields: []tdp.FieldSpec{
			{Number: 15, Kind: tdp.KindInt32},
			{Number: 16, Kind: tdp.KindInt32},
		},
	})
}

func groupDesc(t *testing.T, name string) *tdp.MessageDescriptor {
	inner := scalarInt32Desc(t, name+".GroupBody")
	return mustCompile(t, tdp.MessageSpec{
		Name: name,
		Fields: []tdp.FieldSpec{
			{Number: 3, Kind: tdp.KindGroup, Elem: inner},
		},
	})
}

// --- seed scenarios (spec §8) ---

func TestSeedScalarInt32(t *testing.T) {
	desc := scalarInt32Desc(t, "seed.ScalarInt32")
	data := []byte{0x08, 0x2A}

	msg, _, err := decodeWhole(t, desc, data)
	require.NoError(t, err)

	f, ok := desc.FieldByNumber(1)
	require.True(t, ok)
	require.True(t, msg.HasBit(mustHasBitIndex(f)))
	require.Equal(t, int32(42), int32(msg.LoadU32(f.Offset)))
}

func TestSeedString(t *testing.T) {
	desc := scalarStringDesc(t, "seed.String")
	data := []byte{0x0A, 0x05, 'H', 'e', 'l', 'l', 'o'}

	msg, _, err := decodeWhole(t, desc, data)
	require.NoError(t, err)

	f, ok := desc.FieldByNumber(1)
	require.True(t, ok)
	s, _ := msg.Ref(f.Offset).(string)
	require.Equal(t, "Hello", s)
}

func TestSeedNestedMessage(t *testing.T) {
	desc := nestedDesc(t, "seed.Nested")
	data := []byte{0x12, 0x02, 0x08, 0x07}

	msg, _, err := decodeWhole(t, desc, data)
	require.NoError(t, err)

	f, ok := desc.FieldByNumber(2)
	require.True(t, ok)
	child, _ := msg.Ref(f.Offset).(*Message)
	require.NotNil(t, child)

	innerF, ok := f.Elem.FieldByNumber(1)
	require.True(t, ok)
	require.Equal(t, int32(7), int32(child.LoadU32(innerF.Offset)))
}

func TestSeedPackedRepeatedInt32(t *testing.T) {
	desc := packedRepeatedInt32Desc(t, "seed.PackedInt32")
	data := []byte{0x22, 0x03, 0x01, 0x02, 0x03}

	msg, _, err := decodeWhole(t, desc, data)
	require.NoError(t, err)

	f, ok := desc.FieldByNumber(4)
	require.True(t, ok)
	s, _ := msg.Ref(f.Offset).(arena.Slice[int32])
	require.Equal(t, []int32{1, 2, 3}, s.Raw())
}

func TestSeedLastWinsScalarMerge(t *testing.T) {
	desc := scalarInt32Desc(t, "seed.LastWins")
	data := []byte{0x08, 0x01, 0x08, 0x02, 0x08, 0x03}

	msg, _, err := decodeWhole(t, desc, data)
	require.NoError(t, err)

	f, ok := desc.FieldByNumber(1)
	require.True(t, ok)
	require.Equal(t, int32(3), int32(msg.LoadU32(f.Offset)))
}

// TestSeedSplitAtEveryOffset is "seed scenario 2" split at every byte
// boundary across two Push calls (spec §8's chunking invariant).
func TestSeedSplitAtEveryOffset(t *testing.T) {
	desc := scalarStringDesc(t, "seed.SplitAtEveryOffset")
	data := []byte{0x0A, 0x05, 'H', 'e', 'l', 'l', 'o'}

	for split := 0; split <= len(data); split++ {
		msg, _, err := decodeChunks(t, desc, data, split)
		require.NoError(t, err, "split at %d", split)

		f, ok := desc.FieldByNumber(1)
		require.True(t, ok)
		s, _ := msg.Ref(f.Offset).(string)
		require.Equal(t, "Hello", s, "split at %d", split)
	}
}

// --- round-trip and chunking-invariant laws ---

func TestRoundTripEncodeDecode(t *testing.T) {
	cases := []struct {
		name string
		desc func(t *testing.T, name string) *tdp.MessageDescriptor
		data []byte
	}{
		{"scalar", scalarInt32Desc, []byte{0x08, 0x2A}},
		{"string", scalarStringDesc, []byte{0x0A, 0x05, 'H', 'e', 'l', 'l', 'o'}},
		{"nested", nestedDesc, []byte{0x12, 0x02, 0x08, 0x07}},
		{"packed", packedRepeatedInt32Desc, []byte{0x22, 0x03, 0x01, 0x02, 0x03}},
	}
	for i, tc := range cases {
		desc := tc.desc(t, "roundtrip"+string(rune('A'+i)))
		msg, _, err := decodeWhole(t, desc, tc.data)
		require.NoError(t, err)

		enc, err := NewEncoder(msg)
		require.NoError(t, err)
		sink := &ByteSink{}
		done, err := enc.Flush(sink)
		require.NoError(t, err)
		require.True(t, done)
		require.Equal(t, tc.data, sink.Buf, tc.name)
	}
}

func TestRoundTripPartialSinkBackpressure(t *testing.T) {
	desc := packedRepeatedInt32Desc(t, "roundtrip.Backpressure")
	data := []byte{0x22, 0x03, 0x01, 0x02, 0x03}
	msg, _, err := decodeWhole(t, desc, data)
	require.NoError(t, err)

	enc, err := NewEncoder(msg)
	require.NoError(t, err)

	// A sink that only ever accepts one byte per call exercises Flush's
	// resume-from-offset path.
	var got []byte
	oneByteSink := sinkFunc(func(p []byte) (int, int) {
		if len(p) == 0 {
			return 0, 0
		}
		got = append(got, p[0])
		return 1, 0
	})
	for {
		done, err := enc.Flush(oneByteSink)
		require.NoError(t, err)
		if done {
			break
		}
	}
	require.Equal(t, data, got)
}

type sinkFunc func(p []byte) (int, int)

func (f sinkFunc) Write(p []byte) (int, int) { return f(p) }

// --- boundary cases ---

func TestMaxVarintUint64(t *testing.T) {
	desc := uint64Desc(t, "boundary.MaxVarint")
	// tag 0x08, then the maximum uint64 value as a 10-byte varint.
	data := append([]byte{0x08}, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01)

	msg, _, err := decodeWhole(t, desc, data)
	require.NoError(t, err)

	f, ok := desc.FieldByNumber(1)
	require.True(t, ok)
	require.Equal(t, uint64(0xFFFFFFFFFFFFFFFF), msg.LoadU64(f.Offset))
}

func TestEmptyString(t *testing.T) {
	desc := scalarStringDesc(t, "boundary.EmptyString")
	data := []byte{0x0A, 0x00}

	msg, _, err := decodeWhole(t, desc, data)
	require.NoError(t, err)

	f, ok := desc.FieldByNumber(1)
	require.True(t, ok)
	s, _ := msg.Ref(f.Offset).(string)
	require.Equal(t, "", s)
	require.True(t, msg.HasBit(mustHasBitIndex(f)))
}

func TestAbsentRepeatedFieldIsEmpty(t *testing.T) {
	desc := packedRepeatedInt32Desc(t, "boundary.AbsentRepeated")
	msg, _, err := decodeWhole(t, desc, nil)
	require.NoError(t, err)

	f, ok := desc.FieldByNumber(4)
	require.True(t, ok)
	s, _ := msg.Ref(f.Offset).(arena.Slice[int32])
	require.Equal(t, 0, s.Len())
}

func TestTagOneVsTwoByteBoundary(t *testing.T) {
	desc := tagBoundaryDesc(t, "boundary.TagWidth")
	// Field 15: tag fits in one byte (15<<3 = 120 = 0x78).
	// Field 16: tag needs two bytes (16<<3 = 128, varint-encoded 0x80 0x01).
	data := []byte{0x78, 0x05, 0x80, 0x01, 0x06}

	msg, _, err := decodeWhole(t, desc, data)
	require.NoError(t, err)

	f15, ok := desc.FieldByNumber(15)
	require.True(t, ok)
	f16, ok := desc.FieldByNumber(16)
	require.True(t, ok)
	require.Equal(t, int32(5), int32(msg.LoadU32(f15.Offset)))
	require.Equal(t, int32(6), int32(msg.LoadU32(f16.Offset)))
}

func TestDepthExceeded(t *testing.T) {
	level2 := scalarInt32Desc(t, "boundary.Depth.Level2")
	level1 := mustCompile(t, tdp.MessageSpec{
		Name:   "boundary.Depth.Level1",
		Fields: []tdp.FieldSpec{{Number: 2, Kind: tdp.KindMessage, Elem: level2}},
	})
	level0 := mustCompile(t, tdp.MessageSpec{
		Name:   "boundary.Depth.Level0",
		Fields: []tdp.FieldSpec{{Number: 2, Kind: tdp.KindMessage, Elem: level1}},
	})

	// field2 -> len2 -> (field2 -> len2 -> (field1=7))
	data := []byte{0x12, 0x04, 0x12, 0x02, 0x08, 0x07}

	a := &arena.Arena{}
	root, err := New(level0, a)
	require.NoError(t, err)
	dec := NewDecoder(root, a, Options{MaxDepth: 2})
	_, err = dec.Push(data)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrDepthExceeded))
}

func TestGroupMatchedEndTag(t *testing.T) {
	desc := groupDesc(t, "boundary.Group.Matched")
	// start-group(field3), field1=5, end-group(field3)
	data := []byte{0x1B, 0x08, 0x05, 0x1C}

	msg, _, err := decodeWhole(t, desc, data)
	require.NoError(t, err)

	f, ok := desc.FieldByNumber(3)
	require.True(t, ok)
	child, _ := msg.Ref(f.Offset).(*Message)
	require.NotNil(t, child)
	innerF, ok := f.Elem.FieldByNumber(1)
	require.True(t, ok)
	require.Equal(t, int32(5), int32(child.LoadU32(innerF.Offset)))
}

func TestGroupMismatchedEndTag(t *testing.T) {
	desc := groupDesc(t, "boundary.Group.Mismatched")
	// start-group(field3), field1=5, end-group(field5) -- wrong field number.
	data := []byte{0x1B, 0x08, 0x05, 0x2C}

	_, _, err := decodeWhole(t, desc, data)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrGroupEndMismatch))
}

func TestUnknownFieldIsSkipped(t *testing.T) {
	desc := scalarInt32Desc(t, "boundary.UnknownField")
	// field99 (varint, unknown) = 1, then field1 = 42.
	data := []byte{0x98, 0x06, 0x01, 0x08, 0x2A}

	msg, _, err := decodeWhole(t, desc, data)
	require.NoError(t, err)

	f, ok := desc.FieldByNumber(1)
	require.True(t, ok)
	require.Equal(t, int32(42), int32(msg.LoadU32(f.Offset)))
}

func TestVarintSpanningChunksAtEveryOffset(t *testing.T) {
	desc := uint64Desc(t, "boundary.VarintSpan")
	data := append([]byte{0x08}, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01)

	for split := 0; split <= len(data); split++ {
		msg, _, err := decodeChunks(t, desc, data, split)
		require.NoError(t, err, "split at %d", split)
		f, ok := desc.FieldByNumber(1)
		require.True(t, ok)
		require.Equal(t, uint64(0xFFFFFFFFFFFFFFFF), msg.LoadU64(f.Offset), "split at %d", split)
	}
}

func TestPackedFieldSpanningChunks(t *testing.T) {
	desc := packedRepeatedInt32Desc(t, "boundary.PackedSpan")
	data := []byte{0x22, 0x03, 0x01, 0x02, 0x03}

	for split := 0; split <= len(data); split++ {
		msg, _, err := decodeChunks(t, desc, data, split)
		require.NoError(t, err, "split at %d", split)
		f, ok := desc.FieldByNumber(4)
		require.True(t, ok)
		s, _ := msg.Ref(f.Offset).(arena.Slice[int32])
		require.Equal(t, []int32{1, 2, 3}, s.Raw(), "split at %d", split)
	}
}

func TestMalformedVarintEleventhByte(t *testing.T) {
	desc := uint64Desc(t, "boundary.MalformedVarint")
	data := append([]byte{0x08}, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01)

	_, _, err := decodeWhole(t, desc, data)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrMalformedVarint))
}

func TestWireTypeAcceptedMergeCompatibility(t *testing.T) {
	f := &tdp.FieldDescriptor{Kind: tdp.KindInt32, Card: tdp.CardinalityRepeatedPacked}
	require.True(t, wireTypeAccepted(f, protowire.VarintType))
	require.True(t, wireTypeAccepted(f, protowire.BytesType))
	require.False(t, wireTypeAccepted(f, protowire.Fixed32Type))

	g := &tdp.FieldDescriptor{Kind: tdp.KindGroup}
	require.True(t, wireTypeAccepted(g, protowire.StartGroupType))
	require.False(t, wireTypeAccepted(g, protowire.BytesType))
}
