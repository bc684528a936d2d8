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

package wire_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/pbcore/pbcore/internal/wire"
)

func TestVarintRoundTrip(t *testing.T) {
	t.Parallel()

	values := []uint64{0, 1, 127, 128, 300, 1 << 20, math.MaxUint32, math.MaxUint64}
	for _, v := range values {
		buf := wire.AppendVarint(nil, v)
		assert.LessOrEqual(t, len(buf), wire.MaxVarintLen)

		got, n, err := wire.ReadVarint(buf)
		require.NoError(t, err)
		assert.Equal(t, len(buf), n)
		assert.Equal(t, v, got)
		assert.Equal(t, len(buf), wire.SizeVarint(v))
	}
}

func TestVarintMaxTenBytes(t *testing.T) {
	t.Parallel()

	buf := wire.AppendVarint(nil, math.MaxUint64)
	assert.Len(t, buf, 10)

	v, n, err := wire.ReadVarint(buf)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, uint64(math.MaxUint64), v)
}

func TestVarintNeedMore(t *testing.T) {
	t.Parallel()

	full := wire.AppendVarint(nil, 1<<40)
	require.Greater(t, len(full), 1)

	for i := 1; i < len(full); i++ {
		_, _, err := wire.ReadVarint(full[:i])
		assert.ErrorIs(t, err, wire.ErrNeedMore, "prefix length %d", i)
	}
}

func TestVarintMalformedEleventhByte(t *testing.T) {
	t.Parallel()

	buf := make([]byte, 10)
	for i := range buf {
		buf[i] = 0xff
	}
	// The 10th byte's top bit set means an 11th byte would follow.
	_, _, err := wire.ReadVarint(buf)
	assert.ErrorIs(t, err, wire.ErrMalformedVarint)
}

func TestZigZagRoundTripFullRange(t *testing.T) {
	t.Parallel()

	samples := []int64{0, 1, -1, 2, -2, math.MaxInt64, math.MinInt64, 1 << 30, -(1 << 30)}
	for _, n := range samples {
		z := wire.ZigZagEncode(n)
		assert.Equal(t, n, wire.ZigZagDecode(z))
	}
}

func TestZigZagMatchesProtowire(t *testing.T) {
	t.Parallel()

	samples := []int64{0, 1, -1, 123456, -123456}
	for _, n := range samples {
		assert.Equal(t, protowire.EncodeZigZag(n), wire.ZigZagEncode(n))
		assert.Equal(t, protowire.DecodeZigZag(wire.ZigZagEncode(n)), wire.ZigZagDecode(wire.ZigZagEncode(n)))
	}
}

func TestFixed32RoundTrip(t *testing.T) {
	t.Parallel()

	buf := wire.AppendFixed32(nil, 0xdeadbeef)
	v, err := wire.ReadFixed32(buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), v)

	_, err = wire.ReadFixed32(buf[:3])
	assert.ErrorIs(t, err, wire.ErrNeedMore)
}

func TestFixed64RoundTrip(t *testing.T) {
	t.Parallel()

	buf := wire.AppendFixed64(nil, 0x0123456789abcdef)
	v, err := wire.ReadFixed64(buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0123456789abcdef), v)

	_, err = wire.ReadFixed64(buf[:7])
	assert.ErrorIs(t, err, wire.ErrNeedMore)
}

func TestTagOneVsTwoByteBoundary(t *testing.T) {
	t.Parallel()

	tag15 := wire.MakeTag(15, protowire.VarintType)
	assert.Equal(t, 1, wire.SizeVarint(tag15))
	assert.Equal(t, 1, wire.SizeTag(15))

	tag16 := wire.MakeTag(16, protowire.VarintType)
	assert.Equal(t, 2, wire.SizeVarint(tag16))
	assert.Equal(t, 2, wire.SizeTag(16))
}

func TestSplitTagRejectsReservedWireType(t *testing.T) {
	t.Parallel()

	_, _, err := wire.SplitTag(wire.MakeTag(1, 6))
	assert.ErrorIs(t, err, wire.ErrReservedWireType)
}

func TestSplitTagRejectsFieldNumberRange(t *testing.T) {
	t.Parallel()

	_, _, err := wire.SplitTag(uint64(0)<<3 | 0)
	assert.ErrorIs(t, err, wire.ErrFieldNumberRange)

	tooLarge := wire.MakeTag(wire.MaxFieldNumber+1, protowire.VarintType)
	_, _, err = wire.SplitTag(tooLarge)
	assert.ErrorIs(t, err, wire.ErrFieldNumberRange)
}

func TestSeedScenarioOneTag(t *testing.T) {
	t.Parallel()

	// `08 2A`: field 1, varint wire type, value 42.
	data := []byte{0x08, 0x2A}
	tag, n, err := wire.ReadVarint(data)
	require.NoError(t, err)
	num, wt, err := wire.SplitTag(tag)
	require.NoError(t, err)
	assert.EqualValues(t, 1, num)
	assert.Equal(t, protowire.VarintType, wt)

	val, n2, err := wire.ReadVarint(data[n:])
	require.NoError(t, err)
	assert.Equal(t, uint64(42), val)
	assert.Equal(t, 1, n2)
}
