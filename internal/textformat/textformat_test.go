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

package textformat_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pbcore/pbcore/internal/arena"
	"github.com/pbcore/pbcore/internal/tdp"
	"github.com/pbcore/pbcore/internal/textformat"
	"github.com/pbcore/pbcore/internal/vm"
)

func TestDumpBytesRoundTripsThroughParse(t *testing.T) {
	data := []byte{0x08, 0x2A}

	text := textformat.DumpBytes(data)
	require.NotEmpty(t, text)

	parsed, err := textformat.Parse(text)
	require.NoError(t, err)
	require.Equal(t, data, parsed)
}

func TestDumpMessage(t *testing.T) {
	desc, err := tdp.Compile(tdp.MessageSpec{
		Name:   "textformat.ScalarInt32",
		Fields: []tdp.FieldSpec{{Number: 1, Kind: tdp.KindInt32}},
	})
	require.NoError(t, err)

	a := &arena.Arena{}
	msg, err := vm.New(desc, a)
	require.NoError(t, err)

	dec := vm.NewDecoder(msg, a, vm.Options{})
	_, err = dec.Push([]byte{0x08, 0x2A})
	require.NoError(t, err)
	require.NoError(t, dec.Finish())

	text, err := textformat.Dump(msg)
	require.NoError(t, err)
	require.NotEmpty(t, text)

	roundTripped, err := textformat.Parse(text)
	require.NoError(t, err)
	require.Equal(t, []byte{0x08, 0x2A}, roundTripped)
}
