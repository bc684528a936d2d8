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

// Package textformat renders decoded messages as protoscope text
// (https://github.com/protocolbuffers/protoscope): a human-readable,
// round-trippable dump of a raw tag/value stream, useful for debugging a
// failed decode and for writing golden test fixtures by hand instead of
// literal byte slices.
package textformat

import (
	"github.com/protocolbuffers/protoscope"

	"github.com/pbcore/pbcore/internal/vm"
)

// Dump re-encodes msg and renders the resulting wire bytes as protoscope
// text. It always reflects exactly what a byte-for-byte encode of msg would
// produce, rather than walking the descriptor and field storage directly.
func Dump(msg *vm.Message) (string, error) {
	enc, err := vm.NewEncoder(msg)
	if err != nil {
		return "", err
	}
	sink := &vm.ByteSink{}
	if _, err := enc.Flush(sink); err != nil {
		return "", err
	}
	return protoscope.Write(sink.Buf, protoscope.WriterOptions{}), nil
}

// DumpBytes renders raw wire bytes as protoscope text directly, without
// going through a [vm.Message] -- useful for inspecting input a decode
// failed on.
func DumpBytes(data []byte) string {
	return protoscope.Write(data, protoscope.WriterOptions{})
}

// Parse compiles protoscope text into raw wire bytes, the inverse of Dump.
func Parse(text string) ([]byte, error) {
	s := protoscope.NewScanner(text)
	return s.Exec()
}
