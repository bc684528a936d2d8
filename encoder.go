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

import "github.com/pbcore/pbcore/internal/vm"

// Sink is the push-based output target an [Encoder] drains into. Write
// offers p and reports how many leading bytes were accepted; if fewer than
// len(p) were taken, needMore is a hint (0 if unknown) for how much
// additional capacity the caller should free up before calling
// [Encoder.Flush] again.
type Sink = vm.Sink

// ByteSink is a [Sink] that always accepts everything, appending to a
// growable in-memory buffer.
type ByteSink = vm.ByteSink

// Encoder renders a [Message] tree to wire bytes and drains them into a
// [Sink], resuming across backpressure.
type Encoder struct {
	e *vm.Encoder
}

// NewEncoder renders msg and returns an Encoder ready to drain it via
// repeated calls to [Encoder.Flush].
func NewEncoder(msg *Message) (*Encoder, error) {
	e, err := vm.NewEncoder(msg.m)
	if err != nil {
		return nil, err
	}
	return &Encoder{e: e}, nil
}

// Flush pushes as much of the rendered message as sink will accept. It
// returns done=true once every byte has been accepted; otherwise the
// caller should free up sink capacity and call Flush again.
func (enc *Encoder) Flush(sink Sink) (done bool, err error) {
	return enc.e.Flush(sink)
}

// Marshal is a convenience wrapper around [NewEncoder] and [Encoder.Flush]
// for the common case of encoding straight into an in-memory buffer. It
// draws its scratch buffer from a shared pool rather than allocating a
// fresh one on every call.
func Marshal(msg *Message) ([]byte, error) {
	enc, err := NewEncoder(msg)
	if err != nil {
		return nil, err
	}
	sink, drop := vm.AcquireByteSink()
	defer drop()
	if _, err := enc.Flush(sink); err != nil {
		return nil, err
	}
	out := make([]byte, len(sink.Buf))
	copy(out, sink.Buf)
	return out, nil
}
