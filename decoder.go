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

// Decoder is a resumable, push-driven protobuf decoder: feed it wire bytes
// in arbitrarily sized chunks via [Decoder.Push] and call [Decoder.Finish]
// once the input is exhausted. It never blocks on I/O and never retains a
// reference to a chunk after the Push call that provided it returns.
type Decoder struct {
	d   *vm.Decoder
	msg *Message
}

// NewDecoder returns a Decoder that fills msg, allocating any submessages,
// strings, and repeated-field storage it needs from msg's arena.
func NewDecoder(msg *Message, opts ...DecodeOption) *Decoder {
	return &Decoder{
		d:   vm.NewDecoder(msg.m, msg.m.Arena, resolveDecodeOptions(opts)),
		msg: msg,
	}
}

// Push feeds chunk to the decoder, returning how many leading bytes of
// chunk were consumed -- always len(chunk) on success, since any bytes not
// immediately actionable are buffered internally rather than rejected. A
// nil error does not mean the message is complete, only that every byte
// offered so far has been accounted for; supply the next chunk, or call
// [Decoder.Finish] once there is no more input, to find out whether the
// root message is actually done.
//
// A non-nil error is a [ParseError]: the input is malformed and the
// Decoder must not be used further.
func (dec *Decoder) Push(chunk []byte) (consumed int, err error) {
	return dec.d.Push(chunk)
}

// Finish reports whether the root message is complete: every opened
// message and group frame has been closed and no partial tag, length, or
// value remains pending. It is an error to call Finish before every chunk
// of a well-formed message has been pushed.
func (dec *Decoder) Finish() error {
	return dec.d.Finish()
}
