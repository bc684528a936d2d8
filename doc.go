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

// Package pbcore is a compact, table-driven protobuf wire-format codec,
// built around three pieces: a bump-allocating [Arena] that owns every
// message a decode produces, a descriptor ([Descriptor]) compiled once per
// message type from a plain Go description of its fields, and a resumable
// push decoder/encoder that can be fed input in arbitrarily sized chunks
// without blocking on I/O.
//
// To decode a message, compile its [Descriptor] once with [Compile], then
// create a [Message] on an [Arena] and drive a [Decoder] with [Decoder.Push]
// calls until [Decoder.Finish] succeeds:
//
//	desc, err := pbcore.Compile(spec)
//	a := pbcore.NewArena()
//	msg, err := pbcore.NewMessage(desc, a)
//	dec := pbcore.NewDecoder(msg)
//	for more input available {
//		if _, err := dec.Push(chunk); err != nil { ... }
//	}
//	if err := dec.Finish(); err != nil { ... }
//
// [Message] exposes a reflection-free accessor surface keyed by field
// number -- Has/Get/Set/Clear/Append -- rather than a dynamic-message
// interface: see [Message] and §1 of this package's design notes for why
// that surface, and not protoreflect-style dynamic messages, is the
// in-scope one.
//
// # Support status
//
// This package implements decoding, encoding, and a generic accessor
// surface for any message shape describable by [MessageSpec]. It does not
// implement a .proto-file-driven code generator -- callers construct
// [MessageSpec] values directly or generate them from whatever schema
// representation they have.
package pbcore
