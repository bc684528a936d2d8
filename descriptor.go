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

import "github.com/pbcore/pbcore/internal/tdp"

// Kind is a field's logical protobuf type: int32, sint32, string, message,
// and so on. Two kinds can share a wire type (int32 and sint32 both encode
// as a varint) yet decode differently, which is why Compile needs Kind and
// not just a wire type.
type Kind = tdp.Kind

// The Kind values a [FieldSpec] may name.
const (
	KindInt32    = tdp.KindInt32
	KindInt64    = tdp.KindInt64
	KindUint32   = tdp.KindUint32
	KindUint64   = tdp.KindUint64
	KindSint32   = tdp.KindSint32
	KindSint64   = tdp.KindSint64
	KindFixed32  = tdp.KindFixed32
	KindFixed64  = tdp.KindFixed64
	KindSfixed32 = tdp.KindSfixed32
	KindSfixed64 = tdp.KindSfixed64
	KindFloat    = tdp.KindFloat
	KindDouble   = tdp.KindDouble
	KindBool     = tdp.KindBool
	KindEnum     = tdp.KindEnum
	KindString   = tdp.KindString
	KindBytes    = tdp.KindBytes
	KindMessage  = tdp.KindMessage
	KindGroup    = tdp.KindGroup
)

// FieldSpec describes one field of a [MessageSpec], the plain Go input
// [Compile] turns into a [Descriptor]. Callers that generate descriptors
// from an external schema (a .proto file, a JSON Schema, a database
// catalog) build FieldSpec values as their generator's output; pbcore
// itself has no opinion on where a FieldSpec comes from.
type FieldSpec = tdp.FieldSpec

// MessageSpec describes one message type as input to [Compile].
type MessageSpec = tdp.MessageSpec

// Descriptor is the compiled, immutable shape of one message type: its
// storage layout, has-bit and oneof bookkeeping, and a dense field-number
// lookup table. One Descriptor is shared by every [Message] of its type.
type Descriptor = tdp.MessageDescriptor

// Compile builds a [Descriptor] from spec, memoizing the result by
// spec.Name for the lifetime of the process: calling Compile twice with
// the same name is cheap and returns the same *Descriptor, even from
// concurrent goroutines. Message types that nest other message types must
// be compiled bottom-up -- a [FieldSpec] referencing a sub-message or
// group names its already-compiled *Descriptor directly via Elem.
func Compile(spec MessageSpec) (*Descriptor, error) {
	return tdp.Compile(spec)
}
