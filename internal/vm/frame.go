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
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/pbcore/pbcore/internal/tdp"
)

// frameKind distinguishes the four shapes of nesting the interpreter
// pushes onto its resume stack (spec §4.3's "resume record").
type frameKind uint8

const (
	// frameMessage is a length-delimited submessage region.
	frameMessage frameKind = iota
	// frameGroup is a tag-delimited group region opened by a known group
	// field; it is closed by a matching end-group tag, not a length.
	frameGroup
	// frameSkipGroup is a group region being discarded because it belongs
	// to an unrecognized field; its content is never inspected for a
	// descriptor, only scanned for balanced start/end group tags.
	frameSkipGroup
	// framePacked is a length-delimited run of back-to-back scalar
	// values for one packed repeated field; it has no tags of its own.
	framePacked
)

// frame is one entry in the decoder's resume stack.
type frame struct {
	kind frameKind

	// desc/msg are valid for frameMessage and frameGroup.
	desc *tdp.MessageDescriptor
	msg  *Message

	// groupNum is the field number that opened this group, valid for
	// frameGroup and frameSkipGroup; the matching end-group tag's field
	// number must equal it.
	groupNum protowire.Number

	// packedField is valid for framePacked: the repeated scalar field
	// whose elements are being read.
	packedField *tdp.FieldDescriptor

	// hardEnd is the absolute cumulative input offset (Decoder.offset)
	// at which this frame's enclosing byte budget runs out. For
	// frameMessage/framePacked this is also this frame's own
	// length-delimited boundary (enforced not to exceed the parent's).
	// For frameGroup/frameSkipGroup it is simply inherited from the
	// parent, since groups carry no length of their own. The root frame
	// uses math.MaxInt64, since the outermost message has no declared
	// length -- only an explicit [Decoder.Finish] call ends it.
	hardEnd int64
}

const unboundedEnd = math.MaxInt64
