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

import (
	"github.com/pbcore/pbcore/internal/arena"
	"github.com/pbcore/pbcore/internal/vm"
)

// ParseError is returned by [Decoder.Push] and [Decoder.Finish] for any
// malformed-input failure. Use errors.As to recover one from a wrapped
// error, and errors.Is against the Err* sentinels below to classify it.
type ParseError = vm.ParseError

// Sentinels usable with errors.Is against a returned *ParseError.
var (
	ErrOutOfMemory      = vm.ErrOutOfMemory
	ErrTruncated        = vm.ErrTruncated
	ErrMalformedVarint  = vm.ErrMalformedVarint
	ErrFieldNumberRange = vm.ErrFieldNumberRange
	ErrLengthOverflow   = vm.ErrLengthOverflow
	ErrWireTypeMismatch = vm.ErrWireTypeMismatch
	ErrInvalidUTF8      = vm.ErrInvalidUTF8
	ErrDepthExceeded    = vm.ErrDepthExceeded
	ErrGroupEndMismatch = vm.ErrGroupEndMismatch
)

// ErrOutOfArenaMemory is returned when the [Allocator] backing an [Arena]
// refuses a block request directly from [Arena.Alloc] (e.g. building a
// [Message] or growing a repeated field). A refusal mid-decode is reported
// instead as a [ParseError] matching [ErrOutOfMemory]; that error does not
// match ErrOutOfArenaMemory.
var ErrOutOfArenaMemory = arena.ErrOutOfMemory
