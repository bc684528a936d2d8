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

// DefaultMaxDepth is the default STACK_DEPTH (spec §4.3): the maximum
// number of nested message/group frames a single decode will follow before
// failing with [ErrDepthExceeded].
const DefaultMaxDepth = 64

// Options configures a [Decoder]; [Encoder] takes none. The public With* functions
// that build one of these live in the top-level package, mirroring the
// split the teacher's options.go makes between a public functional-option
// surface and the plain struct the interpreter actually reads.
type Options struct {
	// MaxDepth caps nested message/group recursion.
	MaxDepth int
}

// resolved returns o with zero-valued fields replaced by their defaults.
func (o Options) resolved() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	return o
}
