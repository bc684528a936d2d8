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

// DecodeOption configures a [Decoder] built by [NewDecoder]. Options are
// applied in the order given, each mutating a plain [vm.Options] the
// decoder actually reads -- the public surface stays a small set of
// functions rather than a struct literal callers must keep in sync with
// the interpreter's internals.
type DecodeOption struct {
	apply func(*vm.Options)
}

// WithMaxDepth caps the number of nested message/group frames a decode
// will follow before failing with [ErrDepthExceeded]. The default is
// [vm.DefaultMaxDepth].
func WithMaxDepth(n int) DecodeOption {
	return DecodeOption{apply: func(o *vm.Options) { o.MaxDepth = n }}
}

func resolveDecodeOptions(opts []DecodeOption) vm.Options {
	var o vm.Options
	for _, opt := range opts {
		opt.apply(&o)
	}
	return o
}
