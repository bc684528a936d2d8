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

package diag

import "sync"

// Pool is like [sync.Pool], but strongly typed so call sites don't need a
// type assertion on every Get.
type Pool[T any] struct {
	New   func() *T // Called to construct new values when the pool is empty.
	Reset func(*T)  // Called to reset a value before it is handed back out.

	impl sync.Pool
}

// Get returns a cached value of type T and a function that must be called
// once the caller is done with it:
//
//	v, drop := pool.Get()
//	defer drop()
func (p *Pool[T]) Get() (v *T, drop func()) {
	if x, ok := p.impl.Get().(*T); ok {
		v = x
	} else if p.New != nil {
		v = p.New()
	} else {
		v = new(T)
	}

	return v, func() {
		if p.Reset != nil {
			p.Reset(v)
		}
		p.impl.Put(v)
	}
}
