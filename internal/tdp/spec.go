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

package tdp

import "google.golang.org/protobuf/encoding/protowire"

// FieldSpec is the uncompiled description of one field, as a .proto-driven
// generator (out of scope; see spec §1) would supply it to [Compile]. It
// says what the field is, not how it is laid out in memory — Compile
// derives storage, has-bit, and oneof assignment.
type FieldSpec struct {
	Number protowire.Number
	Kind   Kind

	// Repeated marks a repeated field. Packed is only consulted when
	// Repeated is true and Kind is a packable scalar kind; it selects
	// packed encoding for output (decode always accepts either form, per
	// spec §4.4's merge-compatibility rule).
	Repeated bool
	Packed   bool

	// Optional marks a field as explicitly presence-tracked (proto3
	// "optional"). Plain singular fields are also assigned a has-bit by
	// Compile -- repeated fields are the only ones that don't track
	// presence via a has-bit or oneof discriminant, since presence for
	// them means "the reference-table slot has elements."
	Optional bool

	// OneofGroup names the oneof this field belongs to; empty if none.
	// Fields sharing the same non-empty OneofGroup within a MessageSpec
	// share one discriminant word.
	OneofGroup string

	// Elem is the child message descriptor for KindMessage/KindGroup
	// fields. Must already be compiled (message types compile bottom-up).
	Elem *MessageDescriptor

	// Default holds an explicit non-zero default, or nil for the language
	// zero value.
	Default []byte
}

// MessageSpec is the uncompiled description of one message type.
type MessageSpec struct {
	Name   string
	Fields []FieldSpec
}
