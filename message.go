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
	"encoding/binary"
	"errors"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/pbcore/pbcore/internal/arena"
	"github.com/pbcore/pbcore/internal/tdp"
	"github.com/pbcore/pbcore/internal/vm"
)

// Errors returned by the field accessor surface below, distinct from the
// wire-level [ParseError] taxonomy: these describe a caller misusing a
// [Descriptor] rather than malformed input.
var (
	ErrUnknownField    = errors.New("pbcore: no field with that number")
	ErrFieldIsRepeated = errors.New("pbcore: field is repeated; use the Repeated accessors")
	ErrFieldNotScalar  = errors.New("pbcore: field is not a scalar, or T does not match its kind")
)

// Message is the reflection-free accessor surface this package exposes in
// place of a dynamic-message API (see the package doc for why): every
// field is addressed by its wire field number, and each accessor fails
// loudly if that number doesn't name a field of the requested shape,
// rather than silently reading zero.
//
// A Message is only valid for the lifetime of the [Arena] it was built on.
type Message struct {
	m *vm.Message
}

// NewMessage allocates a zeroed Message of desc's shape on a.
func NewMessage(desc *Descriptor, a *Arena) (*Message, error) {
	m, err := vm.New(desc, a)
	if err != nil {
		return nil, err
	}
	return &Message{m: m}, nil
}

// Descriptor returns the compiled shape this Message was built from.
func (msg *Message) Descriptor() *Descriptor { return msg.m.Desc }

// Arena returns the arena this Message's storage was allocated from.
func (msg *Message) Arena() *Arena { return msg.m.Arena }

func (msg *Message) field(num protowire.Number) (*tdp.FieldDescriptor, error) {
	f, ok := msg.m.Desc.FieldByNumber(num)
	if !ok {
		return nil, ErrUnknownField
	}
	return f, nil
}

// Has reports whether field num is present: for a singular or optional
// field, whether its has-bit is set; for a oneof member, whether it is the
// active member; for a repeated field, whether it has at least one
// element.
func (msg *Message) Has(num protowire.Number) (bool, error) {
	f, err := msg.field(num)
	if err != nil {
		return false, err
	}
	if f.Card.IsRepeated() {
		return repeatedLen(msg.m, f) > 0, nil
	}
	if idx, ok := f.OneofIndex(); ok {
		return msg.m.OneofDiscriminant(idx) == uint32(f.Number), nil
	}
	if idx, ok := f.HasBitIndex(); ok {
		return msg.m.HasBit(idx), nil
	}
	return true, nil
}

// Clear removes field num's value, resetting it to absent. For a scalar or
// message field this clears its has-bit (or oneof discriminant); for a
// repeated field it truncates it to empty.
func (msg *Message) Clear(num protowire.Number) error {
	f, err := msg.field(num)
	if err != nil {
		return err
	}
	if f.Card.IsRepeated() {
		clearRepeated(msg.m, f)
		return nil
	}
	if idx, ok := f.OneofIndex(); ok {
		if msg.m.OneofDiscriminant(idx) == uint32(f.Number) {
			msg.m.ClearOneofDiscriminant(idx)
		}
		return nil
	}
	if idx, ok := f.HasBitIndex(); ok {
		msg.m.ClearHasBit(idx)
	}
	return nil
}

// WhichOneof returns the field number of the currently active member of
// the oneof that field num belongs to, or 0 if none is set. It returns an
// error if num does not name a oneof member.
func (msg *Message) WhichOneof(num protowire.Number) (protowire.Number, error) {
	f, err := msg.field(num)
	if err != nil {
		return 0, err
	}
	idx, ok := f.OneofIndex()
	if !ok {
		return 0, ErrFieldNotScalar
	}
	return protowire.Number(msg.m.OneofDiscriminant(idx)), nil
}

func repeatedLen(m *vm.Message, f *tdp.FieldDescriptor) int {
	switch f.Kind {
	case tdp.KindMessage, tdp.KindGroup:
		list, _ := m.Ref(f.Offset).([]*vm.Message)
		return len(list)
	case tdp.KindString:
		list, _ := m.Ref(f.Offset).([]string)
		return len(list)
	case tdp.KindBytes:
		list, _ := m.Ref(f.Offset).([][]byte)
		return len(list)
	default:
		return repeatedScalarLen(m, f)
	}
}

func clearRepeated(m *vm.Message, f *tdp.FieldDescriptor) {
	switch f.Kind {
	case tdp.KindMessage, tdp.KindGroup:
		m.SetRef(f.Offset, []*vm.Message(nil))
	case tdp.KindString:
		m.SetRef(f.Offset, []string(nil))
	case tdp.KindBytes:
		m.SetRef(f.Offset, [][]byte(nil))
	default:
		clearRepeatedScalar(m, f)
	}
}

// scalar is the set of Go types the generic scalar accessors below support.
// Storage holds each field's natural Go-typed value -- sint32/sint64 are
// already zigzag-decoded by the time they reach storage (see
// [vm.Message]) -- so one generic accessor per T covers every Kind that
// happens to share T's representation.
type scalar interface {
	~bool | ~int32 | ~uint32 | ~float32 | ~int64 | ~uint64 | ~float64
}

// GetScalar reads field num's value as T, or its declared default (the
// language zero value if the descriptor set none) if absent.
// It returns [ErrFieldIsRepeated] if num is repeated, and
// [ErrFieldNotScalar] if its Kind's storage representation doesn't match T
// (for example requesting int64 for a field declared int32).
func GetScalar[T scalar](msg *Message, num protowire.Number) (T, error) {
	var zero T
	f, err := msg.field(num)
	if err != nil {
		return zero, err
	}
	if f.Card.IsRepeated() {
		return zero, ErrFieldIsRepeated
	}
	out, ok := loadScalarAs[T](msg.m, f)
	if !ok {
		return zero, ErrFieldNotScalar
	}
	present, _ := msg.Has(num)
	if !present {
		return scalarDefault[T](f), nil
	}
	return out, nil
}

// SetScalar stores v as field num's value and marks it present.
func SetScalar[T scalar](msg *Message, num protowire.Number, v T) error {
	f, err := msg.field(num)
	if err != nil {
		return err
	}
	if f.Card.IsRepeated() {
		return ErrFieldIsRepeated
	}
	if !storeScalarAs(msg.m, f, v) {
		return ErrFieldNotScalar
	}
	if idx, ok := f.OneofIndex(); ok {
		msg.m.SetOneofDiscriminant(idx, uint32(f.Number))
	} else if idx, ok := f.HasBitIndex(); ok {
		msg.m.SetHasBit(idx)
	}
	return nil
}

// GetRepeatedScalar returns a copy of repeated scalar field num's elements.
func GetRepeatedScalar[T scalar](msg *Message, num protowire.Number) ([]T, error) {
	f, err := msg.field(num)
	if err != nil {
		return nil, err
	}
	if !f.Card.IsRepeated() {
		return nil, ErrFieldNotScalar
	}
	s, ok := msg.m.Ref(f.Offset).(arena.Slice[T])
	if !ok {
		if msg.m.Ref(f.Offset) == nil {
			return nil, nil
		}
		return nil, ErrFieldNotScalar
	}
	raw := s.Raw()
	out := make([]T, len(raw))
	copy(out, raw)
	return out, nil
}

// AppendScalar appends v to repeated scalar field num, growing its backing
// storage on msg's arena as needed.
func AppendScalar[T scalar](msg *Message, num protowire.Number, v T) error {
	f, err := msg.field(num)
	if err != nil {
		return err
	}
	if !f.Card.IsRepeated() {
		return ErrFieldNotScalar
	}
	var match bool
	switch any(v).(type) {
	case bool:
		match = f.Kind == tdp.KindBool
	case int32:
		match = isInt32Kind(f.Kind)
	case uint32:
		match = isUint32Kind(f.Kind)
	case float32:
		match = f.Kind == tdp.KindFloat
	case int64:
		match = isInt64Kind(f.Kind)
	case uint64:
		match = isUint64Kind(f.Kind)
	case float64:
		match = f.Kind == tdp.KindDouble
	}
	if !match {
		return ErrFieldNotScalar
	}
	cur, _ := msg.m.Ref(f.Offset).(arena.Slice[T])
	grown, err := cur.Append(msg.m.Arena, v)
	if err != nil {
		return err
	}
	msg.m.SetRef(f.Offset, grown)
	return nil
}

// scalarDefault decodes f.Default -- a little-endian, zero-extended encoding
// of the field's declared non-zero default (spec §3's "pointer to default
// bytes") -- as T, or returns T's zero value if the descriptor set none.
func scalarDefault[T scalar](f *tdp.FieldDescriptor) T {
	var zero T
	if len(f.Default) == 0 {
		return zero
	}
	switch p := any(&zero).(type) {
	case *bool:
		*p = f.Default[0] != 0
	case *int32:
		*p = int32(binary.LittleEndian.Uint32(f.Default))
	case *uint32:
		*p = binary.LittleEndian.Uint32(f.Default)
	case *float32:
		*p = math.Float32frombits(binary.LittleEndian.Uint32(f.Default))
	case *int64:
		*p = int64(binary.LittleEndian.Uint64(f.Default))
	case *uint64:
		*p = binary.LittleEndian.Uint64(f.Default)
	case *float64:
		*p = math.Float64frombits(binary.LittleEndian.Uint64(f.Default))
	}
	return zero
}

func loadScalarAs[T scalar](m *vm.Message, f *tdp.FieldDescriptor) (T, bool) {
	var zero T
	switch p := any(&zero).(type) {
	case *bool:
		if f.Kind == tdp.KindBool {
			*p = m.LoadBool(f.Offset)
			return zero, true
		}
	case *int32:
		if isInt32Kind(f.Kind) {
			*p = int32(m.LoadU32(f.Offset))
			return zero, true
		}
	case *uint32:
		if isUint32Kind(f.Kind) {
			*p = m.LoadU32(f.Offset)
			return zero, true
		}
	case *float32:
		if f.Kind == tdp.KindFloat {
			*p = math.Float32frombits(m.LoadU32(f.Offset))
			return zero, true
		}
	case *int64:
		if isInt64Kind(f.Kind) {
			*p = int64(m.LoadU64(f.Offset))
			return zero, true
		}
	case *uint64:
		if isUint64Kind(f.Kind) {
			*p = m.LoadU64(f.Offset)
			return zero, true
		}
	case *float64:
		if f.Kind == tdp.KindDouble {
			*p = math.Float64frombits(m.LoadU64(f.Offset))
			return zero, true
		}
	}
	return zero, false
}

func storeScalarAs[T scalar](m *vm.Message, f *tdp.FieldDescriptor, v T) bool {
	switch p := any(v).(type) {
	case bool:
		if f.Kind == tdp.KindBool {
			m.StoreBool(f.Offset, p)
			return true
		}
	case int32:
		if isInt32Kind(f.Kind) {
			m.StoreU32(f.Offset, uint32(p))
			return true
		}
	case uint32:
		if isUint32Kind(f.Kind) {
			m.StoreU32(f.Offset, p)
			return true
		}
	case float32:
		if f.Kind == tdp.KindFloat {
			m.StoreU32(f.Offset, math.Float32bits(p))
			return true
		}
	case int64:
		if isInt64Kind(f.Kind) {
			m.StoreU64(f.Offset, uint64(p))
			return true
		}
	case uint64:
		if isUint64Kind(f.Kind) {
			m.StoreU64(f.Offset, p)
			return true
		}
	case float64:
		if f.Kind == tdp.KindDouble {
			m.StoreU64(f.Offset, math.Float64bits(p))
			return true
		}
	}
	return false
}

func isInt32Kind(k tdp.Kind) bool {
	return k == tdp.KindInt32 || k == tdp.KindSint32 || k == tdp.KindSfixed32 || k == tdp.KindEnum
}

func isUint32Kind(k tdp.Kind) bool {
	return k == tdp.KindUint32 || k == tdp.KindFixed32
}

func isInt64Kind(k tdp.Kind) bool {
	return k == tdp.KindInt64 || k == tdp.KindSint64 || k == tdp.KindSfixed64
}

func isUint64Kind(k tdp.Kind) bool {
	return k == tdp.KindUint64 || k == tdp.KindFixed64
}

func repeatedScalarLen(m *vm.Message, f *tdp.FieldDescriptor) int {
	switch f.Kind {
	case tdp.KindBool:
		s, _ := m.Ref(f.Offset).(arena.Slice[bool])
		return s.Len()
	case tdp.KindFloat:
		s, _ := m.Ref(f.Offset).(arena.Slice[float32])
		return s.Len()
	case tdp.KindDouble:
		s, _ := m.Ref(f.Offset).(arena.Slice[float64])
		return s.Len()
	case tdp.KindInt64, tdp.KindSint64, tdp.KindSfixed64:
		s, _ := m.Ref(f.Offset).(arena.Slice[int64])
		return s.Len()
	case tdp.KindUint64, tdp.KindFixed64:
		s, _ := m.Ref(f.Offset).(arena.Slice[uint64])
		return s.Len()
	case tdp.KindUint32, tdp.KindFixed32:
		s, _ := m.Ref(f.Offset).(arena.Slice[uint32])
		return s.Len()
	default: // Int32, Sint32, Sfixed32, Enum
		s, _ := m.Ref(f.Offset).(arena.Slice[int32])
		return s.Len()
	}
}

func clearRepeatedScalar(m *vm.Message, f *tdp.FieldDescriptor) {
	switch f.Kind {
	case tdp.KindBool:
		m.SetRef(f.Offset, arena.Slice[bool]{})
	case tdp.KindFloat:
		m.SetRef(f.Offset, arena.Slice[float32]{})
	case tdp.KindDouble:
		m.SetRef(f.Offset, arena.Slice[float64]{})
	case tdp.KindInt64, tdp.KindSint64, tdp.KindSfixed64:
		m.SetRef(f.Offset, arena.Slice[int64]{})
	case tdp.KindUint64, tdp.KindFixed64:
		m.SetRef(f.Offset, arena.Slice[uint64]{})
	case tdp.KindUint32, tdp.KindFixed32:
		m.SetRef(f.Offset, arena.Slice[uint32]{})
	default:
		m.SetRef(f.Offset, arena.Slice[int32]{})
	}
}

// GetString returns field num's string value, or its declared default (""
// if none) if absent.
func (msg *Message) GetString(num protowire.Number) (string, error) {
	f, err := msg.field(num)
	if err != nil {
		return "", err
	}
	if f.Kind != tdp.KindString || f.Card.IsRepeated() {
		return "", ErrFieldNotScalar
	}
	present, _ := msg.Has(num)
	if !present {
		return string(f.Default), nil
	}
	s, _ := msg.m.Ref(f.Offset).(string)
	return s, nil
}

// SetString stores v as field num's string value.
func (msg *Message) SetString(num protowire.Number, v string) error {
	f, err := msg.field(num)
	if err != nil {
		return err
	}
	if f.Kind != tdp.KindString || f.Card.IsRepeated() {
		return ErrFieldNotScalar
	}
	msg.m.SetRef(f.Offset, v)
	if idx, ok := f.OneofIndex(); ok {
		msg.m.SetOneofDiscriminant(idx, uint32(f.Number))
	} else if idx, ok := f.HasBitIndex(); ok {
		msg.m.SetHasBit(idx)
	}
	return nil
}

// GetBytes returns field num's bytes value, or its declared default (nil if
// none) if absent.
func (msg *Message) GetBytes(num protowire.Number) ([]byte, error) {
	f, err := msg.field(num)
	if err != nil {
		return nil, err
	}
	if f.Kind != tdp.KindBytes || f.Card.IsRepeated() {
		return nil, ErrFieldNotScalar
	}
	present, _ := msg.Has(num)
	if !present {
		return f.Default, nil
	}
	b, _ := msg.m.Ref(f.Offset).([]byte)
	return b, nil
}

// SetBytes stores v as field num's bytes value.
func (msg *Message) SetBytes(num protowire.Number, v []byte) error {
	f, err := msg.field(num)
	if err != nil {
		return err
	}
	if f.Kind != tdp.KindBytes || f.Card.IsRepeated() {
		return ErrFieldNotScalar
	}
	msg.m.SetRef(f.Offset, v)
	if idx, ok := f.OneofIndex(); ok {
		msg.m.SetOneofDiscriminant(idx, uint32(f.Number))
	} else if idx, ok := f.HasBitIndex(); ok {
		msg.m.SetHasBit(idx)
	}
	return nil
}

// GetMessage returns field num's sub-message value, or nil if absent.
func (msg *Message) GetMessage(num protowire.Number) (*Message, error) {
	f, err := msg.field(num)
	if err != nil {
		return nil, err
	}
	if (f.Kind != tdp.KindMessage && f.Kind != tdp.KindGroup) || f.Card.IsRepeated() {
		return nil, ErrFieldNotScalar
	}
	present, _ := msg.Has(num)
	if !present {
		return nil, nil
	}
	child, _ := msg.m.Ref(f.Offset).(*vm.Message)
	if child == nil {
		return nil, nil
	}
	return &Message{m: child}, nil
}

// SetMessage stores v as field num's sub-message value. v must have been
// built on the same arena as msg.
func (msg *Message) SetMessage(num protowire.Number, v *Message) error {
	f, err := msg.field(num)
	if err != nil {
		return err
	}
	if (f.Kind != tdp.KindMessage && f.Kind != tdp.KindGroup) || f.Card.IsRepeated() {
		return ErrFieldNotScalar
	}
	var child *vm.Message
	if v != nil {
		child = v.m
	}
	msg.m.SetRef(f.Offset, child)
	if idx, ok := f.OneofIndex(); ok {
		msg.m.SetOneofDiscriminant(idx, uint32(f.Number))
	} else if idx, ok := f.HasBitIndex(); ok {
		msg.m.SetHasBit(idx)
	}
	return nil
}

// GetRepeatedMessage returns a copy of repeated message/group field num's
// elements.
func (msg *Message) GetRepeatedMessage(num protowire.Number) ([]*Message, error) {
	f, err := msg.field(num)
	if err != nil {
		return nil, err
	}
	if (f.Kind != tdp.KindMessage && f.Kind != tdp.KindGroup) || !f.Card.IsRepeated() {
		return nil, ErrFieldNotScalar
	}
	list, _ := msg.m.Ref(f.Offset).([]*vm.Message)
	out := make([]*Message, len(list))
	for i, child := range list {
		out[i] = &Message{m: child}
	}
	return out, nil
}

// AppendMessage appends v to repeated message/group field num.
func (msg *Message) AppendMessage(num protowire.Number, v *Message) error {
	f, err := msg.field(num)
	if err != nil {
		return err
	}
	if (f.Kind != tdp.KindMessage && f.Kind != tdp.KindGroup) || !f.Card.IsRepeated() {
		return ErrFieldNotScalar
	}
	list, _ := msg.m.Ref(f.Offset).([]*vm.Message)
	msg.m.SetRef(f.Offset, append(list, v.m))
	return nil
}

// GetRepeatedString returns a copy of repeated string field num's elements.
func (msg *Message) GetRepeatedString(num protowire.Number) ([]string, error) {
	f, err := msg.field(num)
	if err != nil {
		return nil, err
	}
	if f.Kind != tdp.KindString || !f.Card.IsRepeated() {
		return nil, ErrFieldNotScalar
	}
	list, _ := msg.m.Ref(f.Offset).([]string)
	out := make([]string, len(list))
	copy(out, list)
	return out, nil
}

// AppendString appends v to repeated string field num.
func (msg *Message) AppendString(num protowire.Number, v string) error {
	f, err := msg.field(num)
	if err != nil {
		return err
	}
	if f.Kind != tdp.KindString || !f.Card.IsRepeated() {
		return ErrFieldNotScalar
	}
	list, _ := msg.m.Ref(f.Offset).([]string)
	msg.m.SetRef(f.Offset, append(list, v))
	return nil
}

// GetRepeatedBytes returns a copy of repeated bytes field num's elements.
func (msg *Message) GetRepeatedBytes(num protowire.Number) ([][]byte, error) {
	f, err := msg.field(num)
	if err != nil {
		return nil, err
	}
	if f.Kind != tdp.KindBytes || !f.Card.IsRepeated() {
		return nil, ErrFieldNotScalar
	}
	list, _ := msg.m.Ref(f.Offset).([][]byte)
	out := make([][]byte, len(list))
	copy(out, list)
	return out, nil
}

// AppendBytes appends v to repeated bytes field num.
func (msg *Message) AppendBytes(num protowire.Number, v []byte) error {
	f, err := msg.field(num)
	if err != nil {
		return err
	}
	if f.Kind != tdp.KindBytes || !f.Card.IsRepeated() {
		return ErrFieldNotScalar
	}
	list, _ := msg.m.Ref(f.Offset).([][]byte)
	msg.m.SetRef(f.Offset, append(list, v))
	return nil
}
