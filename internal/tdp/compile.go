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

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/pbcore/pbcore/internal/wire"
)

// maxMetaIndex is the largest has-bit or oneof discriminant index that fits
// in MetaIndex's low 7 bits.
const maxMetaIndex = 0x7F

var (
	compileGroup singleflight.Group
	compiled     sync.Map // message name -> *MessageDescriptor
)

// Compile builds a [MessageDescriptor] from a [MessageSpec], memoizing the
// result by name for the lifetime of the process. A generator that declares
// one package-level descriptor var per message type may still have many
// init-time goroutines reach the same message (e.g. through shared
// submessage types); those concurrent, in-flight calls are collapsed into a
// single compilation via [golang.org/x/sync/singleflight] so the work, and
// any error, is only done once.
func Compile(spec MessageSpec) (*MessageDescriptor, error) {
	if v, ok := compiled.Load(spec.Name); ok {
		return v.(*MessageDescriptor), nil
	}

	v, err, _ := compileGroup.Do(spec.Name, func() (any, error) {
		if v, ok := compiled.Load(spec.Name); ok {
			return v.(*MessageDescriptor), nil
		}
		desc, err := compile(spec)
		if err != nil {
			return nil, err
		}
		actual, _ := compiled.LoadOrStore(spec.Name, desc)
		return actual.(*MessageDescriptor), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*MessageDescriptor), nil
}

func compile(spec MessageSpec) (*MessageDescriptor, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("tdp: message spec has no name")
	}

	seen := make(map[int32]bool, len(spec.Fields))
	oneofIndex := make(map[string]uint8)
	maxNumber := int32(0)

	fields := make([]FieldDescriptor, len(spec.Fields))
	var scalarOff uint32
	var refOff uint32
	var hasBitCount uint8

	for i, fs := range spec.Fields {
		if fs.Number < 1 || int(fs.Number) > wire.MaxFieldNumber {
			return nil, fmt.Errorf("tdp: message %q: field number %d out of range [1, %d]", spec.Name, fs.Number, wire.MaxFieldNumber)
		}
		if n := int32(fs.Number); seen[n] {
			return nil, fmt.Errorf("tdp: message %q: duplicate field number %d", spec.Name, fs.Number)
		} else {
			seen[n] = true
			if n > maxNumber {
				maxNumber = n
			}
		}
		if fs.Kind == KindInvalid {
			return nil, fmt.Errorf("tdp: message %q: field %d has no kind", spec.Name, fs.Number)
		}
		if (fs.Kind == KindMessage || fs.Kind == KindGroup) && fs.Elem == nil {
			return nil, fmt.Errorf("tdp: message %q: field %d is %s but has no Elem descriptor", spec.Name, fs.Number, fs.Kind)
		}
		if fs.OneofGroup != "" && (fs.Repeated || fs.Optional) {
			return nil, fmt.Errorf("tdp: message %q: field %d is in oneof %q but also marked repeated/optional", spec.Name, fs.Number, fs.OneofGroup)
		}

		fd := FieldDescriptor{
			Number:  fs.Number,
			Kind:    fs.Kind,
			Elem:    fs.Elem,
			Default: fs.Default,
		}

		switch {
		case fs.OneofGroup != "":
			fd.Card = CardinalityOneofMember
			idx, ok := oneofIndex[fs.OneofGroup]
			if !ok {
				idx = uint8(len(oneofIndex))
				if idx > maxMetaIndex {
					return nil, fmt.Errorf("tdp: message %q: too many distinct oneofs (max %d)", spec.Name, maxMetaIndex+1)
				}
				oneofIndex[fs.OneofGroup] = idx
			}
			fd.MetaIndex = metaOneofBit | idx
		case fs.Repeated:
			if fs.Packed && fs.Kind.packable() {
				fd.Card = CardinalityRepeatedPacked
			} else {
				fd.Card = CardinalityRepeatedUnpacked
			}
		case fs.Optional:
			fd.Card = CardinalityOptional
		default:
			fd.Card = CardinalitySingular
		}

		if fd.Card == CardinalitySingular || fd.Card == CardinalityOptional {
			if hasBitCount > maxMetaIndex {
				return nil, fmt.Errorf("tdp: message %q: too many presence-tracked fields (max %d)", spec.Name, maxMetaIndex+1)
			}
			fd.MetaIndex = hasBitCount
			hasBitCount++
		}

		fd.WireType = fs.Kind.WireType()
		if fd.Card == CardinalityRepeatedPacked {
			// Packed repeated fields are always length-delimited on the
			// wire, regardless of the element kind's own wire type.
			fd.WireType = protowire.BytesType
		}

		if fs.Kind.IsScalar() && !fd.Card.IsRepeated() {
			fd.Storage = StorageInline
			size, align := fs.Kind.ScalarSize()
			scalarOff = alignUp(scalarOff, uint32(align))
			fd.Offset = scalarOff
			scalarOff += uint32(size)
		} else {
			fd.Storage = StorageRef
			fd.Offset = refOff
			refOff++
		}

		fields[i] = fd
	}

	numberIndex := make([]uint16, maxNumber+1)
	for i := range numberIndex {
		numberIndex[i] = numberIndexEmpty
	}
	for i, fd := range fields {
		numberIndex[fd.Number] = uint16(i)
	}

	hasBitWords := (uint16(hasBitCount) + 31) / 32
	oneofWords := uint16(len(oneofIndex))

	desc := &MessageDescriptor{
		Name:        spec.Name,
		ScalarSize:  scalarOff,
		RefCount:    refOff,
		HasBitWords: hasBitWords,
		OneofWords:  oneofWords,
		Fields:      fields,
		NumberIndex: numberIndex,
		BuildID:     uuid.New(),
	}

	if err := Validate(desc); err != nil {
		return nil, err
	}
	return desc, nil
}

// alignUp rounds off up to the next multiple of align, which must be a
// power of two.
func alignUp(off, align uint32) uint32 {
	return (off + align - 1) &^ (align - 1)
}

