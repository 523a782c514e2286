package ext

import (
	"github.com/wippyai/ffi-struct/codec"
	"github.com/wippyai/ffi-struct/errors"
	"github.com/wippyai/ffi-struct/internal/coerce"
	"github.com/wippyai/ffi-struct/layout"
	"github.com/wippyai/ffi-struct/region"
)

type bitfieldType struct {
	storage codec.NativeType
	shift   uint8
	width   uint8
}

// Bitfield is an unsigned slice of width bits starting shift bits into an
// unsigned storage unit. Put masks the value and keeps the other bits of
// the unit, so several bitfields can overlay one unit.
func Bitfield(storage codec.NativeType, shift, width uint8) Type {
	return bitfieldType{storage: storage, shift: shift, width: width}
}

func (b bitfieldType) unit() uint32 {
	switch b.storage {
	case codec.UInt8:
		return 1
	case codec.UInt16:
		return 2
	case codec.UInt32:
		return 4
	case codec.UInt64:
		return 8
	}
	return 0
}

func (b bitfieldType) Size(uint32) uint32 {
	return b.unit()
}

func (b bitfieldType) Align(uint32) uint32 {
	if u := b.unit(); u > 0 {
		return u
	}
	return 1
}

func (b bitfieldType) Bind(offset, _ uint32) (layout.Extension, error) {
	unit := b.unit()
	if unit == 0 {
		return nil, errors.InvalidLayout(nil, "bitfield storage %s is not an unsigned integer", b.storage)
	}
	if b.width == 0 || uint32(b.shift)+uint32(b.width) > unit*8 {
		return nil, errors.InvalidLayout(nil, "bits [%d, %d) do not fit %s", b.shift, uint32(b.shift)+uint32(b.width), b.storage)
	}
	mask := ^uint64(0)
	if b.width < 64 {
		mask = uint64(1)<<b.width - 1
	}
	return &bitfield{offset: offset, unit: unit, shift: b.shift, mask: mask}, nil
}

type bitfield struct {
	offset uint32
	unit   uint32
	shift  uint8
	mask   uint64
}

func (b *bitfield) Get(r *region.Region) (any, error) {
	word, err := r.ReadUint(b.offset, b.unit)
	if err != nil {
		return nil, err
	}
	return (word >> b.shift) & b.mask, nil
}

func (b *bitfield) Put(r *region.Region, v any) (any, error) {
	bits, ok := coerce.Bits(v)
	if !ok {
		return nil, errors.New(errors.PhasePut, errors.KindInvalidArgument).
			GoType(typeName(v)).
			NativeType("bitfield").
			Value(v).
			Detail("value is not numeric").
			Build()
	}
	word, err := r.ReadUint(b.offset, b.unit)
	if err != nil {
		return nil, err
	}
	bits &= b.mask
	word = word&^(b.mask<<b.shift) | bits<<b.shift
	if err := r.WriteUint(b.offset, b.unit, word); err != nil {
		return nil, err
	}
	return bits, nil
}
