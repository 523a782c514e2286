package codec

import (
	"math"
	"reflect"
	"unsafe"

	ffistruct "github.com/wippyai/ffi-struct"
	"github.com/wippyai/ffi-struct/errors"
	"github.com/wippyai/ffi-struct/internal/coerce"
	"github.com/wippyai/ffi-struct/region"
)

// HostPointerSize is the address width of the host in bytes.
const HostPointerSize = uint32(unsafe.Sizeof(uintptr(0)))

// Options tune encoding.
type Options struct {
	// Strict rejects values that do not fit the field instead of truncating.
	Strict bool
}

type getFunc func(r *region.Region, off, size uint32) (any, error)
type putFunc func(r *region.Region, off, size uint32, v any, o Options) error

// Codec marshals one built-in native type.
type Codec struct {
	get   getFunc
	put   putFunc
	width uint32 // 0 for address-sized types
	typ   NativeType
}

// Type returns the native type the codec marshals.
func (c *Codec) Type() NativeType {
	return c.typ
}

// Width returns the encoded size in bytes for a target with the given
// pointer size.
func (c *Codec) Width(ptrSize uint32) uint32 {
	if c.width == 0 {
		return ptrSize
	}
	return c.width
}

// Align returns the natural alignment, which equals the width for every
// built-in type.
func (c *Codec) Align(ptrSize uint32) uint32 {
	return c.Width(ptrSize)
}

// Get decodes the field of size bytes at off.
func (c *Codec) Get(r *region.Region, off, size uint32) (any, error) {
	if err := c.checkSize(size, errors.PhaseGet); err != nil {
		return nil, err
	}
	return c.get(r, off, size)
}

// Put encodes v into the field of size bytes at off. Nothing is written
// when an error is returned.
func (c *Codec) Put(r *region.Region, off, size uint32, v any, o Options) error {
	if err := c.checkSize(size, errors.PhasePut); err != nil {
		return err
	}
	return c.put(r, off, size, v, o)
}

func (c *Codec) checkSize(size uint32, phase errors.Phase) error {
	if c.width == 0 {
		if size != 4 && size != 8 {
			return errors.New(phase, errors.KindInvalidLayout).
				NativeType(c.typ.String()).
				Detail("address width %d, want 4 or 8", size).
				Build()
		}
		return nil
	}
	if size != c.width {
		return errors.New(phase, errors.KindInvalidLayout).
			NativeType(c.typ.String()).
			Detail("field size %d, want %d", size, c.width).
			Build()
	}
	return nil
}

var table = [...]Codec{
	Int8:    intCodec(Int8, 1),
	UInt8:   uintCodec(UInt8, 1),
	Int16:   intCodec(Int16, 2),
	UInt16:  uintCodec(UInt16, 2),
	Int32:   intCodec(Int32, 4),
	UInt32:  uintCodec(UInt32, 4),
	Int64:   intCodec(Int64, 8),
	UInt64:  uintCodec(UInt64, 8),
	Float32: {typ: Float32, width: 4, get: getFloat32, put: putFloat32},
	Float64: {typ: Float64, width: 8, get: getFloat64, put: putFloat64},
	Pointer: {typ: Pointer, get: getPointer, put: putPointer},
	String:  {typ: String, get: getString, put: putString},
}

// Lookup returns the codec for a built-in type. Extension and unknown tags
// have no codec.
func Lookup(t NativeType) (*Codec, bool) {
	if int(t) >= len(table) {
		return nil, false
	}
	return &table[t], true
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}

func notNumeric(t NativeType, v any) error {
	return errors.New(errors.PhasePut, errors.KindInvalidArgument).
		GoType(typeName(v)).
		NativeType(t.String()).
		Value(v).
		Detail("value is not numeric").
		Build()
}

func integerBits(t NativeType, width uint32, v any, o Options) (uint64, error) {
	bits, ok := coerce.Bits(v)
	if !ok {
		return 0, notNumeric(t, v)
	}
	if o.Strict {
		var fits bool
		if t.IsSigned() {
			fits = coerce.FitsSigned(v, uint(width*8))
		} else {
			fits = coerce.FitsUnsigned(v, uint(width*8))
		}
		if !fits {
			return 0, errors.Overflow(errors.PhasePut, nil, v, t.String())
		}
	}
	return bits, nil
}

func intCodec(t NativeType, width uint32) Codec {
	return Codec{
		typ:   t,
		width: width,
		get: func(r *region.Region, off, _ uint32) (any, error) {
			u, err := r.ReadUint(off, width)
			if err != nil {
				return nil, err
			}
			switch width {
			case 1:
				return int64(int8(u)), nil
			case 2:
				return int64(int16(u)), nil
			case 4:
				return int64(int32(u)), nil
			default:
				return int64(u), nil
			}
		},
		put: func(r *region.Region, off, _ uint32, v any, o Options) error {
			bits, err := integerBits(t, width, v, o)
			if err != nil {
				return err
			}
			return r.WriteUint(off, width, bits)
		},
	}
}

func uintCodec(t NativeType, width uint32) Codec {
	return Codec{
		typ:   t,
		width: width,
		get: func(r *region.Region, off, _ uint32) (any, error) {
			return r.ReadUint(off, width)
		},
		put: func(r *region.Region, off, _ uint32, v any, o Options) error {
			bits, err := integerBits(t, width, v, o)
			if err != nil {
				return err
			}
			return r.WriteUint(off, width, bits)
		},
	}
}

func getFloat32(r *region.Region, off, _ uint32) (any, error) {
	bits, err := r.ReadU32(off)
	if err != nil {
		return nil, err
	}
	return float64(math.Float32frombits(bits)), nil
}

func putFloat32(r *region.Region, off, _ uint32, v any, o Options) error {
	f, ok := coerce.Float64(v)
	if !ok {
		return notNumeric(Float32, v)
	}
	if o.Strict && !coerce.FitsFloat32(f) {
		return errors.Overflow(errors.PhasePut, nil, v, Float32.String())
	}
	return r.WriteU32(off, math.Float32bits(float32(f)))
}

func getFloat64(r *region.Region, off, _ uint32) (any, error) {
	bits, err := r.ReadU64(off)
	if err != nil {
		return nil, err
	}
	return math.Float64frombits(bits), nil
}

func putFloat64(r *region.Region, off, _ uint32, v any, _ Options) error {
	f, ok := coerce.Float64(v)
	if !ok {
		return notNumeric(Float64, v)
	}
	return r.WriteU64(off, math.Float64bits(f))
}

func readAddress(r *region.Region, off, size uint32) (ffistruct.Address, error) {
	u, err := r.ReadUint(off, size)
	if err != nil {
		return 0, err
	}
	return ffistruct.Address(u), nil
}

func getPointer(r *region.Region, off, size uint32) (any, error) {
	addr, err := readAddress(r, off, size)
	if err != nil {
		return nil, err
	}
	if addr.IsNull() {
		return nil, nil
	}
	return addr, nil
}

func putPointer(r *region.Region, off, size uint32, v any, o Options) error {
	addr, err := ToAddress(v)
	if err != nil {
		return err
	}
	if o.Strict && size < 8 && uint64(addr) > math.MaxUint32 {
		return errors.Overflow(errors.PhasePut, nil, addr, Pointer.String())
	}
	return r.WriteUint(off, size, uint64(addr))
}

func getString(r *region.Region, off, size uint32) (any, error) {
	addr, err := readAddress(r, off, size)
	if err != nil {
		return nil, err
	}
	if addr.IsNull() {
		return nil, nil
	}
	return r.ReadCString(addr)
}

func putString(_ *region.Region, _, _ uint32, _ any, _ Options) error {
	return errors.New(errors.PhasePut, errors.KindUnsupported).
		NativeType(String.String()).
		Detail("cannot set string fields").
		Build()
}

// ToAddress converts a pointer-like value to a native address.
//
// Accepted: nil (null), ffistruct.Address, Go integers (raw addresses),
// ffistruct.Addressable, and ffistruct.PointerConverter, whose ToPtr is
// called exactly once and must return an Address or an Addressable.
func ToAddress(v any) (ffistruct.Address, error) {
	switch p := v.(type) {
	case nil:
		return 0, nil
	case ffistruct.Address:
		return p, nil
	case ffistruct.Addressable:
		return p.Address(), nil
	case ffistruct.PointerConverter:
		switch q := p.ToPtr().(type) {
		case ffistruct.Address:
			return q, nil
		case ffistruct.Addressable:
			return q.Address(), nil
		default:
			return 0, errors.New(errors.PhasePut, errors.KindInvalidArgument).
				GoType(typeName(q)).
				NativeType(Pointer.String()).
				Detail("ToPtr returned an invalid pointer").
				Build()
		}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, uintptr:
		bits, _ := coerce.Bits(p)
		return ffistruct.Address(bits), nil
	}
	return 0, errors.New(errors.PhasePut, errors.KindInvalidArgument).
		GoType(typeName(v)).
		NativeType(Pointer.String()).
		Value(v).
		Detail("value is not a pointer").
		Build()
}
