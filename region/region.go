package region

import (
	"math"

	ffistruct "github.com/wippyai/ffi-struct"
	"github.com/wippyai/ffi-struct/errors"
)

// MaxStringSize bounds NUL-terminated string reads.
const MaxStringSize = 1 << 30

const cstringChunk = 64

// Region is a fixed-size window [base, base+size) over an address space.
type Region struct {
	mem  ffistruct.Memory
	base uint32
	size uint32
}

// New creates a region over mem. When mem reports its size, the window must
// fit inside it.
func New(mem ffistruct.Memory, base, size uint32) (*Region, error) {
	if mem == nil {
		return nil, errors.InvalidArgument(errors.PhaseMemory, nil, "nil", "region requires a memory")
	}
	if uint64(base)+uint64(size) > math.MaxUint32+1 {
		return nil, errors.OutOfBounds(errors.PhaseMemory, nil, uint64(base), uint64(size), math.MaxUint32+1)
	}
	if sizer, ok := mem.(ffistruct.MemorySizer); ok {
		if total := sizer.Size(); uint64(base)+uint64(size) > uint64(total) {
			return nil, errors.OutOfBounds(errors.PhaseMemory, nil, uint64(base), uint64(size), uint64(total))
		}
	}
	return &Region{mem: mem, base: base, size: size}, nil
}

// Alloc allocates size bytes from alloc and returns a region over them.
func Alloc(mem ffistruct.Memory, alloc ffistruct.Allocator, size, align uint32) (*Region, error) {
	if alloc == nil {
		return nil, errors.InvalidArgument(errors.PhaseMemory, nil, "nil", "allocator required")
	}
	ptr, err := alloc.Alloc(size, align)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseMemory, errors.KindAllocation, err, "allocate region")
	}
	r, err := New(mem, ptr, size)
	if err != nil {
		alloc.Free(ptr, size, align)
		return nil, err
	}
	return r, nil
}

// Memory returns the address space the region lives in.
func (r *Region) Memory() ffistruct.Memory {
	return r.mem
}

// Base returns the offset of the region's first byte in its address space.
func (r *Region) Base() uint32 {
	return r.base
}

// Len returns the region's length in bytes.
func (r *Region) Len() uint32 {
	return r.size
}

// Address returns the region's base as a native address. A nil region is
// the null address, so regions can be stored in pointer fields directly.
func (r *Region) Address() ffistruct.Address {
	if r == nil {
		return 0
	}
	return ffistruct.Address(r.base)
}

// Sub returns the window [off, off+size) of r as a new region.
func (r *Region) Sub(off, size uint32) (*Region, error) {
	if err := r.check(off, size); err != nil {
		return nil, err
	}
	return &Region{mem: r.mem, base: r.base + off, size: size}, nil
}

func (r *Region) check(off, width uint32) error {
	if uint64(off)+uint64(width) > uint64(r.size) {
		return errors.OutOfBounds(errors.PhaseMemory, nil, uint64(off), uint64(width), uint64(r.size))
	}
	return nil
}

// Read returns a copy of n bytes at off.
func (r *Region) Read(off, n uint32) ([]byte, error) {
	if err := r.check(off, n); err != nil {
		return nil, err
	}
	data, err := r.mem.Read(r.base+off, n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Write copies data to off.
func (r *Region) Write(off uint32, data []byte) error {
	if uint64(len(data)) > math.MaxUint32 {
		return errors.OutOfBounds(errors.PhaseMemory, nil, uint64(off), uint64(len(data)), uint64(r.size))
	}
	if err := r.check(off, uint32(len(data))); err != nil {
		return err
	}
	return r.mem.Write(r.base+off, data)
}

// Bytes returns a copy of the whole region.
func (r *Region) Bytes() ([]byte, error) {
	return r.Read(0, r.size)
}

// Fill sets every byte of the region to b.
func (r *Region) Fill(b byte) error {
	buf := make([]byte, r.size)
	if b != 0 {
		for i := range buf {
			buf[i] = b
		}
	}
	return r.Write(0, buf)
}

func (r *Region) ReadU8(off uint32) (uint8, error) {
	if err := r.check(off, 1); err != nil {
		return 0, err
	}
	return r.mem.ReadU8(r.base + off)
}

func (r *Region) ReadU16(off uint32) (uint16, error) {
	if err := r.check(off, 2); err != nil {
		return 0, err
	}
	return r.mem.ReadU16(r.base + off)
}

func (r *Region) ReadU32(off uint32) (uint32, error) {
	if err := r.check(off, 4); err != nil {
		return 0, err
	}
	return r.mem.ReadU32(r.base + off)
}

func (r *Region) ReadU64(off uint32) (uint64, error) {
	if err := r.check(off, 8); err != nil {
		return 0, err
	}
	return r.mem.ReadU64(r.base + off)
}

func (r *Region) WriteU8(off uint32, v uint8) error {
	if err := r.check(off, 1); err != nil {
		return err
	}
	return r.mem.WriteU8(r.base+off, v)
}

func (r *Region) WriteU16(off uint32, v uint16) error {
	if err := r.check(off, 2); err != nil {
		return err
	}
	return r.mem.WriteU16(r.base+off, v)
}

func (r *Region) WriteU32(off uint32, v uint32) error {
	if err := r.check(off, 4); err != nil {
		return err
	}
	return r.mem.WriteU32(r.base+off, v)
}

func (r *Region) WriteU64(off uint32, v uint64) error {
	if err := r.check(off, 8); err != nil {
		return err
	}
	return r.mem.WriteU64(r.base+off, v)
}

// ReadUint reads an unsigned integer of width 1, 2, 4 or 8 bytes.
func (r *Region) ReadUint(off, width uint32) (uint64, error) {
	switch width {
	case 1:
		v, err := r.ReadU8(off)
		return uint64(v), err
	case 2:
		v, err := r.ReadU16(off)
		return uint64(v), err
	case 4:
		v, err := r.ReadU32(off)
		return uint64(v), err
	case 8:
		return r.ReadU64(off)
	}
	return 0, errors.Unsupported(errors.PhaseMemory, "unsupported integer width")
}

// WriteUint writes the low width bytes of v, for width 1, 2, 4 or 8.
func (r *Region) WriteUint(off, width uint32, v uint64) error {
	switch width {
	case 1:
		return r.WriteU8(off, uint8(v))
	case 2:
		return r.WriteU16(off, uint16(v))
	case 4:
		return r.WriteU32(off, uint32(v))
	case 8:
		return r.WriteU64(off, v)
	}
	return errors.Unsupported(errors.PhaseMemory, "unsupported integer width")
}

// ReadCString reads the NUL-terminated byte sequence at addr in the region's
// address space. The string may live outside the region; every byte read is
// still bounds-checked by the address space.
func (r *Region) ReadCString(addr ffistruct.Address) (string, error) {
	return ReadCString(r.mem, addr)
}

// ReadCString reads the NUL-terminated byte sequence starting at addr.
func ReadCString(mem ffistruct.Memory, addr ffistruct.Address) (string, error) {
	if addr > math.MaxUint32 {
		return "", errors.OutOfBounds(errors.PhaseMemory, nil, uint64(addr), 1, math.MaxUint32+1)
	}
	start := uint32(addr)

	sizer, sized := mem.(ffistruct.MemorySizer)
	if !sized {
		return readCStringBytewise(mem, start)
	}

	total := sizer.Size()
	if start >= total {
		return "", errors.OutOfBounds(errors.PhaseMemory, nil, uint64(start), 1, uint64(total))
	}

	var buf []byte
	pos := start
	for pos < total {
		n := total - pos
		if n > cstringChunk {
			n = cstringChunk
		}
		chunk, err := mem.Read(pos, n)
		if err != nil {
			return "", err
		}
		for i, b := range chunk {
			if b == 0 {
				return string(append(buf, chunk[:i]...)), nil
			}
		}
		buf = append(buf, chunk...)
		if len(buf) > MaxStringSize {
			return "", errors.InvalidData(errors.PhaseMemory, nil, "string exceeds maximum size")
		}
		pos += n
	}
	return "", errors.InvalidData(errors.PhaseMemory, nil, "unterminated string")
}

func readCStringBytewise(mem ffistruct.Memory, start uint32) (string, error) {
	var buf []byte
	for pos := uint64(start); pos <= math.MaxUint32; pos++ {
		b, err := mem.ReadU8(uint32(pos))
		if err != nil {
			return "", err
		}
		if b == 0 {
			return string(buf), nil
		}
		buf = append(buf, b)
		if len(buf) > MaxStringSize {
			return "", errors.InvalidData(errors.PhaseMemory, nil, "string exceeds maximum size")
		}
	}
	return "", errors.InvalidData(errors.PhaseMemory, nil, "unterminated string")
}
