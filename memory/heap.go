package memory

import (
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	ffistruct "github.com/wippyai/ffi-struct"
	"github.com/wippyai/ffi-struct/errors"
)

// DefaultGuardSize is the number of low addresses a heap never allocates.
const DefaultGuardSize = 4096

var (
	_ ffistruct.Memory      = (*Heap)(nil)
	_ ffistruct.MemorySizer = (*Heap)(nil)
	_ ffistruct.Allocator   = (*Heap)(nil)
)

type span struct {
	ptr  uint32
	size uint32
}

// Heap is a fixed-size in-process address space with a first-fit allocator.
// The allocator is safe for concurrent use; reads and writes are not
// synchronized.
type Heap struct {
	data  []byte
	free  []span
	guard uint32
	mu    sync.Mutex
}

// NewHeap creates a heap of size bytes with the default guard.
func NewHeap(size uint32) *Heap {
	return NewHeapWithGuard(size, DefaultGuardSize)
}

// NewHeapWithGuard creates a heap whose first guard bytes are never
// allocated. A guard of zero is raised to one so address 0 stays null.
func NewHeapWithGuard(size, guard uint32) *Heap {
	if guard == 0 {
		guard = 1
	}
	h := &Heap{data: make([]byte, size), guard: guard}
	if size > guard {
		h.free = []span{{ptr: guard, size: size - guard}}
	}
	return h
}

// Size returns the heap size in bytes.
func (h *Heap) Size() uint32 {
	return uint32(len(h.data))
}

func (h *Heap) check(offset, length uint32) error {
	if uint64(offset)+uint64(length) > uint64(len(h.data)) {
		return errors.OutOfBounds(errors.PhaseMemory, nil, uint64(offset), uint64(length), uint64(len(h.data)))
	}
	return nil
}

// Read returns a view of length bytes at offset. The view aliases the heap.
func (h *Heap) Read(offset uint32, length uint32) ([]byte, error) {
	if err := h.check(offset, length); err != nil {
		return nil, err
	}
	return h.data[offset : offset+length], nil
}

// Write copies data to offset.
func (h *Heap) Write(offset uint32, data []byte) error {
	if uint64(len(data)) > uint64(len(h.data)) {
		return errors.OutOfBounds(errors.PhaseMemory, nil, uint64(offset), uint64(len(data)), uint64(len(h.data)))
	}
	if err := h.check(offset, uint32(len(data))); err != nil {
		return err
	}
	copy(h.data[offset:], data)
	return nil
}

func (h *Heap) ReadU8(offset uint32) (uint8, error) {
	if err := h.check(offset, 1); err != nil {
		return 0, err
	}
	return h.data[offset], nil
}

func (h *Heap) ReadU16(offset uint32) (uint16, error) {
	if err := h.check(offset, 2); err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint16(h.data[offset:]), nil
}

func (h *Heap) ReadU32(offset uint32) (uint32, error) {
	if err := h.check(offset, 4); err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint32(h.data[offset:]), nil
}

func (h *Heap) ReadU64(offset uint32) (uint64, error) {
	if err := h.check(offset, 8); err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint64(h.data[offset:]), nil
}

func (h *Heap) WriteU8(offset uint32, value uint8) error {
	if err := h.check(offset, 1); err != nil {
		return err
	}
	h.data[offset] = value
	return nil
}

func (h *Heap) WriteU16(offset uint32, value uint16) error {
	if err := h.check(offset, 2); err != nil {
		return err
	}
	binary.NativeEndian.PutUint16(h.data[offset:], value)
	return nil
}

func (h *Heap) WriteU32(offset uint32, value uint32) error {
	if err := h.check(offset, 4); err != nil {
		return err
	}
	binary.NativeEndian.PutUint32(h.data[offset:], value)
	return nil
}

func (h *Heap) WriteU64(offset uint32, value uint64) error {
	if err := h.check(offset, 8); err != nil {
		return err
	}
	binary.NativeEndian.PutUint64(h.data[offset:], value)
	return nil
}

// Alloc returns the first free block of size bytes aligned to align.
// Zero-size requests get one byte so every allocation has a distinct address.
func (h *Heap) Alloc(size, align uint32) (uint32, error) {
	if align == 0 {
		align = 1
	}
	if align&(align-1) != 0 {
		return 0, errors.InvalidArgument(errors.PhaseMemory, nil, "uint32", fmt.Sprintf("alignment %d is not a power of two", align))
	}
	if size == 0 {
		size = 1
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for i, s := range h.free {
		start := alignUp(uint64(s.ptr), uint64(align))
		end := start + uint64(size)
		if end > uint64(s.ptr)+uint64(s.size) {
			continue
		}

		var rest []span
		if start > uint64(s.ptr) {
			rest = append(rest, span{ptr: s.ptr, size: uint32(start) - s.ptr})
		}
		if tail := uint64(s.ptr) + uint64(s.size) - end; tail > 0 {
			rest = append(rest, span{ptr: uint32(end), size: uint32(tail)})
		}
		h.free = append(h.free[:i], append(rest, h.free[i+1:]...)...)

		ptr := uint32(start)
		clear(h.data[ptr : ptr+size])
		Logger().Debug("heap alloc",
			zap.Uint32("ptr", ptr),
			zap.Uint32("size", size),
			zap.Uint32("align", align))
		return ptr, nil
	}

	return 0, errors.AllocationFailed(errors.PhaseMemory, size, align)
}

// Free returns a block to the heap. Freeing the null address is a no-op.
func (h *Heap) Free(ptr, size, align uint32) {
	if ptr == 0 {
		return
	}
	if size == 0 {
		size = 1
	}
	if ptr < h.guard || uint64(ptr)+uint64(size) > uint64(len(h.data)) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.free = append(h.free, span{ptr: ptr, size: size})
	sort.Slice(h.free, func(i, j int) bool { return h.free[i].ptr < h.free[j].ptr })

	merged := h.free[:1]
	for _, s := range h.free[1:] {
		last := &merged[len(merged)-1]
		if uint64(last.ptr)+uint64(last.size) >= uint64(s.ptr) {
			if end := s.ptr + s.size; end > last.ptr+last.size {
				last.size = end - last.ptr
			}
			continue
		}
		merged = append(merged, s)
	}
	h.free = merged

	Logger().Debug("heap free", zap.Uint32("ptr", ptr), zap.Uint32("size", size))
}

// Available returns the number of unallocated bytes.
func (h *Heap) Available() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	var n uint32
	for _, s := range h.free {
		n += s.size
	}
	return n
}

func alignUp(v, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}
