package region

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	ffistruct "github.com/wippyai/ffi-struct"
	ffierrors "github.com/wippyai/ffi-struct/errors"
	"github.com/wippyai/ffi-struct/memory"
)

// unsized hides the heap's Size method to exercise the bytewise path.
type unsized struct {
	ffistruct.Memory
}

type failingAllocator struct{}

func (failingAllocator) Alloc(size, align uint32) (uint32, error) {
	return 0, errors.New("exhausted")
}

func (failingAllocator) Free(ptr, size, align uint32) {}

func TestNew(t *testing.T) {
	heap := memory.NewHeap(1024)

	tests := []struct {
		name    string
		mem     ffistruct.Memory
		base    uint32
		size    uint32
		wantErr error
	}{
		{"fits", heap, 16, 32, nil},
		{"ends at top", heap, 1000, 24, nil},
		{"past end", heap, 1000, 25, ffierrors.ErrOutOfBounds},
		{"nil memory", nil, 0, 1, ffierrors.ErrInvalidArgument},
		{"unsized memory", unsized{heap}, 4000, 8, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.mem, tt.base, tt.size)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if r.Base() != tt.base || r.Len() != tt.size {
				t.Errorf("region = [%d, +%d)", r.Base(), r.Len())
			}
		})
	}
}

func TestAlloc(t *testing.T) {
	heap := memory.NewHeap(8192)
	r, err := Alloc(heap, heap, 24, 8)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if r.Base()%8 != 0 || r.Len() != 24 {
		t.Errorf("region = [%d, +%d)", r.Base(), r.Len())
	}
	if r.Address() == 0 {
		t.Error("allocated region has null address")
	}

	if _, err := Alloc(heap, failingAllocator{}, 8, 8); !errors.Is(err, ffierrors.ErrAllocation) {
		t.Errorf("expected allocation error, got %v", err)
	}
	if _, err := Alloc(heap, nil, 8, 8); !errors.Is(err, ffierrors.ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got %v", err)
	}
}

func TestRegion_NilAddress(t *testing.T) {
	var r *Region
	if r.Address() != 0 {
		t.Error("nil region should have the null address")
	}
}

func TestRegion_BoundsChecked(t *testing.T) {
	heap := memory.NewHeap(8192)
	r, _ := Alloc(heap, heap, 8, 8)
	neighbour, _ := Alloc(heap, heap, 8, 8)
	_ = neighbour.Fill(0x5A)

	checks := map[string]error{
		"ReadU8":    func() error { _, err := r.ReadU8(8); return err }(),
		"ReadU16":   func() error { _, err := r.ReadU16(7); return err }(),
		"ReadU32":   func() error { _, err := r.ReadU32(5); return err }(),
		"ReadU64":   func() error { _, err := r.ReadU64(1); return err }(),
		"WriteU8":   r.WriteU8(8, 1),
		"WriteU16":  r.WriteU16(7, 1),
		"WriteU32":  r.WriteU32(6, 1),
		"WriteU64":  r.WriteU64(4, 1),
		"Write":     r.Write(4, make([]byte, 5)),
		"Read":      func() error { _, err := r.Read(0, 9); return err }(),
		"Sub":       func() error { _, err := r.Sub(4, 5); return err }(),
		"WriteUint": r.WriteUint(6, 4, 1),
	}
	for name, err := range checks {
		if !errors.Is(err, ffierrors.ErrOutOfBounds) {
			t.Errorf("%s: expected out of bounds, got %v", name, err)
		}
	}

	got, _ := neighbour.Bytes()
	if !bytes.Equal(got, bytes.Repeat([]byte{0x5A}, 8)) {
		t.Errorf("neighbouring region modified: % x", got)
	}
}

func TestRegion_ReadWrite(t *testing.T) {
	heap := memory.NewHeap(8192)
	r, _ := Alloc(heap, heap, 16, 8)

	if err := r.WriteU16(2, 0xBEEF); err != nil {
		t.Fatal(err)
	}
	if v, _ := r.ReadU16(2); v != 0xBEEF {
		t.Errorf("ReadU16 = %#x", v)
	}
	if err := r.WriteU64(8, 0x0102030405060708); err != nil {
		t.Fatal(err)
	}
	if v, _ := r.ReadUint(8, 8); v != 0x0102030405060708 {
		t.Errorf("ReadUint = %#x", v)
	}

	for _, width := range []uint32{1, 2, 4, 8} {
		if err := r.WriteUint(0, width, 0xFFFFFFFFFFFFFFFF); err != nil {
			t.Fatalf("WriteUint(%d): %v", width, err)
		}
		v, err := r.ReadUint(0, width)
		if err != nil {
			t.Fatal(err)
		}
		want := uint64(1)<<(width*8) - 1
		if width == 8 {
			want = 0xFFFFFFFFFFFFFFFF
		}
		if v != want {
			t.Errorf("width %d: got %#x, want %#x", width, v, want)
		}
	}

	if _, err := r.ReadUint(0, 3); !errors.Is(err, ffierrors.ErrUnsupported) {
		t.Errorf("expected unsupported width, got %v", err)
	}
}

func TestRegion_ReadReturnsCopy(t *testing.T) {
	heap := memory.NewHeap(8192)
	r, _ := Alloc(heap, heap, 4, 4)
	_ = r.Write(0, []byte{1, 2, 3, 4})

	b, _ := r.Read(0, 4)
	b[0] = 99
	if v, _ := r.ReadU8(0); v != 1 {
		t.Error("mutating Read result changed the region")
	}
}

func TestRegion_Sub(t *testing.T) {
	heap := memory.NewHeap(8192)
	r, _ := Alloc(heap, heap, 16, 8)

	sub, err := r.Sub(4, 8)
	if err != nil {
		t.Fatal(err)
	}
	if sub.Base() != r.Base()+4 || sub.Len() != 8 {
		t.Errorf("sub = [%d, +%d)", sub.Base(), sub.Len())
	}
	_ = sub.WriteU8(0, 7)
	if v, _ := r.ReadU8(4); v != 7 {
		t.Error("sub-region does not alias its parent")
	}
}

func TestReadCString(t *testing.T) {
	heap := memory.NewHeap(8192)
	long := strings.Repeat("x", 200)

	str := func(s string) ffistruct.Address {
		ptr, err := heap.Alloc(uint32(len(s)+1), 1)
		if err != nil {
			t.Fatal(err)
		}
		_ = heap.Write(ptr, append([]byte(s), 0))
		return ffistruct.Address(ptr)
	}

	short := str("hello")
	longAddr := str(long)
	empty := str("")

	for _, mem := range []ffistruct.Memory{heap, unsized{heap}} {
		if s, err := ReadCString(mem, short); err != nil || s != "hello" {
			t.Errorf("short = %q, %v", s, err)
		}
		if s, err := ReadCString(mem, longAddr); err != nil || s != long {
			t.Errorf("long string: len %d, %v", len(s), err)
		}
		if s, err := ReadCString(mem, empty); err != nil || s != "" {
			t.Errorf("empty = %q, %v", s, err)
		}
	}

	if _, err := ReadCString(heap, 1<<40); !errors.Is(err, ffierrors.ErrOutOfBounds) {
		t.Errorf("expected out of bounds, got %v", err)
	}
	if _, err := ReadCString(heap, 9000); !errors.Is(err, ffierrors.ErrOutOfBounds) {
		t.Errorf("expected out of bounds, got %v", err)
	}
}

func TestReadCString_Unterminated(t *testing.T) {
	heap := memory.NewHeapWithGuard(64, 1)
	_ = heap.Write(32, bytes.Repeat([]byte{'a'}, 32))

	if _, err := ReadCString(heap, 32); !errors.Is(err, ffierrors.ErrInvalidData) {
		t.Errorf("expected invalid data, got %v", err)
	}
	if _, err := ReadCString(unsized{heap}, 32); !errors.Is(err, ffierrors.ErrOutOfBounds) {
		t.Errorf("expected out of bounds from the memory, got %v", err)
	}
}
