package memory

import (
	"encoding/binary"
	"testing"
)

func TestHeap_ReadWrite(t *testing.T) {
	h := NewHeap(8192)

	if err := h.WriteU32(4096, 0xdeadbeef); err != nil {
		t.Fatalf("WriteU32: %v", err)
	}
	v, err := h.ReadU32(4096)
	if err != nil || v != 0xdeadbeef {
		t.Fatalf("ReadU32 = 0x%x, %v", v, err)
	}

	raw, _ := h.Read(4096, 4)
	if got := binary.NativeEndian.Uint32(raw); got != 0xdeadbeef {
		t.Errorf("expected host byte order, got % x", raw)
	}

	if err := h.WriteU64(8190, 1); err == nil {
		t.Error("expected out of bounds for straddling write")
	}
	if _, err := h.Read(8192, 1); err == nil {
		t.Error("expected out of bounds read")
	}
}

func TestHeap_AllocNeverNull(t *testing.T) {
	h := NewHeapWithGuard(64, 0)
	ptr, err := h.Alloc(8, 1)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if ptr == 0 {
		t.Fatal("heap returned the null address")
	}
}

func TestHeap_AllocAlignment(t *testing.T) {
	h := NewHeap(8192)

	a, err := h.Alloc(3, 1)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	b, err := h.Alloc(16, 8)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if a < DefaultGuardSize {
		t.Errorf("allocation %d inside guard", a)
	}
	if b%8 != 0 {
		t.Errorf("allocation %d not 8-aligned", b)
	}
	if b < a+3 {
		t.Errorf("allocations overlap: a=%d b=%d", a, b)
	}

	if _, err := h.Alloc(4, 3); err == nil {
		t.Error("expected error for non power of two alignment")
	}
}

func TestHeap_AllocZeroes(t *testing.T) {
	h := NewHeap(8192)
	ptr, _ := h.Alloc(8, 8)
	_ = h.WriteU64(ptr, ^uint64(0))
	h.Free(ptr, 8, 8)

	again, err := h.Alloc(8, 8)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if again != ptr {
		t.Fatalf("expected reuse of %d, got %d", ptr, again)
	}
	if v, _ := h.ReadU64(again); v != 0 {
		t.Errorf("reused block not zeroed: 0x%x", v)
	}
}

func TestHeap_Exhaustion(t *testing.T) {
	h := NewHeap(DefaultGuardSize + 32)

	if _, err := h.Alloc(32, 1); err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if _, err := h.Alloc(1, 1); err == nil {
		t.Fatal("expected allocation failure")
	}
}

func TestHeap_FreeCoalesces(t *testing.T) {
	h := NewHeap(DefaultGuardSize + 64)
	total := h.Available()

	a, _ := h.Alloc(16, 1)
	b, _ := h.Alloc(16, 1)
	c, _ := h.Alloc(16, 1)

	h.Free(b, 16, 1)
	h.Free(a, 16, 1)
	h.Free(c, 16, 1)

	if got := h.Available(); got != total {
		t.Fatalf("Available = %d, want %d", got, total)
	}
	if _, err := h.Alloc(64, 1); err != nil {
		t.Errorf("expected coalesced block of 64 bytes: %v", err)
	}
}

func TestHeap_FreeIgnoresInvalid(t *testing.T) {
	h := NewHeap(8192)
	before := h.Available()

	h.Free(0, 8, 1)
	h.Free(16, 8, 1)
	h.Free(8190, 8, 1)

	if got := h.Available(); got != before {
		t.Errorf("Available changed from %d to %d", before, got)
	}
}
