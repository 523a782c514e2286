// Package memory provides address spaces for struct regions.
//
// # Heap
//
// Heap is an in-process address space backed by a Go byte slice. Addresses
// below the guard size are never allocated, so the null address stays
// invalid. Multi-byte values use the host byte order:
//
//	heap := memory.NewHeap(64 * 1024)
//	ptr, err := heap.Alloc(16, 8)
//
// # wazero
//
// WrapMemory adapts a wazero api.Memory, so struct instances can marshal
// fields directly inside WebAssembly linear memory (little-endian, 32-bit
// addresses). WrapAllocator adapts a guest cabi_realloc export:
//
//	mem := memory.WrapMemory(mod.ExportedMemory("memory"))
//	alloc := memory.WrapAllocator(ctx, mod.ExportedFunction("cabi_realloc"))
package memory
