// Package region provides bounds-checked windows over an address space.
//
// A Region is the native memory target of a struct instance: a base address
// and a byte length inside a ffistruct.Memory. Every accessor checks that the
// access lies in [0, Len()) relative to the base before touching memory, so a
// field access can never reach bytes outside the region.
//
//	r, err := region.New(mem, 1024, 16)
//	err = r.WriteU32(0, 42)
//	v, err := r.ReadU32(0)
//
// Regions do not own their memory. Alloc is a convenience for callers that
// want to carve one out of an Allocator; releasing it stays with the caller.
package region
