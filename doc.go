// Package ffistruct is the runtime core of a foreign-function struct
// marshalling layer.
//
// Given a fixed-size memory region and a finalized table of named fields
// (native type, byte offset, size, alignment), it reads and writes single
// field values, translating between Go values and exact-width native
// encodings without touching any other byte of the region.
//
// # Architecture Overview
//
//	ffistruct/           Root package with Memory, Allocator and pointer contracts
//	├── codec/           Built-in native type tags and the field codec table
//	├── layout/          Field descriptors, immutable layouts, layout builder
//	├── region/          Bounds-checked windows over an address space
//	├── structs/         Struct instances: binding and field get/put dispatch
//	├── ext/             Extension field kinds: arrays, nested structs, bitfields, enums, char buffers
//	├── memory/          Address spaces: in-process heap and wazero linear memory
//	├── schema/          Layout definitions from TOML, YAML and WIT records; snapshot encoders
//	├── errors/          Structured error types
//	├── internal/coerce/ Go value to bit pattern conversion and range checks
//	└── cmd/ffistruct/   CLI: inspect and edit struct images
//
// # Quick Start
//
//	l, err := layout.NewBuilder().
//	    Add("a", codec.Int32).
//	    Add("b", codec.Float64).
//	    Build()
//
//	heap := memory.NewHeap(64 * 1024)
//	r, err := region.Alloc(heap, heap, l.Size(), l.Align())
//
//	s, err := structs.New(structs.WithLayout(l), structs.WithRegion(r))
//	_, err = s.Put("a", -1)
//	v, err := s.Get("a") // int64(-1)
//
// # Managed Values
//
// Signed integer fields decode to int64, unsigned to uint64, floats to
// float64, pointers to Address (nil when null) and strings to string (nil
// when null). Encoding accepts any Go integer or float kind and *big.Int;
// out-of-range values are truncated to the field width unless the instance
// was created with structs.WithStrictRange.
//
// # Thread Safety
//
// Layouts are immutable and safe for concurrent use. Struct instances are NOT
// synchronized: concurrent Put calls against one region must be serialized by
// the caller.
package ffistruct
