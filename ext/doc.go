// Package ext provides stock extension field kinds for layouts: inline
// arrays, nested structs, bitfields, enums and fixed char buffers.
//
// Each kind is a Type that knows its size and alignment and binds to the
// offset the layout builder assigns:
//
//	b := layout.NewBuilder()
//	b.Add("flags", codec.UInt32)
//	ext.Add(b, "coords", ext.Array(codec.Float64, 3))
//	ext.Add(b, "label", ext.CharArray(16))
//	l, err := b.Build()
package ext
