// Package codec defines the built-in native field types and the codec table
// that marshals them.
//
// Each built-in NativeType has a Codec with a fixed byte width (pointer and
// string widths come from the target's address size) and Get/Put operations
// that work on exactly that many bytes at an offset inside a region:
//
//	c, _ := codec.Lookup(codec.Int32)
//	err := c.Put(r, 0, 4, -1, codec.Options{})
//	v, err := c.Get(r, 0, 4) // int64(-1)
//
// Value mapping:
//   - Int8..Int64 decode to int64, UInt8..UInt64 to uint64
//   - Float32/Float64 decode to float64
//   - Pointer decodes to ffistruct.Address, or nil for the null address
//   - String decodes the NUL-terminated bytes at the stored address to a
//     string, or nil for the null address; strings cannot be stored
//
// Integer encoding truncates to the field width, matching native stores.
// Options.Strict turns truncation into an overflow error.
//
// Extension is not in the table: extension fields carry their own logic.
package codec
