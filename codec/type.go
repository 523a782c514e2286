package codec

import "strings"

// NativeType is the closed set of field encodings the core understands.
type NativeType uint8

const (
	Int8 NativeType = iota
	UInt8
	Int16
	UInt16
	Int32
	UInt32
	Int64
	UInt64
	Float32
	Float64
	Pointer
	String
	Extension
)

var typeNames = [...]string{
	Int8:      "int8",
	UInt8:     "uint8",
	Int16:     "int16",
	UInt16:    "uint16",
	Int32:     "int32",
	UInt32:    "uint32",
	Int64:     "int64",
	UInt64:    "uint64",
	Float32:   "float32",
	Float64:   "float64",
	Pointer:   "pointer",
	String:    "string",
	Extension: "extension",
}

func (t NativeType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// IsBuiltin reports whether the type is handled by the codec table.
func (t NativeType) IsBuiltin() bool {
	return t < Extension
}

// IsInteger reports whether the type is a fixed-width integer.
func (t NativeType) IsInteger() bool {
	return t <= UInt64
}

// IsSigned reports whether the type is a signed integer.
func (t NativeType) IsSigned() bool {
	switch t {
	case Int8, Int16, Int32, Int64:
		return true
	}
	return false
}

// IsAddress reports whether the type is stored as a native address.
func (t NativeType) IsAddress() bool {
	return t == Pointer || t == String
}

var aliases = map[string]NativeType{
	"char":       Int8,
	"s8":         Int8,
	"schar":      Int8,
	"uchar":      UInt8,
	"u8":         UInt8,
	"byte":       UInt8,
	"short":      Int16,
	"s16":        Int16,
	"ushort":     UInt16,
	"u16":        UInt16,
	"int":        Int32,
	"s32":        Int32,
	"uint":       UInt32,
	"u32":        UInt32,
	"long_long":  Int64,
	"s64":        Int64,
	"ulong_long": UInt64,
	"u64":        UInt64,
	"float":      Float32,
	"f32":        Float32,
	"double":     Float64,
	"f64":        Float64,
	"ptr":        Pointer,
	"void*":      Pointer,
	"char*":      String,
}

// ParseType resolves a type name. Canonical names ("int32", "pointer") and
// common C spellings ("int", "double", "char*") are accepted.
func ParseType(name string) (NativeType, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, tn := range typeNames {
		if tn == n {
			return NativeType(i), true
		}
	}
	t, ok := aliases[n]
	return t, ok
}
