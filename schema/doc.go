// Package schema builds layouts from declarative definitions and encodes
// struct snapshots.
//
// Definitions are read from TOML or YAML:
//
//	name = "packet"
//	pointer_size = 8
//
//	[[fields]]
//	name = "kind"
//	type = "enum"
//	storage = "uint8"
//	symbols = { ping = 1, pong = 2 }
//
//	[[fields]]
//	name = "payload"
//	type = "uint8"
//	count = 16
//
// Field types are built-in type names (see codec.ParseType) or one of
// "bitfield", "enum" and "struct". A built-in type with count > 0 becomes an
// inline array; "char" with length > 0 becomes an inline char buffer.
// Bitfields without an offset and with a non-zero shift share the storage
// unit of the previous field. Nested structs refer to entries of the
// definition's structs table by name.
//
// FromWIT derives a layout from a WIT record using the Canonical ABI
// placement rules.
package schema
