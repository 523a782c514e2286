package layout

import (
	"github.com/wippyai/ffi-struct/codec"
	"github.com/wippyai/ffi-struct/errors"
	"github.com/wippyai/ffi-struct/region"
)

// Extension reads and writes a field kind the codec table does not know.
// Implementations receive the whole region and locate the field themselves.
type Extension interface {
	Get(r *region.Region) (any, error)
	Put(r *region.Region, v any) (any, error)
}

// Field describes one named field. It is immutable.
type Field struct {
	ext    Extension
	name   string
	offset uint32
	size   uint32
	align  uint32
	typ    codec.NativeType
}

// NewField creates a descriptor for a built-in field type. Size must match
// the codec width; pointer and string fields accept 4 or 8.
func NewField(name string, typ codec.NativeType, offset, size, align uint32) (*Field, error) {
	c, ok := codec.Lookup(typ)
	if !ok {
		return nil, errors.InvalidLayout([]string{name}, "type %s is not a built-in type", typ)
	}
	if typ.IsAddress() {
		if size != 4 && size != 8 {
			return nil, errors.InvalidLayout([]string{name}, "address width %d, want 4 or 8", size)
		}
	} else if want := c.Width(0); size != want {
		return nil, errors.InvalidLayout([]string{name}, "%s field size %d, want %d", typ, size, want)
	}
	f := &Field{name: name, typ: typ, offset: offset, size: size, align: align}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// NewExtensionField creates a descriptor whose get/put go through ext.
// Size and align describe the space the extension occupies.
func NewExtensionField(name string, offset, size, align uint32, ext Extension) (*Field, error) {
	if ext == nil {
		return nil, errors.InvalidLayout([]string{name}, "extension field requires an extension")
	}
	f := &Field{name: name, typ: codec.Extension, offset: offset, size: size, align: align, ext: ext}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Field) validate() error {
	if f.name == "" {
		return errors.InvalidLayout(nil, "field name is empty")
	}
	if f.align == 0 || f.align&(f.align-1) != 0 {
		return errors.InvalidLayout([]string{f.name}, "alignment %d is not a power of two", f.align)
	}
	if f.offset%f.align != 0 {
		return errors.InvalidLayout([]string{f.name}, "offset %d not aligned to %d", f.offset, f.align)
	}
	return nil
}

func (f *Field) Name() string           { return f.name }
func (f *Field) Type() codec.NativeType { return f.typ }
func (f *Field) Offset() uint32         { return f.offset }
func (f *Field) Size() uint32           { return f.size }
func (f *Field) Align() uint32          { return f.align }

// Extension returns the field's extension, or nil for built-in fields.
func (f *Field) Extension() Extension {
	return f.ext
}

// End returns the offset one past the field's last byte.
func (f *Field) End() uint64 {
	return uint64(f.offset) + uint64(f.size)
}
