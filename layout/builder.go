package layout

import (
	"math"

	"github.com/wippyai/ffi-struct/codec"
	"github.com/wippyai/ffi-struct/errors"
)

// ExtensionFactory creates an extension bound to the offset the builder
// assigned to its field.
type ExtensionFactory func(offset uint32) (Extension, error)

type entry struct {
	factory  ExtensionFactory
	name     string
	offset   uint32
	size     uint32
	align    uint32
	typ      codec.NativeType
	explicit bool
	overlay  bool
}

// Builder assigns offsets to a sequence of field declarations and produces
// a Layout. Fields are placed in declaration order at the next offset
// aligned to the field's alignment; the total size is rounded up to the
// largest alignment.
type Builder struct {
	entries []entry
	ptrSize uint32
	packed  bool
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithPointerSize sets the target address width (4 or 8 bytes) used for
// pointer and string fields. Defaults to the host width.
func WithPointerSize(n uint32) BuilderOption {
	return func(b *Builder) {
		b.ptrSize = n
	}
}

// WithPacked disables alignment padding: every field is aligned to 1.
func WithPacked() BuilderOption {
	return func(b *Builder) {
		b.packed = true
	}
}

// NewBuilder creates an empty builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{ptrSize: codec.HostPointerSize}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// PointerSize returns the target address width.
func (b *Builder) PointerSize() uint32 {
	return b.ptrSize
}

// Add appends a built-in field at the next aligned offset.
func (b *Builder) Add(name string, typ codec.NativeType) *Builder {
	b.entries = append(b.entries, entry{name: name, typ: typ})
	return b
}

// AddAt appends a built-in field at a fixed offset.
func (b *Builder) AddAt(name string, typ codec.NativeType, offset uint32) *Builder {
	b.entries = append(b.entries, entry{name: name, typ: typ, offset: offset, explicit: true})
	return b
}

// AddExtension appends an extension field occupying size bytes with the
// given alignment at the next aligned offset.
func (b *Builder) AddExtension(name string, size, align uint32, factory ExtensionFactory) *Builder {
	b.entries = append(b.entries, entry{
		name:    name,
		typ:     codec.Extension,
		size:    size,
		align:   align,
		factory: factory,
	})
	return b
}

// AddExtensionAt appends an extension field at a fixed offset.
func (b *Builder) AddExtensionAt(name string, offset, size, align uint32, factory ExtensionFactory) *Builder {
	b.entries = append(b.entries, entry{
		name:     name,
		typ:      codec.Extension,
		offset:   offset,
		size:     size,
		align:    align,
		factory:  factory,
		explicit: true,
	})
	return b
}

// AddExtensionOverlay appends an extension field at the offset of the
// previous field, so several extensions can share one storage unit.
func (b *Builder) AddExtensionOverlay(name string, size, align uint32, factory ExtensionFactory) *Builder {
	b.entries = append(b.entries, entry{
		name:    name,
		typ:     codec.Extension,
		size:    size,
		align:   align,
		factory: factory,
		overlay: true,
	})
	return b
}

// Build computes offsets and returns the finished layout.
func (b *Builder) Build() (*Layout, error) {
	if b.ptrSize != 4 && b.ptrSize != 8 {
		return nil, errors.InvalidLayout(nil, "pointer size %d, want 4 or 8", b.ptrSize)
	}

	fields := make([]*Field, 0, len(b.entries))
	maxAlign := uint32(1)
	cursor := uint64(0)
	prev := uint64(0)

	for i, e := range b.entries {
		size, align, err := b.measure(e)
		if err != nil {
			return nil, err
		}
		if b.packed {
			align = 1
		}

		var offset uint64
		switch {
		case e.explicit:
			offset = uint64(e.offset)
		case e.overlay:
			if i == 0 {
				return nil, errors.InvalidLayout([]string{e.name}, "overlay field has no previous field")
			}
			offset = prev
		default:
			offset = AlignTo(cursor, uint64(align))
		}
		prev = offset
		end := offset + uint64(size)
		if end > math.MaxUint32 {
			return nil, errors.InvalidLayout([]string{e.name}, "struct exceeds 4 GiB")
		}

		var f *Field
		if e.typ == codec.Extension {
			if e.factory == nil {
				return nil, errors.InvalidLayout([]string{e.name}, "extension field requires a factory")
			}
			ext, err := e.factory(uint32(offset))
			if err != nil {
				return nil, errors.Wrap(errors.PhaseLayout, errors.KindInvalidLayout, err, "extension field "+e.name)
			}
			f, err = NewExtensionField(e.name, uint32(offset), size, align, ext)
			if err != nil {
				return nil, err
			}
		} else {
			f, err = NewField(e.name, e.typ, uint32(offset), size, align)
			if err != nil {
				return nil, err
			}
		}
		fields = append(fields, f)

		if align > maxAlign {
			maxAlign = align
		}
		if end > cursor {
			cursor = end
		}
	}

	total := AlignTo(cursor, uint64(maxAlign))
	if total > math.MaxUint32 {
		return nil, errors.InvalidLayout(nil, "struct exceeds 4 GiB")
	}
	return New(fields, uint32(total), maxAlign)
}

func (b *Builder) measure(e entry) (size, align uint32, err error) {
	if e.typ == codec.Extension {
		align = e.align
		if align == 0 {
			align = 1
		}
		return e.size, align, nil
	}
	c, ok := codec.Lookup(e.typ)
	if !ok {
		return 0, 0, errors.InvalidLayout([]string{e.name}, "unknown type %s", e.typ)
	}
	return c.Width(b.ptrSize), c.Align(b.ptrSize), nil
}

// AlignTo rounds offset up to a multiple of align. Align must be a power of
// two; zero leaves the offset unchanged.
func AlignTo(offset, align uint64) uint64 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}
