package ext

import (
	"github.com/wippyai/ffi-struct/errors"
	"github.com/wippyai/ffi-struct/layout"
	"github.com/wippyai/ffi-struct/region"
)

// Type is an extension kind that has not been placed yet.
type Type interface {
	// Size returns the bytes the field occupies for the target pointer size.
	Size(ptrSize uint32) uint32
	// Align returns the field alignment for the target pointer size.
	Align(ptrSize uint32) uint32
	// Bind returns the extension for a field at offset.
	Bind(offset, ptrSize uint32) (layout.Extension, error)
}

func factory(t Type, ptrSize uint32) layout.ExtensionFactory {
	return func(offset uint32) (layout.Extension, error) {
		return t.Bind(offset, ptrSize)
	}
}

// Add appends t to b at the next aligned offset.
func Add(b *layout.Builder, name string, t Type) *layout.Builder {
	ptr := b.PointerSize()
	return b.AddExtension(name, t.Size(ptr), t.Align(ptr), factory(t, ptr))
}

// AddAt appends t to b at a fixed offset.
func AddAt(b *layout.Builder, name string, offset uint32, t Type) *layout.Builder {
	ptr := b.PointerSize()
	return b.AddExtensionAt(name, offset, t.Size(ptr), t.Align(ptr), factory(t, ptr))
}

// AddOverlay appends t to b at the offset of the previous field.
func AddOverlay(b *layout.Builder, name string, t Type) *layout.Builder {
	ptr := b.PointerSize()
	return b.AddExtensionOverlay(name, t.Size(ptr), t.Align(ptr), factory(t, ptr))
}

// restoreOnError runs fn and puts the original bytes of [off, off+size)
// back if it fails, so a failed put leaves the field as it was.
func restoreOnError(r *region.Region, off, size uint32, fn func() error) error {
	saved, err := r.Read(off, size)
	if err != nil {
		return err
	}
	if err := fn(); err != nil {
		if rerr := r.Write(off, saved); rerr != nil {
			return errors.Wrap(errors.PhasePut, errors.KindOutOfBounds, rerr, "restore field after failed put")
		}
		return err
	}
	return nil
}
