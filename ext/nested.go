package ext

import (
	"github.com/wippyai/ffi-struct/errors"
	"github.com/wippyai/ffi-struct/layout"
	"github.com/wippyai/ffi-struct/region"
	"github.com/wippyai/ffi-struct/structs"
)

type structType struct {
	layout *layout.Layout
}

// Struct is a nested struct stored inline. Get returns a *structs.Struct
// bound to the nested bytes; Put accepts a map of field values or another
// *structs.Struct with the same layout, whose bytes are copied.
func Struct(l *layout.Layout) Type {
	return structType{layout: l}
}

func (s structType) Size(uint32) uint32 {
	if s.layout == nil {
		return 0
	}
	return s.layout.Size()
}

func (s structType) Align(uint32) uint32 {
	if s.layout == nil {
		return 1
	}
	return s.layout.Align()
}

func (s structType) Bind(offset, _ uint32) (layout.Extension, error) {
	if s.layout == nil {
		return nil, errors.InvalidLayout(nil, "nested struct has no layout")
	}
	return &nested{layout: s.layout, offset: offset}, nil
}

type nested struct {
	layout *layout.Layout
	offset uint32
}

func (n *nested) bind(r *region.Region) (*structs.Struct, error) {
	sub, err := r.Sub(n.offset, n.layout.Size())
	if err != nil {
		return nil, err
	}
	return structs.Bind(n.layout, sub)
}

func (n *nested) Get(r *region.Region) (any, error) {
	return n.bind(r)
}

func (n *nested) Put(r *region.Region, v any) (any, error) {
	inner, err := n.bind(r)
	if err != nil {
		return nil, err
	}

	switch val := v.(type) {
	case map[string]any:
		err := restoreOnError(r, n.offset, n.layout.Size(), func() error {
			return inner.Assign(val)
		})
		if err != nil {
			return nil, err
		}
		return inner, nil

	case *structs.Struct:
		if val.Layout() != n.layout || val.Region() == nil {
			return nil, errors.InvalidArgument(errors.PhasePut, nil, typeName(v), "struct has a different layout")
		}
		data, err := val.Region().Read(0, n.layout.Size())
		if err != nil {
			return nil, err
		}
		if err := r.Write(n.offset, data); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return nil, errors.TypeMismatch(errors.PhasePut, nil, typeName(v), "struct")
}
