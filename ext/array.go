package ext

import (
	"reflect"
	"strconv"

	"github.com/wippyai/ffi-struct/codec"
	"github.com/wippyai/ffi-struct/errors"
	"github.com/wippyai/ffi-struct/layout"
	"github.com/wippyai/ffi-struct/region"
)

type arrayType struct {
	elem  codec.NativeType
	count uint32
}

// Array is a fixed inline array of count built-in elements. Get returns
// []any; Put accepts any slice or array of at most count values and zeroes
// the elements it does not cover.
func Array(elem codec.NativeType, count uint32) Type {
	return arrayType{elem: elem, count: count}
}

func (a arrayType) elemWidth(ptrSize uint32) uint32 {
	c, ok := codec.Lookup(a.elem)
	if !ok {
		return 0
	}
	return c.Width(ptrSize)
}

func (a arrayType) Size(ptrSize uint32) uint32 {
	return a.elemWidth(ptrSize) * a.count
}

func (a arrayType) Align(ptrSize uint32) uint32 {
	if w := a.elemWidth(ptrSize); w > 0 {
		return w
	}
	return 1
}

func (a arrayType) Bind(offset, ptrSize uint32) (layout.Extension, error) {
	c, ok := codec.Lookup(a.elem)
	if !ok {
		return nil, errors.InvalidLayout(nil, "array element type %s is not built-in", a.elem)
	}
	if a.count == 0 {
		return nil, errors.InvalidLayout(nil, "array of zero elements")
	}
	return &array{codec: c, offset: offset, width: c.Width(ptrSize), count: a.count}, nil
}

type array struct {
	codec  *codec.Codec
	offset uint32
	width  uint32
	count  uint32
}

func (a *array) Get(r *region.Region) (any, error) {
	out := make([]any, a.count)
	for i := range a.count {
		v, err := a.codec.Get(r, a.offset+i*a.width, a.width)
		if err != nil {
			return nil, index(err, i)
		}
		out[i] = v
	}
	return out, nil
}

func (a *array) Put(r *region.Region, v any) (any, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, errors.TypeMismatch(errors.PhasePut, nil, typeName(v), "array")
	}
	if rv.Len() > int(a.count) {
		return nil, errors.New(errors.PhasePut, errors.KindInvalidArgument).
			GoType(typeName(v)).
			Detail("%d elements, array holds %d", rv.Len(), a.count).
			Build()
	}

	err := restoreOnError(r, a.offset, a.width*a.count, func() error {
		n := uint32(rv.Len())
		for i := range n {
			if err := a.codec.Put(r, a.offset+i*a.width, a.width, rv.Index(int(i)).Interface(), codec.Options{}); err != nil {
				return index(err, i)
			}
		}
		if n < a.count {
			return r.Write(a.offset+n*a.width, make([]byte, (a.count-n)*a.width))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func index(err error, i uint32) error {
	if e, ok := err.(*errors.Error); ok {
		return e.WithPath("[" + strconv.FormatUint(uint64(i), 10) + "]")
	}
	return err
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
