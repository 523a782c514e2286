package ext

import (
	"bytes"

	"github.com/wippyai/ffi-struct/errors"
	"github.com/wippyai/ffi-struct/layout"
	"github.com/wippyai/ffi-struct/region"
)

type charArrayType struct {
	n uint32
}

// CharArray is an inline char[n] buffer. Get returns the bytes up to the
// first NUL as a string; Put copies at most n-1 bytes and NUL-pads the rest.
func CharArray(n uint32) Type {
	return charArrayType{n: n}
}

func (c charArrayType) Size(uint32) uint32  { return c.n }
func (c charArrayType) Align(uint32) uint32 { return 1 }

func (c charArrayType) Bind(offset, _ uint32) (layout.Extension, error) {
	if c.n == 0 {
		return nil, errors.InvalidLayout(nil, "char array of zero length")
	}
	return &charArray{offset: offset, n: c.n}, nil
}

type charArray struct {
	offset uint32
	n      uint32
}

func (c *charArray) Get(r *region.Region) (any, error) {
	data, err := r.Read(c.offset, c.n)
	if err != nil {
		return nil, err
	}
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return string(data), nil
}

func (c *charArray) Put(r *region.Region, v any) (any, error) {
	var src []byte
	switch val := v.(type) {
	case string:
		src = []byte(val)
	case []byte:
		src = val
	default:
		return nil, errors.TypeMismatch(errors.PhasePut, nil, typeName(v), "char array")
	}

	buf := make([]byte, c.n)
	n := copy(buf[:c.n-1], src)
	if err := r.Write(c.offset, buf); err != nil {
		return nil, err
	}
	return string(buf[:n]), nil
}
