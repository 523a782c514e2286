package ext

import (
	"math"
	"sort"

	"github.com/wippyai/ffi-struct/codec"
	"github.com/wippyai/ffi-struct/errors"
	"github.com/wippyai/ffi-struct/layout"
	"github.com/wippyai/ffi-struct/region"
)

type enumType struct {
	symbols map[string]int64
	storage codec.NativeType
}

// Enum maps an integer storage field to symbolic names. Get returns the
// name, or the raw integer when no symbol has that value. Put accepts a
// name or an integer.
func Enum(storage codec.NativeType, symbols map[string]int64) Type {
	return enumType{storage: storage, symbols: symbols}
}

func (e enumType) Size(uint32) uint32 {
	if c, ok := codec.Lookup(e.storage); ok && e.storage.IsInteger() {
		return c.Width(0)
	}
	return 0
}

func (e enumType) Align(ptrSize uint32) uint32 {
	if s := e.Size(ptrSize); s > 0 {
		return s
	}
	return 1
}

func (e enumType) Bind(offset, _ uint32) (layout.Extension, error) {
	if !e.storage.IsInteger() {
		return nil, errors.InvalidLayout(nil, "enum storage %s is not an integer", e.storage)
	}
	if len(e.symbols) == 0 {
		return nil, errors.InvalidLayout(nil, "enum has no symbols")
	}
	c, _ := codec.Lookup(e.storage)

	names := make([]string, 0, len(e.symbols))
	for name := range e.symbols {
		names = append(names, name)
	}
	sort.Strings(names)

	// first name in sorted order wins when values repeat
	byValue := make(map[int64]string, len(names))
	for _, name := range names {
		v := e.symbols[name]
		if _, dup := byValue[v]; !dup {
			byValue[v] = name
		}
	}

	return &enum{
		codec:   c,
		offset:  offset,
		symbols: e.symbols,
		names:   byValue,
	}, nil
}

type enum struct {
	codec   *codec.Codec
	symbols map[string]int64
	names   map[int64]string
	offset  uint32
}

func (e *enum) width() uint32 {
	return e.codec.Width(0)
}

func (e *enum) Get(r *region.Region) (any, error) {
	raw, err := e.codec.Get(r, e.offset, e.width())
	if err != nil {
		return nil, err
	}
	var key int64
	switch v := raw.(type) {
	case int64:
		key = v
	case uint64:
		if v > math.MaxInt64 {
			return raw, nil
		}
		key = int64(v)
	}
	if name, ok := e.names[key]; ok {
		return name, nil
	}
	return raw, nil
}

func (e *enum) Put(r *region.Region, v any) (any, error) {
	if name, ok := v.(string); ok {
		value, known := e.symbols[name]
		if !known {
			return nil, errors.New(errors.PhasePut, errors.KindInvalidArgument).
				GoType("string").
				NativeType("enum").
				Value(name).
				Detail("unknown enum symbol").
				Build()
		}
		v = value
	}
	if err := e.codec.Put(r, e.offset, e.width(), v, codec.Options{}); err != nil {
		return nil, err
	}
	return v, nil
}
