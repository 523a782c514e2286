package schema

import (
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/ffi-struct/codec"
	"github.com/wippyai/ffi-struct/errors"
	"github.com/wippyai/ffi-struct/ext"
	"github.com/wippyai/ffi-struct/layout"
)

// WITPointerSize is the address width of the Canonical ABI (wasm32).
const WITPointerSize = 4

// FromWIT builds the linear-memory layout of a WIT record. Primitive fields
// map onto built-in types, nested records onto inline structs, enums onto
// enum fields with the smallest discriminant that fits, and flags onto one
// single-bit field per flag. Other kinds are unsupported.
func FromWIT(td *wit.TypeDef) (*layout.Layout, error) {
	if td == nil {
		return nil, errors.InvalidArgument(errors.PhaseSchema, nil, "nil", "type definition is nil")
	}
	c := &witConverter{seen: map[*wit.TypeDef]*layout.Layout{}}
	return c.record(td, nil)
}

type witConverter struct {
	seen map[*wit.TypeDef]*layout.Layout
}

func (c *witConverter) record(td *wit.TypeDef, path []string) (*layout.Layout, error) {
	if l, ok := c.seen[td]; ok {
		return l, nil
	}

	var rec *wit.Record
	switch kind := td.Kind.(type) {
	case *wit.Record:
		rec = kind
	case wit.Type:
		if alias, ok := kind.(*wit.TypeDef); ok {
			return c.record(alias, path)
		}
	}
	if rec == nil {
		return nil, errors.New(errors.PhaseSchema, errors.KindUnsupported).
			Path(path...).
			Detail("WIT type %T is not a record", td.Kind).
			Build()
	}

	b := layout.NewBuilder(layout.WithPointerSize(WITPointerSize))
	for _, f := range rec.Fields {
		fieldPath := append(append([]string(nil), path...), f.Name)
		if err := c.field(b, f.Name, f.Type, fieldPath); err != nil {
			return nil, err
		}
	}
	l, err := b.Build()
	if err != nil {
		return nil, err
	}
	c.seen[td] = l

	name := ""
	if td.Name != nil {
		name = *td.Name
	}
	Logger().Debug("WIT record converted",
		zap.String("name", name),
		zap.Int("fields", len(rec.Fields)),
		zap.Uint32("size", l.Size()))
	return l, nil
}

func (c *witConverter) field(b *layout.Builder, name string, t wit.Type, path []string) error {
	if typ, ok := witPrimitive(t); ok {
		b.Add(name, typ)
		return nil
	}

	td, ok := t.(*wit.TypeDef)
	if !ok {
		return unsupportedWIT(t, path)
	}

	switch kind := td.Kind.(type) {
	case *wit.Record:
		nested, err := c.record(td, path)
		if err != nil {
			return err
		}
		ext.Add(b, name, ext.Struct(nested))
		return nil

	case *wit.Enum:
		symbols := make(map[string]int64, len(kind.Cases))
		for i, ec := range kind.Cases {
			symbols[ec.Name] = int64(i)
		}
		ext.Add(b, name, ext.Enum(discriminant(len(kind.Cases)), symbols))
		return nil

	case *wit.Flags:
		return addFlags(b, name, kind, path)

	case wit.Type:
		return c.field(b, name, kind, path)
	}
	return unsupportedWIT(td.Kind, path)
}

// addFlags lays out a flags type as one storage unit with a bitfield per
// flag, named "<field>.<flag>".
func addFlags(b *layout.Builder, name string, f *wit.Flags, path []string) error {
	n := len(f.Flags)
	var storage codec.NativeType
	switch {
	case n == 0:
		return errors.InvalidLayout(path, "flags type has no flags")
	case n <= 8:
		storage = codec.UInt8
	case n <= 16:
		storage = codec.UInt16
	case n <= 32:
		storage = codec.UInt32
	default:
		return errors.New(errors.PhaseSchema, errors.KindUnsupported).
			Path(path...).
			Detail("flags type with %d flags", n).
			Build()
	}

	for i, flag := range f.Flags {
		t := ext.Bitfield(storage, uint8(i), 1)
		if i == 0 {
			ext.Add(b, name+"."+flag.Name, t)
		} else {
			ext.AddOverlay(b, name+"."+flag.Name, t)
		}
	}
	return nil
}

func discriminant(cases int) codec.NativeType {
	switch {
	case cases <= 1<<8:
		return codec.UInt8
	case cases <= 1<<16:
		return codec.UInt16
	}
	return codec.UInt32
}

func witPrimitive(t wit.Type) (codec.NativeType, bool) {
	switch t.(type) {
	case wit.Bool, wit.U8:
		return codec.UInt8, true
	case wit.S8:
		return codec.Int8, true
	case wit.U16:
		return codec.UInt16, true
	case wit.S16:
		return codec.Int16, true
	case wit.U32, wit.Char:
		return codec.UInt32, true
	case wit.S32:
		return codec.Int32, true
	case wit.U64:
		return codec.UInt64, true
	case wit.S64:
		return codec.Int64, true
	case wit.F32:
		return codec.Float32, true
	case wit.F64:
		return codec.Float64, true
	}
	return 0, false
}

func unsupportedWIT(t any, path []string) error {
	return errors.New(errors.PhaseSchema, errors.KindUnsupported).
		Path(path...).
		Detail("unsupported WIT type: %T", t).
		Build()
}
