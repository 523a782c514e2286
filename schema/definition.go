package schema

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/ffi-struct/codec"
	"github.com/wippyai/ffi-struct/errors"
	"github.com/wippyai/ffi-struct/ext"
	"github.com/wippyai/ffi-struct/layout"
)

// Definition describes a struct layout.
type Definition struct {
	Structs     map[string]*Definition `toml:"structs" yaml:"structs"`
	Name        string                 `toml:"name" yaml:"name"`
	Fields      []FieldDef             `toml:"fields" yaml:"fields"`
	PointerSize uint32                 `toml:"pointer_size" yaml:"pointer_size"`
	Packed      bool                   `toml:"packed" yaml:"packed"`
}

// FieldDef describes one field of a Definition.
type FieldDef struct {
	Offset  *uint32          `toml:"offset" yaml:"offset"`
	Symbols map[string]int64 `toml:"symbols" yaml:"symbols"`
	Name    string           `toml:"name" yaml:"name"`
	Type    string           `toml:"type" yaml:"type"`
	Storage string           `toml:"storage" yaml:"storage"`
	Struct  string           `toml:"struct" yaml:"struct"`
	Count   uint32           `toml:"count" yaml:"count"`
	Length  uint32           `toml:"length" yaml:"length"`
	Shift   uint8            `toml:"shift" yaml:"shift"`
	Bits    uint8            `toml:"bits" yaml:"bits"`
}

// LoadTOML parses a TOML definition.
func LoadTOML(data []byte) (*Definition, error) {
	var d Definition
	if err := toml.Unmarshal(data, &d); err != nil {
		return nil, errors.ParseFailed("toml definition", err)
	}
	Logger().Debug("definition loaded", zap.String("name", d.Name), zap.String("format", "toml"), zap.Int("fields", len(d.Fields)))
	return &d, nil
}

// LoadYAML parses a YAML definition.
func LoadYAML(data []byte) (*Definition, error) {
	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, errors.ParseFailed("yaml definition", err)
	}
	Logger().Debug("definition loaded", zap.String("name", d.Name), zap.String("format", "yaml"), zap.Int("fields", len(d.Fields)))
	return &d, nil
}

// LoadFile reads a definition, choosing the format by file extension.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseSchema, errors.KindInvalidArgument, err, "read "+path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return LoadTOML(data)
	case ".yaml", ".yml":
		return LoadYAML(data)
	}
	return nil, errors.Unsupported(errors.PhaseSchema, "definition format "+filepath.Ext(path))
}

// Build produces the layout described by d. Nested struct references are
// resolved against d.Structs and inherit d's pointer size and packing.
func (d *Definition) Build() (*layout.Layout, error) {
	r := &resolver{root: d, building: map[string]bool{}, built: map[string]*layout.Layout{}}
	return r.build(d, d.Name, nil)
}

type resolver struct {
	root     *Definition
	building map[string]bool
	built    map[string]*layout.Layout
}

func (r *resolver) builder() *layout.Builder {
	var opts []layout.BuilderOption
	if r.root.PointerSize != 0 {
		opts = append(opts, layout.WithPointerSize(r.root.PointerSize))
	}
	if r.root.Packed {
		opts = append(opts, layout.WithPacked())
	}
	return layout.NewBuilder(opts...)
}

func (r *resolver) build(d *Definition, name string, path []string) (*layout.Layout, error) {
	if len(d.Fields) == 0 {
		return nil, errors.InvalidLayout(path, "definition %q has no fields", name)
	}

	b := r.builder()
	for i := range d.Fields {
		f := &d.Fields[i]
		fieldPath := append(append([]string(nil), path...), f.Name)
		if err := r.add(b, f, fieldPath); err != nil {
			return nil, err
		}
	}
	l, err := b.Build()
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			return nil, e.WithPath(path...)
		}
		return nil, err
	}
	Logger().Debug("layout built",
		zap.String("name", name),
		zap.Uint32("size", l.Size()),
		zap.Uint32("align", l.Align()))
	return l, nil
}

func (r *resolver) add(b *layout.Builder, f *FieldDef, path []string) error {
	if f.Name == "" {
		return errors.InvalidLayout(path, "field without a name")
	}

	switch strings.ToLower(f.Type) {
	case "bitfield":
		storage, err := parseStorage(f.Storage, codec.UInt32, path)
		if err != nil {
			return err
		}
		t := ext.Bitfield(storage, f.Shift, f.Bits)
		switch {
		case f.Offset != nil:
			ext.AddAt(b, f.Name, *f.Offset, t)
		case f.Shift > 0:
			ext.AddOverlay(b, f.Name, t)
		default:
			ext.Add(b, f.Name, t)
		}
		return nil

	case "enum":
		storage, err := parseStorage(f.Storage, codec.Int32, path)
		if err != nil {
			return err
		}
		return addExt(b, f, ext.Enum(storage, f.Symbols))

	case "struct":
		nested, err := r.resolve(f.Struct, path)
		if err != nil {
			return err
		}
		return addExt(b, f, ext.Struct(nested))
	}

	typ, ok := codec.ParseType(f.Type)
	if !ok {
		return errors.InvalidLayout(path, "unknown type %q", f.Type)
	}
	switch {
	case f.Length > 0 && (typ == codec.Int8 || typ == codec.UInt8):
		return addExt(b, f, ext.CharArray(f.Length))
	case f.Count > 0:
		return addExt(b, f, ext.Array(typ, f.Count))
	case f.Offset != nil:
		b.AddAt(f.Name, typ, *f.Offset)
	default:
		b.Add(f.Name, typ)
	}
	return nil
}

func addExt(b *layout.Builder, f *FieldDef, t ext.Type) error {
	if f.Offset != nil {
		ext.AddAt(b, f.Name, *f.Offset, t)
		return nil
	}
	ext.Add(b, f.Name, t)
	return nil
}

func (r *resolver) resolve(name string, path []string) (*layout.Layout, error) {
	if name == "" {
		return nil, errors.InvalidLayout(path, "struct field without a struct reference")
	}
	if l, ok := r.built[name]; ok {
		return l, nil
	}
	d, ok := r.root.Structs[name]
	if !ok || d == nil {
		return nil, errors.InvalidLayout(path, "unknown struct %q", name)
	}
	if r.building[name] {
		return nil, errors.InvalidLayout(path, "struct %q contains itself", name)
	}

	r.building[name] = true
	defer delete(r.building, name)

	l, err := r.build(d, name, path)
	if err != nil {
		return nil, err
	}
	r.built[name] = l
	return l, nil
}

func parseStorage(name string, def codec.NativeType, path []string) (codec.NativeType, error) {
	if name == "" {
		return def, nil
	}
	t, ok := codec.ParseType(name)
	if !ok {
		return 0, errors.InvalidLayout(path, "unknown storage type %q", name)
	}
	return t, nil
}
