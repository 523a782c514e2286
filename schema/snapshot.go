package schema

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	ffistruct "github.com/wippyai/ffi-struct"
	"github.com/wippyai/ffi-struct/errors"
	"github.com/wippyai/ffi-struct/structs"
)

// Format selects a snapshot encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatCBOR Format = "cbor"
)

// ParseFormat accepts a format name, case-insensitively.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatYAML, FormatTOML, FormatCBOR:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", errors.Unsupported(errors.PhaseSchema, "snapshot format "+name)
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("schema: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// EncodeSnapshot encodes decoded fields. Nested structs become nested
// mappings and addresses become hex strings. YAML keeps layout order; TOML
// and CBOR sort keys. TOML has no null, so null fields are omitted and null
// array elements become 0.
func EncodeSnapshot(format Format, fields []structs.FieldValue) ([]byte, error) {
	switch format {
	case FormatYAML:
		node, err := yamlMapping(fields)
		if err != nil {
			return nil, err
		}
		out, err := yaml.Marshal(node)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseSchema, errors.KindInvalidData, err, "encode yaml snapshot")
		}
		return out, nil

	case FormatTOML:
		m, err := plainMap(fields, true)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(m); err != nil {
			return nil, errors.Wrap(errors.PhaseSchema, errors.KindInvalidData, err, "encode toml snapshot")
		}
		return buf.Bytes(), nil

	case FormatCBOR:
		m, err := plainMap(fields, false)
		if err != nil {
			return nil, err
		}
		out, err := cborEncMode.Marshal(m)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseSchema, errors.KindInvalidData, err, "encode cbor snapshot")
		}
		return out, nil
	}
	return nil, errors.Unsupported(errors.PhaseSchema, "snapshot format "+string(format))
}

// DecodeCBOR decodes a CBOR snapshot into a generic map.
func DecodeCBOR(data []byte) (map[string]any, error) {
	var m map[string]any
	if err := cbor.Unmarshal(data, &m); err != nil {
		return nil, errors.ParseFailed("cbor snapshot", err)
	}
	return m, nil
}

func plainMap(fields []structs.FieldValue, noNull bool) (map[string]any, error) {
	m := make(map[string]any, len(fields))
	for _, f := range fields {
		v, err := plainValue(f.Value, noNull)
		if err != nil {
			return nil, err
		}
		if v == nil && noNull {
			continue
		}
		m[f.Name] = v
	}
	return m, nil
}

func plainValue(v any, noNull bool) (any, error) {
	switch val := v.(type) {
	case *structs.Struct:
		fields, err := val.Snapshot()
		if err != nil {
			return nil, err
		}
		return plainMap(fields, noNull)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			p, err := plainValue(elem, noNull)
			if err != nil {
				return nil, err
			}
			if p == nil && noNull {
				p = int64(0)
			}
			out[i] = p
		}
		return out, nil
	case ffistruct.Address:
		return val.String(), nil
	}
	return v, nil
}

func yamlMapping(fields []structs.FieldValue) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, f := range fields {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Name}

		var value *yaml.Node
		if nested, ok := f.Value.(*structs.Struct); ok {
			inner, err := nested.Snapshot()
			if err != nil {
				return nil, err
			}
			if value, err = yamlMapping(inner); err != nil {
				return nil, err
			}
		} else {
			p, err := plainValue(f.Value, false)
			if err != nil {
				return nil, err
			}
			value = &yaml.Node{}
			if err := value.Encode(p); err != nil {
				return nil, errors.Wrap(errors.PhaseSchema, errors.KindInvalidData, err, "encode field "+f.Name)
			}
		}
		node.Content = append(node.Content, key, value)
	}
	return node, nil
}
