package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	ffierrors "github.com/wippyai/ffi-struct/errors"
	"github.com/wippyai/ffi-struct/memory"
	"github.com/wippyai/ffi-struct/region"
	"github.com/wippyai/ffi-struct/structs"
)

func packetSnapshot(t *testing.T) []structs.FieldValue {
	t.Helper()
	d, err := LoadTOML([]byte(packetTOML))
	if err != nil {
		t.Fatal(err)
	}
	l, err := d.Build()
	if err != nil {
		t.Fatal(err)
	}
	heap := memory.NewHeap(64 * 1024)
	r, _ := region.Alloc(heap, heap, l.Size(), l.Align())
	s, _ := structs.Bind(l, r)
	err = s.Assign(map[string]any{
		"kind":    "ping",
		"origin":  map[string]any{"x": 3, "y": -4},
		"label":   "abc",
		"samples": []int{7, 8, 9},
	})
	if err != nil {
		t.Fatal(err)
	}
	snap, err := s.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

func TestEncodeSnapshot_YAMLKeepsOrder(t *testing.T) {
	out, err := EncodeSnapshot(FormatYAML, packetSnapshot(t))
	if err != nil {
		t.Fatal(err)
	}
	text := string(out)

	last := -1
	for _, key := range []string{"kind:", "mode:", "level:", "origin:", "label:", "samples:", "next:"} {
		i := strings.Index(text, key)
		if i < 0 {
			t.Fatalf("missing %s in\n%s", key, text)
		}
		if i < last {
			t.Errorf("%s out of layout order in\n%s", key, text)
		}
		last = i
	}

	var decoded map[string]any
	if err := yaml.Unmarshal(out, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["kind"] != "ping" || decoded["label"] != "abc" || decoded["next"] != nil {
		t.Errorf("decoded = %v", decoded)
	}
	origin, ok := decoded["origin"].(map[string]any)
	if !ok || origin["y"] != -4 {
		t.Errorf("origin = %#v", decoded["origin"])
	}
}

func TestEncodeSnapshot_TOML(t *testing.T) {
	out, err := EncodeSnapshot(FormatTOML, packetSnapshot(t))
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if _, err := toml.Decode(string(out), &decoded); err != nil {
		t.Fatalf("decode %s: %v", out, err)
	}
	if _, ok := decoded["next"]; ok {
		t.Error("null pointer should be omitted from TOML")
	}
	if decoded["kind"] != "ping" {
		t.Errorf("kind = %v", decoded["kind"])
	}
	origin, ok := decoded["origin"].(map[string]any)
	if !ok || origin["x"] != int64(3) {
		t.Errorf("origin = %#v", decoded["origin"])
	}
}

func TestEncodeSnapshot_CBOR(t *testing.T) {
	out, err := EncodeSnapshot(FormatCBOR, packetSnapshot(t))
	if err != nil {
		t.Fatal(err)
	}
	m, err := DecodeCBOR(out)
	if err != nil {
		t.Fatal(err)
	}
	if m["kind"] != "ping" || m["label"] != "abc" {
		t.Errorf("decoded = %v", m)
	}
	if v, ok := m["next"]; !ok || v != nil {
		t.Errorf("next = %v, present %v", v, ok)
	}
	samples, ok := m["samples"].([]any)
	if !ok || len(samples) != 3 || samples[2] != uint64(9) {
		t.Errorf("samples = %#v", m["samples"])
	}

	if _, err := DecodeCBOR([]byte{0xff}); !errors.Is(err, ffierrors.ErrInvalidData) {
		t.Errorf("expected invalid data, got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"yaml": FormatYAML, "YML": FormatYAML, "toml": FormatTOML, "cbor": FormatCBOR} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, ffierrors.ErrUnsupported) {
		t.Errorf("expected unsupported, got %v", err)
	}
	if _, err := EncodeSnapshot("xml", nil); !errors.Is(err, ffierrors.ErrUnsupported) {
		t.Errorf("expected unsupported, got %v", err)
	}
}
