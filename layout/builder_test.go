package layout

import (
	"errors"
	"testing"

	"github.com/wippyai/ffi-struct/codec"
	ffierrors "github.com/wippyai/ffi-struct/errors"
)

func offsets(l *Layout) map[string]uint32 {
	m := make(map[string]uint32)
	for _, f := range l.Fields() {
		m[f.Name()] = f.Offset()
	}
	return m
}

func TestBuilder_Alignment(t *testing.T) {
	t.Run("int32_float64", func(t *testing.T) {
		l, err := NewBuilder().Add("a", codec.Int32).Add("b", codec.Float64).Build()
		if err != nil {
			t.Fatal(err)
		}
		if offs := offsets(l); offs["a"] != 0 || offs["b"] != 8 {
			t.Errorf("offsets = %v", offs)
		}
		if l.Size() != 16 || l.Align() != 8 {
			t.Errorf("size=%d align=%d, want 16/8", l.Size(), l.Align())
		}
	})

	t.Run("mixed_alignment", func(t *testing.T) {
		l, err := NewBuilder().
			Add("a", codec.UInt8).
			Add("b", codec.UInt32).
			Add("c", codec.UInt8).
			Build()
		if err != nil {
			t.Fatal(err)
		}
		offs := offsets(l)
		if offs["a"] != 0 || offs["b"] != 4 || offs["c"] != 8 {
			t.Errorf("offsets = %v", offs)
		}
		if l.Size() != 12 || l.Align() != 4 {
			t.Errorf("size=%d align=%d, want 12/4", l.Size(), l.Align())
		}
	})

	t.Run("packed", func(t *testing.T) {
		l, err := NewBuilder(WithPacked()).
			Add("a", codec.UInt8).
			Add("b", codec.UInt32).
			Build()
		if err != nil {
			t.Fatal(err)
		}
		if offs := offsets(l); offs["b"] != 1 {
			t.Errorf("offsets = %v", offs)
		}
		if l.Size() != 5 || l.Align() != 1 {
			t.Errorf("size=%d align=%d, want 5/1", l.Size(), l.Align())
		}
	})

	t.Run("empty", func(t *testing.T) {
		l, err := NewBuilder().Build()
		if err != nil {
			t.Fatal(err)
		}
		if l.Size() != 0 || l.Align() != 1 {
			t.Errorf("size=%d align=%d", l.Size(), l.Align())
		}
	})
}

func TestBuilder_PointerSize(t *testing.T) {
	for _, ptr := range []uint32{4, 8} {
		l, err := NewBuilder(WithPointerSize(ptr)).
			Add("flag", codec.UInt8).
			Add("p", codec.Pointer).
			Add("s", codec.String).
			Build()
		if err != nil {
			t.Fatalf("ptr %d: %v", ptr, err)
		}
		p, _ := l.Lookup("p")
		s, _ := l.Lookup("s")
		if p.Offset() != ptr || p.Size() != ptr || s.Offset() != 2*ptr {
			t.Errorf("ptr %d: p at %d size %d, s at %d", ptr, p.Offset(), p.Size(), s.Offset())
		}
		if l.Size() != 3*ptr {
			t.Errorf("ptr %d: size %d", ptr, l.Size())
		}
	}

	if _, err := NewBuilder(WithPointerSize(2)).Build(); !errors.Is(err, ffierrors.ErrInvalidLayout) {
		t.Errorf("expected invalid layout for pointer size 2, got %v", err)
	}
}

func TestBuilder_ExplicitOffsets(t *testing.T) {
	l, err := NewBuilder().
		AddAt("tail", codec.UInt32, 12).
		Add("after", codec.UInt16).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	offs := offsets(l)
	if offs["tail"] != 12 || offs["after"] != 16 {
		t.Errorf("offsets = %v", offs)
	}
	if l.Size() != 20 {
		t.Errorf("size = %d, want 20", l.Size())
	}

	if _, err := NewBuilder().AddAt("bad", codec.UInt32, 2).Build(); err == nil {
		t.Error("expected misaligned explicit offset to fail")
	}

	// unions: overlapping explicit offsets are allowed
	u, err := NewBuilder().
		AddAt("i", codec.Int64, 0).
		AddAt("f", codec.Float64, 0).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	if u.Size() != 8 {
		t.Errorf("union size = %d, want 8", u.Size())
	}
}

func TestBuilder_Extension(t *testing.T) {
	var bound uint32
	l, err := NewBuilder().
		Add("n", codec.UInt8).
		AddExtension("arr", 12, 4, func(offset uint32) (Extension, error) {
			bound = offset
			return nopExt{}, nil
		}).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	if bound != 4 {
		t.Errorf("factory got offset %d, want 4", bound)
	}
	f, _ := l.Lookup("arr")
	if f.Type() != codec.Extension || f.Offset() != 4 || f.Size() != 12 {
		t.Errorf("descriptor %+v", f)
	}
	if l.Size() != 16 {
		t.Errorf("size = %d, want 16", l.Size())
	}

	_, err = NewBuilder().AddExtension("x", 4, 4, nil).Build()
	if !errors.Is(err, ffierrors.ErrInvalidLayout) {
		t.Errorf("expected invalid layout for nil factory, got %v", err)
	}

	_, err = NewBuilder().AddExtension("x", 4, 4, func(uint32) (Extension, error) {
		return nil, errors.New("boom")
	}).Build()
	if err == nil {
		t.Error("expected factory error to propagate")
	}
}

func TestBuilder_ExtensionOverlay(t *testing.T) {
	var offsetsSeen []uint32
	factory := func(offset uint32) (Extension, error) {
		offsetsSeen = append(offsetsSeen, offset)
		return nopExt{}, nil
	}
	l, err := NewBuilder().
		Add("tag", codec.UInt16).
		AddExtension("lo", 4, 4, factory).
		AddExtensionOverlay("hi", 4, 4, factory).
		Add("next", codec.UInt8).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	if len(offsetsSeen) != 2 || offsetsSeen[0] != 4 || offsetsSeen[1] != 4 {
		t.Errorf("overlay offsets = %v, want [4 4]", offsetsSeen)
	}
	if got := offsets(l)["next"]; got != 8 {
		t.Errorf("next offset = %d, want 8", got)
	}

	_, err = NewBuilder().AddExtensionOverlay("x", 4, 4, factory).Build()
	if !errors.Is(err, ffierrors.ErrInvalidLayout) {
		t.Errorf("expected invalid layout for leading overlay, got %v", err)
	}
}

func TestBuilder_Errors(t *testing.T) {
	if _, err := NewBuilder().Add("x", codec.NativeType(99)).Build(); err == nil {
		t.Error("expected unknown type error")
	}
	if _, err := NewBuilder().Add("x", codec.Int8).Add("x", codec.Int8).Build(); err == nil {
		t.Error("expected duplicate name error")
	}
}

func TestAlignTo(t *testing.T) {
	tests := []struct{ off, align, want uint64 }{
		{0, 4, 0}, {1, 4, 4}, {4, 4, 4}, {5, 8, 8}, {7, 0, 7}, {9, 1, 9},
	}
	for _, tc := range tests {
		if got := AlignTo(tc.off, tc.align); got != tc.want {
			t.Errorf("AlignTo(%d, %d) = %d, want %d", tc.off, tc.align, got, tc.want)
		}
	}
}
