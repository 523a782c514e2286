package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:      PhasePut,
				Kind:       KindInvalidArgument,
				Path:       []string{"point", "inner", "x"},
				GoType:     "string",
				NativeType: "int32",
				Detail:     "cannot convert",
			},
			contains: []string{"[put]", "invalid_argument", "point.inner.x", "string", "int32", "cannot convert"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseGet,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[get]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseMemory,
				Kind:   KindAllocation,
				Detail: "heap full",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[memory]", "allocation", "heap full", "caused by", "underlying error"},
		},
		{
			name:     "native type only",
			err:      &Error{Phase: PhasePut, Kind: KindOverflow, NativeType: "uint8", Detail: "300"},
			contains: []string{"native type uint8 - 300"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseSchema,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should see the cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseGet,
		Kind:  KindUnknownField,
		Path:  []string{"foo"},
	}

	if !err.Is(&Error{Phase: PhaseGet, Kind: KindUnknownField}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhasePut, Kind: KindUnknownField}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseGet, Kind: KindOutOfBounds}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, ErrUnknownField) {
		t.Error("sentinel without phase should match on kind")
	}
	if errors.Is(err, ErrPreconditionFailed) {
		t.Error("sentinel of another kind should not match")
	}
}

func TestError_WithPath(t *testing.T) {
	err := UnknownField(PhaseGet, "x")
	wrapped := err.WithPath("outer")

	if got := strings.Join(wrapped.Path, "."); got != "outer.x" {
		t.Errorf("Path = %q, want outer.x", got)
	}
	if len(err.Path) != 1 {
		t.Errorf("original path modified: %v", err.Path)
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhasePut, KindInvalidArgument).
		Path("user", "age").
		GoType("string").
		NativeType("uint32").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "integer", "string").
		Build()

	if err.Phase != PhasePut {
		t.Errorf("Phase = %v, want %v", err.Phase, PhasePut)
	}
	if err.Kind != KindInvalidArgument {
		t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidArgument)
	}
	if len(err.Path) != 2 || err.Path[0] != "user" || err.Path[1] != "age" {
		t.Errorf("Path = %v, want [user age]", err.Path)
	}
	if err.GoType != "string" {
		t.Errorf("GoType = %v, want 'string'", err.GoType)
	}
	if err.NativeType != "uint32" {
		t.Errorf("NativeType = %v, want 'uint32'", err.NativeType)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected integer, got string" {
		t.Errorf("Detail = %v", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("UnknownField", func(t *testing.T) {
		err := UnknownField(PhaseGet, "missing")
		if err.Kind != KindUnknownField {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnknownField)
		}
		if !strings.Contains(err.Error(), `"missing"`) {
			t.Errorf("message should name the field: %s", err.Error())
		}
	})

	t.Run("PreconditionFailed", func(t *testing.T) {
		err := PreconditionFailed(PhaseGet, "region not set")
		if !errors.Is(err, ErrPreconditionFailed) {
			t.Errorf("Kind = %v", err.Kind)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseGet, []string{"a"}, 12, 8, 16)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if !strings.Contains(err.Detail, "[12, 20)") {
			t.Errorf("Detail = %v", err.Detail)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhasePut, []string{"val"}, 300, "uint8")
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
		if err.Value != 300 {
			t.Errorf("Value = %v, want 300", err.Value)
		}
	})

	t.Run("InvalidLayout", func(t *testing.T) {
		err := InvalidLayout([]string{"b"}, "offset %d not aligned to %d", 3, 4)
		if err.Phase != PhaseLayout || err.Detail != "offset 3 not aligned to 4" {
			t.Errorf("got %v", err)
		}
	})

	t.Run("AllocationFailed", func(t *testing.T) {
		err := AllocationFailed(PhaseMemory, 1024, 8)
		if !strings.Contains(err.Detail, "1024") {
			t.Errorf("Detail = %v, should contain size", err.Detail)
		}
	})
}
