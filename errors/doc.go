// Package errors provides structured error types for struct marshalling.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the field path, the Go and native type names, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhasePut, errors.KindInvalidArgument).
//		Path("point", "x").
//		GoType("string").
//		NativeType("int32").
//		Detail("cannot convert string to integer").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnknownField(errors.PhaseGet, "nope")
//	err := errors.OutOfBounds(errors.PhaseGet, path, 16, 8, 12)
//
// Kind sentinels (ErrUnknownField, ErrPreconditionFailed, ...) match any
// phase, so callers can test categories with the standard errors.Is:
//
//	if errors.Is(err, errors.ErrUnknownField) { ... }
package errors
