// Package coerce converts managed Go values into fixed-width native
// integer and float representations.
//
// Conversions follow native store semantics: integers are reduced to their
// low bits in two's complement and floats are truncated toward zero. The
// Fits helpers let callers that want range checking reject values first.
//
// This package is internal to the module.
package coerce
