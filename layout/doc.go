// Package layout provides field descriptors and immutable struct layouts.
//
// A Layout is an ordered, name-keyed table of Field descriptors plus the
// total size and alignment a region must provide. Layouts never change after
// construction and can be shared by any number of struct instances and
// goroutines.
//
// Layouts are usually produced by a Builder, which assigns offsets with C
// alignment rules:
//
//	l, err := layout.NewBuilder(layout.WithPointerSize(8)).
//		Add("a", codec.Int32).
//		Add("b", codec.Float64).
//		Build()
//	// a at 0, b at 8, size 16, align 8
//
// Fields whose encoding is not a built-in codec carry an Extension, which
// reads and writes the field given the whole region. The Builder binds an
// extension to its offset through an ExtensionFactory.
package layout
