// Package structs binds layouts to memory regions and marshals field values.
//
// A Struct pairs one immutable *layout.Layout with one *region.Region and
// exposes Get and Put by field name. Built-in field types go through the
// codec table; extension fields forward to the extension carried by their
// descriptor.
//
// # Binding
//
// Instances support two-phase construction. New may run initialization
// hooks before the memory target exists, and the layout and region can be
// bound later in either order:
//
//	s, err := structs.New(
//	    structs.WithLayout(l),
//	    structs.WithInit(func(s *structs.Struct) error {
//	        r, err := region.Alloc(heap, heap, s.Layout().Size(), s.Layout().Align())
//	        if err != nil {
//	            return err
//	        }
//	        return s.SetRegion(r)
//	    }),
//	)
//
// Get and Put fail with errors.ErrPreconditionFailed until both are bound.
//
// # Thread Safety
//
// A Struct is not synchronized. Concurrent Put calls, or a Put racing a Get,
// on the same instance must be serialized by the caller. Instances sharing a
// layout but not a region are independent.
package structs
