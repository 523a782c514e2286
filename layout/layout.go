package layout

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/wippyai/ffi-struct/errors"
)

// Layout is an immutable, ordered table of fields plus the size and
// alignment of the whole struct.
type Layout struct {
	index  map[string]int
	fields []*Field
	size   uint32
	align  uint32
}

// New creates a layout from finished descriptors. Names must be unique and
// every field must end within size.
func New(fields []*Field, size, align uint32) (*Layout, error) {
	if align == 0 || align&(align-1) != 0 {
		return nil, errors.InvalidLayout(nil, "alignment %d is not a power of two", align)
	}

	l := &Layout{
		index:  make(map[string]int, len(fields)),
		fields: make([]*Field, 0, len(fields)),
		size:   size,
		align:  align,
	}
	for _, f := range fields {
		if f == nil {
			return nil, errors.InvalidLayout(nil, "nil field descriptor")
		}
		if _, dup := l.index[f.name]; dup {
			return nil, errors.InvalidLayout([]string{f.name}, "duplicate field")
		}
		if f.End() > uint64(size) {
			return nil, errors.InvalidLayout([]string{f.name}, "field [%d, %d) exceeds struct size %d", f.offset, f.End(), size)
		}
		l.index[f.name] = len(l.fields)
		l.fields = append(l.fields, f)
	}
	return l, nil
}

// Get returns the named field or an unknown field error.
func (l *Layout) Get(name string) (*Field, error) {
	if f, ok := l.Lookup(name); ok {
		return f, nil
	}
	return nil, errors.UnknownField(errors.PhaseLayout, name)
}

// Lookup returns the named field.
func (l *Layout) Lookup(name string) (*Field, bool) {
	i, ok := l.index[name]
	if !ok {
		return nil, false
	}
	return l.fields[i], true
}

// Fields returns the fields in declaration order.
func (l *Layout) Fields() []*Field {
	return append([]*Field(nil), l.fields...)
}

// Names returns the field names in declaration order.
func (l *Layout) Names() []string {
	names := make([]string, len(l.fields))
	for i, f := range l.fields {
		names[i] = f.name
	}
	return names
}

// Len returns the number of fields.
func (l *Layout) Len() int      { return len(l.fields) }
func (l *Layout) Size() uint32  { return l.size }
func (l *Layout) Align() uint32 { return l.align }

// String renders the layout as a table for diagnostics.
func (l *Layout) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "layout size=%d align=%d\n", l.size, l.align)
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tOFFSET\tSIZE\tALIGN")
	for _, f := range l.fields {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", f.name, f.typ, f.offset, f.size, f.align)
	}
	_ = w.Flush()
	return b.String()
}
