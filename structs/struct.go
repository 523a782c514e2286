package structs

import (
	"go.uber.org/zap"

	ffistruct "github.com/wippyai/ffi-struct"
	"github.com/wippyai/ffi-struct/codec"
	"github.com/wippyai/ffi-struct/errors"
	"github.com/wippyai/ffi-struct/layout"
	"github.com/wippyai/ffi-struct/region"
)

// State reports which of layout and region are bound.
type State uint8

const (
	Unbound State = iota
	LayoutOnly
	RegionOnly
	Bound
)

var stateNames = [...]string{
	Unbound:    "unbound",
	LayoutOnly: "layout-only",
	RegionOnly: "region-only",
	Bound:      "bound",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Struct binds a layout to a region and marshals fields by name.
type Struct struct {
	layout *layout.Layout
	region *region.Region
	log    *zap.Logger
	opts   codec.Options
}

// FieldValue is one decoded field.
type FieldValue struct {
	Value any
	Name  string
	Type  codec.NativeType
}

// New creates an instance, applies bindings from opts, then runs init hooks.
func New(opts ...Option) (*Struct, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Struct{
		log:  cfg.log,
		opts: codec.Options{Strict: cfg.strict},
	}
	if s.log == nil {
		s.log = Logger()
	}

	if cfg.layout != nil {
		if err := s.SetLayout(cfg.layout); err != nil {
			return nil, err
		}
	}
	if cfg.region != nil {
		if err := s.SetRegion(cfg.region); err != nil {
			return nil, err
		}
	}
	for _, hook := range cfg.inits {
		if err := hook(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Bind creates an instance bound to l and r.
func Bind(l *layout.Layout, r *region.Region, opts ...Option) (*Struct, error) {
	return New(append([]Option{WithLayout(l), WithRegion(r)}, opts...)...)
}

// Layout returns the bound layout, or nil.
func (s *Struct) Layout() *layout.Layout {
	return s.layout
}

// Fields returns the bound layout's fields in order, or nil when no layout
// is bound.
func (s *Struct) Fields() []*layout.Field {
	if s.layout == nil {
		return nil
	}
	return s.layout.Fields()
}

// Region returns the bound region, or nil.
func (s *Struct) Region() *region.Region {
	return s.region
}

// Address returns the base address of the bound region, so a struct can be
// stored in a pointer field of another struct.
func (s *Struct) Address() ffistruct.Address {
	return s.region.Address()
}

// State reports the binding state.
func (s *Struct) State() State {
	switch {
	case s.layout != nil && s.region != nil:
		return Bound
	case s.layout != nil:
		return LayoutOnly
	case s.region != nil:
		return RegionOnly
	}
	return Unbound
}

// SetLayout binds l, replacing any previous layout. When a region is
// already bound it must be at least l.Size() bytes.
func (s *Struct) SetLayout(l *layout.Layout) error {
	if l == nil {
		return errors.InvalidArgument(errors.PhaseBind, nil, "nil", "layout is nil")
	}
	if s.region != nil && s.region.Len() < l.Size() {
		return errors.New(errors.PhaseBind, errors.KindInvalidArgument).
			Detail("bound region has %d bytes, layout needs %d", s.region.Len(), l.Size()).
			Build()
	}
	s.layout = l
	s.log.Debug("layout bound",
		zap.Int("fields", l.Len()),
		zap.Uint32("size", l.Size()),
		zap.Stringer("state", s.State()))
	return nil
}

// SetRegion binds r, replacing any previous region. When a layout is
// already bound, r must be at least layout.Size() bytes; otherwise the size
// check happens when the layout is bound.
func (s *Struct) SetRegion(r *region.Region) error {
	if r == nil {
		return errors.InvalidArgument(errors.PhaseBind, nil, "nil", "region is nil")
	}
	if s.layout != nil && r.Len() < s.layout.Size() {
		return errors.New(errors.PhaseBind, errors.KindInvalidArgument).
			Detail("region has %d bytes, layout needs %d", r.Len(), s.layout.Size()).
			Build()
	}
	s.region = r
	s.log.Debug("region bound",
		zap.Uint32("base", r.Base()),
		zap.Uint32("len", r.Len()),
		zap.Stringer("state", s.State()))
	return nil
}

func (s *Struct) bound(phase errors.Phase) error {
	switch {
	case s.layout == nil && s.region == nil:
		return errors.PreconditionFailed(phase, "layout and region not set")
	case s.layout == nil:
		return errors.PreconditionFailed(phase, "layout not set")
	case s.region == nil:
		return errors.PreconditionFailed(phase, "region not set")
	}
	return nil
}

func (s *Struct) field(phase errors.Phase, name string) (*layout.Field, error) {
	if err := s.bound(phase); err != nil {
		return nil, err
	}

	f, ok := s.layout.Lookup(name)
	if !ok {
		return nil, errors.UnknownField(phase, name)
	}
	if f.End() > uint64(s.region.Len()) {
		return nil, errors.OutOfBounds(phase, []string{name}, uint64(f.Offset()), uint64(f.Size()), uint64(s.region.Len()))
	}
	return f, nil
}

// Get decodes the named field.
func (s *Struct) Get(name string) (any, error) {
	f, err := s.field(errors.PhaseGet, name)
	if err != nil {
		return nil, err
	}

	if f.Type() == codec.Extension {
		s.log.Debug("extension get", zap.String("field", name))
		v, err := f.Extension().Get(s.region)
		if err != nil {
			return nil, withField(err, name)
		}
		return v, nil
	}

	c, ok := codec.Lookup(f.Type())
	if !ok {
		return nil, errors.Unsupported(errors.PhaseGet, "field type "+f.Type().String()).WithPath(name)
	}
	v, err := c.Get(s.region, f.Offset(), f.Size())
	if err != nil {
		return nil, withField(err, name)
	}
	return v, nil
}

// Put encodes v into the named field and returns the instance. Only the
// bytes of that field are written; on error nothing is written by the
// built-in codecs.
func (s *Struct) Put(name string, v any) (*Struct, error) {
	f, err := s.field(errors.PhasePut, name)
	if err != nil {
		return s, err
	}

	switch f.Type() {
	case codec.String:
		return s, errors.New(errors.PhasePut, errors.KindUnsupported).
			Path(name).
			NativeType(codec.String.String()).
			Detail("cannot set string fields").
			Build()

	case codec.Extension:
		s.log.Debug("extension put", zap.String("field", name))
		if _, err := f.Extension().Put(s.region, v); err != nil {
			return s, withField(err, name)
		}
		return s, nil
	}

	c, ok := codec.Lookup(f.Type())
	if !ok {
		return s, errors.Unsupported(errors.PhasePut, "field type "+f.Type().String()).WithPath(name)
	}
	if err := c.Put(s.region, f.Offset(), f.Size(), v, s.opts); err != nil {
		return s, withField(err, name)
	}
	return s, nil
}

// Assign puts several fields. All names are checked first, so an unknown
// name leaves the region untouched; fields are then written in layout order.
func (s *Struct) Assign(values map[string]any) error {
	if err := s.bound(errors.PhasePut); err != nil {
		return err
	}
	for name := range values {
		if _, ok := s.layout.Lookup(name); !ok {
			return errors.UnknownField(errors.PhasePut, name)
		}
	}
	for _, f := range s.layout.Fields() {
		v, ok := values[f.Name()]
		if !ok {
			continue
		}
		if _, err := s.Put(f.Name(), v); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot decodes every field in layout order.
func (s *Struct) Snapshot() ([]FieldValue, error) {
	if err := s.bound(errors.PhaseGet); err != nil {
		return nil, err
	}
	out := make([]FieldValue, 0, s.layout.Len())
	for _, f := range s.layout.Fields() {
		v, err := s.Get(f.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, FieldValue{Name: f.Name(), Type: f.Type(), Value: v})
	}
	return out, nil
}

func withField(err error, name string) error {
	if e, ok := err.(*errors.Error); ok {
		return e.WithPath(name)
	}
	return err
}
