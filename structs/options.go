package structs

import (
	"go.uber.org/zap"

	"github.com/wippyai/ffi-struct/layout"
	"github.com/wippyai/ffi-struct/region"
)

type config struct {
	layout *layout.Layout
	region *region.Region
	log    *zap.Logger
	inits  []func(*Struct) error
	strict bool
}

// Option configures a Struct at construction.
type Option func(*config)

// WithLayout binds a layout at construction.
func WithLayout(l *layout.Layout) Option {
	return func(c *config) {
		c.layout = l
	}
}

// WithRegion binds a region at construction.
func WithRegion(r *region.Region) Option {
	return func(c *config) {
		c.region = r
	}
}

// WithInit registers a hook that runs after the layout and region options
// are applied. Hooks run in registration order; the first error aborts New.
func WithInit(fn func(*Struct) error) Option {
	return func(c *config) {
		c.inits = append(c.inits, fn)
	}
}

// WithLogger overrides the package logger for one instance.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

// WithStrictRange makes Put reject values that do not fit a built-in field
// instead of truncating them. Extension fields encode on their own terms and
// are not affected; nested structs written through an extension truncate.
func WithStrictRange() Option {
	return func(c *config) {
		c.strict = true
	}
}
