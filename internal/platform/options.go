package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/litedoc/pkg/core"
	"github.com/aretw0/litedoc/pkg/mapper"
)

// options holds the internal configuration for opening a store.
type options struct {
	engine  core.Engine
	logger  *slog.Logger
	adapter string
	naming  mapper.Namer
	config  map[string]interface{}
}

// Option defines a functional option for configuring litedoc.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		engine:  nil,
		logger:  nil,
		adapter: AdapterSQLite,
		naming:  mapper.TypeName,
		config:  make(map[string]interface{}),
	}
}

func apply(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger used by the engine and the context.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEngine injects an already opened engine (e.g. a shared one, or a fake
// in tests). The connection target is ignored when it is set.
func WithEngine(engine core.Engine) Option {
	return func(o *options) {
		o.engine = engine
	}
}

// WithAdapter selects the storage adapter by name ("sqlite" or "memory").
// Defaults to "sqlite".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithReadOnly opens the store read-only. Writes return core.ErrReadOnly
// and the catalog schema is not created.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.config["read_only"] = enabled
	}
}

// WithMustExist fails Init when the database file does not exist yet,
// instead of creating it.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithTimeout overrides the busy timeout of the connection target.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.config["timeout"] = d
	}
}

// WithNaming sets how entity types map to collection names.
// Defaults to the declared type name.
func WithNaming(naming mapper.Namer) Option {
	return func(o *options) {
		o.naming = naming
	}
}
