package odm

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/aretw0/litedoc/pkg/core"
	"github.com/aretw0/litedoc/pkg/mapper"
	"github.com/aretw0/litedoc/pkg/typed"
)

// ModelBuilder registers entity types and runs their one-time collection
// setup. Registration is optional: unregistered sets bind with defaults.
type ModelBuilder struct {
	ctx    context.Context
	engine core.Engine
	naming mapper.Namer
	logger *slog.Logger

	entities map[reflect.Type]*entityConfig
}

func newModelBuilder(ctx context.Context, engine core.Engine, naming mapper.Namer, logger *slog.Logger) *ModelBuilder {
	return &ModelBuilder{
		ctx:      ctx,
		engine:   engine,
		naming:   naming,
		logger:   logger,
		entities: make(map[reflect.Type]*entityConfig),
	}
}

type entityConfig struct {
	name      string
	refs      []reference
	indexes   []index
	configure []func(core.Collection) error
}

type reference struct {
	field      string
	collection string
}

type index struct {
	field  string
	unique bool
}

// EntityOption customizes the registration of one entity type.
type EntityOption func(*entityConfig)

// Named stores the entity in the given collection instead of the one named
// after its type.
func Named(name string) EntityOption {
	return func(c *entityConfig) {
		c.name = name
	}
}

// WithReference declares a reference field without a struct tag.
// An empty collection targets the collection named after the field's type.
func WithReference(field, collection string) EntityOption {
	return func(c *entityConfig) {
		c.refs = append(c.refs, reference{field: field, collection: collection})
	}
}

// Index ensures an index on a document field.
func Index(field string, unique bool) EntityOption {
	return func(c *entityConfig) {
		c.indexes = append(c.indexes, index{field: field, unique: unique})
	}
}

// Configure runs fn against the entity's collection during registration.
func Configure(fn func(core.Collection) error) EntityOption {
	return func(c *entityConfig) {
		c.configure = append(c.configure, fn)
	}
}

// Entity registers T, creating its collection if needed, and applies the
// options. Registering the same type again is safe; later options add to
// earlier ones and a later Named wins.
func Entity[T any](mb *ModelBuilder, opts ...EntityOption) error {
	t := reflect.TypeFor[T]()

	cfg, ok := mb.entities[t]
	if !ok {
		cfg = &entityConfig{}
		mb.entities[t] = cfg
	}
	var step entityConfig
	for _, opt := range opts {
		opt(&step)
	}
	if step.name != "" {
		cfg.name = step.name
	}
	cfg.refs = append(cfg.refs, step.refs...)

	set, err := typed.NewSet[T](mb.ctx, mb.engine, mb.setOptions(t)...)
	if err != nil {
		return fmt.Errorf("register %s: %w", t, err)
	}
	coll := set.Collection()

	for _, ix := range step.indexes {
		if _, err := coll.EnsureIndex(mb.ctx, ix.field, ix.unique); err != nil {
			return fmt.Errorf("register %s: index %s: %w", t, ix.field, err)
		}
	}
	for _, fn := range step.configure {
		if err := fn(coll); err != nil {
			return fmt.Errorf("register %s: %w", t, err)
		}
	}

	mb.logger.Debug("entity registered",
		"type", t.String(),
		"collection", set.CollectionName(),
		"references", len(set.References()),
		"indexes", len(step.indexes))
	return nil
}

// setOptions returns the options binding a set for t.
func (mb *ModelBuilder) setOptions(t reflect.Type) []typed.SetOption {
	opts := []typed.SetOption{typed.WithNaming(mb.collectionName)}
	cfg, ok := mb.entities[t]
	if !ok {
		return opts
	}
	for _, ref := range cfg.refs {
		opts = append(opts, typed.WithReference(ref.field, ref.collection))
	}
	return opts
}

// collectionName names the collection of t, honoring Named registrations
// so references to a renamed entity find it.
func (mb *ModelBuilder) collectionName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cfg, ok := mb.entities[t]; ok && cfg.name != "" {
		return cfg.name
	}
	return mb.naming(t)
}

// Engine returns the engine the model is built on.
func (mb *ModelBuilder) Engine() core.Engine {
	return mb.engine
}
