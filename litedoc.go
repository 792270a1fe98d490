package litedoc

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/litedoc/internal/platform"
	"github.com/aretw0/litedoc/pkg/core"
	"github.com/aretw0/litedoc/pkg/mapper"
	"github.com/aretw0/litedoc/pkg/odm"
	"github.com/aretw0/litedoc/pkg/typed"
)

// --- Types ---

// Context owns an opened store and the sets bound on a model.
type Context = odm.Context

// ModelBuilder registers entity types while a Context is opened.
type ModelBuilder = odm.ModelBuilder

// EntityOption customizes the registration of one entity type.
type EntityOption = odm.EntityOption

// Set is the typed accessor over one collection.
type Set[T any] = typed.Set[T]

// ReferenceSet is the read-only view of a Set with references resolved.
type ReferenceSet[T any] = typed.ReferenceSet[T]

// Query is a typed query over a Set.
type Query[T any] = typed.Query[T]

// Document is the engine representation of a stored entity.
type Document = core.Document

// Engine is the storage boundary the sets talk to.
type Engine = core.Engine

// Reference describes one reference field of an entity.
type Reference = mapper.Reference

// --- Configuration ---

// Option defines a functional option for opening a store.
type Option = platform.Option

// WithLogger sets the logger for the engine and the context.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithAdapter selects the storage adapter by name ("sqlite" or "memory").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithEngine injects an already opened engine.
func WithEngine(engine core.Engine) Option {
	return platform.WithEngine(engine)
}

// WithReadOnly opens the store read-only.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithMustExist fails when the database file does not exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithTimeout overrides the busy timeout of the connection target.
func WithTimeout(d time.Duration) Option {
	return platform.WithTimeout(d)
}

// WithNaming sets how entity types map to collection names.
func WithNaming(naming mapper.Namer) Option {
	return platform.WithNaming(naming)
}

// --- Factory ---

// Open opens the store at target, runs configure, and binds every
// *Set[T] field of model. See odm.Open.
func Open(model any, target string, configure func(*ModelBuilder) error, opts ...Option) (*Context, error) {
	return odm.Open(model, target, configure, opts...)
}

// Init opens an engine without a model.
func Init(target string, opts ...Option) (core.Engine, error) {
	return platform.Init(target, opts...)
}

// NewSet binds a single Set to an engine without a model.
func NewSet[T any](ctx context.Context, engine core.Engine, opts ...typed.SetOption) (*Set[T], error) {
	return typed.NewSet[T](ctx, engine, opts...)
}

// --- Model ---

// Entity registers T with the model builder.
func Entity[T any](mb *ModelBuilder, opts ...EntityOption) error {
	return odm.Entity[T](mb, opts...)
}

// Named stores the entity in the given collection.
func Named(name string) EntityOption {
	return odm.Named(name)
}

// WithReference declares a reference field without a struct tag.
func WithReference(field, collection string) EntityOption {
	return odm.WithReference(field, collection)
}

// Index ensures an index on a document field.
func Index(field string, unique bool) EntityOption {
	return odm.Index(field, unique)
}

// Configure runs fn against the entity's collection during registration.
func Configure(fn func(core.Collection) error) EntityOption {
	return odm.Configure(fn)
}

// --- Utils ---

// FindProjectRoot looks upwards for the directory holding litedoc.yaml.
func FindProjectRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
