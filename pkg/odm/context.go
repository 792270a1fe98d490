package odm

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"

	"github.com/aretw0/introspection"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/litedoc/internal/platform"
	"github.com/aretw0/litedoc/pkg/core"
)

// Context owns an engine and the sets bound on a model. Close releases the
// engine; sets obtained from the model must not be used afterwards.
type Context struct {
	engine core.Engine
	logger *slog.Logger
	// sets maps each bound field path to its collection.
	sets map[string]string

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

// ContextState is the introspection snapshot of a Context.
type ContextState struct {
	Sets   map[string]string `json:"sets"`
	Closed bool              `json:"closed"`
	Engine any               `json:"engine,omitempty"`
}

// Open opens the engine for target, runs configure once with a
// ModelBuilder, then binds every *typed.Set[T] field of model.
//
// On any failure the engine is closed and the error returned; model must
// then be discarded. An engine injected with platform.WithEngine is owned
// by the returned Context as well.
func Open(model any, target string, configure func(*ModelBuilder) error, opts ...platform.Option) (*Context, error) {
	root, err := modelValue(model)
	if err != nil {
		return nil, err
	}

	settings := platform.Resolve(opts...)
	logger := settings.Logger

	engine, err := platform.Init(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("open engine: %w", err)
	}

	c := &Context{
		engine: engine,
		logger: logger,
		sets:   make(map[string]string),
	}

	ctx := context.Background()
	mb := newModelBuilder(ctx, engine, settings.Naming, logger)

	if configure != nil {
		if err := configure(mb); err != nil {
			engine.Close()
			return nil, fmt.Errorf("configure model: %w", err)
		}
	}

	if err := c.bind(ctx, mb, root, ""); err != nil {
		engine.Close()
		return nil, err
	}

	logger.Debug("context opened", "model", root.Type().String(), "sets", len(c.sets))
	return c, nil
}

func modelValue(model any) (reflect.Value, error) {
	v := reflect.ValueOf(model)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("%w: got %T", ErrInvalidModel, model)
	}
	return v.Elem(), nil
}

// Close releases the engine. It is safe to call more than once; later
// calls return the result of the first.
func (c *Context) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		c.closeErr = c.engine.Close()
		c.logger.Debug("context closed")
	})
	return c.closeErr
}

// Engine returns the owned engine.
func (c *Context) Engine() core.Engine {
	return c.engine
}

// Collections lists the engine's collections whose name matches a
// doublestar pattern ("*", "{Books,Authors}", "Log_*"). An empty pattern
// matches everything.
func (c *Context) Collections(ctx context.Context, pattern string) ([]string, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}

	names, err := c.engine.CollectionNames(ctx)
	if err != nil {
		return nil, err
	}
	if pattern == "" {
		return names, nil
	}

	out := make([]string, 0, len(names))
	for _, name := range names {
		ok, err := doublestar.Match(pattern, name)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, name)
		}
	}
	return out, nil
}

// State implements introspection.Introspectable.
func (c *Context) State() any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sets := make(map[string]string, len(c.sets))
	for k, v := range c.sets {
		sets[k] = v
	}
	state := ContextState{Sets: sets, Closed: c.closed}
	if in, ok := c.engine.(introspection.Introspectable); ok {
		state.Engine = in.State()
	}
	return state
}

// ComponentType implements introspection.Component.
func (c *Context) ComponentType() string {
	return "context"
}

// SetNames returns the bound field paths, sorted.
func (c *Context) SetNames() []string {
	names := make([]string, 0, len(c.sets))
	for name := range c.sets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

var _ introspection.Introspectable = (*Context)(nil)
var _ introspection.Component = (*Context)(nil)
