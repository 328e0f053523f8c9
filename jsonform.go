// Package jsonform renders registered form definitions into JSON form
// documents and validates submissions against the render they came from.
//
// The root package wires the pieces most callers need together: a definition
// registry, a snapshot cache over a caller-supplied store, and the codec.
// Callers needing finer control can use pkg/form, pkg/formcache and pkg/codec
// directly.
package jsonform

import (
	"context"
	"fmt"

	"github.com/goliatone/go-jsonform/pkg/codec"
	"github.com/goliatone/go-jsonform/pkg/definition"
	"github.com/goliatone/go-jsonform/pkg/form"
	"github.com/goliatone/go-jsonform/pkg/formcache"
)

// Option configures a Forms service.
type Option func(*config)

type config struct {
	registry     *definition.Registry
	definitions  []*form.Definition
	cacheOptions []formcache.Option
	codecOptions []codec.Option
}

// WithRegistry supplies the definition registry. A fresh one is created
// otherwise.
func WithRegistry(registry *definition.Registry) Option {
	return func(c *config) {
		if registry != nil {
			c.registry = registry
		}
	}
}

// WithDefinitions registers definitions on construction.
func WithDefinitions(defs ...*form.Definition) Option {
	return func(c *config) { c.definitions = append(c.definitions, defs...) }
}

// WithCacheOptions forwards options to formcache.New.
func WithCacheOptions(options ...formcache.Option) Option {
	return func(c *config) { c.cacheOptions = append(c.cacheOptions, options...) }
}

// WithCodecOptions forwards options to codec.New.
func WithCodecOptions(options ...codec.Option) Option {
	return func(c *config) { c.codecOptions = append(c.codecOptions, options...) }
}

// Forms renders and validates registered definitions.
type Forms struct {
	registry *definition.Registry
	cache    *formcache.Cache
	codec    *codec.Codec
}

// New builds a Forms service storing snapshots in store.
func New(store formcache.Store, options ...Option) (*Forms, error) {
	cfg := config{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.registry == nil {
		cfg.registry = definition.NewRegistry()
	}
	if err := cfg.registry.RegisterAll(cfg.definitions...); err != nil {
		return nil, err
	}

	cache, err := formcache.New(store, cfg.cacheOptions...)
	if err != nil {
		return nil, err
	}
	c, err := codec.New(cache, cfg.codecOptions...)
	if err != nil {
		return nil, err
	}
	return &Forms{registry: cfg.registry, cache: cache, codec: c}, nil
}

// NewMemory builds a Forms service backed by an in-process store.
func NewMemory(options ...Option) (*Forms, error) {
	return New(formcache.NewMemoryStore(), options...)
}

// Registry returns the definition registry.
func (f *Forms) Registry() *definition.Registry { return f.registry }

// Cache returns the snapshot cache.
func (f *Forms) Cache() *formcache.Cache { return f.cache }

// Codec returns the underlying codec.
func (f *Forms) Codec() *codec.Codec { return f.codec }

// Instance binds a fresh instance of the named definition. The actor stored
// in ctx, if any, is attached before options are applied.
func (f *Forms) Instance(ctx context.Context, name string, options ...form.InstanceOption) (*form.Instance, error) {
	def, err := f.registry.Get(name)
	if err != nil {
		return nil, err
	}
	opts := make([]form.InstanceOption, 0, len(options)+1)
	if actor := form.ActorFromContext(ctx); actor != nil {
		opts = append(opts, form.WithActor(actor))
	}
	opts = append(opts, options...)
	return def.New(opts...), nil
}

// Render serializes a fresh instance of the named definition.
func (f *Forms) Render(ctx context.Context, name string, options ...form.InstanceOption) (codec.Output, error) {
	inst, err := f.Instance(ctx, name, options...)
	if err != nil {
		return codec.Output{}, err
	}
	out, err := f.codec.Serialize(ctx, inst)
	if err != nil {
		return codec.Output{}, fmt.Errorf("jsonform: render %s: %w", name, err)
	}
	return out, nil
}

// Submit validates data against the render identified by its form_key and
// binds it onto a fresh instance of the named definition.
func (f *Forms) Submit(ctx context.Context, name string, data map[string]any, options ...form.InstanceOption) (*form.Instance, error) {
	inst, err := f.Instance(ctx, name, options...)
	if err != nil {
		return nil, err
	}
	return f.codec.Deserialize(ctx, inst, data, true)
}
