// Package factory resolves node type names to region implementations. It is
// the single entry point the engine uses: it owns the native registry, the
// spec cache and the foreign search path, and it reaches the foreign runtime
// through a lazily constructed Bridge.
package factory

import (
	"context"
	"sync"

	"github.com/vk/regionfactory/internal/bridge"
	"github.com/vk/regionfactory/internal/ctxlog"
	"github.com/vk/regionfactory/internal/params"
	"github.com/vk/regionfactory/internal/region"
	"github.com/vk/regionfactory/internal/regionerr"
	"github.com/vk/regionfactory/internal/registry"
	"github.com/vk/regionfactory/internal/resolver"
	"github.com/vk/regionfactory/internal/spec"
	"github.com/vk/regionfactory/internal/speccache"
	"github.com/vk/regionfactory/internal/state"
	"github.com/vk/regionfactory/internal/typename"
)

// Bridge is the four-operation contract of the foreign runtime. A nil result
// with a nil error means the qualified name is not hosted.
type Bridge interface {
	CreateSpec(ctx context.Context, qualified string) (*spec.Spec, error)
	DestroySpec(ctx context.Context, qualified string) int
	CreateInstance(ctx context.Context, qualified string, p params.Map, owner region.Owner) (region.Impl, error)
	DeserializeInstance(ctx context.Context, qualified string, b *state.Bundle, owner region.Owner) (region.Impl, error)
}

// BridgeFunc constructs the Bridge on first use of a foreign type.
type BridgeFunc func(ctx context.Context) (Bridge, error)

// ProcessBridge returns a BridgeFunc backed by the process-wide loader.
func ProcessBridge(opts bridge.Options) BridgeFunc {
	return func(ctx context.Context) (Bridge, error) {
		l := bridge.Process(opts)
		if err := l.Load(ctx); err != nil {
			return nil, err
		}
		return l, nil
	}
}

// Options configures a Factory. Nil fields get fresh defaults.
type Options struct {
	Registry   *registry.Registry
	Cache      *speccache.Cache
	SearchPath *resolver.SearchPath
	Parser     params.Parser
	Bridge     BridgeFunc
	// Modules are seeded into the registry whenever it is found empty.
	Modules []registry.Module
}

// Factory is safe for concurrent use.
type Factory struct {
	registry *registry.Registry
	cache    *speccache.Cache
	path     *resolver.SearchPath
	parser   params.Parser
	modules  []registry.Module

	// mu serializes spec construction on cache misses and bridge construction.
	mu        sync.Mutex
	newBridge BridgeFunc
	bridge    Bridge
}

// New builds a Factory from opts.
func New(opts Options) *Factory {
	f := &Factory{
		registry:  opts.Registry,
		cache:     opts.Cache,
		path:      opts.SearchPath,
		parser:    opts.Parser,
		modules:   opts.Modules,
		newBridge: opts.Bridge,
	}
	if f.registry == nil {
		f.registry = registry.New()
	}
	if f.cache == nil {
		f.cache = speccache.New()
	}
	if f.path == nil {
		f.path = resolver.NewSearchPath(resolver.DefaultNamespaces...)
	}
	if f.parser == nil {
		f.parser = params.YAMLParser{}
	}
	return f
}

var (
	defaultOnce    sync.Once
	defaultFactory *Factory
)

// Default returns the process-wide Factory wired to the built-in modules and
// the process-wide bridge with platform defaults.
func Default() *Factory {
	defaultOnce.Do(func() {
		defaultFactory = New(Options{
			Bridge:  ProcessBridge(bridge.Options{}),
			Modules: Builtins(),
		})
	})
	return defaultFactory
}

// seed installs the built-in modules if the registry is empty.
func (f *Factory) seed(ctx context.Context) {
	if f.registry.Seed(ctx, f.modules...) {
		ctxlog.FromContext(ctx).Debug("Seeded built-in region providers.", "count", f.registry.Len())
	}
}

func (f *Factory) lookup(ctx context.Context, typeName string) (registry.Provider, bool) {
	f.seed(ctx)
	return f.registry.Lookup(typeName)
}

// GetSpec returns the spec for typeName, building and caching it on first
// use. Later calls return the same *spec.Spec until Cleanup.
func (f *Factory) GetSpec(ctx context.Context, typeName string) (*spec.Spec, error) {
	if s, ok := f.cache.Get(typeName); ok {
		return s, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if s, ok := f.cache.Get(typeName); ok {
		return s, nil
	}
	logger := ctxlog.FromContext(ctx)

	if p, ok := f.lookup(ctx, typeName); ok {
		s, err := p.CreateSpec(ctx)
		if err != nil {
			return nil, regionerr.Wrap(regionerr.KindSpecUnavailable, typeName, err, "building native spec")
		}
		if s == nil {
			return nil, regionerr.SpecUnavailable(typeName)
		}
		logger.Debug("Native spec built.", "type", typeName)
		return f.cache.Put(typeName, speccache.Native(s)), nil
	}

	if !typename.IsForeign(typeName) {
		return nil, regionerr.UnsupportedType(typeName)
	}

	b, err := f.bridgeLocked(ctx)
	if err != nil {
		return nil, err
	}
	s, qualified, err := resolver.Resolve(ctx, f.path, typeName, func(q string) (*spec.Spec, bool, error) {
		s, err := b.CreateSpec(ctx, q)
		return s, s != nil, err
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("Foreign spec built.", "type", typeName, "qualified", qualified)
	return f.cache.Put(typeName, speccache.Foreign(s, qualified, b)), nil
}

// bridgeLocked returns the Bridge, constructing it if needed. A failed
// construction is not remembered, so the next foreign call tries again.
// f.mu must be held.
func (f *Factory) bridgeLocked(ctx context.Context) (Bridge, error) {
	if f.bridge != nil {
		return f.bridge, nil
	}
	if f.newBridge == nil {
		return nil, regionerr.BridgeNotFound("", "no foreign runtime is configured")
	}
	b, err := f.newBridge(ctx)
	if err != nil {
		ctxlog.FromContext(ctx).Error("Foreign runtime unavailable.", "error", err)
		return nil, err
	}
	f.bridge = b
	return b, nil
}

func (f *Factory) currentBridge(ctx context.Context) (Bridge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bridgeLocked(ctx)
}

// CreateImpl builds an implementation of typeName from a raw parameter
// string. The caller owns the returned implementation.
func (f *Factory) CreateImpl(ctx context.Context, typeName, rawParams string, owner region.Owner) (region.Impl, error) {
	ctx = ctxlog.With(ctx, "type", typeName)
	s, err := f.GetSpec(ctx, typeName)
	if err != nil {
		return nil, err
	}

	var ownerName string
	if owner != nil {
		ownerName = owner.Name()
	}
	p, err := f.parser.Parse(rawParams, s, typeName, ownerName)
	if err != nil {
		return nil, regionerr.InvalidParams(typeName, err)
	}

	impl, err := dispatch(ctx, f, typeName,
		func(prov registry.Provider) (region.Impl, error) {
			return prov.CreateImpl(ctx, p, owner)
		},
		func(b Bridge, q string) (region.Impl, error) {
			return b.CreateInstance(ctx, q, p, owner)
		},
	)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Region implementation created.", "owner", ownerName)
	return impl, nil
}

// DeserializeImpl restores an implementation of typeName from a state
// bundle. The parameter schema is not consulted.
func (f *Factory) DeserializeImpl(ctx context.Context, typeName string, b *state.Bundle, owner region.Owner) (region.Impl, error) {
	ctx = ctxlog.With(ctx, "type", typeName)
	impl, err := dispatch(ctx, f, typeName,
		func(prov registry.Provider) (region.Impl, error) {
			return prov.DeserializeImpl(ctx, b, owner)
		},
		func(br Bridge, q string) (region.Impl, error) {
			return br.DeserializeInstance(ctx, q, b, owner)
		},
	)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Region implementation restored.")
	return impl, nil
}

// dispatch routes a call to the native provider for typeName or, for foreign
// names, through the search path to the bridge.
func dispatch(
	ctx context.Context,
	f *Factory,
	typeName string,
	native func(registry.Provider) (region.Impl, error),
	foreign func(Bridge, string) (region.Impl, error),
) (region.Impl, error) {
	if prov, ok := f.lookup(ctx, typeName); ok {
		impl, err := native(prov)
		if err != nil {
			return nil, err
		}
		if impl == nil {
			return nil, regionerr.ImplUnavailable(typeName)
		}
		return impl, nil
	}

	if !typename.IsForeign(typeName) {
		return nil, regionerr.UnsupportedType(typeName)
	}

	b, err := f.currentBridge(ctx)
	if err != nil {
		return nil, err
	}
	impl, _, err := resolver.Resolve(ctx, f.path, typeName, func(q string) (region.Impl, bool, error) {
		impl, err := foreign(b, q)
		return impl, impl != nil, err
	})
	return impl, err
}

// Cleanup releases every cached spec, then every registered provider. The
// foreign runtime stays up.
func (f *Factory) Cleanup(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	specs, providers := f.cache.Len(), f.registry.Len()
	f.cache.Cleanup(ctx)
	f.registry.Cleanup(ctx)
	ctxlog.FromContext(ctx).Debug("Factory cleaned up.", "specs", specs, "providers", providers)
}

// RegisterNative installs a native provider under name, replacing any
// existing one. Built-ins are seeded first if the registry is empty.
func (f *Factory) RegisterNative(ctx context.Context, name string, p registry.Provider) {
	f.seed(ctx)
	f.registry.RegisterContext(ctx, name, p)
}

// RegisterNamespace appends a namespace to the foreign search path.
func (f *Factory) RegisterNamespace(ns string) {
	f.path.Append(ns)
}

// Namespaces returns the foreign search path in search order.
func (f *Factory) Namespaces() []string {
	return f.path.Namespaces()
}

// NativeTypes returns the registered native type names, sorted.
func (f *Factory) NativeTypes(ctx context.Context) []string {
	f.seed(ctx)
	return f.registry.Names()
}
