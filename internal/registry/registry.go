package registry

import (
	"context"
	"reflect"
	"sort"
	"sync"

	"github.com/vk/regionfactory/internal/ctxlog"
)

// Module is the interface that built-in region packages implement to
// contribute their providers.
type Module interface {
	Register(r *Registry)
}

// Registry holds the native providers keyed by node type name. The zero value
// is ready to use.
type Registry struct {
	mu        sync.Mutex
	providers map[string]Provider
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register installs provider under name. An existing registration is
// replaced; the last writer wins.
func (r *Registry) Register(name string, provider Provider) {
	r.RegisterContext(context.Background(), name, provider)
}

// RegisterContext is Register with logging through the context's logger.
func (r *Registry) RegisterContext(ctx context.Context, name string, provider Provider) {
	logger := ctxlog.FromContext(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.providers == nil {
		r.providers = make(map[string]Provider)
	}
	if _, exists := r.providers[name]; exists {
		logger.Debug("Replacing native region provider.", "type", name)
	} else {
		logger.Debug("Registering native region provider.", "type", name)
	}
	r.providers[name] = provider
}

// Lookup returns the provider registered under name.
func (r *Registry) Lookup(name string) (Provider, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[name]
	return p, ok
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.providers)
}

// Names returns the registered type names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Seed registers the given modules if, and only if, the registry is empty.
// It reports whether seeding happened. Calling it repeatedly is safe.
func (r *Registry) Seed(ctx context.Context, modules ...Module) bool {
	if r.Len() > 0 || len(modules) == 0 {
		return false
	}
	for _, mod := range modules {
		mod.Register(r)
	}
	ctxlog.FromContext(ctx).Debug("Built-in region modules registered.", "modules", len(modules), "types", r.Len())
	return true
}

// Cleanup releases every registered provider and empties the registry.
func (r *Registry) Cleanup(ctx context.Context) {
	r.mu.Lock()
	providers := r.providers
	r.providers = make(map[string]Provider)
	r.mu.Unlock()

	for name, p := range providers {
		if rel, ok := p.(Releaser); ok {
			rel.Release()
		}
		ctxlog.FromContext(ctx).Debug("Released native region provider.", "type", name)
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
