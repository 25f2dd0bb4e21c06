package testutil

import (
	"context"
	"sync"

	"github.com/vk/regionfactory/internal/params"
	"github.com/vk/regionfactory/internal/region"
	"github.com/vk/regionfactory/internal/registry"
	"github.com/vk/regionfactory/internal/spec"
	"github.com/vk/regionfactory/internal/state"
)

// Impl is the implementation handed out by the fakes in this package.
type Impl struct {
	TypeName string
	Params   params.Map
	Bundle   *state.Bundle
	Owner    region.Owner
	// Version identifies the provider registration that built it.
	Version int
}

// Type implements region.Impl.
func (i *Impl) Type() string { return i.TypeName }

// Provider is a recording registry.Provider.
type Provider struct {
	TypeName string
	Version  int
	// Spec is copied on every CreateSpec call. A nil Spec makes CreateSpec
	// return nothing.
	Spec *spec.Spec
	// NilImpl makes CreateImpl and DeserializeImpl return nothing.
	NilImpl bool
	Err     error

	mu                                  sync.Mutex
	creates, deserializes, specs, frees int
}

var (
	_ registry.Provider = (*Provider)(nil)
	_ registry.Releaser = (*Provider)(nil)
)

// NewProvider returns a Provider for typeName whose spec declares the given
// parameters.
func NewProvider(typeName string, version int, parameters ...spec.Parameter) *Provider {
	return &Provider{
		TypeName: typeName,
		Version:  version,
		Spec:     &spec.Spec{Type: typeName, Parameters: parameters},
	}
}

// CreateImpl implements registry.Provider.
func (p *Provider) CreateImpl(_ context.Context, m params.Map, owner region.Owner) (region.Impl, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.creates++
	if p.Err != nil || p.NilImpl {
		return nil, p.Err
	}
	return &Impl{TypeName: p.TypeName, Params: m, Owner: owner, Version: p.Version}, nil
}

// DeserializeImpl implements registry.Provider.
func (p *Provider) DeserializeImpl(_ context.Context, b *state.Bundle, owner region.Owner) (region.Impl, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deserializes++
	if p.Err != nil || p.NilImpl {
		return nil, p.Err
	}
	return &Impl{TypeName: p.TypeName, Bundle: b, Owner: owner, Version: p.Version}, nil
}

// CreateSpec implements registry.Provider.
func (p *Provider) CreateSpec(context.Context) (*spec.Spec, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.specs++
	if p.Spec == nil {
		return nil, nil
	}
	s := *p.Spec
	return &s, nil
}

// Release implements registry.Releaser.
func (p *Provider) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frees++
}

// Creates returns the number of CreateImpl calls.
func (p *Provider) Creates() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.creates
}

// Deserializes returns the number of DeserializeImpl calls.
func (p *Provider) Deserializes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.deserializes
}

// Specs returns the number of CreateSpec calls.
func (p *Provider) Specs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.specs
}

// Releases returns the number of Release calls.
func (p *Provider) Releases() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frees
}

// Module registers a fixed set of providers; it stands in for a built-in
// region package.
type Module map[string]registry.Provider

// Register implements registry.Module.
func (m Module) Register(r *registry.Registry) {
	for name, p := range m {
		r.Register(name, p)
	}
}
