package registry

import (
	"context"
	"errors"

	"github.com/vk/regionfactory/internal/params"
	"github.com/vk/regionfactory/internal/region"
	"github.com/vk/regionfactory/internal/spec"
	"github.com/vk/regionfactory/internal/state"
)

// Provider builds the spec and the implementations of one native node type.
type Provider interface {
	CreateImpl(ctx context.Context, p params.Map, owner region.Owner) (region.Impl, error)
	DeserializeImpl(ctx context.Context, b *state.Bundle, owner region.Owner) (region.Impl, error)
	CreateSpec(ctx context.Context) (*spec.Spec, error)
}

// Releaser is implemented by providers holding resources that must be freed
// when the registry is cleaned up.
type Releaser interface {
	Release()
}

// Native adapts plain constructor functions into a Provider for the
// implementation type T.
type Native[T region.Impl] struct {
	Spec        func() *spec.Spec
	New         func(ctx context.Context, p params.Map, owner region.Owner) (T, error)
	Deserialize func(ctx context.Context, b *state.Bundle, owner region.Owner) (T, error)
	// OnRelease, if set, runs when the registry releases the provider.
	OnRelease func()
}

// CreateImpl implements Provider.
func (n *Native[T]) CreateImpl(ctx context.Context, p params.Map, owner region.Owner) (region.Impl, error) {
	if n.New == nil {
		return nil, errors.New("provider has no constructor")
	}
	impl, err := n.New(ctx, p, owner)
	if err != nil {
		return nil, err
	}
	return asImpl(impl), nil
}

// DeserializeImpl implements Provider.
func (n *Native[T]) DeserializeImpl(ctx context.Context, b *state.Bundle, owner region.Owner) (region.Impl, error) {
	if n.Deserialize == nil {
		return nil, errors.New("provider does not support deserialization")
	}
	impl, err := n.Deserialize(ctx, b, owner)
	if err != nil {
		return nil, err
	}
	return asImpl(impl), nil
}

// CreateSpec implements Provider. Every call returns a fresh Spec; caching
// is the factory's job.
func (n *Native[T]) CreateSpec(context.Context) (*spec.Spec, error) {
	if n.Spec == nil {
		return nil, nil
	}
	return n.Spec(), nil
}

// Release implements Releaser.
func (n *Native[T]) Release() {
	if n.OnRelease != nil {
		n.OnRelease()
	}
}

// asImpl keeps a typed nil pointer from turning into a non-nil interface.
func asImpl[T region.Impl](impl T) region.Impl {
	var v region.Impl = impl
	if isNil(v) {
		return nil
	}
	return v
}
