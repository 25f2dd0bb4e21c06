// Package region defines the contracts shared by the factory and the region
// implementations it constructs.
package region

import "github.com/vk/regionfactory/internal/state"

// Owner is the engine-side region object that owns an implementation.
type Owner interface {
	Name() string
}

// Impl is a constructed region implementation. The factory hands it to the
// caller and never retains it.
type Impl interface {
	// Type returns the node type name the implementation was created for.
	Type() string
}

// Serializer is implemented by implementations whose state can be persisted
// and later restored through a provider's deserialize operation.
type Serializer interface {
	Serialize(b *state.Bundle) error
}

// NamedOwner is a trivial Owner for tools and tests that have no engine
// region object at hand.
type NamedOwner string

// Name implements Owner.
func (o NamedOwner) Name() string { return string(o) }
