package testutil

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/vk/regionfactory/internal/params"
	"github.com/vk/regionfactory/internal/region"
	"github.com/vk/regionfactory/internal/spec"
	"github.com/vk/regionfactory/internal/state"
)

// ErrForeignException is what FakeBridge returns for names marked as raising.
var ErrForeignException = errors.New("foreign runtime raised an exception")

// FakeBridge is an in-memory foreign runtime. It hosts specs under qualified
// names and records every call made into it.
type FakeBridge struct {
	mu sync.Mutex

	hosted  map[string]*spec.Spec
	raising map[string]bool

	// LoadErr is returned by Load until cleared.
	LoadErr error
	// DestroyStatus is returned by DestroySpec.
	DestroyStatus int

	loads        int
	specCalls    []string
	instanceCall []string
	deserCalls   []string
	destroyed    []string
}

// NewFakeBridge returns a FakeBridge hosting nothing.
func NewFakeBridge() *FakeBridge {
	return &FakeBridge{hosted: map[string]*spec.Spec{}, raising: map[string]bool{}}
}

// Host makes qualified resolvable. A nil s hosts an empty spec.
func (b *FakeBridge) Host(qualified string, s *spec.Spec) *FakeBridge {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s == nil {
		s = &spec.Spec{Type: qualified}
	}
	b.hosted[qualified] = s
	return b
}

// Raise makes every call for qualified fail with ErrForeignException.
func (b *FakeBridge) Raise(qualified string) *FakeBridge {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.raising[qualified] = true
	return b
}

// Load stands in for the bridge construction sequence and counts attempts.
func (b *FakeBridge) Load(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loads++
	return b.LoadErr
}

// Loads returns how often Load ran.
func (b *FakeBridge) Loads() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loads
}

func (b *FakeBridge) lookup(qualified string) (*spec.Spec, error) {
	if b.raising[qualified] {
		return nil, ErrForeignException
	}
	return b.hosted[qualified], nil
}

// CreateSpec returns a copy of the hosted spec for qualified.
func (b *FakeBridge) CreateSpec(_ context.Context, qualified string) (*spec.Spec, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.specCalls = append(b.specCalls, qualified)
	s, err := b.lookup(qualified)
	if s == nil {
		return nil, err
	}
	cp := *s
	return &cp, nil
}

// DestroySpec records the release of a spec.
func (b *FakeBridge) DestroySpec(_ context.Context, qualified string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.destroyed = append(b.destroyed, qualified)
	return b.DestroyStatus
}

// CreateInstance builds an Impl for hosted names.
func (b *FakeBridge) CreateInstance(_ context.Context, qualified string, p params.Map, owner region.Owner) (region.Impl, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.instanceCall = append(b.instanceCall, qualified)
	s, err := b.lookup(qualified)
	if s == nil {
		return nil, err
	}
	return &Impl{TypeName: qualified, Params: p, Owner: owner}, nil
}

// DeserializeInstance restores an Impl for hosted names.
func (b *FakeBridge) DeserializeInstance(_ context.Context, qualified string, bundle *state.Bundle, owner region.Owner) (region.Impl, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deserCalls = append(b.deserCalls, qualified)
	s, err := b.lookup(qualified)
	if s == nil {
		return nil, err
	}
	return &Impl{TypeName: qualified, Bundle: bundle, Owner: owner}, nil
}

// SpecCalls returns the qualified names passed to CreateSpec, in order.
func (b *FakeBridge) SpecCalls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.specCalls)
}

// InstanceCalls returns the qualified names passed to CreateInstance.
func (b *FakeBridge) InstanceCalls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.instanceCall)
}

// DeserializeCalls returns the qualified names passed to DeserializeInstance.
func (b *FakeBridge) DeserializeCalls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.deserCalls)
}

// Destroyed returns the qualified names passed to DestroySpec.
func (b *FakeBridge) Destroyed() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.destroyed)
}
