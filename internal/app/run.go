package app

import (
	"context"
	"fmt"
	"io"

	"github.com/vk/regionfactory/internal/ctxlog"
	"github.com/vk/regionfactory/internal/region"
	"github.com/vk/regionfactory/internal/state"
)

// RegionResult describes an implementation the App built and released.
type RegionResult struct {
	Type     string   `yaml:"type"`
	Owner    string   `yaml:"owner"`
	Sections []string `yaml:"state_sections,omitempty"`
}

// DescribeSpec returns the printable spec of typeName.
func (a *App) DescribeSpec(ctx context.Context, typeName string) (*SpecView, error) {
	s, err := a.factory.GetSpec(a.Context(ctx), typeName)
	if err != nil {
		return nil, err
	}
	return NewSpecView(s)
}

// CreateRegion builds typeName with rawParams on behalf of owner. If the
// implementation can be serialized and stateOut is non-nil, its state bundle
// is written there.
func (a *App) CreateRegion(ctx context.Context, typeName, rawParams, owner string, stateOut io.Writer) (*RegionResult, error) {
	ctx = a.Context(ctx)
	impl, err := a.factory.CreateImpl(ctx, typeName, rawParams, region.NamedOwner(owner))
	if err != nil {
		return nil, err
	}
	return a.finish(ctx, impl, owner, stateOut)
}

// RestoreRegion rebuilds typeName from a bundle previously written by
// CreateRegion.
func (a *App) RestoreRegion(ctx context.Context, typeName string, stateIn io.Reader, owner string) (*RegionResult, error) {
	ctx = a.Context(ctx)
	b, err := state.Read(stateIn)
	if err != nil {
		return nil, err
	}
	impl, err := a.factory.DeserializeImpl(ctx, typeName, b, region.NamedOwner(owner))
	if err != nil {
		return nil, err
	}
	return a.finish(ctx, impl, owner, nil)
}

// finish reports on impl and then releases it; the App is its owner.
func (a *App) finish(ctx context.Context, impl region.Impl, owner string, stateOut io.Writer) (*RegionResult, error) {
	if r, ok := impl.(interface{ Release() }); ok {
		defer r.Release()
	}

	res := &RegionResult{Type: impl.Type(), Owner: owner}
	ser, ok := impl.(region.Serializer)
	if !ok {
		return res, nil
	}
	b := state.New()
	if err := ser.Serialize(b); err != nil {
		return nil, fmt.Errorf("serializing %s: %w", impl.Type(), err)
	}
	res.Sections = b.Sections()
	if stateOut != nil {
		if _, err := b.WriteTo(stateOut); err != nil {
			return nil, fmt.Errorf("writing state: %w", err)
		}
	}
	ctxlog.FromContext(ctx).Debug("Region state captured.", "type", impl.Type(), "sections", res.Sections)
	return res, nil
}

// NativeTypes lists the registered native types.
func (a *App) NativeTypes(ctx context.Context) []string {
	return a.factory.NativeTypes(a.Context(ctx))
}

// Namespaces lists the foreign search path.
func (a *App) Namespaces() []string {
	return a.factory.Namespaces()
}
