// Package testnode provides the TestNode region, a deterministic node with
// no algorithm that the engine's own tests build networks from.
package testnode

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/vk/regionfactory/internal/ctxlog"
	"github.com/vk/regionfactory/internal/params"
	"github.com/vk/regionfactory/internal/region"
	"github.com/vk/regionfactory/internal/registry"
	"github.com/vk/regionfactory/internal/spec"
	"github.com/vk/regionfactory/internal/state"
)

// TypeName is the name TestNode registers under.
const TypeName = "TestNode"

const stateSection = "testnode"

//go:embed manifest.hcl
var manifest []byte

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the TestNode provider.
func (m *Module) Register(r *registry.Registry) {
	r.Register(TypeName, &registry.Native[*Node]{
		Spec:        Spec,
		New:         New,
		Deserialize: Deserialize,
	})
}

// Spec returns a freshly decoded TestNode spec.
func Spec() *spec.Spec {
	return spec.MustParseRegion(manifest, "testnode/manifest.hcl", TypeName)
}

// Node is the TestNode implementation.
type Node struct {
	owner string

	Count           int     `msgpack:"count"`
	Int32Param      int32   `msgpack:"int32Param"`
	Real64Param     float64 `msgpack:"real64Param"`
	StringParam     string  `msgpack:"stringParam"`
	ComputeCallback string  `msgpack:"computeCallback"`
	Iteration       int     `msgpack:"iteration"`
}

var _ region.Serializer = (*Node)(nil)

// New builds a Node from parsed parameters.
func New(ctx context.Context, p params.Map, owner region.Owner) (*Node, error) {
	n := &Node{owner: ownerName(owner)}
	for name, target := range map[string]any{
		"count":           &n.Count,
		"int32Param":      &n.Int32Param,
		"real64Param":     &n.Real64Param,
		"stringParam":     &n.StringParam,
		"computeCallback": &n.ComputeCallback,
	} {
		if err := p.Decode(name, target); err != nil {
			return nil, err
		}
	}
	if n.Count < 0 {
		return nil, fmt.Errorf("count must not be negative, got %d", n.Count)
	}
	ctxlog.FromContext(ctx).Debug("TestNode created.", "owner", n.owner, "count", n.Count)
	return n, nil
}

// Deserialize restores a Node written by Serialize.
func Deserialize(ctx context.Context, b *state.Bundle, owner region.Owner) (*Node, error) {
	if b == nil {
		return nil, fmt.Errorf("%s: no state bundle", TypeName)
	}
	n := &Node{}
	if err := b.GetValue(stateSection, n); err != nil {
		return nil, err
	}
	n.owner = ownerName(owner)
	ctxlog.FromContext(ctx).Debug("TestNode restored.", "owner", n.owner, "iteration", n.Iteration)
	return n, nil
}

// Type implements region.Impl.
func (n *Node) Type() string { return TypeName }

// Owner returns the name of the owning region.
func (n *Node) Owner() string { return n.owner }

// Compute produces Count outputs, element i being i plus the current
// iteration, then advances the iteration.
func (n *Node) Compute() []float64 {
	out := make([]float64, n.Count)
	for i := range out {
		out[i] = float64(i + n.Iteration)
	}
	n.Iteration++
	return out
}

// Serialize implements region.Serializer.
func (n *Node) Serialize(b *state.Bundle) error {
	return b.PutValue(stateSection, n)
}

func ownerName(o region.Owner) string {
	if o == nil {
		return ""
	}
	return o.Name()
}
