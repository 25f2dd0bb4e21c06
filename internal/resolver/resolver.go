// Package resolver maps a foreign-marked type name onto the qualified names
// the foreign runtime may host it under, trying each namespace of an ordered
// search path in turn.
package resolver

import (
	"context"
	"sync"

	"github.com/vk/regionfactory/internal/ctxlog"
	"github.com/vk/regionfactory/internal/regionerr"
	"github.com/vk/regionfactory/internal/typename"
)

// DefaultNamespaces are the packages that ship the engine's foreign regions.
var DefaultNamespaces = []string{"nupic.regions", "nupic.regions.extra"}

// SearchPath is an append-only ordered list of namespace candidates. The
// zero value is an empty path.
type SearchPath struct {
	mu         sync.RWMutex
	namespaces []string
}

// NewSearchPath returns a search path holding namespaces in order.
func NewSearchPath(namespaces ...string) *SearchPath {
	return &SearchPath{namespaces: append([]string(nil), namespaces...)}
}

// Append adds a namespace to the end of the path. Earlier entries keep
// precedence.
func (p *SearchPath) Append(namespace string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.namespaces = append(p.namespaces, namespace)
}

// Namespaces returns a snapshot of the path.
func (p *SearchPath) Namespaces() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.namespaces...)
}

// Candidates returns the qualified names tried for typeName, in order.
func (p *SearchPath) Candidates(typeName string) []string {
	bare := typename.Bare(typeName)
	namespaces := p.Namespaces()
	out := make([]string, 0, len(namespaces))
	for _, ns := range namespaces {
		out = append(out, typename.Qualify(ns, bare))
	}
	return out
}

// TryFunc attempts one qualified name. ok=false, or a non-nil err, means the
// candidate did not match; the search continues either way.
type TryFunc[T any] func(qualified string) (result T, ok bool, err error)

// Resolve returns the result of the first candidate that matches, together
// with the qualified name it matched under. Exhausting the path yields a
// TypeNotFound error naming the original typeName.
func Resolve[T any](ctx context.Context, path *SearchPath, typeName string, try TryFunc[T]) (T, string, error) {
	logger := ctxlog.FromContext(ctx)
	candidates := path.Candidates(typeName)

	for _, qualified := range candidates {
		result, ok, err := try(qualified)
		if err != nil {
			logger.Debug("Foreign candidate raised an exception.", "type", typeName, "candidate", qualified, "error", err)
			continue
		}
		if ok {
			logger.Debug("Foreign type resolved.", "type", typeName, "candidate", qualified)
			return result, qualified, nil
		}
		logger.Debug("Foreign candidate not found.", "type", typeName, "candidate", qualified)
	}

	var zero T
	return zero, "", regionerr.TypeNotFound(typeName, len(candidates))
}
