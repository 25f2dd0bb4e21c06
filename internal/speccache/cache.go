// Package speccache holds the Spec built for each node type name. Each entry
// carries its own release strategy, chosen when the entry is created, so that
// teardown never inspects type names to decide who owns the memory.
package speccache

import (
	"context"
	"sync"

	"github.com/vk/regionfactory/internal/ctxlog"
	"github.com/vk/regionfactory/internal/spec"
)

// Origin tells where a cached spec came from.
type Origin int

const (
	OriginNative Origin = iota
	OriginForeign
)

func (o Origin) String() string {
	if o == OriginForeign {
		return "foreign"
	}
	return "native"
}

// Destroyer releases specs owned by the foreign runtime.
type Destroyer interface {
	DestroySpec(ctx context.Context, qualified string) int
}

// Entry is a cached spec together with the way it must be released.
type Entry struct {
	spec      *spec.Spec
	origin    Origin
	qualified string
	destroyer Destroyer
}

// Native wraps a spec built in-process; releasing it just drops it.
func Native(s *spec.Spec) Entry {
	return Entry{spec: s, origin: OriginNative}
}

// Foreign wraps a spec owned by the foreign runtime. It is released by asking
// d to destroy the spec registered under qualified.
func Foreign(s *spec.Spec, qualified string, d Destroyer) Entry {
	return Entry{spec: s, origin: OriginForeign, qualified: qualified, destroyer: d}
}

// Spec returns the cached spec.
func (e Entry) Spec() *spec.Spec { return e.spec }

// Origin returns the entry's origin.
func (e Entry) Origin() Origin { return e.origin }

func (e Entry) release(ctx context.Context, typeName string) {
	logger := ctxlog.FromContext(ctx)
	switch e.origin {
	case OriginForeign:
		if e.destroyer == nil {
			logger.Warn("Foreign spec has no destroyer; leaking it.", "type", typeName)
			return
		}
		if status := e.destroyer.DestroySpec(ctx, e.qualified); status != 0 {
			logger.Warn("Foreign runtime failed to destroy spec.", "type", typeName, "qualified", e.qualified, "status", status)
			return
		}
		logger.Debug("Foreign spec destroyed.", "type", typeName, "qualified", e.qualified)
	default:
		logger.Debug("Native spec released.", "type", typeName)
	}
}

// Cache maps type names to entries. The zero value is ready to use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

// Get returns the spec cached for typeName. The same pointer is returned on
// every call until Cleanup.
func (c *Cache) Get(typeName string) (*spec.Spec, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[typeName]
	if !ok {
		return nil, false
	}
	return e.spec, true
}

// Entry returns the full cache entry for typeName.
func (c *Cache) Entry(typeName string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[typeName]
	return e, ok
}

// Put stores e under typeName unless an entry already exists, in which case
// the existing spec is kept and returned. At most one spec per name exists.
func (c *Cache) Put(typeName string, e Entry) *spec.Spec {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]Entry)
	}
	if existing, ok := c.entries[typeName]; ok {
		return existing.spec
	}
	c.entries[typeName] = e
	return e.spec
}

// Len returns the number of cached specs.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Cleanup releases every entry according to its origin and empties the cache.
func (c *Cache) Cleanup(ctx context.Context) {
	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[string]Entry)
	c.mu.Unlock()

	for name, e := range entries {
		e.release(ctx, name)
	}
}
