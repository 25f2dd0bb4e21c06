// Package registry provides the Capability Registry: the process-wide mapping
// from a native node type name to the provider that builds its spec and its
// region implementations.
//
// Built-in modules contribute providers through the Module interface. The
// registry is seeded with them lazily, the first time the factory needs it,
// and again after every cleanup, so callers never have to initialize it.
package registry
