package bridge

import (
	"fmt"
	"unsafe"

	"github.com/vk/regionfactory/internal/params"
	"github.com/vk/regionfactory/internal/region"
	"github.com/vk/regionfactory/internal/spec"
	"github.com/vk/regionfactory/internal/state"
)

// EntryPoints is the typed view of the companion library's entry points.
// Lookups that find nothing return a nil result and a nil error; a nil result
// with an error means the foreign runtime raised an exception.
type EntryPoints interface {
	InitRuntime()
	FinalizeRuntime()
	CreateSpec(qualified string) (*spec.Spec, error)
	DestroySpec(qualified string) int
	CreateInstance(qualified string, p params.Map, owner region.Owner) (region.Impl, error)
	DeserializeInstance(qualified string, b *state.Bundle, owner region.Owner) (region.Impl, error)
}

// Binder turns resolved symbols into callable entry points.
type Binder func(lib Library, syms SymbolTable) (EntryPoints, error)

// ExceptionError reports that the foreign runtime signalled an exception
// through the out-parameter of an entry point.
type ExceptionError struct {
	Op        string
	Qualified string
}

func (e *ExceptionError) Error() string {
	return fmt.Sprintf("foreign runtime raised an exception in %s(%q)", e.Op, e.Qualified)
}

// Node is a region implementation created by the foreign runtime. The
// pointer is owned by the foreign side; Release drops the Go values that were
// handed across the boundary with it.
type Node struct {
	qualified string
	ptr       unsafe.Pointer
	release   func()
}

// NewNode wraps a foreign implementation pointer.
func NewNode(qualified string, ptr unsafe.Pointer, release func()) *Node {
	return &Node{qualified: qualified, ptr: ptr, release: release}
}

// Type returns the qualified name the foreign runtime created the node under.
func (n *Node) Type() string { return n.qualified }

// Pointer returns the foreign implementation pointer.
func (n *Node) Pointer() unsafe.Pointer { return n.ptr }

// Release frees the owner reference retained for the foreign node. It is safe
// to call more than once.
func (n *Node) Release() {
	if n.release != nil {
		n.release()
		n.release = nil
	}
}
