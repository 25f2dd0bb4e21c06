package factory

import (
	"github.com/vk/regionfactory/internal/registry"
	"github.com/vk/regionfactory/modules/testnode"
	"github.com/vk/regionfactory/modules/vectorfile"
)

// Builtins returns the modules seeded into an empty registry.
func Builtins() []registry.Module {
	return []registry.Module{
		&testnode.Module{},
		&vectorfile.Module{},
	}
}
