// Package vectorfile provides the VectorFileSensor and VectorFileEffector
// regions, which move vectors between text files and a network.
package vectorfile

import (
	_ "embed"

	"github.com/vk/regionfactory/internal/region"
	"github.com/vk/regionfactory/internal/registry"
	"github.com/vk/regionfactory/internal/spec"
)

const (
	SensorType   = "VectorFileSensor"
	EffectorType = "VectorFileEffector"
)

//go:embed manifest.hcl
var manifest []byte

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers both providers.
func (m *Module) Register(r *registry.Registry) {
	r.Register(SensorType, &registry.Native[*Sensor]{
		Spec:        SensorSpec,
		New:         NewSensor,
		Deserialize: DeserializeSensor,
	})
	r.Register(EffectorType, &registry.Native[*Effector]{
		Spec:        EffectorSpec,
		New:         NewEffector,
		Deserialize: DeserializeEffector,
	})
}

// SensorSpec returns a freshly decoded VectorFileSensor spec.
func SensorSpec() *spec.Spec {
	return spec.MustParseRegion(manifest, "vectorfile/manifest.hcl", SensorType)
}

// EffectorSpec returns a freshly decoded VectorFileEffector spec.
func EffectorSpec() *spec.Spec {
	return spec.MustParseRegion(manifest, "vectorfile/manifest.hcl", EffectorType)
}

func ownerName(o region.Owner) string {
	if o == nil {
		return ""
	}
	return o.Name()
}
