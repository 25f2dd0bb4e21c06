// Package params turns a raw parameter string into a typed parameter map
// using the parameter schema declared by a region's Spec.
package params

import (
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/regionfactory/internal/spec"
)

// Map holds typed parameter values keyed by parameter name.
type Map map[string]cty.Value

// Parser parses raw parameter strings against a spec. typeName and ownerName
// are used only to make error messages actionable.
type Parser interface {
	Parse(raw string, s *spec.Spec, typeName, ownerName string) (Map, error)
}

// Get returns the raw value of a parameter.
func (m Map) Get(name string) (cty.Value, bool) {
	v, ok := m[name]
	return v, ok
}

// Names returns the parameter names in sorted order.
func (m Map) Names() []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Decode stores the named value into target, which must be a pointer to a Go
// type compatible with the value's cty type.
func (m Map) Decode(name string, target any) error {
	v, ok := m[name]
	if !ok {
		return fmt.Errorf("parameter %q is not set", name)
	}
	if v.IsNull() {
		return fmt.Errorf("parameter %q is null", name)
	}
	if err := gocty.FromCtyValue(v, target); err != nil {
		return fmt.Errorf("parameter %q: %w", name, err)
	}
	return nil
}

// String returns a string parameter.
func (m Map) String(name string) (string, error) {
	var s string
	err := m.Decode(name, &s)
	return s, err
}

// Int returns an integral number parameter.
func (m Map) Int(name string) (int, error) {
	var n int
	err := m.Decode(name, &n)
	return n, err
}

// Float returns a number parameter.
func (m Map) Float(name string) (float64, error) {
	var f float64
	err := m.Decode(name, &f)
	return f, err
}

// Bool returns a bool parameter.
func (m Map) Bool(name string) (bool, error) {
	var b bool
	err := m.Decode(name, &b)
	return b, err
}
