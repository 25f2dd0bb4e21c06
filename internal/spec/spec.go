// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Spec types. A Spec is a contract, not an instance: the
// factory holds at most one Spec per type name and every region created for
// that type shares it.
package spec

import (
	"github.com/zclconf/go-cty/cty"
)

// Access says when a parameter may be written.
type Access string

const (
	// AccessCreate parameters are only accepted when the region is created.
	AccessCreate Access = "create"
	// AccessReadWrite parameters may also be changed after creation.
	AccessReadWrite Access = "read_write"
	// AccessReadOnly parameters are reported by the region and never set.
	AccessReadOnly Access = "read_only"
)

func validAccess(a Access) bool {
	switch a {
	case AccessCreate, AccessReadWrite, AccessReadOnly:
		return true
	}
	return false
}

// Spec describes a region type.
type Spec struct {
	// Type is the label of the region block, e.g. "TestNode".
	Type           string
	Description    string
	SingleNodeOnly bool
	// Source is the manifest file name the spec was decoded from.
	Source string

	Parameters []Parameter
	Inputs     []Port
	Outputs    []Port
	Commands   []Command
}

// Parameter is a single configuration value of a region type.
type Parameter struct {
	Name        string
	Type        cty.Type
	Description string
	// Default is nil when the caller must provide the value.
	Default     *cty.Value
	Access      Access
	Constraints string
}

// Required reports whether the parameter has to appear in a parameter string.
func (p Parameter) Required() bool {
	return p.Default == nil && p.Access == AccessCreate
}

// Port is an input or output of a region type.
type Port struct {
	Name        string
	Type        cty.Type
	Description string
	// Count is the fixed element count, 0 for variable length.
	Count       int
	Required    bool
	RegionLevel bool
	// Default marks the default input or output of the region.
	Default bool
}

// Command is a named command the region executes on request.
type Command struct {
	Name        string
	Description string
}

// Parameter returns the named parameter.
func (s *Spec) Parameter(name string) (Parameter, bool) {
	for _, p := range s.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// Input returns the named input port.
func (s *Spec) Input(name string) (Port, bool) {
	return findPort(s.Inputs, name)
}

// Output returns the named output port.
func (s *Spec) Output(name string) (Port, bool) {
	return findPort(s.Outputs, name)
}

// DefaultInput returns the input port marked as default, if any.
func (s *Spec) DefaultInput() (Port, bool) {
	return findDefault(s.Inputs)
}

// DefaultOutput returns the output port marked as default, if any.
func (s *Spec) DefaultOutput() (Port, bool) {
	return findDefault(s.Outputs)
}

func findPort(ports []Port, name string) (Port, bool) {
	for _, p := range ports {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

func findDefault(ports []Port) (Port, bool) {
	for _, p := range ports {
		if p.Default {
			return p, true
		}
	}
	return Port{}, false
}
