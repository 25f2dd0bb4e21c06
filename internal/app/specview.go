package app

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/regionfactory/internal/spec"
)

// SpecView is the printable form of a spec.
type SpecView struct {
	Type           string          `yaml:"type"`
	Description    string          `yaml:"description,omitempty"`
	SingleNodeOnly bool            `yaml:"single_node_only"`
	Parameters     []ParameterView `yaml:"parameters,omitempty"`
	Inputs         []PortView      `yaml:"inputs,omitempty"`
	Outputs        []PortView      `yaml:"outputs,omitempty"`
	Commands       []CommandView   `yaml:"commands,omitempty"`
}

type ParameterView struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description,omitempty"`
	Access      string `yaml:"access"`
	Required    bool   `yaml:"required"`
	Default     any    `yaml:"default,omitempty"`
	Constraints string `yaml:"constraints,omitempty"`
}

type PortView struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description,omitempty"`
	Count       int    `yaml:"count,omitempty"`
	Required    bool   `yaml:"required,omitempty"`
	RegionLevel bool   `yaml:"region_level,omitempty"`
	Default     bool   `yaml:"default,omitempty"`
}

type CommandView struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// NewSpecView flattens s for printing.
func NewSpecView(s *spec.Spec) (*SpecView, error) {
	v := &SpecView{
		Type:           s.Type,
		Description:    s.Description,
		SingleNodeOnly: s.SingleNodeOnly,
	}
	for _, p := range s.Parameters {
		pv := ParameterView{
			Name:        p.Name,
			Type:        typeexpr.TypeString(p.Type),
			Description: p.Description,
			Access:      string(p.Access),
			Required:    p.Required(),
			Constraints: p.Constraints,
		}
		if p.Default != nil {
			def, err := plainValue(*p.Default)
			if err != nil {
				return nil, fmt.Errorf("parameter %q default: %w", p.Name, err)
			}
			pv.Default = def
		}
		v.Parameters = append(v.Parameters, pv)
	}
	v.Inputs = portViews(s.Inputs)
	v.Outputs = portViews(s.Outputs)
	for _, c := range s.Commands {
		v.Commands = append(v.Commands, CommandView{Name: c.Name, Description: c.Description})
	}
	return v, nil
}

func portViews(ports []spec.Port) []PortView {
	var out []PortView
	for _, p := range ports {
		out = append(out, PortView{
			Name:        p.Name,
			Type:        typeexpr.TypeString(p.Type),
			Description: p.Description,
			Count:       p.Count,
			Required:    p.Required,
			RegionLevel: p.RegionLevel,
			Default:     p.Default,
		})
	}
	return out
}

// plainValue converts a cty value into plain Go values through its JSON form.
func plainValue(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	buf, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(buf, &out); err != nil {
		return nil, err
	}
	return out, nil
}
