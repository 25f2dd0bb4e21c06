// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file decodes region manifests into Specs.
//
// Why collect diagnostics instead of stopping at the first problem?
//
// A manifest author fixing a spec wants to see every broken parameter at once.
// Each block is decoded independently and its diagnostics appended, so a bad
// `type` in one parameter still lets the rest of the manifest report its own
// issues. Only a manifest with zero errors produces Specs.
package spec

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// manifestRoot is the top-level structure of a manifest: one or more region blocks.
type manifestRoot struct {
	Regions []*hclRegion `hcl:"region,block"`
}

type hclRegion struct {
	Type string   `hcl:"type,label"`
	Body hcl.Body `hcl:",remain"`
}

var regionBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "description"},
		{Name: "single_node_only"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "parameter", LabelNames: []string{"name"}},
		{Type: "input", LabelNames: []string{"name"}},
		{Type: "output", LabelNames: []string{"name"}},
		{Type: "command", LabelNames: []string{"name"}},
	},
}

var parameterBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		// `type` is required, but we check for its existence manually
		// to provide a better error message.
		{Name: "type"},
		{Name: "description"},
		{Name: "default"},
		{Name: "access"},
		{Name: "constraints"},
	},
}

func portBodySchema(defaultAttr string) *hcl.BodySchema {
	return &hcl.BodySchema{
		Attributes: []hcl.AttributeSchema{
			{Name: "type"},
			{Name: "description"},
			{Name: "count"},
			{Name: "required"},
			{Name: "region_level"},
			{Name: defaultAttr},
		},
	}
}

var commandBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "description"},
	},
}

// Parse decodes every region block in src.
func Parse(src []byte, filename string) ([]*Spec, hcl.Diagnostics) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diags
	}

	root := &manifestRoot{}
	decodeDiags := gohcl.DecodeBody(file.Body, nil, root)
	diags = append(diags, decodeDiags...)
	if decodeDiags.HasErrors() {
		return nil, diags
	}

	specs := make([]*Spec, 0, len(root.Regions))
	seen := make(map[string]bool, len(root.Regions))
	for _, r := range root.Regions {
		if seen[r.Type] {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate region definition",
				Detail:   fmt.Sprintf("A region named '%s' has already been defined in this manifest.", r.Type),
			})
			continue
		}
		seen[r.Type] = true

		s, regionDiags := decodeRegion(r, filename)
		diags = append(diags, regionDiags...)
		if s != nil {
			specs = append(specs, s)
		}
	}

	if diags.HasErrors() {
		return nil, diags
	}
	return specs, diags
}

// ParseRegion decodes src and returns the spec for typeName. A manifest that
// holds exactly one region is accepted whatever its label, since foreign
// manifests are labelled with the bare name while callers ask by the
// qualified or marked one.
func ParseRegion(src []byte, filename, typeName string) (*Spec, error) {
	specs, diags := Parse(src, filename)
	if diags.HasErrors() {
		return nil, diags
	}
	if len(specs) == 1 {
		return specs[0], nil
	}
	for _, s := range specs {
		if s.Type == typeName {
			return s, nil
		}
	}
	return nil, fmt.Errorf("manifest %s does not define region %q (found %d regions)", filename, typeName, len(specs))
}

// MustParseRegion is ParseRegion for manifests embedded at build time.
func MustParseRegion(src []byte, filename, typeName string) *Spec {
	s, err := ParseRegion(src, filename, typeName)
	if err != nil {
		panic(fmt.Sprintf("invalid embedded manifest %s: %v", filename, err))
	}
	return s
}

func decodeRegion(r *hclRegion, filename string) (*Spec, hcl.Diagnostics) {
	content, diags := r.Body.Content(regionBodySchema)
	if diags.HasErrors() {
		return nil, diags
	}

	s := &Spec{Type: r.Type, Source: filename}
	diags = append(diags, decodeAttr(content.Attributes, "description", &s.Description)...)
	diags = append(diags, decodeAttr(content.Attributes, "single_node_only", &s.SingleNodeOnly)...)

	var d hcl.Diagnostics
	s.Parameters, d = decodeParameters(content.Blocks.OfType("parameter"))
	diags = append(diags, d...)
	s.Inputs, d = decodePorts(content.Blocks.OfType("input"), "default_input")
	diags = append(diags, d...)
	s.Outputs, d = decodePorts(content.Blocks.OfType("output"), "default_output")
	diags = append(diags, d...)
	s.Commands, d = decodeCommands(content.Blocks.OfType("command"))
	diags = append(diags, d...)

	return s, diags
}

func decodeParameters(blocks hcl.Blocks) ([]Parameter, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	params := make([]Parameter, 0, len(blocks))
	seen := make(map[string]bool, len(blocks))

	for _, block := range blocks {
		// The schema guarantees us one label.
		name := block.Labels[0]
		if seen[name] {
			diags = append(diags, duplicateDiag("parameter", name, block))
			continue
		}
		seen[name] = true

		content, contentDiags := block.Body.Content(parameterBodySchema)
		diags = append(diags, contentDiags...)
		if contentDiags.HasErrors() {
			continue
		}

		ty, typeDiags := requiredType(block, content.Attributes)
		diags = append(diags, typeDiags...)
		if typeDiags.HasErrors() {
			continue
		}

		p := Parameter{Name: name, Type: ty, Access: AccessCreate}
		diags = append(diags, decodeAttr(content.Attributes, "description", &p.Description)...)
		diags = append(diags, decodeAttr(content.Attributes, "constraints", &p.Constraints)...)

		var access string
		diags = append(diags, decodeAttr(content.Attributes, "access", &access)...)
		if access != "" {
			p.Access = Access(access)
			if !validAccess(p.Access) {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Invalid access mode",
					Detail:   fmt.Sprintf("Parameter '%s' has access %q; expected one of create, read_write, read_only.", name, access),
					Subject:  content.Attributes["access"].Expr.Range().Ptr(),
				})
				continue
			}
		}

		if attr, ok := content.Attributes["default"]; ok {
			// A nil eval context is used because defaults must be literal values.
			val, valDiags := attr.Expr.Value(nil)
			diags = append(diags, valDiags...)
			if valDiags.HasErrors() {
				continue
			}
			converted, err := convert.Convert(val, ty)
			if err != nil {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Invalid default value type",
					Detail:   fmt.Sprintf("The default value for '%s' is not compatible with its type, '%s': %s.", name, typeexpr.TypeString(ty), err),
					Subject:  attr.Expr.Range().Ptr(),
				})
				continue
			}
			p.Default = &converted
		}

		params = append(params, p)
	}

	return params, diags
}

func decodePorts(blocks hcl.Blocks, defaultAttr string) ([]Port, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	ports := make([]Port, 0, len(blocks))
	seen := make(map[string]bool, len(blocks))
	schema := portBodySchema(defaultAttr)

	for _, block := range blocks {
		name := block.Labels[0]
		if seen[name] {
			diags = append(diags, duplicateDiag(block.Type, name, block))
			continue
		}
		seen[name] = true

		content, contentDiags := block.Body.Content(schema)
		diags = append(diags, contentDiags...)
		if contentDiags.HasErrors() {
			continue
		}

		ty, typeDiags := requiredType(block, content.Attributes)
		diags = append(diags, typeDiags...)
		if typeDiags.HasErrors() {
			continue
		}

		p := Port{Name: name, Type: ty}
		diags = append(diags, decodeAttr(content.Attributes, "description", &p.Description)...)
		diags = append(diags, decodeAttr(content.Attributes, "count", &p.Count)...)
		diags = append(diags, decodeAttr(content.Attributes, "required", &p.Required)...)
		diags = append(diags, decodeAttr(content.Attributes, "region_level", &p.RegionLevel)...)
		diags = append(diags, decodeAttr(content.Attributes, defaultAttr, &p.Default)...)
		if p.Count < 0 {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid port count",
				Detail:   fmt.Sprintf("The %s '%s' has a negative count.", block.Type, name),
				Subject:  content.Attributes["count"].Expr.Range().Ptr(),
			})
			continue
		}

		ports = append(ports, p)
	}

	return ports, diags
}

func decodeCommands(blocks hcl.Blocks) ([]Command, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	commands := make([]Command, 0, len(blocks))
	seen := make(map[string]bool, len(blocks))

	for _, block := range blocks {
		name := block.Labels[0]
		if seen[name] {
			diags = append(diags, duplicateDiag("command", name, block))
			continue
		}
		seen[name] = true

		content, contentDiags := block.Body.Content(commandBodySchema)
		diags = append(diags, contentDiags...)
		if contentDiags.HasErrors() {
			continue
		}
		c := Command{Name: name}
		diags = append(diags, decodeAttr(content.Attributes, "description", &c.Description)...)
		commands = append(commands, c)
	}

	return commands, diags
}

// requiredType decodes the mandatory `type` attribute of a parameter or port.
func requiredType(block *hcl.Block, attrs hcl.Attributes) (cty.Type, hcl.Diagnostics) {
	attr, ok := attrs["type"]
	if !ok {
		missing := block.Body.MissingItemRange()
		return cty.NilType, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Missing 'type' attribute",
			Detail:   fmt.Sprintf("The 'type' attribute is required for all %s blocks.", block.Type),
			Subject:  &missing,
		}}
	}
	return typeexpr.TypeConstraint(attr.Expr)
}

func decodeAttr(attrs hcl.Attributes, name string, target any) hcl.Diagnostics {
	attr, ok := attrs[name]
	if !ok {
		return nil
	}
	return gohcl.DecodeExpression(attr.Expr, nil, target)
}

func duplicateDiag(kind, name string, block *hcl.Block) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  fmt.Sprintf("Duplicate %s definition", kind),
		Detail:   fmt.Sprintf("A %s named '%s' has already been defined.", kind, name),
		Subject:  &block.DefRange,
	}
}
