package params

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"go.yaml.in/yaml/v3"

	"github.com/vk/regionfactory/internal/spec"
)

// YAMLParser parses parameter strings written as a YAML mapping, e.g.
// "{count: 3, stringParam: hello}". An empty string means no parameters.
type YAMLParser struct{}

// Parse implements Parser.
func (YAMLParser) Parse(raw string, s *spec.Spec, typeName, ownerName string) (Map, error) {
	if s == nil {
		return nil, fmt.Errorf("no spec for region %q of type %q", ownerName, typeName)
	}

	doc := map[string]any{}
	if strings.TrimSpace(raw) != "" {
		var root any
		if err := yaml.Unmarshal([]byte(raw), &root); err != nil {
			return nil, fmt.Errorf("parsing parameters for region %q of type %q: %w", ownerName, typeName, err)
		}
		switch v := normalizeYAML(root).(type) {
		case nil:
		case map[string]any:
			doc = v
		default:
			return nil, fmt.Errorf("parameters for region %q of type %q must be a mapping, got %T", ownerName, typeName, v)
		}
	}

	out := make(Map, len(s.Parameters))
	for name, rawValue := range doc {
		p, ok := s.Parameter(name)
		if !ok {
			return nil, fmt.Errorf("unknown parameter %q for region %q of type %q", name, ownerName, typeName)
		}
		if p.Access == spec.AccessReadOnly {
			return nil, fmt.Errorf("parameter %q of region %q is read-only", name, ownerName)
		}
		v, err := toCty(rawValue, p.Type)
		if err != nil {
			return nil, fmt.Errorf("parameter %q for region %q of type %q: %w", name, ownerName, typeName, err)
		}
		out[name] = v
	}

	for _, p := range s.Parameters {
		if _, set := out[p.Name]; set {
			continue
		}
		if p.Default != nil {
			out[p.Name] = *p.Default
			continue
		}
		if p.Required() {
			return nil, fmt.Errorf("required parameter %q missing for region %q of type %q", p.Name, ownerName, typeName)
		}
	}

	return out, nil
}

// toCty converts a decoded YAML value into the declared type. The value is
// first given its implied type, then converted, so "3" is accepted for a number.
func toCty(v any, ty cty.Type) (cty.Value, error) {
	if v == nil {
		return cty.NullVal(ty), nil
	}
	buf, err := json.Marshal(v)
	if err != nil {
		return cty.NilVal, err
	}
	implied, err := ctyjson.ImpliedType(buf)
	if err != nil {
		return cty.NilVal, err
	}
	val, err := ctyjson.Unmarshal(buf, implied)
	if err != nil {
		return cty.NilVal, err
	}
	return convert.Convert(val, ty)
}

// normalizeYAML converts map[interface{}]interface{} nodes into
// map[string]any so the tree can be marshaled as JSON.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return m
	case []any:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	default:
		return v
	}
}
