package parser

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/reglet-dev/reglet-langfeatures/selector"
)

// SelectorDTO is the wire form of a selector. It decodes the union used in
// manifests:
//
//	"json"                                   content type tag ("*" included)
//	{contentType, scheme, pattern, ...}      structured filter
//	["json", {scheme: untitled}]             sequence of the two above
//
// An omitted or null selector decodes to the absent selector, which matches
// every document and is not subject to score refinement.
type SelectorDTO struct {
	sel selector.Selector
}

// NewSelectorDTO wraps sel for embedding in a Manifest built in code.
func NewSelectorDTO(sel selector.Selector) SelectorDTO {
	return SelectorDTO{sel: sel}
}

// ToSelector returns the decoded selector.
func (d SelectorDTO) ToSelector() selector.Selector {
	return d.sel
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *SelectorDTO) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("decode selector: %w", err)
	}
	sel, err := selectorFromValue(raw, false)
	if err != nil {
		return fmt.Errorf("selector at line %d: %w", node.Line, err)
	}
	d.sel = sel
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *SelectorDTO) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode selector: %w", err)
	}
	sel, err := selectorFromValue(raw, false)
	if err != nil {
		return fmt.Errorf("selector: %w", err)
	}
	d.sel = sel
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d SelectorDTO) MarshalJSON() ([]byte, error) {
	return json.Marshal(selectorToValue(d.sel))
}

func selectorFromValue(v any, nested bool) (selector.Selector, error) {
	switch t := v.(type) {
	case nil:
		if nested {
			return selector.Selector{}, fmt.Errorf("null sequence element")
		}
		return selector.Selector{}, nil
	case string:
		return selector.ContentType(t), nil
	case map[string]any:
		return filterFromMap(t)
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			key, ok := k.(string)
			if !ok {
				return selector.Selector{}, fmt.Errorf("filter key %v is not a string", k)
			}
			m[key] = val
		}
		return filterFromMap(m)
	case []any:
		if nested {
			return selector.Selector{}, fmt.Errorf("nested selector sequences are not supported")
		}
		alts := make([]selector.Selector, 0, len(t))
		for i, item := range t {
			s, err := selectorFromValue(item, true)
			if err != nil {
				return selector.Selector{}, fmt.Errorf("[%d]: %w", i, err)
			}
			alts = append(alts, s)
		}
		return selector.OneOf(alts...), nil
	default:
		return selector.Selector{}, fmt.Errorf("unsupported selector value of type %T", v)
	}
}

func filterFromMap(m map[string]any) (selector.Selector, error) {
	var f selector.Filter
	for _, key := range slices.Sorted(maps.Keys(m)) {
		val := m[key]
		var err error
		switch key {
		case "contentType":
			f.ContentType, err = stringField(key, val)
		case "scheme":
			f.Scheme, err = stringField(key, val)
		case "pattern":
			f.Pattern, err = stringField(key, val)
		case "synchronized":
			f.Synchronized, err = boolField(key, val)
		case "exclude":
			f.Exclude, err = boolField(key, val)
		default:
			err = fmt.Errorf("unknown filter field %q", key)
		}
		if err != nil {
			return selector.Selector{}, err
		}
	}
	return selector.Where(f), nil
}

func stringField(key string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("filter field %q must be a string, got %T", key, v)
	}
	return s, nil
}

func boolField(key string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("filter field %q must be a boolean, got %T", key, v)
	}
	return b, nil
}

func selectorToValue(sel selector.Selector) any {
	switch sel.Kind() {
	case selector.KindContentType:
		return sel.Tag()
	case selector.KindFilter:
		f, _ := sel.Filter()
		m := map[string]any{}
		if f.ContentType != "" {
			m["contentType"] = f.ContentType
		}
		if f.Scheme != "" {
			m["scheme"] = f.Scheme
		}
		if f.Pattern != "" {
			m["pattern"] = f.Pattern
		}
		if f.Synchronized {
			m["synchronized"] = true
		}
		if f.Exclude {
			m["exclude"] = true
		}
		return m
	case selector.KindSequence:
		alts := sel.Alternatives()
		out := make([]any, len(alts))
		for i, a := range alts {
			out[i] = selectorToValue(a)
		}
		return out
	default:
		return nil
	}
}

// JSONSchema describes the selector union for schema reflection.
func (SelectorDTO) JSONSchema() *jsonschema.Schema {
	tag := &jsonschema.Schema{
		Type:        "string",
		Description: "Content type tag; \"*\" matches any content type",
	}

	filter := &jsonschema.Schema{
		Type:                 "object",
		Properties:           jsonschema.NewProperties(),
		AdditionalProperties: jsonschema.FalseSchema,
	}
	filter.Properties.Set("contentType", &jsonschema.Schema{Type: "string"})
	filter.Properties.Set("scheme", &jsonschema.Schema{Type: "string"})
	filter.Properties.Set("pattern", &jsonschema.Schema{Type: "string", Description: "Glob matched against the document path"})
	filter.Properties.Set("synchronized", &jsonschema.Schema{Type: "boolean"})
	filter.Properties.Set("exclude", &jsonschema.Schema{Type: "boolean"})

	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			tag,
			filter,
			{
				Type:  "array",
				Items: &jsonschema.Schema{OneOf: []*jsonschema.Schema{tag, filter}},
			},
			{Type: "null"},
		},
	}
}
