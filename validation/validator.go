// Package validation checks contribution manifests before they are loaded.
//
// Validation runs in two stages. The raw document is first checked against a
// JSON schema reflected from parser.Manifest; documents that pass are parsed
// and checked semantically: known feature kinds, well-formed names, valid
// selectors and parsable version constraints.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/invopop/jsonschema"
	santhosh "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/reglet-dev/reglet-langfeatures/feature"
	"github.com/reglet-dev/reglet-langfeatures/parser"
)

const schemaURL = "https://reglet.dev/schemas/langfeatures-manifest.json"

// ManifestValidator validates manifests against the reflected manifest schema.
// It is safe for concurrent use.
type ManifestValidator struct {
	schemaJSON string
	schema     *santhosh.Schema
}

var _ Validator = (*ManifestValidator)(nil)

// NewManifestValidator reflects and compiles the manifest schema.
func NewManifestValidator() (*ManifestValidator, error) {
	r := &jsonschema.Reflector{
		Anonymous:      true,
		ExpandedStruct: true,
	}
	b, err := json.MarshalIndent(r.Reflect(&parser.Manifest{}), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generated schema: %w", err)
	}

	c := santhosh.NewCompiler()
	c.Draft = santhosh.Draft2020
	if err := c.AddResource(schemaURL, strings.NewReader(string(b))); err != nil {
		return nil, fmt.Errorf("failed to add manifest schema: %w", err)
	}
	schema, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile manifest schema: %w", err)
	}

	return &ManifestValidator{schemaJSON: string(b), schema: schema}, nil
}

// Schema returns the manifest JSON schema.
func (v *ManifestValidator) Schema() string {
	return v.schemaJSON
}

// Validate implements Validator.
func (v *ManifestValidator) Validate(raw []byte, format parser.Format) (*Result, error) {
	doc, err := decodeGeneric(raw, format)
	if err != nil {
		return nil, err
	}

	result := &Result{Valid: true}
	if err := v.schema.Validate(doc); err != nil {
		var ve *santhosh.ValidationError
		if !errors.As(err, &ve) {
			return nil, fmt.Errorf("schema validation: %w", err)
		}
		result.Valid = false
		for _, e := range ve.BasicOutput().Errors {
			if e.Error == "" || strings.HasPrefix(e.Error, "doesn't validate with") {
				continue
			}
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", loc, e.Error))
		}
		if len(result.Errors) == 0 {
			result.Errors = append(result.Errors, ve.Error())
		}
		return result, nil
	}

	p, err := parser.NewParser(format)
	if err != nil {
		return nil, err
	}
	m, err := p.Parse(raw)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result, nil
	}

	if errs := ValidateManifest(m); len(errs) > 0 {
		result.Valid = false
		result.Errors = errs
	}
	return result, nil
}

// decodeGeneric turns raw bytes into the generic JSON value model the schema
// validator expects.
func decodeGeneric(raw []byte, format parser.Format) (any, error) {
	data := raw
	switch format {
	case parser.FormatJSON:
	case parser.FormatYAML:
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decoding manifest YAML: %w", err)
		}
		if doc == nil {
			return nil, parser.ErrEmptyManifest
		}
		var err error
		if data, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("converting manifest YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", parser.ErrUnsupportedFormat, format)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, parser.ErrEmptyManifest
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding manifest JSON: %w", err)
	}
	return doc, nil
}

// ValidateManifest applies the semantic rules to a parsed manifest and
// returns one message per violation.
func ValidateManifest(m *parser.Manifest) []string {
	var errs []string

	if _, err := parser.NewName(m.Name); err != nil {
		errs = append(errs, fmt.Sprintf("name: %v", err))
	}
	if m.Version != "" {
		if _, err := semver.NewVersion(m.Version); err != nil {
			errs = append(errs, fmt.Sprintf("version: invalid semantic version %q", m.Version))
		}
	}
	if m.Engine != "" {
		if _, err := parseConstraint(m.Engine); err != nil {
			errs = append(errs, fmt.Sprintf("engine: %v", err))
		}
	}

	for i, c := range m.Contributions {
		prefix := fmt.Sprintf("contributions[%d]", i)
		if _, err := feature.ParseKind(c.Kind); err != nil {
			errs = append(errs, fmt.Sprintf("%s.kind: %v", prefix, err))
		}
		if _, err := parser.NewName(c.Provider); err != nil {
			errs = append(errs, fmt.Sprintf("%s.provider: %v", prefix, err))
		}
		if err := c.Selector.ToSelector().Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("%s.selector: %v", prefix, err))
		}
	}
	return errs
}
