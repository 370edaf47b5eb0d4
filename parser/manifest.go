// Package parser decodes contribution manifests: declarative descriptions of
// the providers an extension registers and the selectors they apply to.
package parser

// Manifest describes the contributions of one extension.
type Manifest struct {
	Name          string         `json:"name" yaml:"name" jsonschema:"minLength=1"`
	Version       string         `json:"version,omitempty" yaml:"version,omitempty"`
	Description   string         `json:"description,omitempty" yaml:"description,omitempty"`
	Engine        string         `json:"engine,omitempty" yaml:"engine,omitempty" jsonschema:"description=Semver constraint on the host version"`
	Contributions []Contribution `json:"contributions" yaml:"contributions"`
}

// Contribution binds one provider to a feature kind under a selector.
// An omitted selector applies to every document.
type Contribution struct {
	Kind     string      `json:"kind" yaml:"kind" jsonschema:"minLength=1"`
	Provider string      `json:"provider" yaml:"provider" jsonschema:"minLength=1"`
	Selector SelectorDTO `json:"selector,omitempty" yaml:"selector,omitempty"`
}
