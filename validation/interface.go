package validation

import "github.com/reglet-dev/reglet-langfeatures/parser"

// Validator validates raw contribution manifests.
type Validator interface {
	// Validate checks manifest bytes against the manifest schema and the
	// semantic rules. Decoding failures are returned as errors; rule
	// violations are reported in the Result.
	Validate(raw []byte, format parser.Format) (*Result, error)
}
