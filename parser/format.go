package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for manifest files that are neither YAML nor JSON.
	ErrUnsupportedFormat = errors.New("unsupported manifest format")
	// ErrEmptyManifest is returned when the input holds no document.
	ErrEmptyManifest = errors.New("empty manifest")
)

// Format identifies a manifest encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatForFile infers the format from the file extension.
func FormatForFile(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// NewParser returns the parser for f.
func NewParser(f Format) (ManifestParser, error) {
	switch f {
	case FormatYAML:
		return NewYamlManifestParser(), nil
	case FormatJSON:
		return NewJSONManifestParser(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// ForFile returns the parser matching the extension of path.
func ForFile(path string) (ManifestParser, error) {
	f, err := FormatForFile(path)
	if err != nil {
		return nil, err
	}
	return NewParser(f)
}
