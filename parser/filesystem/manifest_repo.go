// Package filesystem provides a directory-backed manifest repository.
package filesystem

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/reglet-dev/reglet-langfeatures/parser"
	"github.com/reglet-dev/reglet-langfeatures/validation"
)

// ManifestRepository loads contribution manifests from the local filesystem.
// Reads go through os.Root so a manifest name cannot escape its directory.
type ManifestRepository struct {
	validator validation.Validator
	logger    *slog.Logger
}

// Option configures a ManifestRepository.
type Option func(*ManifestRepository)

// WithValidator validates raw manifest bytes before parsing.
func WithValidator(v validation.Validator) Option {
	return func(r *ManifestRepository) {
		r.validator = v
	}
}

// WithLogger sets the logger used to report skipped files.
func WithLogger(logger *slog.Logger) Option {
	return func(r *ManifestRepository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewManifestRepository creates a new ManifestRepository.
func NewManifestRepository(opts ...Option) *ManifestRepository {
	r := &ManifestRepository{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load reads and parses the manifest at path. The format follows the file
// extension.
func (r *ManifestRepository) Load(ctx context.Context, path string) (*parser.Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := os.OpenRoot(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open directory %q: %w", filepath.Dir(path), err)
	}
	defer func() { _ = root.Close() }()

	return r.load(root, filepath.Base(path))
}

// List loads every *.yaml, *.yml and *.json manifest directly inside dir, in
// file name order. Other files and subdirectories are ignored; the first
// invalid manifest aborts the listing.
func (r *ManifestRepository) List(ctx context.Context, dir string) ([]*parser.Manifest, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory %q: %w", dir, err)
	}
	defer func() { _ = root.Close() }()

	entries, err := fs.ReadDir(root.FS(), ".")
	if err != nil {
		return nil, fmt.Errorf("reading directory %q: %w", dir, err)
	}

	var manifests []*parser.Manifest
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() {
			continue
		}
		if _, err := parser.FormatForFile(entry.Name()); err != nil {
			r.logger.Debug("skipping non-manifest file", "dir", dir, "file", entry.Name())
			continue
		}

		m, err := r.load(root, entry.Name())
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}

func (r *ManifestRepository) load(root *os.Root, name string) (*parser.Manifest, error) {
	format, err := parser.FormatForFile(name)
	if err != nil {
		return nil, err
	}

	file, err := root.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest %q: %w", name, err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %q: %w", name, err)
	}

	if r.validator != nil {
		result, err := r.validator.Validate(data, format)
		if err != nil {
			return nil, fmt.Errorf("validating manifest %q: %w", name, err)
		}
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("manifest %q: %w", name, err)
		}
	}

	p, err := parser.NewParser(format)
	if err != nil {
		return nil, err
	}
	m, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %q: %w", name, err)
	}
	return m, nil
}
