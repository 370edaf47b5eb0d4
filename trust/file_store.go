package trust

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// storeVersion is the document version written by Save. Load also accepts
// documents without a version field.
const storeVersion = 1

// ErrMalformedStore is returned by FileStore.Load when the decisions file
// holds entries that are not valid root patterns.
var ErrMalformedStore = errors.New("malformed trust store")

const storeHeader = "# Document roots feature providers may act on.\n" +
	"# Entries are file paths or doublestar patterns; a root also covers everything below it.\n"

// storeDocument is the on-disk layout of the decisions file.
type storeDocument struct {
	Version int      `yaml:"version"`
	Trusted []string `yaml:"trusted,omitempty"`
	Denied  []string `yaml:"denied,omitempty"`
}

// FileStore persists trust decisions as a YAML document, by default
// ~/.reglet/trusted-roots.yaml. The file may be edited by hand: Load accepts
// file URIs and ~ prefixes and normalizes them the way Gatekeeper does.
type FileStore struct {
	path     string
	dirPerm  os.FileMode
	filePerm os.FileMode
}

var _ Store = (*FileStore)(nil)

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithPath sets the path of the decisions file.
func WithPath(path string) FileStoreOption {
	return func(s *FileStore) {
		if path != "" {
			s.path = path
		}
	}
}

// WithFilePermissions sets the mode of the decisions file.
func WithFilePermissions(perm os.FileMode) FileStoreOption {
	return func(s *FileStore) { s.filePerm = perm }
}

// WithDirPermissions sets the mode of directories created for the file.
func WithDirPermissions(perm os.FileMode) FileStoreOption {
	return func(s *FileStore) { s.dirPerm = perm }
}

// NewFileStore creates a FileStore.
func NewFileStore(opts ...FileStoreOption) *FileStore {
	s := &FileStore{
		path:     DefaultStorePath(),
		dirPerm:  0o755,
		filePerm: 0o600,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultStorePath returns ~/.reglet/trusted-roots.yaml.
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, ".reglet", "trusted-roots.yaml")
}

// Load reads the decisions file. A missing file holds no decisions. Every
// entry is normalized; if any entry is not a valid root the whole file is
// rejected with ErrMalformedStore, so a typo never widens trust silently.
func (s *FileStore) Load() (*Decisions, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &Decisions{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read trust store: %w", err)
	}

	var doc storeDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedStore, s.path, err)
	}
	if doc.Version > storeVersion {
		return nil, fmt.Errorf("%w: %s: unsupported version %d", ErrMalformedStore, s.path, doc.Version)
	}

	trusted, trustedErr := normalizeEntries("trusted", doc.Trusted)
	denied, deniedErr := normalizeEntries("denied", doc.Denied)
	if err := errors.Join(trustedErr, deniedErr); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedStore, s.path, err)
	}

	decisions := &Decisions{Trusted: trusted, Denied: denied}
	decisions.Deduplicate()
	return decisions, nil
}

func normalizeEntries(field string, entries []string) ([]string, error) {
	out := make([]string, 0, len(entries))
	var errs []error
	for i, entry := range entries {
		root, err := normalizeRoot(entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s[%d]: %w", field, i, err))
			continue
		}
		out = append(out, root)
	}
	return out, errors.Join(errs...)
}

// Save writes the decisions, sorted and without duplicates. The file is
// replaced atomically so a crash never leaves a truncated store behind.
func (s *FileStore) Save(decisions *Decisions) error {
	clean := decisions.Clone()
	clean.Deduplicate()

	data, err := yaml.Marshal(storeDocument{
		Version: storeVersion,
		Trusted: clean.Trusted,
		Denied:  clean.Denied,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal trust decisions: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, s.dirPerm); err != nil {
		return fmt.Errorf("failed to create trust store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".trusted-roots-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temporary trust store: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(storeHeader); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write trust store: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write trust store: %w", err)
	}
	if err := tmp.Chmod(s.filePerm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set trust store permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write trust store: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace trust store: %w", err)
	}
	return nil
}

// ConfigPath returns the path of the decisions file.
func (s *FileStore) ConfigPath() string {
	return s.path
}
