// Package registry implements the feature registry: an ordered collection of
// (selector, provider) registrations for one feature kind that selects and
// orders providers for a document.
//
// The registry never calls providers. Ordered scores every live registration
// with the configured ScoreFunc, drops non-matching ones and sorts the rest
// by descending score, most recent registration first on ties.
//
// Operations are synchronous and never hold the internal lock while calling
// score functions or change listeners, so listeners may register and dispose
// re-entrantly. Score functions must not mutate the registry.
package registry

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/reglet-dev/reglet-langfeatures/selector"
)

var (
	// ErrDisposed is returned by Register on a disposed registry.
	ErrDisposed = errors.New("registry: disposed")
	// ErrInvalidSelector wraps selector validation failures at registration.
	ErrInvalidSelector = selector.ErrInvalidSelector
)

// ScoreFunc computes the specificity of sel for doc. Zero or less excludes
// the registration.
type ScoreFunc func(sel selector.Selector, doc selector.Document) int

// RegistryOption configures a Registry.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	logger   *slog.Logger
	validate bool
}

// WithLogger sets the logger for registration events and listener panics.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(c *registryConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithValidation enables or disables selector validation in Register.
// Enabled by default.
func WithValidation(enabled bool) RegistryOption {
	return func(c *registryConfig) {
		c.validate = enabled
	}
}

type entry[P any] struct {
	selector selector.Selector
	provider P
	seq      uint64
}

// Registry holds the providers of one feature kind.
type Registry[P any] struct {
	mu       sync.Mutex
	entries  []*entry[P]
	seq      uint64
	disposed bool

	score       ScoreFunc
	onDidChange *Emitter
	logger      *slog.Logger
	validate    bool
}

var _ Query[any] = (*Registry[any])(nil)

// New creates an empty registry. A nil score uses selector.Score.
func New[P any](score ScoreFunc, opts ...RegistryOption) *Registry[P] {
	cfg := registryConfig{
		logger:   slog.Default(),
		validate: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if score == nil {
		score = selector.Score
	}

	return &Registry[P]{
		score:       score,
		onDidChange: NewEmitter(cfg.logger),
		logger:      cfg.logger,
		validate:    cfg.validate,
	}
}

// Register adds provider under sel and notifies listeners.
// The returned registration removes exactly this entry when disposed.
func (r *Registry[P]) Register(sel selector.Selector, provider P) (*Registration[P], error) {
	if r.validate {
		if err := sel.Validate(); err != nil {
			return nil, fmt.Errorf("register provider: %w", err)
		}
	}

	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return nil, ErrDisposed
	}
	r.seq++
	e := &entry[P]{selector: sel, provider: provider, seq: r.seq}
	r.entries = append(r.entries, e)
	r.mu.Unlock()

	r.logger.Debug("provider registered", "selector", sel.String(), "seq", e.seq)
	r.onDidChange.Fire()

	return &Registration[P]{registry: r, entry: e}, nil
}

// MustRegister panics on registration error. Useful from init() blocks.
func MustRegister[P any](r *Registry[P], sel selector.Selector, provider P) *Registration[P] {
	reg, err := r.Register(sel, provider)
	if err != nil {
		panic(err)
	}
	return reg
}

// remove reports whether e was live.
func (r *Registry[P]) remove(e *entry[P]) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return false
	}
	i := slices.Index(r.entries, e)
	if i < 0 {
		return false
	}
	r.entries = slices.Delete(r.entries, i, i+1)
	return true
}

func (r *Registry[P]) snapshot() []*entry[P] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return nil
	}
	return slices.Clone(r.entries)
}

// All returns every live provider in registration order. The returned slice
// is not affected by later mutation.
func (r *Registry[P]) All() []P {
	entries := r.snapshot()
	out := make([]P, len(entries))
	for i, e := range entries {
		out[i] = e.provider
	}
	return out
}

// Len returns the number of live registrations.
func (r *Registry[P]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

type scored[P any] struct {
	*entry[P]
	score int
}

// rank scores the live entries for doc and sorts the matches. If any
// selector vetoes doc, nothing matches.
func (r *Registry[P]) rank(doc selector.Document) []scored[P] {
	entries := r.snapshot()
	if len(entries) == 0 {
		return nil
	}

	for _, e := range entries {
		if selector.Vetoes(e.selector, doc) {
			r.logger.Debug("document vetoed by exclusive selector",
				"selector", e.selector.String(),
				"seq", e.seq,
				"content_type", doc.ContentType)
			return nil
		}
	}

	matches := make([]scored[P], 0, len(entries))
	for _, e := range entries {
		if s := r.score(e.selector, doc); s > 0 {
			matches = append(matches, scored[P]{entry: e, score: s})
		}
	}

	slices.SortFunc(matches, func(a, b scored[P]) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(b.seq, a.seq)
	})
	return matches
}

// Ordered returns the providers matching doc by descending score; among equal
// scores the most recently registered comes first. Each call scores afresh.
func (r *Registry[P]) Ordered(doc selector.Document) []P {
	matches := r.rank(doc)
	out := make([]P, len(matches))
	for i, m := range matches {
		out[i] = m.provider
	}
	return out
}

// OrderedGroups returns the result of Ordered split into groups of providers
// sharing the same score.
func (r *Registry[P]) OrderedGroups(doc selector.Document) [][]P {
	matches := r.rank(doc)

	var groups [][]P
	for i, m := range matches {
		if i == 0 || m.score != matches[i-1].score {
			groups = append(groups, nil)
		}
		last := len(groups) - 1
		groups[last] = append(groups[last], m.provider)
	}
	return groups
}

// Has reports whether at least one provider matches doc.
func (r *Registry[P]) Has(doc selector.Document) bool {
	return len(r.rank(doc)) > 0
}

// OnDidChange subscribes listener to additions and removals.
func (r *Registry[P]) OnDidChange(listener func()) *Subscription {
	return r.onDidChange.Subscribe(listener)
}

// Disposed reports whether Dispose has been called.
func (r *Registry[P]) Disposed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disposed
}

// Dispose removes every registration, notifying listeners once per removed
// registration, then drops all listeners. Later Register calls fail with
// ErrDisposed and queries return nothing. Dispose is idempotent.
func (r *Registry[P]) Dispose() {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return
	}
	r.disposed = true
	removed := len(r.entries)
	r.entries = nil
	r.mu.Unlock()

	r.logger.Debug("registry disposed", "registrations", removed)
	for i := 0; i < removed; i++ {
		r.onDidChange.Fire()
	}
	r.onDidChange.Dispose()
}

// Registration is the handle returned by Register.
type Registration[P any] struct {
	registry *Registry[P]
	entry    *entry[P]
}

// Selector returns the selector the provider was registered with.
func (g *Registration[P]) Selector() selector.Selector { return g.entry.selector }

// Provider returns the registered provider.
func (g *Registration[P]) Provider() P { return g.entry.provider }

// Dispose removes the registration and notifies listeners. Disposing twice,
// or after the registry was disposed, does nothing.
func (g *Registration[P]) Dispose() {
	if g == nil {
		return
	}
	if g.registry.remove(g.entry) {
		g.registry.logger.Debug("provider unregistered", "seq", g.entry.seq)
		g.registry.onDidChange.Fire()
	}
}
