package langfeatures

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/reglet-dev/reglet-langfeatures/feature"
	"github.com/reglet-dev/reglet-langfeatures/policy"
	"github.com/reglet-dev/reglet-langfeatures/registry"
	"github.com/reglet-dev/reglet-langfeatures/selector"
)

// DefaultHostVersion is the version checked against manifest engine
// constraints unless WithHostVersion overrides it.
const DefaultHostVersion = "1.0.0"

// ErrClosed is returned by operations on a closed Service.
var ErrClosed = errors.New("langfeatures: service closed")

// ErrInvalidArgument is returned for nil manifests and resolvers.
var ErrInvalidArgument = errors.New("langfeatures: invalid argument")

// Provider is an opaque feature provider. The registries never call it.
type Provider = any

// Service holds the feature registries of one host.
type Service struct {
	logger      *slog.Logger
	refiner     *policy.Refiner
	middleware  []ScoreMiddleware
	hostVersion string

	score      registry.ScoreFunc
	registries map[feature.Kind]*registry.Registry[Provider]

	mu     sync.Mutex
	owned  []registry.Disposable
	closed bool
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger shared by the service and its registries.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRefiner uses r instead of a service-owned refiner.
func WithRefiner(r *policy.Refiner) Option {
	return func(s *Service) {
		if r != nil {
			s.refiner = r
		}
	}
}

// WithScoreMiddleware appends middleware around the shared score function.
func WithScoreMiddleware(mw ...ScoreMiddleware) Option {
	return func(s *Service) {
		s.middleware = append(s.middleware, mw...)
	}
}

// WithHostVersion sets the semantic version manifests are checked against.
func WithHostVersion(version string) Option {
	return func(s *Service) {
		if version != "" {
			s.hostVersion = version
		}
	}
}

// New creates a Service with one empty registry per feature kind.
func New(opts ...Option) *Service {
	s := &Service{
		logger:      slog.Default(),
		hostVersion: DefaultHostVersion,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.refiner == nil {
		s.refiner = policy.NewRefiner(policy.WithVetoHandler(&policy.LogVetoHandler{Logger: s.logger}))
	}
	s.score = chainScoreMiddleware(s.refiner.Score, s.middleware)

	kinds := feature.Kinds()
	s.registries = make(map[feature.Kind]*registry.Registry[Provider], len(kinds))
	for _, k := range kinds {
		r := registry.New[Provider](s.score, registry.WithLogger(s.logger.With("kind", k.String())))
		s.registries[k] = r
		s.owned = append(s.owned, r)
	}
	return s
}

// Registry returns the registry for kind, or nil if kind is unknown.
func (s *Service) Registry(kind feature.Kind) *registry.Registry[Provider] {
	return s.registries[kind]
}

// Register adds provider to the registry for kind.
func (s *Service) Register(kind feature.Kind, sel selector.Selector, provider Provider) (*registry.Registration[Provider], error) {
	r := s.Registry(kind)
	if r == nil {
		return nil, fmt.Errorf("register provider: %w: %q", feature.ErrUnknownKind, kind)
	}
	return r.Register(sel, provider)
}

// ScoreFunc returns the score function shared by every registry of the
// service, middleware included.
func (s *Service) ScoreFunc() registry.ScoreFunc {
	return s.score
}

// Refiner returns the refinement policy shared by every registry.
func (s *Service) Refiner() *policy.Refiner {
	return s.refiner
}

// SetScoreRefineFunction installs fn for every registry of the service, or
// clears it when fn is nil, and returns the function it replaced.
func (s *Service) SetScoreRefineFunction(fn policy.RefineFunc) policy.RefineFunc {
	previous := s.refiner.Set(fn)
	s.logger.Debug("score refine function replaced", "installed", fn != nil)
	return previous
}

// NewFeatureRegistry creates a typed registry that scores with the service's
// shared score function and is disposed by Close.
func NewFeatureRegistry[P any](s *Service, opts ...registry.RegistryOption) (*registry.Registry[P], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	opts = append([]registry.RegistryOption{registry.WithLogger(s.logger)}, opts...)
	r := registry.New[P](s.score, opts...)
	s.owned = append(s.owned, r)
	return r, nil
}

// Closed reports whether Close has been called.
func (s *Service) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close disposes every registry the service owns. Close is idempotent.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	owned := s.owned
	s.owned = nil
	s.mu.Unlock()

	registry.Combine(owned...).Dispose()
	s.logger.Debug("feature service closed", "registries", len(owned))
}
