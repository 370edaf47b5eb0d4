package langfeatures

import (
	"fmt"

	"github.com/reglet-dev/reglet-langfeatures/feature"
	"github.com/reglet-dev/reglet-langfeatures/parser"
	"github.com/reglet-dev/reglet-langfeatures/registry"
	"github.com/reglet-dev/reglet-langfeatures/validation"
)

// ProviderResolver maps a manifest contribution to the provider it names.
type ProviderResolver func(c parser.Contribution) (Provider, error)

// LoadManifest registers every contribution of m. The manifest must pass the
// semantic checks of validation.ValidateManifest and its engine constraint
// must admit the host version. Loading is all-or-nothing: if any
// contribution fails, the ones already registered are disposed again.
// Disposing the returned handle unregisters the whole manifest.
func (s *Service) LoadManifest(m *parser.Manifest, resolve ProviderResolver) (registry.Disposable, error) {
	if s.Closed() {
		return nil, ErrClosed
	}
	if m == nil {
		return nil, fmt.Errorf("load manifest: %w: nil manifest", ErrInvalidArgument)
	}
	if resolve == nil {
		return nil, fmt.Errorf("load manifest %s: %w: nil provider resolver", m.Name, ErrInvalidArgument)
	}

	if errs := validation.ValidateManifest(m); len(errs) > 0 {
		result := &validation.Result{Valid: false, Errors: errs}
		return nil, fmt.Errorf("load manifest %s: %w", m.Name, result.Err())
	}
	if err := validation.CheckEngine(m.Engine, s.hostVersion); err != nil {
		return nil, fmt.Errorf("load manifest %s: %w", m.Name, err)
	}

	regs := make([]registry.Disposable, 0, len(m.Contributions))
	rollback := func() { registry.Combine(regs...).Dispose() }

	for i, c := range m.Contributions {
		kind, err := feature.ParseKind(c.Kind)
		if err != nil {
			rollback()
			return nil, fmt.Errorf("load manifest %s: contribution %d: %w", m.Name, i, err)
		}

		provider, err := resolve(c)
		if err != nil {
			rollback()
			return nil, fmt.Errorf("load manifest %s: resolve provider %q: %w", m.Name, c.Provider, err)
		}

		reg, err := s.Register(kind, c.Selector.ToSelector(), provider)
		if err != nil {
			rollback()
			return nil, fmt.Errorf("load manifest %s: contribution %d: %w", m.Name, i, err)
		}
		regs = append(regs, reg)
	}

	s.logger.Info("manifest loaded",
		"name", m.Name,
		"version", m.Version,
		"contributions", len(regs))
	return registry.Combine(regs...), nil
}
