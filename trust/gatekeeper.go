// Package trust decides which document locations feature providers may act
// on. The Gatekeeper loads stored decisions, prompts for unknown roots and
// persists "always" answers; its Refine method plugs those decisions into
// provider scoring so untrusted documents get no providers. Providers
// registered without a selector are exempt from refinement.
package trust

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/reglet-dev/reglet-langfeatures/location"
	"github.com/reglet-dev/reglet-langfeatures/selector"
)

var (
	// ErrUntrusted is returned when a root is not trusted.
	ErrUntrusted = errors.New("untrusted location")
	// ErrInvalidRoot is returned for roots that are not valid glob patterns.
	ErrInvalidRoot = errors.New("invalid trust root")
)

// SecurityLevel controls the gatekeeper's prompting behavior.
type SecurityLevel string

const (
	SecurityStrict     SecurityLevel = "strict"
	SecurityStandard   SecurityLevel = "standard"
	SecurityPermissive SecurityLevel = "permissive"
)

// Gatekeeper tracks trusted roots for one host.
type Gatekeeper struct {
	store          Store
	prompter       Prompter
	securityLevel  SecurityLevel
	trustedSchemes []string
	logger         *slog.Logger

	mu        sync.RWMutex
	loaded    bool
	persisted *Decisions
	session   []string
	denied    []string
}

// Option configures a Gatekeeper.
type Option func(*Gatekeeper)

// WithStore sets the decision store.
func WithStore(s Store) Option {
	return func(g *Gatekeeper) { g.store = s }
}

// WithPrompter sets the prompter.
func WithPrompter(p Prompter) Option {
	return func(g *Gatekeeper) { g.prompter = p }
}

// WithSecurityLevel sets the security policy level.
func WithSecurityLevel(level SecurityLevel) Option {
	return func(g *Gatekeeper) { g.securityLevel = level }
}

// WithTrustedSchemes sets location schemes trusted without a decision.
// Defaults to "untitled".
func WithTrustedSchemes(schemes ...string) Option {
	return func(g *Gatekeeper) {
		g.trustedSchemes = make([]string, len(schemes))
		for i, s := range schemes {
			g.trustedSchemes[i] = strings.ToLower(s)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gatekeeper) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGatekeeper creates a trust gatekeeper with pluggable store and prompter.
func NewGatekeeper(opts ...Option) *Gatekeeper {
	g := &Gatekeeper{
		securityLevel:  SecurityStandard,
		trustedSchemes: []string{"untitled"},
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.store == nil {
		g.store = NewFileStore()
	}
	if g.prompter == nil {
		g.prompter = NewTerminalPrompter()
	}
	return g
}

// normalizeRoot reduces a root location to the path pattern stored in
// decisions. A leading ~ expands to the home directory.
func normalizeRoot(root string) (string, error) {
	root = expandHome(strings.TrimSpace(root))
	if scheme := location.Scheme(root); scheme != "" && scheme != "file" {
		return "", fmt.Errorf("%w: only file roots can be trusted, got %q", ErrUntrusted, scheme)
	}

	p := location.Parse(root).Path
	if p == "" || p == "." {
		return "", fmt.Errorf("%w: empty root", ErrUntrusted)
	}
	if !doublestar.ValidatePattern(p) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRoot, root)
	}
	return p, nil
}

func expandHome(root string) string {
	if root != "~" && !strings.HasPrefix(root, "~/") {
		return root
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return root
	}
	return filepath.ToSlash(home) + strings.TrimPrefix(root, "~")
}

// load reads the store once. A failing store is treated as empty.
func (g *Gatekeeper) load() {
	g.mu.RLock()
	loaded := g.loaded
	g.mu.RUnlock()
	if loaded {
		return
	}

	decisions, err := g.store.Load()
	if err != nil {
		g.logger.Warn("failed to load trust decisions", "path", g.store.ConfigPath(), "error", err)
		decisions = &Decisions{}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.loaded {
		g.persisted = decisions
		g.loaded = true
	}
}

// Authorize makes sure root is trusted, consulting stored decisions first and
// then the security level. Under the standard level unknown roots are put to
// the prompter; under strict they are refused and under permissive they are
// trusted for the session.
func (g *Gatekeeper) Authorize(root string) error {
	pattern, err := normalizeRoot(root)
	if err != nil {
		return err
	}

	g.load()
	if g.isTrustedPath(pattern) {
		return nil
	}
	if g.isDenied(pattern) {
		return fmt.Errorf("%w: %s was denied", ErrUntrusted, pattern)
	}

	report := AnalyzeRoot(pattern)
	req := Request{
		Root:        pattern,
		Description: fmt.Sprintf("Providers will run on documents under %s", pattern),
		IsBroad:     report.Level >= RiskHigh,
		Risk:        report,
	}

	trusted, always, err := g.evaluateWithSecurityLevel(req)
	if err != nil {
		return err
	}
	if !trusted {
		g.mu.Lock()
		g.denied = append(g.denied, pattern)
		g.mu.Unlock()
		return fmt.Errorf("%w: %s was denied by user", ErrUntrusted, pattern)
	}

	g.trust(pattern, always)
	return nil
}

// evaluateWithSecurityLevel applies security level policy and prompts if needed.
func (g *Gatekeeper) evaluateWithSecurityLevel(req Request) (bool, bool, error) {
	switch g.securityLevel {
	case SecurityStrict:
		g.logger.Error("trust denied by security policy",
			"level", "strict",
			"root", req.Root,
			"risk", req.Risk.Level.String())
		return false, false, fmt.Errorf("%w: %s (strict security policy)", ErrUntrusted, req.Root)

	case SecurityPermissive:
		if req.IsBroad {
			g.logger.Warn("auto-trusting broad root (permissive mode)", "root", req.Root)
		}
		return true, false, nil
	}

	if !g.prompter.IsInteractive() {
		return false, false, g.prompter.FormatNonInteractiveError(req)
	}
	return g.prompter.PromptForTrust(req)
}

func (g *Gatekeeper) trust(pattern string, always bool) {
	g.mu.Lock()
	g.denied = slices.DeleteFunc(g.denied, func(d string) bool { return d == pattern })
	if !always {
		if !slices.Contains(g.session, pattern) {
			g.session = append(g.session, pattern)
		}
		g.mu.Unlock()
		return
	}
	g.persisted.Trusted = append(g.persisted.Trusted, pattern)
	g.persisted.Denied = slices.DeleteFunc(g.persisted.Denied, func(d string) bool { return d == pattern })
	toSave := g.persisted.Clone()
	g.mu.Unlock()

	g.save(toSave)
}

func (g *Gatekeeper) save(decisions *Decisions) {
	if err := g.store.Save(decisions); err != nil {
		g.logger.Warn("failed to save trust decisions", "path", g.store.ConfigPath(), "error", err)
		return
	}
	g.logger.Info("trust decisions saved", "path", g.store.ConfigPath())
}

// Trust marks root as trusted for the session without prompting.
func (g *Gatekeeper) Trust(root string) error {
	pattern, err := normalizeRoot(root)
	if err != nil {
		return err
	}
	g.load()
	g.trust(pattern, false)
	return nil
}

// Revoke withdraws trust in root, both for the session and in the store.
func (g *Gatekeeper) Revoke(root string) error {
	pattern, err := normalizeRoot(root)
	if err != nil {
		return err
	}
	g.load()

	g.mu.Lock()
	g.session = slices.DeleteFunc(g.session, func(p string) bool { return p == pattern })
	before := len(g.persisted.Trusted)
	g.persisted.Trusted = slices.DeleteFunc(g.persisted.Trusted, func(p string) bool { return p == pattern })
	changed := len(g.persisted.Trusted) != before
	toSave := g.persisted.Clone()
	g.mu.Unlock()

	if changed {
		g.save(toSave)
	}
	return nil
}

// Trusted returns every trusted root pattern, stored ones first.
func (g *Gatekeeper) Trusted() []string {
	g.load()
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.trustedLocked()
}

func (g *Gatekeeper) trustedLocked() []string {
	out := make([]string, 0, len(g.persisted.Trusted)+len(g.session))
	out = append(out, g.persisted.Trusted...)
	out = append(out, g.session...)
	return out
}

func (g *Gatekeeper) isDenied(pattern string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Contains(g.denied, pattern) || slices.Contains(g.persisted.Denied, pattern)
}

func (g *Gatekeeper) isTrustedPath(p string) bool {
	g.mu.RLock()
	patterns := g.trustedLocked()
	g.mu.RUnlock()

	for _, pattern := range patterns {
		if covers(pattern, p) {
			return true
		}
	}
	return false
}

// covers reports whether the trusted pattern matches p or one of its parents.
func covers(pattern, p string) bool {
	if pattern == p {
		return true
	}
	if ok, _ := doublestar.Match(pattern, p); ok {
		return true
	}
	ok, _ := doublestar.Match(strings.TrimSuffix(pattern, "/")+"/**", p)
	return ok
}

// IsTrusted reports whether providers may act on the document at loc.
// Locations with a trusted scheme are always trusted; other non-file
// locations never are.
func (g *Gatekeeper) IsTrusted(loc string) bool {
	l := location.Parse(loc)
	if slices.Contains(g.trustedSchemes, l.Scheme) {
		return true
	}
	if l.Scheme != "" && l.Scheme != "file" {
		return false
	}
	if l.Path == "" {
		return false
	}

	g.load()
	return g.isTrustedPath(l.Path)
}

// Refine vetoes documents at untrusted locations and keeps the base score
// otherwise. It never prompts, so it is safe to install as a refine function.
func (g *Gatekeeper) Refine(base int, sel selector.Selector, loc, contentType string) int {
	if g.IsTrusted(loc) {
		return base
	}
	return 0
}
