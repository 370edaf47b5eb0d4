package trust_test

import (
	"bytes"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/reglet-langfeatures/policy"
	"github.com/reglet-dev/reglet-langfeatures/registry"
	"github.com/reglet-dev/reglet-langfeatures/selector"
	"github.com/reglet-dev/reglet-langfeatures/trust"
)

type mockPrompter struct {
	mock.Mock
}

func (m *mockPrompter) IsInteractive() bool {
	return m.Called().Bool(0)
}

func (m *mockPrompter) PromptForTrust(req trust.Request) (bool, bool, error) {
	args := m.Called(req)
	return args.Bool(0), args.Bool(1), args.Error(2)
}

func (m *mockPrompter) FormatNonInteractiveError(req trust.Request) error {
	return m.Called(req).Error(0)
}

type memoryStore struct {
	decisions *trust.Decisions
	loadErr   error
	saveErr   error
	saves     int
}

func (s *memoryStore) Load() (*trust.Decisions, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.decisions.Clone(), nil
}

func (s *memoryStore) Save(d *trust.Decisions) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.decisions = d.Clone()
	return nil
}

func (s *memoryStore) ConfigPath() string { return "memory" }

func forRoot(root string) any {
	return mock.MatchedBy(func(req trust.Request) bool { return req.Root == root })
}

func TestGatekeeper_Authorize_PromptSession(t *testing.T) {
	p := &mockPrompter{}
	p.On("IsInteractive").Return(true)
	p.On("PromptForTrust", forRoot("/work")).Return(true, false, nil).Once()
	store := &memoryStore{}

	g := trust.NewGatekeeper(trust.WithPrompter(p), trust.WithStore(store))

	require.NoError(t, g.Authorize("file:///work/"))
	require.NoError(t, g.Authorize("/work/sub"))

	assert.True(t, g.IsTrusted("file:///work/a.json"))
	assert.True(t, g.IsTrusted("/work/deep/b.go"))
	assert.False(t, g.IsTrusted("/workspace/a.json"))
	assert.False(t, g.IsTrusted("/other/a.json"))
	assert.Zero(t, store.saves)
	assert.Equal(t, []string{"/work"}, g.Trusted())

	p.AssertExpectations(t)
}

func TestGatekeeper_Authorize_AlwaysPersists(t *testing.T) {
	p := &mockPrompter{}
	p.On("IsInteractive").Return(true)
	p.On("PromptForTrust", forRoot("/work")).Return(true, true, nil).Once()
	store := &memoryStore{}

	g := trust.NewGatekeeper(trust.WithPrompter(p), trust.WithStore(store))
	require.NoError(t, g.Authorize("/work"))

	assert.Equal(t, 1, store.saves)
	assert.Equal(t, []string{"/work"}, store.decisions.Trusted)

	// A fresh gatekeeper sees the stored answer without prompting.
	fresh := trust.NewGatekeeper(trust.WithPrompter(&mockPrompter{}), trust.WithStore(store))
	require.NoError(t, fresh.Authorize("/work/project"))
	assert.True(t, fresh.IsTrusted("/work/project/main.go"))

	p.AssertExpectations(t)
}

func TestGatekeeper_Authorize_Denied(t *testing.T) {
	p := &mockPrompter{}
	p.On("IsInteractive").Return(true)
	p.On("PromptForTrust", forRoot("/tmp/evil")).Return(false, false, nil).Once()

	g := trust.NewGatekeeper(trust.WithPrompter(p), trust.WithStore(&memoryStore{}))

	err := g.Authorize("/tmp/evil")
	assert.ErrorIs(t, err, trust.ErrUntrusted)

	// The denial is remembered for the session.
	err = g.Authorize("/tmp/evil")
	assert.ErrorIs(t, err, trust.ErrUntrusted)
	assert.False(t, g.IsTrusted("/tmp/evil/x.js"))

	p.AssertExpectations(t)
}

func TestGatekeeper_Authorize_StoredDenial(t *testing.T) {
	store := &memoryStore{decisions: &trust.Decisions{Denied: []string{"/srv"}}}
	g := trust.NewGatekeeper(trust.WithPrompter(&mockPrompter{}), trust.WithStore(store))

	assert.ErrorIs(t, g.Authorize("/srv"), trust.ErrUntrusted)
}

func TestGatekeeper_Authorize_PromptError(t *testing.T) {
	p := &mockPrompter{}
	p.On("IsInteractive").Return(true)
	p.On("PromptForTrust", mock.Anything).Return(false, false, errors.New("tty closed"))

	g := trust.NewGatekeeper(trust.WithPrompter(p), trust.WithStore(&memoryStore{}))

	err := g.Authorize("/work")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tty closed")
	assert.False(t, g.IsTrusted("/work/a"))
}

func TestGatekeeper_SecurityLevels(t *testing.T) {
	t.Run("strict refuses without prompting", func(t *testing.T) {
		p := &mockPrompter{}
		g := trust.NewGatekeeper(
			trust.WithPrompter(p),
			trust.WithStore(&memoryStore{}),
			trust.WithSecurityLevel(trust.SecurityStrict),
			trust.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
		)

		assert.ErrorIs(t, g.Authorize("/work"), trust.ErrUntrusted)
		p.AssertNotCalled(t, "PromptForTrust", mock.Anything)
	})

	t.Run("strict still honors stored trust", func(t *testing.T) {
		store := &memoryStore{decisions: &trust.Decisions{Trusted: []string{"/work"}}}
		g := trust.NewGatekeeper(
			trust.WithPrompter(&mockPrompter{}),
			trust.WithStore(store),
			trust.WithSecurityLevel(trust.SecurityStrict),
		)
		assert.NoError(t, g.Authorize("/work/a"))
	})

	t.Run("permissive trusts with a warning", func(t *testing.T) {
		var buf bytes.Buffer
		p := &mockPrompter{}
		g := trust.NewGatekeeper(
			trust.WithPrompter(p),
			trust.WithStore(&memoryStore{}),
			trust.WithSecurityLevel(trust.SecurityPermissive),
			trust.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		)

		require.NoError(t, g.Authorize("/"))
		assert.True(t, g.IsTrusted("/anything/at/all"))
		assert.Contains(t, buf.String(), "auto-trusting broad root")
		p.AssertNotCalled(t, "PromptForTrust", mock.Anything)
	})
}

func TestGatekeeper_NonInteractive(t *testing.T) {
	p := &mockPrompter{}
	p.On("IsInteractive").Return(false)
	p.On("FormatNonInteractiveError", forRoot("/work")).Return(trust.ErrUntrusted)

	g := trust.NewGatekeeper(trust.WithPrompter(p), trust.WithStore(&memoryStore{}))

	assert.ErrorIs(t, g.Authorize("/work"), trust.ErrUntrusted)
	p.AssertNotCalled(t, "PromptForTrust", mock.Anything)
	p.AssertExpectations(t)
}

func TestGatekeeper_BroadRequest(t *testing.T) {
	p := &mockPrompter{}
	p.On("IsInteractive").Return(true)
	p.On("PromptForTrust", mock.MatchedBy(func(req trust.Request) bool {
		return req.Root == "/" && req.IsBroad && req.Risk.Level == trust.RiskCritical
	})).Return(true, false, nil).Once()

	g := trust.NewGatekeeper(trust.WithPrompter(p), trust.WithStore(&memoryStore{}))
	require.NoError(t, g.Authorize("/"))
	p.AssertExpectations(t)
}

func TestGatekeeper_InvalidRoots(t *testing.T) {
	g := trust.NewGatekeeper(trust.WithPrompter(&mockPrompter{}), trust.WithStore(&memoryStore{}))

	assert.ErrorIs(t, g.Authorize(""), trust.ErrUntrusted)
	assert.ErrorIs(t, g.Authorize("https://example.com/repo"), trust.ErrUntrusted)
	assert.ErrorIs(t, g.Trust(""), trust.ErrUntrusted)
	assert.ErrorIs(t, g.Trust("/work/[abc"), trust.ErrInvalidRoot)
	assert.ErrorIs(t, g.Authorize("/work/{a"), trust.ErrInvalidRoot)
}

func TestGatekeeper_TrustExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	g := trust.NewGatekeeper(trust.WithPrompter(&mockPrompter{}), trust.WithStore(&memoryStore{}))
	require.NoError(t, g.Trust("~/src"))

	assert.Equal(t, []string{filepath.ToSlash(home) + "/src"}, g.Trusted())
	assert.True(t, g.IsTrusted("file://"+filepath.ToSlash(home)+"/src/a.go"))
}

func TestGatekeeper_StoreFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	p := &mockPrompter{}
	p.On("IsInteractive").Return(true)
	p.On("PromptForTrust", mock.Anything).Return(true, true, nil)

	store := &memoryStore{loadErr: errors.New("corrupt"), saveErr: errors.New("read-only")}
	g := trust.NewGatekeeper(trust.WithPrompter(p), trust.WithStore(store), trust.WithLogger(logger))

	require.NoError(t, g.Authorize("/work"))
	assert.True(t, g.IsTrusted("/work/a"))
	assert.Contains(t, buf.String(), "failed to load trust decisions")
	assert.Contains(t, buf.String(), "failed to save trust decisions")
}

func TestGatekeeper_TrustAndRevoke(t *testing.T) {
	store := &memoryStore{decisions: &trust.Decisions{Trusted: []string{"/stored"}}}
	g := trust.NewGatekeeper(trust.WithPrompter(&mockPrompter{}), trust.WithStore(store))

	require.NoError(t, g.Trust("/session"))
	assert.Equal(t, []string{"/stored", "/session"}, g.Trusted())
	assert.Zero(t, store.saves)

	require.NoError(t, g.Revoke("/session"))
	assert.False(t, g.IsTrusted("/session/a"))
	assert.Zero(t, store.saves)

	require.NoError(t, g.Revoke("/stored"))
	assert.False(t, g.IsTrusted("/stored/a"))
	assert.Equal(t, 1, store.saves)
	assert.Empty(t, store.decisions.Trusted)
}

func TestGatekeeper_IsTrusted(t *testing.T) {
	store := &memoryStore{decisions: &trust.Decisions{Trusted: []string{"/home/dev/src/*/app", "/opt/tools"}}}
	g := trust.NewGatekeeper(
		trust.WithPrompter(&mockPrompter{}),
		trust.WithStore(store),
		trust.WithTrustedSchemes("untitled", "Vscode-Notebook"),
	)

	tests := []struct {
		location string
		want     bool
	}{
		{"/home/dev/src/one/app/main.go", true},
		{"file:///home/dev/src/two/app", true},
		{"/home/dev/src/one/lib/x.go", false},
		{"/opt/tools/bin/run.sh", true},
		{"/opt/toolsmith/a", false},
		{"untitled:Untitled-1", true},
		{"vscode-notebook:cell-1", true},
		{"https://example.com/opt/tools/a", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.want, g.IsTrusted(tt.location))
		})
	}
}

func TestGatekeeper_RefineVetoesUntrusted(t *testing.T) {
	g := trust.NewGatekeeper(trust.WithPrompter(&mockPrompter{}), trust.WithStore(&memoryStore{}))
	require.NoError(t, g.Trust("/work"))

	refiner := policy.NewRefiner(policy.WithRefineFunc(g.Refine))
	r := registry.New[string](refiner.Score)
	registry.MustRegister(r, selector.ContentType("json"), "json")
	registry.MustRegister(r, selector.ContentType("*"), "star")
	registry.MustRegister(r, selector.Any(), "fallback")

	trusted := selector.Document{Location: "file:///work/a.json", ContentType: "json"}
	untrusted := selector.Document{Location: "file:///tmp/a.json", ContentType: "json"}

	assert.Equal(t, []string{"json", "star", "fallback"}, r.Ordered(trusted))
	assert.Empty(t, r.Ordered(untrusted))

	// Only a provider registered without a selector escapes the veto.
	registry.MustRegister(r, selector.Selector{}, "unscoped")
	assert.Equal(t, []string{"unscoped"}, r.Ordered(untrusted))

	assert.Equal(t, 7, g.Refine(7, selector.ContentType("json"), "/work/x", "json"))
	assert.Zero(t, g.Refine(7, selector.ContentType("json"), "/tmp/x", "json"))
}
