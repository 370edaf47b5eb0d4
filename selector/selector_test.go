package selector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/reglet-langfeatures/selector"
)

func TestSelector_Kinds(t *testing.T) {
	assert.Equal(t, selector.KindWildcard, selector.Any().Kind())
	assert.Equal(t, selector.KindAbsent, selector.Selector{}.Kind())
	assert.True(t, selector.Any().IsWildcard())
	assert.False(t, selector.Any().IsAbsent())
	assert.True(t, selector.Selector{}.IsAbsent())
	assert.False(t, selector.Selector{}.IsWildcard())
	assert.Equal(t, selector.KindContentType, selector.ContentType("json").Kind())
	assert.Equal(t, selector.KindFilter, selector.Where(selector.Filter{}).Kind())
	assert.Equal(t, selector.KindSequence, selector.OneOf(selector.Any()).Kind())
}

func TestSelector_Accessors(t *testing.T) {
	assert.Equal(t, "json", selector.ContentType("json").Tag())

	f, ok := selector.Where(selector.Filter{Scheme: "file"}).Filter()
	assert.True(t, ok)
	assert.Equal(t, "file", f.Scheme)

	_, ok = selector.ContentType("json").Filter()
	assert.False(t, ok)

	assert.Nil(t, selector.Any().Alternatives())
}

func TestSelector_Immutable(t *testing.T) {
	alts := []selector.Selector{selector.ContentType("json"), selector.ContentType("yaml")}
	s := selector.OneOf(alts...)

	alts[0] = selector.ContentType("go")
	got := s.Alternatives()
	assert.Equal(t, "json", got[0].Tag())

	got[1] = selector.ContentType("toml")
	assert.Equal(t, "yaml", s.Alternatives()[1].Tag())
}

func TestSelector_IsExclusive(t *testing.T) {
	excl := selector.Where(selector.Filter{Pattern: "/vendor/**", Exclude: true})

	assert.True(t, excl.IsExclusive())
	assert.True(t, selector.OneOf(selector.ContentType("go"), excl).IsExclusive())
	assert.False(t, selector.OneOf(selector.ContentType("go")).IsExclusive())
	assert.False(t, selector.Any().IsExclusive())
}

func TestSelector_String(t *testing.T) {
	s := selector.OneOf(
		selector.ContentType("json"),
		selector.Where(selector.Filter{Scheme: "file", Pattern: "/a/**", Synchronized: true, Exclude: true}),
		selector.Any(),
	)
	assert.Equal(t, "[contentType(json), {scheme=file pattern=/a/** synchronized exclude}, *]", s.String())
}

func TestSelector_Validate(t *testing.T) {
	tests := []struct {
		name     string
		sel      selector.Selector
		wantErr  bool
		wantPath string
	}{
		{"wildcard", selector.Any(), false, ""},
		{"absent", selector.Selector{}, false, ""},
		{"absent alternative", selector.OneOf(selector.ContentType("json"), selector.Selector{}), true, "[1]"},
		{"content type", selector.ContentType("json"), false, ""},
		{"content type star", selector.ContentType("*"), false, ""},
		{"empty tag", selector.ContentType(""), true, ""},
		{"blank tag", selector.ContentType("   "), true, ""},
		{"filter glob", selector.Where(selector.Filter{Pattern: "/src/**/*.go"}), false, ""},
		{"malformed glob", selector.Where(selector.Filter{Pattern: "/src/[abc"}), true, "pattern"},
		{"empty sequence", selector.OneOf(), true, ""},
		{"nested sequence", selector.OneOf(selector.OneOf(selector.Any())), true, "[0]"},
		{"bad alternative", selector.OneOf(selector.Any(), selector.ContentType("")), true, "[1]"},
		{"bad alternative glob", selector.OneOf(selector.Where(selector.Filter{Pattern: "{a"})), true, "[0].pattern"},
		{"valid sequence", selector.OneOf(selector.ContentType("json"), selector.Where(selector.Filter{Exclude: true})), false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sel.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, selector.ErrInvalidSelector)

			var verr *selector.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantPath, verr.Path)
		})
	}
}
