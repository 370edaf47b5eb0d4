package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/reglet-langfeatures/parser"
	"github.com/reglet-dev/reglet-langfeatures/selector"
)

const yamlManifest = `
name: vscode.json-language-features
version: 1.2.0
engine: ">=1.0.0"
contributions:
  - kind: hover
    provider: json-hover
    selector: json
  - kind: completion
    provider: json-complete
    selector:
      contentType: json
      pattern: "**/package.json"
      synchronized: true
  - kind: documentSymbol
    provider: symbols
    selector:
      - json
      - scheme: untitled
  - kind: link
    provider: links
`

const jsonManifest = `{
  "name": "vscode.json-language-features",
  "version": "1.2.0",
  "engine": ">=1.0.0",
  "contributions": [
    {"kind": "hover", "provider": "json-hover", "selector": "json"},
    {"kind": "completion", "provider": "json-complete",
     "selector": {"contentType": "json", "pattern": "**/package.json", "synchronized": true}},
    {"kind": "documentSymbol", "provider": "symbols", "selector": ["json", {"scheme": "untitled"}]},
    {"kind": "link", "provider": "links"}
  ]
}`

func assertDecodedManifest(t *testing.T, m *parser.Manifest) {
	t.Helper()

	assert.Equal(t, "vscode.json-language-features", m.Name)
	assert.Equal(t, "1.2.0", m.Version)
	assert.Equal(t, ">=1.0.0", m.Engine)
	require.Len(t, m.Contributions, 4)

	hover := m.Contributions[0]
	assert.Equal(t, "hover", hover.Kind)
	assert.Equal(t, "json-hover", hover.Provider)
	assert.Equal(t, selector.ContentType("json"), hover.Selector.ToSelector())

	assert.Equal(t,
		selector.Where(selector.Filter{ContentType: "json", Pattern: "**/package.json", Synchronized: true}),
		m.Contributions[1].Selector.ToSelector())

	assert.Equal(t,
		selector.OneOf(selector.ContentType("json"), selector.Where(selector.Filter{Scheme: "untitled"})),
		m.Contributions[2].Selector.ToSelector())

	assert.True(t, m.Contributions[3].Selector.ToSelector().IsAbsent())
}

func TestYamlManifestParser_Parse(t *testing.T) {
	m, err := parser.NewYamlManifestParser().Parse([]byte(yamlManifest))
	require.NoError(t, err)
	assertDecodedManifest(t, m)
}

func TestJSONManifestParser_Parse(t *testing.T) {
	m, err := parser.NewJSONManifestParser().Parse([]byte(jsonManifest))
	require.NoError(t, err)
	assertDecodedManifest(t, m)
}

func TestParsers_Errors(t *testing.T) {
	tests := []struct {
		name   string
		parser parser.ManifestParser
		input  string
	}{
		{"yaml unknown field", parser.NewYamlManifestParser(), "name: x\nowner: me\n"},
		{"yaml unknown filter field", parser.NewYamlManifestParser(), "name: x\ncontributions:\n  - kind: hover\n    provider: p\n    selector: {language: json}\n"},
		{"yaml nested sequence", parser.NewYamlManifestParser(), "name: x\ncontributions:\n  - kind: hover\n    provider: p\n    selector: [[json]]\n"},
		{"yaml wrong filter type", parser.NewYamlManifestParser(), "name: x\ncontributions:\n  - kind: hover\n    provider: p\n    selector: {exclude: yes please}\n"},
		{"yaml number selector", parser.NewYamlManifestParser(), "name: x\ncontributions:\n  - kind: hover\n    provider: p\n    selector: 42\n"},
		{"json malformed", parser.NewJSONManifestParser(), `{"name": `},
		{"json unknown field", parser.NewJSONManifestParser(), `{"name": "x", "owner": "me"}`},
		{"json bad selector", parser.NewJSONManifestParser(), `{"name": "x", "contributions": [{"kind": "hover", "provider": "p", "selector": {"pattern": 3}}]}`},
		{"json null in sequence", parser.NewJSONManifestParser(), `{"name": "x", "contributions": [{"kind": "hover", "provider": "p", "selector": ["json", null]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.parser.Parse([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestParsers_Empty(t *testing.T) {
	_, err := parser.NewYamlManifestParser().Parse(nil)
	assert.ErrorIs(t, err, parser.ErrEmptyManifest)

	_, err = parser.NewJSONManifestParser().Parse([]byte("  "))
	assert.ErrorIs(t, err, parser.ErrEmptyManifest)
}

func TestSelectorDTO_StarIsContentTypeTag(t *testing.T) {
	m, err := parser.NewYamlManifestParser().Parse([]byte("name: x\ncontributions:\n  - kind: hover\n    provider: p\n    selector: \"*\"\n"))
	require.NoError(t, err)

	sel := m.Contributions[0].Selector.ToSelector()
	assert.Equal(t, selector.KindContentType, sel.Kind())
	assert.Equal(t, "*", sel.Tag())
}

func TestSelectorDTO_JSONNullIsAbsent(t *testing.T) {
	m, err := parser.NewJSONManifestParser().Parse([]byte(`{"name": "x", "contributions": [{"kind": "hover", "provider": "p", "selector": null}]}`))
	require.NoError(t, err)
	assert.True(t, m.Contributions[0].Selector.ToSelector().IsAbsent())
}

func TestSelectorDTO_MarshalJSON(t *testing.T) {
	tests := []struct {
		sel  selector.Selector
		want string
	}{
		{selector.Selector{}, `null`},
		{selector.ContentType("go"), `"go"`},
		{selector.Where(selector.Filter{Scheme: "file", Exclude: true}), `{"exclude":true,"scheme":"file"}`},
		{selector.OneOf(selector.ContentType("go"), selector.Where(selector.Filter{Pattern: "**/*.mod"})), `["go",{"pattern":"**/*.mod"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.sel.String(), func(t *testing.T) {
			data, err := parser.NewSelectorDTO(tt.sel).MarshalJSON()
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))

			var back parser.SelectorDTO
			require.NoError(t, back.UnmarshalJSON(data))
			assert.Equal(t, tt.sel, back.ToSelector())
		})
	}
}

func TestSelectorDTO_JSONSchema(t *testing.T) {
	s := parser.SelectorDTO{}.JSONSchema()
	require.Len(t, s.OneOf, 4)
	assert.Equal(t, "string", s.OneOf[0].Type)
	assert.Equal(t, "object", s.OneOf[1].Type)
	assert.Equal(t, "array", s.OneOf[2].Type)

	_, ok := s.OneOf[1].Properties.Get("pattern")
	assert.True(t, ok)
}

func TestFormatForFile(t *testing.T) {
	tests := []struct {
		path    string
		want    parser.Format
		wantErr bool
	}{
		{"ext.yaml", parser.FormatYAML, false},
		{"ext.YML", parser.FormatYAML, false},
		{"dir/ext.json", parser.FormatJSON, false},
		{"ext.toml", "", true},
		{"README", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := parser.FormatForFile(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, parser.ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestForFile(t *testing.T) {
	p, err := parser.ForFile("a.yml")
	require.NoError(t, err)
	assert.IsType(t, &parser.YamlManifestParser{}, p)

	p, err = parser.ForFile("a.json")
	require.NoError(t, err)
	assert.IsType(t, &parser.JSONManifestParser{}, p)

	_, err = parser.NewParser("xml")
	assert.ErrorIs(t, err, parser.ErrUnsupportedFormat)
}
