package domtree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRules(t *testing.T) {
	r := DefaultRules()
	require.NotNil(t, r)
	assert.Same(t, r, DefaultRules())

	rs := r.RuleSet()
	assert.Contains(t, rs.InteractiveTags, "button")
	assert.Contains(t, rs.InteractiveRoles, "checkbox")
	assert.Contains(t, rs.ClickAttributes, "onclick")
	assert.True(t, r.accepted("div"))
	assert.True(t, r.accepted("span"))
	assert.False(t, r.accepted("svg"))
	assert.False(t, r.accepted("script"))
}

func TestParseRules(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "valid",
			yaml: `
interactiveTags: [button]
dropdown:
  - attr: class
    pattern: "*dropdown*"
    token: true
`,
		},
		{
			name:    "malformed yaml",
			yaml:    "interactiveTags: [button",
			wantErr: "failed to parse rules",
		},
		{
			name: "rule without tag or attribute",
			yaml: `
dropdown:
  - pattern: "*x*"
`,
			wantErr: "rule needs a tag or an attribute",
		},
		{
			name: "invalid pattern",
			yaml: `
dropdown:
  - attr: class
    pattern: "[x"
`,
			wantErr: "invalid pattern '[x' for attribute class",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRules([]byte(tt.yaml))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, r)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{"button"}, r.RuleSet().InteractiveTags)
		})
	}
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interactiveRoles: [widget]\n"), 0o644))

	r, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"widget"}, r.RuleSet().InteractiveRoles)

	_, err = LoadRules(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read rules file")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("dropdown: [{}]\n"), 0o644))
	_, err = LoadRules(bad)
	assert.ErrorContains(t, err, bad)
}

func TestRules_Extend(t *testing.T) {
	base := DefaultRules()
	ext, err := base.Extend(RuleSet{
		InteractiveRoles: []string{"Widget"},
		ClickableClasses: []AttrRule{{Attr: "data-qa", Pattern: "cta-*"}},
		DeniedTags:       []string{"aside"},
	})
	require.NoError(t, err)

	d := parse(t, `
		<span id="role" role="widget">w</span>
		<div id="qa" data-qa="cta-signup">s</div>
		<aside id="aside">a</aside>`)

	def := newBuilder(d.Page(), d.Node(), DefaultOptions())
	opts := DefaultOptions()
	opts.Rules = ext
	custom := newBuilder(d.Page(), d.Node(), opts)

	for _, id := range []string{"role", "qa"} {
		el := d.GetElementByID(id)
		def.isElementVisible(el)
		custom.isElementVisible(el)
		assert.False(t, def.isInteractive(el), id)
		assert.True(t, custom.isInteractive(el), id)
	}
	assert.True(t, base.accepted("aside"))
	assert.False(t, ext.accepted("aside"))

	assert.Len(t, ext.RuleSet().InteractiveRoles, len(base.RuleSet().InteractiveRoles)+1)
	assert.NotContains(t, base.RuleSet().InteractiveRoles, "Widget", "base rules are unchanged")
}

func TestAttrRule_Match(t *testing.T) {
	d := parse(t, `<div data-t id="Main-Cookie-Notice" class="Banner Top">x</div>`)
	el := target(t, d)

	tests := []struct {
		name string
		rule AttrRule
		want bool
	}{
		{name: "tag only", rule: AttrRule{Tag: "DIV"}, want: true},
		{name: "wrong tag", rule: AttrRule{Tag: "span"}, want: false},
		{name: "case insensitive value", rule: AttrRule{Attr: "id", Pattern: "*cookie*"}, want: true},
		{name: "whole value", rule: AttrRule{Attr: "class", Pattern: "banner"}, want: false},
		{name: "token", rule: AttrRule{Attr: "class", Pattern: "banner", Token: true}, want: true},
		{name: "tag and attribute", rule: AttrRule{Tag: "span", Attr: "id", Pattern: "*"}, want: false},
		{name: "missing attribute", rule: AttrRule{Attr: "role", Pattern: "*"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.rule
			require.NoError(t, r.compile())
			assert.Equal(t, tt.want, r.match(el))
		})
	}
}
