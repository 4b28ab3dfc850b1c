package domtree

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	"github.com/entrhq/pagemap/pkg/dom"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// AttrRule matches an element by tag, attribute value, or both.
type AttrRule struct {
	Tag     string `yaml:"tag,omitempty" json:"tag,omitempty"`
	Attr    string `yaml:"attr,omitempty" json:"attr,omitempty"`
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Token   bool   `yaml:"token,omitempty" json:"token,omitempty"`

	g glob.Glob
}

func (r *AttrRule) compile() error {
	r.Tag = strings.ToLower(r.Tag)
	r.Attr = strings.ToLower(r.Attr)
	if r.Tag == "" && r.Attr == "" {
		return fmt.Errorf("rule needs a tag or an attribute")
	}
	if r.Attr == "" {
		return nil
	}
	g, err := glob.Compile(strings.ToLower(r.Pattern))
	if err != nil {
		return fmt.Errorf("invalid pattern '%s' for attribute %s: %w", r.Pattern, r.Attr, err)
	}
	r.g = g
	return nil
}

func (r *AttrRule) match(el dom.Node) bool {
	if r.Tag != "" && el.TagName() != r.Tag {
		return false
	}
	if r.Attr == "" {
		return true
	}
	v, ok := el.Attr(r.Attr)
	if !ok {
		return false
	}
	v = strings.ToLower(v)
	if !r.Token {
		return r.g.Match(v)
	}
	for _, tok := range strings.Fields(v) {
		if r.g.Match(tok) {
			return true
		}
	}
	return false
}

// RuleSet is the serialized form of the interactivity rule tables.
type RuleSet struct {
	InteractiveTags  []string   `yaml:"interactiveTags,omitempty" json:"interactiveTags,omitempty"`
	InteractiveRoles []string   `yaml:"interactiveRoles,omitempty" json:"interactiveRoles,omitempty"`
	WrapperClasses   []string   `yaml:"wrapperClasses,omitempty" json:"wrapperClasses,omitempty"`
	DataActions      []string   `yaml:"dataActions,omitempty" json:"dataActions,omitempty"`
	Dropdown         []AttrRule `yaml:"dropdown,omitempty" json:"dropdown,omitempty"`
	ConsentScope     []AttrRule `yaml:"consentScope,omitempty" json:"consentScope,omitempty"`
	ConsentButtons   []AttrRule `yaml:"consentButtons,omitempty" json:"consentButtons,omitempty"`
	CookieIdentity   []AttrRule `yaml:"cookieIdentity,omitempty" json:"cookieIdentity,omitempty"`
	CookieBanner     []AttrRule `yaml:"cookieBanner,omitempty" json:"cookieBanner,omitempty"`
	ButtonLike       []AttrRule `yaml:"buttonLike,omitempty" json:"buttonLike,omitempty"`
	ClickAttributes  []string   `yaml:"clickAttributes,omitempty" json:"clickAttributes,omitempty"`
	HandlerEvents    []string   `yaml:"handlerEvents,omitempty" json:"handlerEvents,omitempty"`
	ListenerEvents   []string   `yaml:"listenerEvents,omitempty" json:"listenerEvents,omitempty"`
	AriaStates       []string   `yaml:"ariaStates,omitempty" json:"ariaStates,omitempty"`
	EditorMarkers    []AttrRule `yaml:"editorMarkers,omitempty" json:"editorMarkers,omitempty"`
	ClickableClasses []AttrRule `yaml:"clickableClasses,omitempty" json:"clickableClasses,omitempty"`
	AlwaysAcceptTags []string   `yaml:"alwaysAcceptTags,omitempty" json:"alwaysAcceptTags,omitempty"`
	DeniedTags       []string   `yaml:"deniedTags,omitempty" json:"deniedTags,omitempty"`

	// OwnCursorOnly ignores pointer cursors inherited from the parent.
	OwnCursorOnly bool `yaml:"ownCursorOnly,omitempty" json:"ownCursorOnly,omitempty"`
}

// Rules are compiled, immutable interactivity rule tables. Safe for
// concurrent use.
type Rules struct {
	set RuleSet

	tags, roles, wrappers, actions set
	clickAttrs, aria, accept, deny set
}

type set map[string]bool

func newSet(items []string) set {
	s := make(set, len(items))
	for _, it := range items {
		s[strings.ToLower(it)] = true
	}
	return s
}

var (
	defaultRules     *Rules
	defaultRulesOnce sync.Once
)

// DefaultRules returns the embedded rule tables.
func DefaultRules() *Rules {
	defaultRulesOnce.Do(func() {
		r, err := ParseRules(defaultRulesYAML)
		if err != nil {
			panic(fmt.Sprintf("domtree: embedded rules: %v", err))
		}
		defaultRules = r
	})
	return defaultRules
}

// ParseRules compiles rule tables from YAML.
func ParseRules(data []byte) (*Rules, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	return Compile(rs)
}

// LoadRules reads and compiles a rules file.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	r, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Compile validates a rule set and builds its lookup tables.
func Compile(rs RuleSet) (*Rules, error) {
	lists := []*[]AttrRule{
		&rs.Dropdown, &rs.ConsentScope, &rs.ConsentButtons, &rs.CookieIdentity,
		&rs.CookieBanner, &rs.ButtonLike, &rs.EditorMarkers, &rs.ClickableClasses,
	}
	for _, list := range lists {
		compiled := make([]AttrRule, len(*list))
		copy(compiled, *list)
		for i := range compiled {
			if err := compiled[i].compile(); err != nil {
				return nil, err
			}
		}
		*list = compiled
	}
	return &Rules{
		set:        rs,
		tags:       newSet(rs.InteractiveTags),
		roles:      newSet(rs.InteractiveRoles),
		wrappers:   newSet(rs.WrapperClasses),
		actions:    newSet(rs.DataActions),
		clickAttrs: newSet(rs.ClickAttributes),
		aria:       newSet(rs.AriaStates),
		accept:     newSet(rs.AlwaysAcceptTags),
		deny:       newSet(rs.DeniedTags),
	}, nil
}

// RuleSet returns the source tables. Callers must not modify them.
func (r *Rules) RuleSet() RuleSet {
	return r.set
}

// Extend returns new rules with ext's entries appended to every table.
func (r *Rules) Extend(ext RuleSet) (*Rules, error) {
	base := r.set
	merged := RuleSet{
		InteractiveTags:  concat(base.InteractiveTags, ext.InteractiveTags),
		InteractiveRoles: concat(base.InteractiveRoles, ext.InteractiveRoles),
		WrapperClasses:   concat(base.WrapperClasses, ext.WrapperClasses),
		DataActions:      concat(base.DataActions, ext.DataActions),
		Dropdown:         concat(base.Dropdown, ext.Dropdown),
		ConsentScope:     concat(base.ConsentScope, ext.ConsentScope),
		ConsentButtons:   concat(base.ConsentButtons, ext.ConsentButtons),
		CookieIdentity:   concat(base.CookieIdentity, ext.CookieIdentity),
		CookieBanner:     concat(base.CookieBanner, ext.CookieBanner),
		ButtonLike:       concat(base.ButtonLike, ext.ButtonLike),
		ClickAttributes:  concat(base.ClickAttributes, ext.ClickAttributes),
		HandlerEvents:    concat(base.HandlerEvents, ext.HandlerEvents),
		ListenerEvents:   concat(base.ListenerEvents, ext.ListenerEvents),
		AriaStates:       concat(base.AriaStates, ext.AriaStates),
		EditorMarkers:    concat(base.EditorMarkers, ext.EditorMarkers),
		ClickableClasses: concat(base.ClickableClasses, ext.ClickableClasses),
		AlwaysAcceptTags: concat(base.AlwaysAcceptTags, ext.AlwaysAcceptTags),
		DeniedTags:       concat(base.DeniedTags, ext.DeniedTags),
		OwnCursorOnly:    base.OwnCursorOnly || ext.OwnCursorOnly,
	}
	return Compile(merged)
}

func concat[T any](a, b []T) []T {
	out := make([]T, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func matchAny(rules []AttrRule, el dom.Node) bool {
	for i := range rules {
		if rules[i].match(el) {
			return true
		}
	}
	return false
}

// closest reports whether el or one of its ancestor elements in the same tree
// matches any rule.
func closest(rules []AttrRule, el dom.Node) bool {
	for cur := el; cur != nil && cur.Type() == dom.ElementNode; cur = dom.ParentElement(cur) {
		if matchAny(rules, cur) {
			return true
		}
	}
	return false
}

func hasClass(el dom.Node, classes set) bool {
	v, _ := el.Attr("class")
	for _, c := range strings.Fields(strings.ToLower(v)) {
		if classes[c] {
			return true
		}
	}
	return false
}

// accepted reports whether an element tag may appear in the map.
func (r *Rules) accepted(tag string) bool {
	if r.accept[tag] {
		return true
	}
	return !r.deny[tag]
}

// isEditor reports whether el is editable in place or marked as a rich text
// editor.
func (r *Rules) isEditor(el dom.Node) bool {
	if v, ok := el.Attr("contenteditable"); ok && strings.EqualFold(v, "true") {
		return true
	}
	return el.IsContentEditable() || matchAny(r.set.EditorMarkers, el)
}
