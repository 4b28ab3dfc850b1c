package browser

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/gobwas/glob"

	"github.com/entrhq/pagemap/pkg/domtree"
)

// DomainRules selects interactivity rules by the host of the mapped page.
// Safe for concurrent use.
type DomainRules struct {
	mu      sync.RWMutex
	base    *domtree.Rules
	entries []domainEntry
}

type domainEntry struct {
	pattern string
	g       glob.Glob
	rules   *domtree.Rules
}

// NewDomainRules returns an empty registry over base. Nil base means
// domtree.DefaultRules.
func NewDomainRules(base *domtree.Rules) *DomainRules {
	if base == nil {
		base = domtree.DefaultRules()
	}
	return &DomainRules{base: base}
}

// Register adds the base rules extended with ext for hosts matching pattern.
// A pattern matches a host when it is the host itself, a parent domain of
// it, or a glob over it ('*' stays within one label, '**' spans labels).
// Patterns are tried in registration order.
func (d *DomainRules) Register(pattern string, ext domtree.RuleSet) error {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return fmt.Errorf("domain pattern is empty")
	}
	g, err := glob.Compile(pattern, '.')
	if err != nil {
		return fmt.Errorf("invalid domain pattern '%s': %w", pattern, err)
	}
	rules, err := d.base.Extend(ext)
	if err != nil {
		return fmt.Errorf("invalid rules for domain '%s': %w", pattern, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = append(d.entries, domainEntry{pattern: pattern, g: g, rules: rules})
	return nil
}

// Patterns returns the registered patterns in match order.
func (d *DomainRules) Patterns() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.pattern
	}
	return out
}

// For returns the rules of the first pattern matching the host of rawURL, or
// the base rules when none does.
func (d *DomainRules) For(rawURL string) (*domtree.Rules, error) {
	host, err := hostOf(rawURL)
	if err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if host != "" {
		for _, e := range d.entries {
			if e.matches(host) {
				return e.rules, nil
			}
		}
	}
	return d.base, nil
}

func (e domainEntry) matches(host string) bool {
	return e.pattern == host ||
		e.pattern == "*."+host ||
		strings.HasSuffix(host, "."+e.pattern) ||
		e.g.Match(host)
}

// hostOf returns the lowercased host of rawURL without its port.
func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid page url %q: %w", rawURL, err)
	}
	return strings.ToLower(u.Hostname()), nil
}
