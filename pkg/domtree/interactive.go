package domtree

import (
	"strings"

	"github.com/entrhq/pagemap/pkg/dom"
)

// isInteractive is an ordered union of independent heuristics; the first match
// wins. Structural and role checks come before listener and style probing.
func (b *builder) isInteractive(el dom.Node) bool {
	defer b.metrics.track(OpInteractivity)()

	r := b.rules
	tag := el.TagName()

	// consent managers render buttons from plain markup
	if closest(r.set.ConsentScope, el) && (matchAny(r.set.ConsentButtons, el) || b.hasClickHandler(el)) {
		return true
	}

	if matchAny(r.set.Dropdown, el) {
		return true
	}

	if b.structural(el, tag) {
		return true
	}

	if matchAny(r.set.CookieIdentity, el) {
		return true
	}

	if closest(r.set.CookieBanner, el) && (matchAny(r.set.ButtonLike, el) || b.hasClickHandler(el)) {
		return true
	}

	return b.signals(el)
}

func (b *builder) structural(el dom.Node, tag string) bool {
	r := b.rules
	if hasClass(el, r.wrappers) || r.tags[tag] {
		return true
	}
	if role, ok := el.Attr("role"); ok && r.roles[strings.ToLower(role)] {
		return true
	}
	if role, ok := el.Attr("aria-role"); ok && r.roles[strings.ToLower(role)] {
		return true
	}
	if ti, ok := el.Attr("tabindex"); ok && (strings.TrimSpace(ti) != "-1" || tag == "a") {
		if p := dom.ParentElement(el); p == nil || p.TagName() != "body" {
			return true
		}
	}
	if action, ok := el.Attr("data-action"); ok && r.actions[strings.ToLower(action)] {
		return true
	}
	return false
}

// signals is the fallback: click bindings, listeners, aria state, editing,
// dragging and a pointer cursor.
func (b *builder) signals(el dom.Node) bool {
	r := b.rules
	if b.hasClickHandler(el) || b.hasListener(el) {
		return true
	}
	for attr := range r.aria {
		if _, ok := el.Attr(attr); ok {
			return true
		}
	}
	if r.isEditor(el) {
		return true
	}
	if v, ok := el.Attr("draggable"); ok && strings.EqualFold(v, "true") {
		return true
	}
	return b.hasPointerCursor(el) || matchAny(r.set.ClickableClasses, el)
}

// hasClickHandler checks click binding attributes and, when the page exposes
// them, on<event> handler properties.
func (b *builder) hasClickHandler(el dom.Node) bool {
	for attr := range b.rules.clickAttrs {
		if _, ok := el.Attr(attr); ok {
			return true
		}
	}
	if b.events == nil {
		return false
	}
	for _, ev := range b.rules.set.HandlerEvents {
		if b.events.HasHandler(el, ev) {
			return true
		}
	}
	return false
}

func (b *builder) hasListener(el dom.Node) bool {
	if b.events == nil {
		return false
	}
	listeners := b.events.EventListeners(el)
	if len(listeners) == 0 {
		return false
	}
	for _, ev := range b.rules.set.ListenerEvents {
		for _, l := range listeners {
			if l == ev {
				return true
			}
		}
	}
	return false
}

// hasPointerCursor reports a computed pointer cursor. With OwnCursorOnly set
// a cursor inherited from the parent does not count. The element's own style
// is read from the cache only; the parent's is fetched when missing.
func (b *builder) hasPointerCursor(el dom.Node) bool {
	s, ok := b.cache.cachedStyle(el)
	if !ok || s.Get("cursor") != "pointer" {
		return false
	}
	if !b.rules.set.OwnCursorOnly {
		return true
	}
	parent := composedParentElement(el)
	if parent == nil {
		return true
	}
	ps, ok := b.cache.cachedStyle(parent)
	if !ok {
		ps, ok = b.cache.style(parent)
	}
	return !ok || ps.Get("cursor") != "pointer"
}

// isCandidate is the cheap pre-filter run before any expensive check. It
// accepts everything isInteractive can accept: each branch above has its
// signal listed here.
func (b *builder) isCandidate(el dom.Node) bool {
	r := b.rules
	if r.tags[el.TagName()] {
		return true
	}
	for _, a := range el.Attrs() {
		name := strings.ToLower(a.Name)
		switch {
		case name == "role", name == "tabindex", name == "data-action", name == "draggable",
			name == "contenteditable", strings.HasPrefix(name, "aria-"), r.clickAttrs[name]:
			return true
		}
	}
	if hasClass(el, r.wrappers) ||
		matchAny(r.set.Dropdown, el) ||
		matchAny(r.set.ConsentButtons, el) ||
		matchAny(r.set.CookieIdentity, el) ||
		matchAny(r.set.ButtonLike, el) ||
		matchAny(r.set.EditorMarkers, el) ||
		matchAny(r.set.ClickableClasses, el) {
		return true
	}
	if el.IsContentEditable() || b.hasClickHandler(el) || b.hasListener(el) {
		return true
	}
	return b.hasPointerCursor(el)
}
