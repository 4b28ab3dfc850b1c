package domtree

import (
	"github.com/entrhq/pagemap/pkg/dom"
)

type rectEntry struct {
	rect dom.Rect
	ok   bool
}

type styleEntry struct {
	style dom.Style
	ok    bool
}

// cache memoizes geometry and style queries for one Build call. Nodes get an
// integer slot on first lookup; entries live in slices indexed by slot and the
// whole arena is dropped by clear.
type cache struct {
	page    dom.Page
	metrics *Metrics

	slots  map[dom.Node]int
	rects  []rectEntry
	styles []styleEntry
}

func newCache(page dom.Page, metrics *Metrics) *cache {
	return &cache{page: page, metrics: metrics, slots: make(map[dom.Node]int)}
}

func (c *cache) slot(n dom.Node) int {
	if s, ok := c.slots[n]; ok {
		return s
	}
	s := len(c.rects)
	c.slots[n] = s
	c.rects = append(c.rects, rectEntry{})
	c.styles = append(c.styles, styleEntry{})
	return s
}

// rect returns the viewport box of an element or the range box of a text
// node. ok is false when the box is unknown.
func (c *cache) rect(n dom.Node) (dom.Rect, bool) {
	if n == nil {
		return dom.Rect{}, false
	}
	s := c.slot(n)
	if e := c.rects[s]; e.ok {
		if c.metrics != nil {
			c.metrics.Cache.RectHits++
		}
		return e.rect, true
	}
	if c.metrics != nil {
		c.metrics.Cache.RectMisses++
	}

	done := c.metrics.track(OpRect)
	var (
		r   dom.Rect
		err error
	)
	if n.Type() == dom.TextNode {
		r, err = c.page.TextRect(n)
	} else {
		r, err = c.page.BoundingRect(n)
	}
	done()
	if err != nil {
		return dom.Rect{}, false
	}
	c.rects[s] = rectEntry{rect: r, ok: true}
	return r, true
}

// style returns the computed style of an element. ok is false when the style
// is unknown.
func (c *cache) style(n dom.Node) (dom.Style, bool) {
	if n == nil {
		return nil, false
	}
	s := c.slot(n)
	if e := c.styles[s]; e.ok {
		if c.metrics != nil {
			c.metrics.Cache.StyleHits++
		}
		return e.style, true
	}
	if c.metrics != nil {
		c.metrics.Cache.StyleMisses++
	}

	done := c.metrics.track(OpStyle)
	st, err := c.page.ComputedStyle(n)
	done()
	if err != nil || st == nil {
		return nil, false
	}
	c.styles[s] = styleEntry{style: st, ok: true}
	return st, true
}

// cachedStyle returns a style only if it was already fetched.
func (c *cache) cachedStyle(n dom.Node) (dom.Style, bool) {
	if n == nil {
		return nil, false
	}
	s, ok := c.slots[n]
	if !ok || !c.styles[s].ok {
		return nil, false
	}
	return c.styles[s].style, true
}

// clear drops every entry so no node outlives the call.
func (c *cache) clear() {
	clear(c.slots)
	c.rects = nil
	c.styles = nil
}
