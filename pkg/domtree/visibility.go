package domtree

import (
	"github.com/entrhq/pagemap/pkg/dom"
)

// minTextSize is the smallest text box, in px per side, counted as rendered.
const minTextSize = 0.1

// isElementVisible is a local check: a painted box with positive size that is
// neither display:none nor visibility:hidden. Unknown geometry is hidden.
func (b *builder) isElementVisible(el dom.Node) bool {
	defer b.metrics.track(OpVisibility)()

	r, ok := b.cache.rect(el)
	if !ok {
		return false
	}
	s, ok := b.cache.style(el)
	if !ok {
		return false
	}
	return r.Width > 0 && r.Height > 0 &&
		s.Get("visibility") != "hidden" &&
		s.Get("display") != "none"
}

// isTextVisible walks the ancestors of a text node looking for anything that
// hides it, then requires a rendered range box inside the expanded viewport
// and inside every ancestor that clips its overflow.
func (b *builder) isTextVisible(text dom.Node) bool {
	defer b.metrics.track(OpTextVisibility)()

	docEl := dom.DocumentElement(text.OwnerDocument())
	var clips []dom.Node
	for el := composedParentElement(text); el != nil && el != docEl; el = composedParentElement(el) {
		s, ok := b.cache.style(el)
		if !ok {
			return false
		}
		if s.Get("display") == "none" || s.Get("visibility") == "hidden" {
			return false
		}
		if op, ok := s.Number("opacity"); ok && op == 0 {
			return false
		}
		clipping := clipsOverflow(s)
		if h, ok := s.Number("height"); ok && h <= 0 && clipping {
			return false
		}
		if w, h := b.page.OffsetSize(el); (w <= 0 || h <= 0) && el.TagName() != "body" {
			return false
		}
		if clipping {
			clips = append(clips, el)
		}
	}

	r, ok := b.cache.rect(text)
	if !ok || r.Width < minTextSize || r.Height < minTextSize {
		return false
	}
	if b.opts.unlimited() {
		return true
	}
	if !b.inViewport(r, text) {
		return false
	}
	for _, el := range clips {
		box, ok := b.cache.rect(el)
		if !ok || box.Width <= 0 || box.Height <= 0 {
			continue
		}
		if !overlaps(r, box) {
			return false
		}
	}
	return true
}

// isInExpandedViewport reports whether the element's box intersects the
// viewport of its document grown by ViewportExpansion.
func (b *builder) isInExpandedViewport(el dom.Node) bool {
	defer b.metrics.track(OpViewport)()

	if b.opts.unlimited() {
		return true
	}
	r, ok := b.cache.rect(el)
	if !ok {
		return false
	}
	return b.inViewport(r, el)
}

func (b *builder) inViewport(r dom.Rect, n dom.Node) bool {
	vp := b.page.Viewport(n.OwnerDocument())
	return r.Intersects(vp.Bounds(float64(b.opts.ViewportExpansion)))
}

func clipsOverflow(s dom.Style) bool {
	for _, prop := range []string{"overflow-x", "overflow-y"} {
		switch s.Get(prop) {
		case "hidden", "scroll", "auto":
			return true
		}
	}
	return false
}

// overlaps reports whether two boxes share area. Touching edges do not count.
func overlaps(a, b dom.Rect) bool {
	return a.Left() < b.Right() && a.Right() > b.Left() &&
		a.Top() < b.Bottom() && a.Bottom() > b.Top()
}

// composedParentElement returns the parent element of n, stepping from a
// shadow root to its host.
func composedParentElement(n dom.Node) dom.Node {
	p := n.Parent()
	if p == nil {
		return nil
	}
	if dom.IsShadowRoot(p) {
		return p.Host()
	}
	if p.Type() != dom.ElementNode {
		return nil
	}
	return p
}
