package domtree

import (
	"github.com/entrhq/pagemap/pkg/dom"
)

// isTopElement reports whether el is what a pointer at its center would hit.
//
// Elements outside the viewport and elements inside iframes are assumed to be
// on top. Shadow tree content is hit-tested within its own root. Hit-testing
// errors resolve to true.
func (b *builder) isTopElement(el dom.Node) bool {
	defer b.metrics.track(OpTopmost)()

	r, ok := b.cache.rect(el)
	if !ok {
		return true
	}
	doc := el.OwnerDocument()
	vp := b.page.Viewport(doc)
	onScreen := r.Left() < vp.Width && r.Right() > 0 && r.Top() < vp.Height && r.Bottom() > 0
	if !onScreen {
		return true
	}
	if doc != b.top {
		return true
	}

	cx, cy := r.Center()
	root := el.RootNode()
	if dom.IsShadowRoot(root) {
		hit, err := b.page.ElementFromPoint(root, cx, cy)
		if err != nil {
			return true
		}
		return reaches(hit, el, root)
	}

	hit, err := b.page.ElementFromPoint(doc, cx, cy)
	if err != nil {
		return true
	}
	return reaches(hit, el, dom.DocumentElement(doc))
}

// reaches walks parent elements from hit until stop, looking for target.
func reaches(hit, target, stop dom.Node) bool {
	for cur := hit; cur != nil && cur != stop; cur = dom.ParentElement(cur) {
		if cur == target {
			return true
		}
	}
	return false
}
