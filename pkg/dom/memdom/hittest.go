package memdom

import "github.com/entrhq/pagemap/pkg/dom"

// hitTest returns the element painted last at (x, y) in viewport coordinates
// of d, or nil. Shadow trees are searched; frame documents are not.
func hitTest(d *Document, x, y float64) *Node {
	var best *Node
	d.node.walk(func(n *Node) bool {
		if !hittable(n) {
			return true
		}
		if !n.viewportRect().Contains(x, y) || clipped(n, x, y) {
			return true
		}
		if best == nil || n.paint >= best.paint {
			best = n
		}
		return true
	})
	return best
}

func hittable(n *Node) bool {
	if n.typ != dom.ElementNode || !n.hasLayout || n.style == nil {
		return false
	}
	if n.rect.Width <= 0 || n.rect.Height <= 0 {
		return false
	}
	return n.style.Get("display") != "none" &&
		n.style.Get("visibility") != "hidden" &&
		n.style.Get("pointer-events") != "none"
}

// clipped reports whether an ancestor clipping its overflow hides the point.
func clipped(n *Node, x, y float64) bool {
	for anc := n.composedParent(); anc != nil; anc = anc.composedParent() {
		if anc.typ != dom.ElementNode || anc.style == nil || !clipsOverflow(anc.style) {
			continue
		}
		if !anc.viewportRect().Contains(x, y) {
			return true
		}
	}
	return false
}

func clipsOverflow(s dom.Style) bool {
	for _, prop := range []string{"overflow-x", "overflow-y"} {
		switch s.Get(prop) {
		case "hidden", "scroll", "auto", "clip":
			return true
		}
	}
	return false
}

// retarget adjusts a hit node against scope the way the DOM does: a node in a
// shadow tree that scope cannot see is replaced by its host.
func retarget(a, scope *Node) *Node {
	for a != nil {
		r := a.root()
		if r.typ != dom.DocumentFragmentNode || r.host == nil || shadowIncludingAncestor(r, scope) {
			return a
		}
		a = r.host
	}
	return nil
}

// shadowIncludingAncestor reports whether anc is b or one of b's
// shadow-including ancestors.
func shadowIncludingAncestor(anc, b *Node) bool {
	for cur := b; cur != nil; {
		if cur == anc {
			return true
		}
		if cur.parent != nil {
			cur = cur.parent
			continue
		}
		cur = cur.host
	}
	return false
}
