package memdom

import (
	"github.com/entrhq/pagemap/pkg/dom"
)

// Page answers dom.Page queries for a document and its frame documents.
// It also implements dom.EventInspector.
type Page struct {
	top *Document
}

var (
	_ dom.Page           = (*Page)(nil)
	_ dom.EventInspector = (*Page)(nil)
)

// Top returns the top-level document.
func (p *Page) Top() *Document { return p.top }

func (p *Page) Document() dom.Node {
	if p == nil || p.top == nil {
		return nil
	}
	return p.top.node
}

func (p *Page) BoundingRect(n dom.Node) (dom.Rect, error) {
	m, err := laidOut(n)
	if err != nil {
		return dom.Rect{}, err
	}
	return m.viewportRect(), nil
}

func (p *Page) ComputedStyle(n dom.Node) (dom.Style, error) {
	m, err := laidOut(n)
	if err != nil {
		return nil, err
	}
	if m.typ != dom.ElementNode || m.style == nil {
		return nil, dom.ErrNoLayout
	}
	return m.style, nil
}

func (p *Page) OffsetSize(n dom.Node) (float64, float64) {
	m, err := laidOut(n)
	if err != nil {
		return 0, 0
	}
	return m.offsetW, m.offsetH
}

func (p *Page) TextRect(n dom.Node) (dom.Rect, error) {
	m, err := laidOut(n)
	if err != nil {
		return dom.Rect{}, err
	}
	if m.typ != dom.TextNode {
		return dom.Rect{}, dom.ErrNoLayout
	}
	return m.viewportRect(), nil
}

func (p *Page) Viewport(doc dom.Node) dom.Viewport {
	if m, ok := doc.(*Node); ok && m != nil && m.doc != nil {
		return m.doc.viewport
	}
	return p.top.viewport
}

func (p *Page) ElementFromPoint(scope dom.Node, x, y float64) (dom.Node, error) {
	s, ok := scope.(*Node)
	if !ok || s == nil || s.doc == nil {
		return nil, dom.ErrDetached
	}
	if s.typ != dom.DocumentNode && s.typ != dom.DocumentFragmentNode {
		return nil, dom.ErrDetached
	}
	hit := hitTest(s.doc, x, y)
	if hit == nil {
		if s.typ == dom.DocumentNode {
			return wrap(s.doc.DocumentElement()), nil
		}
		return nil, nil
	}
	return wrap(retarget(hit, s)), nil
}

func (p *Page) HasHandler(n dom.Node, event string) bool {
	m, ok := n.(*Node)
	if !ok || m == nil {
		return false
	}
	if m.handlers[event] {
		return true
	}
	_, ok = m.Attr("on" + event)
	return ok
}

func (p *Page) EventListeners(n dom.Node) []string {
	m, ok := n.(*Node)
	if !ok || m == nil {
		return nil
	}
	return append([]string(nil), m.listeners...)
}

// laidOut returns the *Node behind n when it is attached and has layout.
func laidOut(n dom.Node) (*Node, error) {
	m, ok := n.(*Node)
	if !ok || m == nil || !m.connected() {
		return nil, dom.ErrDetached
	}
	if !m.hasLayout {
		return nil, dom.ErrNoLayout
	}
	return m, nil
}

// connected reports whether n is reachable from its document, through shadow
// hosts where needed.
func (n *Node) connected() bool {
	if n.doc == nil {
		return false
	}
	for cur := n; ; {
		r := cur.root()
		if r == n.doc.node {
			return true
		}
		if r.typ != dom.DocumentFragmentNode || r.host == nil {
			return false
		}
		cur = r.host
	}
}

// viewportRect translates the layout box into viewport coordinates, applying
// document scroll and the scroll offsets of every enclosing element.
func (n *Node) viewportRect() dom.Rect {
	if n.unrendered {
		return dom.Rect{}
	}
	r := n.rect
	for anc := n.composedParent(); anc != nil; anc = anc.composedParent() {
		r = r.Translate(-anc.scrollX, -anc.scrollY)
	}
	if !n.fixed {
		r = r.Translate(-n.doc.viewport.ScrollX, -n.doc.viewport.ScrollY)
	}
	return r
}
