// Package memdom is an in-memory implementation of the dom abstraction.
//
// Documents are either built programmatically or parsed from HTML with
// ParseHTML. Layout assigns every node a box using a deliberately small flow
// model: block boxes stack vertically at full width, inline content flows on
// 18px lines with 8px glyphs, and a handful of replaced elements get their
// usual intrinsic sizes. Only inline styles are honored.
//
// Geometry can also be set directly (SetRect, SetComputed), which is how the
// cdp package imports snapshots taken from a real browser.
package memdom

import (
	"strings"
	"sync"

	"github.com/entrhq/pagemap/pkg/dom"
)

// Document is an in-memory document with its own viewport.
type Document struct {
	node     *Node
	viewport dom.Viewport

	// frame is the iframe element hosting this document, nil at top level.
	frame *Node

	// URL is informational; cdp imports record the captured document URL.
	URL string

	mu        sync.Mutex
	listeners map[string][]func()
}

// New returns a document with empty html, head and body elements.
func New(vp dom.Viewport) *Document {
	d := NewEmpty(vp)
	html := d.node.AppendChild(d.CreateElement("html"))
	html.AppendChild(d.CreateElement("head"))
	html.AppendChild(d.CreateElement("body"))
	return d
}

// NewEmpty returns a document with no children at all.
func NewEmpty(vp dom.Viewport) *Document {
	d := &Document{viewport: vp}
	d.node = &Node{typ: dom.DocumentNode, doc: d}
	return d
}

// Node returns the document node.
func (d *Document) Node() *Node { return d.node }

// Body returns the body element, or nil.
func (d *Document) Body() *Node {
	if b, ok := dom.Body(d.node).(*Node); ok {
		return b
	}
	return nil
}

// Head returns the head element, or nil.
func (d *Document) Head() *Node {
	html := d.DocumentElement()
	if html == nil {
		return nil
	}
	for _, c := range html.children {
		if c.typ == dom.ElementNode && c.tag == "head" {
			return c
		}
	}
	return nil
}

// DocumentElement returns the root element, or nil.
func (d *Document) DocumentElement() *Node {
	for _, c := range d.node.children {
		if c.typ == dom.ElementNode {
			return c
		}
	}
	return nil
}

// CreateElement returns a detached element owned by d. attrs are name/value
// pairs.
func (d *Document) CreateElement(tag string, attrs ...string) *Node {
	n := &Node{typ: dom.ElementNode, tag: strings.ToLower(tag), doc: d}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.SetAttr(attrs[i], attrs[i+1])
	}
	return n
}

// CreateText returns a detached text node owned by d.
func (d *Document) CreateText(text string) *Node {
	return &Node{typ: dom.TextNode, data: text, doc: d}
}

// CreateComment returns a detached comment node owned by d.
func (d *Document) CreateComment(text string) *Node {
	return &Node{typ: dom.CommentNode, data: text, doc: d}
}

// GetElementByID finds an element by id in the light tree and open shadow trees.
func (d *Document) GetElementByID(id string) *Node {
	var found *Node
	d.node.walk(func(n *Node) bool {
		if n.typ == dom.ElementNode {
			if v, ok := n.Attr("id"); ok && v == id {
				found = n
				return false
			}
		}
		return true
	})
	return found
}

// QueryAll returns every element matching the predicate in tree order.
func (d *Document) QueryAll(match func(*Node) bool) []*Node {
	var out []*Node
	d.node.walk(func(n *Node) bool {
		if n.typ == dom.ElementNode && match(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Viewport returns the document viewport.
func (d *Document) Viewport() dom.Viewport { return d.viewport }

// SetViewport replaces the viewport without notifying listeners.
func (d *Document) SetViewport(vp dom.Viewport) { d.viewport = vp }

// ScrollTo scrolls the document and notifies scroll listeners.
func (d *Document) ScrollTo(x, y float64) {
	d.viewport.ScrollX, d.viewport.ScrollY = x, y
	d.dispatch("scroll")
}

// Resize changes the viewport size and notifies resize listeners.
func (d *Document) Resize(w, h float64) {
	d.viewport.Width, d.viewport.Height = w, h
	d.dispatch("resize")
}

// AddWindowListener registers fn for a window event ("scroll" or "resize").
func (d *Document) AddWindowListener(event string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.listeners == nil {
		d.listeners = make(map[string][]func())
	}
	d.listeners[event] = append(d.listeners[event], fn)
}

// WindowListeners returns the number of listeners registered for event.
func (d *Document) WindowListeners(event string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners[event])
}

func (d *Document) dispatch(event string) {
	d.mu.Lock()
	fns := append([]func(){}, d.listeners[event]...)
	d.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// FrameElement returns the iframe hosting d, nil at top level.
func (d *Document) FrameElement() *Node { return d.frame }

// Page returns a dom.Page answering queries for d and its frame documents.
func (d *Document) Page() *Page { return &Page{top: d} }
