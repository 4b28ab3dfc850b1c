package memdom

import (
	"strings"

	"github.com/entrhq/pagemap/pkg/dom"
)

// Node is an in-memory DOM node. It implements dom.Node.
type Node struct {
	typ      dom.NodeType
	tag      string
	data     string
	attrs    []dom.Attribute
	parent   *Node
	children []*Node
	shadow   *Node
	host     *Node
	doc      *Document

	// frame is the content document of an iframe element.
	frame       *Document
	crossOrigin bool

	declared  map[string]string
	style     dom.Style
	rect      dom.Rect
	hasLayout bool
	fixed     bool
	offsetW   float64
	offsetH   float64
	scrollX   float64
	scrollY   float64
	paint     int

	// unrendered nodes sit in a display:none subtree and report an empty box.
	unrendered bool

	handlers  map[string]bool
	listeners []string

	// BackendID is the CDP backend node id of a captured node, 0 otherwise.
	BackendID int
}

// wrap converts a possibly nil *Node into a dom.Node without producing a
// non-nil interface holding a nil pointer.
func wrap(n *Node) dom.Node {
	if n == nil {
		return nil
	}
	return n
}

func (n *Node) Type() dom.NodeType { return n.typ }
func (n *Node) TagName() string    { return n.tag }
func (n *Node) Text() string       { return n.data }

func (n *Node) Attr(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, a := range n.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *Node) Attrs() []dom.Attribute {
	out := make([]dom.Attribute, len(n.attrs))
	copy(out, n.attrs)
	return out
}

func (n *Node) Parent() dom.Node { return wrap(n.parent) }

func (n *Node) Children() []dom.Node {
	out := make([]dom.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *Node) ShadowRoot() dom.Node { return wrap(n.shadow) }
func (n *Node) Host() dom.Node       { return wrap(n.host) }

func (n *Node) OwnerDocument() dom.Node {
	if n.doc == nil {
		return nil
	}
	return n.doc.node
}

func (n *Node) RootNode() dom.Node { return wrap(n.root()) }

func (n *Node) root() *Node {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

func (n *Node) ContentDocument() (dom.Node, error) {
	if n.crossOrigin {
		return nil, dom.ErrCrossOrigin
	}
	if n.frame == nil {
		return nil, nil
	}
	return n.frame.node, nil
}

func (n *Node) FrameElement() dom.Node {
	if n.typ != dom.DocumentNode || n.doc == nil {
		return nil
	}
	return wrap(n.doc.frame)
}

func (n *Node) IsContentEditable() bool {
	for cur := n; cur != nil && cur.typ == dom.ElementNode; cur = cur.parent {
		v, ok := cur.Attr("contenteditable")
		if !ok {
			continue
		}
		switch strings.ToLower(v) {
		case "", "true", "plaintext-only":
			return true
		default:
			return false
		}
	}
	return false
}

// Tree mutation

// AppendChild appends child to n, detaching it from its previous parent.
func (n *Node) AppendChild(child *Node) *Node {
	if child.parent != nil {
		child.parent.RemoveChild(child)
	}
	child.parent = n
	n.children = append(n.children, child)
	return child
}

// RemoveChild detaches child from n.
func (n *Node) RemoveChild(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// RemoveChildren detaches every child of n.
func (n *Node) RemoveChildren() {
	for _, c := range n.children {
		c.parent = nil
	}
	n.children = nil
}

// SetAttr sets an attribute, keeping document order for existing names.
// Setting "style" replaces the declared inline style.
func (n *Node) SetAttr(name, value string) *Node {
	name = strings.ToLower(name)
	if name == "style" {
		n.declared = parseInlineStyle(value)
	}
	for i, a := range n.attrs {
		if a.Name == name {
			n.attrs[i].Value = value
			return n
		}
	}
	n.attrs = append(n.attrs, dom.Attribute{Name: name, Value: value})
	return n
}

// RemoveAttr removes an attribute.
func (n *Node) RemoveAttr(name string) {
	name = strings.ToLower(name)
	for i, a := range n.attrs {
		if a.Name == name {
			n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
			return
		}
	}
}

// SetStyle sets one declared inline style property.
func (n *Node) SetStyle(prop, value string) *Node {
	if n.declared == nil {
		n.declared = make(map[string]string)
	}
	n.declared[strings.ToLower(prop)] = value
	n.syncStyleAttr()
	return n
}

// DeclaredStyle returns a declared inline style property.
func (n *Node) DeclaredStyle(prop string) string {
	return n.declared[strings.ToLower(prop)]
}

func (n *Node) syncStyleAttr() {
	value := formatInlineStyle(n.declared)
	for i, a := range n.attrs {
		if a.Name == "style" {
			n.attrs[i].Value = value
			return
		}
	}
	n.attrs = append(n.attrs, dom.Attribute{Name: "style", Value: value})
}

// AttachShadow attaches an open shadow root to n and returns it.
func (n *Node) AttachShadow() *Node {
	if n.shadow == nil {
		n.shadow = &Node{typ: dom.DocumentFragmentNode, host: n, doc: n.doc}
	}
	return n.shadow
}

// SetContentDocument makes d the content document of the iframe n.
func (n *Node) SetContentDocument(d *Document) {
	n.frame = d
	n.crossOrigin = false
	d.frame = n
}

// SetCrossOrigin marks the iframe n as inaccessible.
func (n *Node) SetCrossOrigin() {
	n.frame = nil
	n.crossOrigin = true
}

// SetHandler assigns an on<event> property handler.
func (n *Node) SetHandler(event string) *Node {
	if n.handlers == nil {
		n.handlers = make(map[string]bool)
	}
	n.handlers[strings.ToLower(event)] = true
	return n
}

// AddEventListener registers a listener for event.
func (n *Node) AddEventListener(event string) *Node {
	n.listeners = append(n.listeners, strings.ToLower(event))
	return n
}

// Geometry overrides. Layout overwrites them, so call these after Layout.

// SetRect sets the node's box in page coordinates of its document.
func (n *Node) SetRect(r dom.Rect) *Node {
	n.rect = r
	n.hasLayout = true
	n.unrendered = false
	n.offsetW, n.offsetH = r.Width, r.Height
	return n
}

// SetOffsetSize overrides offsetWidth and offsetHeight.
func (n *Node) SetOffsetSize(w, h float64) *Node {
	n.offsetW, n.offsetH = w, h
	return n
}

// SetComputed overrides a computed style property.
func (n *Node) SetComputed(prop, value string) *Node {
	if n.style == nil {
		n.style = make(dom.Style)
	}
	n.style[strings.ToLower(prop)] = value
	n.hasLayout = true
	return n
}

// SetPaintOrder overrides the paint order used by hit-testing.
func (n *Node) SetPaintOrder(order int) *Node {
	n.paint = order
	return n
}

// ScrollTo scrolls an element's content and notifies window scroll listeners,
// like a capturing scroll listener on the window would observe.
func (n *Node) ScrollTo(x, y float64) {
	n.scrollX, n.scrollY = x, y
	if n.doc != nil {
		n.doc.dispatch("scroll")
	}
}

// Rect returns the node's box in page coordinates of its document.
func (n *Node) Rect() dom.Rect { return n.rect }

// Document returns the owning document.
func (n *Node) Document() *Document { return n.doc }

// ParentNode returns the parent as a *Node.
func (n *Node) ParentNode() *Node { return n.parent }

// ChildNodes returns the children as *Node values.
func (n *Node) ChildNodes() []*Node { return n.children }

// Shadow returns the open shadow root as a *Node.
func (n *Node) Shadow() *Node { return n.shadow }

// Frame returns the content document of an iframe.
func (n *Node) Frame() *Document { return n.frame }

// walk visits n and its descendants in pre-order, entering shadow trees
// before light children. Frame documents are not entered.
func (n *Node) walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	if n.shadow != nil && !n.shadow.walk(fn) {
		return false
	}
	for _, c := range n.children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}

// composedParent returns the parent, stepping from a shadow root to its host.
func (n *Node) composedParent() *Node {
	if n.parent == nil {
		return nil
	}
	if n.parent.typ == dom.DocumentFragmentNode && n.parent.host != nil {
		return n.parent.host
	}
	return n.parent
}
