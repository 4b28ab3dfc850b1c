// Package dom defines the normalized document abstraction the page mapper runs on.
//
// A rendered page is reduced to two things: a tree of Nodes (elements, text,
// documents and shadow roots) and a Page that answers the expensive questions
// about that tree - where a node is painted, how it is styled, and which
// element a pointer at a given point would hit.
//
// Two implementations ship with the module:
//
//   - memdom: an in-memory document, built programmatically or parsed from HTML
//     and laid out by a small flow layout engine. Used by tests and offline runs.
//   - cdp: live browser pages captured through a CDP DOM snapshot and imported
//     into memdom.
//
// Anything that can answer the Page queries can be mapped.
package dom

import "errors"

// NodeType mirrors the DOM nodeType values the mapper cares about.
type NodeType int

const (
	ElementNode          NodeType = 1
	TextNode             NodeType = 3
	CommentNode          NodeType = 8
	DocumentNode         NodeType = 9
	DocumentTypeNode     NodeType = 10
	DocumentFragmentNode NodeType = 11
)

var (
	// ErrCrossOrigin is returned when an iframe's document cannot be accessed.
	ErrCrossOrigin = errors.New("dom: cross-origin frame")

	// ErrNoLayout is returned for nodes that have no layout object.
	ErrNoLayout = errors.New("dom: node has no layout")

	// ErrDetached is returned for queries on nodes no longer in a document.
	ErrDetached = errors.New("dom: node is detached")
)

// Attribute is a single name/value pair in document order.
type Attribute struct {
	Name  string
	Value string
}

// Node is a node of the normalized document tree.
//
// Implementations must be comparable: the mapper uses node identity as a map key
// for the lifetime of one call.
type Node interface {
	// Type returns the node type.
	Type() NodeType

	// TagName returns the lowercase tag name for elements and "" otherwise.
	TagName() string

	// Attr returns the value of the named attribute.
	Attr(name string) (string, bool)

	// Attrs returns all attributes in document order.
	Attrs() []Attribute

	// Text returns the character data of text nodes.
	Text() string

	// Parent returns the parent node: an element, a document or a shadow root.
	Parent() Node

	// Children returns the child nodes in document order.
	Children() []Node

	// ShadowRoot returns the attached open shadow root, or nil.
	ShadowRoot() Node

	// Host returns the host element of a shadow root, or nil.
	Host() Node

	// OwnerDocument returns the document the node belongs to.
	OwnerDocument() Node

	// RootNode returns the root of the node's tree: its document or shadow root.
	RootNode() Node

	// ContentDocument returns the document of an iframe element.
	// It returns ErrCrossOrigin when the frame is not accessible.
	ContentDocument() (Node, error)

	// FrameElement returns the iframe element hosting a document node, or nil
	// for the top-level document.
	FrameElement() Node

	// IsContentEditable reports whether the element is editable in place.
	IsContentEditable() bool
}

// ParentElement returns the parent of n when it is an element, nil otherwise.
func ParentElement(n Node) Node {
	if n == nil {
		return nil
	}
	p := n.Parent()
	if p == nil || p.Type() != ElementNode {
		return nil
	}
	return p
}

// IsShadowRoot reports whether n is a shadow root.
func IsShadowRoot(n Node) bool {
	return n != nil && n.Type() == DocumentFragmentNode && n.Host() != nil
}

// Body returns the body element of a document node, or nil.
func Body(doc Node) Node {
	if doc == nil {
		return nil
	}
	for _, top := range doc.Children() {
		if top.Type() != ElementNode || top.TagName() != "html" {
			continue
		}
		for _, c := range top.Children() {
			if c.Type() == ElementNode && (c.TagName() == "body" || c.TagName() == "frameset") {
				return c
			}
		}
	}
	return nil
}

// DocumentElement returns the root element of a document node, or nil.
func DocumentElement(doc Node) Node {
	if doc == nil {
		return nil
	}
	for _, c := range doc.Children() {
		if c.Type() == ElementNode {
			return c
		}
	}
	return nil
}

// ID returns the id attribute of n.
func ID(n Node) string {
	v, _ := n.Attr("id")
	return v
}
