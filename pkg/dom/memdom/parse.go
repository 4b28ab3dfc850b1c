package memdom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/entrhq/pagemap/pkg/dom"
)

// ParseHTML parses src into a laid out document.
//
// Beyond plain HTML it understands:
//
//   - declarative shadow roots: <template shadowrootmode="open"> becomes the
//     open shadow root of its parent, closed templates are dropped;
//   - <iframe srcdoc="..."> documents, parsed recursively as same-origin frames;
//   - <iframe src="http..."> frames, marked cross-origin.
func ParseHTML(src string, vp dom.Viewport) (*Document, error) {
	d, err := parseDocument(src, vp)
	if err != nil {
		return nil, err
	}
	d.Layout()
	return d, nil
}

// MustParseHTML is like ParseHTML but panics on error. For tests.
func MustParseHTML(src string, vp dom.Viewport) *Document {
	d, err := ParseHTML(src, vp)
	if err != nil {
		panic(err)
	}
	return d
}

func parseDocument(src string, vp dom.Viewport) (*Document, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	d := NewEmpty(vp)
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := d.convert(c, d.node); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Document) convert(h *html.Node, parent *Node) error {
	switch h.Type {
	case html.TextNode:
		parent.AppendChild(d.CreateText(h.Data))
		return nil
	case html.CommentNode:
		parent.AppendChild(d.CreateComment(h.Data))
		return nil
	case html.ElementNode:
	default:
		return nil
	}

	tag := strings.ToLower(h.Data)
	if tag == "template" && parent.typ == dom.ElementNode {
		if mode, ok := htmlAttr(h, "shadowrootmode"); ok {
			if !strings.EqualFold(mode, "open") {
				return nil
			}
			shadow := parent.AttachShadow()
			for c := h.FirstChild; c != nil; c = c.NextSibling {
				if err := d.convert(c, shadow); err != nil {
					return err
				}
			}
			return nil
		}
	}

	el := d.CreateElement(tag)
	for _, a := range h.Attr {
		name := a.Key
		if a.Namespace != "" {
			name = a.Namespace + ":" + a.Key
		}
		el.SetAttr(name, a.Val)
	}
	parent.AppendChild(el)

	if tag == "iframe" {
		// fallback content of an iframe is never rendered
		return d.attachFrame(el)
	}
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		if err := d.convert(c, el); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) attachFrame(el *Node) error {
	if srcdoc, ok := el.Attr("srcdoc"); ok {
		frame, err := parseDocument(srcdoc, dom.Viewport{})
		if err != nil {
			return fmt.Errorf("failed to parse iframe srcdoc: %w", err)
		}
		el.SetContentDocument(frame)
		return nil
	}
	if src, _ := el.Attr("src"); strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		el.SetCrossOrigin()
		return nil
	}
	el.SetContentDocument(New(dom.Viewport{}))
	return nil
}

func htmlAttr(h *html.Node, key string) (string, bool) {
	for _, a := range h.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}
