package memdom

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/entrhq/pagemap/pkg/dom"
)

const (
	// GlyphWidth is the advance of every character.
	GlyphWidth = 8.0
	// LineHeight is the height of one line of inline content.
	LineHeight = 18.0

	paintLayer = 1 << 20
)

type boxKind int

const (
	inlineBox boxKind = iota
	inlineBlockBox
	blockBox
)

// Layout resolves computed styles and assigns boxes to every node of d, then
// lays out the documents of same-origin iframes using the iframe box as their
// viewport. Layout can be called again after mutations; element scroll offsets
// and document scroll survive.
func (d *Document) Layout() {
	for _, c := range d.node.children {
		styleTree(c, dom.Style{})
	}
	var y float64
	for _, c := range d.node.children {
		_, h := place(c, 0, y, d.viewport.Width)
		y += h
	}
	assignPaint(d.node)

	d.node.walk(func(n *Node) bool {
		if n.frame != nil {
			n.frame.viewport.Width = n.rect.Width
			n.frame.viewport.Height = n.rect.Height
			n.frame.Layout()
		}
		return true
	})
}

func styleTree(n *Node, parent dom.Style) {
	n.fixed = false
	n.hasLayout = false
	n.unrendered = false
	if n.typ == dom.ElementNode {
		n.style = computeStyle(n, parent)
		parent = n.style
	} else {
		n.style = nil
	}
	if n.shadow != nil {
		for _, c := range n.shadow.children {
			styleTree(c, parent)
		}
	}
	for _, c := range n.children {
		styleTree(c, parent)
	}
}

// layoutChildren returns the children laid out inside n: the shadow tree's
// children first, then the light children.
func (n *Node) layoutChildren() []*Node {
	if n.shadow == nil {
		return n.children
	}
	out := make([]*Node, 0, len(n.shadow.children)+len(n.children))
	out = append(out, n.shadow.children...)
	return append(out, n.children...)
}

// place lays out n with its top-left corner at (x, y) within avail pixels of
// width and returns the size of its box.
func place(n *Node, x, y, avail float64) (float64, float64) {
	switch n.typ {
	case dom.TextNode:
		return placeText(n, x, y, avail)
	case dom.ElementNode:
	default:
		return 0, 0
	}
	s := n.style
	if s.Get("display") == "none" {
		collapse(n)
		return 0, 0
	}

	kind := kindOf(n)
	width, hasW := length(s, "width", avail)
	height, hasH := length(s, "height", 0)
	inner := avail
	if hasW {
		inner = width
	}
	cw, ch := flow(n, x, y, inner)
	iw, ih, replaced := intrinsic(n, cw, ch)

	var w, h float64
	switch kind {
	case blockBox:
		w, h = avail, ch
		if hasW {
			w = width
		}
	case inlineBlockBox:
		w, h = cw, ch
		if replaced {
			w, h = iw, ih
		}
		if hasW {
			w = width
		}
	default:
		w, h = cw, ch
		if h == 0 {
			h = LineHeight
		}
	}
	if hasH && kind != inlineBox {
		h = height
	}

	n.rect = dom.Rect{X: x, Y: y, Width: w, Height: h}
	n.hasLayout = true
	n.offsetW, n.offsetH = w, h
	if kind != inlineBox {
		s["width"] = px(w)
		s["height"] = px(h)
	}
	if n.shadow != nil {
		n.shadow.hasLayout = true
		n.shadow.rect = n.rect
	}

	if s.Get("position") == "relative" {
		dx, _ := length(s, "left", 0)
		dy, _ := length(s, "top", 0)
		if dx != 0 || dy != 0 {
			shift(n, dx, dy)
		}
	}
	return w, h
}

// flow places the children of n in block and inline flow and returns the
// extent of the content.
func flow(n *Node, x, y, avail float64) (float64, float64) {
	var lineX, lineY, lineH, maxW float64
	for _, c := range n.layoutChildren() {
		if c.typ == dom.ElementNode {
			switch c.style.Get("position") {
			case "absolute":
				placeOut(c, x, y, x+lineX, y+lineY, avail, false)
				continue
			case "fixed":
				placeOut(c, 0, 0, x+lineX, y+lineY, avail, true)
				continue
			}
		}
		if blockLevel(c) {
			if lineX > 0 || lineH > 0 {
				lineY += lineH
				lineX, lineH = 0, 0
			}
			cw, ch := place(c, x, y+lineY, avail)
			lineY += ch
			maxW = math.Max(maxW, cw)
			continue
		}
		cw, ch := place(c, x+lineX, y+lineY, avail-lineX)
		if lineX > 0 && lineX+cw > avail {
			lineY += lineH
			lineX, lineH = 0, 0
			cw, ch = place(c, x, y+lineY, avail)
		}
		lineX += cw
		lineH = math.Max(lineH, ch)
		maxW = math.Max(maxW, lineX)
	}
	return maxW, lineY + lineH
}

// placeOut lays out an absolutely or fixed positioned element. Offsets are
// relative to (bx, by); without offsets the element stays at its static
// position (sx, sy).
func placeOut(n *Node, bx, by, sx, sy, avail float64, fixed bool) {
	x, y := sx, sy
	if v, ok := length(n.style, "left", avail); ok {
		x = bx + v
	}
	if v, ok := length(n.style, "top", 0); ok {
		y = by + v
	}
	place(n, x, y, avail)
	if fixed {
		n.walk(func(c *Node) bool {
			c.fixed = true
			return true
		})
	}
}

func placeText(n *Node, x, y, avail float64) (float64, float64) {
	n.hasLayout = true
	text := strings.Join(strings.Fields(n.data), " ")
	if text == "" {
		n.rect = dom.Rect{X: x, Y: y}
		return 0, 0
	}
	w := float64(utf8.RuneCountInString(text)) * GlyphWidth
	h := LineHeight
	avail = math.Max(avail, GlyphWidth)
	if w > avail {
		lines := math.Ceil(w / avail)
		w, h = avail, lines*LineHeight
	}
	n.rect = dom.Rect{X: x, Y: y, Width: w, Height: h}
	n.offsetW, n.offsetH = w, h
	return w, h
}

// collapse gives a display:none subtree empty boxes at the origin.
func collapse(n *Node) {
	n.walk(func(c *Node) bool {
		c.rect = dom.Rect{}
		c.hasLayout = true
		c.unrendered = true
		c.offsetW, c.offsetH = 0, 0
		return true
	})
}

func shift(n *Node, dx, dy float64) {
	n.walk(func(c *Node) bool {
		if !c.unrendered {
			c.rect = c.rect.Translate(dx, dy)
		}
		return true
	})
}

func kindOf(n *Node) boxKind {
	switch n.style.Get("position") {
	case "absolute", "fixed":
		return inlineBlockBox
	}
	switch n.style.Get("display") {
	case "block", "list-item", "flex", "grid", "table", "flow-root":
		return blockBox
	case "inline-block", "inline-flex", "inline-grid", "inline-table":
		return inlineBlockBox
	}
	return inlineBox
}

func blockLevel(n *Node) bool {
	return n.typ == dom.ElementNode && n.style.Get("display") != "none" && kindOf(n) == blockBox
}

// intrinsic returns the natural size of replaced elements and form controls.
func intrinsic(n *Node, cw, ch float64) (float64, float64, bool) {
	attrSize := func(defW, defH float64) (float64, float64, bool) {
		w, h := defW, defH
		if v, ok := n.Attr("width"); ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				w = f
			}
		}
		if v, ok := n.Attr("height"); ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				h = f
			}
		}
		return w, h, true
	}
	switch n.tag {
	case "img":
		return attrSize(0, 0)
	case "iframe", "canvas", "video", "embed", "object":
		return attrSize(300, 150)
	case "svg":
		return attrSize(24, 24)
	case "select":
		return 120, 20, true
	case "textarea":
		return 180, 36, true
	case "button":
		return cw + 16, math.Max(ch, LineHeight) + 4, true
	case "input":
		t, _ := n.Attr("type")
		switch strings.ToLower(t) {
		case "checkbox", "radio":
			return 13, 13, true
		case "submit", "button", "reset":
			v, _ := n.Attr("value")
			return float64(utf8.RuneCountInString(v))*GlyphWidth + 16, LineHeight + 4, true
		}
		return 150, 20, true
	}
	return 0, 0, false
}

// length resolves a px or percentage length. Percentages need a positive base.
func length(s dom.Style, prop string, base float64) (float64, bool) {
	v := s.Get(prop)
	if strings.HasSuffix(v, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
		if err != nil || base <= 0 {
			return 0, false
		}
		return base * f / 100, true
	}
	return s.Number(prop)
}

func px(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64) + "px"
}

// assignPaint numbers elements in paint order: tree order within a stacking
// layer, positioned elements in a layer above their parent's, shifted by
// z-index.
func assignPaint(root *Node) {
	order := 0
	var visit func(n *Node, layer int)
	visit = func(n *Node, layer int) {
		if n.typ == dom.ElementNode && n.style != nil {
			if pos := n.style.Get("position"); pos != "static" && pos != "" {
				z, _ := n.style.Number("z-index")
				layer += 1 + int(z)
			}
			order++
			n.paint = layer*paintLayer + order
		}
		if n.shadow != nil {
			for _, c := range n.shadow.children {
				visit(c, layer)
			}
		}
		for _, c := range n.children {
			visit(c, layer)
		}
	}
	visit(root, 0)
}
