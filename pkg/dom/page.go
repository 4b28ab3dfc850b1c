package dom

import (
	"strconv"
	"strings"
)

// Rect is an axis-aligned box in the viewport coordinates of the node's document.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Left() float64   { return r.X }
func (r Rect) Top() float64    { return r.Y }
func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Center returns the visual center of the box.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Contains reports whether the point lies inside the box.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.Left() && x < r.Right() && y >= r.Top() && y < r.Bottom()
}

// Intersects reports whether two boxes overlap or touch.
func (r Rect) Intersects(o Rect) bool {
	return r.Left() <= o.Right() && r.Right() >= o.Left() &&
		r.Top() <= o.Bottom() && r.Bottom() >= o.Top()
}

// Translate returns the box moved by dx, dy.
func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Viewport describes the visible area of a document.
type Viewport struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	ScrollX float64 `json:"scrollX"`
	ScrollY float64 `json:"scrollY"`
}

// Bounds returns the viewport box grown by margin on every side.
func (v Viewport) Bounds(margin float64) Rect {
	return Rect{X: -margin, Y: -margin, Width: v.Width + 2*margin, Height: v.Height + 2*margin}
}

// Style is a resolved computed style, keyed by CSS property name.
type Style map[string]string

// Get returns the value of a property, "" when unset.
func (s Style) Get(prop string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(strings.ToLower(s[prop]))
}

// Number parses a numeric property such as "12.5px" or "0".
// ok is false for keywords like "auto".
func (s Style) Number(prop string) (float64, bool) {
	v := strings.TrimSuffix(s.Get(prop), "px")
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Page answers geometry, style and hit-testing queries for a document tree.
//
// Every method may be expensive (a synchronous layout in a real engine); the
// mapper memoizes them per call.
type Page interface {
	// Document returns the top-level document node.
	Document() Node

	// BoundingRect returns the node's border box in its document's viewport
	// coordinates.
	BoundingRect(n Node) (Rect, error)

	// ComputedStyle returns the node's computed style.
	ComputedStyle(n Node) (Style, error)

	// OffsetSize returns offsetWidth and offsetHeight.
	OffsetSize(n Node) (float64, float64)

	// TextRect returns the bounding box of a text node's range.
	TextRect(n Node) (Rect, error)

	// Viewport returns the viewport of the given document node.
	Viewport(doc Node) Viewport

	// ElementFromPoint hit-tests inside scope, a document or a shadow root, and
	// returns the topmost element at the point retargeted to that scope.
	ElementFromPoint(scope Node, x, y float64) (Node, error)
}

// EventInspector is an optional Page capability exposing handlers registered by
// scripts. Pages without it are classified from attributes alone.
type EventInspector interface {
	// HasHandler reports whether an on<event> property handler is assigned.
	HasHandler(n Node, event string) bool

	// EventListeners returns the event types registered with addEventListener.
	EventListeners(n Node) []string
}
