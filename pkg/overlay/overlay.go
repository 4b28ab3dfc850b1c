// Package overlay draws numbered markers over addressed elements.
//
// An Overlay satisfies domtree.Highlighter. It picks a color per index and
// hands a Marker to a Surface, which owns the actual drawing: DOMSurface for
// in-memory documents, cdp.Surface for live pages.
package overlay

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/entrhq/pagemap/pkg/dom"
)

// ContainerID is the id of the element holding every marker.
const ContainerID = "playwright-highlight-container"

// Label geometry in px.
const (
	LabelWidth  = 20
	LabelHeight = 16
)

// Palette is the default marker color cycle.
var Palette = []string{
	"#FF0000", "#00FF00", "#0000FF", "#FFA500", "#800080", "#008080",
	"#FF69B4", "#4B0082", "#FF4500", "#2E8B57", "#DC143C", "#4682B4",
}

// ErrNoElement is returned when a marker is requested for a nil element.
var ErrNoElement = errors.New("no element to highlight")

// Marker is one highlight request.
type Marker struct {
	Element dom.Node
	// Frame is the iframe enclosing Element, nil for the top document.
	Frame dom.Node
	Index int
	Color string
}

// Background is the translucent fill derived from Color.
func (m Marker) Background() string { return m.Color + "1A" }

// Label is the text drawn in the marker label.
func (m Marker) Label() string { return strconv.Itoa(m.Index) }

// Surface draws and removes markers.
type Surface interface {
	Draw(m Marker) error
	Clear() error
}

// Overlay assigns colors and forwards markers to a Surface. Safe for
// concurrent use.
type Overlay struct {
	surface Surface
	palette []string

	mu    sync.Mutex
	drawn int
}

// Option configures an Overlay.
type Option func(*Overlay)

// WithPalette replaces the color cycle. An empty palette is ignored.
func WithPalette(colors []string) Option {
	return func(o *Overlay) {
		if len(colors) > 0 {
			o.palette = append([]string(nil), colors...)
		}
	}
}

// New returns an overlay drawing on s.
func New(s Surface, opts ...Option) *Overlay {
	o := &Overlay{surface: s, palette: Palette}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Color returns the marker color for index.
func (o *Overlay) Color(index int) string {
	if index < 0 {
		index = -index
	}
	return o.palette[index%len(o.palette)]
}

// Highlight draws the marker for el.
func (o *Overlay) Highlight(el dom.Node, index int, frame dom.Node) error {
	if el == nil {
		return ErrNoElement
	}
	m := Marker{Element: el, Frame: frame, Index: index, Color: o.Color(index)}
	if err := o.surface.Draw(m); err != nil {
		return fmt.Errorf("failed to draw marker %d: %w", index, err)
	}
	o.mu.Lock()
	o.drawn++
	o.mu.Unlock()
	return nil
}

// Clear removes every marker.
func (o *Overlay) Clear() error {
	if err := o.surface.Clear(); err != nil {
		return fmt.Errorf("failed to clear overlay: %w", err)
	}
	o.mu.Lock()
	o.drawn = 0
	o.mu.Unlock()
	return nil
}

// Len returns the number of markers drawn since the last Clear.
func (o *Overlay) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.drawn
}

// LabelRect places the label of a marker box: inside the top right corner,
// or above the box when the box is too small to hold it. The result is kept
// inside the viewport.
func LabelRect(box dom.Rect, vp dom.Viewport) dom.Rect {
	top := box.Top() + 2
	left := box.Right() - LabelWidth - 2
	if box.Width < LabelWidth+4 || box.Height < LabelHeight+4 {
		top = box.Top() - LabelHeight - 2
		left = box.Right() - LabelWidth
	}
	top = clamp(top, 0, vp.Height-LabelHeight)
	left = clamp(left, 0, vp.Width-LabelWidth)
	return dom.Rect{X: left, Y: top, Width: LabelWidth, Height: LabelHeight}
}

func clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
