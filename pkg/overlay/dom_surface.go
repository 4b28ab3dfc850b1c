package overlay

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/entrhq/pagemap/pkg/dom"
	"github.com/entrhq/pagemap/pkg/dom/memdom"
)

// DOMSurface draws markers as elements of an in-memory document. Markers
// follow their elements when any involved document scrolls or resizes.
type DOMSurface struct {
	doc  *memdom.Document
	page dom.Page

	mu        sync.Mutex
	container *memdom.Node
	markers   []*marker
	watched   map[*memdom.Document]bool
}

type marker struct {
	m          Marker
	box, label *memdom.Node
}

// NewDOMSurface returns a surface drawing into doc.
func NewDOMSurface(doc *memdom.Document) *DOMSurface {
	return &DOMSurface{
		doc:     doc,
		page:    doc.Page(),
		watched: make(map[*memdom.Document]bool),
	}
}

// Container returns the marker container, nil before the first Draw.
func (s *DOMSurface) Container() *memdom.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.container
}

// Draw implements Surface.
func (s *DOMSurface) Draw(m Marker) error {
	el, ok := m.Element.(*memdom.Node)
	if !ok {
		return fmt.Errorf("element %T does not belong to an in-memory document", m.Element)
	}
	box, err := s.boxOf(m)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.ensureContainer()
	if err != nil {
		return err
	}
	d := &marker{
		m: m,
		box: s.doc.CreateElement("div",
			"class", "pagemap-highlight",
			"data-highlight-index", m.Label()),
		label: s.doc.CreateElement("div", "class", "pagemap-highlight-label"),
	}
	d.label.AppendChild(s.doc.CreateText(m.Label()))
	c.AppendChild(d.box)
	c.AppendChild(d.label)

	d.box.
		SetStyle("position", "absolute").
		SetStyle("box-sizing", "border-box").
		SetStyle("border", "2px solid "+m.Color).
		SetStyle("background-color", m.Background())
	d.label.
		SetStyle("position", "absolute").
		SetStyle("background", m.Color).
		SetStyle("color", "white").
		SetStyle("font-size", "12px").
		SetStyle("border-radius", "4px").
		SetStyle("width", px(LabelWidth)).
		SetStyle("height", px(LabelHeight))
	s.place(d, box)
	s.markers = append(s.markers, d)

	for doc := el.Document(); doc != nil; {
		s.watch(doc)
		f := doc.FrameElement()
		if f == nil {
			break
		}
		doc = f.Document()
	}
	s.watch(s.doc)
	return nil
}

// Clear implements Surface. It removes the container with every marker.
func (s *DOMSurface) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.container
	if c == nil {
		c = s.doc.GetElementByID(ContainerID)
	}
	if c != nil {
		if p := c.ParentNode(); p != nil {
			p.RemoveChild(c)
		}
	}
	s.container = nil
	s.markers = nil
	return nil
}

// ensureContainer finds or creates the container. Callers hold s.mu.
func (s *DOMSurface) ensureContainer() (*memdom.Node, error) {
	if s.container != nil && s.container.ParentNode() != nil {
		return s.container, nil
	}
	if found := s.doc.GetElementByID(ContainerID); found != nil {
		s.container = found
		return found, nil
	}
	parent := s.doc.Body()
	if parent == nil {
		parent = s.doc.DocumentElement()
	}
	if parent == nil {
		return nil, fmt.Errorf("document has no element to hold the overlay")
	}
	c := s.doc.CreateElement("div", "id", ContainerID)
	c.SetStyle("position", "fixed").
		SetStyle("pointer-events", "none").
		SetStyle("top", "0").
		SetStyle("left", "0").
		SetStyle("z-index", "2147483647")
	s.size(c)
	parent.AppendChild(c)
	s.container = c
	return c, nil
}

func (s *DOMSurface) size(c *memdom.Node) {
	vp := s.doc.Viewport()
	c.SetStyle("width", px(vp.Width)).SetStyle("height", px(vp.Height))
}

// boxOf returns the element box in top document viewport coordinates.
func (s *DOMSurface) boxOf(m Marker) (dom.Rect, error) {
	r, err := s.page.BoundingRect(m.Element)
	if err != nil {
		return dom.Rect{}, fmt.Errorf("failed to measure element: %w", err)
	}
	frame := m.Frame
	if frame == nil {
		if doc := m.Element.OwnerDocument(); doc != nil {
			frame = doc.FrameElement()
		}
	}
	for frame != nil {
		fr, err := s.page.BoundingRect(frame)
		if err != nil {
			return dom.Rect{}, fmt.Errorf("failed to measure iframe: %w", err)
		}
		r = r.Translate(fr.Left(), fr.Top())
		frame = frame.OwnerDocument().FrameElement()
	}
	return r, nil
}

func (s *DOMSurface) place(d *marker, box dom.Rect) {
	d.box.
		SetStyle("display", "block").
		SetStyle("left", px(box.X)).
		SetStyle("top", px(box.Y)).
		SetStyle("width", px(box.Width)).
		SetStyle("height", px(box.Height))

	label := LabelRect(box, s.doc.Viewport())
	d.label.
		SetStyle("display", "block").
		SetStyle("left", px(label.X)).
		SetStyle("top", px(label.Y))
}

// watch re-syncs markers on scroll and resize of doc. Callers hold s.mu.
func (s *DOMSurface) watch(doc *memdom.Document) {
	if s.watched[doc] {
		return
	}
	s.watched[doc] = true
	doc.AddWindowListener("scroll", s.sync)
	doc.AddWindowListener("resize", s.sync)
}

// sync recomputes every marker. Markers whose element can no longer be
// measured are hidden.
func (s *DOMSurface) sync() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.container == nil {
		return
	}
	s.size(s.container)
	for _, d := range s.markers {
		box, err := s.boxOf(d.m)
		if err != nil {
			d.box.SetStyle("display", "none")
			d.label.SetStyle("display", "none")
			continue
		}
		s.place(d, box)
	}
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}
