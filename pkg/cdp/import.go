package cdp

import (
	"fmt"
	"strings"

	"github.com/go-rod/rod/lib/proto"

	"github.com/entrhq/pagemap/pkg/dom"
	"github.com/entrhq/pagemap/pkg/dom/memdom"
)

// SnapshotStyles are the computed style properties requested from
// DOMSnapshot.captureSnapshot, in the order Import reads them back.
var SnapshotStyles = []string{
	"display",
	"visibility",
	"opacity",
	"overflow-x",
	"overflow-y",
	"cursor",
	"pointer-events",
	"position",
	"z-index",
	"width",
	"height",
}

// DOM node types as reported by snapshots.
const (
	nodeElement  = 1
	nodeText     = 3
	nodeComment  = 8
	nodeDocument = 9
	nodeFragment = 11
)

// Import converts a snapshot into an in-memory document. The first snapshot
// document is the top-level one and gets vp as its viewport; frame documents
// take the size of their iframe box.
//
// Open shadow roots are attached to their hosts. Closed and user-agent
// shadow roots, template contents and doctypes are dropped. Iframes whose
// document is not part of the snapshot are marked cross-origin. Nodes the
// browser did not lay out get an empty box and display:none.
func Import(snap *proto.DOMSnapshotCaptureSnapshotResult, vp dom.Viewport) (*memdom.Document, error) {
	if snap == nil || len(snap.Documents) == 0 {
		return nil, fmt.Errorf("snapshot has no documents")
	}
	im := &importer{strings: snap.Strings, docs: make([]*docImport, len(snap.Documents))}
	for i, ds := range snap.Documents {
		d, err := im.document(ds)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		im.docs[i] = d
	}

	top := im.docs[0]
	top.doc.SetViewport(withScroll(vp, snap.Documents[0]))
	im.link(top, snap.Documents)
	return top.doc, nil
}

type importer struct {
	strings []string
	docs    []*docImport
}

type docImport struct {
	doc   *memdom.Document
	nodes []*memdom.Node
	// frames maps iframe node indices to content document indices.
	frames map[int]int
	linked bool
}

func (im *importer) str(i proto.DOMSnapshotStringIndex) string {
	if i < 0 || int(i) >= len(im.strings) {
		return ""
	}
	return im.strings[i]
}

func (im *importer) document(ds *proto.DOMSnapshotDocumentSnapshot) (*docImport, error) {
	tree := ds.Nodes
	if tree == nil || len(tree.NodeType) == 0 {
		return nil, fmt.Errorf("snapshot document has no nodes")
	}
	d := &docImport{
		doc:    memdom.NewEmpty(dom.Viewport{}),
		nodes:  make([]*memdom.Node, len(tree.NodeType)),
		frames: make(map[int]int),
	}
	d.doc.URL = im.str(ds.DocumentURL)

	shadowTypes := rareStrings(tree.ShadowRootType)
	clickable := rareBools(tree.IsClickable)
	if tree.ContentDocumentIndex != nil {
		for i, idx := range tree.ContentDocumentIndex.Index {
			if i < len(tree.ContentDocumentIndex.Value) {
				d.frames[idx] = tree.ContentDocumentIndex.Value[i]
			}
		}
	}

	for i, typ := range tree.NodeType {
		parent := -1
		if i < len(tree.ParentIndex) {
			parent = tree.ParentIndex[i]
		}
		if typ == nodeDocument && parent < 0 {
			d.nodes[i] = d.doc.Node()
			continue
		}
		if parent < 0 || parent >= i || d.nodes[parent] == nil {
			continue
		}
		p := d.nodes[parent]

		var n *memdom.Node
		switch typ {
		case nodeElement:
			n = d.doc.CreateElement(strings.ToLower(im.str(at(tree.NodeName, i))))
			if i < len(tree.Attributes) {
				attrs := tree.Attributes[i]
				for j := 0; j+1 < len(attrs); j += 2 {
					n.SetAttr(im.str(attrs[j]), im.str(attrs[j+1]))
				}
			}
			if clickable[i] {
				n.AddEventListener("click")
			}
			p.AppendChild(n)
		case nodeText:
			n = p.AppendChild(d.doc.CreateText(im.str(at(tree.NodeValue, i))))
		case nodeComment:
			n = p.AppendChild(d.doc.CreateComment(im.str(at(tree.NodeValue, i))))
		case nodeFragment:
			mode, ok := shadowTypes[i]
			if !ok || im.str(mode) != "open" || p.Shadow() != nil {
				continue
			}
			n = p.AttachShadow()
		default:
			continue
		}
		if i < len(tree.BackendNodeID) {
			n.BackendID = int(tree.BackendNodeID[i])
		}
		d.nodes[i] = n
	}

	im.layout(d, ds.Layout)
	return d, nil
}

// layout applies boxes, styles and paint order. Element and text nodes
// without a layout entry are given an empty, undisplayed box.
func (im *importer) layout(d *docImport, lt *proto.DOMSnapshotLayoutTreeSnapshot) {
	laid := make(map[int]bool)
	if lt != nil {
		for li, ni := range lt.NodeIndex {
			if ni < 0 || ni >= len(d.nodes) || d.nodes[ni] == nil {
				continue
			}
			n := d.nodes[ni]
			if n.Type() != dom.ElementNode && n.Type() != dom.TextNode {
				continue
			}
			laid[ni] = true

			var r dom.Rect
			if li < len(lt.Bounds) {
				r = rectOf(lt.Bounds[li])
			}
			n.SetRect(r)
			if li < len(lt.OffsetRects) {
				if o := rectOf(lt.OffsetRects[li]); o != (dom.Rect{}) {
					n.SetOffsetSize(o.Width, o.Height)
				}
			}
			if li < len(lt.PaintOrders) {
				n.SetPaintOrder(lt.PaintOrders[li])
			}
			if n.Type() == dom.ElementNode && li < len(lt.Styles) {
				for si, v := range lt.Styles[li] {
					if si < len(SnapshotStyles) {
						n.SetComputed(SnapshotStyles[si], im.str(v))
					}
				}
			}
		}
	}

	for i, n := range d.nodes {
		if n == nil || laid[i] {
			continue
		}
		switch n.Type() {
		case dom.ElementNode:
			n.SetRect(dom.Rect{}).SetComputed("display", "none")
		case dom.TextNode:
			n.SetRect(dom.Rect{})
		}
	}
}

// link attaches frame documents to their iframes, recursively, and marks
// iframes without a captured document as cross-origin.
func (im *importer) link(d *docImport, snaps []*proto.DOMSnapshotDocumentSnapshot) {
	d.linked = true
	for i, n := range d.nodes {
		if n == nil || n.Type() != dom.ElementNode || n.TagName() != "iframe" {
			continue
		}
		di, ok := d.frames[i]
		if !ok || di <= 0 || di >= len(im.docs) || im.docs[di].linked {
			n.SetCrossOrigin()
			continue
		}
		child := im.docs[di]
		box := n.Rect()
		child.doc.SetViewport(withScroll(dom.Viewport{Width: box.Width, Height: box.Height}, snaps[di]))
		n.SetContentDocument(child.doc)
		im.link(child, snaps)
	}
}

func withScroll(vp dom.Viewport, ds *proto.DOMSnapshotDocumentSnapshot) dom.Viewport {
	if ds.ScrollOffsetX != nil {
		vp.ScrollX = *ds.ScrollOffsetX
	}
	if ds.ScrollOffsetY != nil {
		vp.ScrollY = *ds.ScrollOffsetY
	}
	return vp
}

func rectOf(r proto.DOMSnapshotRectangle) dom.Rect {
	if len(r) < 4 {
		return dom.Rect{}
	}
	return dom.Rect{X: r[0], Y: r[1], Width: r[2], Height: r[3]}
}

func at(s []proto.DOMSnapshotStringIndex, i int) proto.DOMSnapshotStringIndex {
	if i < len(s) {
		return s[i]
	}
	return -1
}

func rareStrings(r *proto.DOMSnapshotRareStringData) map[int]proto.DOMSnapshotStringIndex {
	out := make(map[int]proto.DOMSnapshotStringIndex)
	if r == nil {
		return out
	}
	for i, idx := range r.Index {
		if i < len(r.Value) {
			out[idx] = r.Value[i]
		}
	}
	return out
}

func rareBools(r *proto.DOMSnapshotRareBooleanData) map[int]bool {
	out := make(map[int]bool)
	if r == nil {
		return out
	}
	for _, idx := range r.Index {
		out[idx] = true
	}
	return out
}
