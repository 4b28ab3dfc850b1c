package cdp

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/go-rod/rod/lib/proto"
)

// snapshotBuilder assembles DOMSnapshot results with a shared string table.
type snapshotBuilder struct {
	strings []string
	index   map[string]proto.DOMSnapshotStringIndex
	docs    []*docBuilder
}

func newSnapshot() *snapshotBuilder {
	return &snapshotBuilder{index: make(map[string]proto.DOMSnapshotStringIndex)}
}

func (b *snapshotBuilder) str(v string) proto.DOMSnapshotStringIndex {
	if i, ok := b.index[v]; ok {
		return i
	}
	i := proto.DOMSnapshotStringIndex(len(b.strings))
	b.strings = append(b.strings, v)
	b.index[v] = i
	return i
}

func (b *snapshotBuilder) doc(url string) *docBuilder {
	d := &docBuilder{
		sb:    b,
		snap:  &proto.DOMSnapshotDocumentSnapshot{DocumentURL: b.str(url)},
		nodes: &proto.DOMSnapshotNodeTreeSnapshot{},
		lt:    &proto.DOMSnapshotLayoutTreeSnapshot{},
	}
	d.snap.Nodes = d.nodes
	d.snap.Layout = d.lt
	b.docs = append(b.docs, d)
	d.add(-1, nodeDocument, "#document", "")
	return d
}

func (b *snapshotBuilder) result() *proto.DOMSnapshotCaptureSnapshotResult {
	res := &proto.DOMSnapshotCaptureSnapshotResult{Strings: b.strings}
	for _, d := range b.docs {
		res.Documents = append(res.Documents, d.snap)
	}
	return res
}

type docBuilder struct {
	sb    *snapshotBuilder
	snap  *proto.DOMSnapshotDocumentSnapshot
	nodes *proto.DOMSnapshotNodeTreeSnapshot
	lt    *proto.DOMSnapshotLayoutTreeSnapshot
}

// add appends a node and returns its index. Backend ids are 100 + index.
func (d *docBuilder) add(parent, typ int, name, value string, attrs ...string) int {
	n := d.nodes
	i := len(n.NodeType)
	n.ParentIndex = append(n.ParentIndex, parent)
	n.NodeType = append(n.NodeType, typ)
	n.NodeName = append(n.NodeName, d.sb.str(name))
	n.NodeValue = append(n.NodeValue, d.sb.str(value))
	n.BackendNodeID = append(n.BackendNodeID, proto.DOMBackendNodeID(100+i))
	var list proto.DOMSnapshotArrayOfStrings
	for _, a := range attrs {
		list = append(list, d.sb.str(a))
	}
	n.Attributes = append(n.Attributes, list)
	return i
}

func (d *docBuilder) element(parent int, tag string, attrs ...string) int {
	return d.add(parent, nodeElement, strings.ToUpper(tag), "", attrs...)
}

func (d *docBuilder) text(parent int, value string) int {
	return d.add(parent, nodeText, "#text", value)
}

func (d *docBuilder) shadow(host int, mode string) int {
	i := d.add(host, nodeFragment, "#document-fragment", "")
	if d.nodes.ShadowRootType == nil {
		d.nodes.ShadowRootType = &proto.DOMSnapshotRareStringData{}
	}
	d.nodes.ShadowRootType.Index = append(d.nodes.ShadowRootType.Index, i)
	d.nodes.ShadowRootType.Value = append(d.nodes.ShadowRootType.Value, d.sb.str(mode))
	return i
}

func (d *docBuilder) clickable(node int) {
	if d.nodes.IsClickable == nil {
		d.nodes.IsClickable = &proto.DOMSnapshotRareBooleanData{}
	}
	d.nodes.IsClickable.Index = append(d.nodes.IsClickable.Index, node)
}

func (d *docBuilder) frame(node, doc int) {
	if d.nodes.ContentDocumentIndex == nil {
		d.nodes.ContentDocumentIndex = &proto.DOMSnapshotRareIntegerData{}
	}
	d.nodes.ContentDocumentIndex.Index = append(d.nodes.ContentDocumentIndex.Index, node)
	d.nodes.ContentDocumentIndex.Value = append(d.nodes.ContentDocumentIndex.Value, doc)
}

// box lays out a node. Paint order follows the order of box calls.
func (d *docBuilder) box(node int, x, y, w, h float64, styles ...string) {
	lt := d.lt
	lt.NodeIndex = append(lt.NodeIndex, node)
	lt.Bounds = append(lt.Bounds, proto.DOMSnapshotRectangle{x, y, w, h})
	lt.OffsetRects = append(lt.OffsetRects, proto.DOMSnapshotRectangle{0, 0, w, h})
	lt.PaintOrders = append(lt.PaintOrders, len(lt.PaintOrders)+1)
	lt.Text = append(lt.Text, -1)

	var list proto.DOMSnapshotArrayOfStrings
	if d.nodes.NodeType[node] == nodeElement {
		values := map[string]string{
			"display": "block", "visibility": "visible", "opacity": "1",
			"overflow-x": "visible", "overflow-y": "visible", "cursor": "auto",
			"pointer-events": "auto", "position": "static", "z-index": "auto",
		}
		for j := 0; j+1 < len(styles); j += 2 {
			values[styles[j]] = styles[j+1]
		}
		for _, prop := range SnapshotStyles {
			list = append(list, d.sb.str(values[prop]))
		}
	}
	lt.Styles = append(lt.Styles, list)
}

func (d *docBuilder) scroll(x, y float64) {
	d.snap.ScrollOffsetX = &x
	d.snap.ScrollOffsetY = &y
}

type recordedCall struct {
	session string
	method  string
	params  map[string]interface{}
}

// fakeClient answers CDP calls with canned JSON per method.
type fakeClient struct {
	mu      sync.Mutex
	calls   []recordedCall
	results map[string]string
	errs    map[string]error
}

func newFakeClient() *fakeClient {
	return &fakeClient{results: map[string]string{}, errs: map[string]error{}}
}

func (c *fakeClient) respond(method string, v interface{}) {
	if s, ok := v.(string); ok {
		c.results[method] = s
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	c.results[method] = string(raw)
}

func (c *fakeClient) Call(_ context.Context, sessionID, method string, params interface{}) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var decoded map[string]interface{}
	if raw, err := json.Marshal(params); err == nil {
		_ = json.Unmarshal(raw, &decoded)
	}
	c.calls = append(c.calls, recordedCall{session: sessionID, method: method, params: decoded})

	if err := c.errs[method]; err != nil {
		return nil, err
	}
	if res, ok := c.results[method]; ok {
		return []byte(res), nil
	}
	return []byte("{}"), nil
}

func (c *fakeClient) methods() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.calls))
	for _, call := range c.calls {
		out = append(out, call.method)
	}
	return out
}

func (c *fakeClient) last(method string) *recordedCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.calls) - 1; i >= 0; i-- {
		if c.calls[i].method == method {
			return &c.calls[i]
		}
	}
	return nil
}

// sessionClient exposes a target session like a rod page does.
type sessionClient struct {
	*fakeClient
	id proto.TargetSessionID
}

func (c sessionClient) GetSessionID() proto.TargetSessionID { return c.id }
