package cdp

import (
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/pagemap/pkg/dom"
	"github.com/entrhq/pagemap/pkg/dom/memdom"
	"github.com/entrhq/pagemap/pkg/domtree"
)

var testViewport = dom.Viewport{Width: 800, Height: 600}

// fixture captures a page with a button, a hidden block, open and closed
// shadow roots, a same-origin and a cross-origin iframe, and a div that only
// has a click listener.
func fixture() *snapshotBuilder {
	sb := newSnapshot()

	top := sb.doc("https://example.com/")
	html := top.element(0, "html")
	body := top.element(html, "body", "class", "page")
	top.box(html, 0, 0, 800, 600)
	top.box(body, 0, 0, 800, 600)

	btn := top.element(body, "button", "id", "go", "type", "submit")
	top.box(btn, 10, 10, 60, 20)
	top.box(top.text(btn, "Go"), 14, 12, 16, 18)

	hidden := top.element(body, "div", "id", "hidden")
	top.text(hidden, "secret")

	host := top.element(body, "div", "id", "host")
	top.box(host, 0, 40, 200, 30)
	root := top.shadow(host, "open")
	span := top.element(root, "span", "role", "button")
	top.box(span, 0, 40, 50, 18, "display", "inline")
	top.box(top.text(span, "shadow"), 0, 40, 48, 18)

	closed := top.element(body, "div", "id", "closed")
	top.box(closed, 0, 70, 200, 20)
	croot := top.shadow(closed, "closed")
	top.element(croot, "a", "href", "/private")

	same := top.element(body, "iframe", "id", "same")
	top.box(same, 0, 100, 300, 150)
	top.frame(same, 1)

	remote := top.element(body, "iframe", "id", "remote", "src", "https://other.example/")
	top.box(remote, 0, 260, 300, 150)

	clicky := top.element(body, "div", "id", "clicky")
	top.box(clicky, 0, 420, 100, 20)
	top.box(top.text(clicky, "tap"), 0, 420, 24, 18)
	top.clickable(clicky)

	top.add(body, nodeComment, "#comment", "note")
	top.add(0, 10, "html", "")

	inner := sb.doc("https://example.com/frame")
	fhtml := inner.element(0, "html")
	fbody := inner.element(fhtml, "body")
	inner.box(fhtml, 0, 0, 300, 150)
	inner.box(fbody, 0, 0, 300, 150)
	fbtn := inner.element(fbody, "button", "id", "inner")
	inner.box(fbtn, 5, 5, 40, 20)
	inner.box(inner.text(fbtn, "In"), 9, 7, 16, 18)

	return sb
}

func importFixture(t *testing.T) *memdom.Document {
	t.Helper()
	d, err := Import(fixture().result(), testViewport)
	require.NoError(t, err)
	return d
}

func TestImport_Structure(t *testing.T) {
	d := importFixture(t)
	assert.Equal(t, "https://example.com/", d.URL)
	assert.Equal(t, testViewport, d.Viewport())

	body := d.Body()
	require.NotNil(t, body)
	v, _ := body.Attr("class")
	assert.Equal(t, "page", v)

	btn := d.GetElementByID("go")
	require.NotNil(t, btn)
	assert.Equal(t, "button", btn.TagName())
	typ, _ := btn.Attr("type")
	assert.Equal(t, "submit", typ)
	assert.Equal(t, 103, btn.BackendID)
	assert.Equal(t, dom.Rect{X: 10, Y: 10, Width: 60, Height: 20}, btn.Rect())

	t.Run("open shadow root", func(t *testing.T) {
		host := d.GetElementByID("host")
		require.NotNil(t, host.Shadow())
		require.Len(t, host.Shadow().ChildNodes(), 1)
		span := host.Shadow().ChildNodes()[0]
		assert.Equal(t, "span", span.TagName())
		assert.Empty(t, host.ChildNodes())
	})

	t.Run("closed shadow root dropped", func(t *testing.T) {
		closed := d.GetElementByID("closed")
		assert.Nil(t, closed.Shadow())
		assert.Empty(t, closed.ChildNodes())
	})

	t.Run("same-origin iframe", func(t *testing.T) {
		f := d.GetElementByID("same")
		fd := f.Frame()
		require.NotNil(t, fd)
		assert.Equal(t, "https://example.com/frame", fd.URL)
		assert.Equal(t, dom.Viewport{Width: 300, Height: 150}, fd.Viewport())
		assert.Same(t, f, fd.FrameElement())
		assert.NotNil(t, fd.GetElementByID("inner"))
	})

	t.Run("cross-origin iframe", func(t *testing.T) {
		_, err := d.GetElementByID("remote").ContentDocument()
		assert.ErrorIs(t, err, dom.ErrCrossOrigin)
	})

	t.Run("unrendered nodes", func(t *testing.T) {
		hidden := d.GetElementByID("hidden")
		page := d.Page()
		r, err := page.BoundingRect(hidden)
		require.NoError(t, err)
		assert.Equal(t, dom.Rect{}, r)
		s, err := page.ComputedStyle(hidden)
		require.NoError(t, err)
		assert.Equal(t, "none", s.Get("display"))
	})

	t.Run("computed styles", func(t *testing.T) {
		span := d.GetElementByID("host").Shadow().ChildNodes()[0]
		s, err := d.Page().ComputedStyle(span)
		require.NoError(t, err)
		assert.Equal(t, "inline", s.Get("display"))
		assert.Equal(t, "visible", s.Get("visibility"))
	})

	t.Run("click listener", func(t *testing.T) {
		assert.Equal(t, []string{"click"}, d.Page().EventListeners(d.GetElementByID("clicky")))
	})

	t.Run("comments kept, doctype dropped", func(t *testing.T) {
		last := body.ChildNodes()[len(body.ChildNodes())-1]
		assert.Equal(t, dom.CommentNode, last.Type())
		assert.Len(t, d.Node().ChildNodes(), 1)
	})
}

func TestImport_Build(t *testing.T) {
	d := importFixture(t)
	logger := &lineLogger{}
	opts := domtree.DefaultOptions()
	opts.Logger = logger
	res := domtree.Build(d.Page(), opts)

	var ids []string
	for _, rec := range res.Highlighted() {
		id := rec.Attributes["id"]
		if id == "" {
			id = rec.TagName
		}
		ids = append(ids, id)
	}
	assert.Contains(t, ids, "go")
	assert.Contains(t, ids, "span")
	assert.Contains(t, ids, "inner")
	assert.Contains(t, ids, "clicky")

	for _, rec := range res.Map {
		if rec.Kind == domtree.KindText {
			assert.Equal(t, rec.Text != "secret", rec.IsTextVisible, rec.Text)
		}
		assert.NotEqual(t, "/private", rec.Attributes["href"])
	}
	require.Len(t, logger.lines, 1)
	assert.Contains(t, logger.lines[0], "cross-origin")
}

func TestImport_Scroll(t *testing.T) {
	sb := newSnapshot()
	doc := sb.doc("https://example.com/")
	html := doc.element(0, "html")
	body := doc.element(html, "body")
	doc.box(html, 0, 0, 800, 2000)
	doc.box(body, 0, 0, 800, 2000)
	btn := doc.element(body, "button", "id", "b")
	doc.box(btn, 0, 900, 60, 20)
	doc.scroll(0, 850)

	d, err := Import(sb.result(), testViewport)
	require.NoError(t, err)
	assert.Equal(t, 850.0, d.Viewport().ScrollY)

	r, err := d.Page().BoundingRect(d.GetElementByID("b"))
	require.NoError(t, err)
	assert.Equal(t, 50.0, r.Y)
}

func TestImport_Errors(t *testing.T) {
	tests := []struct {
		name string
		snap *proto.DOMSnapshotCaptureSnapshotResult
		want string
	}{
		{name: "nil", snap: nil, want: "no documents"},
		{name: "empty", snap: &proto.DOMSnapshotCaptureSnapshotResult{}, want: "no documents"},
		{
			name: "document without nodes",
			snap: &proto.DOMSnapshotCaptureSnapshotResult{
				Documents: []*proto.DOMSnapshotDocumentSnapshot{{}},
			},
			want: "document 0: snapshot document has no nodes",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Import(tt.snap, testViewport)
			assert.Nil(t, d)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestImport_FrameCycle(t *testing.T) {
	sb := newSnapshot()
	top := sb.doc("https://example.com/")
	html := top.element(0, "html")
	top.box(html, 0, 0, 800, 600)
	f := top.element(html, "iframe", "id", "f")
	top.box(f, 0, 0, 300, 150)
	top.frame(f, 1)

	inner := sb.doc("about:blank")
	ih := inner.element(0, "html")
	inner.box(ih, 0, 0, 300, 150)
	back := inner.element(ih, "iframe", "id", "back")
	inner.box(back, 0, 0, 10, 10)
	inner.frame(back, 1)

	d, err := Import(sb.result(), testViewport)
	require.NoError(t, err)
	fd := d.GetElementByID("f").Frame()
	require.NotNil(t, fd)
	_, err = fd.GetElementByID("back").ContentDocument()
	assert.ErrorIs(t, err, dom.ErrCrossOrigin, "a document is linked once")
}

type lineLogger struct {
	lines []string
}

func (l *lineLogger) Debugf(format string, args ...interface{}) {
	l.lines = append(l.lines, format)
}
