package domtree

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/entrhq/pagemap/pkg/dom"
	"github.com/entrhq/pagemap/pkg/dom/memdom"
)

var testViewport = dom.Viewport{Width: 800, Height: 600}

func parse(t *testing.T, src string) *memdom.Document {
	t.Helper()
	d, err := memdom.ParseHTML(src, testViewport)
	require.NoError(t, err)
	return d
}

func build(t *testing.T, src string, opts Options) (*Result, *memdom.Document) {
	t.Helper()
	d := parse(t, src)
	return Build(d.Page(), opts), d
}

// byXPath returns the element record with the given path.
func byXPath(t *testing.T, res *Result, xpath string) *NodeRecord {
	t.Helper()
	for _, rec := range res.Map {
		if rec.Kind == KindElement && rec.XPath == xpath {
			return rec
		}
	}
	require.FailNow(t, "no record", "xpath %q not in map", xpath)
	return nil
}

func hasXPath(res *Result, xpath string) bool {
	for _, rec := range res.Map {
		if rec.Kind == KindElement && rec.XPath == xpath {
			return true
		}
	}
	return false
}

func textRecord(t *testing.T, res *Result, text string) *NodeRecord {
	t.Helper()
	for _, rec := range res.Map {
		if rec.Kind == KindText && rec.Text == text {
			return rec
		}
	}
	require.FailNow(t, "no text record", "text %q not in map", text)
	return nil
}

// indicesInOrder returns highlight indices in document order.
func indicesInOrder(res *Result) []int {
	var out []int
	res.Walk(func(rec *NodeRecord, _ int) bool {
		if rec.HighlightIndex != nil {
			out = append(out, *rec.HighlightIndex)
		}
		return true
	})
	return out
}

// target returns the single element carrying data-t.
func target(t *testing.T, d *memdom.Document) *memdom.Node {
	t.Helper()
	found := d.QueryAll(func(n *memdom.Node) bool {
		_, ok := n.Attr("data-t")
		return ok
	})
	require.Len(t, found, 1)
	return found[0]
}

type highlightCall struct {
	index int
	tag   string
	frame dom.Node
}

type recordingHighlighter struct {
	calls []highlightCall
	err   error
}

func (h *recordingHighlighter) Highlight(el dom.Node, index int, frame dom.Node) error {
	h.calls = append(h.calls, highlightCall{index: index, tag: el.TagName(), frame: frame})
	return h.err
}

func (h *recordingHighlighter) indices() []int {
	out := make([]int, 0, len(h.calls))
	for _, c := range h.calls {
		out = append(out, c.index)
	}
	return out
}

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Debugf(format string, args ...interface{}) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

// countingPage counts the underlying geometry and style queries.
type countingPage struct {
	*memdom.Page
	rects  map[dom.Node]int
	styles map[dom.Node]int
}

func newCountingPage(p *memdom.Page) *countingPage {
	return &countingPage{Page: p, rects: map[dom.Node]int{}, styles: map[dom.Node]int{}}
}

func (p *countingPage) BoundingRect(n dom.Node) (dom.Rect, error) {
	p.rects[n]++
	return p.Page.BoundingRect(n)
}

func (p *countingPage) TextRect(n dom.Node) (dom.Rect, error) {
	p.rects[n]++
	return p.Page.TextRect(n)
}

func (p *countingPage) ComputedStyle(n dom.Node) (dom.Style, error) {
	p.styles[n]++
	return p.Page.ComputedStyle(n)
}

// brokenHitTestPage fails every hit test.
type brokenHitTestPage struct {
	*memdom.Page
}

func (p brokenHitTestPage) ElementFromPoint(dom.Node, float64, float64) (dom.Node, error) {
	return nil, errors.New("hit test unavailable")
}

// attrOnlyPage hides the event inspection capability.
type attrOnlyPage struct {
	dom.Page
}
