package domtree

import (
	"strconv"
	"strings"
	"time"

	"github.com/entrhq/pagemap/pkg/dom"
)

// OverlayContainerID is the id of the highlight overlay container. The
// builder never maps it.
const OverlayContainerID = "playwright-highlight-container"

// visit is the traversal context handed down to children.
type visit struct {
	// frame is the nearest enclosing iframe element.
	frame dom.Node
	// inEditor disables the early viewport exclusion inside editable content.
	inEditor bool
}

// builder holds the state of one Build call.
type builder struct {
	page    dom.Page
	events  dom.EventInspector
	top     dom.Node
	opts    Options
	rules   *Rules
	cache   *cache
	metrics *Metrics

	nodes         map[string]*NodeRecord
	nextID        int
	nextHighlight int
}

// Build maps the document of page. A nil page or a page without a document
// yields an empty result.
func Build(page dom.Page, opts Options) *Result {
	res := &Result{Map: make(map[string]*NodeRecord)}
	if page == nil {
		return res
	}
	doc := page.Document()
	if doc == nil || doc.Type() != dom.DocumentNode {
		return res
	}

	start := time.Now()
	b := newBuilder(page, doc, opts)
	defer b.cache.clear()

	if b.metrics != nil {
		b.metrics.BuildCalls++
	}
	res.RootID = b.buildRoot(dom.Body(doc))
	res.Map = b.nodes

	if b.metrics != nil {
		b.metrics.finish(time.Since(start))
		res.PerfMetrics = b.metrics
	}
	return res
}

func newBuilder(page dom.Page, doc dom.Node, opts Options) *builder {
	b := &builder{
		page:  page,
		top:   doc,
		opts:  opts,
		rules: opts.Rules,
		nodes: make(map[string]*NodeRecord),
	}
	if b.rules == nil {
		b.rules = DefaultRules()
	}
	if ev, ok := page.(dom.EventInspector); ok {
		b.events = ev
	}
	if opts.DebugMode {
		b.metrics = newMetrics()
	}
	b.cache = newCache(page, b.metrics)
	return b
}

// buildRoot maps the body without evaluating it. A document without a body
// gets an empty synthesized one at html/body.
func (b *builder) buildRoot(body dom.Node) string {
	rec := &NodeRecord{
		Kind:       KindRoot,
		TagName:    "body",
		Attributes: map[string]string{},
		XPath:      "html/body",
		Children:   []string{},
	}
	if body != nil {
		rec.XPath = xpathOf(body, true)
		rec.Attributes = attributes(body)
		rec.Children = b.visitAll(body.Children(), visit{})
	}
	return b.insert(rec)
}

// buildNode maps n and its subtree and returns the new record id, or "" when
// n is excluded.
func (b *builder) buildNode(n dom.Node, ctx visit) string {
	if b.metrics != nil {
		b.metrics.Nodes.Total++
	}
	id := b.buildRecord(n, ctx)
	if b.metrics != nil {
		if id == "" {
			b.metrics.Nodes.Skipped++
		} else {
			b.metrics.Nodes.Processed++
		}
	}
	return id
}

func (b *builder) buildRecord(n dom.Node, ctx visit) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case dom.TextNode:
		return b.buildText(n)
	case dom.ElementNode:
	default:
		return ""
	}
	if dom.ID(n) == OverlayContainerID {
		return ""
	}
	if !b.rules.accepted(n.TagName()) {
		return ""
	}
	if !ctx.inEditor && b.outsideViewport(n) {
		return ""
	}

	el := n
	rec := &NodeRecord{
		Kind:       KindElement,
		TagName:    el.TagName(),
		Attributes: map[string]string{},
		XPath:      xpathOf(el, true),
	}
	rec.IsVisible = b.isElementVisible(el)
	candidate := b.isCandidate(el)
	if candidate || rec.TagName == "iframe" || rec.TagName == "body" {
		rec.Attributes = attributes(el)
	}
	if candidate {
		b.classify(el, rec)
	}

	rec.Children = b.visitChildren(el, rec, b.strategyFor(el), ctx)

	if rec.TagName == "a" && len(rec.Children) == 0 {
		if _, ok := rec.Attributes["href"]; !ok {
			if rec.HighlightIndex != nil {
				// the anchor was the last index handed out
				b.nextHighlight--
			}
			return ""
		}
	}

	if rec.HighlightIndex != nil && b.opts.shouldHighlight(*rec.HighlightIndex) {
		b.highlight(el, *rec.HighlightIndex, ctx.frame)
	}
	return b.insert(rec)
}

// classify runs the expensive checks for an interactivity candidate and
// assigns the next highlight index when it qualifies.
func (b *builder) classify(el dom.Node, rec *NodeRecord) {
	labelReachable := false
	if !rec.IsVisible && isToggle(el) {
		if label := findLabel(el); label != nil {
			labelReachable = b.isElementVisible(label) && b.isTopElement(label)
		}
	}
	if !rec.IsVisible && !labelReachable {
		return
	}

	rec.IsInteractive = b.isInteractive(el)
	if !rec.IsInteractive {
		return
	}
	rec.IsInViewport = b.isInExpandedViewport(el)
	if rec.IsInViewport {
		rec.IsTopElement = b.isTopElement(el)
	}
	if rec.IsTopElement || labelReachable {
		idx := b.nextHighlight
		b.nextHighlight++
		rec.HighlightIndex = &idx
	}
}

// outsideViewport is the early exclusion test: an unpositioned element with
// no size whose box lies wholly outside the expanded viewport is skipped with
// its subtree. Elements without a box are skipped too.
func (b *builder) outsideViewport(el dom.Node) bool {
	if b.opts.unlimited() {
		return false
	}
	r, ok := b.cache.rect(el)
	if !ok {
		return true
	}
	if s, ok := b.cache.style(el); ok {
		switch s.Get("position") {
		case "fixed", "sticky":
			return false
		}
	}
	if w, h := b.page.OffsetSize(el); w > 0 || h > 0 {
		return false
	}
	return !b.inViewport(r, el)
}

func (b *builder) buildText(n dom.Node) string {
	text := strings.TrimSpace(n.Text())
	if text == "" {
		return ""
	}
	parent := dom.ParentElement(n)
	if parent == nil || parent.TagName() == "script" {
		return ""
	}
	return b.insert(&NodeRecord{
		Kind:          KindText,
		Text:          text,
		IsTextVisible: b.isTextVisible(n),
	})
}

func (b *builder) highlight(el dom.Node, index int, frame dom.Node) {
	defer b.metrics.track(OpHighlight)()
	if err := b.opts.Highlighter.Highlight(el, index, frame); err != nil {
		b.debugf("failed to highlight element %d: %v", index, err)
	}
}

// insert mints the next id for rec and stores it.
func (b *builder) insert(rec *NodeRecord) string {
	rec.ID = strconv.Itoa(b.nextID)
	b.nextID++
	b.nodes[rec.ID] = rec
	return rec.ID
}

func (b *builder) debugf(format string, args ...interface{}) {
	if b.opts.Logger != nil {
		b.opts.Logger.Debugf(format, args...)
	}
}

func attributes(el dom.Node) map[string]string {
	attrs := el.Attrs()
	out := make(map[string]string, len(attrs))
	for _, a := range attrs {
		out[a.Name] = a.Value
	}
	return out
}

// isToggle reports a checkbox or radio input with an id.
func isToggle(el dom.Node) bool {
	if el.TagName() != "input" || dom.ID(el) == "" {
		return false
	}
	t, _ := el.Attr("type")
	switch t {
	case "checkbox", "radio":
		return true
	}
	return false
}

// findLabel returns the first label[for] naming el's id within el's tree.
func findLabel(el dom.Node) dom.Node {
	id := dom.ID(el)
	var found dom.Node
	var search func(n dom.Node) bool
	search = func(n dom.Node) bool {
		for _, c := range n.Children() {
			if c.Type() != dom.ElementNode {
				continue
			}
			if c.TagName() == "label" {
				if v, ok := c.Attr("for"); ok && v == id {
					found = c
					return true
				}
			}
			if search(c) {
				return true
			}
		}
		return false
	}
	search(el.RootNode())
	return found
}
