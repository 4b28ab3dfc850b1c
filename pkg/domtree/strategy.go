package domtree

import (
	"errors"

	"github.com/entrhq/pagemap/pkg/dom"
)

// strategy selects how the children of an element are traversed.
type strategy int

const (
	strategyElement strategy = iota
	strategyFrame
	strategyEditable
	strategyShadowHost
)

func (s strategy) String() string {
	switch s {
	case strategyFrame:
		return "frame"
	case strategyEditable:
		return "editable"
	case strategyShadowHost:
		return "shadow-host"
	default:
		return "element"
	}
}

func (b *builder) strategyFor(el dom.Node) strategy {
	switch {
	case el.TagName() == "iframe":
		return strategyFrame
	case b.rules.isEditor(el):
		return strategyEditable
	case el.ShadowRoot() != nil:
		return strategyShadowHost
	default:
		return strategyElement
	}
}

// visitChildren builds the child records of el and returns their ids in
// document order.
func (b *builder) visitChildren(el dom.Node, rec *NodeRecord, st strategy, ctx visit) []string {
	switch st {
	case strategyFrame:
		content, err := el.ContentDocument()
		if err != nil {
			if errors.Is(err, dom.ErrCrossOrigin) {
				b.debugf("skipping cross-origin %s %s", st, rec.XPath)
			} else {
				b.debugf("unable to access %s %s: %v", st, rec.XPath, err)
			}
			return []string{}
		}
		if content == nil {
			return []string{}
		}
		return b.visitAll(content.Children(), visit{frame: el, inEditor: false})

	case strategyEditable:
		ctx.inEditor = true
		return b.visitAll(el.Children(), ctx)

	case strategyShadowHost:
		rec.ShadowRoot = true
		ids := b.visitAll(el.ShadowRoot().Children(), ctx)
		return append(ids, b.visitAll(el.Children(), ctx)...)

	default:
		return b.visitAll(el.Children(), ctx)
	}
}

func (b *builder) visitAll(nodes []dom.Node, ctx visit) []string {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if id := b.buildNode(n, ctx); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
